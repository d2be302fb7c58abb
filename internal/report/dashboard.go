package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"stockroom/internal/domain"
)

// MonthlySeries totals sales and purchases per calendar month, oldest first.
// Months with no documents are not emitted.
func MonthlySeries(sales []domain.Document, purchases []domain.Document) []domain.MonthlyTotal {
	byMonth := make(map[string]*domain.MonthlyTotal)
	add := func(doc domain.Document, isSale bool) {
		if doc.Date.IsZero() {
			return
		}
		key := doc.Date.Format("2006-01")
		bucket, ok := byMonth[key]
		if !ok {
			bucket = &domain.MonthlyTotal{
				Month:     key,
				Label:     doc.Date.Format("Jan 2006"),
				Sales:     decimal.Zero,
				Purchases: decimal.Zero,
			}
			byMonth[key] = bucket
		}
		if isSale {
			bucket.Sales = bucket.Sales.Add(doc.Total)
		} else {
			bucket.Purchases = bucket.Purchases.Add(doc.Total)
		}
	}
	for _, doc := range sales {
		add(doc, true)
	}
	for _, doc := range purchases {
		add(doc, false)
	}

	out := make([]domain.MonthlyTotal, 0, len(byMonth))
	for _, bucket := range byMonth {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month < out[j].Month
	})
	return out
}

// LowStock lists products with stock at or below threshold, lowest first.
func LowStock(products []domain.Product, threshold int) []domain.Product {
	out := make([]domain.Product, 0)
	for _, p := range products {
		if p.Stock <= threshold {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Stock < out[j].Stock
	})
	return out
}

func BuildDashboard(in Input, lowStockThreshold int) domain.Dashboard {
	return domain.Dashboard{
		TotalProducts:  len(in.Products),
		TotalSales:     SumTotals(in.Sales),
		TotalPurchases: SumTotals(in.Purchases),
		TotalCustomers: len(in.Customers),
		Monthly:        MonthlySeries(in.Sales, in.Purchases),
		LowStock:       LowStock(in.Products, lowStockThreshold),
	}
}
