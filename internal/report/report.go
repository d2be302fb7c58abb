// Package report aggregates sales and purchases into report and dashboard
// snapshots. All functions are pure and take the reference time explicitly.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockroom/internal/domain"
)

var ErrUnknownGranularity = errors.New("unknown granularity")

const (
	TopSellerLimit  = 5
	RecentSaleLimit = 5
)

var hundred = decimal.NewFromInt(100)

// Window bounds the current period [Start, ∞) and the previous period
// [PreviousStart, PreviousEnd). Bounded is false for the all-time window.
type Window struct {
	Granularity   domain.Granularity
	Now           time.Time
	Start         time.Time
	PreviousStart time.Time
	PreviousEnd   time.Time
	Bounded       bool
}

func ParseGranularity(raw string) (domain.Granularity, error) {
	g := domain.Granularity(strings.ToLower(strings.TrimSpace(raw)))
	if g == "" {
		return domain.GranularityMonth, nil
	}
	switch g {
	case domain.GranularityWeek, domain.GranularityMonth, domain.GranularityQuarter, domain.GranularityYear, domain.GranularityAll:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, raw)
}

func NewWindow(g domain.Granularity, now time.Time) (Window, error) {
	w := Window{Granularity: g, Now: now}
	switch g {
	case domain.GranularityWeek:
		w.Start = now.AddDate(0, 0, -7)
		w.PreviousStart = now.AddDate(0, 0, -14)
	case domain.GranularityMonth:
		w.Start = now.AddDate(0, -1, 0)
		w.PreviousStart = now.AddDate(0, -2, 0)
	case domain.GranularityQuarter:
		w.Start = now.AddDate(0, -3, 0)
		w.PreviousStart = now.AddDate(0, -6, 0)
	case domain.GranularityYear:
		w.Start = now.AddDate(-1, 0, 0)
		w.PreviousStart = now.AddDate(-2, 0, 0)
	case domain.GranularityAll:
		return w, nil
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
	w.PreviousEnd = w.Start
	w.Bounded = true
	return w, nil
}

func (w Window) InCurrent(d domain.Date) bool {
	if !w.Bounded {
		return true
	}
	return !d.Before(w.Start)
}

func (w Window) InPrevious(d domain.Date) bool {
	if !w.Bounded {
		return false
	}
	return !d.Before(w.PreviousStart) && d.Before(w.PreviousEnd)
}

func (w Window) Snapshot() domain.ReportWindow {
	out := domain.ReportWindow{Granularity: w.Granularity, End: w.Now}
	if w.Bounded {
		start, prevStart, prevEnd := w.Start, w.PreviousStart, w.PreviousEnd
		out.Start = &start
		out.PreviousStart = &prevStart
		out.PreviousEnd = &prevEnd
	}
	return out
}

// Current keeps the documents dated on or after the window start.
func (w Window) Current(docs []domain.Document) []domain.Document {
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if w.InCurrent(doc.Date) {
			out = append(out, doc)
		}
	}
	return out
}

func (w Window) Previous(docs []domain.Document) []domain.Document {
	out := make([]domain.Document, 0)
	for _, doc := range docs {
		if w.InPrevious(doc.Date) {
			out = append(out, doc)
		}
	}
	return out
}

// PercentChange is (curr-prev)/prev*100, or 100/0 when prev is zero.
func PercentChange(curr, prev decimal.Decimal) float64 {
	if prev.IsZero() {
		if curr.IsPositive() {
			return 100
		}
		return 0
	}
	return curr.Sub(prev).Div(prev).Mul(hundred).InexactFloat64()
}

func TrendOf(change float64) domain.Trend {
	if change >= 0 {
		return domain.TrendUp
	}
	return domain.TrendDown
}

func SumTotals(docs []domain.Document) decimal.Decimal {
	sum := decimal.Zero
	for _, doc := range docs {
		sum = sum.Add(doc.Total)
	}
	return sum
}

func amountCard(title string, w Window, docs []domain.Document) domain.StatCard {
	curr := SumTotals(w.Current(docs))
	card := domain.StatCard{Title: title, Value: curr, Previous: decimal.Zero, Trend: domain.TrendFlat}
	if !w.Bounded {
		return card
	}
	prev := SumTotals(w.Previous(docs))
	card.Previous = prev
	card.Change = PercentChange(curr, prev)
	card.Trend = TrendOf(card.Change)
	card.Comparable = true
	return card
}

// countCard carries a record count with its all-time total as baseline. The
// records have no period dimension, so no trend is derived.
func countCard(title string, current int, allTime int) domain.StatCard {
	baseline := allTime
	return domain.StatCard{
		Title:    title,
		Value:    decimal.NewFromInt(int64(current)),
		Previous: decimal.Zero,
		Trend:    domain.TrendFlat,
		Baseline: &baseline,
	}
}

// TopSellers ranks products by units sold across the sales' line items. Ties
// keep first-encounter order.
func TopSellers(sales []domain.Document, limit int) []domain.ProductSales {
	index := make(map[int]int)
	ranked := make([]domain.ProductSales, 0)
	for _, sale := range sales {
		for _, item := range sale.Items {
			revenue := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
			pos, ok := index[item.ProductID]
			if !ok {
				index[item.ProductID] = len(ranked)
				ranked = append(ranked, domain.ProductSales{
					ProductID: item.ProductID,
					Name:      item.Name,
					UnitsSold: item.Quantity,
					Revenue:   revenue,
				})
				continue
			}
			ranked[pos].UnitsSold += item.Quantity
			ranked[pos].Revenue = ranked[pos].Revenue.Add(revenue)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].UnitsSold > ranked[j].UnitsSold
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// RecentSales orders sales newest first, keeping input order among equal
// dates.
func RecentSales(sales []domain.Document, limit int) []domain.Document {
	sorted := make([]domain.Document, len(sales))
	copy(sorted, sales)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date.Time)
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// ExportRows projects documents onto the exporter column set.
func ExportRows(docs []domain.Document) []domain.ExportRow {
	rows := make([]domain.ExportRow, 0, len(docs))
	for _, doc := range docs {
		rows = append(rows, domain.ExportRow{
			Reference:    doc.Reference,
			Counterparty: doc.Counterparty,
			Date:         doc.Date.String(),
			ItemCount:    len(doc.Items),
			Total:        doc.Total,
			Status:       doc.Status,
		})
	}
	return rows
}

type Input struct {
	Sales     []domain.Document
	Purchases []domain.Document
	Customers []domain.Customer
	Products  []domain.Product
}

// Build computes the full report snapshot for granularity at now.
func Build(in Input, g domain.Granularity, now time.Time) (domain.Report, error) {
	w, err := NewWindow(g, now)
	if err != nil {
		return domain.Report{}, err
	}

	active := 0
	for _, c := range in.Customers {
		if c.Status == domain.StatusActive {
			active++
		}
	}

	currentSales := w.Current(in.Sales)
	return domain.Report{
		Window:      w.Snapshot(),
		Sales:       amountCard("Total Sales", w, in.Sales),
		Purchases:   amountCard("Total Purchases", w, in.Purchases),
		Customers:   countCard("Active Customers", active, len(in.Customers)),
		Products:    countCard("Products", len(in.Products), len(in.Products)),
		TopSellers:  TopSellers(currentSales, TopSellerLimit),
		RecentSales: RecentSales(currentSales, RecentSaleLimit),
		GeneratedAt: now,
	}, nil
}
