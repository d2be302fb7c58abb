// Package ledger maintains the line items of a sale or purchase document.
// Every mutation recomputes the document total from its items.
package ledger

import (
	"github.com/shopspring/decimal"

	"stockroom/internal/domain"
)

// Catalog resolves a product id to the product used for pricing new items.
type Catalog func(productID int) (*domain.Product, bool)

// AddItem merges quantity into the item for product, or appends a new item
// priced at product.Price. A nil product leaves doc untouched.
func AddItem(doc *domain.Document, product *domain.Product, quantity int) {
	if doc == nil || product == nil {
		return
	}
	quantity = ClampQuantity(quantity)

	merged := false
	for i := range doc.Items {
		if doc.Items[i].ProductID == product.ID {
			doc.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		doc.Items = append(doc.Items, domain.LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  quantity,
			UnitPrice: product.Price,
		})
	}
	doc.Total = Total(doc.Items)
}

// RemoveItem drops the item for productID if present.
func RemoveItem(doc *domain.Document, productID int) {
	if doc == nil {
		return
	}
	for i, item := range doc.Items {
		if item.ProductID != productID {
			continue
		}
		kept := make([]domain.LineItem, 0, len(doc.Items)-1)
		kept = append(kept, doc.Items[:i]...)
		kept = append(kept, doc.Items[i+1:]...)
		doc.Items = kept
		break
	}
	doc.Total = Total(doc.Items)
}

// Apply replays ops in order. Adds for products the catalog does not know are
// skipped.
func Apply(doc *domain.Document, ops []domain.LineItemOp, catalog Catalog) {
	if doc == nil {
		return
	}
	for _, op := range ops {
		switch op.Action {
		case domain.ActionAdd:
			if catalog == nil {
				continue
			}
			product, ok := catalog(op.ProductID)
			if !ok {
				continue
			}
			AddItem(doc, product, op.Quantity)
		case domain.ActionRemove:
			RemoveItem(doc, op.ProductID)
		}
	}
	doc.Total = Total(doc.Items)
}

// Total is the exact sum of quantity*unitPrice over items.
func Total(items []domain.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func ClampQuantity(quantity int) int {
	if quantity < 1 {
		return 1
	}
	return quantity
}

// CatalogFrom indexes products by id.
func CatalogFrom(products []domain.Product) Catalog {
	byID := make(map[int]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return func(productID int) (*domain.Product, bool) {
		p, ok := byID[productID]
		if !ok {
			return nil, false
		}
		return &p, true
	}
}
