package ledger

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/domain"
)

func product(id int, name string, price string) *domain.Product {
	return &domain.Product{ID: id, Name: name, Price: decimal.RequireFromString(price)}
}

func TestAddItemAppendsAndPricesFromProduct(t *testing.T) {
	doc := &domain.Document{}

	AddItem(doc, product(1, "Laptop", "999.99"), 1)
	AddItem(doc, product(3, "Headphones", "99.99"), 2)

	require.Len(t, doc.Items, 2)
	assert.Equal(t, "Laptop", doc.Items[0].Name)
	assert.Equal(t, 2, doc.Items[1].Quantity)
	assert.True(t, decimal.RequireFromString("1199.97").Equal(doc.Total), "total %s", doc.Total)
}

func TestAddItemMergesDuplicateProduct(t *testing.T) {
	doc := &domain.Document{}

	AddItem(doc, product(5, "Keyboard", "49.99"), 2)
	AddItem(doc, product(5, "Keyboard", "10.00"), 3)

	require.Len(t, doc.Items, 1)
	assert.Equal(t, 5, doc.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("49.99").Equal(doc.Items[0].UnitPrice), "price must not change on merge")
	assert.True(t, decimal.RequireFromString("249.95").Equal(doc.Total))
}

func TestAddItemNilProductIsNoop(t *testing.T) {
	doc := &domain.Document{}
	AddItem(doc, product(1, "Laptop", "999.99"), 1)

	AddItem(doc, nil, 4)

	require.Len(t, doc.Items, 1)
	assert.True(t, decimal.RequireFromString("999.99").Equal(doc.Total))
}

func TestAddItemClampsQuantity(t *testing.T) {
	doc := &domain.Document{}

	AddItem(doc, product(2, "Smartphone", "699.99"), 0)
	AddItem(doc, product(4, "Monitor", "299.99"), -3)

	require.Len(t, doc.Items, 2)
	assert.Equal(t, 1, doc.Items[0].Quantity)
	assert.Equal(t, 1, doc.Items[1].Quantity)
}

func TestRemoveItem(t *testing.T) {
	doc := &domain.Document{}
	AddItem(doc, product(1, "Laptop", "999.99"), 1)
	AddItem(doc, product(3, "Headphones", "99.99"), 1)

	RemoveItem(doc, 1)

	require.Len(t, doc.Items, 1)
	assert.Equal(t, 3, doc.Items[0].ProductID)
	assert.True(t, decimal.RequireFromString("99.99").Equal(doc.Total))
}

func TestRemoveMissingItemLeavesDocumentUnchanged(t *testing.T) {
	doc := &domain.Document{}
	AddItem(doc, product(1, "Laptop", "999.99"), 2)
	before := *doc
	beforeItems := append([]domain.LineItem(nil), doc.Items...)

	RemoveItem(doc, 42)

	assert.Equal(t, beforeItems, doc.Items)
	assert.True(t, before.Total.Equal(doc.Total))
}

func TestRemoveDoesNotMutateSharedItems(t *testing.T) {
	doc := &domain.Document{}
	AddItem(doc, product(1, "Laptop", "999.99"), 1)
	AddItem(doc, product(2, "Smartphone", "699.99"), 1)
	snapshot := *doc

	RemoveItem(doc, 1)

	require.Len(t, snapshot.Items, 2)
	assert.Equal(t, 1, snapshot.Items[0].ProductID)
}

func TestApplyReplaysOps(t *testing.T) {
	catalog := CatalogFrom([]domain.Product{
		*product(1, "Laptop", "999.99"),
		*product(5, "Keyboard", "49.99"),
	})
	doc := &domain.Document{}

	Apply(doc, []domain.LineItemOp{
		{Action: domain.ActionAdd, ProductID: 1, Quantity: 1},
		{Action: domain.ActionAdd, ProductID: 5, Quantity: 2},
		{Action: domain.ActionAdd, ProductID: 99, Quantity: 1},
		{Action: domain.ActionAdd, ProductID: 5, Quantity: 1},
		{Action: domain.ActionRemove, ProductID: 1},
	}, catalog)

	require.Len(t, doc.Items, 1)
	assert.Equal(t, 3, doc.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("149.97").Equal(doc.Total))
}

func TestTotalNeverDrifts(t *testing.T) {
	products := []domain.Product{
		*product(1, "Laptop", "999.99"),
		*product(2, "Smartphone", "699.99"),
		*product(3, "Headphones", "99.99"),
		*product(4, "Monitor", "299.99"),
		*product(5, "Keyboard", "49.99"),
	}
	rng := rand.New(rand.NewSource(7))
	doc := &domain.Document{}

	for i := 0; i < 500; i++ {
		p := products[rng.Intn(len(products))]
		if rng.Intn(3) == 0 {
			RemoveItem(doc, p.ID)
		} else {
			AddItem(doc, &p, rng.Intn(5)+1)
		}

		want := decimal.Zero
		seen := map[int]bool{}
		for _, item := range doc.Items {
			require.False(t, seen[item.ProductID], "duplicate line item for product %d", item.ProductID)
			seen[item.ProductID] = true
			want = want.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		require.True(t, want.Equal(doc.Total), "step %d: total %s, want %s", i, doc.Total, want)
	}
}
