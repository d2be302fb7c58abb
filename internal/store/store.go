package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecord = errors.New("invalid record")
)

// Collection names persisted by the application.
const (
	Products     = "products"
	Sales        = "sales"
	Purchases    = "purchases"
	Customers    = "customers"
	Suppliers    = "suppliers"
	Expenses     = "expenses"
	Quotations   = "quotations"
	Transfers    = "transfers"
	Stores       = "stores"
	SalesReturns = "salesReturns"
	AppSettings  = "appSettings"
	Users        = "users"
	AuditLog     = "auditLog"
)

// Backend persists one JSON array per named collection. Save replaces the
// whole collection; the last writer wins.
type Backend interface {
	Load(ctx context.Context, name string) (payload []byte, found bool, err error)
	Save(ctx context.Context, name string, payload []byte) error
}

// Collection is a typed view over one named collection of a Backend. Writes
// through one Collection are serialized with its own first-load seeding, so a
// lazy seed never lands on top of a record saved in the meantime.
type Collection[T any] struct {
	name    string
	backend Backend
	seed    func() []T

	mu sync.Mutex
}

func NewCollection[T any](backend Backend, name string, seed func() []T) *Collection[T] {
	return &Collection[T]{name: name, backend: backend, seed: seed}
}

func (c *Collection[T]) Name() string {
	return c.name
}

// All returns the persisted records. A collection that was never saved is
// initialized with its seed set, which is persisted before being returned.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	records, found, err := c.load(ctx)
	if err != nil || found {
		return records, err
	}
	records, _, err = c.seedIfMissing(ctx)
	return records, err
}

// Replace overwrites the collection with records.
func (c *Collection[T]) Replace(ctx context.Context, records []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, records)
}

// Seed persists the seed set unless the collection already exists. It
// reports whether anything was written.
func (c *Collection[T]) Seed(ctx context.Context) (bool, error) {
	_, wrote, err := c.seedIfMissing(ctx)
	return wrote, err
}

// seedIfMissing re-checks the backend under the write lock, so a save that
// won the race is returned instead of being overwritten.
func (c *Collection[T]) seedIfMissing(ctx context.Context) ([]T, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, found, err := c.load(ctx)
	if err != nil {
		return nil, false, err
	}
	if found {
		return records, false, nil
	}
	records = make([]T, 0)
	if c.seed != nil {
		records = append(records, c.seed()...)
	}
	if err := c.save(ctx, records); err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func (c *Collection[T]) load(ctx context.Context) ([]T, bool, error) {
	payload, found, err := c.backend.Load(ctx, c.name)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", c.name, err)
	}
	if !found {
		return nil, false, nil
	}
	records := make([]T, 0)
	if len(payload) == 0 {
		return records, true, nil
	}
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, true, fmt.Errorf("decode %s: %w", c.name, err)
	}
	return records, true, nil
}

func (c *Collection[T]) save(ctx context.Context, records []T) error {
	if records == nil {
		records = make([]T, 0)
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name, err)
	}
	if err := c.backend.Save(ctx, c.name, payload); err != nil {
		return fmt.Errorf("save %s: %w", c.name, err)
	}
	return nil
}

type identified interface {
	RecordID() int
}

// NextID is one more than the largest id in records, or 1 when empty.
func NextID[T identified](records []T) int {
	maxID := 0
	for _, r := range records {
		if id := r.RecordID(); id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

// IndexOf returns the position of the record with id, or -1.
func IndexOf[T identified](records []T, id int) int {
	for i, r := range records {
		if r.RecordID() == id {
			return i
		}
	}
	return -1
}
