package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"stockroom/internal/cache"
	"stockroom/internal/domain"
	"stockroom/internal/ids"
	"stockroom/internal/logger"
	"stockroom/internal/metrics"
	"stockroom/internal/store"
)

var (
	ErrForbidden = errors.New("admin role required")
	ErrConflict  = errors.New("conflict")
)

const auditLogLimit = 1000

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	Cache             cache.ReportCache
	CacheTTL          time.Duration
	Metrics           *metrics.Metrics
	LowStockThreshold int
	SeedAdminPassword string
	SeedStaffPassword string
	Clock             func() time.Time
}

type Service struct {
	Products     *Records[domain.Product, *domain.Product]
	Customers    *Records[domain.Customer, *domain.Customer]
	Suppliers    *Records[domain.Supplier, *domain.Supplier]
	Expenses     *Records[domain.Expense, *domain.Expense]
	Quotations   *Records[domain.Quotation, *domain.Quotation]
	Transfers    *Records[domain.Transfer, *domain.Transfer]
	Stores       *Records[domain.Location, *domain.Location]
	SalesReturns *Records[domain.SalesReturn, *domain.SalesReturn]
	Sales        *Documents
	Purchases    *Documents

	settings *store.Collection[domain.Settings]
	users    *store.Collection[domain.UserAccount]
	audit    *store.Collection[domain.AuditEntry]

	// writeMu serializes load-modify-save cycles within this process.
	writeMu    sync.Mutex
	generation atomic.Int64

	cache             cache.ReportCache
	cacheTTL          time.Duration
	metrics           *metrics.Metrics
	lowStockThreshold int
	now               func() time.Time
	log               zerolog.Logger
}

func New(backend store.Backend, opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = cache.NoopReportCache{}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}

	s := &Service{
		settings:          store.NewCollection(backend, store.AppSettings, store.SeedSettings),
		users:             store.NewCollection(backend, store.Users, store.SeedUsers(opts.SeedAdminPassword, opts.SeedStaffPassword)),
		audit:             store.NewCollection[domain.AuditEntry](backend, store.AuditLog, nil),
		cache:             opts.Cache,
		cacheTTL:          opts.CacheTTL,
		metrics:           opts.Metrics,
		lowStockThreshold: opts.LowStockThreshold,
		now:               opts.Clock,
		log:               logger.WithComponent("service"),
	}

	s.Products = newRecords(s, store.NewCollection(backend, store.Products, store.SeedProducts), "product", sameSKU)
	s.Customers = newRecords(s, store.NewCollection(backend, store.Customers, store.SeedCustomers), "customer", nil)
	s.Suppliers = newRecords(s, store.NewCollection(backend, store.Suppliers, store.SeedSuppliers), "supplier", nil)
	s.Expenses = newRecords(s, store.NewCollection(backend, store.Expenses, store.SeedExpenses), "expense", nil)
	s.Quotations = newRecords(s, store.NewCollection(backend, store.Quotations, store.SeedQuotations), "quotation", nil)
	s.Transfers = newRecords(s, store.NewCollection(backend, store.Transfers, store.SeedTransfers), "transfer", nil)
	s.Stores = newRecords(s, store.NewCollection(backend, store.Stores, store.SeedLocations), "store", nil)
	s.SalesReturns = newRecords(s, store.NewCollection(backend, store.SalesReturns, store.SeedSalesReturns), "sales_return", nil)
	s.Sales = newDocuments(s, domain.KindSale, store.NewCollection(backend, store.Sales, store.SeedSales))
	s.Purchases = newDocuments(s, domain.KindPurchase, store.NewCollection(backend, store.Purchases, store.SeedPurchases))

	return s
}

func sameSKU(a domain.Product, b domain.Product) bool {
	return a.SKU == b.SKU
}

// Documents returns the sales or purchases book for kind.
func (s *Service) Documents(kind domain.DocumentKind) (*Documents, error) {
	switch kind {
	case domain.KindSale:
		return s.Sales, nil
	case domain.KindPurchase:
		return s.Purchases, nil
	}
	return nil, fmt.Errorf("unknown document kind %q", kind)
}

// Seed materializes every collection that has never been saved and reports
// the names it wrote.
func (s *Service) Seed(ctx context.Context) ([]string, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	seeders := []interface {
		Name() string
		Seed(ctx context.Context) (bool, error)
	}{
		s.Products.coll, s.Sales.coll, s.Purchases.coll, s.Customers.coll, s.Suppliers.coll,
		s.Expenses.coll, s.Quotations.coll, s.Transfers.coll, s.Stores.coll, s.SalesReturns.coll,
		s.settings, s.users,
	}
	written := make([]string, 0, len(seeders))
	for _, c := range seeders {
		wrote, err := c.Seed(ctx)
		if err != nil {
			return written, err
		}
		if wrote {
			written = append(written, c.Name())
		}
	}
	return written, nil
}

func requireAdmin(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Actor{}, ErrForbidden
	}
	return actor, nil
}

func requireRole(ctx context.Context, roles ...string) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, ErrForbidden
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, nil
		}
	}
	return domain.Actor{}, ErrForbidden
}

// mutated invalidates cached reports and counts the mutation.
func (s *Service) mutated(collection string, action string) {
	s.generation.Add(1)
	s.metrics.RecordMutation(collection, action)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	entry := domain.AuditEntry{
		ID:            ids.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     s.now(),
	}

	entries, err := s.audit.All(ctx)
	if err == nil {
		entries = append(entries, entry)
		if len(entries) > auditLogLimit {
			entries = entries[len(entries)-auditLogLimit:]
		}
		err = s.audit.Replace(ctx, entries)
	}
	if err != nil {
		s.log.Warn().Err(err).
			Str("action", action).
			Str("entity", entityType+"/"+entityID).
			Msg("failed to write audit log")
	}
}

// ListAuditLog returns the newest entries first.
func (s *Service) ListAuditLog(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	entries, err := s.audit.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AuditEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
