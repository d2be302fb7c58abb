package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stockroom/internal/cache"
	"stockroom/internal/domain"
	"stockroom/internal/metrics"
	"stockroom/internal/report"
	"stockroom/internal/store"
	"stockroom/internal/store/memory"
)

var testNow = time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)

func newTestService() *Service {
	return newTestServiceWith(Options{})
}

func newTestServiceWith(opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return testNow }
	}
	if opts.LowStockThreshold == 0 {
		opts.LowStockThreshold = 60
	}
	opts.SeedAdminPassword = "admin123"
	opts.SeedStaffPassword = "staff123"
	return New(memory.New(), opts)
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin})
}

func staffCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "staff", Role: domain.RoleStaff})
}

type countingCache struct {
	mu      sync.Mutex
	entries map[cache.ReportKey]domain.Report
	hits    int
}

func (c *countingCache) Get(_ context.Context, key cache.ReportKey) (*domain.Report, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	c.hits++
	return &r, true, nil
}

func (c *countingCache) Set(_ context.Context, key cache.ReportKey, value *domain.Report, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[cache.ReportKey]domain.Report)
	}
	c.entries[key] = *value
	return nil
}

func TestCreateProductAssignsNextID(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	created, err := svc.Products.Create(ctx, domain.Product{
		Name:     "  Webcam ",
		Category: "Accessories",
		Price:    decimal.RequireFromString("59.90"),
		Stock:    20,
		SKU:      "cam001",
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if created.ID != 6 {
		t.Fatalf("expected id 6 after five seeded products, got %d", created.ID)
	}
	if created.Name != "Webcam" || created.SKU != "CAM001" {
		t.Fatalf("expected normalized fields, got %+v", created)
	}

	got, err := svc.Products.Get(ctx, 6)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if !got.Price.Equal(decimal.RequireFromString("59.9")) {
		t.Fatalf("expected price 59.9, got %s", got.Price)
	}
}

func TestCreateProductRejectsInvalidFields(t *testing.T) {
	svc := newTestService()

	_, err := svc.Products.Create(adminCtx(), domain.Product{
		Name:  "Broken",
		Price: decimal.NewFromInt(-1),
		Stock: 1,
		SKU:   "BRK001",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if _, ok := verr.Fields["category"]; !ok {
		t.Fatalf("expected category to be reported, got %v", verr.Fields)
	}
	if _, ok := verr.Fields["price"]; !ok {
		t.Fatalf("expected price to be reported, got %v", verr.Fields)
	}
}

func TestCreateProductRejectsDuplicateSKU(t *testing.T) {
	svc := newTestService()

	_, err := svc.Products.Create(adminCtx(), domain.Product{
		Name:     "Another Laptop",
		Category: "Electronics",
		Price:    decimal.NewFromInt(10),
		SKU:      "lap001",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for duplicate sku, got %v", err)
	}
}

func TestStaffCannotMutateRecords(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()

	if err := svc.Customers.Delete(ctx, 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden delete, got %v", err)
	}
	if _, err := svc.Expenses.Update(ctx, 1, domain.Expense{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden update, got %v", err)
	}
	page, err := svc.Customers.List(ctx, "", 0, 10)
	if err != nil {
		t.Fatalf("staff list failed: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("expected staff to read 3 customers, got %d", page.Total)
	}
}

func TestUpdateKeepsStoredID(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	loc, err := svc.Stores.Get(ctx, 2)
	if err != nil {
		t.Fatalf("get store failed: %v", err)
	}
	loc.ID = 99
	loc.Status = "Disable"

	updated, err := svc.Stores.Update(ctx, 2, loc)
	if err != nil {
		t.Fatalf("update store failed: %v", err)
	}
	if updated.ID != 2 || updated.Status != "Disable" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if _, err := svc.Stores.Get(ctx, 99); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected id 99 to stay unknown, got %v", err)
	}
}

func TestDeleteThenNextIDUsesMax(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	if err := svc.Transfers.Delete(ctx, 2); err != nil {
		t.Fatalf("delete transfer failed: %v", err)
	}
	if err := svc.Transfers.Delete(ctx, 2); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}

	created, err := svc.Transfers.Create(ctx, domain.Transfer{
		Date:         domain.MustDate("2024-03-23"),
		Reference:    "TRF004",
		FromLocation: "Store 1",
		ToLocation:   "Store 2",
	})
	if err != nil {
		t.Fatalf("create transfer failed: %v", err)
	}
	if created.ID != 4 || created.Status != "Pending" {
		t.Fatalf("expected id 4 with default status, got %+v", created)
	}
}

func TestListFiltersAndPages(t *testing.T) {
	svc := newTestService()

	page, err := svc.Expenses.List(context.Background(), "monthly", 0, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 1 {
		t.Fatalf("expected 2 matches with one on the page, got total=%d items=%d", page.Total, len(page.Items))
	}
	if page.Items[0].ID != 2 {
		t.Fatalf("expected utilities expense first, got id %d", page.Items[0].ID)
	}
}

func TestCreateSaleFromDraft(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()

	sale, err := svc.Sales.Create(ctx, domain.DocumentDraftRequest{
		Counterparty: " Walk-in ",
		Ops: []domain.LineItemOp{
			{Action: domain.ActionAdd, ProductID: 3, Quantity: 2},
			{Action: domain.ActionAdd, ProductID: 5, Quantity: 0},
			{Action: domain.ActionAdd, ProductID: 3, Quantity: 1},
			{Action: domain.ActionAdd, ProductID: 42, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create sale failed: %v", err)
	}
	if sale.ID != 4 || sale.Reference != "INV004" {
		t.Fatalf("expected INV004 with id 4, got %s/%d", sale.Reference, sale.ID)
	}
	if sale.Status != domain.StatusPending || sale.Counterparty != "Walk-in" {
		t.Fatalf("unexpected defaults: %+v", sale)
	}
	if sale.Date.String() != "2024-03-20" {
		t.Fatalf("expected today's date, got %s", sale.Date)
	}
	if len(sale.Items) != 2 || sale.Items[0].Quantity != 3 || sale.Items[1].Quantity != 1 {
		t.Fatalf("unexpected items: %+v", sale.Items)
	}
	// 3 x 99.99 + 1 x 49.99
	if !sale.Total.Equal(decimal.RequireFromString("349.96")) {
		t.Fatalf("expected total 349.96, got %s", sale.Total)
	}
}

func TestCreatePurchaseRejectsSaleStatus(t *testing.T) {
	svc := newTestService()

	_, err := svc.Purchases.Create(adminCtx(), domain.DocumentDraftRequest{
		Counterparty: "Office Depot",
		Status:       domain.StatusCompleted,
		Ops:          []domain.LineItemOp{{Action: domain.ActionAdd, ProductID: 1, Quantity: 1}},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateDocumentRequiresItemsAndCounterparty(t *testing.T) {
	svc := newTestService()

	_, err := svc.Purchases.Create(adminCtx(), domain.DocumentDraftRequest{
		Ops: []domain.LineItemOp{
			{Action: domain.ActionAdd, ProductID: 1, Quantity: 1},
			{Action: domain.ActionRemove, ProductID: 1},
		},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("expected counterparty and items errors, got %v", verr.Fields)
	}
}

func TestCreateDocumentRejectsDuplicateReference(t *testing.T) {
	svc := newTestService()

	_, err := svc.Purchases.Create(adminCtx(), domain.DocumentDraftRequest{
		Reference:    "po001",
		Counterparty: "Office Depot",
		Ops:          []domain.LineItemOp{{Action: domain.ActionAdd, ProductID: 1, Quantity: 1}},
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()

	doc, err := svc.Sales.Preview(ctx, domain.DocumentDraftRequest{
		Ops: []domain.LineItemOp{{Action: domain.ActionAdd, ProductID: 1, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if !doc.Total.Equal(decimal.RequireFromString("1999.98")) {
		t.Fatalf("expected preview total 1999.98, got %s", doc.Total)
	}
	all, err := svc.Sales.All(ctx)
	if err != nil {
		t.Fatalf("list sales failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected preview not to persist, got %d sales", len(all))
	}
}

func TestDocumentsRequireActor(t *testing.T) {
	svc := newTestService()

	_, err := svc.Sales.Create(context.Background(), domain.DocumentDraftRequest{Counterparty: "x"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden without actor, got %v", err)
	}
}

func TestReportMatchesSeedTotals(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	rep, err := svc.Report(ctx, domain.GranularityMonth)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	sales, _ := svc.Sales.All(ctx)
	if !rep.Sales.Value.Equal(report.SumTotals(sales)) {
		t.Fatalf("expected sales card %s, got %s", report.SumTotals(sales), rep.Sales.Value)
	}
	if len(rep.RecentSales) != 3 || rep.RecentSales[0].Reference != "INV001" {
		t.Fatalf("expected newest sale first, got %+v", rep.RecentSales)
	}
	if rep.Customers.Value.IntPart() != 2 {
		t.Fatalf("expected two active customers, got %s", rep.Customers.Value)
	}
}

func TestReportCacheInvalidatedByMutation(t *testing.T) {
	c := &countingCache{}
	m := metrics.New()
	svc := newTestServiceWith(Options{Cache: c, Metrics: m})
	ctx := adminCtx()

	first, err := svc.Report(ctx, domain.GranularityYear)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if _, err := svc.Report(ctx, domain.GranularityYear); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if c.hits != 1 {
		t.Fatalf("expected second report to hit cache, got %d hits", c.hits)
	}

	_, err = svc.Sales.Create(ctx, domain.DocumentDraftRequest{
		Counterparty: "Jane Smith",
		Date:         "2024-03-19",
		Ops:          []domain.LineItemOp{{Action: domain.ActionAdd, ProductID: 4, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create sale failed: %v", err)
	}

	after, err := svc.Report(ctx, domain.GranularityYear)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if c.hits != 1 {
		t.Fatalf("expected mutation to bypass cached report, got %d hits", c.hits)
	}
	want := first.Sales.Value.Add(decimal.RequireFromString("299.99"))
	if !after.Sales.Value.Equal(want) {
		t.Fatalf("expected sales %s after new sale, got %s", want, after.Sales.Value)
	}
}

func TestReportRejectsUnknownGranularity(t *testing.T) {
	svc := newTestService()

	if _, err := svc.Report(context.Background(), "decade"); !errors.Is(err, report.ErrUnknownGranularity) {
		t.Fatalf("expected unknown granularity error, got %v", err)
	}
}

func TestDashboardHonoursLowStockAlerts(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	dash, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if dash.TotalProducts != 5 || dash.TotalCustomers != 3 {
		t.Fatalf("unexpected counts: %+v", dash)
	}
	if len(dash.LowStock) != 1 || dash.LowStock[0].SKU != "LAP001" {
		t.Fatalf("expected laptop below threshold 60, got %+v", dash.LowStock)
	}

	settings, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("settings failed: %v", err)
	}
	settings.Notifications.LowStockAlerts = false
	if _, err := svc.UpdateSettings(ctx, settings); err != nil {
		t.Fatalf("update settings failed: %v", err)
	}

	dash, err = svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if len(dash.LowStock) != 0 {
		t.Fatalf("expected no low stock list when alerts are off, got %d", len(dash.LowStock))
	}
}

func TestUpdateSettingsValidates(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	settings, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("settings failed: %v", err)
	}
	settings.Business.Currency = "JPY"
	settings.Business.Email = "not-an-email"

	_, err = svc.UpdateSettings(ctx, settings)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"business.currency", "business.email"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("expected %s in %v", field, verr.Fields)
		}
	}

	if _, err := svc.UpdateSettings(staffCtx(), store.DefaultSettings()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected staff to be forbidden, got %v", err)
	}
}

func TestExportFiltersByWindowAndQuery(t *testing.T) {
	svc := newTestService()

	rows, err := svc.Export(context.Background(), domain.KindPurchase, domain.GranularityMonth, "office")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Reference != "PO002" || rows[0].ItemCount != 2 {
		t.Fatalf("unexpected export rows: %+v", rows)
	}
	if rows[0].Date != "2024-03-14" {
		t.Fatalf("expected date string, got %q", rows[0].Date)
	}
}

func TestAuditLogRecordsMutations(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	if err := svc.Quotations.Delete(ctx, 3); err != nil {
		t.Fatalf("delete quotation failed: %v", err)
	}
	if err := svc.SalesReturns.Delete(ctx, 1); err != nil {
		t.Fatalf("delete sales return failed: %v", err)
	}

	entries, err := svc.ListAuditLog(ctx, 1)
	if err != nil {
		t.Fatalf("list audit log failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected limit to apply, got %d entries", len(entries))
	}
	if entries[0].Action != "delete_sales_return" || entries[0].EntityID != "1" || entries[0].ActorUsername != "admin" {
		t.Fatalf("expected newest entry first, got %+v", entries[0])
	}

	if _, err := svc.ListAuditLog(staffCtx(), 10); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected staff to be forbidden, got %v", err)
	}
}

func TestUserStore(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected seeded admin and staff, got %d", len(users))
	}

	if err := svc.CreateUser(ctx, domain.UserAccount{Username: "staff", Role: domain.RoleStaff}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected duplicate username conflict, got %v", err)
	}
	if err := svc.UpdateUserPassword(ctx, "ghost", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected unknown user to be not found, got %v", err)
	}
}

func TestSeedReportsWrittenCollections(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	written, err := svc.Seed(ctx)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if len(written) != 12 {
		t.Fatalf("expected 12 collections seeded, got %d: %v", len(written), written)
	}

	again, err := svc.Seed(ctx)
	if err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected seeding to be idempotent, got %v", again)
	}
}

type gatedBackend struct {
	store.Backend
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedBackend) Load(ctx context.Context, name string) ([]byte, bool, error) {
	first := false
	g.once.Do(func() { first = true })
	payload, found, err := g.Backend.Load(ctx, name)
	if first {
		close(g.entered)
		<-g.release
	}
	return payload, found, err
}

func TestFirstListDoesNotDropConcurrentCreate(t *testing.T) {
	backend := &gatedBackend{Backend: memory.New(), entered: make(chan struct{}), release: make(chan struct{})}
	svc := New(backend, Options{Clock: func() time.Time { return testNow }})

	listed := make(chan error, 1)
	go func() {
		_, err := svc.Products.List(staffCtx(), "", 0, 10)
		listed <- err
	}()
	<-backend.entered

	created, err := svc.Products.Create(adminCtx(), domain.Product{
		Name:     "Webcam",
		Category: "Accessories",
		Price:    decimal.RequireFromString("59.90"),
		Stock:    20,
		SKU:      "CAM001",
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	close(backend.release)
	if err := <-listed; err != nil {
		t.Fatalf("list products failed: %v", err)
	}

	if _, err := svc.Products.Get(adminCtx(), created.ID); err != nil {
		t.Fatalf("expected created product to survive the first list, got %v", err)
	}
}
