package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"stockroom/internal/domain"
	"stockroom/internal/ledger"
	"stockroom/internal/listing"
	"stockroom/internal/store"
)

// Documents is the book of sales or purchases. Documents are created from a
// draft of line item operations and are immutable afterwards.
type Documents struct {
	svc  *Service
	kind domain.DocumentKind
	coll *store.Collection[domain.Document]
}

func newDocuments(svc *Service, kind domain.DocumentKind, coll *store.Collection[domain.Document]) *Documents {
	return &Documents{svc: svc, kind: kind, coll: coll}
}

func (d *Documents) Kind() domain.DocumentKind {
	return d.kind
}

func (d *Documents) All(ctx context.Context) ([]domain.Document, error) {
	return d.coll.All(ctx)
}

func (d *Documents) List(ctx context.Context, query string, page int, pageSize int) (listing.Page[domain.Document], error) {
	docs, err := d.coll.All(ctx)
	if err != nil {
		return listing.Page[domain.Document]{}, err
	}
	return listing.Query(docs, query, page, pageSize), nil
}

func (d *Documents) Get(ctx context.Context, id int) (domain.Document, error) {
	docs, err := d.coll.All(ctx)
	if err != nil {
		return domain.Document{}, err
	}
	idx := store.IndexOf(docs, id)
	if idx < 0 {
		return domain.Document{}, fmt.Errorf("%s %d: %w", d.kind, id, store.ErrNotFound)
	}
	return docs[idx], nil
}

// Preview replays the draft against the current catalog without saving it.
func (d *Documents) Preview(ctx context.Context, req domain.DocumentDraftRequest) (domain.Document, error) {
	if _, err := requireRole(ctx, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return domain.Document{}, err
	}
	return d.draft(ctx, req)
}

// Create saves the drafted document. A blank reference is numbered from the
// size of the book, e.g. INV004 or PO012.
func (d *Documents) Create(ctx context.Context, req domain.DocumentDraftRequest) (domain.Document, error) {
	if _, err := requireRole(ctx, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return domain.Document{}, err
	}

	doc, err := d.draft(ctx, req)
	if err != nil {
		return domain.Document{}, err
	}
	fields := map[string]string{}
	if doc.Counterparty == "" {
		fields["counterparty"] = "This field is required"
	}
	if len(doc.Items) == 0 {
		fields["items"] = "At least one line item is required"
	}
	if len(fields) > 0 {
		return domain.Document{}, &ValidationError{Fields: fields}
	}

	d.svc.writeMu.Lock()
	defer d.svc.writeMu.Unlock()

	docs, err := d.coll.All(ctx)
	if err != nil {
		return domain.Document{}, err
	}
	if doc.Reference == "" {
		doc.Reference = d.nextReference(docs)
	} else if referenceTaken(docs, doc.Reference) {
		return domain.Document{}, fmt.Errorf("reference %s already exists: %w", doc.Reference, ErrConflict)
	}
	doc.ID = store.NextID(docs)

	docs = append(docs, doc)
	if err := d.coll.Replace(ctx, docs); err != nil {
		return domain.Document{}, err
	}

	d.svc.mutated(d.coll.Name(), "create")
	d.svc.logAudit(ctx, "create_"+string(d.kind), string(d.kind), strconv.Itoa(doc.ID),
		fmt.Sprintf("reference=%s total=%s items=%d", doc.Reference, doc.Total.StringFixed(2), len(doc.Items)))
	return doc, nil
}

func (d *Documents) draft(ctx context.Context, req domain.DocumentDraftRequest) (domain.Document, error) {
	if err := validateStruct(req); err != nil {
		return domain.Document{}, err
	}

	status := req.Status
	if status == "" {
		status = domain.StatusPending
	}
	if !d.kind.StatusAllowed(status) {
		return domain.Document{}, fieldError("status", fmt.Sprintf("Status %q is not valid for a %s", status, d.kind))
	}

	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return domain.Document{}, fieldError("date", "Must be a date in YYYY-MM-DD format")
	}
	if date.IsZero() {
		now := d.svc.now()
		date = domain.NewDate(now.Year(), now.Month(), now.Day())
	}

	products, err := d.svc.Products.All(ctx)
	if err != nil {
		return domain.Document{}, err
	}

	doc := domain.Document{
		Reference:    strings.ToUpper(strings.TrimSpace(req.Reference)),
		Counterparty: strings.TrimSpace(req.Counterparty),
		Date:         date,
		Items:        []domain.LineItem{},
		Status:       status,
	}
	ledger.Apply(&doc, req.Ops, ledger.CatalogFrom(products))
	return doc, nil
}

func (d *Documents) nextReference(docs []domain.Document) string {
	for n := len(docs) + 1; ; n++ {
		ref := fmt.Sprintf("%s%03d", d.kind.ReferencePrefix(), n)
		if !referenceTaken(docs, ref) {
			return ref
		}
	}
}

func referenceTaken(docs []domain.Document, ref string) bool {
	for _, doc := range docs {
		if strings.EqualFold(doc.Reference, ref) {
			return true
		}
	}
	return false
}
