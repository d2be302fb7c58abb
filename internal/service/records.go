package service

import (
	"context"
	"fmt"
	"strconv"

	"stockroom/internal/domain"
	"stockroom/internal/listing"
	"stockroom/internal/store"
)

// Records is the CRUD surface of one flat record collection. Reads are open
// to every authenticated actor; writes need the admin role.
type Records[T domain.Record, PT domain.RecordPtr[T]] struct {
	svc    *Service
	coll   *store.Collection[T]
	entity string
	// conflicts reports whether two records may not coexist.
	conflicts func(a T, b T) bool
}

func newRecords[T domain.Record, PT domain.RecordPtr[T]](svc *Service, coll *store.Collection[T], entity string, conflicts func(a T, b T) bool) *Records[T, PT] {
	return &Records[T, PT]{svc: svc, coll: coll, entity: entity, conflicts: conflicts}
}

func (r *Records[T, PT]) Collection() string {
	return r.coll.Name()
}

func (r *Records[T, PT]) All(ctx context.Context) ([]T, error) {
	return r.coll.All(ctx)
}

// List filters by query and returns the requested zero-based page.
func (r *Records[T, PT]) List(ctx context.Context, query string, page int, pageSize int) (listing.Page[T], error) {
	records, err := r.coll.All(ctx)
	if err != nil {
		return listing.Page[T]{}, err
	}
	return listing.Query(records, query, page, pageSize), nil
}

func (r *Records[T, PT]) Get(ctx context.Context, id int) (T, error) {
	var zero T
	records, err := r.coll.All(ctx)
	if err != nil {
		return zero, err
	}
	idx := store.IndexOf(records, id)
	if idx < 0 {
		return zero, fmt.Errorf("%s %d: %w", r.entity, id, store.ErrNotFound)
	}
	return records[idx], nil
}

func (r *Records[T, PT]) Create(ctx context.Context, record T) (T, error) {
	var zero T
	if _, err := requireAdmin(ctx); err != nil {
		return zero, err
	}
	PT(&record).Normalize()
	if err := validateStruct(record); err != nil {
		return zero, err
	}

	r.svc.writeMu.Lock()
	defer r.svc.writeMu.Unlock()

	records, err := r.coll.All(ctx)
	if err != nil {
		return zero, err
	}
	PT(&record).SetRecordID(store.NextID(records))
	if err := r.checkConflict(records, record); err != nil {
		return zero, err
	}

	records = append(records, record)
	if err := r.coll.Replace(ctx, records); err != nil {
		return zero, err
	}

	r.svc.mutated(r.coll.Name(), "create")
	r.svc.logAudit(ctx, "create_"+r.entity, r.entity, strconv.Itoa(record.RecordID()), "")
	return record, nil
}

// Update replaces the record with id. The stored id always wins over the one
// in record.
func (r *Records[T, PT]) Update(ctx context.Context, id int, record T) (T, error) {
	var zero T
	if _, err := requireAdmin(ctx); err != nil {
		return zero, err
	}
	PT(&record).Normalize()
	PT(&record).SetRecordID(id)
	if err := validateStruct(record); err != nil {
		return zero, err
	}

	r.svc.writeMu.Lock()
	defer r.svc.writeMu.Unlock()

	records, err := r.coll.All(ctx)
	if err != nil {
		return zero, err
	}
	idx := store.IndexOf(records, id)
	if idx < 0 {
		return zero, fmt.Errorf("%s %d: %w", r.entity, id, store.ErrNotFound)
	}
	if err := r.checkConflict(records, record); err != nil {
		return zero, err
	}

	updated := make([]T, len(records))
	copy(updated, records)
	updated[idx] = record
	if err := r.coll.Replace(ctx, updated); err != nil {
		return zero, err
	}

	r.svc.mutated(r.coll.Name(), "update")
	r.svc.logAudit(ctx, "update_"+r.entity, r.entity, strconv.Itoa(id), "")
	return record, nil
}

func (r *Records[T, PT]) Delete(ctx context.Context, id int) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}

	r.svc.writeMu.Lock()
	defer r.svc.writeMu.Unlock()

	records, err := r.coll.All(ctx)
	if err != nil {
		return err
	}
	idx := store.IndexOf(records, id)
	if idx < 0 {
		return fmt.Errorf("%s %d: %w", r.entity, id, store.ErrNotFound)
	}

	kept := make([]T, 0, len(records)-1)
	kept = append(kept, records[:idx]...)
	kept = append(kept, records[idx+1:]...)
	if err := r.coll.Replace(ctx, kept); err != nil {
		return err
	}

	r.svc.mutated(r.coll.Name(), "delete")
	r.svc.logAudit(ctx, "delete_"+r.entity, r.entity, strconv.Itoa(id), "")
	return nil
}

func (r *Records[T, PT]) checkConflict(records []T, candidate T) error {
	if r.conflicts == nil {
		return nil
	}
	for _, existing := range records {
		if existing.RecordID() == candidate.RecordID() {
			continue
		}
		if r.conflicts(existing, candidate) {
			return fmt.Errorf("%s %d conflicts with existing %s %d: %w",
				r.entity, candidate.RecordID(), r.entity, existing.RecordID(), ErrConflict)
		}
	}
	return nil
}
