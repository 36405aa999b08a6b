package uploads

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Create appends a record.
func (r *MemoryRepo) Create(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

// FindByStoredName returns the newest record for a stored name.
func (r *MemoryRepo) FindByStoredName(ctx context.Context, storedName string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		found Record
		ok    bool
	)
	for _, rec := range r.records {
		if rec.StoredName != storedName {
			continue
		}
		if !ok || rec.CreatedAt.After(found.CreatedAt) {
			found, ok = rec, true
		}
	}
	if !ok {
		return Record{}, ErrNotFound
	}
	return found, nil
}

// ListByScope returns records for a scope, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByScope(ctx context.Context, scope string, limit, offset int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	var matched []Record
	for _, rec := range r.records {
		if rec.Scope == scope {
			matched = append(matched, rec)
		}
	}
	r.mu.RUnlock()

	if offset >= len(matched) {
		return []Record{}, nil
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}

var _ Repo = (*MemoryRepo)(nil)
