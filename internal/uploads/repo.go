package uploads

import "context"

// Repo persists upload records.
type Repo interface {
	Create(ctx context.Context, rec Record) error
	// FindByStoredName returns the newest record whose stored file name matches.
	FindByStoredName(ctx context.Context, storedName string) (Record, error)
	ListByScope(ctx context.Context, scope string, limit, offset int) ([]Record, error)
}
