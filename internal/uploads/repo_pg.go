package uploads

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const recordColumns = `id, scope, original_name, stored_name, declared_type, detected_type, size_bytes, url, path, replica_key, created_at`

// Create inserts a new record.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO uploads (
    id,
    scope,
    original_name,
    stored_name,
    declared_type,
    detected_type,
    size_bytes,
    url,
    path,
    replica_key,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.Scope,
		rec.OriginalName,
		rec.StoredName,
		rec.DeclaredType,
		rec.DetectedType,
		rec.SizeBytes,
		rec.URL,
		rec.Path,
		rec.ReplicaKey,
		rec.CreatedAt,
	)
	return err
}

// FindByStoredName returns the newest record for a stored name.
func (r *PGRepo) FindByStoredName(ctx context.Context, storedName string) (Record, error) {
	query := `
SELECT ` + recordColumns + `
FROM uploads
WHERE stored_name = $1
ORDER BY created_at DESC
LIMIT 1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, storedName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// ListByScope lists records ordered newest-first.
func (r *PGRepo) ListByScope(ctx context.Context, scope string, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + recordColumns + `
FROM uploads
WHERE scope = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, scope, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.Scope,
		&rec.OriginalName,
		&rec.StoredName,
		&rec.DeclaredType,
		&rec.DetectedType,
		&rec.SizeBytes,
		&rec.URL,
		&rec.Path,
		&rec.ReplicaKey,
		&rec.CreatedAt,
	)
	return rec, err
}

var _ Repo = (*PGRepo)(nil)
