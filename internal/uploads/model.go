package uploads

import "time"

// Record is the ledger entry for one placed file.
type Record struct {
	ID           string
	Scope        string
	OriginalName string
	StoredName   string
	DeclaredType string
	DetectedType string
	SizeBytes    int64
	URL          string
	Path         string
	ReplicaKey   string
	CreatedAt    time.Time
}
