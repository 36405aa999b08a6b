package uploads

import (
	"time"

	"file-uploader/internal/placement"
)

// RecordResponse is the outward-facing representation of a placed file.
type RecordResponse struct {
	ID           string    `json:"id"`
	Scope        string    `json:"scope,omitempty"`
	OriginalName string    `json:"originalName"`
	StoredName   string    `json:"storedName"`
	URL          string    `json:"url"`
	MediaType    string    `json:"mediaType,omitempty"`
	DetectedType string    `json:"detectedType,omitempty"`
	SizeBytes    int64     `json:"sizeBytes"`
	Replicated   bool      `json:"replicated"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

func toResponse(rec Record) RecordResponse {
	return RecordResponse{
		ID:           rec.ID,
		Scope:        rec.Scope,
		OriginalName: rec.OriginalName,
		StoredName:   rec.StoredName,
		URL:          rec.URL,
		MediaType:    rec.DeclaredType,
		DetectedType: rec.DetectedType,
		SizeBytes:    rec.SizeBytes,
		Replicated:   rec.ReplicaKey != "",
		UploadedAt:   rec.CreatedAt,
	}
}

type itemFailure struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type storedItem struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

type batchDetails struct {
	Failures []itemFailure `json:"failures"`
	Stored   []storedItem  `json:"stored"`
}

func toBatchDetails(e *placement.BatchError) batchDetails {
	out := batchDetails{
		Failures: make([]itemFailure, 0, len(e.Failures)),
		Stored:   make([]storedItem, 0, len(e.Stored)),
	}
	for _, f := range e.Failures {
		out.Failures = append(out.Failures, itemFailure{Index: f.Index, Name: f.Name, Kind: f.Kind, Message: f.Err.Error()})
	}
	for _, s := range e.Stored {
		out.Stored = append(out.Stored, storedItem{Index: s.Index, Name: s.Name, URL: s.URL})
	}
	return out
}
