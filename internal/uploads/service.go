package uploads

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"file-uploader/internal/placement"
	"file-uploader/internal/queue"
	"file-uploader/internal/shared/storage/object"
	"file-uploader/internal/shared/telemetry"
	"file-uploader/internal/validation"
)

// RequestIDOption is the UploadContext option carrying the HTTP request id.
const RequestIDOption = "requestId"

// Placer is the placement pipeline used by the service.
type Placer interface {
	Upload(ctx context.Context, file placement.UploadedFile, uctx placement.UploadContext) (placement.Result, error)
	UploadBatch(ctx context.Context, files []placement.UploadedFile, uctx placement.UploadContext) ([]placement.Result, error)
}

// Service places uploads and keeps the ledger of what was stored.
type Service struct {
	Placer Placer
	Repo   Repo
	// Replica is optional; replication failures never fail an upload.
	Replica object.Replicator
	// Sniff records the content-detected media type of every placed file.
	Sniff bool
	// PrecheckBatch validates every file of a batch before any is placed, so
	// a batch with an invalid file stores nothing.
	PrecheckBatch bool
	// Events receives an upload.placed message per recorded file. Optional.
	Events queue.Client
	Now    func() time.Time
}

// Upload places one file and records it.
func (s *Service) Upload(ctx context.Context, file placement.UploadedFile, uctx placement.UploadContext) (Record, error) {
	res, err := s.Placer.Upload(ctx, file, uctx)
	if err != nil {
		return Record{}, err
	}
	rec := s.record(ctx, file, uctx.Scope, res)
	if err := s.Repo.Create(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("record upload %s: %w", rec.URL, err)
	}
	s.notify(ctx, rec, uctx)
	return rec, nil
}

// UploadBatch places every file and records those that were stored. When the
// batch fails the stored items are still recorded and the *placement.BatchError
// is returned unchanged. With PrecheckBatch a validation failure of any file
// is returned before anything is placed.
func (s *Service) UploadBatch(ctx context.Context, files []placement.UploadedFile, uctx placement.UploadContext) ([]Record, error) {
	if s.PrecheckBatch && uctx.Validator != nil {
		if err := validation.CheckAll(ctx, files, uctx.Validator, true); err != nil {
			if errors.Is(err, placement.ErrValidation) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", placement.ErrValidation, err)
		}
	}
	results, err := s.Placer.UploadBatch(ctx, files, uctx)
	if err != nil {
		var batchErr *placement.BatchError
		if errors.As(err, &batchErr) {
			for _, item := range batchErr.Stored {
				rec := s.record(ctx, files[item.Index], uctx.Scope, item.Result)
				if cerr := s.Repo.Create(ctx, rec); cerr != nil {
					telemetry.Error("uploads.record_failed", map[string]any{"url": rec.URL, "err": cerr.Error()})
					continue
				}
				s.notify(ctx, rec, uctx)
			}
		}
		return nil, err
	}

	records := make([]Record, 0, len(results))
	for i, res := range results {
		rec := s.record(ctx, files[i], uctx.Scope, res)
		if err := s.Repo.Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("record upload %s: %w", rec.URL, err)
		}
		s.notify(ctx, rec, uctx)
		records = append(records, rec)
	}
	return records, nil
}

// OriginalName returns the client name a stored file was uploaded under. The
// ledger answers when it knows the file; otherwise the generated prefix is
// stripped.
func (s *Service) OriginalName(ctx context.Context, stored string) (string, error) {
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return "", ErrInvalidInput
	}
	base := filepath.Base(filepath.FromSlash(stored))
	rec, err := s.Repo.FindByStoredName(ctx, base)
	switch {
	case err == nil:
		return rec.OriginalName, nil
	case errors.Is(err, ErrNotFound):
		return placement.RecoverOriginalName(base), nil
	default:
		return "", err
	}
}

// List returns the records of a scope, newest first.
func (s *Service) List(ctx context.Context, scope string, limit, offset int) ([]Record, error) {
	return s.Repo.ListByScope(ctx, scope, limit, offset)
}

func (s *Service) record(ctx context.Context, file placement.UploadedFile, scope string, res placement.Result) Record {
	rec := Record{
		ID:           uuid.NewString(),
		Scope:        scope,
		OriginalName: file.Name,
		StoredName:   filepath.Base(res.Path),
		DeclaredType: file.MediaType,
		SizeBytes:    file.Size,
		URL:          res.URL,
		Path:         res.Path,
		CreatedAt:    s.now(),
	}
	if s.Sniff {
		rec.DetectedType = validation.Detect(res.Path)
	}
	if s.Replica != nil {
		rec.ReplicaKey = s.replicate(ctx, rec)
	}
	return rec
}

func (s *Service) replicate(ctx context.Context, rec Record) string {
	contentType := rec.DetectedType
	if contentType == "" {
		contentType = rec.DeclaredType
	}
	f, err := os.Open(rec.Path)
	if err != nil {
		telemetry.Warn("uploads.replicate_failed", map[string]any{"url": rec.URL, "err": err.Error()})
		return ""
	}
	defer f.Close()

	if _, err := s.Replica.Replicate(ctx, rec.URL, contentType, f); err != nil {
		telemetry.Warn("uploads.replicate_failed", map[string]any{"url": rec.URL, "err": err.Error()})
		return ""
	}
	return strings.TrimLeft(rec.URL, "/")
}

func (s *Service) notify(ctx context.Context, rec Record, uctx placement.UploadContext) {
	if s.Events == nil {
		return
	}
	msg := queue.NewPlacedMessage(rec.CreatedAt)
	msg.RecordID = rec.ID
	msg.Scope = rec.Scope
	msg.OriginalName = rec.OriginalName
	msg.StoredName = rec.StoredName
	msg.URL = rec.URL
	msg.SizeBytes = rec.SizeBytes
	msg.ReplicaKey = rec.ReplicaKey
	if id, ok := uctx.Options[RequestIDOption].(string); ok {
		msg.RequestID = id
	}
	if err := s.Events.Send(ctx, msg); err != nil {
		telemetry.Warn("uploads.notify_failed", map[string]any{"url": rec.URL, "err": err.Error()})
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
