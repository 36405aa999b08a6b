package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service reports whether the upload root, spool and ledger are usable.
type Service struct {
	UploadRoot string
	SpoolDir   string
	DB         Pinger
	Timeout    time.Duration
}

// NewService constructs a new health service. db may be nil when the ledger
// is kept in memory.
func NewService(uploadRoot, spoolDir string, db Pinger) *Service {
	return &Service{
		UploadRoot: uploadRoot,
		SpoolDir:   spoolDir,
		DB:         db,
		Timeout:    2 * time.Second,
	}
}

// Status runs every check and returns the per-check result. ok is false when
// any check failed.
func (s *Service) Status(ctx context.Context) (map[string]string, bool) {
	checks := map[string]string{
		"uploadRoot": result(writableDir(s.UploadRoot)),
		"spool":      result(writableDir(s.SpoolDir)),
	}
	if s.DB != nil {
		timeout := s.Timeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		checks["database"] = result(s.DB.PingContext(pingCtx))
	}

	ok := true
	for _, v := range checks {
		if v != "ok" {
			ok = false
		}
	}
	return checks, ok
}

func writableDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("not configured")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Base(dir))
	}
	f, err := os.CreateTemp(dir, ".health-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func result(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}
