package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"file-uploader/internal/ingest"
	"file-uploader/internal/placement"
	"file-uploader/internal/queue"
	"file-uploader/internal/services/health"
	"file-uploader/internal/shared/config"
	"file-uploader/internal/shared/metrics"
	"file-uploader/internal/shared/server"
	"file-uploader/internal/shared/server/middleware"
	"file-uploader/internal/shared/storage/db"
	"file-uploader/internal/shared/storage/object"
	s3store "file-uploader/internal/shared/storage/object/s3"
	"file-uploader/internal/shared/telemetry"
	"file-uploader/internal/uploads"
	"file-uploader/internal/validation"
)

// App holds shared dependencies.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	DB             *sql.DB
	Registry       *prometheus.Registry
	Spool          *ingest.Spool
	Uploader       *placement.Uploader
	Validator      placement.Validator
	Replica        object.Replicator
	Events         queue.Client
	UploadsRepo    uploads.Repo
	UploadsService *uploads.Service
	UploadsHandler *uploads.Handler
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	replica, err := buildReplica(ctx, cfg)
	if err != nil {
		return nil, err
	}

	events, err := buildEvents(ctx, cfg)
	if err != nil {
		return nil, err
	}

	roots, err := buildRoot(cfg)
	if err != nil {
		return nil, err
	}

	spool, err := ingest.NewSpool(cfg.SpoolDir,
		ingest.WithMaxBytes(cfg.MaxUploadBytes),
		ingest.WithBlockedExtensions(cfg.BlockedExtensions...),
	)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observer, err := metrics.NewPlacementObserver("uploads", registry)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Registry:  registry,
		Spool:     spool,
		Uploader:  placement.New(roots, spool, placement.WithObserver(observer)),
		Validator: buildValidator(cfg),
		Replica:   replica,
		Events:    events,
	}

	if sqlDB != nil {
		app.UploadsRepo = &uploads.PGRepo{DB: sqlDB}
	} else {
		app.UploadsRepo = uploads.NewMemoryRepo()
	}
	app.UploadsService = &uploads.Service{
		Placer:  app.Uploader,
		Repo:    app.UploadsRepo,
		Replica: replica,
		Sniff:   cfg.SniffContent,
		Events:  events,

		PrecheckBatch: cfg.BatchPrecheck,
	}
	app.UploadsHandler = uploads.NewHandler(app.UploadsService, spool, cfg.UploadBasePath, app.Validator)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:   cfg,
		Uploads:  app.UploadsHandler,
		Gatherer: registry,
		Limiter:  middleware.NewRateLimiter(nil),
		Health:   health.NewService(cfg.UploadRoot, spool.Dir(), healthDB(sqlDB)),
	})

	return app, nil
}

// UploadContext is the placement context used for callers outside HTTP.
func (a *App) UploadContext(subdir, scope string) placement.UploadContext {
	return placement.UploadContext{
		BasePath:  a.Config.UploadBasePath,
		Subdir:    subdir,
		Scope:     scope,
		Validator: a.Validator,
	}
}

// Close releases held resources.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repo", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts, err := db.OptionsFromEnv(db.DefaultServerOptions())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "database connect failed", "err": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildReplica(ctx context.Context, cfg config.Config) (object.Replicator, error) {
	switch cfg.ReplicaStore {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return nil, nil
	}
}

func buildEvents(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.EventsQueueURL) == "" {
		return queue.Nop{}, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.EventsQueueURL)
}

func buildRoot(cfg config.Config) (placement.RootProvider, error) {
	dir := strings.TrimSpace(cfg.UploadRoot)
	if dir == "" {
		return nil, fmt.Errorf("UPLOAD_ROOT is required")
	}
	if isDevLike(cfg.Env) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create upload root: %w", err)
		}
	}
	if _, err := placement.CanonicalRoot(dir); err != nil {
		return nil, err
	}
	return placement.StaticRoot(dir), nil
}

func buildValidator(cfg config.Config) placement.Validator {
	rules := validation.Rules{
		AllowedExtensions: cfg.AllowedExtensions,
		MaxSize:           cfg.MaxUploadBytes,
	}
	validators := []placement.Validator{rules}
	if cfg.SniffContent {
		if types, ok := validation.ContentTypesFor(cfg.AllowedExtensions); ok {
			validators = append(validators, validation.ContentType{Allowed: types})
		}
	}
	validators = append(validators, validation.PDF{})
	return validation.Chain(validators...)
}

// healthDB keeps a nil *sql.DB from becoming a non-nil Pinger.
func healthDB(sqlDB *sql.DB) health.Pinger {
	if sqlDB == nil {
		return nil
	}
	return sqlDB
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
