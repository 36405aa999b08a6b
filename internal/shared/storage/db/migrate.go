package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"file-uploader/internal/shared/telemetry"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

// Migration commands accepted by Migrate.
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateStatus  = "status"
	MigrateVersion = "version"
)

// RunMigrations applies every pending ledger migration. A nil database is a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	return Migrate(ctx, database, MigrateUp)
}

// Migrate runs one goose command against the embedded migrations.
func Migrate(ctx context.Context, database *sql.DB, command string) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	var err error
	switch command {
	case "", MigrateUp:
		err = goose.UpContext(ctx, database, migrationsDir)
	case MigrateDown:
		err = goose.DownContext(ctx, database, migrationsDir)
	case MigrateStatus:
		err = goose.StatusContext(ctx, database, migrationsDir)
	case MigrateVersion:
		var v int64
		v, err = goose.GetDBVersionContext(ctx, database)
		if err == nil {
			telemetry.Info("db.migrations.version", map[string]any{"version": v})
		}
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	telemetry.Info("db.migrations.done", map[string]any{"command": command})
	return nil
}
