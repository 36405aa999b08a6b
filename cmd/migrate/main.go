package main

// Run database migrations:
//   go run ./cmd/migrate            # up
//   go run ./cmd/migrate -cmd status

import (
	"context"
	"flag"
	"log"
	"os"

	"file-uploader/internal/shared/config"
	"file-uploader/internal/shared/storage/db"
)

func main() {
	command := flag.String("cmd", db.MigrateUp, "goose command: up, down, status or version")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("config error: %v", err)
		os.Exit(1)
	}
	ctx := context.Background()

	opts, err := db.OptionsFromEnv(db.DefaultMigrateOptions())
	if err != nil {
		log.Printf("db options: %v", err)
		os.Exit(1)
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB, *command); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}
}
