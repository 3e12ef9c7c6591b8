package postgres

import (
	"context"
	"fmt"

	"contractdesk/internal/store/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies the embedded migrations. goose wants a database/sql
// handle, so this opens a short-lived one next to the pgx pool, with the
// same search_path the pool will use.
func Migrate(ctx context.Context, dsn, schema string) error {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse postgres dsn: %w", err)
	}
	if schema != "" {
		cfg.RuntimeParams["search_path"] = schema
	}

	db := stdlib.OpenDB(*cfg)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
