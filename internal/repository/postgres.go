package repository

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers the "postgres" database/sql driver
)

//go:embed schema.sql
var postgresSchema string

// DefaultPostgresDriver is the database/sql driver used for postgres URLs
// unless configuration overrides it.
const DefaultPostgresDriver = "pgx"

// IsPostgresURL reports whether dsn addresses a PostgreSQL server. Anything
// else is treated as a SQLite path.
func IsPostgresURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// NewPostgresDB connects through database/sql and applies the schema.
func NewPostgresDB(ctx context.Context, dsn, driver string) (*sqlx.DB, error) {
	if driver == "" {
		driver = DefaultPostgresDriver
	}
	if driver != "pgx" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return db, nil
}
