package repository

import (
	"context"
	"fmt"
	"log/slog"
)

// Stores bundles the repositories backed by one database connection.
type Stores struct {
	Tasks   Store
	Users   UserStore
	Backend string
	close   func() error
}

// Close releases the underlying connection.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open picks the backend from dsn: PostgreSQL URLs go through sqlx, anything
// else is a SQLite path opened with gorm.
func Open(ctx context.Context, dsn, driver string, log *slog.Logger) (*Stores, error) {
	if IsPostgresURL(dsn) {
		db, err := NewPostgresDB(ctx, dsn, driver)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Tasks:   NewPostgresTaskRepository(db),
			Users:   NewPostgresUserRepository(db),
			Backend: "postgres",
			close:   db.Close,
		}, nil
	}

	db, err := NewDB(dsn, log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	return &Stores{
		Tasks:   NewTaskRepository(db),
		Users:   NewUserRepository(db),
		Backend: "sqlite",
		close:   sqlDB.Close,
	}, nil
}

// OpenMemory returns a task store that lives only as long as the process.
func OpenMemory() *Stores {
	return &Stores{Tasks: NewMemoryTaskRepository(), Backend: "memory"}
}
