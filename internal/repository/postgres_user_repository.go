package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"todo-planner/internal/model"
)

type userRow struct {
	ID         string    `db:"id"`
	TelegramID *int64    `db:"telegram_id"`
	FirstName  string    `db:"first_name"`
	LastName   string    `db:"last_name"`
	Username   string    `db:"username"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (row userRow) toModel() model.User {
	return model.User{
		ID:         row.ID,
		TelegramID: row.TelegramID,
		FirstName:  row.FirstName,
		LastName:   row.LastName,
		Username:   row.Username,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

// PostgresUserRepository is the PostgreSQL counterpart of UserRepository.
type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.User, error) {
	now := time.Now().UTC()
	stmt, args, err := psql.Insert("users").
		Columns("id", "telegram_id", "first_name", "last_name", "username", "created_at", "updated_at").
		Values(TelegramOwnerID(telegramID), telegramID, firstName, lastName, username, now, now).
		Suffix("ON CONFLICT (telegram_id) DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, username = EXCLUDED.username, updated_at = EXCLUDED.updated_at").
		Suffix("RETURNING id, telegram_id, first_name, last_name, username, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert: %w", err)
	}

	var row userRow
	if err := sqlx.GetContext(ctx, r.db, &row, stmt, args...); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	user := row.toModel()
	return &user, nil
}

func (r *PostgresUserRepository) ListWithTelegram(ctx context.Context) ([]model.User, error) {
	stmt, args, err := psql.Select("id", "telegram_id", "first_name", "last_name", "username", "created_at", "updated_at").
		From("users").
		Where(sq.NotEq{"telegram_id": nil}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var rows []userRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, stmt, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]model.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toModel())
	}
	return users, nil
}
