package repository

import (
	"context"

	"todo-planner/internal/model"
	"todo-planner/internal/query"
)

// TaskStore is the persistence capability the task service needs. Every
// method is scoped to a single owner; ErrNotFound covers both missing rows
// and rows owned by someone else.
type TaskStore interface {
	List(ctx context.Context, owner string, q query.Query) ([]model.Task, error)
	Get(ctx context.Context, owner string, id int64) (*model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	Save(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, owner string, id int64) error
}

// Store adds transactional scoping. fn receives a TaskStore bound to the
// transaction; returning an error rolls everything back.
type Store interface {
	TaskStore
	Atomic(ctx context.Context, fn func(tx TaskStore) error) error
}
