package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/model"
	"todo-planner/internal/query"
)

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "todo.db")

	stores, err := Open(ctx, dsn, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", stores.Backend)

	task := &model.Task{UserID: "owner", Title: "persisted", Tags: []string{}}
	require.NoError(t, stores.Tasks.Create(ctx, task))
	require.NoError(t, stores.Close())

	reopened, err := Open(ctx, dsn, "", nil)
	require.NoError(t, err)
	defer reopened.Close()

	tasks, err := reopened.Tasks.List(ctx, "owner", query.Query{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "persisted", tasks[0].Title)
}

func TestOpen_PostgresRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "postgres://localhost/todo", "mysql", nil)
	assert.ErrorContains(t, err, "unsupported sql driver")
}

func TestOpenMemory(t *testing.T) {
	stores := OpenMemory()
	assert.Equal(t, "memory", stores.Backend)
	assert.Nil(t, stores.Users)
	assert.NoError(t, stores.Close())
}
