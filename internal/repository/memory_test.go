package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/model"
	"todo-planner/internal/query"
)

func TestMemoryTaskRepository(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemoryTaskRepository()
	})
}

func TestMemoryTaskRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepository()

	task := model.Task{UserID: ownerA, Title: "original", Tags: []string{"a"}, CreatedAt: at(1)}
	require.NoError(t, repo.Create(ctx, &task))
	task.Tags[0] = "mutated by caller"

	got, err := repo.Get(ctx, ownerA, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Tags)

	got.Title = "changed without save"
	listed, err := repo.List(ctx, ownerA, query.Query{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "original", listed[0].Title)
}

func TestMemoryTaskRepository_RollbackRestoresIDSequence(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepository()

	_ = repo.Atomic(ctx, func(tx TaskStore) error {
		task := model.Task{UserID: ownerA, Title: "discarded"}
		require.NoError(t, tx.Create(ctx, &task))
		return assert.AnError
	})

	task := model.Task{UserID: ownerA, Title: "first kept"}
	require.NoError(t, repo.Create(ctx, &task))
	assert.Equal(t, int64(1), task.ID)
}

func TestMemoryTaskRepository_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewMemoryTaskRepository()
	_, err := repo.List(ctx, ownerA, query.Query{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, repo.Create(ctx, &model.Task{UserID: ownerA, Title: "x"}), context.Canceled)
}
