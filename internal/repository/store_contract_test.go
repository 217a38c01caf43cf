package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/model"
	"todo-planner/internal/query"
)

const (
	ownerA = "owner-a"
	ownerB = "owner-b"
)

func ptr[T any](v T) *T { return &v }

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(hours int) time.Time { return base.Add(time.Duration(hours) * time.Hour) }

// seedTasks inserts a fixed mix of tasks for ownerA plus one for ownerB.
func seedTasks(t *testing.T, store TaskStore) []model.Task {
	t.Helper()
	ctx := context.Background()

	fixtures := []model.Task{
		{UserID: ownerA, Title: "apple pie", Description: ptr("buy MILK and flour"), Priority: ptr(model.PriorityLow),
			Tags: []string{"home", "food"}, DueDate: ptr(at(72)), CreatedAt: at(1)},
		{UserID: ownerA, Title: "Banana", Completed: true, Priority: ptr(model.PriorityHigh),
			Tags: []string{"food"}, CreatedAt: at(2)},
		{UserID: ownerA, Title: "cherry 100% done", Priority: ptr(model.PriorityHigh),
			Tags: []string{"work"}, DueDate: ptr(at(24)), CreatedAt: at(3)},
		{UserID: ownerA, Title: "date night", Description: ptr("dinner_out"),
			Tags: []string{}, DueDate: ptr(at(24)), CreatedAt: at(3)},
		{UserID: ownerA, Title: "Elderberry", Completed: true, Priority: ptr(model.PriorityMedium),
			Tags: []string{"work", "urgent"}, CreatedAt: at(5)},
		{UserID: ownerA, Title: "Äpfel kaufen", Description: ptr("Grüne ÄPFEL vom Markt"),
			Tags: []string{"food"}, CreatedAt: at(4)},
		{UserID: ownerB, Title: "apple for b", Priority: ptr(model.PriorityHigh),
			Tags: []string{"home"}, CreatedAt: at(6)},
	}

	out := make([]model.Task, 0, len(fixtures))
	for i := range fixtures {
		task := fixtures[i]
		task.UpdatedAt = task.CreatedAt
		require.NoError(t, store.Create(ctx, &task))
		require.NotZero(t, task.ID)
		out = append(out, task)
	}
	return out
}

func ids(tasks []model.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func ownedTasks(tasks []model.Task, owner string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.UserID == owner {
			out = append(out, t)
		}
	}
	return out
}

// runStoreContract checks that a Store honors owner scoping and returns
// exactly what query.Query.Apply would for every filter and ordering.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("list agrees with in-memory query", func(t *testing.T) {
		store := newStore(t)
		seeded := seedTasks(t, store)
		mine := ownedTasks(seeded, ownerA)

		params := []query.Params{
			{},
			{Order: "asc"},
			{Status: "pending"},
			{Status: "completed"},
			{Priority: "high"},
			{Priority: "high,low,bogus"},
			{Tags: "food"},
			{Tags: "urgent, home"},
			{Search: "milk"},
			{Search: "100%"},
			{Search: "_"},
			{Search: "APPLE"},
			{Search: "äpfel"},
			{Search: "GRÜNE"},
			{Search: " milk"},
			{Search: "  "},
			{Sort: "due_date"},
			{Sort: "due_date", Order: "asc"},
			{Sort: "priority"},
			{Sort: "priority", Order: "asc"},
			{Sort: "title"},
			{Sort: "title", Order: "asc"},
			{Status: "pending", Tags: "work,home", Sort: "title", Order: "asc"},
		}

		for _, p := range params {
			q := query.Parse(p)
			got, err := store.List(ctx, ownerA, q)
			require.NoError(t, err)
			assert.Equal(t, ids(q.Apply(mine)), ids(got), "params %+v", p)
		}
	})

	t.Run("list never returns another owner's tasks", func(t *testing.T) {
		store := newStore(t)
		seedTasks(t, store)

		got, err := store.List(ctx, ownerB, query.Query{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "apple for b", got[0].Title)

		empty, err := store.List(ctx, "nobody", query.Query{})
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("get round trips fields", func(t *testing.T) {
		store := newStore(t)
		seeded := seedTasks(t, store)

		got, err := store.Get(ctx, ownerA, seeded[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "apple pie", got.Title)
		assert.Equal(t, "buy MILK and flour", *got.Description)
		assert.Equal(t, model.PriorityLow, *got.Priority)
		assert.Equal(t, []string{"home", "food"}, got.Tags)
		assert.True(t, at(72).Equal(*got.DueDate))
		assert.True(t, at(1).Equal(got.CreatedAt))

		_, err = store.Get(ctx, ownerB, seeded[0].ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
		_, err = store.Get(ctx, ownerA, 9999)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("save overwrites and clears fields", func(t *testing.T) {
		store := newStore(t)
		seeded := seedTasks(t, store)

		task := seeded[0]
		task.Title = "apple crumble"
		task.Description = nil
		task.Priority = nil
		task.Completed = true
		task.UpdatedAt = at(10)
		require.NoError(t, store.Save(ctx, &task))

		got, err := store.Get(ctx, ownerA, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "apple crumble", got.Title)
		assert.Nil(t, got.Description)
		assert.Nil(t, got.Priority)
		assert.True(t, got.Completed)
		assert.True(t, at(1).Equal(got.CreatedAt))
		assert.True(t, at(10).Equal(got.UpdatedAt))

		foreign := seeded[0]
		foreign.UserID = ownerB
		assert.ErrorIs(t, store.Save(ctx, &foreign), model.ErrNotFound)
	})

	t.Run("delete is scoped and final", func(t *testing.T) {
		store := newStore(t)
		seeded := seedTasks(t, store)
		id := seeded[0].ID

		assert.ErrorIs(t, store.Delete(ctx, ownerB, id), model.ErrNotFound)
		require.NoError(t, store.Delete(ctx, ownerA, id))
		assert.ErrorIs(t, store.Delete(ctx, ownerA, id), model.ErrNotFound)

		_, err := store.Get(ctx, ownerA, id)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("atomic rolls back on error", func(t *testing.T) {
		store := newStore(t)
		seeded := seedTasks(t, store)
		boom := errors.New("boom")

		err := store.Atomic(ctx, func(tx TaskStore) error {
			task := model.Task{UserID: ownerA, Title: "ghost", Tags: []string{}, CreatedAt: at(9), UpdatedAt: at(9)}
			if err := tx.Create(ctx, &task); err != nil {
				return err
			}
			if err := tx.Delete(ctx, ownerA, seeded[1].ID); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := store.List(ctx, ownerA, query.Query{})
		require.NoError(t, err)
		assert.Len(t, got, 6)
		for _, task := range got {
			assert.NotEqual(t, "ghost", task.Title)
		}
	})

	t.Run("atomic commits on success", func(t *testing.T) {
		store := newStore(t)

		var created model.Task
		err := store.Atomic(ctx, func(tx TaskStore) error {
			created = model.Task{UserID: ownerA, Title: "kept", Tags: []string{"x"}, CreatedAt: at(1), UpdatedAt: at(1)}
			return tx.Create(ctx, &created)
		})
		require.NoError(t, err)

		got, err := store.Get(ctx, ownerA, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "kept", got.Title)
	})
}
