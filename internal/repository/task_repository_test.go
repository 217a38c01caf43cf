package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"todo-planner/internal/model"
	"todo-planner/internal/query"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "nested", "todo.db")
	db, err := NewDB(dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestTaskRepository(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewTaskRepository(newTestDB(t))
	})
}

func TestTaskRepository_PersistsRecurrenceFields(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newTestDB(t))

	original := int64(77)
	task := model.Task{
		UserID:           ownerA,
		Title:            "rent",
		Tags:             []string{"bills"},
		DueDate:          ptr(at(0)),
		ReminderTime:     ptr(at(-2)),
		RecurringPattern: ptr(model.RecurMonthly),
		NextOccurrence:   ptr(at(24 * 31)),
		OriginalTaskID:   &original,
		CreatedAt:        at(0),
		UpdatedAt:        at(0),
	}
	require.NoError(t, repo.Create(ctx, &task))

	got, err := repo.Get(ctx, ownerA, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RecurringPattern)
	assert.Equal(t, model.RecurMonthly, *got.RecurringPattern)
	assert.True(t, at(24*31).Equal(*got.NextOccurrence))
	assert.True(t, at(-2).Equal(*got.ReminderTime))
	assert.Equal(t, int64(77), *got.OriginalTaskID)
}

func TestTaskRepository_SearchTreatsWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newTestDB(t))

	for _, title := range []string{"50% off", "500 items", "a_b", "axb"} {
		task := model.Task{UserID: ownerA, Title: title, Tags: []string{}, CreatedAt: at(1), UpdatedAt: at(1)}
		require.NoError(t, repo.Create(ctx, &task))
	}

	got, err := repo.List(ctx, ownerA, query.Parse(query.Params{Search: "0%"}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "50% off", got[0].Title)

	got, err = repo.List(ctx, ownerA, query.Parse(query.Params{Search: "a_b"}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a_b", got[0].Title)
}

func TestTaskRepository_SearchFoldsUnicodeCase(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(newTestDB(t))

	for _, title := range []string{"Äpfel kaufen", "ÉCOLE", "Apfelkuchen"} {
		task := model.Task{UserID: ownerA, Title: title, Tags: []string{}, CreatedAt: at(1), UpdatedAt: at(1)}
		require.NoError(t, repo.Create(ctx, &task))
	}

	got, err := repo.List(ctx, ownerA, query.Parse(query.Params{Search: "äpfel"}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Äpfel kaufen", got[0].Title)

	got, err = repo.List(ctx, ownerA, query.Parse(query.Params{Search: "école"}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ÉCOLE", got[0].Title)
}

func TestUserRepository_UpsertFromTelegram(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	created, err := repo.UpsertFromTelegram(ctx, 1001, "Ada", "Lovelace", "ada")
	require.NoError(t, err)
	assert.Equal(t, "tg:1001", created.ID)

	updated, err := repo.UpsertFromTelegram(ctx, 1001, "Ada", "King", "countess")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "King", updated.LastName)

	_, err = repo.UpsertFromTelegram(ctx, 2002, "Alan", "", "")
	require.NoError(t, err)

	users, err := repo.ListWithTelegram(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "countess", users[0].Username)
	assert.Equal(t, "tg:2002", users[1].ID)
}

func TestEnsureDirForSQLite(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, ensureDirForSQLite(filepath.Join(dir, "a", "b", "x.db")))
	assert.DirExists(t, filepath.Join(dir, "a", "b"))

	require.NoError(t, ensureDirForSQLite("file:"+filepath.Join(dir, "c", "y.db")+"?cache=shared"))
	assert.DirExists(t, filepath.Join(dir, "c"))

	assert.NoError(t, ensureDirForSQLite("file::memory:?cache=shared"))
	assert.NoError(t, ensureDirForSQLite("plain.db"))
}
