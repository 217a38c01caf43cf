package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/config"
	"todo-planner/internal/logging"
)

func setEnv(t *testing.T, dbURL string) {
	t.Helper()
	t.Setenv("BETTER_AUTH_SECRET", "secret")
	t.Setenv("DATABASE_URL", dbURL)
	t.Setenv("HTTP_ADDR", "127.0.0.1:0")
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("LOG_LEVEL", "error")
}

func TestRun_ReturnsConfigError(t *testing.T) {
	setEnv(t, "sqlite://"+filepath.Join(t.TempDir(), "todo.db"))
	t.Setenv("BETTER_AUTH_SECRET", "")

	err := run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BETTER_AUTH_SECRET")
}

func TestRun_ReturnsDatabaseError(t *testing.T) {
	setEnv(t, "postgres://localhost/todo")
	t.Setenv("DATABASE_SQL_DRIVER", "mysql")

	err := run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open database")
}

func TestRun_StopsWhenContextIsCancelled(t *testing.T) {
	setEnv(t, "sqlite://"+filepath.Join(t.TempDir(), "todo.db"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestScheduleReports(t *testing.T) {
	logger := logging.Discard()

	s, err := scheduleReports(config.Config{ReportAt: "07:30"}, nil, logger)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries())

	s, err = scheduleReports(config.Config{ReportInterval: time.Hour}, nil, logger)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries())

	_, err = scheduleReports(config.Config{ReportAt: "25:00"}, nil, logger)
	assert.Error(t, err)
}
