package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/model"
)

func TestReminderService_Digest(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	_, err := svc.CreateTask(ctx, alice, TaskInput{
		Title:   "File taxes",
		DueDate: ptr(now.Add(-24 * time.Hour)),
	})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, alice, TaskInput{
		Title:        "Call <mom>",
		Priority:     ptr(model.PriorityHigh),
		DueDate:      ptr(now.Add(24 * time.Hour)),
		ReminderTime: ptr(now.Add(2 * time.Hour)),
	})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, alice, TaskInput{
		Title:            "Water plants",
		DueDate:          ptr(now.Add(10 * 24 * time.Hour)),
		RecurringPattern: ptr(model.RecurWeekly),
		Tags:             []string{"home"},
	})
	require.NoError(t, err)
	done, err := svc.CreateTask(ctx, alice, TaskInput{Title: "Already done"})
	require.NoError(t, err)
	_, _, err = svc.ToggleTask(ctx, alice, done.ID)
	require.NoError(t, err)

	digest, err := NewReminderService(svc).Digest(ctx, alice, now)
	require.NoError(t, err)

	assert.Contains(t, digest, "<b>Task digest</b>")
	assert.Contains(t, digest, "2024-06-10")
	assert.Contains(t, digest, "⚠️ #1 File taxes")
	assert.Contains(t, digest, "<b>overdue</b>")
	assert.Contains(t, digest, "⏳ #2 Call &lt;mom&gt; <i>[high]</i>")
	assert.Contains(t, digest, "🔔 #2 Call &lt;mom&gt; at 11:00")
	assert.Contains(t, digest, "🟢 #3 Water plants")
	assert.Contains(t, digest, "🏷 home")
	assert.Contains(t, digest, "♻️ #3 Water plants (weekly)\n   📆 next: 2024-06-27")
	assert.NotContains(t, digest, "Already done")

	assert.Less(t, strings.Index(digest, "File taxes"), strings.Index(digest, "Call &lt;mom&gt;"))
	assert.Less(t, strings.Index(digest, "Call &lt;mom&gt;"), strings.Index(digest, "Water plants"))
}

func TestReminderService_DigestEmpty(t *testing.T) {
	digest, err := NewReminderService(newTestService()).Digest(context.Background(), bob, time.Now())
	require.NoError(t, err)
	assert.Contains(t, digest, "Nothing pending")
	assert.NotContains(t, digest, "Reminders")
	assert.NotContains(t, digest, "Recurring")
}

func TestDueIcon(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "🟢", DueIcon(model.Task{}, now))
	assert.Equal(t, "✅", DueIcon(model.Task{Completed: true}, now))
	assert.Equal(t, "⚠️", DueIcon(model.Task{DueDate: ptr(now.Add(-time.Minute))}, now))
	assert.Equal(t, "⏳", DueIcon(model.Task{DueDate: ptr(now.Add(47 * time.Hour))}, now))
	assert.Equal(t, "🟢", DueIcon(model.Task{DueDate: ptr(now.Add(72 * time.Hour))}, now))
}
