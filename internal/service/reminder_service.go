package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"todo-planner/internal/model"
	"todo-planner/internal/query"
)

// dueSoonWindow marks pending tasks whose deadline is close.
const dueSoonWindow = 48 * time.Hour

// ReminderService builds human-readable digests for periodic notifications.
type ReminderService struct {
	tasks *TaskService
}

func NewReminderService(tasks *TaskService) *ReminderService {
	return &ReminderService{tasks: tasks}
}

// Digest renders the owner's pending work as Telegram HTML: open tasks by
// deadline, reminders firing within a day and the next occurrence of
// recurring tasks.
func (s *ReminderService) Digest(ctx context.Context, owner string, now time.Time) (string, error) {
	pending, err := s.tasks.ListTasks(ctx, owner, query.Query{
		Status: query.StatusPending,
		Sort:   query.SortDueDate,
		Order:  query.Asc,
	})
	if err != nil {
		return "", err
	}

	var reminders, recurring []model.Task
	for _, task := range pending {
		if task.ReminderTime != nil && !task.ReminderTime.Before(now) && task.ReminderTime.Sub(now) <= 24*time.Hour {
			reminders = append(reminders, task)
		}
		if task.NextOccurrence != nil {
			recurring = append(recurring, task)
		}
	}

	var b strings.Builder
	b.WriteString("📋 <b>Task digest</b>\n")
	b.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02")))

	b.WriteString("🔥 <b>Open tasks</b>\n")
	if len(pending) == 0 {
		b.WriteString("Nothing pending 🎉\n")
	}
	for _, task := range pending {
		b.WriteString(FormatTask(task, now))
	}

	if len(reminders) > 0 {
		b.WriteString("\n🔔 <b>Reminders</b>\n")
		for _, task := range reminders {
			b.WriteString(fmt.Sprintf("🔔 #%d %s at %s\n", task.ID, escape(task.Title),
				task.ReminderTime.In(now.Location()).Format("15:04")))
		}
	}

	if len(recurring) > 0 {
		b.WriteString("\n♻️ <b>Recurring</b>\n")
		for _, task := range recurring {
			b.WriteString(fmt.Sprintf("♻️ #%d %s (%s)\n   📆 next: %s\n", task.ID, escape(task.Title),
				*task.RecurringPattern, task.NextOccurrence.In(now.Location()).Format("2006-01-02")))
		}
	}

	return strings.TrimSpace(b.String()), nil
}

// DueIcon classifies a task for list output: overdue, due soon or fine.
func DueIcon(task model.Task, now time.Time) string {
	if task.Completed {
		return "✅"
	}
	if task.DueDate == nil {
		return "🟢"
	}
	switch d := *task.DueDate; {
	case now.After(d):
		return "⚠️"
	case d.Sub(now) <= dueSoonWindow:
		return "⏳"
	}
	return "🟢"
}

// FormatTask renders one task as an HTML block for chat messages.
func FormatTask(task model.Task, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s #%d %s", DueIcon(task, now), task.ID, escape(task.Title)))
	if task.Priority != nil {
		sb.WriteString(fmt.Sprintf(" <i>[%s]</i>", *task.Priority))
	}

	if task.DueDate != nil {
		d := task.DueDate.In(now.Location())
		if now.After(d) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s, <b>overdue</b>", d.Format("2006-01-02")))
		} else {
			daysLeft := int(d.Sub(now).Hours()/24) + 1
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s, ≈%d day(s) left", d.Format("2006-01-02"), daysLeft))
		}
	}

	if len(task.Tags) > 0 {
		sb.WriteString("\n   🏷 " + escape(strings.Join(task.Tags, ", ")))
	}
	if task.Description != nil && strings.TrimSpace(*task.Description) != "" {
		sb.WriteString("\n   📝 " + escape(*task.Description))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func escape(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
