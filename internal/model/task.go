package model

import "time"

// Priority ranks a task. The zero value is not a valid priority; an unset
// priority is represented by a nil *Priority.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank orders priorities by severity: high first, unset last.
func (p *Priority) Rank() int {
	if p == nil {
		return 4
	}
	switch *p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Recurrence describes how far ahead the next occurrence lies.
type Recurrence string

const (
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
)

// Task represents a single item in a user's list.
type Task struct {
	ID               int64       `gorm:"primaryKey" json:"id" yaml:"id"`
	UserID           string      `gorm:"index;not null" json:"user_id" yaml:"user_id"`
	Title            string      `gorm:"size:200;not null" json:"title" yaml:"title"`
	Description      *string     `gorm:"size:1000" json:"description" yaml:"description,omitempty"`
	Completed        bool        `gorm:"index;default:false" json:"completed" yaml:"completed"`
	Priority         *Priority   `gorm:"index" json:"priority" yaml:"priority,omitempty"`
	Tags             []string    `gorm:"serializer:json;type:text" json:"tags" yaml:"tags"`
	DueDate          *time.Time  `gorm:"index" json:"due_date" yaml:"due_date,omitempty"`
	ReminderTime     *time.Time  `json:"reminder_time" yaml:"reminder_time,omitempty"`
	RecurringPattern *Recurrence `json:"recurring_pattern" yaml:"recurring_pattern,omitempty"`
	NextOccurrence   *time.Time  `json:"next_occurrence" yaml:"next_occurrence,omitempty"`
	OriginalTaskID   *int64      `gorm:"index" json:"original_task_id" yaml:"original_task_id,omitempty"`
	CreatedAt        time.Time   `gorm:"index;autoCreateTime:false" json:"created_at" yaml:"created_at"`
	UpdatedAt        time.Time   `gorm:"autoUpdateTime:false" json:"updated_at" yaml:"updated_at"`
}

// StatusText is the human readable completion state.
func (t Task) StatusText() string {
	if t.Completed {
		return "completed"
	}
	return "pending"
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (t Task) Clone() Task {
	c := t
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	c.Description = clonePtr(t.Description)
	c.Priority = clonePtr(t.Priority)
	c.DueDate = clonePtr(t.DueDate)
	c.ReminderTime = clonePtr(t.ReminderTime)
	c.RecurringPattern = clonePtr(t.RecurringPattern)
	c.NextOccurrence = clonePtr(t.NextOccurrence)
	c.OriginalTaskID = clonePtr(t.OriginalTaskID)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
