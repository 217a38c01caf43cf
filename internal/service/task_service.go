package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"todo-planner/internal/model"
	"todo-planner/internal/query"
	"todo-planner/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title            string
	Description      *string
	Completed        bool
	Priority         *model.Priority
	Tags             []string
	DueDate          *time.Time
	ReminderTime     *time.Time
	RecurringPattern *model.Recurrence
}

// TaskPatch is a partial update. Absent fields are left alone; Null clears
// a nullable field.
type TaskPatch struct {
	Title            model.Optional[string]
	Description      model.Optional[string]
	Completed        model.Optional[bool]
	Priority         model.Optional[model.Priority]
	Tags             model.Optional[[]string]
	DueDate          model.Optional[time.Time]
	ReminderTime     model.Optional[time.Time]
	RecurringPattern model.Optional[model.Recurrence]
}

// TagCount is a tag together with the number of tasks carrying it.
type TagCount struct {
	Name  string
	Count int
}

// Option customizes a TaskService.
type Option func(*TaskService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) { s.now = now }
}

// TaskService wraps task-related business logic. Every operation runs in
// one store transaction.
type TaskService struct {
	store repository.Store
	log   *slog.Logger
	now   func() time.Time
}

func NewTaskService(store repository.Store, logger *slog.Logger, opts ...Option) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &TaskService{store: store, log: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) ListTasks(ctx context.Context, owner string, q query.Query) ([]model.Task, error) {
	if owner == "" {
		return nil, model.ErrUnauthenticated
	}
	var tasks []model.Task
	err := s.store.Atomic(ctx, func(tx repository.TaskStore) error {
		var err error
		tasks, err = tx.List(ctx, owner, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (s *TaskService) CreateTask(ctx context.Context, owner string, input TaskInput) (*model.Task, error) {
	if owner == "" {
		return nil, model.ErrUnauthenticated
	}

	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(input.Description); err != nil {
		return nil, err
	}
	if err := validatePriority(input.Priority); err != nil {
		return nil, err
	}

	now := s.stamp(time.Time{})
	task := model.Task{
		UserID:           owner,
		Title:            title,
		Description:      copyPtr(input.Description),
		Completed:        input.Completed,
		Priority:         copyPtr(input.Priority),
		Tags:             normalizeTags(input.Tags),
		DueDate:          normalizeTime(input.DueDate),
		ReminderTime:     normalizeTime(input.ReminderTime),
		RecurringPattern: copyPtr(input.RecurringPattern),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	task.NextOccurrence = NextOccurrence(task.RecurringPattern, task.DueDate)

	err = s.store.Atomic(ctx, func(tx repository.TaskStore) error {
		return tx.Create(ctx, &task)
	})
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "task created", "owner", owner, "task_id", task.ID)
	return &task, nil
}

func (s *TaskService) GetTask(ctx context.Context, owner string, id int64) (*model.Task, error) {
	if owner == "" {
		return nil, model.ErrUnauthenticated
	}
	var task *model.Task
	err := s.store.Atomic(ctx, func(tx repository.TaskStore) error {
		var err error
		task, err = tx.Get(ctx, owner, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask applies the present fields of patch. The next occurrence is
// derived again from the resulting pattern and due date.
func (s *TaskService) UpdateTask(ctx context.Context, owner string, id int64, patch TaskPatch) (*model.Task, error) {
	if owner == "" {
		return nil, model.ErrUnauthenticated
	}

	var task *model.Task
	err := s.store.Atomic(ctx, func(tx repository.TaskStore) error {
		var err error
		task, err = tx.Get(ctx, owner, id)
		if err != nil {
			return err
		}
		if err := applyPatch(task, patch); err != nil {
			return err
		}
		task.NextOccurrence = NextOccurrence(task.RecurringPattern, task.DueDate)
		task.UpdatedAt = s.stamp(task.UpdatedAt)
		return tx.Save(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "task updated", "owner", owner, "task_id", id)
	return task, nil
}

// ToggleTask flips completion and reports the resulting state as
// "completed" or "pending".
func (s *TaskService) ToggleTask(ctx context.Context, owner string, id int64) (*model.Task, string, error) {
	if owner == "" {
		return nil, "", model.ErrUnauthenticated
	}

	var task *model.Task
	err := s.store.Atomic(ctx, func(tx repository.TaskStore) error {
		var err error
		task, err = tx.Get(ctx, owner, id)
		if err != nil {
			return err
		}
		task.Completed = !task.Completed
		task.UpdatedAt = s.stamp(task.UpdatedAt)
		return tx.Save(ctx, task)
	})
	if err != nil {
		return nil, "", err
	}

	s.log.DebugContext(ctx, "task toggled", "owner", owner, "task_id", id, "status", task.StatusText())
	return task, task.StatusText(), nil
}

// DeleteTask removes a task completely. Tasks pointing at it through
// original_task_id keep the dangling reference.
func (s *TaskService) DeleteTask(ctx context.Context, owner string, id int64) error {
	if owner == "" {
		return model.ErrUnauthenticated
	}
	err := s.store.Atomic(ctx, func(tx repository.TaskStore) error {
		return tx.Delete(ctx, owner, id)
	})
	if err != nil {
		return err
	}
	s.log.DebugContext(ctx, "task deleted", "owner", owner, "task_id", id)
	return nil
}

// Tags lists the owner's distinct tags, most used first.
func (s *TaskService) Tags(ctx context.Context, owner string) ([]TagCount, error) {
	tasks, err := s.ListTasks(ctx, owner, query.Query{})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, t := range tasks {
		for _, tag := range t.Tags {
			counts[tag]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, TagCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// ParseID parses a task id as it appears in a URL, a flag or a chat
// command.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return id, nil
}

func applyPatch(task *model.Task, p TaskPatch) error {
	if p.Title.Set {
		if p.Title.Null {
			return model.NewValidationError("title", titleMessage)
		}
		title, err := normalizeTitle(p.Title.Value)
		if err != nil {
			return err
		}
		task.Title = title
	}

	if p.Description.Set {
		desc := p.Description.Ptr()
		if err := validateDescription(desc); err != nil {
			return err
		}
		task.Description = desc
	}

	if p.Completed.Set {
		if p.Completed.Null {
			return model.NewValidationError("completed", "Completed must be true or false")
		}
		task.Completed = p.Completed.Value
	}

	if p.Priority.Set {
		pr := p.Priority.Ptr()
		if err := validatePriority(pr); err != nil {
			return err
		}
		task.Priority = pr
	}

	if p.Tags.Set {
		task.Tags = normalizeTags(p.Tags.Value)
	}

	if p.DueDate.Set {
		task.DueDate = normalizeTime(p.DueDate.Ptr())
	}
	if p.ReminderTime.Set {
		task.ReminderTime = normalizeTime(p.ReminderTime.Ptr())
	}
	if p.RecurringPattern.Set {
		task.RecurringPattern = p.RecurringPattern.Ptr()
	}
	return nil
}

// stamp returns the current time, forced past prev so updated_at never
// repeats or goes backwards for a task.
func (s *TaskService) stamp(prev time.Time) time.Time {
	t := s.now().UTC().Truncate(time.Microsecond)
	if !t.After(prev) {
		t = prev.Add(time.Microsecond)
	}
	return t
}

// normalizeTime stores instants in UTC at microsecond precision, which is
// what both SQL backends can round-trip.
func normalizeTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC().Truncate(time.Microsecond)
	return &u
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
