package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"todo-planner/internal/model"
	"todo-planner/internal/query"
)

// TaskRepository handles CRUD for tasks on top of gorm (SQLite).
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Atomic(ctx context.Context, fn func(tx TaskStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TaskRepository{db: tx})
	})
}

func (r *TaskRepository) List(ctx context.Context, owner string, q query.Query) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	err := r.db.WithContext(ctx).
		Scopes(ownedBy(owner)).
		Scopes(filterScopes(q)...).
		Scopes(orderScope(q)).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Get(ctx context.Context, owner string, id int64) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", owner, id).First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, model.ErrNotFound
	default:
		return nil, fmt.Errorf("find task: %w", err)
	}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Save writes every mutable column, including nil pointers as NULL.
func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	res := r.db.WithContext(ctx).
		Model(task).
		Where("user_id = ?", task.UserID).
		Select("*").
		Omit("ID", "UserID", "CreatedAt").
		Updates(task)
	if res.Error != nil {
		return fmt.Errorf("save task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes a task for the given owner. Tasks referencing it through
// original_task_id are left untouched.
func (r *TaskRepository) Delete(ctx context.Context, owner string, id int64) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", owner, id).Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func ownedBy(owner string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", owner)
	}
}

// filterScopes mirrors query.Query.Predicates as SQL conditions.
func filterScopes(q query.Query) []func(*gorm.DB) *gorm.DB {
	var scopes []func(*gorm.DB) *gorm.DB

	switch q.Status {
	case query.StatusPending:
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("completed = ?", false) })
	case query.StatusCompleted:
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("completed = ?", true) })
	}

	if len(q.Priorities) > 0 {
		values := make([]string, len(q.Priorities))
		for i, p := range q.Priorities {
			values[i] = string(p)
		}
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("priority IN ?", values) })
	}

	if len(q.Tags) > 0 {
		tags := q.Tags
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("EXISTS (SELECT 1 FROM json_each(tasks.tags) WHERE json_each.value IN ?)", tags)
		})
	}

	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("(instr(go_lower(title), ?) > 0 OR instr(go_lower(COALESCE(description, '')), ?) > 0)", needle, needle)
		})
	}

	return scopes
}

func orderScope(q query.Query) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(orderClause(q, "title"))
	}
}

// orderClause is shared with the PostgreSQL store; both must agree with
// query.Query.Less. titleExpr lets a dialect force byte-order collation.
func orderClause(q query.Query, titleExpr string) string {
	dir := "DESC"
	if !q.Descending() {
		dir = "ASC"
	}
	switch q.Sort {
	case query.SortDueDate:
		return "CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date " + dir + ", id ASC"
	case query.SortPriority:
		return "CASE priority WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 ELSE 4 END, created_at DESC, id ASC"
	case query.SortTitle:
		return titleExpr + " " + dir + ", id ASC"
	default:
		return "created_at " + dir + ", id ASC"
	}
}
