package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"todo-planner/internal/model"
	"todo-planner/internal/query"
)

var taskColumns = []string{
	"id", "user_id", "title", "description", "completed", "priority", "tags",
	"due_date", "reminder_time", "recurring_pattern", "next_occurrence",
	"original_task_id", "created_at", "updated_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type taskRow struct {
	ID               int64          `db:"id"`
	UserID           string         `db:"user_id"`
	Title            string         `db:"title"`
	Description      *string        `db:"description"`
	Completed        bool           `db:"completed"`
	Priority         *string        `db:"priority"`
	Tags             pq.StringArray `db:"tags"`
	DueDate          *time.Time     `db:"due_date"`
	ReminderTime     *time.Time     `db:"reminder_time"`
	RecurringPattern *string        `db:"recurring_pattern"`
	NextOccurrence   *time.Time     `db:"next_occurrence"`
	OriginalTaskID   *int64         `db:"original_task_id"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (row taskRow) toModel() model.Task {
	t := model.Task{
		ID:             row.ID,
		UserID:         row.UserID,
		Title:          row.Title,
		Description:    row.Description,
		Completed:      row.Completed,
		Tags:           []string(row.Tags),
		DueDate:        utcPtr(row.DueDate),
		ReminderTime:   utcPtr(row.ReminderTime),
		NextOccurrence: utcPtr(row.NextOccurrence),
		OriginalTaskID: row.OriginalTaskID,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if row.Priority != nil {
		p := model.Priority(*row.Priority)
		t.Priority = &p
	}
	if row.RecurringPattern != nil {
		rp := model.Recurrence(*row.RecurringPattern)
		t.RecurringPattern = &rp
	}
	return t
}

// PostgresTaskRepository stores tasks in PostgreSQL using squirrel-built SQL.
type PostgresTaskRepository struct {
	db   *sqlx.DB
	exec sqlx.ExtContext
}

func NewPostgresTaskRepository(db *sqlx.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db, exec: db}
}

func (r *PostgresTaskRepository) Atomic(ctx context.Context, fn func(tx TaskStore) error) (err error) {
	if _, inTx := r.exec.(*sqlx.Tx); inTx {
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&PostgresTaskRepository{db: r.db, exec: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *PostgresTaskRepository) List(ctx context.Context, owner string, q query.Query) ([]model.Task, error) {
	stmt, args, err := psql.Select(taskColumns...).
		From("tasks").
		Where(postgresFilter(owner, q)).
		OrderBy(orderClause(q, `title COLLATE "C"`)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var rows []taskRow
	if err := sqlx.SelectContext(ctx, r.exec, &rows, stmt, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toModel())
	}
	return tasks, nil
}

func (r *PostgresTaskRepository) Get(ctx context.Context, owner string, id int64) (*model.Task, error) {
	stmt, args, err := psql.Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": id, "user_id": owner}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	var row taskRow
	err = sqlx.GetContext(ctx, r.exec, &row, stmt, args...)
	switch {
	case err == nil:
		t := row.toModel()
		return &t, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, model.ErrNotFound
	default:
		return nil, fmt.Errorf("find task: %w", err)
	}
}

func (r *PostgresTaskRepository) Create(ctx context.Context, task *model.Task) error {
	values := mutableValues(task)
	cols := []string{"user_id", "created_at"}
	vals := []interface{}{task.UserID, task.CreatedAt}
	for _, col := range mutableColumns {
		cols = append(cols, col)
		vals = append(vals, values[col])
	}

	stmt, args, err := psql.Insert("tasks").
		Columns(cols...).
		Values(vals...).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := sqlx.GetContext(ctx, r.exec, &task.ID, stmt, args...); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *PostgresTaskRepository) Save(ctx context.Context, task *model.Task) error {
	stmt, args, err := psql.Update("tasks").
		SetMap(mutableValues(task)).
		Where(sq.Eq{"id": task.ID, "user_id": task.UserID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.exec.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a task for the given owner. Tasks referencing it through
// original_task_id are left untouched.
func (r *PostgresTaskRepository) Delete(ctx context.Context, owner string, id int64) error {
	stmt, args, err := psql.Delete("tasks").
		Where(sq.Eq{"id": id, "user_id": owner}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.exec.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return requireAffected(res)
}

// postgresFilter mirrors query.Query.Predicates as a squirrel condition.
func postgresFilter(owner string, q query.Query) sq.And {
	where := sq.And{sq.Eq{"user_id": owner}}

	switch q.Status {
	case query.StatusPending:
		where = append(where, sq.Eq{"completed": false})
	case query.StatusCompleted:
		where = append(where, sq.Eq{"completed": true})
	}

	if len(q.Priorities) > 0 {
		values := make([]string, len(q.Priorities))
		for i, p := range q.Priorities {
			values[i] = string(p)
		}
		where = append(where, sq.Eq{"priority": values})
	}

	if len(q.Tags) > 0 {
		where = append(where, sq.Expr("tags && ?", pq.Array(q.Tags)))
	}

	if q.Search != "" {
		pattern := "%" + escapeLike(q.Search) + "%"
		where = append(where, sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
		})
	}

	return where
}

// mutableColumns are written on insert and on every save.
var mutableColumns = []string{
	"title", "description", "completed", "priority", "tags", "due_date",
	"reminder_time", "recurring_pattern", "next_occurrence", "original_task_id",
	"updated_at",
}

func mutableValues(task *model.Task) map[string]interface{} {
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]interface{}{
		"title":             task.Title,
		"description":       task.Description,
		"completed":         task.Completed,
		"priority":          stringPtr(task.Priority),
		"tags":              pq.Array(tags),
		"due_date":          task.DueDate,
		"reminder_time":     task.ReminderTime,
		"recurring_pattern": stringPtr(task.RecurringPattern),
		"next_occurrence":   task.NextOccurrence,
		"original_task_id":  task.OriginalTaskID,
		"updated_at":        task.UpdatedAt,
	}
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func stringPtr[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
