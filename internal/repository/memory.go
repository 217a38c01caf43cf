package repository

import (
	"context"
	"sync"

	"todo-planner/internal/model"
	"todo-planner/internal/query"
)

// MemoryTaskRepository keeps tasks in a map. It backs the CLI and tests.
type MemoryTaskRepository struct {
	mu     sync.Mutex
	tasks  map[int64]model.Task
	nextID int64
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[int64]model.Task), nextID: 1}
}

func (r *MemoryTaskRepository) List(ctx context.Context, owner string, q query.Query) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return memoryView{r}.List(ctx, owner, q)
}

func (r *MemoryTaskRepository) Get(ctx context.Context, owner string, id int64) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return memoryView{r}.Get(ctx, owner, id)
}

func (r *MemoryTaskRepository) Create(ctx context.Context, task *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return memoryView{r}.Create(ctx, task)
}

func (r *MemoryTaskRepository) Save(ctx context.Context, task *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return memoryView{r}.Save(ctx, task)
}

func (r *MemoryTaskRepository) Delete(ctx context.Context, owner string, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return memoryView{r}.Delete(ctx, owner, id)
}

// Atomic holds the lock for the whole callback and restores the previous
// contents if fn fails.
func (r *MemoryTaskRepository) Atomic(ctx context.Context, fn func(tx TaskStore) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[int64]model.Task, len(r.tasks))
	for id, t := range r.tasks {
		snapshot[id] = t.Clone()
	}
	nextID := r.nextID

	if err := fn(memoryView{r}); err != nil {
		r.tasks = snapshot
		r.nextID = nextID
		return err
	}
	return nil
}

// memoryView operates on the map without locking; callers hold r.mu.
type memoryView struct {
	r *MemoryTaskRepository
}

func (v memoryView) List(ctx context.Context, owner string, q query.Query) ([]model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	owned := make([]model.Task, 0, len(v.r.tasks))
	for _, t := range v.r.tasks {
		if t.UserID == owner {
			owned = append(owned, t.Clone())
		}
	}
	return q.Apply(owned), nil
}

func (v memoryView) Get(ctx context.Context, owner string, id int64) (*model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, ok := v.r.tasks[id]
	if !ok || t.UserID != owner {
		return nil, model.ErrNotFound
	}
	c := t.Clone()
	return &c, nil
}

func (v memoryView) Create(ctx context.Context, task *model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	task.ID = v.r.nextID
	v.r.nextID++
	v.r.tasks[task.ID] = task.Clone()
	return nil
}

func (v memoryView) Save(ctx context.Context, task *model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	existing, ok := v.r.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return model.ErrNotFound
	}
	v.r.tasks[task.ID] = task.Clone()
	return nil
}

func (v memoryView) Delete(ctx context.Context, owner string, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t, ok := v.r.tasks[id]
	if !ok || t.UserID != owner {
		return model.ErrNotFound
	}
	delete(v.r.tasks, id)
	return nil
}
