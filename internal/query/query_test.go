package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-planner/internal/model"
)

var base = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func prio(p model.Priority) *model.Priority { return &p }

func ptrTime(t time.Time) *time.Time { return &t }

func str(s string) *string { return &s }

func fixture() []model.Task {
	return []model.Task{
		{ID: 1, Title: "Buy groceries", Description: str("Milk, eggs"), Priority: prio(model.PriorityLow), Tags: []string{"home"}, CreatedAt: base},
		{ID: 2, Title: "write report", Completed: true, Priority: prio(model.PriorityHigh), Tags: []string{"work"}, DueDate: ptrTime(base.Add(72 * time.Hour)), CreatedAt: base.Add(time.Hour)},
		{ID: 3, Title: "Call mom", Tags: []string{"home", "family"}, DueDate: ptrTime(base.Add(24 * time.Hour)), CreatedAt: base.Add(2 * time.Hour)},
		{ID: 4, Title: "Plan sprint", Description: str("Review GROCERY budget"), Priority: prio(model.PriorityMedium), CreatedAt: base.Add(3 * time.Hour)},
		{ID: 5, Title: "Fix bike", Completed: true, Priority: prio(model.PriorityHigh), CreatedAt: base.Add(4 * time.Hour)},
	}
}

func ids(tasks []model.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		q := Parse(Params{})
		assert.Equal(t, StatusAll, q.Status)
		assert.Equal(t, SortCreatedAt, q.Sort)
		assert.Equal(t, Desc, q.Order)
		assert.Empty(t, q.Priorities)
		assert.Empty(t, q.Tags)
		assert.Empty(t, q.Predicates())
	})

	t.Run("unknown values fall back", func(t *testing.T) {
		q := Parse(Params{Status: "archived", Sort: "random", Order: "sideways", Priority: "urgent"})
		assert.Equal(t, StatusAll, q.Status)
		assert.Equal(t, SortCreatedAt, q.Sort)
		assert.Equal(t, Desc, q.Order)
		assert.Empty(t, q.Priorities)
	})

	t.Run("lists are trimmed and deduplicated", func(t *testing.T) {
		q := Parse(Params{Priority: " high, low ,high,", Tags: "home, ,work,home"})
		assert.Equal(t, []model.Priority{model.PriorityHigh, model.PriorityLow}, q.Priorities)
		assert.Equal(t, []string{"home", "work"}, q.Tags)
	})
}

func TestApply_Status(t *testing.T) {
	tasks := fixture()

	pending := Parse(Params{Status: "pending"}).Apply(tasks)
	completed := Parse(Params{Status: "completed"}).Apply(tasks)
	all := Parse(Params{Status: "all"}).Apply(tasks)
	none := Parse(Params{}).Apply(tasks)

	for _, task := range pending {
		assert.False(t, task.Completed)
	}
	for _, task := range completed {
		assert.True(t, task.Completed)
	}
	assert.Len(t, pending, 3)
	assert.Len(t, completed, 2)
	assert.Len(t, all, len(tasks))
	assert.Equal(t, ids(all), ids(none))
	assert.ElementsMatch(t, ids(all), append(ids(pending), ids(completed)...))
}

func TestApply_Filters(t *testing.T) {
	tasks := fixture()

	t.Run("priority set excludes unset", func(t *testing.T) {
		got := Parse(Params{Priority: "high,medium", Sort: "created_at", Order: "asc"}).Apply(tasks)
		assert.Equal(t, []int64{2, 4, 5}, ids(got))
	})

	t.Run("tags intersect", func(t *testing.T) {
		got := Parse(Params{Tags: "family,work", Order: "asc"}).Apply(tasks)
		assert.Equal(t, []int64{2, 3}, ids(got))
	})

	t.Run("search is case-insensitive over title and description", func(t *testing.T) {
		got := Parse(Params{Search: "grocer", Order: "asc"}).Apply(tasks)
		assert.Equal(t, []int64{1, 4}, ids(got))
	})

	t.Run("search keeps surrounding whitespace", func(t *testing.T) {
		assert.Equal(t, []int64{4}, ids(Parse(Params{Search: "sprint"}).Apply(tasks)))
		assert.Empty(t, Parse(Params{Search: "sprint "}).Apply(tasks))
		assert.Equal(t, " Mom", Parse(Params{Search: " Mom"}).Search)

		blank := Parse(Params{Search: "  "})
		assert.Len(t, blank.Predicates(), 1)
		assert.Empty(t, blank.Apply(tasks))
	})

	t.Run("filters compose with AND", func(t *testing.T) {
		got := Parse(Params{Status: "pending", Tags: "home", Search: "mom"}).Apply(tasks)
		assert.Equal(t, []int64{3}, ids(got))
	})

	t.Run("no match yields empty non-nil slice", func(t *testing.T) {
		got := Parse(Params{Search: "nothing like this"}).Apply(tasks)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestApply_Sort(t *testing.T) {
	tasks := fixture()

	t.Run("created_at desc by default", func(t *testing.T) {
		assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(Parse(Params{}).Apply(tasks)))
	})

	t.Run("created_at asc", func(t *testing.T) {
		assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(Parse(Params{Order: "asc"}).Apply(tasks)))
	})

	t.Run("due_date keeps missing dates last", func(t *testing.T) {
		asc := Parse(Params{Sort: "due_date", Order: "asc"}).Apply(tasks)
		desc := Parse(Params{Sort: "due_date", Order: "desc"}).Apply(tasks)
		assert.Equal(t, []int64{3, 2, 1, 4, 5}, ids(asc))
		assert.Equal(t, []int64{2, 3, 1, 4, 5}, ids(desc))
	})

	t.Run("priority ignores direction and breaks ties by newest", func(t *testing.T) {
		want := []int64{5, 2, 4, 1, 3}
		assert.Equal(t, want, ids(Parse(Params{Sort: "priority", Order: "asc"}).Apply(tasks)))
		assert.Equal(t, want, ids(Parse(Params{Sort: "priority", Order: "desc"}).Apply(tasks)))
	})

	t.Run("title honors direction", func(t *testing.T) {
		asc := Parse(Params{Sort: "title", Order: "asc"}).Apply(tasks)
		assert.Equal(t, []int64{1, 3, 5, 4, 2}, ids(asc))
		desc := Parse(Params{Sort: "title", Order: "desc"}).Apply(tasks)
		assert.Equal(t, []int64{2, 4, 5, 3, 1}, ids(desc))
	})

	t.Run("input is not reordered", func(t *testing.T) {
		in := fixture()
		_ = Parse(Params{Sort: "title"}).Apply(in)
		assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(in))
	})
}
