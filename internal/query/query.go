// Package query turns optional list parameters into a filter and an
// ordering over one owner's tasks. Stores either apply a Query in memory or
// translate it into SQL; both must agree with Match and Less.
package query

import (
	"sort"
	"strings"

	"todo-planner/internal/model"
)

// Status restricts tasks by completion state.
type Status string

const (
	StatusAll       Status = "all"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// SortKey selects the primary ordering.
type SortKey string

const (
	SortCreatedAt SortKey = "created_at"
	SortDueDate   SortKey = "due_date"
	SortPriority  SortKey = "priority"
	SortTitle     SortKey = "title"
)

// Order is the requested direction. Priority ordering ignores it.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Params holds raw, unvalidated list parameters as they arrive from a
// transport (query string, flags, chat arguments).
type Params struct {
	Status   string
	Priority string // comma separated
	Tags     string // comma separated
	Search   string
	Sort     string
	Order    string
}

// Query is a normalized set of list criteria. The zero value matches every
// task and orders by created_at descending.
type Query struct {
	Status     Status
	Priorities []model.Priority
	Tags       []string
	Search     string
	Sort       SortKey
	Order      Order
}

// Predicate reports whether a task passes one filter.
type Predicate func(model.Task) bool

// Parse normalizes raw parameters. Unknown values never fail; they fall back
// to "no constraint" or the default ordering.
func Parse(p Params) Query {
	q := Query{
		Status: StatusAll,
		Search: p.Search,
		Sort:   SortCreatedAt,
		Order:  Desc,
	}

	switch Status(strings.ToLower(strings.TrimSpace(p.Status))) {
	case StatusPending:
		q.Status = StatusPending
	case StatusCompleted:
		q.Status = StatusCompleted
	}

	seen := make(map[model.Priority]bool)
	for _, raw := range splitList(p.Priority) {
		pr := model.Priority(strings.ToLower(raw))
		if pr.Valid() && !seen[pr] {
			seen[pr] = true
			q.Priorities = append(q.Priorities, pr)
		}
	}

	q.Tags = dedupe(splitList(p.Tags))

	switch SortKey(strings.ToLower(strings.TrimSpace(p.Sort))) {
	case SortDueDate:
		q.Sort = SortDueDate
	case SortPriority:
		q.Sort = SortPriority
	case SortTitle:
		q.Sort = SortTitle
	}

	if Order(strings.ToLower(strings.TrimSpace(p.Order))) == Asc {
		q.Order = Asc
	}

	return q
}

// Descending reports whether the direction-sensitive keys sort high to low.
func (q Query) Descending() bool {
	return q.Order != Asc
}

// Predicates returns the active filters. An empty list matches everything.
func (q Query) Predicates() []Predicate {
	var preds []Predicate
	for _, p := range []Predicate{
		ByStatus(q.Status),
		ByPriority(q.Priorities),
		ByTags(q.Tags),
		BySearch(q.Search),
	} {
		if p != nil {
			preds = append(preds, p)
		}
	}
	return preds
}

// Match reports whether t passes every active filter.
func (q Query) Match(t model.Task) bool {
	for _, p := range q.Predicates() {
		if !p(t) {
			return false
		}
	}
	return true
}

// Less orders a before b. Ties on the primary key fall back to the
// documented secondary key and finally to id ascending.
func (q Query) Less(a, b model.Task) bool {
	switch q.Sort {
	case SortDueDate:
		switch {
		case a.DueDate == nil && b.DueDate == nil:
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case !a.DueDate.Equal(*b.DueDate):
			if q.Descending() {
				return a.DueDate.After(*b.DueDate)
			}
			return a.DueDate.Before(*b.DueDate)
		}
	case SortPriority:
		ra, rb := a.Priority.Rank(), b.Priority.Rank()
		if ra != rb {
			return ra < rb
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	case SortTitle:
		if a.Title != b.Title {
			if q.Descending() {
				return a.Title > b.Title
			}
			return a.Title < b.Title
		}
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if q.Descending() {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	return a.ID < b.ID
}

// Apply filters and orders tasks without modifying the input. The result is
// never nil.
func (q Query) Apply(tasks []model.Task) []model.Task {
	preds := q.Predicates()
	out := make([]model.Task, 0, len(tasks))
next:
	for _, t := range tasks {
		for _, p := range preds {
			if !p(t) {
				continue next
			}
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return q.Less(out[i], out[j])
	})
	return out
}

// ByStatus filters on completion; StatusAll yields nil.
func ByStatus(s Status) Predicate {
	switch s {
	case StatusPending:
		return func(t model.Task) bool { return !t.Completed }
	case StatusCompleted:
		return func(t model.Task) bool { return t.Completed }
	}
	return nil
}

// ByPriority keeps tasks whose priority is in set. Unset never matches.
func ByPriority(set []model.Priority) Predicate {
	if len(set) == 0 {
		return nil
	}
	return func(t model.Task) bool {
		if t.Priority == nil {
			return false
		}
		for _, p := range set {
			if *t.Priority == p {
				return true
			}
		}
		return false
	}
}

// ByTags keeps tasks sharing at least one tag with set.
func ByTags(set []string) Predicate {
	if len(set) == 0 {
		return nil
	}
	want := make(map[string]struct{}, len(set))
	for _, tag := range set {
		want[tag] = struct{}{}
	}
	return func(t model.Task) bool {
		for _, tag := range t.Tags {
			if _, ok := want[tag]; ok {
				return true
			}
		}
		return false
	}
}

// BySearch is a case-insensitive substring match on title or description.
func BySearch(term string) Predicate {
	if term == "" {
		return nil
	}
	needle := strings.ToLower(term)
	return func(t model.Task) bool {
		if strings.Contains(strings.ToLower(t.Title), needle) {
			return true
		}
		return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), needle)
	}
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
