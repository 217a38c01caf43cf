package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"todo-planner/internal/model"
	"todo-planner/internal/query"
	"todo-planner/internal/service"
)

const maxBodyBytes = 1 << 20

// timestampLayouts are tried in order. Values without an offset are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Timestamp accepts RFC 3339 as well as naive date-time and date strings.
type Timestamp time.Time

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("timestamp must be a string")
	}
	parsed, err := parseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
}

func (t *Timestamp) ptr() *time.Time {
	if t == nil {
		return nil
	}
	v := time.Time(*t)
	return &v
}

type createTaskRequest struct {
	Title            string            `json:"title"`
	Description      *string           `json:"description"`
	Completed        *bool             `json:"completed"`
	Priority         *model.Priority   `json:"priority"`
	Tags             []string          `json:"tags"`
	DueDate          *Timestamp        `json:"due_date"`
	ReminderTime     *Timestamp        `json:"reminder_time"`
	RecurringPattern *model.Recurrence `json:"recurring_pattern"`
}

func (r createTaskRequest) toInput() service.TaskInput {
	in := service.TaskInput{
		Title:            r.Title,
		Description:      r.Description,
		Priority:         r.Priority,
		Tags:             r.Tags,
		DueDate:          r.DueDate.ptr(),
		ReminderTime:     r.ReminderTime.ptr(),
		RecurringPattern: r.RecurringPattern,
	}
	if r.Completed != nil {
		in.Completed = *r.Completed
	}
	return in
}

type updateTaskRequest struct {
	Title            model.Optional[string]           `json:"title"`
	Description      model.Optional[string]           `json:"description"`
	Completed        model.Optional[bool]             `json:"completed"`
	Priority         model.Optional[model.Priority]   `json:"priority"`
	Tags             model.Optional[[]string]         `json:"tags"`
	DueDate          model.Optional[Timestamp]        `json:"due_date"`
	ReminderTime     model.Optional[Timestamp]        `json:"reminder_time"`
	RecurringPattern model.Optional[model.Recurrence] `json:"recurring_pattern"`
}

func (r updateTaskRequest) toPatch() service.TaskPatch {
	return service.TaskPatch{
		Title:            r.Title,
		Description:      r.Description,
		Completed:        r.Completed,
		Priority:         r.Priority,
		Tags:             r.Tags,
		DueDate:          timeOptional(r.DueDate),
		ReminderTime:     timeOptional(r.ReminderTime),
		RecurringPattern: r.RecurringPattern,
	}
}

func timeOptional(o model.Optional[Timestamp]) model.Optional[time.Time] {
	return model.Optional[time.Time]{Set: o.Set, Null: o.Null, Value: time.Time(o.Value)}
}

// decodeJSON reads one JSON object from the body into dst. Errors are
// client errors and carry a readable message.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return model.NewValidationError("", "Request body is required")
		case errors.As(err, &syntaxErr):
			return model.NewValidationError("", "Malformed JSON body")
		case errors.As(err, &typeErr):
			return model.NewValidationError(typeErr.Field, fmt.Sprintf("Invalid value for %s", typeErr.Field))
		case errors.As(err, &tooLarge):
			return model.NewValidationError("", "Request body too large")
		default:
			return model.NewValidationError("", err.Error())
		}
	}

	// The body must hold exactly one JSON value.
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.NewValidationError("", "Request body too large")
		}
		return model.NewValidationError("", "Malformed JSON body")
	}
	return nil
}

// listQuery reads the list parameters from the query string.
func listQuery(r *http.Request) query.Query {
	v := r.URL.Query()
	return query.Parse(query.Params{
		Status:   v.Get("status"),
		Priority: v.Get("priority"),
		Tags:     v.Get("tags"),
		Search:   v.Get("search"),
		Sort:     v.Get("sort"),
		Order:    v.Get("order"),
	})
}
