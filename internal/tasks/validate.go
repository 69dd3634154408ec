package tasks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	ErrNoTasks         = errors.New("no tasks provided")
	ErrNotArray        = errors.New("JSON must be an array of tasks")
	ErrMalformedJSON   = errors.New("malformed JSON")
	ErrMissingField    = errors.New("each task must have title, due_date, estimated_hours, and importance")
	ErrImportanceRange = errors.New("importance must be a whole number between 1 and 10")
	ErrInvalidDueDate  = errors.New("due_date must be a date in YYYY-MM-DD form")
	ErrInvalidHours    = errors.New("estimated_hours must be a positive number")
	ErrDuplicateTitle  = errors.New("task titles must be unique")
	ErrDuplicateID     = errors.New("task ids must be unique and must not match another task's title")
)

// ValidationError reports which task and field failed. Index is the
// 0-based batch position, or -1 for a single task.
type ValidationError struct {
	Index int
	Title string
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("task")
	if e.Index >= 0 {
		fmt.Fprintf(&b, " %d", e.Index+1)
	}
	if e.Title != "" {
		fmt.Fprintf(&b, " %q", e.Title)
	}
	if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ValidateTask checks a single task's fields.
func ValidateTask(t Task) error {
	return validateAt(t, -1)
}

func validateAt(t Task, index int) error {
	fail := func(field string, err error) error {
		return &ValidationError{Index: index, Title: t.Title, Field: field, Err: err}
	}

	if strings.TrimSpace(t.Title) == "" {
		return fail("title", ErrMissingField)
	}
	if t.DueDate == "" {
		return fail("due_date", ErrMissingField)
	}
	if _, err := time.Parse(DateLayout, t.DueDate); err != nil {
		return fail("due_date", ErrInvalidDueDate)
	}
	if t.EstimatedHours <= 0 || math.IsNaN(t.EstimatedHours) || math.IsInf(t.EstimatedHours, 0) {
		return fail("estimated_hours", ErrInvalidHours)
	}
	if t.Importance < 1 || t.Importance > 10 {
		return fail("importance", ErrImportanceRange)
	}
	return nil
}

// ValidateTasks checks a whole batch; the first failure rejects it.
func ValidateTasks(ts []Task) error {
	if len(ts) == 0 {
		return ErrNoTasks
	}

	names := newIdentities(len(ts))
	for i, t := range ts {
		if err := validateAt(t, i); err != nil {
			return err
		}
		if err := names.claim(t, i); err != nil {
			return err
		}
	}
	return nil
}

// identities tracks the names a batch's references can resolve to. A string
// reference matches an id before a title, so an id may not repeat and may
// not equal a different task's title.
type identities struct {
	titles map[string]int
	ids    map[string]int
}

func newIdentities(n int) *identities {
	return &identities{
		titles: make(map[string]int, n),
		ids:    make(map[string]int, n),
	}
}

func (s *identities) claim(t Task, index int) error {
	if _, dup := s.titles[t.Title]; dup {
		return &ValidationError{Index: index, Title: t.Title, Field: "title", Err: ErrDuplicateTitle}
	}
	if j, clash := s.ids[t.Title]; clash && j != index {
		return &ValidationError{Index: index, Title: t.Title, Field: "title", Err: ErrDuplicateID}
	}
	if t.ID != "" {
		if _, dup := s.ids[t.ID]; dup {
			return &ValidationError{Index: index, Title: t.Title, Field: "id", Err: ErrDuplicateID}
		}
		if _, clash := s.titles[t.ID]; clash {
			return &ValidationError{Index: index, Title: t.Title, Field: "id", Err: ErrDuplicateID}
		}
		s.ids[t.ID] = index
	}
	s.titles[t.Title] = index
	return nil
}

// rawTask distinguishes absent fields from zero values.
type rawTask struct {
	ID             *string  `json:"id"`
	Title          *string  `json:"title"`
	DueDate        *string  `json:"due_date"`
	EstimatedHours *float64 `json:"estimated_hours"`
	Importance     *float64 `json:"importance"`
	Dependencies   []Ref    `json:"dependencies"`
}

func decodeTask(raw json.RawMessage, index int) (Task, error) {
	var rt rawTask
	if err := json.Unmarshal(raw, &rt); err != nil {
		return Task{}, &ValidationError{Index: index, Err: fmt.Errorf("%w: %v", ErrMalformedJSON, err)}
	}

	var title string
	if rt.Title != nil {
		title = *rt.Title
	}

	var missing []string
	if rt.Title == nil || strings.TrimSpace(*rt.Title) == "" {
		missing = append(missing, "title")
	}
	if rt.DueDate == nil || *rt.DueDate == "" {
		missing = append(missing, "due_date")
	}
	if rt.EstimatedHours == nil {
		missing = append(missing, "estimated_hours")
	}
	if rt.Importance == nil {
		missing = append(missing, "importance")
	}
	if len(missing) > 0 {
		return Task{}, &ValidationError{Index: index, Title: title, Field: strings.Join(missing, ", "), Err: ErrMissingField}
	}

	imp := *rt.Importance
	if imp != math.Trunc(imp) || imp < 1 || imp > 10 {
		return Task{}, &ValidationError{Index: index, Title: title, Field: "importance", Err: ErrImportanceRange}
	}

	t := Task{
		Title:          title,
		DueDate:        *rt.DueDate,
		EstimatedHours: *rt.EstimatedHours,
		Importance:     int(imp),
		Dependencies:   rt.Dependencies,
	}
	if rt.ID != nil {
		t.ID = *rt.ID
	}
	if t.Dependencies == nil {
		t.Dependencies = []Ref{}
	}

	if err := validateAt(t, index); err != nil {
		return Task{}, err
	}
	return t, nil
}

// DecodeTasks turns raw JSON objects into validated tasks. Any failing
// element rejects the batch. An empty input yields an empty slice.
func DecodeTasks(raws []json.RawMessage) ([]Task, error) {
	out := make([]Task, 0, len(raws))
	names := newIdentities(len(raws))
	for i, raw := range raws {
		t, err := decodeTask(raw, i)
		if err != nil {
			return nil, err
		}
		if err := names.claim(t, i); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ParseTasksJSON parses a JSON array of task objects.
func ParseTasksJSON(data []byte) ([]Task, error) {
	data = bytes.TrimSpace(data)

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		if !json.Valid(data) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
		}
		return nil, ErrNotArray
	}
	if raws == nil {
		// literal null
		return nil, ErrNotArray
	}
	return DecodeTasks(raws)
}
