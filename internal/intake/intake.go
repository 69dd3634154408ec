// Package intake builds the batch of tasks a client submits for analysis.
// A List is a value: every operation returns a new List and leaves the
// receiver untouched.
package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"task-prioritizer-backend/internal/tasks"
)

var ErrIndexOutOfRange = errors.New("task index out of range")

// List is an ordered batch of validated tasks.
type List struct {
	items []tasks.Task
}

// Add validates t and returns a list with t appended.
func (l List) Add(t tasks.Task) (List, error) {
	if err := tasks.ValidateTask(t); err != nil {
		return l, err
	}
	if t.Dependencies == nil {
		t.Dependencies = []tasks.Ref{}
	}

	next := make([]tasks.Task, len(l.items), len(l.items)+1)
	copy(next, l.items)
	next = append(next, t)
	// titles and ids must stay unambiguous across the batch
	if err := tasks.ValidateTasks(next); err != nil {
		return l, err
	}
	return List{items: next}, nil
}

// AddFields is Add for a task without dependencies.
func (l List) AddFields(title, dueDate string, hours float64, importance int) (List, error) {
	return l.Add(tasks.Task{
		Title:          strings.TrimSpace(title),
		DueDate:        strings.TrimSpace(dueDate),
		EstimatedHours: hours,
		Importance:     importance,
	})
}

// LoadJSON replaces the list with the tasks in data, a JSON array. Any
// invalid element rejects the whole batch and l is returned unchanged.
func (l List) LoadJSON(data []byte) (List, error) {
	ts, err := tasks.ParseTasksJSON(data)
	if err != nil {
		return l, fmt.Errorf("invalid JSON: %w", err)
	}
	return List{items: ts}, nil
}

// Remove drops the task at index i.
func (l List) Remove(i int) (List, error) {
	if i < 0 || i >= len(l.items) {
		return l, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	next := make([]tasks.Task, 0, len(l.items)-1)
	next = append(next, l.items[:i]...)
	next = append(next, l.items[i+1:]...)
	return List{items: next}, nil
}

// Tasks returns a copy of the batch.
func (l List) Tasks() []tasks.Task {
	out := make([]tasks.Task, len(l.items))
	copy(out, l.items)
	return out
}

func (l List) Len() int { return len(l.items) }

// Render writes a plain listing of the batch.
func (l List) Render(w io.Writer) error {
	if len(l.items) == 0 {
		_, err := fmt.Fprintln(w, "No tasks added yet")
		return err
	}
	if _, err := fmt.Fprintf(w, "Tasks (%d)\n", len(l.items)); err != nil {
		return err
	}
	for i, t := range l.items {
		if _, err := fmt.Fprintf(w, "%d. %s (Due: %s)\n", i+1, t.Title, t.DueDate); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON encodes the list in the form LoadJSON accepts.
func (l List) MarshalJSON() ([]byte, error) {
	if l.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.items)
}
