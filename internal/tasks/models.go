package tasks

import (
	"bytes"
	"encoding/json"
	"errors"
)

// DateLayout is the wire format of due_date.
const DateLayout = "2006-01-02"

// Task is one unit of work submitted for analysis.
type Task struct {
	ID             string  `json:"id,omitempty"`
	Title          string  `json:"title"`
	DueDate        string  `json:"due_date"`
	EstimatedHours float64 `json:"estimated_hours"`
	Importance     int     `json:"importance"`
	Dependencies   []Ref   `json:"dependencies"`
}

// Key is the identifier reported for the task: ID when set, else Title.
func (t Task) Key() string {
	if t.ID != "" {
		return t.ID
	}
	return t.Title
}

// Ref points at another task in the same batch, either by id/title or by
// 0-based position. It keeps its JSON form across a round trip.
type Ref struct {
	Name    string
	Index   int
	IsIndex bool
}

func NameRef(name string) Ref { return Ref{Name: name} }
func IndexRef(i int) Ref      { return Ref{Index: i, IsIndex: true} }

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.IsIndex {
		return json.Marshal(r.Index)
	}
	return json.Marshal(r.Name)
}

var errBadRef = errors.New("dependency must be a task title, id or integer position")

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = NameRef(s)
		return nil
	}

	if bytes.Equal(b, []byte("null")) {
		return errBadRef
	}
	var i int
	if err := json.Unmarshal(b, &i); err != nil {
		return errBadRef
	}
	*r = IndexRef(i)
	return nil
}

// Level is the discrete priority bucket derived from a score.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// LevelFor buckets a score: above 80 is HIGH, above 40 MEDIUM.
func LevelFor(score float64) Level {
	switch {
	case score > 80:
		return LevelHigh
	case score > 40:
		return LevelMedium
	default:
		return LevelLow
	}
}

// ScoredTask is a Task annotated by the engine.
type ScoredTask struct {
	Task
	PriorityScore float64 `json:"priority_score"`
	PriorityLevel Level   `json:"priority_level"`
	Explanation   string  `json:"explanation"`
	Blocks        int     `json:"blocks"`
}

// AnalysisResult is the ordered outcome of one analysis.
type AnalysisResult struct {
	Tasks                []ScoredTask `json:"tasks"`
	CircularDependencies []string     `json:"circular_dependencies"`
	StrategyUsed         Strategy     `json:"strategy_used"`
}

// Suggestion is one of the top-ranked tasks with a short reason.
type Suggestion struct {
	Rank   int        `json:"rank"`
	Task   ScoredTask `json:"task"`
	Reason string     `json:"reason"`
}
