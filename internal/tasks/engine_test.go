package tasks

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func testEngine(opts ...Option) *Engine {
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithLocation(time.UTC),
	}
	return NewEngine(append(base, opts...)...)
}

func task(title, due string, hours float64, importance int, deps ...Ref) Task {
	return Task{
		Title:          title,
		DueDate:        due,
		EstimatedHours: hours,
		Importance:     importance,
		Dependencies:   deps,
	}
}

func titles(ts []ScoredTask) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Title
	}
	return out
}

func TestUrgency(t *testing.T) {
	tests := []struct {
		days int
		want float64
	}{
		{-5, 125},
		{-1, 105},
		{0, 80},
		{1, 60},
		{2, 40},
		{3, 40},
		{4, 20},
		{7, 20},
		{8, 17.5},
		{14, 10},
		{70, 2},
	}
	for _, tt := range tests {
		if got := urgency(tt.days); got != tt.want {
			t.Errorf("urgency(%d) = %v, want %v", tt.days, got, tt.want)
		}
	}
}

func TestUrgencyNeverIncreasesWithDistance(t *testing.T) {
	for d := -60; d < 400; d++ {
		if urgency(d+1) > urgency(d) {
			t.Fatalf("urgency(%d) = %v > urgency(%d) = %v", d+1, urgency(d+1), d, urgency(d))
		}
	}
}

func TestAnalyzeSingleDeadlineTask(t *testing.T) {
	e := testEngine()
	res, err := e.Analyze([]Task{task("T1", "2025-01-01", 2, 5)}, StrategyDeadline)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(res.Tasks) != 1 || res.Tasks[0].Title != "T1" {
		t.Fatalf("tasks = %v, want exactly T1", titles(res.Tasks))
	}
	got := res.Tasks[0]
	if got.PriorityScore != 450 {
		t.Errorf("score = %v, want 450", got.PriorityScore)
	}
	if got.PriorityLevel != LevelHigh {
		t.Errorf("level = %s, want HIGH", got.PriorityLevel)
	}
	if want := "OVERDUE by 68 days (+440 urgency) | Deadline focused"; got.Explanation != want {
		t.Errorf("explanation = %q, want %q", got.Explanation, want)
	}
	if res.StrategyUsed != StrategyDeadline {
		t.Errorf("strategy_used = %s", res.StrategyUsed)
	}
	if res.CircularDependencies == nil || len(res.CircularDependencies) != 0 {
		t.Errorf("circular = %v, want empty", res.CircularDependencies)
	}
}

func TestAnalyzeSmartExplanation(t *testing.T) {
	e := testEngine()
	res, err := e.Analyze([]Task{task("Ship fix", "2025-03-10", 1.5, 9)}, StrategySmart)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	got := res.Tasks[0]
	if got.PriorityScore != 122 {
		t.Errorf("score = %v, want 122", got.PriorityScore)
	}
	want := "Due TODAY (+80 urgency) | High importance (9/10) | Quick win (1.5h)"
	if got.Explanation != want {
		t.Errorf("explanation = %q, want %q", got.Explanation, want)
	}
}

func TestAnalyzeCountsDependents(t *testing.T) {
	e := testEngine()
	ts := []Task{
		task("A", "2025-03-20", 4, 5),
		task("B", "2025-03-20", 4, 5, NameRef("A")),
		task("C", "2025-03-20", 4, 5, IndexRef(0)),
		task("D", "2025-03-20", 4, 5, NameRef("missing"), IndexRef(99)),
	}

	res, err := e.Analyze(ts, StrategySmart)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	top := res.Tasks[0]
	if top.Title != "A" {
		t.Fatalf("order = %v, want A first", titles(res.Tasks))
	}
	if top.Blocks != 2 {
		t.Errorf("blocks = %d, want 2", top.Blocks)
	}
	// 10 days out: 14 urgency + 25 importance + 20 blocks - 8 effort
	if top.PriorityScore != 51 {
		t.Errorf("score = %v, want 51", top.PriorityScore)
	}
	if top.Explanation != "Blocks 2 tasks" {
		t.Errorf("explanation = %q", top.Explanation)
	}
	if len(res.CircularDependencies) != 0 {
		t.Errorf("unexpected cycles: %v", res.CircularDependencies)
	}
}

func TestAnalyzeKeepsCyclicTasks(t *testing.T) {
	e := testEngine()
	ts := []Task{
		task("A", "2025-03-12", 2, 5, NameRef("B")),
		task("B", "2025-03-13", 3, 6, NameRef("A")),
		task("C", "2025-03-14", 1, 7),
	}

	res, err := e.Analyze(ts, StrategySmart)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(res.Tasks))
	}

	seen := map[string]int{}
	for _, st := range res.Tasks {
		seen[st.Title]++
	}
	for _, name := range []string{"A", "B", "C"} {
		if seen[name] != 1 {
			t.Errorf("task %s appears %d times", name, seen[name])
		}
	}

	if got := strings.Join(res.CircularDependencies, ","); got != "A,B" {
		t.Errorf("circular = %q, want A,B", got)
	}
}

func TestDetectCycles(t *testing.T) {
	tests := []struct {
		name string
		ts   []Task
		want string
	}{
		{
			name: "none",
			ts: []Task{
				task("A", "2025-03-12", 1, 5),
				task("B", "2025-03-12", 1, 5, NameRef("A")),
				task("C", "2025-03-12", 1, 5, NameRef("B")),
			},
			want: "",
		},
		{
			name: "three by index",
			ts: []Task{
				task("A", "2025-03-12", 1, 5, IndexRef(1)),
				task("B", "2025-03-12", 1, 5, IndexRef(2)),
				task("C", "2025-03-12", 1, 5, IndexRef(0)),
			},
			want: "A,B,C",
		},
		{
			name: "self loop",
			ts: []Task{
				task("A", "2025-03-12", 1, 5, NameRef("A")),
				task("B", "2025-03-12", 1, 5),
			},
			want: "A",
		},
		{
			name: "tail outside cycle",
			ts: []Task{
				task("X", "2025-03-12", 1, 5, NameRef("A")),
				task("A", "2025-03-12", 1, 5, NameRef("B")),
				task("B", "2025-03-12", 1, 5, NameRef("A")),
			},
			want: "A,B",
		},
		{
			name: "reported by id",
			ts: []Task{
				{ID: "t1", Title: "A", DueDate: "2025-03-12", EstimatedHours: 1, Importance: 5, Dependencies: []Ref{NameRef("t2")}},
				{ID: "t2", Title: "B", DueDate: "2025-03-12", EstimatedHours: 1, Importance: 5, Dependencies: []Ref{NameRef("A")}},
			},
			want: "t1,t2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectCycles(tt.ts)
			if got == nil {
				t.Fatal("DetectCycles returned nil")
			}
			if s := strings.Join(got, ","); s != tt.want {
				t.Errorf("DetectCycles = %q, want %q", s, tt.want)
			}
		})
	}
}

func TestStrategyChangesOrder(t *testing.T) {
	e := testEngine()
	ts := []Task{
		task("Big rewrite", "2025-04-09", 8, 10),
		task("Reply to email", "2025-03-11", 0.5, 2),
	}

	impact, err := e.Analyze(ts, StrategyImpact)
	if err != nil {
		t.Fatalf("impact: %v", err)
	}
	fastest, err := e.Analyze(ts, StrategyFastest)
	if err != nil {
		t.Fatalf("fastest: %v", err)
	}

	if impact.Tasks[0].Title != "Big rewrite" {
		t.Errorf("impact order = %v", titles(impact.Tasks))
	}
	if fastest.Tasks[0].Title != "Reply to email" {
		t.Errorf("fastest order = %v", titles(fastest.Tasks))
	}
}

func TestEqualScoresKeepInputOrder(t *testing.T) {
	e := testEngine()
	ts := []Task{
		task("first", "2025-03-15", 3, 5),
		task("second", "2025-03-15", 3, 5),
		task("third", "2025-03-15", 3, 5),
	}

	for _, s := range Strategies() {
		res, err := e.Analyze(ts, s)
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		if got := strings.Join(titles(res.Tasks), ","); got != "first,second,third" {
			t.Errorf("%s order = %s", s, got)
		}
	}
}

func TestAnalyzeErrors(t *testing.T) {
	e := testEngine()

	if _, err := e.Analyze(nil, StrategySmart); !errors.Is(err, ErrNoTasks) {
		t.Errorf("empty batch err = %v, want ErrNoTasks", err)
	}
	if _, err := e.Analyze([]Task{task("A", "2025-03-12", 1, 5)}, Strategy("random")); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("unknown strategy err = %v, want ErrUnknownStrategy", err)
	}
	if _, err := e.Analyze([]Task{task("A", "2025-03-12", 1, 12)}, StrategySmart); !errors.Is(err, ErrImportanceRange) {
		t.Errorf("bad importance err = %v, want ErrImportanceRange", err)
	}

	res, err := e.Analyze([]Task{task("A", "2025-03-12", 1, 5)}, "")
	if err != nil || res.StrategyUsed != StrategySmart {
		t.Errorf("empty strategy = %s, %v; want smart", res.StrategyUsed, err)
	}
}

func TestLevelUsesUnroundedScore(t *testing.T) {
	e := testEngine()
	// 60 urgency + 25 importance - 4.996 hours = 80.004
	res, err := e.Analyze([]Task{task("A", "2025-03-11", 2.498, 5)}, StrategySmart)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	got := res.Tasks[0]
	if got.PriorityScore != 80 {
		t.Errorf("score = %v, want 80", got.PriorityScore)
	}
	if got.PriorityLevel != LevelHigh {
		t.Errorf("level = %s, want HIGH", got.PriorityLevel)
	}
}

func TestDaysUntilFarDates(t *testing.T) {
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		due  string
		want int
	}{
		{"0001-01-01", -739319},
		{"9999-12-31", 2912739},
		{"2025-03-09", -1},
		{"2025-03-10", 0},
	}

	for _, tt := range tests {
		got, err := daysUntil(today, tt.due)
		if err != nil {
			t.Fatalf("daysUntil(%s): %v", tt.due, err)
		}
		if got != tt.want {
			t.Errorf("daysUntil(%s) = %d, want %d", tt.due, got, tt.want)
		}
	}

	res, err := testEngine().Analyze([]Task{task("Ancient", "0001-01-01", 1, 5)}, StrategyDeadline)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !strings.HasPrefix(res.Tasks[0].Explanation, "OVERDUE by 739319 days") {
		t.Errorf("explanation = %q", res.Tasks[0].Explanation)
	}
}

func TestAnalyzeRejectsAmbiguousIDs(t *testing.T) {
	a := task("A", "2025-03-12", 1, 5, NameRef("B"))
	a.ID = "x"
	b := task("B", "2025-03-12", 1, 5, NameRef("A"))
	b.ID = "x"

	res, err := testEngine().Analyze([]Task{a, b}, StrategySmart)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("err = %v, cycles = %v; want ErrDuplicateID", err, res.CircularDependencies)
	}
}

func TestEngineLocationDecidesToday(t *testing.T) {
	late := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	e := NewEngine(
		WithClock(func() time.Time { return late }),
		WithLocation(time.FixedZone("UTC+2", 2*60*60)),
	)

	res, err := e.Analyze([]Task{task("A", "2025-03-11", 3, 5)}, StrategyDeadline)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !strings.HasPrefix(res.Tasks[0].Explanation, "Due TODAY") {
		t.Errorf("explanation = %q, want due today in UTC+2", res.Tasks[0].Explanation)
	}
}

func TestSuggest(t *testing.T) {
	e := testEngine()
	ts := []Task{
		task("T1", "2025-01-01", 2, 5),
		task("T2", "2025-03-30", 4, 3),
		task("T3", "2025-03-11", 1, 8),
		task("T4", "2025-03-12", 6, 6),
		task("T5", "2025-05-01", 2, 2),
	}

	got, err := e.Suggest(ts, StrategyDeadline, 0)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != DefaultSuggestLimit {
		t.Fatalf("got %d suggestions, want %d", len(got), DefaultSuggestLimit)
	}
	for i, s := range got {
		if s.Rank != i+1 {
			t.Errorf("suggestion %d has rank %d", i, s.Rank)
		}
	}
	if want := "Score: 450 - OVERDUE by 68 days (+440 urgency) | Deadline focused"; got[0].Reason != want {
		t.Errorf("reason = %q, want %q", got[0].Reason, want)
	}

	two, err := testEngine(WithSuggestLimit(2)).Suggest(ts, StrategyDeadline, 0)
	if err != nil || len(two) != 2 {
		t.Errorf("limit 2: got %d, %v", len(two), err)
	}

	all, err := e.Suggest(ts, StrategyDeadline, 10)
	if err != nil || len(all) != len(ts) {
		t.Errorf("n beyond batch: got %d, %v", len(all), err)
	}

	empty, err := e.Suggest(nil, StrategySmart, 0)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("empty batch: %v, %v", empty, err)
	}
}
