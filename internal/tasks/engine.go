package tasks

import (
	"fmt"
	"sort"
	"time"
)

// DefaultSuggestLimit is how many tasks Suggest returns when asked for none.
const DefaultSuggestLimit = 3

// Engine scores and orders task batches. It holds no per-request state and
// is safe for concurrent use.
type Engine struct {
	now          func() time.Time
	loc          *time.Location
	suggestLimit int
}

type Option func(*Engine)

// WithClock sets the source of "today".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation sets the time zone used to decide which calendar day today is.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithSuggestLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.suggestLimit = n
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:          time.Now,
		loc:          time.Local,
		suggestLimit: DefaultSuggestLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) today() time.Time {
	y, m, d := e.now().In(e.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysUntil counts whole calendar days from today to due. Negative means
// overdue.
func daysUntil(today time.Time, due string) (int, error) {
	t, err := time.Parse(DateLayout, due)
	if err != nil {
		return 0, err
	}
	// Both are UTC midnights; Sub would saturate for far-off years.
	return int((t.Unix() - today.Unix()) / 86400), nil
}

// Analyze validates the batch, scores every task under strategy and returns
// them ordered by descending score. Equal scores keep input order. Tasks on
// a dependency cycle are scored like any other and also reported in
// CircularDependencies.
func (e *Engine) Analyze(ts []Task, strategy Strategy) (AnalysisResult, error) {
	if strategy == "" {
		strategy = StrategySmart
	}
	score, err := strategy.scorer()
	if err != nil {
		return AnalysisResult{}, err
	}
	if err := ValidateTasks(ts); err != nil {
		return AnalysisResult{}, err
	}

	g := buildGraph(ts)
	today := e.today()

	scored := make([]ScoredTask, len(ts))
	for i, t := range ts {
		days, err := daysUntil(today, t.DueDate)
		if err != nil {
			return AnalysisResult{}, fmt.Errorf("task %q: %w", t.Title, err)
		}

		f := factors{
			days:       days,
			urgency:    urgency(days),
			importance: t.Importance,
			hours:      t.EstimatedHours,
			blocks:     g.dependents[i],
		}

		var why explanation
		why.add(urgencyReason(f.days, f.urgency))
		raw := score(f, &why)

		scored[i] = ScoredTask{
			Task:          t,
			PriorityScore: round2(raw),
			PriorityLevel: LevelFor(raw),
			Explanation:   why.String(),
			Blocks:        f.blocks,
		}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].PriorityScore > scored[b].PriorityScore
	})

	cycles := make([]string, 0)
	for _, i := range g.cycleMembers() {
		cycles = append(cycles, ts[i].Key())
	}

	return AnalysisResult{
		Tasks:                scored,
		CircularDependencies: cycles,
		StrategyUsed:         strategy,
	}, nil
}

// Suggest returns the top n tasks of the ordering with a reason each. A
// non-positive n uses the engine's limit. An empty batch yields no
// suggestions rather than an error.
func (e *Engine) Suggest(ts []Task, strategy Strategy, n int) ([]Suggestion, error) {
	if len(ts) == 0 {
		if strategy != "" && !strategy.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, string(strategy))
		}
		return []Suggestion{}, nil
	}
	if n <= 0 {
		n = e.suggestLimit
	}

	res, err := e.Analyze(ts, strategy)
	if err != nil {
		return nil, err
	}

	n = min(n, len(res.Tasks))
	out := make([]Suggestion, 0, n)
	for i, st := range res.Tasks[:n] {
		out = append(out, Suggestion{
			Rank:   i + 1,
			Task:   st,
			Reason: "Score: " + fmtNum(st.PriorityScore) + " - " + st.Explanation,
		})
	}
	return out, nil
}
