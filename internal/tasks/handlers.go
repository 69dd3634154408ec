package tasks

import (
	"context"
	"net/http"

	"task-prioritizer-backend/internal/analytics"
	"task-prioritizer-backend/internal/logging"
)

// TaskHandler serves the analysis endpoints.
type TaskHandler struct {
	Engine          *Engine
	Events          *analytics.Recorder
	DefaultStrategy Strategy
	Log             *logging.Logger
}

func New(engine *Engine, events *analytics.Recorder, defaultStrategy Strategy, log *logging.Logger) *TaskHandler {
	if engine == nil {
		engine = NewEngine()
	}
	if !defaultStrategy.Valid() {
		defaultStrategy = StrategySmart
	}
	if log == nil {
		log = logging.Nop()
	}
	return &TaskHandler{
		Engine:          engine,
		Events:          events,
		DefaultStrategy: defaultStrategy,
		Log:             log,
	}
}

// strategyFor resolves the requested name; empty means the configured
// default.
func (h *TaskHandler) strategyFor(name string) (Strategy, error) {
	if name == "" {
		return h.DefaultStrategy, nil
	}
	return ParseStrategy(name)
}

// record stores the event without letting a storage failure reach the
// caller.
func (h *TaskHandler) record(ctx context.Context, r *http.Request, ev analytics.Event) {
	if !h.Events.Enabled() {
		return
	}
	ev.SourceEventKey = analytics.SourceEventKeyFromRequest(r)
	if err := h.Events.Log(ctx, analytics.FromRequest(r), ev); err != nil {
		h.Log.Warn().Err(err).Str("event", ev.Name).Msg("analytics event dropped")
	}
}

func analysisEvent(res AnalysisResult) analytics.Event {
	levels := map[string]any{}
	for _, st := range res.Tasks {
		n, _ := levels[string(st.PriorityLevel)].(int)
		levels[string(st.PriorityLevel)] = n + 1
	}
	return analytics.Event{
		Name:       analytics.EventAnalysisCompleted,
		Strategy:   string(res.StrategyUsed),
		TaskCount:  len(res.Tasks),
		CycleCount: len(res.CircularDependencies),
		Props:      map[string]any{"levels": levels},
	}
}

func suggestionEvent(strategy Strategy, taskCount, served int) analytics.Event {
	return analytics.Event{
		Name:      analytics.EventSuggestionServed,
		Strategy:  string(strategy),
		TaskCount: taskCount,
		Props:     map[string]any{"served": served},
	}
}
