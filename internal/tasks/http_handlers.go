package tasks

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Analyze scores and orders the submitted batch.
func (h *TaskHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if len(req.Tasks) == 0 {
		writeError(w, http.StatusBadRequest, "No tasks provided")
		return
	}

	strategy, err := h.strategyFor(req.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ts, err := DecodeTasks(req.Tasks)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Engine.Analyze(ts, strategy)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.Log.Debug().
		Str("strategy", string(strategy)).
		Int("tasks", len(res.Tasks)).
		Int("cycles", len(res.CircularDependencies)).
		Msg("analysis completed")

	h.record(r.Context(), r, analysisEvent(res))
	writeJSON(w, http.StatusOK, res)
}

// Suggest returns the top tasks to work on. An empty batch yields an empty
// list.
func (h *TaskHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	strategy, err := h.strategyFor(req.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.Tasks) == 0 {
		writeJSON(w, http.StatusOK, SuggestResponse{Suggestions: []Suggestion{}})
		return
	}

	ts, err := DecodeTasks(req.Tasks)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestions, err := h.Engine.Suggest(ts, strategy, 0)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.record(r.Context(), r, suggestionEvent(strategy, len(ts), len(suggestions)))
	writeJSON(w, http.StatusOK, SuggestResponse{Suggestions: suggestions})
}

// Strategies lists the available strategies.
func (h *TaskHandler) Strategies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	out := make([]StrategyInfo, 0, len(Strategies()))
	for _, s := range Strategies() {
		out = append(out, StrategyInfo{Name: s, DisplayName: s.DisplayName()})
	}
	writeJSON(w, http.StatusOK, out)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (AnalyzeRequest, bool) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return req, false
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return req, false
	}
	return req, true
}

// fail maps engine errors onto status codes.
func (h *TaskHandler) fail(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, ErrNoTasks),
		errors.Is(err, ErrUnknownStrategy):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.Log.Error().Err(err).Msg("analysis failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
