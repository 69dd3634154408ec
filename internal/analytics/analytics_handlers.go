package analytics

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrDisabled is returned by queries when no analytics store is configured.
var ErrDisabled = errors.New("analytics storage is disabled")

// StatsHandler serves per-strategy analysis counts.
func StatsHandler(rec *Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		stats, err := rec.StrategyStats(r.Context())
		if errors.Is(err, ErrDisabled) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "stats unavailable")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"strategies": stats})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
