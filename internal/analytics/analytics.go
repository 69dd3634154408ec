// Package analytics records anonymous usage events for analysis requests.
// Only counts and strategy names are stored, never task text.
package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"task-prioritizer-backend/internal/db"
	"task-prioritizer-backend/internal/logging"
)

const (
	EventAnalysisCompleted = "analysis_completed"
	EventSuggestionServed  = "suggestion_served"
)

// RequestIDHeader carries the per-request id set by the server middleware.
const RequestIDHeader = "X-Request-ID"

// Envelope is what we store with every event.
type Envelope struct {
	RequestID    string
	SessionID    string
	Platform     string
	AppVersion   string
	DeviceLocale string
}

// FromRequest extracts event envelope fields from request headers.
func FromRequest(r *http.Request) Envelope {
	platform := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Platform")))
	switch platform {
	case "ios", "android", "web", "cli":
	default:
		platform = "unknown"
	}

	locale := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if locale == "" {
		locale = strings.TrimSpace(r.Header.Get("X-Device-Locale"))
	}

	return Envelope{
		RequestID:    strings.TrimSpace(r.Header.Get(RequestIDHeader)),
		SessionID:    strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:     platform,
		AppVersion:   strings.TrimSpace(r.Header.Get("X-App-Version")),
		DeviceLocale: locale,
	}
}

// SourceEventKeyFromRequest returns the client-provided idempotency key.
// A repeated key is stored once.
func SourceEventKeyFromRequest(r *http.Request) string {
	k := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if k != "" {
		return k
	}
	return strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
}

// Event is one analysis outcome.
type Event struct {
	Name           string
	Strategy       string
	TaskCount      int
	CycleCount     int
	SourceEventKey string
	Props          map[string]any
}

// Recorder writes events to the analytics store. A nil Recorder, or one
// without a database, drops events.
type Recorder struct {
	db  *db.DB
	now func() time.Time
	log *logging.Logger
}

func NewRecorder(d *db.DB, log *logging.Logger) *Recorder {
	if log == nil {
		log = logging.Nop()
	}
	return &Recorder{db: d, now: time.Now, log: log}
}

// Enabled reports whether events are persisted.
func (r *Recorder) Enabled() bool {
	return r != nil && r.db != nil
}

const insertEvent = `
	INSERT INTO analytics_events (
		event_name, event_time,
		request_id, session_id,
		platform, app_version, device_locale,
		source_event_key,
		strategy, task_count, cycle_count,
		properties
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (source_event_key) DO NOTHING
`

// Log inserts one event. Failures are logged and returned but callers are
// expected to carry on serving the request.
func (r *Recorder) Log(ctx context.Context, env Envelope, ev Event) error {
	if !r.Enabled() || ev.Name == "" {
		return nil
	}

	props := ev.Props
	if props == nil {
		props = map[string]any{}
	}
	b, err := json.Marshal(props)
	if err != nil {
		r.log.Warn().Err(err).Str("event", ev.Name).Msg("analytics props not encodable")
		return fmt.Errorf("encoding props: %w", err)
	}

	_, err = r.db.SQL().ExecContext(ctx, r.db.Rebind(insertEvent),
		ev.Name, r.now().UTC(),
		nullIfEmpty(env.RequestID), nullIfEmpty(env.SessionID),
		env.Platform, env.AppVersion, nullIfEmpty(env.DeviceLocale),
		nullIfEmpty(ev.SourceEventKey),
		ev.Strategy, ev.TaskCount, ev.CycleCount,
		string(b),
	)
	if err != nil {
		r.log.Warn().Err(err).Str("event", ev.Name).Msg("analytics insert failed")
		return fmt.Errorf("inserting %s: %w", ev.Name, err)
	}
	return nil
}

// StrategyStat aggregates completed analyses for one strategy.
type StrategyStat struct {
	Strategy  string `json:"strategy"`
	Analyses  int    `json:"analyses"`
	TaskTotal int    `json:"task_total"`
	Cycles    int    `json:"cycles"`
}

// StrategyStats counts analysis_completed events per strategy.
func (r *Recorder) StrategyStats(ctx context.Context) ([]StrategyStat, error) {
	if !r.Enabled() {
		return nil, ErrDisabled
	}

	rows, err := r.db.SQL().QueryContext(ctx, r.db.Rebind(`
		SELECT strategy, COUNT(*), COALESCE(SUM(task_count), 0), COALESCE(SUM(cycle_count), 0)
		FROM analytics_events
		WHERE event_name = ?
		GROUP BY strategy
		ORDER BY strategy
	`), EventAnalysisCompleted)
	if err != nil {
		return nil, fmt.Errorf("querying strategy stats: %w", err)
	}
	defer rows.Close()

	stats := []StrategyStat{}
	for rows.Next() {
		var s StrategyStat
		if err := rows.Scan(&s.Strategy, &s.Analyses, &s.TaskTotal, &s.Cycles); err != nil {
			return nil, fmt.Errorf("scanning strategy stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating strategy stats: %w", err)
	}
	return stats, nil
}

func nullIfEmpty(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
