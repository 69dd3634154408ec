package client

import (
	"context"
	"errors"
	"sync"

	"task-prioritizer-backend/internal/tasks"
)

// ErrSuperseded is returned by an analysis that a newer one replaced.
var ErrSuperseded = errors.New("analysis superseded by a newer request")

// Session keeps at most one analysis in flight. Starting a new one cancels
// the previous request.
type Session struct {
	client *Client

	mu      sync.Mutex
	seq     uint64
	current context.CancelCauseFunc
}

func NewSession(c *Client) *Session {
	return &Session{client: c}
}

func (s *Session) Analyze(ctx context.Context, ts []tasks.Task, strategy tasks.Strategy) (tasks.AnalysisResult, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	s.mu.Lock()
	if s.current != nil {
		s.current(ErrSuperseded)
	}
	s.seq++
	mine := s.seq
	s.current = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.seq == mine {
			s.current = nil
		}
		s.mu.Unlock()
	}()

	res, err := s.client.Analyze(ctx, ts, strategy)
	if errors.Is(context.Cause(ctx), ErrSuperseded) {
		return tasks.AnalysisResult{}, ErrSuperseded
	}
	return res, err
}
