// Package server wires the HTTP API and runs it until the context ends.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"task-prioritizer-backend/internal/analytics"
	"task-prioritizer-backend/internal/logging"
	"task-prioritizer-backend/internal/tasks"
)

// Options configures the router and the listener.
type Options struct {
	AllowedOrigins  []string
	MaxBodyBytes    int64
	MaxConnections  int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// NewRouter builds the full handler chain.
func NewRouter(h *tasks.TaskHandler, events *analytics.Recorder, opts Options, log *logging.Logger) http.Handler {
	if log == nil {
		log = logging.Nop()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/api/tasks/analyze/{$}", h.Analyze)
	mux.HandleFunc("/api/tasks/suggest/{$}", h.Suggest)
	mux.HandleFunc("/api/tasks/strategies/{$}", h.Strategies)
	mux.HandleFunc("/api/tasks/stats/{$}", analytics.StatsHandler(events))

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type",
			"X-Platform",
			"X-App-Version",
			"X-Session-Id",
			"X-Device-Locale",
			"Idempotency-Key",
			"X-Source-Event-Key",
			analytics.RequestIDHeader,
		},
		ExposedHeaders: []string{analytics.RequestIDHeader},
	})

	var handler http.Handler = mux
	handler = limitBody(opts.MaxBodyBytes)(handler)
	handler = recoverer(log)(handler)
	handler = accessLog(log)(handler)
	handler = requestID(handler)
	return c.Handler(handler)
}

// Listen opens a TCP listener, capped at maxConns concurrent connections
// when maxConns is positive.
func Listen(addr string, maxConns int) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}
	return ln, nil
}

// Serve runs the server on ln until ctx is cancelled, then shuts it down
// gracefully within opts.ShutdownTimeout.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, opts Options, log *logging.Logger) error {
	if log == nil {
		log = logging.Nop()
	}

	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
	}

	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("api server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down api server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
