package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"task-prioritizer-backend/internal/analytics"
	"task-prioritizer-backend/internal/config"
	"task-prioritizer-backend/internal/db"
	"task-prioritizer-backend/internal/logging"
	"task-prioritizer-backend/internal/server"
	"task-prioritizer-backend/internal/tasks"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the prioritization API",
	Long: `Start the HTTP API on server.addr.

When db.driver is postgres or sqlite, anonymous analysis events are stored
and served from /api/tasks/stats/. SIGINT or SIGTERM shuts down gracefully.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = logging.Get().Close() }()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logging.Component("server")

	var database *db.DB
	if cfg.DB.Driver != "" {
		d, err := db.Open(db.Dialect(cfg.DB.Driver), cfg.DSN())
		if err != nil {
			return fmt.Errorf("opening db: %w", err)
		}
		defer func() { _ = d.Close() }()
		database = d
		log.Info().Str("driver", cfg.DB.Driver).Msg("analytics storage enabled")
	}

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("analysis timezone: %w", err)
	}
	strategy, err := tasks.ParseStrategy(cfg.Analysis.DefaultStrategy)
	if err != nil {
		return err
	}

	engine := tasks.NewEngine(
		tasks.WithLocation(loc),
		tasks.WithSuggestLimit(cfg.Analysis.SuggestLimit),
	)
	events := analytics.NewRecorder(database, logging.Component("analytics"))
	handler := tasks.New(engine, events, strategy, logging.Component("tasks"))

	opts := server.Options{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		MaxConnections:  cfg.Server.MaxConnections,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	router := server.NewRouter(handler, events, opts, logging.Component("http"))

	ln, err := server.Listen(cfg.Server.Addr, opts.MaxConnections)
	if err != nil {
		return err
	}
	return server.Serve(ctx, ln, router, opts, log)
}
