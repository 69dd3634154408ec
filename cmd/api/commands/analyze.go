package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"task-prioritizer-backend/internal/client"
	"task-prioritizer-backend/internal/intake"
	"task-prioritizer-backend/internal/logging"
	"task-prioritizer-backend/internal/tasks"
)

type analyzeOptions struct {
	file       string
	strategy   string
	server     string
	watch      bool
	jsonOutput bool

	title      string
	due        string
	hours      float64
	importance int
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Order tasks by priority",
	Long: `Send a batch of tasks to the API and print them ordered by priority.

Tasks come from a JSON file (--file), a single task given with --title,
--due, --hours and --importance, or both. With --watch the file is
re-analyzed every time it changes; a newer run cancels one still in flight.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = logging.Get().Close() }()

		opts := analyzeOptions{}
		opts.file, _ = cmd.Flags().GetString("file")
		opts.strategy, _ = cmd.Flags().GetString("strategy")
		opts.server, _ = cmd.Flags().GetString("server")
		opts.watch, _ = cmd.Flags().GetBool("watch")
		opts.jsonOutput, _ = cmd.Flags().GetBool("json")
		opts.title, _ = cmd.Flags().GetString("title")
		opts.due, _ = cmd.Flags().GetString("due")
		opts.hours, _ = cmd.Flags().GetFloat64("hours")
		opts.importance, _ = cmd.Flags().GetInt("importance")

		if opts.server == "" {
			opts.server = cfg.Client.BaseURL
		}
		c := client.New(opts.server, cfg.Client.Timeout)
		c.AppVersion = Version

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if opts.watch {
			if opts.file == "" {
				return errors.New("--watch requires --file")
			}
			return watchAnalyze(ctx, client.NewSession(c), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		}
		return runAnalyze(ctx, client.NewSession(c), opts, cmd.OutOrStdout())
	},
}

func init() {
	analyzeCmd.Flags().StringP("file", "f", "", "JSON file with an array of tasks")
	analyzeCmd.Flags().StringP("strategy", "s", "", "Strategy: smart, fastest, impact, deadline")
	analyzeCmd.Flags().String("server", "", "API base URL (overrides client.base_url)")
	analyzeCmd.Flags().BoolP("watch", "w", false, "Re-analyze when the file changes")
	analyzeCmd.Flags().Bool("json", false, "Output as JSON")
	analyzeCmd.Flags().String("title", "", "Title of a task to add")
	analyzeCmd.Flags().String("due", "", "Due date of the added task (YYYY-MM-DD)")
	analyzeCmd.Flags().Float64("hours", 1, "Estimated hours of the added task")
	analyzeCmd.Flags().Int("importance", 5, "Importance of the added task (1-10)")
	rootCmd.AddCommand(analyzeCmd)
}

// buildList reads the file, if any, and appends the task given by flags.
func buildList(opts analyzeOptions) (intake.List, error) {
	var list intake.List

	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return list, fmt.Errorf("reading %s: %w", opts.file, err)
		}
		list, err = list.LoadJSON(data)
		if err != nil {
			return list, err
		}
	}

	if opts.title != "" {
		var err error
		list, err = list.AddFields(opts.title, opts.due, opts.hours, opts.importance)
		if err != nil {
			return list, err
		}
	}

	if list.Len() == 0 {
		return list, errors.New("please add at least one task (--file or --title)")
	}
	return list, nil
}

func runAnalyze(ctx context.Context, s *client.Session, opts analyzeOptions, w io.Writer) error {
	list, err := buildList(opts)
	if err != nil {
		return err
	}

	strategy, err := tasks.ParseStrategy(opts.strategy)
	if err != nil {
		return err
	}

	res, err := s.Analyze(ctx, list.Tasks(), strategy)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err = io.WriteString(w, renderAnalysis(res))
	return err
}

// watchAnalyze analyzes once, then again on every write to the file. The
// containing directory is watched so that editors replacing the file are
// seen too.
func watchAnalyze(ctx context.Context, s *client.Session, opts analyzeOptions, w, errw io.Writer) error {
	log := logging.Component("watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	target, err := filepath.Abs(opts.file)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", opts.file, err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	trigger := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var buf bytes.Buffer
			err := runAnalyze(ctx, s, opts, &buf)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, client.ErrSuperseded), errors.Is(err, context.Canceled):
				log.Debug().Msg("analysis superseded")
			case err != nil:
				fmt.Fprintf(errw, "Error: %v\n", err)
			default:
				_, _ = w.Write(buf.Bytes())
			}
		}()
	}

	fmt.Fprintf(errw, "--- Watching %s (Ctrl+C to exit) ---\n", opts.file)
	trigger()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				wg.Wait()
				return nil
			}
			name, _ := filepath.Abs(event.Name)
			if name != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				trigger()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				wg.Wait()
				return nil
			}
			fmt.Fprintf(errw, "watcher error: %v\n", err)
		}
	}
}
