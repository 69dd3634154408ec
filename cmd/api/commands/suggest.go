package commands

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"task-prioritizer-backend/internal/client"
	"task-prioritizer-backend/internal/logging"
	"task-prioritizer-backend/internal/tasks"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Show the top tasks to work on today",
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
		opts.jsonOutput, _ = cmd.Flags().GetBool("json")
		if opts.server == "" {
			opts.server = cfg.Client.BaseURL
		}

		c := client.New(opts.server, cfg.Client.Timeout)
		c.AppVersion = Version
		return runSuggest(cmd.Context(), c, opts, cmd.OutOrStdout())
	},
}

func init() {
	suggestCmd.Flags().StringP("file", "f", "", "JSON file with an array of tasks")
	suggestCmd.Flags().StringP("strategy", "s", "", "Strategy: smart, fastest, impact, deadline")
	suggestCmd.Flags().String("server", "", "API base URL (overrides client.base_url)")
	suggestCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(ctx context.Context, c *client.Client, opts analyzeOptions, w io.Writer) error {
	list, err := buildList(opts)
	if err != nil {
		return err
	}
	strategy, err := tasks.ParseStrategy(opts.strategy)
	if err != nil {
		return err
	}

	suggestions, err := c.Suggest(ctx, list.Tasks(), strategy)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks.SuggestResponse{Suggestions: suggestions})
	}
	_, err = io.WriteString(w, renderSuggestions(suggestions))
	return err
}
