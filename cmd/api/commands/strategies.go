package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"task-prioritizer-backend/internal/tasks"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List scoring strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		styles := newReportStyles()
		w := cmd.OutOrStdout()
		for _, s := range tasks.Strategies() {
			fmt.Fprintf(w, "%-10s %s\n", s, styles.Muted.Render(s.DisplayName()))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
