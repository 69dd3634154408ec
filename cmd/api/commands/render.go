package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"task-prioritizer-backend/internal/tasks"
)

type reportStyles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Muted  lipgloss.Style
	Warn   lipgloss.Style
	High   lipgloss.Style
	Medium lipgloss.Style
	Low    lipgloss.Style
}

func newReportStyles() reportStyles {
	return reportStyles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Warn:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		High:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Medium: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		Low:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
	}
}

func (s reportStyles) level(l tasks.Level) lipgloss.Style {
	switch l {
	case tasks.LevelHigh:
		return s.High
	case tasks.LevelMedium:
		return s.Medium
	default:
		return s.Low
	}
}

func renderAnalysis(res tasks.AnalysisResult) string {
	styles := newReportStyles()
	var b strings.Builder

	b.WriteString(styles.Title.Render(fmt.Sprintf("Task Priorities (%s)", res.StrategyUsed.DisplayName())))
	b.WriteString("\n")

	if len(res.CircularDependencies) > 0 {
		b.WriteString(styles.Warn.Render("Circular dependencies detected: " + strings.Join(res.CircularDependencies, ", ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, t := range res.Tasks {
		writeScoredTask(&b, styles, i+1, t)
	}
	return b.String()
}

func renderSuggestions(suggestions []tasks.Suggestion) string {
	styles := newReportStyles()
	var b strings.Builder

	b.WriteString(styles.Title.Render("Suggested for today"))
	b.WriteString("\n\n")

	if len(suggestions) == 0 {
		b.WriteString(styles.Muted.Render("No tasks to suggest"))
		b.WriteString("\n")
		return b.String()
	}

	for _, s := range suggestions {
		fmt.Fprintf(&b, "%d. %s\n", s.Rank, styles.Label.Render(s.Task.Title))
		fmt.Fprintf(&b, "   %s\n", styles.Muted.Render(s.Reason))
	}
	return b.String()
}

func writeScoredTask(b *strings.Builder, styles reportStyles, n int, t tasks.ScoredTask) {
	badge := fmt.Sprintf("[%s %s]", t.PriorityLevel, strconv.FormatFloat(t.PriorityScore, 'f', -1, 64))
	fmt.Fprintf(b, "%d. %s %s\n", n, styles.Label.Render(t.Title), styles.level(t.PriorityLevel).Render(badge))

	details := []string{
		"Due: " + t.DueDate,
		strconv.FormatFloat(t.EstimatedHours, 'f', -1, 64) + "h",
		fmt.Sprintf("Importance: %d/10", t.Importance),
	}
	if t.Blocks > 0 {
		details = append(details, fmt.Sprintf("Blocks %d tasks", t.Blocks))
	}
	fmt.Fprintf(b, "   %s\n", styles.Muted.Render(strings.Join(details, " | ")))

	if t.Explanation != "" {
		fmt.Fprintf(b, "   %s\n", t.Explanation)
	}
}
