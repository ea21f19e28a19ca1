package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/teemow/ticktick-mcp/internal/agenda"
	"github.com/teemow/ticktick-mcp/internal/logging"
)

var (
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	overdueStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#767676"))
	priorityStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F1FA8C"))
)

func newAgendaCmd() *cobra.Command {
	var (
		projectID  string
		offset     int
		jsonOutput bool
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Print the tasks due today and the overdue tasks",
		Long: `Print the tasks due today and the overdue tasks of the configured account.

Tasks of every project and the inbox are considered unless --project is given.
Projects that cannot be fetched are skipped and listed at the end.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger(os.Stderr, debug, false)

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			_, aggregator := newClient(cfg, logger, nil)

			agg, err := aggregator.ListTasks(cmd.Context(), projectID)
			if err != nil {
				return err
			}

			now := time.Now()
			today := agenda.DisplayAll(agenda.FilterDueToday(agg.Tasks, now))
			overdue := agenda.DisplayAll(agenda.FilterOverdue(agg.Tasks, now, offset))
			for _, f := range agg.Failures {
				logger.Debug("source skipped", "source", f.Source, "project_id", f.ProjectID, logging.Err(f.Err))
			}

			if jsonOutput {
				return writeAgendaJSON(cmd.OutOrStdout(), today, overdue, agg.Failures)
			}
			return renderAgenda(cmd.OutOrStdout(), today, overdue, agg.Failures)
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Only consider the tasks of this project")
	cmd.Flags().IntVar(&offset, "offset", agenda.DefaultTimezoneOffsetHours, "Timezone offset in hours used for the overdue check")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	return cmd
}

type agendaOutput struct {
	Today   []agenda.DisplayTask `json:"today"`
	Overdue []agenda.DisplayTask `json:"overdue"`
	Skipped []string             `json:"skipped,omitempty"`
}

func writeAgendaJSON(w io.Writer, today, overdue []agenda.DisplayTask, failures []agenda.Failure) error {
	out := agendaOutput{Today: today, Overdue: overdue}
	for _, f := range failures {
		out.Skipped = append(out.Skipped, f.Error())
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderAgenda(w io.Writer, today, overdue []agenda.DisplayTask, failures []agenda.Failure) error {
	var sb strings.Builder

	sb.WriteString(headingStyle.Render(fmt.Sprintf("Today (%d)", len(today))))
	sb.WriteString("\n")
	writeTaskLines(&sb, today)

	sb.WriteString("\n")
	sb.WriteString(overdueStyle.Render(fmt.Sprintf("Overdue (%d)", len(overdue))))
	sb.WriteString("\n")
	writeTaskLines(&sb, overdue)

	if len(failures) > 0 {
		sb.WriteString("\n")
		sb.WriteString(warningStyle.Render(fmt.Sprintf("Skipped %d source(s):", len(failures))))
		sb.WriteString("\n")
		for _, f := range failures {
			sb.WriteString("  ")
			sb.WriteString(mutedStyle.Render(f.Error()))
			sb.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeTaskLines(sb *strings.Builder, tasks []agenda.DisplayTask) {
	if len(tasks) == 0 {
		sb.WriteString("  ")
		sb.WriteString(mutedStyle.Render("nothing"))
		sb.WriteString("\n")
		return
	}
	for _, t := range tasks {
		sb.WriteString("  - ")
		sb.WriteString(t.Title)
		if t.PriorityText != "None" {
			sb.WriteString(" ")
			sb.WriteString(priorityStyle.Render("[" + t.PriorityText + "]"))
		}
		if t.DueDate != "" {
			sb.WriteString(" ")
			sb.WriteString(mutedStyle.Render("due " + t.DueDate))
		}
		sb.WriteString("\n")
	}
}
