// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/flowrun/flowrun/internal/history"
)

var logHeaders = []string{"TIMESTAMP", "DURATION", "RUN NAME", "STATUS", "REVISION", "SESSION ID", "COMMAND"}

func newLogCommand(app *App) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the run history of the launch directory",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only run names")

	cmd.RunE = app.action(func(_ *cobra.Command, _ []string) error {
		records, err := app.historyStore().Records()
		if err != nil {
			return err
		}

		if quiet {
			for _, r := range records {
				fmt.Fprintln(app.deps.Stdout, r.RunName)
			}
			return nil
		}
		if len(records) == 0 {
			fmt.Fprintln(app.deps.Stdout, SubtitleStyle.Render("No runs recorded in "+app.historyStore().Path()))
			return nil
		}

		fmt.Fprintln(app.deps.Stdout, historyTable(records))
		return nil
	})

	return cmd
}

func historyTable(records []history.Record) *table.Table {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		duration := "-"
		if r.Status != history.StatusRunning {
			duration = r.Duration.Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			r.Timestamp.Local().Format(time.DateTime),
			duration,
			r.RunName,
			string(r.Status),
			r.Revision,
			r.SessionID.String(),
			r.Command,
		})
	}

	const statusCol = 3
	return table.New().
		Border(lipgloss.HiddenBorder()).
		Headers(logHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().PaddingRight(1)
			switch {
			case row == table.HeaderRow:
				return style.Bold(true).Foreground(ColorPrimary)
			case col == statusCol:
				return style.Inherit(statusStyle(rows[row][statusCol]))
			default:
				return style
			}
		})
}
