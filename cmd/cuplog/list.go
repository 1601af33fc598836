package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mwalters/cuplog/internal/client"
	"github.com/mwalters/cuplog/internal/coffee"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("94"))
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	ratingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show recent entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		system, _ := cmd.Flags().GetString("system")
		if system != string(coffee.SystemMetric) && system != string(coffee.SystemImperial) {
			return fmt.Errorf("unknown measurement system %q (want metric or imperial)", system)
		}

		api := client.New(cfg.ServerURL, nil)
		entries, err := api.ListEntries(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println(dimStyle.Render("No entries yet. Log one with 'cuplog add'."))
			return nil
		}

		fmt.Println(headerStyle.Render("Recent coffee"))
		for _, entry := range entries {
			fmt.Println(renderEntry(entry, coffee.MeasurementSystem(system)))
		}
		return nil
	},
}

// renderEntry formats one list line.
func renderEntry(entry *coffee.Entry, system coffee.MeasurementSystem) string {
	var b strings.Builder

	b.WriteString(timeStyle.Render(formatOccurredAt(entry.OccurredAt)))
	b.WriteString("  ")
	b.WriteString(formatAmount(entry, system))

	if entry.Rating != nil {
		b.WriteString("  ")
		b.WriteString(ratingStyle.Render(strings.Repeat("★", *entry.Rating) + strings.Repeat("☆", coffee.RatingMax-*entry.Rating)))
	}
	if entry.Location != nil && *entry.Location != "" {
		b.WriteString("  ")
		b.WriteString(dimStyle.Render("@ " + *entry.Location))
	}

	return b.String()
}

// formatAmount shows the stored amount, plus a conversion when the entry's
// unit belongs to the other measurement system.
func formatAmount(entry *coffee.Entry, system coffee.MeasurementSystem) string {
	native := fmt.Sprintf("%v %s", entry.Amount, entry.Unit)
	if system == coffee.SystemMetric && entry.Unit != coffee.UnitML {
		return fmt.Sprintf("%s (%.0f ml)", native, entry.AmountInML())
	}
	if system == coffee.SystemImperial && entry.Unit == coffee.UnitML {
		return fmt.Sprintf("%s (%.1f fl_oz)", native, entry.Amount/coffee.FlOzToML)
	}
	return native
}

func formatOccurredAt(occurredAt string) string {
	t, err := time.Parse(time.RFC3339, occurredAt)
	if err != nil {
		return occurredAt
	}
	return t.Local().Format("2006-01-02 15:04")
}

func init() {
	listCmd.Flags().Int("limit", 10, "Number of entries to show")
	listCmd.Flags().String("system", "metric", "Measurement system for conversions (metric, imperial)")

	rootCmd.AddCommand(listCmd)
}
