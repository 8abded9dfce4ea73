// Copyright 2026 The Intray Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderTerminal renders the current statistics as styled text for an
// interactive terminal. The output is a static snapshot with no cursor
// movement, so it is safe to pipe. Colors target 256-color terminals
// with a dark background.
func (r *Report) RenderTerminal() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("255"))
	faintStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))
	goodStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("114"))
	waitStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220"))
	badStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	rateStyle := badStyle
	switch {
	case r.stats.SuccessRatePercent >= 90:
		rateStyle = goodStyle
	case r.stats.SuccessRatePercent >= 50:
		rateStyle = waitStyle
	}

	var b strings.Builder
	row := func(label, value string, style lipgloss.Style) {
		fmt.Fprintf(&b, "  %-20s %s\n", label, style.Render(value))
	}

	b.WriteString(titleStyle.Render("Vault statistics"))
	b.WriteString("\n\n")
	row("Completed", fmt.Sprintf("%d", r.stats.CompletedToday), goodStyle)
	row("Pending", fmt.Sprintf("%d", r.stats.PendingToday), waitStyle)
	row("Failed", fmt.Sprintf("%d", r.stats.FailedToday), badStyle)
	b.WriteString("\n")
	row("Total processed", fmt.Sprintf("%d", r.stats.TotalProcessed), titleStyle)
	row("Average time", fmt.Sprintf("%ds", int(r.stats.AverageDurationSeconds)), titleStyle)
	row("Success rate", fmt.Sprintf("%.1f%%", r.stats.SuccessRatePercent), rateStyle)
	row("Most common type", r.stats.MostCommonType, titleStyle)

	if len(r.activity) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Recent activity"))
		b.WriteString("\n\n")
		for _, entry := range r.activity {
			fmt.Fprintf(&b, "  %s %s %s  %s\n",
				faintStyle.Render(entry.Time),
				entry.Status,
				entry.DisplayName,
				faintStyle.Render(entry.Summary))
		}
	}
	return b.String()
}
