package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ppiankov/riskform/internal/aggregate"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#34a853"))
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
)

var summaryHeader = []string{"Agent", "Rows", "Agreement", "Depth"}

// renderSummary lays out per-agent means as an aligned table
func renderSummary(title string, summaries []aggregate.RaterSummary) string {
	if len(summaries) == 0 {
		return mutedStyle.Render("no ratings")
	}

	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{s.Rater, fmt.Sprint(s.Rows), mean(s.Agreement, s.Rated), mean(s.Depth, s.DepthN)}
	}

	widths := make([]int, len(summaryHeader))
	for i, h := range summaryHeader {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			align := lipgloss.Right
			if i == 0 {
				align = lipgloss.Left
			}
			parts[i] = style.Width(widths[i] + 2).Align(align).PaddingRight(1).Render(cell)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(line(summaryHeader, headerStyle))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(line(row, cellStyle))
	}
	return b.String()
}

func mean(v float64, n int) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
