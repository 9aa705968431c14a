// Package table provides lipgloss tables pre-styled with the daily theme.
package table

import (
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/grovetools/daily/tui/theme"
)

// New creates a bordered table with the default theme: styled header row,
// subtle alternating row backgrounds. Cell content may carry its own
// styling; lipgloss measures through escape codes.
func New(headers ...string) *ltable.Table {
	t := theme.DefaultTheme

	return ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(t.Colors.Border)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return t.TableHeader.Padding(0, 1)
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row%2 == 1 {
				return base.Background(t.Colors.SubtleBackground)
			}
			return base
		}).
		Headers(headers...)
}
