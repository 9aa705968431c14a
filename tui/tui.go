package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// InitializeTUI prepares the terminal environment for TUI surfaces.
// When the environment forces color output (`CLICOLOR_FORCE`,
// `COLORTERM=truecolor`) the lipgloss color profile is raised to match,
// so the monitor renders identically under CI capture and real
// terminals. It has no effect when those variables are unset.
//
// Call it at the start of any command that renders a TUI.
func InitializeTUI() {
	if os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor" {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}
