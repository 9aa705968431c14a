package theme

import (
	"os"

	"github.com/grovetools/daily/config"
)

// Nerd Font icons
const (
	nerdIconSuccess         = "󰄬" // md-check (U+F012C)
	nerdIconError           = "" // cod-error (U+EA87)
	nerdIconWarning         = "" // fa-warning (U+F071)
	nerdIconInfo            = "󰋼" // md-information (U+F02FC)
	nerdIconRunning         = "" // fa-refresh (U+F021)
	nerdIconPending         = "󰦖" // md-progress_clock (U+F0996)
	nerdIconArrow           = "󰁔" // md-arrow_right (U+F0054)
	nerdIconBullet          = "" // oct-dot_fill (U+F444)
	nerdIconSkill           = "󰎚" // md-note (U+F039A)
	nerdIconCommand         = "" // seti-shell (U+E691)
	nerdIconStatusCompleted = "󰄳" // md-checkbox_marked_circle (U+F0133)
	nerdIconStatusRunning   = "󰔟" // md-timer_sand (U+F051F)
	nerdIconStatusFailed    = "" // oct-x (U+F467)
	nerdIconStatusKilled    = "" // pom-external_interruption (U+E00A)
)

// ASCII fallbacks for terminals without a patched font
const (
	asciiIconSuccess         = "✓"
	asciiIconError           = "✗"
	asciiIconWarning         = "⚠"
	asciiIconInfo            = "ℹ"
	asciiIconRunning         = "◐"
	asciiIconPending         = "…"
	asciiIconArrow           = "→"
	asciiIconBullet          = "•"
	asciiIconSkill           = "▢"
	asciiIconCommand         = "▶"
	asciiIconStatusCompleted = "●"
	asciiIconStatusRunning   = "◐"
	asciiIconStatusFailed    = "✗"
	asciiIconStatusKilled    = "⊗"
)

// Public icon variables, bound to one of the sets above at startup.
var (
	IconSuccess string
	IconError   string
	IconWarning string
	IconInfo    string
	IconRunning string
	IconPending string
	IconArrow   string
	IconBullet  string
	IconSkill   string
	IconCommand string

	IconStatusCompleted string
	IconStatusRunning   string
	IconStatusFailed    string
	IconStatusKilled    string
)

func init() {
	useASCII := false

	if os.Getenv("DAILY_ICONS") == "ascii" {
		useASCII = true
	} else if cfg, err := config.LoadDefault(); err == nil && cfg.Output.Icons == "ascii" {
		useASCII = true
	}

	if useASCII {
		IconSuccess = asciiIconSuccess
		IconError = asciiIconError
		IconWarning = asciiIconWarning
		IconInfo = asciiIconInfo
		IconRunning = asciiIconRunning
		IconPending = asciiIconPending
		IconArrow = asciiIconArrow
		IconBullet = asciiIconBullet
		IconSkill = asciiIconSkill
		IconCommand = asciiIconCommand
		IconStatusCompleted = asciiIconStatusCompleted
		IconStatusRunning = asciiIconStatusRunning
		IconStatusFailed = asciiIconStatusFailed
		IconStatusKilled = asciiIconStatusKilled
	} else {
		IconSuccess = nerdIconSuccess
		IconError = nerdIconError
		IconWarning = nerdIconWarning
		IconInfo = nerdIconInfo
		IconRunning = nerdIconRunning
		IconPending = nerdIconPending
		IconArrow = nerdIconArrow
		IconBullet = nerdIconBullet
		IconSkill = nerdIconSkill
		IconCommand = nerdIconCommand
		IconStatusCompleted = nerdIconStatusCompleted
		IconStatusRunning = nerdIconStatusRunning
		IconStatusFailed = nerdIconStatusFailed
		IconStatusKilled = nerdIconStatusKilled
	}
}
