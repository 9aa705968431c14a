package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/grovetools/daily/tui/theme"
)

// Spinner renders a single-line progress indicator for foreground operations
// that block on a subprocess. The animation only runs when stderr is a
// terminal, so piped and hook invocations never see control codes.
type Spinner struct {
	frames   []string
	interval time.Duration
	w        io.Writer
	label    string
	start    time.Time
	stopCh   chan struct{}
	done     chan struct{}
	mu       sync.Mutex
	running  bool
	animate  bool
}

// NewSpinner creates a spinner writing to stderr.
func NewSpinner(label string) *Spinner {
	return &Spinner{
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		interval: 120 * time.Millisecond,
		w:        os.Stderr,
		label:    label,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		animate:  isatty.IsTerminal(os.Stderr.Fd()),
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.start = time.Now()
	s.mu.Unlock()

	if !s.animate {
		close(s.done)
		return
	}

	go func() {
		frame := 0
		for {
			select {
			case <-s.stopCh:
				close(s.done)
				return
			default:
				elapsed := time.Since(s.start).Round(time.Second)
				fmt.Fprintf(s.w, "\r%s %s [%s]", s.frames[frame%len(s.frames)], s.label, elapsed)
				frame++
				time.Sleep(s.interval)
			}
		}
	}()
}

// Stop halts the spinner and prints a final status line with the elapsed time.
func (s *Spinner) Stop(success bool, result string) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	if s.animate {
		close(s.stopCh)
	}
	<-s.done

	icon := theme.IconSuccess
	if !success {
		icon = theme.IconError
	}
	elapsed := time.Since(s.start).Round(time.Second)

	if s.animate {
		fmt.Fprint(s.w, "\r\033[K")
	}
	fmt.Fprintf(s.w, "%s %s %s (%s)\n", icon, s.label, result, elapsed)
}
