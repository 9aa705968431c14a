// Package profiling times the slow paths. The span timer builds a call
// hierarchy printed on exit when --timing is set; in this tool nearly all
// wall time sits in model calls, so the summary mostly answers "which
// prompt took how long".
package profiling

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stopper ends a timed span.
type Stopper interface {
	Stop()
}

// span is one timed operation in the hierarchy.
type span struct {
	name     string
	start    time.Time
	duration time.Duration
	children []*span
	mu       sync.Mutex
	profiler *Profiler
}

// Stop completes the timing for this span.
func (s *span) Stop() {
	s.duration = time.Since(s.start)
	s.profiler.endSpan(s)
}

// Profiler manages one profiling session of nested timing spans.
type Profiler struct {
	enabled   bool
	mu        sync.Mutex
	root      *span
	spanStack []*span
}

var defaultProfiler = &Profiler{}

// Enable turns on the global profiler.
func Enable() {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()

	if defaultProfiler.enabled {
		return
	}

	defaultProfiler.enabled = true
	defaultProfiler.root = &span{name: "root", start: time.Now(), profiler: defaultProfiler}
	defaultProfiler.spanStack = []*span{defaultProfiler.root}
}

// Start begins a named span. The returned Stopper must end it, typically
// via defer. When profiling is off this costs one branch.
func Start(name string) Stopper {
	if !defaultProfiler.enabled {
		return noopStopper{}
	}
	return defaultProfiler.startSpan(name)
}

// Summarize prints the hierarchical timing summary to w.
func Summarize(w io.Writer) {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()

	if !defaultProfiler.enabled || defaultProfiler.root == nil {
		return
	}

	if defaultProfiler.root.duration == 0 {
		defaultProfiler.root.duration = time.Since(defaultProfiler.root.start)
	}

	fmt.Fprintln(w, "\n--- Timing Profile ---")
	printSpan(w, defaultProfiler.root, 0, defaultProfiler.root.duration)
	fmt.Fprintln(w, "--------------------")
}

func (p *Profiler) startSpan(name string) Stopper {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return noopStopper{}
	}

	parent := p.spanStack[len(p.spanStack)-1]
	newSpan := &span{name: name, start: time.Now(), profiler: p}

	parent.mu.Lock()
	parent.children = append(parent.children, newSpan)
	parent.mu.Unlock()

	p.spanStack = append(p.spanStack, newSpan)
	return newSpan
}

func (p *Profiler) endSpan(s *span) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled || len(p.spanStack) <= 1 {
		return
	}

	p.spanStack = p.spanStack[:len(p.spanStack)-1]
}

// printSpan prints the span tree, skipping the synthetic root.
func printSpan(w io.Writer, s *span, depth int, totalDuration time.Duration) {
	indent := strings.Repeat("  ", depth)
	percentage := 0.0
	if totalDuration > 0 {
		percentage = (float64(s.duration) / float64(totalDuration)) * 100
	}

	if s.name != "root" {
		fmt.Fprintf(w, "%s- %s (%v, %.1f%%)\n", indent, s.name, s.duration.Round(time.Microsecond*100), percentage)
	}

	// Children print in call order.
	sort.Slice(s.children, func(i, j int) bool {
		return s.children[i].start.Before(s.children[j].start)
	})

	for _, child := range s.children {
		printSpan(w, child, depth+1, totalDuration)
	}
}

// noopStopper is returned while the profiler is disabled.
type noopStopper struct{}

func (s noopStopper) Stop() {}
