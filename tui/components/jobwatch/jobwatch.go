// Package jobwatch implements the live jobs monitor: a selectable job
// list above a viewport tailing the selected job's log.
package jobwatch

import (
	"fmt"
	"io"
	stdlog "log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hpcloud/tail"

	"github.com/grovetools/daily/pkg/jobs"
	"github.com/grovetools/daily/tui/theme"
)

const (
	refreshInterval = 2 * time.Second
	maxListRows     = 8
)

// Registry is the slice of the job registry the monitor needs.
type Registry interface {
	List(filter jobs.Filter) ([]*jobs.Job, error)
	LogPath(id string) string
}

type jobsMsg struct {
	jobs []*jobs.Job
	err  error
}

type logLineMsg string

type refreshMsg time.Time

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Follow key.Binding
	Top    key.Binding
	Bottom key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Follow: key.NewBinding(key.WithKeys("f")),
	Top:    key.NewBinding(key.WithKeys("g")),
	Bottom: key.NewBinding(key.WithKeys("G")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
}

// Model is the bubbletea model for `daily jobs watch`.
type Model struct {
	registry Registry
	theme    *theme.Theme

	jobs     []*jobs.Job
	selected int
	err      error

	tailing  string // job ID whose log feeds the viewport
	tail     *tail.Tail
	logCh    chan string
	lines    []string
	viewport viewport.Model
	follow   bool
	ready    bool
	width    int
	height   int
}

// New creates a monitor over the given registry.
func New(registry Registry) Model {
	return Model{
		registry: registry,
		theme:    theme.DefaultTheme,
		follow:   true,
		logCh:    make(chan string, 100),
	}
}

// Init starts the first load and the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadJobs, scheduleRefresh())
}

func (m Model) loadJobs() tea.Msg {
	list, err := m.registry.List(jobs.FilterRecent)
	return jobsMsg{jobs: list, err: err}
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m *Model) waitForLogLine() tea.Cmd {
	ch := m.logCh
	return func() tea.Msg { return logLineMsg(<-ch) }
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, m.logHeight())
			m.ready = true
		}
		m.resize()
		m.setWrappedContent()

	case jobsMsg:
		m.err = msg.err
		if msg.err == nil {
			m.jobs = msg.jobs
			if m.selected >= len(m.jobs) {
				m.selected = len(m.jobs) - 1
			}
			if m.selected < 0 {
				m.selected = 0
			}
			m.resize()
			cmds = append(cmds, m.retargetTail())
		}

	case refreshMsg:
		cmds = append(cmds, m.loadJobs, scheduleRefresh())

	case logLineMsg:
		m.lines = append(m.lines, string(msg))
		m.setWrappedContent()
		if m.follow {
			m.viewport.GotoBottom()
		}
		cmds = append(cmds, m.waitForLogLine())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.stopTail()
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.selected > 0 {
				m.selected--
				cmds = append(cmds, m.retargetTail())
			}
		case key.Matches(msg, keys.Down):
			if m.selected < len(m.jobs)-1 {
				m.selected++
				cmds = append(cmds, m.retargetTail())
			}
		case key.Matches(msg, keys.Follow):
			m.follow = !m.follow
			if m.follow {
				m.viewport.GotoBottom()
			}
		case key.Matches(msg, keys.Top):
			m.follow = false
			m.viewport.GotoTop()
		case key.Matches(msg, keys.Bottom):
			m.viewport.GotoBottom()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// retargetTail points the log tail at the selected job. No-op when the
// selection did not change.
func (m *Model) retargetTail() tea.Cmd {
	if len(m.jobs) == 0 {
		m.stopTail()
		m.tailing = ""
		m.lines = nil
		m.setWrappedContent()
		return nil
	}

	job := m.jobs[m.selected]
	if job.ID == m.tailing {
		return nil
	}

	m.stopTail()
	m.tailing = job.ID
	m.lines = nil
	m.setWrappedContent()

	path := job.LogPath
	if path == "" {
		path = m.registry.LogPath(job.ID)
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekStart},
		Logger:   stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		m.lines = []string{m.theme.Muted.Render("(log not available yet)")}
		m.setWrappedContent()
		return nil
	}
	m.tail = t

	ch := m.logCh
	go func(t *tail.Tail) {
		for line := range t.Lines {
			ch <- line.Text
		}
	}(t)

	return m.waitForLogLine()
}

func (m *Model) stopTail() {
	if m.tail != nil {
		m.tail.Stop()
		m.tail = nil
	}
}

// listHeight is the rows the job list occupies, including its header.
func (m Model) listHeight() int {
	rows := len(m.jobs)
	if rows > maxListRows {
		rows = maxListRows
	}
	if rows == 0 {
		rows = 1 // placeholder line
	}
	return rows + 1
}

// logHeight is what remains for the viewport after list, rule, footer.
func (m Model) logHeight() int {
	h := m.height - m.listHeight() - 2
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) resize() {
	if !m.ready {
		return
	}
	m.viewport.Width = m.width
	m.viewport.Height = m.logHeight()
}

// setWrappedContent wraps lines to the viewport width less one column
// reserved for the scrollbar.
func (m *Model) setWrappedContent() {
	if !m.ready {
		return
	}

	wrapWidth := m.viewport.Width - 1
	if wrapWidth < 1 {
		wrapWidth = 1
	}

	var wrapped []string
	for _, line := range m.lines {
		for len(line) > wrapWidth {
			wrapped = append(wrapped, line[:wrapWidth])
			line = line[wrapWidth:]
		}
		wrapped = append(wrapped, line)
	}

	m.viewport.SetContent(strings.Join(wrapped, "\n"))
}

// View renders the monitor.
func (m Model) View() string {
	if !m.ready {
		return "Starting jobs monitor..."
	}

	var b strings.Builder
	b.WriteString(m.renderJobList())
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render(strings.Repeat("─", maxInt(m.width, 1))))
	b.WriteString("\n")
	b.WriteString(m.renderLog())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderJobList() string {
	running := 0
	for _, j := range m.jobs {
		if j.Status == jobs.StatusRunning {
			running++
		}
	}

	var b strings.Builder
	b.WriteString(m.theme.Accent.Render("Background Jobs"))
	b.WriteString(m.theme.Muted.Render(fmt.Sprintf("  %d running, %d recent", running, len(m.jobs))))
	if m.err != nil {
		b.WriteString("  ")
		b.WriteString(m.theme.Error.Render(m.err.Error()))
	}

	if len(m.jobs) == 0 {
		b.WriteString("\n")
		b.WriteString(m.theme.Muted.Render("  No jobs yet. They appear here as sessions end."))
		return b.String()
	}

	// Keep the selection visible inside the capped window.
	start := 0
	if m.selected >= maxListRows {
		start = m.selected - maxListRows + 1
	}
	end := start + maxListRows
	if end > len(m.jobs) {
		end = len(m.jobs)
	}

	for i := start; i < end; i++ {
		j := m.jobs[i]
		marker := "  "
		if i == m.selected {
			marker = m.theme.Highlight.Render("▸ ")
		}
		row := fmt.Sprintf("%s %-28s %-12s %-20s %s",
			statusGlyph(m.theme, j),
			truncate(j.ID, 28),
			j.Status.Display(),
			truncate(j.TaskName, 20),
			j.ElapsedHuman())
		if i == m.selected {
			row = m.theme.SelectedRow.Render(row)
		}
		b.WriteString("\n")
		b.WriteString(marker)
		b.WriteString(row)
	}
	return b.String()
}

func (m Model) renderLog() string {
	rows := strings.Split(m.viewport.View(), "\n")
	bar := m.scrollbar(len(rows))
	for i := range rows {
		ch := " "
		if i < len(bar) {
			ch = bar[i]
		}
		rows[i] += ch
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderFooter() string {
	follow := "off"
	if m.follow {
		follow = "on"
	}
	return m.theme.Muted.Render(fmt.Sprintf(
		" ↑/↓ select · f follow (%s) · g/G top/bottom · q quit", follow))
}

// scrollbar renders a one-column thumb for the viewport position.
func (m Model) scrollbar(height int) []string {
	if height <= 0 {
		return nil
	}

	bar := make([]string, height)
	total := m.viewport.TotalLineCount()
	if total <= m.viewport.Height {
		for i := range bar {
			bar[i] = m.theme.Muted.Render(" ")
		}
		return bar
	}

	thumb := (height * m.viewport.Height) / total
	if thumb < 1 {
		thumb = 1
	}
	start := int(float64(height-thumb)*m.viewport.ScrollPercent() + 0.5)
	if start < 0 {
		start = 0
	}
	if start > height-thumb {
		start = height - thumb
	}

	for i := range bar {
		if i >= start && i < start+thumb {
			bar[i] = m.theme.Muted.Render("█")
		} else {
			bar[i] = m.theme.Muted.Render("░")
		}
	}
	return bar
}

// statusGlyph maps a job to its status icon, styled. Killed jobs are
// failed records with the kill reason, shown distinctly.
func statusGlyph(t *theme.Theme, j *jobs.Job) string {
	switch j.Status {
	case jobs.StatusRunning:
		return t.Info.Render(theme.IconStatusRunning)
	case jobs.StatusCompleted:
		return t.Success.Render(theme.IconStatusCompleted)
	case jobs.StatusFailed:
		if j.Error == "killed" {
			return t.Warning.Render(theme.IconStatusKilled)
		}
		return t.Error.Render(theme.IconStatusFailed)
	default:
		return t.Muted.Render(theme.IconPending)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
