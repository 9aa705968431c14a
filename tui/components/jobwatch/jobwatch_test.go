package jobwatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/daily/pkg/jobs"
	"github.com/grovetools/daily/tui/theme"
)

type fakeRegistry struct {
	jobs   []*jobs.Job
	logDir string
}

func (f *fakeRegistry) List(_ jobs.Filter) ([]*jobs.Job, error) {
	return f.jobs, nil
}

func (f *fakeRegistry) LogPath(id string) string {
	return filepath.Join(f.logDir, id+".log")
}

func newTestModel(t *testing.T, list []*jobs.Job) (Model, *fakeRegistry) {
	t.Helper()
	reg := &fakeRegistry{jobs: list, logDir: t.TempDir()}
	for _, j := range list {
		require.NoError(t, os.WriteFile(reg.LogPath(j.ID), []byte("started\n"), 0644))
	}

	m := New(reg)
	m = update(m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = update(m, jobsMsg{jobs: list})
	return m, reg
}

// update drives one message through the model, unwrapping the tea.Model
// return for further assertions.
func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func sampleJobs() []*jobs.Job {
	now := time.Now()
	return []*jobs.Job{
		{ID: "20260116-093000-fix-login", TaskName: "fix-login", Status: jobs.StatusRunning, StartedAt: now},
		{ID: "20260116-081500-api-review", TaskName: "api-review", Status: jobs.StatusCompleted, StartedAt: now.Add(-time.Hour)},
	}
}

func TestViewShowsPlaceholderWithoutJobs(t *testing.T) {
	m, _ := newTestModel(t, nil)
	defer m.stopTail()

	view := m.View()
	assert.Contains(t, view, "No jobs yet")
	assert.Contains(t, view, "0 running")
}

func TestViewListsJobs(t *testing.T) {
	m, _ := newTestModel(t, sampleJobs())
	defer m.stopTail()

	view := m.View()
	assert.Contains(t, view, "fix-login")
	assert.Contains(t, view, "api-review")
	assert.Contains(t, view, "1 running, 2 recent")
}

func TestSelectionMovesAndClamps(t *testing.T) {
	m, _ := newTestModel(t, sampleJobs())
	defer m.stopTail()

	assert.Equal(t, 0, m.selected)
	assert.Equal(t, "20260116-093000-fix-login", m.tailing)

	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.selected)
	assert.Equal(t, "20260116-081500-api-review", m.tailing)

	// Already at the bottom.
	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.selected)

	m = update(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.selected)
}

func TestSelectionSurvivesShrinkingList(t *testing.T) {
	m, _ := newTestModel(t, sampleJobs())
	defer m.stopTail()

	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 1, m.selected)

	m = update(m, jobsMsg{jobs: sampleJobs()[:1]})
	assert.Equal(t, 0, m.selected)

	m = update(m, jobsMsg{jobs: nil})
	assert.Equal(t, 0, m.selected)
	assert.Equal(t, "", m.tailing)
}

func TestFollowToggle(t *testing.T) {
	m, _ := newTestModel(t, sampleJobs())
	defer m.stopTail()

	assert.True(t, m.follow)
	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	assert.False(t, m.follow)
	assert.Contains(t, m.View(), "follow (off)")
}

func TestStatusGlyphDistinguishesKilled(t *testing.T) {
	th := theme.NewThemeWithName("terminal")

	failed := &jobs.Job{Status: jobs.StatusFailed, Error: "summarizer exited 1"}
	killed := &jobs.Job{Status: jobs.StatusFailed, Error: "killed"}
	running := &jobs.Job{Status: jobs.StatusRunning}

	assert.Contains(t, statusGlyph(th, running), theme.IconStatusRunning)
	assert.Contains(t, statusGlyph(th, failed), theme.IconStatusFailed)
	assert.Contains(t, statusGlyph(th, killed), theme.IconStatusKilled)
}

func TestListHeight(t *testing.T) {
	m := Model{}
	assert.Equal(t, 2, m.listHeight(), "placeholder row plus header")

	m.jobs = sampleJobs()
	assert.Equal(t, 3, m.listHeight())

	for i := 0; i < 20; i++ {
		m.jobs = append(m.jobs, &jobs.Job{})
	}
	assert.Equal(t, maxListRows+1, m.listHeight())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly-ten", truncate("exactly-ten", 11))
	assert.Equal(t, "a-very-...", truncate("a-very-long-task-name", 10))
	assert.Equal(t, "ab", truncate("abcd", 2))
}
