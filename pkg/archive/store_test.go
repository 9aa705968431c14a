package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DAILY_CONFIG", "")
	t.Setenv("CLAUDE_CONFIG_DIR", "")

	cfg := &config.Config{}
	cfg.Storage.Path = t.TempDir()
	cfg.SetDefaults()
	return NewStore(cfg)
}

func writeTestSession(t *testing.T, s *Store, date, name string) {
	t.Helper()
	sess := NewSession(name, date, "sid-"+name, "/tmp/project")
	sess.Summary = "Work on " + name + "."
	_, err := s.WriteSession(date, name, sess)
	require.NoError(t, err)
}

func TestWriteAndReadSessions(t *testing.T) {
	s := newTestStore(t)

	writeTestSession(t, s, "2026-01-16", "beta-task")
	writeTestSession(t, s, "2026-01-16", "alpha-task")

	// The digest file never counts as a session.
	_, err := s.WriteDigest("2026-01-16", NewDigest("2026-01-16"))
	require.NoError(t, err)

	sessions, err := s.ReadSessions("2026-01-16")
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, "alpha-task", sessions[0].Name)
	assert.Equal(t, "beta-task", sessions[1].Name)
	assert.Equal(t, "alpha-task", sessions[0].Meta.Title)
	assert.Contains(t, sessions[0].Content, "## Summary")
}

func TestWriteSessionOverwrites(t *testing.T) {
	s := newTestStore(t)

	first := NewSession("same-name", "2026-01-16", "sid1", "/tmp")
	first.Summary = "First pass."
	_, err := s.WriteSession("2026-01-16", "same-name", first)
	require.NoError(t, err)

	second := NewSession("same-name", "2026-01-16", "sid2", "/tmp")
	second.Summary = "Second pass."
	_, err = s.WriteSession("2026-01-16", "same-name", second)
	require.NoError(t, err)

	got, err := s.ReadSession("2026-01-16", "same-name")
	require.NoError(t, err)
	assert.Contains(t, got.Content, "Second pass.")
	assert.NotContains(t, got.Content, "First pass.")
}

func TestWriteSessionValidation(t *testing.T) {
	s := newTestStore(t)
	sess := NewSession("x", "2026-01-16", "sid", "/tmp")

	_, err := s.WriteSession("not-a-date", "x", sess)
	assert.Equal(t, errors.ErrCodeDateInvalid, errors.GetCode(err))

	_, err = s.WriteSession("2026-02-30", "x", sess)
	assert.Equal(t, errors.ErrCodeDateInvalid, errors.GetCode(err))

	_, err = s.WriteSession("2026-01-16", "daily", sess)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))

	_, err = s.WriteSession("2026-01-16", "../escape", sess)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestReadSessionsMissingDate(t *testing.T) {
	s := newTestStore(t)

	sessions, err := s.ReadSessions("2026-01-16")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestReadSessionNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ReadSession("2026-01-16", "nothing-here")
	assert.Equal(t, errors.ErrCodeSessionNotFound, errors.GetCode(err))
}

func TestWriteAndReadDigest(t *testing.T) {
	s := newTestStore(t)

	// Absent digest reads as nil, not an error.
	d, err := s.ReadDigest("2026-01-16")
	require.NoError(t, err)
	assert.Nil(t, d)

	digest := NewDigest("2026-01-16")
	digest.DigestedAt = time.Now()
	digest.AddSessions([]string{"task-a", "task-b"})
	digest.Overview = "Busy day."

	path, err := s.WriteDigest("2026-01-16", digest)
	require.NoError(t, err)
	assert.Equal(t, s.DigestPath("2026-01-16"), path)

	loaded, err := s.ReadDigest("2026-01-16")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []string{"task-a", "task-b"}, loaded.Sessions)
	assert.Equal(t, "Busy day.", loaded.Overview)
}

func TestRemoveSessions(t *testing.T) {
	s := newTestStore(t)

	writeTestSession(t, s, "2026-01-16", "keep-me")
	writeTestSession(t, s, "2026-01-16", "remove-me")

	removed, err := s.RemoveSessions("2026-01-16", []string{"remove-me", "never-existed"})
	require.NoError(t, err)
	assert.Equal(t, []string{"remove-me"}, removed)

	sessions, err := s.ReadSessions("2026-01-16")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "keep-me", sessions[0].Name)
}

func TestListDates(t *testing.T) {
	s := newTestStore(t)

	writeTestSession(t, s, "2026-01-14", "old-task")
	writeTestSession(t, s, "2026-01-16", "task-a")
	writeTestSession(t, s, "2026-01-16", "task-b")

	// Digest-only date: everything consolidated, sessions removed.
	_, err := s.WriteDigest("2026-01-15", NewDigest("2026-01-15"))
	require.NoError(t, err)

	// Infrastructure directories and empty date folders never list.
	require.NoError(t, os.MkdirAll(filepath.Join(s.cfg.StoragePath(), "jobs"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(s.cfg.StoragePath(), "2026-01-10"), 0755))

	dates, err := s.ListDates()
	require.NoError(t, err)
	require.Len(t, dates, 3)

	assert.Equal(t, "2026-01-16", dates[0].Date)
	assert.Equal(t, 2, dates[0].SessionCount)
	assert.False(t, dates[0].HasDigest)

	assert.Equal(t, "2026-01-15", dates[1].Date)
	assert.Equal(t, 0, dates[1].SessionCount)
	assert.True(t, dates[1].HasDigest)

	assert.Equal(t, "2026-01-14", dates[2].Date)
	assert.Equal(t, 1, dates[2].SessionCount)
}

func TestAtomicWritesLeaveNoTempFiles(t *testing.T) {
	s := newTestStore(t)

	writeTestSession(t, s, "2026-01-16", "tidy-task")
	_, err := s.WriteDigest("2026-01-16", NewDigest("2026-01-16"))
	require.NoError(t, err)

	entries, err := os.ReadDir(s.cfg.DateDir("2026-01-16"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}
