package archive

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/logging"
	"github.com/grovetools/daily/util/frontmatter"
)

// Store is the archive root handle. Methods take dates as YYYY-MM-DD
// strings and validate them before touching the filesystem, so a stray
// name like "jobs" can never be read or written as a date folder.
type Store struct {
	cfg *config.Config
	log *logrus.Entry
}

// SessionFile is one archived session as found on disk.
type SessionFile struct {
	Name    string
	Path    string
	Meta    frontmatter.DocMetadata
	Content string
}

// DateInfo summarizes one date folder for listings.
type DateInfo struct {
	Date         string
	SessionCount int
	HasDigest    bool
}

// NewStore creates a store over the configured archive root.
func NewStore(cfg *config.Config) *Store {
	return &Store{
		cfg: cfg,
		log: logging.NewLogger("archive"),
	}
}

// ValidateDate checks the YYYY-MM-DD form.
func ValidateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return errors.DateInvalid(date)
	}
	return nil
}

func validateSessionName(name string) error {
	if name == "" || name == "daily" {
		return errors.New(errors.ErrCodeInvalidInput, "invalid session name").
			WithDetail("name", name)
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return errors.New(errors.ErrCodeInvalidInput, "session name must not contain path separators").
			WithDetail("name", name)
	}
	return nil
}

// SessionPath returns where a session archive lives for a date.
func (s *Store) SessionPath(date, name string) string {
	return filepath.Join(s.cfg.DateDir(date), name+".md")
}

// DigestPath returns where the daily digest lives for a date.
func (s *Store) DigestPath(date string) string {
	return filepath.Join(s.cfg.DateDir(date), "daily.md")
}

func (s *Store) ensureDateDir(date string) (string, error) {
	dir := s.cfg.DateDir(date)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.StorageIO("create", dir, err)
	}
	return dir, nil
}

// atomicWrite lands content at path via a temp file in the same directory
// and a rename.
func atomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return errors.StorageIO("create", dir, err)
	}

	successful := false
	defer func() {
		if !successful {
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return errors.StorageIO("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return errors.StorageIO("write", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.StorageIO("rename", path, err)
	}

	successful = true
	return nil
}

// WriteSession archives a session under its date, replacing any previous
// file with the same name. Last write wins for duplicate names.
func (s *Store) WriteSession(date, name string, sess *Session) (string, error) {
	if err := ValidateDate(date); err != nil {
		return "", err
	}
	if err := validateSessionName(name); err != nil {
		return "", err
	}
	if _, err := s.ensureDateDir(date); err != nil {
		return "", err
	}

	path := s.SessionPath(date, name)
	if err := atomicWrite(path, []byte(sess.Markdown())); err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"date":    date,
		"session": name,
	}).Debug("Archived session")

	return path, nil
}

// ReadSessions returns all session files for a date, sorted by name. The
// digest file does not count as a session. A date with no folder reads as
// empty, not as an error.
func (s *Store) ReadSessions(date string) ([]*SessionFile, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	dir := s.cfg.DateDir(date)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.StorageIO("read", dir, err)
	}

	var sessions []*SessionFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		stem := strings.TrimSuffix(name, ".md")
		if stem == "daily" {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.StorageIO("read", path, err)
		}

		meta, err := frontmatter.ParseString(string(data))
		if err != nil {
			s.log.WithError(err).WithField("path", path).Warn("Skipping session with unreadable frontmatter")
			meta = frontmatter.DocMetadata{}
		}

		sessions = append(sessions, &SessionFile{
			Name:    stem,
			Path:    path,
			Meta:    meta,
			Content: string(data),
		})
	}

	sort.Slice(sessions, func(a, b int) bool {
		return sessions[a].Name < sessions[b].Name
	})

	return sessions, nil
}

// ReadSession returns one archived session by name.
func (s *Store) ReadSession(date, name string) (*SessionFile, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}
	if err := validateSessionName(name); err != nil {
		return nil, err
	}

	path := s.SessionPath(date, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.SessionNotFound(date, name)
		}
		return nil, errors.StorageIO("read", path, err)
	}

	meta, err := frontmatter.ParseString(string(data))
	if err != nil {
		meta = frontmatter.DocMetadata{}
	}

	return &SessionFile{
		Name:    name,
		Path:    path,
		Meta:    meta,
		Content: string(data),
	}, nil
}

// WriteDigest atomically creates or replaces the digest for a date.
func (s *Store) WriteDigest(date string, d *Digest) (string, error) {
	if err := ValidateDate(date); err != nil {
		return "", err
	}
	if _, err := s.ensureDateDir(date); err != nil {
		return "", err
	}

	path := s.DigestPath(date)
	if err := atomicWrite(path, []byte(d.Markdown())); err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"date":     date,
		"sessions": len(d.Sessions),
	}).Debug("Wrote daily digest")

	return path, nil
}

// ReadDigest loads the digest for a date, or nil when none exists yet.
func (s *Store) ReadDigest(date string) (*Digest, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	path := s.DigestPath(date)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.StorageIO("read", path, err)
	}

	d, err := ParseDigest(string(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageIO, "failed to parse digest").
			WithDetail("path", path)
	}
	return d, nil
}

// RemoveSessions deletes the named session files for a date and reports
// which were actually removed. Already-missing files are tolerated: the
// crash-recovery path re-runs deletions that may have partially happened.
func (s *Store) RemoveSessions(date string, names []string) ([]string, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	var removed []string
	for _, name := range names {
		if err := validateSessionName(name); err != nil {
			return removed, err
		}

		path := s.SessionPath(date, name)
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, errors.StorageIO("remove", path, err)
		}
		removed = append(removed, name)
	}

	return removed, nil
}

// ListDates scans the storage root for date folders, newest first. Folders
// whose names do not parse as dates (jobs, logs, pending-skills) are
// skipped, as are dates with neither sessions nor a digest.
func (s *Store) ListDates() ([]DateInfo, error) {
	root := s.cfg.StoragePath()
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.StorageIO("read", root, err)
	}

	var dates []DateInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		date := entry.Name()
		if ValidateDate(date) != nil {
			continue
		}

		sessions, err := s.ReadSessions(date)
		if err != nil {
			return nil, err
		}

		hasDigest := false
		if _, err := os.Stat(s.DigestPath(date)); err == nil {
			hasDigest = true
		}

		if len(sessions) == 0 && !hasDigest {
			continue
		}

		dates = append(dates, DateInfo{
			Date:         date,
			SessionCount: len(sessions),
			HasDigest:    hasDigest,
		})
	}

	sort.Slice(dates, func(a, b int) bool {
		return dates[a].Date > dates[b].Date
	})

	return dates, nil
}
