package jobs

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hpcloud/tail"

	"github.com/grovetools/daily/errors"
)

// MaxLogSize is the point past which logs are cut down to their recent half.
const MaxLogSize = 1024 * 1024

// ReadLog returns a job's log content. Oversized logs are truncated for
// display to their most recent half; tailLines > 0 further restricts the
// result to the last N lines. A job with no output yet reads as empty.
func (r *Registry) ReadLog(id string, tailLines int) (string, error) {
	if _, err := r.Get(id); err != nil {
		return "", err
	}

	path := r.LogPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.StorageIO("read", path, err)
	}

	content := string(data)
	if len(content) > MaxLogSize {
		content = truncateKeepRecent(content)
	}

	if tailLines > 0 {
		lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
		if len(lines) > tailLines {
			lines = lines[len(lines)-tailLines:]
		}
		content = strings.Join(lines, "\n")
	}

	return content, nil
}

// TruncateLogIfNeeded rewrites an oversized log file in place, keeping the
// recent half. Workers call this once their run is over.
func (r *Registry) TruncateLogIfNeeded(id string) error {
	path := r.LogPath(id)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.StorageIO("stat", path, err)
	}
	if info.Size() <= MaxLogSize {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.StorageIO("read", path, err)
	}

	if err := os.WriteFile(path, []byte(truncateKeepRecent(string(data))), 0644); err != nil {
		return errors.StorageIO("write", path, err)
	}

	r.log.WithField("job", id).Debug("Truncated oversized job log")
	return nil
}

func truncateKeepRecent(content string) string {
	lines := strings.Split(content, "\n")
	kept := lines[len(lines)/2:]
	return fmt.Sprintf("[... log truncated, showing last %d lines ...]\n%s",
		len(kept), strings.Join(kept, "\n"))
}

// Follow streams a job's log to w from the beginning, continuing as the
// worker appends, and returns once the job reaches a terminal status and the
// log is drained. Completion is noticed through fsnotify on the jobs
// directory, with a ticker as fallback for filesystems without events.
func (r *Registry) Follow(ctx context.Context, id string, w io.Writer) error {
	if _, err := r.Get(id); err != nil {
		return err
	}

	t, err := tail.TailFile(r.LogPath(id), tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekStart},
		Logger:   stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		return errors.StorageIO("tail", r.LogPath(id), err)
	}
	defer t.Cleanup()

	var events <-chan fsnotify.Event
	watcher, werr := fsnotify.NewWatcher()
	if werr == nil {
		defer watcher.Close()
		if err := watcher.Add(r.dir); err == nil {
			events = watcher.Events
		}
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	stopping := false
	checkDone := func() {
		if stopping {
			return
		}
		j, err := r.Get(id)
		if err != nil || j.Status.IsTerminal() {
			stopping = true
			t.StopAtEOF()
		}
	}
	checkDone()

	for {
		select {
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				continue
			}
			fmt.Fprintln(w, line.Text)
		case <-events:
			checkDone()
		case <-ticker.C:
			checkDone()
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}
