// Package server exposes the archive and the job registry over a local
// HTTP dashboard: a small JSON API, a live job stream over SSE, and one
// embedded page that renders it all. The listener binds to localhost
// only; nothing here authenticates.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/logging"
	"github.com/grovetools/daily/pkg/archive"
	"github.com/grovetools/daily/pkg/jobs"
)

//go:embed index.html
var indexHTML []byte

const (
	// DefaultPort is where the port scan starts when none is requested.
	DefaultPort = 31456
	maxPortScan = 100
)

// Server serves the dashboard API and page.
type Server struct {
	cfg      *config.Config
	store    *archive.Store
	registry *jobs.Registry
	log      *logrus.Entry

	httpServer *http.Server
}

// New creates a dashboard server over the configured storage root.
func New(cfg *config.Config) (*Server, error) {
	registry, err := jobs.NewRegistry(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithRegistry(cfg, registry), nil
}

// NewWithRegistry creates a server around an existing registry. Tests
// inject one backed by a fake supervisor here.
func NewWithRegistry(cfg *config.Config, registry *jobs.Registry) *Server {
	return &Server{
		cfg:      cfg,
		store:    archive.NewStore(cfg),
		registry: registry,
		log:      logging.NewLogger("server"),
	}
}

// Listen binds the dashboard listener on host. Port 0 scans upward from
// DefaultPort until a bind succeeds; an explicit port is tried exactly
// once so a taken port surfaces as an error instead of a neighbor.
func Listen(host string, port int) (net.Listener, int, error) {
	if port != 0 {
		l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeInternal,
				fmt.Sprintf("port %d is not available", port))
		}
		return l, port, nil
	}

	for p := DefaultPort; p < DefaultPort+maxPortScan; p++ {
		l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(p)))
		if err == nil {
			return l, p, nil
		}
	}
	return nil, 0, errors.New(errors.ErrCodeInternal,
		fmt.Sprintf("no free port between %d and %d", DefaultPort, DefaultPort+maxPortScan-1))
}

// Handler returns the routing table. Split from Serve so tests can drive
// it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/dates", s.handleListDates)
	mux.HandleFunc("GET /api/dates/{date}", s.handleGetDigest)
	mux.HandleFunc("POST /api/dates/{date}/digest", s.handleQueueDigest)
	mux.HandleFunc("GET /api/dates/{date}/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/dates/{date}/sessions/{name}", s.handleGetSession)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /api/jobs/{id}/log", s.handleGetJobLog)
	mux.HandleFunc("POST /api/jobs/{id}/kill", s.handleKillJob)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("/", s.handleIndex)

	return mux
}

// Serve runs the server on l until Shutdown or a listener error.
func (s *Server) Serve(l net.Listener) error {
	s.httpServer = &http.Server{Handler: s.Handler()}
	s.log.WithField("addr", l.Addr().String()).Info("Dashboard listening")

	if err := s.httpServer.Serve(l); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.log.Info("Shutting down dashboard")
	return s.httpServer.Shutdown(ctx)
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Error: msg})
}

// statusFor maps error codes onto HTTP statuses.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeJobNotFound, errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeDateInvalid, errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeJobAlreadyFinished:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.log.WithError(err).Debug("Request failed")
	writeError(w, statusFor(err), err.Error())
}

func (s *Server) handleListDates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.store.ListDates()
	if err != nil {
		s.fail(w, err)
		return
	}

	out := make([]dateInfoDTO, len(dates))
	for i, d := range dates {
		out[i] = dateInfoDTO{Date: d.Date, SessionCount: d.SessionCount, HasDigest: d.HasDigest}
	}
	writeData(w, out)
}

func (s *Server) handleGetDigest(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")

	d, err := s.store.ReadDigest(date)
	if err != nil {
		s.fail(w, err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "no digest for "+date)
		return
	}
	writeData(w, digestToDTO(d))
}

// handleQueueDigest spawns a background digest worker for the date. A
// worker already holding the guard reports as success with its message,
// the same way the CLI treats the duplicate.
func (s *Server) handleQueueDigest(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")

	sessions, err := s.store.ReadSessions(date)
	if err != nil {
		s.fail(w, err)
		return
	}
	if len(sessions) == 0 {
		writeError(w, http.StatusNotFound, "no sessions found for "+date)
		return
	}

	job, err := s.registry.Create(jobs.CreateRequest{
		TaskName:   "digest-" + date,
		Type:       jobs.TypeManual,
		WorkerArgs: []string{"digest", "--date", date},
	})
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeJobAlreadyRunning {
			writeData(w, digestQueuedDTO{
				Message:      "Digest already in progress for " + date,
				SessionCount: len(sessions),
			})
			return
		}
		s.fail(w, err)
		return
	}

	writeData(w, digestQueuedDTO{
		Message:      fmt.Sprintf("Digest started for %s (%d sessions)", date, len(sessions)),
		SessionCount: len(sessions),
		JobID:        job.ID,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ReadSessions(r.PathValue("date"))
	if err != nil {
		s.fail(w, err)
		return
	}

	out := make([]sessionBriefDTO, len(sessions))
	for i, sf := range sessions {
		out[i] = sessionToBrief(sf)
	}
	writeData(w, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sf, err := s.store.ReadSession(r.PathValue("date"), r.PathValue("name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeData(w, sessionToDetail(sf))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.FilterRecent
	if r.URL.Query().Get("all") == "true" {
		filter = jobs.FilterAll
	}

	list, err := s.registry.List(filter)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeData(w, jobsToDTOs(list))
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.registry.Get(r.PathValue("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeData(w, jobToDTO(j))
}

func (s *Server) handleGetJobLog(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	content, err := s.registry.ReadLog(id, 0)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeData(w, jobLogDTO{ID: id, Content: content})
}

func (s *Server) handleKillJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.registry.Kill(r.PathValue("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeData(w, jobToDTO(j))
}

// handleEvents streams the recent job list as Server-Sent Events. The
// list goes out once on connect, then again whenever the jobs directory
// changes, with a ticker as fallback for filesystems without events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()
	s.log.Debug("SSE client connected")

	var events <-chan fsnotify.Event
	watcher, werr := fsnotify.NewWatcher()
	if werr == nil {
		defer watcher.Close()
		if err := watcher.Add(s.cfg.JobsDir()); err == nil {
			events = watcher.Events
		}
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var last string
	send := func() {
		list, err := s.registry.List(jobs.FilterRecent)
		if err != nil {
			return
		}
		data, err := json.Marshal(eventPayload{Type: "jobs", Jobs: jobsToDTOs(list)})
		if err != nil || string(data) == last {
			return
		}
		last = string(data)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
	send()

	for {
		select {
		case <-r.Context().Done():
			s.log.Debug("SSE client disconnected")
			return
		case <-events:
			send()
		case <-ticker.C:
			send()
		}
	}
}

// handleIndex serves the embedded page. Unknown non-API paths fall back
// to it so a bookmarked view resolves after a restart.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(indexHTML)
}
