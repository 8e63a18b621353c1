package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/wesm/mailtrends/internal/render"
	"github.com/wesm/mailtrends/internal/scheduler"
	"github.com/wesm/mailtrends/internal/stats"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// StatusResponse describes the served report and the refresh job.
type StatusResponse struct {
	Ready       bool              `json:"ready"`
	GeneratedAt time.Time         `json:"generated_at,omitzero"`
	RangeStart  time.Time         `json:"range_start,omitzero"`
	RangeEnd    time.Time         `json:"range_end,omitzero"`
	Messages    int               `json:"messages"`
	Threads     int               `json:"threads"`
	Skipped     int               `json:"skipped"`
	Refresh     *scheduler.Status `json:"refresh,omitempty"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Ready: s.Result() != nil})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var resp StatusResponse
	if res := s.Result(); res != nil {
		resp = StatusResponse{
			Ready:       true,
			GeneratedAt: res.GeneratedAt,
			RangeStart:  res.Range.Start,
			RangeEnd:    res.Range.End,
			Messages:    res.Corpus.Len(),
			Threads:     len(res.Threads),
			Skipped:     res.Skipped,
		}
	}
	if s.refresher != nil {
		st := s.refresher.Status()
		resp.Refresh = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

// serveReport renders the current report into a buffer so a render failure
// still produces a clean error response.
func (s *Server) serveReport(w http.ResponseWriter, contentType string, write func(io.Writer, stats.Node) error) {
	res := s.Result()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "not_ready", "The first report is still being generated")
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, res.Root); err != nil {
		s.logger.Error("failed to render report", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to render report")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Last-Modified", res.GeneratedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, "text/html; charset=utf-8", render.HTML)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, "application/json", render.JSON)
}

// handleText serves the plain terminal report. ?width= sets the line width.
func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	opts := render.TextOptions{}
	if v := r.URL.Query().Get("width"); v != "" {
		width, err := strconv.Atoi(v)
		if err != nil || width < 40 || width > 500 {
			writeError(w, http.StatusBadRequest, "invalid_width", "width must be an integer between 40 and 500")
			return
		}
		opts.Width = width
	}
	s.serveReport(w, "text/plain; charset=utf-8", func(w io.Writer, root stats.Node) error {
		return render.Text(w, root, opts)
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh_unavailable", "Refresh is not configured")
		return
	}

	err := s.refresher.Trigger()
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	case errors.Is(err, scheduler.ErrRunning):
		writeError(w, http.StatusConflict, "refresh_running", "A refresh is already running")
	case errors.Is(err, scheduler.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, "shutting_down", "The server is shutting down")
	default:
		s.logger.Error("failed to trigger refresh", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to start refresh")
	}
}
