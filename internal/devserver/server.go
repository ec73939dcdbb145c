// Package devserver is a local stand-in for the video bookmark backend. It serves the
// same JSON API, stores videos in SQLite or Postgres, and simulates transcription jobs.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/koji0214/summaryoutube/internal/model"
	"github.com/koji0214/summaryoutube/internal/statusutil"
)

type Options struct {
	// Extractor defaults to StaticExtractor.
	Extractor       Extractor
	TranscribeDelay time.Duration
	Logger          *slog.Logger
	// Registry receives the server's metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

type Server struct {
	store   *Store
	extract Extractor
	jobs    *transcriber
	log     *slog.Logger
	metrics *metrics
}

func New(store *Store, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ex := opts.Extractor
	if ex == nil {
		ex = StaticExtractor{}
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := newMetrics(reg)
	return &Server{
		store:   store,
		extract: ex,
		jobs:    newTranscriber(store, opts.TranscribeDelay, log, m),
		log:     log,
		metrics: m,
	}
}

// Close stops running transcription jobs. It does not close the store.
func (s *Server) Close() {
	s.jobs.close()
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("dev server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// ShiftPath splits off the first component of p. head never contains a slash and
// tail is always rooted without a trailing slash.
func ShiftPath(p string) (head, tail string) {
	p = path.Clean("/" + p)
	i := strings.Index(p[1:], "/") + 1
	if i <= 0 {
		return p[1:], "/"
	}
	return p[1:i], p[i:]
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
	route := s.route(rec, r)
	s.metrics.observe(r.Method, route, rec.code)
	s.log.Info("request served", "method", r.Method, "path", r.URL.Path, "status", rec.code,
		"request_id", r.Header.Get("X-Request-ID"), "elapsed", time.Since(start))
}

// route dispatches r and returns a low-cardinality route label for metrics.
func (s *Server) route(w http.ResponseWriter, r *http.Request) string {
	head, tail := ShiftPath(r.URL.Path)
	switch head {
	case "metrics":
		s.metrics.handler.ServeHTTP(w, r)
		return "/metrics"
	case "healthz":
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return "/healthz"
	case "api":
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
		return "other"
	}

	head, tail = ShiftPath(tail)
	switch head {
	case "videos":
		return s.videos(w, r, tail)
	case "tags":
		if tail != "/" {
			writeDetail(w, http.StatusNotFound, "Not Found")
			return "other"
		}
		if r.Method != http.MethodGet {
			writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
			return "/api/tags/"
		}
		s.listTags(w, r)
		return "/api/tags/"
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
		return "other"
	}
}

func (s *Server) videos(w http.ResponseWriter, r *http.Request, tail string) string {
	idPart, rest := ShiftPath(tail)
	if idPart == "" {
		switch r.Method {
		case http.MethodGet:
			s.listVideos(w, r)
		case http.MethodPost:
			s.createVideo(w, r)
		default:
			writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		}
		return "/api/videos/"
	}

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "video id must be an integer")
		return "/api/videos/{id}"
	}
	if rest == "/transcript" {
		if r.Method != http.MethodGet {
			writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		} else {
			s.getTranscript(w, r, id)
		}
		return "/api/videos/{id}/transcript"
	}
	if rest != "/" {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return "other"
	}
	switch r.Method {
	case http.MethodGet:
		s.getVideo(w, r, id)
	case http.MethodPut:
		s.updateVideo(w, r, id)
	case http.MethodDelete:
		s.deleteVideo(w, r, id)
	default:
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
	return "/api/videos/{id}"
}

func (s *Server) listVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key, err := statusutil.NormalizeSortKey(q.Get("sort_by"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := statusutil.NormalizeSortOrder(q.Get("sort_order"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	videos, err := s.store.List(r.Context(), Filter{
		Title: strings.TrimSpace(q.Get("title_query")),
		Tags:  model.DecodeTags(q.Get("tags_query")),
		Sort:  key,
		Order: order,
	})
	if err != nil {
		s.internalError(w, "list videos", err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

type videoBody struct {
	URL                 string  `json:"url"`
	Tags                *string `json:"tags"`
	Memo                *string `json:"memo"`
	TranscriptionOption string  `json:"transcriptionOption"`
}

func decodeBody(w http.ResponseWriter, r *http.Request) (videoBody, bool) {
	var body videoBody
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return body, false
	}
	if strings.TrimSpace(body.URL) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "url is required")
		return body, false
	}
	return body, true
}

func (s *Server) metadata(w http.ResponseWriter, r *http.Request, url string) (Metadata, bool) {
	videoID, ok := model.ExtractVideoID(url)
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Invalid YouTube URL")
		return Metadata{}, false
	}
	md, err := s.extract.Extract(r.Context(), videoID)
	if err != nil {
		s.log.Warn("metadata lookup failed", "video", videoID, "err", err)
		writeDetail(w, http.StatusInternalServerError, "Could not retrieve video details from YouTube API.")
		return Metadata{}, false
	}
	return md, true
}

func (s *Server) createVideo(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	md, ok := s.metadata(w, r, body.URL)
	if !ok {
		return
	}
	v := model.Video{
		URL:         strings.TrimSpace(body.URL),
		Title:       md.Title,
		ChannelName: md.ChannelName,
		Status:      model.StatusCompleted,
	}
	if body.Tags != nil {
		v.Tags = model.DecodeTags(*body.Tags)
	}
	if body.Memo != nil {
		v.Memo = *body.Memo
	}
	if body.TranscriptionOption != "" {
		v.Status = model.StatusPending
	}
	saved, err := s.store.Insert(r.Context(), v)
	if err != nil {
		s.internalError(w, "create video", err)
		return
	}
	if saved.Status == model.StatusPending {
		s.jobs.enqueue(saved)
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) getVideo(w http.ResponseWriter, r *http.Request, id int64) {
	v, err := s.store.Get(r.Context(), id)
	if s.notFoundOrError(w, "get video", err) {
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// updateVideo re-derives metadata only when the URL changed.
func (s *Server) updateVideo(w http.ResponseWriter, r *http.Request, id int64) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	cur, err := s.store.Get(r.Context(), id)
	if s.notFoundOrError(w, "update video", err) {
		return
	}
	next := cur
	next.URL = strings.TrimSpace(body.URL)
	if next.URL != cur.URL {
		md, ok := s.metadata(w, r, next.URL)
		if !ok {
			return
		}
		next.Title, next.ChannelName = md.Title, md.ChannelName
	}
	if body.Tags != nil {
		next.Tags = model.DecodeTags(*body.Tags)
	}
	if body.Memo != nil {
		next.Memo = *body.Memo
	}
	saved, err := s.store.Update(r.Context(), next)
	if s.notFoundOrError(w, "update video", err) {
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) deleteVideo(w http.ResponseWriter, r *http.Request, id int64) {
	if s.notFoundOrError(w, "delete video", s.store.Delete(r.Context(), id)) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Video deleted successfully"})
}

func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request, id int64) {
	v, err := s.store.Get(r.Context(), id)
	if s.notFoundOrError(w, "get transcript", err) {
		return
	}
	writeJSON(w, http.StatusOK, model.TranscriptResponse{Transcript: v.Transcript})
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.Tags(r.Context())
	if err != nil {
		s.internalError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// notFoundOrError writes a response for err and reports whether it did.
func (s *Server) notFoundOrError(w http.ResponseWriter, op string, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, errNoVideo):
		writeDetail(w, http.StatusNotFound, "Video not found")
	default:
		s.internalError(w, op, err)
	}
	return true
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.log.Error(op, "err", err)
	writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
