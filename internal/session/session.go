// Package session owns the client's view of the backend: the video list, the tag
// vocabulary and the current query. Every mutation is followed by a full reload so the
// server stays the source of truth.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sync"

	"github.com/koji0214/summaryoutube/internal/draft"
	"github.com/koji0214/summaryoutube/internal/model"
	"github.com/koji0214/summaryoutube/internal/query"
	"github.com/koji0214/summaryoutube/internal/tags"
)

// ErrInFlight is returned when the same mutation is already running.
var ErrInFlight = errors.New("request already in flight")

// Backend is the subset of api.Client the session needs.
type Backend interface {
	ListVideos(ctx context.Context, params url.Values) ([]model.Video, error)
	ListTags(ctx context.Context) ([]string, error)
	CreateVideo(ctx context.Context, req model.CreateRequest) (model.Video, error)
	UpdateVideo(ctx context.Context, id int64, req model.UpdateRequest) (model.Video, error)
	DeleteVideo(ctx context.Context, id int64) error
}

// ReloadError reports that a mutation succeeded but the refresh after it failed.
// The mutation is not rolled back.
type ReloadError struct {
	Op  string
	Err error
}

func (e *ReloadError) Error() string { return fmt.Sprintf("%s succeeded, reload failed: %v", e.Op, e.Err) }
func (e *ReloadError) Unwrap() error { return e.Err }

type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTagPolicy chooses whether unsaved tags survive a vocabulary refresh.
func WithTagPolicy(p tags.Policy) Option {
	return func(s *Session) { s.vocab = tags.NewVocabulary(p) }
}

// Session is safe for concurrent use. Readers get copies.
type Session struct {
	backend Backend
	log     *slog.Logger
	vocab   *tags.Vocabulary

	mu       sync.RWMutex
	videos   []model.Video
	loaded   bool
	query    *query.Builder
	lastErr  error
	inflight map[string]bool
}

func New(b Backend, opts ...Option) *Session {
	s := &Session{
		backend:  b,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		vocab:    tags.NewVocabulary(tags.KeepPending),
		query:    query.NewBuilder(),
		inflight: map[string]bool{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Videos returns a copy of the current list.
func (s *Session) Videos() []model.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Video, len(s.videos))
	copy(out, s.videos)
	return out
}

// Video looks id up in the current list.
func (s *Session) Video(id int64) (model.Video, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.videos {
		if v.ID == id {
			return v, true
		}
	}
	return model.Video{}, false
}

// Loaded reports whether a list fetch has succeeded at least once.
func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Vocabulary is shared with drafts so newly typed tags appear in every picker.
func (s *Session) Vocabulary() *tags.Vocabulary { return s.vocab }

func (s *Session) Tags() []string { return s.vocab.Tags() }

func (s *Session) Query() query.Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query.Query()
}

func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Session) NewDraft() *draft.Draft { return draft.New(s.vocab) }

func (s *Session) EditDraft(v model.Video) *draft.Draft { return draft.FromVideo(s.vocab, v) }

func (s *Session) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Session) begin(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[key] {
		return ErrInFlight
	}
	s.inflight[key] = true
	return nil
}

func (s *Session) end(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}

// Busy reports whether any mutation is running.
func (s *Session) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.inflight) > 0
}
