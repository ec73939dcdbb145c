package poll

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/koji0214/summaryoutube/internal/model"
)

const DefaultInterval = 3 * time.Second

// Fetcher loads one video including its status.
type Fetcher interface {
	GetVideo(ctx context.Context, id int64) (model.Video, error)
}

type FetcherFunc func(ctx context.Context, id int64) (model.Video, error)

func (f FetcherFunc) GetVideo(ctx context.Context, id int64) (model.Video, error) { return f(ctx, id) }

type Watcher struct {
	Interval time.Duration
	Fetcher  Fetcher
	Logger   *slog.Logger
}

// Handle is a running watch. All methods are safe for concurrent use.
type Handle struct {
	id     int64
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	m        Machine
	stopped  bool
	inUpdate bool
}

// Open fetches video id once and keeps refetching every Interval while its job is in
// progress. Each fetch starts only after the previous result was applied. onUpdate,
// when non-nil, is called from the watch goroutine after every applied result.
func (w Watcher) Open(ctx context.Context, id int64, onUpdate func(model.Video)) *Handle {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	log := w.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{id: id, cancel: cancel, done: make(chan struct{})}
	go h.run(ctx, w.Fetcher, interval, log.With("video_id", id), onUpdate)
	return h
}

func (h *Handle) run(ctx context.Context, f Fetcher, interval time.Duration, log *slog.Logger, onUpdate func(model.Video)) {
	defer close(h.done)
	defer h.cancel()

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			h.halt()
			return
		case <-timer.C:
		}

		if !h.live() {
			return
		}
		v, err := f.GetVideo(ctx, h.id)

		h.mu.Lock()
		if h.stopped {
			h.mu.Unlock()
			return
		}
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			h.m.Stop()
			h.stopped = true
			h.mu.Unlock()
			return
		}
		state := h.m.Observe(v, err)
		h.mu.Unlock()

		if err != nil {
			log.Warn("poll failed", "err", err)
			return
		}
		log.Debug("poll", "status", v.Status, "state", state)
		if onUpdate != nil {
			h.setInUpdate(true)
			onUpdate(v)
			h.setInUpdate(false)
		}
		if state != Watching {
			return
		}
		timer.Reset(interval)
	}
}

func (h *Handle) live() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.stopped
}

func (h *Handle) setInUpdate(b bool) {
	h.mu.Lock()
	h.inUpdate = b
	h.mu.Unlock()
}

// halt marks the handle stopped and reports whether onUpdate is running.
func (h *Handle) halt() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	h.m.Stop()
	return h.inUpdate
}

// Stop cancels the pending timer and any in-flight request. It is idempotent and no
// fetch is issued after it returns, whichever goroutine calls it.
//
// Stop waits for the watch goroutine to exit unless onUpdate is running at the time of
// the call. The handle cannot tell a Stop made from inside onUpdate apart from one made
// by another goroutine during the callback, so both return without waiting; in that
// case onUpdate may still be running when Stop returns. Callers on other goroutines that
// need the callback finished should wait on Done after Stop.
func (h *Handle) Stop() {
	inUpdate := h.halt()
	h.cancel()
	if !inUpdate {
		<-h.done
	}
}

// Done is closed when the watch goroutine exits.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the watch ends or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.m.Err()
}

func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.m.State()
}

func (h *Handle) Video() model.Video {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.m.Video()
}

func (h *Handle) Polls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.m.Polls()
}
