package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/koji0214/summaryoutube/internal/model"
)

// transcriber simulates the asynchronous transcription worker: a job goes
// pending -> processing after half the delay, then completed at the full delay.
type transcriber struct {
	store   *Store
	delay   time.Duration
	log     *slog.Logger
	metrics *metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newTranscriber(store *Store, delay time.Duration, log *slog.Logger, m *metrics) *transcriber {
	ctx, cancel := context.WithCancel(context.Background())
	return &transcriber{store: store, delay: delay, log: log, metrics: m, ctx: ctx, cancel: cancel}
}

func (t *transcriber) enqueue(v model.Video) {
	t.wg.Add(1)
	t.metrics.jobs.Inc()
	go func() {
		defer t.wg.Done()
		defer t.metrics.jobs.Dec()
		if err := t.run(v); err != nil && t.ctx.Err() == nil {
			t.log.Warn("transcription job failed", "video_id", v.ID, "err", err)
			_ = t.store.SetStatus(context.Background(), v.ID, model.StatusFailed, "")
		}
	}()
}

func (t *transcriber) run(v model.Video) error {
	if !t.sleep(t.delay / 2) {
		return nil
	}
	if err := t.store.SetStatus(t.ctx, v.ID, model.StatusProcessing, ""); err != nil {
		if errors.Is(err, errNoVideo) {
			return nil
		}
		return err
	}
	if !t.sleep(t.delay - t.delay/2) {
		return nil
	}
	text := fmt.Sprintf("Transcript of %q by %s.", v.Title, v.ChannelName)
	if err := t.store.SetStatus(t.ctx, v.ID, model.StatusCompleted, text); err != nil && !errors.Is(err, errNoVideo) {
		return err
	}
	t.log.Info("transcription finished", "video_id", v.ID)
	return nil
}

// sleep waits d and reports false when the transcriber is closing.
func (t *transcriber) sleep(d time.Duration) bool {
	if d <= 0 {
		return t.ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-t.ctx.Done():
		return false
	}
}

func (t *transcriber) close() {
	t.cancel()
	t.wg.Wait()
}
