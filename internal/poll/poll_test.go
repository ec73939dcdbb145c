package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koji0214/summaryoutube/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func video(status model.Status) model.Video {
	return model.Video{ID: 42, URL: "https://youtu.be/x", Status: status}
}

func TestMachine_BeginTerminalDoesNotWatch(t *testing.T) {
	for _, s := range []model.Status{model.StatusCompleted, model.StatusFailed} {
		var m Machine
		assert.Equal(t, Stopped, m.Begin(video(s)), "status %s", s)
	}
	var m Machine
	assert.Equal(t, Watching, m.Begin(video(model.StatusPending)))
}

func TestMachine_ObserveUntilTerminal(t *testing.T) {
	var m Machine
	m.Begin(video(model.StatusPending))
	assert.Equal(t, Watching, m.Observe(video(model.StatusProcessing), nil))
	assert.Equal(t, Stopped, m.Observe(video(model.StatusCompleted), nil))
	assert.Equal(t, model.StatusCompleted, m.Video().Status)
	assert.NoError(t, m.Err())
	assert.Equal(t, 3, m.Polls())
}

func TestMachine_ErrorIsTerminal(t *testing.T) {
	var m Machine
	m.Begin(video(model.StatusProcessing))
	boom := errors.New("boom")
	assert.Equal(t, Stopped, m.Observe(model.Video{}, boom))
	assert.ErrorIs(t, m.Err(), boom)
	assert.Equal(t, model.StatusProcessing, m.Video().Status, "last good state is kept")
}

func TestMachine_IgnoresLateResponses(t *testing.T) {
	var m Machine
	m.Begin(video(model.StatusPending))
	m.Stop()
	assert.Equal(t, Stopped, m.Observe(video(model.StatusCompleted), nil))
	assert.Equal(t, model.StatusPending, m.Video().Status)
}

func TestMachine_FirstFetchError(t *testing.T) {
	var m Machine
	assert.Equal(t, Stopped, m.Observe(model.Video{}, errors.New("not found")))
	assert.Error(t, m.Err())
}

// scripted returns the given statuses in order, repeating the last one.
type scripted struct {
	mu       sync.Mutex
	statuses []model.Status
	err      error
	calls    atomic.Int32
}

func (s *scripted) GetVideo(ctx context.Context, id int64) (model.Video, error) {
	n := int(s.calls.Add(1))
	if err := ctx.Err(); err != nil {
		return model.Video{}, err
	}
	if s.err != nil {
		return model.Video{}, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := n - 1
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	v := video(s.statuses[i])
	v.ID = id
	return v, nil
}

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not finish")
	}
}

func TestWatcher_StopsPollingAfterCompletion(t *testing.T) {
	f := &scripted{statuses: []model.Status{model.StatusPending, model.StatusProcessing, model.StatusCompleted}}
	var updates []model.Status
	var mu sync.Mutex
	h := Watcher{Interval: 5 * time.Millisecond, Fetcher: f}.Open(context.Background(), 42, func(v model.Video) {
		mu.Lock()
		updates = append(updates, v.Status)
		mu.Unlock()
	})
	waitDone(t, h)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(3), f.calls.Load(), "fetch count stabilizes once completed")
	assert.Equal(t, Stopped, h.State())
	assert.Equal(t, model.StatusCompleted, h.Video().Status)
	mu.Lock()
	assert.Equal(t, []model.Status{model.StatusPending, model.StatusProcessing, model.StatusCompleted}, updates)
	mu.Unlock()
}

func TestWatcher_NoPollingForFinishedVideo(t *testing.T) {
	f := &scripted{statuses: []model.Status{model.StatusFailed}}
	h := Watcher{Interval: time.Millisecond, Fetcher: f}.Open(context.Background(), 1, nil)
	waitDone(t, h)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestWatcher_NoFetchAfterStop(t *testing.T) {
	f := &scripted{statuses: []model.Status{model.StatusProcessing}}
	h := Watcher{Interval: 2 * time.Millisecond, Fetcher: f}.Open(context.Background(), 7, nil)

	require.Eventually(t, func() bool { return f.calls.Load() >= 2 }, time.Second, time.Millisecond)
	h.Stop()
	after := f.calls.Load()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, f.calls.Load())
	assert.Equal(t, Stopped, h.State())
	assert.NoError(t, h.Err())
	h.Stop()
}

func TestWatcher_StopFromUpdate(t *testing.T) {
	f := &scripted{statuses: []model.Status{model.StatusProcessing}}
	var h *Handle
	ready := make(chan struct{})
	h = Watcher{Interval: time.Millisecond, Fetcher: f}.Open(context.Background(), 7, func(model.Video) {
		<-ready
		h.Stop()
	})
	close(ready)
	waitDone(t, h)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestWatcher_StopFromOtherGoroutineDuringUpdate(t *testing.T) {
	f := &scripted{statuses: []model.Status{model.StatusProcessing}}
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	h := Watcher{Interval: time.Millisecond, Fetcher: f}.Open(context.Background(), 7, func(model.Video) {
		once.Do(func() {
			close(entered)
			<-release
		})
	})
	<-entered

	stopped := make(chan struct{})
	go func() {
		h.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked while onUpdate was running")
	}
	select {
	case <-h.Done():
		t.Fatal("watch goroutine exited while onUpdate was still running")
	default:
	}

	close(release)
	waitDone(t, h)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), f.calls.Load(), "no fetch after Stop returned")
	assert.Equal(t, Stopped, h.State())
}

func TestWatcher_ErrorEndsWatch(t *testing.T) {
	boom := errors.New("HTTP 500")
	f := &scripted{err: boom}
	h := Watcher{Interval: time.Millisecond, Fetcher: f}.Open(context.Background(), 3, nil)
	waitDone(t, h)

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), f.calls.Load(), "poll errors are not retried")
	assert.ErrorIs(t, h.Err(), boom)
	assert.ErrorIs(t, h.Wait(context.Background()), boom)
}

func TestWatcher_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &scripted{statuses: []model.Status{model.StatusPending}}
	h := Watcher{Interval: time.Millisecond, Fetcher: f}.Open(ctx, 9, nil)
	require.Eventually(t, func() bool { return f.calls.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()
	waitDone(t, h)
	assert.Equal(t, Stopped, h.State())
	assert.NoError(t, h.Err())
}
