package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(retries int) Config {
	return Config{
		MaxRetries:     retries,
		InitialBackoff: 2 * time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), nil, nil, func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() = %v, want nil", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	var notified []int
	err := Do(context.Background(), fastConfig(5), nil,
		func(attempt int, _ time.Duration, _ error) { notified = append(notified, attempt) },
		func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("temporary")
			}
			return nil
		})
	if err != nil {
		t.Fatalf("Do() = %v, want nil", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if len(notified) != 2 || notified[0] != 1 || notified[1] != 2 {
		t.Fatalf("onRetry attempts = %v, want [1 2]", notified)
	}
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	base := errors.New("bad request")
	calls := 0
	err := Do(context.Background(), fastConfig(3), nil, nil, func(context.Context) error {
		calls++
		return Permanent(base)
	})
	if !errors.Is(err, base) {
		t.Fatalf("Do() = %v, want wrapped %v", err, base)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDo_CustomClassifier(t *testing.T) {
	final := errors.New("final")
	calls := 0
	err := Do(context.Background(), fastConfig(3), func(err error) bool { return !errors.Is(err, final) }, nil,
		func(context.Context) error {
			calls++
			return final
		})
	if !errors.Is(err, final) || calls != 1 {
		t.Fatalf("Do() = %v after %d calls", err, calls)
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	tmp := errors.New("temporary")
	calls := 0
	err := Do(context.Background(), fastConfig(2), nil, nil, func(context.Context) error {
		calls++
		return tmp
	})
	if !errors.Is(err, tmp) {
		t.Fatalf("Do() = %v, want wrapped %v", err, tmp)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDo_ZeroRetriesReturnsBareError(t *testing.T) {
	tmp := errors.New("temporary")
	err := Do(context.Background(), fastConfig(0), nil, nil, func(context.Context) error { return tmp })
	if err != tmp {
		t.Fatalf("Do() = %v, want the unwrapped error", err)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = time.Second

	calls := 0
	err := Do(ctx, cfg, nil, nil, func(context.Context) error {
		calls++
		cancel()
		return errors.New("temporary")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(context.Canceled) {
		t.Fatalf("context.Canceled must not be retried")
	}
	if IsRetryable(Permanent(errors.New("x"))) {
		t.Fatalf("permanent errors must not be retried")
	}
	if !IsRetryable(errors.New("x")) {
		t.Fatalf("plain errors are retried")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := DefaultConfig()
	bad.Multiplier = 0.5
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected multiplier error")
	}
}
