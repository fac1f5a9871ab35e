package sender

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestRetryDelayHonoursFloodWait(t *testing.T) {
	if d := retryDelay(tele.FloodError{RetryAfter: 3}, time.Second, 1); d != 3*time.Second {
		t.Fatalf("flood wait ignored, got %v", d)
	}
	if d := retryDelay(errors.New("boom"), time.Second, 2); d != 2*time.Second {
		t.Fatalf("expected linear backoff, got %v", d)
	}
	if !shouldRetry(tele.FloodError{RetryAfter: 1}) {
		t.Fatalf("flood errors must be retried")
	}
	if shouldRetry(errors.New("telegram: Bad Request: chat not found (400)")) {
		t.Fatalf("bad requests must not be retried")
	}
}

func TestDispatcherRetriesTransientFailure(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond, RatePerSecond: 1000})
	var calls atomic.Int32
	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if calls.Add(1) == 1 {
			return &net.OpError{Op: "dial", Err: errors.New("connection refused")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	d.Close()
	if calls.Load() != 2 {
		t.Fatalf("expected one retry, got %d calls", calls.Load())
	}
	if d.ErrorCount() != 0 {
		t.Fatalf("unexpected error count %d", d.ErrorCount())
	}
	if err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed after close, got %v", err)
	}
}
