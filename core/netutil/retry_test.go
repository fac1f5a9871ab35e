package netutil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return false }

func TestShouldRetry(t *testing.T) {
	if ShouldRetry(nil) {
		t.Fatalf("nil error must not be retried")
	}
	if ShouldRetry(errors.New("boom")) {
		t.Fatalf("plain error must not be retried")
	}
	if !ShouldRetry(&url.Error{Op: "Get", URL: "http://x", Err: timeoutErr{}}) {
		t.Fatalf("url timeout must be retried")
	}
	if !ShouldRetry(&net.OpError{Op: "dial", Err: errors.New("connection refused")}) {
		t.Fatalf("dial failure must be retried")
	}
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{429, 502, 503, 504} {
		if !RetryableStatus(code) {
			t.Fatalf("expected %d to be retryable", code)
		}
	}
	for _, code := range []int{200, 400, 401, 404, 500} {
		if RetryableStatus(code) {
			t.Fatalf("expected %d not to be retryable", code)
		}
	}
}

type flakyTransport struct {
	calls atomic.Int32
	fails int32
	next  http.RoundTripper
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if f.calls.Add(1) <= f.fails {
		return nil, &url.Error{Op: "Get", URL: req.URL.String(), Err: timeoutErr{}}
	}
	return f.next.RoundTrip(req)
}

func TestRetryTransportRecovers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	flaky := &flakyTransport{fails: 2, next: http.DefaultTransport}
	rt := &retryTransport{base: flaky, maxRetries: 3, backoff: time.Millisecond}

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if got := flaky.calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}
