package telegram

import (
	"testing"
	"time"

	coreconfig "github.com/m3rciful/arrbot/core/config"
)

func middlewareNames(mws []Middleware) []string {
	out := make([]string, len(mws))
	for i, m := range mws {
		out[i] = m.Name
	}
	return out
}

func TestDefaultMiddlewaresOrder(t *testing.T) {
	got := middlewareNames(DefaultMiddlewares(&coreconfig.Config{}, nil))
	if len(got) != 3 || got[0] != "recover" || got[1] != "logger" {
		t.Fatalf("unexpected chain without rate limit: %v", got)
	}

	cfg := &coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{IntervalMS: 250, ExcludeUpdates: []string{"callback"}}}
	got = middlewareNames(DefaultMiddlewares(cfg, nil))
	if len(got) != 4 || got[1] != "rate_limit" {
		t.Fatalf("rate limit must follow recover: %v", got)
	}

	opts, ok := rateLimitOptions(cfg, nil)
	if !ok || opts.Interval != 250*time.Millisecond {
		t.Fatalf("unexpected options %+v", opts)
	}
	if _, skip := opts.Exclude["callback"]; !skip {
		t.Fatalf("callback exclusion lost: %v", opts.Exclude)
	}
}
