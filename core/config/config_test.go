package config

import (
	"strings"
	"testing"
)

func TestNormalizeDefaultsAndAliases(t *testing.T) {
	cfg := &Config{
		Telegram:  TelegramConfig{Token: "t", RunMode: " Polling "},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{"Callback", ""}},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("polling alias not mapped, got %q", cfg.Telegram.RunMode)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback {
		t.Fatalf("exclusions not lowercased: %v", cfg.RateLimit.ExcludeUpdates)
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]*Config{
		"telegram token":     {},
		"webhook.url":        {Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}},
		"invalid telegram":   {Telegram: TelegramConfig{Token: "t", RunMode: "push"}},
		"rate_limit":         {Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"poll"}}},
		"sender.max_retries": {Telegram: TelegramConfig{Token: "t"}, Sender: SenderConfig{MaxRetries: -1}},
		"longpoll_timeout":   {Telegram: TelegramConfig{Token: "t", LongPollTimeoutSeconds: -5}},
	}
	for want, cfg := range cases {
		err := Normalize(cfg)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("expected error containing %q, got %v", want, err)
		}
	}
}
