package telegram

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/arrbot/core/config"
)

func TestBuildPoller(t *testing.T) {
	cfg := &coreconfig.Config{Telegram: coreconfig.TelegramConfig{RunMode: coreconfig.RunModeLongpoll}}
	lp, ok := BuildPoller(cfg).(*tele.LongPoller)
	if !ok || lp.Timeout != defaultLongPollTimeout {
		t.Fatalf("unexpected long poller %+v", lp)
	}
	if len(lp.AllowedUpdates) != 2 {
		t.Fatalf("allowed updates not set: %v", lp.AllowedUpdates)
	}

	cfg.Telegram.RunMode = coreconfig.RunModeWebhook
	cfg.Webhook = coreconfig.WebhookConfig{URL: "https://bot.example/hook", Listen: "0.0.0.0", Port: 8443, Secret: "s3"}
	wh, ok := BuildPoller(cfg).(*tele.Webhook)
	if !ok {
		t.Fatalf("expected webhook poller")
	}
	if wh.Listen != "0.0.0.0:8443" || wh.SecretToken != "s3" || wh.Endpoint.PublicURL != "https://bot.example/hook" {
		t.Fatalf("unexpected webhook %+v", wh)
	}

	cfg.Telegram = coreconfig.TelegramConfig{LongPollTimeoutSeconds: 25}
	if lp := BuildPoller(cfg).(*tele.LongPoller); lp.Timeout != 25*time.Second {
		t.Fatalf("timeout not applied: %v", lp.Timeout)
	}
}
