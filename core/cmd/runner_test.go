package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/arrbot/core/config"
	coretelegram "github.com/m3rciful/arrbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type telegramApp struct{}

func (telegramApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func TestResolveConfigPathOrder(t *testing.T) {
	t.Setenv("ARRBOT_TEST_CONFIG", "/env.yaml")
	opts := Options{ConfigEnvVar: "ARRBOT_TEST_CONFIG", DefaultConfigPath: "config.yaml"}
	if p, _ := ResolveConfigPath(opts); p != "/env.yaml" {
		t.Fatalf("env must win over the default, got %q", p)
	}
	opts.ConfigPath = "/flag.yaml"
	if p, _ := ResolveConfigPath(opts); p != "/flag.yaml" {
		t.Fatalf("explicit path must win, got %q", p)
	}
	t.Setenv("ARRBOT_TEST_CONFIG", "")
	if _, err := ResolveConfigPath(Options{ConfigEnvVar: "ARRBOT_TEST_CONFIG"}); err == nil {
		t.Fatalf("expected an error without any path")
	}
}

func TestRunWiresLifecycle(t *testing.T) {
	var loaded string
	var started bool
	err := Run(Options{
		ConfigPath: "/tmp/arrbot.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loaded = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return telegramApp{}, nil },
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if opts.OnStart == nil || opts.OnStop == nil {
				return errors.New("lifecycle hooks missing")
			}
			started = true
			return opts.OnStart(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if loaded != "/tmp/arrbot.yaml" || !started {
		t.Fatalf("loaded %q started %v", loaded, started)
	}
}
