package config

import (
	"strings"
	"testing"
	"time"
)

const sample = `
telegram:
  token: "123:abc"
  admin_id: 42
auth:
  admin_password: "root"
  user_password: "guest"
storage:
  sessions: bolt
  users: Bolt
apis:
  movies:
    api_host: "http://radarr:7878"
    api_key: "k1"
  tv:
    api_host: "http://sonarr:8989"
    api_key: "k2"
    timeout: 5s
    rate: 4
  subs:
    api_host: "http://bazarr:6767"
    api_key: "k3"
services:
  - type: Radarr
    name: Radarr
    commands: [movie, m]
    api: movies
    addons: [Bazarr]
  - type: sonarr
    commands: [series]
    api: tv
  - type: bazarr
    name: Bazarr
    commands: [subs]
    api: subs
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Telegram.RunMode != "longpoll" {
		t.Fatalf("core normalization not applied, run mode %q", cfg.Telegram.RunMode)
	}
	if cfg.Storage.Users != BackendBolt || !cfg.UsesBolt() || cfg.UsesPostgres() {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
	if cfg.Queue.PageSize != 5 || cfg.Queue.Width != 20 {
		t.Fatalf("unexpected queue defaults %+v", cfg.Queue)
	}
	if cfg.APIs["movies"].Timeout != 15*time.Second || cfg.APIs["tv"].Timeout != 5*time.Second {
		t.Fatalf("unexpected api timeouts %+v", cfg.APIs)
	}
	if cfg.APIs["tv"].Rate != 4 {
		t.Fatalf("rate lost: %+v", cfg.APIs["tv"])
	}

	descs := cfg.Descriptors()
	if len(descs) != 3 || descs[0].Type != TypeRadarr || descs[1].Name != TypeSonarr {
		t.Fatalf("unexpected descriptors %+v", descs)
	}
	if len(descs[0].Addons) != 1 || descs[0].Addons[0] != "Bazarr" {
		t.Fatalf("addons lost: %+v", descs[0])
	}
	if pw := cfg.Auth.Passwords(); pw.Admin != "root" || pw.User != "guest" {
		t.Fatalf("unexpected passwords %+v", pw)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	_, err := Parse([]byte(`
telegram:
  token: "123:abc"
storage:
  sessions: redis
  users: postgres
apis:
  movies:
    api_key: "k1"
services:
  - type: lidarr
    commands: [music]
    api: music
  - type: radarr
    name: Radarr
    api: movies
  - type: radarr
    name: radarr
    commands: [movie]
    api: movies
`))
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	msg := err.Error()
	for _, want := range []string{
		`invalid storage.sessions "redis"`,
		"database.host is required",
		"no way to authorize",
		`unknown type "lidarr"`,
		`unknown api "music"`,
		`"Radarr": commands are required`,
		"apis.movies.api_host is required",
		`duplicate name "radarr"`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in:\n%s", want, msg)
		}
	}
}

func TestParseRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	if _, err := Parse([]byte("services: []\n")); err == nil {
		t.Fatalf("missing token must fail")
	}
}
