package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/arrbot/core/config"
	coredatabase "github.com/m3rciful/arrbot/core/database"
)

func TestRunSkipsDatabase(t *testing.T) {
	connected := false
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, errors.New("unreachable")
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if connected || res.DB != nil {
		t.Fatalf("database must not be touched when disabled")
	}
	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunReportsConnectFailure(t *testing.T) {
	_, err := Run(Options{
		Config:      &coreconfig.Config{},
		UseDatabase: true,
		LoggerInit:  func(*coreconfig.Config) error { return nil },
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			return nil, errors.New("refused")
		},
	})
	if err == nil {
		t.Fatalf("expected connect failure")
	}
}

func TestSeedStopsAtFirstFailure(t *testing.T) {
	var ran []int
	boom := errors.New("boom")
	err := Seed(context.Background(),
		SeederFunc(func(context.Context) error { ran = append(ran, 1); return nil }),
		SeederFunc(func(context.Context) error { ran = append(ran, 2); return boom }),
		SeederFunc(func(context.Context) error { ran = append(ran, 3); return nil }),
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(ran) != 2 {
		t.Fatalf("seeders after a failure must not run, ran %v", ran)
	}
}
