package app

import (
	"context"
	"fmt"

	"github.com/m3rciful/arrbot/bot/arr"
	"github.com/m3rciful/arrbot/bot/config"
	"github.com/m3rciful/arrbot/bot/media"
	"github.com/m3rciful/arrbot/bot/service"
	"github.com/m3rciful/arrbot/bot/subtitles"
	"github.com/m3rciful/arrbot/core/session"
)

// Factories returns the service constructors for every supported type.
func Factories(cfg *config.Config, sessions session.Store) service.Registry {
	return service.Registry{
		config.TypeRadarr:  mediaFactory(cfg, sessions, arr.Radarr),
		config.TypeSonarr:  mediaFactory(cfg, sessions, arr.Sonarr),
		config.TypeReadarr: mediaFactory(cfg, sessions, arr.Readarr),
		config.TypeBazarr:  subtitlesFactory(cfg, sessions),
	}
}

func apiOptions(cfg *config.Config, name string) (arr.Options, error) {
	api, ok := cfg.APIs[name]
	if !ok {
		return arr.Options{}, fmt.Errorf("unknown api %q", name)
	}
	return arr.Options{
		Host:          api.Host,
		APIKey:        api.Key,
		Timeout:       api.Timeout,
		RatePerSecond: api.Rate,
	}, nil
}

func mediaFactory(cfg *config.Config, sessions session.Store, v arr.Variant) service.Factory {
	return func(ctx context.Context, d service.Descriptor) (*service.Service, error) {
		opts, err := apiOptions(cfg, d.API)
		if err != nil {
			return nil, err
		}
		client := arr.NewClient(v, opts)
		m, err := media.New(media.Config{
			Name:          d.Name,
			Kind:          v.Kind,
			Commands:      d.Commands,
			Backend:       client,
			Queue:         client,
			Sessions:      sessions,
			Options:       media.LoadOptions(ctx, client),
			QueuePageSize: cfg.Queue.PageSize,
			QueueWidth:    cfg.Queue.Width,
		})
		if err != nil {
			return nil, err
		}
		return m.Service(), nil
	}
}

func subtitlesFactory(cfg *config.Config, sessions session.Store) service.Factory {
	return func(_ context.Context, d service.Descriptor) (*service.Service, error) {
		opts, err := apiOptions(cfg, d.API)
		if err != nil {
			return nil, err
		}
		a, err := subtitles.New(subtitles.Config{
			Name:     d.Name,
			Commands: d.Commands,
			Backend:  arr.NewBazarr(opts),
			Sessions: sessions,
		})
		if err != nil {
			return nil, err
		}
		return a.Service(), nil
	}
}
