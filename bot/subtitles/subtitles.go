// Package subtitles is the Bazarr addon. It has no commands of its own and
// contributes a Subtitles button to movie and series hosts.
package subtitles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/m3rciful/arrbot/bot/arr"
	"github.com/m3rciful/arrbot/bot/auth"
	"github.com/m3rciful/arrbot/bot/media"
	"github.com/m3rciful/arrbot/bot/service"
	"github.com/m3rciful/arrbot/core/logger"
	"github.com/m3rciful/arrbot/core/session"
	"github.com/m3rciful/arrbot/core/telegram/callbacks"
	"github.com/m3rciful/arrbot/core/telegram/keyboard"
)

const (
	maxResults   = 5
	stateVersion = 1

	header          = "=== Subtitles ==="
	noResults       = "No subtitles found"
	addedCaption    = "Subtitle added!"
	canceledCaption = "Subtitle search canceled!"
)

// Backend is the part of the Bazarr API the addon uses.
type Backend interface {
	MovieSubtitles(ctx context.Context, radarrID int64) ([]arr.Subtitle, error)
	EpisodeSubtitles(ctx context.Context, episodeID int64) ([]arr.Subtitle, error)
	DownloadMovie(ctx context.Context, radarrID int64, s arr.Subtitle) error
	DownloadEpisode(ctx context.Context, seriesID, episodeID int64, s arr.Subtitle) error
}

// State is the addon conversation. Link points back at the host view it was opened from.
type State struct {
	Link      service.Linkage `json:"link"`
	MediaID   int64           `json:"media_id"`
	EpisodeID int64           `json:"episode_id,omitempty"`
	Items     []arr.Subtitle  `json:"items"`
}

// Config describes one Bazarr instance.
type Config struct {
	Name     string
	Commands []string
	Backend  Backend
	Sessions session.Store
}

// Addon is the Bazarr service.
type Addon struct {
	svc     *service.Service
	backend Backend
	states  session.Slot[State]
}

// New builds the addon service.
func New(cfg Config) (*Addon, error) {
	if cfg.Backend == nil || cfg.Sessions == nil {
		return nil, fmt.Errorf("subtitles %s: backend and session store are required", cfg.Name)
	}
	a := &Addon{
		backend: cfg.Backend,
		states:  session.NewSlot[State](cfg.Sessions, "subtitles", stateVersion),
	}
	tbl, err := service.NewTable(nil, []service.Callback{
		{Name: "list", MinLevel: auth.User, Handler: a.list},
		{Name: "addsub", MinLevel: auth.User, Handler: a.addsub},
		{Name: "cancel", MinLevel: auth.User, Handler: a.cancel},
	})
	if err != nil {
		return nil, fmt.Errorf("subtitles %s: %w", cfg.Name, err)
	}
	a.svc = &service.Service{
		Name:     cfg.Name,
		Kind:     arr.KindSubtitles,
		Commands: cfg.Commands,
		Table:    tbl,
		Addon:    a,
	}
	return a, nil
}

// Service returns the dispatchable service.
func (a *Addon) Service() *service.Service { return a.svc }

// Supports reports the host kinds Bazarr manages subtitles for.
func (a *Addon) Supports(kind arr.Kind) bool {
	return kind == arr.KindMovie || kind == arr.KindSeries
}

// AddonButtons offers the subtitle search on library movies and on episodes.
func (a *Addon) AddonButtons(view service.HostView) []keyboard.Button {
	if !view.Item.InLibrary() {
		return nil
	}
	var episodeID int64
	switch view.Linkage.HostKind {
	case arr.KindMovie:
		if view.Linkage.ReturnMenu != "" {
			return nil
		}
	case arr.KindSeries:
		if view.Episode == nil {
			return nil
		}
		episodeID = view.Episode.ID
	default:
		return nil
	}
	args := []any{"list", view.Linkage.Host, view.Item.ID, episodeID}
	for _, r := range view.Linkage.Return {
		args = append(args, r)
	}
	data := callbacks.Encode(a.svc.Namespace(), args...)
	if err := callbacks.Valid(data); err != nil {
		logger.Warn(context.Background(), "service", "addon.button",
			slog.String("status", "skip"),
			slog.String("service", a.svc.Namespace()),
			slog.String("err", err.Error()),
		)
		return nil
	}
	return []keyboard.Button{keyboard.Action("💬 Subtitles", data)}
}

func (a *Addon) key(chatID int64) session.Key {
	return session.NewKey(a.svc.Namespace(), chatID)
}

// parseLink reads "host mediaID episodeID return..." from a list payload.
// Only series hosts open the addon from an episode, so a non-zero episode id
// names the host kind.
func parseLink(args []string) (State, bool) {
	if len(args) < 4 {
		return State{}, false
	}
	mediaID, err1 := strconv.ParseInt(args[1], 10, 64)
	episodeID, err2 := strconv.ParseInt(args[2], 10, 64)
	if err1 != nil || err2 != nil || episodeID < 0 {
		return State{}, false
	}
	kind := arr.KindMovie
	if episodeID > 0 {
		kind = arr.KindSeries
	}
	return State{
		Link: service.Linkage{
			Host:     args[0],
			HostKind: kind,
			Return:   append([]string(nil), args[3:]...),
		},
		MediaID:   mediaID,
		EpisodeID: episodeID,
	}, true
}

func (a *Addon) list(ctx context.Context, ev service.Event) (service.Response, error) {
	st, ok := parseLink(ev.Args)
	if !ok {
		return service.Ack(""), nil
	}
	var err error
	switch st.Link.HostKind {
	case arr.KindMovie:
		st.Items, err = a.backend.MovieSubtitles(ctx, st.MediaID)
	case arr.KindSeries:
		st.Items, err = a.backend.EpisodeSubtitles(ctx, st.EpisodeID)
	default:
		return service.Ack(""), nil
	}
	if err != nil {
		logger.Warn(ctx, "service", "subtitles.search",
			slog.String("status", "fail"),
			slog.String("kind", string(st.Link.HostKind)),
			slog.String("err", err.Error()),
		)
		return service.Ack(captionFor(err)), nil
	}
	if len(st.Items) > maxResults {
		st.Items = st.Items[:maxResults]
	}
	if err := a.states.Save(ctx, a.key(ev.ChatID), st); err != nil {
		return service.Response{}, err
	}
	return a.render(st, ""), nil
}

func (a *Addon) addsub(ctx context.Context, ev service.Event) (service.Response, error) {
	st, ok, err := a.states.Load(ctx, a.key(ev.ChatID))
	if err != nil && !errors.Is(err, session.ErrPayloadMismatch) {
		return service.Response{}, err
	}
	if !ok {
		return service.Ack(media.ExpiredNotice), nil
	}
	idx, err := strconv.Atoi(firstArg(ev.Args))
	if err != nil || idx < 0 || idx >= len(st.Items) {
		return service.Ack(""), nil
	}
	if ev.Level < auth.Mod {
		return a.render(st, media.DeniedCaption), nil
	}

	sub := st.Items[idx]
	if st.Link.HostKind == arr.KindSeries {
		err = a.backend.DownloadEpisode(ctx, st.MediaID, st.EpisodeID, sub)
	} else {
		err = a.backend.DownloadMovie(ctx, st.MediaID, sub)
	}
	if err != nil {
		logger.Warn(ctx, "service", "subtitles.download",
			slog.String("status", "fail"),
			slog.String("provider", sub.Provider),
			slog.String("err", err.Error()),
		)
		return a.render(st, captionFor(err)), nil
	}
	if err := a.states.Clear(ctx, a.key(ev.ChatID)); err != nil {
		return service.Response{}, err
	}
	return service.Clear(addedCaption), nil
}

func (a *Addon) cancel(ctx context.Context, ev service.Event) (service.Response, error) {
	if err := a.states.Clear(ctx, a.key(ev.ChatID)); err != nil {
		return service.Response{}, err
	}
	return service.Clear(canceledCaption), nil
}

// Keyboard lists the results, a back button to the host view and cancel.
func (a *Addon) Keyboard(st State) keyboard.Keyboard {
	ns := a.svc.Namespace()
	kb := keyboard.Keyboard{{keyboard.Label(header)}}
	for i, s := range st.Items {
		label := fmt.Sprintf("[Score: %s] %s", s.Score, s.Title())
		kb = append(kb, keyboard.Row{keyboard.Action(label, callbacks.Encode(ns, "addsub", i))})
	}
	if len(st.Items) == 0 {
		kb = append(kb, keyboard.Row{keyboard.Label(noResults)})
	}
	back := make([]any, 0, len(st.Link.Return))
	for _, r := range st.Link.Return {
		back = append(back, r)
	}
	kb = append(kb, keyboard.Row{
		keyboard.Action("🔙 Back", callbacks.Encode(st.Link.Host, back...)),
		keyboard.Cancel(callbacks.Encode(ns, "cancel")),
	})
	return kb
}

func (a *Addon) render(st State, caption string) service.Response {
	if caption == "" {
		caption = header
		if len(st.Items) == 0 {
			caption = noResults
		}
	}
	return service.Repaint(caption, a.Keyboard(st))
}

func captionFor(err error) string {
	if errors.Is(err, arr.ErrUnavailable) {
		return media.UnavailableCaption
	}
	return media.FailedCaption
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
