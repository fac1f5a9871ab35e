package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/arrbot/bot/arr"
	"github.com/m3rciful/arrbot/bot/auth"
	"github.com/m3rciful/arrbot/bot/service"
	"github.com/m3rciful/arrbot/core/logger"
	"github.com/m3rciful/arrbot/core/session"
)

// stateVersion tags persisted States. Bump it when State changes shape.
const stateVersion = 1

// ExpiredNotice is shown when a button outlives its conversation.
const ExpiredNotice = "This search has expired, start a new one."

// Config describes one media service instance.
type Config struct {
	Name     string
	Kind     arr.Kind
	Commands []string
	Backend  Backend
	// Queue is optional; without it the queue command is not registered.
	Queue         service.QueueCapability
	Sessions      session.Store
	Options       Options
	QueuePageSize int
	QueueWidth    int
}

// Media glues a Machine to sessions and the dispatcher.
type Media struct {
	svc     *service.Service
	machine *Machine
	backend Backend
	states  session.Slot[State]
	queues  session.Slot[QueueState]
	view    QueueView
}

// New builds the service and its handler table.
func New(cfg Config) (*Media, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("media %s: backend is required", cfg.Name)
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("media %s: session store is required", cfg.Name)
	}
	svc := &service.Service{
		Name:     cfg.Name,
		Kind:     cfg.Kind,
		Commands: cfg.Commands,
		Queue:    cfg.Queue,
		Host:     &service.AddonHost{},
	}
	ns := svc.Namespace()
	m := &Media{
		svc:     svc,
		machine: NewMachine(ns, cfg.Kind, cfg.Backend, cfg.Options),
		backend: cfg.Backend,
		states:  session.NewSlot[State](cfg.Sessions, "media."+string(cfg.Kind), stateVersion),
		queues:  session.NewSlot[QueueState](cfg.Sessions, "queue", 1),
		view:    NewQueueView(ns, cfg.QueuePageSize, cfg.QueueWidth),
	}
	noun := profileFor(cfg.Kind).noun

	commands := []service.Command{
		{Name: "list", Pattern: "[filter]", Description: "Browse the " + strings.ToLower(noun) + " library", MinLevel: auth.User, Handler: m.list},
		{Name: "help", Description: "Shows this help", MinLevel: auth.User, Handler: m.help},
		{Default: true, Pattern: "<title>", Description: "Search for a " + strings.ToLower(noun), MinLevel: auth.User, Handler: m.search},
	}
	var callbacks []service.Callback
	if cfg.Queue != nil {
		commands = append(commands, service.Command{Name: "queue", Description: "Shows the download queue", MinLevel: auth.User, Handler: m.queue})
		callbacks = append(callbacks, service.Callback{Name: "queue", MinLevel: auth.User, Handler: m.queue})
	}
	names := []string{
		"goto", "addmenu", "path", "quality", "language", "tags",
		"selectpath", "selectquality", "selectlanguage", "addtag", "remtag",
		"add", "remove", "cancel",
	}
	if cfg.Kind == arr.KindSeries {
		names = append(names, "seasons", "searchseason", "season_list", "episode_list", "episode")
	}
	for _, n := range names {
		callbacks = append(callbacks, service.Callback{Name: n, MinLevel: auth.User, Handler: m.transition})
	}
	tbl, err := service.NewTable(commands, callbacks)
	if err != nil {
		return nil, fmt.Errorf("media %s: %w", cfg.Name, err)
	}
	svc.Table = tbl
	return m, nil
}

// Service returns the dispatchable service.
func (m *Media) Service() *service.Service { return m.svc }

// Machine returns the underlying state machine.
func (m *Media) Machine() *Machine { return m.machine }

func (m *Media) key(chatID int64) session.Key {
	return session.NewKey(m.svc.Namespace(), chatID)
}

func (m *Media) search(ctx context.Context, ev service.Event) (service.Response, error) {
	term := strings.TrimSpace(strings.Join(ev.Args, " "))
	if term == "" {
		return service.Reply(m.svc.Usage(), nil), nil
	}
	items, err := m.backend.Lookup(ctx, term)
	if err != nil {
		return service.Reply(failed(State{}, err).Caption, nil), nil
	}
	logger.Info(ctx, "service", "media.search",
		slog.String("service", m.svc.Namespace()),
		slog.Int("items", len(items)),
	)
	return m.start(ctx, ev, items)
}

func (m *Media) list(ctx context.Context, ev service.Event) (service.Response, error) {
	items, err := m.backend.Library(ctx)
	if err != nil {
		return service.Reply(failed(State{}, err).Caption, nil), nil
	}
	items = Filter(items, strings.Join(ev.Args, " "))
	return m.start(ctx, ev, items)
}

// start is the init transition: a fresh state overwrites any previous one.
func (m *Media) start(ctx context.Context, ev service.Event, items []arr.Item) (service.Response, error) {
	st := Init(items, m.machine.Options())
	if err := m.states.Save(ctx, m.key(ev.ChatID), st); err != nil {
		return service.Response{}, err
	}
	kb, err := m.machine.Keyboard(st, ev.Level, m.svc.Host)
	if err != nil {
		return service.Response{}, err
	}
	resp := service.Reply(m.machine.Caption(st), kb)
	if item, ok := st.Item(); ok {
		resp.Photo = item.Poster()
	}
	return resp, nil
}

func (m *Media) help(_ context.Context, _ service.Event) (service.Response, error) {
	return service.Reply(m.svc.Usage(), nil), nil
}

func (m *Media) queue(ctx context.Context, ev service.Event) (service.Response, error) {
	if m.svc.Queue == nil {
		return service.Ack(""), nil
	}
	key := m.key(ev.ChatID).With("queue")
	page := 0
	switch {
	case ev.Callback && len(ev.Args) > 0:
		n, err := strconv.Atoi(ev.Args[0])
		if err != nil || n < 0 {
			return service.Ack(""), nil
		}
		page = n
	case ev.Callback:
		if qs, ok, err := m.queues.Load(ctx, key); err == nil && ok {
			page = qs.Page
		}
	}
	p, err := m.svc.Queue.Queue(ctx, page, m.view.PageSize())
	if err != nil {
		caption := failed(State{}, err).Caption
		if ev.Callback {
			return service.Ack(caption), nil
		}
		return service.Reply(caption, nil), nil
	}
	if err := m.queues.Save(ctx, key, QueueState{Page: page}); err != nil {
		return service.Response{}, err
	}
	resp := service.Reply(m.view.Text(p, page), m.view.Keyboard(p, page))
	if ev.Callback {
		resp.Mode = service.ModeRepaint
	}
	resp.ParseMode = service.ParseMarkdownV2
	return resp, nil
}

func (m *Media) transition(ctx context.Context, ev service.Event) (service.Response, error) {
	key := m.key(ev.ChatID)
	st, ok, err := m.states.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, session.ErrPayloadMismatch) {
			return service.Response{}, err
		}
		logger.Warn(ctx, "session", "session.mismatch",
			slog.String("service", m.svc.Namespace()),
			slog.String("err", err.Error()),
		)
		ok = false
	}
	if !ok {
		switch ev.Name {
		case "cancel":
			return service.Clear(CanceledCaption), nil
		case "remove":
			return service.Ack(""), nil
		}
		return service.Ack(ExpiredNotice), nil
	}

	res := m.machine.Transition(ctx, st, ev.Level, Action{Name: ev.Name, Args: ev.Args})
	return m.respond(ctx, key, ev.Level, res)
}

// respond persists or clears the session according to the outcome and
// renders the result.
func (m *Media) respond(ctx context.Context, key session.Key, level auth.Level, res Result) (service.Response, error) {
	switch res.Outcome {
	case OutcomeAck:
		return service.Ack(res.Notice), nil
	case OutcomeTerminal:
		if err := m.states.Clear(ctx, key); err != nil {
			return service.Response{}, err
		}
		return service.Clear(res.Caption), nil
	}

	kb, err := m.machine.Keyboard(res.State, level, m.svc.Host)
	if err != nil {
		return service.Response{}, err
	}
	switch res.Outcome {
	case OutcomeDenied:
		return service.Repaint(DeniedCaption, kb), nil
	case OutcomeFailed:
		return service.Repaint(res.Caption, kb), nil
	}

	if err := m.states.Save(ctx, key, res.State); err != nil {
		return service.Response{}, err
	}
	caption := m.machine.Caption(res.State)
	if res.Redraw {
		item, _ := res.State.Item()
		return service.Redraw(caption, item.Poster(), kb), nil
	}
	return service.Repaint(caption, kb), nil
}
