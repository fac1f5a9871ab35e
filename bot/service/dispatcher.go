package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/m3rciful/arrbot/bot/auth"
	"github.com/m3rciful/arrbot/core/logger"
	"github.com/m3rciful/arrbot/core/session"
	"github.com/m3rciful/arrbot/core/telegram/callbacks"
)

// Inbound identifies who sent an event and where.
type Inbound struct {
	UserID    int64
	Username  string
	ChatID    int64
	MessageID int
}

// Dispatcher routes commands and callbacks to services.
type Dispatcher struct {
	gate        *auth.Gate
	services    []*Service
	byCommand   map[string]*Service
	byNamespace map[string]*Service
	locks       *session.Locker
}

// NewDispatcher indexes services by every alias and by namespace. Clashing
// aliases are configuration errors.
func NewDispatcher(gate *auth.Gate, services []*Service) (*Dispatcher, error) {
	d := &Dispatcher{
		gate:        gate,
		byCommand:   make(map[string]*Service),
		byNamespace: make(map[string]*Service),
		locks:       session.NewLocker(),
	}
	var errs *multierror.Error
	for _, s := range services {
		if s == nil || s.Table == nil {
			errs = multierror.Append(errs, fmt.Errorf("service: %q has no handler table", serviceName(s)))
			continue
		}
		ns := s.Namespace()
		if ns == "" {
			errs = multierror.Append(errs, fmt.Errorf("service: %q declares no command", s.Name))
			continue
		}
		if ns == callbacks.Noop {
			errs = multierror.Append(errs, fmt.Errorf("service: %q uses the reserved namespace %q", s.Name, ns))
			continue
		}
		if other, dup := d.byNamespace[ns]; dup {
			errs = multierror.Append(errs, fmt.Errorf("service: namespace %q used by %q and %q", ns, other.Name, s.Name))
			continue
		}
		d.byNamespace[ns] = s
		d.services = append(d.services, s)
		for _, alias := range s.Commands {
			alias = strings.ToLower(strings.TrimSpace(alias))
			if other, dup := d.byCommand[alias]; dup && other != s {
				errs = multierror.Append(errs, fmt.Errorf("service: command %q used by %q and %q", alias, other.Name, s.Name))
				continue
			}
			d.byCommand[alias] = s
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return d, nil
}

func serviceName(s *Service) string {
	if s == nil {
		return "<nil>"
	}
	return s.Name
}

// Services returns the routed services in registration order.
func (d *Dispatcher) Services() []*Service {
	out := make([]*Service, len(d.services))
	copy(out, d.services)
	return out
}

// Lookup returns the service answering to a command alias.
func (d *Dispatcher) Lookup(command string) (*Service, bool) {
	s, ok := d.byCommand[strings.ToLower(command)]
	return s, ok
}

// CommandName strips the slash and an optional @bot suffix from a command token.
func CommandName(token string) string {
	token = strings.TrimPrefix(strings.TrimSpace(token), "/")
	if i := strings.IndexByte(token, '@'); i >= 0 {
		token = token[:i]
	}
	return strings.ToLower(token)
}

// HandleCommand dispatches a typed command line. ok is false on a routing miss.
func (d *Dispatcher) HandleCommand(ctx context.Context, in Inbound, text string) (Response, bool, error) {
	tokens := callbacks.Tokenize(text)
	if len(tokens) == 0 {
		return Response{}, false, nil
	}
	name := CommandName(tokens[0])
	svc, ok := d.byCommand[name]
	if !ok {
		d.miss(ctx, in, name, "command")
		return Response{}, false, nil
	}
	cmd, args, ok := svc.Table.ResolveCommand(tokens[1:])
	if !ok {
		d.miss(ctx, in, svc.Namespace(), firstOr(tokens[1:], "<default>"))
		return Response{}, false, nil
	}
	ev := Event{
		UserID:    in.UserID,
		Username:  in.Username,
		ChatID:    in.ChatID,
		MessageID: in.MessageID,
		Name:      cmd.Name,
		Args:      args,
	}
	resp, err := d.run(ctx, svc, ev, cmd.MinLevel, cmd.Handler)
	return resp, true, err
}

// HandleCallback dispatches a button payload. The noop payload and routing
// misses are acknowledged without touching any state.
func (d *Dispatcher) HandleCallback(ctx context.Context, in Inbound, data string) (Response, bool, error) {
	if callbacks.IsNoop(data) {
		return Ack(""), true, nil
	}
	ns, args, err := callbacks.Decode(data)
	if err != nil {
		logger.Warn(ctx, "service", "dispatch.decode",
			slog.String("status", "fail"),
			slog.String("payload", logger.SanitizeLimit(data, 64)),
			slog.String("err", err.Error()),
		)
		return Ack(""), false, nil
	}
	svc, ok := d.byNamespace[strings.ToLower(ns)]
	if !ok {
		d.miss(ctx, in, ns, firstOr(args, ""))
		return Ack(""), false, nil
	}
	cb, rest, ok := svc.Table.ResolveCallback(args)
	if !ok {
		d.miss(ctx, in, ns, firstOr(args, "<default>"))
		return Ack(""), false, nil
	}
	ev := Event{
		UserID:    in.UserID,
		Username:  in.Username,
		ChatID:    in.ChatID,
		MessageID: in.MessageID,
		Callback:  true,
		Name:      cb.Name,
		Args:      rest,
	}
	resp, err := d.run(ctx, svc, ev, cb.MinLevel, cb.Handler)
	return resp, true, err
}

func (d *Dispatcher) run(ctx context.Context, svc *Service, ev Event, min auth.Level, h HandlerFunc) (Response, error) {
	ok, lvl, err := d.gate.Check(ctx, ev.UserID, min)
	if err != nil {
		return Response{}, err
	}
	if !ok {
		logger.Info(ctx, "auth", "auth.denied",
			slog.String("service", svc.Namespace()),
			slog.String("op", ev.Name),
			slog.Int64("user_id", ev.UserID),
			slog.String("level", lvl.String()),
		)
		return Reply(auth.NotAuthorizedText, nil), nil
	}
	ev.Level = lvl
	ctx = logger.WithService(ctx, svc.Namespace())

	unlock := d.locks.Lock(session.NewKey(svc.Namespace(), ev.ChatID))
	defer unlock()

	resp, err := h(ctx, ev)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", svc.Namespace(), ev.Name, err)
	}
	logger.Debug(ctx, "service", "dispatch.handled",
		slog.String("op", ev.Name),
		slog.String("mode", resp.Mode.String()),
	)
	return resp, nil
}

func (d *Dispatcher) miss(ctx context.Context, in Inbound, ns, op string) {
	logger.Info(ctx, "service", "dispatch.miss",
		slog.String("status", "skip"),
		slog.String("service", ns),
		slog.String("op", op),
		slog.Int64("chat_id", in.ChatID),
	)
}

func firstOr(args []string, fallback string) string {
	if len(args) > 0 {
		return args[0]
	}
	return fallback
}
