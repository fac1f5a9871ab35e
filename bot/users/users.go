// Package users is the admin panel for granting and revoking access.
package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/m3rciful/arrbot/bot/auth"
	"github.com/m3rciful/arrbot/bot/service"
	"github.com/m3rciful/arrbot/core/logger"
	"github.com/m3rciful/arrbot/core/telegram/callbacks"
	"github.com/m3rciful/arrbot/core/telegram/keyboard"
)

// Namespace is the command and callback namespace of the panel.
const Namespace = "users"

// PageSize is the number of users shown per page.
const PageSize = 5

const (
	selfNotice = "You cannot change your own access."
	doneText   = "Done."
)

// Panel lists users and changes their levels.
type Panel struct {
	store auth.Store
	svc   *service.Service
}

// New builds the panel service. Every entry requires Admin.
func New(store auth.Store) (*Panel, error) {
	p := &Panel{store: store}
	tbl, err := service.NewTable(
		[]service.Command{{Default: true, Description: "Manage user access", MinLevel: auth.Admin, Handler: p.list}},
		[]service.Callback{
			{Name: "page", MinLevel: auth.Admin, Handler: p.page},
			{Name: "make_admin", MinLevel: auth.Admin, Handler: p.change},
			{Name: "remove_admin", MinLevel: auth.Admin, Handler: p.change},
			{Name: "remove_user", MinLevel: auth.Admin, Handler: p.change},
			{Name: "done", MinLevel: auth.Admin, Handler: p.done},
		},
	)
	if err != nil {
		return nil, err
	}
	p.svc = &service.Service{Name: "Users", Commands: []string{Namespace}, Table: tbl}
	return p, nil
}

// Service returns the dispatchable service.
func (p *Panel) Service() *service.Service { return p.svc }

func (p *Panel) list(ctx context.Context, _ service.Event) (service.Response, error) {
	caption, kb, err := p.render(ctx, 0)
	if err != nil {
		return service.Response{}, err
	}
	return service.Reply(caption, kb), nil
}

func (p *Panel) page(ctx context.Context, ev service.Event) (service.Response, error) {
	offset, ok := intArg(ev.Args, 0)
	if !ok {
		return service.Ack(""), nil
	}
	caption, kb, err := p.render(ctx, offset)
	if err != nil {
		return service.Response{}, err
	}
	return service.Repaint(caption, kb), nil
}

func (p *Panel) change(ctx context.Context, ev service.Event) (service.Response, error) {
	id, ok := intArg64(ev.Args, 0)
	if !ok {
		return service.Ack(""), nil
	}
	offset, _ := intArg(ev.Args, 1)
	if id == ev.UserID {
		return service.Ack(selfNotice), nil
	}

	var err error
	switch ev.Name {
	case "make_admin":
		err = p.store.SetLevel(ctx, id, "", auth.Admin)
	case "remove_admin":
		err = p.store.SetLevel(ctx, id, "", auth.User)
	case "remove_user":
		err = p.store.Remove(ctx, id)
	}
	if err != nil {
		return service.Response{}, fmt.Errorf("users %s %d: %w", ev.Name, id, err)
	}
	logger.Info(ctx, "auth", "users.change",
		slog.String("op", ev.Name),
		slog.Int64("target_id", id),
		slog.Int64("user_id", ev.UserID),
	)

	caption, kb, err := p.render(ctx, offset)
	if err != nil {
		return service.Response{}, err
	}
	return service.Repaint(caption, kb), nil
}

func (p *Panel) done(context.Context, service.Event) (service.Response, error) {
	return service.Clear(doneText), nil
}

// render builds the page starting at offset. An offset past the end is
// pulled back to the last page.
func (p *Panel) render(ctx context.Context, offset int) (string, keyboard.Keyboard, error) {
	all, err := p.store.Users(ctx, auth.User)
	if err != nil {
		return "", nil, fmt.Errorf("users: list: %w", err)
	}
	total := len(all)
	if offset >= total {
		offset = (max(total-1, 0) / PageSize) * PageSize
	}
	if offset < 0 {
		offset = 0
	}
	end := min(offset+PageSize, total)

	var kb keyboard.Keyboard
	for _, u := range all[offset:end] {
		name := u.Name
		if name == "" {
			name = strconv.FormatInt(u.ID, 10)
		}
		toggle := keyboard.Action("Make admin", clbk("make_admin", u.ID, offset))
		if u.Level >= auth.Admin {
			toggle = keyboard.Action("Remove admin", clbk("remove_admin", u.ID, offset))
		}
		kb = append(kb, keyboard.Row{
			keyboard.Action("Remove", clbk("remove_user", u.ID, offset)),
			keyboard.Label(fmt.Sprintf("%s (%s)", name, u.Level)),
			toggle,
		})
	}

	nav := keyboard.Row{}
	if offset > 0 {
		nav = append(nav, keyboard.Action("⬅ Prev", clbk("page", max(offset-PageSize, 0))))
	}
	nav = append(nav, keyboard.Action("Done", clbk("done")))
	if end < total {
		nav = append(nav, keyboard.Action("Next ➡", clbk("page", end)))
	}
	kb = append(kb, nav)

	if total == 0 {
		return "No users yet.", kb, nil
	}
	return fmt.Sprintf("Users %d-%d of %d", offset+1, end, total), kb, nil
}

func clbk(args ...any) string {
	return callbacks.Encode(Namespace, args...)
}

func intArg(args []string, i int) (int, bool) {
	if i >= len(args) {
		return 0, false
	}
	n, err := strconv.Atoi(args[i])
	return n, err == nil
}

func intArg64(args []string, i int) (int64, bool) {
	if i >= len(args) {
		return 0, false
	}
	n, err := strconv.ParseInt(args[i], 10, 64)
	return n, err == nil
}
