package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/m3rciful/arrbot/bot/auth"
	"github.com/m3rciful/arrbot/bot/service"
)

func seeded(t *testing.T, n int) (*auth.MemoryStore, *service.Dispatcher) {
	t.Helper()
	ctx := context.Background()
	store := auth.NewMemoryStore()
	_ = store.SetLevel(ctx, 1, "root", auth.Admin)
	for i := 2; i <= n; i++ {
		_ = store.SetLevel(ctx, int64(i), fmt.Sprintf("u%d", i), auth.User)
	}
	p, err := New(store)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	d, err := service.NewDispatcher(auth.NewGate(store, auth.Passwords{}), []*service.Service{p.Service()})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	return store, d
}

func TestPanelPaginates(t *testing.T) {
	_, d := seeded(t, 7)
	resp, ok, err := d.HandleCommand(context.Background(), service.Inbound{UserID: 1, ChatID: 1}, "/users")
	if err != nil || !ok {
		t.Fatalf("users: ok=%v err=%v", ok, err)
	}
	if resp.Caption != "Users 1-5 of 7" || len(resp.Keyboard) != 6 {
		t.Fatalf("unexpected first page %q rows=%d", resp.Caption, len(resp.Keyboard))
	}
	next, ok := resp.Keyboard.Find("Next ➡")
	if !ok {
		t.Fatalf("next missing")
	}
	resp, _, _ = d.HandleCallback(context.Background(), service.Inbound{UserID: 1, ChatID: 1}, next.Data)
	if resp.Caption != "Users 6-7 of 7" {
		t.Fatalf("unexpected second page %q", resp.Caption)
	}
	if _, ok := resp.Keyboard.Find("Next ➡"); ok {
		t.Fatalf("last page must not offer next")
	}
}

func TestPanelChangesLevels(t *testing.T) {
	store, d := seeded(t, 3)
	ctx := context.Background()
	in := service.Inbound{UserID: 1, ChatID: 1}

	_, _, _ = d.HandleCallback(ctx, in, clbk("make_admin", 2, 0))
	if lvl, _ := store.Level(ctx, 2); lvl != auth.Admin {
		t.Fatalf("make_admin failed, level %v", lvl)
	}
	_, _, _ = d.HandleCallback(ctx, in, clbk("remove_admin", 2, 0))
	if lvl, _ := store.Level(ctx, 2); lvl != auth.User {
		t.Fatalf("remove_admin must demote to user, level %v", lvl)
	}
	_, _, _ = d.HandleCallback(ctx, in, clbk("remove_user", 3, 0))
	if lvl, _ := store.Level(ctx, 3); lvl != auth.None {
		t.Fatalf("remove_user failed, level %v", lvl)
	}

	resp, _, _ := d.HandleCallback(ctx, in, clbk("remove_admin", 1, 0))
	if resp.Mode != service.ModeAck || resp.Notice != selfNotice {
		t.Fatalf("self demotion must be refused, got %+v", resp)
	}
	if lvl, _ := store.Level(ctx, 1); lvl != auth.Admin {
		t.Fatalf("admin lost access")
	}
}

func TestPanelRequiresAdmin(t *testing.T) {
	_, d := seeded(t, 2)
	resp, _, _ := d.HandleCommand(context.Background(), service.Inbound{UserID: 2, ChatID: 2}, "/users")
	if resp.Caption != auth.NotAuthorizedText {
		t.Fatalf("user must not open the panel, got %q", resp.Caption)
	}
}
