package auth

import (
	"context"
	"path/filepath"
	"testing"

	bolt "go.etcd.io/bbolt"
)

func TestPasswordsMatchHighestTier(t *testing.T) {
	p := Passwords{Admin: "same", Mod: "same", User: "user"}
	if got := p.Match("same"); got != Admin {
		t.Fatalf("expected admin, got %s", got)
	}
	if got := p.Match(" user "); got != User {
		t.Fatalf("expected user, got %s", got)
	}
	if got := p.Match("nope"); got != None {
		t.Fatalf("expected none, got %s", got)
	}
	if got := (Passwords{}).Match(""); got != None {
		t.Fatalf("empty secrets must never match, got %s", got)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"admin": Admin, "MOD": Mod, "user": User, "0": None, "3": Admin} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("root"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestGateCheck(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	gate := NewGate(store, Passwords{})

	if ok, _, _ := gate.Check(ctx, 1, None); ok {
		t.Fatalf("unknown users must be rejected even for None")
	}
	_ = store.SetLevel(ctx, 1, "ann", User)
	if ok, lvl, _ := gate.Check(ctx, 1, User); !ok || lvl != User {
		t.Fatalf("user should pass user gate, ok=%v lvl=%s", ok, lvl)
	}
	if ok, _, _ := gate.Check(ctx, 1, Mod); ok {
		t.Fatalf("user must not pass mod gate")
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	gate := NewGate(store, Passwords{Admin: "a", Mod: "m", User: "u"})

	lvl, reply, err := gate.Authenticate(ctx, 5, "bob", "m")
	if err != nil || lvl != Mod || reply != "Authorized user bob as mod" {
		t.Fatalf("unexpected result %s %q %v", lvl, reply, err)
	}
	lvl, reply, _ = gate.Authenticate(ctx, 5, "bob", "bad")
	if lvl != None || reply != WrongPasswordText {
		t.Fatalf("unexpected result %s %q", lvl, reply)
	}
	if got, _ := store.Level(ctx, 5); got != Mod {
		t.Fatalf("wrong password must not change the stored level, got %s", got)
	}
	_, reply, _ = gate.Authenticate(ctx, 6, "eve", "u")
	if reply != "Authorized user eve" {
		t.Fatalf("unexpected user reply %q", reply)
	}
}

func exerciseUserStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	if lvl, err := s.Level(ctx, 9); err != nil || lvl != None {
		t.Fatalf("unknown user: %s %v", lvl, err)
	}
	_ = s.SetLevel(ctx, 9, "nine", User)
	_ = s.SetLevel(ctx, 3, "three", Admin)
	_ = s.SetLevel(ctx, 9, "", Mod)

	users, err := s.Users(ctx, Mod)
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	if len(users) != 2 || users[0].ID != 3 || users[1].Name != "nine" || users[1].Level != Mod {
		t.Fatalf("unexpected users %+v", users)
	}
	if err := s.Remove(ctx, 9); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(ctx, 9); err != nil {
		t.Fatalf("second remove must succeed: %v", err)
	}
	users, _ = s.Users(ctx, None)
	if len(users) != 1 {
		t.Fatalf("expected one user left, got %+v", users)
	}
}

func TestMemoryUserStore(t *testing.T) {
	exerciseUserStore(t, NewMemoryStore())
}

func TestBoltUserStore(t *testing.T) {
	db, err := bolt.Open(filepath.Join(t.TempDir(), "users.db"), 0o600, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	s, err := NewBoltStore(db)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	exerciseUserStore(t, s)
}
