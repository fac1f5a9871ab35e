package telegram

import (
	"testing"

	"github.com/m3rciful/arrbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noopHandler(tele.Context) error { return nil }

func TestRegisterCommandAliases(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterCommand("/movie", commands.Command{
		Handler:     noopHandler,
		Description: "Search movies",
		Aliases:     []string{"m", "/Film"},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, name := range []string{"/movie", "movie", "/m", "/film", "FILM"} {
		key, _, ok := r.LookupCommand(name)
		if !ok || key != "/movie" {
			t.Errorf("lookup %q = %q %v", name, key, ok)
		}
	}
	if _, _, ok := r.LookupCommand("/series"); ok {
		t.Fatalf("unknown command must not resolve")
	}
}

func TestRegisterCommandRejects(t *testing.T) {
	r := NewRegistry()
	ok := commands.Command{Handler: noopHandler, Description: "d", Aliases: []string{"m"}}
	if err := r.RegisterCommand("/movie", ok); err != nil {
		t.Fatalf("register: %v", err)
	}

	cases := map[string]struct {
		name string
		cmd  commands.Command
	}{
		"no slash":       {"series", commands.Command{Handler: noopHandler, Description: "d"}},
		"no description": {"/series", commands.Command{Handler: noopHandler}},
		"no handler":     {"/series", commands.Command{Description: "d"}},
		"duplicate":      {"/movie", ok},
		"name is alias":  {"/m", commands.Command{Handler: noopHandler, Description: "d"}},
		"alias is taken": {"/series", commands.Command{Handler: noopHandler, Description: "d", Aliases: []string{"movie"}}},
	}
	for name, tc := range cases {
		if err := r.RegisterCommand(tc.name, tc.cmd); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if len(r.Commands()) != 1 {
		t.Fatalf("rejected commands must not be stored: %v", r.Commands())
	}
}

func TestListCommandsHidesHidden(t *testing.T) {
	r := NewRegistry()
	_ = r.RegisterCommand("/help", commands.Command{Handler: noopHandler, Description: "Help"})
	_ = r.RegisterCommand("/start", commands.Command{Handler: noopHandler, Description: "Start", Hidden: true})
	_ = r.RegisterCommand("/auth", commands.Command{Handler: noopHandler, Description: "Auth", Aliases: []string{"login"}})

	visible := r.ListCommands(true)
	if len(visible) != 2 || visible[0].Text != "auth" || visible[1].Text != "help" {
		t.Fatalf("unexpected menu %+v", visible)
	}
	if all := r.ListCommands(false); len(all) != 3 {
		t.Fatalf("expected hidden command in full list, got %+v", all)
	}
}

func TestRegisterCallback(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterCallback("movie", noopHandler); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.RegisterCallback("movie", noopHandler); err == nil {
		t.Fatalf("duplicate namespace must fail")
	}
	if err := r.RegisterCallback("", noopHandler); err == nil {
		t.Fatalf("empty namespace must fail")
	}
	if _, ok := r.GetCallback("movie"); !ok {
		t.Fatalf("callback not found")
	}
	if got := r.ListCallbacks(); len(got) != 1 || got[0] != "movie" {
		t.Fatalf("unexpected callbacks %v", got)
	}
}
