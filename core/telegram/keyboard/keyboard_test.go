package keyboard

import (
	"testing"

	"github.com/m3rciful/arrbot/core/telegram/callbacks"
)

func TestMarkupDropsEmptyAndDefaultsNoop(t *testing.T) {
	kb := Keyboard{
		{Button{}, Action("Next", "movie goto 1")},
		{},
		{Button{Text: "Header"}, Link("IMDB", "https://imdb.com/title/tt1")},
	}
	m := Markup(kb)
	if m == nil {
		t.Fatalf("expected markup")
	}
	if len(m.InlineKeyboard) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(m.InlineKeyboard))
	}
	if len(m.InlineKeyboard[0]) != 1 || m.InlineKeyboard[0][0].Data != "movie goto 1" {
		t.Fatalf("unexpected first row %+v", m.InlineKeyboard[0])
	}
	if m.InlineKeyboard[1][0].Data != callbacks.Noop {
		t.Fatalf("header button should carry noop, got %q", m.InlineKeyboard[1][0].Data)
	}
	if m.InlineKeyboard[1][1].URL == "" || m.InlineKeyboard[1][1].Data != "" {
		t.Fatalf("link button must carry only url: %+v", m.InlineKeyboard[1][1])
	}
}

func TestMarkupEmpty(t *testing.T) {
	if Markup(Keyboard{{}, {Button{}}}) != nil {
		t.Fatalf("empty keyboard must produce nil markup")
	}
}

func TestChunk(t *testing.T) {
	buttons := []Button{Label("1"), Label("2"), Label("3"), Label("4"), Label("5")}
	rows := Chunk(buttons, 2)
	if len(rows) != 3 || len(rows[2]) != 1 {
		t.Fatalf("unexpected chunking %+v", rows)
	}
	rows[0][0].Text = "changed"
	if buttons[0].Text != "1" {
		t.Fatalf("chunk must not alias the input slice")
	}
}
