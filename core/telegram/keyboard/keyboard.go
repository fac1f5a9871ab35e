package keyboard

import (
	"github.com/m3rciful/arrbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// Button describes one inline button. A button with neither Data nor URL
// is informational and is sent with the noop payload.
type Button struct {
	Text string
	Data string
	URL  string
}

// Row is a horizontal group of buttons.
type Row []Button

// Keyboard is an inline keyboard model independent of the transport.
type Keyboard []Row

const defaultCancelButtonText = "❌ Cancel"

// Action returns a button that emits the given payload.
func Action(text, data string) Button {
	return Button{Text: text, Data: data}
}

// Link returns a button that opens url.
func Link(text, url string) Button {
	return Button{Text: text, URL: url}
}

// Label returns an informational button.
func Label(text string) Button {
	return Button{Text: text, Data: callbacks.Noop}
}

// Cancel returns the shared cancel button for a payload.
func Cancel(data string) Button {
	return Action(defaultCancelButtonText, data)
}

// Chunk splits buttons into rows with up to n buttons per row.
func Chunk(buttons []Button, n int) []Row {
	if n <= 1 {
		n = 1
	}
	rows := make([]Row, 0, (len(buttons)+n-1)/n)
	for i := 0; i < len(buttons); i += n {
		end := i + n
		if end > len(buttons) {
			end = len(buttons)
		}
		row := make(Row, end-i)
		copy(row, buttons[i:end])
		rows = append(rows, row)
	}
	return rows
}

// Clean drops buttons without text and rows left empty.
func (k Keyboard) Clean() Keyboard {
	out := make(Keyboard, 0, len(k))
	for _, row := range k {
		kept := make(Row, 0, len(row))
		for _, b := range row {
			if b.Text == "" {
				continue
			}
			kept = append(kept, b)
		}
		if len(kept) > 0 {
			out = append(out, kept)
		}
	}
	return out
}

// Buttons returns every button in reading order.
func (k Keyboard) Buttons() []Button {
	var out []Button
	for _, row := range k {
		out = append(out, row...)
	}
	return out
}

// Find returns the first button whose text matches.
func (k Keyboard) Find(text string) (Button, bool) {
	for _, b := range k.Buttons() {
		if b.Text == text {
			return b, true
		}
	}
	return Button{}, false
}

// Markup converts the model to a telebot inline markup. An empty keyboard yields nil.
func Markup(k Keyboard) *tele.ReplyMarkup {
	k = k.Clean()
	if len(k) == 0 {
		return nil
	}
	inline := make([][]tele.InlineButton, 0, len(k))
	for _, row := range k {
		r := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			btn := tele.InlineButton{Text: b.Text}
			switch {
			case b.URL != "":
				btn.URL = b.URL
			case b.Data != "":
				btn.Data = b.Data
			default:
				btn.Data = callbacks.Noop
			}
			r = append(r, btn)
		}
		inline = append(inline, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}
