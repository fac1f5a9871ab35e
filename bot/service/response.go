package service

import "github.com/m3rciful/arrbot/core/telegram/keyboard"

// Mode selects how a Response reaches the chat.
type Mode int

const (
	// ModeAck only acknowledges a button press.
	ModeAck Mode = iota
	// ModeRepaint edits the current message in place, keeping its image.
	ModeRepaint
	// ModeRedraw sends a new photo message and removes the old one.
	ModeRedraw
	// ModeClear sends the caption as plain text and removes the interactive message.
	ModeClear
	// ModeReply sends a new message without touching earlier ones.
	ModeReply
)

func (m Mode) String() string {
	switch m {
	case ModeAck:
		return "ack"
	case ModeRepaint:
		return "repaint"
	case ModeRedraw:
		return "redraw"
	case ModeClear:
		return "clear"
	case ModeReply:
		return "reply"
	}
	return "unknown"
}

// ParseMarkdownV2 marks a caption written in Telegram MarkdownV2.
const ParseMarkdownV2 = "MarkdownV2"

// Response is the render instruction produced by a handler.
type Response struct {
	Mode      Mode
	Caption   string
	Keyboard  keyboard.Keyboard
	Photo     string
	ParseMode string
	// Notice is shown as a callback toast when set.
	Notice string
}

// Ack acknowledges a callback, optionally with a toast.
func Ack(notice string) Response {
	return Response{Mode: ModeAck, Notice: notice}
}

// Repaint edits the current message.
func Repaint(caption string, kb keyboard.Keyboard) Response {
	return Response{Mode: ModeRepaint, Caption: caption, Keyboard: kb}
}

// Redraw replaces the current message with a new photo message.
func Redraw(caption, photo string, kb keyboard.Keyboard) Response {
	return Response{Mode: ModeRedraw, Caption: caption, Photo: photo, Keyboard: kb}
}

// Clear ends a conversation with a final caption.
func Clear(caption string) Response {
	return Response{Mode: ModeClear, Caption: caption}
}

// Reply sends a fresh message.
func Reply(caption string, kb keyboard.Keyboard) Response {
	return Response{Mode: ModeReply, Caption: caption, Keyboard: kb}
}
