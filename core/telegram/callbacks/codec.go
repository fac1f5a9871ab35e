// Package callbacks encodes inline button payloads as shell-quoted token lists.
//
// A payload always starts with the namespace of the service that owns the
// button, followed by the sub-command and its arguments:
//
//	movie goto 3
//	subs list movie 42
//	movie selectpath '/data/movies 4k'
//
// The reserved token "noop" marks informational buttons that only need an
// acknowledgement.
package callbacks

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
	tele "gopkg.in/telebot.v4"
)

// Noop is the payload of buttons that carry no action.
const Noop = "noop"

// MaxDataLen is the Telegram limit for callback_data in bytes.
const MaxDataLen = 64

var (
	// ErrEmpty is returned when a payload holds no tokens.
	ErrEmpty = errors.New("callbacks: empty payload")
	// ErrTooLong is returned when a payload exceeds MaxDataLen.
	ErrTooLong = errors.New("callbacks: payload exceeds 64 bytes")
)

// Encode joins the namespace and arguments into a shell-quoted payload.
func Encode(namespace string, args ...any) string {
	words := make([]string, 0, len(args)+1)
	words = append(words, namespace)
	for _, a := range args {
		words = append(words, fmt.Sprint(a))
	}
	return shellquote.Join(words...)
}

// Decode splits a payload into its namespace and arguments.
func Decode(data string) (string, []string, error) {
	words, err := shellquote.Split(strings.TrimSpace(data))
	if err != nil {
		return "", nil, fmt.Errorf("callbacks: decode %q: %w", data, err)
	}
	if len(words) == 0 {
		return "", nil, ErrEmpty
	}
	return words[0], words[1:], nil
}

// IsNoop reports whether the payload is the reserved acknowledgement token.
func IsNoop(data string) bool {
	return strings.TrimSpace(data) == Noop
}

// Valid checks that a payload fits into a Telegram button.
func Valid(data string) error {
	if strings.TrimSpace(data) == "" {
		return ErrEmpty
	}
	if len(data) > MaxDataLen {
		return ErrTooLong
	}
	return nil
}

// Tokenize splits a typed command line. Unbalanced quotes, common in titles
// such as "Ocean's Eleven", fall back to whitespace splitting.
func Tokenize(text string) []string {
	words, err := shellquote.Split(text)
	if err != nil {
		return strings.Fields(text)
	}
	return words
}

// Data returns the raw payload of the callback carried by c.
func Data(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		// Buttons built with markup.Data carry "\f<unique>|<data>".
		if cb.Data == "" {
			return cb.Unique
		}
		return cb.Unique + " " + cb.Data
	}
	return cb.Data
}
