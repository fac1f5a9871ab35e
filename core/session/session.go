// Package session stores per-chat conversation state for bot services.
//
// Entries are addressed by a typed Key and hold an Envelope: a JSON payload
// tagged with the producing state kind and its schema version. A stale or
// foreign payload is reported as ErrPayloadMismatch instead of being decoded
// into the wrong shape. Entries have no TTL; an abandoned conversation keeps
// its entry until the same command overwrites it or the flow is cancelled.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrPayloadMismatch is returned when a stored envelope does not match the expected kind or version.
var ErrPayloadMismatch = errors.New("session: payload kind or version mismatch")

// Key addresses one conversation: a service namespace, a chat and an optional sub-key.
type Key struct {
	Service string
	ChatID  int64
	Sub     string
}

// NewKey builds a key without a sub-key.
func NewKey(service string, chatID int64) Key {
	return Key{Service: service, ChatID: chatID}
}

// With returns a copy of k addressing the given sub-key.
func (k Key) With(sub string) Key {
	k.Sub = sub
	return k
}

// String renders the key as "service:chat[:sub]".
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Service)
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(k.ChatID, 10))
	if k.Sub != "" {
		b.WriteByte(':')
		b.WriteString(k.Sub)
	}
	return b.String()
}

// Store persists opaque session payloads. Implementations must be safe for concurrent use.
type Store interface {
	Put(ctx context.Context, key Key, data []byte) error
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	Clear(ctx context.Context, key Key) error
	Close() error
}

// Envelope wraps a state payload with its kind and schema version.
type Envelope struct {
	Kind    string          `json:"kind"`
	Version int             `json:"v"`
	Data    json.RawMessage `json:"data"`
}

// Slot reads and writes one typed state shape through a Store.
type Slot[T any] struct {
	store   Store
	kind    string
	version int
}

// NewSlot binds a state type to a kind tag and schema version.
func NewSlot[T any](store Store, kind string, version int) Slot[T] {
	return Slot[T]{store: store, kind: kind, version: version}
}

// Load returns the state stored under key. A missing entry yields ok=false and no error.
func (s Slot[T]) Load(ctx context.Context, key Key) (T, bool, error) {
	var zero T
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, false, fmt.Errorf("session: decode envelope %s: %w", key, err)
	}
	if env.Kind != s.kind || env.Version != s.version {
		return zero, false, fmt.Errorf("%w: %s has %s/v%d, want %s/v%d",
			ErrPayloadMismatch, key, env.Kind, env.Version, s.kind, s.version)
	}
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return zero, false, fmt.Errorf("session: decode %s payload: %w", s.kind, err)
	}
	return out, true, nil
}

// Save replaces the entry under key.
func (s Slot[T]) Save(ctx context.Context, key Key, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode %s payload: %w", s.kind, err)
	}
	raw, err := json.Marshal(Envelope{Kind: s.kind, Version: s.version, Data: data})
	if err != nil {
		return fmt.Errorf("session: encode envelope: %w", err)
	}
	return s.store.Put(ctx, key, raw)
}

// Clear removes the entry under key.
func (s Slot[T]) Clear(ctx context.Context, key Key) error {
	return s.store.Clear(ctx, key)
}
