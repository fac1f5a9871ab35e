// Package service routes chat commands and button presses to media services.
//
// A Service is assembled by composition: a validated handler Table plus
// optional capabilities (a download queue, an addon host, an addon client).
// The Dispatcher resolves inbound events to handlers, applies the
// authorization gate and serializes work per (service, chat).
package service

import (
	"context"
	"strings"

	"github.com/m3rciful/arrbot/bot/arr"
)

// QueueCapability exposes a backend download queue.
type QueueCapability interface {
	Queue(ctx context.Context, page, pageSize int) (arr.QueuePage, error)
}

// Service is one configured backend integration exposed under chat commands.
type Service struct {
	Name     string
	Kind     arr.Kind
	Commands []string
	Table    *Table

	Queue QueueCapability
	Host  *AddonHost
	Addon AddonClient
}

// Namespace is the primary command; callback tokens are addressed by it.
func (s *Service) Namespace() string {
	if len(s.Commands) == 0 {
		return ""
	}
	return strings.ToLower(s.Commands[0])
}
