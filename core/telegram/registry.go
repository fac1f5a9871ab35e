package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/arrbot/core/logger"
	"github.com/m3rciful/arrbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds bot commands and callback handlers. Commands are keyed by
// their "/name"; aliases resolve to the owning command. Callbacks are keyed by
// the namespace token that starts every button payload.
type Registry struct {
	commands map[string]commands.Command
	aliases  map[string]string

	callbacksMu sync.RWMutex
	callbacks   map[string]tele.HandlerFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
	}
}

func commandKey(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" && name[0] != '/' {
		name = "/" + name
	}
	return name
}

// RegisterCommand adds cmd under name ("/movie"). A name or alias already
// taken by another command is rejected.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	if r == nil || cmd.Handler == nil || cmd.Description == "" {
		return r.rejectCommand(name, "invalid")
	}
	if !strings.HasPrefix(name, "/") {
		return r.rejectCommand(name, "no_slash_prefix")
	}
	key := commandKey(name)
	if r.taken(key) {
		return r.rejectCommand(name, "duplicate")
	}
	aliases := make([]string, 0, len(cmd.Aliases))
	for _, alias := range cmd.Aliases {
		a := commandKey(alias)
		if a == "" || a == key {
			continue
		}
		if r.taken(a) {
			return r.rejectCommand(alias, "duplicate_alias")
		}
		aliases = append(aliases, a)
	}
	cmd.Aliases = aliases
	r.commands[key] = cmd
	for _, a := range aliases {
		r.aliases[a] = key
	}
	return nil
}

func (r *Registry) taken(key string) bool {
	if _, ok := r.commands[key]; ok {
		return true
	}
	_, ok := r.aliases[key]
	return ok
}

func (r *Registry) rejectCommand(name, reason string) error {
	logger.Warn(context.Background(), "tg.wire", "register.command.skip",
		slog.String("name", name),
		slog.String("reason", reason),
	)
	return fmt.Errorf("register command %q: %s", name, reason)
}

// ListCommands returns the menu entries sorted by name. Aliases are never
// listed; hidden commands only when visibleOnly is false.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	list := make([]tele.Command, 0, len(r.commands))
	for key, meta := range r.commands {
		if visibleOnly && meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(key, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves a name or alias, with or without the slash, to the
// canonical key and its command.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	key := commandKey(name)
	if owner, ok := r.aliases[key]; ok {
		key = owner
	}
	cmd, ok := r.commands[key]
	if !ok {
		return "", commands.Command{}, false
	}
	return key, cmd, true
}

// Commands returns all registered commands by canonical key.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// RegisterCallback adds a callback handler for a payload namespace.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if r == nil || key == "" || handler == nil {
		logger.Warn(context.Background(), "tg.wire", "register.callback.skip",
			slog.String("key", key),
			slog.Bool("handler_nil", handler == nil),
		)
		return errors.New("invalid callback registration")
	}
	r.callbacksMu.Lock()
	defer r.callbacksMu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		logger.Warn(context.Background(), "tg.wire", "register.callback.duplicate",
			slog.String("key", key),
		)
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler for a namespace.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns sorted namespaces.
func (r *Registry) ListCallbacks() []string {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// CallbackNotFound handles presses for unknown namespaces: a silent ack so
// the client stops its spinner.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond()
	}
}

// InitBotCommands publishes the visible commands as the Telegram menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	if err := bot.SetCommands(reg.ListCommands(true)); err != nil {
		logger.Error(context.Background(), "tg.wire", "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
