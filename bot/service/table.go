package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/m3rciful/arrbot/bot/auth"
)

var (
	// ErrDuplicateDefault is returned when a table declares a second default handler.
	ErrDuplicateDefault = errors.New("service: more than one default handler")
	// ErrDuplicateName is returned when a sub-command name is registered twice.
	ErrDuplicateName = errors.New("service: duplicate sub-command")
	// ErrInvalidEntry is returned for entries without a name or handler.
	ErrInvalidEntry = errors.New("service: invalid table entry")
)

// Event is one inbound command or button press addressed to a service.
type Event struct {
	UserID    int64
	Username  string
	ChatID    int64
	MessageID int
	Callback  bool
	// Name is the matched sub-command, empty for the default handler.
	Name  string
	Args  []string
	Level auth.Level
}

// HandlerFunc handles one Event.
type HandlerFunc func(ctx context.Context, ev Event) (Response, error)

// Command is a user-typed sub-command.
type Command struct {
	Name        string
	Pattern     string
	Description string
	MinLevel    auth.Level
	Default     bool
	Handler     HandlerFunc
}

// Callback is a button sub-command.
type Callback struct {
	Name     string
	MinLevel auth.Level
	Default  bool
	Handler  HandlerFunc
}

// Table is the validated handler set of one service.
type Table struct {
	commands        []Command
	byCommand       map[string]Command
	defaultCommand  *Command
	byCallback      map[string]Callback
	defaultCallback *Callback
}

// NewTable validates the entries and builds a Table. Every problem is reported.
func NewTable(commands []Command, callbacks []Callback) (*Table, error) {
	t := &Table{
		byCommand:  make(map[string]Command, len(commands)),
		byCallback: make(map[string]Callback, len(callbacks)),
	}
	var errs *multierror.Error

	for _, c := range commands {
		if c.Handler == nil {
			errs = multierror.Append(errs, fmt.Errorf("%w: command %q has no handler", ErrInvalidEntry, c.Name))
			continue
		}
		if c.Default {
			if t.defaultCommand != nil {
				errs = multierror.Append(errs, fmt.Errorf("%w: commands", ErrDuplicateDefault))
				continue
			}
			cmd := c
			t.defaultCommand = &cmd
			t.commands = append(t.commands, c)
			continue
		}
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" {
			errs = multierror.Append(errs, fmt.Errorf("%w: command without name", ErrInvalidEntry))
			continue
		}
		if _, dup := t.byCommand[name]; dup {
			errs = multierror.Append(errs, fmt.Errorf("%w: command %q", ErrDuplicateName, name))
			continue
		}
		c.Name = name
		t.byCommand[name] = c
		t.commands = append(t.commands, c)
	}

	for _, c := range callbacks {
		if c.Handler == nil {
			errs = multierror.Append(errs, fmt.Errorf("%w: callback %q has no handler", ErrInvalidEntry, c.Name))
			continue
		}
		if c.Default {
			if t.defaultCallback != nil {
				errs = multierror.Append(errs, fmt.Errorf("%w: callbacks", ErrDuplicateDefault))
				continue
			}
			cb := c
			t.defaultCallback = &cb
			continue
		}
		if c.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("%w: callback without name", ErrInvalidEntry))
			continue
		}
		if _, dup := t.byCallback[c.Name]; dup {
			errs = multierror.Append(errs, fmt.Errorf("%w: callback %q", ErrDuplicateName, c.Name))
			continue
		}
		t.byCallback[c.Name] = c
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return t, nil
}

// Commands returns the commands in declaration order.
func (t *Table) Commands() []Command {
	out := make([]Command, len(t.commands))
	copy(out, t.commands)
	return out
}

// ResolveCommand matches tokens (everything after the primary command) to a handler.
// A matching sub-command receives the remaining tokens; the default receives all of them.
func (t *Table) ResolveCommand(tokens []string) (Command, []string, bool) {
	if len(tokens) > 0 {
		if c, ok := t.byCommand[strings.ToLower(tokens[0])]; ok {
			return c, tokens[1:], true
		}
	}
	if t.defaultCommand != nil {
		return *t.defaultCommand, tokens, true
	}
	return Command{}, nil, false
}

// ResolveCallback matches decoded callback arguments to a handler.
func (t *Table) ResolveCallback(args []string) (Callback, []string, bool) {
	if len(args) > 0 {
		if c, ok := t.byCallback[args[0]]; ok {
			return c, args[1:], true
		}
	}
	if t.defaultCallback != nil {
		return *t.defaultCallback, args, true
	}
	return Callback{}, nil, false
}
