package service

import (
	"errors"
	"fmt"
	"sync"

	"github.com/m3rciful/arrbot/bot/arr"
	"github.com/m3rciful/arrbot/bot/auth"
	"github.com/m3rciful/arrbot/core/telegram/keyboard"
)

// ErrAddonSlot is returned when a keyboard layout does not hold exactly one addon slot.
var ErrAddonSlot = errors.New("service: layout must contain exactly one addon slot")

// Linkage lets an addon navigate back to the conversation it was opened from.
// It references the host; the host's own session entry stays authoritative.
type Linkage struct {
	Host       string   `json:"host"`
	HostKind   arr.Kind `json:"host_kind"`
	ReturnMenu string   `json:"return_menu,omitempty"`
	// Return is the host callback that re-renders the host view, e.g. ["goto"].
	Return []string `json:"return"`
}

// HostView is what an addon sees of the host while building its buttons.
type HostView struct {
	Linkage Linkage
	Item    arr.Item
	Episode *arr.Episode
	Level   auth.Level
}

// AddonClient contributes buttons to host keyboards.
type AddonClient interface {
	// Supports reports whether the addon can attach to hosts of the given kind.
	Supports(kind arr.Kind) bool
	// AddonButtons returns the buttons for one host render; nil contributes nothing.
	AddonButtons(view HostView) []keyboard.Button
}

// AddonHost holds the addons attached to a host service.
type AddonHost struct {
	mu     sync.RWMutex
	addons []AddonClient
}

// Attach registers an addon. Attachment happens during the build pass only.
func (h *AddonHost) Attach(c AddonClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.addons = append(h.addons, c)
}

// Len returns the number of attached addons.
func (h *AddonHost) Len() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.addons)
}

// Rows collects one row per addon that contributes buttons.
func (h *AddonHost) Rows(view HostView) []keyboard.Row {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	var rows []keyboard.Row
	for _, a := range h.addons {
		if btns := a.AddonButtons(view); len(btns) > 0 {
			rows = append(rows, keyboard.Row(btns))
		}
	}
	return rows
}

type section struct {
	rows []keyboard.Row
	slot bool
}

// Layout is a keyboard template with an explicit addon insertion point.
type Layout struct {
	sections []section
}

// Rows appends fixed rows to the layout. Nil rows are skipped.
func (l Layout) Rows(rows ...keyboard.Row) Layout {
	kept := make([]keyboard.Row, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			kept = append(kept, r)
		}
	}
	l.sections = append(append([]section(nil), l.sections...), section{rows: kept})
	return l
}

// Slot appends the addon insertion point.
func (l Layout) Slot() Layout {
	l.sections = append(append([]section(nil), l.sections...), section{slot: true})
	return l
}

// Slots counts insertion points.
func (l Layout) Slots() int {
	n := 0
	for _, s := range l.sections {
		if s.slot {
			n++
		}
	}
	return n
}

// Compose fills the slot with the addon rows.
func (l Layout) Compose(addon []keyboard.Row) (keyboard.Keyboard, error) {
	if n := l.Slots(); n != 1 {
		return nil, fmt.Errorf("%w: found %d", ErrAddonSlot, n)
	}
	var kb keyboard.Keyboard
	for _, s := range l.sections {
		if s.slot {
			kb = append(kb, addon...)
			continue
		}
		kb = append(kb, s.rows...)
	}
	return kb.Clean(), nil
}
