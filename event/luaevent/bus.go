// Package luaevent exposes named events to Lua scripts.
//
// A Bus holds dynamically declared events whose handlers receive a Payload.
// A Module registers the global table "eventd" in a Lua state:
//
//	local tok = eventd.on("Saved", function(p) print(p.path) end)
//	eventd.once("Saved", function(p) return "read-only" end)
//	eventd.emit("Saved", { path = "notes.txt" })
//	eventd.off(tok)
//
// A Lua handler fails the emit by raising an error or returning a string.
// Events are Checked, so the first failing handler stops the pass.
//
// gopher-lua states are not goroutine-safe: events with Lua handlers must be
// emitted on the goroutine that owns the state.
package luaevent

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/zrkn/eventd/event"
)

// Payload is the argument of every bus event.
type Payload = map[string]any

// ErrUnknownEvent is returned for names that were never declared.
var ErrUnknownEvent = errors.New("unknown event")

// Bus is a set of named Checked[Payload] events.
type Bus struct {
	mu     sync.RWMutex
	events map[string]*event.Checked[Payload]
	log    *zap.Logger
}

// NewBus creates an empty bus. A nil logger disables logging.
func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		events: make(map[string]*event.Checked[Payload]),
		log:    log,
	}
}

// Declare adds an event named opts.Name. Declaring an existing name returns
// the existing event unchanged.
func (b *Bus) Declare(opts event.Options) *event.Checked[Payload] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ev, ok := b.events[opts.Name]; ok {
		return ev
	}
	if opts.Logger == nil {
		opts.Logger = b.log
	}
	ev := event.NewChecked[Payload](event.WithOptions(opts))
	b.events[opts.Name] = ev
	b.log.Debug("event declared",
		zap.String("event", opts.Name),
		zap.Stringer("mutability", opts.Mutability),
		zap.Stringer("concurrency", opts.Concurrency),
	)
	return ev
}

// Event returns the event called name.
func (b *Bus) Event(name string) (*event.Checked[Payload], bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ev, ok := b.events[name]
	return ev, ok
}

// Names returns the declared event names in sorted order.
func (b *Bus) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.events))
	for name := range b.events {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Emit emits payload on the event called name.
func (b *Bus) Emit(name string, payload Payload) error {
	ev, ok := b.Event(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	if payload == nil {
		payload = Payload{}
	}
	return ev.Emit(payload)
}

// Clear drops every subscription of every event.
func (b *Bus) Clear() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, ev := range b.events {
		n += ev.Clear()
	}
	return n
}
