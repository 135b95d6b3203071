package event

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/zrkn/eventd/event/registry"
)

// Token identifies one subscription. It is returned by Subscribe and passed
// back to Unsubscribe.
type Token = registry.Token

// Handle is a reference-counted handler that can be subscribed to several
// events at once. See SubscribeShared.
type Handle[H any] = registry.Handle[H]

// NewHandle creates a shared handler handle holding one reference for the
// caller. onRelease, if non-nil, runs when the last holder releases it.
func NewHandle[H any](fn H, onRelease func()) *Handle[H] {
	return registry.NewHandle(fn, onRelease)
}

// ParseToken parses the output of Token.String.
func ParseToken(s string) (Token, error) {
	return registry.ParseToken(s)
}

// Base implements subscription and dispatch for handlers of type H.
// The event types of this package and generated event types embed it.
//
// The zero value is ready to use with default Options. Configure or Setup
// select another variant; only the first call has an effect.
type Base[H any] struct {
	once sync.Once
	opts Options
	reg  *registry.Registry[H]
	log  *zap.Logger

	// Exclusive access for mutable events.
	emitMu   sync.Mutex
	emitting bool

	emits        atomic.Uint64
	deliveries   atomic.Uint64
	subscribes   atomic.Uint64
	unsubscribes atomic.Uint64
	misses       atomic.Uint64
}

// Configure sets the options on first use and returns b.
func (b *Base[H]) Configure(opts Options) *Base[H] {
	b.once.Do(func() {
		b.opts = opts
		b.log = opts.Logger
		if b.log == nil {
			b.log = zap.NewNop()
		}
		b.reg = registry.New[H](opts.registryOptions()...)
	})
	return b
}

// Setup is Configure with functional options.
func (b *Base[H]) Setup(opts ...Option) *Base[H] {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return b.Configure(o)
}

func (b *Base[H]) registry() *registry.Registry[H] {
	return b.Configure(Options{}).reg
}

// Options returns the effective configuration.
func (b *Base[H]) Options() Options {
	b.registry()
	return b.opts
}

// Subscribe registers handler and returns its token.
// The handler is owned by the event and dropped when unsubscribed.
func (b *Base[H]) Subscribe(handler H) Token {
	tok := b.registry().Insert(registry.NewHandle(handler, nil))
	b.subscribed(tok, "owned")
	return tok
}

// SubscribeShared registers a shared handle. The event retains its own
// reference; unsubscribing detaches the handle without destroying it while
// other holders remain. A destroyed handle is not registered and the zero
// Token is returned.
func (b *Base[H]) SubscribeShared(h *Handle[H]) Token {
	reg := b.registry()
	if h == nil || !h.Retain() {
		b.log.Debug("shared handle rejected", zap.String("event", b.opts.Name))
		return Token{}
	}
	tok := reg.Insert(h)
	b.subscribed(tok, "shared")
	return tok
}

// SubscribeOnce registers a handler that is unsubscribed right before its
// first invocation.
func (b *Base[H]) SubscribeOnce(handler H) Token {
	tok := b.registry().InsertOnce(registry.NewHandle(handler, nil))
	b.subscribed(tok, "once")
	return tok
}

func (b *Base[H]) subscribed(tok Token, kind string) {
	b.subscribes.Add(1)
	b.log.Debug("subscribed",
		zap.String("event", b.opts.Name),
		zap.Stringer("token", tok),
		zap.String("kind", kind),
	)
}

// Unsubscribe removes the subscription for tok.
// It returns false, and does nothing else, for unknown, stale or foreign
// tokens.
func (b *Base[H]) Unsubscribe(tok Token) bool {
	if !b.registry().Remove(tok) {
		b.misses.Add(1)
		b.log.Debug("unsubscribe without subscription",
			zap.String("event", b.opts.Name),
			zap.Stringer("token", tok),
		)
		return false
	}
	b.unsubscribes.Add(1)
	b.log.Debug("unsubscribed",
		zap.String("event", b.opts.Name),
		zap.Stringer("token", tok),
	)
	return true
}

// Remove is Unsubscribe reporting a missing subscription as
// ErrSubscriptionMissing.
func (b *Base[H]) Remove(tok Token) error {
	if !b.Unsubscribe(tok) {
		return ErrSubscriptionMissing
	}
	return nil
}

// Subscribed reports whether tok refers to a live subscription.
func (b *Base[H]) Subscribed(tok Token) bool {
	return b.registry().Contains(tok)
}

// Len returns the number of live subscriptions.
func (b *Base[H]) Len() int {
	return b.registry().Len()
}

// Tokens returns the live subscriptions in registration order.
func (b *Base[H]) Tokens() []Token {
	return b.registry().Tokens()
}

// Clear drops every subscription without invoking any handler.
func (b *Base[H]) Clear() int {
	n := b.registry().Clear()
	b.unsubscribes.Add(uint64(n))
	return n
}

// Dispatch runs one dispatch pass, calling call once per live handler in
// registration order, and returns the number of handlers invoked.
// A panicking handler aborts the pass and the panic reaches the caller.
func (b *Base[H]) Dispatch(call func(H)) int {
	reg := b.registry()
	b.enter()
	defer b.exit()

	b.emits.Add(1)
	n := reg.Dispatch(func(_ Token, h H) {
		call(h)
		b.deliveries.Add(1)
	})
	return n
}

// DispatchUntilError is like Dispatch for handlers that report failure. The
// pass stops at the first error, which is returned as a *HandlerError.
func (b *Base[H]) DispatchUntilError(call func(H) error) error {
	reg := b.registry()
	b.enter()
	defer b.exit()

	b.emits.Add(1)
	return reg.DispatchUntilError(func(tok Token, h H) error {
		err := call(h)
		b.deliveries.Add(1)
		if err != nil {
			return &HandlerError{Event: b.opts.Name, Token: tok, Err: err}
		}
		return nil
	})
}

func (b *Base[H]) enter() {
	if b.opts.Mutability != Mutable {
		return
	}
	if b.opts.Concurrency == SingleThreaded {
		if b.emitting {
			panic(ErrReentrantEmit)
		}
		b.emitting = true
		return
	}
	b.emitMu.Lock()
}

func (b *Base[H]) exit() {
	if b.opts.Mutability != Mutable {
		return
	}
	if b.opts.Concurrency == SingleThreaded {
		b.emitting = false
		return
	}
	b.emitMu.Unlock()
}

// Stats contains dispatch statistics for one event.
type Stats struct {
	// Emits is the number of dispatch passes started.
	Emits uint64

	// Deliveries is the number of handler invocations that returned.
	Deliveries uint64

	// Subscribes is the number of subscriptions made.
	Subscribes uint64

	// Unsubscribes is the number of subscriptions removed, including Clear.
	Unsubscribes uint64

	// Misses is the number of Unsubscribe calls with a dead token.
	Misses uint64
}

// Stats returns a snapshot of the counters.
// Counters are read without a common lock and may be slightly inconsistent
// under concurrent use.
func (b *Base[H]) Stats() Stats {
	return Stats{
		Emits:        b.emits.Load(),
		Deliveries:   b.deliveries.Load(),
		Subscribes:   b.subscribes.Load(),
		Unsubscribes: b.unsubscribes.Load(),
		Misses:       b.misses.Load(),
	}
}
