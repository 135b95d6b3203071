package event

import (
	"go.uber.org/zap"

	"github.com/zrkn/eventd/event/registry"
)

// Mutability describes what access a dispatch pass needs to the handlers.
type Mutability int

const (
	// ReadOnly handlers may run in overlapping passes: concurrent and nested
	// emits are allowed.
	ReadOnly Mutability = iota

	// Mutable handlers get exclusive access: one pass at a time.
	// A handler must not emit its own Mutable event: ThreadSafe events
	// deadlock and SingleThreaded events panic with ErrReentrantEmit.
	Mutable
)

// String returns the declaration spelling of the mutability.
func (m Mutability) String() string {
	switch m {
	case ReadOnly:
		return "read_only"
	case Mutable:
		return "mutable"
	default:
		return "unknown"
	}
}

// Concurrency describes whether an event may be shared between goroutines.
type Concurrency int

const (
	// ThreadSafe events may be used from any goroutine.
	ThreadSafe Concurrency = iota

	// SingleThreaded events skip all locking and must stay on one goroutine.
	SingleThreaded
)

// String returns the declaration spelling of the concurrency mode.
func (c Concurrency) String() string {
	switch c {
	case ThreadSafe:
		return "thread_safe"
	case SingleThreaded:
		return "single_threaded"
	default:
		return "unknown"
	}
}

// Options configures an event type.
// The zero value is a read-only, thread-safe event without logging.
type Options struct {
	// Name identifies the event in logs and handler errors.
	Name string

	Mutability  Mutability
	Concurrency Concurrency

	// Logger receives debug records for subscription changes.
	// Handler failures are never logged.
	Logger *zap.Logger
}

func (o Options) registryOptions() []registry.Option {
	if o.Concurrency == SingleThreaded {
		return []registry.Option{registry.Unsynchronized()}
	}
	return nil
}

// Option is a functional option for event constructors.
type Option func(*Options)

// WithName sets the event name.
func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithMutability sets the mutability variant.
func WithMutability(m Mutability) Option {
	return func(o *Options) {
		o.Mutability = m
	}
}

// WithConcurrency sets the thread-safety variant.
func WithConcurrency(c Concurrency) Option {
	return func(o *Options) {
		o.Concurrency = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithOptions replaces the whole configuration.
func WithOptions(opts Options) Option {
	return func(o *Options) {
		*o = opts
	}
}
