package event

import (
	"errors"

	"github.com/zrkn/eventd/event/registry"
)

// Sentinel errors for event types.
var (
	// ErrSubscriptionMissing is returned by Remove for a token that does not
	// refer to a live subscription.
	ErrSubscriptionMissing = errors.New("attempt to unsubscribe without subscription")

	// ErrReentrantEmit is the panic value raised when a mutable, single-threaded
	// event is emitted from one of its own handlers.
	ErrReentrantEmit = errors.New("event emitted from its own handler while dispatch requires exclusive access")

	// ErrMalformedToken is returned by ParseToken.
	ErrMalformedToken = registry.ErrMalformedToken
)

// HandlerError wraps an error returned by a Checked handler.
type HandlerError struct {
	// Event is the event name, if one was configured.
	Event string

	// Token identifies the subscription whose handler failed.
	Token Token

	// Err is the handler's error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	if e.Event == "" {
		return "handler " + e.Token.String() + ": " + e.Err.Error()
	}
	return "event " + e.Event + ": handler " + e.Token.String() + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}
