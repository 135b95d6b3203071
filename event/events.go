package event

// Event0 is an event without arguments.
// The zero value is ready to use.
type Event0 struct {
	Base[func()]
}

// NewEvent0 creates an Event0 with the given options.
func NewEvent0(opts ...Option) *Event0 {
	e := &Event0{}
	e.Setup(opts...)
	return e
}

// Emit invokes every subscribed handler.
func (e *Event0) Emit() {
	e.Dispatch(func(h func()) { h() })
}

// Event1 is an event with one argument.
// The zero value is ready to use.
type Event1[A any] struct {
	Base[func(A)]
}

// NewEvent1 creates an Event1 with the given options.
func NewEvent1[A any](opts ...Option) *Event1[A] {
	e := &Event1[A]{}
	e.Setup(opts...)
	return e
}

// Emit invokes every subscribed handler with a.
func (e *Event1[A]) Emit(a A) {
	e.Dispatch(func(h func(A)) { h(a) })
}

// Event2 is an event with two arguments.
// The zero value is ready to use.
type Event2[A, B any] struct {
	Base[func(A, B)]
}

// NewEvent2 creates an Event2 with the given options.
func NewEvent2[A, B any](opts ...Option) *Event2[A, B] {
	e := &Event2[A, B]{}
	e.Setup(opts...)
	return e
}

// Emit invokes every subscribed handler with a and b.
func (e *Event2[A, B]) Emit(a A, b B) {
	e.Dispatch(func(h func(A, B)) { h(a, b) })
}

// Event3 is an event with three arguments.
// The zero value is ready to use.
type Event3[A, B, C any] struct {
	Base[func(A, B, C)]
}

// NewEvent3 creates an Event3 with the given options.
func NewEvent3[A, B, C any](opts ...Option) *Event3[A, B, C] {
	e := &Event3[A, B, C]{}
	e.Setup(opts...)
	return e
}

// Emit invokes every subscribed handler with a, b and c.
func (e *Event3[A, B, C]) Emit(a A, b B, c C) {
	e.Dispatch(func(h func(A, B, C)) { h(a, b, c) })
}

// Checked is an event whose handlers can fail.
// Emit stops at the first failing handler and returns its error wrapped in a
// *HandlerError; handlers after it in registration order are not invoked.
type Checked[T any] struct {
	Base[func(T) error]
}

// NewChecked creates a Checked event with the given options.
func NewChecked[T any](opts ...Option) *Checked[T] {
	e := &Checked[T]{}
	e.Setup(opts...)
	return e
}

// Emit invokes the subscribed handlers with v until one fails.
func (e *Checked[T]) Emit(v T) error {
	return e.DispatchUntilError(func(h func(T) error) error { return h(v) })
}
