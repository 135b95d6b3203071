package registry

import "sync/atomic"

// Handle is a reference-counted holder for a handler value.
//
// NewHandle returns a handle holding one reference for its creator. Retain adds
// a reference and Release drops one; when the last reference is dropped the
// handle is destroyed: the handler value is cleared and the release callback,
// if any, runs once.
//
// A handle inserted into exactly one registry and never retained elsewhere is
// owned by that registry. A handle retained by several holders is shared and
// outlives any single registration.
type Handle[H any] struct {
	fn        atomic.Pointer[H]
	refs      atomic.Int64
	onRelease func()
}

// NewHandle creates a handle for fn holding one reference.
// onRelease may be nil.
func NewHandle[H any](fn H, onRelease func()) *Handle[H] {
	h := &Handle[H]{onRelease: onRelease}
	h.fn.Store(&fn)
	h.refs.Store(1)
	return h
}

// Func returns the handler value.
// It returns false once the handle has been destroyed.
func (h *Handle[H]) Func() (H, bool) {
	p := h.fn.Load()
	if p == nil {
		var zero H
		return zero, false
	}
	return *p, true
}

// Retain adds a reference.
// It returns false if the handle was already destroyed.
func (h *Handle[H]) Retain() bool {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return false
		}
		if h.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Release drops a reference.
// It returns true if this call destroyed the handle.
func (h *Handle[H]) Release() bool {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return false
		}
		if !h.refs.CompareAndSwap(n, n-1) {
			continue
		}
		if n != 1 {
			return false
		}
		h.fn.Store(nil)
		if h.onRelease != nil {
			h.onRelease()
		}
		return true
	}
}

// Refs returns the current reference count.
func (h *Handle[H]) Refs() int {
	return int(h.refs.Load())
}

// Alive reports whether the handle still holds its handler.
func (h *Handle[H]) Alive() bool {
	return h.refs.Load() > 0
}
