package registry

import (
	"math"
	"sync/atomic"
)

// owners hands out registry identities embedded in tokens.
var owners atomic.Uint64

// slot holds one registration.
type slot[H any] struct {
	handle *Handle[H]
	gen    uint32
	active bool
	once   bool
}

// entry is a position in registration order.
type entry struct {
	index uint32
	gen   uint32
}

// Registry is an ordered collection of handler registrations.
// The zero value is an empty, unsynchronized registry.
type Registry[H any] struct {
	guard Guard
	owner uint64

	slots []slot[H]
	free  []uint32
	order []entry
	live  int
}

// New creates an empty registry.
// Without options the registry is safe for concurrent use.
func New[H any](opts ...Option) *Registry[H] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry[H]{
		guard: cfg.guard,
		owner: owners.Add(1),
	}
}

func (r *Registry[H]) g() Guard {
	if r.guard == nil {
		return NopGuard{}
	}
	return r.guard
}

// Insert appends a registration for h and returns its token.
// The registry adopts one reference of h; the caller must not release it.
func (r *Registry[H]) Insert(h *Handle[H]) Token {
	return r.insert(h, false)
}

// InsertOnce is like Insert, but the registration removes itself right before
// its first invocation.
func (r *Registry[H]) InsertOnce(h *Handle[H]) Token {
	return r.insert(h, true)
}

func (r *Registry[H]) insert(h *Handle[H], once bool) Token {
	g := r.g()
	g.Lock()
	defer g.Unlock()

	if r.owner == 0 {
		r.owner = owners.Add(1)
	}

	var index uint32
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		index = uint32(len(r.slots))
		r.slots = append(r.slots, slot[H]{gen: 1})
	}

	s := &r.slots[index]
	s.handle = h
	s.active = true
	s.once = once

	r.order = append(r.order, entry{index: index, gen: s.gen})
	r.live++

	return Token{owner: r.owner, index: index, gen: s.gen}
}

// Remove deletes the registration for tok.
// Unknown, stale, zero and foreign tokens are ignored and false is returned.
func (r *Registry[H]) Remove(tok Token) bool {
	g := r.g()
	g.Lock()
	h, ok := r.detach(tok)
	if ok {
		r.compact()
	}
	g.Unlock()

	if !ok {
		return false
	}
	h.Release()
	return true
}

// detach must be called with the write lock held.
func (r *Registry[H]) detach(tok Token) (*Handle[H], bool) {
	if tok.owner == 0 || tok.owner != r.owner {
		return nil, false
	}
	if !r.valid(entry{index: tok.index, gen: tok.gen}) {
		return nil, false
	}

	s := &r.slots[tok.index]
	h := s.handle
	s.handle = nil
	s.active = false
	s.once = false
	r.live--

	// An exhausted slot is retired so its generations are never repeated.
	if s.gen < math.MaxUint32 {
		s.gen++
		r.free = append(r.free, tok.index)
	}

	return h, true
}

// compact drops stale order entries once they outnumber live ones.
// Snapshots are copies, so this is safe during a dispatch pass.
func (r *Registry[H]) compact() {
	if len(r.order)-r.live <= r.live {
		return
	}
	kept := r.order[:0]
	for _, e := range r.order {
		if r.valid(e) {
			kept = append(kept, e)
		}
	}
	r.order = kept
}

// valid must be called with a lock held.
func (r *Registry[H]) valid(e entry) bool {
	if int(e.index) >= len(r.slots) {
		return false
	}
	s := &r.slots[e.index]
	return s.active && s.gen == e.gen
}

func (r *Registry[H]) token(e entry) Token {
	return Token{owner: r.owner, index: e.index, gen: e.gen}
}

// Contains reports whether tok refers to a live registration.
func (r *Registry[H]) Contains(tok Token) bool {
	g := r.g()
	g.RLock()
	defer g.RUnlock()

	return tok.owner != 0 && tok.owner == r.owner && r.valid(entry{index: tok.index, gen: tok.gen})
}

// Lookup returns the handler registered under tok.
func (r *Registry[H]) Lookup(tok Token) (H, bool) {
	g := r.g()
	g.RLock()
	var h *Handle[H]
	if tok.owner != 0 && tok.owner == r.owner && r.valid(entry{index: tok.index, gen: tok.gen}) {
		h = r.slots[tok.index].handle
	}
	g.RUnlock()

	if h == nil {
		var zero H
		return zero, false
	}
	return h.Func()
}

// Len returns the number of live registrations.
func (r *Registry[H]) Len() int {
	g := r.g()
	g.RLock()
	defer g.RUnlock()

	return r.live
}

// Tokens returns the tokens of all live registrations in registration order.
func (r *Registry[H]) Tokens() []Token {
	snap := r.snapshot()
	if len(snap) == 0 {
		return nil
	}
	tokens := make([]Token, len(snap))
	for i, e := range snap {
		tokens[i] = r.token(e)
	}
	return tokens
}

// Clear removes every registration without invoking any handler.
// It returns the number of registrations removed.
func (r *Registry[H]) Clear() int {
	g := r.g()
	g.Lock()
	var released []*Handle[H]
	for _, e := range r.order {
		if h, ok := r.detach(r.token(e)); ok {
			released = append(released, h)
		}
	}
	r.order = r.order[:0]
	g.Unlock()

	for _, h := range released {
		h.Release()
	}
	return len(released)
}

// snapshot returns the live registrations in order.
func (r *Registry[H]) snapshot() []entry {
	g := r.g()
	g.RLock()
	defer g.RUnlock()

	if r.live == 0 {
		return nil
	}
	snap := make([]entry, 0, r.live)
	for _, e := range r.order {
		if r.valid(e) {
			snap = append(snap, e)
		}
	}
	return snap
}

// claim re-validates a snapshot entry right before invocation.
// Once-registrations are detached here so that concurrent passes cannot both
// invoke them.
func (r *Registry[H]) claim(e entry) (Token, H, bool) {
	var zero H
	g := r.g()

	g.RLock()
	if !r.valid(e) {
		g.RUnlock()
		return Token{}, zero, false
	}
	s := &r.slots[e.index]
	h, once := s.handle, s.once
	tok := r.token(e)
	g.RUnlock()

	if !once {
		fn, ok := h.Func()
		return tok, fn, ok
	}

	g.Lock()
	h, ok := r.detach(tok)
	if ok {
		r.compact()
	}
	g.Unlock()
	if !ok {
		return Token{}, zero, false
	}

	fn, alive := h.Func()
	h.Release()
	return tok, fn, alive
}

// Dispatch invokes every registration live at the start of the pass, in
// registration order, and returns the number of invocations.
func (r *Registry[H]) Dispatch(invoke func(tok Token, h H)) int {
	n := 0
	for _, e := range r.snapshot() {
		tok, fn, ok := r.claim(e)
		if !ok {
			continue
		}
		invoke(tok, fn)
		n++
	}
	return n
}

// DispatchUntilError is like Dispatch but stops at the first handler that
// returns an error and returns that error.
func (r *Registry[H]) DispatchUntilError(invoke func(tok Token, h H) error) error {
	for _, e := range r.snapshot() {
		tok, fn, ok := r.claim(e)
		if !ok {
			continue
		}
		if err := invoke(tok, fn); err != nil {
			return err
		}
	}
	return nil
}
