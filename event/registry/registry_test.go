package registry

import (
	"math"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

type intHandler func(int)

func insertFunc(r *Registry[intHandler], fn intHandler) Token {
	return r.Insert(NewHandle(fn, nil))
}

func dispatch(r *Registry[intHandler], v int) int {
	return r.Dispatch(func(_ Token, h intHandler) { h(v) })
}

func TestNew(t *testing.T) {
	r := New[intHandler]()

	if r == nil {
		t.Fatal("expected non-nil registry")
	}
	if r.Len() != 0 {
		t.Errorf("expected len 0, got %d", r.Len())
	}
	if n := dispatch(r, 1); n != 0 {
		t.Errorf("expected 0 invocations, got %d", n)
	}
}

func TestRegistry_ZeroValue(t *testing.T) {
	var r Registry[intHandler]

	var got []int
	tok := insertFunc(&r, func(v int) { got = append(got, v) })

	if tok.IsZero() {
		t.Fatal("expected non-zero token from zero-value registry")
	}
	dispatch(&r, 5)
	if len(got) != 1 || got[0] != 5 {
		t.Errorf("expected [5], got %v", got)
	}
	if !r.Remove(tok) {
		t.Error("expected Remove to succeed")
	}
}

func TestRegistry_DispatchOrder(t *testing.T) {
	r := New[intHandler]()

	var order []int
	for i := range 5 {
		insertFunc(r, func(int) { order = append(order, i) })
	}

	if n := dispatch(r, 0); n != 5 {
		t.Fatalf("expected 5 invocations, got %d", n)
	}
	for i, v := range order {
		if v != i {
			t.Errorf("position %d: expected handler %d, got %d", i, i, v)
		}
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := New[intHandler]()

	called := 0
	tok := insertFunc(r, func(int) { called++ })
	insertFunc(r, func(int) {})

	if !r.Remove(tok) {
		t.Error("expected Remove to return true for live registration")
	}
	if r.Len() != 1 {
		t.Errorf("expected len 1 after removal, got %d", r.Len())
	}

	dispatch(r, 0)
	if called != 0 {
		t.Errorf("removed handler was called %d times", called)
	}

	if r.Remove(tok) {
		t.Error("expected second Remove to return false")
	}
	if r.Remove(Token{}) {
		t.Error("expected Remove of zero token to return false")
	}
}

func TestRegistry_Remove_ForeignToken(t *testing.T) {
	a := New[intHandler]()
	b := New[intHandler]()

	calledB := false
	tokA := insertFunc(a, func(int) {})
	insertFunc(b, func(int) { calledB = true })

	// Same index and generation, different owner.
	if b.Remove(tokA) {
		t.Error("expected Remove of foreign token to return false")
	}
	dispatch(b, 0)
	if !calledB {
		t.Error("foreign token removed a registration")
	}
}

func TestRegistry_SlotReuse(t *testing.T) {
	r := New[intHandler]()

	var got []string
	first := insertFunc(r, func(int) { got = append(got, "first") })
	insertFunc(r, func(int) { got = append(got, "second") })
	r.Remove(first)
	third := insertFunc(r, func(int) { got = append(got, "third") })

	if third.index != first.index {
		t.Fatalf("expected slot %d to be reused, got %d", first.index, third.index)
	}
	if third.gen == first.gen {
		t.Error("expected generation to change on reuse")
	}

	// The stale token must not remove the new registration.
	if r.Remove(first) {
		t.Error("stale token removed a reused slot")
	}

	dispatch(r, 0)
	want := []string{"second", "third"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestRegistry_RetireExhaustedSlot(t *testing.T) {
	r := New[intHandler]()

	tok := insertFunc(r, func(int) {})
	r.slots[tok.index].gen = math.MaxUint32
	exhausted := Token{owner: tok.owner, index: tok.index, gen: math.MaxUint32}
	r.order[0].gen = math.MaxUint32

	if !r.Remove(exhausted) {
		t.Fatal("expected Remove to succeed")
	}
	next := insertFunc(r, func(int) {})
	if next.index == tok.index {
		t.Error("expected exhausted slot to be retired")
	}
}

func TestRegistry_RemoveDuringDispatch(t *testing.T) {
	r := New[intHandler]()

	var got []string
	var later Token
	insertFunc(r, func(int) {
		got = append(got, "a")
		r.Remove(later)
	})
	later = insertFunc(r, func(int) { got = append(got, "b") })
	insertFunc(r, func(int) { got = append(got, "c") })

	if n := dispatch(r, 0); n != 2 {
		t.Errorf("expected 2 invocations, got %d", n)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("expected [a c], got %v", got)
	}
}

func TestRegistry_RemoveSelfDuringDispatch(t *testing.T) {
	r := New[intHandler]()

	calls := 0
	var self Token
	self = insertFunc(r, func(int) {
		calls++
		r.Remove(self)
	})

	dispatch(r, 0)
	dispatch(r, 0)
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRegistry_InsertDuringDispatch(t *testing.T) {
	r := New[intHandler]()

	lateCalls := 0
	added := false
	insertFunc(r, func(int) {
		if !added {
			added = true
			insertFunc(r, func(int) { lateCalls++ })
		}
	})

	dispatch(r, 0)
	if lateCalls != 0 {
		t.Errorf("handler added during pass was invoked %d times in that pass", lateCalls)
	}
	dispatch(r, 0)
	if lateCalls != 1 {
		t.Errorf("expected late handler to be called once on next pass, got %d", lateCalls)
	}
}

func TestRegistry_InsertIntoFreedSlotDuringDispatch(t *testing.T) {
	r := New[intHandler]()

	var got []string
	var victim Token
	insertFunc(r, func(int) {
		got = append(got, "a")
		if r.Remove(victim) {
			// Reuses victim's slot, which is later in the snapshot.
			insertFunc(r, func(int) { got = append(got, "new") })
		}
	})
	victim = insertFunc(r, func(int) { got = append(got, "victim") })

	dispatch(r, 0)
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("expected [a], got %v", got)
	}
}

func TestRegistry_InsertOnce(t *testing.T) {
	r := New[intHandler]()

	calls := 0
	tok := r.InsertOnce(NewHandle[intHandler](func(int) { calls++ }, nil))

	dispatch(r, 0)
	dispatch(r, 0)
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if r.Contains(tok) {
		t.Error("expected once registration to be gone")
	}
}

func TestRegistry_DispatchUntilError(t *testing.T) {
	r := New[func() error]()

	var got []int
	failure := errSentinel("boom")
	r.Insert(NewHandle[func() error](func() error { got = append(got, 1); return nil }, nil))
	r.Insert(NewHandle[func() error](func() error { got = append(got, 2); return failure }, nil))
	r.Insert(NewHandle[func() error](func() error { got = append(got, 3); return nil }, nil))

	err := r.DispatchUntilError(func(_ Token, h func() error) error { return h() })
	if err != failure {
		t.Errorf("expected %v, got %v", failure, err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 handlers to run, got %v", got)
	}
}

func TestRegistry_PanicPassesThrough(t *testing.T) {
	r := New[intHandler]()

	after := false
	insertFunc(r, func(int) { panic("handler failed") })
	insertFunc(r, func(int) { after = true })

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		dispatch(r, 0)
	}()

	if after {
		t.Error("expected pass to stop at the failing handler")
	}
	// Locks were not left held.
	insertFunc(r, func(int) {})
	if r.Len() != 3 {
		t.Errorf("expected len 3, got %d", r.Len())
	}
}

func TestRegistry_Clear(t *testing.T) {
	r := New[intHandler]()

	released := 0
	called := 0
	tok := r.Insert(NewHandle[intHandler](func(int) { called++ }, func() { released++ }))
	r.Insert(NewHandle[intHandler](func(int) { called++ }, func() { released++ }))

	if n := r.Clear(); n != 2 {
		t.Errorf("expected 2 cleared, got %d", n)
	}
	if called != 0 {
		t.Error("handlers must not run on teardown")
	}
	if released != 2 {
		t.Errorf("expected 2 releases, got %d", released)
	}
	if r.Remove(tok) {
		t.Error("expected token to be stale after Clear")
	}

	// Tokens issued after Clear must not collide with the old ones.
	next := insertFunc(r, func(int) {})
	if next == tok {
		t.Error("token reused after Clear")
	}
}

func TestRegistry_Compaction(t *testing.T) {
	r := New[intHandler]()

	var tokens []Token
	for range 100 {
		tokens = append(tokens, insertFunc(r, func(int) {}))
	}
	for _, tok := range tokens[:90] {
		r.Remove(tok)
	}

	if len(r.order) > 2*r.live {
		t.Errorf("expected order to be compacted, len(order)=%d live=%d", len(r.order), r.live)
	}
	if got := r.Tokens(); len(got) != 10 || got[0] != tokens[90] {
		t.Errorf("unexpected tokens after compaction: %v", got)
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := New[intHandler]()

	got := 0
	tok := insertFunc(r, func(v int) { got = v })

	h, ok := r.Lookup(tok)
	if !ok {
		t.Fatal("expected Lookup to find handler")
	}
	h(7)
	if got != 7 {
		t.Errorf("expected 7, got %d", got)
	}

	r.Remove(tok)
	if _, ok := r.Lookup(tok); ok {
		t.Error("expected Lookup to fail after removal")
	}
}

func TestRegistry_ConcurrentInsert(t *testing.T) {
	const (
		workers = 8
		perW    = 1000
	)
	r := New[intHandler]()

	var calls atomic.Int64
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for range perW {
				insertFunc(r, func(int) { calls.Add(1) })
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if n := dispatch(r, 0); n != workers*perW {
		t.Errorf("expected %d invocations, got %d", workers*perW, n)
	}
	if calls.Load() != workers*perW {
		t.Errorf("expected %d calls, got %d", workers*perW, calls.Load())
	}

	seen := make(map[Token]bool)
	for _, tok := range r.Tokens() {
		if seen[tok] {
			t.Fatalf("duplicate token %s", tok)
		}
		seen[tok] = true
	}
}

func TestRegistry_ConcurrentMutationDuringDispatch(t *testing.T) {
	r := New[intHandler]()

	for range 100 {
		insertFunc(r, func(int) {})
	}

	var g errgroup.Group
	for range 4 {
		g.Go(func() error {
			for range 200 {
				tok := insertFunc(r, func(int) {})
				dispatch(r, 0)
				r.Remove(tok)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if r.Len() != 100 {
		t.Errorf("expected 100 registrations, got %d", r.Len())
	}
}

func TestRegistry_OnceUnderConcurrentDispatch(t *testing.T) {
	r := New[intHandler]()

	var calls atomic.Int64
	r.InsertOnce(NewHandle[intHandler](func(int) { calls.Add(1) }, nil))

	var g errgroup.Group
	for range 16 {
		g.Go(func() error {
			dispatch(r, 0)
			return nil
		})
	}
	_ = g.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls.Load())
	}
}

type errSentinel string

func (e errSentinel) Error() string { return string(e) }
