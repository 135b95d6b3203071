package event

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"
)

func TestEvent1_RecordScenario(t *testing.T) {
	var ev Event1[uint8]

	var first, second []uint8
	tok1 := ev.Subscribe(func(x uint8) { first = append(first, x) })

	ev.Emit(42)
	if !slices.Equal(first, []uint8{42}) {
		t.Fatalf("first = %v, want [42]", first)
	}

	ev.Subscribe(func(x uint8) { second = append(second, x) })
	ev.Emit(7)
	if !slices.Equal(first, []uint8{42, 7}) {
		t.Errorf("first = %v, want [42 7]", first)
	}
	if !slices.Equal(second, []uint8{7}) {
		t.Errorf("second = %v, want [7]", second)
	}

	if !ev.Unsubscribe(tok1) {
		t.Fatal("expected Unsubscribe to succeed")
	}
	ev.Emit(3)
	if !slices.Equal(first, []uint8{42, 7}) {
		t.Errorf("first = %v, want [42 7]", first)
	}
	if !slices.Equal(second, []uint8{7, 3}) {
		t.Errorf("second = %v, want [7 3]", second)
	}
}

func TestEvent2_Arguments(t *testing.T) {
	ev := NewEvent2[uint32, string]()

	var gotX uint32
	var gotY string
	ev.Subscribe(func(x uint32, y string) {
		gotX, gotY = x, y
	})
	ev.Emit(42, "foo")

	if gotX != 42 || gotY != "foo" {
		t.Errorf("got (%d, %q), want (42, \"foo\")", gotX, gotY)
	}
}

func TestEvent0_Unsubscribe(t *testing.T) {
	var ev Event0

	called := 0
	tok := ev.Subscribe(func() { called++ })
	ev.Emit()
	ev.Emit()
	if err := ev.Remove(tok); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	ev.Emit()
	ev.Emit()

	if called != 2 {
		t.Errorf("called = %d, want 2", called)
	}
	if err := ev.Remove(tok); !errors.Is(err, ErrSubscriptionMissing) {
		t.Errorf("expected ErrSubscriptionMissing, got %v", err)
	}
}

func TestEvent3_Order(t *testing.T) {
	var ev Event3[int, int, int]

	var order []int
	for i := range 10 {
		ev.Subscribe(func(a, b, c int) { order = append(order, i+a+b+c) })
	}
	ev.Emit(0, 0, 0)

	for i, v := range order {
		if v != i {
			t.Errorf("position %d: got handler %d", i, v)
		}
	}
}

func TestBase_UnsubscribeTwiceAndForeign(t *testing.T) {
	var a, b Event1[int]

	tokA := a.Subscribe(func(int) {})
	called := false
	b.Subscribe(func(int) { called = true })

	if !a.Unsubscribe(tokA) {
		t.Error("first Unsubscribe should succeed")
	}
	if a.Unsubscribe(tokA) {
		t.Error("second Unsubscribe should be a no-op")
	}
	if b.Unsubscribe(tokA) {
		t.Error("foreign token should be a no-op")
	}
	if b.Unsubscribe(Token{}) {
		t.Error("zero token should be a no-op")
	}

	b.Emit(1)
	if !called {
		t.Error("foreign unsubscribe affected another event")
	}

	stats := a.Stats()
	if stats.Misses != 1 || stats.Unsubscribes != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestBase_SubscribeDuringEmit(t *testing.T) {
	var ev Event0

	late := 0
	once := false
	ev.Subscribe(func() {
		if !once {
			once = true
			ev.Subscribe(func() { late++ })
		}
	})

	ev.Emit()
	if late != 0 {
		t.Errorf("handler subscribed during pass ran %d times in that pass", late)
	}
	ev.Emit()
	if late != 1 {
		t.Errorf("late = %d, want 1", late)
	}
}

func TestBase_UnsubscribeLaterDuringEmit(t *testing.T) {
	var ev Event0

	var got []string
	var second Token
	ev.Subscribe(func() {
		got = append(got, "first")
		ev.Unsubscribe(second)
	})
	second = ev.Subscribe(func() { got = append(got, "second") })
	ev.Subscribe(func() { got = append(got, "third") })

	ev.Emit()
	if !slices.Equal(got, []string{"first", "third"}) {
		t.Errorf("got %v, want [first third]", got)
	}
}

func TestBase_UnsubscribeEarlierDuringEmit(t *testing.T) {
	var ev Event0

	calls := map[string]int{}
	var first Token
	first = ev.Subscribe(func() { calls["first"]++ })
	ev.Subscribe(func() {
		calls["second"]++
		ev.Unsubscribe(first)
	})

	ev.Emit()
	ev.Emit()
	if calls["first"] != 1 || calls["second"] != 2 {
		t.Errorf("unexpected calls: %v", calls)
	}
}

func TestBase_SubscribeOnce(t *testing.T) {
	var ev Event1[string]

	var got []string
	tok := ev.SubscribeOnce(func(s string) { got = append(got, s) })
	ev.Emit("a")
	ev.Emit("b")

	if !slices.Equal(got, []string{"a"}) {
		t.Errorf("got %v, want [a]", got)
	}
	if ev.Subscribed(tok) {
		t.Error("once subscription still live")
	}
	if ev.Unsubscribe(tok) {
		t.Error("once subscription should already be gone")
	}
}

func TestBase_ClearDoesNotInvoke(t *testing.T) {
	var ev Event0

	called := false
	tok := ev.Subscribe(func() { called = true })
	ev.Subscribe(func() { called = true })

	if n := ev.Clear(); n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	ev.Emit()
	if called {
		t.Error("handler invoked after Clear")
	}
	if ev.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ev.Len())
	}
	if ev.Unsubscribe(tok) {
		t.Error("token survived Clear")
	}
}

func TestBase_PanicPropagates(t *testing.T) {
	var ev Event0

	after := false
	ev.Subscribe(func() { panic("boom") })
	ev.Subscribe(func() { after = true })

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Errorf("recovered %v, want boom", r)
			}
		}()
		ev.Emit()
	}()

	if after {
		t.Error("handler after the panicking one was invoked")
	}
}

func TestBase_MutablePanicReleasesExclusiveAccess(t *testing.T) {
	for _, c := range []Concurrency{ThreadSafe, SingleThreaded} {
		t.Run(c.String(), func(t *testing.T) {
			ev := NewEvent0(WithMutability(Mutable), WithConcurrency(c))

			fail := true
			calls := 0
			ev.Subscribe(func() {
				calls++
				if fail {
					panic("boom")
				}
			})

			func() {
				defer func() { _ = recover() }()
				ev.Emit()
			}()

			fail = false
			ev.Emit()
			if calls != 2 {
				t.Errorf("calls = %d, want 2", calls)
			}
		})
	}
}

func TestBase_MutableSingleThreadedReentrantEmit(t *testing.T) {
	ev := NewEvent0(WithMutability(Mutable), WithConcurrency(SingleThreaded))

	ev.Subscribe(func() { ev.Emit() })

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrReentrantEmit) {
			t.Errorf("recovered %v, want ErrReentrantEmit", r)
		}
	}()
	ev.Emit()
}

func TestBase_ReadOnlyNestedEmit(t *testing.T) {
	ev := NewEvent1[int](WithConcurrency(SingleThreaded))

	var got []int
	ev.Subscribe(func(n int) {
		got = append(got, n)
		if n > 0 {
			ev.Emit(n - 1)
		}
	})
	ev.Emit(2)

	if !slices.Equal(got, []int{2, 1, 0}) {
		t.Errorf("got %v, want [2 1 0]", got)
	}
}

func TestBase_MutableThreadSafeSerializesPasses(t *testing.T) {
	ev := NewEvent0(WithMutability(Mutable))

	var inside, overlaps atomic.Int32
	ev.Subscribe(func() {
		if inside.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(time.Millisecond)
		inside.Add(-1)
	})

	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			ev.Emit()
			return nil
		})
	}
	_ = g.Wait()

	if overlaps.Load() != 0 {
		t.Errorf("mutable passes overlapped %d times", overlaps.Load())
	}
}

func TestBase_MutableThreadSafeReentrantSubscribe(t *testing.T) {
	ev := NewEvent0(WithMutability(Mutable))

	done := make(chan struct{})
	go func() {
		defer close(done)
		var self Token
		self = ev.Subscribe(func() {
			ev.Subscribe(func() {})
			ev.Unsubscribe(self)
		})
		ev.Emit()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reentrant subscribe deadlocked")
	}
	if ev.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ev.Len())
	}
}

func TestBase_ConcurrentSubscribe(t *testing.T) {
	const (
		goroutines = 8
		perG       = 1000
	)
	var ev Event1[int]

	var mu sync.Mutex
	seen := make(map[int]int)
	var g errgroup.Group
	for w := range goroutines {
		g.Go(func() error {
			for i := range perG {
				id := w*perG + i
				ev.Subscribe(func(int) {
					mu.Lock()
					seen[id]++
					mu.Unlock()
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	ev.Emit(0)

	if len(seen) != goroutines*perG {
		t.Fatalf("%d distinct handlers invoked, want %d", len(seen), goroutines*perG)
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("handler %d invoked %d times", id, n)
		}
	}
}

func TestBase_ConcurrentEmitAndUnsubscribe(t *testing.T) {
	var ev Event0

	var calls atomic.Int64
	tokens := make([]Token, 200)
	for i := range tokens {
		tokens[i] = ev.Subscribe(func() { calls.Add(1) })
	}

	var g errgroup.Group
	g.Go(func() error {
		for _, tok := range tokens {
			ev.Unsubscribe(tok)
		}
		return nil
	})
	for range 4 {
		g.Go(func() error {
			for range 50 {
				ev.Emit()
			}
			return nil
		})
	}
	_ = g.Wait()

	if ev.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ev.Len())
	}
	before := calls.Load()
	ev.Emit()
	if calls.Load() != before {
		t.Error("handler invoked after all were unsubscribed")
	}
}

func TestBase_SharedHandle(t *testing.T) {
	var a Event1[int]
	var b Event1[int]

	sum := 0
	released := false
	h := NewHandle(func(n int) { sum += n }, func() { released = true })

	tokA := a.SubscribeShared(h)
	b.SubscribeShared(h)

	a.Emit(1)
	b.Emit(10)
	if sum != 11 {
		t.Errorf("sum = %d, want 11", sum)
	}

	a.Unsubscribe(tokA)
	if !h.Alive() || released {
		t.Fatal("shared handle destroyed by one unsubscribe")
	}
	b.Clear()
	h.Release()
	if !released {
		t.Error("expected handle destroyed after last release")
	}

	if tok := a.SubscribeShared(h); !tok.IsZero() {
		t.Error("destroyed handle should not be subscribed")
	}
}

func TestChecked_StopsAtFirstError(t *testing.T) {
	ev := NewChecked[string](WithName("saved"))

	failure := errors.New("disk full")
	var ran []int
	ev.Subscribe(func(string) error { ran = append(ran, 1); return nil })
	bad := ev.Subscribe(func(string) error { ran = append(ran, 2); return failure })
	ev.Subscribe(func(string) error { ran = append(ran, 3); return nil })

	err := ev.Emit("a.txt")
	if !errors.Is(err, failure) {
		t.Fatalf("expected wrapped failure, got %v", err)
	}
	var herr *HandlerError
	if !errors.As(err, &herr) {
		t.Fatalf("expected *HandlerError, got %T", err)
	}
	if herr.Token != bad || herr.Event != "saved" {
		t.Errorf("unexpected handler error: %+v", herr)
	}
	if !slices.Equal(ran, []int{1, 2}) {
		t.Errorf("ran %v, want [1 2]", ran)
	}

	ev.Unsubscribe(bad)
	if err := ev.Emit("b.txt"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBase_LogsSubscriptionChanges(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ev := NewEvent0(WithName("tick"), WithLogger(zap.New(core)))

	tok := ev.Subscribe(func() {})
	ev.Unsubscribe(tok)
	ev.Unsubscribe(tok)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}
	want := []string{"subscribed", "unsubscribed", "unsubscribe without subscription"}
	for i, e := range entries {
		if e.Message != want[i] {
			t.Errorf("entry %d: message %q, want %q", i, e.Message, want[i])
		}
		if e.ContextMap()["event"] != "tick" {
			t.Errorf("entry %d: missing event field", i)
		}
	}
}

func TestBase_ConfigureFirstCallWins(t *testing.T) {
	var ev Event0
	ev.Configure(Options{Mutability: Mutable, Concurrency: SingleThreaded})
	ev.Configure(Options{})

	opts := ev.Options()
	if opts.Mutability != Mutable || opts.Concurrency != SingleThreaded {
		t.Errorf("unexpected options: %+v", opts)
	}
}

func TestBase_Stats(t *testing.T) {
	var ev Event0

	ev.Subscribe(func() {})
	ev.Subscribe(func() {})
	ev.Emit()
	ev.Emit()

	s := ev.Stats()
	if s.Emits != 2 || s.Deliveries != 4 || s.Subscribes != 2 {
		t.Errorf("unexpected stats: %+v", s)
	}
}
