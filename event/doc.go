// Package event provides strongly-typed, synchronous multicast events.
//
// An event type holds the handlers subscribed to it and invokes all of them,
// in subscription order, when the event is emitted. Delivery is immediate:
// Emit returns after every handler has returned. There is no queue.
//
// # Declaring Events
//
// The ready-made types cover up to three arguments:
//
//	var moved event.Event2[int, int]
//
//	tok := moved.Subscribe(func(x, y int) {
//	    fmt.Println("moved to", x, y)
//	})
//	moved.Emit(3, 4)
//	moved.Unsubscribe(tok)
//
// Handlers and Emit arguments are checked by the compiler. For named events
// with any number of parameters, `eventd generate` writes one concrete type per
// declaration on top of Base.
//
// # Variants
//
// Options select the variant when the event is first used:
//
//   - Mutability: ReadOnly passes may overlap (concurrent or nested emits).
//     Mutable passes are exclusive: thread-safe events serialize them and
//     single-threaded events panic with ErrReentrantEmit on a nested emit.
//   - Concurrency: ThreadSafe events lock their registry; SingleThreaded events
//     do not and must stay on one goroutine.
//   - Ownership is chosen per subscription: Subscribe hands the handler to the
//     event, which drops it on Unsubscribe. SubscribeShared registers a
//     reference-counted Handle that outlives the subscription while other
//     holders keep it.
//
// The zero value of every event type is ReadOnly and ThreadSafe.
//
// # Reentrancy
//
// A pass dispatches to the subscriptions live when it started. Handlers may
// subscribe and unsubscribe on the event being dispatched:
//
//   - handlers subscribed during a pass are first invoked by the next pass
//   - handlers unsubscribed before their turn are skipped
//   - handlers already invoked are unaffected
//
// No lock is held while a handler runs, so this never deadlocks.
//
// # Failures
//
// A panicking handler aborts the pass and the panic reaches the Emit caller;
// later handlers are not invoked. Checked events apply the same rule to
// returned errors. Unsubscribe with an unknown, stale or foreign token returns
// false and has no other effect.
package event
