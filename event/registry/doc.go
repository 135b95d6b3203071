// Package registry provides the subscription registry behind every event type.
//
// A Registry holds an ordered collection of handler slots for exactly one
// handler type H. Every insertion returns a Token; the token is the only way
// to remove that registration again.
//
// # Slots and Tokens
//
// Slots live in a slab. Removing a registration frees its slot and bumps the
// slot's generation, so a later insertion may reuse the position without a stale
// token ever matching it:
//
//	token = owner : index : generation
//
// The owner part identifies the registry instance, which makes tokens from a
// different registry harmless no-ops. A slot whose generation is exhausted is
// retired rather than reused.
//
// # Dispatch
//
// Dispatch takes a snapshot of the live registrations at the start of the pass
// and then walks it in registration order. Every entry is re-validated right
// before its handler runs:
//
//   - a registration removed before its turn is skipped
//   - a registration added during the pass is not part of the snapshot
//   - a registration already invoked is unaffected by later removal
//
// No lock is held while a handler runs, so handlers may insert into or remove
// from the registry they are being dispatched from.
//
// # Ownership
//
// Handlers are stored behind a reference-counted Handle. A handle created for a
// single insertion is owned by the registry and destroyed on removal. A handle
// retained by several holders is shared: removal only detaches it.
//
// # Synchronization
//
// A Guard is the synchronization strategy. New uses a sync.RWMutex; a zero
// Registry, or one built with Unsynchronized, uses NopGuard and must stay on a
// single goroutine.
//
// Handler panics are never recovered here. They unwind through Dispatch to the
// caller and abort the remainder of the pass.
package registry
