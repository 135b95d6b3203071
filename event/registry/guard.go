package registry

import "sync"

// Guard is the synchronization strategy of a registry.
// *sync.RWMutex satisfies it.
type Guard interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

// NopGuard performs no synchronization.
// Registries using it must not be shared between goroutines.
type NopGuard struct{}

func (NopGuard) Lock()    {}
func (NopGuard) Unlock()  {}
func (NopGuard) RLock()   {}
func (NopGuard) RUnlock() {}

// Option configures a Registry created by New.
type Option func(*config)

type config struct {
	guard Guard
}

func defaultConfig() config {
	return config{guard: &sync.RWMutex{}}
}

// WithGuard sets the synchronization strategy.
func WithGuard(g Guard) Option {
	return func(c *config) {
		if g != nil {
			c.guard = g
		}
	}
}

// Unsynchronized makes the registry single-goroutine.
func Unsynchronized() Option {
	return func(c *config) {
		c.guard = NopGuard{}
	}
}
