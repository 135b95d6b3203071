package luaevent

import (
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/zrkn/eventd/event"
)

// GlobalName is the Lua global holding the event functions.
const GlobalName = "eventd"

// handlersKey is the Lua global holding subscribed functions, keyed by token.
// Keeping them reachable from Lua prevents collection while subscribed.
const handlersKey = "_eventd_handlers"

// Module binds a Bus to one Lua state.
type Module struct {
	bus *Bus
	log *zap.Logger

	mu       sync.Mutex
	L        *lua.LState
	handlers *lua.LTable
	subs     map[string]subscription
}

type subscription struct {
	event string
	tok   event.Token
}

// NewModule creates a module for bus. A nil logger disables logging.
func NewModule(bus *Bus, log *zap.Logger) *Module {
	if log == nil {
		log = zap.NewNop()
	}
	return &Module{
		bus:  bus,
		log:  log,
		subs: make(map[string]subscription),
	}
}

// Register installs the module into L.
func (m *Module) Register(L *lua.LState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L != nil {
		return errors.New("luaevent: module already registered")
	}

	m.L = L
	m.handlers = L.NewTable()
	L.SetGlobal(handlersKey, m.handlers)

	mod := L.NewTable()
	L.SetField(mod, "on", L.NewFunction(m.on))
	L.SetField(mod, "once", L.NewFunction(m.once))
	L.SetField(mod, "off", L.NewFunction(m.off))
	L.SetField(mod, "emit", L.NewFunction(m.emit))
	L.SetField(mod, "events", L.NewFunction(m.events))
	L.SetGlobal(GlobalName, mod)
	return nil
}

// Len returns the number of subscriptions made from Lua that are still live.
func (m *Module) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Close unsubscribes every Lua handler and detaches the module from its
// state. It should be called before the state is closed.
func (m *Module) Close() {
	m.mu.Lock()
	subs := m.subs
	m.subs = make(map[string]subscription)
	if m.L != nil {
		m.L.SetGlobal(handlersKey, lua.LNil)
	}
	m.L = nil
	m.handlers = nil
	m.mu.Unlock()

	for _, s := range subs {
		if ev, ok := m.bus.Event(s.event); ok {
			ev.Unsubscribe(s.tok)
		}
	}
}

// on(name, fn) -> token
func (m *Module) on(L *lua.LState) int {
	return m.subscribe(L, false)
}

// once(name, fn) -> token
// The handler is unsubscribed before its first call.
func (m *Module) once(L *lua.LState) int {
	return m.subscribe(L, true)
}

func (m *Module) subscribe(L *lua.LState, once bool) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)

	ev, ok := m.bus.Event(name)
	if !ok {
		L.ArgError(1, "unknown event "+name)
		return 0
	}

	// The token is only known after subscribing; nothing can emit in between
	// because the state is single-threaded.
	var key string
	handler := func(p Payload) error {
		if once {
			m.forget(key)
		}
		return m.call(L, key, fn, p)
	}

	var tok event.Token
	if once {
		tok = ev.SubscribeOnce(handler)
	} else {
		tok = ev.Subscribe(handler)
	}
	key = tok.String()

	m.mu.Lock()
	if m.handlers != nil {
		m.handlers.RawSetString(key, fn)
	}
	m.subs[key] = subscription{event: name, tok: tok}
	m.mu.Unlock()

	L.Push(lua.LString(key))
	return 1
}

// off(token) -> bool
func (m *Module) off(L *lua.LState) int {
	key := L.CheckString(1)
	if _, err := event.ParseToken(key); err != nil {
		L.ArgError(1, err.Error())
		return 0
	}

	s, ok := m.forget(key)
	if !ok {
		L.Push(lua.LFalse)
		return 1
	}
	removed := false
	if ev, ok := m.bus.Event(s.event); ok {
		removed = ev.Unsubscribe(s.tok)
	}
	L.Push(lua.LBool(removed))
	return 1
}

// emit(name, data?)
// Raises the first handler error.
func (m *Module) emit(L *lua.LState) int {
	name := L.CheckString(1)

	payload := Payload{}
	if tbl := L.OptTable(2, nil); tbl != nil {
		payload = tableToPayload(tbl)
	}

	if err := m.bus.Emit(name, payload); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// events() -> {name, ...}
func (m *Module) events(L *lua.LState) int {
	tbl := L.NewTable()
	for i, name := range m.bus.Names() {
		tbl.RawSetInt(i+1, lua.LString(name))
	}
	L.Push(tbl)
	return 1
}

func (m *Module) forget(key string) (subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[key]
	if !ok {
		return s, false
	}
	delete(m.subs, key)
	if m.handlers != nil {
		m.handlers.RawSetString(key, lua.LNil)
	}
	return s, true
}

// call runs a Lua handler. A raised error or a returned string fails it.
func (m *Module) call(L *lua.LState, key string, fn *lua.LFunction, p Payload) error {
	m.mu.Lock()
	detached := m.L == nil
	m.mu.Unlock()
	if detached {
		return nil
	}

	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, toLuaValue(L, p)); err != nil {
		m.log.Debug("lua handler raised", zap.String("token", key), zap.Error(err))
		return fmt.Errorf("lua handler %s: %w", key, err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	if s, ok := ret.(lua.LString); ok {
		return errors.New(string(s))
	}
	return nil
}
