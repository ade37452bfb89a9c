package chat

import (
	"fmt"
	"sync"
)

// Dispatcher 上行事件名 -> Handler
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(hs ...Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range hs {
		d.handlers[h.Event()] = h
	}
}

func (d *Dispatcher) Dispatch(ctx *Context, f *Frame) error {
	h := d.GetHandler(f.Event)
	if h == nil {
		return fmt.Errorf("no handler for event=%s", f.Event)
	}
	return h.Handle(ctx, f)
}

func (d *Dispatcher) GetHandler(event string) Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers[event]
}
