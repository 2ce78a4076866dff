package hostwl

import (
	"fmt"

	"github.com/bnema/wlturbo"
)

// RawProxy is a generic BaseProxy for host globals spec.md §4.3 marks
// pass-through (wl_subcompositor, wl_shm, zwp_linux_dmabuf_v1,
// wl_data_device_manager and friends) that wlturbo has no typed
// binding for and that internal/xwayserver only needs to relay, not
// interpret. Every argument these protocols exchange is either a
// plain scalar or an object/new_id (itself a uint32 on the wire), so
// a single untyped proxy plus a declarative arg-shape table in
// internal/xwayserver is enough to relay them correctly without a
// per-protocol generated binding.
type RawProxy struct {
	wlturbo.BaseProxy
	ctx     *wlturbo.Context
	onEvent func(opcode uint16, data []byte)
}

func (p *RawProxy) Dispatch(e *wlturbo.Event) {
	if p.onEvent != nil {
		p.onEvent(e.Opcode, e.Data())
	}
}

// Send forwards a request with already-decoded arguments.
func (p *RawProxy) Send(opcode uint32, args ...any) error {
	return p.ctx.SendRequest(p, opcode, args...)
}

// SendWithFDs forwards a request carrying file descriptors (e.g.
// wl_shm.create_pool's fd argument).
func (p *RawProxy) SendWithFDs(opcode uint32, fds []int, args ...any) error {
	return p.ctx.SendRequestWithFDs(p, opcode, fds, args...)
}

// GlobalName returns the host's advertised name for iface, for
// binding globals internal/xwayserver relays but hostwl does not
// track as a typed field.
func (c *Client) GlobalName(iface string) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range c.globals {
		if g.iface == iface {
			return g.name, true
		}
	}
	return 0, false
}

// BindRaw binds a host global generically, registering a RawProxy
// that forwards its events to onEvent.
func (c *Client) BindRaw(iface string, onEvent func(opcode uint16, data []byte)) (*RawProxy, error) {
	name, ok := c.GlobalName(iface)
	if !ok {
		return nil, fmt.Errorf("hostwl: global %q not advertised", iface)
	}
	id, err := c.registry.BindID(name, iface, 1)
	if err != nil {
		return nil, fmt.Errorf("hostwl: bind %q: %w", iface, err)
	}
	p := &RawProxy{ctx: c.ctx, onEvent: onEvent}
	p.SetID(id)
	c.ctx.Register(p)
	return p, nil
}

// NewRawChild allocates and registers a new host-side object id for a
// child created by a passthrough request (e.g. wl_shm.create_pool's
// new_id), wiring its events to onEvent.
func (c *Client) NewRawChild(onEvent func(opcode uint16, data []byte)) *RawProxy {
	p := &RawProxy{ctx: c.ctx, onEvent: onEvent}
	p.SetID(c.ctx.AllocateID())
	c.ctx.Register(p)
	return p
}
