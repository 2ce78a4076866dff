// Package hostwl is the satellite's Wayland client to the host
// compositor (spec.md §4.2). It discovers host globals, tracks
// outputs and seats, and installs xdg roles on behalf of X windows
// that the XWM and the surface-association engine have classified.
package hostwl

import (
	"fmt"
	"sync"

	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/wlturbo"
)

// Client wraps the host-facing Wayland connection.
type Client struct {
	display  *wlturbo.Display
	registry *wlturbo.Registry
	ctx      *wlturbo.Context

	mu      sync.Mutex
	globals map[uint32]globalInfo

	compositor          *wlturbo.Compositor
	subcompositor       uint32 // global name; wlturbo has no generated object, bound lazily
	shm                 uint32
	xdgWmBase           *xdgWmBase
	viewporter          *wpViewporter
	dmabuf              uint32
	activation          *xdgActivation
	exporter            uint32
	importer            uint32
	pointerConstraints  *zwpPointerConstraints
	relativePointerMgr  uint32
	fractionalScaleMgr  *wpFractionalScaleManager
	primarySelectionMgr *zwpPrimarySelectionDeviceManager
	dataDeviceMgr       *wlDataDeviceManager

	outputs map[uint32]*Output
	seats   map[uint32]*Seat

	onOutputsChanged func()

	workCh chan func()
}

type globalInfo struct {
	name    uint32
	iface   string
	version uint32
}

// requiredGlobals must be present; their absence is a fatal startup
// error per spec.md §4.2/§7.
var requiredGlobals = []string{"xdg_wm_base", "wp_viewporter"}

// Connect dials the host Wayland display (WAYLAND_DISPLAY/
// XDG_RUNTIME_DIR, resolved by wlturbo.Connect the same way the
// teacher's internal/wayland.Connect does) and performs the initial
// registry roundtrip.
func Connect() (*Client, error) {
	display, err := wlturbo.Connect("")
	if err != nil {
		return nil, fmt.Errorf("hostwl: connect to host compositor: %w", err)
	}

	c := &Client{
		display: display,
		ctx:     display.Context(),
		globals: make(map[uint32]globalInfo),
		outputs: make(map[uint32]*Output),
		seats:   make(map[uint32]*Seat),
		workCh:  make(chan func(), 64),
	}

	c.registry = display.GetRegistry()
	c.registry.AddGlobalHandler(c)
	c.registry.AddGlobalRemoveHandler(c)

	if err := display.Roundtrip(); err != nil {
		return nil, fmt.Errorf("hostwl: initial roundtrip: %w", err)
	}

	for _, req := range requiredGlobals {
		if !c.has(req) {
			return nil, fmt.Errorf("hostwl: required host global %q not advertised", req)
		}
	}

	return c, nil
}

func (c *Client) has(iface string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range c.globals {
		if g.iface == iface {
			return true
		}
	}
	return false
}

// HandleRegistryGlobal implements wlturbo.RegistryGlobalHandler.
func (c *Client) HandleRegistryGlobal(event wlturbo.RegistryGlobalEvent) {
	c.mu.Lock()
	c.globals[event.Name] = globalInfo{name: event.Name, iface: event.Interface, version: event.Version}
	c.mu.Unlock()

	switch event.Interface {
	case "wl_compositor":
		comp := wlturbo.NewCompositor(c.ctx)
		id, err := c.registry.BindID(event.Name, event.Interface, event.Version)
		if err != nil {
			logger.Warnf("hostwl: bind wl_compositor: %v", err)
			return
		}
		comp.SetID(id)
		c.ctx.Register(comp)
		c.compositor = comp

	case "wl_subcompositor":
		c.subcompositor = event.Name

	case "wl_shm":
		c.shm = event.Name

	case "wl_seat":
		id, err := c.registry.BindID(event.Name, event.Interface, event.Version)
		if err != nil {
			logger.Warnf("hostwl: bind wl_seat: %v", err)
			return
		}
		seat := wlturbo.NewSeat(c.ctx)
		seat.SetID(id)
		c.ctx.Register(seat)
		c.mu.Lock()
		c.seats[event.Name] = &Seat{Name: event.Name, seat: seat}
		c.mu.Unlock()

	case "wl_output":
		id, err := c.registry.BindID(event.Name, event.Interface, event.Version)
		if err != nil {
			logger.Warnf("hostwl: bind wl_output: %v", err)
			return
		}
		proxy := &outputProxy{client: c, name: event.Name}
		proxy.SetContext(c.ctx)
		proxy.SetID(id)
		c.ctx.Register(proxy)
		c.mu.Lock()
		c.outputs[event.Name] = &Output{Name: event.Name, Scale: 1}
		c.mu.Unlock()

	case "xdg_wm_base":
		id, err := c.registry.BindID(event.Name, event.Interface, event.Version)
		if err != nil {
			logger.Warnf("hostwl: bind xdg_wm_base: %v", err)
			return
		}
		c.xdgWmBase = newXdgWmBase(c.ctx, id)

	case "wp_viewporter":
		id, err := c.registry.BindID(event.Name, event.Interface, event.Version)
		if err != nil {
			logger.Warnf("hostwl: bind wp_viewporter: %v", err)
			return
		}
		c.viewporter = newWpViewporter(c.ctx, id)

	case "zwp_linux_dmabuf_v1":
		c.dmabuf = event.Name

	case "xdg_activation_v1":
		id, err := c.registry.BindID(event.Name, event.Interface, event.Version)
		if err == nil {
			c.activation = newXdgActivation(c.ctx, id)
		}

	case "zxdg_exporter_v2":
		c.exporter = event.Name
	case "zxdg_importer_v2":
		c.importer = event.Name

	case "zwp_pointer_constraints_v1":
		id, err := c.registry.BindID(event.Name, event.Interface, event.Version)
		if err == nil {
			c.pointerConstraints = newPointerConstraints(c.ctx, id)
		}
	case "zwp_relative_pointer_manager_v1":
		c.relativePointerMgr = event.Name
	case "wp_fractional_scale_manager_v1":
		id, err := c.registry.BindID(event.Name, event.Interface, event.Version)
		if err == nil {
			c.fractionalScaleMgr = newFractionalScaleManager(c.ctx, id)
		}
	case "zwp_primary_selection_device_manager_v1":
		id, err := c.registry.BindID(event.Name, event.Interface, event.Version)
		if err == nil {
			c.primarySelectionMgr = newZwpPrimarySelectionDeviceManager(c.ctx, id)
		}
	case "wl_data_device_manager":
		id, err := c.registry.BindID(event.Name, event.Interface, event.Version)
		if err == nil {
			c.dataDeviceMgr = newWlDataDeviceManager(c.ctx, id)
		}
	}
}

// HandleRegistryGlobalRemove implements wlturbo.RegistryGlobalRemoveHandler.
// spec.md §7: a host global disappearing at runtime disables the
// dependent feature rather than crashing the satellite.
func (c *Client) HandleRegistryGlobalRemove(event wlturbo.RegistryGlobalRemoveEvent) {
	c.mu.Lock()
	if g, ok := c.globals[event.Name]; ok {
		logger.Warnf("hostwl: host global %s (name=%d) disappeared at runtime", g.iface, event.Name)
	}
	_, wasOutput := c.outputs[event.Name]
	delete(c.globals, event.Name)
	delete(c.outputs, event.Name)
	delete(c.seats, event.Name)
	fn := c.onOutputsChanged
	c.mu.Unlock()
	if wasOutput && fn != nil {
		fn()
	}
}

// SetOutputsChangedHandler installs the callback internal/xwayserver
// uses to recompute its X-screen output layout whenever a host
// output's geometry settles (a wl_output.done event) or the output
// disappears. fn may be called from the host-dispatch goroutine
// (see Run); it must hop back onto the event-loop goroutine before
// touching shared state, the same discipline Run's doc comment
// describes for role callbacks.
func (c *Client) SetOutputsChangedHandler(fn func()) {
	c.mu.Lock()
	c.onOutputsChanged = fn
	c.mu.Unlock()
}

func (c *Client) notifyOutputsChanged() {
	c.mu.Lock()
	fn := c.onOutputsChanged
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Disconnect tears down the host connection.
func (c *Client) Disconnect() {
	if c.display != nil {
		_ = c.display.Close()
	}
}

// Dispatch blocks until the host compositor has sent at least one
// message and processes it, invoking whatever Proxy.Dispatch the
// message targets (xdg_toplevel's OnConfigure/OnClose, etc.).
//
// wlturbo keeps its socket fd unexported, so unlike the X11 and
// Xwayland-listener sides (internal/x11wire, internal/xwayserver) this
// connection cannot join internal/loop's unix.Poll set directly. Run
// dedicates a goroutine to this blocking call and hands decoded work
// back to the single-threaded loop as plain closures, so registry and
// XWM state is still only ever mutated on the loop goroutine.
func (c *Client) Dispatch() error { return c.display.Dispatch() }

// Run starts the dedicated host-dispatch goroutine and returns
// immediately. Every event the host compositor delivers ends up
// invoking a Proxy.Dispatch callback on this goroutine; those
// callbacks (see roles.go) only ever touch their own handle state and
// optionally send a closure on work, which internal/loop drains on its
// own goroutine before touching shared state. The goroutine exits once
// done is closed (checked between Dispatch calls) or Dispatch returns
// an error, which is passed to onErr.
func (c *Client) Run(done <-chan struct{}, onErr func(error)) {
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			if err := c.Dispatch(); err != nil {
				if onErr != nil {
					onErr(err)
				}
				return
			}
		}
	}()
}

// postWork hands a closure from the host-dispatch goroutine back to
// whatever goroutine calls PumpWork (internal/loop's single-threaded
// iteration). It never blocks: a full queue drops the oldest pending
// closure rather than stall Dispatch, since role callbacks are always
// superseded by the X window's latest state on the next iteration
// anyway.
func (c *Client) postWork(fn func()) {
	select {
	case c.workCh <- fn:
	default:
		select {
		case <-c.workCh:
		default:
		}
		select {
		case c.workCh <- fn:
		default:
		}
	}
}

// Post lets other packages whose callbacks wlturbo invokes from the
// host-dispatch goroutine (internal/clipboard's data-device and
// data-source callbacks) hop onto the loop goroutine before touching
// shared state, the same discipline roles.go's role callbacks follow.
func (c *Client) Post(fn func()) { c.postWork(fn) }

// PumpWork drains every closure queued by role callbacks since the
// last call, running each on the caller's goroutine. internal/loop
// calls this once per event-loop iteration, the same discipline
// internal/xwayserver.Server.PumpOutputRefresh applies to host output
// changes.
func (c *Client) PumpWork() {
	for {
		select {
		case fn := <-c.workCh:
			fn()
		default:
			return
		}
	}
}

// Outputs returns a snapshot of currently known outputs.
func (c *Client) Outputs() []*Output {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Output, 0, len(c.outputs))
	for _, o := range c.outputs {
		out = append(out, o)
	}
	return out
}

// Seats returns a snapshot of currently known seats.
func (c *Client) Seats() []*Seat {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Seat, 0, len(c.seats))
	for _, s := range c.seats {
		out = append(out, s)
	}
	return out
}
