package hostwl

import "github.com/bnema/wlturbo"

// wlturbo generates no data-device/data-offer/data-source types (core
// wl_* only, per its wl/wl.go alias list), so the clipboard/DnD bridge
// needs its own wrappers here, in the same BaseProxy-embedding style
// as xdgWmBase/xdgActivation above. wl_data_device_manager is the
// Wayland half of spec.md §4.6's clipboard bridge: CLIPBOARD maps onto
// wl_data_device's selection, DnD maps onto its enter/motion/drop
// sequence and wl_data_source's start_drag.

// wlDataDeviceManager wraps the required-if-present wl_data_device_manager global.
type wlDataDeviceManager struct {
	wlturbo.BaseProxy
	ctx *wlturbo.Context
}

func newWlDataDeviceManager(ctx *wlturbo.Context, id uint32) *wlDataDeviceManager {
	m := &wlDataDeviceManager{ctx: ctx}
	m.SetID(id)
	ctx.Register(m)
	return m
}

func (m *wlDataDeviceManager) Dispatch(*wlturbo.Event) {}

// CreateDataSource allocates a wl_data_source to offer MIME types on
// (internal/clipboard uses this when an X client announces CLIPBOARD
// ownership and the host side needs a matching offer).
func (m *wlDataDeviceManager) CreateDataSource() *wlDataSource {
	const reqCreateDataSource = 0
	s := &wlDataSource{ctx: m.ctx}
	s.SetID(m.ctx.AllocateID())
	m.ctx.Register(s)
	_ = m.ctx.SendRequest(m, reqCreateDataSource, s.ID())
	return s
}

// GetDataDevice returns the per-seat wl_data_device that delivers
// selection/drag-and-drop events.
func (m *wlDataDeviceManager) GetDataDevice(seat *wlturbo.Seat) *wlDataDevice {
	const reqGetDataDevice = 1
	d := &wlDataDevice{ctx: m.ctx}
	d.SetID(m.ctx.AllocateID())
	m.ctx.Register(d)
	_ = m.ctx.SendRequest(m, reqGetDataDevice, d.ID(), seat.ID())
	return d
}

// wlDataSource wraps wl_data_source: one offer per MIME type the
// owner (X client, via internal/clipboard) makes available.
type wlDataSource struct {
	wlturbo.BaseProxy
	ctx *wlturbo.Context

	// OnTarget fires when the host names the MIME type a paste
	// target expects (target is the "what should send deliver"
	// negotiation wl_data_source exposes).
	OnTarget func(mimeType string)
	// OnSend fires when a host client actually requests the data;
	// internal/clipboard writes the transfer bytes to fd and closes
	// it (spec.md §4.6's lazy pipe-based transfer).
	OnSend func(mimeType string, fd uintptr)
	// OnCancel fires once this source is no longer the selection
	// owner (superseded or explicitly cleared).
	OnCancel func()
}

func (s *wlDataSource) Dispatch(e *wlturbo.Event) {
	switch e.Opcode {
	case 0: // target
		if s.OnTarget != nil {
			s.OnTarget(e.String())
		}
	case 1: // send
		mime := e.String()
		fd := e.Fd()
		if s.OnSend != nil {
			s.OnSend(mime, fd)
		}
	case 2: // cancel
		if s.OnCancel != nil {
			s.OnCancel()
		}
	}
}

// Offer advertises one MIME type this source can deliver.
func (s *wlDataSource) Offer(mimeType string) {
	const reqOffer = 0
	_ = s.ctx.SendRequest(s, reqOffer, mimeType)
}

// Destroy releases the source once it stops being the selection owner.
func (s *wlDataSource) Destroy() {
	const reqDestroy = 1
	_ = s.ctx.SendRequest(s, reqDestroy)
}

// wlDataOffer wraps wl_data_offer: the host's announcement of one
// selection/drag payload and the MIME types it can be converted to.
type wlDataOffer struct {
	wlturbo.BaseProxy
	ctx *wlturbo.Context

	mimeTypes []string
	// OnOffer fires once per MIME type as the host enumerates them;
	// internal/clipboard accumulates these into the TARGETS answer an
	// X client's ConvertSelection(TARGETS) expects.
	OnOffer func(mimeType string)
}

func (o *wlDataOffer) Dispatch(e *wlturbo.Event) {
	if e.Opcode == 0 { // offer
		mime := e.String()
		o.mimeTypes = append(o.mimeTypes, mime)
		if o.OnOffer != nil {
			o.OnOffer(mime)
		}
	}
}

// MimeTypes returns every MIME type offered so far.
func (o *wlDataOffer) MimeTypes() []string { return append([]string(nil), o.mimeTypes...) }

// Accept tells the host which MIME type a drag target will use
// (mimeType == "" declines).
func (o *wlDataOffer) Accept(serial uint32, mimeType string) {
	const reqAccept = 0
	_ = o.ctx.SendRequest(o, reqAccept, serial, mimeType)
}

// Receive asks the host to stream mimeType's bytes into fd; the
// caller owns the write end and must close it after forwarding.
func (o *wlDataOffer) Receive(mimeType string, fd int) {
	const reqReceive = 1
	_ = o.ctx.SendRequestWithFDs(o, reqReceive, []int{fd}, mimeType)
}

// Destroy releases the offer once internal/clipboard is done with it.
func (o *wlDataOffer) Destroy() {
	const reqDestroy = 2
	_ = o.ctx.SendRequest(o, reqDestroy)
}

// wlDataDevice wraps wl_data_device: the per-seat stream of
// selection-ownership and drag-and-drop events.
type wlDataDevice struct {
	wlturbo.BaseProxy
	ctx *wlturbo.Context

	pending *wlDataOffer // announced via data_offer, not yet tied to enter/selection

	// OnSelection fires when offer becomes (or stops being, on nil)
	// the clipboard's current contents.
	OnSelection func(offer *wlDataOffer)
	// OnEnter/OnMotion/OnLeave/OnDrop carry a drag-and-drop session
	// through the same events XDND drives on the X side (spec.md
	// §4.6: "host position updates replayed as XdndPosition").
	OnEnter  func(serial uint32, surfaceID uint32, x, y wlturbo.Fixed, offer *wlDataOffer)
	OnMotion func(time uint32, x, y wlturbo.Fixed)
	OnLeave  func()
	OnDrop   func()
}

func (d *wlDataDevice) Dispatch(e *wlturbo.Event) {
	switch e.Opcode {
	case 0: // data_offer
		id := e.Uint32()
		offer := &wlDataOffer{ctx: d.ctx}
		offer.SetID(id)
		d.ctx.Register(offer)
		d.pending = offer
	case 1: // enter
		serial := e.Uint32()
		surfaceID := e.Uint32()
		x := e.Fixed()
		y := e.Fixed()
		offerID := e.Uint32()
		offer := d.pending
		if offer != nil && offer.ID() != offerID {
			offer = nil
		}
		if d.OnEnter != nil {
			d.OnEnter(serial, surfaceID, x, y, offer)
		}
	case 2: // leave
		if d.OnLeave != nil {
			d.OnLeave()
		}
	case 3: // motion
		time := e.Uint32()
		x := e.Fixed()
		y := e.Fixed()
		if d.OnMotion != nil {
			d.OnMotion(time, x, y)
		}
	case 4: // drop
		if d.OnDrop != nil {
			d.OnDrop()
		}
	case 5: // selection
		offerID := e.Uint32()
		offer := d.pending
		if offerID == 0 {
			offer = nil
		} else if offer != nil && offer.ID() != offerID {
			offer = nil
		}
		if d.OnSelection != nil {
			d.OnSelection(offer)
		}
	}
}

// SetSelection makes source the clipboard's new owner, or clears the
// clipboard when source is nil.
func (d *wlDataDevice) SetSelection(source *wlDataSource, serial uint32) {
	const reqSetSelection = 1
	var sourceID uint32
	if source != nil {
		sourceID = source.ID()
	}
	_ = d.ctx.SendRequest(d, reqSetSelection, sourceID, serial)
}

// StartDrag re-emits an XDND session XWM terminated as a host drag,
// carrying the same source and MIME types (spec.md §4.6).
func (d *wlDataDevice) StartDrag(source *wlDataSource, origin wlturbo.Proxy, serial uint32) {
	const reqStartDrag = 0
	_ = d.ctx.SendRequest(d, reqStartDrag, source.ID(), origin.ID(), uint32(0), serial)
}
