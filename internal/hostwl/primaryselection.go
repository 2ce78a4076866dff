package hostwl

import "github.com/bnema/wlturbo"

// zwp_primary_selection_device_manager_v1 mirrors wl_data_device_manager's
// shape but only ever carries the PRIMARY selection: no drag-and-drop
// events, no target negotiation (spec.md §4.6 treats PRIMARY and
// CLIPBOARD identically other than which X atom they bind to).

type zwpPrimarySelectionDeviceManager struct {
	wlturbo.BaseProxy
	ctx *wlturbo.Context
}

func newZwpPrimarySelectionDeviceManager(ctx *wlturbo.Context, id uint32) *zwpPrimarySelectionDeviceManager {
	m := &zwpPrimarySelectionDeviceManager{ctx: ctx}
	m.SetID(id)
	ctx.Register(m)
	return m
}

func (m *zwpPrimarySelectionDeviceManager) Dispatch(*wlturbo.Event) {}

func (m *zwpPrimarySelectionDeviceManager) CreateSource() *zwpPrimarySelectionSource {
	const reqCreateSource = 0
	s := &zwpPrimarySelectionSource{ctx: m.ctx}
	s.SetID(m.ctx.AllocateID())
	m.ctx.Register(s)
	_ = m.ctx.SendRequest(m, reqCreateSource, s.ID())
	return s
}

func (m *zwpPrimarySelectionDeviceManager) GetDevice(seat *wlturbo.Seat) *zwpPrimarySelectionDevice {
	const reqGetDevice = 1
	d := &zwpPrimarySelectionDevice{ctx: m.ctx}
	d.SetID(m.ctx.AllocateID())
	m.ctx.Register(d)
	_ = m.ctx.SendRequest(m, reqGetDevice, d.ID(), seat.ID())
	return d
}

type zwpPrimarySelectionSource struct {
	wlturbo.BaseProxy
	ctx *wlturbo.Context

	OnSend   func(mimeType string, fd uintptr)
	OnCancel func()
}

func (s *zwpPrimarySelectionSource) Dispatch(e *wlturbo.Event) {
	switch e.Opcode {
	case 0: // send
		mime := e.String()
		fd := e.Fd()
		if s.OnSend != nil {
			s.OnSend(mime, fd)
		}
	case 1: // cancel
		if s.OnCancel != nil {
			s.OnCancel()
		}
	}
}

func (s *zwpPrimarySelectionSource) Offer(mimeType string) {
	const reqOffer = 0
	_ = s.ctx.SendRequest(s, reqOffer, mimeType)
}

func (s *zwpPrimarySelectionSource) Destroy() {
	const reqDestroy = 1
	_ = s.ctx.SendRequest(s, reqDestroy)
}

type zwpPrimarySelectionOffer struct {
	wlturbo.BaseProxy
	ctx *wlturbo.Context

	mimeTypes []string
}

func (o *zwpPrimarySelectionOffer) Dispatch(e *wlturbo.Event) {
	if e.Opcode == 0 { // offer
		o.mimeTypes = append(o.mimeTypes, e.String())
	}
}

func (o *zwpPrimarySelectionOffer) MimeTypes() []string { return append([]string(nil), o.mimeTypes...) }

func (o *zwpPrimarySelectionOffer) Receive(mimeType string, fd int) {
	const reqReceive = 0
	_ = o.ctx.SendRequestWithFDs(o, reqReceive, []int{fd}, mimeType)
}

func (o *zwpPrimarySelectionOffer) Destroy() {
	const reqDestroy = 1
	_ = o.ctx.SendRequest(o, reqDestroy)
}

type zwpPrimarySelectionDevice struct {
	wlturbo.BaseProxy
	ctx *wlturbo.Context

	pending *zwpPrimarySelectionOffer

	OnSelection func(offer *zwpPrimarySelectionOffer)
}

func (d *zwpPrimarySelectionDevice) Dispatch(e *wlturbo.Event) {
	switch e.Opcode {
	case 0: // data_offer
		id := e.Uint32()
		offer := &zwpPrimarySelectionOffer{ctx: d.ctx}
		offer.SetID(id)
		d.ctx.Register(offer)
		d.pending = offer
	case 1: // selection
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

func (d *zwpPrimarySelectionDevice) SetSelection(source *zwpPrimarySelectionSource, serial uint32) {
	const reqSetSelection = 0
	var sourceID uint32
	if source != nil {
		sourceID = source.ID()
	}
	_ = d.ctx.SendRequest(d, reqSetSelection, sourceID, serial)
}
