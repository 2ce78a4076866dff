package hostwl

import (
	"fmt"
	"os"

	"github.com/bnema/wlturbo"
)

// ClipboardDevice is internal/clipboard's view of the host-side half
// of spec.md §4.6's bridge: it hides the raw wl_data_device/
// wl_data_source/wl_data_offer proxies behind the same kind of handle
// roles.go already gives the surface-association engine for
// xdg_toplevel/xdg_popup.
type ClipboardDevice struct {
	device  *wlDataDevice
	manager *wlDataDeviceManager
}

// DataDevice binds wl_data_device_manager's per-seat device (the
// clipboard/DnD event stream). It picks the first seat the host has
// advertised; spec.md never requires per-seat clipboard state.
func (c *Client) DataDevice() (*ClipboardDevice, error) {
	if c.dataDeviceMgr == nil {
		return nil, fmt.Errorf("hostwl: wl_data_device_manager not available")
	}
	c.mu.Lock()
	var seat *Seat
	for _, s := range c.seats {
		seat = s
		break
	}
	c.mu.Unlock()
	if seat == nil {
		return nil, fmt.Errorf("hostwl: no wl_seat to bind a data device to")
	}
	return &ClipboardDevice{device: c.dataDeviceMgr.GetDataDevice(seat.seat), manager: c.dataDeviceMgr}, nil
}

// SetOnSelection fires whenever the host's clipboard selection
// changes; offer is nil when the clipboard was cleared.
func (d *ClipboardDevice) SetOnSelection(fn func(offer *ClipboardOffer)) {
	d.device.OnSelection = func(o *wlDataOffer) {
		if o == nil {
			fn(nil)
			return
		}
		fn(&ClipboardOffer{offer: o})
	}
}

// SetOnDrag wires the drag-and-drop event sequence spec.md §4.6 maps
// onto XDND's Enter/Position/Drop on the X side.
func (d *ClipboardDevice) SetOnDrag(onEnter func(offer *ClipboardOffer, x, y float64), onMotion func(x, y float64), onLeave func(), onDrop func()) {
	d.device.OnEnter = func(_ uint32, _ uint32, x, y wlturbo.Fixed, o *wlDataOffer) {
		var offer *ClipboardOffer
		if o != nil {
			offer = &ClipboardOffer{offer: o}
		}
		if onEnter != nil {
			onEnter(offer, x.Float64(), y.Float64())
		}
	}
	d.device.OnMotion = func(_ uint32, x, y wlturbo.Fixed) {
		if onMotion != nil {
			onMotion(x.Float64(), y.Float64())
		}
	}
	d.device.OnLeave = onLeave
	d.device.OnDrop = onDrop
}

// NewSource allocates a wl_data_source to announce the MIME types an
// X selection owner currently offers.
func (d *ClipboardDevice) NewSource() *ClipboardSource {
	return &ClipboardSource{source: d.manager.CreateDataSource()}
}

// SetSelection makes src the host clipboard's new owner (src == nil
// clears it).
func (d *ClipboardDevice) SetSelection(src *ClipboardSource, serial uint32) {
	var s *wlDataSource
	if src != nil {
		s = src.source
	}
	d.device.SetSelection(s, serial)
}

// StartDrag re-emits an XDND session as a host drag carrying the same source.
func (d *ClipboardDevice) StartDrag(src *ClipboardSource, origin *HostSurface, serial uint32) {
	d.device.StartDrag(src.source, origin.Surface(), serial)
}

// ClipboardOffer is the host's announcement of one clipboard/DnD
// payload and the MIME types it can be converted to.
type ClipboardOffer struct {
	offer *wlDataOffer
}

// MimeTypes lists every MIME type the offer has announced so far.
func (o *ClipboardOffer) MimeTypes() []string { return o.offer.MimeTypes() }

// Receive starts the lazy transfer spec.md §4.6 describes: the host
// is asked to stream mimeType's bytes into a pipe, whose read end is
// returned for the caller to stream toward the X requester. The
// caller must close the returned file once done reading.
func (o *ClipboardOffer) Receive(mimeType string) (*os.File, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("hostwl: clipboard receive pipe: %w", err)
	}
	o.offer.Receive(mimeType, int(w.Fd()))
	w.Close()
	return r, nil
}

// ClipboardSource is a host-side wl_data_source internal/clipboard
// drives when an X client owns the selection.
type ClipboardSource struct {
	source *wlDataSource
}

// Offer advertises one MIME type this source can deliver.
func (s *ClipboardSource) Offer(mimeType string) { s.source.Offer(mimeType) }

// SetOnSend fires when a host client requests mimeType; w is the
// write end of the transfer pipe and must be closed once the caller
// finishes writing (or fails to).
func (s *ClipboardSource) SetOnSend(fn func(mimeType string, w *os.File)) {
	s.source.OnSend = func(mimeType string, fd uintptr) {
		fn(mimeType, os.NewFile(fd, "clipboard-send"))
	}
}

// SetOnCancel fires once this source stops being the selection owner.
func (s *ClipboardSource) SetOnCancel(fn func()) { s.source.OnCancel = fn }

// Destroy releases the source.
func (s *ClipboardSource) Destroy() { s.source.Destroy() }
