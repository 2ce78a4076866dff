package hostwl

import (
	"fmt"
	"os"
)

// PrimarySelectionDevice is internal/clipboard's view of the
// zwp_primary_selection_device_manager_v1 half of spec.md §4.6's
// bridge, mirroring ClipboardDevice but for PRIMARY rather than
// CLIPBOARD (no drag-and-drop, no target negotiation).
type PrimarySelectionDevice struct {
	device  *zwpPrimarySelectionDevice
	manager *zwpPrimarySelectionDeviceManager
}

// PrimarySelectionDevice binds the per-seat PRIMARY selection device.
// Absent the optional protocol, callers fall back to mirroring PRIMARY
// through CLIPBOARD's mechanism alone (spec.md §4.6 treats the
// protocol as optional host support).
func (c *Client) PrimarySelectionDevice() (*PrimarySelectionDevice, error) {
	if c.primarySelectionMgr == nil {
		return nil, fmt.Errorf("hostwl: zwp_primary_selection_device_manager_v1 not available")
	}
	c.mu.Lock()
	var seat *Seat
	for _, s := range c.seats {
		seat = s
		break
	}
	c.mu.Unlock()
	if seat == nil {
		return nil, fmt.Errorf("hostwl: no wl_seat to bind a primary selection device to")
	}
	return &PrimarySelectionDevice{device: c.primarySelectionMgr.GetDevice(seat.seat), manager: c.primarySelectionMgr}, nil
}

// SetOnSelection fires whenever the host's PRIMARY selection changes.
func (d *PrimarySelectionDevice) SetOnSelection(fn func(offer *PrimarySelectionOffer)) {
	d.device.OnSelection = func(o *zwpPrimarySelectionOffer) {
		if o == nil {
			fn(nil)
			return
		}
		fn(&PrimarySelectionOffer{offer: o})
	}
}

// NewSource allocates a zwp_primary_selection_source to announce the
// MIME types an X PRIMARY owner currently offers.
func (d *PrimarySelectionDevice) NewSource() *PrimarySelectionSource {
	return &PrimarySelectionSource{source: d.manager.CreateSource()}
}

// SetSelection makes src the host's new PRIMARY owner (nil clears it).
func (d *PrimarySelectionDevice) SetSelection(src *PrimarySelectionSource, serial uint32) {
	var s *zwpPrimarySelectionSource
	if src != nil {
		s = src.source
	}
	d.device.SetSelection(s, serial)
}

// PrimarySelectionOffer mirrors ClipboardOffer for PRIMARY.
type PrimarySelectionOffer struct {
	offer *zwpPrimarySelectionOffer
}

// MimeTypes lists every MIME type the offer has announced so far.
func (o *PrimarySelectionOffer) MimeTypes() []string { return o.offer.MimeTypes() }

// Receive starts the lazy transfer for a PRIMARY payload.
func (o *PrimarySelectionOffer) Receive(mimeType string) (*os.File, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("hostwl: primary selection receive pipe: %w", err)
	}
	o.offer.Receive(mimeType, int(w.Fd()))
	w.Close()
	return r, nil
}

// PrimarySelectionSource mirrors ClipboardSource for PRIMARY.
type PrimarySelectionSource struct {
	source *zwpPrimarySelectionSource
}

// Offer advertises one MIME type this source can deliver.
func (s *PrimarySelectionSource) Offer(mimeType string) { s.source.Offer(mimeType) }

// SetOnSend fires when a host client requests mimeType.
func (s *PrimarySelectionSource) SetOnSend(fn func(mimeType string, w *os.File)) {
	s.source.OnSend = func(mimeType string, fd uintptr) {
		fn(mimeType, os.NewFile(fd, "primary-send"))
	}
}

// SetOnCancel fires once this source stops being the selection owner.
func (s *PrimarySelectionSource) SetOnCancel(fn func()) { s.source.OnCancel = fn }

// Destroy releases the source.
func (s *PrimarySelectionSource) Destroy() { s.source.Destroy() }
