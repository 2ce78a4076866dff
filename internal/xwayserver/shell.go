package xwayserver

import "github.com/bnema/satellite/internal/wire"

// xwayland_shell_v1 and its per-surface xwayland_surface_v1 child carry
// the modern half of spec.md §4.5's association handshake: Xwayland
// calls get_xwayland_surface right after wl_compositor.create_surface,
// then set_serial once it has generated the serial it will also write
// to the X window's WL_SURFACE_SERIAL property.
const (
	reqShellGetXwaylandSurface = 0

	reqXwaylandSurfaceSetSerial = 0
)

// handleXwaylandShell answers get_xwayland_surface(new_id, wl_surface),
// tracking the new object only for the serial it will carry; it has no
// host-side peer of its own.
func (s *Server) handleXwaylandShell(msg *wire.Message) error {
	if msg.Opcode != reqShellGetXwaylandSurface {
		return nil
	}
	r := wire.NewReader(msg.Data)
	newID, err := r.Uint32()
	if err != nil {
		return err
	}
	surfaceID, err := r.Uint32()
	if err != nil {
		return err
	}
	s.objects[newID] = &Object{ID: newID, Interface: "xwayland_surface_v1", Kind: KindIntercepted, SurfaceObjID: surfaceID}
	return nil
}

// handleXwaylandSurface answers set_serial(serial_lo, serial_hi),
// combining the two words low-word-first (the same order the
// WL_SURFACE_SERIAL X property uses) and feeding the result into the
// registry's pending-serial table. A match fires OnSurfaceSerialMatched
// immediately; internal/assoc does the actual role install.
func (s *Server) handleXwaylandSurface(obj *Object, msg *wire.Message) error {
	if msg.Opcode != reqXwaylandSurfaceSetSerial {
		return nil
	}
	r := wire.NewReader(msg.Data)
	lo, err := r.Uint32()
	if err != nil {
		return err
	}
	hi, err := r.Uint32()
	if err != nil {
		return err
	}
	serial := uint64(hi)<<32 | uint64(lo)

	srf, ok := s.reg.Surface(obj.SurfaceObjID)
	if !ok {
		return nil
	}
	if xid, matched := s.reg.PendingSerialFromSurface(serial, srf); matched && s.OnSurfaceSerialMatched != nil {
		s.OnSurfaceSerialMatched(xid, obj.SurfaceObjID)
	}
	return nil
}
