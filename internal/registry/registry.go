// Package registry holds the shared indices that glue the X11 window
// manager, the Xwayland-facing Wayland server and the host-side
// Wayland client together: X window records, server-side surface
// records, the association table between them, and the two pending
// tables used while a WL_SURFACE_ID/WL_SURFACE_SERIAL handshake is
// still in flight.
//
// The registry is the single process-wide state object spec.md §9
// permits. It is built once at startup and is not reentrant: every
// method is expected to run on the event-loop goroutine.
package registry

import "fmt"

// XWindow is an X11 window record, keyed by its X id.
type XWindow struct {
	ID               uint32
	OverrideRedirect bool
	Mapped           bool

	X, Y, Width, Height int32

	WMClass       string
	WMInstance    string
	WMName        string
	NetWMName     string
	TransientFor  uint32
	WindowType    string
	NetWMState    map[string]bool
	Protocols     map[string]bool
	PID           uint32

	// WantRole is the XWM's map-policy classification (spec.md §4.4);
	// the surface-association engine reads it to decide which host
	// role to install once the X window's wl_surface is known.
	WantRole RoleKind

	// Surface is set once an association exists; nil otherwise.
	Surface *ServerSurface
}

// SurfaceState is the explicit per-surface state machine from
// spec.md §9: New -> AwaitingAssociation -> AwaitingConfigure -> Live,
// with Destroyed reachable from any state.
type SurfaceState int

const (
	StateNew SurfaceState = iota
	StateAwaitingAssociation
	StateAwaitingConfigure
	StateLive
	StateDestroyed
)

func (s SurfaceState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateAwaitingAssociation:
		return "awaiting-association"
	case StateAwaitingConfigure:
		return "awaiting-configure"
	case StateLive:
		return "live"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// RoleKind is the host role a server surface ends up wearing.
type RoleKind int

const (
	RoleNone RoleKind = iota
	RoleToplevel
	RolePopup
)

// PendingBuffer is a commit that arrived before the surface had a
// role and an ack'd configure; it is replayed once both exist.
type PendingBuffer struct {
	BufferID uint32
	X, Y     int32
	Damage   [][4]int32
}

// ServerSurface is the server-side object record for a wl_surface
// Xwayland created on the Xwayland-facing server (component 4.3).
type ServerSurface struct {
	ObjID uint32
	State SurfaceState
	Role  RoleKind

	// ViewportSrc/Dest are the last-installed wp_viewport rectangles.
	ViewportSrcW, ViewportSrcH     int32
	ViewportDestW, ViewportDestH   int32

	PendingBuffers []PendingBuffer

	// XWindow is set once associated; nil otherwise.
	XWindow *XWindow
}

// pendingSerial is the modern-path half-match record: either the
// xwayland_shell_v1.get_xwayland_surface request or the
// WL_SURFACE_SERIAL property has arrived, never both yet.
type pendingSerial struct {
	surface *ServerSurface
	xid     uint32
	haveSrf bool
	haveXID bool
}

// Registry is the shared bidirectional index.
type Registry struct {
	xwindows map[uint32]*XWindow
	surfaces map[uint32]*ServerSurface

	assocByX       map[uint32]*ServerSurface
	assocBySurface map[uint32]*XWindow

	pendingByID     map[uint32]uint32 // WL_SURFACE_ID -> X id (legacy)
	pendingBySerial map[uint64]*pendingSerial
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		xwindows:        make(map[uint32]*XWindow),
		surfaces:        make(map[uint32]*ServerSurface),
		assocByX:        make(map[uint32]*ServerSurface),
		assocBySurface:  make(map[uint32]*XWindow),
		pendingByID:     make(map[uint32]uint32),
		pendingBySerial: make(map[uint64]*pendingSerial),
	}
}

// AddXWindow inserts a newly created X window.
func (r *Registry) AddXWindow(w *XWindow) { r.xwindows[w.ID] = w }

// XWindow looks up an X window by id.
func (r *Registry) XWindow(id uint32) (*XWindow, bool) {
	w, ok := r.xwindows[id]
	return w, ok
}

// RemoveXWindow evicts an X window record. If it carries a live
// association, the server surface is detached but preserved, per
// spec.md §4.1.
func (r *Registry) RemoveXWindow(id uint32) {
	w, ok := r.xwindows[id]
	if !ok {
		return
	}
	if srf, ok := r.assocByX[id]; ok {
		srf.XWindow = nil
		delete(r.assocByX, id)
		delete(r.assocBySurface, srf.ObjID)
	}
	delete(r.xwindows, id)
	_ = w
}

// AddSurface inserts a newly created server-side surface.
func (r *Registry) AddSurface(s *ServerSurface) { r.surfaces[s.ObjID] = s }

// Surface looks up a server surface by object id.
func (r *Registry) Surface(objID uint32) (*ServerSurface, bool) {
	s, ok := r.surfaces[objID]
	return s, ok
}

// RemoveSurface evicts a server surface record, detaching (not
// destroying) any associated X window.
func (r *Registry) RemoveSurface(objID uint32) {
	_, ok := r.surfaces[objID]
	if !ok {
		return
	}
	if w, ok := r.assocBySurface[objID]; ok {
		w.Surface = nil
		delete(r.assocBySurface, objID)
		delete(r.assocByX, w.ID)
	}
	delete(r.surfaces, objID)
}

// Associate records a completed X-window <-> server-surface join.
// It does not install a role or send a configure; the
// surface-association engine calls Associate first and then does both.
func (r *Registry) Associate(w *XWindow, s *ServerSurface) {
	r.assocByX[w.ID] = s
	r.assocBySurface[s.ObjID] = w
	w.Surface = s
	s.XWindow = w
}

// AssociationForX returns the server surface associated to an X id, if any.
func (r *Registry) AssociationForX(xid uint32) (*ServerSurface, bool) {
	s, ok := r.assocByX[xid]
	return s, ok
}

// AssociationForSurface returns the X window associated to a server
// surface, if any.
func (r *Registry) AssociationForSurface(objID uint32) (*XWindow, bool) {
	w, ok := r.assocBySurface[objID]
	return w, ok
}

// --- Legacy (WL_SURFACE_ID) pending path ---

// PendingLegacyFromX records that X window xid named surfaceID via a
// WL_SURFACE_ID ClientMessage. Returns the surface immediately if it
// already registered (the server side arrived first).
func (r *Registry) PendingLegacyFromX(xid, surfaceID uint32) (*ServerSurface, bool) {
	if s, ok := r.surfaces[surfaceID]; ok {
		return s, true
	}
	r.pendingByID[surfaceID] = xid
	return nil, false
}

// PendingLegacyFromSurface checks whether an X window already named
// the just-created server surface objID, consuming that pending entry
// if so. It records nothing when no X window has named it yet.
func (r *Registry) PendingLegacyFromSurface(objID uint32) (uint32, bool) {
	for surfaceID, xid := range r.pendingByID {
		if surfaceID == objID {
			delete(r.pendingByID, surfaceID)
			return xid, true
		}
	}
	return 0, false
}

// ClearLegacyPending drops a pending legacy entry once resolved.
func (r *Registry) ClearLegacyPending(surfaceID uint32) { delete(r.pendingByID, surfaceID) }

// --- Modern (WL_SURFACE_SERIAL) pending path ---

// PendingSerialFromSurface records the xwayland_shell_v1 half of the
// match. Returns the already-known X id if the property half beat it.
func (r *Registry) PendingSerialFromSurface(serial uint64, s *ServerSurface) (uint32, bool) {
	p := r.pendingBySerial[serial]
	if p == nil {
		p = &pendingSerial{}
		r.pendingBySerial[serial] = p
	}
	p.surface = s
	p.haveSrf = true
	if p.haveXID {
		delete(r.pendingBySerial, serial)
		return p.xid, true
	}
	return 0, false
}

// PendingSerialFromX records the WL_SURFACE_SERIAL property half of
// the match. Returns the already-known surface if the request half
// beat it.
func (r *Registry) PendingSerialFromX(serial uint64, xid uint32) (*ServerSurface, bool) {
	p := r.pendingBySerial[serial]
	if p == nil {
		p = &pendingSerial{}
		r.pendingBySerial[serial] = p
	}
	p.xid = xid
	p.haveXID = true
	if p.haveSrf {
		delete(r.pendingBySerial, serial)
		return p.surface, true
	}
	return nil, false
}

// Stats is a small introspection helper used by tests and logging.
type Stats struct {
	XWindows, Surfaces, Associations, PendingLegacy, PendingSerial int
}

func (r *Registry) Stats() Stats {
	return Stats{
		XWindows:      len(r.xwindows),
		Surfaces:      len(r.surfaces),
		Associations:  len(r.assocByX),
		PendingLegacy: len(r.pendingByID),
		PendingSerial: len(r.pendingBySerial),
	}
}

// String implements fmt.Stringer for debug logging.
func (s Stats) String() string {
	return fmt.Sprintf("xwindows=%d surfaces=%d assoc=%d pending_legacy=%d pending_serial=%d",
		s.XWindows, s.Surfaces, s.Associations, s.PendingLegacy, s.PendingSerial)
}
