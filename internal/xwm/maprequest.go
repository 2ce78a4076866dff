package xwm

import (
	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/registry"
	"github.com/bnema/satellite/internal/x11wire"
)

// pendingClassify accumulates the property replies spec.md §4.4's map
// policy step 1 requires before a MapRequest can be classified; each
// async GetProperty reply fills in one field and decrements want.
type pendingClassify struct {
	xid              uint32
	x, y, w, h       int32
	wmClass          string
	wmName           string
	transientFor     uint32
	windowType       uint32
	takesFocus       bool
	wantsDelete      bool
	overrideRedirect bool
	want             int
}

// windowGeom is the geometry/override-redirect snapshot CreateNotify
// carries, kept around until the matching MapRequest (if any) arrives.
type windowGeom struct {
	x, y, w, h       int32
	overrideRedirect bool
}

// handleCreateNotify captures initial geometry and the
// override-redirect bit, the only event that reports either: a
// MapRequest on the same window carries neither.
func (w *XWM) handleCreateNotify(ev *x11wire.Event) {
	xid := ev.Window(4)
	w.createGeom[xid] = windowGeom{
		x:                int32(ev.Int16At(8)),
		y:                int32(ev.Int16At(10)),
		w:                int32(ev.Uint16At(12)),
		h:                int32(ev.Uint16At(14)),
		overrideRedirect: ev.Data[18] != 0,
	}
}

func (w *XWM) handleMapRequest(ev *x11wire.Event) {
	xid := ev.Window(4) // MapRequest carries only parent (Data0) and window (Data4)

	geom := w.createGeom[xid]
	delete(w.createGeom, xid)

	pc := &pendingClassify{xid: xid, x: geom.x, y: geom.y, w: geom.w, h: geom.h, overrideRedirect: geom.overrideRedirect}
	w.mapping[xid] = pc

	w.fetchProperty(pc, w.a.wmClass, w.a.utf8String, func(v []byte) { pc.wmClass = decodeWMClass(v) })
	w.fetchProperty(pc, w.a.wmTransientFor, w.a.byName["WINDOW"], func(v []byte) {
		if len(v) >= 4 {
			pc.transientFor = leUint32(v)
		}
	})
	w.fetchProperty(pc, w.a.netWMWindowType, w.a.byName["ATOM"], func(v []byte) {
		if len(v) >= 4 {
			pc.windowType = leUint32(v)
		}
	})
	w.fetchProperty(pc, w.a.wmProtocols, w.a.byName["ATOM"], func(v []byte) {
		for off := 0; off+4 <= len(v); off += 4 {
			switch leUint32(v[off:]) {
			case w.a.wmTakeFocus:
				pc.takesFocus = true
			case w.a.wmDeleteWindow:
				pc.wantsDelete = true
			}
		}
	})
}

// fetchProperty issues one async GetProperty and registers a
// continuation that fills in one field of pc, finalizing the
// classification once every outstanding fetch has replied.
func (w *XWM) fetchProperty(pc *pendingClassify, property, typ uint32, apply func([]byte)) {
	pc.want++
	seq, err := w.conn.GetProperty(pc.xid, property, typ, false, 0, 64)
	if err != nil {
		logger.Warnf("xwm: GetProperty(window=%d, property=%d): %v", pc.xid, property, err)
		pc.want--
		if pc.want == 0 {
			w.finishClassify(pc)
		}
		return
	}
	w.await(seq, func(ev *x11wire.Event) {
		reply := x11wire.DecodeGetPropertyReply(ev.Detail, ev.Data)
		apply(reply.Value)
		pc.want--
		if pc.want == 0 {
			w.finishClassify(pc)
		}
	})
}

// finishClassify runs spec.md §4.4's classification rule once every
// property this MapRequest needed has come back (or failed, in which
// case it is treated as absent per spec.md §7 "property decode
// failure: ignored, default assumed").
func (w *XWM) finishClassify(pc *pendingClassify) {
	delete(w.mapping, pc.xid)

	role := registry.RoleToplevel
	if pc.overrideRedirect || w.a.isPopupWindowType(pc.windowType) {
		role = registry.RolePopup
	} else if pc.transientFor != 0 {
		if parent, ok := w.reg.XWindow(pc.transientFor); ok && parent.Mapped {
			role = registry.RolePopup
		}
	}

	// A popup promoted from a transient/type hint but whose chosen
	// ancestor never actually got mapped becomes a toplevel instead
	// (spec.md §4.4 step 3, spec.md §8 boundary behavior).
	if role == registry.RolePopup && pc.transientFor != 0 {
		if _, ok := w.reg.XWindow(pc.transientFor); !ok {
			role = registry.RoleToplevel
		}
	}

	win := &registry.XWindow{
		ID:           pc.xid,
		X:            pc.x,
		Y:            pc.y,
		Width:        pc.w,
		Height:       pc.h,
		WMClass:      pc.wmClass,
		TransientFor: pc.transientFor,
		WantRole:     role,
		Mapped:       true,
		Protocols: map[string]bool{
			"WM_TAKE_FOCUS":    pc.takesFocus,
			"WM_DELETE_WINDOW": pc.wantsDelete,
		},
	}
	w.reg.AddXWindow(win)
	w.selectEnterNotify(pc.xid)

	if err := w.conn.MapWindow(pc.xid); err != nil {
		logger.Errorf("xwm: MapWindow(%d): %v", pc.xid, err)
	}
}

// selectEnterNotify asks for EnterNotify and PropertyNotify on a
// single client window: the root's PropertyChange selection only
// catches changes to the root's own properties, so pointer-raise
// (spec.md §4.4 stacking rule) and property tracking (title, app id,
// _NET_WM_STATE, WL_SURFACE_SERIAL) both need per-window selection the
// way a non-reparenting WM conventionally does it.
func (w *XWM) selectEnterNotify(xid uint32) {
	mask := uint32(x11wire.EventMaskEnterWindow | x11wire.EventMaskPropertyChange)
	if err := w.conn.ChangeWindowAttributes(xid, mask); err != nil {
		logger.Warnf("xwm: select EnterNotify/PropertyChange on %d: %v", xid, err)
	}
}

// handleMapNotify catches override-redirect windows, which map
// themselves directly instead of going through MapRequest (spec.md §8
// "override-redirect tooltip" scenario): the XWM only needs to learn
// of them here and classify unconditionally as popups.
func (w *XWM) handleMapNotify(ev *x11wire.Event) {
	xid := ev.Window(4)
	if win, ok := w.reg.XWindow(xid); ok {
		win.Mapped = true
		return
	}
	win := &registry.XWindow{
		ID:               xid,
		OverrideRedirect: true,
		WantRole:         registry.RolePopup,
		Mapped:           true,
	}
	w.reg.AddXWindow(win)
	w.selectEnterNotify(xid)
}

func decodeWMClass(v []byte) string {
	// WM_CLASS is two NUL-terminated strings, instance then class;
	// the class name (the second) is what xdg_toplevel.set_app_id
	// wants (spec.md §4.4).
	for i, b := range v {
		if b == 0 {
			rest := v[i+1:]
			for j, c := range rest {
				if c == 0 {
					return string(rest[:j])
				}
			}
			return string(rest)
		}
	}
	return string(v)
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
