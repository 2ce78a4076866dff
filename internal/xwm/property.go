package xwm

import (
	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/x11wire"
)

// handlePropertyNotify implements spec.md §4.4's property-tracking
// rule: title and class changes flow to the host role; _NET_WM_STATE
// changes request fullscreen/maximize. Deletion (state == 1) is
// ignored; nothing the satellite tracks needs to un-set on a property
// delete.
func (w *XWM) handlePropertyNotify(ev *x11wire.Event) {
	xid := ev.Window(0)
	atom := ev.Uint32At(4)
	state := ev.Data[12]
	if state == 1 {
		return
	}

	switch atom {
	case w.a.wmName, w.a.netWMName:
		w.fetchTitle(xid, atom)
	case w.a.wmClass:
		w.fetchAppID(xid)
	case w.a.netWMState:
		w.fetchState(xid)
	case w.a.wlSurfaceSerial:
		w.fetchSurfaceSerial(xid)
	}
}

// fetchSurfaceSerial reads the 64-bit WL_SURFACE_SERIAL property
// (spec.md §4.5's modern association path), stored as two CARDINAL
// words, low word first — the same order Xwayland's ClientMessage
// variant of this handshake uses.
func (w *XWM) fetchSurfaceSerial(xid uint32) {
	seq, err := w.conn.GetProperty(xid, w.a.wlSurfaceSerial, w.a.byName["CARDINAL"], false, 0, 2)
	if err != nil {
		logger.Warnf("xwm: GetProperty(WL_SURFACE_SERIAL, %d): %v", xid, err)
		return
	}
	w.await(seq, func(ev *x11wire.Event) {
		reply := x11wire.DecodeGetPropertyReply(ev.Detail, ev.Data)
		if len(reply.Value) < 8 {
			return
		}
		lo := leUint32(reply.Value[0:4])
		hi := leUint32(reply.Value[4:8])
		serial := uint64(hi)<<32 | uint64(lo)
		if w.OnSurfaceSerial != nil {
			w.OnSurfaceSerial(xid, serial)
		}
	})
}

func (w *XWM) fetchTitle(xid, nameAtom uint32) {
	typ := w.a.utf8String
	if nameAtom == w.a.wmName {
		typ = w.a.byName["STRING"]
	}
	seq, err := w.conn.GetProperty(xid, nameAtom, typ, false, 0, 256)
	if err != nil {
		logger.Warnf("xwm: GetProperty(title, %d): %v", xid, err)
		return
	}
	w.await(seq, func(ev *x11wire.Event) {
		reply := x11wire.DecodeGetPropertyReply(ev.Detail, ev.Data)
		title := string(reply.Value)
		if win, ok := w.reg.XWindow(xid); ok {
			win.NetWMName = title
		}
		if w.OnTitleChanged != nil {
			w.OnTitleChanged(xid, title)
		}
	})
}

func (w *XWM) fetchAppID(xid uint32) {
	seq, err := w.conn.GetProperty(xid, w.a.wmClass, w.a.utf8String, false, 0, 256)
	if err != nil {
		logger.Warnf("xwm: GetProperty(WM_CLASS, %d): %v", xid, err)
		return
	}
	w.await(seq, func(ev *x11wire.Event) {
		reply := x11wire.DecodeGetPropertyReply(ev.Detail, ev.Data)
		appID := decodeWMClass(reply.Value)
		if win, ok := w.reg.XWindow(xid); ok {
			win.WMClass = appID
		}
		if w.OnAppIDChanged != nil {
			w.OnAppIDChanged(xid, appID)
		}
	})
}

func (w *XWM) fetchState(xid uint32) {
	seq, err := w.conn.GetProperty(xid, w.a.netWMState, w.a.byName["ATOM"], false, 0, 32)
	if err != nil {
		logger.Warnf("xwm: GetProperty(_NET_WM_STATE, %d): %v", xid, err)
		return
	}
	w.await(seq, func(ev *x11wire.Event) {
		reply := x11wire.DecodeGetPropertyReply(ev.Detail, ev.Data)
		fullscreen, maximized := false, false
		for off := 0; off+4 <= len(reply.Value); off += 4 {
			switch leUint32(reply.Value[off:]) {
			case w.a.netWMStateFullscreen:
				fullscreen = true
			case w.a.netWMStateMaxVert, w.a.netWMStateMaxHorz:
				maximized = true
			}
		}
		if win, ok := w.reg.XWindow(xid); ok {
			win.NetWMState = map[string]bool{"fullscreen": fullscreen, "maximized": maximized}
		}
		if w.OnFullscreen != nil {
			w.OnFullscreen(xid, fullscreen)
		}
		if w.OnMaximized != nil {
			w.OnMaximized(xid, maximized)
		}
	})
}

// handleClientMessage recognizes the legacy surface-association
// handshake (spec.md §4.5): a WL_SURFACE_ID ClientMessage on the root
// names the numeric wl_surface id Xwayland just created for this X
// window.
func (w *XWM) handleClientMessage(ev *x11wire.Event) {
	xid := ev.Window(0)
	msgType := ev.Uint32At(4)
	if msgType != w.a.wlSurfaceID {
		if w.OnClientMessage != nil {
			w.OnClientMessage(ev)
		}
		return
	}
	surfaceID := ev.Uint32At(8)
	if w.OnLegacySurfaceID != nil {
		w.OnLegacySurfaceID(xid, surfaceID)
	}
}
