package xwm

import (
	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/x11wire"
)

// RequestClose asks an X client to close via WM_DELETE_WINDOW, the
// ICCCM convention a client opts into through WM_PROTOCOLS (spec.md
// §4.4). internal/assoc calls this when the host role's xdg_toplevel
// or xdg_popup reports close/done. Clients that never advertised
// WM_DELETE_WINDOW support are left alone rather than killed.
func (w *XWM) RequestClose(xid uint32) {
	win, ok := w.reg.XWindow(xid)
	if !ok || !win.Protocols["WM_DELETE_WINDOW"] {
		return
	}
	var data [32]byte
	data[0] = x11wire.EventClientMessage
	data[1] = 32
	putU32(data[4:], xid)
	putU32(data[8:], w.a.wmProtocols)
	putU32(data[12:], w.a.wmDeleteWindow)
	if err := w.conn.SendEvent(xid, false, 0, data); err != nil {
		logger.Warnf("xwm: WM_DELETE_WINDOW to %d: %v", xid, err)
	}
}
