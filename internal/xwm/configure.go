package xwm

import (
	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/registry"
	"github.com/bnema/satellite/internal/x11wire"
)

// handleConfigureRequest implements spec.md §4.4's ConfigureRequest
// rule: popups get their requested geometry honored outright; for
// toplevels only the size is meaningful (propagated to the host as an
// xdg_toplevel size hint), the requested position is ignored since the
// satellite, not the client, owns toplevel placement.
func (w *XWM) handleConfigureRequest(ev *x11wire.Event) {
	xid := ev.Window(4)
	x := ev.Int16At(12)
	y := ev.Int16At(14)
	width := ev.Uint16At(16)
	height := ev.Uint16At(18)
	mask := ev.Uint16At(22)

	win, _ := w.reg.XWindow(xid)

	if win != nil && win.WantRole == registry.RolePopup {
		if err := w.conn.ConfigureWindow(xid, mask, int32(x), int32(y), int32(width), int32(height)); err != nil {
			logger.Warnf("xwm: ConfigureWindow(popup=%d): %v", xid, err)
		}
		win.X, win.Y, win.Width, win.Height = int32(x), int32(y), int32(width), int32(height)
		return
	}

	// Toplevel (or not yet classified): grant the size so the client's
	// ConfigureRequest is eventually answered, but keep our own chosen
	// position.
	posX, posY := int32(0), int32(0)
	if win != nil {
		posX, posY = win.X, win.Y
	}
	if err := w.conn.ConfigureWindow(xid, x11wire.ConfigX|x11wire.ConfigY|x11wire.ConfigWidth|x11wire.ConfigHeight, posX, posY, int32(width), int32(height)); err != nil {
		logger.Warnf("xwm: ConfigureWindow(toplevel=%d): %v", xid, err)
	}
	if win != nil {
		win.Width, win.Height = int32(width), int32(height)
	}
	if w.OnToplevelResize != nil {
		w.OnToplevelResize(xid, int32(width), int32(height))
	}
}
