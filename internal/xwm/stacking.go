package xwm

import (
	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/x11wire"
)

// handleEnterNotify raises the window the pointer just entered, per
// spec.md §4.4's stacking rule and spec.md §9's open-question answer
// ("the design mandates pointer-raise; any refinement is deferred").
func (w *XWM) handleEnterNotify(ev *x11wire.Event) {
	xid := ev.Window(8) // the "event" field: the window EnterWindow was selected on
	w.raise(xid)
}

func (w *XWM) raise(xid uint32) {
	if err := w.conn.ConfigureWindow(xid, x11wire.ConfigStackMode, int32(stackModeAbove)); err != nil {
		logger.Warnf("xwm: raise %d: %v", xid, err)
	}
}

const stackModeAbove = 0

// Focus pushes Wayland key-focus onto the X window via WM_TAKE_FOCUS
// when the client opted in through WM_PROTOCOLS, falling back to
// XSetInputFocus(RevertToPointerRoot) otherwise (spec.md §4.4).
// Nothing in this module calls Focus: host keyboard-focus changes are
// not forwarded to the X side.
func (w *XWM) Focus(xid uint32, timestamp uint32) {
	win, ok := w.reg.XWindow(xid)
	if ok && win.Protocols["WM_TAKE_FOCUS"] {
		var data [32]byte
		data[0] = x11wire.EventClientMessage
		data[1] = 32 // format: four 32-bit data words
		putU32(data[4:], xid)
		putU32(data[8:], w.a.wmProtocols)
		putU32(data[12:], w.a.wmTakeFocus)
		putU32(data[16:], timestamp)
		if err := w.conn.SendEvent(xid, false, 0, data); err != nil {
			logger.Warnf("xwm: WM_TAKE_FOCUS to %d: %v", xid, err)
		}
		return
	}
	if err := w.conn.SetInputFocus(xid, x11wire.RevertToPointerRoot, timestamp); err != nil {
		logger.Warnf("xwm: SetInputFocus(%d): %v", xid, err)
	}
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
