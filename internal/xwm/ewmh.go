package xwm

import "encoding/binary"

// setupEWMH publishes the standing EWMH hints spec.md §4.4 names:
// _NET_SUPPORTED, a _NET_SUPPORTING_WM_CHECK window, and the
// single-desktop CARDINAL hints (_NET_WORKAREA, _NET_CURRENT_DESKTOP,
// _NET_NUMBER_OF_DESKTOPS=1). It runs once, at startup.
func (w *XWM) setupEWMH() error {
	supported := []uint32{
		w.a.netSupported, w.a.netSupportingWMCheck, w.a.netWMName,
		w.a.netActiveWindow, w.a.netClientList, w.a.netWMState,
		w.a.netWMStateFullscreen, w.a.netWMStateMaxVert, w.a.netWMStateMaxHorz,
		w.a.netWMStateHidden, w.a.netWorkarea, w.a.netCurrentDesktop,
		w.a.netNumberOfDesktops, w.a.netWMWindowType,
	}
	if err := w.setAtomList(w.root, w.a.netSupported, supported); err != nil {
		return err
	}

	checkWin := w.conn.NewID()
	if err := w.conn.CreateWindow(checkWin, w.root, -1, -1, 1, 1); err != nil {
		return err
	}
	w.supportingWin = checkWin

	if err := w.setWindow(checkWin, w.a.netSupportingWMCheck, checkWin); err != nil {
		return err
	}
	if err := w.setWindow(w.root, w.a.netSupportingWMCheck, checkWin); err != nil {
		return err
	}
	if err := w.conn.ChangeProperty(checkWin, w.a.netWMName, w.a.utf8String, 8, []byte("satellite"), 0); err != nil {
		return err
	}

	if err := w.setWindow(w.root, w.a.netActiveWindow, 0); err != nil {
		return err
	}
	if err := w.setAtomList(w.root, w.a.netClientList, nil); err != nil {
		return err
	}
	if err := w.setCardinals(w.root, w.a.netCurrentDesktop, []uint32{0}); err != nil {
		return err
	}
	if err := w.setCardinals(w.root, w.a.netNumberOfDesktops, []uint32{1}); err != nil {
		return err
	}
	workarea := []uint32{0, 0, uint32(w.conn.Setup.WidthInPixels), uint32(w.conn.Setup.HeightInPixels)}
	return w.setCardinals(w.root, w.a.netWorkarea, workarea)
}

func (w *XWM) setAtomList(win, property uint32, atoms []uint32) error {
	return w.conn.ChangeProperty(win, property, w.a.byName["ATOM"], 32, encode32(atoms), 0)
}

func (w *XWM) setCardinals(win, property uint32, values []uint32) error {
	return w.conn.ChangeProperty(win, property, w.a.byName["CARDINAL"], 32, encode32(values), 0)
}

func (w *XWM) setWindow(win, property, value uint32) error {
	return w.conn.ChangeProperty(win, property, w.a.byName["WINDOW"], 32, encode32([]uint32{value}), 0)
}

func encode32(values []uint32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[4*i:], v)
	}
	return out
}
