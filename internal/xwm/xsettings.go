package xwm

import (
	"encoding/binary"

	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/x11wire"
)

// tryClaimXsettings claims _XSETTINGS_S0 only when no other client
// owns it: checked on startup and again whenever SelectionClear says
// another process took it away. Finding another owner is not fatal —
// whichever desktop environment already owns it keeps it and is
// presumably already publishing DPI settings host toolkits can read.
func (w *XWM) tryClaimXsettings() {
	if w.xsettingsWin == 0 {
		w.xsettingsWin = w.conn.NewID()
		if err := w.conn.CreateWindow(w.xsettingsWin, w.root, -1, -1, 1, 1); err != nil {
			logger.Warnf("xwm: create xsettings window: %v", err)
			return
		}
	}
	seq, err := w.conn.GetSelectionOwner(w.a.xsettingsS)
	if err != nil {
		logger.Warnf("xwm: query _XSETTINGS_S0 owner: %v", err)
		return
	}
	w.await(seq, func(ev *x11wire.Event) {
		if owner := x11wire.DecodeGetSelectionOwnerReply(ev.Data); owner != 0 && owner != w.xsettingsWin {
			return // another manager holds it; leave it alone
		}
		if err := w.conn.SetSelectionOwner(w.xsettingsWin, w.a.xsettingsS, 0); err != nil {
			logger.Warnf("xwm: claim _XSETTINGS_S0: %v", err)
			return
		}
		w.xsettingsOwner = true
		w.publishXsettings()
	})
}

// handleSelectionClear re-checks _XSETTINGS_S0 when ownership is
// lost, claiming it again only if no other client now owns it; every
// other selection clear (WM_Sn included) is handed to OnSelectionClear.
func (w *XWM) handleSelectionClear(ev *x11wire.Event) {
	selection := ev.Uint32At(8)
	if selection != w.a.xsettingsS {
		if w.OnSelectionClear != nil {
			w.OnSelectionClear(selection)
		}
		return
	}
	w.xsettingsOwner = false
	w.tryClaimXsettings()
}

// publishXsettings writes the three DPI-related integer settings
// host GTK/Qt toolkits read from _XSETTINGS_SETTINGS, scaled by
// OutputScale when the caller has wired one in.
func (w *XWM) publishXsettings() {
	scale := int32(1)
	if w.OutputScale != nil {
		if s := w.OutputScale(); s > 0 {
			scale = s
		}
	}
	const baseDPI1024 = 96 * 1024

	buf := xsettingsBuilder{serial: 1}
	buf.putInteger("Xft/DPI", baseDPI1024*scale)
	buf.putInteger("Gdk/WindowScalingFactor", scale)
	buf.putInteger("Gdk/UnscaledDPI", baseDPI1024)

	if err := w.conn.ChangeProperty(w.xsettingsWin, w.a.xsettingsSettings, w.a.xsettingsSettings, 8, buf.bytes(), 0); err != nil {
		logger.Warnf("xwm: publish _XSETTINGS_SETTINGS: %v", err)
	}
}

// xsettingsBuilder encodes the XSETTINGS wire format: a header
// (byte-order, serial, count) followed by one variable-length record
// per setting. Only the Integer setting type is needed here.
type xsettingsBuilder struct {
	serial uint32
	count  uint32
	body   []byte
}

func (b *xsettingsBuilder) putInteger(name string, value int32) {
	rec := make([]byte, 0, 16+len(name))
	rec = append(rec, 0, 0) // type=Integer(0), pad
	nameLen := make([]byte, 2)
	binary.LittleEndian.PutUint16(nameLen, uint16(len(name)))
	rec = append(rec, nameLen...)
	rec = append(rec, name...)
	for len(rec)%4 != 0 {
		rec = append(rec, 0)
	}
	serial := make([]byte, 4)
	binary.LittleEndian.PutUint32(serial, b.serial)
	rec = append(rec, serial...)
	val := make([]byte, 4)
	binary.LittleEndian.PutUint32(val, uint32(value))
	rec = append(rec, val...)

	b.body = append(b.body, rec...)
	b.count++
}

func (b *xsettingsBuilder) bytes() []byte {
	out := make([]byte, 12, 12+len(b.body))
	out[0] = 0 // byte order: LSB first
	binary.LittleEndian.PutUint32(out[4:8], b.serial)
	binary.LittleEndian.PutUint32(out[8:12], b.count)
	return append(out, b.body...)
}
