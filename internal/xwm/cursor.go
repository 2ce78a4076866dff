package xwm

import "github.com/bnema/satellite/internal/logger"

// Core X11 cursor font glyph indices (X11 cursor.h): each named
// glyph's mask sits immediately after it.
const (
	xcLeftPtr = 68
)

// loadCursor sets the root window's default pointer image, so newly
// mapped windows inherit a visible cursor instead of the server's
// blank default. It prefers the standard "cursor" font glyph and
// falls back to a small embedded bitmap arrow when that font isn't
// installed (original_source's xstate.rs takes the equivalent
// xcb_util_cursor path; core protocol has no font-independent
// equivalent, so the embedded bitmap stands in for a cursor theme).
func (w *XWM) loadCursor() {
	if w.loadFontCursor() {
		return
	}
	w.loadBitmapCursor()
}

func (w *XWM) loadFontCursor() bool {
	font := w.conn.NewID()
	if err := w.conn.OpenFont(font, "cursor"); err != nil {
		logger.Debugf("xwm: open cursor font: %v", err)
		return false
	}
	cursor := w.conn.NewID()
	if err := w.conn.CreateGlyphCursor(cursor, font, font, xcLeftPtr, xcLeftPtr+1, 0, 0, 0, 0xffff, 0xffff, 0xffff); err != nil {
		logger.Debugf("xwm: create glyph cursor: %v", err)
		return false
	}
	return w.applyCursor(cursor)
}

// cursorBitmap is a 16x16 1-bit left-pointer arrow, MSB-first within
// each row byte per the core protocol's xy-bitmap format. The same
// pixmap serves as the cursor's mask, so every set pixel is opaque.
var cursorBitmap = [16]uint16{
	0x8000, 0xc000, 0xe000, 0xf000,
	0xf800, 0xfc00, 0xfe00, 0xff00,
	0xff80, 0xfc00, 0xdc00, 0x8e00,
	0x0e00, 0x0700, 0x0700, 0x0300,
}

func (w *XWM) loadBitmapCursor() {
	const w16, h16 = 16, 16
	source := bitmapToXYFormat(cursorBitmap[:], w16, h16)

	pix := w.conn.NewID()
	if err := w.conn.CreatePixmap(pix, w.root, 1, w16, h16); err != nil {
		logger.Warnf("xwm: create cursor pixmap: %v", err)
		return
	}
	gc := w.conn.NewID()
	if err := w.conn.CreateGC(gc, pix); err != nil {
		logger.Warnf("xwm: create cursor gc: %v", err)
		return
	}
	if err := w.conn.PutImage(pix, gc, w16, h16, 0, 0, 0, 1, source); err != nil {
		logger.Warnf("xwm: draw cursor bitmap: %v", err)
		return
	}
	if err := w.conn.FreeGC(gc); err != nil {
		logger.Debugf("xwm: free cursor gc: %v", err)
	}

	cursor := w.conn.NewID()
	err := w.conn.CreateCursor(cursor, pix, pix, 0, 0, 0, 0xffff, 0xffff, 0xffff, 0, 0)
	if ferr := w.conn.FreePixmap(pix); ferr != nil {
		logger.Debugf("xwm: free cursor pixmap: %v", ferr)
	}
	if err != nil {
		logger.Warnf("xwm: create bitmap cursor: %v", err)
		return
	}
	w.applyCursor(cursor)
}

func (w *XWM) applyCursor(cursor uint32) bool {
	if err := w.conn.ChangeWindowAttributesCursor(w.root, cursor); err != nil {
		logger.Warnf("xwm: set root cursor: %v", err)
		return false
	}
	w.cursor = cursor
	return true
}

// bitmapToXYFormat packs row-major uint16 bit rows into the
// byte-per-scanline xy-bitmap PutImage expects, padding each row to a
// 4-byte boundary as the core protocol requires.
func bitmapToXYFormat(rows []uint16, width, height int) []byte {
	stride := ((width + 31) / 32) * 4
	out := make([]byte, stride*height)
	for y, row := range rows {
		out[y*stride] = byte(row >> 8)
		out[y*stride+1] = byte(row)
	}
	return out
}
