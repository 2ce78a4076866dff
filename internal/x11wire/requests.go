package x11wire

import (
	"encoding/binary"
	"fmt"
)

// Core opcodes used by the window manager. Not exhaustive: only what
// spec.md §4.4/§4.6 exercise.
const (
	OpCreateWindow      = 1
	OpChangeWindowAttrs = 2
	OpGetWindowAttrs    = 3
	OpDestroyWindow     = 4
	OpMapWindow         = 8
	OpUnmapWindow       = 10
	OpConfigureWindow   = 12
	OpCirculateWindow   = 13
	OpInternAtom        = 16
	OpGetAtomName       = 17
	OpChangeProperty    = 18
	OpDeleteProperty    = 19
	OpGetProperty       = 20
	OpSetSelectionOwner = 22
	OpGetSelectionOwner = 23
	OpConvertSelection  = 24
	OpSendEvent         = 25
	OpGrabButton        = 28
	OpSetInputFocus     = 42
	OpOpenFont          = 45
	OpQueryTree         = 15
	OpCreatePixmap      = 53
	OpFreePixmap        = 54
	OpCreateGC          = 55
	OpFreeGC            = 60
	OpPutImage          = 72
	OpCreateCursor      = 93
	OpCreateGlyphCursor = 94
	OpChangeHosts       = 109
)

// writeRequest frames a request: 1-byte opcode, 1-byte data, 2-byte
// length-in-4-byte-units, then the request-specific body, padded to a
// multiple of 4. The caller supplies body already built. It returns
// the sequence number the server will tag any reply to this request
// with, so a caller expecting one (GetProperty, GetWindowAttributes,
// ...) can match it up when internal/xwm's event loop reads it back.
func (c *Conn) writeRequest(opcode, data uint8, body []byte) (uint16, error) {
	total := 4 + len(body)
	for total%4 != 0 {
		body = append(body, 0)
		total++
	}
	units := total / 4
	if units > 0xffff {
		return 0, fmt.Errorf("x11wire: request too large")
	}
	hdr := make([]byte, 4)
	hdr[0] = opcode
	hdr[1] = data
	binary.LittleEndian.PutUint16(hdr[2:], uint16(units))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSeq++
	seq := c.nextSeq
	if _, err := c.c.Write(hdr); err != nil {
		return 0, err
	}
	_, err := c.c.Write(body)
	return seq, err
}

// MapWindow issues a MapWindow request.
func (c *Conn) MapWindow(win uint32) error {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, win)
	_, err := c.writeRequest(OpMapWindow, 0, body)
	return err
}

// UnmapWindow issues an UnmapWindow request.
func (c *Conn) UnmapWindow(win uint32) error {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, win)
	_, err := c.writeRequest(OpUnmapWindow, 0, body)
	return err
}

// CreateWindow creates an InputOnly window the window manager owns
// (a selection-owner window for WM_Sn/_XSETTINGS_S0, not a visible
// frame: the satellite never frames client windows).
const (
	classCopyFromParent = 0
	classInputOnly      = 3
)

func (c *Conn) CreateWindow(id, parent uint32, x, y int16, w, h uint16) error {
	body := make([]byte, 28)
	binary.LittleEndian.PutUint32(body[0:], id)
	binary.LittleEndian.PutUint32(body[4:], parent)
	binary.LittleEndian.PutUint16(body[8:], uint16(x))
	binary.LittleEndian.PutUint16(body[10:], uint16(y))
	binary.LittleEndian.PutUint16(body[12:], w)
	binary.LittleEndian.PutUint16(body[14:], h)
	binary.LittleEndian.PutUint16(body[16:], 0) // border-width
	binary.LittleEndian.PutUint16(body[18:], classInputOnly)
	binary.LittleEndian.PutUint32(body[20:], classCopyFromParent) // visual
	// value-mask (24:28) left zero: no optional attributes.
	_, err := c.writeRequest(OpCreateWindow, classCopyFromParent, body)
	return err
}

// ChangeWindowAttributes sets the root window's event mask, the
// SubstructureRedirect|SubstructureNotify|PropertyChange selection
// spec.md §4.4 requires. Xwayland replies with an Access error if
// another client already holds SubstructureRedirect; that error
// arrives later as an error event, which xwm.HandleEvent only logs.
const (
	CWEventMask = 1 << 11

	EventMaskSubstructureRedirect = 1 << 19
	EventMaskSubstructureNotify   = 1 << 20
	EventMaskPropertyChange       = 1 << 22
	EventMaskEnterWindow          = 1 << 4
)

func (c *Conn) ChangeWindowAttributes(win uint32, eventMask uint32) error {
	body := make([]byte, 8)
	binary.LittleEndian.PutUint32(body[0:], win)
	binary.LittleEndian.PutUint32(body[4:], CWEventMask)
	body = append(body, make([]byte, 4)...)
	binary.LittleEndian.PutUint32(body[8:], eventMask)
	_, err := c.writeRequest(OpChangeWindowAttrs, 0, body)
	return err
}

// SendEvent delivers a synthetic event (a ClientMessage for
// WM_TAKE_FOCUS, typically) to destination, per spec.md §4.4.
func (c *Conn) SendEvent(destination uint32, propagate bool, eventMask uint32, eventData [32]byte) error {
	body := make([]byte, 44)
	prop := uint8(0)
	if propagate {
		prop = 1
	}
	binary.LittleEndian.PutUint32(body[0:], destination)
	binary.LittleEndian.PutUint32(body[4:], eventMask)
	copy(body[8:40], eventData[:])
	_, err := c.writeRequest(OpSendEvent, prop, body)
	return err
}

// GetProperty issues a GetProperty request and returns the sequence
// number to match against the reply internal/xwm's event loop reads
// back via Conn.NextEvent (Event.Code == 1).
func (c *Conn) GetProperty(win, property, typ uint32, delete bool, longOffset, longLength uint32) (uint16, error) {
	body := make([]byte, 20)
	binary.LittleEndian.PutUint32(body[0:], win)
	binary.LittleEndian.PutUint32(body[4:], property)
	binary.LittleEndian.PutUint32(body[8:], typ)
	binary.LittleEndian.PutUint32(body[12:], longOffset)
	binary.LittleEndian.PutUint32(body[16:], longLength)
	data := uint8(0)
	if delete {
		data = 1
	}
	return c.writeRequest(OpGetProperty, data, body)
}

// GetPropertyReply decodes the fixed+variable body of a GetProperty
// reply, as laid out in Event.Data once Conn.NextEvent has folded in
// the variable trailer for a Code==1 message.
type GetPropertyReply struct {
	Format uint8
	Type   uint32
	Value  []byte
}

func DecodeGetPropertyReply(format uint8, data []byte) GetPropertyReply {
	r := GetPropertyReply{Format: format}
	if len(data) < 16 {
		return r
	}
	r.Type = binary.LittleEndian.Uint32(data[4:8])
	count := binary.LittleEndian.Uint32(data[12:16])
	elemSize := int(format) / 8
	if elemSize == 0 {
		elemSize = 1
	}
	n := int(count) * elemSize
	if 28+n > len(data) {
		n = len(data) - 28
	}
	if n > 0 {
		r.Value = data[28 : 28+n]
	}
	return r
}

// ConfigureWindow sets a subset of geometry values; mask follows the
// standard X11 bit order (X, Y, Width, Height, BorderWidth, Sibling,
// StackMode).
const (
	ConfigX           = 1 << 0
	ConfigY           = 1 << 1
	ConfigWidth       = 1 << 2
	ConfigHeight      = 1 << 3
	ConfigBorderWidth = 1 << 4
	ConfigStackMode   = 1 << 6
)

func (c *Conn) ConfigureWindow(win uint32, mask uint16, values ...int32) error {
	body := make([]byte, 8+4*len(values))
	binary.LittleEndian.PutUint32(body[0:], win)
	binary.LittleEndian.PutUint16(body[4:], mask)
	for i, v := range values {
		binary.LittleEndian.PutUint32(body[8+4*i:], uint32(v))
	}
	_, err := c.writeRequest(OpConfigureWindow, 0, body)
	return err
}

// InternAtom looks up (or creates) an atom by name, caching the
// result. onlyIfExists mirrors the X11 request flag. If the name is
// already cached this returns immediately with ok=true and no
// request is sent; otherwise it returns the reply's sequence number
// for internal/xwm's event loop to match against the GetAtomName-style
// reply (spec.md §5: no blocking round-trips) and RegisterAtom once
// it arrives.
func (c *Conn) InternAtom(name string, onlyIfExists bool) (atom uint32, ok bool, seq uint16, err error) {
	if a, found := c.atoms[name]; found {
		return a, true, 0, nil
	}
	body := make([]byte, 4+len(name))
	binary.LittleEndian.PutUint16(body[2:], uint16(len(name)))
	copy(body[4:], name)
	data := uint8(0)
	if onlyIfExists {
		data = 1
	}
	s, err := c.writeRequest(OpInternAtom, data, body)
	return 0, false, s, err
}

// RegisterAtom records a (name, atom) pair once a GetAtomName/
// InternAtom reply has been read off the wire by the event loop.
func (c *Conn) RegisterAtom(name string, atom uint32) {
	c.atoms[name] = atom
	c.atomsRev[atom] = name
}

// AtomName resolves a previously-registered atom back to its name,
// without a round trip.
func (c *Conn) AtomName(atom uint32) (string, bool) {
	n, ok := c.atomsRev[atom]
	return n, ok
}

// GetAtomName asks the server for the name behind an atom the client
// has never interned itself (spec.md §4.6's TARGETS replies can name
// atoms only the selection owner has interned). Returns the reply's
// sequence number for async correlation, same convention as
// GetProperty/GetSelectionOwner.
func (c *Conn) GetAtomName(atom uint32) (uint16, error) {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, atom)
	return c.writeRequest(OpGetAtomName, 0, body)
}

// DecodeGetAtomNameReply reads the variable-length name trailer out of
// a GetAtomName reply (the name length lives at offset 4, the string
// starts at the fixed reply's 32-byte boundary relative to Data, i.e.
// offset 28 as with GetPropertyReply's value trailer).
func DecodeGetAtomNameReply(data []byte) string {
	if len(data) < 8 {
		return ""
	}
	n := int(binary.LittleEndian.Uint16(data[4:6]))
	if 28+n > len(data) {
		n = len(data) - 28
	}
	if n <= 0 {
		return ""
	}
	return string(data[28 : 28+n])
}

// ChangeProperty sets a window property (format 8/16/32, per ICCCM).
func (c *Conn) ChangeProperty(win, property, typ uint32, format uint8, data []byte, mode uint8) error {
	elemSize := int(format) / 8
	if elemSize == 0 {
		elemSize = 1
	}
	count := len(data) / elemSize
	body := make([]byte, 20+len(data))
	binary.LittleEndian.PutUint32(body[0:], win)
	binary.LittleEndian.PutUint32(body[4:], property)
	binary.LittleEndian.PutUint32(body[8:], typ)
	body[12] = format
	binary.LittleEndian.PutUint32(body[16:], uint32(count))
	copy(body[20:], data)
	_, err := c.writeRequest(OpChangeProperty, mode, body)
	return err
}

// SetSelectionOwner claims ownership of a selection atom (CLIPBOARD,
// PRIMARY, WM_Sn, _XSETTINGS_S0, ...).
func (c *Conn) SetSelectionOwner(owner, selection uint32, timestamp uint32) error {
	body := make([]byte, 12)
	binary.LittleEndian.PutUint32(body[0:], owner)
	binary.LittleEndian.PutUint32(body[4:], selection)
	binary.LittleEndian.PutUint32(body[8:], timestamp)
	_, err := c.writeRequest(OpSetSelectionOwner, 0, body)
	return err
}

// ConvertSelection asks selection's owner to convert it to target and
// write the result to requestor's property (spec.md §4.6's clipboard
// bridge uses this both to read a CLIPBOARD/PRIMARY value an X client
// owns and to ask TARGETS for the set of types it offers). The owner
// answers asynchronously with a SelectionNotify event, matched by
// internal/xwm.XWM.OnSelectionNotify rather than by sequence number
// (SelectionNotify is a real event, not a reply).
func (c *Conn) ConvertSelection(requestor, selection, target, property uint32, timestamp uint32) error {
	body := make([]byte, 20)
	binary.LittleEndian.PutUint32(body[0:], requestor)
	binary.LittleEndian.PutUint32(body[4:], selection)
	binary.LittleEndian.PutUint32(body[8:], target)
	binary.LittleEndian.PutUint32(body[12:], property)
	binary.LittleEndian.PutUint32(body[16:], timestamp)
	_, err := c.writeRequest(OpConvertSelection, 0, body)
	return err
}

// SelectionRequestFields decodes a SelectionRequest event's owner,
// requestor, selection, target and property window/atom fields.
func SelectionRequestFields(ev *Event) (owner, requestor, selection, target, property uint32) {
	return ev.Window(4), ev.Window(8), ev.Uint32At(12), ev.Uint32At(16), ev.Uint32At(20)
}

// SelectionNotifyFields decodes a SelectionNotify event's requestor,
// selection, target and property fields.
func SelectionNotifyFields(ev *Event) (requestor, selection, target, property uint32) {
	return ev.Window(4), ev.Uint32At(8), ev.Uint32At(12), ev.Uint32At(16)
}

// BuildSelectionNotify encodes a synthetic SelectionNotify event,
// sent back to a SelectionRequest's requestor via Conn.SendEvent
// (property is 0 when the conversion was refused, per ICCCM).
func BuildSelectionNotify(requestor, selection, target, property uint32, timestamp uint32) [32]byte {
	var data [32]byte
	data[0] = EventSelectionNotify
	binary.LittleEndian.PutUint32(data[4:], timestamp)
	binary.LittleEndian.PutUint32(data[8:], requestor)
	binary.LittleEndian.PutUint32(data[12:], selection)
	binary.LittleEndian.PutUint32(data[16:], target)
	binary.LittleEndian.PutUint32(data[20:], property)
	return data
}

// BuildClientMessage32 encodes a synthetic format-32 ClientMessage
// event (the wire shape XDND's Enter/Position/Status/Drop/Leave/
// Finished messages all share), sent via Conn.SendEvent.
func BuildClientMessage32(window, msgType uint32, l0, l1, l2, l3, l4 uint32) [32]byte {
	var data [32]byte
	data[0] = EventClientMessage
	data[1] = 32
	binary.LittleEndian.PutUint32(data[4:], window)
	binary.LittleEndian.PutUint32(data[8:], msgType)
	binary.LittleEndian.PutUint32(data[12:], l0)
	binary.LittleEndian.PutUint32(data[16:], l1)
	binary.LittleEndian.PutUint32(data[20:], l2)
	binary.LittleEndian.PutUint32(data[24:], l3)
	binary.LittleEndian.PutUint32(data[28:], l4)
	return data
}

// SetInputFocus sets keyboard input focus, used for the
// XSetInputFocus(RevertToPointerRoot) fallback from spec.md §4.4.
const RevertToPointerRoot = 2

func (c *Conn) SetInputFocus(win uint32, revertTo uint8, timestamp uint32) error {
	body := make([]byte, 8)
	binary.LittleEndian.PutUint32(body[0:], win)
	binary.LittleEndian.PutUint32(body[4:], timestamp)
	_, err := c.writeRequest(OpSetInputFocus, revertTo, body)
	return err
}

// GetSelectionOwner asks who owns a selection atom; used to verify a
// WM_Sn/_XSETTINGS_S0 claim actually succeeded. Returns the reply's
// sequence number for correlation, per the same no-blocking rule
// GetProperty follows.
func (c *Conn) GetSelectionOwner(selection uint32) (uint16, error) {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, selection)
	return c.writeRequest(OpGetSelectionOwner, 0, body)
}

// DecodeGetSelectionOwnerReply reads the owner window field (offset 4)
// out of Event.Data for a GetSelectionOwner reply.
func DecodeGetSelectionOwnerReply(data []byte) uint32 {
	if len(data) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint32(data[4:8])
}

// OpenFont opens a core-protocol font by name ("cursor", for the
// built-in glyph cursor set) under id.
func (c *Conn) OpenFont(id uint32, name string) error {
	body := make([]byte, 8+len(name))
	binary.LittleEndian.PutUint32(body[0:], id)
	binary.LittleEndian.PutUint16(body[4:], uint16(len(name)))
	copy(body[8:], name)
	_, err := c.writeRequest(OpOpenFont, 0, body)
	return err
}

// CreateGlyphCursor builds a cursor from two glyphs of an already-open
// font (source = visible glyph, mask = same font's mask glyph, by
// convention sourceChar+1 in the standard "cursor" font).
func (c *Conn) CreateGlyphCursor(id, sourceFont, maskFont uint32, sourceChar, maskChar uint16, fr, fg, fb, br, bg, bb uint16) error {
	body := make([]byte, 28)
	binary.LittleEndian.PutUint32(body[0:], id)
	binary.LittleEndian.PutUint32(body[4:], sourceFont)
	binary.LittleEndian.PutUint32(body[8:], maskFont)
	binary.LittleEndian.PutUint16(body[12:], sourceChar)
	binary.LittleEndian.PutUint16(body[14:], maskChar)
	binary.LittleEndian.PutUint16(body[16:], fr)
	binary.LittleEndian.PutUint16(body[18:], fg)
	binary.LittleEndian.PutUint16(body[20:], fb)
	binary.LittleEndian.PutUint16(body[22:], br)
	binary.LittleEndian.PutUint16(body[24:], bg)
	binary.LittleEndian.PutUint16(body[26:], bb)
	_, err := c.writeRequest(OpCreateGlyphCursor, 0, body)
	return err
}

// CreatePixmap allocates a pixmap of depth/width/height on drawable,
// used to build the embedded-bitmap fallback cursor when the "cursor"
// font is unavailable.
func (c *Conn) CreatePixmap(id, drawable uint32, depth uint8, w, h uint16) error {
	body := make([]byte, 12)
	binary.LittleEndian.PutUint32(body[0:], id)
	binary.LittleEndian.PutUint32(body[4:], drawable)
	binary.LittleEndian.PutUint16(body[8:], w)
	binary.LittleEndian.PutUint16(body[10:], h)
	_, err := c.writeRequest(OpCreatePixmap, depth, body)
	return err
}

// CreateGC creates a minimal graphics context (no optional values),
// just enough to back a PutImage onto a pixmap.
func (c *Conn) CreateGC(id, drawable uint32) error {
	body := make([]byte, 8)
	binary.LittleEndian.PutUint32(body[0:], id)
	binary.LittleEndian.PutUint32(body[4:], drawable)
	_, err := c.writeRequest(OpCreateGC, 0, body)
	return err
}

// PutImage uploads bitmap data (format XYBitmap=0, depth 1) onto a
// drawable through gc.
func (c *Conn) PutImage(drawable, gc uint32, w, h uint16, dstX, dstY int16, leftPad, depth uint8, data []byte) error {
	body := make([]byte, 20+len(data))
	binary.LittleEndian.PutUint32(body[0:], drawable)
	binary.LittleEndian.PutUint32(body[4:], gc)
	binary.LittleEndian.PutUint16(body[8:], w)
	binary.LittleEndian.PutUint16(body[10:], h)
	binary.LittleEndian.PutUint16(body[12:], uint16(dstX))
	binary.LittleEndian.PutUint16(body[14:], uint16(dstY))
	body[16] = leftPad
	body[17] = depth
	copy(body[20:], data)
	const formatXYBitmap = 0
	_, err := c.writeRequest(OpPutImage, formatXYBitmap, body)
	return err
}

// CreateCursor builds a cursor from a 1-bit source/mask pixmap pair
// (the embedded-glyph fallback from spec.md §4.4).
func (c *Conn) CreateCursor(id, source, mask uint32, fr, fg, fb, br, bg, bb uint16, x, y uint16) error {
	body := make([]byte, 28)
	binary.LittleEndian.PutUint32(body[0:], id)
	binary.LittleEndian.PutUint32(body[4:], source)
	binary.LittleEndian.PutUint32(body[8:], mask)
	binary.LittleEndian.PutUint16(body[12:], fr)
	binary.LittleEndian.PutUint16(body[14:], fg)
	binary.LittleEndian.PutUint16(body[16:], fb)
	binary.LittleEndian.PutUint16(body[18:], br)
	binary.LittleEndian.PutUint16(body[20:], bg)
	binary.LittleEndian.PutUint16(body[22:], bb)
	binary.LittleEndian.PutUint16(body[24:], x)
	binary.LittleEndian.PutUint16(body[26:], y)
	_, err := c.writeRequest(OpCreateCursor, 0, body)
	return err
}

// CWCursor is the ChangeWindowAttributes value-mask bit for the
// cursor attribute (root-window default cursor, spec.md §4.4).
const CWCursor = 1 << 14

// ChangeWindowAttributesCursor sets just the cursor attribute, a
// separate value-mask from ChangeWindowAttributes's event-mask helper
// since the two are set at different points in startup.
func (c *Conn) ChangeWindowAttributesCursor(win, cursor uint32) error {
	body := make([]byte, 12)
	binary.LittleEndian.PutUint32(body[0:], win)
	binary.LittleEndian.PutUint32(body[4:], CWCursor)
	binary.LittleEndian.PutUint32(body[8:], cursor)
	_, err := c.writeRequest(OpChangeWindowAttrs, 0, body)
	return err
}

// FreeGC releases a graphics context created with CreateGC.
func (c *Conn) FreeGC(gc uint32) error {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, gc)
	_, err := c.writeRequest(OpFreeGC, 0, body)
	return err
}

// FreePixmap releases a pixmap created with CreatePixmap.
func (c *Conn) FreePixmap(pixmap uint32) error {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, pixmap)
	_, err := c.writeRequest(OpFreePixmap, 0, body)
	return err
}
