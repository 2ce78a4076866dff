package xwm

import (
	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/x11wire"
)

// Conn exposes the X11 connection for internal/clipboard's selection
// requests (ConvertSelection, SetSelectionOwner, SendEvent, property
// reads) — the same connection HandleEvent reads events from.
func (w *XWM) Conn() *x11wire.Conn { return w.conn }

// Root is the screen's root window, the destination for XDND
// ClientMessages.
func (w *XWM) Root() uint32 { return w.root }

// Atom resolves any interned atom by name, for the few clipboard MIME
// names that aren't worth dedicated fields (spec.md §4.6's "unknown
// atoms pass through by name").
func (w *XWM) Atom(name string) (uint32, bool) {
	v, ok := w.a.byName[name]
	return v, ok
}

// AtomName is Atom's inverse, used to turn a TARGETS reply's raw atom
// list back into MIME type names for the translation table.
func (w *XWM) AtomName(atom uint32) (string, bool) {
	return w.conn.AtomName(atom)
}

// Await registers a continuation for a GetProperty (or other replying
// request) sequence number, the same asynchronous-reply mechanism
// maprequest.go's fetchProperty uses: internal/clipboard runs on the
// same single event-loop goroutine and must never block on a reply.
func (w *XWM) Await(seq uint16, fn func(*x11wire.Event)) {
	w.await(seq, fn)
}

// ResolveAtomName names atom, either immediately from the client-side
// cache or via an async GetAtomName round trip, for MIME names a
// TARGETS reply mentions that nothing has interned locally yet.
func (w *XWM) ResolveAtomName(atom uint32, cb func(name string)) {
	if name, ok := w.conn.AtomName(atom); ok {
		cb(name)
		return
	}
	seq, err := w.conn.GetAtomName(atom)
	if err != nil {
		logger.Warnf("xwm: GetAtomName(%d): %v", atom, err)
		cb("")
		return
	}
	w.await(seq, func(ev *x11wire.Event) {
		name := x11wire.DecodeGetAtomNameReply(ev.Data)
		if name != "" {
			w.conn.RegisterAtom(name, atom)
		}
		cb(name)
	})
}

// ClipboardAtom, PrimaryAtom, TargetsAtom, MultipleAtom are the
// selection/target atoms internal/clipboard owns and contests.
func (w *XWM) ClipboardAtom() uint32 { return w.a.clipboard }
func (w *XWM) PrimaryAtom() uint32   { return w.a.primary }
func (w *XWM) TargetsAtom() uint32   { return w.a.targets }
func (w *XWM) MultipleAtom() uint32  { return w.a.multiple }

// MimeUTF8PlainTextAtom/MimeURIListAtom are the fixed MIME-translation
// table entries spec.md §4.6 names explicitly.
func (w *XWM) MimeUTF8PlainTextAtom() uint32 { return w.a.mimeUTF8Plain }
func (w *XWM) MimeURIListAtom() uint32       { return w.a.mimeURIList }

// UTF8StringAtom is UTF8_STRING, the X side of the fixed MIME
// translation for plain text.
func (w *XWM) UTF8StringAtom() uint32 { return w.a.utf8String }

// ClipboardTargetsPropertyAtom and ClipboardTransferPropertyAtom name
// the two properties internal/clipboard reads ConvertSelection answers
// back from on its own owner window (a private atom pair, not part of
// any protocol other clients need to recognize).
func (w *XWM) ClipboardTargetsPropertyAtom() uint32  { return w.a.clipboardTargetsProp }
func (w *XWM) ClipboardTransferPropertyAtom() uint32 { return w.a.clipboardTransferProp }

// XdndAwareAtom, XdndEnterAtom, XdndPositionAtom, XdndStatusAtom,
// XdndDropAtom, XdndLeaveAtom, XdndFinishedAtom, XdndSelectionAtom,
// XdndTypeListAtom, XdndActionCopyAtom are the XDND protocol atoms
// internal/clipboard's drag bridge uses.
func (w *XWM) XdndAwareAtom() uint32      { return w.a.xdndAware }
func (w *XWM) XdndEnterAtom() uint32      { return w.a.xdndEnter }
func (w *XWM) XdndPositionAtom() uint32   { return w.a.xdndPosition }
func (w *XWM) XdndStatusAtom() uint32     { return w.a.xdndStatus }
func (w *XWM) XdndDropAtom() uint32       { return w.a.xdndDrop }
func (w *XWM) XdndLeaveAtom() uint32      { return w.a.xdndLeave }
func (w *XWM) XdndFinishedAtom() uint32   { return w.a.xdndFinished }
func (w *XWM) XdndSelectionAtom() uint32  { return w.a.xdndSelection }
func (w *XWM) XdndTypeListAtom() uint32   { return w.a.xdndTypeList }
func (w *XWM) XdndActionCopyAtom() uint32 { return w.a.xdndActionCopy }
