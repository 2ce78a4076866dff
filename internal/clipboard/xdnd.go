package clipboard

import (
	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/x11wire"
)

// xdndVersion is the XDND protocol version this bridge speaks; 5 is
// the version every actively maintained X11 toolkit negotiates down to.
const xdndVersion = 5

// dragState tracks one XDND session initiated by an X client, from
// XdndEnter through XdndDrop/XdndLeave.
type dragState struct {
	source uint32
	types  []uint32
}

// pendingDrop tracks the ConvertSelection this bridge issued to pull
// an XDND drop's payload, awaiting the answering SelectionNotify.
type pendingDrop struct {
	source uint32
	target uint32
}

// OnDragData is spec.md §4.6's re-emission seam: XDND is fully
// terminated on the X side by the time this fires (XdndFinished has
// not yet been sent back to source, letting the caller's host
// wl_data_device.start_drag happen first if it wants to stage a real
// drag rather than a plain clipboard-style paste). A caller with
// access to the originating X window's installed host surface and a
// current input serial (neither of which this package has) can use
// data to build an immediate, non-lazy host data source and call
// ClipboardDevice.StartDrag; without a caller set, the drop still
// completes correctly on the X side, it just never reaches the host.
func (b *Bridge) SetOnDragData(fn func(sourceXID uint32, mime string, data []byte)) {
	b.mu.Lock()
	b.onDragData = fn
	b.mu.Unlock()
}

// advertiseXdndAware marks the root window drag-aware so X clients
// initiating a drag over empty desktop space (the only "window" a
// rootless, non-reparenting satellite can claim XDND on) negotiate
// with us rather than silently failing to find a target.
func (b *Bridge) advertiseXdndAware() error {
	atomType, _ := b.wm.Atom("CARDINAL")
	buf := []byte{xdndVersion, 0, 0, 0}
	return b.conn.ChangeProperty(b.wm.Root(), b.wm.XdndAwareAtom(), atomType, 32, buf, 0)
}

func (b *Bridge) onXClientMessage(ev *x11wire.Event) {
	msgType := ev.Uint32At(4)
	switch msgType {
	case b.wm.XdndEnterAtom():
		b.handleXdndEnter(ev)
	case b.wm.XdndPositionAtom():
		b.handleXdndPosition(ev)
	case b.wm.XdndDropAtom():
		b.handleXdndDrop(ev)
	case b.wm.XdndLeaveAtom():
		b.mu.Lock()
		b.drag = nil
		b.mu.Unlock()
	}
}

func (b *Bridge) handleXdndEnter(ev *x11wire.Event) {
	source := ev.Uint32At(8)
	l1 := ev.Uint32At(12)
	moreThanThree := l1&1 != 0
	if !moreThanThree {
		var types []uint32
		for _, off := range [3]int{16, 20, 24} {
			if a := ev.Uint32At(off); a != 0 {
				types = append(types, a)
			}
		}
		b.mu.Lock()
		b.drag = &dragState{source: source, types: types}
		b.mu.Unlock()
		return
	}
	seq, err := b.conn.GetProperty(source, b.wm.XdndTypeListAtom(), 0, false, 0, 256)
	if err != nil {
		logger.Warnf("clipboard: GetProperty(XdndTypeList): %v", err)
		return
	}
	b.wm.Await(seq, func(ev *x11wire.Event) {
		reply := x11wire.DecodeGetPropertyReply(ev.Detail, ev.Data)
		b.mu.Lock()
		b.drag = &dragState{source: source, types: decodeAtomList(reply.Value)}
		b.mu.Unlock()
	})
}

func (b *Bridge) handleXdndPosition(ev *x11wire.Event) {
	source := ev.Uint32At(8)
	status := x11wire.BuildClientMessage32(source, b.wm.XdndStatusAtom(), b.ownerWin, 1, 0, 0, b.wm.XdndActionCopyAtom())
	if err := b.conn.SendEvent(source, false, 0, status); err != nil {
		logger.Warnf("clipboard: SendEvent(XdndStatus): %v", err)
	}
}

func (b *Bridge) handleXdndDrop(ev *x11wire.Event) {
	source := ev.Uint32At(8)
	timestamp := ev.Uint32At(16)

	b.mu.Lock()
	drag := b.drag
	b.drag = nil
	b.mu.Unlock()

	if drag == nil || drag.source != source {
		b.finishDrag(source, false, 0)
		return
	}
	target := b.pickDropTarget(drag.types)
	if target == 0 {
		b.finishDrag(source, false, 0)
		return
	}
	prop := b.wm.ClipboardTransferPropertyAtom()
	if err := b.conn.ConvertSelection(b.ownerWin, b.wm.XdndSelectionAtom(), target, prop, timestamp); err != nil {
		logger.Warnf("clipboard: ConvertSelection(XDND drop): %v", err)
		b.finishDrag(source, false, 0)
		return
	}
	b.mu.Lock()
	b.pendingDrop = &pendingDrop{source: source, target: target}
	b.mu.Unlock()
}

func (b *Bridge) handleXdndSelectionNotify(property uint32) {
	b.mu.Lock()
	pd := b.pendingDrop
	b.pendingDrop = nil
	b.mu.Unlock()
	if pd == nil {
		return
	}
	if property == 0 {
		b.finishDrag(pd.source, false, 0)
		return
	}
	seq, err := b.conn.GetProperty(b.ownerWin, property, 0, true, 0, 1<<18)
	if err != nil {
		b.finishDrag(pd.source, false, 0)
		return
	}
	b.wm.Await(seq, func(ev *x11wire.Event) {
		reply := x11wire.DecodeGetPropertyReply(ev.Detail, ev.Data)
		b.mimeForTargetAtom(pd.target, func(mime string) {
			b.mu.Lock()
			fn := b.onDragData
			b.mu.Unlock()
			if fn != nil {
				fn(pd.source, mime, reply.Value)
			}
			b.finishDrag(pd.source, true, b.wm.XdndActionCopyAtom())
		})
	})
}

func (b *Bridge) finishDrag(source uint32, performed bool, action uint32) {
	var flags uint32
	if performed {
		flags = 1
	}
	fin := x11wire.BuildClientMessage32(source, b.wm.XdndFinishedAtom(), b.ownerWin, flags, action, 0, 0)
	if err := b.conn.SendEvent(source, false, 0, fin); err != nil {
		logger.Warnf("clipboard: SendEvent(XdndFinished): %v", err)
	}
}

// pickDropTarget prefers the fixed MIME translation table's entries
// (spec.md §4.6) over an arbitrary offered type, so the common
// file-drop and text-drop cases translate cleanly.
func (b *Bridge) pickDropTarget(types []uint32) uint32 {
	for _, preferred := range [3]uint32{b.wm.MimeURIListAtom(), b.wm.UTF8StringAtom(), b.wm.MimeUTF8PlainTextAtom()} {
		for _, t := range types {
			if t == preferred {
				return preferred
			}
		}
	}
	if len(types) > 0 {
		return types[0]
	}
	return 0
}
