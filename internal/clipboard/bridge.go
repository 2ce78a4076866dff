package clipboard

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/bnema/satellite/internal/hostwl"
	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/x11wire"
	"github.com/bnema/satellite/internal/xwm"
)

// defaultTransferTimeout is spec.md §4.6's suggested bound on a lazy
// pipe-based transfer: if the X selection owner never answers
// ConvertSelection, the reader gets EOF rather than hanging forever.
const defaultTransferTimeout = 5 * time.Second

// hostOffer is the shared shape of hostwl.ClipboardOffer and
// hostwl.PrimarySelectionOffer: the host's announcement of a
// selection's MIME types and the lazy-receive call that streams one
// of them into a pipe.
type hostOffer interface {
	MimeTypes() []string
	Receive(mimeType string) (*os.File, error)
}

// hostSourceOps is the host-side half of one selection's current
// ownership: a thin, closure-based adaptor over whichever of
// hostwl.ClipboardSource/PrimarySelectionSource backs it, since the two
// types share behavior but not a common concrete type.
type hostSourceOps struct {
	offer        func(mimeType string)
	setOnSend    func(fn func(mimeType string, w *os.File))
	setOnCancel  func(fn func())
	destroy      func()
	setSelection func(serial uint32)
}

// transfer tracks one in-flight lazy pipe transfer: an X client asked
// us (as a selection owner) for bytes, or we asked an X owner for
// bytes on the host's behalf, and either the ConvertSelection answer
// or the timeout will resolve it.
type transfer struct {
	w     *os.File
	epoch uint64
	timer *time.Timer
}

// Bridge wires internal/xwm's selection events to the host's
// wl_data_device/zwp_primary_selection protocols (spec.md §4.6). It
// must be constructed after both wm and the host data devices are
// ready, and its callbacks run on the event-loop goroutine except
// where explicitly hopped via host.Post.
type Bridge struct {
	wm   *xwm.XWM
	conn *x11wire.Conn
	host *hostwl.Client

	clip *hostwl.ClipboardDevice
	prim *hostwl.PrimarySelectionDevice // nil if the host lacks the optional protocol

	ownerWin uint32

	transferTimeout time.Duration

	mu             sync.Mutex
	epoch          map[uint32]uint64    // selection atom -> ownership epoch, bumped each time we lose it
	offers         map[uint32]hostOffer // selection atom -> host content we're currently serving to X requesters
	active         map[uint32]*transfer // selection atom -> in-flight pull from an X owner
	srcOps         map[uint32]hostSourceOps
	pendingTargets map[uint32]uint64 // selection atom -> epoch a TARGETS request was issued under
	lastSerial     uint32

	drag        *dragState   // XDND session currently in progress, nil between drags
	pendingDrop *pendingDrop // ConvertSelection issued for an XdndDrop, awaiting its SelectionNotify
	onDragData  func(sourceXID uint32, mime string, data []byte)
}

// New claims a small unmapped window to act as this process's
// selection owner/requestor, the same device claimWMSn's WM_Sn window
// serves for window-manager identity, and wires every selection/
// drag-and-drop hook spec.md §4.6 names. prim may be nil when the host
// compositor does not advertise zwp_primary_selection_device_manager_v1.
func New(wm *xwm.XWM, host *hostwl.Client, clip *hostwl.ClipboardDevice, prim *hostwl.PrimarySelectionDevice) (*Bridge, error) {
	conn := wm.Conn()
	win := conn.NewID()
	if err := conn.CreateWindow(win, wm.Root(), -1, -1, 1, 1); err != nil {
		return nil, fmt.Errorf("clipboard: create owner window: %w", err)
	}

	b := &Bridge{
		wm:              wm,
		conn:            conn,
		host:            host,
		clip:            clip,
		prim:            prim,
		ownerWin:        win,
		transferTimeout: defaultTransferTimeout,
		epoch:           make(map[uint32]uint64),
		offers:          make(map[uint32]hostOffer),
		active:          make(map[uint32]*transfer),
		srcOps:          make(map[uint32]hostSourceOps),
		pendingTargets:  make(map[uint32]uint64),
	}

	if err := b.advertiseXdndAware(); err != nil {
		logger.Warnf("clipboard: advertise XdndAware on root: %v", err)
	}

	wm.OnSelectionClear = b.onXSelectionClear
	wm.OnSelectionRequest = b.onXSelectionRequest
	wm.OnSelectionNotify = b.onXSelectionNotify
	wm.OnClientMessage = b.onXClientMessage

	clip.SetOnSelection(func(offer *hostwl.ClipboardOffer) {
		host.Post(func() { b.onHostSelection(wm.ClipboardAtom(), offer) })
	})
	if prim != nil {
		prim.SetOnSelection(func(offer *hostwl.PrimarySelectionOffer) {
			host.Post(func() { b.onHostPrimarySelection(offer) })
		})
	}

	return b, nil
}

// SetLastSerial records the most recent host input serial available,
// for wl_data_device.set_selection's serial argument. No keyboard
// input path exists in this tree yet (internal/xwayserver's wl_keyboard
// emission is a pending no-op), so this defaults to 0 until a caller
// wires real serials through.
func (b *Bridge) SetLastSerial(serial uint32) {
	b.mu.Lock()
	b.lastSerial = serial
	b.mu.Unlock()
}

func (b *Bridge) serial() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSerial
}

// --- host -> X: the host clipboard/primary selection changed ---

func (b *Bridge) onHostSelection(selection uint32, offer *hostwl.ClipboardOffer) {
	if offer == nil {
		b.clearOffer(selection)
		return
	}
	b.setOffer(selection, offer)
}

func (b *Bridge) onHostPrimarySelection(offer *hostwl.PrimarySelectionOffer) {
	selection := b.wm.PrimaryAtom()
	if offer == nil {
		b.clearOffer(selection)
		return
	}
	b.setOffer(selection, offer)
}

func (b *Bridge) setOffer(selection uint32, offer hostOffer) {
	if err := b.conn.SetSelectionOwner(b.ownerWin, selection, 0); err != nil {
		logger.Warnf("clipboard: claim selection %d: %v", selection, err)
		return
	}
	b.mu.Lock()
	b.offers[selection] = offer
	b.mu.Unlock()
}

func (b *Bridge) clearOffer(selection uint32) {
	b.mu.Lock()
	delete(b.offers, selection)
	b.mu.Unlock()
	if err := b.conn.SetSelectionOwner(0, selection, 0); err != nil {
		logger.Warnf("clipboard: release selection %d: %v", selection, err)
	}
}

func (b *Bridge) offerFor(selection uint32) (hostOffer, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.offers[selection]
	return o, ok
}

// --- X requests to us, while we own CLIPBOARD/PRIMARY on the host's behalf ---

func (b *Bridge) onXSelectionRequest(ev *x11wire.Event) {
	_, requestor, selection, target, property := x11wire.SelectionRequestFields(ev)
	if property == 0 {
		property = target // ICCCM: pre-1.0 clients leave property unset; fall back to target's atom as the property name
	}

	if target == b.wm.TargetsAtom() {
		b.answerTargets(requestor, selection, property)
		return
	}
	if target == b.wm.MultipleAtom() {
		b.refuseConversion(requestor, selection, target)
		return
	}

	offer, ok := b.offerFor(selection)
	if !ok {
		b.refuseConversion(requestor, selection, target)
		return
	}
	b.mimeForTargetAtom(target, func(mime string) {
		if mime == "" || !containsString(offer.MimeTypes(), mime) {
			b.refuseConversion(requestor, selection, target)
			return
		}
		r, err := offer.Receive(mime)
		if err != nil {
			logger.Warnf("clipboard: host receive(%s): %v", mime, err)
			b.refuseConversion(requestor, selection, target)
			return
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			logger.Warnf("clipboard: read host transfer pipe: %v", err)
			b.refuseConversion(requestor, selection, target)
			return
		}
		if err := b.conn.ChangeProperty(requestor, property, target, 8, data, 0); err != nil {
			logger.Warnf("clipboard: ChangeProperty(%s): %v", mime, err)
			b.refuseConversion(requestor, selection, target)
			return
		}
		ev := x11wire.BuildSelectionNotify(requestor, selection, target, property, 0)
		if err := b.conn.SendEvent(requestor, false, 0, ev); err != nil {
			logger.Warnf("clipboard: SendEvent(SelectionNotify): %v", err)
		}
	})
}

func (b *Bridge) refuseConversion(requestor, selection, target uint32) {
	ev := x11wire.BuildSelectionNotify(requestor, selection, target, 0, 0)
	if err := b.conn.SendEvent(requestor, false, 0, ev); err != nil {
		logger.Warnf("clipboard: SendEvent(SelectionNotify refuse): %v", err)
	}
}

func (b *Bridge) answerTargets(requestor, selection, property uint32) {
	offer, ok := b.offerFor(selection)
	if !ok {
		b.refuseConversion(requestor, selection, b.wm.TargetsAtom())
		return
	}
	mimes := offer.MimeTypes()
	base := []uint32{b.wm.TargetsAtom()}
	if len(mimes) == 0 {
		b.writeTargetsProperty(requestor, selection, property, base)
		return
	}
	resolved := make([]uint32, len(mimes))
	remaining := len(mimes)
	for i, m := range mimes {
		i, m := i, m
		b.atomForMime(m, func(atom uint32, ok bool) {
			if ok {
				resolved[i] = atom
			}
			remaining--
			if remaining == 0 {
				full := append([]uint32(nil), base...)
				for _, a := range resolved {
					if a != 0 {
						full = append(full, a)
					}
				}
				b.writeTargetsProperty(requestor, selection, property, full)
			}
		})
	}
}

func (b *Bridge) writeTargetsProperty(requestor, selection, property uint32, atoms []uint32) {
	buf := make([]byte, 4*len(atoms))
	for i, a := range atoms {
		binary.LittleEndian.PutUint32(buf[4*i:], a)
	}
	atomType, _ := b.wm.Atom("ATOM")
	if err := b.conn.ChangeProperty(requestor, property, atomType, 32, buf, 0); err != nil {
		logger.Warnf("clipboard: ChangeProperty(TARGETS): %v", err)
		b.refuseConversion(requestor, selection, b.wm.TargetsAtom())
		return
	}
	ev := x11wire.BuildSelectionNotify(requestor, selection, b.wm.TargetsAtom(), property, 0)
	if err := b.conn.SendEvent(requestor, false, 0, ev); err != nil {
		logger.Warnf("clipboard: SendEvent(TARGETS notify): %v", err)
	}
}

// mimeForTargetAtom resolves a requested target atom to a MIME name,
// asynchronously when the atom isn't one of the fixed table entries
// and hasn't been interned client-side yet.
func (b *Bridge) mimeForTargetAtom(target uint32, cb func(mime string)) {
	if mime, ok := fixedAtomToMime(target, b.wm.UTF8StringAtom(), b.wm.MimeUTF8PlainTextAtom(), b.wm.MimeURIListAtom()); ok {
		cb(mime)
		return
	}
	b.wm.ResolveAtomName(target, cb)
}

// atomForMime is mimeForTargetAtom's inverse: the X atom to name mime
// with, interning it by that exact name when it isn't one of the fixed
// entries (spec.md §4.6's "unknown types pass through by name").
func (b *Bridge) atomForMime(mime string, cb func(atom uint32, ok bool)) {
	if atom, ok := fixedMimeToAtom(mime, b.wm.UTF8StringAtom(), b.wm.MimeURIListAtom()); ok {
		cb(atom, true)
		return
	}
	atom, ok, seq, err := b.conn.InternAtom(mime, false)
	if ok {
		cb(atom, true)
		return
	}
	if err != nil {
		logger.Warnf("clipboard: InternAtom(%s): %v", mime, err)
		cb(0, false)
		return
	}
	b.wm.Await(seq, func(ev *x11wire.Event) {
		a := ev.Uint32At(4)
		b.conn.RegisterAtom(mime, a)
		cb(a, true)
	})
}

// --- X -> host: an X client owns CLIPBOARD/PRIMARY ---

// onXSelectionClear fires when another X client takes ownership away
// from us, or (per this hook's xsettings.go filtering) for either
// CLIPBOARD or PRIMARY regardless of who the new owner is.
func (b *Bridge) onXSelectionClear(selection uint32) {
	if selection != b.wm.ClipboardAtom() && selection != b.wm.PrimaryAtom() {
		return
	}
	b.mu.Lock()
	b.epoch[selection]++
	epoch := b.epoch[selection]
	delete(b.offers, selection)
	t, hadTransfer := b.active[selection]
	delete(b.active, selection)
	b.mu.Unlock()
	if hadTransfer {
		cancelTransfer(t)
	}
	b.requestTargetsFromXOwner(selection, epoch)
}

func (b *Bridge) requestTargetsFromXOwner(selection uint32, epoch uint64) {
	prop := b.wm.ClipboardTargetsPropertyAtom()
	if err := b.conn.ConvertSelection(b.ownerWin, selection, b.wm.TargetsAtom(), prop, 0); err != nil {
		logger.Warnf("clipboard: ConvertSelection(TARGETS): %v", err)
		return
	}
	b.mu.Lock()
	b.pendingTargets[selection] = epoch
	b.mu.Unlock()
}

func (b *Bridge) onXSelectionNotify(ev *x11wire.Event) {
	requestor, selection, target, property := x11wire.SelectionNotifyFields(ev)
	if requestor != b.ownerWin {
		return
	}
	if selection == b.wm.XdndSelectionAtom() {
		b.handleXdndSelectionNotify(property)
		return
	}
	if target == b.wm.TargetsAtom() {
		b.handleTargetsReply(selection, property)
		return
	}
	b.handleTransferReply(selection, property)
}

func (b *Bridge) handleTargetsReply(selection, property uint32) {
	b.mu.Lock()
	epoch, ok := b.pendingTargets[selection]
	delete(b.pendingTargets, selection)
	b.mu.Unlock()
	if !ok {
		return
	}
	if property == 0 {
		return // owner refused or has nothing to offer
	}
	seq, err := b.conn.GetProperty(b.ownerWin, property, 0, true, 0, 1024)
	if err != nil {
		logger.Warnf("clipboard: GetProperty(TARGETS): %v", err)
		return
	}
	b.wm.Await(seq, func(ev *x11wire.Event) {
		reply := x11wire.DecodeGetPropertyReply(ev.Detail, ev.Data)
		b.buildHostSourceFromTargets(selection, epoch, decodeAtomList(reply.Value))
	})
}

func (b *Bridge) buildHostSourceFromTargets(selection uint32, epoch uint64, atoms []uint32) {
	if b.currentEpoch(selection) != epoch {
		return // owner changed again before this reply landed
	}
	targets, multiple := b.wm.TargetsAtom(), b.wm.MultipleAtom()
	filtered := make([]uint32, 0, len(atoms))
	for _, a := range atoms {
		if a != 0 && a != targets && a != multiple {
			filtered = append(filtered, a)
		}
	}
	if len(filtered) == 0 {
		return
	}
	mimes := make([]string, len(filtered))
	remaining := len(filtered)
	for i, a := range filtered {
		i := i
		b.mimeForTargetAtom(a, func(name string) {
			mimes[i] = name
			remaining--
			if remaining == 0 {
				b.installHostSource(selection, epoch, dedupeNonEmpty(mimes))
			}
		})
	}
}

func (b *Bridge) currentEpoch(selection uint32) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.epoch[selection]
}

func (b *Bridge) installHostSource(selection uint32, epoch uint64, mimes []string) {
	if b.currentEpoch(selection) != epoch || len(mimes) == 0 {
		return
	}
	ops := b.newHostSourceOps(selection)
	for _, m := range mimes {
		ops.offer(m)
	}
	ops.setOnSend(func(mimeType string, w *os.File) {
		// wl_data_source.send fires on the host-dispatch goroutine
		// (see hostwl.Client.Run); hop back before touching transfer state.
		b.host.Post(func() { b.startTransfer(selection, mimeType, w) })
	})
	ops.setOnCancel(func() {})

	b.mu.Lock()
	old, hadOld := b.srcOps[selection]
	b.srcOps[selection] = ops
	b.mu.Unlock()
	if hadOld && old.destroy != nil {
		old.destroy()
	}
	ops.setSelection(b.serial())
}

func (b *Bridge) newHostSourceOps(selection uint32) hostSourceOps {
	if selection == b.wm.PrimaryAtom() && b.prim != nil {
		src := b.prim.NewSource()
		return hostSourceOps{
			offer:        src.Offer,
			setOnSend:    src.SetOnSend,
			setOnCancel:  src.SetOnCancel,
			destroy:      src.Destroy,
			setSelection: func(serial uint32) { b.prim.SetSelection(src, serial) },
		}
	}
	src := b.clip.NewSource()
	return hostSourceOps{
		offer:        src.Offer,
		setOnSend:    src.SetOnSend,
		setOnCancel:  src.SetOnCancel,
		destroy:      src.Destroy,
		setSelection: func(serial uint32) { b.clip.SetSelection(src, serial) },
	}
}

// startTransfer is Scenario 3's core: a host client requested mimeType
// from the X selection owner; ask that owner to convert it and stream
// the result into w once the (async) SelectionNotify answers, bounded
// by transferTimeout.
func (b *Bridge) startTransfer(selection uint32, mimeType string, w *os.File) {
	b.mu.Lock()
	if _, busy := b.active[selection]; busy {
		b.mu.Unlock()
		logger.Warnf("clipboard: transfer already in flight for selection %d, dropping request", selection)
		w.Close()
		return
	}
	epoch := b.epoch[selection]
	b.mu.Unlock()

	b.atomForMime(mimeType, func(atom uint32, ok bool) {
		if !ok {
			w.Close()
			return
		}
		prop := b.wm.ClipboardTransferPropertyAtom()
		if err := b.conn.ConvertSelection(b.ownerWin, selection, atom, prop, 0); err != nil {
			logger.Warnf("clipboard: ConvertSelection(%s): %v", mimeType, err)
			w.Close()
			return
		}
		t := &transfer{w: w, epoch: epoch}
		t.timer = time.AfterFunc(b.transferTimeout, func() {
			b.host.Post(func() { b.timeoutTransfer(selection, t) })
		})
		b.mu.Lock()
		b.active[selection] = t
		b.mu.Unlock()
	})
}

func (b *Bridge) handleTransferReply(selection, property uint32) {
	b.mu.Lock()
	t, ok := b.active[selection]
	b.mu.Unlock()
	if !ok {
		return
	}
	if property == 0 {
		b.finishTransfer(selection, t, nil, fmt.Errorf("selection owner refused conversion"))
		return
	}
	seq, err := b.conn.GetProperty(b.ownerWin, property, 0, true, 0, 1<<18)
	if err != nil {
		b.finishTransfer(selection, t, nil, err)
		return
	}
	b.wm.Await(seq, func(ev *x11wire.Event) {
		reply := x11wire.DecodeGetPropertyReply(ev.Detail, ev.Data)
		b.finishTransfer(selection, t, reply.Value, nil)
	})
}

func (b *Bridge) finishTransfer(selection uint32, t *transfer, data []byte, err error) {
	b.mu.Lock()
	cur, ok := b.active[selection]
	stale := !ok || cur != t
	if !stale {
		delete(b.active, selection)
	}
	curEpoch := b.epoch[selection]
	b.mu.Unlock()

	t.timer.Stop()
	if stale {
		return
	}
	defer t.w.Close()

	if curEpoch != t.epoch {
		logger.Warnf("clipboard: selection %d changed owner mid-transfer, cancelling", selection)
		return
	}
	if err != nil {
		logger.Warnf("clipboard: transfer failed: %v", err)
		return
	}
	if len(data) > 0 {
		if _, werr := t.w.Write(data); werr != nil {
			logger.Warnf("clipboard: write transfer bytes: %v", werr)
		}
	}
}

func (b *Bridge) timeoutTransfer(selection uint32, t *transfer) {
	b.mu.Lock()
	cur, ok := b.active[selection]
	if ok && cur == t {
		delete(b.active, selection)
	} else {
		ok = false
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	logger.Warnf("clipboard: transfer timed out after %s for selection %d", b.transferTimeout, selection)
	t.w.Close()
}

func cancelTransfer(t *transfer) {
	t.timer.Stop()
	t.w.Close()
}

func decodeAtomList(data []byte) []uint32 {
	n := len(data) / 4
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return out
}
