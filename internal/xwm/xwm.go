// Package xwm is the satellite's non-reparenting X11 window manager
// (spec.md §4.4): it claims the root window's SubstructureRedirect,
// classifies mapped windows into toplevel/popup, keeps their stacking
// and properties in sync with the host-side roles internal/assoc
// installs, and contests the Xsettings selection.
//
// Every method here is expected to run on the single event-loop
// goroutine (spec.md §5); the one exception is the startup sequence in
// New, which performs the same kind of blocking round trips
// internal/x11wire.Dial's handshake already does before the loop
// exists to drive this connection.
package xwm

import (
	"fmt"

	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/registry"
	"github.com/bnema/satellite/internal/x11wire"
)

// XWM is the window manager's process-wide state object (spec.md §9:
// one of the three state objects the design permits a single
// instance of).
type XWM struct {
	conn *x11wire.Conn
	reg  *registry.Registry
	a    *atoms

	root          uint32
	supportingWin uint32
	wmSnOwner     uint32

	xsettingsWin   uint32
	xsettingsOwner bool

	cursor uint32

	pending map[uint16]func(*x11wire.Event)

	mapping    map[uint32]*pendingClassify
	createGeom map[uint32]windowGeom

	// OutputScale reports the scale of the output new toplevels land
	// on, for Xsettings DPI publication; wired by cmd/satellite to
	// internal/xwayserver's output layout.
	OutputScale func() int32

	// OnToplevelResize is called when ConfigureRequest's size must be
	// propagated to the host as xdg_toplevel.set_*_size hints
	// (position is never forwarded, spec.md §4.4).
	OnToplevelResize func(xid uint32, w, h int32)

	// OnTitleChanged/OnAppIDChanged/OnFullscreen/OnMaximized push property
	// updates to the host role once internal/assoc has installed one;
	// xid identifies the X window, the XWM does not know about host
	// surfaces directly (spec.md §9 keeps state objects decoupled).
	OnTitleChanged func(xid uint32, title string)
	OnAppIDChanged func(xid uint32, appID string)
	OnFullscreen   func(xid uint32, enable bool)
	OnMaximized    func(xid uint32, enable bool)

	// OnLegacySurfaceID fires on a WL_SURFACE_ID ClientMessage (the
	// legacy half of spec.md §4.5's association match); internal/assoc
	// wires this to Registry.PendingLegacyFromX.
	OnLegacySurfaceID func(xid, surfaceID uint32)

	// OnSurfaceSerial fires once WL_SURFACE_SERIAL has been read back
	// (the modern half of spec.md §4.5's association match);
	// internal/assoc wires this to Registry.PendingSerialFromX.
	OnSurfaceSerial func(xid uint32, serial uint64)

	// OnWindowGone fires once an X window is destroyed, after its
	// registry record is already removed; internal/assoc uses it to
	// drop any role handle it still holds for xid.
	OnWindowGone func(xid uint32)

	// OnSelectionClear fires for any SelectionClear other than
	// _XSETTINGS_S0 (which handleSelectionClear already owns);
	// internal/clipboard wires this to know it lost CLIPBOARD/PRIMARY
	// ownership to another X client (spec.md §4.6).
	OnSelectionClear func(selection uint32)

	// OnSelectionRequest fires when an X client asks the owner (us)
	// to convert a selection to a target type; internal/clipboard
	// answers it with SendEvent+SelectionNotify (spec.md §4.6).
	OnSelectionRequest func(ev *x11wire.Event)

	// OnSelectionNotify fires when a ConvertSelection this process
	// issued has been answered; internal/clipboard reads the named
	// property to pull the transferred bytes.
	OnSelectionNotify func(ev *x11wire.Event)

	// OnClientMessage fires for any ClientMessage handleClientMessage
	// doesn't itself recognize (WL_SURFACE_ID is handled directly);
	// internal/clipboard wires this to observe XDND protocol messages.
	OnClientMessage func(ev *x11wire.Event)
}

// New claims the root window and publishes the WM's standing state:
// SubstructureRedirect selection, WM_Sn ownership, EWMH hints, default
// cursor, and an Xsettings ownership attempt. It returns a fatal-class
// error (spec.md §7) when atom interning, the root event selection,
// WM_Sn ownership or the EWMH hints can't be completed, since the
// satellite cannot run without a window manager seat; cursor and
// Xsettings failures are only logged.
//
// reg is the registry internal/xwayserver was constructed against.
// xwayserver's Wayland socket has to be listening (so Xwayland has
// something to connect to) before Xwayland can be spawned, which is
// before an X11 connection exists to build an XWM from — so the
// registry is always born in cmd/satellite and handed to both sides
// rather than owned by either one.
func New(conn *x11wire.Conn, displayNum string, reg *registry.Registry) (*XWM, error) {
	a, err := internAtoms(conn, displayNum)
	if err != nil {
		return nil, fmt.Errorf("xwm: intern atoms: %w", err)
	}

	w := &XWM{
		conn:       conn,
		reg:        reg,
		a:          a,
		root:       conn.Setup.Root,
		pending:    make(map[uint16]func(*x11wire.Event)),
		mapping:    make(map[uint32]*pendingClassify),
		createGeom: make(map[uint32]windowGeom),
	}

	if err := conn.ChangeWindowAttributes(w.root, x11wire.EventMaskSubstructureRedirect|x11wire.EventMaskSubstructureNotify|x11wire.EventMaskPropertyChange); err != nil {
		return nil, fmt.Errorf("xwm: select root events: %w", err)
	}

	if err := w.claimWMSn(displayNum); err != nil {
		return nil, err
	}

	if err := w.setupEWMH(); err != nil {
		return nil, fmt.Errorf("xwm: publish EWMH hints: %w", err)
	}

	w.loadCursor()
	w.tryClaimXsettings()

	return w, nil
}

// Registry exposes the shared registry for internal/assoc and
// internal/loop to wire against.
func (w *XWM) Registry() *registry.Registry { return w.reg }

// claimWMSn creates a small unmapped window to own WM_Sn, the ICCCM
// manager-selection convention: owning WM_Sn (not just redirecting
// SubstructureRedirect) is what lets well-behaved clients detect a
// compliant window manager is present.
func (w *XWM) claimWMSn(displayNum string) error {
	id := w.conn.NewID()
	if err := w.conn.CreateWindow(id, w.root, -1, -1, 1, 1); err != nil {
		return fmt.Errorf("xwm: create WM_Sn owner window: %w", err)
	}
	if err := w.conn.SetSelectionOwner(id, w.a.wmSn, 0); err != nil {
		return fmt.Errorf("xwm: claim WM_S%s: %w", displayNum, err)
	}
	w.wmSnOwner = id
	return nil
}

// HandleEvent dispatches one event or reply read from the X11
// connection. It is the only entry point internal/loop calls into.
func (w *XWM) HandleEvent(ev *x11wire.Event) {
	if ev.Code == 1 {
		if fn, ok := w.pending[ev.Seq]; ok {
			delete(w.pending, ev.Seq)
			fn(ev)
		}
		return
	}
	switch ev.Code {
	case x11wire.EventCreateNotify:
		w.handleCreateNotify(ev)
	case x11wire.EventMapRequest:
		w.handleMapRequest(ev)
	case x11wire.EventMapNotify:
		w.handleMapNotify(ev)
	case x11wire.EventUnmapNotify:
		w.handleUnmapNotify(ev)
	case x11wire.EventDestroyNotify:
		w.handleDestroyNotify(ev)
	case x11wire.EventConfigureRequest:
		w.handleConfigureRequest(ev)
	case x11wire.EventEnterNotify:
		w.handleEnterNotify(ev)
	case x11wire.EventPropertyNotify:
		w.handlePropertyNotify(ev)
	case x11wire.EventClientMessage:
		w.handleClientMessage(ev)
	case x11wire.EventSelectionClear:
		w.handleSelectionClear(ev)
	case x11wire.EventSelectionRequest:
		if w.OnSelectionRequest != nil {
			w.OnSelectionRequest(ev)
		}
	case x11wire.EventSelectionNotify:
		if w.OnSelectionNotify != nil {
			w.OnSelectionNotify(ev)
		}
	case 0:
		logger.Warnf("xwm: X error event (code=%d detail=%d seq=%d)", ev.Code, ev.Detail, ev.Seq)
	}
}

// await registers a continuation for a reply sequence number; the
// corresponding request must already have been written.
func (w *XWM) await(seq uint16, fn func(*x11wire.Event)) {
	w.pending[seq] = fn
}

func (w *XWM) handleDestroyNotify(ev *x11wire.Event) {
	xid := ev.Window(4)
	delete(w.mapping, xid)
	w.reg.RemoveXWindow(xid)
	if w.OnWindowGone != nil {
		w.OnWindowGone(xid)
	}
}

func (w *XWM) handleUnmapNotify(ev *x11wire.Event) {
	xid := ev.Window(4)
	if win, ok := w.reg.XWindow(xid); ok {
		win.Mapped = false
	}
}
