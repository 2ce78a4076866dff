// Package assoc implements spec.md §4.5's surface-association engine:
// it matches Xwayland's two ways of announcing "this X window is
// wl_surface N" against whichever half the registry already holds,
// installs the host role internal/xwm's map policy chose, and keeps
// that role's title/app-id/state hints in sync afterward.
package assoc

import (
	"github.com/bnema/satellite/internal/hostwl"
	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/registry"
	"github.com/bnema/satellite/internal/xwayserver"
	"github.com/bnema/satellite/internal/xwm"
)

// Engine is the process-wide association state (spec.md §9 permits
// exactly one): the registry already holds the pending/association
// tables, Engine adds the live host-role handles those tables' hits
// need to drive.
type Engine struct {
	reg  *registry.Registry
	xway *xwayserver.Server
	host *hostwl.Client
	wm   *xwm.XWM

	toplevels map[uint32]*hostwl.ToplevelHandle // keyed by X window id
	popups    map[uint32]*hostwl.PopupHandle    // keyed by X window id
}

// New wires an Engine into every callback spec.md §4.5 and §4.4's
// property-tracking rule name: the XWM's two X-side half-match/
// property events, and the Xwayland server's two Wayland-side
// half-match events.
func New(reg *registry.Registry, xway *xwayserver.Server, host *hostwl.Client, wm *xwm.XWM) *Engine {
	e := &Engine{
		reg:       reg,
		xway:      xway,
		host:      host,
		wm:        wm,
		toplevels: make(map[uint32]*hostwl.ToplevelHandle),
		popups:    make(map[uint32]*hostwl.PopupHandle),
	}
	wm.OnLegacySurfaceID = e.legacyFromX
	wm.OnSurfaceSerial = e.serialFromX
	wm.OnWindowGone = e.windowGone
	wm.OnTitleChanged = e.onTitleChanged
	wm.OnAppIDChanged = e.onAppIDChanged
	wm.OnFullscreen = e.onFullscreen
	wm.OnMaximized = e.onMaximized
	wm.OnToplevelResize = e.onToplevelResize
	xway.OnLegacySurfaceMatched = e.legacyMatched
	xway.OnSurfaceSerialMatched = e.serialMatched
	return e
}

// --- legacy path: WL_SURFACE_ID ClientMessage vs. surface creation ---

func (e *Engine) legacyFromX(xid, surfaceID uint32) {
	if srf, ok := e.reg.PendingLegacyFromX(xid, surfaceID); ok {
		e.associate(xid, srf.ObjID)
	}
}

func (e *Engine) legacyMatched(xid, surfaceObjID uint32) {
	e.associate(xid, surfaceObjID)
}

// --- modern path: xwayland_shell_v1 serial vs. WL_SURFACE_SERIAL property ---

func (e *Engine) serialFromX(xid uint32, serial uint64) {
	if srf, ok := e.reg.PendingSerialFromX(serial, xid); ok {
		e.associate(xid, srf.ObjID)
	}
}

func (e *Engine) serialMatched(xid, surfaceObjID uint32) {
	e.associate(xid, surfaceObjID)
}

// associate completes a match (spec.md §4.5): records the association,
// assigns a viewport sized to the output the X window landed on, and
// installs the host role internal/xwm's map policy already chose. It
// refuses to run before the X window is mapped (the ordering guarantee
// "first role install never precedes X-window-mapped") and refuses a
// second association for either side.
func (e *Engine) associate(xid, surfaceObjID uint32) {
	win, ok := e.reg.XWindow(xid)
	if !ok || win.Surface != nil || !win.Mapped {
		return
	}
	srf, ok := e.reg.Surface(surfaceObjID)
	if !ok || srf.XWindow != nil {
		return
	}

	hs, ok := e.xway.HostSurface(surfaceObjID)
	if !ok {
		logger.Warnf("assoc: no host surface for object %d", surfaceObjID)
		return
	}

	e.reg.Associate(win, srf)
	srf.Role = win.WantRole
	srf.State = registry.StateAwaitingConfigure

	scale := e.xway.OutputScaleAt(win.X, win.Y)
	e.xway.SetViewport(surfaceObjID, win.Width, win.Height, win.Width/scale, win.Height/scale)

	switch win.WantRole {
	case registry.RoleToplevel:
		e.installToplevel(win, surfaceObjID, hs)
	case registry.RolePopup:
		e.installPopup(win, surfaceObjID, hs)
	}
}

func (e *Engine) installToplevel(win *registry.XWindow, objID uint32, hs *hostwl.HostSurface) {
	xid := win.ID
	props := hostwl.ToplevelProps{Title: win.NetWMName, AppID: win.WMClass}
	var handle *hostwl.ToplevelHandle
	handle = e.host.InstallToplevel(hs, props,
		func(int32, int32, []uint32) { e.ackAndReplay(objID, handle.AckConfigure, handle.LastConfigureSerial) },
		func() { e.wm.RequestClose(xid) },
	)
	e.toplevels[xid] = handle
}

func (e *Engine) installPopup(win *registry.XWindow, objID uint32, hs *hostwl.HostSurface) {
	xid := win.ID
	var parent *hostwl.ToplevelHandle
	if win.TransientFor != 0 {
		parent = e.toplevels[win.TransientFor]
	}
	pos := e.positionerFor(win)
	var handle *hostwl.PopupHandle
	handle = e.host.InstallPopup(hs, parent, pos,
		func(int32, int32, int32, int32) { e.ackAndReplay(objID, handle.AckConfigure, handle.LastConfigureSerial) },
		func() { e.wm.RequestClose(xid) },
	)
	e.popups[xid] = handle
}

// positionerFor keeps a popup's offset relative to its parent
// toplevel's X origin, the way a non-reparenting window manager must
// (spec.md §4.4 map policy step 5: reparenting is never performed).
func (e *Engine) positionerFor(win *registry.XWindow) hostwl.PositionerOffset {
	dx, dy := win.X, win.Y
	if parent, ok := e.reg.XWindow(win.TransientFor); ok {
		dx -= parent.X
		dy -= parent.Y
	}
	return hostwl.PositionerOffset{X: dx, Y: dy, Width: win.Width, Height: win.Height}
}

// ackAndReplay implements the other half of spec.md §4.5's ordering
// guarantee: the first host commit never precedes the first
// ack-configure, so the surface only moves to Live (unlocking
// ReplayPending) after ack has actually been sent.
func (e *Engine) ackAndReplay(objID uint32, ack func(uint32), lastSerial func() uint32) {
	ack(lastSerial())
	srf, ok := e.reg.Surface(objID)
	if !ok || srf.State != registry.StateAwaitingConfigure {
		return
	}
	srf.State = registry.StateLive
	e.xway.ReplayPending(objID, srf)
}

// windowGone drops any role handle still held for a destroyed X window.
func (e *Engine) windowGone(xid uint32) {
	delete(e.toplevels, xid)
	delete(e.popups, xid)
}

// --- property tracking (spec.md §4.4) forwarded to the installed role ---

func (e *Engine) onTitleChanged(xid uint32, title string) {
	if h, ok := e.toplevels[xid]; ok {
		h.SetTitle(title)
	}
}

func (e *Engine) onAppIDChanged(xid uint32, appID string) {
	if h, ok := e.toplevels[xid]; ok {
		h.SetAppID(appID)
	}
}

func (e *Engine) onFullscreen(xid uint32, enable bool) {
	if h, ok := e.toplevels[xid]; ok {
		h.SetFullscreen(enable)
	}
}

func (e *Engine) onMaximized(xid uint32, enable bool) {
	if h, ok := e.toplevels[xid]; ok {
		h.SetMaximized(enable)
	}
}

func (e *Engine) onToplevelResize(xid uint32, w, h int32) {
	if handle, ok := e.toplevels[xid]; ok {
		handle.RequestSize(w, h)
	}
}
