// Package xwayserver is the Wayland server the satellite presents to
// Xwayland (spec.md §4.3). It advertises a curated global set that
// mirrors the host compositor's, and dispatches every request from
// Xwayland as one of three tagged kinds: pass-through (forwarded
// verbatim to the matching host object), intercepted (rewritten in
// one or both directions, e.g. wl_surface/wl_output/wl_pointer), or
// synthesised (answered locally, e.g. the legacy wl_drm probe).
package xwayserver

import (
	"fmt"

	"github.com/bnema/satellite/internal/hostwl"
	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/registry"
	"github.com/bnema/satellite/internal/wire"
)

// ObjectKind tags how a server-side object's requests are dispatched,
// per spec.md §9's "tagged variants, no inheritance" note.
type ObjectKind int

const (
	KindPassThrough ObjectKind = iota
	KindIntercepted
	KindSynthesised
)

// Object is one live server-side Wayland object as seen from
// Xwayland's side of the connection.
type Object struct {
	ID        uint32
	Interface string
	Kind      ObjectKind

	// HostID is the matching host-side object id, for pass-through and
	// intercepted objects that have a host peer. Zero for synthesised
	// objects, which have none.
	HostID uint32

	// HostOutputName identifies the host output (hostwl.Output.Name)
	// this object mirrors. Only meaningful for "wl_output" and
	// "zxdg_output_v1" objects.
	HostOutputName uint32

	// SurfaceObjID is the wl_surface this object decorates. Only
	// meaningful for "xwayland_surface_v1" objects, which exist purely
	// to carry xwayland_shell_v1.get_xwayland_surface's serial back to
	// the surface it named (spec.md §4.5's modern association path).
	SurfaceObjID uint32
}

// global is one entry in the advertised registry. hostOutputName is
// only meaningful for "wl_output" entries: it names which host output
// (hostwl.Output.Name) this particular global instance mirrors, since
// the satellite advertises one wl_output per bound host output rather
// than a single shared one.
type global struct {
	name           uint32
	iface          string
	version        uint32
	hostOutputName uint32
}

// Server is the Xwayland-facing Wayland server.
type Server struct {
	listener *wire.Listener
	conn     *wire.Conn // Xwayland connects exactly once

	host *hostwl.Client
	reg  *registry.Registry

	objects        map[uint32]*Object
	rawProxies     map[uint32]*hostwl.RawProxy
	globals        []global
	nextGlobalName uint32

	surfaces *surfaceManager
	outputs  *outputLayout
	pointer  *pointerTranslator

	// OnSurfaceSerialMatched fires once a wl_surface's modern
	// association handshake completes (spec.md §4.5): the
	// xwayland_shell_v1.get_xwayland_surface/set_serial pair resolved
	// against a WL_SURFACE_SERIAL property internal/xwm already read
	// back. internal/assoc wires this to install the host role.
	OnSurfaceSerialMatched func(xid uint32, surfaceObjID uint32)

	// OnLegacySurfaceMatched fires once a newly created wl_surface
	// resolves a WL_SURFACE_ID ClientMessage internal/xwm already saw
	// (spec.md §4.5's legacy path, surface-arrives-second case).
	OnLegacySurfaceMatched func(xid uint32, surfaceObjID uint32)

	// outputRefreshCh carries a single pending "recompute and
	// re-announce outputs" signal from hostwl's dispatch goroutine to
	// whichever goroutine calls PumpOutputRefresh (internal/loop, on
	// the single event-loop goroutine). Buffered to size 1 so the
	// host-dispatch goroutine's send never blocks: a second signal
	// before the first is pumped just coalesces into the one pending
	// refresh, which is correct since refreshOutputs rebuilds full state.
	outputRefreshCh chan struct{}
}

// New creates a server bound to the Wayland socket at path, curating
// its advertised globals from the host client's own bound set.
func New(path string, host *hostwl.Client, reg *registry.Registry) (*Server, error) {
	l, err := wire.Listen(path)
	if err != nil {
		return nil, fmt.Errorf("xwayserver: listen %s: %w", path, err)
	}
	s := &Server{
		listener:        l,
		host:            host,
		reg:             reg,
		objects:         make(map[uint32]*Object),
		rawProxies:      make(map[uint32]*hostwl.RawProxy),
		outputRefreshCh: make(chan struct{}, 1),
	}
	s.surfaces = newSurfaceManager(s)
	s.outputs = newOutputLayout()
	s.pointer = &pointerTranslator{layout: s.outputs}
	s.outputs.Recompute(host.Outputs())
	s.advertiseGlobals()
	host.SetOutputsChangedHandler(func() {
		select {
		case s.outputRefreshCh <- struct{}{}:
		default:
		}
	})
	return s, nil
}

// PumpOutputRefresh drains a pending output-changed signal and, if one
// was waiting, recomputes and re-announces the output layout. Must
// only be called from the single event-loop goroutine (internal/loop):
// this is the channel-hop internal/hostwl.Client.Run's doc comment
// describes, keeping refreshOutputs' mutation of s.objects/s.outputs
// off the host-dispatch goroutine.
func (s *Server) PumpOutputRefresh() {
	select {
	case <-s.outputRefreshCh:
		s.refreshOutputs()
	default:
	}
}

// curatedGlobals mirrors the host globals spec.md §4.3 names, in the
// three dispatch categories. wl_output is advertised separately, one
// instance per bound host output (see advertiseOutputGlobals), and
// zxdg_output_manager_v1 pairs with it for the logical-size events
// xdg_output carries.
var curatedGlobals = []string{
	"wl_compositor", "wl_subcompositor", "wl_shm", "wl_seat",
	"xdg_wm_base", "wp_viewporter", "zwp_linux_dmabuf_v1", "xdg_activation_v1",
	"zxdg_exporter_v2", "zxdg_importer_v2", "zwp_pointer_constraints_v1",
	"zwp_relative_pointer_manager_v1", "wp_fractional_scale_manager_v1",
	"zwp_primary_selection_device_manager_v1", "wl_data_device_manager",
	"wl_drm", "xwayland_shell_v1", "zxdg_output_manager_v1",
}

func (s *Server) advertiseGlobals() {
	for _, iface := range curatedGlobals {
		s.nextGlobalName++
		s.globals = append(s.globals, global{name: s.nextGlobalName, iface: iface, version: 1})
	}
	s.advertiseOutputGlobals()
}

// advertiseOutputGlobals adds one wl_output global per host output
// currently known. Per spec.md §9's "exactly-zero outputs at startup"
// edge case, a synthetic 1x1 output is advertised when the host has
// none yet; refreshOutputs replaces it once a real output arrives.
func (s *Server) advertiseOutputGlobals() {
	outputs := s.host.Outputs()
	if len(outputs) == 0 {
		s.nextGlobalName++
		s.globals = append(s.globals, global{name: s.nextGlobalName, iface: "wl_output", hostOutputName: syntheticOutputName})
		return
	}
	for _, o := range outputs {
		s.nextGlobalName++
		s.globals = append(s.globals, global{name: s.nextGlobalName, iface: "wl_output", hostOutputName: o.Name})
	}
}

// ListenerFD exposes the listening socket's descriptor for internal/loop's poll set.
func (s *Server) ListenerFD() (int, error) { return s.listener.FD() }

// Accept takes the (single) pending Xwayland connection.
func (s *Server) Accept() error {
	conn, err := s.listener.Accept()
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

// FD exposes the accepted connection's descriptor, or -1 before Accept.
func (s *Server) FD() int {
	if s.conn == nil {
		return -1
	}
	fd, err := s.conn.FD()
	if err != nil {
		return -1
	}
	return fd
}

// Dispatch reads and handles exactly one request from Xwayland.
func (s *Server) Dispatch() error {
	if s.conn == nil {
		return fmt.Errorf("xwayserver: no connection accepted")
	}
	msg, err := s.conn.ReadMessage()
	if err != nil {
		return err
	}
	return s.route(msg)
}

func (s *Server) route(msg *wire.Message) error {
	if msg.ObjectID == 1 {
		return s.handleDisplay(msg)
	}
	if msg.ObjectID == 2 {
		return s.handleRegistry(msg)
	}

	obj, ok := s.objects[msg.ObjectID]
	if !ok {
		logger.Warnf("xwayserver: request for unknown object %d opcode %d", msg.ObjectID, msg.Opcode)
		return nil
	}

	switch obj.Kind {
	case KindIntercepted:
		return s.dispatchIntercepted(obj, msg)
	case KindSynthesised:
		return s.dispatchSynthesised(obj, msg)
	default:
		return s.relayPassThrough(obj, msg)
	}
}

// handleDisplay answers wl_display requests (sync=0, get_registry=1).
func (s *Server) handleDisplay(msg *wire.Message) error {
	const (
		reqSync        = 0
		reqGetRegistry = 1
	)
	r := wire.NewReader(msg.Data)
	switch msg.Opcode {
	case reqSync:
		callback, err := r.Uint32()
		if err != nil {
			return err
		}
		return s.sendEvent(callback, 0)
	case reqGetRegistry:
		regID, err := r.Uint32()
		if err != nil {
			return err
		}
		s.objects[regID] = &Object{ID: regID, Interface: "wl_registry", Kind: KindSynthesised}
		for _, g := range s.globals {
			if err := s.sendGlobal(regID, g); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Server) sendGlobal(registryID uint32, g global) error {
	const evGlobal = 0
	return s.conn.SendMessage(registryID, evGlobal, nil, g.name, g.iface, g.version)
}

// handleRegistry answers wl_registry.bind (opcode 0).
func (s *Server) handleRegistry(msg *wire.Message) error {
	const reqBind = 0
	r := wire.NewReader(msg.Data)
	name, err := r.Uint32()
	if err != nil {
		return err
	}
	iface, err := r.String()
	if err != nil {
		return err
	}
	_, _ = r.Uint32() // version, unused: we always bind version 1
	id, err := r.Uint32()
	if err != nil {
		return err
	}
	return s.bindGlobal(id, name, iface)
}

func (s *Server) bindGlobal(id, name uint32, iface string) error {
	switch iface {
	case "wl_compositor":
		s.objects[id] = &Object{ID: id, Interface: iface, Kind: KindIntercepted}
	case "wl_output":
		hostName := s.hostOutputNameForGlobal(name)
		s.objects[id] = &Object{ID: id, Interface: iface, Kind: KindIntercepted, HostOutputName: hostName}
		s.outputs.bindOutput(id, hostName)
		s.sendOutputEvents(id, hostName)
	case "zxdg_output_manager_v1":
		s.objects[id] = &Object{ID: id, Interface: iface, Kind: KindIntercepted}
	case "wl_drm":
		s.objects[id] = &Object{ID: id, Interface: iface, Kind: KindSynthesised}
		return s.sendDRMProbe(id)
	case "xwayland_shell_v1":
		s.objects[id] = &Object{ID: id, Interface: iface, Kind: KindIntercepted}
	case "wp_fractional_scale_manager_v1", "xdg_wm_base", "wp_viewporter",
		"zwp_pointer_constraints_v1":
		// Bound by the server but not relayed generically: xdg_wm_base
		// and wp_viewporter are satisfied per-surface (surface.go);
		// pointer-constraints requests are accepted and ignored
		// (dispatchIntercepted has no handler for them).
		s.objects[id] = &Object{ID: id, Interface: iface, Kind: KindIntercepted}
	default:
		if err := s.bindPassThroughGlobal(id, iface); err != nil {
			logger.Warnf("xwayserver: bind %s: %v", iface, err)
		}
	}
	return nil
}

// sendEvent is a convenience wrapper for zero/low-arg events.
func (s *Server) sendEvent(objID uint32, opcode uint16, args ...any) error {
	return s.conn.SendMessage(objID, opcode, nil, args...)
}

func (s *Server) hostOutputNameForGlobal(name uint32) uint32 {
	for _, g := range s.globals {
		if g.name == name && g.iface == "wl_output" {
			return g.hostOutputName
		}
	}
	return syntheticOutputName
}

// sendOutputEvents emits wl_output's geometry/mode/scale/done burst
// for the Xwayland-bound object id, using whatever layout the server
// currently has for hostName (possibly the placeholder computed at
// advertiseGlobals time, refined later by refreshOutputs).
func (s *Server) sendOutputEvents(objID, hostName uint32) {
	out, ok := s.outputs.Get(hostName)
	if !ok {
		return
	}
	if err := s.conn.SendMessage(objID, evOutWlGeometry, nil,
		out.PixelX, out.PixelY, int32(0), int32(0), int32(0), "satellite", "satellite", int32(0)); err != nil {
		logger.Warnf("xwayserver: send wl_output.geometry: %v", err)
		return
	}
	const modeCurrentPreferred = 0x3
	if err := s.conn.SendMessage(objID, evOutWlMode, nil, uint32(modeCurrentPreferred), out.PixelW, out.PixelH, int32(60000)); err != nil {
		logger.Warnf("xwayserver: send wl_output.mode: %v", err)
		return
	}
	// Xwayland is always told scale=1: the pixel size above already
	// bakes in the host scale (spec.md §4.3).
	if err := s.conn.SendMessage(objID, evOutWlScale, nil, int32(1)); err != nil {
		logger.Warnf("xwayserver: send wl_output.scale: %v", err)
		return
	}
	if err := s.conn.SendMessage(objID, evOutWlDone, nil); err != nil {
		logger.Warnf("xwayserver: send wl_output.done: %v", err)
	}
}

// sendXdgOutputEvents emits zxdg_output_v1's logical_position/
// logical_size/done burst, whose logical size is the same device
// pixel rectangle as wl_output.geometry (spec.md §4.3: "not the host
// logical size").
func (s *Server) sendXdgOutputEvents(objID, hostName uint32) {
	out, ok := s.outputs.Get(hostName)
	if !ok {
		return
	}
	if err := s.conn.SendMessage(objID, evOutXdgLogicalPos, nil, out.PixelX, out.PixelY); err != nil {
		logger.Warnf("xwayserver: send xdg_output.logical_position: %v", err)
		return
	}
	if err := s.conn.SendMessage(objID, evOutXdgLogicalSize, nil, out.PixelW, out.PixelH); err != nil {
		logger.Warnf("xwayserver: send xdg_output.logical_size: %v", err)
		return
	}
	if err := s.conn.SendMessage(objID, evOutXdgDone, nil); err != nil {
		logger.Warnf("xwayserver: send xdg_output.done: %v", err)
	}
}

// OutputScaleAt returns the scale of the output whose X-pixel
// rectangle contains (x, y), or 1 if the point falls outside every
// known output. internal/assoc uses this to size a newly associated
// surface's viewport (spec.md §4.5 "host viewport with the right scale").
func (s *Server) OutputScaleAt(x, y int32) int32 {
	out, ok := s.outputs.OutputAt(x, y)
	if !ok {
		return 1
	}
	return scaleForHost(s.host.Outputs(), out.hostName)
}

// PrimaryScale returns the scale of the first bound output, the one
// internal/xwm.XWM.OutputScale publishes via Xsettings.
func (s *Server) PrimaryScale() int32 {
	out, ok := s.outputs.primary()
	if !ok {
		return 1
	}
	return scaleForHost(s.host.Outputs(), out.hostName)
}

// refreshOutputs recomputes the X-screen layout from the host's
// current output set and re-announces every bound wl_output/xdg_output
// object, invoked whenever hostwl reports a settled geometry change
// (internal/hostwl.Client.SetOutputsChangedHandler).
func (s *Server) refreshOutputs() {
	s.outputs.Recompute(s.host.Outputs())
	for objID, obj := range s.objects {
		switch obj.Interface {
		case "wl_output":
			s.sendOutputEvents(objID, obj.HostOutputName)
		case "zxdg_output_v1":
			s.sendXdgOutputEvents(objID, obj.HostOutputName)
		}
	}
}
