package xwayserver

import (
	"github.com/bnema/satellite/internal/hostwl"
	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/registry"
	"github.com/bnema/satellite/internal/wire"
)

// surfaceManager implements the intercepted wl_compositor/wl_surface
// pair: every Xwayland surface gets an eagerly-created host surface
// plus viewport, but its first commit is held back until a role has
// been installed and ack'd (spec.md §4.3 surface interception rules).
type surfaceManager struct {
	srv *Server

	hostSurfaces map[uint32]*hostwl.HostSurface // by Xwayland wl_surface id
}

func newSurfaceManager(s *Server) *surfaceManager {
	return &surfaceManager{srv: s, hostSurfaces: make(map[uint32]*hostwl.HostSurface)}
}

const (
	reqCompositorCreateSurface = 0

	reqSurfaceDestroy         = 0
	reqSurfaceAttach          = 1
	reqSurfaceDamage          = 2
	reqSurfaceFrame           = 3
	reqSurfaceSetOpaqueRegion = 4
	reqSurfaceSetInputRegion  = 5
	reqSurfaceCommit          = 6
	reqSurfaceSetBufferScale  = 8
	reqSurfaceDamageBuffer    = 9
)

func (s *Server) dispatchIntercepted(obj *Object, msg *wire.Message) error {
	switch obj.Interface {
	case "wl_compositor":
		return s.surfaces.handleCompositor(msg)
	case "wl_surface":
		return s.surfaces.handleSurface(obj, msg)
	case "wl_output":
		return nil // Xwayland's wl_output has no requests worth relaying (release is a no-op here)
	case "wl_pointer", "wl_keyboard", "wl_touch":
		return nil // input devices are server-driven (events only); requests are release/no-ops
	case "zxdg_output_manager_v1":
		return s.handleXdgOutputManager(msg)
	case "zxdg_output_v1":
		return nil // destroy is the only request, a no-op here
	case "xwayland_shell_v1":
		return s.handleXwaylandShell(msg)
	case "xwayland_surface_v1":
		return s.handleXwaylandSurface(obj, msg)
	default:
		logger.Warnf("xwayserver: no intercepted handler for %s opcode %d", obj.Interface, msg.Opcode)
		return nil
	}
}

// handleXdgOutputManager answers zxdg_output_manager_v1.get_xdg_output
// (new_id, wl_output), creating the xdg_output object and immediately
// sending its current logical_position/logical_size/done burst.
func (s *Server) handleXdgOutputManager(msg *wire.Message) error {
	if msg.Opcode != reqXdgOutputManagerGetXdgOutput {
		return nil
	}
	r := wire.NewReader(msg.Data)
	newID, err := r.Uint32()
	if err != nil {
		return err
	}
	outputID, err := r.Uint32()
	if err != nil {
		return err
	}
	outputObj, ok := s.objects[outputID]
	if !ok {
		return nil
	}
	s.objects[newID] = &Object{ID: newID, Interface: "zxdg_output_v1", Kind: KindIntercepted, HostOutputName: outputObj.HostOutputName}
	s.sendXdgOutputEvents(newID, outputObj.HostOutputName)
	return nil
}

func (sm *surfaceManager) handleCompositor(msg *wire.Message) error {
	if msg.Opcode != reqCompositorCreateSurface {
		return nil
	}
	r := wire.NewReader(msg.Data)
	newID, err := r.Uint32()
	if err != nil {
		return err
	}

	hs, err := sm.srv.host.CreateHostSurface()
	if err != nil {
		logger.Errorf("xwayserver: create host surface for %d: %v", newID, err)
		return nil
	}
	sm.hostSurfaces[newID] = hs

	sm.srv.objects[newID] = &Object{ID: newID, Interface: "wl_surface", Kind: KindIntercepted}
	sm.srv.reg.AddSurface(&registry.ServerSurface{ObjID: newID, State: registry.StateNew})

	// The legacy WL_SURFACE_ID ClientMessage (spec.md §4.5) can arrive
	// before this surface exists; check whether it already did.
	if xid, matched := sm.srv.reg.PendingLegacyFromSurface(newID); matched && sm.srv.OnLegacySurfaceMatched != nil {
		sm.srv.OnLegacySurfaceMatched(xid, newID)
	}
	return nil
}

func (sm *surfaceManager) handleSurface(obj *Object, msg *wire.Message) error {
	srf, ok := sm.srv.reg.Surface(obj.ID)
	if !ok {
		return nil
	}
	r := wire.NewReader(msg.Data)

	switch msg.Opcode {
	case reqSurfaceDestroy:
		sm.srv.reg.RemoveSurface(obj.ID)
		delete(sm.hostSurfaces, obj.ID)
		delete(sm.srv.objects, obj.ID)
		srf.State = registry.StateDestroyed

	case reqSurfaceAttach:
		bufID, err := r.Uint32()
		if err != nil {
			return err
		}
		x, _ := r.Int32()
		y, _ := r.Int32()
		sm.bufferOrBuffer(srf, bufID, x, y)

	case reqSurfaceDamage, reqSurfaceDamageBuffer:
		x, _ := r.Int32()
		y, _ := r.Int32()
		w, _ := r.Int32()
		h, _ := r.Int32()
		if len(srf.PendingBuffers) > 0 {
			last := &srf.PendingBuffers[len(srf.PendingBuffers)-1]
			last.Damage = append(last.Damage, [4]int32{x, y, w, h})
		}

	case reqSurfaceCommit:
		sm.commit(obj.ID, srf)

	case reqSurfaceSetBufferScale:
		// Xwayland always commits buffer_scale=1 here: the viewport,
		// not wl_surface.set_buffer_scale, carries the real scale
		// (spec.md §4.3 "viewport installed unconditionally").
	}
	return nil
}

// bufferOrBuffer records a pending attach; the actual wl_buffer
// forwarding happens at commit time once the surface is Live.
func (sm *surfaceManager) bufferOrBuffer(srf *registry.ServerSurface, bufID uint32, x, y int32) {
	srf.PendingBuffers = append(srf.PendingBuffers, registry.PendingBuffer{BufferID: bufID, X: x, Y: y})
}

// commit is the heart of spec.md §4.3's deferred-commit rule: a
// commit is only forwarded to the host once a role exists and its
// first configure has been ack'd; earlier commits accumulate in
// srf.PendingBuffers and are replayed in order once that happens
// (driven by internal/assoc calling ReplayPending after AckConfigure).
func (sm *surfaceManager) commit(objID uint32, srf *registry.ServerSurface) {
	switch srf.State {
	case registry.StateNew:
		srf.State = registry.StateAwaitingAssociation
	case registry.StateLive:
		sm.forwardCommit(objID, srf)
		srf.PendingBuffers = nil
	default:
		// AwaitingAssociation / AwaitingConfigure: buffered, nothing to do yet.
	}
}

// ReplayPending forwards every buffered commit once the surface
// transitions to Live, in arrival order (spec.md §5 ordering guarantee).
func (sm *surfaceManager) ReplayPending(objID uint32, srf *registry.ServerSurface) {
	for range srf.PendingBuffers {
		sm.forwardCommit(objID, srf)
	}
	srf.PendingBuffers = nil
}

// rawObjectID lets a plain host-side object id stand in for a
// wlturbo.Object where only the id (not a typed proxy) is known, as
// is the case for a wl_buffer whose creation was relayed generically
// by passthrough.go.
type rawObjectID uint32

func (id rawObjectID) ID() uint32 { return uint32(id) }

func (sm *surfaceManager) forwardCommit(objID uint32, srf *registry.ServerSurface) {
	hs, ok := sm.hostSurfaces[objID]
	if !ok || len(srf.PendingBuffers) == 0 {
		return
	}
	pb := srf.PendingBuffers[0]
	srf.PendingBuffers = srf.PendingBuffers[1:]

	surface := hs.Surface()
	hostBufID := sm.srv.hostIDFor(pb.BufferID)
	_ = surface.Attach(rawObjectID(hostBufID), pb.X, pb.Y)
	for _, d := range pb.Damage {
		_ = surface.Damage(d[0], d[1], d[2], d[3])
	}
	_ = surface.Commit()
}

// SetViewport installs the source/destination rectangle for a newly
// associated surface, computed from the output the X window landed on.
func (sm *surfaceManager) SetViewport(objID uint32, srcW, srcH, destW, destH int32) {
	hs, ok := sm.hostSurfaces[objID]
	if !ok {
		return
	}
	hs.SetViewport(srcW, srcH, destW, destH)
}

// HostSurface exposes the host-side surface for role installation by
// internal/assoc.
func (sm *surfaceManager) HostSurface(objID uint32) (*hostwl.HostSurface, bool) {
	hs, ok := sm.hostSurfaces[objID]
	return hs, ok
}

// Registry exposes the shared registry for internal/assoc to wire against.
func (s *Server) Registry() *registry.Registry { return s.reg }

// ReplayPending forwards internal/assoc's post-association replay call
// to the surface manager; surfaceManager is unexported so the whole
// package only has one way in.
func (s *Server) ReplayPending(objID uint32, srf *registry.ServerSurface) {
	s.surfaces.ReplayPending(objID, srf)
}

// SetViewport forwards internal/assoc's viewport assignment.
func (s *Server) SetViewport(objID uint32, srcW, srcH, destW, destH int32) {
	s.surfaces.SetViewport(objID, srcW, srcH, destW, destH)
}

// HostSurface exposes the host-side surface for role installation.
func (s *Server) HostSurface(objID uint32) (*hostwl.HostSurface, bool) {
	return s.surfaces.HostSurface(objID)
}
