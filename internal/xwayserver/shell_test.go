package xwayserver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bnema/satellite/internal/registry"
	"github.com/bnema/satellite/internal/wire"
)

func newTestShellServer() *Server {
	return &Server{
		reg:     registry.New(),
		objects: make(map[uint32]*Object),
	}
}

func encodeReq(t *testing.T, args ...any) *wire.Message {
	t.Helper()
	data, err := wire.Encode(0, 0, args...)
	require.NoError(t, err)
	return &wire.Message{Data: data[8:]}
}

func TestHandleXwaylandShellTracksSurfaceObjID(t *testing.T) {
	s := newTestShellServer()
	msg := encodeReq(t, uint32(500), uint32(42)) // new_id, wl_surface

	require.NoError(t, s.handleXwaylandShell(msg))

	obj, ok := s.objects[500]
	require.True(t, ok)
	require.Equal(t, "xwayland_surface_v1", obj.Interface)
	require.EqualValues(t, 42, obj.SurfaceObjID)
}

func TestHandleXwaylandSurfaceFiresCallbackOnMatch(t *testing.T) {
	s := newTestShellServer()
	srf := &registry.ServerSurface{ObjID: 42}
	s.reg.AddSurface(srf)
	// the X side of the handshake already arrived for this serial.
	s.reg.PendingSerialFromX(0x0000000200000001, 77)

	var gotXID, gotObjID uint32
	s.OnSurfaceSerialMatched = func(xid, objID uint32) { gotXID, gotObjID = xid, objID }

	obj := &Object{ID: 500, Interface: "xwayland_surface_v1", SurfaceObjID: 42}
	msg := encodeReq(t, uint32(1), uint32(2)) // serial_lo=1, serial_hi=2 -> 0x0000000200000001

	require.NoError(t, s.handleXwaylandSurface(obj, msg))
	require.EqualValues(t, 77, gotXID)
	require.EqualValues(t, 42, gotObjID)
}

func TestHandleXwaylandSurfaceNoMatchDoesNotFireCallback(t *testing.T) {
	s := newTestShellServer()
	srf := &registry.ServerSurface{ObjID: 42}
	s.reg.AddSurface(srf)

	called := false
	s.OnSurfaceSerialMatched = func(uint32, uint32) { called = true }

	obj := &Object{ID: 500, Interface: "xwayland_surface_v1", SurfaceObjID: 42}
	msg := encodeReq(t, uint32(1), uint32(2))

	require.NoError(t, s.handleXwaylandSurface(obj, msg))
	require.False(t, called)
}
