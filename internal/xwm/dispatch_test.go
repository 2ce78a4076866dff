package xwm

import (
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/bnema/satellite/internal/registry"
	"github.com/bnema/satellite/internal/x11wire"
	"github.com/stretchr/testify/require"
)

// newTestXWM wires an XWM to a net.Pipe whose server side is drained
// in the background, so request-writing methods never block on an
// absent peer; tests drive replies by handing synthetic Code==1
// Events straight to HandleEvent.
func newTestXWM(t *testing.T) *XWM {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { server.Close(); client.Close() })
	go io.Copy(io.Discard, server)

	conn := x11wire.NewOverConn(client, x11wire.Setup{Root: 1, ResourceIDBase: 0x400, ResourceIDMask: 0xff})
	a := &atoms{
		byName:         map[string]uint32{"WINDOW": 901, "ATOM": 902, "STRING": 903, "CARDINAL": 904},
		wmClass:        10,
		wmTransientFor: 11,
		wmProtocols:    12,
		wmTakeFocus:    13,
		wmDeleteWindow: 14,
		wmName:         15,
		utf8String:     16,
		netWMName:      17,
		netWMState:     18,

		netWMStateFullscreen: 19,
		netWMStateMaxVert:    20,
		netWMStateMaxHorz:    21,
		netWMWindowType:      22,
		typeTooltip:          23,
		xsettingsS:           24,
	}
	return &XWM{
		conn:       conn,
		reg:        registry.New(),
		a:          a,
		root:       1,
		pending:    make(map[uint16]func(*x11wire.Event)),
		mapping:    make(map[uint32]*pendingClassify),
		createGeom: make(map[uint32]windowGeom),
	}
}

func createNotifyEvent(window uint32, x, y int16, w, h uint16, overrideRedirect bool) *x11wire.Event {
	data := make([]byte, 28)
	binary.LittleEndian.PutUint32(data[0:], 1) // parent
	binary.LittleEndian.PutUint32(data[4:], window)
	binary.LittleEndian.PutUint16(data[8:], uint16(x))
	binary.LittleEndian.PutUint16(data[10:], uint16(y))
	binary.LittleEndian.PutUint16(data[12:], w)
	binary.LittleEndian.PutUint16(data[14:], h)
	if overrideRedirect {
		data[18] = 1
	}
	return &x11wire.Event{Code: x11wire.EventCreateNotify, Data: data}
}

func mapRequestEvent(window uint32) *x11wire.Event {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:], 1) // parent
	binary.LittleEndian.PutUint32(data[4:], window)
	return &x11wire.Event{Code: x11wire.EventMapRequest, Data: data}
}

// propertyReply builds the Event a GetProperty reply decodes to: Detail
// carries the format (bits per element), Data follows the fixed 24-byte
// header layout DecodeGetPropertyReply expects plus the value trailer.
func propertyReply(seq uint16, format uint8, typeAtom uint32, value []byte) *x11wire.Event {
	data := make([]byte, 28+len(value))
	binary.LittleEndian.PutUint32(data[4:8], typeAtom)
	elemSize := int(format) / 8
	if elemSize == 0 {
		elemSize = 1
	}
	binary.LittleEndian.PutUint32(data[12:16], uint32(len(value)/elemSize))
	copy(data[28:], value)
	return &x11wire.Event{Code: 1, Detail: format, Seq: seq, Data: data}
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func TestMapRequestClassifiesPlainWindowAsToplevel(t *testing.T) {
	w := newTestXWM(t)

	w.HandleEvent(createNotifyEvent(100, 10, 20, 300, 200, false))
	w.HandleEvent(mapRequestEvent(100))
	require.Len(t, w.pending, 4)

	// Reply order matches fetchProperty's call order in handleMapRequest:
	// WM_CLASS, WM_TRANSIENT_FOR, _NET_WM_WINDOW_TYPE, WM_PROTOCOLS.
	w.HandleEvent(propertyReply(1, 8, w.a.utf8String, append([]byte("app\x00"), "App\x00"...)))
	w.HandleEvent(propertyReply(2, 32, w.a.byName["WINDOW"], nil))
	w.HandleEvent(propertyReply(3, 32, w.a.byName["ATOM"], nil))
	w.HandleEvent(propertyReply(4, 32, w.a.byName["ATOM"], nil))

	win, ok := w.reg.XWindow(100)
	require.True(t, ok)
	require.Equal(t, registry.RoleToplevel, win.WantRole)
	require.Equal(t, "App", win.WMClass)
	require.True(t, win.Mapped)
	require.EqualValues(t, 10, win.X)
	require.EqualValues(t, 300, win.Width)
}

func TestMapRequestClassifiesOverrideRedirectAsPopup(t *testing.T) {
	w := newTestXWM(t)

	w.HandleEvent(createNotifyEvent(200, 0, 0, 50, 20, true))
	w.HandleEvent(mapRequestEvent(200))

	w.HandleEvent(propertyReply(1, 8, w.a.utf8String, nil))
	w.HandleEvent(propertyReply(2, 32, w.a.byName["WINDOW"], nil))
	w.HandleEvent(propertyReply(3, 32, w.a.byName["ATOM"], nil))
	w.HandleEvent(propertyReply(4, 32, w.a.byName["ATOM"], nil))

	win, ok := w.reg.XWindow(200)
	require.True(t, ok)
	require.Equal(t, registry.RolePopup, win.WantRole)
}

func TestMapRequestPromotesDanglingTransientToToplevel(t *testing.T) {
	w := newTestXWM(t)

	w.HandleEvent(createNotifyEvent(300, 0, 0, 50, 20, false))
	w.HandleEvent(mapRequestEvent(300))

	w.HandleEvent(propertyReply(1, 8, w.a.utf8String, nil))
	w.HandleEvent(propertyReply(2, 32, w.a.byName["WINDOW"], le32(999))) // transient-for a window that was never mapped
	w.HandleEvent(propertyReply(3, 32, w.a.byName["ATOM"], nil))
	w.HandleEvent(propertyReply(4, 32, w.a.byName["ATOM"], nil))

	win, ok := w.reg.XWindow(300)
	require.True(t, ok)
	require.Equal(t, registry.RoleToplevel, win.WantRole)
}

func TestMapNotifyRegistersUnknownOverrideRedirectWindowAsPopup(t *testing.T) {
	w := newTestXWM(t)
	ev := &x11wire.Event{Code: x11wire.EventMapNotify, Data: make([]byte, 8)}
	binary.LittleEndian.PutUint32(ev.Data[4:], 42)
	w.HandleEvent(ev)

	win, ok := w.reg.XWindow(42)
	require.True(t, ok)
	require.Equal(t, registry.RolePopup, win.WantRole)
	require.True(t, win.OverrideRedirect)
}

func TestUnmapNotifyClearsMappedFlag(t *testing.T) {
	w := newTestXWM(t)
	w.reg.AddXWindow(&registry.XWindow{ID: 7, Mapped: true})

	ev := &x11wire.Event{Code: x11wire.EventUnmapNotify, Data: make([]byte, 8)}
	binary.LittleEndian.PutUint32(ev.Data[4:], 7)
	w.HandleEvent(ev)

	win, _ := w.reg.XWindow(7)
	require.False(t, win.Mapped)
}

func TestDestroyNotifyRemovesWindow(t *testing.T) {
	w := newTestXWM(t)
	w.reg.AddXWindow(&registry.XWindow{ID: 9})

	ev := &x11wire.Event{Code: x11wire.EventDestroyNotify, Data: make([]byte, 8)}
	binary.LittleEndian.PutUint32(ev.Data[4:], 9)
	w.HandleEvent(ev)

	_, ok := w.reg.XWindow(9)
	require.False(t, ok)
}

func TestConfigureRequestPopupHonorsRequestedPosition(t *testing.T) {
	w := newTestXWM(t)
	w.reg.AddXWindow(&registry.XWindow{ID: 5, WantRole: registry.RolePopup})

	ev := &x11wire.Event{Code: x11wire.EventConfigureRequest, Data: make([]byte, 24)}
	binary.LittleEndian.PutUint32(ev.Data[4:], 5)
	binary.LittleEndian.PutUint16(ev.Data[12:], uint16(int16(30)))
	binary.LittleEndian.PutUint16(ev.Data[14:], uint16(int16(40)))
	binary.LittleEndian.PutUint16(ev.Data[16:], 120)
	binary.LittleEndian.PutUint16(ev.Data[18:], 80)
	w.HandleEvent(ev)

	win, _ := w.reg.XWindow(5)
	require.EqualValues(t, 30, win.X)
	require.EqualValues(t, 40, win.Y)
	require.EqualValues(t, 120, win.Width)
	require.EqualValues(t, 80, win.Height)
}

func TestConfigureRequestToplevelIgnoresRequestedPosition(t *testing.T) {
	w := newTestXWM(t)
	w.reg.AddXWindow(&registry.XWindow{ID: 6, WantRole: registry.RoleToplevel, X: 5, Y: 5})

	var resized struct{ w, h int32 }
	w.OnToplevelResize = func(xid uint32, width, height int32) { resized.w, resized.h = width, height }

	ev := &x11wire.Event{Code: x11wire.EventConfigureRequest, Data: make([]byte, 24)}
	binary.LittleEndian.PutUint32(ev.Data[4:], 6)
	binary.LittleEndian.PutUint16(ev.Data[12:], 999) // attempted reposition, must be ignored
	binary.LittleEndian.PutUint16(ev.Data[16:], 640)
	binary.LittleEndian.PutUint16(ev.Data[18:], 480)
	w.HandleEvent(ev)

	win, _ := w.reg.XWindow(6)
	require.EqualValues(t, 5, win.X) // unchanged, not the requested 999
	require.EqualValues(t, 640, win.Width)
	require.EqualValues(t, 480, win.Height)
	require.EqualValues(t, 640, resized.w)
	require.EqualValues(t, 480, resized.h)
}

func TestClientMessageFiresLegacySurfaceIDOnMatch(t *testing.T) {
	w := newTestXWM(t)
	w.a.wlSurfaceID = 500
	var gotXID, gotSurface uint32
	w.OnLegacySurfaceID = func(xid, surfaceID uint32) { gotXID, gotSurface = xid, surfaceID }

	ev := &x11wire.Event{Code: x11wire.EventClientMessage, Data: make([]byte, 28)}
	binary.LittleEndian.PutUint32(ev.Data[0:], 55) // window
	binary.LittleEndian.PutUint32(ev.Data[4:], w.a.wlSurfaceID)
	binary.LittleEndian.PutUint32(ev.Data[8:], 777)
	w.HandleEvent(ev)

	require.EqualValues(t, 55, gotXID)
	require.EqualValues(t, 777, gotSurface)
}

func TestClientMessageIgnoresOtherTypes(t *testing.T) {
	w := newTestXWM(t)
	w.a.wlSurfaceID = 500
	called := false
	w.OnLegacySurfaceID = func(uint32, uint32) { called = true }

	ev := &x11wire.Event{Code: x11wire.EventClientMessage, Data: make([]byte, 28)}
	binary.LittleEndian.PutUint32(ev.Data[0:], 55)
	binary.LittleEndian.PutUint32(ev.Data[4:], 1) // not wlSurfaceID
	w.HandleEvent(ev)

	require.False(t, called)
}

func TestHandleSelectionClearRecontestsXsettingsOnly(t *testing.T) {
	w := newTestXWM(t)
	w.xsettingsOwner = true
	w.xsettingsWin = 0 // forces tryClaimXsettings to allocate a fresh window via conn

	ev := &x11wire.Event{Code: x11wire.EventSelectionClear, Data: make([]byte, 12)}
	binary.LittleEndian.PutUint32(ev.Data[8:], w.a.xsettingsS)
	w.HandleEvent(ev)

	require.False(t, w.xsettingsOwner) // cleared before the re-claim's async reply lands
}
