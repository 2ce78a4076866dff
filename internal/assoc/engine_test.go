package assoc

import (
	"testing"

	"github.com/bnema/satellite/internal/hostwl"
	"github.com/bnema/satellite/internal/registry"
	"github.com/stretchr/testify/require"
)

func TestPositionerForIsRelativeToMappedParent(t *testing.T) {
	reg := registry.New()
	reg.AddXWindow(&registry.XWindow{ID: 1, X: 100, Y: 200})
	e := &Engine{reg: reg}

	win := &registry.XWindow{ID: 2, X: 130, Y: 210, Width: 50, Height: 30, TransientFor: 1}
	pos := e.positionerFor(win)

	require.EqualValues(t, 30, pos.X)
	require.EqualValues(t, 10, pos.Y)
	require.EqualValues(t, 50, pos.Width)
	require.EqualValues(t, 30, pos.Height)
}

func TestPositionerForWithNoParentUsesAbsolutePosition(t *testing.T) {
	e := &Engine{reg: registry.New()}
	win := &registry.XWindow{ID: 2, X: 5, Y: 9, Width: 10, Height: 10}
	pos := e.positionerFor(win)

	require.EqualValues(t, 5, pos.X)
	require.EqualValues(t, 9, pos.Y)
}

func TestWindowGoneDropsRoleHandles(t *testing.T) {
	e := &Engine{
		toplevels: map[uint32]*hostwl.ToplevelHandle{7: {}},
		popups:    map[uint32]*hostwl.PopupHandle{8: {}},
	}
	e.windowGone(7)
	e.windowGone(8)

	_, ok := e.toplevels[7]
	require.False(t, ok)
	_, ok = e.popups[8]
	require.False(t, ok)
}

func TestAssociateSkipsUnmappedWindow(t *testing.T) {
	reg := registry.New()
	reg.AddXWindow(&registry.XWindow{ID: 1, Mapped: false})
	reg.AddSurface(&registry.ServerSurface{ObjID: 10})
	e := &Engine{reg: reg}

	e.associate(1, 10) // must return before touching the nil xway/host fields

	win, _ := reg.XWindow(1)
	require.Nil(t, win.Surface)
}

func TestAssociateSkipsUnknownWindow(t *testing.T) {
	reg := registry.New()
	reg.AddSurface(&registry.ServerSurface{ObjID: 10})
	e := &Engine{reg: reg}

	e.associate(999, 10) // no such X window; must not panic on nil xway
}

func TestAssociateSkipsAlreadyAssociatedWindow(t *testing.T) {
	reg := registry.New()
	win := &registry.XWindow{ID: 1, Mapped: true}
	srf := &registry.ServerSurface{ObjID: 10}
	reg.AddXWindow(win)
	reg.AddSurface(srf)
	reg.Associate(win, srf)

	other := &registry.ServerSurface{ObjID: 11}
	reg.AddSurface(other)
	e := &Engine{reg: reg}

	e.associate(1, 11) // win already has a surface; must return early

	require.Equal(t, srf, win.Surface)
	require.Nil(t, other.XWindow)
}

func TestAssociateSkipsUnknownSurface(t *testing.T) {
	reg := registry.New()
	reg.AddXWindow(&registry.XWindow{ID: 1, Mapped: true})
	e := &Engine{reg: reg}

	e.associate(1, 999) // no such surface; must not panic on nil xway
}

func TestOnTitleChangedIgnoresWindowWithoutToplevel(t *testing.T) {
	e := &Engine{toplevels: map[uint32]*hostwl.ToplevelHandle{}}
	e.onTitleChanged(42, "whatever") // no handle registered; must be a no-op
}
