package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssociateDetachesOnEitherSideDestroy(t *testing.T) {
	r := New()
	w := &XWindow{ID: 1}
	s := &ServerSurface{ObjID: 100}
	r.AddXWindow(w)
	r.AddSurface(s)
	r.Associate(w, s)

	got, ok := r.AssociationForX(1)
	require.True(t, ok)
	require.Equal(t, s, got)

	r.RemoveXWindow(1)
	require.Nil(t, s.XWindow)
	_, ok = r.AssociationForSurface(100)
	require.False(t, ok)

	// Surface itself survives the X window's removal.
	_, ok = r.Surface(100)
	require.True(t, ok)
}

func TestLegacyPendingEitherOrder(t *testing.T) {
	// Order A: X message arrives first.
	r := New()
	srf, ok := r.PendingLegacyFromX(1, 100)
	require.False(t, ok)
	require.Nil(t, srf)

	s := &ServerSurface{ObjID: 100}
	r.AddSurface(s)
	xid, ok := r.PendingLegacyFromSurface(100)
	require.True(t, ok)
	require.EqualValues(t, 1, xid)

	// Order B: surface arrives first.
	r2 := New()
	_, ok = r2.PendingLegacyFromSurface(100)
	require.False(t, ok)
	s2 := &ServerSurface{ObjID: 100}
	r2.AddSurface(s2)
	got, ok := r2.PendingLegacyFromX(1, 100)
	require.True(t, ok)
	require.Equal(t, s2, got)
}

func TestSerialPendingEitherOrder(t *testing.T) {
	r := New()
	s := &ServerSurface{ObjID: 5}

	// Surface-first.
	xid, ok := r.PendingSerialFromSurface(42, s)
	require.False(t, ok)
	require.Zero(t, xid)
	got, ok := r.PendingSerialFromX(42, 7)
	require.True(t, ok)
	require.Equal(t, s, got)

	// X-first.
	r2 := New()
	srf, ok := r2.PendingSerialFromX(42, 7)
	require.False(t, ok)
	require.Nil(t, srf)
	xid2, ok := r2.PendingSerialFromSurface(42, s)
	require.True(t, ok)
	require.EqualValues(t, 7, xid2)
}

func TestStatsString(t *testing.T) {
	r := New()
	r.AddXWindow(&XWindow{ID: 1})
	require.Contains(t, r.Stats().String(), "xwindows=1")
}
