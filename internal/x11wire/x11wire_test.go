package x11wire

import (
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteRequestPadsToWordBoundary(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	c := &Conn{c: client, atoms: map[string]uint32{}, atomsRev: map[uint32]string{}}

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 28)
		_, _ = io.ReadFull(server, buf)
		done <- buf
	}()

	require.NoError(t, c.ChangeProperty(1, 2, 3, 8, []byte("hi"), 0))
	got := <-done
	require.Len(t, got, 28) // 4-byte request header + 20-byte body, "hi" padded to 4
}

func TestConfigureWindowEncodesValues(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()
	c := &Conn{c: client, atoms: map[string]uint32{}, atomsRev: map[uint32]string{}}

	read := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 20) // 4-byte header + window, mask, pad + two values
		_, _ = io.ReadFull(server, buf)
		read <- buf
	}()
	require.NoError(t, c.ConfigureWindow(7, ConfigWidth|ConfigHeight, 800, 600))
	got := <-read
	require.Equal(t, uint8(OpConfigureWindow), got[0])
}

func TestAtomCacheRoundTrip(t *testing.T) {
	c := &Conn{atoms: map[string]uint32{}, atomsRev: map[uint32]string{}}
	c.RegisterAtom("WM_PROTOCOLS", 99)
	name, ok := c.AtomName(99)
	require.True(t, ok)
	require.Equal(t, "WM_PROTOCOLS", name)
}

func TestInternAtomReturnsCachedWithoutRoundTrip(t *testing.T) {
	c := &Conn{atoms: map[string]uint32{}, atomsRev: map[uint32]string{}}
	c.RegisterAtom("WM_CLASS", 42)
	atom, ok, seq, err := c.InternAtom("WM_CLASS", false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(42), atom)
	require.Zero(t, seq)
}

func TestNewIDIsPerConnection(t *testing.T) {
	a := &Conn{resID: 0x100, resMask: 0xff}
	b := &Conn{resID: 0x200, resMask: 0xff}
	require.Equal(t, uint32(0x101), a.NewID())
	require.Equal(t, uint32(0x201), b.NewID())
	require.Equal(t, uint32(0x102), a.NewID())
}

func TestDecodeGetPropertyReply(t *testing.T) {
	// Data is Event.Data for a reply: 28 bytes of fixed fields plus value.
	data := make([]byte, 28+4)
	binary.LittleEndian.PutUint32(data[4:8], 31)   // type atom
	binary.LittleEndian.PutUint32(data[12:16], 1)  // 1 unit of format-32 data
	binary.LittleEndian.PutUint32(data[28:32], 0xdeadbeef)

	r := DecodeGetPropertyReply(32, data)
	require.Equal(t, uint32(31), r.Type)
	require.Equal(t, uint32(0xdeadbeef), binary.LittleEndian.Uint32(r.Value))
}

func TestNextEventReadsReplyTrailer(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()
	c := &Conn{c: client, atoms: map[string]uint32{}, atomsRev: map[uint32]string{}}

	go func() {
		msg := make([]byte, 32+4) // fixed reply + one 4-byte trailer unit
		msg[0] = 1                // reply
		binary.LittleEndian.PutUint32(msg[4:8], 1) // reply-length = 1 unit
		binary.LittleEndian.PutUint32(msg[32:36], 0x2a)
		_, _ = server.Write(msg)
	}()

	ev, err := c.NextEvent()
	require.NoError(t, err)
	require.Equal(t, uint8(1), ev.Code)
	require.Len(t, ev.Data, 28+4)
	require.Equal(t, uint32(0x2a), binary.LittleEndian.Uint32(ev.Data[28:32]))
}
