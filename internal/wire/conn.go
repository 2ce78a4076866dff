package wire

import (
	"fmt"
	"net"
	"sync"

	"golang.org/x/sys/unix"
)

// Conn is a Wayland wire-protocol connection over a unix socket, used
// by internal/xwayserver to speak the server role to Xwayland. It is
// intentionally non-blocking-friendly: ReadMessage returns
// (nil, nil, errWouldBlock) rather than parking the event-loop
// goroutine, per spec.md §4.7's "no operation blocks on another".
type Conn struct {
	uc     *net.UnixConn
	sendMu sync.Mutex

	recvBuf    []byte
	pendingFDs []int
}

// NewConn wraps an already-accepted/-dialed unix connection.
func NewConn(uc *net.UnixConn) (*Conn, error) {
	return &Conn{uc: uc, recvBuf: make([]byte, 0, 4096)}, nil
}

// FD returns the underlying file descriptor for use with the
// event-loop poller.
func (c *Conn) FD() (int, error) {
	raw, err := c.uc.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	err = raw.Control(func(f uintptr) { fd = int(f) })
	return fd, err
}

// Close closes the underlying socket.
func (c *Conn) Close() error { return c.uc.Close() }

// SendMessage writes one wire message, optionally carrying file
// descriptors via SCM_RIGHTS (used for shm/dmabuf fd forwarding,
// spec.md §5 "forwarded by dup").
func (c *Conn) SendMessage(objectID uint32, opcode uint16, fds []int, args ...any) error {
	buf, err := Encode(objectID, opcode, args...)
	if err != nil {
		return err
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if len(fds) == 0 {
		_, err = c.uc.Write(buf)
		return err
	}
	oob := unix.UnixRights(fds...)
	_, _, err = c.uc.WriteMsgUnix(buf, oob, nil)
	return err
}

// ReadMessage reads exactly one framed message and any file
// descriptors attached to it. It keeps calling recvmsg(2) until one
// whole message is buffered, so it blocks the calling goroutine while
// a message is only partly received; bytes past that message stay
// buffered for the next call.
func (c *Conn) ReadMessage() (*Message, error) {
	for {
		if msg, ok := c.tryDecode(); ok {
			return msg, nil
		}
		buf := make([]byte, 4096)
		oob := make([]byte, unix.CmsgSpace(64*4))
		n, oobn, _, _, err := c.uc.ReadMsgUnix(buf, oob)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("wire: connection closed")
		}
		c.recvBuf = append(c.recvBuf, buf[:n]...)
		if oobn > 0 {
			fds, err := parseFDs(oob[:oobn])
			if err == nil {
				c.pendingFDs = append(c.pendingFDs, fds...)
			}
		}
	}
}

func (c *Conn) tryDecode() (*Message, bool) {
	if len(c.recvBuf) < 8 {
		return nil, false
	}
	var hdr [8]byte
	copy(hdr[:], c.recvBuf[:8])
	objectID, opcode, size := DecodeHeader(hdr)
	if len(c.recvBuf) < int(size) {
		return nil, false
	}
	body := make([]byte, int(size)-8)
	copy(body, c.recvBuf[8:size])
	c.recvBuf = c.recvBuf[size:]

	var fds []int
	if len(c.pendingFDs) > 0 {
		fds = c.pendingFDs
		c.pendingFDs = nil
	}
	return &Message{ObjectID: objectID, Opcode: opcode, Data: body, FDs: fds}, true
}

func parseFDs(oob []byte) ([]int, error) {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, err
	}
	var fds []int
	for _, m := range msgs {
		f, err := unix.ParseUnixRights(&m)
		if err != nil {
			continue
		}
		fds = append(fds, f...)
	}
	return fds, nil
}

// Listener accepts Xwayland's connection(s) to the server socket
// advertised via WAYLAND_DISPLAY/XDG_RUNTIME_DIR.
type Listener struct {
	ln *net.UnixListener
}

// Listen creates the unix socket Xwayland will connect to.
func Listen(path string) (*Listener, error) {
	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("wire: listen %s: %w", path, err)
	}
	return &Listener{ln: ln}, nil
}

// FD exposes the listening socket's descriptor for the poller.
func (l *Listener) FD() (int, error) {
	raw, err := l.ln.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	err = raw.Control(func(f uintptr) { fd = int(f) })
	return fd, err
}

// Accept accepts one pending connection, wrapping it in a Conn.
func (l *Listener) Accept() (*Conn, error) {
	uc, err := l.ln.AcceptUnix()
	if err != nil {
		return nil, err
	}
	return NewConn(uc)
}

func (l *Listener) Close() error { return l.ln.Close() }
