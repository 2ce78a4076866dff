// Package loop implements the single-threaded event-loop multiplexer
// spec.md §4.7 and §5 describe: one unix.Poll over the X11 connection,
// the Xwayland listening socket, and (once accepted) the Xwayland
// connection, with no blocking operations on the poll goroutine. The
// host Wayland connection can't join this poll set (its fd is
// unexported by wlturbo), so internal/hostwl.Client.Run dedicates its
// own goroutine to it and hands decoded work back through
// Client.PumpWork, which every iteration drains alongside
// internal/xwayserver.Server.PumpOutputRefresh.
package loop

import (
	"fmt"
	"io"

	"github.com/bnema/satellite/internal/hostwl"
	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/x11wire"
	"github.com/bnema/satellite/internal/xwayserver"
	"github.com/bnema/satellite/internal/xwm"
	"golang.org/x/sys/unix"
)

// pollTimeoutMillis bounds each unix.Poll call so the loop still
// notices hostErr/stop even when nothing is ready on any
// watched fd (it also keeps Client.PumpWork's host-goroutine handoff
// from waiting indefinitely).
const pollTimeoutMillis = 250

// Loop owns the three protocol components and association engine's
// shared lifecycle (spec.md §2: "dominated by the three protocol
// components and the association engine") and drives them from one
// goroutine.
type Loop struct {
	x11  *x11wire.Conn
	wm   *xwm.XWM
	xway *xwayserver.Server
	host *hostwl.Client

	hostErrCh chan error
	stopCh    chan struct{}
}

// New wires a Loop around the already-constructed protocol components.
func New(x11 *x11wire.Conn, wm *xwm.XWM, xway *xwayserver.Server, host *hostwl.Client) *Loop {
	return &Loop{
		x11:       x11,
		wm:        wm,
		xway:      xway,
		host:      host,
		hostErrCh: make(chan error, 1),
		stopCh:    make(chan struct{}),
	}
}

// Stop asks Run to return after its current iteration.
func (l *Loop) Stop() { close(l.stopCh) }

// Run starts the host-dispatch goroutine and then drives the poll
// loop until Stop is called, the host connection errors, or a fd
// reports an unrecoverable error. It returns the error that ended the
// loop, or nil on a clean Stop.
func (l *Loop) Run() error {
	x11FD, err := l.x11.FD()
	if err != nil {
		return fmt.Errorf("loop: x11 connection fd: %w", err)
	}
	listenerFD, err := l.xway.ListenerFD()
	if err != nil {
		return fmt.Errorf("loop: xwayland listener fd: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	l.host.Run(done, func(err error) {
		select {
		case l.hostErrCh <- err:
		default:
		}
	})

	accepted := false
	for {
		select {
		case <-l.stopCh:
			return nil
		case err := <-l.hostErrCh:
			return fmt.Errorf("loop: host connection: %w", err)
		default:
		}

		fds := []unix.PollFd{{Fd: int32(x11FD), Events: unix.POLLIN}}
		if !accepted {
			fds = append(fds, unix.PollFd{Fd: int32(listenerFD), Events: unix.POLLIN})
		} else if connFD := l.xway.FD(); connFD >= 0 {
			fds = append(fds, unix.PollFd{Fd: int32(connFD), Events: unix.POLLIN})
		}

		n, err := unix.Poll(fds, pollTimeoutMillis)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("loop: poll: %w", err)
		}

		l.host.PumpWork()
		l.xway.PumpOutputRefresh()

		if n <= 0 {
			continue
		}

		if fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			if err := l.drainX11(); err != nil {
				return err
			}
		}

		if len(fds) < 2 {
			continue
		}
		if fds[1].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) == 0 {
			continue
		}

		if !accepted {
			if err := l.xway.Accept(); err != nil {
				return fmt.Errorf("loop: accept xwayland connection: %w", err)
			}
			accepted = true
			continue
		}

		if err := l.drainXwayland(); err != nil {
			return err
		}
	}
}

// drainX11 dispatches exactly one X11 event per readable
// notification. unix.Poll is level-triggered, so any event left
// unread keeps the fd marked readable and gets picked up on the very
// next iteration instead of this call blocking to wait for more.
func (l *Loop) drainX11() error {
	ev, err := l.x11.NextEvent()
	if err != nil {
		return fmt.Errorf("loop: x11 connection closed: %w", err)
	}
	l.wm.HandleEvent(ev)
	return nil
}

// drainXwayland dispatches exactly one Xwayland request per readable
// notification, for the same level-triggered reason as drainX11.
func (l *Loop) drainXwayland() error {
	if err := l.xway.Dispatch(); err != nil {
		if err == io.EOF {
			return fmt.Errorf("loop: xwayland connection closed: %w", err)
		}
		return fmt.Errorf("loop: xwayland dispatch: %w", err)
	}
	return nil
}

// LogAndContinue implements spec.md §7's "logged and continued"
// category for errors that never need to reach Run's caller.
func LogAndContinue(context string, err error) {
	if err != nil {
		logger.Warnf("loop: %s: %v", context, err)
	}
}
