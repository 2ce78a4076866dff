package satellite

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bnema/satellite/internal/assoc"
	"github.com/bnema/satellite/internal/clipboard"
	"github.com/bnema/satellite/internal/hostwl"
	"github.com/bnema/satellite/internal/loop"
	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/registry"
	"github.com/bnema/satellite/internal/satcfg"
	"github.com/bnema/satellite/internal/sdnotify"
	"github.com/bnema/satellite/internal/x11wire"
	"github.com/bnema/satellite/internal/xserverproc"
	"github.com/bnema/satellite/internal/xwayserver"
	"github.com/bnema/satellite/internal/xwm"
	"github.com/spf13/cobra"
)

// dialBackoffInitial and dialBackoffMax bound the retry loop waiting
// for Xwayland's X11 socket to appear, grounded on the teacher's
// internal/client/receiver.go reconnection backoff.
const (
	dialBackoffInitial = 100 * time.Millisecond
	dialBackoffMax     = 2 * time.Second
	dialTimeout        = 30 * time.Second
)

func run(cmd *cobra.Command, args []string) error {
	cfg, err := satcfg.Load(cmd, args)
	if err != nil {
		return err
	}

	// hostwl.Connect must run before WAYLAND_DISPLAY is ever
	// overwritten: it needs the real compositor's socket, and that is
	// the only thing the env var still names at this point.
	host, err := hostwl.Connect()
	if err != nil {
		logger.FatalStartup("connect to host compositor: %v", err)
		return err
	}

	displayNum := cfg.DisplaySpec
	if displayNum == "" {
		n, err := xserverproc.PickDisplayNumber()
		if err != nil {
			logger.FatalStartup("pick display number: %v", err)
			return err
		}
		displayNum = n
	} else {
		displayNum = displayNum[1:] // strip the leading ":"
	}
	displaySpec := ":" + displayNum

	// The shared registry is born here rather than inside xwm.New:
	// xwayserver's Wayland socket has to be listening before Xwayland
	// can be spawned, which is before an X11 connection (and so an
	// XWM) can exist at all.
	reg := registry.New()

	sockName := "wayland-satellite-" + displayNum
	sockPath := filepath.Join(cfg.RuntimeDir, sockName)
	_ = os.Remove(sockPath)
	xway, err := xwayserver.New(sockPath, host, reg)
	if err != nil {
		logger.FatalStartup("start xwayland-facing wayland server: %v", err)
		return err
	}

	if err := os.Setenv("WAYLAND_DISPLAY", sockName); err != nil {
		logger.FatalStartup("export WAYLAND_DISPLAY: %v", err)
		return err
	}

	proc, err := xserverproc.Spawn("", displaySpec, cfg.ListenFDs, cfg.Extensions)
	if err != nil {
		logger.FatalStartup("spawn xwayland: %v", err)
		return err
	}

	conn, err := dialXwayland(displaySpec, proc)
	if err != nil {
		_ = proc.Terminate()
		logger.FatalStartup("connect to xwayland: %v", err)
		return err
	}

	wm, err := xwm.New(conn, displayNum, reg)
	if err != nil {
		_ = proc.Terminate()
		logger.FatalStartup("claim window manager seat: %v", err)
		return err
	}
	wm.OutputScale = xway.PrimaryScale

	assoc.New(reg, xway, host, wm)

	clip, err := host.DataDevice()
	if err != nil {
		_ = proc.Terminate()
		logger.FatalStartup("bind host data device: %v", err)
		return err
	}
	prim, err := host.PrimarySelectionDevice()
	if err != nil {
		prim = nil // optional protocol; absence is not fatal (spec.md §4.6)
	}
	if _, err := clipboard.New(wm, host, clip, prim); err != nil {
		_ = proc.Terminate()
		logger.FatalStartup("start clipboard bridge: %v", err)
		return err
	}

	if err := xserverproc.ExportDisplay(displayNum); err != nil {
		logger.Warnf("export DISPLAY for spawned children: %v", err)
	}

	notifier := sdnotify.New(cfg.Notify, cfg.NotifySocket)
	if err := notifier.Ready(); err != nil {
		logger.Warnf("sd_notify READY=1: %v", err)
	}

	l := loop.New(conn, wm, xway, host)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		l.Stop()
		_ = proc.Terminate()
	}()

	runErr := l.Run()

	select {
	case <-proc.Done():
		if code := proc.ExitCode(); code > 0 {
			os.Exit(code)
		}
	default:
		_ = proc.Terminate()
		<-proc.Done()
	}

	return runErr
}

// dialXwayland retries x11wire.Dial with exponential backoff until
// Xwayland's listening socket appears, bailing early if the child
// exits first (spec.md §6: a crash during startup is fatal, not
// retryable).
func dialXwayland(spec string, proc *xserverproc.Process) (*x11wire.Conn, error) {
	deadline := time.Now().Add(dialTimeout)
	backoff := dialBackoffInitial
	for {
		conn, err := x11wire.Dial(spec)
		if err == nil {
			return conn, nil
		}

		select {
		case <-proc.Done():
			return nil, fmt.Errorf("xwayland exited before it could be dialed: %w", proc.Err())
		default:
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("dial %s: %w (timed out waiting for xwayland)", spec, err)
		}

		time.Sleep(backoff)
		backoff *= 2
		if backoff > dialBackoffMax {
			backoff = dialBackoffMax
		}
	}
}
