package xwm

import (
	"testing"

	"github.com/bnema/satellite/internal/registry"
)

func TestRequestCloseIgnoresWindowWithoutDeleteProtocol(t *testing.T) {
	w := newTestXWM(t)
	w.reg.AddXWindow(&registry.XWindow{ID: 1, Protocols: map[string]bool{}})

	w.RequestClose(1) // must not attempt SendEvent and must not panic
}

func TestRequestCloseIgnoresUnknownWindow(t *testing.T) {
	w := newTestXWM(t)
	w.RequestClose(999)
}

func TestRequestCloseSendsDeleteWindowWhenSupported(t *testing.T) {
	w := newTestXWM(t)
	w.reg.AddXWindow(&registry.XWindow{ID: 2, Protocols: map[string]bool{"WM_DELETE_WINDOW": true}})

	w.RequestClose(2) // drained by newTestXWM's background net.Pipe reader; must not block or panic
}
