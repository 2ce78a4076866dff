package x11wire

import "fmt"

// InternAtomSync interns an atom by blocking for its reply. It exists
// only for internal/xwm's startup sequence, which (like Dial's own
// handshake) runs before the event loop starts driving this
// connection and is not bound by spec.md §5's no-blocking-I/O rule.
// Once the loop is running, InternAtom's async seq-return form is the
// only correct path.
func (c *Conn) InternAtomSync(name string, onlyIfExists bool) (uint32, error) {
	if a, ok, _, err := c.InternAtom(name, onlyIfExists); ok {
		return a, err
	}
	for {
		ev, err := c.NextEvent()
		if err != nil {
			return 0, err
		}
		if ev.Code != 1 {
			continue // ignore events interleaved during startup
		}
		if len(ev.Data) < 8 {
			return 0, fmt.Errorf("x11wire: truncated InternAtom reply")
		}
		atom := ev.Uint32At(4)
		c.RegisterAtom(name, atom)
		return atom, nil
	}
}
