package xserverproc

import (
	"fmt"
	"os"
)

// PickDisplayNumber finds the lowest X display number with no live
// /tmp/.X11-unix/X<N> socket, for the no-positional-argument case
// spec.md §6 allows ("[:N] is optional; the satellite picks one when
// omitted"). It only checks for the socket, not for a lock file, so a
// concurrent picker could in principle race it onto the same number;
// Dial's retry loop in cmd/satellite surfaces that as an ordinary
// connect failure rather than silently misbehaving.
func PickDisplayNumber() (string, error) {
	for n := 0; n < 100; n++ {
		path := fmt.Sprintf("/tmp/.X11-unix/X%d", n)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Sprintf("%d", n), nil
		}
	}
	return "", fmt.Errorf("xserverproc: no free display number under :100")
}
