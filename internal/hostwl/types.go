package hostwl

import "github.com/bnema/wlturbo"

// Output mirrors the teacher's OutputInfo (internal/wayland.go) but
// tracks host logical geometry/scale for the satellite's X-screen
// dimensioning (spec.md §4.2).
type Output struct {
	Name        uint32
	Make, Model string
	X, Y        int32
	Width       int32
	Height      int32
	Scale       int32
	Transform   int32
}

// Seat mirrors the teacher's SeatInfo.
type Seat struct {
	Name        uint32
	HasPointer  bool
	HasKeyboard bool
	HasTouch    bool

	seat *wlturbo.Seat
}

// SmallestScaleOutput picks the output with the smallest logical
// scale among those currently advertised, per spec.md §4.2: X has a
// single pixel grid, so the smallest scale minimises blur on
// higher-DPI outputs at the cost of larger apparent text on
// lower-DPI ones. Ties are broken deterministically by output name,
// per the Open Question decision in DESIGN.md.
func SmallestScaleOutput(outputs []*Output) *Output {
	var best *Output
	for _, o := range outputs {
		if best == nil || o.Scale < best.Scale || (o.Scale == best.Scale && o.Name < best.Name) {
			best = o
		}
	}
	return best
}
