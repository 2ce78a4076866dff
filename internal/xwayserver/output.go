package xwayserver

import "github.com/bnema/satellite/internal/hostwl"

// wl_output and zxdg_output_v1 event opcodes.
const (
	evOutWlGeometry = 0
	evOutWlMode     = 1
	evOutWlDone     = 2
	evOutWlScale    = 3

	evOutXdgLogicalPos  = 0
	evOutXdgLogicalSize = 1
	evOutXdgDone        = 2

	reqXdgOutputManagerGetXdgOutput = 0
)

// syntheticOutputName is the host output name used for the synthetic
// 1x1 output spec.md §9 calls for when zero real outputs exist at
// startup. It never collides with a real wlturbo registry name
// (those start at 1 and are always lower than the top of the range).
const syntheticOutputName = ^uint32(0)

// xScreenOutput is one output's X-screen placement, derived from the
// host's logical geometry and scale per spec.md §4.3's output/
// xdg_output interception rules.
type xScreenOutput struct {
	hostName uint32 // hostwl.Output.Name

	// PixelX/PixelY/PixelW/PixelH are what Xwayland is told: the
	// host's logical size multiplied by its scale, laid out so
	// outputs never overlap in X screen space.
	PixelX, PixelY, PixelW, PixelH int32
}

// outputLayout computes and remembers the non-overlapping X-screen
// placement for every host output currently advertised.
type outputLayout struct {
	byHostName map[uint32]*xScreenOutput
	order      []uint32
}

func newOutputLayout() *outputLayout {
	return &outputLayout{byHostName: make(map[uint32]*xScreenOutput)}
}

// bindOutput records which Xwayland wl_output object id mirrors which
// host output, so refreshOutputs knows which live objects to
// re-announce. The xwaylandID itself isn't needed by the layout
// (Server tracks it via Object.HostOutputName); this just guarantees
// a placeholder rectangle exists immediately so the first
// sendOutputEvents right after bind has something to report even
// before a Recompute has run.
func (l *outputLayout) bindOutput(xwaylandID, hostName uint32) {
	if _, ok := l.byHostName[hostName]; ok {
		return
	}
	l.byHostName[hostName] = &xScreenOutput{hostName: hostName, PixelW: 1, PixelH: 1}
	l.order = append(l.order, hostName)
}

// Recompute lays out every known host output left-to-right in the
// order hostwl reports them, converting each to device pixels:
// pixel size = host logical size × host scale (spec.md §4.3). With no
// host outputs at all, a single synthetic 1x1 output is kept so the X
// root window still has a size (spec.md §9's zero-output edge case).
func (l *outputLayout) Recompute(outputs []*hostwl.Output) {
	l.byHostName = make(map[uint32]*xScreenOutput, len(outputs))
	l.order = l.order[:0]

	if len(outputs) == 0 {
		l.byHostName[syntheticOutputName] = &xScreenOutput{hostName: syntheticOutputName, PixelW: 1, PixelH: 1}
		l.order = append(l.order, syntheticOutputName)
		return
	}

	var cursorX int32
	for _, o := range outputs {
		scale := o.Scale
		if scale < 1 {
			scale = 1
		}
		pw := o.Width * scale
		ph := o.Height * scale
		l.byHostName[o.Name] = &xScreenOutput{
			hostName: o.Name,
			PixelX:   cursorX,
			PixelY:   0,
			PixelW:   pw,
			PixelH:   ph,
		}
		l.order = append(l.order, o.Name)
		cursorX += pw
	}
}

func (l *outputLayout) Get(hostName uint32) (*xScreenOutput, bool) {
	o, ok := l.byHostName[hostName]
	return o, ok
}

// OutputAt returns the output whose pixel rectangle contains the given
// X root coordinate.
func (l *outputLayout) OutputAt(x, y int32) (*xScreenOutput, bool) {
	for _, name := range l.order {
		o := l.byHostName[name]
		if x >= o.PixelX && x < o.PixelX+o.PixelW && y >= o.PixelY && y < o.PixelY+o.PixelH {
			return o, true
		}
	}
	return nil, false
}

// primary returns the first output in bind order, the one new
// toplevels are placed on (spec.md §4.4 map policy step 5: "origin of
// their chosen monitor").
func (l *outputLayout) primary() (*xScreenOutput, bool) {
	if len(l.order) == 0 {
		return nil, false
	}
	o, ok := l.byHostName[l.order[0]]
	return o, ok
}

// scaleForHost returns the host scale of the output whose bound
// hostwl.Output.Name matches, looked up via the live host set rather
// than the X-pixel layout since a freshly-created window has no X
// position yet to resolve through OutputAt.
func scaleForHost(outputs []*hostwl.Output, hostName uint32) int32 {
	for _, o := range outputs {
		if o.Name == hostName {
			if o.Scale < 1 {
				return 1
			}
			return o.Scale
		}
	}
	return 1
}
