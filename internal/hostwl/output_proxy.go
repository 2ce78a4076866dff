package hostwl

import "github.com/bnema/wlturbo"

// wl_output event opcodes.
const (
	evOutputGeometry    = 0
	evOutputMode        = 1
	evOutputDone        = 2
	evOutputScale       = 3
	evOutputName        = 4
	evOutputDescription = 5
)

// outputProxy decodes wl_output's event stream into the matching
// Output record and tells the client once a geometry/mode/scale burst
// is complete (the done event), so internal/xwayserver's output
// layout is only recomputed once per atomic update (spec.md §4.3).
type outputProxy struct {
	wlturbo.BaseProxy
	client   *Client
	name     uint32 // registry global name, the Output map key
}

func (o *outputProxy) Dispatch(e *wlturbo.Event) {
	o.client.mu.Lock()
	out, ok := o.client.outputs[o.name]
	if !ok {
		o.client.mu.Unlock()
		return
	}

	data := e.Data()
	switch e.Opcode {
	case evOutputGeometry:
		out.X = int32(decodeU32(data))
		out.Y = int32(decodeU32(data[4:]))
		// physical_width, physical_height, subpixel: unused by the satellite.
		rest := data[20:]
		make_, n := decodeString(rest)
		rest = rest[n:]
		model, n := decodeString(rest)
		rest = rest[n:]
		out.Make = make_
		out.Model = model
		out.Transform = int32(decodeU32(rest))

	case evOutputMode:
		out.Width = int32(decodeU32(data[4:]))
		out.Height = int32(decodeU32(data[8:]))

	case evOutputScale:
		out.Scale = int32(decodeU32(data))

	case evOutputDone:
		o.client.mu.Unlock()
		o.client.notifyOutputsChanged()
		return
	}
	o.client.mu.Unlock()
}

// decodeString reads a Wayland string argument (u32 length including
// the trailing NUL, then that many bytes padded to a 4-byte
// boundary), returning the string and the total bytes consumed.
func decodeString(data []byte) (string, int) {
	if len(data) < 4 {
		return "", len(data)
	}
	n := int(decodeU32(data))
	if n == 0 {
		return "", 4
	}
	strBytes := data[4:]
	if n-1 > len(strBytes) {
		return "", len(data)
	}
	s := string(strBytes[:n-1])
	padded := (n + 3) &^ 3
	return s, 4 + padded
}
