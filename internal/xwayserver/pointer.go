package xwayserver

// pointerTranslator implements spec.md §4.3's pointer interception
// formula: host enter/motion events arrive in surface-local logical
// units and must be translated to X root pixel coordinates.
type pointerTranslator struct {
	layout *outputLayout
}

// Translate converts a host-logical pointer position, local to the
// output named hostOutputName with the given host scale, into X root
// pixel coordinates: (output_pixel_x + local_x*scale + 0.5)|0, same
// for y.
func (p *pointerTranslator) Translate(hostOutputName uint32, localX, localY float64, scale int32) (rootX, rootY int32, ok bool) {
	out, found := p.layout.Get(hostOutputName)
	if !found {
		return 0, 0, false
	}
	rootX, rootY = TranslateWithScale(out.PixelX, out.PixelY, localX, localY, scale)
	return rootX, rootY, true
}

// TranslateWithScale applies spec.md §4.3's pointer formula directly
// given an output's X-root pixel origin.
func TranslateWithScale(outX, outY int32, localX, localY float64, scale int32) (rootX, rootY int32) {
	s := float64(scale)
	if s < 1 {
		s = 1
	}
	rootX = outX + int32(localX*s+0.5)
	rootY = outY + int32(localY*s+0.5)
	return
}
