package xwayserver

import "github.com/bnema/satellite/internal/wire"

// wl_drm is a legacy global Xwayland still probes for on startup even
// when it ends up using linux-dmabuf; spec.md §4.3 calls for just
// enough synthesised behaviour to satisfy that probe, never a real
// DRM device connection.
const (
	evDRMDevice       = 0
	evDRMFormat       = 1
	evDRMAuthenticated = 2
	evDRMCapabilities = 3

	reqDRMAuthenticate = 0

	drmFormatARGB8888 = 0x34325241
	drmFormatXRGB8888 = 0x34325258
)

// sendDRMProbe answers the bind of wl_drm with a fake render-node
// path and the two formats every compositor advertises, so Xwayland's
// capability probe completes without ever touching a real device.
func (s *Server) sendDRMProbe(id uint32) error {
	if err := s.conn.SendMessage(id, evDRMDevice, nil, "/dev/dri/renderD128"); err != nil {
		return err
	}
	if err := s.conn.SendMessage(id, evDRMFormat, nil, uint32(drmFormatARGB8888)); err != nil {
		return err
	}
	if err := s.conn.SendMessage(id, evDRMFormat, nil, uint32(drmFormatXRGB8888)); err != nil {
		return err
	}
	return s.conn.SendMessage(id, evDRMCapabilities, nil, uint32(0))
}

func (s *Server) dispatchSynthesised(obj *Object, msg *wire.Message) error {
	if obj.Interface != "wl_drm" {
		return nil
	}
	if msg.Opcode == reqDRMAuthenticate {
		return s.conn.SendMessage(obj.ID, evDRMAuthenticated, nil)
	}
	return nil
}
