package xwayserver

import (
	"fmt"

	"github.com/bnema/satellite/internal/logger"
	"github.com/bnema/satellite/internal/wire"
)

// argKind tags one positional argument of a pass-through request or
// event, enough to decode/re-encode and remap any object reference.
// spec.md §4.3 lists these globals as "forwarded verbatim"; in
// practice every argument they carry is one of these five shapes.
type argKind int

const (
	argUint32 argKind = iota
	argNewID          // allocates a child object; always zero or one per request
	argObject         // existing object id, needs id-map translation
	argString
	argFixed
)

type argSpec struct {
	kind  argKind
	iface string // for argNewID: the child's interface, for bindKind lookup
}

type msgSpec struct {
	args []argSpec
}

// requestTable declares the pass-through requests internal/xwayserver
// understands well enough to relay with correct id translation.
// wl_shm.create_pool, which carries an fd via the ancillary channel,
// has no entry here and no other relay path: like any undeclared
// request it is logged and dropped.
var requestTable = map[string]msgSpec{
	"wl_subcompositor:0": {[]argSpec{{argNewID, "wl_subsurface"}, {argObject, ""}, {argObject, ""}}}, // get_subsurface
	"zwp_linux_dmabuf_v1:1": {[]argSpec{{argNewID, "zwp_linux_buffer_params_v1"}}},                  // create_params
	"wl_data_device_manager:0": {[]argSpec{{argNewID, "wl_data_device"}, {argObject, ""}}},          // get_data_device
	"wl_data_device_manager:1": {[]argSpec{{argNewID, "wl_data_source"}}},                            // create_data_source
	"zxdg_exporter_v2:0":       {[]argSpec{{argNewID, "zxdg_exported_v2"}, {argObject, ""}}},         // export_toplevel
	"zxdg_importer_v2:0":       {[]argSpec{{argNewID, "zxdg_imported_v2"}, {argString, ""}}},         // import_toplevel
	"zwp_pointer_constraints_v1:0": {[]argSpec{{argNewID, "zwp_locked_pointer_v1"}, {argObject, ""}, {argObject, ""}, {argObject, ""}, {argUint32, ""}}}, // lock_pointer
	"zwp_pointer_constraints_v1:1": {[]argSpec{{argNewID, "zwp_confined_pointer_v1"}, {argObject, ""}, {argObject, ""}, {argObject, ""}, {argUint32, ""}}}, // confine_pointer
	"zwp_relative_pointer_manager_v1:0": {[]argSpec{{argNewID, "zwp_relative_pointer_v1"}, {argObject, ""}}}, // get_relative_pointer
	"zwp_primary_selection_device_manager_v1:0": {[]argSpec{{argNewID, "zwp_primary_selection_device_v1"}, {argObject, ""}}}, // get_device
	"zwp_primary_selection_device_manager_v1:1": {[]argSpec{{argNewID, "zwp_primary_selection_source_v1"}}},                 // create_source
}

// eventTable declares the pass-through events worth decoding for
// correct relay. Anything undeclared is relayed as a zero-argument
// event (opcode forwarded, empty body) with a logged notice, rather
// than silently dropped or mis-encoded.
var eventTable = map[string]msgSpec{
	"wl_buffer:0":           {nil},                                // release
	"zxdg_exported_v2:0":    {[]argSpec{{argString, ""}}},         // handle
	"zxdg_imported_v2:0":    {nil},                                // destroyed
	"wl_data_offer:0":       {[]argSpec{{argString, ""}}},         // offer
	"wl_data_source:0":      {[]argSpec{{argString, ""}}},         // target
	"wl_data_source:1":      {nil},                                // send (has fd, handled specially if needed)
	"wl_data_source:2":      {nil},                                // cancelled
	"zwp_primary_selection_offer_v1:0": {[]argSpec{{argString, ""}}}, // offer
}

// relayPassThrough forwards a request on a bound pass-through object
// to its host counterpart, translating any object/new_id arguments.
func (s *Server) relayPassThrough(obj *Object, msg *wire.Message) error {
	key := fmt.Sprintf("%s:%d", obj.Interface, msg.Opcode)
	spec, ok := requestTable[key]
	if !ok {
		logger.Warnf("xwayserver: no relay rule for %s, dropping request", key)
		return nil
	}

	r := wire.NewReader(msg.Data)
	args := make([]any, 0, len(spec.args))
	var newXID uint32
	var childIface string

	for _, a := range spec.args {
		switch a.kind {
		case argNewID:
			id, err := r.Uint32()
			if err != nil {
				return err
			}
			newXID = id
			childIface = a.iface
			// host-side id is allocated once we know which RawProxy to
			// register below; placeholder appended now, fixed up after.
			args = append(args, uint32(0))
		case argObject:
			id, err := r.Uint32()
			if err != nil {
				return err
			}
			args = append(args, s.hostIDFor(id))
		case argUint32:
			v, err := r.Uint32()
			if err != nil {
				return err
			}
			args = append(args, v)
		case argString:
			v, err := r.String()
			if err != nil {
				return err
			}
			args = append(args, v)
		case argFixed:
			v, err := r.Fixed()
			if err != nil {
				return err
			}
			args = append(args, wire.Fixed(v))
		}
	}

	proxy, ok := s.rawProxies[obj.ID]
	if !ok {
		return fmt.Errorf("xwayserver: %s not bound on host side", obj.Interface)
	}

	if childIface != "" {
		child := s.host.NewRawChild(func(opcode uint16, data []byte) {
			s.relayEventBack(newXID, childIface, opcode, data)
		})
		s.objects[newXID] = &Object{ID: newXID, Interface: childIface, Kind: KindPassThrough, HostID: child.ID()}
		s.rawProxies[newXID] = child
		args[0] = child.ID()
	}

	return proxy.Send(uint32(msg.Opcode), args...)
}

// relayEventBack decodes a host event for a passthrough child using
// eventTable and re-emits it to Xwayland under the Xwayland-side id.
func (s *Server) relayEventBack(xwaylandID uint32, iface string, opcode uint16, data []byte) {
	key := fmt.Sprintf("%s:%d", iface, opcode)
	spec, ok := eventTable[key]
	if !ok {
		logger.Warnf("xwayserver: no relay rule for event %s, forwarding empty", key)
		_ = s.conn.SendMessage(xwaylandID, opcode, nil)
		return
	}

	r := wire.NewReader(data)
	args := make([]any, 0, len(spec.args))
	for _, a := range spec.args {
		switch a.kind {
		case argString:
			v, _ := r.String()
			args = append(args, v)
		case argUint32, argObject:
			v, _ := r.Uint32()
			args = append(args, v)
		case argFixed:
			v, _ := r.Fixed()
			args = append(args, wire.Fixed(v))
		}
	}
	if err := s.conn.SendMessage(xwaylandID, opcode, nil, args...); err != nil {
		logger.Warnf("xwayserver: relay event %s: %v", key, err)
	}
}

// hostIDFor translates an Xwayland-side object id to its host
// counterpart, 0 if untracked (the host then sees a null object,
// matching Wayland's own null-object convention).
func (s *Server) hostIDFor(xwaylandID uint32) uint32 {
	if o, ok := s.objects[xwaylandID]; ok {
		return o.HostID
	}
	return 0
}

// bindPassThroughGlobal is called when Xwayland binds a curated
// global that spec.md §4.3 classifies as pass-through; it creates the
// matching host-side RawProxy up front so relayPassThrough has
// somewhere to forward to.
func (s *Server) bindPassThroughGlobal(xwaylandID uint32, iface string) error {
	proxy, err := s.host.BindRaw(iface, func(opcode uint16, data []byte) {
		s.relayEventBack(xwaylandID, iface, opcode, data)
	})
	if err != nil {
		return err
	}
	s.objects[xwaylandID] = &Object{ID: xwaylandID, Interface: iface, Kind: KindPassThrough, HostID: proxy.ID()}
	s.rawProxies[xwaylandID] = proxy
	return nil
}
