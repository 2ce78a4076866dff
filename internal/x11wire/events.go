package x11wire

import "encoding/binary"

// X11 core events the window manager reacts to (spec.md §4.4).
const (
	EventCreateNotify    = 16
	EventDestroyNotify   = 17
	EventUnmapNotify     = 18
	EventMapNotify       = 19
	EventMapRequest      = 20
	EventConfigureNotify = 22
	EventConfigureRequest = 23
	EventPropertyNotify  = 28
	EventSelectionClear  = 29
	EventSelectionRequest = 30
	EventSelectionNotify = 31
	EventClientMessage   = 33
	EventEnterNotify     = 7
)

// Event is one 32-byte core X11 event, decoded just enough to
// dispatch on: callers pull further fields out of Data with the
// standard field offsets documented in the X11 protocol spec.
type Event struct {
	Code   uint8
	Detail uint8
	Seq    uint16
	Data   []byte // bytes [4:32) of the event, undecoded
}

// NextEvent reads exactly one message off the wire: a fixed 32-byte
// event/error, or for a reply (Code == 1) the fixed part plus
// whatever variable-length trailer its reply-length field names (the
// case for GetProperty and similar requests). Like wire.Conn.ReadMessage,
// it performs the reads for one message per call and is meant to be
// driven by the poll-based event loop rather than called in a
// blocking loop of its own.
func (c *Conn) NextEvent() (*Event, error) {
	buf := make([]byte, 32)
	if _, err := readFull(c.c, buf); err != nil {
		return nil, err
	}
	code := buf[0] & 0x7f
	data := buf[4:32]
	if code == 1 { // reply
		extra := binary.LittleEndian.Uint32(buf[4:8])
		if extra > 0 {
			trailer := make([]byte, int(extra)*4)
			if _, err := readFull(c.c, trailer); err != nil {
				return nil, err
			}
			data = append(append([]byte(nil), data...), trailer...)
		}
	}
	return &Event{
		Code:   code,
		Detail: buf[1],
		Seq:    binary.LittleEndian.Uint16(buf[2:4]),
		Data:   data,
	}, nil
}

// Window extracts the window field from an event at the given byte
// offset into Data (the field position differs per event type).
func (e *Event) Window(offset int) uint32 {
	return binary.LittleEndian.Uint32(e.Data[offset:])
}

func (e *Event) Uint32At(offset int) uint32 {
	return binary.LittleEndian.Uint32(e.Data[offset:])
}

func (e *Event) Uint16At(offset int) uint16 {
	return binary.LittleEndian.Uint16(e.Data[offset:])
}

func (e *Event) Int16At(offset int) int16 {
	return int16(binary.LittleEndian.Uint16(e.Data[offset:]))
}
