// Package wire implements the Wayland wire format: an 8-byte header
// (object id, then a packed opcode/size word) followed by a
// little-endian argument stream, with SCM_RIGHTS file descriptor
// passing over the ancillary channel of a unix socket.
//
// internal/hostwl already speaks this format as a client, via
// github.com/bnema/wlturbo. This package exists because wlturbo is a
// client library with no server role: internal/xwayserver needs to
// read requests and write events on the Xwayland side, which is the
// mirror image of what a client does. The framing technique (header
// cut, pooled buffers, fd passing) is the same one bnema-wlturbo uses
// for its client implementation (core.go, scm_linux.go, event_pool.go).
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
)

const headerSize = 8

// Message is one decoded Wayland wire message: either a client
// request or a server event, depending on which side of a Conn read
// it.
type Message struct {
	ObjectID uint32
	Opcode   uint16
	Data     []byte
	FDs      []int
}

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// Encode serializes object/opcode/args into the wire format used by
// both requests and events; args may be uint32, int32, string,
// []byte (array) or Fixed.
func Encode(objectID uint32, opcode uint16, args ...any) ([]byte, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	for _, a := range args {
		if err := encodeArg(buf, a); err != nil {
			return nil, err
		}
	}

	size := headerSize + buf.Len()
	if size > 0xffff {
		return nil, fmt.Errorf("wire: message too large (%d bytes)", size)
	}

	out := make([]byte, size)
	binary.LittleEndian.PutUint32(out[0:4], objectID)
	binary.LittleEndian.PutUint32(out[4:8], (uint32(size)<<16)|uint32(opcode))
	copy(out[headerSize:], buf.Bytes())
	return out, nil
}

func encodeArg(buf *bytes.Buffer, a any) error {
	switch v := a.(type) {
	case uint32:
		return binary.Write(buf, binary.LittleEndian, v)
	case int32:
		return binary.Write(buf, binary.LittleEndian, v)
	case Fixed:
		return binary.Write(buf, binary.LittleEndian, int32(v))
	case string:
		b := append([]byte(v), 0)
		for len(b)%4 != 0 {
			b = append(b, 0)
		}
		if err := binary.Write(buf, binary.LittleEndian, uint32(len(v)+1)); err != nil {
			return err
		}
		_, err := buf.Write(b)
		return err
	case []byte:
		padded := make([]byte, len(v))
		copy(padded, v)
		for len(padded)%4 != 0 {
			padded = append(padded, 0)
		}
		if err := binary.Write(buf, binary.LittleEndian, uint32(len(v))); err != nil {
			return err
		}
		_, err := buf.Write(padded)
		return err
	default:
		return fmt.Errorf("wire: unsupported argument type %T", a)
	}
}

// Fixed is a 24.8 signed fixed-point number, as used by pointer
// coordinates and similar continuous values on the wire.
type Fixed int32

func (f Fixed) Float64() float64 { return float64(f) / 256.0 }

func NewFixed(v float64) Fixed { return Fixed(v * 256.0) }

// DecodeHeader parses the 8-byte message header.
func DecodeHeader(hdr [headerSize]byte) (objectID uint32, opcode uint16, size uint16) {
	objectID = binary.LittleEndian.Uint32(hdr[0:4])
	sizeOpcode := binary.LittleEndian.Uint32(hdr[4:8])
	opcode = uint16(sizeOpcode & 0xffff)
	size = uint16(sizeOpcode >> 16)
	return
}

// Reader pulls fixed-width fields out of a decoded message body in
// argument order, mirroring the generated bindings' own unmarshalling
// without requiring a matching generator for the server role.
type Reader struct {
	data []byte
	off  int
}

func NewReader(data []byte) *Reader { return &Reader{data: data} }

func (r *Reader) Uint32() (uint32, error) {
	if len(r.data)-r.off < 4 {
		return 0, fmt.Errorf("wire: short read for uint32")
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Fixed() (Fixed, error) {
	v, err := r.Int32()
	return Fixed(v), err
}

func (r *Reader) String() (string, error) {
	n, err := r.Uint32()
	if err != nil {
		return "", err
	}
	padded := int(n)
	for padded%4 != 0 {
		padded++
	}
	if len(r.data)-r.off < padded {
		return "", fmt.Errorf("wire: short read for string")
	}
	s := string(r.data[r.off : r.off+int(n)-1])
	r.off += padded
	return s, nil
}

func (r *Reader) Array() ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	padded := int(n)
	for padded%4 != 0 {
		padded++
	}
	if len(r.data)-r.off < padded {
		return nil, fmt.Errorf("wire: short read for array")
	}
	out := make([]byte, n)
	copy(out, r.data[r.off:r.off+int(n)])
	r.off += padded
	return out, nil
}
