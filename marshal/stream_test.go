package marshal_test

import (
	"bytes"
	"encoding/binary"
)

// stream builds marshal input byte by byte.
type stream struct {
	buf bytes.Buffer
}

func newStream() *stream { return &stream{} }

func (s *stream) bytes() []byte { return s.buf.Bytes() }

func (s *stream) raw(b ...byte) *stream {
	s.buf.Write(b)
	return s
}

func (s *stream) u32(v uint32) *stream {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	s.buf.Write(b[:])
	return s
}

func (s *stream) none() *stream { return s.raw('N') }

func (s *stream) str(data string) *stream {
	s.raw('s').u32(uint32(len(data)))
	s.buf.WriteString(data)
	return s
}

func (s *stream) short(tag byte, data string) *stream {
	s.raw(tag, byte(len(data)))
	s.buf.WriteString(data)
	return s
}

func (s *stream) tuple(n int) *stream { return s.raw(')', byte(n)) }

func (s *stream) ref(idx uint32) *stream { return s.raw('r').u32(idx) }

// header writes a preamble with little-endian bit-field, timestamp and size.
func (s *stream) header(magic [4]byte, bitField, ts, size uint32) *stream {
	s.raw(magic[:]...)
	var b [4]byte
	for _, v := range []uint32{bitField, ts, size} {
		binary.LittleEndian.PutUint32(b[:], v)
		s.buf.Write(b[:])
	}
	return s
}

// module writes a minimal module-level code object with the reference bit
// set on the tag, the way real files do.
func (s *stream) module() *stream {
	s.raw('c' | 0x80)
	s.u32(0).u32(0).u32(0).u32(0).u32(2).u32(64)
	s.str("d\x00S\x00")               // code
	s.tuple(2).none().short('z', "hi") // consts
	s.tuple(0)                         // names
	s.tuple(0)                         // varnames
	s.ref(1)                           // freevars
	s.ref(1)                           // cellvars
	s.short('z', "dummy.py")           // filename
	s.short('Z', "<module>")           // name
	s.u32(1)                           // firstlineno
	s.str("")                          // lnotab
	return s
}
