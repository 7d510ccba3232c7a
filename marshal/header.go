package marshal

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"io"
	"time"

	perrors "github.com/wippyai/pycmarshal/errors"
	mbinary "github.com/wippyai/pycmarshal/marshal/internal/binary"
)

// TimestampLayout is how header timestamps are rendered.
const TimestampLayout = "2006-01-02 15:04:05"

// Header is the 16-byte preamble of a compiled module file.
//
// The magic is little-endian. BitField, timestamp and Size are read in a
// configurable order that defaults to the host's native order; the object
// tree that follows is always little-endian.
type Header struct {
	Timestamp    time.Time // RawTimestamp as local time
	Magic        [4]byte
	MagicNo      uint16
	BitField     uint32
	RawTimestamp uint32
	Size         uint32

	raw [HeaderSize]byte
}

// MagicHex returns the four magic bytes as lower-case hex.
func (h Header) MagicHex() string {
	return hex.EncodeToString(h.Magic[:])
}

// FormatTimestamp renders Timestamp with TimestampLayout.
func (h Header) FormatTimestamp() string {
	return h.Timestamp.Format(TimestampLayout)
}

// HashBased reports whether bytes 8..16 carry a source hash rather than a
// timestamp and size.
func (h Header) HashBased() bool {
	return h.BitField&BitHashBased != 0
}

// CheckSource reports whether a hash-based file asks to be validated
// against its source.
func (h Header) CheckSource() bool {
	return h.HashBased() && h.BitField&BitCheckSource != 0
}

// SourceHash returns the 8-byte source hash of a hash-based file, or nil.
func (h Header) SourceHash() []byte {
	if !h.HashBased() {
		return nil
	}
	return append([]byte(nil), h.raw[8:16]...)
}

// Bytes returns the header exactly as read.
func (h Header) Bytes() []byte {
	return append([]byte(nil), h.raw[:]...)
}

// PythonVersion maps MagicNo to the release line that writes it.
func (h Header) PythonVersion() (string, bool) {
	return LookupMagic(h.MagicNo)
}

// ReadHeader consumes exactly HeaderSize bytes from r. A nil order means
// binary.NativeEndian.
func ReadHeader(r io.Reader, order binary.ByteOrder) (Header, error) {
	var buf [HeaderSize]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		return Header{}, perrors.MalformedHeader(n, err)
	}
	return parseHeader(buf, order), nil
}

func readHeader(r *mbinary.Reader, order binary.ByteOrder) (Header, error) {
	data, err := r.ReadBytes(HeaderSize)
	if err != nil {
		got := 0
		var short *mbinary.ShortReadError
		if errors.As(err, &short) {
			got = short.Got
		}
		return Header{}, perrors.MalformedHeader(got, err)
	}
	var buf [HeaderSize]byte
	copy(buf[:], data)
	return parseHeader(buf, order), nil
}

func parseHeader(buf [HeaderSize]byte, order binary.ByteOrder) Header {
	if order == nil {
		order = binary.NativeEndian
	}
	h := Header{
		MagicNo:      binary.LittleEndian.Uint16(buf[0:2]),
		BitField:     order.Uint32(buf[4:8]),
		RawTimestamp: order.Uint32(buf[8:12]),
		Size:         order.Uint32(buf[12:16]),
		raw:          buf,
	}
	copy(h.Magic[:], buf[0:4])
	h.Timestamp = time.Unix(int64(h.RawTimestamp), 0)
	return h
}
