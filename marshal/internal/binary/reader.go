package binary

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// readChunk caps how much is allocated ahead of data actually arriving, so a
// bogus length prefix cannot force a huge allocation.
const readChunk = 64 << 10

// ErrNegativeLength is returned when a caller asks for a negative byte count.
var ErrNegativeLength = errors.New("binary: negative length")

// Source is what the Reader consumes: bulk reads plus single-byte reads
// with one byte of pushback. *bytes.Reader and *bufio.Reader both qualify.
type Source interface {
	io.Reader
	io.ByteScanner
}

// Reader wraps a byte source with position tracking and fixed-width reads.
type Reader struct {
	r   Source
	pos int
}

// NewReader creates a Reader. Sources that cannot unread a byte are
// buffered.
func NewReader(r io.Reader) *Reader {
	if s, ok := r.(Source); ok {
		return &Reader{r: s}
	}
	return &Reader{r: bufio.NewReader(r)}
}

// Position returns the number of bytes consumed so far.
func (r *Reader) Position() int {
	return r.pos
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, r.short(1, 0, err)
	}
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes. A short source yields a *ShortReadError.
// Sources that report their remaining length fail without consuming
// anything; others advance past whatever bytes were available.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, r.wrapError(ErrNegativeLength)
	}
	if n == 0 {
		return []byte{}, nil
	}
	if l, ok := r.r.(interface{ Len() int }); ok && l.Len() < n {
		return nil, r.short(n, l.Len(), io.ErrUnexpectedEOF)
	}

	buf := make([]byte, 0, min(n, readChunk))
	for len(buf) < n {
		k := min(n-len(buf), readChunk)
		start := len(buf)
		buf = append(buf, make([]byte, k)...)
		m, err := io.ReadFull(r.r, buf[start:])
		r.pos += m
		if err != nil {
			return nil, r.short(n, start+m, err)
		}
	}
	return buf, nil
}

// ReadU32 reads a fixed 4-byte unsigned integer in the given byte order.
func (r *Reader) ReadU32(order binary.ByteOrder) (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(buf), nil
}

// ReadU32LE reads a little-endian uint32 (fixed 4 bytes).
func (r *Reader) ReadU32LE() (uint32, error) {
	return r.ReadU32(binary.LittleEndian)
}

// More reports whether at least one byte remains, without consuming it.
func (r *Reader) More() bool {
	if _, err := r.r.ReadByte(); err != nil {
		return false
	}
	return r.r.UnreadByte() == nil
}

func (r *Reader) short(want, got int, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &ShortReadError{Position: r.pos, Want: want, Got: got}
	}
	return r.wrapError(err)
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at position %d: %w", r.pos, err)
}

// ShortReadError reports a read that ran out of input.
type ShortReadError struct {
	Position int // position after the bytes that were available
	Want     int
	Got      int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("binary: at position %d: wanted %d byte(s), got %d", e.Position, e.Want, e.Got)
}

// Unwrap lets callers match io.ErrUnexpectedEOF.
func (e *ShortReadError) Unwrap() error {
	return io.ErrUnexpectedEOF
}

// Missing returns how many more bytes the read needed.
func (e *ShortReadError) Missing() int {
	return e.Want - e.Got
}
