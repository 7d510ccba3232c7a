package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wippyai/pycmarshal/marshal"
)

// Separator is printed between the header and the tree, and before every
// code object dump.
const Separator = "----------"

// TextObserver prints decode events in the diagnostic line format:
//
//	Magic: (No: 3439, Hex: 6f0d0d0a), BitField: 0, Timestamp: ..., Size: 42
//	Code: b'\xe3'  , Flag:   128, Type:    99, TypeChar: c
//	=> ArgCount        : 0
//
// Write errors are sticky and reported by Err.
type TextObserver struct {
	w   io.Writer
	err error
}

// NewTextObserver writes to w.
func NewTextObserver(w io.Writer) *TextObserver {
	return &TextObserver{w: w}
}

// Err returns the first write error.
func (o *TextObserver) Err() error {
	return o.err
}

func (o *TextObserver) printf(format string, args ...any) {
	if o.err != nil {
		return
	}
	_, o.err = fmt.Fprintf(o.w, format, args...)
}

func (o *TextObserver) ObserveHeader(h marshal.Header) {
	o.printf("Magic: (No: %d, Hex: %s), BitField: %d, Timestamp: %s, Size: %d\n",
		h.MagicNo, h.MagicHex(), h.BitField, h.FormatTimestamp(), h.Size)
	o.printf("%s\n", Separator)
}

func (o *TextObserver) ObserveNode(n marshal.Node) {
	typ := n.Tag.Type()
	o.printf("Code: %-9s, Flag: %5d, Type: %5d, TypeChar: %s\n",
		BytesRepr([]byte{byte(n.Tag)}), n.Tag.Flag(), byte(typ), typ.Char())
}

func (o *TextObserver) ObserveCode(_ marshal.Node, c *marshal.Code) {
	o.printf("%s\n", Separator)
	for _, f := range c.Fields() {
		o.printf("=> %-16s: %s\n", f.Name, FormatField(f))
	}
}

// FormatField renders one code object member.
func FormatField(f marshal.Field) string {
	if f.IsInt {
		return strconv.FormatUint(uint64(f.Int), 10)
	}
	return FormatValue(f.Value)
}

// FormatValue renders a value on one line. Byte strings use the b'...'
// notation, tuples are bracketed.
func FormatValue(v marshal.Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v marshal.Value) {
	switch v := v.(type) {
	case nil:
		b.WriteString("<nil>")
	case marshal.None:
		b.WriteString("None")
	case marshal.String:
		b.WriteString(BytesRepr(v.Data))
	case marshal.Tuple:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, item)
		}
		b.WriteByte(']')
	case marshal.Ref:
		b.WriteString("Ref(")
		b.WriteString(strconv.FormatUint(uint64(v), 10))
		b.WriteByte(')')
	case *marshal.Code:
		b.WriteString("<code ")
		if name, ok := v.Name.(marshal.String); ok {
			b.Write(name.Data)
		} else {
			b.WriteString("?")
		}
		b.WriteByte('>')
	}
}

// BytesRepr renders data as a b'...' literal: printable ASCII as is,
// common escapes by name, everything else as \xNN.
func BytesRepr(data []byte) string {
	var b strings.Builder
	b.Grow(len(data) + 3)
	b.WriteString("b'")
	for _, c := range data {
		switch {
		case c == '\\' || c == '\'':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c >= 0x20 && c < 0x7f:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, `\x%02x`, c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
