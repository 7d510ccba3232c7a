package marshal

import (
	"encoding/binary"
	"errors"
	"io"
	"strconv"

	"go.uber.org/zap"

	perrors "github.com/wippyai/pycmarshal/errors"
	mbinary "github.com/wippyai/pycmarshal/marshal/internal/binary"
)

// Sentinels for errors.Is. Matching is by phase and kind only.
var (
	ErrTruncated       = perrors.New(perrors.PhaseDecode, perrors.KindTruncated).Build()
	ErrUnknownTag      = perrors.New(perrors.PhaseDecode, perrors.KindUnknownTag).Build()
	ErrDepthExceeded   = perrors.New(perrors.PhaseDecode, perrors.KindDepthExceeded).Build()
	ErrMalformedHeader = perrors.New(perrors.PhaseHeader, perrors.KindMalformedHeader).Build()
)

// Option configures a Decoder.
type Option func(*options)

type options struct {
	observer Observer
	order    binary.ByteOrder
	maxDepth int
}

// WithObserver installs a sink that is told about every header and node.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		if o != nil {
			opts.observer = o
		}
	}
}

// WithByteOrder sets the order for the header's bit-field, timestamp and
// size. The object tree is unaffected.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(opts *options) {
		if order != nil {
			opts.order = order
		}
	}
}

// WithMaxDepth bounds object nesting. Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(opts *options) {
		if n > 0 {
			opts.maxDepth = n
		}
	}
}

// Decoder reads marshal objects from a single stream. It is not safe for
// concurrent use.
type Decoder struct {
	r     *mbinary.Reader
	opts  options
	refs  []Value
	path  []string
	depth int
}

// NewDecoder returns a Decoder positioned at the current offset of r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	o := options{
		observer: NopObserver{},
		order:    binary.NativeEndian,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Decoder{
		r:    mbinary.NewReader(r),
		opts: o,
	}
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.r.Position()
}

// More reports whether unread input remains.
func (d *Decoder) More() bool {
	return d.r.More()
}

// ReadHeader consumes the 16-byte preamble and reports it to the observer.
func (d *Decoder) ReadHeader() (Header, error) {
	h, err := readHeader(d.r, d.opts.order)
	if err != nil {
		return Header{}, err
	}
	d.opts.observer.ObserveHeader(h)
	return h, nil
}

// Decode reads one object. On failure nothing is returned for the object,
// including any composite it was part of.
func (d *Decoder) Decode() (Value, error) {
	d.path = d.path[:0]
	d.depth = 0
	return d.decodeValue("root")
}

// Resolve looks up an entry of the reference table built while decoding.
// Entries exist only for objects whose tag carried FlagRef.
func (d *Decoder) Resolve(ref Ref) (Value, bool) {
	if int64(ref) >= int64(len(d.refs)) {
		return nil, false
	}
	v := d.refs[ref]
	return v, v != nil
}

// Refs returns the number of reference table entries.
func (d *Decoder) Refs() int {
	return len(d.refs)
}

func (d *Decoder) decodeValue(name string) (Value, error) {
	d.path = append(d.path, name)
	d.depth++
	defer func() {
		d.path = d.path[:len(d.path)-1]
		d.depth--
	}()

	offset := d.r.Position()
	if d.depth > d.opts.maxDepth {
		return nil, perrors.DepthExceeded(d.path, offset, d.opts.maxDepth)
	}

	b, err := d.r.ReadByte()
	if err != nil {
		return nil, d.fail("tag", err)
	}
	tag := Tag(b)
	node := Node{
		Path:   d.path,
		Offset: offset,
		Depth:  d.depth - 1,
		Tag:    tag,
	}
	d.opts.observer.ObserveNode(node)

	slot := -1
	if tag.Tracked() && tag.Type() != TypeRef {
		slot = len(d.refs)
		d.refs = append(d.refs, nil)
	}

	var v Value
	switch tag.Type() {
	case TypeCodeObject:
		c, err := d.readCode()
		if err != nil {
			return nil, err
		}
		d.opts.observer.ObserveCode(node, c)
		v = c
	case TypeString:
		n, err := d.r.ReadU32LE()
		if err != nil {
			return nil, d.fail("length", err)
		}
		data, err := d.readPayload(int64(n))
		if err != nil {
			return nil, err
		}
		v = String{Data: data, Type: TypeString}
	case TypeSmallTuple:
		n, err := d.r.ReadByte()
		if err != nil {
			return nil, d.fail("length", err)
		}
		items := make(Tuple, 0, n)
		for i := 0; i < int(n); i++ {
			item, err := d.decodeValue("[" + strconv.Itoa(i) + "]")
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		v = items
	case TypeShortASCII, TypeShortASCIIInterned:
		n, err := d.r.ReadByte()
		if err != nil {
			return nil, d.fail("length", err)
		}
		data, err := d.readPayload(int64(n))
		if err != nil {
			return nil, err
		}
		v = String{Data: data, Type: tag.Type()}
	case TypeRef:
		idx, err := d.r.ReadU32LE()
		if err != nil {
			return nil, d.fail("index", err)
		}
		v = Ref(idx)
	case TypeNone:
		v = None{}
	default:
		Logger().Debug("unknown type code",
			zap.String("path", perrors.JoinPath(d.path)),
			zap.Int("offset", offset),
			zap.Uint8("tag", b))
		return nil, perrors.UnknownTag(d.path, offset, b)
	}

	if slot >= 0 {
		d.refs[slot] = v
	}
	return v, nil
}

func (d *Decoder) readCode() (*Code, error) {
	c := &Code{}
	header := []struct {
		dst  *uint32
		name string
	}{
		{&c.ArgCount, "argcount"},
		{&c.PosOnlyArgCount, "posonlyargcount"},
		{&c.KwOnlyArgCount, "kwonlyargcount"},
		{&c.NLocals, "nlocals"},
		{&c.StackSize, "stacksize"},
		{&c.Flags, "flags"},
	}
	for _, f := range header {
		v, err := d.r.ReadU32LE()
		if err != nil {
			return nil, d.fail(f.name, err)
		}
		*f.dst = v
	}

	children := []struct {
		dst  *Value
		name string
	}{
		{&c.Code, "code"},
		{&c.Consts, "consts"},
		{&c.Names, "names"},
		{&c.VarNames, "varnames"},
		{&c.FreeVars, "freevars"},
		{&c.CellVars, "cellvars"},
		{&c.Filename, "filename"},
		{&c.Name, "name"},
	}
	for _, f := range children {
		v, err := d.decodeValue(f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	first, err := d.r.ReadU32LE()
	if err != nil {
		return nil, d.fail("firstlineno", err)
	}
	c.FirstLineNo = first

	lnotab, err := d.decodeValue("lnotab")
	if err != nil {
		return nil, err
	}
	c.LnoTab = lnotab
	return c, nil
}

// readPayload reads a length-prefixed byte run. n is int64 so a 4-byte
// length never wraps on 32-bit hosts.
func (d *Decoder) readPayload(n int64) ([]byte, error) {
	if n > int64(^uint(0)>>1) {
		return nil, perrors.New(perrors.PhaseDecode, perrors.KindTruncated).
			Path(append(append([]string(nil), d.path...), "data")...).
			Offset(d.r.Position()).
			Detail("length %d exceeds addressable memory", n).
			Build()
	}
	data, err := d.r.ReadBytes(int(n))
	if err != nil {
		return nil, d.fail("data", err)
	}
	return data, nil
}

func (d *Decoder) fail(field string, err error) error {
	path := append(append([]string(nil), d.path...), field)
	var short *mbinary.ShortReadError
	if errors.As(err, &short) {
		return perrors.Truncated(path, short.Position, short.Missing(), err)
	}
	return perrors.New(perrors.PhaseDecode, perrors.KindInvalidInput).
		Path(path...).
		Offset(d.r.Position()).
		Cause(err).
		Detail("read failed").
		Build()
}
