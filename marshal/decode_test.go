package marshal_test

import (
	"bytes"
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	perrors "github.com/wippyai/pycmarshal/errors"
	"github.com/wippyai/pycmarshal/marshal"
)

func decode(t *testing.T, data []byte, opts ...marshal.Option) (marshal.Value, *marshal.Decoder) {
	t.Helper()
	d := marshal.NewDecoder(bytes.NewReader(data), opts...)
	v, err := d.Decode()
	if err != nil {
		t.Fatalf("Decode(%x): %v", data, err)
	}
	return v, d
}

func TestDecodeNone(t *testing.T) {
	v, d := decode(t, []byte{'N', 'N'})
	if _, ok := v.(marshal.None); !ok {
		t.Fatalf("got %T, want None", v)
	}
	if d.Offset() != 1 {
		t.Errorf("Offset = %d, want 1", d.Offset())
	}
}

func TestDecodeSmallTuple(t *testing.T) {
	v, d := decode(t, newStream().tuple(2).none().none().bytes())
	tup, ok := v.(marshal.Tuple)
	if !ok {
		t.Fatalf("got %T, want Tuple", v)
	}
	if !reflect.DeepEqual(tup, marshal.Tuple{marshal.None{}, marshal.None{}}) {
		t.Errorf("got %#v", tup)
	}
	if d.Offset() != 4 {
		t.Errorf("Offset = %d, want 4", d.Offset())
	}
}

func TestDecodeString(t *testing.T) {
	data := []byte{'s', 0x05, 0x00, 0x00, 0x00, 0x00, 0xff, 'a', 0x80, 0x7f}

	first, _ := decode(t, data)
	second, d := decode(t, data)

	s, ok := first.(marshal.String)
	if !ok {
		t.Fatalf("got %T, want String", first)
	}
	if !bytes.Equal(s.Data, []byte{0x00, 0xff, 'a', 0x80, 0x7f}) {
		t.Errorf("Data = %x", s.Data)
	}
	if s.Type != marshal.TypeString {
		t.Errorf("Type = %v, want 's'", s.Type)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("decoding the same input twice gave different results")
	}
	if d.Offset() != len(data) {
		t.Errorf("Offset = %d, want %d", d.Offset(), len(data))
	}
}

func TestDecodeShortStrings(t *testing.T) {
	for _, tag := range []byte{'z', 'Z', 'z' | 0x80, 'Z' | 0x80} {
		v, d := decode(t, newStream().short(tag, "abc").bytes())
		s, ok := v.(marshal.String)
		if !ok {
			t.Fatalf("tag 0x%02x: got %T, want String", tag, v)
		}
		if string(s.Data) != "abc" {
			t.Errorf("tag 0x%02x: Data = %q", tag, s.Data)
		}
		if s.Type != marshal.TypeCode(tag&0x7f) {
			t.Errorf("tag 0x%02x: Type = %v", tag, s.Type)
		}
		if d.Offset() != 5 {
			t.Errorf("tag 0x%02x: Offset = %d, want 5", tag, d.Offset())
		}
	}
}

func TestDecodeEmptyShortString(t *testing.T) {
	v, _ := decode(t, []byte{'z', 0x00})
	s := v.(marshal.String)
	if s.Data == nil || len(s.Data) != 0 {
		t.Errorf("Data = %#v, want empty", s.Data)
	}
}

func TestDecodeRef(t *testing.T) {
	v, d := decode(t, newStream().ref(0x01020304).bytes())
	if v != marshal.Ref(0x01020304) {
		t.Errorf("got %#v, want Ref(0x01020304)", v)
	}
	if d.Offset() != 5 {
		t.Errorf("Offset = %d, want 5", d.Offset())
	}
}

func TestDecodeCode(t *testing.T) {
	data := newStream().module().bytes()
	v, d := decode(t, data)

	c, ok := v.(*marshal.Code)
	if !ok {
		t.Fatalf("got %T, want *Code", v)
	}
	if c.StackSize != 2 || c.Flags != 64 || c.FirstLineNo != 1 {
		t.Errorf("StackSize=%d Flags=%d FirstLineNo=%d", c.StackSize, c.Flags, c.FirstLineNo)
	}
	if got := string(c.Code.(marshal.String).Data); got != "d\x00S\x00" {
		t.Errorf("Code = %q", got)
	}
	consts := c.Consts.(marshal.Tuple)
	if len(consts) != 2 || consts[0] != (marshal.None{}) {
		t.Errorf("Consts = %#v", consts)
	}
	if c.FreeVars != marshal.Ref(1) || c.CellVars != marshal.Ref(1) {
		t.Errorf("FreeVars=%#v CellVars=%#v", c.FreeVars, c.CellVars)
	}
	if got := string(c.Filename.(marshal.String).Data); got != "dummy.py" {
		t.Errorf("Filename = %q", got)
	}
	name := c.Name.(marshal.String)
	if string(name.Data) != "<module>" || name.Type != marshal.TypeShortASCIIInterned {
		t.Errorf("Name = %#v", name)
	}
	if d.Offset() != len(data) {
		t.Errorf("Offset = %d, want %d", d.Offset(), len(data))
	}

	fields := c.Fields()
	if len(fields) != 16 {
		t.Fatalf("Fields: got %d, want 16", len(fields))
	}
	wantNames := []string{
		"ArgCount", "PosOnlyArgCount", "KwOnlyArgCount", "NLocals", "StackSize", "Flags",
		"Code", "Consts", "Names", "VarNames", "FreeVars", "CellVars", "Filename", "Name",
		"FirstLineNo", "LnoTab",
	}
	for i, f := range fields {
		if f.Name != wantNames[i] {
			t.Errorf("field %d = %s, want %s", i, f.Name, wantNames[i])
		}
	}
	if !fields[4].IsInt || fields[4].Int != 2 || fields[6].IsInt {
		t.Errorf("field kinds wrong: %+v %+v", fields[4], fields[6])
	}
}

// encodeRandom writes a random tree of 'N', 's' and ')' objects and returns
// how many bytes it wrote.
func encodeRandom(rng *rand.Rand, s *stream, depth int) int {
	choice := rng.Intn(3)
	if depth > 4 {
		choice = rng.Intn(2)
	}
	switch choice {
	case 0:
		s.none()
		return 1
	case 1:
		payload := strings.Repeat("x", rng.Intn(40))
		s.str(payload)
		return 5 + len(payload)
	default:
		n := rng.Intn(5)
		s.tuple(n)
		total := 2
		for i := 0; i < n; i++ {
			total += encodeRandom(rng, s, depth+1)
		}
		return total
	}
}

func TestDecodeConsumesExactLayout(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		s := newStream()
		want := encodeRandom(rng, s, 0)
		s.raw(0xff, 0xff) // trailing garbage must not be touched

		d := marshal.NewDecoder(bytes.NewReader(s.bytes()))
		if d.Offset() != 0 {
			t.Fatalf("fresh decoder offset = %d", d.Offset())
		}
		if _, err := d.Decode(); err != nil {
			t.Fatalf("case %d: Decode: %v", i, err)
		}
		if d.Offset() != want {
			t.Fatalf("case %d: consumed %d bytes, layout implies %d", i, d.Offset(), want)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		path string
	}{
		{"empty", nil, "root.tag"},
		{"string tag only", []byte{'s'}, "root.length"},
		{"string short length", []byte{'s', 0x05, 0x00}, "root.length"},
		{"string short data", []byte{'s', 0x05, 0x00, 0x00, 0x00, 'a', 'b'}, "root.data"},
		{"tuple missing count", []byte{')'}, "root.length"},
		{"tuple missing item", []byte{')', 0x02, 'N'}, "root[1].tag"},
		{"short string data", []byte{'z', 0x03, 'a'}, "root.data"},
		{"ref index", []byte{'r', 0x01}, "root.index"},
		{"code header", []byte{'c', 0x00, 0x00, 0x00, 0x00, 0x00}, "root.posonlyargcount"},
		{"code child", newStream().module().bytes()[:40], "root.consts[1].data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := marshal.NewDecoder(bytes.NewReader(tt.data))
			v, err := d.Decode()
			if v != nil {
				t.Errorf("partial value returned: %#v", v)
			}
			if !errors.Is(err, marshal.ErrTruncated) {
				t.Fatalf("got %v, want ErrTruncated", err)
			}
			if errors.Is(err, marshal.ErrUnknownTag) {
				t.Error("truncation reported as unknown tag")
			}
			var perr *perrors.Error
			if !errors.As(err, &perr) {
				t.Fatalf("got %T, want *errors.Error", err)
			}
			if got := perrors.JoinPath(perr.Path); got != tt.path {
				t.Errorf("path = %q, want %q", got, tt.path)
			}
		})
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		tag    byte
		offset int
	}{
		{"int", []byte{'i', 0x01, 0x00, 0x00, 0x00}, 'i', 0},
		{"flagged", []byte{0xe9}, 0xe9, 0},
		{"inside tuple", []byte{')', 0x02, 'N', 'T'}, 'T', 3},
		{"zero", []byte{0x00}, 0x00, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := marshal.NewDecoder(bytes.NewReader(tt.data))
			v, err := d.Decode()
			if v != nil {
				t.Errorf("partial value returned: %#v", v)
			}
			if !errors.Is(err, marshal.ErrUnknownTag) {
				t.Fatalf("got %v, want ErrUnknownTag", err)
			}
			if errors.Is(err, marshal.ErrTruncated) {
				t.Error("unknown tag reported as truncation")
			}
			var perr *perrors.Error
			errors.As(err, &perr)
			if perr.Value != tt.tag {
				t.Errorf("Value = %v, want 0x%02x", perr.Value, tt.tag)
			}
			if perr.Offset != tt.offset {
				t.Errorf("Offset = %d, want %d", perr.Offset, tt.offset)
			}
			if d.Offset() != tt.offset+1 {
				t.Errorf("decoder consumed %d bytes, want only the tag", d.Offset())
			}
		})
	}
}

func TestDecodeMaxDepth(t *testing.T) {
	s := newStream()
	for i := 0; i < 5; i++ {
		s.tuple(1)
	}
	s.none()

	if _, err := marshal.NewDecoder(bytes.NewReader(s.bytes()), marshal.WithMaxDepth(6)).Decode(); err != nil {
		t.Fatalf("depth 6 within limit: %v", err)
	}

	_, err := marshal.NewDecoder(bytes.NewReader(s.bytes()), marshal.WithMaxDepth(5)).Decode()
	if !errors.Is(err, marshal.ErrDepthExceeded) {
		t.Fatalf("got %v, want ErrDepthExceeded", err)
	}
}

func TestDecodeReferenceTable(t *testing.T) {
	// (flagged tuple)[ (flagged 'ab'), r 1 ]
	data := newStream().
		raw(')'|0x80, 2).
		short('z'|0x80, "ab").
		ref(1).
		bytes()

	v, d := decode(t, data)
	tup := v.(marshal.Tuple)
	if tup[1] != marshal.Ref(1) {
		t.Errorf("reference was spliced: %#v", tup[1])
	}
	if d.Refs() != 2 {
		t.Fatalf("Refs = %d, want 2", d.Refs())
	}

	got, ok := d.Resolve(1)
	if !ok || string(got.(marshal.String).Data) != "ab" {
		t.Errorf("Resolve(1) = %#v, %v", got, ok)
	}
	got, ok = d.Resolve(0)
	if !ok || got.Kind() != marshal.KindTuple {
		t.Errorf("Resolve(0) = %#v, %v; composite slot must be reserved before children", got, ok)
	}
	if _, ok := d.Resolve(7); ok {
		t.Error("Resolve(7) should fail")
	}
}

func TestDecodeUnflaggedNotTracked(t *testing.T) {
	_, d := decode(t, newStream().tuple(1).short('z', "x").bytes())
	if d.Refs() != 0 {
		t.Errorf("Refs = %d, want 0", d.Refs())
	}
}

type recorder struct {
	headers int
	nodes   []string
	codes   []string
}

func (r *recorder) ObserveHeader(marshal.Header) { r.headers++ }

func (r *recorder) ObserveNode(n marshal.Node) {
	r.nodes = append(r.nodes, perrors.JoinPath(n.Path)+"="+n.Tag.Type().Char())
}

func (r *recorder) ObserveCode(n marshal.Node, c *marshal.Code) {
	r.codes = append(r.codes, perrors.JoinPath(n.Path))
}

func TestDecodeObserver(t *testing.T) {
	rec := &recorder{}
	decode(t, newStream().tuple(2).none().short('z', "a").bytes(), marshal.WithObserver(rec))

	want := []string{"root=)", "root[0]=N", "root[1]=z"}
	if !reflect.DeepEqual(rec.nodes, want) {
		t.Errorf("nodes = %v, want %v", rec.nodes, want)
	}

	rec = &recorder{}
	decode(t, newStream().module().bytes(), marshal.WithObserver(rec))
	if len(rec.nodes) != 12 {
		t.Errorf("module nodes = %d, want 12: %v", len(rec.nodes), rec.nodes)
	}
	if !reflect.DeepEqual(rec.codes, []string{"root"}) {
		t.Errorf("codes = %v", rec.codes)
	}
}

func TestDecodeObserverSeesUnknownTag(t *testing.T) {
	rec := &recorder{}
	d := marshal.NewDecoder(bytes.NewReader([]byte{'?'}), marshal.WithObserver(rec))
	if _, err := d.Decode(); err == nil {
		t.Fatal("expected error")
	}
	if !reflect.DeepEqual(rec.nodes, []string{"root=?"}) {
		t.Errorf("nodes = %v", rec.nodes)
	}
}

func TestTag(t *testing.T) {
	tag := marshal.Tag(0xe3)
	if tag.Flag() != 0x80 || !tag.Tracked() {
		t.Errorf("Flag = 0x%02x", tag.Flag())
	}
	if tag.Type() != marshal.TypeCodeObject || tag.Type().Char() != "c" {
		t.Errorf("Type = %v", tag.Type())
	}
	if marshal.Tag('N').Flag() != 0 {
		t.Error("'N' should have no flag")
	}
	if marshal.TypeCode('i').Known() || !marshal.TypeCode('Z').Known() {
		t.Error("Known mismatch")
	}
}
