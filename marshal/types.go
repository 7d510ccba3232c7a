package marshal

import (
	"fmt"
	"strconv"
)

// TypeCode is the low seven bits of a tag byte.
type TypeCode byte

// Known reports whether the decoder has a field layout for c.
func (c TypeCode) Known() bool {
	switch c {
	case TypeCodeObject, TypeString, TypeSmallTuple, TypeShortASCII, TypeShortASCIIInterned, TypeRef, TypeNone:
		return true
	}
	return false
}

// Char renders the type code as a character.
func (c TypeCode) Char() string {
	return string(rune(c))
}

func (c TypeCode) String() string {
	return strconv.QuoteRune(rune(c))
}

// Tag is the single byte in front of every encoded object.
type Tag byte

// Flag returns the reference bit, either 0 or FlagRef.
func (t Tag) Flag() byte { return byte(t) & FlagRef }

// Type returns the type code with the reference bit cleared.
func (t Tag) Type() TypeCode { return TypeCode(byte(t) &^ FlagRef) }

// Tracked reports whether the reference bit is set.
func (t Tag) Tracked() bool { return t.Flag() != 0 }

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNone Kind = iota
	KindString
	KindTuple
	KindRef
	KindCode
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindString:
		return "string"
	case KindTuple:
		return "tuple"
	case KindRef:
		return "ref"
	case KindCode:
		return "code"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a decoded object. The set of implementations is closed:
// None, String, Tuple, Ref and *Code.
type Value interface {
	Kind() Kind
	sealed()
}

// None is the absent value.
type None struct{}

// String is a byte string from an 's', 'z' or 'Z' tag. Type records which
// one for diagnostics; the payload is treated identically.
type String struct {
	Data []byte
	Type TypeCode
}

// Tuple is an ordered sequence of child values.
type Tuple []Value

// Ref is a raw back-reference index. It is never replaced by the object it
// points at; see Decoder.Resolve.
type Ref uint32

func (None) Kind() Kind   { return KindNone }
func (String) Kind() Kind { return KindString }
func (Tuple) Kind() Kind  { return KindTuple }
func (Ref) Kind() Kind    { return KindRef }
func (*Code) Kind() Kind  { return KindCode }

func (None) sealed()   {}
func (String) sealed() {}
func (Tuple) sealed()  {}
func (Ref) sealed()    {}
func (*Code) sealed()  {}

// Code is a compiled-routine descriptor decoded from a 'c' tag.
type Code struct {
	ArgCount        uint32
	PosOnlyArgCount uint32
	KwOnlyArgCount  uint32
	NLocals         uint32
	StackSize       uint32
	Flags           uint32

	Code     Value
	Consts   Value
	Names    Value
	VarNames Value
	FreeVars Value
	CellVars Value
	Filename Value
	Name     Value

	FirstLineNo uint32
	LnoTab      Value
}

// Field is one named member of a Code record. Exactly one of Int or Value
// is meaningful, as reported by IsInt.
type Field struct {
	Value Value
	Name  string
	Int   uint32
	IsInt bool
}

// Fields returns the 16 record members in wire order.
func (c *Code) Fields() []Field {
	return []Field{
		{Name: "ArgCount", Int: c.ArgCount, IsInt: true},
		{Name: "PosOnlyArgCount", Int: c.PosOnlyArgCount, IsInt: true},
		{Name: "KwOnlyArgCount", Int: c.KwOnlyArgCount, IsInt: true},
		{Name: "NLocals", Int: c.NLocals, IsInt: true},
		{Name: "StackSize", Int: c.StackSize, IsInt: true},
		{Name: "Flags", Int: c.Flags, IsInt: true},
		{Name: "Code", Value: c.Code},
		{Name: "Consts", Value: c.Consts},
		{Name: "Names", Value: c.Names},
		{Name: "VarNames", Value: c.VarNames},
		{Name: "FreeVars", Value: c.FreeVars},
		{Name: "CellVars", Value: c.CellVars},
		{Name: "Filename", Value: c.Filename},
		{Name: "Name", Value: c.Name},
		{Name: "FirstLineNo", Int: c.FirstLineNo, IsInt: true},
		{Name: "LnoTab", Value: c.LnoTab},
	}
}

// File is a fully loaded input: the preamble and the root object.
type File struct {
	Root   Value
	Header Header
	// Size is the number of bytes consumed, header included.
	Size int
	// Trailing is set when input remained after the root object.
	Trailing bool
}
