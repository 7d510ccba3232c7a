package render

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	perrors "github.com/wippyai/pycmarshal/errors"
	"github.com/wippyai/pycmarshal/marshal"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatCBOR}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", perrors.Unsupported(perrors.PhaseRender, "format "+`"`+name+`"`)
}

// encMode is Core Deterministic CBOR: the same tree always encodes to the
// same bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("render: CBOR encoder initialization failed: " + err.Error())
	}
}

// Document is the structured form of a decoded file.
type Document struct {
	Source *SourceInfo `json:"source,omitempty" yaml:"source,omitempty" cbor:"source,omitempty"`
	Header HeaderInfo  `json:"header" yaml:"header" cbor:"header"`
	Root   *Node       `json:"root" yaml:"root" cbor:"root"`
	Refs   []RefInfo   `json:"refs,omitempty" yaml:"refs,omitempty" cbor:"refs,omitempty"`
}

// SourceInfo identifies the inspected input.
type SourceInfo struct {
	Name        string `json:"name" yaml:"name" cbor:"name"`
	Compression string `json:"compression" yaml:"compression" cbor:"compression"`
	Digest      string `json:"blake3" yaml:"blake3" cbor:"blake3"`
	RawSize     int    `json:"raw_size" yaml:"raw_size" cbor:"raw_size"`
	Consumed    int    `json:"consumed" yaml:"consumed" cbor:"consumed"`
	Trailing    bool   `json:"trailing,omitempty" yaml:"trailing,omitempty" cbor:"trailing,omitempty"`
}

// HeaderInfo mirrors marshal.Header with rendered fields.
type HeaderInfo struct {
	MagicHex     string `json:"magic_hex" yaml:"magic_hex" cbor:"magic_hex"`
	Version      string `json:"version,omitempty" yaml:"version,omitempty" cbor:"version,omitempty"`
	Timestamp    string `json:"timestamp" yaml:"timestamp" cbor:"timestamp"`
	SourceHash   string `json:"source_hash,omitempty" yaml:"source_hash,omitempty" cbor:"source_hash,omitempty"`
	MagicNo      uint16 `json:"magic_no" yaml:"magic_no" cbor:"magic_no"`
	BitField     uint32 `json:"bit_field" yaml:"bit_field" cbor:"bit_field"`
	RawTimestamp uint32 `json:"raw_timestamp" yaml:"raw_timestamp" cbor:"raw_timestamp"`
	Size         uint32 `json:"size" yaml:"size" cbor:"size"`
}

// Node is one value of the tree. Kind says which other fields are set.
// Byte strings carry Text when they are valid UTF-8 and Hex otherwise;
// CBOR keeps the raw bytes instead.
type Node struct {
	Ref   *uint32   `json:"ref,omitempty" yaml:"ref,omitempty" cbor:"ref,omitempty"`
	Code  *CodeNode `json:"code,omitempty" yaml:"code,omitempty" cbor:"code,omitempty"`
	Kind  string    `json:"kind" yaml:"kind" cbor:"kind"`
	Type  string    `json:"type,omitempty" yaml:"type,omitempty" cbor:"type,omitempty"`
	Text  *string   `json:"text,omitempty" yaml:"text,omitempty" cbor:"-"`
	Hex   string    `json:"hex,omitempty" yaml:"hex,omitempty" cbor:"-"`
	Bytes []byte    `json:"-" yaml:"-" cbor:"bytes,omitempty"`
	Items []*Node   `json:"items,omitempty" yaml:"items,omitempty" cbor:"items,omitempty"`
}

// CodeNode is a code object record in field order.
type CodeNode struct {
	Code            *Node  `json:"code" yaml:"code" cbor:"code"`
	Consts          *Node  `json:"consts" yaml:"consts" cbor:"consts"`
	Names           *Node  `json:"names" yaml:"names" cbor:"names"`
	VarNames        *Node  `json:"varnames" yaml:"varnames" cbor:"varnames"`
	FreeVars        *Node  `json:"freevars" yaml:"freevars" cbor:"freevars"`
	CellVars        *Node  `json:"cellvars" yaml:"cellvars" cbor:"cellvars"`
	Filename        *Node  `json:"filename" yaml:"filename" cbor:"filename"`
	Name            *Node  `json:"name" yaml:"name" cbor:"name"`
	LnoTab          *Node  `json:"lnotab" yaml:"lnotab" cbor:"lnotab"`
	ArgCount        uint32 `json:"argcount" yaml:"argcount" cbor:"argcount"`
	PosOnlyArgCount uint32 `json:"posonlyargcount" yaml:"posonlyargcount" cbor:"posonlyargcount"`
	KwOnlyArgCount  uint32 `json:"kwonlyargcount" yaml:"kwonlyargcount" cbor:"kwonlyargcount"`
	NLocals         uint32 `json:"nlocals" yaml:"nlocals" cbor:"nlocals"`
	StackSize       uint32 `json:"stacksize" yaml:"stacksize" cbor:"stacksize"`
	Flags           uint32 `json:"flags" yaml:"flags" cbor:"flags"`
	FirstLineNo     uint32 `json:"firstlineno" yaml:"firstlineno" cbor:"firstlineno"`
}

// NewDocument builds the structured form of f.
func NewDocument(f *marshal.File) *Document {
	h := f.Header
	doc := &Document{
		Header: HeaderInfo{
			MagicNo:      h.MagicNo,
			MagicHex:     h.MagicHex(),
			BitField:     h.BitField,
			Timestamp:    h.FormatTimestamp(),
			RawTimestamp: h.RawTimestamp,
			Size:         h.Size,
		},
		Root: NewNode(f.Root),
	}
	if v, ok := h.PythonVersion(); ok {
		doc.Header.Version = v
	}
	if sh := h.SourceHash(); sh != nil {
		doc.Header.SourceHash = hex.EncodeToString(sh)
	}
	return doc
}

// NewNode converts a decoded value.
func NewNode(v marshal.Value) *Node {
	switch v := v.(type) {
	case marshal.None:
		return &Node{Kind: marshal.KindNone.String()}
	case marshal.String:
		n := &Node{Kind: marshal.KindString.String(), Type: v.Type.Char(), Bytes: v.Data}
		if utf8.Valid(v.Data) {
			s := string(v.Data)
			n.Text = &s
		} else {
			n.Hex = hex.EncodeToString(v.Data)
		}
		return n
	case marshal.Tuple:
		n := &Node{Kind: marshal.KindTuple.String(), Items: make([]*Node, 0, len(v))}
		for _, item := range v {
			n.Items = append(n.Items, NewNode(item))
		}
		return n
	case marshal.Ref:
		idx := uint32(v)
		return &Node{Kind: marshal.KindRef.String(), Ref: &idx}
	case *marshal.Code:
		return &Node{Kind: marshal.KindCode.String(), Code: &CodeNode{
			ArgCount:        v.ArgCount,
			PosOnlyArgCount: v.PosOnlyArgCount,
			KwOnlyArgCount:  v.KwOnlyArgCount,
			NLocals:         v.NLocals,
			StackSize:       v.StackSize,
			Flags:           v.Flags,
			Code:            NewNode(v.Code),
			Consts:          NewNode(v.Consts),
			Names:           NewNode(v.Names),
			VarNames:        NewNode(v.VarNames),
			FreeVars:        NewNode(v.FreeVars),
			CellVars:        NewNode(v.CellVars),
			Filename:        NewNode(v.Filename),
			Name:            NewNode(v.Name),
			FirstLineNo:     v.FirstLineNo,
			LnoTab:          NewNode(v.LnoTab),
		}}
	default:
		return nil
	}
}

// Export writes doc in a structured format. FormatText is not structured;
// text output comes from TextObserver while decoding.
func Export(w io.Writer, format Format, doc *Document) error {
	var err error
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(doc); err == nil {
			err = enc.Close()
		}
	case FormatCBOR:
		var data []byte
		if data, err = encMode.Marshal(doc); err == nil {
			_, err = w.Write(data)
		}
	default:
		return perrors.Unsupported(perrors.PhaseRender, "structured export as "+string(format))
	}
	if err != nil {
		return perrors.Wrap(perrors.PhaseRender, perrors.KindInvalidData, err, "export "+string(format))
	}
	return nil
}
