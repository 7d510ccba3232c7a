package render

import (
	"fmt"
	"io"

	"github.com/wippyai/pycmarshal/marshal"
)

// RefInfo describes one reference table entry.
type RefInfo struct {
	Kind    string `json:"kind" yaml:"kind" cbor:"kind"`
	Summary string `json:"summary" yaml:"summary" cbor:"summary"`
	Index   uint32 `json:"index" yaml:"index" cbor:"index"`
}

// RefTable lists the reference table d built while decoding, in index
// order. Slots that never completed are skipped.
func RefTable(d *marshal.Decoder) []RefInfo {
	var refs []RefInfo
	for i := 0; i < d.Refs(); i++ {
		v, ok := d.Resolve(marshal.Ref(i))
		if !ok {
			continue
		}
		refs = append(refs, RefInfo{
			Index:   uint32(i),
			Kind:    v.Kind().String(),
			Summary: Summary(v),
		})
	}
	return refs
}

// Dangling returns the Ref indices in root that d cannot resolve, in
// the order they appear.
func Dangling(root marshal.Value, d *marshal.Decoder) []uint32 {
	var out []uint32
	var walk func(v marshal.Value)
	walk = func(v marshal.Value) {
		switch v := v.(type) {
		case marshal.Ref:
			if _, ok := d.Resolve(v); !ok {
				out = append(out, uint32(v))
			}
		case marshal.Tuple:
			for _, item := range v {
				walk(item)
			}
		case *marshal.Code:
			for _, f := range v.Fields() {
				if !f.IsInt {
					walk(f.Value)
				}
			}
		}
	}
	walk(root)
	return out
}

// WriteRefs prints the table in the text layout.
func WriteRefs(w io.Writer, refs []RefInfo) error {
	if _, err := fmt.Fprintln(w, Separator); err != nil {
		return err
	}
	for _, r := range refs {
		if _, err := fmt.Fprintf(w, "Ref(%d) => %-5s: %s\n", r.Index, r.Kind, r.Summary); err != nil {
			return err
		}
	}
	return nil
}
