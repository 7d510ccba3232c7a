package render

import (
	"fmt"
	"strconv"

	perrors "github.com/wippyai/pycmarshal/errors"
	"github.com/wippyai/pycmarshal/marshal"
)

// maxInline caps how much of a value is shown on an outline row.
const maxInline = 60

// Row is one line of an outline view of the tree.
type Row struct {
	Value      marshal.Value // nil for integer fields
	Path       string
	Name       string
	Summary    string
	Depth      int
	Expandable bool
	Collapsed  bool
}

// Outline flattens the tree depth-first. Composite rows whose Path is in
// collapsed are listed without their children.
func Outline(root marshal.Value, collapsed map[string]bool) []Row {
	var rows []Row
	var walk func(name string, path []string, v marshal.Value, depth int)
	walk = func(name string, path []string, v marshal.Value, depth int) {
		key := perrors.JoinPath(path)
		row := Row{Value: v, Path: key, Name: name, Depth: depth, Summary: Summary(v)}
		switch v := v.(type) {
		case marshal.Tuple:
			row.Expandable = len(v) > 0
			row.Collapsed = row.Expandable && collapsed[key]
			rows = append(rows, row)
			if row.Collapsed {
				return
			}
			for i, item := range v {
				idx := "[" + strconv.Itoa(i) + "]"
				walk(idx, append(path, idx), item, depth+1)
			}
		case *marshal.Code:
			row.Expandable = true
			row.Collapsed = collapsed[key]
			rows = append(rows, row)
			if row.Collapsed {
				return
			}
			for _, f := range v.Fields() {
				if f.IsInt {
					rows = append(rows, Row{
						Path:    perrors.JoinPath(append(path, f.Name)),
						Name:    f.Name,
						Summary: strconv.FormatUint(uint64(f.Int), 10),
						Depth:   depth + 1,
					})
					continue
				}
				walk(f.Name, append(path, f.Name), f.Value, depth+1)
			}
		default:
			rows = append(rows, row)
		}
	}
	walk("root", []string{"root"}, root, 0)
	return rows
}

// Summary renders a value briefly for outline rows.
func Summary(v marshal.Value) string {
	switch v := v.(type) {
	case marshal.Tuple:
		return fmt.Sprintf("tuple(%d)", len(v))
	case *marshal.Code:
		return FormatValue(v)
	case marshal.String:
		s := BytesRepr(v.Data)
		if len(s) > maxInline {
			s = s[:maxInline] + "..."
		}
		return fmt.Sprintf("%s %s", v.Type.Char(), s)
	default:
		return FormatValue(v)
	}
}
