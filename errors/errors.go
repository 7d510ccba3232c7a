package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseHeader Phase = "header" // 16-byte preamble
	PhaseDecode Phase = "decode" // object tree
	PhaseLoad   Phase = "load"   // input acquisition
	PhaseRender Phase = "render" // output formatting
	PhaseConfig Phase = "config" // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindTruncated       Kind = "truncated"
	KindUnknownTag      Kind = "unknown_tag"
	KindMalformedHeader Kind = "malformed_header"
	KindDepthExceeded   Kind = "depth_exceeded"
	KindInvalidData     Kind = "invalid_data"
	KindInvalidInput    Kind = "invalid_input"
	KindUnsupported     Kind = "unsupported"
	KindNotFound        Kind = "not_found"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	Offset int // -1 when unknown
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(JoinPath(e.Path))
	}

	if e.Offset >= 0 {
		b.WriteString(" (offset ")
		b.WriteString(strconv.Itoa(e.Offset))
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// JoinPath renders a field path. Index segments ("[3]") attach to the
// previous segment without a dot.
func JoinPath(path []string) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Path sets the field path. The slice is copied.
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = append([]string(nil), path...)
	return b
}

// Offset sets the stream offset where the failure was detected
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Truncated creates a truncated-input error for a field that needed more bytes
func Truncated(path []string, offset, want int, cause error) *Error {
	return New(PhaseDecode, KindTruncated).
		Path(path...).
		Offset(offset).
		Detail("need %d more byte(s)", want).
		Cause(cause).
		Build()
}

// UnknownTag creates an unrecognized-tag error for the raw tag byte
func UnknownTag(path []string, offset int, tag byte) *Error {
	return New(PhaseDecode, KindUnknownTag).
		Path(path...).
		Offset(offset).
		Value(tag).
		Detail("unknown type code %q (tag 0x%02x)", rune(tag&0x7f), tag).
		Build()
}

// MalformedHeader creates a header error
func MalformedHeader(got int, cause error) *Error {
	return New(PhaseHeader, KindMalformedHeader).
		Offset(got).
		Detail("header needs 16 bytes, got %d", got).
		Cause(cause).
		Build()
}

// DepthExceeded creates a nesting limit error
func DepthExceeded(path []string, offset, limit int) *Error {
	return New(PhaseDecode, KindDepthExceeded).
		Path(path...).
		Offset(offset).
		Value(limit).
		Detail("nesting deeper than %d", limit).
		Build()
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return New(phase, KindNotFound).
		Detail("%s %q not found", what, name).
		Build()
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string, cause error) *Error {
	return New(phase, KindInvalidInput).
		Detail(detail).
		Cause(cause).
		Build()
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return New(phase, KindUnsupported).
		Detail(what).
		Build()
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return New(phase, KindInvalidData).
		Path(path...).
		Detail(detail).
		Build()
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return New(phase, kind).
		Cause(cause).
		Detail(detail).
		Build()
}
