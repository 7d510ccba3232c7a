// Package errors provides structured error types for pycmarshal.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the field path inside the object tree, the stream offset,
// the offending value, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTruncated).
//		Path("code", "consts", "[2]", "length").
//		Offset(57).
//		Detail("need 4 more byte(s)").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownTag(path, 12, 0xe9)
//	err := errors.MalformedHeader(7, io.ErrUnexpectedEOF)
//
// All errors implement the standard error interface and support errors.Is/As.
// Is matches on Phase and Kind only, so a bare &Error{Phase, Kind} works as a target.
package errors
