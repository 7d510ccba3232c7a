package marshal

// HeaderSize is the fixed length of the preamble in front of the object tree.
const HeaderSize = 16

// FlagRef is the high bit of a tag byte. When set, the object is entered
// into the stream's reference table.
const FlagRef byte = 0x80

// DefaultMaxDepth bounds object nesting. It matches the marshal stack limit
// of the runtime that writes these files.
const DefaultMaxDepth = 2000

// Type codes recognized by the decoder. Every other code is rejected.
const (
	TypeCodeObject         TypeCode = 'c' // code object
	TypeString             TypeCode = 's' // 4-byte length, raw bytes
	TypeSmallTuple         TypeCode = ')' // 1-byte count, that many objects
	TypeShortASCII         TypeCode = 'z' // 1-byte length, raw bytes
	TypeShortASCIIInterned TypeCode = 'Z' // decoded like 'z'
	TypeRef                TypeCode = 'r' // 4-byte index into the reference table
	TypeNone               TypeCode = 'N' // no payload
)

// Bit-field flags in the header.
const (
	BitHashBased   uint32 = 1 << 0 // bytes 8..16 hold a source hash, not timestamp+size
	BitCheckSource uint32 = 1 << 1 // hash-based file should be checked against its source
)
