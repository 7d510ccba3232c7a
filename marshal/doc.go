// Package marshal decodes the object serialization stream stored in
// compiled Python module files.
//
// A file is a 16-byte header followed by exactly one tagged object. Each
// object starts with a tag byte: the high bit (FlagRef) marks the object as
// a reference-table entry, the low seven bits select the layout.
//
//	'c'  code object: 6 x u32, 8 objects, u32, 1 object
//	's'  string: u32 length, bytes
//	')'  small tuple: u8 count, that many objects
//	'z'  short string: u8 length, bytes
//	'Z'  interned short string: same as 'z'
//	'r'  back-reference: u32 index
//	'N'  none
//
// Integers inside the object tree are little-endian. The header's bit-field,
// timestamp and size are read in the host's native order unless
// WithByteOrder says otherwise.
//
// # Loading
//
//	f, err := marshal.Load(bytes.NewReader(data))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(f.Header.MagicHex(), f.Root.Kind())
//
// # Errors
//
// Failures are *errors.Error values from this module's errors package and
// match the sentinels with errors.Is:
//
//	errors.Is(err, marshal.ErrTruncated)
//	errors.Is(err, marshal.ErrUnknownTag)
//	errors.Is(err, marshal.ErrMalformedHeader)
//
// # Observing
//
// An Observer passed with WithObserver sees the header, every tag, and
// every finished code object. LogObserver writes them to a zap logger.
//
// # References
//
// 'r' objects decode to a Ref carrying the raw index. The decoder also
// keeps the table of flagged objects, so Decoder.Resolve can look an index
// up after decoding; the tree itself is never rewritten.
package marshal
