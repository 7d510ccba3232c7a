// Package render turns decoded marshal data into output: the diagnostic
// text lines printed while decoding, structured JSON, YAML and CBOR
// exports, and a flattened outline for interactive browsing.
package render
