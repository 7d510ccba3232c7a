// Package source acquires decoder input: it reads a file or stream once,
// unwraps gzip or zstd compression, and records a BLAKE3 digest of the raw
// bytes so reports can identify exactly what was inspected.
package source
