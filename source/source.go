package source

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	perrors "github.com/wippyai/pycmarshal/errors"
)

// MaxDecompressed caps how large a compressed input may expand.
const MaxDecompressed = 1 << 30

// Compression identifies how the raw input was wrapped.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect sniffs the compression from the leading bytes.
func Detect(raw []byte) Compression {
	switch {
	case bytes.HasPrefix(raw, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(raw, gzipMagic):
		return CompressionGzip
	default:
		return CompressionNone
	}
}

// Input is one acquired input. Data holds the bytes the decoder reads;
// Digest covers the raw bytes as stored.
type Input struct {
	Name        string
	Compression Compression
	Data        []byte
	RawSize     int
	Digest      [32]byte
}

// DigestHex returns the BLAKE3 digest as lower-case hex.
func (in *Input) DigestHex() string {
	return hex.EncodeToString(in.Digest[:])
}

// Reader returns a fresh reader over Data.
func (in *Input) Reader() *bytes.Reader {
	return bytes.NewReader(in.Data)
}

// Open reads the file at path. The file is closed before Open returns.
func Open(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, perrors.New(perrors.PhaseLoad, perrors.KindNotFound).
				Detail("file %q not found", path).
				Cause(err).
				Build()
		}
		return nil, perrors.InvalidInput(perrors.PhaseLoad, "open "+path, err)
	}
	defer f.Close()
	return Read(path, f)
}

// Read acquires an input from r, for stdin and tests.
func Read(name string, r io.Reader) (*Input, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, perrors.InvalidInput(perrors.PhaseLoad, "read "+name, err)
	}
	return FromBytes(name, raw)
}

// FromBytes wraps raw input, unwrapping gzip or zstd when detected.
func FromBytes(name string, raw []byte) (*Input, error) {
	in := &Input{
		Name:        name,
		Compression: Detect(raw),
		RawSize:     len(raw),
		Digest:      blake3.Sum256(raw),
	}

	var err error
	switch in.Compression {
	case CompressionGzip:
		in.Data, err = gunzip(raw)
	case CompressionZstd:
		in.Data, err = unzstd(raw)
	default:
		in.Data = raw
	}
	if err != nil {
		return nil, perrors.New(perrors.PhaseLoad, perrors.KindInvalidData).
			Detail("%s: %s input", name, in.Compression).
			Cause(err).
			Build()
	}
	return in, nil
}

func gunzip(raw []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, MaxDecompressed+1))
	if err != nil {
		return nil, err
	}
	if len(out) > MaxDecompressed {
		return nil, fmt.Errorf("expands beyond %d bytes", MaxDecompressed)
	}
	return out, nil
}

func unzstd(raw []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDecompressed))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(raw, nil)
}
