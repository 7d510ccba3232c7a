package marshal_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/wippyai/pycmarshal/marshal"
)

func TestReadHeader(t *testing.T) {
	data := newStream().header([4]byte{0xaa, 0x0d, 0x0d, 0x0a}, 0, 1640995200, 42).bytes()

	h, err := marshal.ReadHeader(bytes.NewReader(data), binary.LittleEndian)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.MagicNo != 0x0DAA {
		t.Errorf("MagicNo = 0x%04x, want 0x0daa", h.MagicNo)
	}
	if h.MagicHex() != "aa0d0d0a" {
		t.Errorf("MagicHex = %q, want aa0d0d0a", h.MagicHex())
	}
	if h.BitField != 0 {
		t.Errorf("BitField = %d, want 0", h.BitField)
	}
	if h.RawTimestamp != 1640995200 {
		t.Errorf("RawTimestamp = %d, want 1640995200", h.RawTimestamp)
	}
	if !h.Timestamp.Equal(time.Unix(1640995200, 0)) {
		t.Errorf("Timestamp = %v", h.Timestamp)
	}
	if h.FormatTimestamp() != time.Unix(1640995200, 0).Format(marshal.TimestampLayout) {
		t.Errorf("FormatTimestamp = %q", h.FormatTimestamp())
	}
	if h.Size != 42 {
		t.Errorf("Size = %d, want 42", h.Size)
	}
	if !bytes.Equal(h.Bytes(), data) {
		t.Errorf("Bytes = %x, want %x", h.Bytes(), data)
	}
}

func TestReadHeaderByteOrder(t *testing.T) {
	data := []byte{
		0x6f, 0x0d, 0x0d, 0x0a,
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x02,
		0x00, 0x00, 0x00, 0x03,
	}

	tests := []struct {
		name  string
		order binary.ByteOrder
		bits  uint32
		ts    uint32
		size  uint32
	}{
		{"big", binary.BigEndian, 1, 2, 3},
		{"little", binary.LittleEndian, 1 << 24, 2 << 24, 3 << 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := marshal.ReadHeader(bytes.NewReader(data), tt.order)
			if err != nil {
				t.Fatalf("ReadHeader: %v", err)
			}
			if h.MagicNo != 3439 {
				t.Errorf("MagicNo = %d, want 3439 regardless of order", h.MagicNo)
			}
			if h.BitField != tt.bits || h.RawTimestamp != tt.ts || h.Size != tt.size {
				t.Errorf("got bits=%d ts=%d size=%d, want %d/%d/%d",
					h.BitField, h.RawTimestamp, h.Size, tt.bits, tt.ts, tt.size)
			}
		})
	}
}

func TestReadHeaderNativeDefault(t *testing.T) {
	var data [16]byte
	binary.NativeEndian.PutUint32(data[4:8], 0x01020304)

	h, err := marshal.ReadHeader(bytes.NewReader(data[:]), nil)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.BitField != 0x01020304 {
		t.Errorf("BitField = 0x%x, want native 0x01020304", h.BitField)
	}
}

func TestReadHeaderTruncated(t *testing.T) {
	for _, n := range []int{0, 1, 4, 15} {
		_, err := marshal.ReadHeader(bytes.NewReader(make([]byte, n)), nil)
		if !errors.Is(err, marshal.ErrMalformedHeader) {
			t.Errorf("%d bytes: got %v, want ErrMalformedHeader", n, err)
		}
		if errors.Is(err, marshal.ErrTruncated) {
			t.Errorf("%d bytes: header failure must not look like an object truncation", n)
		}
	}
}

func TestReadHeaderConsumesExactly16(t *testing.T) {
	data := append(newStream().header([4]byte{0x6f, 0x0d, 0x0d, 0x0a}, 0, 0, 0).bytes(), 'N')
	r := bytes.NewReader(data)
	if _, err := marshal.ReadHeader(r, nil); err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("remaining = %d, want 1", r.Len())
	}
}

func TestHeaderHashBased(t *testing.T) {
	data := newStream().header([4]byte{0xa7, 0x0d, 0x0d, 0x0a}, 3, 0x44332211, 0x88776655).bytes()
	h, err := marshal.ReadHeader(bytes.NewReader(data), binary.LittleEndian)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if !h.HashBased() || !h.CheckSource() {
		t.Errorf("HashBased=%v CheckSource=%v, want both true", h.HashBased(), h.CheckSource())
	}
	want := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}
	if !bytes.Equal(h.SourceHash(), want) {
		t.Errorf("SourceHash = %x, want %x", h.SourceHash(), want)
	}

	plain := newStream().header([4]byte{0xa7, 0x0d, 0x0d, 0x0a}, 0, 1, 2).bytes()
	h, _ = marshal.ReadHeader(bytes.NewReader(plain), binary.LittleEndian)
	if h.HashBased() || h.CheckSource() || h.SourceHash() != nil {
		t.Error("timestamp-based header reported as hash-based")
	}
}

func TestLookupMagic(t *testing.T) {
	tests := []struct {
		magic   uint16
		version string
		ok      bool
	}{
		{3394, "3.7", true},
		{3413, "3.8", true},
		{3425, "3.9", true},
		{3439, "3.10", true},
		{3495, "3.11", true},
		{3531, "3.12", true},
		{3571, "3.13", true},
		{20121, "", false},
		{0, "", false},
	}
	for _, tt := range tests {
		got, ok := marshal.LookupMagic(tt.magic)
		if got != tt.version || ok != tt.ok {
			t.Errorf("LookupMagic(%d) = %q, %v; want %q, %v", tt.magic, got, ok, tt.version, tt.ok)
		}
	}
}
