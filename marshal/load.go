package marshal

import (
	"io"

	"go.uber.org/zap"
)

// Load reads the header and then one root object from r.
func Load(r io.Reader, opts ...Option) (*File, error) {
	f, _, err := LoadDecoder(r, opts...)
	return f, err
}

// LoadDecoder is Load that also hands back the Decoder, whose reference
// table stays available for Resolve.
func LoadDecoder(r io.Reader, opts ...Option) (*File, *Decoder, error) {
	d := NewDecoder(r, opts...)

	h, err := d.ReadHeader()
	if err != nil {
		return nil, d, err
	}

	root, err := d.Decode()
	if err != nil {
		return nil, d, err
	}

	f := &File{
		Header:   h,
		Root:     root,
		Size:     d.Offset(),
		Trailing: d.More(),
	}
	if f.Trailing {
		Logger().Debug("input continues after root object", zap.Int("offset", f.Size))
	}
	return f, d, nil
}
