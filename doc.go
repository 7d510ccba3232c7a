// Package pycmarshal reads the object trees stored in compiled Python
// module files.
//
// A compiled module is a 16-byte header followed by one value in the
// interpreter's marshal format: a recursive, tag-dispatched encoding in
// which every object starts with a single type byte whose high bit asks
// the loader to remember the object for later back-references.
//
// # Architecture Overview
//
//	pycmarshal/
//	├── marshal/         Header reader, object decoder, reference table
//	├── source/          Input acquisition, gzip/zstd unwrapping, BLAKE3 digest
//	├── render/          Text dump, JSON/YAML/CBOR export, outline rows
//	├── config/          YAML defaults and environment overrides
//	├── errors/          Structured error types for diagnostics
//	└── cmd/pycinspect/  Command-line inspector with an interactive browser
//
// # Quick Start
//
// Decode a file:
//
//	in, err := source.Open("mod.cpython-310.pyc")
//	if err != nil {
//		return err
//	}
//	f, err := marshal.Load(in.Reader())
//	if err != nil {
//		return err
//	}
//	fmt.Println(f.Header.MagicHex(), render.Summary(f.Root))
//
// Print the node-by-node dump while decoding:
//
//	obs := render.NewTextObserver(os.Stdout)
//	f, err := marshal.Load(in.Reader(), marshal.WithObserver(obs))
//
// # Byte Order
//
// Inside the object tree every integer is little-endian. The header's
// bit-field, timestamp and size words are read in the host's native order
// unless marshal.WithByteOrder says otherwise.
//
// # Error Handling
//
// All failures are *errors.Error values labelled with the stage that
// failed and the kind of failure:
//
//	var perr *errors.Error
//	if errors.As(err, &perr) {
//		fmt.Println(perr.Phase, perr.Kind, errors.JoinPath(perr.Path))
//	}
//
// The decoder never returns a partially built composite.
package pycmarshal
