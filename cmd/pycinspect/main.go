// pycinspect dumps the header and object tree of a compiled Python
// module file.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/pycmarshal/config"
	perrors "github.com/wippyai/pycmarshal/errors"
	"github.com/wippyai/pycmarshal/marshal"
	"github.com/wippyai/pycmarshal/render"
	"github.com/wippyai/pycmarshal/source"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var (
		configPath  string
		outputPath  string
		format      string
		byteOrder   string
		logLevel    string
		maxDepth    int
		resolveRefs bool
		interactive bool
	)

	fs := pflag.NewFlagSet("pycinspect", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&configPath, "config", "", "YAML file with default settings")
	fs.StringVarP(&outputPath, "output", "o", "", "write output to this file instead of stdout")
	fs.StringVarP(&format, "format", "f", "", "output format: text, json, yaml, cbor")
	fs.StringVar(&byteOrder, "byte-order", "", "byte order of the header fields: native, little, big")
	fs.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error, off")
	fs.IntVar(&maxDepth, "max-depth", 0, "maximum object nesting depth")
	fs.BoolVar(&resolveRefs, "resolve-refs", false, "list the reference table after the tree")
	fs.BoolVarP(&interactive, "interactive", "i", false, "browse the tree in a terminal UI")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: pycinspect [flags] FILE")
		fmt.Fprintln(stderr, "       pycinspect [flags] -   (read from stdin)")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return perrors.InvalidInput(perrors.PhaseConfig, "bad arguments", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv(os.Getenv)

	// Flags given explicitly win over file and environment.
	if fs.Changed("format") {
		cfg.Format = format
	}
	if fs.Changed("byte-order") {
		cfg.ByteOrder = byteOrder
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if fs.Changed("max-depth") {
		cfg.MaxDepth = maxDepth
	}
	if fs.Changed("resolve-refs") {
		cfg.ResolveRefs = resolveRefs
	}
	if fs.Changed("interactive") {
		cfg.Interactive = interactive
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return perrors.New(perrors.PhaseConfig, perrors.KindInvalidInput).
			Detail("expected one input file, got %d", fs.NArg()).
			Build()
	}

	logger, err := newLogger(stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	marshal.SetLogger(logger)

	in, err := acquire(fs.Arg(0), stdin)
	if err != nil {
		return err
	}
	logger.Debug("input acquired",
		zap.String("name", in.Name),
		zap.String("compression", string(in.Compression)),
		zap.Int("raw_size", in.RawSize),
		zap.String("blake3", in.DigestHex()))

	order, err := config.ParseByteOrder(cfg.ByteOrder)
	if err != nil {
		return err
	}
	fmtName, err := render.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	opts := []marshal.Option{
		marshal.WithByteOrder(order),
		marshal.WithMaxDepth(cfg.MaxDepth),
	}

	if cfg.Interactive {
		if !isTerminal(stdout) {
			return perrors.Unsupported(perrors.PhaseConfig, "interactive mode needs a terminal on stdout")
		}
		f, d, err := marshal.LoadDecoder(in.Reader(), opts...)
		if err != nil {
			return err
		}
		return runInteractive(in.Name, f, d)
	}

	w, closeOut, err := openOutput(outputPath, stdout)
	if err != nil {
		return err
	}
	err = dump(w, in, fmtName, cfg.ResolveRefs, logger, opts)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	return err
}

// dump decodes in and writes it to w in the chosen format.
func dump(w io.Writer, in *source.Input, format render.Format, resolveRefs bool, logger *zap.Logger, opts []marshal.Option) error {
	observers := marshal.MultiObserver{marshal.LogObserver{Logger: logger}}
	var text *render.TextObserver
	if format == render.FormatText {
		text = render.NewTextObserver(w)
		observers = append(observers, text)
	}
	opts = append(opts, marshal.WithObserver(observers))

	f, d, err := marshal.LoadDecoder(in.Reader(), opts...)
	if err != nil {
		return err
	}
	if dangling := render.Dangling(f.Root, d); len(dangling) > 0 {
		logger.Debug("references without a table entry", zap.Uint32s("indices", dangling))
	}
	logger.Info("decoded",
		zap.String("name", in.Name),
		zap.String("magic", f.Header.MagicHex()),
		zap.Int("consumed", f.Size),
		zap.Int("refs", d.Refs()),
		zap.Bool("trailing", f.Trailing))

	if text != nil {
		if err := text.Err(); err != nil {
			return perrors.Wrap(perrors.PhaseRender, perrors.KindInvalidInput, err, "write text output")
		}
		if resolveRefs {
			if err := render.WriteRefs(w, render.RefTable(d)); err != nil {
				return perrors.Wrap(perrors.PhaseRender, perrors.KindInvalidInput, err, "write reference table")
			}
		}
		return nil
	}

	doc := render.NewDocument(f)
	doc.Source = &render.SourceInfo{
		Name:        in.Name,
		Compression: string(in.Compression),
		Digest:      in.DigestHex(),
		RawSize:     in.RawSize,
		Consumed:    f.Size,
		Trailing:    f.Trailing,
	}
	if resolveRefs {
		doc.Refs = render.RefTable(d)
	}
	return render.Export(w, format, doc)
}

// acquire reads the whole input. "-" means stdin.
func acquire(path string, stdin io.Reader) (*source.Input, error) {
	if path == "-" {
		return source.Read("<stdin>", stdin)
	}
	return source.Open(path)
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, perrors.Wrap(perrors.PhaseRender, perrors.KindInvalidInput, err, "create output "+path)
	}
	return f, func() error {
		if err := f.Close(); err != nil {
			return perrors.Wrap(perrors.PhaseRender, perrors.KindInvalidInput, err, "close output "+path)
		}
		return nil
	}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
