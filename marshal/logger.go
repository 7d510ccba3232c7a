package marshal

import (
	"sync"

	"go.uber.org/zap"

	perrors "github.com/wippyai/pycmarshal/errors"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the marshal package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the marshal package's logger.
// This must be called before any decoding.
func SetLogger(l *zap.Logger) {
	logger = l
}

// LogObserver reports decode events as debug entries.
type LogObserver struct {
	Logger *zap.Logger
}

func (o LogObserver) log() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return Logger()
}

func (o LogObserver) ObserveHeader(h Header) {
	o.log().Debug("header",
		zap.Uint16("magic_no", h.MagicNo),
		zap.String("magic_hex", h.MagicHex()),
		zap.Uint32("bit_field", h.BitField),
		zap.String("timestamp", h.FormatTimestamp()),
		zap.Uint32("size", h.Size))
}

func (o LogObserver) ObserveNode(n Node) {
	o.log().Debug("node",
		zap.String("path", perrors.JoinPath(n.Path)),
		zap.Int("offset", n.Offset),
		zap.Int("depth", n.Depth),
		zap.Uint8("tag", byte(n.Tag)),
		zap.Uint8("flag", n.Tag.Flag()),
		zap.Uint8("type", byte(n.Tag.Type())),
		zap.String("char", n.Tag.Type().Char()))
}

func (o LogObserver) ObserveCode(n Node, c *Code) {
	o.log().Debug("code object",
		zap.String("path", perrors.JoinPath(n.Path)),
		zap.Uint32("argcount", c.ArgCount),
		zap.Uint32("nlocals", c.NLocals),
		zap.Uint32("stacksize", c.StackSize),
		zap.Uint32("flags", c.Flags),
		zap.Uint32("firstlineno", c.FirstLineNo))
}
