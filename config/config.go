package config

import (
	"encoding/binary"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	perrors "github.com/wippyai/pycmarshal/errors"
	"github.com/wippyai/pycmarshal/marshal"
	"github.com/wippyai/pycmarshal/render"
)

const (
	EnvFormat    = "PYCINSPECT_FORMAT"
	EnvByteOrder = "PYCINSPECT_BYTE_ORDER"
	EnvMaxDepth  = "PYCINSPECT_MAX_DEPTH"
	EnvLogLevel  = "PYCINSPECT_LOG_LEVEL"
)

// Byte order names accepted for the header fields.
const (
	OrderNative = "native"
	OrderLittle = "little"
	OrderBig    = "big"
)

// Config holds CLI defaults. Zero fields mean "use the default".
type Config struct {
	Format      string `yaml:"format"`
	ByteOrder   string `yaml:"byte_order"`
	LogLevel    string `yaml:"log_level"`
	MaxDepth    int    `yaml:"max_depth"`
	ResolveRefs bool   `yaml:"resolve_refs"`
	Interactive bool   `yaml:"interactive"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Format:    string(render.FormatText),
		ByteOrder: OrderNative,
		LogLevel:  "warn",
		MaxDepth:  marshal.DefaultMaxDepth,
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, perrors.Wrap(perrors.PhaseConfig, perrors.KindInvalidInput, err, "config load failed ("+path+")")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, perrors.Wrap(perrors.PhaseConfig, perrors.KindInvalidData, err, "config parse failed ("+path+")")
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. Unparseable values are
// ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvFormat)); v != "" {
		c.Format = v
	}
	if v := strings.TrimSpace(getenv(EnvByteOrder)); v != "" {
		c.ByteOrder = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if n, err := strconv.Atoi(strings.TrimSpace(getenv(EnvMaxDepth))); err == nil {
		c.MaxDepth = n
	}
}

// Validate checks every field.
func (c Config) Validate() error {
	if _, err := render.ParseFormat(c.Format); err != nil {
		return perrors.InvalidData(perrors.PhaseConfig, []string{"format"}, "unknown format "+strconv.Quote(c.Format))
	}
	if _, err := ParseByteOrder(c.ByteOrder); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxDepth < 1 {
		return perrors.InvalidData(perrors.PhaseConfig, []string{"max_depth"}, "must be positive")
	}
	return nil
}

// ParseByteOrder maps an order name to a binary.ByteOrder.
func ParseByteOrder(name string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", OrderNative:
		return binary.NativeEndian, nil
	case OrderLittle:
		return binary.LittleEndian, nil
	case OrderBig:
		return binary.BigEndian, nil
	default:
		return nil, perrors.InvalidData(perrors.PhaseConfig, []string{"byte_order"}, "unknown byte order "+strconv.Quote(name))
	}
}

// ParseLevel maps a level name to a zap level. "off" disables logging.
func ParseLevel(raw string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "warn", "warning":
		return zapcore.WarnLevel, nil
	case "debug", "trace":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "off", "none", "disabled":
		return zapcore.FatalLevel + 1, nil
	default:
		return 0, perrors.InvalidData(perrors.PhaseConfig, []string{"log_level"}, "unknown log level "+strconv.Quote(raw))
	}
}
