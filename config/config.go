package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/mbridge/callin"
	mberrors "github.com/wippyai/mbridge/errors"
	"github.com/wippyai/mbridge/session"
	"github.com/wippyai/mbridge/store"
)

// Engine names.
const (
	EngineLocal = "local"
	EngineGTM   = "gtm"
)

// Environment variables overriding file settings.
const (
	EnvEngine   = "MBRIDGE_ENGINE"
	EnvStore    = "MBRIDGE_STORE"
	EnvLogLevel = "MBRIDGE_LOG_LEVEL"
)

// Config is the bridge configuration.
type Config struct {
	// Engine is "local" (in-process interpreter) or "gtm".
	Engine string `yaml:"engine"`

	// Marker is the environment variable that must be set before the
	// engine starts.
	Marker string `yaml:"marker"`

	// Env is exported at Open for each variable that is still unset,
	// typically GTMCI and gtmroutines.
	Env map[string]string `yaml:"env"`

	// Entry is the M routine holding the call-in labels.
	Entry string `yaml:"entry"`

	// Charset encodes text slot values. Empty passes bytes through.
	Charset string `yaml:"charset"`

	// Routines is a directory of .m sources loaded into the local engine.
	Routines string `yaml:"routines"`

	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log"`
}

// StoreConfig selects where the local engine keeps globals. An empty
// driver keeps them in memory.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Engine: EngineLocal,
		Marker: session.DefaultMarker,
		Entry:  "mbridge",
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mberrors.Wrap(mberrors.PhaseConfig, mberrors.KindNotFound, err, "read "+path)
	}
	if err := cfg.decode(bytes.NewReader(data)); err != nil {
		return nil, mberrors.Wrap(mberrors.PhaseConfig, mberrors.KindInvalidData, err, "parse "+path)
	}
	return cfg, nil
}

// Parse decodes YAML from r over the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return nil, mberrors.Wrap(mberrors.PhaseConfig, mberrors.KindInvalidData, err, "parse config")
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// ApplyEnv overrides settings from MBRIDGE_* variables. lookup defaults
// to os.LookupEnv. MBRIDGE_STORE is "driver:dsn", or "mem".
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvEngine); ok && v != "" {
		c.Engine = v
	}
	if v, ok := lookup(EnvStore); ok && v != "" {
		if v == "mem" {
			c.Store = StoreConfig{}
		} else if driver, dsn, found := strings.Cut(v, ":"); found {
			c.Store = StoreConfig{Driver: driver, DSN: dsn}
		} else {
			c.Store = StoreConfig{Driver: v}
		}
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate checks every field, combining all problems into one error.
func (c *Config) Validate() error {
	var errs error
	bad := func(format string, args ...any) {
		errs = multierr.Append(errs, mberrors.InvalidInput(mberrors.PhaseConfig, fmt.Sprintf(format, args...)))
	}

	switch c.Engine {
	case EngineLocal, EngineGTM:
	default:
		bad("unknown engine %q", c.Engine)
	}
	if c.Marker == "" {
		bad("marker is empty")
	}
	if c.Entry == "" {
		bad("entry is empty")
	}
	if _, err := callin.LookupCharset(c.Charset); err != nil {
		bad("unknown charset %q", c.Charset)
	}
	if c.Store.Driver != "" {
		if !slices.Contains(store.Drivers(), c.Store.Driver) {
			bad("unknown store driver %q", c.Store.Driver)
		} else if c.Store.DSN == "" {
			bad("store dsn is empty")
		}
		if c.Engine == EngineGTM {
			bad("store applies to the local engine only")
		}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		bad("unknown log level %q", c.Log.Level)
	}
	return errs
}

// Environ returns the configured variables in name order.
func (c *Config) Environ() []string {
	names := make([]string, 0, len(c.Env))
	for k := range c.Env {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, k := range names {
		out = append(out, k+"="+c.Env[k])
	}
	return out
}

// NewLogger builds a zap logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, mberrors.Wrap(mberrors.PhaseConfig, mberrors.KindInvalidInput, err, "log level")
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
