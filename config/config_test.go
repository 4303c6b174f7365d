package config

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	mberrors "github.com/wippyai/mbridge/errors"
)

func TestDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine != EngineLocal || cfg.Marker != "GTMCI" || cfg.Entry != "mbridge" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoad_Full(t *testing.T) {
	cfg, err := Load("testdata/full.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine != EngineGTM {
		t.Errorf("Engine = %q", cfg.Engine)
	}
	if cfg.Marker != "YDBCI" || cfg.Entry != "vavistagtm" || cfg.Charset != "latin1" {
		t.Errorf("unexpected fields: %+v", cfg)
	}
	if !cfg.Log.Development || cfg.Log.Level != "debug" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	want := []string{"GTMCI=/opt/mbridge/mbridge.ci", "gtmroutines=/opt/mbridge/r"}
	got := cfg.Environ()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Environ() = %v, want %v", got, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("testdata/unknown.yaml")
	if err == nil || !strings.Contains(err.Error(), "stroe") {
		t.Errorf("unknown field: err = %v", err)
	}
	var e *mberrors.Error
	if !errors.As(err, &e) || e.Phase != mberrors.PhaseConfig || e.Kind != mberrors.KindInvalidData {
		t.Errorf("unknown field: want config/invalid_data, got %v", err)
	}

	_, err = Load("testdata/missing.yaml")
	if !errors.As(err, &e) || e.Kind != mberrors.KindNotFound {
		t.Errorf("missing file: got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		engine string
		store  StoreConfig
		level  string
	}{
		{"none", nil, EngineLocal, StoreConfig{}, "info"},
		{"engine", map[string]string{EnvEngine: "gtm"}, EngineGTM, StoreConfig{}, "info"},
		{"store dsn", map[string]string{EnvStore: "sqlite3:/tmp/g.db"}, EngineLocal, StoreConfig{Driver: "sqlite3", DSN: "/tmp/g.db"}, "info"},
		{"mysql dsn keeps colons", map[string]string{EnvStore: "mysql:u:p@tcp(h:3306)/m"}, EngineLocal, StoreConfig{Driver: "mysql", DSN: "u:p@tcp(h:3306)/m"}, "info"},
		{"mem", map[string]string{EnvStore: "mem"}, EngineLocal, StoreConfig{}, "info"},
		{"level", map[string]string{EnvLogLevel: "warn"}, EngineLocal, StoreConfig{}, "warn"},
		{"empty ignored", map[string]string{EnvEngine: ""}, EngineLocal, StoreConfig{}, "info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.ApplyEnv(func(k string) (string, bool) {
				v, ok := tt.env[k]
				return v, ok
			})
			if cfg.Engine != tt.engine || cfg.Store != tt.store || cfg.Log.Level != tt.level {
				t.Errorf("got engine=%q store=%+v level=%q", cfg.Engine, cfg.Store, cfg.Log.Level)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errs   []string
	}{
		{"engine", func(c *Config) { c.Engine = "cache" }, []string{`unknown engine "cache"`}},
		{"charset", func(c *Config) { c.Charset = "klingon" }, []string{`unknown charset "klingon"`}},
		{"driver", func(c *Config) { c.Store = StoreConfig{Driver: "postgres", DSN: "x"} }, []string{`unknown store driver "postgres"`}},
		{"dsn", func(c *Config) { c.Store = StoreConfig{Driver: "sqlite3"} }, []string{"store dsn is empty"}},
		{"gtm store", func(c *Config) {
			c.Engine = EngineGTM
			c.Store = StoreConfig{Driver: "sqlite3", DSN: "x"}
		}, []string{"local engine only"}},
		{"several", func(c *Config) {
			c.Marker = ""
			c.Entry = ""
			c.Log.Level = "loud"
		}, []string{"marker is empty", "entry is empty", `unknown log level "loud"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if n := len(multierr.Errors(err)); n != len(tt.errs) {
				t.Errorf("%d errors, want %d: %v", n, len(tt.errs), err)
			}
			for _, s := range tt.errs {
				if !strings.Contains(err.Error(), s) {
					t.Errorf("error %q lacks %q", err, s)
				}
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"
	l, err := cfg.NewLogger()
	if err != nil {
		t.Fatal(err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info enabled at warn level")
	}
	if !l.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("error disabled at warn level")
	}

	cfg.Log.Level = "nope"
	if _, err := cfg.NewLogger(); err == nil {
		t.Error("expected error for bad level")
	}
}
