package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/mbridge"
	"github.com/wippyai/mbridge/callin"
	"github.com/wippyai/mbridge/config"
	"github.com/wippyai/mbridge/engine"
	"github.com/wippyai/mbridge/globals"
	"github.com/wippyai/mbridge/interp"
	"github.com/wippyai/mbridge/mcall"
	"github.com/wippyai/mbridge/resource"
	"github.com/wippyai/mbridge/session"
	"github.com/wippyai/mbridge/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Engine     string
	Store      string
	Routines   string
	LogLevel   string
}

// NewRootCommand creates the root command of the mbridge CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "mbridge",
		Short: "Call into an M database engine",
		Long: `Call into an M database engine through its call-in interface.

Every command opens the configured engine, runs, and stops it again. The
local engine keeps globals in memory unless a SQL store is configured.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.Engine, "engine", "", "engine (local|gtm)")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "global store for the local engine (driver:dsn or mem)")
	cmd.PersistentFlags().StringVar(&opts.Routines, "routines", "", "directory of .m routines for the local engine")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewProcCommand(opts))
	cmd.AddCommand(NewFuncCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewOrderCommand(opts))
	cmd.AddCommand(NewDataCommand(opts))
	cmd.AddCommand(NewKillCommand(opts))
	cmd.AddCommand(NewNamesCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewDDWalkCommand(opts))
	cmd.AddCommand(NewCallTabCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))

	return cmd
}

// loadConfig reads the configuration file, then MBRIDGE_* variables, then
// flags, each overriding the previous.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(nil)
	cfg.ApplyEnv(func(k string) (string, bool) {
		switch k {
		case config.EnvEngine:
			return o.Engine, o.Engine != ""
		case config.EnvStore:
			return o.Store, o.Store != ""
		case config.EnvLogLevel:
			return o.LogLevel, o.LogLevel != ""
		}
		return "", false
	})
	if o.Routines != "" {
		cfg.Routines = o.Routines
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open opens the configured bridge. WRITE output of the local engine goes
// to the command's output unless an option says otherwise.
func (o *RootOptions) open(cmd *cobra.Command, extra ...mbridge.Option) (*mbridge.Bridge, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := setupLogging(cfg); err != nil {
		return nil, err
	}

	opts := append([]mbridge.Option{mbridge.WithOutput(cmd.OutOrStdout())}, extra...)
	b, err := mbridge.Open(ctxOf(cmd), cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("open bridge: %w", err)
	}
	return b, nil
}

func setupLogging(cfg *config.Config) error {
	l, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	mbridge.SetLogger(l)
	callin.SetLogger(l.Named("callin"))
	engine.SetLogger(l.Named("engine"))
	resource.SetLogger(l.Named("resource"))
	session.SetLogger(l.Named("session"))
	interp.SetLogger(l.Named("interp"))
	mcall.SetLogger(l.Named("mcall"))
	globals.SetLogger(l.Named("globals"))
	store.SetLogger(l.Named("store"))
	l.Debug("logging configured", zap.String("level", cfg.Log.Level))
	return nil
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// withBridge opens the bridge, runs fn and closes it, reporting the first
// error.
func (o *RootOptions) withBridge(cmd *cobra.Command, fn func(context.Context, *mbridge.Bridge) error) (err error) {
	b, err := o.open(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close bridge: %w", cerr)
		}
	}()
	return fn(ctxOf(cmd), b)
}
