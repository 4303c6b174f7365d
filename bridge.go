package mbridge

import (
	"context"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/mbridge/callin"
	"github.com/wippyai/mbridge/config"
	"github.com/wippyai/mbridge/engine"
	mberrors "github.com/wippyai/mbridge/errors"
	"github.com/wippyai/mbridge/globals"
	"github.com/wippyai/mbridge/interp"
	"github.com/wippyai/mbridge/mcall"
	"github.com/wippyai/mbridge/resource"
	"github.com/wippyai/mbridge/session"
	"github.com/wippyai/mbridge/store"
)

// Option customizes Open.
type Option func(*options)

type options struct {
	output    io.Writer
	terminal  session.Terminal
	lookup    func(string) (string, bool)
	observers []resource.Observer
	noSignals bool
}

// WithOutput sends WRITE output of the local engine to w.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithTerminal replaces the terminal whose mode is saved around the engine.
func WithTerminal(t session.Terminal) Option {
	return func(o *options) { o.terminal = t }
}

// WithLookupEnv replaces os.LookupEnv for the marker check.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(o *options) { o.lookup = fn }
}

// WithObservers attaches buffer observers to every mexec call.
func WithObservers(obs ...resource.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs...) }
}

// WithoutSignalHandling leaves SIGINT and SIGTERM to the caller. By default
// Open stops a live engine and exits the process on either signal.
func WithoutSignalHandling() Option {
	return func(o *options) { o.noSignals = true }
}

// Bridge is an open connection to one M engine. The engine itself starts
// on the first call. All methods are safe for concurrent use; foreign
// calls are serialized by the session.
type Bridge struct {
	cfg    *config.Config
	sess   *session.Session
	driver *callin.Driver
	local  *interp.Engine
	store  store.Store

	unwatch func()
}

// Open builds the engine selected by cfg. A nil cfg uses config.Default.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Bridge, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := exportEnv(cfg.Env); err != nil {
		return nil, err
	}

	cs, err := callin.LookupCharset(cfg.Charset)
	if err != nil {
		return nil, err
	}

	b := &Bridge{cfg: cfg}
	var eng engine.Engine
	scfg := session.Config{
		Terminal:  o.terminal,
		LookupEnv: o.lookup,
		Marker:    cfg.Marker,
	}

	switch cfg.Engine {
	case config.EngineGTM:
		eng, err = engine.NewGTM()
		if err != nil {
			return nil, mberrors.Wrap(mberrors.PhaseSession, mberrors.KindUnsupported, err, "gtm engine")
		}
	default:
		if cfg.Store.Driver != "" {
			b.store, err = store.OpenSQL(cfg.Store.Driver, cfg.Store.DSN)
			if err != nil {
				return nil, err
			}
		}
		b.local = interp.New(interp.Options{Globals: b.store, Output: o.output})
		if cfg.Routines != "" {
			if err := b.local.LoadDir(cfg.Routines); err != nil {
				return nil, multierr.Append(err, b.closeStore())
			}
		}
		eng = b.local
		scfg.Ungated = true
		if scfg.Terminal == nil {
			scfg.Terminal = session.NopTerminal()
		}
	}

	b.sess = session.New(eng, scfg)
	b.driver = callin.NewDriver(b.sess, callin.Options{Charset: cs, Observers: o.observers})
	if !o.noSignals {
		b.unwatch = b.sess.WatchSignals(context.WithoutCancel(ctx))
	}

	Logger().Info("bridge opened",
		zap.String("engine", cfg.Engine),
		zap.String("charset", b.driver.Charset().Name()),
		zap.String("store", cfg.Store.Driver))
	return b, nil
}

// exportEnv sets each variable that is not already set.
func exportEnv(env map[string]string) error {
	var errs error
	for k, v := range env {
		if _, ok := os.LookupEnv(k); ok {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			errs = multierr.Append(errs, mberrors.Wrap(mberrors.PhaseConfig, mberrors.KindInvalidInput, err, "export "+k))
		}
	}
	return errs
}

// Close stops the engine and closes the global store.
func (b *Bridge) Close() error {
	if b.unwatch != nil {
		b.unwatch()
	}
	err := b.sess.Stop()
	return multierr.Append(err, b.closeStore())
}

func (b *Bridge) closeStore() error {
	if b.store == nil {
		return nil
	}
	s := b.store
	b.store = nil
	return s.Close()
}

// Start starts the engine now instead of on the first call.
func (b *Bridge) Start(ctx context.Context) error { return b.sess.EnsureLive(ctx) }

// Config returns the configuration the bridge was opened with.
func (b *Bridge) Config() *config.Config { return b.cfg }

// Session returns the engine session.
func (b *Bridge) Session() *session.Session { return b.sess }

// Driver returns the call-in driver.
func (b *Bridge) Driver() *callin.Driver { return b.driver }

// Local returns the in-process engine, or nil when running on GT.M.
func (b *Bridge) Local() *interp.Engine { return b.local }

// CallTable renders the call-in table for the configured entry routine.
func (b *Bridge) CallTable() string { return engine.CallTable(b.cfg.Entry) }

// Exec runs cmd through mexec. See callin.Driver.Exec.
func (b *Bridge) Exec(ctx context.Context, cmd string, args ...any) (callin.Result, error) {
	return b.driver.Exec(ctx, cmd, args...)
}

// Proc calls an M procedure: do name(args).
func (b *Bridge) Proc(ctx context.Context, name string, args ...any) (callin.Result, error) {
	return mcall.Proc(ctx, b.driver, name, args...)
}

// Func calls an M function and returns its value first.
func (b *Bridge) Func(ctx context.Context, name string, args ...any) (callin.Result, error) {
	return mcall.Func(ctx, b.driver, name, args...)
}

func (b *Bridge) MGet(ctx context.Context, name string) (string, error) {
	return b.driver.MGet(ctx, name)
}

func (b *Bridge) MSet(ctx context.Context, name, value string) error {
	return b.driver.MSet(ctx, name, value)
}

func (b *Bridge) MOrder(ctx context.Context, name string) (string, error) {
	return b.driver.MOrder(ctx, name)
}

func (b *Bridge) MData(ctx context.Context, name string) (int64, error) {
	return b.driver.MData(ctx, name)
}

func (b *Bridge) MKill(ctx context.Context, name string) error {
	return b.driver.MKill(ctx, name)
}

func (b *Bridge) DDWalk(ctx context.Context, fileID, fieldID string) (callin.DDEntry, error) {
	return b.driver.DDWalk(ctx, fileID, fieldID)
}

func (b *Bridge) GLWalk(ctx context.Context, ref, key string) (callin.WalkEntry, error) {
	return b.driver.GLWalk(ctx, ref, key)
}

func (b *Bridge) WPWalk(ctx context.Context, ref, key string) (callin.WalkEntry, error) {
	return b.driver.WPWalk(ctx, ref, key)
}

// TStart begins a transaction. An empty token gets a random one.
func (b *Bridge) TStart(ctx context.Context, token string) (string, error) {
	return b.driver.TStart(ctx, token)
}

func (b *Bridge) TCommit(ctx context.Context) error { return b.driver.TCommit(ctx) }

func (b *Bridge) TRollback(ctx context.Context) error { return b.driver.TRollback(ctx) }

// Global addresses a global or local node.
func (b *Bridge) Global(name string, subs ...string) globals.Node {
	return globals.New(b.driver, name, subs...)
}

// Names lists global names, and local names when withLocals is set.
func (b *Bridge) Names(ctx context.Context, withLocals bool) ([]string, error) {
	return globals.Names(ctx, b.driver, withLocals)
}

// Load sets every serialised pair.
func (b *Bridge) Load(ctx context.Context, pairs []globals.Pair) error {
	return globals.Deserialise(ctx, b.driver, pairs)
}
