package session

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/mbridge/engine"
	mberrors "github.com/wippyai/mbridge/errors"
)

// DefaultMarker is the environment variable that must be set before the
// engine may start. GT.M reads its call-in table from it.
const DefaultMarker = "GTMCI"

// State is the lifecycle state of a Session.
type State int32

const (
	Uninitialized State = iota
	Live
	Terminated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Live:
		return "live"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// Config configures a Session.
type Config struct {
	// Terminal defaults to StdinTerminal.
	Terminal Terminal

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// Marker defaults to DefaultMarker.
	Marker string

	// Ungated skips the marker check, for in-process engines.
	Ungated bool
}

// Session is the process-wide handle to one engine. EnsureLive starts it
// lazily; Call serializes every foreign call.
type Session struct {
	eng    engine.Engine
	term   Terminal
	lookup func(string) (string, bool)
	marker string
	gated  bool

	mu     sync.Mutex // lifecycle transitions
	callMu sync.Mutex // foreign calls
	state  atomic.Int32
	inits  atomic.Int64
}

// New creates an uninitialized session over eng.
func New(eng engine.Engine, cfg Config) *Session {
	s := &Session{
		eng:    eng,
		term:   cfg.Terminal,
		lookup: cfg.LookupEnv,
		marker: cfg.Marker,
		gated:  !cfg.Ungated,
	}
	if s.term == nil {
		s.term = StdinTerminal()
	}
	if s.lookup == nil {
		s.lookup = os.LookupEnv
	}
	if s.marker == "" {
		s.marker = DefaultMarker
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Inits returns how many times the engine has been initialized.
func (s *Session) Inits() int64 { return s.inits.Load() }

// Allocator returns the engine's buffer allocator.
func (s *Session) Allocator() engine.Allocator { return s.eng }

// EnsureLive starts the engine on first use. It fails with
// errors.ErrNotConfigured when the marker variable is unset and with
// errors.ErrInitFailed when the engine reports a nonzero startup status;
// in both cases the session stays down. Once live it is a no-op.
func (s *Session) EnsureLive(ctx context.Context) error {
	if s.State() == Live {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == Live {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.gated {
		if _, ok := s.lookup(s.marker); !ok {
			return mberrors.NotConfigured(s.marker)
		}
	}

	if err := s.term.Save(); err != nil {
		Logger().Warn("save terminal mode", zap.Error(err))
	}

	start := time.Now()
	st := s.eng.Init()
	var msg string
	if !st.OK() {
		msg = s.eng.ZStatus()
	}
	if err := s.term.Restore(); err != nil {
		Logger().Warn("restore terminal mode", zap.Error(err))
	}
	if !st.OK() {
		s.state.Store(int32(Uninitialized))
		return mberrors.InitFailed(int32(st), msg)
	}

	s.inits.Add(1)
	s.state.Store(int32(Live))
	Logger().Debug("engine started", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Call invokes routine r on the live engine. Calls are serialized; a
// nonzero status becomes errors.ErrEngineCall carrying the engine's
// status text.
func (s *Session) Call(r engine.Routine, f *engine.Frame) error {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	if s.State() != Live {
		return mberrors.Closed("engine session")
	}

	start := time.Now()
	st := s.eng.Call(r, f)
	if !st.OK() {
		msg := s.eng.ZStatus()
		Logger().Debug("call failed",
			zap.String("routine", string(r)),
			zap.Int32("status", int32(st)),
			zap.String("zstatus", msg))
		return mberrors.EngineCall(string(r), int32(st), msg)
	}
	Logger().Debug("call",
		zap.String("routine", string(r)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Stop shuts a live engine down and restores the terminal mode last,
// whether or not the engine exited cleanly. Stopping a session that is
// not live is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != Live {
		return nil
	}
	s.state.Store(int32(Terminated))

	// wait for an in-flight call
	s.callMu.Lock()
	st := s.eng.Exit()
	s.callMu.Unlock()

	var err error
	if !st.OK() {
		err = multierr.Append(err, mberrors.New(mberrors.PhaseShutdown, mberrors.KindEngineCall).
			Status(int32(st)).
			Detail("%s", s.eng.ZStatus()).
			Build())
	}
	if rerr := s.term.Restore(); rerr != nil {
		err = multierr.Append(err, mberrors.Wrap(mberrors.PhaseShutdown, mberrors.KindInvalidData, rerr, "restore terminal mode"))
	}
	return err
}

// ExitHook stops the session at process exit. Failures are logged, as no
// caller remains to observe them.
func (s *Session) ExitHook() {
	if err := s.Stop(); err != nil {
		for _, e := range multierr.Errors(err) {
			Logger().Warn("engine shutdown", zap.Error(e))
		}
	}
}
