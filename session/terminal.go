package session

import (
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/term"
)

// Terminal saves and restores the terminal mode around the engine's
// lifetime. The engine reconfigures the controlling terminal while live.
type Terminal interface {
	Save() error
	Restore() error
}

var stdinIsTerminal int32 = -1 // -1 = unchecked, 0 = no, 1 = yes

func isTerminal(fd int, cached *int32) bool {
	if v := atomic.LoadInt32(cached); v >= 0 {
		return v == 1
	}
	result := term.IsTerminal(fd)
	if result {
		atomic.StoreInt32(cached, 1)
	} else {
		atomic.StoreInt32(cached, 0)
	}
	return result
}

// ttyMode saves the mode of one file descriptor. Both operations are
// no-ops when the descriptor is not a terminal.
type ttyMode struct {
	saved *term.State
	fd    int
	mu    sync.Mutex
}

// StdinTerminal returns the Terminal for standard input.
func StdinTerminal() Terminal {
	return &ttyMode{fd: int(os.Stdin.Fd())}
}

func (m *ttyMode) Save() error {
	if !isTerminal(m.fd, &stdinIsTerminal) {
		return nil
	}
	st, err := term.GetState(m.fd)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.saved = st
	m.mu.Unlock()
	return nil
}

// Restore keeps the saved state, so the mode can be restored again at
// shutdown.
func (m *ttyMode) Restore() error {
	m.mu.Lock()
	st := m.saved
	m.mu.Unlock()
	if st == nil {
		return nil
	}
	return term.Restore(m.fd, st)
}

type nopTerminal struct{}

func (nopTerminal) Save() error    { return nil }
func (nopTerminal) Restore() error { return nil }

// NopTerminal returns a Terminal that does nothing.
func NopTerminal() Terminal { return nopTerminal{} }
