// Package session owns the process-wide engine session.
//
// A Session moves through three states:
//
//	Uninitialized ──EnsureLive──▶ Live ──Stop──▶ Terminated
//
// EnsureLive is gated on an environment variable (GTMCI by default, the
// path of the call-in table). It saves the terminal mode, starts the engine
// once, restores the mode and is a no-op while live. Stop exits the engine and restores the
// terminal mode last; it is a no-op unless live. A later EnsureLive starts
// a stopped session again.
//
// Every foreign call goes through Call, which holds one mutex for the
// duration of the call.
//
// WatchSignals stops a live session through ExitHook on SIGINT or SIGTERM
// and then exits the process.
package session
