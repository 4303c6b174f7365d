package session

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// exit is replaced in tests.
var exit = os.Exit

// WatchSignals runs ExitHook and exits the process when it receives SIGINT
// or SIGTERM. Watching ends when ctx is done or stop is called.
func (s *Session) WatchSignals(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		s.watch(ctx, sigs)
	}()
	return cancel
}

func (s *Session) watch(ctx context.Context, sigs <-chan os.Signal) {
	select {
	case sig := <-sigs:
		Logger().Info("signal received, stopping engine", zap.String("signal", sig.String()))
		s.ExitHook()
		exit(1)
	case <-ctx.Done():
	}
}
