//go:build !gtm || !cgo

package mbridge

import (
	"context"
	"errors"
	"testing"

	"github.com/wippyai/mbridge/config"
	"github.com/wippyai/mbridge/engine"
)

func TestOpen_GTMUnavailable(t *testing.T) {
	cfg := config.Default()
	cfg.Engine = config.EngineGTM

	_, err := Open(context.Background(), cfg)
	if !errors.Is(err, engine.ErrGTMUnavailable) {
		t.Errorf("err = %v, want ErrGTMUnavailable", err)
	}
}
