//go:build !gtm || !cgo

package engine

import "errors"

// ErrGTMUnavailable is returned by NewGTM when the binary was built without
// the gtm tag or without cgo.
var ErrGTMUnavailable = errors.New("GT.M engine not compiled in (build with -tags gtm and cgo enabled)")

// NewGTM reports that the GT.M engine is unavailable in this build.
func NewGTM() (Engine, error) {
	return nil, ErrGTMUnavailable
}
