package callin

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/mbridge/engine"
	mberrors "github.com/wippyai/mbridge/errors"
	"github.com/wippyai/mbridge/resource"
)

// Session is the engine session a Driver runs against. Call must serialize
// foreign calls and translate nonzero statuses into errors.
type Session interface {
	EnsureLive(ctx context.Context) error
	Call(r engine.Routine, f *engine.Frame) error
	Allocator() engine.Allocator
}

// Options configures a Driver.
type Options struct {
	Charset   Charset
	Observers []resource.Observer
}

// Driver marshals calls into the engine's call-in routines.
type Driver struct {
	sess      Session
	charset   Charset
	observers []resource.Observer
}

// NewDriver creates a driver over sess.
func NewDriver(sess Session, opts Options) *Driver {
	return &Driver{
		sess:      sess,
		charset:   opts.Charset,
		observers: opts.Observers,
	}
}

// Charset returns the text encoding used for slot values.
func (d *Driver) Charset() Charset { return d.charset }

// readback is an output value captured before buffers are released.
type readback struct {
	kind Kind
	text string
	i    int64
	f    float64
}

// Exec runs an M command through the mexec routine. args are packed into
// the per-kind slots s0..s7, l0..l7 and d0..d7 in order; arguments wrapped
// with Out are returned in argument order. With no outputs the result is Unit.
func (d *Driver) Exec(ctx context.Context, cmd string, args ...any) (Result, error) {
	if len(args) > engine.MaxArgs {
		return Result{}, mberrors.New(mberrors.PhaseClassify, mberrors.KindInvalidInput).
			Routine(string(engine.RoutineMExec)).
			Detail("%d arguments given, at most %d accepted", len(args), engine.MaxArgs).
			Build()
	}

	if err := d.sess.EnsureLive(ctx); err != nil {
		return Result{}, err
	}

	g := resource.NewGuard(d.sess.Allocator(), d.observers...)
	defer g.Release()

	var (
		frame engine.Frame
		slots slotAllocator
		outs  outputTable
	)
	frame.Cmd = truncate(d.charset.Encode(cmd))

	for pos, arg := range args {
		v, output, err := Classify(pos, arg)
		if err != nil {
			return Result{}, err
		}
		idx, err := slots.allocate(pos, v.kind)
		if err != nil {
			return Result{}, err
		}

		switch v.kind {
		case KindInt:
			frame.L[idx] = v.i
		case KindFloat:
			frame.D[idx] = v.f
		case KindText:
			buf, err := g.Acquire(engine.MaxValue)
			if err != nil {
				if e, ok := err.(*mberrors.Error); ok {
					e.Position = pos
				}
				return Result{}, err
			}
			buf.SetString(d.charset.Encode(v.s))
			frame.S[idx] = buf
		}

		if output {
			outs.record(pos, v.kind, idx)
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	if err := d.sess.Call(engine.RoutineMExec, &frame); err != nil {
		return Result{}, err
	}
	Logger().Debug("mexec",
		zap.Int("args", len(args)),
		zap.Int("outputs", outs.len()),
		zap.Duration("elapsed", time.Since(start)))

	var captured [engine.MaxArgs]readback
	outs.each(func(pos int, k Kind, slot int) {
		rb := readback{kind: k}
		switch k {
		case KindInt:
			rb.i = frame.L[slot]
		case KindFloat:
			rb.f = frame.D[slot]
		case KindText:
			rb.text = d.charset.Decode(frame.S[slot].Bytes())
		}
		captured[pos] = rb
	})

	g.Release()

	if outs.len() == 0 {
		return Unit, nil
	}
	values := make([]Value, 0, outs.len())
	for _, rb := range captured {
		switch rb.kind {
		case KindInt:
			values = append(values, Int(rb.i))
		case KindFloat:
			values = append(values, Float(rb.f))
		case KindText:
			values = append(values, Text(rb.text))
		}
	}
	return tuple(values), nil
}

func truncate(s string) string {
	if len(s) >= engine.MaxValue {
		return s[:engine.MaxValue-1]
	}
	return s
}
