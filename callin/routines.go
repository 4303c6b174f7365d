package callin

import (
	"context"

	"github.com/google/uuid"

	"github.com/wippyai/mbridge/engine"
	mberrors "github.com/wippyai/mbridge/errors"
	"github.com/wippyai/mbridge/resource"
)

// DDEntry is one step of a data dictionary walk.
type DDEntry struct {
	FieldID string
	Info    string
	Title   string
	Help    string
}

// WalkEntry is one step of a global or word-processing walk.
type WalkEntry struct {
	Key   string
	Value string
	Data  int64
}

// invoke calls a fixed-signature routine. texts fill s0, s1, ... in order;
// every text slot the signature uses gets a buffer. read runs after the
// call and before the buffers are released.
func (d *Driver) invoke(ctx context.Context, r engine.Routine, texts []string, read func(*engine.Frame)) error {
	sig, ok := engine.SignatureOf(r)
	if !ok {
		return mberrors.NotFound(mberrors.PhaseCall, "routine", string(r))
	}

	if err := d.sess.EnsureLive(ctx); err != nil {
		return err
	}

	g := resource.NewGuard(d.sess.Allocator(), d.observers...)
	defer g.Release()

	var f engine.Frame
	for _, p := range sig.Params {
		if p.Kind != engine.SlotText {
			continue
		}
		buf, err := g.Acquire(engine.MaxValue)
		if err != nil {
			return err
		}
		if p.Index < len(texts) {
			buf.SetString(d.charset.Encode(texts[p.Index]))
		}
		f.S[p.Index] = buf
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.sess.Call(r, &f); err != nil {
		return err
	}
	if read != nil {
		read(&f)
	}
	return nil
}

func (d *Driver) text(b *engine.Buffer) string {
	if b == nil {
		return ""
	}
	return d.charset.Decode(b.Bytes())
}

// MGet returns $GET of the named variable or global node.
func (d *Driver) MGet(ctx context.Context, name string) (string, error) {
	var v string
	err := d.invoke(ctx, engine.RoutineMGet, []string{name}, func(f *engine.Frame) {
		v = d.charset.DecodeString(f.SRet)
	})
	return v, err
}

// MSet sets the named variable or global node.
func (d *Driver) MSet(ctx context.Context, name, value string) error {
	return d.invoke(ctx, engine.RoutineMSet, []string{name, value}, nil)
}

// MOrder returns $ORDER of the named node.
func (d *Driver) MOrder(ctx context.Context, name string) (string, error) {
	var v string
	err := d.invoke(ctx, engine.RoutineMOrder, []string{name}, func(f *engine.Frame) {
		v = d.charset.DecodeString(f.SRet)
	})
	return v, err
}

// MData returns $DATA of the named node: 0, 1, 10 or 11.
func (d *Driver) MData(ctx context.Context, name string) (int64, error) {
	var v int64
	err := d.invoke(ctx, engine.RoutineMData, []string{name}, func(f *engine.Frame) {
		v = f.LRet
	})
	return v, err
}

// MKill kills the named node and its descendants.
func (d *Driver) MKill(ctx context.Context, name string) error {
	return d.invoke(ctx, engine.RoutineMKill, []string{name}, nil)
}

// DDWalk returns the data dictionary field following fieldID in fileID.
func (d *Driver) DDWalk(ctx context.Context, fileID, fieldID string) (DDEntry, error) {
	var e DDEntry
	err := d.invoke(ctx, engine.RoutineDDWalk, []string{fileID, fieldID}, func(f *engine.Frame) {
		e = DDEntry{
			FieldID: d.text(f.S[1]),
			Info:    d.text(f.S[2]),
			Title:   d.text(f.S[3]),
			Help:    d.text(f.S[4]),
		}
	})
	return e, err
}

// GLWalk returns the subscript following key under the global reference ref.
func (d *Driver) GLWalk(ctx context.Context, ref, key string) (WalkEntry, error) {
	return d.walk(ctx, engine.RoutineGLWalk, ref, key)
}

// WPWalk returns the next line of the word-processing field at ref.
func (d *Driver) WPWalk(ctx context.Context, ref, key string) (WalkEntry, error) {
	return d.walk(ctx, engine.RoutineWPWalk, ref, key)
}

func (d *Driver) walk(ctx context.Context, r engine.Routine, ref, key string) (WalkEntry, error) {
	var e WalkEntry
	err := d.invoke(ctx, r, []string{ref, key}, func(f *engine.Frame) {
		e = WalkEntry{
			Key:   d.text(f.S[1]),
			Data:  f.LRet,
			Value: d.charset.DecodeString(f.SRet),
		}
	})
	return e, err
}

// TStart begins a transaction and returns its id. An empty token is
// replaced by a random one.
func (d *Driver) TStart(ctx context.Context, token string) (string, error) {
	if token == "" {
		token = uuid.NewString()
	}
	var id string
	err := d.invoke(ctx, engine.RoutineTStart, []string{token}, func(f *engine.Frame) {
		id = d.charset.DecodeString(f.SRet)
	})
	return id, err
}

// TCommit commits the current transaction.
func (d *Driver) TCommit(ctx context.Context) error {
	return d.invoke(ctx, engine.RoutineTCommit, nil, nil)
}

// TRollback rolls back the current transaction.
func (d *Driver) TRollback(ctx context.Context) error {
	return d.invoke(ctx, engine.RoutineTRollback, nil, nil)
}
