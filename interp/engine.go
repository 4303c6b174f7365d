package interp

import (
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/mbridge/engine"
	"github.com/wippyai/mbridge/store"
)

// Version is reported by $ZVERSION.
const Version = "MBridge M interpreter 1.0"

// statusNotLive is returned by Call before Init.
const statusNotLive engine.Status = 132

// Options configures an Engine.
type Options struct {
	// Globals holds ^globals. Defaults to an in-memory store.
	Globals store.Store

	// Output receives WRITE output. Defaults to io.Discard.
	Output io.Writer

	// Now supplies $HOROLOG. Defaults to time.Now.
	Now func() time.Time
}

// Engine is an in-process M engine implementing engine.Engine.
type Engine struct {
	*engine.HeapAllocator

	locals   *store.MemStore
	globals  store.Store
	out      io.Writer
	now      func() time.Time
	routines map[string]*routine
	procs    map[string]Proc
	zstatus  string
	journal  journal
	depth    int
	col      int
	test     bool
	live     bool
}

var _ engine.Engine = (*Engine)(nil)

// New creates an engine. Routines and procedures may be added before or
// after Init.
func New(opts Options) *Engine {
	e := &Engine{
		HeapAllocator: engine.NewHeapAllocator(),
		locals:        store.NewMemStore(),
		globals:       opts.Globals,
		out:           opts.Output,
		now:           opts.Now,
		routines:      make(map[string]*routine),
		procs:         make(map[string]Proc),
	}
	if e.globals == nil {
		e.globals = store.NewMemStore()
	}
	if e.out == nil {
		e.out = io.Discard
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Globals returns the global store.
func (e *Engine) Globals() store.Store { return e.globals }

func (e *Engine) Init() engine.Status {
	e.live = true
	Logger().Debug("engine init")
	return engine.StatusOK
}

// Exit rolls back any open transaction and discards locals. The global
// store stays open; its owner closes it.
func (e *Engine) Exit() engine.Status {
	if !e.live {
		return engine.StatusOK
	}
	e.live = false
	e.locals.Clear()
	if e.journal.level > 0 {
		if err := e.journal.unwind(e.globals); err != nil {
			return e.fail(engine.RoutineTRollback, err)
		}
	}
	Logger().Debug("engine exit")
	return engine.StatusOK
}

func (e *Engine) ZStatus() string { return e.zstatus }

func (e *Engine) Call(r engine.Routine, f *engine.Frame) engine.Status {
	if !e.live {
		e.zstatus = merr("NOTLIVE").Error()
		return statusNotLive
	}

	var err error
	switch r {
	case engine.RoutineMExec:
		err = e.mexec(f)
	case engine.RoutineMGet:
		err = e.mget(f)
	case engine.RoutineMSet:
		err = e.mset(f)
	case engine.RoutineMOrder:
		err = e.mord(f)
	case engine.RoutineMKill:
		err = e.withRef(f.Text(0), e.kill)
	case engine.RoutineMData:
		err = e.mdata(f)
	case engine.RoutineDDWalk:
		err = e.ddwalk(f)
	case engine.RoutineGLWalk:
		err = e.walk(f, false)
	case engine.RoutineWPWalk:
		err = e.walk(f, true)
	case engine.RoutineTStart:
		e.journal.begin(f.Text(0))
		f.SRet = f.Text(0)
	case engine.RoutineTCommit:
		err = e.journal.commit()
	case engine.RoutineTRollback:
		err = e.rollback()
	default:
		err = merr("LABELMISSING", string(r))
	}
	if err != nil {
		return e.fail(r, err)
	}
	return engine.StatusOK
}

func (e *Engine) fail(r engine.Routine, err error) engine.Status {
	st, msg := statusOf(err)
	e.zstatus = msg
	Logger().Debug("routine failed",
		zap.String("routine", string(r)),
		zap.Int32("status", int32(st)),
		zap.String("zstatus", msg))
	return st
}

// mexecNames are the locals bound to frame slots during mexec.
var mexecNames = func() []string {
	names := make([]string, 0, 3*engine.Slots+3)
	for _, prefix := range []string{"s", "l", "d"} {
		for i := 0; i < engine.Slots; i++ {
			names = append(names, prefix+strconv.Itoa(i))
		}
	}
	return append(names, "sRv", "lRv", "dRv")
}()

func local(name string) store.Ref { return store.Ref{Name: name} }

// mexec runs f.Cmd with s0..s7, l0..l7 and d0..d7 bound to the frame slots
// and copies them back afterwards. Other locals persist across calls.
func (e *Engine) mexec(f *engine.Frame) error {
	fr := &frame{}
	for _, n := range mexecNames {
		fr.hide(e.locals, n)
	}
	defer fr.pop(e.locals)

	for i := 0; i < engine.Slots; i++ {
		n := strconv.Itoa(i)
		if err := e.locals.Set(local("s"+n), f.Text(i)); err != nil {
			return err
		}
		if err := e.locals.Set(local("l"+n), formatInt(f.L[i])); err != nil {
			return err
		}
		if err := e.locals.Set(local("d"+n), formatFloat(f.D[i])); err != nil {
			return err
		}
	}

	cmds, err := parseLine(f.Cmd)
	if err != nil {
		return err
	}
	if _, err := e.runLine(cmds, fr); err != nil {
		return err
	}

	value := func(name string) string {
		v, _, _ := e.locals.Get(local(name))
		return v
	}
	for i := 0; i < engine.Slots; i++ {
		n := strconv.Itoa(i)
		if f.S[i] != nil {
			f.S[i].SetString(value("s" + n))
		}
		f.L[i] = toInt(value("l" + n))
		f.D[i] = toFloat(value("d" + n))
	}
	f.SRet = value("sRv")
	f.LRet = toInt(value("lRv"))
	f.DRet = toFloat(value("dRv"))
	return nil
}

// refText resolves text naming a variable, such as ^DD(200,.01).
func (e *Engine) refText(text string) (store.Ref, error) {
	g, err := parseRefText(text)
	if err != nil {
		return store.Ref{}, err
	}
	return e.resolve(g, &frame{})
}

func (e *Engine) withRef(text string, fn func(store.Ref) error) error {
	ref, err := e.refText(text)
	if err != nil {
		return err
	}
	return fn(ref)
}

func (e *Engine) mget(f *engine.Frame) error {
	return e.withRef(f.Text(0), func(ref store.Ref) error {
		v, _, err := e.get(ref)
		f.SRet = v
		return err
	})
}

func (e *Engine) mset(f *engine.Frame) error {
	return e.withRef(f.Text(0), func(ref store.Ref) error {
		return e.set(ref, f.Text(1))
	})
}

func (e *Engine) mord(f *engine.Frame) error {
	return e.withRef(f.Text(0), func(ref store.Ref) error {
		v, err := e.order(ref, 1)
		f.SRet = v
		return err
	})
}

func (e *Engine) mdata(f *engine.Frame) error {
	return e.withRef(f.Text(0), func(ref store.Ref) error {
		d, err := e.storeFor(ref).Data(ref)
		f.LRet = int64(d)
		return err
	})
}

func setText(f *engine.Frame, i int, v string) {
	if f.S[i] != nil {
		f.S[i].SetString(v)
	}
}

// ddwalk steps to the data dictionary field after s1 in file s0 and
// returns its zero node, title and help text. Field numbers are positive;
// the walk ends at the first non-numeric subscript.
func (e *Engine) ddwalk(f *engine.Frame) error {
	file, field := f.Text(0), f.Text(1)
	if field == "" {
		field = "0"
	}
	dd := store.Ref{Name: "^DD", Subs: []string{file, field}}
	next, err := e.globals.Order(dd, 1)
	if err != nil {
		return err
	}
	if next == "" || !store.IsCanonic(next) || toNum(next).Sign() <= 0 {
		for i := 1; i <= 4; i++ {
			setText(f, i, "")
		}
		return nil
	}

	setText(f, 1, next)
	for i, sub := range []string{"0", ".1", "3"} {
		v, _, err := e.globals.Get(store.Ref{Name: "^DD", Subs: []string{file, next, sub}})
		if err != nil {
			return err
		}
		setText(f, i+2, v)
	}
	return nil
}

// walk steps to the subscript after s1 under the reference in s0, leaving
// it in s1 with $DATA in lRv and the value in sRv. Word-processing walks
// read the line text from the (n,0) node and stop at non-numeric
// subscripts.
func (e *Engine) walk(f *engine.Frame, wp bool) error {
	base, err := e.refText(f.Text(0))
	if err != nil {
		return err
	}
	next, err := e.order(base.Child(f.Text(1)), 1)
	if err != nil {
		return err
	}
	if wp && next != "" && !store.IsCanonic(next) {
		next = ""
	}
	setText(f, 1, next)
	f.LRet, f.SRet = 0, ""
	if next == "" {
		return nil
	}

	node := base.Child(next)
	d, err := e.storeFor(node).Data(node)
	if err != nil {
		return err
	}
	f.LRet = int64(d)
	if wp {
		node = node.Child("0")
	}
	f.SRet, _, err = e.get(node)
	return err
}
