package interp

import (
	"fmt"
	"strings"

	"github.com/wippyai/mbridge/engine"
	"github.com/wippyai/mbridge/store"
)

// maxDepth bounds DO and extrinsic nesting.
const maxDepth = 256

// frame is one DO, extrinsic or call-in level.
type frame struct {
	rtn   *routine
	saved []savedVar
}

type savedVar struct {
	name  string
	stash store.Stash
}

// pop restores variables hidden by NEW or formal parameters, newest first.
func (fr *frame) pop(locals *store.MemStore) {
	for i := len(fr.saved) - 1; i >= 0; i-- {
		locals.Restore(fr.saved[i].name, fr.saved[i].stash)
	}
	fr.saved = nil
}

func (fr *frame) hide(locals *store.MemStore, name string) {
	fr.saved = append(fr.saved, savedVar{name: name, stash: locals.Stash(name)})
}

// quit carries a QUIT out of a line.
type quit struct {
	value    string
	hasValue bool
}

// runLine executes commands until the line ends or a QUIT.
func (e *Engine) runLine(cmds []*command, fr *frame) (*quit, error) {
	for i, c := range cmds {
		if c.cond != nil {
			v, err := e.eval(c.cond, fr)
			if err != nil {
				return nil, err
			}
			if !truth(v) {
				continue
			}
		}

		var err error
		switch c.name {
		case "SET":
			err = e.cmdSet(c, fr)
		case "KILL":
			err = e.cmdKill(c, fr)
		case "NEW":
			err = e.cmdNew(c, fr)
		case "IF":
			if len(c.args) == 0 {
				if !e.test {
					return nil, nil
				}
				continue
			}
			for _, a := range c.args {
				v, err := e.eval(a.(expr), fr)
				if err != nil {
					return nil, err
				}
				e.test = truth(v)
				if !e.test {
					return nil, nil
				}
			}
		case "ELSE":
			if e.test {
				return nil, nil
			}
		case "QUIT":
			q := &quit{}
			if len(c.args) > 0 {
				v, err := e.eval(c.args[0].(expr), fr)
				if err != nil {
					return nil, err
				}
				q.value, q.hasValue = v, true
			}
			return q, nil
		case "DO":
			err = e.cmdDo(c, fr)
		case "XECUTE":
			err = e.cmdXecute(c, fr)
		case "WRITE":
			err = e.cmdWrite(c, fr)
		case "FOR":
			return nil, e.cmdFor(c, cmds[i+1:], fr)
		case "TSTART":
			token := ""
			if len(c.args) > 0 {
				if token, err = e.eval(c.args[0].(expr), fr); err != nil {
					return nil, err
				}
			}
			e.journal.begin(token)
		case "TCOMMIT":
			err = e.journal.commit()
		case "TROLLBACK":
			err = e.rollback()
		default:
			err = merr("INVCMD", c.name)
		}
		if err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (e *Engine) cmdSet(c *command, fr *frame) error {
	for _, a := range c.args {
		arg := a.(*setArg)
		v, err := e.eval(arg.value, fr)
		if err != nil {
			return err
		}
		for _, t := range arg.targets {
			ref, err := e.resolve(t, fr)
			if err != nil {
				return err
			}
			if err := e.set(ref, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) cmdKill(c *command, fr *frame) error {
	if len(c.args) == 0 {
		e.locals.Clear()
		return nil
	}
	for _, a := range c.args {
		ref, err := e.resolve(a.(*glvn), fr)
		if err != nil {
			return err
		}
		if err := e.kill(ref); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) cmdNew(c *command, fr *frame) error {
	if len(c.args) == 0 {
		return merr("UNIMPLOP", "argumentless NEW")
	}
	for _, a := range c.args {
		g := a.(*glvn)
		if g.indirect != nil || len(g.subs) > 0 || strings.HasPrefix(g.name, "^") {
			return merr("VAREXPECTED", "NEW needs an unsubscripted local")
		}
		fr.hide(e.locals, g.name)
	}
	return nil
}

func (e *Engine) cmdDo(c *command, fr *frame) error {
	if len(c.args) == 0 {
		return merr("UNIMPLOP", "argumentless DO")
	}
	for _, a := range c.args {
		arg := a.(*doArg)
		if arg.cond != nil {
			v, err := e.eval(arg.cond, fr)
			if err != nil {
				return err
			}
			if !truth(v) {
				continue
			}
		}
		if _, err := e.call(arg.ref, arg.args, arg.hasArgs, fr, false); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) cmdXecute(c *command, fr *frame) error {
	for _, a := range c.args {
		src, err := e.eval(a.(expr), fr)
		if err != nil {
			return err
		}
		cmds, err := parseLine(src)
		if err != nil {
			return err
		}
		if _, err := e.runLine(cmds, fr); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) cmdWrite(c *command, fr *frame) error {
	for _, a := range c.args {
		arg := a.(*writeArg)
		var err error
		switch arg.format {
		case '!':
			_, err = fmt.Fprintln(e.out)
			e.col = 0
		case '#':
			_, err = fmt.Fprint(e.out, "\f")
			e.col = 0
		case '?':
			var v string
			if v, err = e.eval(arg.x, fr); err != nil {
				return err
			}
			if pad := int(toInt(v)) - e.col; pad > 0 {
				_, err = fmt.Fprintf(e.out, "%*s", pad, "")
				e.col += pad
			}
		default:
			var v string
			if v, err = e.eval(arg.x, fr); err != nil {
				return err
			}
			_, err = fmt.Fprint(e.out, v)
			e.col += len(v)
		}
		if err != nil {
			return merr("STORE", err.Error())
		}
	}
	return nil
}

// cmdFor runs body once per loop value. A QUIT in the body ends the loop.
func (e *Engine) cmdFor(c *command, body []*command, fr *frame) error {
	run := func() (bool, error) {
		q, err := e.runLine(body, fr)
		return q != nil || err != nil, err
	}

	if len(c.args) == 0 {
		for {
			if stop, err := run(); stop {
				return err
			}
		}
	}

	arg := c.args[0].(*forArg)
	for _, item := range arg.items {
		ref, err := e.resolve(arg.v, fr)
		if err != nil {
			return err
		}
		start, err := e.eval(item.start, fr)
		if err != nil {
			return err
		}
		if item.inc == nil {
			if err := e.set(ref, start); err != nil {
				return err
			}
			if stop, err := run(); stop {
				return err
			}
			continue
		}

		inc, err := e.eval(item.inc, fr)
		if err != nil {
			return err
		}
		inc = canon(inc)
		var end string
		if item.end != nil {
			if end, err = e.eval(item.end, fr); err != nil {
				return err
			}
			end = canon(end)
		}
		step := toNum(inc).Sign()

		v := canon(start)
		for {
			if item.end != nil {
				cmp := numCompare(v, end)
				if (step >= 0 && cmp > 0) || (step < 0 && cmp < 0) {
					break
				}
			}
			if err := e.set(ref, v); err != nil {
				return err
			}
			if stop, err := run(); stop {
				return err
			}
			cur, ok, err := e.get(ref)
			if err != nil {
				return err
			}
			if !ok {
				return undefined(ref)
			}
			if v, err = arith("+", cur, inc); err != nil {
				return err
			}
		}
	}
	return nil
}

// boundArg is an actual parameter evaluated in the caller's frame.
type boundArg struct {
	value   string
	byRef   string
	snap    store.Stash
	defined bool
}

func (e *Engine) bindActuals(args []actual, fr *frame) ([]boundArg, error) {
	bound := make([]boundArg, len(args))
	for i, a := range args {
		switch {
		case a.byRef != "":
			bound[i] = boundArg{byRef: a.byRef, snap: e.locals.Snapshot(a.byRef), defined: true}
		case a.x != nil:
			v, err := e.eval(a.x, fr)
			if err != nil {
				return nil, err
			}
			bound[i] = boundArg{value: v, defined: true}
		}
	}
	return bound, nil
}

// call runs a DO or extrinsic. Extrinsics must QUIT with a value, DO must
// not.
func (e *Engine) call(ref entryRef, args []actual, hasArgs bool, fr *frame, extrinsic bool) (string, error) {
	if e.depth >= maxDepth {
		return "", merr("STACKCRIT", ref.String())
	}
	if ref.routine == "" && fr.rtn != nil {
		ref.routine = fr.rtn.name
	}

	bound, err := e.bindActuals(args, fr)
	if err != nil {
		return "", err
	}

	e.depth++
	defer func() { e.depth-- }()

	if p, ok := e.procs[ref.String()]; ok {
		return e.callProc(ref, p, bound)
	}

	rtn, ok := e.routines[ref.routine]
	if !ok {
		if ref.routine == "" {
			return "", merr("LABELMISSING", ref.String())
		}
		return "", merr("ZLINKFILE", ref.routine)
	}
	start := 0
	if ref.label != "" {
		if start, ok = rtn.labels[ref.label]; !ok {
			return "", merr("LABELMISSING", ref.String())
		}
	}
	ln := rtn.lines[start]
	if hasArgs && !ln.hasFormals {
		return "", merr("FMLLSTMISSING", ref.String())
	}
	if len(bound) > len(ln.formals) {
		return "", merr("ACTLSTTOOLONG", ref.String())
	}

	nf := &frame{rtn: rtn}
	for i, name := range ln.formals {
		nf.hide(e.locals, name)
		if i >= len(bound) || !bound[i].defined {
			continue
		}
		if bound[i].byRef != "" {
			e.locals.Restore(name, bound[i].snap)
			continue
		}
		if err := e.locals.Set(store.Ref{Name: name}, bound[i].value); err != nil {
			return "", err
		}
	}

	test := e.test
	q, runErr := e.runFrom(rtn, start, nf)

	outs := make([]store.Stash, len(bound))
	for i, b := range bound {
		if b.byRef != "" {
			outs[i] = e.locals.Snapshot(ln.formals[i])
		}
	}
	nf.pop(e.locals)
	for i, b := range bound {
		if b.byRef != "" {
			e.locals.Restore(b.byRef, outs[i])
		}
	}
	if extrinsic {
		e.test = test
	}

	if runErr != nil {
		return "", runErr
	}
	if extrinsic {
		if q == nil || !q.hasValue {
			return "", merr("QUITARGREQD")
		}
		return q.value, nil
	}
	if q != nil && q.hasValue {
		return "", merr("NOTEXTRINSIC")
	}
	return "", nil
}

// runFrom executes lines from start until a QUIT or the end of the routine.
func (e *Engine) runFrom(rtn *routine, start int, fr *frame) (*quit, error) {
	for _, ln := range rtn.lines[start:] {
		q, err := e.runLine(ln.cmds, fr)
		if err != nil || q != nil {
			return q, err
		}
	}
	return nil, nil
}

func (e *Engine) storeFor(ref store.Ref) store.Store {
	if ref.IsGlobal() {
		return e.globals
	}
	return e.locals
}

func (e *Engine) get(ref store.Ref) (string, bool, error) {
	return e.storeFor(ref).Get(ref)
}

func (e *Engine) set(ref store.Ref, v string) error {
	for _, s := range ref.Subs {
		if s == "" {
			return merr("NULSUBSC", ref.String())
		}
	}
	if len(v) >= engine.MaxValue {
		return merr("MAXSTRLEN")
	}
	if ref.IsGlobal() {
		if err := e.journal.recordSet(e.globals, ref); err != nil {
			return err
		}
	}
	return e.storeFor(ref).Set(ref, v)
}

func (e *Engine) kill(ref store.Ref) error {
	if ref.IsGlobal() {
		if err := e.journal.recordKill(e.globals, ref); err != nil {
			return err
		}
	}
	return e.storeFor(ref).Kill(ref)
}
