package interp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/mbridge/store"
)

type routine struct {
	labels map[string]int
	name   string
	lines  []*line
}

type line struct {
	label      string
	formals    []string
	cmds       []*command
	hasFormals bool
}

// parseRoutine parses M routine source: one line per row, an optional
// label with formal list in column one, commands after whitespace.
func parseRoutine(name, src string) (*routine, error) {
	rtn := &routine{name: name, labels: make(map[string]int)}
	for n, text := range strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n") {
		ln, err := parseRoutineLine(text)
		if err != nil {
			return nil, merr("INVOBJ", fmt.Sprintf("%s line %d: %v", name, n+1, err))
		}
		if ln.label != "" {
			if _, dup := rtn.labels[ln.label]; !dup {
				rtn.labels[ln.label] = len(rtn.lines)
			}
		}
		rtn.lines = append(rtn.lines, ln)
	}
	return rtn, nil
}

func parseRoutineLine(text string) (*line, error) {
	ln := &line{}
	if text == "" || text[0] == ';' {
		return ln, nil
	}
	p := &parser{src: text}
	if text[0] != ' ' && text[0] != '\t' {
		ln.label = p.label()
		if ln.label == "" {
			return nil, merr("LABELMISSING", text)
		}
		if p.accept('(') {
			ln.hasFormals = true
			for !p.accept(')') {
				f := p.name()
				if f == "" {
					return nil, merr("VAREXPECTED", p.rest())
				}
				ln.formals = append(ln.formals, f)
				if !p.accept(',') {
					if err := p.expect(')'); err != nil {
						return nil, err
					}
					break
				}
			}
		}
		if !p.argsEnd() && p.peek() != ';' {
			return nil, merr("SPOREOL", p.rest())
		}
	}
	cmds, err := parseLine(text[p.pos:])
	if err != nil {
		return nil, err
	}
	ln.cmds = cmds
	return ln, nil
}

// LoadRoutine compiles M source under the given routine name, replacing
// any earlier version.
func (e *Engine) LoadRoutine(name, src string) error {
	rtn, err := parseRoutine(name, src)
	if err != nil {
		return err
	}
	e.routines[name] = rtn
	Logger().Debug("routine loaded", zap.String("routine", name), zap.Int("lines", len(rtn.lines)))
	return nil
}

// LoadDir loads every .m file in dir. A leading underscore in the file
// name stands for %, so _ZOSV.m holds routine %ZOSV.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var errs error
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".m" {
			continue
		}
		src, err := os.ReadFile(filepath.Join(dir, ent.Name()))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		name := strings.TrimSuffix(ent.Name(), ".m")
		if strings.HasPrefix(name, "_") {
			name = "%" + name[1:]
		}
		errs = multierr.Append(errs, e.LoadRoutine(name, string(src)))
	}
	return errs
}

// Proc is a Go procedure callable from M as DO or $$. The returned value
// is the extrinsic result and is ignored by DO.
type Proc func(c *ProcCall) (string, error)

// Register makes p callable as name, written label^routine or label.
func (e *Engine) Register(name string, p Proc) {
	e.procs[name] = p
}

// ProcCall gives a Go procedure its arguments and the variable space.
type ProcCall struct {
	e    *Engine
	args []boundArg
}

// Len returns the number of actual parameters.
func (c *ProcCall) Len() int { return len(c.args) }

// Arg returns parameter i, or "" when it was omitted. A by-reference
// parameter yields the variable's current value.
func (c *ProcCall) Arg(i int) string {
	if i >= len(c.args) {
		return ""
	}
	a := c.args[i]
	if a.byRef == "" {
		return a.value
	}
	v, _, _ := c.e.locals.Get(store.Ref{Name: a.byRef})
	return v
}

// Defined reports whether parameter i was passed.
func (c *ProcCall) Defined(i int) bool {
	return i < len(c.args) && c.args[i].defined
}

// SetArg assigns to by-reference parameter i.
func (c *ProcCall) SetArg(i int, v string) error {
	if i >= len(c.args) || c.args[i].byRef == "" {
		return merr("VAREXPECTED", fmt.Sprintf("parameter %d is not passed by reference", i+1))
	}
	return c.e.set(store.Ref{Name: c.args[i].byRef}, v)
}

// Get reads any local or global.
func (c *ProcCall) Get(ref store.Ref) (string, bool, error) { return c.e.get(ref) }

// Set writes any local or global.
func (c *ProcCall) Set(ref store.Ref, v string) error { return c.e.set(ref, v) }

func (e *Engine) callProc(ref entryRef, p Proc, args []boundArg) (string, error) {
	v, err := p(&ProcCall{e: e, args: args})
	if err == nil {
		return v, nil
	}
	var me *mError
	if errors.As(err, &me) {
		return "", me
	}
	return "", merr("PROCFAIL", ref.String(), err)
}
