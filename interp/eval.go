package interp

import (
	"bytes"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/wippyai/mbridge/engine"
	"github.com/wippyai/mbridge/store"
)

func (e *Engine) eval(x expr, fr *frame) (string, error) {
	switch x := x.(type) {
	case *strLit:
		return x.v, nil
	case *numLit:
		return x.v, nil
	case *glvn:
		ref, err := e.resolve(x, fr)
		if err != nil {
			return "", err
		}
		v, ok, err := e.get(ref)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", undefined(ref)
		}
		return v, nil
	case *unaryExpr:
		v, err := e.eval(x.x, fr)
		if err != nil {
			return "", err
		}
		switch x.op {
		case '-':
			return arith("-", "0", v)
		case '+':
			return canon(v), nil
		default:
			return boolStr(!truth(v)), nil
		}
	case *binaryExpr:
		l, err := e.eval(x.l, fr)
		if err != nil {
			return "", err
		}
		r, err := e.eval(x.r, fr)
		if err != nil {
			return "", err
		}
		return binop(x.op, x.not, l, r)
	case *funcExpr:
		return e.function(x, fr)
	case *selectExpr:
		for _, arm := range x.arms {
			c, err := e.eval(arm.cond, fr)
			if err != nil {
				return "", err
			}
			if truth(c) {
				return e.eval(arm.val, fr)
			}
		}
		return "", merr("SELECTFALSE")
	case *svnExpr:
		return e.special(x.name), nil
	case *extrinsicExpr:
		return e.call(x.ref, x.args, x.hasArgs, fr, true)
	}
	return "", merr("UNIMPLOP", "expression")
}

func undefined(ref store.Ref) error {
	if ref.IsGlobal() {
		return merr("GVUNDEF", ref.String())
	}
	return merr("UNDEF", ref.String())
}

func binop(op string, not bool, a, b string) (string, error) {
	var r bool
	switch op {
	case "_":
		return a + b, nil
	case "+", "-", "*", "/", "\\", "#", "**":
		return arith(op, a, b)
	case "=":
		r = a == b
	case "<":
		r = numCompare(a, b) < 0
	case ">":
		r = numCompare(a, b) > 0
	case "[":
		r = strings.Contains(a, b)
	case "]":
		r = a > b
	case "]]":
		r = sortsAfter(a, b)
	case "&":
		r = truth(a) && truth(b)
	case "!":
		r = truth(a) || truth(b)
	default:
		return "", merr("UNIMPLOP", "operator "+op)
	}
	return boolStr(r != not), nil
}

// sortsAfter reports whether a follows b in subscript collation.
func sortsAfter(a, b string) bool {
	if a == "" {
		return false
	}
	if b == "" {
		return true
	}
	return bytes.Compare(store.EncodeKey([]string{a}), store.EncodeKey([]string{b})) > 0
}

// resolve evaluates a variable reference to a concrete name and subscripts.
func (e *Engine) resolve(g *glvn, fr *frame) (store.Ref, error) {
	var ref store.Ref
	if g.indirect != nil {
		text, err := e.eval(g.indirect, fr)
		if err != nil {
			return ref, err
		}
		inner, err := parseRefText(text)
		if err != nil {
			return ref, merr("VAREXPECTED", text)
		}
		if ref, err = e.resolve(inner, fr); err != nil {
			return ref, err
		}
	} else {
		ref.Name = g.name
	}
	for _, s := range g.subs {
		v, err := e.eval(s, fr)
		if err != nil {
			return ref, err
		}
		ref.Subs = append(ref.Subs, v)
	}
	return ref, nil
}

func (e *Engine) refArg(x expr, fr *frame) (store.Ref, error) {
	g, ok := x.(*glvn)
	if !ok {
		return store.Ref{}, merr("VAREXPECTED", "function argument")
	}
	return e.resolve(g, fr)
}

func (e *Engine) function(f *funcExpr, fr *frame) (string, error) {
	switch f.name {
	case "ORDER", "DATA", "GET", "NAME":
		return e.refFunction(f, fr)
	}

	args := make([]string, len(f.args))
	for i, a := range f.args {
		v, err := e.eval(a, fr)
		if err != nil {
			return "", err
		}
		args[i] = v
	}
	arg := func(i int, def int64) int64 {
		if i < len(args) {
			return toInt(args[i])
		}
		return def
	}

	switch f.name {
	case "LENGTH":
		if err := argc(f, 1, 2); err != nil {
			return "", err
		}
		if len(args) == 1 {
			return formatInt(int64(len(args[0]))), nil
		}
		if args[1] == "" {
			return "0", nil
		}
		return formatInt(int64(strings.Count(args[0], args[1]) + 1)), nil

	case "PIECE":
		if err := argc(f, 2, 4); err != nil {
			return "", err
		}
		return piece(args[0], args[1], arg(2, 1), arg(3, arg(2, 1))), nil

	case "EXTRACT":
		if err := argc(f, 1, 3); err != nil {
			return "", err
		}
		return extract(args[0], arg(1, 1), arg(2, arg(1, 1))), nil

	case "ASCII":
		if err := argc(f, 1, 2); err != nil {
			return "", err
		}
		n := arg(1, 1)
		if n < 1 || n > int64(len(args[0])) {
			return "-1", nil
		}
		return formatInt(int64(args[0][n-1])), nil

	case "CHAR":
		var b strings.Builder
		for _, a := range args {
			if n := toInt(a); n >= 0 && n <= 255 {
				b.WriteByte(byte(n))
			}
		}
		return b.String(), nil

	case "FIND":
		if err := argc(f, 2, 3); err != nil {
			return "", err
		}
		return formatInt(find(args[0], args[1], arg(2, 1))), nil

	case "JUSTIFY":
		if err := argc(f, 2, 3); err != nil {
			return "", err
		}
		return justify(args[0], arg(1, 0), len(args) == 3, arg(2, 0))

	case "TRANSLATE":
		if err := argc(f, 2, 3); err != nil {
			return "", err
		}
		to := ""
		if len(args) == 3 {
			to = args[2]
		}
		return translate(args[0], args[1], to), nil

	case "REVERSE":
		if err := argc(f, 1, 1); err != nil {
			return "", err
		}
		b := []byte(args[0])
		for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
		return string(b), nil

	case "RANDOM":
		if err := argc(f, 1, 1); err != nil {
			return "", err
		}
		n := toInt(args[0])
		if n < 1 {
			return "", merr("RANDARGNEG")
		}
		return formatInt(rand.Int63n(n)), nil
	}
	return "", merr("INVFCN", "$"+f.name)
}

func (e *Engine) refFunction(f *funcExpr, fr *frame) (string, error) {
	most := 1
	if f.name == "ORDER" || f.name == "GET" {
		most = 2
	}
	if err := argc(f, 1, most); err != nil {
		return "", err
	}
	ref, err := e.refArg(f.args[0], fr)
	if err != nil {
		return "", err
	}

	switch f.name {
	case "NAME":
		return ref.String(), nil
	case "DATA":
		d, err := e.storeFor(ref).Data(ref)
		return formatInt(int64(d)), err
	case "GET":
		v, ok, err := e.get(ref)
		if err != nil || ok || len(f.args) == 1 {
			return v, err
		}
		return e.eval(f.args[1], fr)
	}

	dir := 1
	if len(f.args) == 2 {
		d, err := e.eval(f.args[1], fr)
		if err != nil {
			return "", err
		}
		switch canon(d) {
		case "1":
		case "-1":
			dir = -1
		default:
			return "", merr("INVDOLLARDIR", d)
		}
	}
	return e.order(ref, dir)
}

// order is $ORDER. An unsubscripted reference steps through variable
// names: $ORDER(^%) yields the first global name.
func (e *Engine) order(ref store.Ref, dir int) (string, error) {
	if len(ref.Subs) > 0 {
		return e.storeFor(ref).Order(ref, dir)
	}
	names, err := e.storeFor(ref).Names()
	if err != nil {
		return "", err
	}
	if dir > 0 {
		for _, n := range names {
			if n > ref.Name {
				return n, nil
			}
		}
		return "", nil
	}
	for i := len(names) - 1; i >= 0; i-- {
		if names[i] < ref.Name {
			return names[i], nil
		}
	}
	return "", nil
}

func argc(f *funcExpr, lo, hi int) error {
	if len(f.args) < lo || len(f.args) > hi {
		return merr("FCNARGCNT", f.name)
	}
	return nil
}

func piece(s, delim string, from, to int64) string {
	if delim == "" {
		return ""
	}
	parts := strings.Split(s, delim)
	if from < 1 {
		from = 1
	}
	if to > int64(len(parts)) {
		to = int64(len(parts))
	}
	if from > to {
		return ""
	}
	return strings.Join(parts[from-1:to], delim)
}

func extract(s string, from, to int64) string {
	if from < 1 {
		from = 1
	}
	if to > int64(len(s)) {
		to = int64(len(s))
	}
	if from > to {
		return ""
	}
	return s[from-1 : to]
}

func find(s, sub string, start int64) int64 {
	if start < 1 {
		start = 1
	}
	if start-1 > int64(len(s)) {
		return 0
	}
	if sub == "" {
		return start
	}
	i := strings.Index(s[start-1:], sub)
	if i < 0 {
		return 0
	}
	return start + int64(i+len(sub))
}

func justify(v string, width int64, fixed bool, places int64) (string, error) {
	if width >= engine.MaxValue || places >= engine.MaxValue {
		return "", merr("MAXSTRLEN")
	}
	if fixed {
		if places < 0 {
			return "", merr("FCNARGCNT", "JUSTIFY")
		}
		c := mctx.WithPrecision(Precision + uint32(places))
		c.Rounding = apd.RoundHalfUp
		var d apd.Decimal
		if _, err := c.Quantize(&d, toNum(v), -int32(places)); err != nil {
			return "", merr("NUMOFLOW")
		}
		if d.IsZero() {
			d.Negative = false
		}
		v = d.Text('f')
	}
	if pad := width - int64(len(v)); pad > 0 {
		v = strings.Repeat(" ", int(pad)) + v
	}
	return v, nil
}

func translate(s, from, to string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		j := strings.IndexByte(from, s[i])
		switch {
		case j < 0:
			b.WriteByte(s[i])
		case j < len(to):
			b.WriteByte(to[j])
		}
	}
	return b.String()
}

var horologEpoch = time.Date(1840, 12, 31, 0, 0, 0, 0, time.UTC)

// horolog formats t as $HOROLOG: days since 31 Dec 1840, then seconds
// since midnight.
func horolog(t time.Time) string {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	days := int64(day.Sub(horologEpoch).Hours() / 24)
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return strconv.FormatInt(days, 10) + "," + strconv.Itoa(secs)
}

func (e *Engine) special(name string) string {
	switch name {
	case "TEST":
		return boolStr(e.test)
	case "HOROLOG":
		return horolog(e.now())
	case "JOB":
		return strconv.Itoa(os.Getpid())
	case "TLEVEL":
		return strconv.Itoa(e.journal.level)
	case "ZVERSION":
		return Version
	}
	return ""
}
