package interp

import (
	"strings"
)

// commandNames maps accepted spellings to canonical command names.
var commandNames = map[string]string{}

func init() {
	for full, abbr := range map[string]string{
		"SET": "S", "KILL": "K", "NEW": "N", "IF": "I", "ELSE": "E",
		"QUIT": "Q", "DO": "D", "XECUTE": "X", "WRITE": "W", "FOR": "F",
		"TSTART": "TS", "TCOMMIT": "TC", "TROLLBACK": "TRO",
	} {
		commandNames[full] = full
		commandNames[abbr] = full
	}
}

// functionNames maps accepted spellings to canonical intrinsic names.
var functionNames = map[string]string{}

func init() {
	for full, abbr := range map[string]string{
		"ORDER": "O", "DATA": "D", "GET": "G", "LENGTH": "L", "PIECE": "P",
		"EXTRACT": "E", "ASCII": "A", "CHAR": "C", "SELECT": "S", "FIND": "F",
		"JUSTIFY": "J", "TRANSLATE": "TR", "REVERSE": "RE", "RANDOM": "R",
		"NAME": "NA",
	} {
		functionNames[full] = full
		functionNames[abbr] = full
	}
}

var svnNames = map[string]string{
	"T": "TEST", "TEST": "TEST",
	"H": "HOROLOG", "HOROLOG": "HOROLOG",
	"J": "JOB", "JOB": "JOB",
	"TL": "TLEVEL", "TLEVEL": "TLEVEL",
	"ZV": "ZVERSION", "ZVERSION": "ZVERSION",
}

type parser struct {
	src string
	pos int
}

// parseLine parses one line of commands.
func parseLine(src string) ([]*command, error) {
	p := &parser{src: src}
	var cmds []*command
	for {
		p.skipSpaces()
		if p.eof() || p.peek() == ';' {
			return cmds, nil
		}
		cmd, err := p.command()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
}

// parseRefText parses text naming a variable, as used by indirection.
func parseRefText(src string) (*glvn, error) {
	p := &parser{src: strings.TrimSpace(src)}
	g, err := p.glvn()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, merr("VAREXPECTED", src)
	}
	return g, nil
}

func (p *parser) eof() bool  { return p.pos >= len(p.src) }
func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) peekAt(off int) byte {
	if p.pos+off < len(p.src) {
		return p.src[p.pos+off]
	}
	return 0
}

func (p *parser) accept(c byte) bool {
	if !p.eof() && p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(c byte) error {
	if p.accept(c) {
		return nil
	}
	if c == ')' {
		return merr("RPARENMISSING", p.rest())
	}
	return merr("EXPR", p.rest())
}

func (p *parser) rest() string {
	if p.eof() {
		return "<end of line>"
	}
	return p.src[p.pos:]
}

func (p *parser) skipSpaces() {
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t') {
		p.pos++
	}
}

func (p *parser) word() string {
	start := p.pos
	for !p.eof() && isAlpha(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// name reads an M name: % or a letter, then letters and digits.
func (p *parser) name() string {
	start := p.pos
	if !p.eof() && (p.peek() == '%' || isAlpha(p.peek())) {
		p.pos++
		for !p.eof() && (isAlpha(p.peek()) || isDigit(p.peek())) {
			p.pos++
		}
	}
	return p.src[start:p.pos]
}

// label reads a name or a numeric label.
func (p *parser) label() string {
	if !p.eof() && isDigit(p.peek()) {
		start := p.pos
		for !p.eof() && isDigit(p.peek()) {
			p.pos++
		}
		return p.src[start:p.pos]
	}
	return p.name()
}

// argsEnd reports whether the argument list of a command has ended.
func (p *parser) argsEnd() bool {
	return p.eof() || p.peek() == ' ' || p.peek() == '\t'
}

func (p *parser) command() (*command, error) {
	w := p.word()
	name, ok := commandNames[strings.ToUpper(w)]
	if !ok {
		if w == "" {
			w = p.rest()
		}
		return nil, merr("INVCMD", w)
	}
	cmd := &command{name: name}

	if p.accept(':') {
		cond, err := p.expr()
		if err != nil {
			return nil, err
		}
		cmd.cond = cond
	}

	if p.eof() {
		return cmd, nil
	}
	if !p.accept(' ') {
		return nil, merr("SPOREOL", p.rest())
	}
	if p.eof() || p.peek() == ' ' || p.peek() == ';' {
		return cmd, nil
	}

	for {
		arg, err := p.commandArg(cmd.name)
		if err != nil {
			return nil, err
		}
		cmd.args = append(cmd.args, arg)
		if cmd.name == "FOR" || !p.accept(',') {
			break
		}
	}
	if !p.argsEnd() {
		return nil, merr("SPOREOL", p.rest())
	}
	return cmd, nil
}

func (p *parser) commandArg(cmd string) (any, error) {
	switch cmd {
	case "SET":
		return p.setArg()
	case "KILL", "NEW":
		return p.glvn()
	case "DO":
		return p.doArg()
	case "FOR":
		return p.forArg()
	case "WRITE":
		return p.writeArg()
	case "TSTART":
		// TSTART () and TSTART *: no restartable locals here
		if p.accept('*') {
			return &strLit{}, nil
		}
		if strings.HasPrefix(p.src[p.pos:], "()") {
			p.pos += 2
			return &strLit{}, nil
		}
		return p.expr()
	}
	return p.expr()
}

func (p *parser) setArg() (*setArg, error) {
	arg := &setArg{}
	if p.accept('(') {
		for {
			g, err := p.glvn()
			if err != nil {
				return nil, err
			}
			arg.targets = append(arg.targets, g)
			if !p.accept(',') {
				break
			}
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
	} else {
		g, err := p.glvn()
		if err != nil {
			return nil, err
		}
		arg.targets = []*glvn{g}
	}
	if err := p.expect('='); err != nil {
		return nil, err
	}
	v, err := p.expr()
	if err != nil {
		return nil, err
	}
	arg.value = v
	return arg, nil
}

func (p *parser) entryRef() (entryRef, error) {
	var ref entryRef
	ref.label = p.label()
	if p.accept('^') {
		ref.routine = p.name()
		if ref.routine == "" {
			return ref, merr("EXPR", p.rest())
		}
	}
	if ref.label == "" && ref.routine == "" {
		return ref, merr("LABELMISSING", p.rest())
	}
	return ref, nil
}

func (p *parser) actuals() ([]actual, error) {
	var args []actual
	if p.accept(')') {
		return args, nil
	}
	for {
		var a actual
		switch {
		case !p.eof() && (p.peek() == ',' || p.peek() == ')'):
			// empty actual
		case p.accept('.'):
			if !p.eof() && isDigit(p.peek()) {
				// a number literal such as .5
				p.pos--
				x, err := p.expr()
				if err != nil {
					return nil, err
				}
				a.x = x
				break
			}
			a.byRef = p.name()
			if a.byRef == "" {
				return nil, merr("VAREXPECTED", p.rest())
			}
		default:
			x, err := p.expr()
			if err != nil {
				return nil, err
			}
			a.x = x
		}
		args = append(args, a)
		if p.accept(',') {
			continue
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *parser) doArg() (*doArg, error) {
	ref, err := p.entryRef()
	if err != nil {
		return nil, err
	}
	arg := &doArg{ref: ref}
	if p.accept('(') {
		arg.hasArgs = true
		if arg.args, err = p.actuals(); err != nil {
			return nil, err
		}
	}
	if p.accept(':') {
		if arg.cond, err = p.expr(); err != nil {
			return nil, err
		}
	}
	return arg, nil
}

func (p *parser) forArg() (*forArg, error) {
	g, err := p.glvn()
	if err != nil {
		return nil, err
	}
	if g.indirect == nil && strings.HasPrefix(g.name, "^") {
		return nil, merr("VAREXPECTED", g.name)
	}
	if err := p.expect('='); err != nil {
		return nil, err
	}
	arg := &forArg{v: g}
	for {
		var item forItem
		if item.start, err = p.expr(); err != nil {
			return nil, err
		}
		if p.accept(':') {
			if item.inc, err = p.expr(); err != nil {
				return nil, err
			}
			if p.accept(':') {
				if item.end, err = p.expr(); err != nil {
					return nil, err
				}
			}
		}
		arg.items = append(arg.items, item)
		if !p.accept(',') {
			return arg, nil
		}
	}
}

func (p *parser) writeArg() (*writeArg, error) {
	if p.eof() {
		return nil, merr("EXPR", p.rest())
	}
	switch c := p.peek(); c {
	case '!', '#':
		p.pos++
		return &writeArg{format: c}, nil
	case '?':
		p.pos++
		x, err := p.atom()
		if err != nil {
			return nil, err
		}
		return &writeArg{format: '?', x: x}, nil
	}
	x, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &writeArg{x: x}, nil
}

// expr parses a chain of binary operators, evaluated strictly left to right.
func (p *parser) expr() (expr, error) {
	l, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		op, not, ok := p.binaryOp()
		if !ok {
			return l, nil
		}
		r, err := p.atom()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: op, not: not, l: l, r: r}
	}
}

func (p *parser) binaryOp() (string, bool, bool) {
	if p.eof() {
		return "", false, false
	}
	start := p.pos
	not := false
	if p.peek() == '\'' {
		not = true
		p.pos++
		if p.eof() {
			p.pos = start
			return "", false, false
		}
	}
	for _, op := range []string{"**", "]]", "<=", ">=", "*", "+", "-", "/", "\\", "#", "_", "=", "<", ">", "[", "]", "&", "!", "?"} {
		if !strings.HasPrefix(p.src[p.pos:], op) {
			continue
		}
		if not {
			switch op {
			case "=", "<", ">", "[", "]", "]]", "&", "!", "?":
			default:
				p.pos = start
				return "", false, false
			}
		}
		p.pos += len(op)
		switch op {
		case "<=":
			return ">", !not, true
		case ">=":
			return "<", !not, true
		}
		return op, not, true
	}
	p.pos = start
	return "", false, false
}

func (p *parser) atom() (expr, error) {
	if p.eof() {
		return nil, merr("EXPR", p.rest())
	}
	c := p.peek()
	switch {
	case c == '"':
		return p.stringLit()
	case isDigit(c) || (c == '.' && isDigit(p.peekAt(1))):
		return p.numberLit(), nil
	case c == '(':
		p.pos++
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return x, nil
	case c == '-' || c == '+' || c == '\'':
		p.pos++
		x, err := p.atom()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: c, x: x}, nil
	case c == '$':
		return p.dollar()
	case c == '@' || c == '^' || c == '%' || isAlpha(c):
		return p.glvn()
	}
	return nil, merr("EXPR", p.rest())
}

func (p *parser) stringLit() (expr, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for !p.eof() {
		c := p.peek()
		p.pos++
		if c != '"' {
			b.WriteByte(c)
			continue
		}
		if p.accept('"') {
			b.WriteByte('"')
			continue
		}
		return &strLit{v: b.String()}, nil
	}
	return nil, merr("STRUNXEOL", p.src)
}

func (p *parser) numberLit() expr {
	start := p.pos
	for !p.eof() && isDigit(p.peek()) {
		p.pos++
	}
	if !p.eof() && p.peek() == '.' && isDigit(p.peekAt(1)) {
		p.pos++
		for !p.eof() && isDigit(p.peek()) {
			p.pos++
		}
	}
	if !p.eof() && p.peek() == 'E' {
		save := p.pos
		p.pos++
		if !p.eof() && (p.peek() == '+' || p.peek() == '-') {
			p.pos++
		}
		if !p.eof() && isDigit(p.peek()) {
			for !p.eof() && isDigit(p.peek()) {
				p.pos++
			}
		} else {
			p.pos = save
		}
	}
	return &numLit{v: canon(p.src[start:p.pos])}
}

func (p *parser) dollar() (expr, error) {
	p.pos++ // $
	if p.accept('$') {
		ref, err := p.entryRef()
		if err != nil {
			return nil, err
		}
		x := &extrinsicExpr{ref: ref}
		if p.accept('(') {
			x.hasArgs = true
			if x.args, err = p.actuals(); err != nil {
				return nil, err
			}
		}
		return x, nil
	}

	w := p.word()
	if w == "" {
		return nil, merr("EXPR", p.rest())
	}
	upper := strings.ToUpper(w)
	if !p.accept('(') {
		name, ok := svnNames[upper]
		if !ok {
			return nil, merr("INVSVN", "$"+w)
		}
		return &svnExpr{name: name}, nil
	}

	name, ok := functionNames[upper]
	if !ok {
		return nil, merr("INVFCN", "$"+w)
	}
	if name == "SELECT" {
		return p.selectArgs()
	}
	fn := &funcExpr{name: name}
	for {
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		fn.args = append(fn.args, x)
		if !p.accept(',') {
			break
		}
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return fn, nil
}

func (p *parser) selectArgs() (expr, error) {
	sel := &selectExpr{}
	for {
		cond, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		val, err := p.expr()
		if err != nil {
			return nil, err
		}
		sel.arms = append(sel.arms, selectArm{cond: cond, val: val})
		if !p.accept(',') {
			break
		}
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return sel, nil
}

// glvn parses name, ^name or @atom, each optionally subscripted. The
// subscripts of an indirect reference follow a second @: @X@(1).
func (p *parser) glvn() (*glvn, error) {
	g := &glvn{}
	if p.accept('@') {
		x, err := p.atom()
		if err != nil {
			return nil, err
		}
		g.indirect = x
		if p.peekAt(0) != '@' || p.peekAt(1) != '(' {
			return g, nil
		}
		p.pos++
	} else {
		global := p.accept('^')
		g.name = p.name()
		if g.name == "" {
			return nil, merr("VAREXPECTED", p.rest())
		}
		if global {
			g.name = "^" + g.name
		}
	}

	if !p.accept('(') {
		return g, nil
	}
	for {
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		g.subs = append(g.subs, x)
		if !p.accept(',') {
			break
		}
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return g, nil
}

func isAlpha(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }
