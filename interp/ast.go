package interp

// Expression nodes.
type (
	expr interface{ exprNode() }

	strLit struct{ v string }

	numLit struct{ v string }

	// glvn is a local or global variable reference. With indirect set, the
	// name and leading subscripts come from evaluating it.
	glvn struct {
		indirect expr
		name     string
		subs     []expr
	}

	unaryExpr struct {
		x  expr
		op byte
	}

	binaryExpr struct {
		l, r expr
		op   string
		not  bool
	}

	funcExpr struct {
		name string
		args []expr
	}

	selectExpr struct {
		arms []selectArm
	}

	svnExpr struct{ name string }

	extrinsicExpr struct {
		ref     entryRef
		args    []actual
		hasArgs bool
	}
)

func (*strLit) exprNode()        {}
func (*numLit) exprNode()        {}
func (*glvn) exprNode()          {}
func (*unaryExpr) exprNode()     {}
func (*binaryExpr) exprNode()    {}
func (*funcExpr) exprNode()      {}
func (*selectExpr) exprNode()    {}
func (*svnExpr) exprNode()       {}
func (*extrinsicExpr) exprNode() {}

type selectArm struct {
	cond, val expr
}

// entryRef names a label and routine; either may be empty.
type entryRef struct {
	label   string
	routine string
}

func (r entryRef) String() string {
	if r.routine == "" {
		return r.label
	}
	return r.label + "^" + r.routine
}

// actual is one actual parameter: a value, a by-reference name, or empty.
type actual struct {
	x     expr
	byRef string
}

// Commands.
type command struct {
	cond expr
	args []any
	name string
}

type setArg struct {
	value   expr
	targets []*glvn
}

type doArg struct {
	cond    expr
	args    []actual
	ref     entryRef
	hasArgs bool
}

type forArg struct {
	v     *glvn
	items []forItem
}

// forItem is start, start:inc or start:inc:end.
type forItem struct {
	start, inc, end expr
}

type writeArg struct {
	x      expr
	format byte // '!', '#', '?' or 0 for an expression
}
