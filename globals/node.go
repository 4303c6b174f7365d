package globals

import (
	"context"

	"github.com/wippyai/mbridge/callin"
	"github.com/wippyai/mbridge/mcall"
	"github.com/wippyai/mbridge/store"
)

// Node addresses one global or local node by name and subscripts.
type Node struct {
	x    mcall.Executor
	name string
	subs []string
}

// Item is a subscript and the value stored under it.
type Item struct {
	Key   string
	Value string
}

// New returns the node name(subs...), such as New(d, "^DIC", "B").
func New(x mcall.Executor, name string, subs ...string) Node {
	return Node{x: x, name: name, subs: append([]string(nil), subs...)}
}

// Child returns the node one or more levels below n.
func (n Node) Child(subs ...string) Node {
	all := make([]string, 0, len(n.subs)+len(subs))
	all = append(append(all, n.subs...), subs...)
	return Node{x: n.x, name: n.name, subs: all}
}

// Name returns the variable name, including the caret of a global.
func (n Node) Name() string { return n.name }

// Subs returns a copy of the subscripts.
func (n Node) Subs() []string { return append([]string(nil), n.subs...) }

// Ref returns the node in M syntax: ^DIC(9999940,0,"GL").
func (n Node) Ref() string {
	return store.Ref{Name: n.name, Subs: n.subs}.String()
}

// Value returns the node's value. An undefined node is an error.
func (n Node) Value(ctx context.Context) (string, error) {
	rv, err := n.x.Exec(ctx, "set s0=@s0", callin.Out(n.Ref()))
	if err != nil {
		return "", err
	}
	return rv.Text(0), nil
}

// SetValue stores v at the node.
func (n Node) SetValue(ctx context.Context, v string) error {
	_, err := n.x.Exec(ctx, "set @s0=s1", n.Ref(), v)
	return err
}

// Kill removes the node and its descendants.
func (n Node) Kill(ctx context.Context) error {
	_, err := n.x.Exec(ctx, "kill @s0", n.Ref())
	return err
}

// Data returns $DATA of the node: 0, 1, 10 or 11.
func (n Node) Data(ctx context.Context) (int64, error) {
	rv, err := n.x.Exec(ctx, "set l0=$data(@s0)", n.Ref(), callin.Out(0))
	if err != nil {
		return 0, err
	}
	return rv.Int(0), nil
}

// Exists reports whether the node has a value or descendants.
func (n Node) Exists(ctx context.Context) (bool, error) {
	d, err := n.Data(ctx)
	return d > 0, err
}

// HasValue reports whether the node has a value.
func (n Node) HasValue(ctx context.Context) (bool, error) {
	d, err := n.Data(ctx)
	return d%2 == 1, err
}

// HasDescendants reports whether the node has children.
func (n Node) HasDescendants(ctx context.Context) (bool, error) {
	d, err := n.Data(ctx)
	return d >= 10, err
}

// step is one $ORDER step below a node.
type step struct {
	key   string
	value string
	data  int64
}

// next returns the child after key, or an empty key at the end.
func (n Node) next(ctx context.Context, key string) (step, error) {
	rv, err := n.x.Exec(ctx,
		`set s0=$order(@s1@(s0)),l0=0,s2="" if s0'="" set l0=$data(@s1@(s0)),s2=$get(@s1@(s0))`,
		callin.Out(key), callin.Out(0), n.Ref(), callin.Out(""))
	if err != nil {
		return step{}, err
	}
	return step{key: rv.Text(0), data: rv.Int(1), value: rv.Text(2)}, nil
}

// each walks the children of n in collation order.
func (n Node) each(ctx context.Context, fn func(step) error) error {
	key := ""
	for {
		s, err := n.next(ctx, key)
		if err != nil {
			return err
		}
		if s.key == "" {
			return nil
		}
		if err := fn(s); err != nil {
			return err
		}
		key = s.key
	}
}

// Keys returns the subscripts of children that have a value.
func (n Node) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := n.each(ctx, func(s step) error {
		if s.data%2 == 1 {
			keys = append(keys, s.key)
		}
		return nil
	})
	return keys, err
}

// Items returns the children that have a value, with their values.
func (n Node) Items(ctx context.Context) ([]Item, error) {
	var items []Item
	err := n.each(ctx, func(s step) error {
		if s.data%2 == 1 {
			items = append(items, Item{Key: s.key, Value: s.value})
		}
		return nil
	})
	return items, err
}

// KeysWithDescendants returns the subscripts of children that have
// children of their own.
func (n Node) KeysWithDescendants(ctx context.Context) ([]string, error) {
	var keys []string
	err := n.each(ctx, func(s step) error {
		if s.data >= 10 {
			keys = append(keys, s.key)
		}
		return nil
	})
	return keys, err
}

// Names lists the global names in collation order, followed by local
// variable names when withLocals is set.
func Names(ctx context.Context, x mcall.Executor, withLocals bool) ([]string, error) {
	names, err := walkNames(ctx, x, "^%")
	if err != nil || !withLocals {
		return names, err
	}
	locals, err := walkNames(ctx, x, "%")
	return append(names, locals...), err
}

func walkNames(ctx context.Context, x mcall.Executor, from string) ([]string, error) {
	var names []string
	s := from
	for {
		rv, err := x.Exec(ctx, "set s0=$order(@s0)", callin.Out(s))
		if err != nil {
			return names, err
		}
		s = rv.Text(0)
		if s == "" {
			return names, nil
		}
		names = append(names, s)
	}
}
