package globals

import (
	"context"
	"encoding/json"
	"io"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/mbridge/mcall"
)

// Pair is one serialised node.
type Pair struct {
	Ref   string `yaml:"ref" json:"ref"`
	Value string `yaml:"value" json:"value"`
}

// Serialise returns every node with a value at or below n, depth first in
// collation order.
func (n Node) Serialise(ctx context.Context) ([]Pair, error) {
	var pairs []Pair
	err := n.serialise(ctx, &pairs)
	return pairs, err
}

func (n Node) serialise(ctx context.Context, out *[]Pair) error {
	d, err := n.Data(ctx)
	if err != nil {
		return err
	}
	if d%2 == 1 {
		v, err := n.Value(ctx)
		if err != nil {
			return err
		}
		*out = append(*out, Pair{Ref: n.Ref(), Value: v})
	}
	if d < 10 {
		return nil
	}
	return n.each(ctx, func(s step) error {
		child := n.Child(s.key)
		if s.data < 10 {
			*out = append(*out, Pair{Ref: child.Ref(), Value: s.value})
			return nil
		}
		return child.serialise(ctx, out)
	})
}

// Deserialise sets every pair. The references are evaluated as M text, so
// subscripts may be any literal.
func Deserialise(ctx context.Context, x mcall.Executor, pairs []Pair) error {
	for _, p := range pairs {
		if _, err := x.Exec(ctx, "set @s0=s1", p.Ref, p.Value); err != nil {
			return err
		}
	}
	Logger().Debug("deserialised", zap.Int("pairs", len(pairs)))
	return nil
}

// ReadPairs decodes a YAML (or JSON) list of pairs.
func ReadPairs(r io.Reader) ([]Pair, error) {
	var pairs []Pair
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&pairs); err != nil && err != io.EOF {
		return nil, err
	}
	return pairs, nil
}

// Tree renders the subtree at n as nested maps: "value" holds the node's
// value when it has one and "children" maps subscripts to subtrees.
func (n Node) Tree(ctx context.Context) (map[string]any, error) {
	tree := map[string]any{}
	d, err := n.Data(ctx)
	if err != nil {
		return nil, err
	}
	if d%2 == 1 {
		v, err := n.Value(ctx)
		if err != nil {
			return nil, err
		}
		tree["value"] = v
	}
	if d < 10 {
		return tree, nil
	}

	children := map[string]any{}
	err = n.each(ctx, func(s step) error {
		if s.data < 10 {
			children[s.key] = map[string]any{"value": s.value}
			return nil
		}
		sub, err := n.Child(s.key).Tree(ctx)
		if err != nil {
			return err
		}
		children[s.key] = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	tree["children"] = children
	return tree, nil
}

// DumpJSON writes Tree as indented JSON.
func (n Node) DumpJSON(ctx context.Context, w io.Writer) error {
	tree, err := n.Tree(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tree)
}
