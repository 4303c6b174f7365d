package interp

import (
	"github.com/wippyai/mbridge/store"
)

// node is one global value captured for undo.
type node struct {
	ref   store.Ref
	value string
}

// undo restores global state changed by one SET or KILL.
type undo struct {
	ref     store.Ref
	old     string
	nodes   []node
	existed bool
	kill    bool
}

// journal records global changes made inside a transaction so TROLLBACK
// can unwind them. Locals are not journaled.
type journal struct {
	token   string
	entries []undo
	level   int
}

func (j *journal) begin(token string) {
	if j.level == 0 {
		j.token = token
	}
	j.level++
}

func (j *journal) commit() error {
	if j.level == 0 {
		return merr("TLVLZERO")
	}
	j.level--
	if j.level == 0 {
		j.reset()
	}
	return nil
}

func (j *journal) reset() {
	j.entries = nil
	j.token = ""
	j.level = 0
}

func (j *journal) recordSet(st store.Store, ref store.Ref) error {
	if j.level == 0 {
		return nil
	}
	old, ok, err := st.Get(ref)
	if err != nil {
		return err
	}
	j.entries = append(j.entries, undo{ref: ref, old: old, existed: ok})
	return nil
}

func (j *journal) recordKill(st store.Store, ref store.Ref) error {
	if j.level == 0 {
		return nil
	}
	var nodes []node
	if err := collect(st, ref, &nodes); err != nil {
		return err
	}
	j.entries = append(j.entries, undo{ref: ref, nodes: nodes, kill: true})
	return nil
}

// unwind reverts every recorded change, newest first.
func (j *journal) unwind(st store.Store) error {
	for i := len(j.entries) - 1; i >= 0; i-- {
		u := j.entries[i]
		var err error
		switch {
		case u.kill:
			for _, n := range u.nodes {
				if err = st.Set(n.ref, n.value); err != nil {
					break
				}
			}
		case u.existed:
			err = st.Set(u.ref, u.old)
		default:
			err = st.Unset(u.ref)
		}
		if err != nil {
			return err
		}
	}
	j.reset()
	return nil
}

// collect appends every defined node at or below ref.
func collect(st store.Store, ref store.Ref, out *[]node) error {
	v, ok, err := st.Get(ref)
	if err != nil {
		return err
	}
	if ok {
		*out = append(*out, node{ref: ref, value: v})
	}
	if len(ref.Subs) == 0 {
		return collectChildren(st, ref, out)
	}
	d, err := st.Data(ref)
	if err != nil || d < store.DataChildren {
		return err
	}
	return collectChildren(st, ref, out)
}

func collectChildren(st store.Store, ref store.Ref, out *[]node) error {
	sub := ""
	for {
		next, err := st.Order(ref.Child(sub), 1)
		if err != nil {
			return err
		}
		if next == "" {
			return nil
		}
		if err := collect(st, ref.Child(next), out); err != nil {
			return err
		}
		sub = next
	}
}

func (e *Engine) rollback() error {
	if e.journal.level == 0 {
		return merr("TLVLZERO")
	}
	return e.journal.unwind(e.globals)
}
