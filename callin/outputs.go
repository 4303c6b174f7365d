package callin

import "github.com/wippyai/mbridge/engine"

type outputEntry struct {
	kind Kind
	slot int
}

// outputTable remembers, per argument position, which slot holds an output.
// A zero kind marks an unused position.
type outputTable struct {
	entries [engine.MaxArgs]outputEntry
	count   int
}

func (t *outputTable) record(pos int, k Kind, slot int) {
	t.entries[pos] = outputEntry{kind: k, slot: slot}
	t.count++
}

func (t *outputTable) len() int { return t.count }

// each calls fn for every recorded position in ascending order.
func (t *outputTable) each(fn func(pos int, k Kind, slot int)) {
	for pos, e := range t.entries {
		if e.kind != KindInvalid {
			fn(pos, e.kind, e.slot)
		}
	}
}
