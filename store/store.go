package store

import (
	mberrors "github.com/wippyai/mbridge/errors"
)

// Store holds one namespace of M variables: the process's locals or the
// persistent ^globals. Keys are collation-encoded subscript lists.
type Store interface {
	// Get returns the value at ref and whether it is defined.
	Get(ref Ref) (string, bool, error)

	// Set stores value at ref.
	Set(ref Ref, value string) error

	// Kill removes ref and all its descendants.
	Kill(ref Ref) error

	// Unset removes the value at ref and leaves descendants in place.
	Unset(ref Ref) error

	// Data returns $DATA: 1 if ref has a value, plus 10 if it has descendants.
	Data(ref Ref) (int, error)

	// Order returns the sibling subscript after (dir 1) or before (dir -1)
	// the last subscript of ref, or "" when there is none. An empty last
	// subscript starts from the edge.
	Order(ref Ref, dir int) (string, error)

	// Names returns the defined variable names in collation order.
	Names() ([]string, error)

	// Close releases the store.
	Close() error
}

// Data values.
const (
	DataNone       = 0
	DataValue      = 1
	DataChildren   = 10
	DataValueChild = 11
)

func checkOrder(ref Ref, dir int) error {
	if len(ref.Subs) == 0 {
		return mberrors.New(mberrors.PhaseStore, mberrors.KindInvalidInput).
			Detail("$ORDER of %s needs a subscript", ref.Name).
			Build()
	}
	if dir != 1 && dir != -1 {
		return mberrors.New(mberrors.PhaseStore, mberrors.KindInvalidInput).
			Detail("$ORDER direction %d, want 1 or -1", dir).
			Build()
	}
	return nil
}

// orderBounds computes the scan window for Order: the parent prefix and,
// for the seed subscript, the key to search from.
func orderBounds(ref Ref) (prefix, seed []byte, fromEdge bool) {
	prefix = EncodeKey(ref.Parent().Subs)
	last := ref.Last()
	if last == "" {
		return prefix, nil, true
	}
	return prefix, appendSubscript(append([]byte(nil), prefix...), last), false
}
