package callin

import (
	"github.com/wippyai/mbridge/engine"
	mberrors "github.com/wippyai/mbridge/errors"
)

// slotAllocator hands out kind-local slot indices in argument order.
type slotAllocator struct {
	next [KindText + 1]int
}

func (a *slotAllocator) allocate(pos int, k Kind) (int, error) {
	if a.next[k] == engine.Slots {
		return 0, mberrors.CapacityExceeded(pos, k.String(), engine.Slots)
	}
	idx := a.next[k]
	a.next[k]++
	return idx, nil
}

// used returns how many slots of kind k were handed out.
func (a *slotAllocator) used(k Kind) int { return a.next[k] }
