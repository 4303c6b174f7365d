package engine

import "fmt"

const (
	// Slots is the number of parameter slots per scalar kind.
	Slots = 8

	// MaxArgs is the number of positional arguments mexec accepts.
	MaxArgs = 3 * Slots

	// MaxValue is the size of a text buffer, including the terminating NUL.
	MaxValue = 1 << 20

	// MaxMessage bounds the length of a status message.
	MaxMessage = 2048
)

// Status is the integer status returned by every call-in routine.
// Zero is success.
type Status int32

// StatusOK is the success status.
const StatusOK Status = 0

// OK reports whether s is the success status.
func (s Status) OK() bool { return s == StatusOK }

// Routine names a fixed call-in entry point.
type Routine string

const (
	RoutineMExec     Routine = "mexec"
	RoutineMGet      Routine = "mget"
	RoutineMSet      Routine = "mset"
	RoutineMOrder    Routine = "mord"
	RoutineMKill     Routine = "mkill"
	RoutineMData     Routine = "mdata"
	RoutineDDWalk    Routine = "ddwalk"
	RoutineGLWalk    Routine = "glwalk"
	RoutineWPWalk    Routine = "wpwalk"
	RoutineTStart    Routine = "tstart"
	RoutineTCommit   Routine = "tcommit"
	RoutineTRollback Routine = "trollback"
)

// Routines lists every call-in routine in call-in table order.
func Routines() []Routine {
	return []Routine{
		RoutineMExec, RoutineMGet, RoutineMSet, RoutineMOrder, RoutineMKill, RoutineMData,
		RoutineDDWalk, RoutineGLWalk, RoutineWPWalk,
		RoutineTStart, RoutineTCommit, RoutineTRollback,
	}
}

// SlotKind identifies one of the frame's slot arrays.
type SlotKind uint8

const (
	SlotCommand SlotKind = iota + 1
	SlotText
	SlotInt
	SlotFloat
	SlotTextRet
	SlotIntRet
	SlotFloatRet
)

// Letter returns the single-letter M variable prefix for the slot kind.
func (k SlotKind) Letter() string {
	switch k {
	case SlotText:
		return "s"
	case SlotInt:
		return "l"
	case SlotFloat:
		return "d"
	case SlotTextRet:
		return "sRv"
	case SlotIntRet:
		return "lRv"
	case SlotFloatRet:
		return "dRv"
	case SlotCommand:
		return "cmd"
	default:
		return "?"
	}
}

// Dir is the direction of a call-in parameter.
type Dir uint8

const (
	In Dir = iota + 1
	InOut
	Out
)

func (d Dir) String() string {
	switch d {
	case In:
		return "I"
	case InOut:
		return "IO"
	case Out:
		return "O"
	default:
		return "?"
	}
}

// Param is one positional parameter of a routine's native signature.
type Param struct {
	Kind  SlotKind
	Index int
	Dir   Dir
}

// Name returns the M formal parameter name (s0, l3, sRv, ...).
func (p Param) Name() string {
	switch p.Kind {
	case SlotText, SlotInt, SlotFloat:
		return fmt.Sprintf("%s%d", p.Kind.Letter(), p.Index)
	default:
		return p.Kind.Letter()
	}
}

// Signature is the positionally fixed parameter list of a routine.
type Signature struct {
	Routine Routine
	Params  []Param
}

// Uses reports whether the signature carries the given text slot and its direction.
func (s Signature) Uses(kind SlotKind, index int) (Dir, bool) {
	for _, p := range s.Params {
		if p.Kind == kind && p.Index == index {
			return p.Dir, true
		}
	}
	return 0, false
}

var signatures = map[Routine]Signature{}

func init() {
	mexec := []Param{{Kind: SlotCommand, Dir: In}}
	for _, kind := range []SlotKind{SlotText, SlotInt, SlotFloat} {
		for i := 0; i < Slots; i++ {
			mexec = append(mexec, Param{Kind: kind, Index: i, Dir: InOut})
		}
	}
	mexec = append(mexec,
		Param{Kind: SlotTextRet, Dir: Out},
		Param{Kind: SlotIntRet, Dir: Out},
		Param{Kind: SlotFloatRet, Dir: Out},
	)

	in := func(i int) Param { return Param{Kind: SlotText, Index: i, Dir: In} }
	walk := []Param{
		in(0),
		{Kind: SlotText, Index: 1, Dir: InOut},
		{Kind: SlotIntRet, Dir: Out},
		{Kind: SlotTextRet, Dir: Out},
	}

	for _, s := range []Signature{
		{RoutineMExec, mexec},
		{RoutineMGet, []Param{in(0), {Kind: SlotTextRet, Dir: Out}}},
		{RoutineMSet, []Param{in(0), in(1)}},
		{RoutineMOrder, []Param{in(0), {Kind: SlotTextRet, Dir: Out}}},
		{RoutineMKill, []Param{in(0)}},
		{RoutineMData, []Param{in(0), {Kind: SlotIntRet, Dir: Out}}},
		{RoutineDDWalk, []Param{
			in(0),
			{Kind: SlotText, Index: 1, Dir: InOut},
			{Kind: SlotText, Index: 2, Dir: Out},
			{Kind: SlotText, Index: 3, Dir: Out},
			{Kind: SlotText, Index: 4, Dir: Out},
		}},
		{RoutineGLWalk, walk},
		{RoutineWPWalk, walk},
		{RoutineTStart, []Param{in(0), {Kind: SlotTextRet, Dir: Out}}},
		{RoutineTCommit, nil},
		{RoutineTRollback, nil},
	} {
		signatures[s.Routine] = s
	}
}

// SignatureOf returns the fixed signature of r.
func SignatureOf(r Routine) (Signature, bool) {
	s, ok := signatures[r]
	return s, ok
}

// Frame holds every slot passed by reference to one call-in routine.
// Nil text slots are passed to the engine as the empty string.
type Frame struct {
	Cmd  string
	S    [Slots]*Buffer
	L    [Slots]int64
	D    [Slots]float64
	SRet string
	LRet int64
	DRet float64
}

// Text returns the current content of text slot i, or "" when unset.
func (f *Frame) Text(i int) string {
	if f.S[i] == nil {
		return ""
	}
	return f.S[i].String()
}

// Allocator acquires foreign-owned text buffers.
type Allocator interface {
	Alloc(size int) (*Buffer, error)
}

// Engine is the foreign call-in target. Implementations are not required to
// be safe for concurrent use; callers serialize Call.
type Engine interface {
	Allocator

	// Init starts the foreign runtime.
	Init() Status

	// Exit shuts the foreign runtime down.
	Exit() Status

	// Call invokes routine r with every slot of f passed by reference.
	Call(r Routine, f *Frame) Status

	// ZStatus describes the most recent nonzero status.
	ZStatus() string
}
