//go:build gtm && cgo

package engine

/*
#cgo LDFLAGS: -lgtmshr
#include <stdlib.h>
#include <string.h>
#include "gtmxc_types.h"

#define MB_ROUTINES 12

static ci_name_descriptor mb_desc[MB_ROUTINES];
static char mb_empty[1] = {'\0'};

static void mb_desc_init(int i, char *name) {
	mb_desc[i].rtn_name.address = name;
	mb_desc[i].rtn_name.length = strlen(name);
	mb_desc[i].handle = NULL;
}

static char *mb_str(char *p) {
	return p ? p : mb_empty;
}

// gtm_cip is variadic, which cgo cannot call; each signature shape gets a
// fixed-arity wrapper.
static gtm_status_t mb_mexec(int i, char *cmd, char **s, gtm_long_t *l, gtm_double_t *d,
		char *sRv, gtm_long_t *lRv, gtm_double_t *dRv) {
	return gtm_cip(&mb_desc[i], cmd,
		mb_str(s[0]), mb_str(s[1]), mb_str(s[2]), mb_str(s[3]),
		mb_str(s[4]), mb_str(s[5]), mb_str(s[6]), mb_str(s[7]),
		&l[0], &l[1], &l[2], &l[3], &l[4], &l[5], &l[6], &l[7],
		&d[0], &d[1], &d[2], &d[3], &d[4], &d[5], &d[6], &d[7],
		sRv, lRv, dRv);
}

static gtm_status_t mb_call_s_sret(int i, char *s0, char *sRv) {
	return gtm_cip(&mb_desc[i], mb_str(s0), sRv);
}

static gtm_status_t mb_call_s_lret(int i, char *s0, gtm_long_t *lRv) {
	return gtm_cip(&mb_desc[i], mb_str(s0), lRv);
}

static gtm_status_t mb_call_s(int i, char *s0) {
	return gtm_cip(&mb_desc[i], mb_str(s0));
}

static gtm_status_t mb_call_ss(int i, char *s0, char *s1) {
	return gtm_cip(&mb_desc[i], mb_str(s0), mb_str(s1));
}

static gtm_status_t mb_call_dd(int i, char **s) {
	return gtm_cip(&mb_desc[i], mb_str(s[0]), mb_str(s[1]), mb_str(s[2]), mb_str(s[3]), mb_str(s[4]));
}

static gtm_status_t mb_call_walk(int i, char *s0, char *s1, gtm_long_t *lRv, char *sRv) {
	return gtm_cip(&mb_desc[i], mb_str(s0), mb_str(s1), lRv, sRv);
}

static gtm_status_t mb_call_none(int i) {
	return gtm_cip(&mb_desc[i]);
}
*/
import "C"

import (
	"time"
	"unsafe"

	"go.uber.org/zap"
)

// GTM drives a GT.M runtime linked into the process through libgtmshr.
type GTM struct {
	names   [C.MB_ROUTINES]*C.char
	index   map[Routine]C.int
	ret     *C.char
	msg     *C.char
	lastMsg string
}

// NewGTM prepares the routine descriptors. The runtime itself starts in Init.
func NewGTM() (Engine, error) {
	g := &GTM{index: make(map[Routine]C.int)}
	for i, r := range Routines() {
		g.names[i] = C.CString(string(r))
		C.mb_desc_init(C.int(i), g.names[i])
		g.index[r] = C.int(i)
	}
	return g, nil
}

// Alloc returns a buffer on the C heap.
func (g *GTM) Alloc(size int) (*Buffer, error) {
	p := C.malloc(C.size_t(size))
	if p == nil {
		return nil, errAllocFailed(size)
	}
	data := unsafe.Slice((*byte)(p), size)
	return NewBuffer(data, func(b []byte) {
		C.free(unsafe.Pointer(&b[0]))
	}), nil
}

func (g *GTM) Init() Status {
	if g.ret == nil {
		g.ret = (*C.char)(C.calloc(1, C.size_t(MaxValue)))
		g.msg = (*C.char)(C.calloc(1, C.size_t(MaxMessage)))
	}
	return g.status(C.gtm_init())
}

func (g *GTM) Exit() Status {
	st := g.status(C.gtm_exit())
	C.free(unsafe.Pointer(g.ret))
	C.free(unsafe.Pointer(g.msg))
	g.ret, g.msg = nil, nil
	return st
}

func (g *GTM) ZStatus() string { return g.lastMsg }

func (g *GTM) status(rc C.gtm_status_t) Status {
	if rc != 0 && g.msg != nil {
		C.gtm_zstatus(g.msg, C.int(MaxMessage))
		g.lastMsg = C.GoString(g.msg)
	}
	return Status(rc)
}

func cbuf(b *Buffer) *C.char {
	if b == nil || b.Cap() == 0 {
		return nil
	}
	return (*C.char)(unsafe.Pointer(&b.Raw()[0]))
}

// Call invokes routine r through its fixed-arity wrapper.
func (g *GTM) Call(r Routine, f *Frame) Status {
	i, ok := g.index[r]
	if !ok {
		g.lastMsg = "unknown call-in routine " + string(r)
		return Status(-1)
	}
	start := time.Now()

	var s [Slots]*C.char
	for k := range f.S {
		s[k] = cbuf(f.S[k])
	}
	*g.ret = 0

	var rc C.gtm_status_t
	switch r {
	case RoutineMExec:
		cmd := C.CString(f.Cmd)
		defer C.free(unsafe.Pointer(cmd))
		var l [Slots]C.gtm_long_t
		var d [Slots]C.gtm_double_t
		for k := 0; k < Slots; k++ {
			l[k] = C.gtm_long_t(f.L[k])
			d[k] = C.gtm_double_t(f.D[k])
		}
		var lRv C.gtm_long_t
		var dRv C.gtm_double_t
		rc = C.mb_mexec(i, cmd, &s[0], &l[0], &d[0], g.ret, &lRv, &dRv)
		for k := 0; k < Slots; k++ {
			f.L[k] = int64(l[k])
			f.D[k] = float64(d[k])
		}
		f.LRet, f.DRet = int64(lRv), float64(dRv)
	case RoutineMGet, RoutineMOrder, RoutineTStart:
		rc = C.mb_call_s_sret(i, s[0], g.ret)
	case RoutineMData:
		var lRv C.gtm_long_t
		rc = C.mb_call_s_lret(i, s[0], &lRv)
		f.LRet = int64(lRv)
	case RoutineMKill:
		rc = C.mb_call_s(i, s[0])
	case RoutineMSet:
		rc = C.mb_call_ss(i, s[0], s[1])
	case RoutineDDWalk:
		rc = C.mb_call_dd(i, &s[0])
	case RoutineGLWalk, RoutineWPWalk:
		var lRv C.gtm_long_t
		rc = C.mb_call_walk(i, s[0], s[1], &lRv, g.ret)
		f.LRet = int64(lRv)
	case RoutineTCommit, RoutineTRollback:
		rc = C.mb_call_none(i)
	}
	f.SRet = C.GoString(g.ret)

	st := g.status(rc)
	Logger().Debug("call-in",
		zap.String("routine", string(r)),
		zap.Int32("status", int32(st)),
		zap.Duration("elapsed", time.Since(start)))
	return st
}
