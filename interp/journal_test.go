package interp

import (
	"testing"

	"github.com/wippyai/mbridge/engine"
	"github.com/wippyai/mbridge/store"
)

func globalValue(t *testing.T, st store.Store, name string, subs ...string) (string, bool) {
	t.Helper()
	v, ok, err := st.Get(store.Ref{Name: name, Subs: subs})
	if err != nil {
		t.Fatal(err)
	}
	return v, ok
}

func TestTransaction_Rollback(t *testing.T) {
	e := newEngine(t)
	f := textFrame(t, e)
	run(t, e, f, `s ^T(1)="old",^K(1)="a",^K(1,2)="b",^K=0`)

	f = textFrame(t, e, "tok")
	call(t, e, engine.RoutineTStart, f)
	if f.SRet != "tok" {
		t.Errorf("tstart = %q, want tok", f.SRet)
	}

	f = textFrame(t, e)
	run(t, e, f, `s ^T(1)="new",^T(2)="added" k ^K s ^K(9)=9,l0=$TL`)
	if f.L[0] != 1 {
		t.Errorf("$TLEVEL = %d, want 1", f.L[0])
	}

	call(t, e, engine.RoutineTRollback, &engine.Frame{})

	g := e.Globals()
	if v, _ := globalValue(t, g, "^T", "1"); v != "old" {
		t.Errorf("^T(1) = %q, want old", v)
	}
	if _, ok := globalValue(t, g, "^T", "2"); ok {
		t.Error("^T(2) survived rollback")
	}
	if v, _ := globalValue(t, g, "^K", "1", "2"); v != "b" {
		t.Errorf("^K(1,2) = %q, want b", v)
	}
	if v, ok := globalValue(t, g, "^K"); !ok || v != "0" {
		t.Errorf("^K = %q %v, want 0", v, ok)
	}
	if _, ok := globalValue(t, g, "^K", "9"); ok {
		t.Error("^K(9) survived rollback")
	}
	if e.journal.level != 0 || len(e.journal.entries) != 0 {
		t.Errorf("journal not reset: level %d, %d entries", e.journal.level, len(e.journal.entries))
	}
}

func TestTransaction_NestedCommit(t *testing.T) {
	e := newEngine(t)
	f := textFrame(t, e)
	run(t, e, f, `ts  ts  s ^C=1 tc  s l0=$tl tc  s l1=$tl`)
	if f.L[0] != 1 || f.L[1] != 0 {
		t.Errorf("levels = %d, %d, want 1, 0", f.L[0], f.L[1])
	}
	if v, _ := globalValue(t, e.Globals(), "^C"); v != "1" {
		t.Errorf("^C = %q after commit", v)
	}

	if st := e.Call(engine.RoutineTCommit, &engine.Frame{}); st.OK() {
		t.Error("tcommit outside a transaction succeeded")
	}
}

func TestTransaction_MRollback(t *testing.T) {
	e := newEngine(t)
	f := textFrame(t, e)
	run(t, e, f, `s ^R=1,x=1 ts  s ^R=2,x=2 tro  s l0=^R,l1=x`)
	if f.L[0] != 1 {
		t.Errorf("^R = %d, want 1", f.L[0])
	}
	if f.L[1] != 2 {
		t.Errorf("local x = %d, want 2: locals are not journaled", f.L[1])
	}
}

func TestTransaction_ExitRollsBack(t *testing.T) {
	globals := store.NewMemStore()
	e := New(Options{Globals: globals})
	e.Init()
	f := &engine.Frame{Cmd: "ts  s ^E=1"}
	if st := e.Call(engine.RoutineMExec, f); !st.OK() {
		t.Fatalf("mexec: %s", e.ZStatus())
	}
	if st := e.Exit(); !st.OK() {
		t.Fatalf("Exit() = %d", st)
	}
	if _, ok := globalValue(t, globals, "^E"); ok {
		t.Error("open transaction survived Exit")
	}
}

func TestTransaction_SQLStore(t *testing.T) {
	st, err := store.OpenSQL("sqlite3", t.TempDir()+"/g.db")
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	e := newEngineWith(t, Options{Globals: st})
	f := textFrame(t, e)
	run(t, e, f, `s ^S("a")=1 ts  s ^S("a")=2,^S("b")=3 k ^S("a") tro`)
	if v, _ := globalValue(t, st, "^S", "a"); v != "1" {
		t.Errorf(`^S("a") = %q, want 1`, v)
	}
	if _, ok := globalValue(t, st, "^S", "b"); ok {
		t.Error(`^S("b") survived rollback`)
	}
}
