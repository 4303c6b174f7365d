package interp

import "testing"

func TestParseLine_Commands(t *testing.T) {
	tests := []struct {
		src   string
		names []string
	}{
		{"", nil},
		{" ; comment only", nil},
		{"s x=1", []string{"SET"}},
		{"SET x=1 KILL x", []string{"SET", "KILL"}},
		{"q", []string{"QUIT"}},
		{"i x  q", []string{"IF", "QUIT"}},
		{"e  s x=1", []string{"ELSE", "SET"}},
		{"s:x y=1 d:y>1 a^b ; trailing", []string{"SET", "DO"}},
		{"f i=1:1:3 w i,!", []string{"FOR", "WRITE"}},
		{"ts  s ^x=1 tc", []string{"TSTART", "SET", "TCOMMIT"}},
		{"TS () tro", []string{"TSTART", "TROLLBACK"}},
		{`x "s y=1"`, []string{"XECUTE"}},
		{"n a,b s a=1", []string{"NEW", "SET"}},
	}
	for _, tt := range tests {
		cmds, err := parseLine(tt.src)
		if err != nil {
			t.Errorf("parseLine(%q) error: %v", tt.src, err)
			continue
		}
		if len(cmds) != len(tt.names) {
			t.Errorf("parseLine(%q) = %d commands, want %d", tt.src, len(cmds), len(tt.names))
			continue
		}
		for i, c := range cmds {
			if c.name != tt.names[i] {
				t.Errorf("parseLine(%q)[%d] = %s, want %s", tt.src, i, c.name, tt.names[i])
			}
		}
	}
}

func TestParseLine_SetTargets(t *testing.T) {
	cmds, err := parseLine(`s (a,^b(1,"x"))=2,c=3`)
	if err != nil {
		t.Fatal(err)
	}
	args := cmds[0].args
	if len(args) != 2 {
		t.Fatalf("args = %d, want 2", len(args))
	}
	first := args[0].(*setArg)
	if len(first.targets) != 2 || first.targets[1].name != "^b" || len(first.targets[1].subs) != 2 {
		t.Errorf("targets = %+v", first.targets)
	}
}

func TestParseLine_Actuals(t *testing.T) {
	cmds, err := parseLine("d lab^rtn(.a,,1+2,.5)")
	if err != nil {
		t.Fatal(err)
	}
	arg := cmds[0].args[0].(*doArg)
	if arg.ref.label != "lab" || arg.ref.routine != "rtn" || !arg.hasArgs {
		t.Fatalf("ref = %+v", arg)
	}
	if len(arg.args) != 4 {
		t.Fatalf("actuals = %d, want 4", len(arg.args))
	}
	if arg.args[0].byRef != "a" {
		t.Errorf("actual 0 byRef = %q", arg.args[0].byRef)
	}
	if arg.args[1].x != nil || arg.args[1].byRef != "" {
		t.Error("actual 1 should be empty")
	}
	if lit, ok := arg.args[3].x.(*numLit); !ok || lit.v != ".5" {
		t.Errorf("actual 3 = %#v, want .5", arg.args[3].x)
	}
}

func TestParseRoutineLine(t *testing.T) {
	ln, err := parseRoutineLine("sum(a,b) q a+b")
	if err != nil {
		t.Fatal(err)
	}
	if ln.label != "sum" || !ln.hasFormals || len(ln.formals) != 2 || len(ln.cmds) != 1 {
		t.Errorf("line = %+v", ln)
	}

	ln, err = parseRoutineLine("none() ;")
	if err != nil {
		t.Fatal(err)
	}
	if !ln.hasFormals || len(ln.formals) != 0 {
		t.Errorf("empty formal list = %+v", ln)
	}

	ln, err = parseRoutineLine("10 s x=1")
	if err != nil || ln.label != "10" {
		t.Errorf("numeric label = %+v, %v", ln, err)
	}

	for _, bad := range []string{"lab(a", "lab(,)", "lab!x"} {
		if _, err := parseRoutineLine(bad); err == nil {
			t.Errorf("parseRoutineLine(%q) succeeded", bad)
		}
	}
}

func TestParseRefText(t *testing.T) {
	g, err := parseRefText(` ^DD(200,.01) `)
	if err != nil {
		t.Fatal(err)
	}
	if g.name != "^DD" || len(g.subs) != 2 {
		t.Errorf("ref = %+v", g)
	}
	for _, bad := range []string{"", "1", "x(", "x y"} {
		if _, err := parseRefText(bad); err == nil {
			t.Errorf("parseRefText(%q) succeeded", bad)
		}
	}
}
