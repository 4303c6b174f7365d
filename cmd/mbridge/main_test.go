package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/mbridge/callin"
	"github.com/wippyai/mbridge/config"
	"github.com/wippyai/mbridge/mcall"
)

// runCLI runs the root command with args and returns everything written to
// its output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{config.EnvEngine, config.EnvStore, config.EnvLogLevel} {
		t.Setenv(k, "")
	}
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func sqliteStore(t *testing.T) string {
	return "sqlite3:" + filepath.Join(t.TempDir(), "globals.db")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"exec", "proc", "func", "get", "set", "order", "data", "kill",
		"names", "dump", "load", "ddwalk", "calltab", "shell"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	for _, flag := range []string{"config", "engine", "store", "routines", "log-level"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %s", flag)
	}
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"17", int64(17)},
		{"-3", int64(-3)},
		{"1.5", 1.5},
		{".5", 0.5},
		{"1e3", 1000.0},
		{"text", "text"},
		{"inf", "inf"},
		{"", ""},
		{"s:17", "17"},
		{"out:17", callin.Out(int64(17))},
		{"out:", callin.Out("")},
		{"out:s:1.5", callin.Out("1.5")},
		{"ref:MYVAR", mcall.Ref{Name: "MYVAR"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseArg(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseArg("out:ref:X")
	assert.Error(t, err)
	_, err = parseArg("ref:")
	assert.Error(t, err)
}

func TestExec(t *testing.T) {
	out, err := runCLI(t, "exec", `set s0=s0_"!"`, "out:hi")
	require.NoError(t, err)
	assert.Equal(t, "hi!\n", out)

	out, err = runCLI(t, "exec", "--json", "set l0=l0*2,d0=d0/2", "out:21", "out:1.5")
	require.NoError(t, err)
	assert.Equal(t, "[42,0.75]\n", out)

	out, err = runCLI(t, "exec", "--json", "set x=1")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)

	out, err = runCLI(t, "exec", `write "x=",s0,!`, "abc")
	require.NoError(t, err)
	assert.Equal(t, "x=abc\n", out)

	_, err = runCLI(t, "exec", "set x=1", "ref:X")
	assert.Error(t, err)

	_, err = runCLI(t, "exec", "set s0=nosuchvar", "out:")
	assert.Error(t, err)
}

func TestProcAndFunc(t *testing.T) {
	out, err := runCLI(t, "--routines", "../../interp/testdata",
		"proc", "testproc^vavistagtm", "out:", "out:0", "out:0.0")
	require.NoError(t, err)
	assert.Equal(t, "testproc\n1111\n222.22\n", out)

	out, err = runCLI(t, "func", "$A", "Beethoven")
	require.NoError(t, err)
	assert.Equal(t, "66\n", out)

	out, err = runCLI(t, "--routines", "../../interp/testdata", "func", "$$fact^vavistagtm", "5")
	require.NoError(t, err)
	assert.Equal(t, "120\n", out)
}

func TestThinCommands_SQLStore(t *testing.T) {
	st := sqliteStore(t)

	_, err := runCLI(t, "--store", st, "set", `^X(1)`, "v")
	require.NoError(t, err)
	_, err = runCLI(t, "--store", st, "set", `^X(2,"a")`, "w")
	require.NoError(t, err)

	out, err := runCLI(t, "--store", st, "get", `^X(1)`)
	require.NoError(t, err)
	assert.Equal(t, "v\n", out)

	out, err = runCLI(t, "--store", st, "order", `^X(1)`)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = runCLI(t, "--store", st, "data", `^X(2)`)
	require.NoError(t, err)
	assert.Equal(t, "10\n", out)

	out, err = runCLI(t, "--store", st, "names")
	require.NoError(t, err)
	assert.Equal(t, "^X\n", out)

	_, err = runCLI(t, "--store", st, "kill", "^X")
	require.NoError(t, err)
	out, err = runCLI(t, "--store", st, "data", "^X")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)
}

func TestLoadDumpWalk(t *testing.T) {
	st := sqliteStore(t)

	out, err := runCLI(t, "--store", st, "load", "../../globals/testdata/pymult.yaml")
	require.NoError(t, err)
	assert.Equal(t, "loaded 14 nodes\n", out)

	out, err = runCLI(t, "--store", st, "dump", "^DD", "9999940", "--jq", ".children | keys")
	require.NoError(t, err)
	assert.Equal(t, "[\n  \".01\",\n  \"0\",\n  \"1\",\n  \"B\"\n]\n", out)

	out, err = runCLI(t, "--store", st, "dump", "^DIZ", "9999940", "--jq", `.children["1"].children["0"].value`)
	require.NoError(t, err)
	assert.Equal(t, "\"ONE\"\n", out)

	out, err = runCLI(t, "--store", st, "dump", "^DIC", "9999940", "--pairs")
	require.NoError(t, err)
	assert.Contains(t, out, "ref: ^DIC(9999940,0)")
	assert.Contains(t, out, `value: PYMULT1^9999940`)

	out, err = runCLI(t, "--store", st, "ddwalk", "9999940")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], ".01\tNAME^RF^^0;1"), lines[0])
	assert.Equal(t, "1\tT1^9999940.01^^1;0", lines[1])

	_, err = runCLI(t, "--store", st, "dump", "^DD", "--jq", ".children[")
	assert.Error(t, err)
}

func TestCallTab(t *testing.T) {
	out, err := runCLI(t, "calltab", "--entry", "vavistagtm")
	require.NoError(t, err)
	assert.Contains(t, out, "mexec: void mexec^vavistagtm(")
	assert.Equal(t, 12, strings.Count(out, "\n"))
}

func TestConfigErrors(t *testing.T) {
	_, err := runCLI(t, "--engine", "cache", "get", "X")
	assert.Error(t, err)

	_, err = runCLI(t, "--config", "testdata/missing.yaml", "get", "X")
	assert.Error(t, err)
}
