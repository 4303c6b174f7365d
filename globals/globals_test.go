package globals

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/mbridge/callin"
	"github.com/wippyai/mbridge/interp"
	"github.com/wippyai/mbridge/session"
)

func newDriver(t *testing.T) *callin.Driver {
	t.Helper()
	eng := interp.New(interp.Options{})
	sess := session.New(eng, session.Config{Ungated: true, Terminal: session.NopTerminal()})
	t.Cleanup(func() { sess.Stop() })
	return callin.NewDriver(sess, callin.Options{})
}

// loadFixture loads testdata/pymult.yaml into a fresh engine.
func loadFixture(t *testing.T) *callin.Driver {
	t.Helper()
	f, err := os.Open("testdata/pymult.yaml")
	require.NoError(t, err)
	defer f.Close()

	pairs, err := ReadPairs(f)
	require.NoError(t, err)
	require.Len(t, pairs, 14)

	d := newDriver(t)
	require.NoError(t, Deserialise(context.Background(), d, pairs))
	return d
}

func TestNode_Ref(t *testing.T) {
	n := New(nil, "^DD", "9999940")
	assert.Equal(t, "^DD(9999940)", n.Ref())
	assert.Equal(t, `^DD(9999940,.01,"B")`, n.Child(".01", "B").Ref())
	assert.Equal(t, "^DD", New(nil, "^DD").Ref())
	assert.Equal(t, []string{"9999940"}, n.Subs(), "Child must not alias the parent")
}

func TestNode_ValueAndData(t *testing.T) {
	ctx := context.Background()
	d := loadFixture(t)

	dic := New(d, "^DIC", "9999940")
	v, err := dic.Child("0").Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PYMULT1^9999940", v)

	v, err = dic.Child("0", "GL").Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "^DIZ(9999940,", v)

	tests := []struct {
		node                   Node
		data                   int64
		exists, value, descend bool
	}{
		{dic, 10, true, false, true},
		{dic.Child("0"), 11, true, true, true},
		{dic.Child("0", "GL"), 1, true, true, false},
		{dic.Child("nope"), 0, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.node.Ref(), func(t *testing.T) {
			got, err := tt.node.Data(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.data, got)

			ok, err := tt.node.Exists(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.exists, ok)

			ok, err = tt.node.HasValue(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.value, ok)

			ok, err = tt.node.HasDescendants(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.descend, ok)
		})
	}

	_, err = dic.Child("nope").Value(ctx)
	assert.Error(t, err, "reading an undefined node")
}

func TestNode_SetAndKill(t *testing.T) {
	ctx := context.Background()
	d := newDriver(t)

	n := New(d, "^TMP", "job", "1")
	require.NoError(t, n.SetValue(ctx, "hello"))
	require.NoError(t, n.Child("x").SetValue(ctx, "child"))

	v, err := n.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	require.NoError(t, New(d, "^TMP", "job").Kill(ctx))
	ok, err := n.Child("x").Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "kill must remove descendants")

	// Locals work the same way.
	loc := New(d, "cache", "k")
	require.NoError(t, loc.SetValue(ctx, "42"))
	v, err = loc.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

func TestNode_Iteration(t *testing.T) {
	ctx := context.Background()
	d := loadFixture(t)

	keys, err := New(d, "^DIC").Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = New(d, "^DIC").KeysWithDescendants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"9999940", "B"}, keys)

	dd := New(d, "^DD", "9999940")
	keys, err = dd.KeysWithDescendants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{".01", "1", "B"}, keys, "numeric subscripts collate before strings")

	keys, err = dd.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, keys)

	items, err := New(d, "^DIZ", "9999940").Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Item{{Key: "0", Value: "PYMULT1^9999940^2^2"}}, items)

	keys, err = New(d, "^DIZ", "9999940", "B", "ONE").Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, keys)
}

func TestNames(t *testing.T) {
	ctx := context.Background()
	d := loadFixture(t)

	names, err := Names(ctx, d, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"^DD", "^DIC", "^DIZ"}, names)

	require.NoError(t, New(d, "zlocal").SetValue(ctx, "1"))
	names, err = Names(ctx, d, true)
	require.NoError(t, err)
	assert.Contains(t, names, "zlocal")
	assert.Equal(t, []string{"^DD", "^DIC", "^DIZ"}, names[:3])
}

func TestSerialise(t *testing.T) {
	ctx := context.Background()
	d := loadFixture(t)

	pairs, err := New(d, "^DD", "9999940").Serialise(ctx)
	require.NoError(t, err)

	var refs []string
	for _, p := range pairs {
		refs = append(refs, p.Ref)
	}
	assert.Equal(t, []string{
		"^DD(9999940,0)",
		"^DD(9999940,.01,0)",
		"^DD(9999940,.01,3)",
		"^DD(9999940,1,0)",
		`^DD(9999940,"B","NAME",.01)`,
		`^DD(9999940,"B","T1",1)`,
	}, refs)
	assert.Equal(t, "T1^9999940.01^^1;0", pairs[3].Value)

	// Round trip into a second engine.
	other := newDriver(t)
	require.NoError(t, Deserialise(ctx, other, pairs))
	again, err := New(other, "^DD", "9999940").Serialise(ctx)
	require.NoError(t, err)
	assert.Equal(t, pairs, again)
}

func TestSerialise_NodeWithValueAndChildren(t *testing.T) {
	ctx := context.Background()
	d := loadFixture(t)

	pairs, err := New(d, "^DIC", "9999940", "0").Serialise(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Pair{
		{Ref: "^DIC(9999940,0)", Value: "PYMULT1^9999940"},
		{Ref: `^DIC(9999940,0,"GL")`, Value: "^DIZ(9999940,"},
	}, pairs)
}

func TestDDWalk_Fixture(t *testing.T) {
	ctx := context.Background()
	d := loadFixture(t)

	e, err := d.DDWalk(ctx, "9999940", "0")
	require.NoError(t, err)
	assert.Equal(t, ".01", e.FieldID)
	assert.Equal(t, "NAME^RF^^0;1^K:$L(X)>30!($L(X)<3) X", e.Info)
	assert.Contains(t, e.Help, "3-30 CHARACTERS")

	e, err = d.DDWalk(ctx, "9999940", e.FieldID)
	require.NoError(t, err)
	assert.Equal(t, "1", e.FieldID)
	assert.Equal(t, "T1^9999940.01^^1;0", e.Info)

	e, err = d.DDWalk(ctx, "9999940", e.FieldID)
	require.NoError(t, err)
	assert.Empty(t, e.FieldID, "the B index ends the field walk")
}

func TestDumpJSON(t *testing.T) {
	d := loadFixture(t)

	var buf bytes.Buffer
	require.NoError(t, New(d, "^DIZ", "9999940").DumpJSON(context.Background(), &buf))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "diz", buf.Bytes())
}
