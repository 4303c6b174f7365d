package store

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCanonic(t *testing.T) {
	canonic := []string{"0", "1", "-1", "10", ".5", "-.5", "1.25", "123456789012345678"}
	for _, s := range canonic {
		assert.True(t, IsCanonic(s), "IsCanonic(%q)", s)
	}
	noncanonic := []string{"", "-", "-0", "01", "0.5", "1.", "1.0", "+1", "1E2", "a", " 1", ".", "1.2.3"}
	for _, s := range noncanonic {
		assert.False(t, IsCanonic(s), "IsCanonic(%q)", s)
	}
}

func TestCollationOrder(t *testing.T) {
	// M collation order
	ordered := []string{
		"-100", "-10", "-9.5", "-1", "-.5", "-.05", "0", ".05", ".5", "1", "1.05", "1.5", "9", "10", "10.5", "100",
		"", "\x00", "0.5", "01", "A", "B", "a", "a\x00", "ab", "b",
	}

	keys := make([][]byte, len(ordered))
	for i, s := range ordered {
		keys[i] = EncodeKey([]string{s})
	}
	shuffled := append([][]byte(nil), keys...)
	sort.Slice(shuffled, func(i, j int) bool { return bytes.Compare(shuffled[i], shuffled[j]) < 0 })

	for i := range keys {
		require.Equal(t, keys[i], shuffled[i], "position %d (%q)", i, ordered[i])
	}
}

func TestKeyRoundTrip(t *testing.T) {
	subs := []string{"-9.5", ".05", "100", "x\x00y", "", "B", "0", "1.25"}
	got, err := DecodeKey(EncodeKey(subs))
	require.NoError(t, err)
	assert.Equal(t, subs, got)
}

func TestSubtreeRange(t *testing.T) {
	parent := EncodeKey([]string{"A"})
	child := EncodeKey([]string{"A", "1"})
	sibling := EncodeKey([]string{"A\x00"})
	after := EncodeKey([]string{"B"})

	end := subtreeEnd(parent)
	assert.True(t, bytes.Compare(child, parent) > 0 && bytes.Compare(child, end) < 0)
	assert.True(t, bytes.Compare(sibling, end) > 0, "sibling must sort after the subtree")
	assert.True(t, bytes.Compare(after, end) > 0)
}

func TestDecodeKey_Corrupt(t *testing.T) {
	for _, b := range [][]byte{{0x42}, {tagStr, 'a'}, {tagPos, 129}} {
		_, err := DecodeKey(b)
		assert.Error(t, err, "DecodeKey(%x)", b)
	}
}

func TestRef(t *testing.T) {
	tests := []struct {
		in   string
		name string
		subs []string
		out  string
	}{
		{"^DD", "^DD", nil, "^DD"},
		{`^DD(0,"B","x")`, "^DD", []string{"0", "B", "x"}, `^DD(0,"B","x")`},
		{`X(1.50,"a""b")`, "X", []string{"1.5", `a"b`}, `X(1.5,"a""b")`},
		{`%ZIS(-01, 0.5)`, "%ZIS", []string{"-1", ".5"}, `%ZIS(-1,.5)`},
		{`^G("01")`, "^G", []string{"01"}, `^G("01")`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ref, err := ParseRef(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.name, ref.Name)
			assert.Equal(t, tt.subs, ref.Subs)
			assert.Equal(t, tt.out, ref.String())
		})
	}
}

func TestParseRef_Errors(t *testing.T) {
	for _, in := range []string{"", "^", "1X", `X("a`, "X(a)", "X(1", "X(1;2)"} {
		_, err := ParseRef(in)
		assert.Error(t, err, "ParseRef(%q)", in)
	}
}

func TestRefNavigation(t *testing.T) {
	r := Ref{Name: "^X"}
	c := r.Child("a").Child("1")
	assert.Equal(t, `^X("a",1)`, c.String())
	assert.Equal(t, "1", c.Last())
	assert.Equal(t, `^X("a")`, c.Parent().String())
	assert.True(t, c.IsGlobal())
	assert.Empty(t, r.Subs, "Child must not alias the parent")
}
