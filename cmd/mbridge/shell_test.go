package main

import (
	"bytes"
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/mbridge"
)

// submit types line, presses enter and feeds the result back.
func submit(t *testing.T, m *shellModel, line string) {
	t.Helper()
	m.input.SetValue(line)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m.Update(cmd())
}

func TestShellModel(t *testing.T) {
	out := &bytes.Buffer{}
	b, err := mbridge.Open(context.Background(), nil, mbridge.WithOutput(out))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	m := newShellModel(context.Background(), b, out)

	submit(t, m, `set x=6*7 write "x=",x`)
	submit(t, m, "?x+1")
	submit(t, m, "set y=undefinedvar")

	require.Len(t, m.entries, 3)
	assert.Equal(t, "x=42", m.entries[0].output)
	assert.NoError(t, m.entries[0].err)
	assert.Equal(t, "43", m.entries[1].output)
	assert.Error(t, m.entries[2].err)
	assert.False(t, m.running)

	view := m.View()
	assert.Contains(t, view, "M Shell")
	assert.Contains(t, view, "x=42")

	// history recall
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "set y=undefinedvar", m.input.Value())
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "?x+1", m.input.Value())
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "", m.input.Value())

	// blank lines do nothing
	m.input.SetValue("   ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
