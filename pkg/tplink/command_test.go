package tplink

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommandShape(t *testing.T) {
	cmd := NewCommand("system", "set_relay_state", map[string]any{"state": 1})
	b, err := cmd.Marshal()
	require.Nil(t, err)
	assert.JSONEq(t, `{"system":{"set_relay_state":{"state":1}}}`, string(b))
}

func TestNewCommandNilParams(t *testing.T) {
	cmd := NewCommand("system", "get_sysinfo", nil)
	b, err := cmd.Marshal()
	require.Nil(t, err)
	assert.JSONEq(t, `{"system":{"get_sysinfo":{}}}`, string(b))
}

func TestForChildrenIsAdditive(t *testing.T) {
	cmd := NewCommand("system", "set_relay_state", map[string]any{"state": 0})
	wrapped := cmd.ForChildren("800652A1", "800652A2")

	b, err := wrapped.Marshal()
	require.Nil(t, err)
	assert.JSONEq(t,
		`{"context":{"child_ids":["800652A1","800652A2"]},"system":{"set_relay_state":{"state":0}}}`,
		string(b))

	// the original command body must survive the wrap untouched
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Contains(t, decoded, "system")
	assert.Contains(t, decoded, "context")
}

func TestForChildrenNoIDsReturnsUnchanged(t *testing.T) {
	cmd := NewCommand("system", "get_sysinfo", nil)
	assert.Equal(t, cmd, cmd.ForChildren())
}

func TestSysinfoProbeDecodes(t *testing.T) {
	plaintext, err := Decrypt(SysinfoProbe())
	require.Nil(t, err)
	assert.JSONEq(t, `{"system":{"get_sysinfo":{}}}`, string(plaintext))
}
