package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, "1"), name)
	}
	for _, name := range []string{"b", "d", "f", "unset"} {
		assert.False(t, m.Enabled(name, "1"), name)
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,junk=abc%")

	assert.True(t, m.Enabled("always", "1"))
	assert.False(t, m.Enabled("never", "1"))
	assert.False(t, m.Enabled("junk", "1"))

	first := m.Enabled("canary", "client-42")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", "client-42"), "rollout must be deterministic per subject")
	}

	assert.False(t, m.Enabled("canary", ""), "percentage rollout requires a subject")
}

func TestEnabledOr(t *testing.T) {
	m := NewManager("first_load_writeback=off")
	assert.False(t, m.EnabledOr(FirstLoadWriteback, "", true))
	assert.True(t, NewManager("").EnabledOr(FirstLoadWriteback, "", true))

	var nilManager *Manager
	assert.True(t, nilManager.EnabledOr(FirstLoadWriteback, "", true))
	assert.False(t, nilManager.Enabled(FirstLoadWriteback, ""))
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, Y = 20% ,z=off ")

	assert.Equal(t, map[string]string{"x": "on", "y": "20%", "z": "off"}, m.Raw())
	assert.Equal(t, []string{"x", "y", "z"}, m.Names())
	assert.Len(t, m.Snapshot("123"), 3)
}
