package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", 1) || !m.Enabled("c", 1) || !m.Enabled("e", 1) {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", 1) || m.Enabled("d", 1) || m.Enabled("f", 1) {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%")

	if !m.Enabled("always", 1) {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("never", 1) {
		t.Fatal("0% rollout should always be disabled")
	}

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", 42); got != first {
			t.Fatal("rollout evaluation must be deterministic per user")
		}
	}

	if m.Enabled("canary", 0) || m.On("canary") {
		t.Fatal("percentage rollout requires non-zero userID")
	}
}

func TestDefaults(t *testing.T) {
	m := NewManager("")
	assert.True(t, m.On(RealtimeEvents))
	assert.False(t, m.On(ProblemCache))

	m = NewManager("realtime_events=off, PROBLEM_CACHE = on")
	assert.False(t, m.On(RealtimeEvents))
	assert.True(t, m.On(ProblemCache))

	var nilManager *Manager
	assert.False(t, nilManager.On(RealtimeEvents))
}

func TestParseSnapshotAndList(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	require.Len(t, raw, 5)
	assert.Equal(t, "on", raw["x"])
	assert.Equal(t, "20%", raw["y"])
	assert.Equal(t, "off", raw["z"])

	assert.Len(t, m.Snapshot(123), 5)

	list := m.List(0)
	require.Len(t, list, 5)
	assert.Equal(t, ProblemCache, list[0].Name)
	assert.Equal(t, RealtimeEvents, list[1].Name)
	assert.True(t, list[1].Enabled)
	assert.Equal(t, Status{Name: "x", Value: "on", Enabled: true}, list[2])
}
