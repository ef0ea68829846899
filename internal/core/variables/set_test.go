package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_InvertedPairToggle(t *testing.T) {
	s := NewSet("car", &fakeTicker{}, nil, nil)
	mirror := s.Get("!engine_running")
	primary := s.Get("engine_running")
	require.Same(t, primary, mirror.Twin())

	assert.Equal(t, 0.0, primary.Value())
	assert.True(t, mirror.IsActive())

	primary.Toggle(false)
	assert.Equal(t, 1.0, primary.Value())
	assert.True(t, primary.IsActive())
	assert.Equal(t, 0.0, mirror.Value())
	assert.False(t, mirror.IsActive())

	mirror.SetTo(1, false)
	assert.False(t, primary.IsActive())
}

func TestSet_ConstantMirrorIsConstant(t *testing.T) {
	sink := &recorder{}
	s := NewSet("car", &fakeTicker{}, sink, nil)
	constant := s.Get("#5")
	mirror := s.Get("!#5")
	require.Same(t, constant, mirror.Twin())
	assert.True(t, mirror.IsConstant())
	assert.Equal(t, 0.0, mirror.Value())

	mirror.Toggle(true)
	mirror.SetTo(3, true)
	assert.False(t, mirror.Increment(1, 0, 0, true))
	s.Apply(ChangeEvent{Kind: ChangeSet, Key: "!#5", Value: 7})
	s.Apply(ChangeEvent{Kind: ChangeToggle, Key: "!#5"})

	assert.Equal(t, 5.0, constant.ComputeValue(0))
	assert.Equal(t, 0.0, mirror.ComputeValue(0))
	assert.Empty(t, sink.events)
	assert.NotContains(t, s.Save(), "!#5")
}

func TestSet_GetReturnsSameInstance(t *testing.T) {
	s := NewSet("car", &fakeTicker{}, nil, nil)
	assert.Same(t, s.Get("door_1"), s.Get("door_1"))
	assert.Equal(t, 1, s.Len())

	_, ok := s.Lookup("door_2")
	assert.False(t, ok)
}

func TestSet_KeyKinds(t *testing.T) {
	s := NewSet("car", &fakeTicker{}, nil, nil)

	assert.True(t, s.Get("#2.5").IsConstant())
	assert.Equal(t, 2.5, s.Get("#2.5").Value())
	assert.True(t, s.Get("#oops").IsConstant())
	assert.Zero(t, s.Get("#oops").Value())

	r := s.Get("random")
	require.True(t, r.IsComputed())
	for range 10 {
		v := r.ComputeValue(0)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}

	assert.True(t, s.Get("fuel").IsStateful())
}

func TestSet_RegisterPairsExistingMirror(t *testing.T) {
	ticker := &fakeTicker{}
	s := NewSet("car", ticker, nil, nil)
	mirror := s.Get("!moving")

	speed := 0.0
	s.Register("moving", func(float64) float64 { return speed }, false)

	speed = 3
	s.Get("moving").ComputeValue(0)
	assert.False(t, mirror.IsActive())
}

func TestSet_SaveOnlyStateful(t *testing.T) {
	s := NewSet("car", &fakeTicker{}, nil, nil)
	s.Get("fuel").SetTo(40, false)
	s.Get("!lights")
	s.Get("#3")
	s.Register("speed", func(float64) float64 { return 1 }, false)

	assert.Equal(t, map[string]float64{"fuel": 40, "lights": 0}, s.Save())
}

func TestSet_LoadDoesNotBroadcast(t *testing.T) {
	sink := &recorder{}
	s := NewSet("car", &fakeTicker{}, sink, nil)
	s.Register("speed", func(float64) float64 { return 7 }, false)

	s.Load(map[string]float64{"fuel": 12, "lights": 1, "speed": 99, "#1": 4})

	assert.Empty(t, sink.events)
	assert.Equal(t, 12.0, s.Get("fuel").Value())
	assert.Equal(t, 0.0, s.Get("!lights").Value())
	assert.Equal(t, 7.0, s.Get("speed").ComputeValue(0))
	assert.Equal(t, 1.0, s.Get("#1").Value())
}

func TestSet_ApplyReplaysWithoutBroadcast(t *testing.T) {
	origin := &recorder{}
	server := NewSet("car", &fakeTicker{}, origin, nil)
	client := NewSet("car", &fakeTicker{}, BroadcasterFunc(func(ChangeEvent) {
		t.Fatal("replayed change was broadcast")
	}), nil)

	server.Get("fuel").SetTo(30, true)
	server.Get("fuel").AdjustBy(-2.5, true)
	server.Get("horn").Toggle(true)
	server.Get("gear").Increment(4, 1, 3, true)
	require.Len(t, origin.events, 4)

	for _, ev := range origin.events {
		client.Apply(ev)
	}
	assert.Equal(t, server.Save(), client.Save())
	assert.Equal(t, server.Checksum(), client.Checksum())
}

func TestSet_Checksum(t *testing.T) {
	a := NewSet("a", &fakeTicker{}, nil, nil)
	b := NewSet("b", &fakeTicker{}, nil, nil)

	a.Get("x").SetTo(1, false)
	a.Get("y").SetTo(2, false)
	b.Get("y").SetTo(2, false)
	b.Get("x").SetTo(1, false)
	b.Register("computed", func(float64) float64 { return 5 }, false)
	assert.Equal(t, a.Checksum(), b.Checksum())

	b.Get("y").SetTo(2.0001, false)
	assert.NotEqual(t, a.Checksum(), b.Checksum())
}
