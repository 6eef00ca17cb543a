package domain_test

import (
	"testing"

	"github.com/aretw0/selector/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBehavior(t *testing.T) {
	cases := map[string]domain.Behavior{
		"fix":        domain.BehaviorFix,
		"Increment":  domain.BehaviorIncrement,
		" decrement": domain.BehaviorDecrement,
		"RANDOM":     domain.BehaviorRandom,
		"ping-pong":  domain.BehaviorPingPong,
		"pingpong":   domain.BehaviorPingPong,
		"ping_pong":  domain.BehaviorPingPong,
	}
	for in, want := range cases {
		got, err := domain.ParseBehavior(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := domain.ParseBehavior("shuffle")
	assert.ErrorIs(t, err, domain.ErrInvalidBehavior)
}

func TestBehaviors_AllValid(t *testing.T) {
	for _, b := range domain.Behaviors() {
		assert.True(t, b.Valid(), b)
	}
	assert.False(t, domain.Behavior("").Valid())
}

func TestState_Normalize(t *testing.T) {
	s := &domain.State{Collection: []string{"a", "b"}, CurrentIndex: 7, Direction: 0}
	s.Normalize()
	assert.Equal(t, 1, s.CurrentIndex)
	assert.Equal(t, domain.DirectionForward, s.Direction)

	s = &domain.State{CurrentIndex: -3, Direction: domain.DirectionBackward}
	s.Normalize()
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, domain.DirectionBackward, s.Direction)
}

func TestState_CloneIsDeep(t *testing.T) {
	s := &domain.State{Collection: []string{"a", "b"}}
	c := s.Clone()
	c.Collection[0] = "z"
	assert.Equal(t, "a", s.Collection[0])

	var nilState *domain.State
	assert.Nil(t, nilState.Clone())
}
