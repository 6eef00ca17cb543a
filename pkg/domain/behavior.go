package domain

import (
	"fmt"
	"strings"
)

// Behavior is the traversal policy governing index progression.
type Behavior string

const (
	BehaviorFix       Behavior = "fix"       // Always the start index
	BehaviorIncrement Behavior = "increment" // Forward, wrapping to 0
	BehaviorDecrement Behavior = "decrement" // Backward, wrapping to the end
	BehaviorRandom    Behavior = "random"    // Uniform draw per call
	BehaviorPingPong  Behavior = "ping-pong" // Forward and back, bouncing at both ends
)

// Behaviors returns every supported policy in presentation order.
func Behaviors() []Behavior {
	return []Behavior{BehaviorFix, BehaviorIncrement, BehaviorDecrement, BehaviorRandom, BehaviorPingPong}
}

// Valid reports whether b is a supported policy.
func (b Behavior) Valid() bool {
	switch b {
	case BehaviorFix, BehaviorIncrement, BehaviorDecrement, BehaviorRandom, BehaviorPingPong:
		return true
	}
	return false
}

func (b Behavior) String() string {
	return string(b)
}

// ParseBehavior converts a user supplied name into a Behavior.
// Matching is case-insensitive and accepts "pingpong" and "ping_pong" as aliases.
func ParseBehavior(s string) (Behavior, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "pingpong", "ping_pong":
		return BehaviorPingPong, nil
	}
	b := Behavior(name)
	if !b.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidBehavior, s)
	}
	return b, nil
}
