package domain

import (
	"slices"
	"time"
)

// State is the durable record kept for one selector key.
// Field names match the reference state document so existing files stay readable.
type State struct {
	// Collection is the last-seen segment collection, used to detect input drift.
	Collection []string `json:"collection" yaml:"collection" mapstructure:"collection"`

	// CurrentIndex is the basis for the next call. Always within the collection once initialized.
	CurrentIndex int `json:"current_index" yaml:"current_index" mapstructure:"current_index"`

	// Initialized is false until the first run against the current collection.
	Initialized bool `json:"initialized" yaml:"initialized" mapstructure:"initialized"`

	// Direction is the ping-pong travel direction (+1 or -1).
	Direction int `json:"ping_pong_direction" yaml:"ping_pong_direction" mapstructure:"ping_pong_direction"`

	// UpdatedAt records the last mutation. Informational only.
	UpdatedAt time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty" mapstructure:"updated_at"`

	// Sealed carries an encrypted copy of the record when the store is wrapped
	// by the encryption middleware. Plain records leave it empty.
	Sealed string `json:"sealed,omitempty" yaml:"sealed,omitempty" mapstructure:"sealed"`
}

// NewState creates an uninitialized state travelling forward.
func NewState() *State {
	return &State{
		Direction: DirectionForward,
	}
}

// Normalize repairs fields that a hand-edited or partial record may leave invalid.
func (s *State) Normalize() {
	if s.Direction != DirectionBackward {
		s.Direction = DirectionForward
	}
	if s.CurrentIndex < 0 {
		s.CurrentIndex = 0
	}
	if n := len(s.Collection); n > 0 && s.CurrentIndex > n-1 {
		s.CurrentIndex = n - 1
	}
}

// Clone returns a deep copy so stores never share the collection slice with callers.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Collection = slices.Clone(s.Collection)
	return &c
}
