package loam

import (
	"time"

	"github.com/aretw0/selector/pkg/domain"
)

// Record is the document metadata carrying one selector state.
// It uses "mapstructure" tags because Loam decodes metadata through mapstructure.
type Record struct {
	Key          string   `json:"key" mapstructure:"key"`
	Collection   []string `json:"collection" mapstructure:"collection"`
	CurrentIndex int      `json:"current_index" mapstructure:"current_index"`
	Initialized  bool     `json:"initialized" mapstructure:"initialized"`
	Direction    int      `json:"ping_pong_direction" mapstructure:"ping_pong_direction"`
	Sealed       string   `json:"sealed,omitempty" mapstructure:"sealed"`

	// UpdatedAt is RFC 3339 text; metadata values decode as plain strings.
	UpdatedAt string `json:"updated_at,omitempty" mapstructure:"updated_at"`
}

func toRecord(key string, s *domain.State) Record {
	r := Record{
		Key:          key,
		Collection:   append([]string(nil), s.Collection...),
		CurrentIndex: s.CurrentIndex,
		Initialized:  s.Initialized,
		Direction:    s.Direction,
		Sealed:       s.Sealed,
	}
	if !s.UpdatedAt.IsZero() {
		r.UpdatedAt = s.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return r
}

func (r Record) toState() *domain.State {
	s := &domain.State{
		Collection:   append([]string(nil), r.Collection...),
		CurrentIndex: r.CurrentIndex,
		Initialized:  r.Initialized,
		Direction:    r.Direction,
		Sealed:       r.Sealed,
	}
	if t, err := time.Parse(time.RFC3339Nano, r.UpdatedAt); err == nil {
		s.UpdatedAt = t
	}
	s.Normalize()
	return s
}
