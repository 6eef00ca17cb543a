package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/selector/internal/presentation/graph"
	"github.com/aretw0/selector/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	state := &domain.State{
		Collection:   []string{"red", "say \"hi\"", "blue"},
		CurrentIndex: 1,
		Initialized:  true,
		Direction:    domain.DirectionForward,
	}

	tests := []struct {
		name        string
		behavior    domain.Behavior
		contains    []string
		notContains []string
	}{
		{
			name:     "Increment Ring",
			behavior: domain.BehaviorIncrement,
			contains: []string{"s0 --> s1", "s1 --> s2", "s2 --> s0"},
		},
		{
			name:     "Decrement Ring",
			behavior: domain.BehaviorDecrement,
			contains: []string{"s0 --> s2", "s2 --> s1", "s1 --> s0"},
		},
		{
			name:        "Ping Pong Line",
			behavior:    domain.BehaviorPingPong,
			contains:    []string{"s0 <--> s1", "s1 <--> s2"},
			notContains: []string{"s2 <--> s0"},
		},
		{
			name:     "Fix Self Loop",
			behavior: domain.BehaviorFix,
			contains: []string{"s1 --> s1"},
		},
		{
			name:        "Random Has No Edges",
			behavior:    domain.BehaviorRandom,
			notContains: []string{"-->", "<-->"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(state, tt.behavior)
			for _, want := range append(tt.contains, `s0["0: red"]`, `s1["1: say 'hi'"]`, "class s1 current;") {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.notContains {
				if strings.Contains(got, unwanted) {
					t.Errorf("expected output not to contain %q, got:\n%s", unwanted, got)
				}
			}
		})
	}
}

func TestGenerateMermaid_Empty(t *testing.T) {
	got := graph.GenerateMermaid(nil, domain.BehaviorIncrement)
	if !strings.Contains(got, "no segments") {
		t.Errorf("expected placeholder node, got:\n%s", got)
	}
}

func TestGenerateMermaid_Uninitialized(t *testing.T) {
	got := graph.GenerateMermaid(&domain.State{Collection: []string{"a"}}, domain.BehaviorFix)
	if strings.Contains(got, "classDef current") {
		t.Errorf("uninitialized state must not highlight a segment, got:\n%s", got)
	}
}
