package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/selector/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of how behavior walks the stored collection.
// Segments are nodes; edges are the possible moves from one call to the next:
//   - increment / decrement: a ring in the travel direction
//   - ping-pong: a line traversed in both directions
//   - fix: a self loop on the stored index
//   - random: no edges, every segment is reachable from every other one
//
// The segment that the next call will use is highlighted when the state is initialized.
func GenerateMermaid(state *domain.State, behavior domain.Behavior) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	if state == nil || len(state.Collection) == 0 {
		sb.WriteString("    empty((\"no segments\"))\n")
		return sb.String()
	}

	n := len(state.Collection)
	for i, seg := range state.Collection {
		// Escape double quotes in the label for Mermaid
		label := strings.ReplaceAll(seg, "\"", "'")
		sb.WriteString(fmt.Sprintf("    %s[\"%d: %s\"]\n", nodeID(i), i, label))
	}

	switch behavior {
	case domain.BehaviorIncrement:
		for i := 0; i < n; i++ {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", nodeID(i), nodeID((i+1)%n)))
		}
	case domain.BehaviorDecrement:
		for i := 0; i < n; i++ {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", nodeID(i), nodeID((i-1+n)%n)))
		}
	case domain.BehaviorPingPong:
		for i := 0; i+1 < n; i++ {
			sb.WriteString(fmt.Sprintf("    %s <--> %s\n", nodeID(i), nodeID(i+1)))
		}
	case domain.BehaviorFix:
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", nodeID(state.CurrentIndex), nodeID(state.CurrentIndex)))
	}

	if state.Initialized {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString(fmt.Sprintf("    class %s current;\n", nodeID(state.CurrentIndex)))
	}

	return sb.String()
}

func nodeID(i int) string {
	return fmt.Sprintf("s%d", i)
}
