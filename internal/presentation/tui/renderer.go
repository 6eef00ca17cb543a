package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/selector/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// IsTerminal reports whether f is an interactive terminal.
// Rich output (colors, markdown) is only used when it is.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)

	return func(markdown string) (string, error) {
		if err != nil {
			return markdown, err
		}
		return r.Render(markdown)
	}
}

// StateMarkdown describes a stored state as a markdown document.
func StateMarkdown(key string, state *domain.State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Selector `%s`\n\n", key)

	direction := "forward"
	if state.Direction == domain.DirectionBackward {
		direction = "backward"
	}

	sb.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Initialized | %t |\n", state.Initialized)
	fmt.Fprintf(&sb, "| Next index | %d |\n", state.CurrentIndex)
	fmt.Fprintf(&sb, "| Ping-pong direction | %s |\n", direction)
	fmt.Fprintf(&sb, "| Segments | %d |\n", len(state.Collection))
	if !state.UpdatedAt.IsZero() {
		fmt.Fprintf(&sb, "| Updated | %s |\n", state.UpdatedAt.Format(time.RFC3339))
	}

	if len(state.Collection) > 0 {
		sb.WriteString("\n## Segments\n\n")
		for i, seg := range state.Collection {
			marker := ""
			if state.Initialized && i == state.CurrentIndex {
				marker = " **← next**"
			}
			fmt.Fprintf(&sb, "%d. %s%s\n", i, seg, marker)
		}
	}
	return sb.String()
}
