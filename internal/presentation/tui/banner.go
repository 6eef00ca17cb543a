package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Indigo/Violet)
	lines := []struct {
		text  string
		color string
	}{
		{`           _           _             `, "#818cf8"},
		{`  ___  ___| | ___  ___| |_ ___  _ __ `, "#a78bfa"},
		{` / __|/ _ \ |/ _ \/ __| __/ _ \| '__|`, "#c084fc"},
		{` \__ \  __/ |  __/ (__| || (_) | |   `, "#e879f9"},
		{` |___/\___|_|\___|\___|\__\___/|_|   `, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}

// Highlight renders a selected segment in bold accent color.
// It satisfies selector.ContentRenderer.
func Highlight(segment string) (string, error) {
	p := termenv.ColorProfile()
	return termenv.String(segment).Bold().Foreground(p.Color("#c084fc")).String(), nil
}
