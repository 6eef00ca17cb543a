package selector

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/selector/pkg/domain"
	"github.com/aretw0/selector/pkg/ports"
)

// Runner drives an engine from line-oriented input, acting as a minimal host.
// Every line is one invocation: a blank line re-invokes with the current text,
// any other line replaces the text first. "exit" or "quit" stops the loop.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer

	// Request holds the parameters reused by every invocation.
	Request domain.Request
}

// ContentRenderer is a function that transforms the selected segment before outputting it.
// This allows for TUI rendering without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a new Runner for the given base request.
// Input and Output must be set before Run.
func NewRunner(req domain.Request) *Runner {
	return &Runner{Request: req}
}

// Run executes the host loop until EOF, "exit" or an engine error.
func (r *Runner) Run(ctx context.Context, engine ports.Selector) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)
	writer := r.Output

	if !r.Headless {
		fmt.Fprintln(writer, "--- Selector (Runner) ---")
		fmt.Fprintln(writer, "Enter new text, or an empty line to select again.")
	}

	req := r.Request
	for {
		if !r.Headless {
			fmt.Fprint(writer, "> ")
		}
		line, err := lineReader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("input error: %w", err)
		}
		eof := err == io.EOF

		input := strings.TrimSpace(line)
		if input == "exit" || input == "quit" {
			if !r.Headless {
				fmt.Fprintln(writer, "Bye!")
			}
			return nil
		}
		if eof && input == "" {
			return nil
		}
		if input != "" {
			req.Text = input
		}

		res, err := engine.Select(ctx, req)
		if err != nil {
			return fmt.Errorf("select error: %w", err)
		}
		r.print(res)

		if eof {
			return nil
		}
	}
}

func (r *Runner) print(res domain.Result) {
	output := res.Segment
	if r.Renderer != nil && output != "" {
		if rendered, err := r.Renderer(output); err == nil {
			output = rendered
		}
	}
	if r.Headless {
		fmt.Fprintln(r.Output, output)
		return
	}
	if res.Total == 0 {
		fmt.Fprintln(r.Output, "(no segments)")
		return
	}
	fmt.Fprintf(r.Output, "[%d/%d] %s\n", res.Index+1, res.Total, strings.TrimSpace(output))
}
