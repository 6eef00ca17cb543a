package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/selector"
	"github.com/aretw0/selector/pkg/domain"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Request  domain.Request
	Headless bool
	Fresh    bool
	Renderer selector.ContentRenderer
}

// Run drives the engine from line input until EOF, "exit" or interruption.
func Run(ctx context.Context, eng *selector.Engine, opts RunOptions, in io.Reader, out io.Writer) error {
	if opts.Fresh {
		if err := eng.Reset(ctx, opts.Request.Key); err != nil {
			return fmt.Errorf("failed to reset %q: %w", opts.Request.Key, err)
		}
	}

	r := selector.NewRunner(opts.Request)
	r.Input = in
	r.Output = out
	r.Headless = opts.Headless
	r.Renderer = opts.Renderer

	return HandleExecutionError(r.Run(ctx, eng))
}
