package cli

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/selector"
	"github.com/aretw0/selector/internal/logging"
	"github.com/aretw0/selector/pkg/domain"
)

// DefaultWatchInterval is how often the watched file is polled.
const DefaultWatchInterval = 500 * time.Millisecond

// WatchOptions configures RunWatch.
type WatchOptions struct {
	Request  domain.Request
	Path     string
	Interval time.Duration
	Logger   *slog.Logger
}

// RunWatch selects from the contents of a file every time it changes, until ctx is done.
// The file is the text source; the rest of the request is reused on every change.
func RunWatch(ctx context.Context, eng *selector.Engine, opts WatchOptions, out io.Writer) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Starting Watcher", "path", opts.Path, "key", opts.Request.Key)
	printSystemMessage(out, "Watching '%s' for key '%s'.", opts.Path, opts.Request.Key)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last [md5.Size]byte
	seen := false
	for {
		data, err := os.ReadFile(opts.Path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("Watched file missing", "path", opts.Path)
		case err != nil:
			return fmt.Errorf("failed to read %s: %w", opts.Path, err)
		default:
			sum := md5.Sum(data)
			if !seen || sum != last {
				seen, last = true, sum

				req := opts.Request
				req.Text = string(data)
				res, err := eng.Select(ctx, req)
				if err != nil {
					return err
				}
				if res.Total == 0 {
					printSystemMessage(out, "No segments in '%s'.", opts.Path)
				} else {
					fmt.Fprintf(out, "[%d/%d] %s\n", res.Index+1, res.Total, res.Segment)
				}
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
