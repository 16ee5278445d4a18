package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/retroenv/retrogolib/log"
	"golang.org/x/sync/errgroup"

	"github.com/richardwooding/dmgcore/internal/testrom"
)

// TestCmd runs test ROMs and reports results.
type TestCmd struct {
	ROMs       []string      `arg:"" name:"rom" type:"existingfile" help:"Paths to test ROM files."`
	Timeout    time.Duration `default:"30s" help:"Give up after this long without new serial output."`
	Jobs       int           `short:"j" default:"4" help:"Number of ROMs to run at once."`
	ShowOutput bool          `help:"Show serial output for passing ROMs too."`
}

// Run executes the test command.
func (c *TestCmd) Run(ctx context.Context, logger *log.Logger) error {
	results := make([]*testrom.Result, len(c.ROMs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.Jobs, 1))
	for i, path := range c.ROMs {
		g.Go(func() error {
			logger.Debug("Running test ROM", log.String("file", path))
			results[i] = testrom.Run(ctx, path, c.Timeout, logger)
			return nil
		})
	}
	_ = g.Wait()

	failed := report(os.Stdout, results, c.ShowOutput)
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrTestFailed, failed, len(results))
	}
	return nil
}

// report prints one line per result and returns the number of failures.
func report(w io.Writer, results []*testrom.Result, verbose bool) int {
	failed := 0
	for _, result := range results {
		_, _ = fmt.Fprintf(w, "%-8s %s\n", result, result.Path)
		if !result.IsSuccess() {
			failed++
		}
		if (verbose || !result.IsSuccess()) && result.Output != "" {
			_, _ = fmt.Fprintf(w, "\nOutput:\n%s\n\n", result.Output)
		}
	}
	return failed
}
