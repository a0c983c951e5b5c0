package explorer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Fleet runs one explorer per evidence source concurrently. Runs share no
// mutable state, so the only coordination is the fan-out itself.
type Fleet struct {
	runner *Runner
	limit  int
}

// NewFleet creates a fleet over the given runner. limit caps how many
// explorers run at once; <= 0 means unbounded.
func NewFleet(runner *Runner, limit int) *Fleet {
	return &Fleet{runner: runner, limit: limit}
}

// Explore runs every source and returns one report per source, in source
// order. A run that panics is isolated into a degraded report for its source
// rather than aborting the others.
func (f *Fleet) Explore(ctx context.Context, sources []Source) []*ExplorerReport {
	reports := make([]*ExplorerReport, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	if f.limit > 0 {
		g.SetLimit(f.limit)
	}

	for i, source := range sources {
		g.Go(func() error {
			reports[i] = f.safeRun(ctx, source)
			return nil
		})
	}
	// Runs never return errors; Wait only synchronizes the fan-out.
	_ = g.Wait()

	return reports
}

func (f *Fleet) safeRun(ctx context.Context, source Source) (report *ExplorerReport) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("source", source.Name()).Any("panic", r).Msg("explorer run panicked")
			report = &ExplorerReport{
				SourceName: source.Name(),
				Findings:   []string{fmt.Sprintf("explorer run failed: %v", r)},
			}
		}
	}()
	return f.runner.Run(ctx, source)
}
