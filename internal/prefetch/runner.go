package prefetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent match warm-ups
const DefaultWorkers = 4

// Runner warms the response cache for whole seasons or single matches.
type Runner struct {
	provider Provider
}

// NewRunner constructs a runner over a cached provider client.
func NewRunner(provider Provider) *Runner {
	return &Runner{provider: provider}
}

// Run executes the job spec, reporting progress via the Reporter if provided.
// A failed match does not stop the others; all failures are returned joined.
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) error {
	if reporter == nil {
		reporter = nopReporter{}
	}
	reporter.OnJobStart(spec)

	matchIDs, err := r.resolveMatches(ctx, spec)
	if err != nil {
		reporter.OnJobError(err)
		return err
	}
	if len(matchIDs) == 0 {
		reporter.OnProgress("No matches to process", 0, 0)
		reporter.OnJobComplete()
		return nil
	}

	if spec.DryRun {
		reporter.OnProgress(fmt.Sprintf("Dry-run mode: %d matches would be fetched", len(matchIDs)), 0, len(matchIDs))
		reporter.OnJobComplete()
		return nil
	}

	workers := spec.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var (
		done     atomic.Int64
		mu       sync.Mutex
		failures []error
	)
	total := len(matchIDs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range matchIDs {
		id := id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := r.warmMatch(gctx, id); err != nil {
				reporter.OnJobError(err)
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			} else {
				reporter.OnMatchWarmed(id)
			}
			reporter.OnProgress(fmt.Sprintf("Match %d done", id), int(done.Add(1)), total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		reporter.OnJobError(err)
		return err
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d matches failed: %w", len(failures), total, errors.Join(failures...))
	}
	reporter.OnJobComplete()
	return nil
}

func (r *Runner) resolveMatches(ctx context.Context, spec JobSpec) ([]int, error) {
	switch spec.Type {
	case JobTypeMatch:
		if len(spec.MatchIDs) == 0 {
			return nil, fmt.Errorf("no match IDs provided for job type 'match'")
		}
		return spec.MatchIDs, nil
	case JobTypeSeason:
		matches, err := r.provider.FetchMatches(ctx, spec.CompetitionID, spec.SeasonID)
		if err != nil {
			return nil, fmt.Errorf("listing matches for competition %d season %d: %w", spec.CompetitionID, spec.SeasonID, err)
		}
		ids := make([]int, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, m.MatchID)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("unsupported job type %q", spec.Type)
	}
}

// warmMatch fetches the two payloads every narrative needs
func (r *Runner) warmMatch(ctx context.Context, matchID int) error {
	if _, err := r.provider.FetchLineups(ctx, matchID); err != nil {
		return fmt.Errorf("match %d lineups: %w", matchID, err)
	}
	if _, err := r.provider.FetchEvents(ctx, matchID); err != nil {
		return fmt.Errorf("match %d events: %w", matchID, err)
	}
	return nil
}

type nopReporter struct{}

func (nopReporter) OnJobStart(JobSpec) {}
func (nopReporter) OnMatchWarmed(int) {}
func (nopReporter) OnProgress(string, int, int) {}
func (nopReporter) OnJobComplete() {}
func (nopReporter) OnJobError(error) {}
