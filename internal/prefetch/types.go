package prefetch

import (
	"context"

	"github.com/fortuna/matchnarrator/internal/ingest/statsbomb"
)

// JobType enumerates the supported prefetch job variants.
type JobType string

const (
	JobTypeSeason JobType = "season"
	JobTypeMatch  JobType = "match"
)

// JobSpec describes the work to be performed by the runner.
type JobSpec struct {
	Type          JobType
	CompetitionID int
	SeasonID      int
	MatchIDs      []int
	Workers       int
	DryRun        bool
}

// Reporter receives lifecycle callbacks from the runner. Callbacks may
// arrive from several workers at once.
type Reporter interface {
	OnJobStart(spec JobSpec)
	OnMatchWarmed(matchID int)
	OnProgress(message string, current int, total int)
	OnJobComplete()
	OnJobError(err error)
}

// Provider is the subset of the data provider a warm-up touches. Every
// call goes through the shared response cache.
type Provider interface {
	FetchMatches(ctx context.Context, competitionID, seasonID int) ([]statsbomb.Match, error)
	FetchLineups(ctx context.Context, matchID int) ([]statsbomb.Lineup, error)
	FetchEvents(ctx context.Context, matchID int) ([]statsbomb.RawEvent, error)
}
