package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/matchnarrator/internal/ingest/statsbomb"
	"github.com/fortuna/matchnarrator/internal/match"
)

// DefaultProviderTimeout bounds a single provider lookup
const DefaultProviderTimeout = 15 * time.Second

// ErrMatchNotFound is returned when a match is absent from its season listing
var ErrMatchNotFound = errors.New("match not found")

// Provider is the read-only sports data source
type Provider interface {
	FetchCompetitions(ctx context.Context) ([]statsbomb.Competition, error)
	FetchMatches(ctx context.Context, competitionID, seasonID int) ([]statsbomb.Match, error)
	FetchLineups(ctx context.Context, matchID int) ([]statsbomb.Lineup, error)
	FetchEvents(ctx context.Context, matchID int) ([]statsbomb.RawEvent, error)
}

// MatchService fetches provider data and derives match statistics.
// Every operation returns a match.Result so the caller picks the
// degrade-or-abort policy.
type MatchService struct {
	provider Provider
	timeout  time.Duration
	logger   *logrus.Entry
}

// NewMatchService creates a new match service
func NewMatchService(provider Provider, timeout time.Duration, logger *logrus.Logger) *MatchService {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &MatchService{
		provider: provider,
		timeout:  timeout,
		logger:   logger.WithField("component", "match-service"),
	}
}

// GetLineups returns both rosters of a match
func (s *MatchService) GetLineups(ctx context.Context, matchID int) match.Result[[]statsbomb.Lineup] {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	lineups, err := s.provider.FetchLineups(ctx, matchID)
	if err != nil {
		return match.Fail[[]statsbomb.Lineup](s.fetchFailed(err, "fetching lineups", matchID))
	}
	return match.Ok(lineups)
}

// GetEvents returns the projected event list sorted by (minute, timestamp)
func (s *MatchService) GetEvents(ctx context.Context, matchID int) match.Result[[]match.EventRecord] {
	events, err := s.events(ctx, matchID)
	if err != nil {
		return match.Fail[[]match.EventRecord](err)
	}
	return match.Ok(match.ChronologicalRecords(events))
}

// GetPlayerStats computes statistics for every rostered player
func (s *MatchService) GetPlayerStats(ctx context.Context, matchID int) match.Result[[]match.PlayerStatsRecord] {
	events, err := s.events(ctx, matchID)
	if err != nil {
		return match.Fail[[]match.PlayerStatsRecord](err)
	}

	records, err := match.ComputeMatchStats(events)
	if err != nil {
		s.logger.WithError(err).WithField("match_id", matchID).Warn("Roster derivation failed")
		return match.Fail[[]match.PlayerStatsRecord](err)
	}
	return match.Ok(records)
}

// GetPlayerStat computes statistics for one player. An unknown player
// yields zero counters, not an error.
func (s *MatchService) GetPlayerStat(ctx context.Context, matchID int, player string) match.Result[match.PlayerStatsRecord] {
	events, err := s.events(ctx, matchID)
	if err != nil {
		return match.Fail[match.PlayerStatsRecord](err)
	}
	return match.Ok(match.PlayerRecord(events, player))
}

// GetPlayers returns the derived roster of a match
func (s *MatchService) GetPlayers(ctx context.Context, matchID int) match.Result[[]string] {
	events, err := s.events(ctx, matchID)
	if err != nil {
		return match.Fail[[]string](err)
	}

	players, err := match.DerivePlayers(events)
	if err != nil {
		return match.Fail[[]string](err)
	}
	return match.Ok(players)
}

// GetPassMap returns a player's passes in match order
func (s *MatchService) GetPassMap(ctx context.Context, matchID int, player string) match.Result[[]match.PassMapEntry] {
	events, err := s.events(ctx, matchID)
	if err != nil {
		return match.Fail[[]match.PassMapEntry](err)
	}
	return match.Ok(match.BuildPassMap(events, player))
}

// ListCompetitions returns every available competition season
func (s *MatchService) ListCompetitions(ctx context.Context) match.Result[[]statsbomb.Competition] {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	comps, err := s.provider.FetchCompetitions(ctx)
	if err != nil {
		return match.Fail[[]statsbomb.Competition](s.fetchFailed(err, "fetching competitions", 0))
	}
	return match.Ok(comps)
}

// ListMatches returns the matches of a competition season
func (s *MatchService) ListMatches(ctx context.Context, competitionID, seasonID int) match.Result[[]statsbomb.Match] {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	matches, err := s.provider.FetchMatches(ctx, competitionID, seasonID)
	if err != nil {
		return match.Fail[[]statsbomb.Match](s.fetchFailed(err, "fetching matches", 0))
	}
	return match.Ok(matches)
}

// GetMatchInfo flattens one match of a season listing
func (s *MatchService) GetMatchInfo(ctx context.Context, competitionID, seasonID, matchID int) match.Result[statsbomb.MatchInfo] {
	matches := s.ListMatches(ctx, competitionID, seasonID)
	if !matches.OK() {
		return match.Fail[statsbomb.MatchInfo](matches.Err)
	}

	for _, m := range matches.Value {
		if m.MatchID == matchID {
			return match.Ok(statsbomb.ParseMatchInfo(m))
		}
	}
	return match.Fail[statsbomb.MatchInfo](fmt.Errorf("%w: %d in competition %d season %d",
		ErrMatchNotFound, matchID, competitionID, seasonID))
}

func (s *MatchService) events(ctx context.Context, matchID int) ([]match.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.provider.FetchEvents(ctx, matchID)
	if err != nil {
		return nil, s.fetchFailed(err, "fetching events", matchID)
	}
	return statsbomb.ParseEvents(raw), nil
}

func (s *MatchService) fetchFailed(err error, op string, matchID int) error {
	err = fmt.Errorf("%s: %w", op, classify(err))

	log := s.logger.WithError(err)
	if matchID != 0 {
		log = log.WithField("match_id", matchID)
	}
	log.Warn("Provider fetch failed")
	return err
}

// classify tags deadline expiry with match.ErrTimeout
func classify(err error) error {
	if errors.Is(err, match.ErrTimeout) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", match.ErrTimeout, err)
	}
	return err
}
