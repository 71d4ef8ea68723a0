package narrative

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/matchnarrator/internal/ingest/statsbomb"
	"github.com/fortuna/matchnarrator/internal/llm"
	"github.com/fortuna/matchnarrator/internal/match"
)

// DefaultGenerationTimeout bounds a single text generation call
const DefaultGenerationTimeout = 60 * time.Second

// Kind names the narrative flavour
type Kind string

const (
	KindMatchSummary  Kind = "match_summary"
	KindPlayerProfile Kind = "player_profile"
)

// GenerationError wraps a failed or empty text generation
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating narrative: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// MatchData is the statistics source the narratives are built from
type MatchData interface {
	GetLineups(ctx context.Context, matchID int) match.Result[[]statsbomb.Lineup]
	GetEvents(ctx context.Context, matchID int) match.Result[[]match.EventRecord]
	GetPlayerStats(ctx context.Context, matchID int) match.Result[[]match.PlayerStatsRecord]
	GetPlayerStat(ctx context.Context, matchID int, player string) match.Result[match.PlayerStatsRecord]
}

// Narrative is a generated text with its request context
type Narrative struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	MatchID     int       `json:"match_id"`
	Player      string    `json:"player,omitempty"`
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Announcer receives every successfully generated narrative
type Announcer interface {
	Announce(ctx context.Context, n Narrative) error
}

// policy decides what a failed section does to the whole request
type policy int

const (
	// degradeSection embeds an {"error": ...} marker in the prompt
	degradeSection policy = iota
	// requireSection aborts the request
	requireSection
)

// Config configures the narrative service
type Config struct {
	Options           llm.Options
	GenerationTimeout time.Duration
}

// Service builds match and player narratives
type Service struct {
	data       MatchData
	generator  llm.Generator
	cfg        Config
	announcers []Announcer
	logger     *logrus.Entry
	now        func() time.Time
}

// NewService creates a narrative service
func NewService(data MatchData, generator llm.Generator, cfg Config, logger *logrus.Logger, announcers ...Announcer) *Service {
	if cfg.Options == (llm.Options{}) {
		cfg.Options = llm.DefaultOptions()
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = DefaultGenerationTimeout
	}
	return &Service{
		data:       data,
		generator:  generator,
		cfg:        cfg,
		announcers: announcers,
		logger:     logger.WithField("component", "narrative"),
		now:        time.Now,
	}
}

// BuildMatchNarrative summarizes a match from its lineups, events and
// player statistics. Missing lineups, events or stats degrade into
// markers; roster failures and timeouts abort.
func (s *Service) BuildMatchNarrative(ctx context.Context, matchID int, matchInfo string) (string, error) {
	log := s.logger.WithFields(logrus.Fields{"match_id": matchID, "kind": KindMatchSummary})

	lineups, err := section(s.data.GetLineups(ctx, matchID), degradeSection)
	if err != nil {
		return "", err
	}
	events, err := section(s.data.GetEvents(ctx, matchID), degradeSection)
	if err != nil {
		return "", err
	}
	stats, err := section(s.data.GetPlayerStats(ctx, matchID), degradeSection)
	if err != nil {
		return "", err
	}

	var data matchSummaryData
	if data.Lineups, err = toYAML(lineups); err != nil {
		return "", err
	}
	if data.MatchInfo, err = toYAML(matchInfo); err != nil {
		return "", err
	}
	if data.Events, err = toYAML(events); err != nil {
		return "", err
	}
	if data.PlayerStats, err = toYAML(stats); err != nil {
		return "", err
	}

	prompt, err := render(matchSummaryTemplate, data)
	if err != nil {
		return "", err
	}

	text, err := s.generate(ctx, prompt, log)
	if err != nil {
		return "", err
	}

	s.announce(ctx, Narrative{Kind: KindMatchSummary, MatchID: matchID, Text: text}, log)
	return text, nil
}

// BuildPlayerNarrative profiles one player from their statistics and the
// match event list. Player stats are required; events degrade.
func (s *Service) BuildPlayerNarrative(ctx context.Context, matchID int, player string) (string, error) {
	log := s.logger.WithFields(logrus.Fields{"match_id": matchID, "player": player, "kind": KindPlayerProfile})

	stat := s.data.GetPlayerStat(ctx, matchID, player)
	if _, err := section(stat, requireSection); err != nil {
		return "", err
	}
	events, err := section(s.data.GetEvents(ctx, matchID), degradeSection)
	if err != nil {
		return "", err
	}

	var data playerProfileData
	if data.PlayerStats, err = toYAML(newPlayerProfileStats(stat.Value)); err != nil {
		return "", err
	}
	if data.Events, err = toYAML(events); err != nil {
		return "", err
	}

	prompt, err := render(playerProfileTemplate, data)
	if err != nil {
		return "", err
	}

	text, err := s.generate(ctx, prompt, log)
	if err != nil {
		return "", err
	}

	s.announce(ctx, Narrative{Kind: KindPlayerProfile, MatchID: matchID, Player: player, Text: text}, log)
	return text, nil
}

// section applies a call-site policy to one fetched section. Timeouts and
// roster failures always abort.
func section[T any](res match.Result[T], p policy) (any, error) {
	if res.OK() {
		return res.Value, nil
	}
	if p == requireSection || errors.Is(res.Err, match.ErrTimeout) || errors.Is(res.Err, match.ErrPlayerRoster) {
		return nil, res.Err
	}
	return res.Payload(), nil
}

func (s *Service) generate(ctx context.Context, prompt string, log *logrus.Entry) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	start := s.now()
	text, err := s.generator.Generate(ctx, prompt, s.cfg.Options)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", match.ErrTimeout, err)
		}
		log.WithError(err).Error("Narrative generation failed")
		return "", &GenerationError{Err: err}
	}
	if text == "" {
		return "", &GenerationError{Err: llm.ErrEmptyCompletion}
	}

	log.WithFields(logrus.Fields{
		"prompt_chars": len(prompt),
		"duration_ms":  s.now().Sub(start).Milliseconds(),
	}).Info("Narrative generated")
	return text, nil
}

func (s *Service) announce(ctx context.Context, n Narrative, log *logrus.Entry) {
	if len(s.announcers) == 0 {
		return
	}
	n.ID = uuid.NewString()
	n.GeneratedAt = s.now().UTC()

	for _, a := range s.announcers {
		if err := a.Announce(ctx, n); err != nil {
			log.WithError(err).Warn("Failed to announce narrative")
		}
	}
}
