package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/matchnarrator/internal/cache"
	"github.com/fortuna/matchnarrator/internal/ingest/statsbomb"
	"github.com/fortuna/matchnarrator/internal/match"
)

// WelcomeMessage is served on the root path
const WelcomeMessage = "O servidor está no ar!"

// MatchReader is the statistics lookup surface used by the read endpoints
type MatchReader interface {
	GetLineups(ctx context.Context, matchID int) match.Result[[]statsbomb.Lineup]
	GetEvents(ctx context.Context, matchID int) match.Result[[]match.EventRecord]
	GetPlayerStats(ctx context.Context, matchID int) match.Result[[]match.PlayerStatsRecord]
	GetPlayers(ctx context.Context, matchID int) match.Result[[]string]
	GetPassMap(ctx context.Context, matchID int, player string) match.Result[[]match.PassMapEntry]
	ListCompetitions(ctx context.Context) match.Result[[]statsbomb.Competition]
	ListMatches(ctx context.Context, competitionID, seasonID int) match.Result[[]statsbomb.Match]
	GetMatchInfo(ctx context.Context, competitionID, seasonID, matchID int) match.Result[statsbomb.MatchInfo]
}

// Narrator builds LLM narratives
type Narrator interface {
	BuildMatchNarrative(ctx context.Context, matchID int, matchInfo string) (string, error)
	BuildPlayerNarrative(ctx context.Context, matchID int, player string) (string, error)
}

// CacheMonitor reports response cache counters and store reachability
type CacheMonitor interface {
	Stats() (cache.TransportStats, bool)
	HealthCheck(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	matches  MatchReader
	narrator Narrator
	cache    CacheMonitor
	logger   *logrus.Entry
}

// NewHandler creates a new handler; cacheStats may be nil
func NewHandler(matches MatchReader, narrator Narrator, cacheStats CacheMonitor, logger *logrus.Logger) *Handler {
	return &Handler{
		matches:  matches,
		narrator: narrator,
		cache:    cacheStats,
		logger:   logger.WithField("component", "rest"),
	}
}

// Root returns the welcome message
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": WelcomeMessage})
}

// HealthCheck handles health check requests. An unreachable cache store
// reports degraded with 503.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{
		"status":  "healthy",
		"service": "matchnarrator",
	}
	if h.cache != nil {
		if stats, ok := h.cache.Stats(); ok {
			body["cache"] = stats
			if err := h.cache.HealthCheck(r.Context()); err != nil {
				h.logger.WithError(err).Warn("Cache store health check failed")
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body["cache_error"] = err.Error()
			}
		} else {
			body["cache"] = "not initialized"
		}
	}
	respondJSON(w, status, body)
}

// GetCompetitions lists every competition season
func (h *Handler) GetCompetitions(w http.ResponseWriter, r *http.Request) {
	respondResult(w, h.matches.ListCompetitions(r.Context()), "Failed to fetch competitions")
}

// GetSeasonMatches lists the matches of a competition season
func (h *Handler) GetSeasonMatches(w http.ResponseWriter, r *http.Request) {
	competitionID, ok := pathID(w, r, "competitionID")
	if !ok {
		return
	}
	seasonID, ok := pathID(w, r, "seasonID")
	if !ok {
		return
	}
	respondResult(w, h.matches.ListMatches(r.Context(), competitionID, seasonID), "Failed to fetch matches")
}

// GetMatchInfo returns the flattened metadata of one match
func (h *Handler) GetMatchInfo(w http.ResponseWriter, r *http.Request) {
	competitionID, ok := pathID(w, r, "competitionID")
	if !ok {
		return
	}
	seasonID, ok := pathID(w, r, "seasonID")
	if !ok {
		return
	}
	matchID, ok := pathID(w, r, "matchID")
	if !ok {
		return
	}
	respondResult(w, h.matches.GetMatchInfo(r.Context(), competitionID, seasonID, matchID), "Failed to fetch match info")
}

// GetMatchPlayers returns the derived roster of a match
func (h *Handler) GetMatchPlayers(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathID(w, r, "matchID")
	if !ok {
		return
	}
	respondResult(w, h.matches.GetPlayers(r.Context(), matchID), "Failed to fetch players")
}

// GetMatchEvents returns the chronological event list of a match
func (h *Handler) GetMatchEvents(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathID(w, r, "matchID")
	if !ok {
		return
	}
	respondResult(w, h.matches.GetEvents(r.Context(), matchID), "Failed to fetch events")
}

// GetMatchLineups returns both team rosters
func (h *Handler) GetMatchLineups(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathID(w, r, "matchID")
	if !ok {
		return
	}
	respondResult(w, h.matches.GetLineups(r.Context(), matchID), "Failed to fetch lineups")
}

// GetMatchStats returns statistics for every rostered player
func (h *Handler) GetMatchStats(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathID(w, r, "matchID")
	if !ok {
		return
	}
	respondResult(w, h.matches.GetPlayerStats(r.Context(), matchID), "Failed to compute player stats")
}

// GetPlayerPasses returns a player's pass map
func (h *Handler) GetPlayerPasses(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathID(w, r, "matchID")
	if !ok {
		return
	}
	player := mux.Vars(r)["playerName"]
	respondResult(w, h.matches.GetPassMap(r.Context(), matchID, player), "Failed to build pass map")
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		respondKindError(w, http.StatusBadRequest, KindValidation, "Invalid "+name,
			&ValidationError{Field: name, Reason: "must be a positive integer"})
		return 0, false
	}
	return id, true
}

func respondResult[T any](w http.ResponseWriter, res match.Result[T], message string) {
	if !res.OK() {
		kind := errorKind(res.Err)
		respondKindError(w, lookupStatus(kind), kind, message, res.Err)
		return
	}
	respondJSON(w, http.StatusOK, res.Value)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	respondKindError(w, status, "", message, err)
}

func respondKindError(w http.ResponseWriter, status int, kind, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if kind != "" {
		response["kind"] = kind
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
