package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type matchSummaryRequest struct {
	MatchID   json.RawMessage `json:"match_id"`
	MatchInfo *string         `json:"match_info"`
}

type playerProfileRequest struct {
	MatchID    json.RawMessage `json:"match_id"`
	PlayerName *string         `json:"player_name"`
}

// NarrativeResponse carries the generated text
type NarrativeResponse struct {
	Assistant string `json:"assistant"`
}

// MatchSummary handles POST /summary/match_summary
func (h *Handler) MatchSummary(w http.ResponseWriter, r *http.Request) {
	var req matchSummaryRequest
	if err := decodeBody(r, &req); err != nil {
		h.narrativeError(w, r, err)
		return
	}
	matchID, err := parseMatchID(req.MatchID)
	if err != nil {
		h.narrativeError(w, r, err)
		return
	}
	if req.MatchInfo == nil {
		h.narrativeError(w, r, &ValidationError{Field: "match_info", Reason: "is required"})
		return
	}

	text, err := h.narrator.BuildMatchNarrative(r.Context(), matchID, *req.MatchInfo)
	if err != nil {
		h.narrativeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, NarrativeResponse{Assistant: text})
}

// PlayerProfile handles POST /profile/player_profile
func (h *Handler) PlayerProfile(w http.ResponseWriter, r *http.Request) {
	var req playerProfileRequest
	if err := decodeBody(r, &req); err != nil {
		h.narrativeError(w, r, err)
		return
	}
	matchID, err := parseMatchID(req.MatchID)
	if err != nil {
		h.narrativeError(w, r, err)
		return
	}
	if req.PlayerName == nil || strings.TrimSpace(*req.PlayerName) == "" {
		h.narrativeError(w, r, &ValidationError{Field: "player_name", Reason: "is required"})
		return
	}

	text, err := h.narrator.BuildPlayerNarrative(r.Context(), matchID, *req.PlayerName)
	if err != nil {
		h.narrativeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, NarrativeResponse{Assistant: text})
}

// narrativeError reports every narrative failure as 422 with its kind
func (h *Handler) narrativeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errorKind(err)
	h.logger.WithError(err).WithFields(logrus.Fields{
		"request_id": RequestID(r.Context()),
		"kind":       kind,
		"path":       r.URL.Path,
	}).Warn("Narrative request failed")
	respondKindError(w, http.StatusUnprocessableEntity, kind, "Failed to generate narrative", err)
}

func decodeBody(r *http.Request, dest interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return &ValidationError{Field: "body", Reason: err.Error()}
	}
	if len(body) > maxBodyBytes {
		return &ValidationError{Field: "body", Reason: "too large"}
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

// parseMatchID accepts only a positive JSON integer literal
func parseMatchID(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, &ValidationError{Field: "match_id", Reason: "is required"}
	}
	id, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, &ValidationError{Field: "match_id", Reason: fmt.Sprintf("must be an integer, got %s", raw)}
	}
	if id <= 0 {
		return 0, &ValidationError{Field: "match_id", Reason: "must be positive"}
	}
	return id, nil
}
