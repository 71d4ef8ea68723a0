package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/matchnarrator/internal/ingest/statsbomb"
	"github.com/fortuna/matchnarrator/internal/match"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) FetchCompetitions(ctx context.Context) ([]statsbomb.Competition, error) {
	args := m.Called(ctx)
	comps, _ := args.Get(0).([]statsbomb.Competition)
	return comps, args.Error(1)
}

func (m *mockProvider) FetchMatches(ctx context.Context, competitionID, seasonID int) ([]statsbomb.Match, error) {
	args := m.Called(ctx, competitionID, seasonID)
	matches, _ := args.Get(0).([]statsbomb.Match)
	return matches, args.Error(1)
}

func (m *mockProvider) FetchLineups(ctx context.Context, matchID int) ([]statsbomb.Lineup, error) {
	args := m.Called(ctx, matchID)
	lineups, _ := args.Get(0).([]statsbomb.Lineup)
	return lineups, args.Error(1)
}

func (m *mockProvider) FetchEvents(ctx context.Context, matchID int) ([]statsbomb.RawEvent, error) {
	args := m.Called(ctx, matchID)
	events, _ := args.Get(0).([]statsbomb.RawEvent)
	return events, args.Error(1)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func rawEvent(minute int, team, player, typ string) statsbomb.RawEvent {
	ev := statsbomb.RawEvent{
		Minute:    minute,
		Timestamp: fmt.Sprintf("00:%02d:00.000", minute%60),
		Type:      statsbomb.Ref{Name: typ},
		Team:      statsbomb.Ref{Name: team},
	}
	if player != "" {
		ev.Player = &statsbomb.Ref{Name: player}
	}
	return ev
}

// messiRawEvents is a 50 event feed around one player
func messiRawEvents() []statsbomb.RawEvent {
	const messi = "Lionel Messi"
	events := []statsbomb.RawEvent{
		rawEvent(0, "Barcelona", "", "Starting XI"),
		rawEvent(0, "Real Madrid", "", "Starting XI"),
	}

	for i := 0; i < 20; i++ {
		ev := rawEvent(1+i*4, "Barcelona", messi, "Pass")
		ev.Pass = &statsbomb.RawPass{}
		if i >= 12 {
			ev.Pass.Outcome = &statsbomb.Ref{Name: "Incomplete"}
		}
		events = append(events, ev)
	}
	for i := 0; i < 5; i++ {
		ev := rawEvent(10+i*15, "Barcelona", messi, "Shot")
		outcome := "Saved"
		if i < 2 {
			outcome = "Goal"
		}
		ev.Shot = &statsbomb.RawShot{
			Outcome: &statsbomb.Ref{Name: outcome},
			Type:    &statsbomb.Ref{Name: "Open Play"},
		}
		events = append(events, ev)
	}
	for i := 0; i < 3; i++ {
		ev := rawEvent(30+i*10, "Barcelona", messi, "Foul Committed")
		if i == 0 {
			ev.FoulCommitted = &statsbomb.RawFoul{Card: &statsbomb.Ref{Name: "Yellow Card"}}
		}
		events = append(events, ev)
	}
	for i := 0; i < 20; i++ {
		events = append(events, rawEvent(2+i*4, "Real Madrid", "Sergio Ramos", "Ball Recovery"))
	}
	return events
}

func TestMatchService_MessiScenario(t *testing.T) {
	provider := new(mockProvider)
	provider.On("FetchEvents", mock.Anything, 3943043).Return(messiRawEvents(), nil)

	svc := NewMatchService(provider, time.Second, testLogger())
	res := svc.GetPlayerStat(context.Background(), 3943043, "Lionel Messi")
	require.True(t, res.OK())

	stats := res.Value.Statistics
	assert.Equal(t, "Barcelona", res.Value.Team)
	assert.Equal(t, 20, stats.PassesAttempted)
	assert.Equal(t, 12, stats.PassesCompleted)
	assert.Equal(t, 5, stats.Shots)
	assert.Equal(t, 2, stats.GoalsNonPenalty)
	assert.Equal(t, 0, stats.GoalsPenalty)
	assert.Equal(t, 3, stats.FoulsCommitted)
	assert.Equal(t, 1, stats.YellowCards)
	assert.Len(t, messiRawEvents(), 50)
}

func TestMatchService_GetPlayerStats(t *testing.T) {
	provider := new(mockProvider)
	provider.On("FetchEvents", mock.Anything, 7).Return(messiRawEvents(), nil)

	svc := NewMatchService(provider, time.Second, testLogger())
	res := svc.GetPlayerStats(context.Background(), 7)
	require.True(t, res.OK())
	require.Len(t, res.Value, 2)

	assert.Equal(t, "Lionel Messi", res.Value[0].Player)
	assert.Equal(t, "Sergio Ramos", res.Value[1].Player)
	assert.Equal(t, "Real Madrid", res.Value[1].Team)
	assert.Equal(t, 20, res.Value[1].Statistics.BallRecoveries)

	single := svc.GetPlayerStat(context.Background(), 7, "Lionel Messi")
	assert.Equal(t, res.Value[0], single.Value)
}

func TestMatchService_GetPlayerStats_RosterError(t *testing.T) {
	provider := new(mockProvider)
	provider.On("FetchEvents", mock.Anything, 7).Return([]statsbomb.RawEvent{
		rawEvent(1, "Barcelona", "Lionel Messi", "Pass"),
		rawEvent(2, "Real Madrid", "Sergio Ramos", "Pass"),
	}, nil)

	svc := NewMatchService(provider, time.Second, testLogger())
	res := svc.GetPlayerStats(context.Background(), 7)

	require.False(t, res.OK())
	assert.ErrorIs(t, res.Err, match.ErrPlayerRoster)
	var rosterErr *match.RosterError
	assert.ErrorAs(t, res.Err, &rosterErr)
}

func TestMatchService_GetEvents_SortedProjection(t *testing.T) {
	late := rawEvent(5, "Barcelona", "Lionel Messi", "Pass")
	late.Timestamp = "00:05:30.000"
	late.Location = []float64{60, 40}
	late.Pass = &statsbomb.RawPass{EndLocation: []float64{70, 35}}
	early := rawEvent(3, "Barcelona", "", "Starting XI")
	mid := rawEvent(5, "Real Madrid", "Sergio Ramos", "Tackle")
	mid.Timestamp = "00:05:10.000"

	provider := new(mockProvider)
	provider.On("FetchEvents", mock.Anything, 7).Return([]statsbomb.RawEvent{late, early, mid}, nil)

	svc := NewMatchService(provider, time.Second, testLogger())
	res := svc.GetEvents(context.Background(), 7)
	require.True(t, res.OK())
	require.Len(t, res.Value, 3)

	assert.Equal(t, match.TypeStartingXI, res.Value[0].Type)
	assert.Nil(t, res.Value[0].Player)
	assert.Equal(t, match.TypeTackle, res.Value[1].Type)
	assert.Equal(t, []float64{70, 35}, res.Value[2].PassEndLocation)
}

func TestMatchService_FetchFailureIsErrorShaped(t *testing.T) {
	provider := new(mockProvider)
	provider.On("FetchLineups", mock.Anything, 99).
		Return(nil, &statsbomb.FetchError{URL: "http://x/lineups/99.json", StatusCode: 404})

	svc := NewMatchService(provider, time.Second, testLogger())
	res := svc.GetLineups(context.Background(), 99)

	require.False(t, res.OK())
	var fetchErr *statsbomb.FetchError
	assert.ErrorAs(t, res.Err, &fetchErr)

	payload, ok := res.Payload().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, payload["error"], "fetching lineups")
}

func TestMatchService_TimeoutKind(t *testing.T) {
	provider := new(mockProvider)
	provider.On("FetchEvents", mock.Anything, 7).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	svc := NewMatchService(provider, 20*time.Millisecond, testLogger())
	res := svc.GetEvents(context.Background(), 7)

	require.False(t, res.OK())
	assert.ErrorIs(t, res.Err, match.ErrTimeout)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestMatchService_GetMatchInfo(t *testing.T) {
	score := 3
	m := statsbomb.Match{MatchID: 3943043, MatchDate: "2024-07-14", HomeScore: &score}
	m.HomeTeam.HomeTeamName = "Spain"
	m.AwayTeam.AwayTeamName = "England"

	provider := new(mockProvider)
	provider.On("FetchMatches", mock.Anything, 55, 282).Return([]statsbomb.Match{m}, nil)

	svc := NewMatchService(provider, time.Second, testLogger())

	res := svc.GetMatchInfo(context.Background(), 55, 282, 3943043)
	require.True(t, res.OK())
	assert.Equal(t, "2024-07-14", res.Value.MatchDate)
	assert.Equal(t, "3", res.Value.HomeScore)
	assert.Equal(t, "N/A", res.Value.AwayScore)

	missing := svc.GetMatchInfo(context.Background(), 55, 282, 1)
	assert.ErrorIs(t, missing.Err, ErrMatchNotFound)
}

func TestMatchService_ListCompetitionsError(t *testing.T) {
	provider := new(mockProvider)
	provider.On("FetchCompetitions", mock.Anything).Return(nil, errors.New("connection reset"))

	svc := NewMatchService(provider, time.Second, testLogger())
	res := svc.ListCompetitions(context.Background())

	assert.False(t, res.OK())
	assert.NotErrorIs(t, res.Err, match.ErrTimeout)
	provider.AssertExpectations(t)
}
