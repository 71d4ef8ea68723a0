package narrative

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/matchnarrator/internal/ingest/statsbomb"
	"github.com/fortuna/matchnarrator/internal/llm"
	"github.com/fortuna/matchnarrator/internal/match"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

type mockAnnouncer struct {
	mock.Mock
}

func (m *mockAnnouncer) Announce(ctx context.Context, n Narrative) error {
	return m.Called(ctx, n).Error(0)
}

// stubData serves canned results and records which lookups ran
type stubData struct {
	lineups match.Result[[]statsbomb.Lineup]
	events  match.Result[[]match.EventRecord]
	stats   match.Result[[]match.PlayerStatsRecord]
	player  match.Result[match.PlayerStatsRecord]
	calls   []string
}

func (d *stubData) GetLineups(context.Context, int) match.Result[[]statsbomb.Lineup] {
	d.calls = append(d.calls, "lineups")
	return d.lineups
}

func (d *stubData) GetEvents(context.Context, int) match.Result[[]match.EventRecord] {
	d.calls = append(d.calls, "events")
	return d.events
}

func (d *stubData) GetPlayerStats(context.Context, int) match.Result[[]match.PlayerStatsRecord] {
	d.calls = append(d.calls, "stats")
	return d.stats
}

func (d *stubData) GetPlayerStat(_ context.Context, _ int, player string) match.Result[match.PlayerStatsRecord] {
	d.calls = append(d.calls, "player:"+player)
	return d.player
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func strPtr(s string) *string { return &s }

func healthyData() *stubData {
	return &stubData{
		lineups: match.Ok([]statsbomb.Lineup{{
			TeamID:   217,
			TeamName: "Barcelona",
			Lineup:   []statsbomb.LineupPlayer{{PlayerID: 5503, PlayerName: "Lionel Andrés Messi Cuccittini", JerseyNumber: 10}},
		}}),
		events: match.Ok([]match.EventRecord{
			{Timestamp: "00:00:00.000", Team: "Barcelona", Type: match.TypeStartingXI},
			{Timestamp: "00:03:12.400", Team: "Barcelona", Type: match.TypePass, Minute: 3,
				Location: []float64{61, 40.1}, PassEndLocation: []float64{80.2, 30}, Player: strPtr("Lionel Andrés Messi Cuccittini")},
		}),
		stats: match.Ok([]match.PlayerStatsRecord{{
			Player: "Lionel Andrés Messi Cuccittini", Team: "Barcelona",
			Statistics: match.PlayerStats{PassesAttempted: 1, MinutesPlayed: 3},
		}}),
		player: match.Ok(match.PlayerStatsRecord{
			Player: "Lionel Andrés Messi Cuccittini", Team: "Barcelona",
			Statistics: match.PlayerStats{PassesAttempted: 20, PassesCompleted: 12, Shots: 5, GoalsNonPenalty: 2, FoulsCommitted: 3, YellowCards: 1},
		}),
	}
}

func TestBuildMatchNarrative(t *testing.T) {
	data := healthyData()
	gen := new(mockGenerator)
	announcer := new(mockAnnouncer)

	var prompt string
	gen.On("Generate", mock.Anything, mock.AnythingOfType("string"), llm.DefaultOptions()).
		Run(func(args mock.Arguments) { prompt = args.String(1) }).
		Return("Em 14 de julho de 2024, o Barcelona venceu.", nil)
	announcer.On("Announce", mock.Anything, mock.MatchedBy(func(n Narrative) bool {
		return n.Kind == KindMatchSummary && n.MatchID == 3943043 && n.ID != "" && !n.GeneratedAt.IsZero()
	})).Return(nil)

	svc := NewService(data, gen, Config{}, quietLogger(), announcer)
	text, err := svc.BuildMatchNarrative(context.Background(), 3943043, "Barcelona vs Real Madrid, 2024-07-14")

	require.NoError(t, err)
	assert.Equal(t, "Em 14 de julho de 2024, o Barcelona venceu.", text)
	assert.Equal(t, []string{"lineups", "events", "stats"}, data.calls)

	assert.Contains(t, prompt, "em português")
	assert.Contains(t, prompt, "250 palavras")
	assert.Contains(t, prompt, "Mencione a data da partida explicitamente")
	assert.Contains(t, prompt, "team_name: Barcelona")
	assert.Contains(t, prompt, "Lionel Andrés Messi Cuccittini")
	assert.Contains(t, prompt, "pass_end_location: [80.2, 30]")
	assert.Contains(t, prompt, "2024-07-14")

	gen.AssertExpectations(t)
	announcer.AssertExpectations(t)
}

func TestBuildMatchNarrative_DegradesFetchFailures(t *testing.T) {
	data := healthyData()
	data.lineups = match.Fail[[]statsbomb.Lineup](&statsbomb.FetchError{URL: "http://x/lineups/1.json", StatusCode: 404})
	data.events = match.Fail[[]match.EventRecord](errors.New("fetching events: connection reset"))

	gen := new(mockGenerator)
	var prompt string
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { prompt = args.String(1) }).
		Return("Resumo parcial.", nil)

	svc := NewService(data, gen, Config{}, quietLogger())
	text, err := svc.BuildMatchNarrative(context.Background(), 1, "info")

	require.NoError(t, err)
	assert.Equal(t, "Resumo parcial.", text)
	assert.Contains(t, prompt, "error: statsbomb request http://x/lineups/1.json failed with status 404")
	assert.Regexp(t, `error: ["']?fetching events: connection reset`, prompt)
}

func TestBuildMatchNarrative_RosterErrorAborts(t *testing.T) {
	data := healthyData()
	data.stats = match.Fail[[]match.PlayerStatsRecord](&match.RosterError{Reason: "no Starting XI event found"})
	gen := new(mockGenerator)

	svc := NewService(data, gen, Config{}, quietLogger())
	_, err := svc.BuildMatchNarrative(context.Background(), 1, "info")

	assert.ErrorIs(t, err, match.ErrPlayerRoster)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestBuildMatchNarrative_TimeoutAborts(t *testing.T) {
	data := healthyData()
	data.lineups = match.Fail[[]statsbomb.Lineup](match.ErrTimeout)
	gen := new(mockGenerator)

	svc := NewService(data, gen, Config{}, quietLogger())
	_, err := svc.BuildMatchNarrative(context.Background(), 1, "info")

	assert.ErrorIs(t, err, match.ErrTimeout)
	assert.Equal(t, []string{"lineups"}, data.calls)
}

func TestBuildPlayerNarrative(t *testing.T) {
	data := healthyData()
	gen := new(mockGenerator)

	var prompt string
	gen.On("Generate", mock.Anything, mock.Anything, llm.DefaultOptions()).
		Run(func(args mock.Arguments) { prompt = args.String(1) }).
		Return("Messi marcou duas vezes.", nil)

	svc := NewService(data, gen, Config{}, quietLogger())
	text, err := svc.BuildPlayerNarrative(context.Background(), 3943043, "Lionel Andrés Messi Cuccittini")

	require.NoError(t, err)
	assert.Equal(t, "Messi marcou duas vezes.", text)
	assert.Equal(t, []string{"player:Lionel Andrés Messi Cuccittini", "events"}, data.calls)

	assert.Contains(t, prompt, "Jogador: Lionel Andrés Messi Cuccittini")
	assert.Contains(t, prompt, "Tentativas de Passes: 20")
	assert.Contains(t, prompt, "Passes Completos: 12")
	assert.Contains(t, prompt, "Chutes: 5")
	assert.Regexp(t, `'?Gols \(exceto pênaltis\)'?: 2`, prompt)
	assert.Contains(t, prompt, "Gols de Pênalti: 0")
	assert.Contains(t, prompt, "Faltas Cometidas: 3")
	assert.Contains(t, prompt, "Cartões Amarelos: 1")
}

func TestBuildPlayerNarrative_StatsRequired(t *testing.T) {
	data := healthyData()
	data.player = match.Fail[match.PlayerStatsRecord](errors.New("fetching events: status 500"))
	gen := new(mockGenerator)

	svc := NewService(data, gen, Config{}, quietLogger())
	_, err := svc.BuildPlayerNarrative(context.Background(), 1, "Lionel Messi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestBuildPlayerNarrative_GenerationError(t *testing.T) {
	data := healthyData()
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))
	announcer := new(mockAnnouncer)

	svc := NewService(data, gen, Config{}, quietLogger(), announcer)
	text, err := svc.BuildPlayerNarrative(context.Background(), 1, "Lionel Messi")

	assert.Empty(t, text)
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Contains(t, err.Error(), "quota exceeded")
	announcer.AssertNotCalled(t, "Announce", mock.Anything, mock.Anything)
}

func TestBuildPlayerNarrative_EmptyText(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", nil)

	svc := NewService(healthyData(), gen, Config{}, quietLogger())
	_, err := svc.BuildPlayerNarrative(context.Background(), 1, "Lionel Messi")

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
}

func TestBuildPlayerNarrative_GenerationDeadline(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", context.DeadlineExceeded)

	svc := NewService(healthyData(), gen, Config{}, quietLogger())
	_, err := svc.BuildPlayerNarrative(context.Background(), 1, "Lionel Messi")

	assert.ErrorIs(t, err, match.ErrTimeout)
}

func TestAnnouncerFailureDoesNotFailRequest(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("ok", nil)
	announcer := new(mockAnnouncer)
	announcer.On("Announce", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	svc := NewService(healthyData(), gen, Config{}, quietLogger(), announcer)
	text, err := svc.BuildPlayerNarrative(context.Background(), 1, "Lionel Messi")

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	announcer.AssertNumberOfCalls(t, "Announce", 1)
}

func TestToYAML_KeepsNonASCII(t *testing.T) {
	out, err := toYAML(map[string]string{"estádio": "Estádio do Maracanã"})
	require.NoError(t, err)
	assert.Equal(t, "estádio: Estádio do Maracanã\n", out)
}
