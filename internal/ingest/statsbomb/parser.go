package statsbomb

import (
	"strconv"

	"github.com/fortuna/matchnarrator/internal/match"
)

const notAvailable = "N/A"

// ParseEvents converts raw provider events into domain events, keeping
// provider order. Kind-specific payloads are attached only to their kind.
func ParseEvents(raw []RawEvent) []match.Event {
	events := make([]match.Event, 0, len(raw))
	for _, r := range raw {
		ev := match.Event{
			ID:        r.ID,
			Index:     r.Index,
			Period:    r.Period,
			Timestamp: r.Timestamp,
			Minute:    r.Minute,
			Second:    r.Second,
			Type:      match.EventType(r.Type.Name),
			Team:      r.Team.Name,
			Location:  toPoint(r.Location),
		}
		if r.Player != nil {
			ev.Player = r.Player.Name
		}

		switch ev.Type {
		case match.TypePass:
			d := match.PassDetail{}
			if r.Pass != nil {
				d.EndLocation = toPoint(r.Pass.EndLocation)
				d.Outcome = refName(r.Pass.Outcome)
				d.GoalAssist = r.Pass.GoalAssist
			}
			ev.Detail = d
		case match.TypeShot:
			d := match.ShotDetail{}
			if r.Shot != nil {
				d.Outcome = refName(r.Shot.Outcome)
				d.ShotType = refName(r.Shot.Type)
				d.EndLocation = toPoint(r.Shot.EndLocation)
				d.XG = r.Shot.StatsbombXG
			}
			ev.Detail = d
		case match.TypeDribble:
			d := match.DribbleDetail{}
			if r.Dribble != nil {
				d.Outcome = refName(r.Dribble.Outcome)
			}
			ev.Detail = d
		case match.TypeFoulCommitted:
			d := match.FoulCommittedDetail{}
			if r.FoulCommitted != nil {
				d.Card = refName(r.FoulCommitted.Card)
			}
			ev.Detail = d
		}

		events = append(events, ev)
	}
	return events
}

func toPoint(coords []float64) *match.Point {
	if len(coords) < 2 {
		return nil
	}
	return &match.Point{X: coords[0], Y: coords[1]}
}

func refName(r *Ref) string {
	if r == nil {
		return ""
	}
	return r.Name
}

// MatchInfo is the flat match metadata block passed to the summary prompt
type MatchInfo struct {
	MatchDate          string `json:"match_date" yaml:"match_date"`
	CompetitionCountry string `json:"competition_country" yaml:"competition_country"`
	CompetitionName    string `json:"competition_name" yaml:"competition_name"`
	HomeTeamCountry    string `json:"home_team_country" yaml:"home_team_country"`
	AwayTeamCountry    string `json:"away_team_country" yaml:"away_team_country"`
	StadiumName        string `json:"stadium_name" yaml:"stadium_name"`
	SeasonName         string `json:"season_name" yaml:"season_name"`
	HomeTeamName       string `json:"home_team_name" yaml:"home_team_name"`
	AwayTeamName       string `json:"away_team_name" yaml:"away_team_name"`
	HomeTeamManager    string `json:"home_team_manager" yaml:"home_team_manager"`
	AwayTeamManager    string `json:"away_team_manager" yaml:"away_team_manager"`
	HomeScore          string `json:"home_score" yaml:"home_score"`
	AwayScore          string `json:"away_score" yaml:"away_score"`
	CompetitionStage   string `json:"competition_stage" yaml:"competition_stage"`
}

// ParseMatchInfo flattens a match, filling missing values with N/A
func ParseMatchInfo(m Match) MatchInfo {
	info := MatchInfo{
		MatchDate:          orNA(m.MatchDate),
		CompetitionCountry: orNA(m.Competition.CountryName),
		CompetitionName:    orNA(m.Competition.CompetitionName),
		HomeTeamCountry:    orNA(refName(m.HomeTeam.Country)),
		AwayTeamCountry:    orNA(refName(m.AwayTeam.Country)),
		StadiumName:        orNA(refName(m.Stadium)),
		SeasonName:         orNA(m.Season.SeasonName),
		HomeTeamName:       orNA(m.HomeTeam.HomeTeamName),
		AwayTeamName:       orNA(m.AwayTeam.AwayTeamName),
		HomeTeamManager:    notAvailable,
		AwayTeamManager:    notAvailable,
		HomeScore:          scoreOrNA(m.HomeScore),
		AwayScore:          scoreOrNA(m.AwayScore),
		CompetitionStage:   orNA(refName(m.CompetitionStage)),
	}
	if len(m.HomeTeam.Managers) > 0 {
		info.HomeTeamManager = orNA(m.HomeTeam.Managers[0].Name)
	}
	if len(m.AwayTeam.Managers) > 0 {
		info.AwayTeamManager = orNA(m.AwayTeam.Managers[0].Name)
	}
	return info
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func scoreOrNA(score *int) string {
	if score == nil {
		return notAvailable
	}
	return strconv.Itoa(*score)
}
