package statsbomb

// Ref is the provider's {id, name} pair
type Ref struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Competition is one competition season from competitions.json
type Competition struct {
	CompetitionID     int    `json:"competition_id"`
	SeasonID          int    `json:"season_id"`
	CountryName       string `json:"country_name"`
	CompetitionName   string `json:"competition_name"`
	CompetitionGender string `json:"competition_gender"`
	SeasonName        string `json:"season_name"`
}

// Manager is a team manager
type Manager struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

// Match is one entry of matches/{competition}/{season}.json
type Match struct {
	MatchID     int    `json:"match_id"`
	MatchDate   string `json:"match_date"`
	KickOff     string `json:"kick_off"`
	Competition struct {
		CompetitionID   int    `json:"competition_id"`
		CountryName     string `json:"country_name"`
		CompetitionName string `json:"competition_name"`
	} `json:"competition"`
	Season struct {
		SeasonID   int    `json:"season_id"`
		SeasonName string `json:"season_name"`
	} `json:"season"`
	HomeTeam struct {
		HomeTeamID   int       `json:"home_team_id"`
		HomeTeamName string    `json:"home_team_name"`
		Country      *Ref      `json:"country"`
		Managers     []Manager `json:"managers"`
	} `json:"home_team"`
	AwayTeam struct {
		AwayTeamID   int       `json:"away_team_id"`
		AwayTeamName string    `json:"away_team_name"`
		Country      *Ref      `json:"country"`
		Managers     []Manager `json:"managers"`
	} `json:"away_team"`
	HomeScore        *int `json:"home_score"`
	AwayScore        *int `json:"away_score"`
	CompetitionStage *Ref `json:"competition_stage"`
	Stadium          *Ref `json:"stadium"`
}

// Display renders "Home vs Away" for pickers
func (m Match) Display() string {
	return m.HomeTeam.HomeTeamName + " vs " + m.AwayTeam.AwayTeamName
}

// Lineup is one team's roster for a match
type Lineup struct {
	TeamID   int            `json:"team_id" yaml:"team_id"`
	TeamName string         `json:"team_name" yaml:"team_name"`
	Lineup   []LineupPlayer `json:"lineup" yaml:"lineup"`
}

// LineupPlayer is one rostered player
type LineupPlayer struct {
	PlayerID       int    `json:"player_id" yaml:"player_id"`
	PlayerName     string `json:"player_name" yaml:"player_name"`
	PlayerNickname string `json:"player_nickname,omitempty" yaml:"player_nickname,omitempty"`
	JerseyNumber   int    `json:"jersey_number" yaml:"jersey_number"`
	Country        *Ref   `json:"country,omitempty" yaml:"country,omitempty"`
}

// RawEvent is one entry of events/{match}.json. Only the fields the
// aggregator reads are decoded.
type RawEvent struct {
	ID            string      `json:"id"`
	Index         int         `json:"index"`
	Period        int         `json:"period"`
	Timestamp     string      `json:"timestamp"`
	Minute        int         `json:"minute"`
	Second        int         `json:"second"`
	Type          Ref         `json:"type"`
	Team          Ref         `json:"team"`
	Player        *Ref        `json:"player"`
	Location      []float64   `json:"location"`
	Pass          *RawPass    `json:"pass"`
	Shot          *RawShot    `json:"shot"`
	Dribble       *RawDribble `json:"dribble"`
	FoulCommitted *RawFoul    `json:"foul_committed"`
}

// RawPass is the pass object of a Pass event
type RawPass struct {
	EndLocation []float64 `json:"end_location"`
	Outcome     *Ref      `json:"outcome"`
	GoalAssist  bool      `json:"goal_assist"`
}

// RawShot is the shot object of a Shot event
type RawShot struct {
	EndLocation []float64 `json:"end_location"`
	Outcome     *Ref      `json:"outcome"`
	Type        *Ref      `json:"type"`
	StatsbombXG float64   `json:"statsbomb_xg"`
}

// RawDribble is the dribble object of a Dribble event
type RawDribble struct {
	Outcome *Ref `json:"outcome"`
}

// RawFoul is the foul_committed object of a Foul Committed event
type RawFoul struct {
	Card *Ref `json:"card"`
}
