package match

// EventType is the provider's event type name
type EventType string

const (
	TypePass           EventType = "Pass"
	TypeShot           EventType = "Shot"
	TypeFoulCommitted  EventType = "Foul Committed"
	TypeFoulWon        EventType = "Foul Won"
	TypeTackle         EventType = "Tackle"
	TypeInterception   EventType = "Interception"
	TypeDribble        EventType = "Dribble"
	TypeBallRecovery   EventType = "Ball Recovery"
	TypeBlock          EventType = "Block"
	TypeInjuryStoppage EventType = "Injury Stoppage"
	TypeMiscontrol     EventType = "Miscontrol"
	TypeStartingXI     EventType = "Starting XI"
)

// Outcome and qualifier values used by the stat predicates
const (
	ShotOutcomeGoal     = "Goal"
	ShotOutcomeOnTarget = "On Target"
	ShotTypePenalty     = "Penalty"
	DribbleComplete     = "Complete"
	CardYellow          = "Yellow Card"
	CardRed             = "Red Card"
)

// Point is a pitch coordinate
type Point struct {
	X float64
	Y float64
}

// Slice returns the point as [x, y], or nil for a missing point
func (p *Point) Slice() []float64 {
	if p == nil {
		return nil
	}
	return []float64{p.X, p.Y}
}

// Event is one in-match action. Kind-specific fields live in Detail.
type Event struct {
	ID        string
	Index     int
	Period    int
	Timestamp string // HH:MM:SS.mmm within the period
	Minute    int
	Second    int
	Type      EventType
	Team      string
	Player    string // empty for team-level events
	Location  *Point
	Detail    Detail
}

// Detail is implemented by the per-kind event payloads
type Detail interface {
	isDetail()
}

// PassDetail carries pass fields. An empty Outcome is a completed pass.
type PassDetail struct {
	EndLocation *Point
	Outcome     string
	GoalAssist  bool
}

// ShotDetail carries shot fields
type ShotDetail struct {
	Outcome     string
	ShotType    string
	EndLocation *Point
	XG          float64
}

// DribbleDetail carries dribble fields
type DribbleDetail struct {
	Outcome string
}

// FoulCommittedDetail carries the card shown for a foul, if any
type FoulCommittedDetail struct {
	Card string
}

func (PassDetail) isDetail()          {}
func (ShotDetail) isDetail()          {}
func (DribbleDetail) isDetail()       {}
func (FoulCommittedDetail) isDetail() {}

// Pass returns the pass payload when the event is a pass
func (e Event) Pass() (PassDetail, bool) {
	d, ok := e.Detail.(PassDetail)
	return d, ok
}

// Shot returns the shot payload when the event is a shot
func (e Event) Shot() (ShotDetail, bool) {
	d, ok := e.Detail.(ShotDetail)
	return d, ok
}

// Dribble returns the dribble payload when the event is a dribble
func (e Event) Dribble() (DribbleDetail, bool) {
	d, ok := e.Detail.(DribbleDetail)
	return d, ok
}

// FoulCommitted returns the foul payload when the event is a committed foul
func (e Event) FoulCommitted() (FoulCommittedDetail, bool) {
	d, ok := e.Detail.(FoulCommittedDetail)
	return d, ok
}

// EventRecord is the serialized projection of an event embedded in prompts
type EventRecord struct {
	Timestamp       string    `json:"timestamp" yaml:"timestamp"`
	Team            string    `json:"team" yaml:"team"`
	Type            EventType `json:"type" yaml:"type"`
	Minute          int       `json:"minute" yaml:"minute"`
	Location        []float64 `json:"location" yaml:"location,flow"`
	PassEndLocation []float64 `json:"pass_end_location" yaml:"pass_end_location,flow"`
	Player          *string   `json:"player" yaml:"player"`
}

// PlayerStats holds the per-match counters for one player
type PlayerStats struct {
	PassesCompleted  int `json:"passes_completed" yaml:"passes_completed"`
	PassesAttempted  int `json:"passes_attempted" yaml:"passes_attempted"`
	Shots            int `json:"shots" yaml:"shots"`
	ShotsOnTarget    int `json:"shots_on_target" yaml:"shots_on_target"`
	GoalsNonPenalty  int `json:"goals_non_penalty" yaml:"goals_non_penalty"`
	GoalsPenalty     int `json:"goals_penalty" yaml:"goals_penalty"`
	Assists          int `json:"assists" yaml:"assists"`
	FoulsCommitted   int `json:"fouls_committed" yaml:"fouls_committed"`
	FoulsWon         int `json:"fouls_won" yaml:"fouls_won"`
	Tackles          int `json:"tackles" yaml:"tackles"`
	Interceptions    int `json:"interceptions" yaml:"interceptions"`
	DribblesComplete int `json:"dribbles_completed" yaml:"dribbles_completed"`
	DribblesAttempt  int `json:"dribbles_attempted" yaml:"dribbles_attempted"`
	BallRecoveries   int `json:"ball_recoveries" yaml:"ball_recoveries"`
	Blocks           int `json:"blocks" yaml:"blocks"`
	Miscontrols      int `json:"miscontrols" yaml:"miscontrols"`
	InjuryStoppages  int `json:"injury_stoppages" yaml:"injury_stoppages"`
	YellowCards      int `json:"yellow_cards" yaml:"yellow_cards"`
	RedCards         int `json:"red_cards" yaml:"red_cards"`
	MinutesPlayed    int `json:"minutes_played" yaml:"minutes_played"`
}

// Goals returns penalty and non-penalty goals combined
func (s PlayerStats) Goals() int {
	return s.GoalsNonPenalty + s.GoalsPenalty
}

// PlayerStatsRecord is one row of the match-level aggregate
type PlayerStatsRecord struct {
	Player     string      `json:"player" yaml:"player"`
	Team       string      `json:"team,omitempty" yaml:"team,omitempty"`
	Statistics PlayerStats `json:"statistics" yaml:"statistics"`
}

// PassMapEntry is one pass drawn on a player's pass map
type PassMapEntry struct {
	Minute    int       `json:"minute"`
	Start     []float64 `json:"start"`
	End       []float64 `json:"end"`
	Completed bool      `json:"completed"`
	Outcome   string    `json:"outcome,omitempty"`
}
