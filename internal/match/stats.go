package match

// statRule increments one counter when an event matches its predicate
type statRule struct {
	name    string
	counter func(*PlayerStats) *int
	match   func(Event) bool
}

func ofType(t EventType) func(Event) bool {
	return func(ev Event) bool { return ev.Type == t }
}

func isShotWith(pred func(ShotDetail) bool) func(Event) bool {
	return func(ev Event) bool {
		if ev.Type != TypeShot {
			return false
		}
		shot, _ := ev.Shot()
		return pred(shot)
	}
}

func isFoulWithCard(card string) func(Event) bool {
	return func(ev Event) bool {
		if ev.Type != TypeFoulCommitted {
			return false
		}
		foul, ok := ev.FoulCommitted()
		return ok && foul.Card == card
	}
}

// statRules is the only place counting predicates are defined. Both the
// single-player and all-players entry points run through it.
var statRules = []statRule{
	{"passes_completed", func(s *PlayerStats) *int { return &s.PassesCompleted }, func(ev Event) bool {
		if ev.Type != TypePass {
			return false
		}
		pass, _ := ev.Pass()
		return pass.Outcome == ""
	}},
	{"passes_attempted", func(s *PlayerStats) *int { return &s.PassesAttempted }, ofType(TypePass)},
	{"shots", func(s *PlayerStats) *int { return &s.Shots }, ofType(TypeShot)},
	{"shots_on_target", func(s *PlayerStats) *int { return &s.ShotsOnTarget }, isShotWith(func(d ShotDetail) bool {
		return d.Outcome == ShotOutcomeOnTarget
	})},
	{"goals_non_penalty", func(s *PlayerStats) *int { return &s.GoalsNonPenalty }, isShotWith(func(d ShotDetail) bool {
		return d.Outcome == ShotOutcomeGoal && d.ShotType != ShotTypePenalty
	})},
	{"goals_penalty", func(s *PlayerStats) *int { return &s.GoalsPenalty }, isShotWith(func(d ShotDetail) bool {
		return d.Outcome == ShotOutcomeGoal && d.ShotType == ShotTypePenalty
	})},
	{"assists", func(s *PlayerStats) *int { return &s.Assists }, func(ev Event) bool {
		pass, ok := ev.Pass()
		return ok && pass.GoalAssist
	}},
	{"fouls_committed", func(s *PlayerStats) *int { return &s.FoulsCommitted }, ofType(TypeFoulCommitted)},
	{"fouls_won", func(s *PlayerStats) *int { return &s.FoulsWon }, ofType(TypeFoulWon)},
	{"tackles", func(s *PlayerStats) *int { return &s.Tackles }, ofType(TypeTackle)},
	{"interceptions", func(s *PlayerStats) *int { return &s.Interceptions }, ofType(TypeInterception)},
	{"dribbles_completed", func(s *PlayerStats) *int { return &s.DribblesComplete }, func(ev Event) bool {
		if ev.Type != TypeDribble {
			return false
		}
		dribble, _ := ev.Dribble()
		return dribble.Outcome == DribbleComplete
	}},
	{"dribbles_attempted", func(s *PlayerStats) *int { return &s.DribblesAttempt }, ofType(TypeDribble)},
	{"ball_recoveries", func(s *PlayerStats) *int { return &s.BallRecoveries }, ofType(TypeBallRecovery)},
	{"blocks", func(s *PlayerStats) *int { return &s.Blocks }, ofType(TypeBlock)},
	{"miscontrols", func(s *PlayerStats) *int { return &s.Miscontrols }, ofType(TypeMiscontrol)},
	{"injury_stoppages", func(s *PlayerStats) *int { return &s.InjuryStoppages }, ofType(TypeInjuryStoppage)},
	{"yellow_cards", func(s *PlayerStats) *int { return &s.YellowCards }, isFoulWithCard(CardYellow)},
	{"red_cards", func(s *PlayerStats) *int { return &s.RedCards }, isFoulWithCard(CardRed)},
}

// ComputePlayerStats tallies the counters for one player. A player with no
// events gets all zeros.
func ComputePlayerStats(events []Event, player string) PlayerStats {
	var stats PlayerStats
	for _, ev := range events {
		if ev.Player != player {
			continue
		}
		tally(&stats, ev)
	}
	return stats
}

func tally(stats *PlayerStats, ev Event) {
	for _, rule := range statRules {
		if rule.match(ev) {
			*rule.counter(stats)++
		}
	}
	if ev.Minute > stats.MinutesPlayed {
		stats.MinutesPlayed = ev.Minute
	}
}

// ComputeMatchStats derives the roster and computes stats for every player.
// Rows follow roster order; Team is the team of the player's first event.
func ComputeMatchStats(events []Event) ([]PlayerStatsRecord, error) {
	players, err := DerivePlayers(events)
	if err != nil {
		return nil, err
	}

	byPlayer := make(map[string]*PlayerStatsRecord, len(players))
	records := make([]*PlayerStatsRecord, 0, len(players))
	for _, name := range players {
		rec := &PlayerStatsRecord{Player: name}
		byPlayer[name] = rec
		records = append(records, rec)
	}

	// single pass over events instead of one filter per player
	for _, ev := range events {
		rec, ok := byPlayer[ev.Player]
		if !ok {
			continue
		}
		if rec.Team == "" {
			rec.Team = ev.Team
		}
		tally(&rec.Statistics, ev)
	}

	out := make([]PlayerStatsRecord, len(records))
	for i, rec := range records {
		out[i] = *rec
	}
	return out, nil
}

// PlayerRecord builds the single-player row using the same rules
func PlayerRecord(events []Event, player string) PlayerStatsRecord {
	rec := PlayerStatsRecord{
		Player:     player,
		Statistics: ComputePlayerStats(events, player),
	}
	for _, ev := range events {
		if ev.Player == player {
			rec.Team = ev.Team
			break
		}
	}
	return rec
}
