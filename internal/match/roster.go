package match

// DerivePlayers returns every named player of the two teams in a match.
//
// The home team is the team of the first Starting XI event in provider order
// and the away team is the first other team seen. Names are returned in order
// of first appearance, without duplicates.
func DerivePlayers(events []Event) ([]string, error) {
	home, away, err := DeriveTeams(events)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	players := make([]string, 0, 32)
	for _, ev := range events {
		if ev.Player == "" || (ev.Team != home && ev.Team != away) {
			continue
		}
		if _, ok := seen[ev.Player]; ok {
			continue
		}
		seen[ev.Player] = struct{}{}
		players = append(players, ev.Player)
	}

	return players, nil
}

// DeriveTeams identifies the home and away team names from raw events
func DeriveTeams(events []Event) (home, away string, err error) {
	found := false
	for _, ev := range events {
		if ev.Type == TypeStartingXI {
			home = ev.Team
			found = true
			break
		}
	}
	if !found {
		return "", "", &RosterError{Reason: "no Starting XI event found"}
	}

	for _, ev := range events {
		if ev.Team != home {
			return home, ev.Team, nil
		}
	}

	return "", "", &RosterError{Reason: "fewer than two teams in events"}
}
