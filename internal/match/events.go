package match

import "sort"

// SortChronologically returns a copy of events ordered by (minute, timestamp).
// Ties keep their provider order.
func SortChronologically(events []Event) []Event {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Minute != sorted[j].Minute {
			return sorted[i].Minute < sorted[j].Minute
		}
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	return sorted
}

// Records projects events down to the fields embedded in narrative prompts
func Records(events []Event) []EventRecord {
	records := make([]EventRecord, 0, len(events))
	for _, ev := range events {
		rec := EventRecord{
			Timestamp: ev.Timestamp,
			Team:      ev.Team,
			Type:      ev.Type,
			Minute:    ev.Minute,
			Location:  ev.Location.Slice(),
		}
		if pass, ok := ev.Pass(); ok {
			rec.PassEndLocation = pass.EndLocation.Slice()
		}
		if ev.Player != "" {
			player := ev.Player
			rec.Player = &player
		}
		records = append(records, rec)
	}
	return records
}

// ChronologicalRecords sorts then projects
func ChronologicalRecords(events []Event) []EventRecord {
	return Records(SortChronologically(events))
}

// BuildPassMap lists a player's passes in match order
func BuildPassMap(events []Event, player string) []PassMapEntry {
	entries := make([]PassMapEntry, 0)
	for _, ev := range SortChronologically(events) {
		if ev.Player != player || ev.Type != TypePass {
			continue
		}
		pass, _ := ev.Pass()
		entries = append(entries, PassMapEntry{
			Minute:    ev.Minute,
			Start:     ev.Location.Slice(),
			End:       pass.EndLocation.Slice(),
			Completed: pass.Outcome == "",
			Outcome:   pass.Outcome,
		})
	}
	return entries
}
