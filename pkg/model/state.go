package model

import "slices"

type FastestLap struct {
	Time   float64 `json:"time"`
	Holder string  `json:"holder"`
	Lap    int     `json:"lap"`
}

func (f FastestLap) IsSet() bool {
	return f.Holder != ""
}

// LapSnapshot is a read-only copy of the race state after Lap laps.
// Participants are kept in grid order.
type LapSnapshot struct {
	RaceID       string        `json:"raceId"`
	Circuit      string        `json:"circuit"`
	Lap          int           `json:"lap"` // completed laps, 0 on the grid
	TotalLaps    int           `json:"totalLaps"`
	DirectedMode StrategyMode  `json:"directedMode"`
	Participants []Participant `json:"participants"`
	FastestLap   FastestLap    `json:"fastestLap"`
}

// Standings returns the participants ordered by current rank
func (s *LapSnapshot) Standings() []Participant {
	ret := slices.Clone(s.Participants)
	slices.SortStableFunc(ret, func(a, b Participant) int {
		return a.Rank - b.Rank
	})
	return ret
}

// Directed returns the externally directed participant (if any)
func (s *LapSnapshot) Directed() (Participant, bool) {
	idx := slices.IndexFunc(s.Participants, func(p Participant) bool { return p.Directed })
	if idx == -1 {
		return Participant{}, false
	}
	return s.Participants[idx], true
}

// ByRank returns the participant at the given position
func (s *LapSnapshot) ByRank(rank int) (Participant, bool) {
	idx := slices.IndexFunc(s.Participants, func(p Participant) bool { return p.Rank == rank })
	if idx == -1 {
		return Participant{}, false
	}
	return s.Participants[idx], true
}

func (s *LapSnapshot) Finished() bool {
	return s.Lap >= s.TotalLaps
}
