package model

type ClassificationEntry struct {
	Pos         int     `json:"pos"`
	StartingPos int     `json:"startingPos"`
	Name        string  `json:"name"`
	Team        string  `json:"team"`
	Directed    bool    `json:"directed"`
	TotalTime   float64 `json:"totalTime"`
	Gap         float64 `json:"gap"` // to the winner
	FastestLap  float64 `json:"fastestLap"`
	PitStops    int     `json:"pitStops"`
}

// PositionsGained is positive if the entry finished ahead of its grid slot
func (e ClassificationEntry) PositionsGained() int {
	return e.StartingPos - e.Pos
}

// Classification is the final result of a race ordered by total time
type Classification struct {
	RaceID     string                `json:"raceId"`
	Circuit    string                `json:"circuit"`
	Laps       int                   `json:"laps"`
	Entries    []ClassificationEntry `json:"entries"`
	FastestLap FastestLap            `json:"fastestLap"`
}

func (c *Classification) Winner() (ClassificationEntry, bool) {
	if len(c.Entries) == 0 {
		return ClassificationEntry{}, false
	}
	return c.Entries[0], true
}

func (c *Classification) Directed() (ClassificationEntry, bool) {
	for _, e := range c.Entries {
		if e.Directed {
			return e, true
		}
	}
	return ClassificationEntry{}, false
}
