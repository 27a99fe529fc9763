package model

// Circuit holds the static parameters of a race track
type Circuit struct {
	Key            string  `json:"key"`
	Name           string  `json:"name"`
	Country        string  `json:"country"`
	BaseLapSeconds float64 `json:"baseLapSeconds"`
	Laps           int     `json:"laps"`
	PitStopSeconds float64 `json:"pitStopSeconds"`
	Corners        int     `json:"corners"`
	Difficulty     int     `json:"difficulty"`
}

// Rating classifies the difficulty value
func (c Circuit) Rating() string {
	switch {
	case c.Difficulty >= 8:
		return "HARD"
	case c.Difficulty >= 6:
		return "MEDIUM"
	default:
		return "EASY"
	}
}

// WithLaps returns a copy using a different race distance
func (c Circuit) WithLaps(laps int) Circuit {
	c.Laps = laps
	return c
}
