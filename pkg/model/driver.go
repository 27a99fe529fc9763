package model

// SkillProfile holds static driver attributes on a 1..10 scale.
// It is catalog data and never changed by the simulation.
type SkillProfile struct {
	Speed       int `json:"speed"`
	Cornering   int `json:"cornering"`
	Overtaking  int `json:"overtaking"`
	Consistency int `json:"consistency"`
	Aggression  int `json:"aggression"`
	Strategy    int `json:"strategy"`
}

// SkillIndex is the arithmetic mean of all six attributes
func (s SkillProfile) SkillIndex() float64 {
	sum := s.Speed + s.Cornering + s.Overtaking + s.Consistency + s.Aggression + s.Strategy
	return float64(sum) / 6.0
}

func (s SkillProfile) Values() []int {
	return []int{s.Speed, s.Cornering, s.Overtaking, s.Consistency, s.Aggression, s.Strategy}
}

// Participant is the mutable per-race state of one entrant.
// Tyre and Mechanical are kept within [0,100], CumulativeTime never decreases.
type Participant struct {
	Name           string       `json:"name"`
	Team           string       `json:"team"`
	Skill          SkillProfile `json:"skill"`
	Directed       bool         `json:"directed"`
	CumulativeTime float64      `json:"cumulativeTime"` // unit: seconds
	LastLapTime    float64      `json:"lastLapTime"`
	FastestLap     float64      `json:"fastestLap"` // 0 until the first lap is done
	Tyre           float64      `json:"tyre"`
	Mechanical     float64      `json:"mechanical"`
	StartingRank   int          `json:"startingRank"`
	Rank           int          `json:"rank"`
	PitStops       int          `json:"pitStops"`
	PittedThisLap  bool         `json:"pittedThisLap"`
	Mode           StrategyMode `json:"mode"` // mode used on the last lap
}

func NewParticipant(name, team string, skill SkillProfile) Participant {
	return Participant{
		Name:       name,
		Team:       team,
		Skill:      skill,
		Tyre:       100.0,
		Mechanical: 100.0,
	}
}

func (p *Participant) SkillIndex() float64 {
	return p.Skill.SkillIndex()
}

func (p *Participant) HasFastestLap() bool {
	return p.FastestLap > 0
}
