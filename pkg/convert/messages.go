package convert

// wire representation of the race data (json)
type (
	FastestLapMessage struct {
		Time   float64 `json:"time"`
		Holder string  `json:"holder"`
		Lap    int     `json:"lap"`
	}
	ParticipantMessage struct {
		Pos         int     `json:"pos"`
		StartingPos int     `json:"startingPos"`
		Name        string  `json:"name"`
		Team        string  `json:"team"`
		Directed    bool    `json:"directed,omitempty"`
		TotalTime   float64 `json:"totalTime"`
		Gap         float64 `json:"gap"`
		LastLap     float64 `json:"lastLap"`
		BestLap     float64 `json:"bestLap"`
		Tyre        float64 `json:"tyre"`
		Mechanical  float64 `json:"mechanical"`
		PitStops    int     `json:"pitStops"`
		Pitted      bool    `json:"pitted,omitempty"`
		Mode        string  `json:"mode"`
	}
	LapMessage struct {
		RaceID       string               `json:"raceId"`
		Circuit      string               `json:"circuit"`
		Lap          int                  `json:"lap"`
		TotalLaps    int                  `json:"totalLaps"`
		DirectedMode string               `json:"directedMode"`
		Standings    []ParticipantMessage `json:"standings"`
		FastestLap   *FastestLapMessage   `json:"fastestLap,omitempty"`
	}
	EntryMessage struct {
		Pos         int     `json:"pos"`
		StartingPos int     `json:"startingPos"`
		Name        string  `json:"name"`
		Team        string  `json:"team"`
		Directed    bool    `json:"directed,omitempty"`
		TotalTime   float64 `json:"totalTime"`
		Gap         float64 `json:"gap"`
		FastestLap  float64 `json:"fastestLap"`
		PitStops    int     `json:"pitStops"`
	}
	ResultMessage struct {
		RaceID     string             `json:"raceId"`
		Circuit    string             `json:"circuit"`
		Laps       int                `json:"laps"`
		Seed       uint64             `json:"seed,omitempty"`
		Entries    []EntryMessage     `json:"entries"`
		FastestLap *FastestLapMessage `json:"fastestLap,omitempty"`
	}
)
