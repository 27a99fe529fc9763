package convert

import (
	"encoding/json"
	"io"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/racesim/pkg/model"
)

const (
	timePlaces      = 3 // milliseconds
	conditionPlaces = 1
)

func roundTime(v float64) float64 {
	return decimal.NewFromFloat(v).Round(timePlaces).InexactFloat64()
}

func roundCondition(v float64) float64 {
	return decimal.NewFromFloat(v).Round(conditionPlaces).InexactFloat64()
}

// Gap computes the rounded difference of two cumulative times
func Gap(total, reference float64) float64 {
	return decimal.NewFromFloat(total).
		Sub(decimal.NewFromFloat(reference)).
		Round(timePlaces).
		InexactFloat64()
}

func convertFastestLap(f model.FastestLap) *FastestLapMessage {
	if !f.IsSet() {
		return nil
	}
	return &FastestLapMessage{Time: roundTime(f.Time), Holder: f.Holder, Lap: f.Lap}
}

// ConvertLapSnapshot creates the wire message, standings are ordered by rank
func ConvertLapSnapshot(snap *model.LapSnapshot) *LapMessage {
	standings := snap.Standings()
	leader := lo.FirstOrEmpty(standings)
	return &LapMessage{
		RaceID:       snap.RaceID,
		Circuit:      snap.Circuit,
		Lap:          snap.Lap,
		TotalLaps:    snap.TotalLaps,
		DirectedMode: snap.DirectedMode.String(),
		Standings: lo.Map(standings, func(p model.Participant, _ int) ParticipantMessage {
			return ParticipantMessage{
				Pos:         p.Rank,
				StartingPos: p.StartingRank,
				Name:        p.Name,
				Team:        p.Team,
				Directed:    p.Directed,
				TotalTime:   roundTime(p.CumulativeTime),
				Gap:         Gap(p.CumulativeTime, leader.CumulativeTime),
				LastLap:     roundTime(p.LastLapTime),
				BestLap:     roundTime(p.FastestLap),
				Tyre:        roundCondition(p.Tyre),
				Mechanical:  roundCondition(p.Mechanical),
				PitStops:    p.PitStops,
				Pitted:      p.PittedThisLap,
				Mode:        p.Mode.String(),
			}
		}),
		FastestLap: convertFastestLap(snap.FastestLap),
	}
}

// ConvertClassification creates the wire message of a race result
func ConvertClassification(c *model.Classification, seed uint64) *ResultMessage {
	return &ResultMessage{
		RaceID:  c.RaceID,
		Circuit: c.Circuit,
		Laps:    c.Laps,
		Seed:    seed,
		Entries: lo.Map(c.Entries, func(e model.ClassificationEntry, _ int) EntryMessage {
			return EntryMessage{
				Pos:         e.Pos,
				StartingPos: e.StartingPos,
				Name:        e.Name,
				Team:        e.Team,
				Directed:    e.Directed,
				TotalTime:   roundTime(e.TotalTime),
				Gap:         roundTime(e.Gap),
				FastestLap:  roundTime(e.FastestLap),
				PitStops:    e.PitStops,
			}
		}),
		FastestLap: convertFastestLap(c.FastestLap),
	}
}

// ToClassification converts a stored result back into the model
func ToClassification(m *ResultMessage) *model.Classification {
	ret := &model.Classification{
		RaceID:  m.RaceID,
		Circuit: m.Circuit,
		Laps:    m.Laps,
		Entries: lo.Map(m.Entries, func(e EntryMessage, _ int) model.ClassificationEntry {
			return model.ClassificationEntry(e)
		}),
	}
	if m.FastestLap != nil {
		ret.FastestLap = model.FastestLap(*m.FastestLap)
	}
	return ret
}

func WriteResult(w io.Writer, m *ResultMessage) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

func ReadResult(r io.Reader) (*ResultMessage, error) {
	var ret ResultMessage
	if err := json.NewDecoder(r).Decode(&ret); err != nil {
		return nil, err
	}
	return &ret, nil
}
