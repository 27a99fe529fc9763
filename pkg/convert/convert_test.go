package convert

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"

	"github.com/mpapenbr/racesim/pkg/model"
)

func sampleSnapshot() *model.LapSnapshot {
	a := model.NewParticipant("Alpha", "A", model.SkillProfile{})
	a.Rank, a.StartingRank = 2, 1
	a.CumulativeTime = 160.12345
	a.LastLapTime = 80.0004
	a.FastestLap = 79.9996
	a.Tyre = 94.46
	b := model.NewParticipant("Bravo", "B", model.SkillProfile{})
	b.Rank, b.StartingRank = 1, 2
	b.Directed = true
	b.CumulativeTime = 159.1
	b.Mode = model.ModePush
	return &model.LapSnapshot{
		RaceID: "r1", Circuit: "monza", Lap: 2, TotalLaps: 25,
		DirectedMode: model.ModePush,
		Participants: []model.Participant{a, b},
		FastestLap:   model.FastestLap{Time: 79.9996, Holder: "Alpha", Lap: 2},
	}
}

func TestConvertLapSnapshot(t *testing.T) {
	msg := ConvertLapSnapshot(sampleSnapshot())
	assert.Equal(t, msg.DirectedMode, "push")
	assert.Equal(t, len(msg.Standings), 2)
	assert.Equal(t, msg.Standings[0].Name, "Bravo")
	assert.Equal(t, msg.Standings[0].Gap, 0.0)
	alpha := msg.Standings[1]
	assert.Equal(t, alpha.TotalTime, 160.123)
	assert.Equal(t, alpha.Gap, 1.023)
	assert.Equal(t, alpha.LastLap, 80.0)
	assert.Equal(t, alpha.BestLap, 80.0)
	assert.Equal(t, alpha.Tyre, 94.5)
	assert.DeepEqual(t, msg.FastestLap, &FastestLapMessage{Time: 80.0, Holder: "Alpha", Lap: 2})
}

func TestConvertLapSnapshot_NoFastestLap(t *testing.T) {
	snap := sampleSnapshot()
	snap.FastestLap = model.FastestLap{}
	assert.Assert(t, ConvertLapSnapshot(snap).FastestLap == nil)
}

func TestResultRoundTrip(t *testing.T) {
	c := &model.Classification{
		RaceID: "r1", Circuit: "spa", Laps: 25,
		Entries: []model.ClassificationEntry{
			{Pos: 1, StartingPos: 2, Name: "A", Team: "TA", TotalTime: 2500.125, FastestLap: 98.5, PitStops: 1},
			{Pos: 2, StartingPos: 1, Name: "B", Team: "TB", Directed: true, TotalTime: 2503.5, Gap: 3.375, FastestLap: 99.25, PitStops: 2},
		},
		FastestLap: model.FastestLap{Time: 98.5, Holder: "A", Lap: 12},
	}
	var buf bytes.Buffer
	assert.NilError(t, WriteResult(&buf, ConvertClassification(c, 42)))

	msg, err := ReadResult(&buf)
	assert.NilError(t, err)
	assert.Equal(t, msg.Seed, uint64(42))
	if diff := cmp.Diff(c, ToClassification(msg)); diff != "" {
		t.Errorf("ToClassification() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadResult_Invalid(t *testing.T) {
	_, err := ReadResult(bytes.NewBufferString("{"))
	assert.Assert(t, err != nil)
}
