//nolint:thelper,funlen,dupl // ok for tests
package race

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racesim/log"
	"github.com/mpapenbr/racesim/pkg/model"
	"github.com/mpapenbr/racesim/pkg/processing/random"
	"github.com/mpapenbr/racesim/pkg/processing/ranking"
)

var average = model.SkillProfile{
	Speed: 7, Cornering: 7, Overtaking: 7, Consistency: 7, Aggression: 7, Strategy: 7,
}

func monaco() model.Circuit {
	return model.Circuit{
		Key:            "monaco",
		Name:           "Monaco Street Circuit",
		BaseLapSeconds: 78.5,
		Laps:           25,
		PitStopSeconds: 17.0,
		Difficulty:     9,
	}
}

func directed(name string) model.Participant {
	p := model.NewParticipant(name, "Team "+name, average)
	p.Directed = true
	return p
}

func automated(name string) model.Participant {
	return model.NewParticipant(name, "Team "+name, average)
}

type scriptedChoices struct {
	modes []model.StrategyMode
	laps  []int // completed laps seen at each call
}

func (s *scriptedChoices) Decide(ctx context.Context, snap *model.LapSnapshot) (
	model.StrategyMode, error,
) {
	s.laps = append(s.laps, snap.Lap)
	if len(s.modes) == 0 {
		return model.ModePush, nil
	}
	m := s.modes[0]
	if len(s.modes) > 1 {
		s.modes = s.modes[1:]
	}
	return m, nil
}

func newTestProcessor(
	t *testing.T,
	field []model.Participant,
	opts ...Option,
) *RaceProcessor {
	all := append([]Option{WithLogger(log.NewNop()), WithRaceID("test")}, opts...)
	rp, err := NewRaceProcessor(monaco(), field, all...)
	require.NoError(t, err)
	return rp
}

func TestIsDecisionPoint(t *testing.T) {
	var got []int
	for lap := 1; lap <= 12; lap++ {
		if IsDecisionPoint(lap) {
			got = append(got, lap)
		}
	}
	assert.Equal(t, []int{1, 4, 7, 10}, got)
	assert.False(t, IsDecisionPoint(0))
}

func TestNewRaceProcessor_Errors(t *testing.T) {
	ds := &scriptedChoices{}
	tests := []struct {
		name    string
		circuit model.Circuit
		field   []model.Participant
		opts    []Option
		want    error
	}{
		{"empty field", monaco(), nil, nil, ErrEmptyField},
		{
			"two directed", monaco(),
			[]model.Participant{directed("A"), directed("B")},
			[]Option{WithDecisionSource(ds)}, ErrMultipleDirected,
		},
		{
			"no decision source", monaco(),
			[]model.Participant{directed("A")}, nil, ErrNoDecisionSource,
		},
		{
			"no laps", monaco().WithLaps(0),
			[]model.Participant{automated("A")}, nil, ErrInvalidCircuit,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRaceProcessor(tt.circuit, tt.field, tt.opts...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGridFormation(t *testing.T) {
	field := []model.Participant{directed("D"), automated("A"), automated("B")}
	rp := newTestProcessor(t, field,
		WithDecisionSource(&scriptedChoices{}), WithSeed(1))

	assert.Equal(t, StateGridFormed, rp.State())
	assert.Equal(t, model.ModeNeutral, rp.DirectedMode())
	snap := rp.Snapshot()
	assert.Equal(t, 0, snap.Lap)
	for i, p := range snap.Participants {
		assert.InDelta(t, float64(i)*DefaultGridGap, p.CumulativeTime, 1e-12)
		assert.Equal(t, i+1, p.StartingRank)
		assert.Equal(t, i+1, p.Rank)
		assert.InDelta(t, 100.0, p.Tyre, 1e-12)
	}
	// input slice is not modified
	assert.Zero(t, field[1].StartingRank)
}

func TestGridFormation_CustomGap(t *testing.T) {
	rp := newTestProcessor(t,
		[]model.Participant{automated("A"), automated("B")}, WithGridGap(1.5))
	assert.InDelta(t, 1.5, rp.Snapshot().Participants[1].CumulativeTime, 1e-12)
}

func TestStep_FirstLap(t *testing.T) {
	src := random.NewFixed(0.5)
	ds := &scriptedChoices{modes: []model.StrategyMode{model.ModePush}}
	rp := newTestProcessor(t, []model.Participant{directed("D"), automated("A")},
		WithRandomSource(src), WithDecisionSource(ds))

	snap, err := rp.Step(context.Background())
	require.NoError(t, err)

	// directed: jitter + wear, automated: policy + jitter (neutral has no wear draw)
	assert.Equal(t, 4, src.Draws())
	assert.Equal(t, []int{0}, ds.laps)
	assert.Equal(t, 1, snap.Lap)
	assert.Equal(t, StateRunning, rp.State())

	d := snap.Participants[0]
	assert.InDelta(t, 77.9, d.LastLapTime, 1e-9)
	assert.InDelta(t, 77.9, d.CumulativeTime, 1e-9)
	assert.InDelta(t, 94.5, d.Tyre, 1e-9)
	assert.InDelta(t, 99.2, d.Mechanical, 1e-9)
	assert.Equal(t, model.ModePush, d.Mode)
	assert.Equal(t, 1, d.Rank)

	a := snap.Participants[1]
	assert.InDelta(t, 78.5, a.LastLapTime, 1e-9)
	assert.InDelta(t, 81.5, a.CumulativeTime, 1e-9)
	assert.InDelta(t, 97.5, a.Tyre, 1e-9)
	assert.InDelta(t, 100.0, a.Mechanical, 1e-9)
	assert.Equal(t, model.ModeNeutral, a.Mode)
	assert.Equal(t, 2, a.Rank)

	assert.Equal(t, model.FastestLap{Time: d.LastLapTime, Holder: "D", Lap: 1}, snap.FastestLap)
}

func TestStep_DirectedPitAddsPitCost(t *testing.T) {
	src := random.NewFixed(0.5)
	ds := &scriptedChoices{modes: []model.StrategyMode{model.ModePit}}
	rp := newTestProcessor(t, []model.Participant{directed("D"), automated("A")},
		WithRandomSource(src), WithDecisionSource(ds))

	snap, err := rp.Step(context.Background())
	require.NoError(t, err)

	d := snap.Participants[0]
	assert.InDelta(t, 78.5+17.0, d.LastLapTime, 1e-9)
	assert.True(t, d.PittedThisLap)
	assert.Equal(t, 1, d.PitStops)
	assert.InDelta(t, 100.0, d.Tyre, 1e-12)
	assert.InDelta(t, 100.0, d.Mechanical, 1e-12)
	// pit is a one lap action, the persisted mode stays
	assert.Equal(t, model.ModeNeutral, rp.DirectedMode())
	// directed: jitter only, automated: policy + jitter
	assert.Equal(t, 3, src.Draws())
	assert.Equal(t, 2, d.Rank)

	a := snap.Participants[1]
	assert.InDelta(t, 78.5, a.LastLapTime, 1e-9)
	assert.Equal(t, 0, a.PitStops)
	assert.False(t, a.PittedThisLap)
}

func TestStep_PitKeepsPersistedMode(t *testing.T) {
	ds := &scriptedChoices{modes: []model.StrategyMode{model.ModeSave, model.ModePit, model.ModePush}}
	rp := newTestProcessor(t, []model.Participant{directed("D"), automated("A")},
		WithSeed(3), WithDecisionSource(ds))

	ctx := context.Background()
	modes := map[int]model.StrategyMode{}
	pitted := map[int]bool{}
	for range 7 {
		snap, err := rp.Step(ctx)
		require.NoError(t, err)
		d, _ := snap.Directed()
		modes[snap.Lap] = d.Mode
		pitted[snap.Lap] = d.PittedThisLap
	}
	for lap := 1; lap <= 6; lap++ {
		assert.Equal(t, model.ModeSave, modes[lap], "lap %d", lap)
	}
	assert.True(t, pitted[4])
	assert.False(t, pitted[5])
	assert.Equal(t, model.ModePush, modes[7])
	assert.Equal(t, []int{0, 3, 6}, ds.laps)
}

func TestStep_ForcedPitForAutomated(t *testing.T) {
	worn := automated("A")
	worn.Tyre = 30
	worn.Mechanical = 90
	rp := newTestProcessor(t, []model.Participant{worn}, WithRandomSource(random.NewFixed(0.5)))

	snap, err := rp.Step(context.Background())
	require.NoError(t, err)
	a := snap.Participants[0]
	assert.True(t, a.PittedThisLap)
	assert.Equal(t, 1, a.PitStops)
	assert.InDelta(t, 100.0, a.Tyre, 1e-12)
	assert.InDelta(t, 92.0, a.Mechanical, 1e-12)
	assert.Greater(t, a.LastLapTime, 78.5+17.0)
}

func TestStep_DecisionSourceError(t *testing.T) {
	boom := errors.New("boom")
	ds := DecisionFunc(func(context.Context, *model.LapSnapshot) (model.StrategyMode, error) {
		return model.ModeNeutral, boom
	})
	src := random.NewFixed(0.5)
	rp := newTestProcessor(t, []model.Participant{directed("D"), automated("A")},
		WithRandomSource(src), WithDecisionSource(ds))
	before := rp.Snapshot()

	_, err := rp.Step(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, rp.Lap())
	assert.Equal(t, StateGridFormed, rp.State())
	assert.Equal(t, 0, src.Draws())
	if diff := cmp.Diff(before, rp.Snapshot()); diff != "" {
		t.Errorf("state changed (-want +got):\n%s", diff)
	}
}

func TestStep_InvalidDecision(t *testing.T) {
	for _, m := range []model.StrategyMode{model.ModeNeutral, model.StrategyMode(9)} {
		t.Run(m.String(), func(t *testing.T) {
			ds := &scriptedChoices{modes: []model.StrategyMode{m}}
			rp := newTestProcessor(t, []model.Participant{directed("D")},
				WithSeed(1), WithDecisionSource(ds))
			_, err := rp.Step(context.Background())
			assert.ErrorIs(t, err, ErrInvalidDecision)
			assert.Equal(t, 0, rp.Lap())
		})
	}
}

func TestLifecycle(t *testing.T) {
	rp := newTestProcessor(t, []model.Participant{automated("A"), automated("B")},
		WithSeed(5))
	ctx := context.Background()

	_, err := rp.Classification()
	assert.ErrorIs(t, err, ErrRaceNotFinished)

	listened := 0
	rp.listeners = append(rp.listeners, func(*model.LapSnapshot) { listened++ })
	c, err := rp.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateFinished, rp.State())
	assert.Equal(t, 25, rp.Lap())
	assert.Equal(t, 25, listened)
	assert.Len(t, c.Entries, 2)

	_, err = rp.Step(ctx)
	assert.ErrorIs(t, err, ErrRaceFinished)
}

func TestRun_Canceled(t *testing.T) {
	rp := newTestProcessor(t, []model.Participant{automated("A")}, WithSeed(5))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rp.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, rp.Lap())
}

func TestRun_SingleParticipant(t *testing.T) {
	rp := newTestProcessor(t, []model.Participant{automated("A")}, WithSeed(11),
		WithLapListener(func(s *model.LapSnapshot) {
			assert.Equal(t, 1, s.Participants[0].Rank)
		}))
	c, err := rp.Run(context.Background())
	require.NoError(t, err)
	w, ok := c.Winner()
	require.True(t, ok)
	assert.Equal(t, "A", w.Name)
	assert.InDelta(t, 0.0, w.Gap, 1e-12)
	assert.Equal(t, "A", c.FastestLap.Holder)
}

func mixedField() []model.Participant {
	field := []model.Participant{directed("D")}
	for i := range 19 {
		s := model.SkillProfile{
			Speed: 6 + i%5, Cornering: 6 + (i+1)%5, Overtaking: 6 + (i+2)%5,
			Consistency: 6 + (i+3)%5, Aggression: 6 + i%4, Strategy: 6 + (i+1)%4,
		}
		field = append(field, model.NewParticipant(fmt.Sprintf("P%02d", i), "T", s))
	}
	return field
}

func TestRun_Invariants(t *testing.T) {
	var prev *model.LapSnapshot
	check := func(s *model.LapSnapshot) {
		for i := range s.Participants {
			p := &s.Participants[i]
			assert.GreaterOrEqual(t, p.Tyre, 0.0)
			assert.LessOrEqual(t, p.Tyre, 100.0)
			assert.GreaterOrEqual(t, p.Mechanical, 0.0)
			assert.LessOrEqual(t, p.Mechanical, 100.0)
			assert.GreaterOrEqual(t, p.LastLapTime, 30.0)
			if prev != nil {
				assert.GreaterOrEqual(t, p.CumulativeTime, prev.Participants[i].CumulativeTime)
				assert.Equal(t, prev.Participants[i].Name, p.Name, "grid order changed")
			}
		}
		assert.True(t, ranking.IsPermutation(s.Participants))
		standings := s.Standings()
		for i := 1; i < len(standings); i++ {
			assert.LessOrEqual(t, standings[i-1].CumulativeTime, standings[i].CumulativeTime)
		}
		prev = s
	}
	ds := &scriptedChoices{modes: []model.StrategyMode{
		model.ModePush, model.ModePush, model.ModeSave, model.ModePit, model.ModePush,
	}}
	rp := newTestProcessor(t, mixedField(), WithSeed(42),
		WithDecisionSource(ds), WithLapListener(check))

	c, err := rp.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.laps, 9) // laps 1,4,...,25
	for i, e := range c.Entries {
		assert.Equal(t, i+1, e.Pos)
		assert.InDelta(t, e.TotalTime-c.Entries[0].TotalTime, e.Gap, 1e-9)
		assert.LessOrEqual(t, c.FastestLap.Time, e.FastestLap)
	}
	d, ok := c.Directed()
	require.True(t, ok)
	assert.Equal(t, 1, d.StartingPos)
	assert.GreaterOrEqual(t, d.PitStops, 1)
}

func TestRun_Deterministic(t *testing.T) {
	run := func() ([]*model.LapSnapshot, *model.Classification) {
		var snaps []*model.LapSnapshot
		ds := &scriptedChoices{modes: []model.StrategyMode{model.ModeSave, model.ModePush, model.ModePit}}
		rp := newTestProcessor(t, mixedField(), WithSeed(2024), WithDecisionSource(ds),
			WithLapListener(func(s *model.LapSnapshot) { snaps = append(snaps, s) }))
		c, err := rp.Run(context.Background())
		require.NoError(t, err)
		return snaps, c
	}
	snaps1, c1 := run()
	snaps2, c2 := run()
	if diff := cmp.Diff(snaps1, snaps2); diff != "" {
		t.Errorf("snapshots differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(c1, c2); diff != "" {
		t.Errorf("classification differs (-first +second):\n%s", diff)
	}
}
