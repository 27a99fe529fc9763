//nolint:funlen // ok for tests
package laptime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racesim/pkg/model"
	"github.com/mpapenbr/racesim/pkg/processing/random"
)

// speed..strategy = 10,10,10,10,9,8 -> skill index 9.5
var fastSkill = model.SkillProfile{
	Speed: 10, Cornering: 10, Overtaking: 10, Consistency: 10, Aggression: 9, Strategy: 8,
}

func uniform(v int) model.SkillProfile {
	return model.SkillProfile{
		Speed: v, Cornering: v, Overtaking: v, Consistency: v, Aggression: v, Strategy: v,
	}
}

func monaco() *model.Circuit {
	return &model.Circuit{Key: "monaco", BaseLapSeconds: 78.5, Laps: 25, PitStopSeconds: 17.0}
}

func TestCompute_Example(t *testing.T) {
	p := model.NewParticipant("A", "T", fastSkill)
	assert.InDelta(t, 9.5, p.SkillIndex(), 1e-12)
	got := Compute(&p, monaco(), model.ModeNeutral, 0)
	assert.InDelta(t, 80.0, got, 1e-9)
}

// Documents the current skill model: a higher skill index produces a slower lap.
func TestCompute_HigherSkillIsSlower(t *testing.T) {
	weak := model.NewParticipant("weak", "T", uniform(5))
	strong := model.NewParticipant("strong", "T", uniform(10))

	weakLap := Compute(&weak, monaco(), model.ModeNeutral, 0)
	strongLap := Compute(&strong, monaco(), model.ModeNeutral, 0)
	assert.InDelta(t, 78.5-1.2, weakLap, 1e-9)
	assert.InDelta(t, 78.5+1.8, strongLap, 1e-9)
	assert.Greater(t, strongLap, weakLap)
}

func TestModeAdjustment(t *testing.T) {
	tests := []struct {
		mode model.StrategyMode
		want float64
	}{
		{model.ModePush, -0.6},
		{model.ModeSave, 0.4},
		{model.ModeNeutral, 0},
		{model.ModePit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ModeAdjustment(tt.mode))
		})
	}
}

func TestTyreFactor(t *testing.T) {
	tests := []struct {
		name string
		tyre float64
		want float64
	}{
		{"fresh", 100, 1.0},
		{"at threshold", 80, 1.0},
		{"below 80", 70, 1.0 + 10*0.0018},
		{"at 60", 60, 1.0 + 20*0.0018},
		{"below 60", 50, 1.0 + 30*0.0018 + 0.01},
		{"below 40", 30, 1.0 + 50*0.0018 + 0.01 + 0.02},
		{"empty", 0, 1.0 + 80*0.0018 + 0.01 + 0.02},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TyreFactor(tt.tyre), 1e-12)
		})
	}
}

func TestVehicleFactor(t *testing.T) {
	assert.InDelta(t, 1.0, VehicleFactor(100), 1e-12)
	assert.InDelta(t, 1.05, VehicleFactor(50), 1e-12)
	assert.InDelta(t, 1.1, VehicleFactor(0), 1e-12)
}

func TestCompute_Floor(t *testing.T) {
	p := model.NewParticipant("A", "T", fastSkill)
	c := &model.Circuit{BaseLapSeconds: 5, Laps: 1, PitStopSeconds: 1}
	assert.Equal(t, MinLapSeconds, Compute(&p, c, model.ModePush, -0.6))

	c.BaseLapSeconds = -100
	assert.Equal(t, MinLapSeconds, Compute(&p, c, model.ModeNeutral, 0))
}

func TestCompute_WornCar(t *testing.T) {
	p := model.NewParticipant("A", "T", uniform(7))
	p.Tyre = 30
	p.Mechanical = 90
	want := (78.5 - 0.6) * (1.0 + 50*0.0018 + 0.03) * 1.01
	assert.InDelta(t, want+0.25, Compute(&p, monaco(), model.ModePush, 0.25), 1e-9)
}

func TestLapTime_DrawsOnce(t *testing.T) {
	p := model.NewParticipant("A", "T", fastSkill)
	src := random.NewFixed(0.5, 1.0)
	got := LapTime(&p, monaco(), model.ModeNeutral, src)
	assert.InDelta(t, 80.0, got, 1e-9)
	assert.Equal(t, 1, src.Draws())
}

func TestLapTime_DoesNotMutate(t *testing.T) {
	p := model.NewParticipant("A", "T", fastSkill)
	before := p
	LapTime(&p, monaco(), model.ModePush, random.New(1))
	assert.Equal(t, before, p)
}

func TestLapTime_JitterBounds(t *testing.T) {
	p := model.NewParticipant("A", "T", fastSkill)
	src := random.New(99)
	for range 500 {
		got := LapTime(&p, monaco(), model.ModeNeutral, src)
		assert.GreaterOrEqual(t, got, 80.0-0.6)
		assert.Less(t, got, 80.0+0.6)
	}
}
