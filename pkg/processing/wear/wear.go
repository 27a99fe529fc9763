package wear

import (
	"github.com/mpapenbr/racesim/pkg/model"
	"github.com/mpapenbr/racesim/pkg/processing/random"
)

const (
	MaxCondition = 100.0
	MinCondition = 0.0

	PitMechanicalGain = 2.0
	NeutralTyreDrop   = 2.5
)

// Condition is the result of a wear computation
type Condition struct {
	Tyre       float64
	Mechanical float64
}

// Compute returns the conditions after one lap.
// A pitted lap resets the tyres and restores some mechanical condition,
// no wear applies in that case and src is not used.
// Push and Save draw exactly one value from src, Neutral draws nothing.
func Compute(
	p *model.Participant,
	mode model.StrategyMode,
	pitted bool,
	src random.Source,
) Condition {
	if pitted {
		return Condition{
			Tyre:       MaxCondition,
			Mechanical: clamp(p.Mechanical + PitMechanicalGain),
		}
	}
	tyreDrop := NeutralTyreDrop
	mechDrop := 0.0
	switch mode {
	case model.ModePush:
		tyreDrop = 5.0 + random.Uniform(src, -0.5, 1.5)
		mechDrop = 0.8
	case model.ModeSave:
		tyreDrop = 1.8 + random.Uniform(src, -0.4, 0.6)
		mechDrop = 0.2
	case model.ModeNeutral, model.ModePit:
	}
	return Condition{
		Tyre:       clamp(p.Tyre - tyreDrop),
		Mechanical: clamp(p.Mechanical - mechDrop),
	}
}

// Apply computes the new conditions and stores them in p
func Apply(p *model.Participant, mode model.StrategyMode, pitted bool, src random.Source) {
	c := Compute(p, mode, pitted, src)
	p.Tyre = c.Tyre
	p.Mechanical = c.Mechanical
}

func clamp(v float64) float64 {
	if v < MinCondition {
		return MinCondition
	}
	if v > MaxCondition {
		return MaxCondition
	}
	return v
}
