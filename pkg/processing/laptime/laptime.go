package laptime

import (
	"math"

	"github.com/mpapenbr/racesim/pkg/model"
	"github.com/mpapenbr/racesim/pkg/processing/random"
)

const (
	MinLapSeconds = 30.0 // hard floor for any computed lap

	skillCenter   = 7.0
	skillFactor   = 0.6
	pushDelta     = -0.6
	saveDelta     = 0.4
	jitterRange   = 0.6
	tyreWearStart = 80.0
	tyreWearRate  = 0.0018
	vehicleRate   = 0.001
)

// SkillAdjustment is added to the base lap time.
// Note: a skill index above 7 yields a positive value, i.e. a slower lap.
func SkillAdjustment(skillIndex float64) float64 {
	return (skillIndex - skillCenter) * skillFactor
}

// ModeAdjustment is the lap time delta of a strategy mode.
// Pit has no adjustment here, its cost is added by the race processor.
func ModeAdjustment(mode model.StrategyMode) float64 {
	switch mode {
	case model.ModePush:
		return pushDelta
	case model.ModeSave:
		return saveDelta
	default:
		return 0
	}
}

// TyreFactor grows once the tyre condition drops below 80,
// with additional steps below 60 and below 40
func TyreFactor(tyre float64) float64 {
	f := 1.0
	if tyre < tyreWearStart {
		f += (tyreWearStart - tyre) * tyreWearRate
	}
	if tyre < 60.0 {
		f += 0.01
	}
	if tyre < 40.0 {
		f += 0.02
	}
	return f
}

func VehicleFactor(mechanical float64) float64 {
	return 1.0 + (100.0-mechanical)*vehicleRate
}

// Jitter draws exactly one value from src in [-0.6,0.6)
func Jitter(src random.Source) float64 {
	return random.Uniform(src, -jitterRange, jitterRange)
}

// Compute returns the lap duration for the given jitter.
// The participant is not modified.
func Compute(
	p *model.Participant,
	circuit *model.Circuit,
	mode model.StrategyMode,
	jitter float64,
) float64 {
	raw := (circuit.BaseLapSeconds + SkillAdjustment(p.SkillIndex()) + ModeAdjustment(mode)) *
		TyreFactor(p.Tyre) * VehicleFactor(p.Mechanical)
	return math.Max(raw+jitter, MinLapSeconds)
}

// LapTime computes the lap duration drawing the jitter from src
func LapTime(
	p *model.Participant,
	circuit *model.Circuit,
	mode model.StrategyMode,
	src random.Source,
) float64 {
	return Compute(p, circuit, mode, Jitter(src))
}
