package policy

import (
	"github.com/mpapenbr/racesim/pkg/model"
	"github.com/mpapenbr/racesim/pkg/processing/random"
)

const (
	ForcedPitTyre = 35.0 // automated participants pit below this tyre condition
	BasePushRate  = 0.25
	PushPerSkill  = 0.08
	skillCenter   = 7.0
)

// Decision combines the two independent sub-decisions of one lap.
// Pit is applied on top of Mode, Mode still affects the lap time when Pit is set.
type Decision struct {
	Mode model.StrategyMode
	Pit  bool
}

// Policy decides for an automated participant
type Policy interface {
	Decide(p *model.Participant, src random.Source) Decision
}

// Automated is the default policy for all but the directed participant
type Automated struct{}

var _ Policy = Automated{}

// Decide draws exactly one value from src
func (Automated) Decide(p *model.Participant, src random.Source) Decision {
	return Decision{
		Mode: ChooseMode(p, src),
		Pit:  ForcePit(p),
	}
}

// ForcePit reports whether the tyre condition requires a pit stop
func ForcePit(p *model.Participant) bool {
	return p.Tyre < ForcedPitTyre
}

// PushChance is the probability of choosing Push.
// Values outside [0,1] are possible for extreme skills and simply saturate.
func PushChance(skillIndex float64) float64 {
	return BasePushRate + (skillIndex-skillCenter)*PushPerSkill
}

// ChooseMode returns Push or Neutral, Save is never chosen
func ChooseMode(p *model.Participant, src random.Source) model.StrategyMode {
	if src.Float64() < PushChance(p.SkillIndex()) {
		return model.ModePush
	}
	return model.ModeNeutral
}
