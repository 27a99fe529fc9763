package decision

import (
	"context"

	"github.com/mpapenbr/racesim/pkg/model"
)

const (
	DefaultAutoPitBelow = 40.0
	autoPushWear        = 6.0 // expected tyre drop per lap when pushing
	autoBlock           = 3   // laps covered by one decision
)

// Auto directs the participant without user input.
// It pits once the tyres drop below PitBelow (unless the race is about to end)
// and pushes as long as the tyres stay above that limit for the next laps.
type Auto struct {
	PitBelow float64
}

func NewAuto() *Auto {
	return &Auto{PitBelow: DefaultAutoPitBelow}
}

//nolint:whitespace // editor/linter issue
func (a *Auto) Decide(ctx context.Context, snap *model.LapSnapshot) (
	model.StrategyMode, error,
) {
	if err := ctx.Err(); err != nil {
		return model.ModeNeutral, err
	}
	p, ok := snap.Directed()
	if !ok {
		return model.ModePush, nil
	}
	remaining := snap.TotalLaps - snap.Lap
	if p.Tyre < a.PitBelow && remaining > autoBlock {
		return model.ModePit, nil
	}
	laps := min(remaining, autoBlock)
	if p.Tyre-float64(laps)*autoPushWear >= a.PitBelow || remaining <= autoBlock {
		return model.ModePush, nil
	}
	return model.ModeSave, nil
}
