package decision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/mpapenbr/racesim/pkg/model"
)

var (
	ErrNoMoreDecisions = errors.New("no more decisions")
	ErrUnknownMode     = errors.New("unknown strategy mode")
)

var modeNames = map[string]model.StrategyMode{
	"0":       model.ModeNeutral,
	"neutral": model.ModeNeutral,
	"n":       model.ModeNeutral,
	"1":       model.ModePush,
	"push":    model.ModePush,
	"p":       model.ModePush,
	"2":       model.ModeSave,
	"save":    model.ModeSave,
	"s":       model.ModeSave,
	"3":       model.ModePit,
	"pit":     model.ModePit,
}

// ParseMode accepts mode names, their first letter (pit has none) and the
// menu digits 1 (push), 2 (save), 3 (pit)
func ParseMode(s string) (model.StrategyMode, error) {
	m, ok := modeNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return model.ModeNeutral, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

// ParsePlan parses a comma separated list of modes, e.g. "push,push,pit,save"
func ParsePlan(s string) ([]model.StrategyMode, error) {
	parts := lo.Filter(strings.Split(s, ","), func(item string, _ int) bool {
		return strings.TrimSpace(item) != ""
	})
	ret := make([]model.StrategyMode, 0, len(parts))
	for _, p := range parts {
		m, err := ParseMode(p)
		if err != nil {
			return nil, err
		}
		ret = append(ret, m)
	}
	return ret, nil
}

type (
	ScriptedOption func(s *Scripted)

	// Scripted plays back a fixed sequence of choices
	Scripted struct {
		modes      []model.StrategyMode
		idx        int
		repeatLast bool
	}
)

// WithRepeatLast keeps returning the last choice once the sequence is used up
func WithRepeatLast() ScriptedOption {
	return func(s *Scripted) {
		s.repeatLast = true
	}
}

func NewScripted(modes []model.StrategyMode, opts ...ScriptedOption) *Scripted {
	ret := &Scripted{modes: modes}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

//nolint:whitespace // editor/linter issue
func (s *Scripted) Decide(ctx context.Context, snap *model.LapSnapshot) (
	model.StrategyMode, error,
) {
	if s.idx < len(s.modes) {
		m := s.modes[s.idx]
		s.idx++
		return m, nil
	}
	if s.repeatLast && len(s.modes) > 0 {
		return s.modes[len(s.modes)-1], nil
	}
	return model.ModeNeutral, fmt.Errorf("after %d choices: %w", len(s.modes), ErrNoMoreDecisions)
}

// Remaining returns the number of unused choices
func (s *Scripted) Remaining() int {
	return len(s.modes) - s.idx
}
