package model

import "fmt"

// StrategyMode is the per-lap behavior of a participant
type StrategyMode int

const (
	ModeNeutral StrategyMode = iota
	ModePush
	ModeSave
	ModePit // compound action: pit stop time cost plus condition reset
)

func (m StrategyMode) String() string {
	switch m {
	case ModeNeutral:
		return "neutral"
	case ModePush:
		return "push"
	case ModeSave:
		return "save"
	case ModePit:
		return "pit"
	default:
		return fmt.Sprintf("StrategyMode(%d)", int(m))
	}
}

func (m StrategyMode) Valid() bool {
	return m >= ModeNeutral && m <= ModePit
}

func (m StrategyMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid strategy mode %d", int(m))
	}
	return []byte(m.String()), nil
}
