package render

import (
	"fmt"
	"math"
)

const (
	CatchingBelow = 2.0 // seconds to the car ahead
	DefendBelow   = 1.5 // seconds to the car behind
)

// FormatLapTime renders seconds as m:ss.mmm, negative values are shown as 0
func FormatLapTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	totalMs := int64(math.Round(seconds * 1000))
	ms := totalMs % 1000
	totalSec := totalMs / 1000
	return fmt.Sprintf("%d:%02d.%03d", totalSec/60, totalSec%60, ms)
}

// FormatGap renders a time difference with sign and millisecond precision
func FormatGap(seconds float64) string {
	if seconds < 0 {
		return fmt.Sprintf("-%.3f", -seconds)
	}
	return fmt.Sprintf("+%.3f", seconds)
}

func AheadStatus(gap float64) string {
	if gap < CatchingBelow {
		return "CATCHING"
	}
	return "STABLE"
}

func BehindStatus(gap float64) string {
	if gap < DefendBelow {
		return "DEFEND"
	}
	return "SAFE"
}
