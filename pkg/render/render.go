package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/samber/lo"

	"github.com/mpapenbr/racesim/pkg/model"
)

type (
	// Neighbor describes the car directly ahead or behind the directed participant
	Neighbor struct {
		Pos    int
		Name   string
		Gap    float64 // always >= 0
		Status string
	}
	GapInfo struct {
		Pos    int
		Ahead  *Neighbor // nil when leading
		Behind *Neighbor // nil when last
	}
)

// Gaps computes the live gaps of the directed participant
func Gaps(snap *model.LapSnapshot) (GapInfo, bool) {
	d, ok := snap.Directed()
	if !ok {
		return GapInfo{}, false
	}
	ret := GapInfo{Pos: d.Rank}
	if ahead, ok := snap.ByRank(d.Rank - 1); ok {
		gap := d.CumulativeTime - ahead.CumulativeTime
		ret.Ahead = &Neighbor{
			Pos: ahead.Rank, Name: ahead.Name, Gap: gap, Status: AheadStatus(gap),
		}
	}
	if behind, ok := snap.ByRank(d.Rank + 1); ok {
		gap := behind.CumulativeTime - d.CumulativeTime
		ret.Behind = &Neighbor{
			Pos: behind.Rank, Name: behind.Name, Gap: gap, Status: BehindStatus(gap),
		}
	}
	return ret, true
}

// Briefing prints the status of the directed participant.
// It matches the signature used by the interactive decision prompt.
func Briefing(w io.Writer, snap *model.LapSnapshot) {
	d, ok := snap.Directed()
	if !ok {
		return
	}
	fmt.Fprintf(w, "\n%s | LAP %d/%d | POS P%d\n",
		snap.Circuit, min(snap.Lap+1, snap.TotalLaps), snap.TotalLaps, d.Rank)
	fmt.Fprintf(w, "Tyres %3.0f%%  Car %3.0f%%  Last lap %s\n",
		d.Tyre, d.Mechanical, lastLap(d))
	if snap.FastestLap.IsSet() {
		fmt.Fprintf(w, "Fastest lap %s (%s)\n",
			FormatLapTime(snap.FastestLap.Time), snap.FastestLap.Holder)
	} else {
		fmt.Fprintln(w, "Fastest lap --:--.---")
	}
	gi, _ := Gaps(snap)
	if gi.Ahead != nil {
		fmt.Fprintf(w, "  P%d %-20s +%.1fs %s\n",
			gi.Ahead.Pos, gi.Ahead.Name, gi.Ahead.Gap, gi.Ahead.Status)
	} else {
		fmt.Fprintln(w, "  LEADING THE RACE")
	}
	if gi.Behind != nil {
		fmt.Fprintf(w, "  P%d %-20s -%.1fs %s\n",
			gi.Behind.Pos, gi.Behind.Name, gi.Behind.Gap, gi.Behind.Status)
	} else {
		fmt.Fprintln(w, "  NO PRESSURE FROM BEHIND")
	}
}

// Standings prints the full field ordered by rank
func Standings(w io.Writer, snap *model.LapSnapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Lap %d/%d\n", snap.Lap, snap.TotalLaps)
	fmt.Fprintln(tw, "POS\t\tDRIVER\tGAP\tLAST\tTYRE\tCAR\tPITS\tMODE\t")
	standings := snap.Standings()
	leader := lo.FirstOrEmpty(standings)
	for i := range standings {
		p := &standings[i]
		gap := "LEADER"
		if p.Rank != 1 {
			gap = FormatGap(p.CumulativeTime - leader.CumulativeTime)
		}
		fmt.Fprintf(tw, "P%d\t%s\t%s\t%s\t%s\t%.0f%%\t%.0f%%\t%d\t%s\t\n",
			p.Rank, marker(p), p.Name, gap, lastLap(*p),
			p.Tyre, p.Mechanical, p.PitStops, modeLabel(p))
	}
	return tw.Flush()
}

// LapSummary prints a one line status of the directed participant (or the leader)
func LapSummary(w io.Writer, snap *model.LapSnapshot) {
	p, ok := snap.Directed()
	if !ok {
		p, _ = snap.ByRank(1)
	}
	fmt.Fprintf(w, "lap %2d/%d  P%-2d %-20s %s  tyre %3.0f%%  car %3.0f%%  %s\n",
		snap.Lap, snap.TotalLaps, p.Rank, p.Name, lastLap(p), p.Tyre, p.Mechanical, modeLabel(&p))
}

// Classification prints the final result
func Classification(w io.Writer, c *model.Classification) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "RACE CLASSIFICATION %s (%d laps)\n", c.Circuit, c.Laps)
	fmt.Fprintln(tw, "POS\t\tDRIVER\tTEAM\tTIME\tGAP\tBEST\tPITS\t")
	for _, e := range c.Entries {
		gap := ""
		if e.Pos > 1 {
			gap = FormatGap(e.Gap)
		}
		name := e.Name
		if e.Directed {
			name += " *"
		}
		fmt.Fprintf(tw, "P%d\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t\n",
			e.Pos, podium(e.Pos), name, e.Team, FormatLapTime(e.TotalTime), gap,
			FormatLapTime(e.FastestLap), e.PitStops)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if c.FastestLap.IsSet() {
		fmt.Fprintf(w, "Fastest lap: %s (%s, lap %d)\n",
			FormatLapTime(c.FastestLap.Time), c.FastestLap.Holder, c.FastestLap.Lap)
	}
	if d, ok := c.Directed(); ok {
		fmt.Fprintf(w, "Pit stops: %d\n", d.PitStops)
		fmt.Fprintf(w, "Position: P%d -> P%d\n", d.StartingPos, d.Pos)
	}
	return nil
}

func lastLap(p model.Participant) string {
	if p.LastLapTime <= 0 {
		return "--:--.---"
	}
	return FormatLapTime(p.LastLapTime)
}

func marker(p *model.Participant) string {
	if p.Directed {
		return ">"
	}
	return ""
}

func modeLabel(p *model.Participant) string {
	if p.PittedThisLap {
		return "PIT"
	}
	switch p.Mode {
	case model.ModePush:
		return "PUSH"
	case model.ModeSave:
		return "SAVE"
	default:
		return ""
	}
}

func podium(pos int) string {
	switch pos {
	case 1:
		return "[1]"
	case 2:
		return "[2]"
	case 3:
		return "[3]"
	default:
		return ""
	}
}
