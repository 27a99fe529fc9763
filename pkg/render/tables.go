package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mpapenbr/racesim/pkg/batch"
	"github.com/mpapenbr/racesim/pkg/catalog"
	"github.com/mpapenbr/racesim/pkg/repository/result"
)

// Catalog lists teams, drivers and circuits
func Catalog(w io.Writer, c *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TEAM\tNAME\tCAR\tPERF\tBUDGET\t")
	for _, t := range c.Teams() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t$%dM\t\n",
			t.Key, t.Name, t.CarModel, t.Performance, t.Budget/1_000_000)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "DRIVER\tTEAM\tSKILL\tSPD\tCOR\tOVT\tCON\tAGG\tSTR\t")
	for _, d := range c.Drivers() {
		s := d.Skill
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
			d.Name, d.Team, s.SkillIndex(),
			s.Speed, s.Cornering, s.Overtaking, s.Consistency, s.Aggression, s.Strategy)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CIRCUIT\tNAME\tCOUNTRY\tBASE LAP\tLAPS\tPIT\tCORNERS\tDIFFICULTY\t")
	for _, ci := range c.Circuits() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.1fs\t%d\t%d/10 %s\t\n",
			ci.Key, ci.Name, ci.Country, FormatLapTime(ci.BaseLapSeconds), ci.Laps,
			ci.PitStopSeconds, ci.Corners, ci.Difficulty, ci.Rating())
	}
	return tw.Flush()
}

// BatchSummary prints the aggregated statistics of a batch run
func BatchSummary(w io.Writer, s *batch.Summary) error {
	fmt.Fprintf(w, "%d races at %s (seeds %d..%d)\n",
		s.Races, s.Circuit, s.FirstSeed, s.FirstSeed+uint64(s.Races)-1)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tDRIVER\tAVG POS\tBEST\tWINS\tPODIUMS\tAVG PITS\tFASTEST LAPS\t")
	for i := range s.Drivers {
		d := &s.Drivers[i]
		fmt.Fprintf(tw, "%s\t%s\t%.2f\tP%d\t%.0f%%\t%.0f%%\t%.2f\t%d\t\n",
			directedMark(d.Directed), d.Name, d.AvgPosition(), d.BestPos,
			d.WinRate()*100, d.PodiumShare()*100, d.AvgPitStops(), d.FastestLaps)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if s.FastestLap.IsSet() {
		fmt.Fprintf(w, "Fastest lap: %s (%s)\n",
			FormatLapTime(s.FastestLap.Time), s.FastestLap.Holder)
	}
	return nil
}

func directedMark(directed bool) string {
	if directed {
		return ">"
	}
	return ""
}

// Races lists archived races
func Races(w io.Writer, races []result.RaceInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RACE\tDATE\tCIRCUIT\tLAPS\tWINNER\tDIRECTED\t")
	for i := range races {
		r := &races[i]
		directed := "-"
		if r.Directed != "" {
			directed = fmt.Sprintf("%s (P%d)", r.Directed, r.DirectedPos)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t\n",
			r.RaceID, r.RecordStamp.Local().Format("2006-01-02 15:04"),
			r.Circuit, r.Laps, r.Winner, directed)
	}
	return tw.Flush()
}

// Records prints archived statistics per driver
func Records(w io.Writer, records []result.DriverRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DRIVER\tRACES\tWINS\tPODIUMS\tBEST\tAVG POS\tBEST LAP\t")
	for i := range records {
		r := &records[i]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\tP%d\t%s\t%s\t\n",
			r.Driver, r.Races, r.Wins, r.Podiums, r.BestPos,
			r.AvgPos.StringFixed(2), FormatLapTime(r.BestLap.InexactFloat64()))
	}
	return tw.Flush()
}
