package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/racesim/log"
	"github.com/mpapenbr/racesim/pkg/catalog"
	"github.com/mpapenbr/racesim/pkg/decision"
	"github.com/mpapenbr/racesim/pkg/model"
	"github.com/mpapenbr/racesim/pkg/processing/race"
)

var ErrNoRaces = errors.New("number of races must be positive")

type (
	// Params describe the races of a batch. Race i uses Seed+i.
	Params struct {
		Catalog *catalog.Catalog
		Circuit model.Circuit
		// Directed is optional, without it all participants are automated
		Directed *catalog.Driver
		Seed     uint64
		GridGap  float64
		// NewDecisionSource creates the source for each race, defaults to decision.NewAuto
		NewDecisionSource func() race.DecisionSource
	}

	DriverStats struct {
		Name        string `json:"name"`
		Team        string `json:"team"`
		Directed    bool   `json:"directed,omitempty"`
		Races       int    `json:"races"`
		Wins        int    `json:"wins"`
		Podiums     int    `json:"podiums"`
		PosSum      int    `json:"posSum"`
		PitStops    int    `json:"pitStops"`
		BestPos     int    `json:"bestPos"`
		FastestLaps int    `json:"fastestLaps"`
	}

	Summary struct {
		Circuit    string           `json:"circuit"`
		Races      int              `json:"races"`
		FirstSeed  uint64           `json:"firstSeed"`
		FastestLap model.FastestLap `json:"fastestLap"`
		Drivers    []DriverStats    `json:"drivers"` // ordered by average position
	}

	Option func(*runner)

	runner struct {
		workers int
		l       *log.Logger
	}
)

func WithWorkers(n int) Option {
	return func(r *runner) {
		r.workers = n
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *runner) {
		r.l = l
	}
}

func (d *DriverStats) AvgPosition() float64 {
	if d.Races == 0 {
		return 0
	}
	return float64(d.PosSum) / float64(d.Races)
}

func (d *DriverStats) WinRate() float64 {
	if d.Races == 0 {
		return 0
	}
	return float64(d.Wins) / float64(d.Races)
}

func (d *DriverStats) PodiumShare() float64 {
	if d.Races == 0 {
		return 0
	}
	return float64(d.Podiums) / float64(d.Races)
}

func (d *DriverStats) AvgPitStops() float64 {
	if d.Races == 0 {
		return 0
	}
	return float64(d.PitStops) / float64(d.Races)
}

// Directed returns the statistics of the directed driver
func (s *Summary) Directed() (DriverStats, bool) {
	return lo.Find(s.Drivers, func(d DriverStats) bool { return d.Directed })
}

// Run executes n races in parallel. The summary does not depend on the
// number of workers.
//
//nolint:whitespace // editor/linter issue
func Run(
	ctx context.Context,
	params Params,
	n int,
	opts ...Option,
) (*Summary, error) {
	if n <= 0 {
		return nil, ErrNoRaces
	}
	r := &runner{
		workers: runtime.NumCPU(),
		l:       log.Default().Named("batch"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if params.NewDecisionSource == nil {
		params.NewDecisionSource = func() race.DecisionSource { return decision.NewAuto() }
	}

	results := make([]*model.Classification, n)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.workers))
	for i := range n {
		g.Go(func() error {
			c, err := runOne(gCtx, &params, params.Seed+uint64(i), r.l)
			if err != nil {
				return fmt.Errorf("race %d: %w", i, err)
			}
			results[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	r.l.Debug("batch done", log.Int("races", n), log.Int("workers", r.workers))
	return summarize(&params, results), nil
}

//nolint:whitespace // editor/linter issue
func runOne(
	ctx context.Context,
	params *Params,
	seed uint64,
	l *log.Logger,
) (*model.Classification, error) {
	var field []model.Participant
	opts := []race.Option{
		race.WithSeed(seed),
		race.WithRaceID(fmt.Sprintf("batch-%d", seed)),
		race.WithLogger(l.Named("race")),
	}
	if params.GridGap > 0 {
		opts = append(opts, race.WithGridGap(params.GridGap))
	}
	if params.Directed != nil {
		var err error
		if field, err = params.Catalog.Field(*params.Directed); err != nil {
			return nil, err
		}
		opts = append(opts, race.WithDecisionSource(params.NewDecisionSource()))
	} else {
		field = params.Catalog.AutomatedField()
	}
	rp, err := race.NewRaceProcessor(params.Circuit, field, opts...)
	if err != nil {
		return nil, err
	}
	return rp.Run(ctx)
}

func summarize(params *Params, results []*model.Classification) *Summary {
	ret := &Summary{
		Circuit:   params.Circuit.Key,
		Races:     len(results),
		FirstSeed: params.Seed,
	}
	stats := map[string]*DriverStats{}
	order := []string{}
	for _, c := range results {
		if !ret.FastestLap.IsSet() || c.FastestLap.Time < ret.FastestLap.Time {
			ret.FastestLap = c.FastestLap
		}
		for _, e := range c.Entries {
			s, ok := stats[e.Name]
			if !ok {
				s = &DriverStats{Name: e.Name, Team: e.Team, Directed: e.Directed, BestPos: e.Pos}
				stats[e.Name] = s
				order = append(order, e.Name)
			}
			s.Races++
			s.PosSum += e.Pos
			s.PitStops += e.PitStops
			s.BestPos = min(s.BestPos, e.Pos)
			if e.Pos == 1 {
				s.Wins++
			}
			if e.Pos <= 3 {
				s.Podiums++
			}
			if e.Name == c.FastestLap.Holder {
				s.FastestLaps++
			}
		}
	}
	ret.Drivers = lo.Map(order, func(name string, _ int) DriverStats { return *stats[name] })
	slices.SortStableFunc(ret.Drivers, func(a, b DriverStats) int {
		if a.PosSum != b.PosSum {
			return a.PosSum - b.PosSum
		}
		return strings.Compare(a.Name, b.Name)
	})
	return ret
}
