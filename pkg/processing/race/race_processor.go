package race

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/racesim/log"
	"github.com/mpapenbr/racesim/pkg/model"
	"github.com/mpapenbr/racesim/pkg/processing/laptime"
	"github.com/mpapenbr/racesim/pkg/processing/policy"
	"github.com/mpapenbr/racesim/pkg/processing/random"
	"github.com/mpapenbr/racesim/pkg/processing/ranking"
	"github.com/mpapenbr/racesim/pkg/processing/wear"
)

const (
	DecisionInterval = 3   // the directed participant decides every 3 laps
	DefaultGridGap   = 3.0 // seconds between two grid slots
)

var (
	ErrEmptyField        = errors.New("field has no participants")
	ErrMultipleDirected  = errors.New("more than one directed participant")
	ErrInvalidCircuit    = errors.New("invalid circuit parameters")
	ErrNoDecisionSource  = errors.New("directed participant requires a decision source")
	ErrInvalidDecision   = errors.New("invalid decision")
	ErrRaceFinished      = errors.New("race already finished")
	ErrRaceNotFinished   = errors.New("race not finished")
	meter                = otel.Meter("rsim.race")
	defaultTracerName    = "rsim"
	allowedDirectedModes = []model.StrategyMode{model.ModePush, model.ModeSave, model.ModePit}
)

type State int

const (
	StateGridFormed State = iota
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateGridFormed:
		return "grid-formed"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type (
	// DecisionSource supplies the mode of the directed participant at decision points.
	// snap holds the state before the lap to be decided, valid results are
	// Push, Save and Pit.
	DecisionSource interface {
		Decide(ctx context.Context, snap *model.LapSnapshot) (model.StrategyMode, error)
	}
	DecisionFunc func(ctx context.Context, snap *model.LapSnapshot) (model.StrategyMode, error)

	// LapListener is called synchronously after each lap
	LapListener func(snap *model.LapSnapshot)

	Option func(rp *RaceProcessor)

	RaceProcessor struct {
		raceID       string
		circuit      model.Circuit
		field        []model.Participant
		directedIdx  int
		directedMode model.StrategyMode
		lap          int
		state        State
		fastest      model.FastestLap
		src          random.Source
		seed         uint64
		policy       policy.Policy
		decisions    DecisionSource
		listeners    []LapListener
		gridGap      float64
		l            *log.Logger
		tracer       trace.Tracer
		metrics      raceMetrics
	}

	raceMetrics struct {
		laps     metric.Int64Counter
		pitstops metric.Int64Counter
		lapTime  metric.Float64Histogram
	}
)

func (f DecisionFunc) Decide(ctx context.Context, snap *model.LapSnapshot) (
	model.StrategyMode, error,
) {
	return f(ctx, snap)
}

func WithRaceID(id string) Option {
	return func(rp *RaceProcessor) {
		rp.raceID = id
	}
}

func WithRandomSource(src random.Source) Option {
	return func(rp *RaceProcessor) {
		rp.src = src
	}
}

func WithSeed(seed uint64) Option {
	return func(rp *RaceProcessor) {
		rp.seed = seed
		rp.src = random.New(seed)
	}
}

func WithPolicy(p policy.Policy) Option {
	return func(rp *RaceProcessor) {
		rp.policy = p
	}
}

func WithDecisionSource(ds DecisionSource) Option {
	return func(rp *RaceProcessor) {
		rp.decisions = ds
	}
}

func WithLapListener(listener LapListener) Option {
	return func(rp *RaceProcessor) {
		rp.listeners = append(rp.listeners, listener)
	}
}

func WithGridGap(gap float64) Option {
	return func(rp *RaceProcessor) {
		rp.gridGap = gap
	}
}

func WithLogger(l *log.Logger) Option {
	return func(rp *RaceProcessor) {
		rp.l = l
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(rp *RaceProcessor) {
		rp.tracer = t
	}
}

// IsDecisionPoint reports whether the directed participant decides on lap (1-based)
func IsDecisionPoint(lap int) bool {
	return lap >= 1 && (lap-1)%DecisionInterval == 0
}

// NewRaceProcessor forms the grid. The field order is the grid order and the
// fixed iteration order of every lap.
//
//nolint:whitespace // editor/linter issue
func NewRaceProcessor(
	circuit model.Circuit,
	field []model.Participant,
	opts ...Option,
) (*RaceProcessor, error) {
	if len(field) == 0 {
		return nil, ErrEmptyField
	}
	if circuit.Laps < 1 || circuit.BaseLapSeconds <= 0 || circuit.PitStopSeconds <= 0 {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidCircuit, circuit)
	}
	rp := &RaceProcessor{
		circuit:      circuit,
		field:        slices.Clone(field),
		directedIdx:  -1,
		directedMode: model.ModeNeutral,
		state:        StateGridFormed,
		policy:       policy.Automated{},
		gridGap:      DefaultGridGap,
		l:            log.Default().Named("race"),
		tracer:       otel.Tracer(defaultTracerName),
	}
	for _, opt := range opts {
		opt(rp)
	}
	for i := range rp.field {
		if !rp.field[i].Directed {
			continue
		}
		if rp.directedIdx != -1 {
			return nil, ErrMultipleDirected
		}
		rp.directedIdx = i
	}
	if rp.directedIdx != -1 && rp.decisions == nil {
		return nil, ErrNoDecisionSource
	}
	if rp.src == nil {
		rp.seed = uint64(time.Now().UnixNano())
		rp.src = random.New(rp.seed)
	}
	rp.setupMetrics()
	rp.formGrid()
	rp.l.Debug("grid formed",
		log.String("raceId", rp.raceID),
		log.String("circuit", circuit.Key),
		log.Int("laps", circuit.Laps),
		log.Int("participants", len(rp.field)),
		log.Uint64("seed", rp.seed))
	return rp, nil
}

func (rp *RaceProcessor) setupMetrics() {
	var err error
	if rp.metrics.laps, err = meter.Int64Counter("rsim.race.laps",
		metric.WithDescription("number of simulated participant laps"),
		metric.WithUnit("{lap}")); err != nil {
		rp.l.Warn("could not create metric", log.ErrorField(err))
	}
	if rp.metrics.pitstops, err = meter.Int64Counter("rsim.race.pitstops",
		metric.WithDescription("number of pit stops"),
		metric.WithUnit("{stop}")); err != nil {
		rp.l.Warn("could not create metric", log.ErrorField(err))
	}
	if rp.metrics.lapTime, err = meter.Float64Histogram("rsim.race.laptime",
		metric.WithDescription("simulated lap times"),
		metric.WithUnit("s")); err != nil {
		rp.l.Warn("could not create metric", log.ErrorField(err))
	}
}

func (rp *RaceProcessor) formGrid() {
	for i := range rp.field {
		p := &rp.field[i]
		p.CumulativeTime = float64(i) * rp.gridGap
		p.StartingRank = i + 1
		p.LastLapTime = 0
		p.FastestLap = 0
		p.PitStops = 0
		p.PittedThisLap = false
		p.Mode = model.ModeNeutral
	}
	ranking.Recompute(rp.field)
}

func (rp *RaceProcessor) State() State {
	return rp.state
}

// Lap returns the number of completed laps
func (rp *RaceProcessor) Lap() int {
	return rp.lap
}

func (rp *RaceProcessor) Circuit() model.Circuit {
	return rp.circuit
}

func (rp *RaceProcessor) DirectedMode() model.StrategyMode {
	return rp.directedMode
}

func (rp *RaceProcessor) Seed() uint64 {
	return rp.seed
}

// Snapshot returns a copy of the current race state
func (rp *RaceProcessor) Snapshot() *model.LapSnapshot {
	return &model.LapSnapshot{
		RaceID:       rp.raceID,
		Circuit:      rp.circuit.Key,
		Lap:          rp.lap,
		TotalLaps:    rp.circuit.Laps,
		DirectedMode: rp.directedMode,
		Participants: slices.Clone(rp.field),
		FastestLap:   rp.fastest,
	}
}

// Step simulates the next lap. If the decision source fails the race state
// remains unchanged.
//
//nolint:funlen // ok
func (rp *RaceProcessor) Step(ctx context.Context) (*model.LapSnapshot, error) {
	if rp.state == StateFinished {
		return nil, ErrRaceFinished
	}
	lap := rp.lap + 1
	ctx, span := rp.tracer.Start(ctx, "race.lap",
		trace.WithAttributes(
			attribute.String("race.id", rp.raceID),
			attribute.Int("race.lap", lap)))
	defer span.End()

	directedPit := false
	if rp.directedIdx != -1 && IsDecisionPoint(lap) {
		choice, err := rp.decide(ctx)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if choice == model.ModePit {
			directedPit = true
		} else {
			rp.directedMode = choice
		}
		rp.l.Debug("directed decision",
			log.Int("lap", lap),
			log.Stringer("choice", choice),
			log.Stringer("activeMode", rp.directedMode))
	}

	attrs := metric.WithAttributes(attribute.String("circuit", rp.circuit.Key))
	for i := range rp.field {
		p := &rp.field[i]
		var d policy.Decision
		if i == rp.directedIdx {
			d = policy.Decision{Mode: rp.directedMode, Pit: directedPit}
		} else {
			d = rp.policy.Decide(p, rp.src)
		}

		lapTime := laptime.LapTime(p, &rp.circuit, d.Mode, rp.src)
		if d.Pit {
			lapTime += rp.circuit.PitStopSeconds
			p.PitStops++
			rp.metrics.pitstops.Add(ctx, 1, attrs)
		}
		p.PittedThisLap = d.Pit
		p.Mode = d.Mode
		p.LastLapTime = lapTime
		p.CumulativeTime += lapTime
		if !p.HasFastestLap() || lapTime < p.FastestLap {
			p.FastestLap = lapTime
		}
		if !rp.fastest.IsSet() || lapTime < rp.fastest.Time {
			rp.fastest = model.FastestLap{Time: lapTime, Holder: p.Name, Lap: lap}
		}

		wear.Apply(p, d.Mode, d.Pit, rp.src)

		rp.metrics.laps.Add(ctx, 1, attrs)
		rp.metrics.lapTime.Record(ctx, lapTime, attrs)
	}
	ranking.Recompute(rp.field)

	rp.lap = lap
	if rp.lap >= rp.circuit.Laps {
		rp.state = StateFinished
	} else {
		rp.state = StateRunning
	}

	snap := rp.Snapshot()
	if leader, ok := snap.ByRank(1); ok {
		rp.l.Debug("lap completed",
			log.Int("lap", lap),
			log.String("leader", leader.Name),
			log.Float64("fastestLap", rp.fastest.Time),
			log.String("fastestHolder", rp.fastest.Holder))
	}
	for _, listener := range rp.listeners {
		listener(snap)
	}
	return snap, nil
}

func (rp *RaceProcessor) decide(ctx context.Context) (model.StrategyMode, error) {
	choice, err := rp.decisions.Decide(ctx, rp.Snapshot())
	if err != nil {
		return model.ModeNeutral, fmt.Errorf("lap %d: %w", rp.lap+1, err)
	}
	if !slices.Contains(allowedDirectedModes, choice) {
		return model.ModeNeutral, fmt.Errorf("lap %d: %w: %s",
			rp.lap+1, ErrInvalidDecision, choice)
	}
	return choice, nil
}

// Run steps through all remaining laps and returns the final classification
func (rp *RaceProcessor) Run(ctx context.Context) (*model.Classification, error) {
	ctx, span := rp.tracer.Start(ctx, "race.run",
		trace.WithAttributes(
			attribute.String("race.id", rp.raceID),
			attribute.String("race.circuit", rp.circuit.Key),
			attribute.Int("race.laps", rp.circuit.Laps)))
	defer span.End()

	for rp.state != StateFinished {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := rp.Step(ctx); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}
	c, err := rp.Classification()
	if err != nil {
		return nil, err
	}
	if winner, ok := c.Winner(); ok {
		rp.l.Info("race finished",
			log.String("raceId", rp.raceID),
			log.String("winner", winner.Name),
			log.Float64("totalTime", winner.TotalTime),
			log.String("fastestLapHolder", c.FastestLap.Holder),
			log.Float64("fastestLap", c.FastestLap.Time))
	}
	return c, nil
}

// Classification returns the final result. Only available after the last lap.
func (rp *RaceProcessor) Classification() (*model.Classification, error) {
	if rp.state != StateFinished {
		return nil, ErrRaceNotFinished
	}
	order := slices.Clone(rp.field)
	slices.SortStableFunc(order, func(a, b model.Participant) int {
		return a.Rank - b.Rank
	})
	entries := make([]model.ClassificationEntry, 0, len(order))
	for i := range order {
		p := &order[i]
		entries = append(entries, model.ClassificationEntry{
			Pos:         p.Rank,
			StartingPos: p.StartingRank,
			Name:        p.Name,
			Team:        p.Team,
			Directed:    p.Directed,
			TotalTime:   p.CumulativeTime,
			Gap:         p.CumulativeTime - order[0].CumulativeTime,
			FastestLap:  p.FastestLap,
			PitStops:    p.PitStops,
		})
	}
	return &model.Classification{
		RaceID:     rp.raceID,
		Circuit:    rp.circuit.Key,
		Laps:       rp.circuit.Laps,
		Entries:    entries,
		FastestLap: rp.fastest,
	}, nil
}
