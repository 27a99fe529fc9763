package race

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/racesim/log"
	"github.com/mpapenbr/racesim/pkg/cmd/cmdutil"
	"github.com/mpapenbr/racesim/pkg/config"
	"github.com/mpapenbr/racesim/pkg/convert"
	"github.com/mpapenbr/racesim/pkg/decision"
	"github.com/mpapenbr/racesim/pkg/model"
	"github.com/mpapenbr/racesim/pkg/processing/race"
	natspub "github.com/mpapenbr/racesim/pkg/publish/nats"
	"github.com/mpapenbr/racesim/pkg/render"
	"github.com/mpapenbr/racesim/pkg/repository/result"
	"github.com/mpapenbr/racesim/pkg/utils/broadcast"
)

type raceArgs struct {
	team      string
	driver    string
	circuit   string
	seed      uint64
	seedSet   bool
	laps      int
	gridGap   float64
	strategy  string
	out       string
	quiet     bool
	standings bool
}

var args raceArgs

func NewRaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "race",
		Short: "runs a race with a directed driver",
		Long: `Runs a single race. The strategy of the directed driver is requested
every 3 laps, either interactively or from the --strategy list.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args.seedSet = cmd.Flags().Changed("seed")
			return runRace(cmd.Context(), &args, os.Stdin, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&args.team, "team", "t", "",
		"team key, the team's first driver is used if --driver is not set")
	cmd.Flags().StringVarP(&args.driver, "driver", "d", "",
		"name of the directed driver")
	cmd.Flags().StringVarP(&args.circuit, "circuit", "c", "monaco",
		"circuit key")
	cmd.Flags().Uint64Var(&args.seed, "seed", 0,
		"seed for the random source (default: time based)")
	cmd.Flags().IntVar(&args.laps, "laps", 0,
		"race distance (default: laps of the circuit)")
	cmd.Flags().Float64Var(&args.gridGap, "grid-gap", race.DefaultGridGap,
		"time gap in seconds between grid slots")
	cmd.Flags().StringVar(&args.strategy, "strategy", "",
		"comma separated choices (push,save,pit), the last one is repeated")
	cmd.Flags().StringVarP(&args.out, "out", "o", "",
		"write the classification as json to this file")
	cmd.Flags().BoolVarP(&args.quiet, "quiet", "q", false,
		"print only the classification")
	cmd.Flags().BoolVar(&args.standings, "standings", false,
		"print the full standings after each lap")
	cmd.Flags().StringVar(&config.NatsURL, "nats-url", "",
		"publish laps and result to this nats server")
	cmd.MarkFlagsMutuallyExclusive("quiet", "standings")
	return cmd
}

//nolint:funlen,cyclop // ok
func runRace(ctx context.Context, a *raceArgs, in io.Reader, out io.Writer) error {
	l := log.GetFromContext(ctx).Named("race")
	c, err := cmdutil.LoadCatalog()
	if err != nil {
		return err
	}
	driver, err := cmdutil.ResolveDriver(c, a.team, a.driver)
	if err != nil {
		return err
	}
	circuit, err := cmdutil.ResolveCircuit(c, a.circuit, a.laps)
	if err != nil {
		return err
	}
	field, err := c.Field(driver)
	if err != nil {
		return err
	}
	ds, err := decisionSource(a, in, out, &circuit)
	if err != nil {
		return err
	}

	raceID := uuid.NewString()
	opts := []race.Option{
		race.WithRaceID(raceID),
		race.WithDecisionSource(ds),
		race.WithLogger(l),
		race.WithLapListener(consoleListener(a, out)),
	}
	if a.seedSet {
		opts = append(opts, race.WithSeed(a.seed))
	}
	if a.gridGap > 0 {
		opts = append(opts, race.WithGridGap(a.gridGap))
	}

	var pub *natspub.Publisher
	var fwd *forwarder
	if config.NatsURL != "" {
		conn, err := cmdutil.ConnectNats(config.NatsURL)
		if err != nil {
			return err
		}
		defer conn.Close()
		if pub, err = natspub.New(ctx, conn, raceID,
			natspub.WithLogger(l.Named("nats"))); err != nil {
			return err
		}
		fwd = startForwarding(pub, raceID, circuit.Laps, l)
		opts = append(opts, race.WithLapListener(fwd.send))
	}

	rp, err := race.NewRaceProcessor(circuit, field, opts...)
	if err != nil {
		return err
	}
	l.Info("race started",
		log.String("raceId", raceID),
		log.String("circuit", circuit.Key),
		log.String("driver", driver.Name),
		log.Uint64("seed", rp.Seed()))

	if !a.quiet {
		fmt.Fprintf(out, "%s, %s | %d laps | %s (%s)\n",
			circuit.Name, circuit.Country, circuit.Laps, driver.Name, c.TeamName(driver))
		if err := render.Standings(out, rp.Snapshot()); err != nil {
			return err
		}
	}

	classification, err := rp.Run(ctx)
	if fwd != nil {
		fwd.stop()
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	if err := render.Classification(out, classification); err != nil {
		return err
	}
	msg := convert.ConvertClassification(classification, rp.Seed())
	if pub != nil {
		if err := pub.PublishResult(ctx, msg); err != nil {
			return err
		}
	}
	if config.DB != "" {
		if err := archiveResult(ctx, msg); err != nil {
			return err
		}
		fmt.Fprintf(out, "Result archived as %s\n", raceID)
	}
	if a.out != "" {
		return writeResult(a.out, msg)
	}
	return nil
}

//nolint:whitespace // editor/linter issue
func decisionSource(
	a *raceArgs,
	in io.Reader,
	out io.Writer,
	circuit *model.Circuit,
) (race.DecisionSource, error) {
	if a.strategy != "" {
		modes, err := decision.ParsePlan(a.strategy)
		if err != nil {
			return nil, err
		}
		return decision.NewScripted(modes, decision.WithRepeatLast()), nil
	}
	return decision.NewPrompt(in, out,
		decision.WithBriefing(render.Briefing),
		decision.WithPitCost(circuit.PitStopSeconds)), nil
}

func consoleListener(a *raceArgs, out io.Writer) race.LapListener {
	return func(snap *model.LapSnapshot) {
		switch {
		case a.quiet:
		case a.standings:
			//nolint:errcheck // console output
			render.Standings(out, snap)
		default:
			render.LapSummary(out, snap)
		}
	}
}

func archiveResult(ctx context.Context, msg *convert.ResultMessage) error {
	pool, err := cmdutil.ConnectDB(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	return result.NewRepository(pool).Store(ctx, msg)
}

func writeResult(path string, msg *convert.ResultMessage) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return convert.WriteResult(f, msg)
}

// forwarder decouples the race loop from publishing to nats
type forwarder struct {
	source chan *model.LapSnapshot
	srv    broadcast.Server[*model.LapSnapshot]
	done   chan struct{}
}

//nolint:whitespace // editor/linter issue
func startForwarding(
	pub *natspub.Publisher,
	raceID string,
	laps int,
	l *log.Logger,
) *forwarder {
	f := &forwarder{
		source: make(chan *model.LapSnapshot, laps),
		done:   make(chan struct{}),
	}
	f.srv = broadcast.NewServer("laps", f.source,
		broadcast.WithTelemetry[*model.LapSnapshot](raceID),
		broadcast.WithLogger[*model.LapSnapshot](l.Named("broadcast")))
	sub := f.srv.Subscribe()
	go func() {
		pub.Forward(sub)
		close(f.done)
	}()
	return f
}

func (f *forwarder) send(snap *model.LapSnapshot) {
	f.source <- snap
}

func (f *forwarder) stop() {
	close(f.source)
	<-f.srv.Done()
	<-f.done
}
