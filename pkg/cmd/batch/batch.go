package batch

import (
	"context"
	"encoding/json"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racesim/log"
	"github.com/mpapenbr/racesim/pkg/batch"
	"github.com/mpapenbr/racesim/pkg/catalog"
	"github.com/mpapenbr/racesim/pkg/cmd/cmdutil"
	"github.com/mpapenbr/racesim/pkg/decision"
	"github.com/mpapenbr/racesim/pkg/processing/race"
	"github.com/mpapenbr/racesim/pkg/render"
)

type batchArgs struct {
	team     string
	driver   string
	circuit  string
	races    int
	workers  int
	seed     uint64
	laps     int
	strategy string
	json     bool
}

var args batchArgs

func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "runs many races and prints aggregated statistics",
		Long: `Runs a number of races in parallel. Race i uses seed+i, the result
does not depend on the number of workers. Without --driver or --team all
participants are automated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd.Context(), &args, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&args.team, "team", "t", "",
		"team key, the team's first driver is directed if --driver is not set")
	cmd.Flags().StringVarP(&args.driver, "driver", "d", "",
		"name of the directed driver")
	cmd.Flags().StringVarP(&args.circuit, "circuit", "c", "monaco",
		"circuit key")
	cmd.Flags().IntVarP(&args.races, "races", "n", 100,
		"number of races")
	cmd.Flags().IntVar(&args.workers, "workers", runtime.NumCPU(),
		"number of races simulated in parallel")
	cmd.Flags().Uint64Var(&args.seed, "seed", 1,
		"seed of the first race")
	cmd.Flags().IntVar(&args.laps, "laps", 0,
		"race distance (default: laps of the circuit)")
	cmd.Flags().StringVar(&args.strategy, "strategy", "",
		"fixed choices (push,save,pit) for the directed driver (default: automated heuristic)")
	cmd.Flags().BoolVar(&args.json, "json", false,
		"print the summary as json")
	return cmd
}

func runBatch(ctx context.Context, a *batchArgs, out io.Writer) error {
	l := log.GetFromContext(ctx).Named("batch")
	c, err := cmdutil.LoadCatalog()
	if err != nil {
		return err
	}
	circuit, err := cmdutil.ResolveCircuit(c, a.circuit, a.laps)
	if err != nil {
		return err
	}
	params := batch.Params{Catalog: c, Circuit: circuit, Seed: a.seed}
	if a.driver != "" || a.team != "" {
		var d catalog.Driver
		if d, err = cmdutil.ResolveDriver(c, a.team, a.driver); err != nil {
			return err
		}
		params.Directed = &d
	}
	if a.strategy != "" {
		modes, err := decision.ParsePlan(a.strategy)
		if err != nil {
			return err
		}
		params.NewDecisionSource = func() race.DecisionSource {
			return decision.NewScripted(modes, decision.WithRepeatLast())
		}
	}

	summary, err := batch.Run(ctx, params, a.races,
		batch.WithWorkers(a.workers), batch.WithLogger(l))
	if err != nil {
		return err
	}
	if a.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return render.BatchSummary(out, summary)
}
