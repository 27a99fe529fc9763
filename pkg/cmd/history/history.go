package history

import (
	"context"
	"fmt"
	"io"

	"github.com/aarondl/opt/omit"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/racesim/log"
	"github.com/mpapenbr/racesim/pkg/cmd/cmdutil"
	"github.com/mpapenbr/racesim/pkg/repository/result"
	"github.com/mpapenbr/racesim/pkg/render"
)

type historyArgs struct {
	circuit string
	driver  string
	limit   int
	records bool
	delete  string
}

var args historyArgs

func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "shows races stored in the result archive",
		Long: `Lists archived races (latest first) or, with --records, the statistics
per driver. Requires --db.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := cmdutil.ConnectDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			return showHistory(cmd.Context(), result.NewRepository(pool), &args, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&args.circuit, "circuit", "c", "",
		"only races on this circuit")
	cmd.Flags().StringVarP(&args.driver, "driver", "d", "",
		"only races with this directed driver (with --records: only this driver)")
	cmd.Flags().IntVarP(&args.limit, "limit", "n", 20,
		"maximum number of rows (0: no limit)")
	cmd.Flags().BoolVar(&args.records, "records", false,
		"show statistics per driver")
	cmd.Flags().StringVar(&args.delete, "delete", "",
		"remove this race from the archive")
	return cmd
}

type archive interface {
	List(ctx context.Context, f result.Filter) ([]result.RaceInfo, error)
	Records(ctx context.Context, f result.Filter) ([]result.DriverRecord, error)
	Delete(ctx context.Context, raceID string) (int, error)
}

func showHistory(ctx context.Context, repo archive, a *historyArgs, out io.Writer) error {
	if a.delete != "" {
		n, err := repo.Delete(ctx, a.delete)
		if err != nil {
			return err
		}
		log.GetFromContext(ctx).Info("race deleted",
			log.String("raceId", a.delete), log.Int("rows", n))
		fmt.Fprintf(out, "%d race(s) deleted\n", n)
		return nil
	}
	f := result.Filter{Limit: a.limit}
	if a.circuit != "" {
		f.Circuit = omit.From(a.circuit)
	}
	if a.driver != "" {
		f.Driver = omit.From(a.driver)
	}
	if a.records {
		records, err := repo.Records(ctx, f)
		if err != nil {
			return err
		}
		return render.Records(out, records)
	}
	races, err := repo.List(ctx, f)
	if err != nil {
		return err
	}
	return render.Races(out, races)
}
