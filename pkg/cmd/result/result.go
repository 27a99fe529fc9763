package result

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racesim/log"
	"github.com/mpapenbr/racesim/pkg/cmd/cmdutil"
	"github.com/mpapenbr/racesim/pkg/config"
	"github.com/mpapenbr/racesim/pkg/convert"
	natspub "github.com/mpapenbr/racesim/pkg/publish/nats"
	"github.com/mpapenbr/racesim/pkg/render"
	resultrepo "github.com/mpapenbr/racesim/pkg/repository/result"
)

var ErrNoSource = errors.New("either a file or --race-id with --db or --nats-url is required")

type resultArgs struct {
	query  string
	driver string
	raceID string
}

var args resultArgs

func NewResultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "result [file]",
		Short: "shows a stored race classification",
		Long: `Shows a classification written by "race --out" or stored in the
nats key value bucket (--race-id). --query evaluates a JSONPath expression,
e.g. '$.entries[?(@.pitStops > 1)].name'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, posArgs []string) error {
			data, err := loadData(cmd.Context(), posArgs)
			if err != nil {
				return err
			}
			return showResult(data, &args, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&args.query, "query", "",
		"JSONPath expression evaluated on the result")
	cmd.Flags().StringVar(&args.driver, "driver", "",
		"show only the entry of this driver")
	cmd.Flags().StringVar(&args.raceID, "race-id", "",
		"load the result of this race from the archive (--db) or nats")
	cmd.Flags().StringVar(&config.NatsURL, "nats-url", "",
		"nats server holding the result bucket")
	return cmd
}

func loadData(ctx context.Context, posArgs []string) ([]byte, error) {
	switch {
	case len(posArgs) == 1:
		return os.ReadFile(posArgs[0])
	case args.raceID != "" && config.DB != "":
		return loadFromArchive(ctx, args.raceID)
	case args.raceID != "" && config.NatsURL != "":
		return loadFromNats(ctx, args.raceID)
	}
	return nil, ErrNoSource
}

func loadFromArchive(ctx context.Context, raceID string) ([]byte, error) {
	pool, err := cmdutil.ConnectDB(ctx)
	if err != nil {
		return nil, err
	}
	defer pool.Close()
	msg, err := resultrepo.NewRepository(pool).Load(ctx, raceID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

func loadFromNats(ctx context.Context, raceID string) ([]byte, error) {
	conn, err := cmdutil.ConnectNats(config.NatsURL)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	pub, err := natspub.New(ctx, conn, raceID,
		natspub.WithLogger(log.GetFromContext(ctx).Named("nats")))
	if err != nil {
		return nil, err
	}
	msg, err := pub.LoadResult(ctx, raceID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

func showResult(data []byte, a *resultArgs, out io.Writer) error {
	switch {
	case a.query != "":
		res, err := convert.Query(data, a.query)
		if err != nil {
			return err
		}
		for _, r := range res {
			fmt.Fprintln(out, r)
		}
		return nil
	case a.driver != "":
		e, err := convert.FindEntry(data, a.driver)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (%s) P%d, started P%d, %s, best %s, %d pit stops\n",
			e.Name, e.Team, e.Pos, e.StartingPos,
			render.FormatLapTime(e.TotalTime), render.FormatLapTime(e.FastestLap), e.PitStops)
		return nil
	}
	var msg convert.ResultMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	return render.Classification(out, convert.ToClassification(&msg))
}
