//nolint:whitespace // can't make both editor and linter happy
package result

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/mpapenbr/racesim/pkg/convert"
	"github.com/mpapenbr/racesim/pkg/db/mytypes"
)

var (
	ErrNotFound      = errors.New("race not found")
	ErrInvalidRaceID = errors.New("invalid race id")
)

type (
	// Repository archives race classifications in postgres
	Repository struct {
		pool *pgxpool.Pool
		db   bob.Executor
	}

	// Filter restricts List and Records, unset values match everything
	Filter struct {
		Circuit omit.Val[string]
		Driver  omit.Val[string] // directed driver
		Limit   int
	}

	RaceInfo struct {
		RaceID      string    `db:"race_id"`
		Circuit     string    `db:"circuit"`
		Laps        int       `db:"laps"`
		Seed        int64     `db:"seed"`
		Winner      string    `db:"winner"`
		Directed    string    `db:"directed"`
		DirectedPos int       `db:"directed_pos"`
		RecordStamp time.Time `db:"record_stamp"`
	}

	// DriverRecord aggregates all archived entries of a driver
	DriverRecord struct {
		Driver  string          `db:"driver"`
		Races   int             `db:"races"`
		Wins    int             `db:"wins"`
		Podiums int             `db:"podiums"`
		BestPos int             `db:"best_pos"`
		AvgPos  decimal.Decimal `db:"avg_pos"`
		BestLap decimal.Decimal `db:"best_lap"`
	}

	raceRow struct {
		ID         int                 `db:"id"`
		RaceID     string              `db:"race_id"`
		Circuit    string              `db:"circuit"`
		Laps       int                 `db:"laps"`
		Seed       int64               `db:"seed"`
		FastestLap *mytypes.FastestLap `db:"fastest_lap"`
	}
	entryRow struct {
		Pos         int             `db:"pos"`
		StartingPos int             `db:"starting_pos"`
		Driver      string          `db:"driver"`
		Team        string          `db:"team"`
		Directed    bool            `db:"directed"`
		TotalTime   decimal.Decimal `db:"total_time"`
		Gap         decimal.Decimal `db:"gap"`
		FastestLap  decimal.Decimal `db:"fastest_lap"`
		PitStops    int             `db:"pit_stops"`
	}
)

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
		db:   bob.NewDB(stdlib.OpenDBFromPool(pool)),
	}
}

// Store archives a classification. The race id must be a UUID.
func (r *Repository) Store(ctx context.Context, msg *convert.ResultMessage) error {
	raceID, err := uuid.FromString(msg.RaceID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRaceID, msg.RaceID)
	}
	var fastest *mytypes.FastestLap
	if msg.FastestLap != nil {
		fastest = &mytypes.FastestLap{
			Time:   msg.FastestLap.Time,
			Holder: msg.FastestLap.Holder,
			Lap:    msg.FastestLap.Lap,
		}
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var id int
		//nolint:gosec // seed keeps its bits
		if err := tx.QueryRow(ctx,
			`insert into race (race_id, circuit, laps, seed, fastest_lap)
			values ($1,$2,$3,$4,$5) returning id`,
			raceID, msg.Circuit, msg.Laps, int64(msg.Seed), fastest,
		).Scan(&id); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for i := range msg.Entries {
			e := &msg.Entries[i]
			batch.Queue(`insert into race_entry
				(race_id, pos, starting_pos, driver, team, directed,
				total_time, gap, fastest_lap, pit_stops)
				values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
				id, e.Pos, e.StartingPos, e.Name, e.Team, e.Directed,
				decimal.NewFromFloat(e.TotalTime), decimal.NewFromFloat(e.Gap),
				decimal.NewFromFloat(e.FastestLap), e.PitStops)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// Load reads an archived classification
func (r *Repository) Load(ctx context.Context, raceID string) (
	*convert.ResultMessage, error,
) {
	if _, err := uuid.FromString(raceID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRaceID, raceID)
	}
	race, err := bob.One(ctx, r.db,
		psql.Select(
			sm.Columns("id", "race_id", "circuit", "laps", "seed", "fastest_lap"),
			sm.From("race"),
			sm.Where(psql.Quote("race_id").EQ(psql.Arg(raceID))),
		),
		scan.StructMapper[raceRow]())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("race %s: %w", raceID, ErrNotFound)
		}
		return nil, err
	}
	entries, err := bob.All(ctx, r.db,
		psql.Select(
			sm.Columns("pos", "starting_pos", "driver", "team", "directed",
				"total_time", "gap", "fastest_lap", "pit_stops"),
			sm.From("race_entry"),
			sm.Where(psql.Quote("race_id").EQ(psql.Arg(race.ID))),
			sm.OrderBy("pos").Asc(),
		),
		scan.StructMapper[entryRow]())
	if err != nil {
		return nil, err
	}

	//nolint:gosec // seed keeps its bits
	ret := &convert.ResultMessage{
		RaceID:  race.RaceID,
		Circuit: race.Circuit,
		Laps:    race.Laps,
		Seed:    uint64(race.Seed),
		Entries: lo.Map(entries, func(e entryRow, _ int) convert.EntryMessage {
			return convert.EntryMessage{
				Pos:         e.Pos,
				StartingPos: e.StartingPos,
				Name:        e.Driver,
				Team:        e.Team,
				Directed:    e.Directed,
				TotalTime:   e.TotalTime.InexactFloat64(),
				Gap:         e.Gap.InexactFloat64(),
				FastestLap:  e.FastestLap.InexactFloat64(),
				PitStops:    e.PitStops,
			}
		}),
	}
	if race.FastestLap != nil {
		ret.FastestLap = &convert.FastestLapMessage{
			Time:   race.FastestLap.Time,
			Holder: race.FastestLap.Holder,
			Lap:    race.FastestLap.Lap,
		}
	}
	return ret, nil
}

// List returns archived races, latest first
func (r *Repository) List(ctx context.Context, f Filter) ([]RaceInfo, error) {
	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(
			"r.race_id", "r.circuit", "r.laps", "r.seed", "r.record_stamp",
			"w.driver AS winner",
			"coalesce(d.driver, '') AS directed",
			"coalesce(d.pos, 0) AS directed_pos"),
		sm.From("race").As("r"),
		sm.InnerJoin("race_entry").As("w").On(
			psql.Raw("w.race_id = r.id"), psql.Raw("w.pos = 1")),
		sm.LeftJoin("race_entry").As("d").On(
			psql.Raw("d.race_id = r.id"), psql.Raw("d.directed")),
		sm.OrderBy("r.id").Desc(),
	}
	if c, ok := f.Circuit.Get(); ok {
		mods = append(mods, sm.Where(psql.Quote("r", "circuit").EQ(psql.Arg(c))))
	}
	if d, ok := f.Driver.Get(); ok {
		mods = append(mods, sm.Where(psql.Quote("d", "driver").EQ(psql.Arg(d))))
	}
	if f.Limit > 0 {
		mods = append(mods, sm.Limit(f.Limit))
	}
	return bob.All(ctx, r.db, psql.Select(mods...), scan.StructMapper[RaceInfo]())
}

// Records aggregates the entries per driver, best drivers first.
// Filter.Driver selects a single driver.
func (r *Repository) Records(ctx context.Context, f Filter) ([]DriverRecord, error) {
	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(
			"e.driver",
			"count(*) AS races",
			"count(*) filter (where e.pos = 1) AS wins",
			"count(*) filter (where e.pos <= 3) AS podiums",
			"min(e.pos) AS best_pos",
			"round(avg(e.pos), 2) AS avg_pos",
			"min(e.fastest_lap) AS best_lap"),
		sm.From("race_entry").As("e"),
		sm.InnerJoin("race").As("r").On(psql.Raw("r.id = e.race_id")),
		sm.GroupBy("e.driver"),
		sm.OrderBy("wins").Desc(),
		sm.OrderBy("avg_pos").Asc(),
		sm.OrderBy("e.driver").Asc(),
	}
	if c, ok := f.Circuit.Get(); ok {
		mods = append(mods, sm.Where(psql.Quote("r", "circuit").EQ(psql.Arg(c))))
	}
	if d, ok := f.Driver.Get(); ok {
		mods = append(mods, sm.Where(psql.Quote("e", "driver").EQ(psql.Arg(d))))
	}
	if f.Limit > 0 {
		mods = append(mods, sm.Limit(f.Limit))
	}
	return bob.All(ctx, r.db, psql.Select(mods...), scan.StructMapper[DriverRecord]())
}

// Delete removes an archived race, returns the number of deleted races
func (r *Repository) Delete(ctx context.Context, raceID string) (int, error) {
	id, err := uuid.FromString(raceID)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidRaceID, raceID)
	}
	cmdTag, err := r.pool.Exec(ctx, "delete from race where race_id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}
