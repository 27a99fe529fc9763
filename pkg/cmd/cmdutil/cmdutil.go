// Package cmdutil holds helpers shared by the rsim sub commands
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/pgx-contrib/pgxtrace"

	"github.com/mpapenbr/racesim/log"
	"github.com/mpapenbr/racesim/pkg/catalog"
	"github.com/mpapenbr/racesim/pkg/config"
	"github.com/mpapenbr/racesim/pkg/db/postgres"
	"github.com/mpapenbr/racesim/pkg/model"
	"github.com/mpapenbr/racesim/pkg/utils"
)

var (
	ErrNoDriver    = errors.New("either --driver or --team is required")
	ErrInvalidLaps = errors.New("laps must be positive")
	ErrNatsURL     = errors.New("invalid nats url")
	ErrDBURL       = errors.New("invalid database url")
)

// LoadCatalog reads config.CatalogFile or falls back to the built-in catalog
func LoadCatalog() (*catalog.Catalog, error) {
	if config.CatalogFile == "" {
		return catalog.Default(), nil
	}
	c, err := catalog.Load(config.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", config.CatalogFile, err)
	}
	log.Debug("catalog loaded", log.String("file", config.CatalogFile))
	return c, nil
}

// ResolveDriver picks the driver by name. If only a team is given the
// team's first driver is used.
func ResolveDriver(c *catalog.Catalog, team, driver string) (catalog.Driver, error) {
	if driver != "" {
		return c.Driver(driver)
	}
	if team == "" {
		return catalog.Driver{}, ErrNoDriver
	}
	drivers, err := c.DriversOf(team)
	if err != nil {
		return catalog.Driver{}, err
	}
	if len(drivers) == 0 {
		return catalog.Driver{}, fmt.Errorf("team %q has no drivers: %w", team, catalog.ErrNotFound)
	}
	return drivers[0], nil
}

// ResolveCircuit looks up the circuit, laps > 0 overrides the race distance
func ResolveCircuit(c *catalog.Catalog, key string, laps int) (model.Circuit, error) {
	circuit, err := c.Circuit(key)
	if err != nil {
		return model.Circuit{}, err
	}
	switch {
	case laps > 0:
		return circuit.WithLaps(laps), nil
	case laps < 0:
		return model.Circuit{}, ErrInvalidLaps
	}
	return circuit, nil
}

// WaitTimeout parses config.WaitForServices, invalid values yield 15s
func WaitTimeout() time.Duration {
	d, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("invalid wait-for-services, using default",
			log.String("value", config.WaitForServices))
		return 15 * time.Second
	}
	return d
}

// ConnectNats waits for the server to accept connections and connects
func ConnectNats(url string) (*nats.Conn, error) {
	addr := utils.ExtractFromNatsURL(url)
	if addr == "" {
		return nil, fmt.Errorf("%w: %s", ErrNatsURL, url)
	}
	if err := utils.WaitForTCP(addr, WaitTimeout()); err != nil {
		return nil, err
	}
	conn, err := nats.Connect(url, nats.Name("rsim"))
	if err != nil {
		return nil, err
	}
	log.Info("connected to nats", log.String("url", conn.ConnectedUrlRedacted()))
	return conn, nil
}

// ConnectDB waits for the database and creates a pool. Statements are logged
// with config.SQLLogLevel, with telemetry enabled they are traced as well.
func ConnectDB(ctx context.Context) (*pgxpool.Pool, error) {
	addr := utils.ExtractFromDBURL(config.DB)
	if addr == "" {
		return nil, ErrDBURL
	}
	if err := utils.WaitForTCP(addr, WaitTimeout()); err != nil {
		return nil, err
	}
	level, err := log.ParseLevel(config.SQLLogLevel)
	if err != nil {
		level = log.DebugLevel
	}
	tracer := pgxtrace.CompositeQueryTracer{
		postgres.NewLogTracer(log.GetFromContext(ctx).Named("sql"), level),
	}
	if config.EnableTelemetry {
		tracer = append(tracer, postgres.NewOtlpTracer())
	}
	return postgres.InitWithURL(ctx, config.DB, postgres.WithTracer(tracer))
}
