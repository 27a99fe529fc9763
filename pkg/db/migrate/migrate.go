package migrate

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/mpapenbr/racesim/log"
)

//go:embed migrations
var migrations embed.FS

// MigrateDB applies all pending migrations
func MigrateDB(dbURL string) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, toMigrateURL(dbURL))
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Debug("No migration required")
		return nil
	}
	if err != nil {
		return err
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	log.Info("Database migrated", log.Uint("version", version), log.Bool("dirty", dirty))
	return nil
}

// the migrate pgx driver is registered as pgx://, sslmode is disabled unless
// configured otherwise
func toMigrateURL(url string) string {
	ret := strings.Replace(url, "postgresql://", "pgx://", 1)
	ret = strings.Replace(ret, "postgres://", "pgx://", 1)
	if strings.Contains(ret, "sslmode=") {
		return ret
	}
	if strings.Contains(ret, "?") {
		return fmt.Sprintf("%s&sslmode=disable", ret)
	}
	return fmt.Sprintf("%s?sslmode=disable", ret)
}
