//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mpapenbr/racesim/pkg/db/migrate"
	database "github.com/mpapenbr/racesim/pkg/db/postgres"
)

const (
	postgresImage = "postgres:15"
	dbUser        = "rsim"
	dbPassword    = "rsim"
	dbName        = "rsim"
)

// SetupTestDB returns a migrated and empty database.
// TESTDB_URL selects an external database, otherwise a container is started.
// The test is skipped if no docker environment is available.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	dbURL := os.Getenv("TESTDB_URL")
	if dbURL == "" {
		dbURL = startContainer(t)
	}
	if err := migrate.MigrateDB(dbURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := database.InitWithURL(ctx, dbURL)
	if err != nil {
		t.Fatalf("init pool: %v", err)
	}
	t.Cleanup(pool.Close)
	ClearAllTables(pool)
	return pool
}

// startContainer runs a throwaway postgres and returns its url.
// The container is removed when the test finishes.
func startContainer(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()
	port, err := nat.NewPort("tcp", "5432")
	if err != nil {
		t.Fatal(err)
	}
	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        postgresImage,
				ExposedPorts: []string{string(port)},
				Env: map[string]string{
					"POSTGRES_USER":     dbUser,
					"POSTGRES_PASSWORD": dbPassword,
					"POSTGRES_DB":       dbName,
				},
				Cmd: []string{"postgres", "-c", "fsync=off"},
				WaitingFor: wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30 * time.Second),
			},
			Started: true,
		})
	if err != nil {
		t.Skipf("postgres container not available: %v", err)
	}
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		t.Fatal(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		dbUser, dbPassword, host, mapped.Port(), dbName)
}

func ClearAllTables(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from race_entry")
	pool.Exec(context.Background(), "delete from race")
}
