package cmdutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racesim/pkg/catalog"
	"github.com/mpapenbr/racesim/pkg/config"
)

func TestResolveDriver(t *testing.T) {
	c := catalog.Default()
	tests := []struct {
		name    string
		team    string
		driver  string
		want    string
		wantErr error
	}{
		{name: "by name", driver: "charles leclerc", want: "Charles Leclerc"},
		{name: "name wins over team", team: "haas", driver: "Lando Norris", want: "Lando Norris"},
		{name: "first of team", team: "ferrari", want: "Charles Leclerc"},
		{name: "nothing", wantErr: ErrNoDriver},
		{name: "unknown team", team: "brabham", wantErr: catalog.ErrNotFound},
		{name: "unknown driver", driver: "Ayrton Senna", wantErr: catalog.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveDriver(c, tt.team, tt.driver)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestResolveDriver_TeamWithoutDrivers(t *testing.T) {
	c, err := catalog.Parse([]byte(`
teams:
  - {key: t1, name: Team One}
  - {key: empty, name: Empty Garage}
drivers:
  - {name: Solo, team: t1, skill: {speed: 7, cornering: 7, overtaking: 7, consistency: 7, aggression: 7, strategy: 7}}
circuits:
  - {key: oval, name: Oval, baseLapSeconds: 40, laps: 5, pitStopSeconds: 10}
`))
	require.NoError(t, err)

	_, err = ResolveDriver(c, "empty", "")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Contains(t, err.Error(), "has no drivers")

	got, err := ResolveDriver(c, "t1", "")
	require.NoError(t, err)
	assert.Equal(t, "Solo", got.Name)
}

func TestResolveCircuit(t *testing.T) {
	c := catalog.Default()
	circuit, err := ResolveCircuit(c, "spa", 0)
	require.NoError(t, err)
	assert.Equal(t, 25, circuit.Laps)

	circuit, err = ResolveCircuit(c, "SPA", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, circuit.Laps)

	_, err = ResolveCircuit(c, "spa", -1)
	assert.ErrorIs(t, err, ErrInvalidLaps)
	_, err = ResolveCircuit(c, "imola", 0)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestLoadCatalog(t *testing.T) {
	t.Cleanup(func() { config.CatalogFile = "" })

	config.CatalogFile = ""
	c, err := LoadCatalog()
	require.NoError(t, err)
	assert.Len(t, c.Drivers(), 20)

	config.CatalogFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = LoadCatalog()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWaitTimeout(t *testing.T) {
	t.Cleanup(func() { config.WaitForServices = "15s" })
	config.WaitForServices = "2s"
	assert.Equal(t, 2*time.Second, WaitTimeout())
	config.WaitForServices = "soon"
	assert.Equal(t, 15*time.Second, WaitTimeout())
}

func TestConnectNats_InvalidURL(t *testing.T) {
	_, err := ConnectNats("http://localhost:4222")
	assert.ErrorIs(t, err, ErrNatsURL)
}

func TestConnectDB_InvalidURL(t *testing.T) {
	t.Cleanup(func() { config.DB = "" })
	config.DB = "mysql://localhost/rsim"
	_, err := ConnectDB(context.Background())
	assert.ErrorIs(t, err, ErrDBURL)
}
