package history

import (
	"bytes"
	"context"
	"testing"

	"github.com/aarondl/opt/omit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racesim/pkg/repository/result"
)

type fakeArchive struct {
	filter  result.Filter
	deleted string
}

func (f *fakeArchive) List(_ context.Context, filter result.Filter) ([]result.RaceInfo, error) {
	f.filter = filter
	return []result.RaceInfo{{RaceID: "r1", Circuit: "spa", Laps: 5, Winner: "A"}}, nil
}

//nolint:whitespace // editor/linter issue
func (f *fakeArchive) Records(_ context.Context, filter result.Filter) (
	[]result.DriverRecord, error,
) {
	f.filter = filter
	return []result.DriverRecord{{Driver: "A", Races: 1, Wins: 1, Podiums: 1, BestPos: 1}}, nil
}

func (f *fakeArchive) Delete(_ context.Context, raceID string) (int, error) {
	f.deleted = raceID
	return 1, nil
}

func TestShowHistory(t *testing.T) {
	ctx := context.Background()
	repo := &fakeArchive{}
	var out bytes.Buffer

	require.NoError(t, showHistory(ctx, repo, &historyArgs{circuit: "spa", limit: 5}, &out))
	assert.Equal(t, omit.From("spa"), repo.filter.Circuit)
	assert.False(t, repo.filter.Driver.IsSet())
	assert.Equal(t, 5, repo.filter.Limit)
	assert.Contains(t, out.String(), "r1")

	out.Reset()
	require.NoError(t, showHistory(ctx, repo, &historyArgs{driver: "A", records: true}, &out))
	assert.Equal(t, omit.From("A"), repo.filter.Driver)
	assert.Contains(t, out.String(), "WINS")

	out.Reset()
	require.NoError(t, showHistory(ctx, repo, &historyArgs{delete: "r9"}, &out))
	assert.Equal(t, "r9", repo.deleted)
	assert.Contains(t, out.String(), "1 race(s) deleted")
}
