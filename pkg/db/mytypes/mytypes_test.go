package mytypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFastestLap(t *testing.T) {
	f := FastestLap{Time: 78.123, Holder: "A", Lap: 3}
	v, err := f.Value()
	require.NoError(t, err)

	var fromBytes FastestLap
	require.NoError(t, fromBytes.Scan(v))
	assert.Equal(t, f, fromBytes)

	var fromString FastestLap
	require.NoError(t, fromString.Scan(`{"time":78.123,"holder":"A","lap":3}`))
	assert.Equal(t, f, fromString)

	assert.Error(t, fromString.Scan(42))
}
