package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, InfoLevel).Named("race")
	l.Debug("hidden")
	l.Info("lap done", Int("lap", 3), String("leader", "A"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"logger":"race"`)
	assert.Contains(t, out, `"lap":3`)
	assert.Contains(t, out, `"leader":"A"`)
}

func TestWithFilter(t *testing.T) {
	opt, err := WithFilter("info,warn,error:* debug:race.*")
	require.NoError(t, err)

	var buf bytes.Buffer
	l := New(&buf, DebugLevel, opt)
	l.Named("catalog").Debug("catalog debug")
	l.Named("race").Named("lap").Debug("race debug")
	l.Named("catalog").Info("catalog info")

	out := buf.String()
	assert.False(t, strings.Contains(out, "catalog debug"))
	assert.True(t, strings.Contains(out, "race debug"))
	assert.True(t, strings.Contains(out, "catalog info"))
}

func TestContext(t *testing.T) {
	assert.Same(t, Default(), GetFromContext(context.Background()))

	l := NewNop()
	ctx := AddToContext(context.Background(), l)
	assert.Same(t, l, GetFromContext(ctx))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, WarnLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
