package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Level(t *testing.T) {
	prev := Log
	t.Cleanup(func() {
		Log = prev
		_ = SetLevel("info")
	})

	require.NoError(t, Setup(true, "debug"))
	assert.Equal(t, "debug", Level())
	assert.True(t, Log.Desugar().Core().Enabled(-1)) // debug

	require.NoError(t, SetLevel("warn"))
	assert.False(t, Log.Desugar().Core().Enabled(0)) // info
}

func TestSetup_InvalidLevel(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	assert.Error(t, Setup(false, "loud"))
	assert.Error(t, SetLevel("loud"))
}
