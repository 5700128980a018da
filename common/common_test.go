package common

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, zerolog.DebugLevel)
	logger.Warn().Msg("Test Warn")
	logger.Info().Msg("Test Info")
	logger.Error().Msg("Test Err")
	require.NotZero(t, buf.Len(), "Loggers returned nothing")
	assert.Contains(t, buf.String(), "Test Info")
}

func TestNopLogger(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.OrNop().Info().Msg("dropped")
	})
}

func TestForBuild(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, zerolog.InfoLevel)
	tagged, id1 := logger.ForBuild("lsh")
	_, id2 := logger.ForBuild("lsh")
	require.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2)
	tagged.Info().Msg("built")
	assert.Contains(t, buf.String(), id1)
	assert.Contains(t, buf.String(), "lsh")
}

func TestProgressFunc(t *testing.T) {
	var nilFn ProgressFunc
	assert.NotPanics(t, func() { nilFn.Report("x", 1, 2) })

	calls := 0
	fn := ProgressFunc(func(stage string, current, total int) { calls++ })
	fn.Report("hash", 1, 10)
	assert.Equal(t, 1, calls)
}

func TestErrors(t *testing.T) {
	t.Parallel()

	t.Run("NotBuilt", func(t *testing.T) {
		err := fmt.Errorf("query: %w", &NotBuiltError{Index: "lsh"})
		assert.True(t, errors.Is(err, ErrNotBuilt))
		var nb *NotBuiltError
		require.True(t, errors.As(err, &nb))
		assert.Equal(t, "lsh", nb.Index)
	})

	t.Run("EmptyDataset", func(t *testing.T) {
		err := &EmptyDatasetError{Source: "queries"}
		assert.True(t, errors.Is(err, ErrEmptyDataset))
		assert.Contains(t, err.Error(), "queries")
	})

	t.Run("Config", func(t *testing.T) {
		assert.NoError(t, PositiveInt("k", 1))
		err := PositiveInt("k", 0)
		var ce *ConfigError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "k", ce.Param)
		assert.Error(t, PositiveFloat("window", 0))
		assert.NoError(t, PositiveFloat("window", 0.5))
	})

	t.Run("Dimension", func(t *testing.T) {
		assert.NoError(t, CheckDimension(3, 3))
		err := CheckDimension(3, 2)
		var dm *DimensionMismatchError
		require.True(t, errors.As(err, &dm))
		assert.Equal(t, 3, dm.Expected)
		assert.Equal(t, 2, dm.Actual)
	})
}
