package brute

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	cm "github.com/gasparian/ann-search-go/common"
	"github.com/gasparian/ann-search-go/result"
	vc "github.com/gasparian/ann-search-go/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toyDataset(t *testing.T) *vc.Dataset {
	ds, err := vc.NewDataset(2, [][]float64{{0, 0}, {1, 0}, {0, 1}, {10, 10}})
	require.NoError(t, err)
	return ds
}

func TestBruteQuery(t *testing.T) {
	ctx := context.Background()
	idx := New(Config{})
	require.NoError(t, idx.Build(ctx, toyDataset(t)))

	t.Run("Nearest", func(t *testing.T) {
		res, err := idx.Query(ctx, 1, []float64{0.1, 0.1})
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, uint32(0), res[0].ID)
		assert.InDelta(t, math.Sqrt(0.02), res[0].Distance, 1e-9)
	})

	t.Run("AllAscending", func(t *testing.T) {
		res, err := idx.Query(ctx, 10, []float64{0.1, 0.1})
		require.NoError(t, err)
		require.Len(t, res, 4)
		ids := result.IDs(res)
		assert.Equal(t, uint32(0), ids[0])
		assert.ElementsMatch(t, []uint32{1, 2}, ids[1:3])
		assert.Equal(t, uint32(3), ids[3])
		for i := 1; i < len(res); i++ {
			assert.LessOrEqual(t, res[i-1].Distance, res[i].Distance)
		}
	})

	t.Run("Radius", func(t *testing.T) {
		res, err := idx.RadiusQuery(ctx, []float64{0, 0}, 1)
		require.NoError(t, err)
		assert.Equal(t, []uint32{0}, result.IDs(res), "distance must be strictly less than r")
		res, err = idx.RadiusQuery(ctx, []float64{0, 0}, 1.01)
		require.NoError(t, err)
		assert.Equal(t, []uint32{0, 1, 2}, result.IDs(res))
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := idx.Query(ctx, 1, []float64{0})
		var dm *cm.DimensionMismatchError
		assert.True(t, errors.As(err, &dm))
	})
}

func TestBruteMatchesSort(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(3, 4))
	rows := make([][]float64, 500)
	for i := range rows {
		rows[i] = []float64{rng.Float64(), rng.Float64(), rng.Float64()}
	}
	ds, err := vc.NewDataset(3, rows)
	require.NoError(t, err)
	idx := New(Config{})
	require.NoError(t, idx.Build(ctx, ds))

	q := []float64{0.5, 0.5, 0.5}
	all := make([]result.SearchResult, len(rows))
	for i, row := range rows {
		all[i] = result.SearchResult{ID: uint32(i), Distance: vc.L2(q, row)}
	}
	sort.Slice(all, func(i, j int) bool { return result.Less(all[i], all[j]) })

	for _, k := range []int{1, 5, 50, 500} {
		res, err := idx.Query(ctx, k, q)
		require.NoError(t, err)
		assert.Equal(t, all[:k], res)
	}

	small, err := idx.RadiusQuery(ctx, q, 0.2)
	require.NoError(t, err)
	large, err := idx.RadiusQuery(ctx, q, 0.4)
	require.NoError(t, err)
	assert.Subset(t, result.IDs(large), result.IDs(small))
}

func TestBruteEdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("NotBuilt", func(t *testing.T) {
		_, err := New(Config{}).Query(ctx, 1, []float64{0})
		assert.True(t, errors.Is(err, cm.ErrNotBuilt))
		_, err = New(Config{}).RadiusQuery(ctx, []float64{0}, 1)
		assert.True(t, errors.Is(err, cm.ErrNotBuilt))
	})

	t.Run("EmptyDataset", func(t *testing.T) {
		ds, err := vc.NewDataset(2, nil)
		require.NoError(t, err)
		idx := New(Config{})
		require.NoError(t, idx.Build(ctx, ds))
		res, err := idx.Query(ctx, 3, []float64{0, 0})
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("Cancelled", func(t *testing.T) {
		idx := New(Config{})
		require.NoError(t, idx.Build(ctx, toyDataset(t)))
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := idx.Query(cctx, 1, []float64{0, 0})
		assert.True(t, errors.Is(err, context.Canceled))
	})
}
