package hypercube

import (
	"context"
	"errors"
	"math"
	"math/bits"
	"math/rand/v2"
	"testing"

	cm "github.com/gasparian/ann-search-go/common"
	"github.com/gasparian/ann-search-go/result"
	vc "github.com/gasparian/ann-search-go/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pixelDataset(t *testing.T, seed uint64, n, dim int) *vc.Dataset {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, dim)
		for j := range rows[i] {
			rows[i][j] = math.Floor(rng.Float64() * 256)
		}
	}
	ds, err := vc.NewDataset(dim, rows)
	require.NoError(t, err)
	return ds
}

func newIndex(t *testing.T, config Config, data *vc.Dataset) *Index {
	t.Helper()
	idx, err := New(config, nil)
	require.NoError(t, err)
	require.NoError(t, idx.Build(context.Background(), data))
	return idx
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		param  string
		mutate func(c *Config)
	}{
		{"bits", func(c *Config) { c.Bits = 0 }},
		{"bits", func(c *Config) { c.Bits = 65 }},
		{"candidates", func(c *Config) { c.MaxCandidates = 0 }},
		{"probes", func(c *Config) { c.Probes = -1 }},
		{"window", func(c *Config) { c.Window = math.NaN() }},
	}
	for _, tc := range cases {
		config := DefaultConfig()
		tc.mutate(&config)
		_, err := New(config, nil)
		var ce *cm.ConfigError
		require.True(t, errors.As(err, &ce), tc.param)
		assert.Equal(t, tc.param, ce.Param)
	}
	config := DefaultConfig()
	config.Bits = MaxBits
	assert.NoError(t, config.Validate())
}

func TestToyDataset(t *testing.T) {
	ctx := context.Background()
	ds, err := vc.NewDataset(2, [][]float64{{0, 0}, {1, 0}, {0, 1}, {10, 10}})
	require.NoError(t, err)
	for seed := uint64(0); seed < 10; seed++ {
		config := DefaultConfig()
		config.Seed = seed
		idx := newIndex(t, config, ds)
		res, err := idx.Query(ctx, 1, []float64{0.1, 0.1})
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, uint32(0), res[0].ID)
		assert.InDelta(t, 0.1414, res[0].Distance, 1e-4)
	}
}

func TestCode(t *testing.T) {
	t.Parallel()
	ds := pixelDataset(t, 1, 50, 16)
	config := DefaultConfig()
	config.Bits = 5
	idx := newIndex(t, config, ds)
	for _, v := range ds.Vectors() {
		c := idx.Code(v.Components())
		assert.Less(t, c, uint64(1)<<5)
		assert.Contains(t, idx.store.GetBucket(verticesTable, c), v.ID)
	}
}

func TestGather(t *testing.T) {
	ctx := context.Background()
	ds := pixelDataset(t, 2, 1000, 32)

	t.Run("OwnVertexFirst", func(t *testing.T) {
		config := DefaultConfig()
		config.MaxCandidates = ds.Len()
		config.Probes = 1
		idx := newIndex(t, config, ds)
		for _, id := range []uint32{0, 123, 999} {
			q := ds.At(id).Components()
			ids, probed, err := idx.Gather(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, 1, probed)
			assert.Equal(t, idx.store.GetBucket(verticesTable, idx.Code(q)), ids)

			res, err := idx.Query(ctx, 1, q)
			require.NoError(t, err)
			require.Len(t, res, 1)
			assert.Equal(t, 0.0, res[0].Distance)
		}
	})

	t.Run("Bounds", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(7, 8))
		for _, tc := range []struct{ m, probes int }{{1, 1}, {10, 2}, {50, 3}, {1000, 64}} {
			config := DefaultConfig()
			config.MaxCandidates = tc.m
			config.Probes = tc.probes
			idx := newIndex(t, config, ds)
			for i := 0; i < 20; i++ {
				q := make([]float64, ds.Dim())
				for j := range q {
					q[j] = rng.Float64() * 256
				}
				qc := idx.Code(q)
				ids, probed, err := idx.Gather(ctx, q)
				require.NoError(t, err)
				assert.LessOrEqual(t, len(ids), tc.m)
				assert.LessOrEqual(t, probed, tc.probes)
				if len(ids) < tc.m {
					assert.Equal(t, min(tc.probes, config.Bits+1), probed)
				}

				rings := map[int]bool{}
				seen := map[uint32]bool{}
				prevRing := 0
				for _, id := range ids {
					assert.False(t, seen[id])
					seen[id] = true
					ring := bits.OnesCount64(idx.Code(ds.At(id).Components()) ^ qc)
					assert.Less(t, ring, tc.probes, "ring %d lies outside the examined distances", ring)
					assert.GreaterOrEqual(t, ring, prevRing, "rings are walked outward")
					prevRing = ring
					rings[ring] = true
				}
				assert.LessOrEqual(t, len(rings), probed)
			}
		}
	})

	t.Run("EmptyOwnVertex", func(t *testing.T) {
		config := DefaultConfig()
		config.MaxCandidates = ds.Len()
		config.Probes = 1
		idx := newIndex(t, config, ds)
		occupied := map[uint64]bool{}
		for _, c := range idx.codes {
			occupied[c] = true
		}
		rng := rand.New(rand.NewPCG(3, 4))
		var q []float64
		for i := 0; i < 1000 && q == nil; i++ {
			candidate := make([]float64, ds.Dim())
			for j := range candidate {
				candidate[j] = rng.Float64() * 256
			}
			if !occupied[idx.Code(candidate)] {
				q = candidate
			}
		}
		require.NotNil(t, q, "1000 vectors cannot occupy all 2^14 vertices")

		ids, probed, err := idx.Gather(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, 1, probed)
		assert.Empty(t, ids)
		res, err := idx.Query(ctx, 5, q)
		require.NoError(t, err)
		assert.Empty(t, res)

		config.Probes = config.Bits + 1
		wide := newIndex(t, config, ds)
		ids, probed, err = wide.Gather(ctx, q)
		require.NoError(t, err)
		assert.NotEmpty(t, ids)
		assert.LessOrEqual(t, probed, config.Bits+1)
		for _, id := range ids {
			assert.NotZero(t, bits.OnesCount64(wide.Code(ds.At(id).Components())^wide.Code(q)))
		}
	})

	t.Run("AllRings", func(t *testing.T) {
		config := DefaultConfig()
		config.MaxCandidates = ds.Len() + 1
		config.Probes = config.Bits + 1
		idx := newIndex(t, config, ds)
		ids, _, err := idx.Gather(ctx, make([]float64, ds.Dim()))
		require.NoError(t, err)
		assert.Len(t, ids, ds.Len())
	})
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	ds := pixelDataset(t, 3, 600, 24)
	config := DefaultConfig()
	config.MaxCandidates = 100
	config.Probes = 3
	idx := newIndex(t, config, ds)
	q := ds.At(17).Components()

	t.Run("Ordered", func(t *testing.T) {
		res, err := idx.Query(ctx, 10, q)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(res), 10)
		for i, r := range res {
			assert.Less(t, int(r.ID), ds.Len())
			if i > 0 {
				assert.True(t, result.Less(res[i-1], r))
			}
		}
	})

	t.Run("RadiusMonotonic", func(t *testing.T) {
		prev := []uint32{}
		for _, r := range []float64{10, 500, 700, 900, 5000} {
			res, err := idx.RadiusQuery(ctx, q, r)
			require.NoError(t, err)
			ids := result.IDs(res)
			assert.Subset(t, ids, prev)
			prev = ids
		}
		assert.NotEmpty(t, prev)
	})

	t.Run("Deterministic", func(t *testing.T) {
		config.Workers = 1
		sequential := newIndex(t, config, ds)
		config.Workers = 6
		parallel := newIndex(t, config, ds)
		a, _, err := sequential.Gather(ctx, q)
		require.NoError(t, err)
		b, _, err := parallel.Gather(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := idx.Query(ctx, 1, q[:3])
		var dm *cm.DimensionMismatchError
		require.True(t, errors.As(err, &dm))
		assert.Equal(t, 24, dm.Expected)
		assert.Equal(t, 3, dm.Actual)
	})
}

func TestEdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("NotBuilt", func(t *testing.T) {
		idx, err := New(DefaultConfig(), nil)
		require.NoError(t, err)
		_, err = idx.Query(ctx, 1, []float64{1})
		assert.True(t, errors.Is(err, cm.ErrNotBuilt))
		_, _, err = idx.Gather(ctx, []float64{1})
		assert.True(t, errors.Is(err, cm.ErrNotBuilt))
	})

	t.Run("EmptyDataset", func(t *testing.T) {
		ds, err := vc.NewDataset(2, nil)
		require.NoError(t, err)
		idx := newIndex(t, DefaultConfig(), ds)
		res, err := idx.Query(ctx, 3, []float64{1, 1})
		require.NoError(t, err)
		assert.Empty(t, res)
		res, err = idx.RadiusQuery(ctx, []float64{1, 1}, 10)
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("NilDataset", func(t *testing.T) {
		idx, err := New(DefaultConfig(), nil)
		require.NoError(t, err)
		assert.True(t, errors.Is(idx.Build(ctx, nil), cm.ErrEmptyDataset))
	})
}
