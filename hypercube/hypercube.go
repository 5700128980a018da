package hypercube

import (
	"context"
	"math/bits"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	cm "github.com/gasparian/ann-search-go/common"
	"github.com/gasparian/ann-search-go/result"
	"github.com/gasparian/ann-search-go/store"
	"github.com/gasparian/ann-search-go/store/kv"
	vc "github.com/gasparian/ann-search-go/vector"
)

const (
	// Name identifies the index in logs and errors
	Name = "hypercube"
	// MaxBits is the widest vertex code
	MaxBits = 64

	verticesTable = 0
	buildChunk    = 512
)

// Config holds hypercube params
type Config struct {
	// Bits is the vertex code length d
	Bits int
	// MaxCandidates caps ids gathered per query (M)
	MaxCandidates int
	// Probes caps Hamming rings examined per query, ring i holds vertices at distance i
	Probes   int
	Window   float64
	Seed     uint64
	Workers  int
	Logger   *cm.Logger
	Progress cm.ProgressFunc
}

// DefaultConfig returns d=14, M=10, probes=2 and W=400
func DefaultConfig() Config {
	return Config{
		Bits:          14,
		MaxCandidates: 10,
		Probes:        2,
		Window:        vc.DefaultWindow,
		Seed:          1,
	}
}

// Validate checks that config params are positive and the code fits in 64 bits
func (c Config) Validate() error {
	if err := cm.PositiveInt("bits", c.Bits); err != nil {
		return err
	}
	if c.Bits > MaxBits {
		return &cm.ConfigError{Param: "bits", Value: c.Bits, Reason: "must not exceed 64"}
	}
	if err := cm.PositiveInt("candidates", c.MaxCandidates); err != nil {
		return err
	}
	if err := cm.PositiveInt("probes", c.Probes); err != nil {
		return err
	}
	if err := cm.PositiveFloat("window", c.Window); err != nil {
		return err
	}
	if c.Workers < 0 {
		return &cm.ConfigError{Param: "workers", Value: c.Workers, Reason: "must not be negative"}
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Index maps every vector to a vertex of the d-dimensional hypercube
type Index struct {
	config      Config
	store       store.Store
	projections []vc.Projection
	codes       []uint64
	data        *vc.Dataset
}

// New creates hypercube index; vertices live in s, or in memory if s is nil
func New(config Config, s store.Store) (*Index, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if s == nil {
		s = kv.NewKVStore()
	}
	return &Index{
		config: config,
		store:  s,
	}, nil
}

// Config returns the index params
func (h *Index) Config() Config {
	return h.config
}

// Dataset returns the indexed dataset, nil before Build
func (h *Index) Dataset() *vc.Dataset {
	return h.data
}

// Code returns the vertex code of v: bit j is the parity of the j-th hash
func (h *Index) Code(v []float64) uint64 {
	return code(v, h.projections, h.config.Window)
}

func code(v []float64, projections []vc.Projection, window float64) uint64 {
	var c uint64
	for j, p := range projections {
		c |= uint64(vc.HashCode(v, p, window)&1) << j
	}
	return c
}

// Build draws d projections and puts every vector into its vertex
func (h *Index) Build(ctx context.Context, data *vc.Dataset) error {
	if data == nil {
		return &cm.EmptyDatasetError{Source: Name}
	}
	logger, _ := h.config.Logger.ForBuild(Name)
	start := time.Now()

	rng := vc.NewRand(h.config.Seed)
	projections := make([]vc.Projection, h.config.Bits)
	for j := range projections {
		projections[j] = vc.NewProjection(rng, data.Dim(), h.config.Window)
	}
	h.data = nil
	h.store.Clear()

	vecs := data.Vectors()
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.config.workers())
	for from := 0; from < len(vecs); from += buildChunk {
		chunk := vecs[from:min(from+buildChunk, len(vecs))]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for _, v := range chunk {
				if err := h.store.SetHash(verticesTable, code(v.Components(), projections, h.config.Window), v.ID); err != nil {
					return err
				}
			}
			h.config.Progress.Report(Name, int(done.Add(int64(len(chunk)))), len(vecs))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Build failed")
		return err
	}
	h.store.Freeze()
	h.projections = projections
	h.codes = h.store.Hashes(verticesTable)
	h.data = data

	stats := h.store.Stats()
	logger.Info().
		Int("size", data.Len()).
		Int("dim", data.Dim()).
		Int("bits", h.config.Bits).
		Int("vertices", stats.Buckets).
		Int("maxVertex", stats.MaxBucket).
		Float64("meanVertex", stats.MeanBucket).
		Dur("elapsed", time.Since(start)).
		Msg("Index built")
	return nil
}

func (h *Index) check(q []float64) error {
	if h.data == nil {
		return &cm.NotBuiltError{Index: Name}
	}
	return h.data.Validate(q)
}

// rings groups existing vertex codes by Hamming distance to c,
// codes inside a ring stay ascending
func (h *Index) rings(c uint64) [][]uint64 {
	rings := make([][]uint64, h.config.Bits+1)
	for _, vertex := range h.codes {
		d := bits.OnesCount64(vertex ^ c)
		rings[d] = append(rings[d], vertex)
	}
	return rings
}

// gather walks rings outward from q's vertex: Hamming distances 0..probes-1,
// empty rings included, until M ids are collected
func (h *Index) gather(ctx context.Context, q []float64) ([]uint32, int, error) {
	ids := make([]uint32, 0, h.config.MaxCandidates)
	rings := h.rings(h.Code(q))
	probed := 0
	for dist := 0; dist < min(h.config.Probes, len(rings)); dist++ {
		if err := ctx.Err(); err != nil {
			return nil, probed, err
		}
		probed++
		for _, vertex := range rings[dist] {
			for _, id := range h.store.GetBucket(verticesTable, vertex) {
				ids = append(ids, id)
				if len(ids) == h.config.MaxCandidates {
					return ids, probed, nil
				}
			}
		}
	}
	return ids, probed, nil
}

// Gather returns candidate ids of q and the number of rings examined to collect them
func (h *Index) Gather(ctx context.Context, q []float64) ([]uint32, int, error) {
	if err := h.check(q); err != nil {
		return nil, 0, err
	}
	return h.gather(ctx, q)
}

// Query returns up to k approximate nearest neighbors ascending by distance
func (h *Index) Query(ctx context.Context, k int, q []float64) ([]result.SearchResult, error) {
	if err := h.check(q); err != nil {
		return nil, err
	}
	ids, _, err := h.gather(ctx, q)
	if err != nil {
		return nil, err
	}
	rs := result.NewResultSet(k)
	for _, id := range ids {
		rs.Insert(result.SearchResult{ID: id, Distance: vc.L2(q, h.data.At(id).Components())})
	}
	return rs.Results(), nil
}

// RadiusQuery returns gathered candidates closer than r ascending by distance
func (h *Index) RadiusQuery(ctx context.Context, q []float64, r float64) ([]result.SearchResult, error) {
	if err := h.check(q); err != nil {
		return nil, err
	}
	ids, _, err := h.gather(ctx, q)
	if err != nil {
		return nil, err
	}
	rs := result.NewRadiusSet(r)
	for _, id := range ids {
		rs.Insert(result.SearchResult{ID: id, Distance: vc.L2(q, h.data.At(id).Components())})
	}
	return rs.Results(), nil
}
