package graph

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	cm "github.com/gasparian/ann-search-go/common"
	"github.com/gasparian/ann-search-go/lsh"
	"github.com/gasparian/ann-search-go/result"
	vc "github.com/gasparian/ann-search-go/vector"
)

const buildChunk = 64

// Strategy selects how the graph is built and searched
type Strategy int

const (
	// GNNS links every node to its approximate k nearest neighbors
	// and answers queries by greedy hill climbing with restarts
	GNNS Strategy = iota
	// MRNG prunes the links with the occlusion rule
	// and answers queries by best-first search
	MRNG
)

func (s Strategy) String() string {
	switch s {
	case GNNS:
		return "gnns"
	case MRNG:
		return "mrng"
	default:
		return "unknown"
	}
}

// Params bounds a single graph query
type Params struct {
	// Restarts is the number of random starts of a GNNS query
	Restarts int
	// Expansions is the number of neighbors scored per GNNS step
	Expansions int
	// MaxSteps caps moves of one GNNS restart
	MaxSteps int
	// Candidates is the number of nodes an MRNG query visits
	Candidates int
}

// Config holds graph index params
type Config struct {
	Strategy Strategy
	// Neighbors is the number of approximate neighbors taken from LSH for every node
	Neighbors int
	Search    Params
	Seed      uint64
	Workers   int
	Logger    *cm.Logger
	Progress  cm.ProgressFunc
}

// DefaultConfig returns defaults of the strategy
func DefaultConfig(strategy Strategy) Config {
	c := Config{
		Strategy: strategy,
		Search: Params{
			Restarts:   1,
			Expansions: 30,
			MaxSteps:   20,
			Candidates: 20,
		},
		Seed: 1,
	}
	switch strategy {
	case MRNG:
		c.Neighbors = 20
	default:
		c.Neighbors = 50
	}
	return c
}

// Validate checks that all bounds are positive
func (p Params) Validate() error {
	if err := cm.PositiveInt("restarts", p.Restarts); err != nil {
		return err
	}
	if err := cm.PositiveInt("expansions", p.Expansions); err != nil {
		return err
	}
	if err := cm.PositiveInt("steps", p.MaxSteps); err != nil {
		return err
	}
	return cm.PositiveInt("candidates", p.Candidates)
}

// Validate checks that the strategy is known and all counts are positive
func (c Config) Validate() error {
	if c.Strategy != GNNS && c.Strategy != MRNG {
		return &cm.ConfigError{Param: "strategy", Value: int(c.Strategy), Reason: "unknown graph strategy"}
	}
	if err := cm.PositiveInt("neighbors", c.Neighbors); err != nil {
		return err
	}
	if c.Workers < 0 {
		return &cm.ConfigError{Param: "workers", Value: c.Workers, Reason: "must not be negative"}
	}
	return c.Search.Validate()
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Index is a proximity graph over the dataset built from LSH candidates
type Index struct {
	config Config
	lsh    *lsh.Index
	graph  *ProximityGraph
	data   *vc.Dataset
}

// New creates graph index; candidates for every node come from l
func New(config Config, l *lsh.Index) (*Index, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		return nil, &cm.ConfigError{Param: "lsh", Value: nil, Reason: "graph index needs an LSH index"}
	}
	return &Index{
		config: config,
		lsh:    l,
	}, nil
}

// Name returns strategy name used in logs and errors
func (g *Index) Name() string {
	return g.config.Strategy.String()
}

// Config returns the index params
func (g *Index) Config() Config {
	return g.config
}

// Dataset returns the indexed dataset, nil before Build
func (g *Index) Dataset() *vc.Dataset {
	return g.data
}

// Graph returns the built adjacency, nil before Build
func (g *Index) Graph() *ProximityGraph {
	return g.graph
}

// Neighbors returns adjacency of the node
func (g *Index) Neighbors(id uint32) ([]uint32, error) {
	if g.graph == nil {
		return nil, &cm.NotBuiltError{Index: g.Name()}
	}
	if int(id) >= g.graph.Len() {
		return nil, &cm.ConfigError{Param: "id", Value: id, Reason: "out of range"}
	}
	return g.graph.Neighbors(id), nil
}

// Edges returns number of directed edges, 0 before Build
func (g *Index) Edges() int {
	return g.graph.Edges()
}

// Build indexes data with LSH unless it is already done and links every node
func (g *Index) Build(ctx context.Context, data *vc.Dataset) error {
	if data == nil {
		return &cm.EmptyDatasetError{Source: g.Name()}
	}
	logger, _ := g.config.Logger.ForBuild(g.Name())
	start := time.Now()
	g.data = nil
	g.graph = nil

	if g.lsh.Dataset() != data {
		if err := g.lsh.Build(ctx, data); err != nil {
			return err
		}
	}

	link := g.gnnsNeighbors
	if g.config.Strategy == MRNG {
		link = g.mrngNeighbors
	}
	adjacency := make([][]uint32, data.Len())
	var done atomic.Int64
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.config.workers())
	for from := 0; from < data.Len(); from += buildChunk {
		to := min(from+buildChunk, data.Len())
		eg.Go(func() error {
			for id := from; id < to; id++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				nbrs, err := link(gctx, data, uint32(id))
				if err != nil {
					return err
				}
				adjacency[id] = nbrs
			}
			g.config.Progress.Report(g.Name(), int(done.Add(int64(to-from))), data.Len())
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logger.Error().Err(err).Msg("Build failed")
		return err
	}
	g.graph = NewProximityGraph(adjacency)
	g.data = data

	logger.Info().
		Int("size", data.Len()).
		Int("dim", data.Dim()).
		Int("neighbors", g.config.Neighbors).
		Int("edges", g.graph.Edges()).
		Dur("elapsed", time.Since(start)).
		Msg("Index built")
	return nil
}

// approxNeighbors returns up to n LSH neighbors of the node without the node itself
func (g *Index) approxNeighbors(ctx context.Context, data *vc.Dataset, id uint32, n int) ([]result.SearchResult, error) {
	res, err := g.lsh.Query(ctx, n+1, data.At(id).Components())
	if err != nil {
		return nil, err
	}
	out := res[:0]
	for _, r := range res {
		if r.ID != id {
			out = append(out, r)
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (g *Index) check(q []float64) error {
	if g.data == nil {
		return &cm.NotBuiltError{Index: g.Name()}
	}
	return g.data.Validate(q)
}

// queryRand seeds start vertex choice with the query itself,
// so equal queries walk the same path without sharing state
func (g *Index) queryRand(q []float64) *rand.Rand {
	h := fnv.New64a()
	var buf [8]byte
	for _, x := range q {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x))
		h.Write(buf[:])
	}
	return vc.NewRand(g.config.Seed ^ h.Sum64())
}

func (g *Index) score(q []float64, id uint32) result.SearchResult {
	return result.SearchResult{ID: id, Distance: vc.L2(q, g.data.At(id).Components())}
}

func (g *Index) search(ctx context.Context, q []float64, p Params, fn func(s result.SearchResult)) error {
	if g.data.Len() == 0 {
		return nil
	}
	if g.config.Strategy == MRNG {
		return g.mrngSearch(ctx, q, p, fn)
	}
	return g.gnnsSearch(ctx, q, p, fn)
}

// QueryWith returns up to k approximate nearest neighbors using the given search bounds
func (g *Index) QueryWith(ctx context.Context, k int, q []float64, p Params) ([]result.SearchResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := g.check(q); err != nil {
		return nil, err
	}
	if g.config.Strategy == MRNG && p.Candidates < k {
		p.Candidates = k
	}
	rs := result.NewResultSet(k)
	if err := g.search(ctx, q, p, func(s result.SearchResult) { rs.Insert(s) }); err != nil {
		return nil, err
	}
	return rs.Results(), nil
}

// Query returns up to k approximate nearest neighbors ascending by distance
func (g *Index) Query(ctx context.Context, k int, q []float64) ([]result.SearchResult, error) {
	return g.QueryWith(ctx, k, q, g.config.Search)
}

// RadiusQuery returns examined nodes closer than r ascending by distance
func (g *Index) RadiusQuery(ctx context.Context, q []float64, r float64) ([]result.SearchResult, error) {
	if err := g.check(q); err != nil {
		return nil, err
	}
	rs := result.NewRadiusSet(r)
	if err := g.search(ctx, q, g.config.Search, func(s result.SearchResult) { rs.Insert(s) }); err != nil {
		return nil, err
	}
	return rs.Results(), nil
}
