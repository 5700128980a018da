package lsh

import (
	"context"
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
	Name = "lsh"
	// bucketDivisor sets the number of buckets to len(dataset) / bucketDivisor
	bucketDivisor = 16
	buildChunk    = 512
)

// Config holds all needed constants for creating the LSH index
type Config struct {
	NFunctions int
	NTables    int
	Window     float64
	Seed       uint64
	Workers    int
	Logger     *cm.Logger
	Progress   cm.ProgressFunc
}

// DefaultConfig returns k=4 functions, L=5 tables and W=400
func DefaultConfig() Config {
	return Config{
		NFunctions: 4,
		NTables:    5,
		Window:     vc.DefaultWindow,
		Seed:       1,
	}
}

// Validate checks that config params are positive
func (c Config) Validate() error {
	if err := cm.PositiveInt("functions", c.NFunctions); err != nil {
		return err
	}
	if err := cm.PositiveInt("tables", c.NTables); err != nil {
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

// Index holds L hash tables of vector ids
type Index struct {
	config Config
	store  store.Store
	hasher *Hasher
	data   *vc.Dataset
}

// New creates LSH index; buckets live in s, or in memory if s is nil
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
func (l *Index) Config() Config {
	return l.config
}

// Dataset returns the indexed dataset, nil before Build
func (l *Index) Dataset() *vc.Dataset {
	return l.data
}

// Build draws the hash functions and puts every vector into L buckets
func (l *Index) Build(ctx context.Context, data *vc.Dataset) error {
	if data == nil {
		return &cm.EmptyDatasetError{Source: Name}
	}
	logger, _ := l.config.Logger.ForBuild(Name)
	start := time.Now()

	rng := vc.NewRand(l.config.Seed)
	hasher := NewHasher(rng, l.config, data.Dim(), data.Len()/bucketDivisor)
	l.data = nil
	l.store.Clear()

	vecs := data.Vectors()
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.config.workers())
	for from := 0; from < len(vecs); from += buildChunk {
		chunk := vecs[from:min(from+buildChunk, len(vecs))]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for _, v := range chunk {
				for table, hash := range hasher.GetHashes(v.Components()) {
					if err := l.store.SetHash(table, hash, v.ID); err != nil {
						return err
					}
				}
			}
			l.config.Progress.Report(Name, int(done.Add(int64(len(chunk)))), len(vecs))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Build failed")
		return err
	}
	l.store.Freeze()
	l.hasher = hasher
	l.data = data

	stats := l.store.Stats()
	logger.Info().
		Int("size", data.Len()).
		Int("dim", data.Dim()).
		Int("tables", l.config.NTables).
		Int("functions", l.config.NFunctions).
		Int("bucketsRange", hasher.NBuckets()).
		Int("buckets", stats.Buckets).
		Int("maxBucket", stats.MaxBucket).
		Dur("elapsed", time.Since(start)).
		Msg("Index built")
	return nil
}

func (l *Index) check(q []float64) error {
	if l.data == nil {
		return &cm.NotBuiltError{Index: Name}
	}
	return l.data.Validate(q)
}

// candidates calls fn once per distinct id found in the query buckets
func (l *Index) candidates(ctx context.Context, q []float64, fn func(id uint32)) error {
	seen := result.NewSeen()
	for table := 0; table < l.config.NTables; table++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, id := range l.store.GetBucket(table, l.hasher.GetHash(table, q)) {
			if seen.Add(id) {
				fn(id)
			}
		}
	}
	return nil
}

// Candidates returns distinct ids sharing at least one bucket with q
func (l *Index) Candidates(ctx context.Context, q []float64) ([]uint32, error) {
	if err := l.check(q); err != nil {
		return nil, err
	}
	var ids []uint32
	err := l.candidates(ctx, q, func(id uint32) {
		ids = append(ids, id)
	})
	return ids, err
}

// Query returns up to k approximate nearest neighbors ascending by distance
func (l *Index) Query(ctx context.Context, k int, q []float64) ([]result.SearchResult, error) {
	if err := l.check(q); err != nil {
		return nil, err
	}
	rs := result.NewResultSet(k)
	err := l.candidates(ctx, q, func(id uint32) {
		rs.Insert(result.SearchResult{ID: id, Distance: vc.L2(q, l.data.At(id).Components())})
	})
	if err != nil {
		return nil, err
	}
	return rs.Results(), nil
}

// RadiusQuery returns candidates closer than r ascending by distance
func (l *Index) RadiusQuery(ctx context.Context, q []float64, r float64) ([]result.SearchResult, error) {
	if err := l.check(q); err != nil {
		return nil, err
	}
	rs := result.NewRadiusSet(r)
	err := l.candidates(ctx, q, func(id uint32) {
		rs.Insert(result.SearchResult{ID: id, Distance: vc.L2(q, l.data.At(id).Components())})
	})
	if err != nil {
		return nil, err
	}
	return rs.Results(), nil
}
