package brute

import (
	"context"

	cm "github.com/gasparian/ann-search-go/common"
	"github.com/gasparian/ann-search-go/result"
	vc "github.com/gasparian/ann-search-go/vector"
)

const (
	// Name identifies the index in logs and errors
	Name = "brute"
	// checkEvery is how many vectors are scanned between context checks
	checkEvery = 1024
)

// Config holds brute force index params
type Config struct {
	Logger *cm.Logger
}

// Index is the exact linear scan, the ground truth for other indexes
type Index struct {
	config Config
	data   *vc.Dataset
}

// New creates brute force index
func New(config Config) *Index {
	return &Index{config: config}
}

// Build keeps a reference to the dataset
func (b *Index) Build(ctx context.Context, data *vc.Dataset) error {
	if data == nil {
		return &cm.EmptyDatasetError{Source: Name}
	}
	logger, _ := b.config.Logger.ForBuild(Name)
	b.data = data
	logger.Debug().Int("size", data.Len()).Int("dim", data.Dim()).Msg("Dataset attached")
	return nil
}

// Dataset returns the indexed dataset, nil before Build
func (b *Index) Dataset() *vc.Dataset {
	return b.data
}

func (b *Index) check(q []float64) error {
	if b.data == nil {
		return &cm.NotBuiltError{Index: Name}
	}
	return b.data.Validate(q)
}

// Query returns true k nearest neighbors ascending by distance
func (b *Index) Query(ctx context.Context, k int, q []float64) ([]result.SearchResult, error) {
	if err := b.check(q); err != nil {
		return nil, err
	}
	rs := result.NewResultSet(k)
	err := b.scan(ctx, q, func(s result.SearchResult) {
		rs.Insert(s)
	})
	if err != nil {
		return nil, err
	}
	return rs.Results(), nil
}

// RadiusQuery returns every vector closer than r, ascending by distance
func (b *Index) RadiusQuery(ctx context.Context, q []float64, r float64) ([]result.SearchResult, error) {
	if err := b.check(q); err != nil {
		return nil, err
	}
	rs := result.NewRadiusSet(r)
	err := b.scan(ctx, q, func(s result.SearchResult) {
		rs.Insert(s)
	})
	if err != nil {
		return nil, err
	}
	return rs.Results(), nil
}

func (b *Index) scan(ctx context.Context, q []float64, fn func(result.SearchResult)) error {
	for i, v := range b.data.Vectors() {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		fn(result.SearchResult{ID: v.ID, Distance: vc.L2(q, v.Components())})
	}
	return nil
}
