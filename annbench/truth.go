package annbench

import (
	"context"
	"fmt"

	cm "github.com/gasparian/ann-search-go/common"
	"github.com/gasparian/ann-search-go/index"
	"github.com/gasparian/ann-search-go/result"
	vc "github.com/gasparian/ann-search-go/vector"
)

// Truth returns the exact k nearest neighbors of the i-th query
type Truth interface {
	Nearest(ctx context.Context, i, k int, q []float64) ([]result.SearchResult, error)
}

type oracle struct {
	idx index.Index
}

// Oracle answers with an exact index built on the evaluated dataset
func Oracle(idx index.Index) Truth {
	return oracle{idx: idx}
}

func (o oracle) Nearest(ctx context.Context, i, k int, q []float64) ([]result.SearchResult, error) {
	return o.idx.Query(ctx, k, q)
}

// Precomputed serves true neighbors listed per query, e.g. by an ann-benchmarks file
type Precomputed struct {
	data      *vc.Dataset
	neighbors [][]uint32
}

// NewPrecomputed creates truth over data from the neighbor ids of every query
func NewPrecomputed(data *vc.Dataset, neighbors [][]uint32) *Precomputed {
	return &Precomputed{data: data, neighbors: neighbors}
}

// Nearest returns the first k listed neighbors of the i-th query ascending by distance
func (p *Precomputed) Nearest(ctx context.Context, i, k int, q []float64) ([]result.SearchResult, error) {
	if i < 0 || i >= len(p.neighbors) {
		return nil, fmt.Errorf("query %d has no precomputed neighbors: %w", i, &cm.EmptyDatasetError{Source: "neighbors"})
	}
	if err := p.data.Validate(q); err != nil {
		return nil, err
	}
	ids := p.neighbors[i]
	if k < len(ids) {
		ids = ids[:k]
	}
	out := make([]result.SearchResult, 0, len(ids))
	for _, id := range ids {
		if int(id) >= p.data.Len() {
			return nil, &cm.ConfigError{Param: "neighbors", Value: id, Reason: "id is out of the dataset"}
		}
		out = append(out, result.SearchResult{ID: id, Distance: vc.L2(q, p.data.At(id).Components())})
	}
	result.Sort(out)
	return out, nil
}

// Truth returns the neighbors stored in the file as the ground truth of Test
func (b *Benchmark) Truth() *Precomputed {
	return NewPrecomputed(b.Train, b.Neighbors)
}
