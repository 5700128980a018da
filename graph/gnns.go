package graph

import (
	"context"

	"github.com/gasparian/ann-search-go/result"
	vc "github.com/gasparian/ann-search-go/vector"
)

// gnnsNeighbors links the node to its k approximate nearest neighbors
func (g *Index) gnnsNeighbors(ctx context.Context, data *vc.Dataset, id uint32) ([]uint32, error) {
	res, err := g.approxNeighbors(ctx, data, id, g.config.Neighbors)
	if err != nil {
		return nil, err
	}
	return result.IDs(res), nil
}

// gnnsSearch runs greedy hill climbing from random starts;
// fn gets every distinct node scored on the way
func (g *Index) gnnsSearch(ctx context.Context, q []float64, p Params, fn func(s result.SearchResult)) error {
	rng := g.queryRand(q)
	pool := result.NewSeen()
	visit := func(id uint32) result.SearchResult {
		s := g.score(q, id)
		if pool.Add(id) {
			fn(s)
		}
		return s
	}

	for restart := 0; restart < p.Restarts; restart++ {
		cur := visit(uint32(rng.IntN(g.data.Len())))
		for step := 0; step < p.MaxSteps; step++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			nbrs := g.graph.Neighbors(cur.ID)
			if len(nbrs) > p.Expansions {
				nbrs = nbrs[:p.Expansions]
			}
			best := cur
			for _, nb := range nbrs {
				if s := visit(nb); s.Distance < best.Distance {
					best = s
				}
			}
			if best.ID == cur.ID {
				break
			}
			cur = best
		}
	}
	return nil
}
