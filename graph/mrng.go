package graph

import (
	"context"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/gasparian/ann-search-go/result"
	vc "github.com/gasparian/ann-search-go/vector"
)

// mrngNeighbors starts from the LSH neighbors of p and admits every other
// node r, closest first, unless an admitted t is nearer to both p and r
func (g *Index) mrngNeighbors(ctx context.Context, data *vc.Dataset, p uint32) ([]uint32, error) {
	admitted, err := g.approxNeighbors(ctx, data, p, g.config.Neighbors)
	if err != nil {
		return nil, err
	}
	pv := data.At(p).Components()

	taken := bitset.New(uint(data.Len()))
	taken.Set(uint(p))
	for _, t := range admitted {
		taken.Set(uint(t.ID))
	}
	rest := make([]result.SearchResult, 0, data.Len()-int(taken.Count()))
	for _, v := range data.Vectors() {
		if !taken.Test(uint(v.ID)) {
			rest = append(rest, result.SearchResult{ID: v.ID, Distance: vc.L2(pv, v.Components())})
		}
	}
	sort.Slice(rest, func(i, j int) bool { return result.Less(rest[i], rest[j]) })

	for _, r := range rest {
		rv := data.At(r.ID).Components()
		admit := true
		for _, t := range admitted {
			if r.Distance > t.Distance && r.Distance > vc.L2(data.At(t.ID).Components(), rv) {
				admit = false
				break
			}
		}
		if admit {
			admitted = append(admitted, r)
		}
	}
	return result.IDs(admitted), nil
}

// mrngSearch expands the closest unexpanded node until
// p.Candidates nodes are visited; fn gets every visited node
func (g *Index) mrngSearch(ctx context.Context, q []float64, p Params, fn func(s result.SearchResult)) error {
	rng := g.queryRand(q)
	seen := bitset.New(uint(g.data.Len()))
	start := uint32(rng.IntN(g.data.Len()))
	seen.Set(uint(start))
	front := frontier{g.score(q, start)}

	for visited := 0; visited < p.Candidates && front.Len() > 0; visited++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		cur := front.pop()
		fn(cur)
		for _, nb := range g.graph.Neighbors(cur.ID) {
			if seen.Test(uint(nb)) {
				continue
			}
			seen.Set(uint(nb))
			front.push(g.score(q, nb))
		}
	}
	return nil
}
