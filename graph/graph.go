package graph

// ProximityGraph is a directed adjacency in compressed form:
// neighbors of node i are neighbors[offsets[i]:offsets[i+1]]
type ProximityGraph struct {
	offsets   []int
	neighbors []uint32
}

// NewProximityGraph packs per-node neighbor lists into one arena
func NewProximityGraph(adjacency [][]uint32) *ProximityGraph {
	offsets := make([]int, len(adjacency)+1)
	for i, nbrs := range adjacency {
		offsets[i+1] = offsets[i] + len(nbrs)
	}
	neighbors := make([]uint32, 0, offsets[len(adjacency)])
	for _, nbrs := range adjacency {
		neighbors = append(neighbors, nbrs...)
	}
	return &ProximityGraph{
		offsets:   offsets,
		neighbors: neighbors,
	}
}

// Len returns number of nodes
func (g *ProximityGraph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.offsets) - 1
}

// Edges returns number of directed edges
func (g *ProximityGraph) Edges() int {
	if g == nil {
		return 0
	}
	return len(g.neighbors)
}

// Neighbors returns adjacency of the node. The slice must not be mutated.
func (g *ProximityGraph) Neighbors(id uint32) []uint32 {
	return g.neighbors[g.offsets[id]:g.offsets[id+1]:g.offsets[id+1]]
}

// Adjacency unpacks the graph into per-node copies
func (g *ProximityGraph) Adjacency() [][]uint32 {
	adj := make([][]uint32, g.Len())
	for i := range adj {
		nbrs := g.Neighbors(uint32(i))
		adj[i] = make([]uint32, len(nbrs))
		copy(adj[i], nbrs)
	}
	return adj
}
