package result

import (
	"math"
	"sort"
)

// SearchResult is an (id, distance) pair produced by a query
type SearchResult struct {
	ID       uint32  `json:"id"`
	Distance float64 `json:"distance"`
}

// Less orders results by distance, then by id
func Less(a, b SearchResult) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}

// Sort orders results ascending by distance
func Sort(results []SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		return Less(results[i], results[j])
	})
}

// Top sorts results and keeps at most k of them
func Top(results []SearchResult, k int) []SearchResult {
	Sort(results)
	if k < len(results) {
		results = results[:k]
	}
	return results
}

// IDs returns ids of the results keeping the order
func IDs(results []SearchResult) []uint32 {
	ids := make([]uint32, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

// ResultSet keeps the k best results sorted ascending
type ResultSet struct {
	k     int
	items []SearchResult
}

// NewResultSet creates set with capacity k
func NewResultSet(k int) *ResultSet {
	if k < 0 {
		k = 0
	}
	return &ResultSet{
		k:     k,
		items: make([]SearchResult, 0, k),
	}
}

// Insert adds s keeping the order; when the set is full s replaces
// the current maximum only if it is strictly closer
func (rs *ResultSet) Insert(s SearchResult) bool {
	if rs.k == 0 {
		return false
	}
	if len(rs.items) == rs.k {
		if !(s.Distance < rs.items[len(rs.items)-1].Distance) {
			return false
		}
		rs.items = rs.items[:len(rs.items)-1]
	}
	pos := sort.Search(len(rs.items), func(i int) bool {
		return Less(s, rs.items[i])
	})
	rs.items = append(rs.items, SearchResult{})
	copy(rs.items[pos+1:], rs.items[pos:])
	rs.items[pos] = s
	return true
}

// Max returns the worst result kept, distance is +Inf for an empty set
func (rs *ResultSet) Max() SearchResult {
	if len(rs.items) == 0 {
		return SearchResult{Distance: math.Inf(1)}
	}
	return rs.items[len(rs.items)-1]
}

// Len returns number of kept results
func (rs *ResultSet) Len() int {
	return len(rs.items)
}

// Cap returns k
func (rs *ResultSet) Cap() int {
	return rs.k
}

// Results returns a copy of the kept results, ascending
func (rs *ResultSet) Results() []SearchResult {
	out := make([]SearchResult, len(rs.items))
	copy(out, rs.items)
	return out
}

// RadiusSet collects every result closer than the radius
type RadiusSet struct {
	radius float64
	items  []SearchResult
}

// NewRadiusSet creates unbounded set for distances < radius
func NewRadiusSet(radius float64) *RadiusSet {
	return &RadiusSet{radius: radius}
}

// Insert keeps s if it lies strictly inside the radius
func (rs *RadiusSet) Insert(s SearchResult) bool {
	if !(s.Distance < rs.radius) {
		return false
	}
	rs.items = append(rs.items, s)
	return true
}

// Len returns number of collected results
func (rs *RadiusSet) Len() int {
	return len(rs.items)
}

// Results returns collected results ascending
func (rs *RadiusSet) Results() []SearchResult {
	out := make([]SearchResult, len(rs.items))
	copy(out, rs.items)
	Sort(out)
	return out
}
