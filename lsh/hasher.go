package lsh

import (
	"math/rand/v2"

	vc "github.com/gasparian/ann-search-go/vector"
)

// Hasher holds one amplified hash per table
type Hasher struct {
	tables   []vc.AmplifiedHash
	nBuckets uint64
}

// NewHasher draws NTables x NFunctions projections and amplifies every table
func NewHasher(rng *rand.Rand, config Config, dims, nBuckets int) *Hasher {
	projections := vc.GenerateProjections(rng, config.NTables, config.NFunctions, dims, config.Window)
	tables := make([]vc.AmplifiedHash, config.NTables)
	for i := range tables {
		tables[i] = vc.NewAmplifiedHash(rng, projections[i], config.Window)
	}
	if nBuckets < 1 {
		nBuckets = 1
	}
	return &Hasher{
		tables:   tables,
		nBuckets: uint64(nBuckets),
	}
}

// NBuckets returns range of the bucket codes
func (h *Hasher) NBuckets() int {
	return int(h.nBuckets)
}

// GetHash returns bucket code of vec in the table
func (h *Hasher) GetHash(table int, vec []float64) uint64 {
	return h.tables[table].Code(vec) % h.nBuckets
}

// GetHashes returns bucket codes of vec for every table
func (h *Hasher) GetHashes(vec []float64) []uint64 {
	hashes := make([]uint64, len(h.tables))
	for i := range h.tables {
		hashes[i] = h.GetHash(i, vec)
	}
	return hashes
}
