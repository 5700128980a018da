package store

// Store holds hash buckets of vector ids.
// Buckets are grouped by table: one per LSH hash table,
// a single table of vertices for the hypercube.
// Writes may come from several goroutines while an index is built;
// after Freeze the store is read-only and safe for concurrent reads.
type Store interface {
	SetHash(table int, hash uint64, id uint32) error
	GetBucket(table int, hash uint64) []uint32
	Hashes(table int) []uint64
	Stats() Stats
	Freeze()
	Clear()
}

// Stats describes the bucket distribution
type Stats struct {
	Tables     int
	Buckets    int
	Entries    int
	MaxBucket  int
	MeanBucket float64
}
