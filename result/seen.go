package result

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Seen tracks ids already scored by one query, so that a candidate
// found in several buckets is scored once
type Seen struct {
	rb *roaring.Bitmap
}

// NewSeen creates empty tracker
func NewSeen() *Seen {
	return &Seen{rb: roaring.New()}
}

// Add returns true if id was not seen before
func (s *Seen) Add(id uint32) bool {
	return s.rb.CheckedAdd(id)
}

// Contains reports whether id was already added
func (s *Seen) Contains(id uint32) bool {
	return s.rb.Contains(id)
}

// Len returns number of distinct ids
func (s *Seen) Len() int {
	return int(s.rb.GetCardinality())
}
