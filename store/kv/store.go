package kv

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gasparian/ann-search-go/store"
)

var (
	storeFrozenErr = errors.New("store is frozen")
)

// KVStore keeps buckets in memory, guarded by a lock until frozen
type KVStore struct {
	mx     sync.RWMutex
	frozen atomic.Bool
	m      map[int]map[uint64][]uint32
}

// NewKVStore creates empty store
func NewKVStore() *KVStore {
	return &KVStore{
		m: make(map[int]map[uint64][]uint32),
	}
}

// SetHash appends id to the bucket
func (s *KVStore) SetHash(table int, hash uint64, id uint32) error {
	if s.frozen.Load() {
		return storeFrozenErr
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	// Freeze may have won the lock after the check above
	if s.frozen.Load() {
		return storeFrozenErr
	}
	if _, ok := s.m[table]; !ok {
		s.m[table] = make(map[uint64][]uint32)
	}
	s.m[table][hash] = append(s.m[table][hash], id)
	return nil
}

// GetBucket returns ids stored under the hash, nil for a missing bucket.
// The slice must not be mutated.
func (s *KVStore) GetBucket(table int, hash uint64) []uint32 {
	if !s.frozen.Load() {
		s.mx.RLock()
		defer s.mx.RUnlock()
	}
	return s.m[table][hash]
}

// Hashes returns all non-empty bucket hashes of the table in ascending order
func (s *KVStore) Hashes(table int) []uint64 {
	if !s.frozen.Load() {
		s.mx.RLock()
		defer s.mx.RUnlock()
	}
	hashes := make([]uint64, 0, len(s.m[table]))
	for h := range s.m[table] {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	return hashes
}

// Stats counts buckets and entries
func (s *KVStore) Stats() store.Stats {
	if !s.frozen.Load() {
		s.mx.RLock()
		defer s.mx.RUnlock()
	}
	st := store.Stats{Tables: len(s.m)}
	for _, buckets := range s.m {
		st.Buckets += len(buckets)
		for _, ids := range buckets {
			st.Entries += len(ids)
			if len(ids) > st.MaxBucket {
				st.MaxBucket = len(ids)
			}
		}
	}
	if st.Buckets > 0 {
		st.MeanBucket = float64(st.Entries) / float64(st.Buckets)
	}
	return st
}

// Freeze sorts every bucket by id and makes the store read-only
func (s *KVStore) Freeze() {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.frozen.Load() {
		return
	}
	for _, buckets := range s.m {
		for _, ids := range buckets {
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		}
	}
	s.frozen.Store(true)
}

// Clear drops all buckets and makes the store writable again
func (s *KVStore) Clear() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.m = make(map[int]map[uint64][]uint32)
	s.frozen.Store(false)
}
