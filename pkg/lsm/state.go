package lsm

import "sort"

// storeState is the engine's copy-on-write snapshot object: the current
// mutable memtable, immutable memtables awaiting flush (oldest at
// index 0), the SST map, and the id counter. Once published via the
// engine's snapshot pointer a storeState is never mutated again; every
// transition builds and publishes a new one.
type storeState struct {
	memtable   *MutableMemTable
	immutables []*ImmutableMemTable // oldest at front, newest at back
	sstables   map[uint64]*SSTable  // id -> sstable
	nextID     uint64
}

// withFrozenMemtable returns a new state: the current memtable frozen and
// appended to the back of the immutable queue, replaced by a fresh empty
// memtable carrying the next id. The SST map is shared unchanged (append-only
// map access patterns never mutate it in place after publication).
func (s *storeState) withFrozenMemtable(frozen *ImmutableMemTable) *storeState {
	immutables := make([]*ImmutableMemTable, len(s.immutables), len(s.immutables)+1)
	copy(immutables, s.immutables)
	immutables = append(immutables, frozen)

	return &storeState{
		memtable:   NewMutableMemTable(s.nextID),
		immutables: immutables,
		sstables:   s.sstables,
		nextID:     s.nextID + 1,
	}
}

// withFlushedSSTable returns a new state: the oldest immutable memtable
// (index 0) removed from the queue and its corresponding SST inserted into
// the SST map under the same id: an SST's id always equals the id of the
// memtable it was flushed from.
func (s *storeState) withFlushedSSTable(sst *SSTable) *storeState {
	immutables := make([]*ImmutableMemTable, 0, len(s.immutables))
	if len(s.immutables) > 0 {
		immutables = append(immutables, s.immutables[1:]...)
	}

	sstables := make(map[uint64]*SSTable, len(s.sstables)+1)
	for id, existing := range s.sstables {
		sstables[id] = existing
	}
	sstables[sst.ID()] = sst

	return &storeState{
		memtable:   s.memtable,
		immutables: immutables,
		sstables:   sstables,
		nextID:     s.nextID,
	}
}

// withPersistedMemtable returns a new state: the active memtable replaced
// by a fresh empty one and its SST inserted into the map. The immutable
// queue is untouched; this transition is for Close, which persists the
// active memtable directly without routing it through the queue.
func (s *storeState) withPersistedMemtable(sst *SSTable) *storeState {
	sstables := make(map[uint64]*SSTable, len(s.sstables)+1)
	for id, existing := range s.sstables {
		sstables[id] = existing
	}
	sstables[sst.ID()] = sst

	return &storeState{
		memtable:   NewMutableMemTable(s.nextID),
		immutables: s.immutables,
		sstables:   sstables,
		nextID:     s.nextID + 1,
	}
}

// oldestImmutable returns the front of the immutable queue, or nil if empty.
func (s *storeState) oldestImmutable() *ImmutableMemTable {
	if len(s.immutables) == 0 {
		return nil
	}
	return s.immutables[0]
}

// get consults sources in recency order: mutable memtable, then immutable
// memtables newest-to-oldest, then SSTables in descending id order. A
// zero-length value (tombstone) counts as a hit whose "value" is absent at
// this boundary.
func (s *storeState) get(key []byte) ([]byte, bool, error) {
	if v, ok := s.memtable.Get(key); ok {
		return tombstoneToAbsent(v)
	}

	for i := len(s.immutables) - 1; i >= 0; i-- {
		if v, ok := s.immutables[i].Get(key); ok {
			return tombstoneToAbsent(v)
		}
	}

	ids := s.sstableIDsDescending()
	for _, id := range ids {
		sst := s.sstables[id]
		v, ok, err := sst.Get(key)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return tombstoneToAbsent(v)
		}
	}

	return nil, false, nil
}

func tombstoneToAbsent(v []byte) ([]byte, bool, error) {
	if len(v) == 0 {
		return nil, false, nil
	}
	return v, true, nil
}

// sstableIDsDescending returns the SST map's keys sorted highest-first, so
// that the newest SST is consulted before older ones.
func (s *storeState) sstableIDsDescending() []uint64 {
	ids := make([]uint64, 0, len(s.sstables))
	for id := range s.sstables {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids
}
