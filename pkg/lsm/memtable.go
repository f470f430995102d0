package lsm

import (
	"bytes"
	"sync"
)

// entry is a single key/value pair as held by a memtable or written to an
// SSTable. A zero-length Value is the tombstone marker: it records a
// deletion rather than an absence, and is returned as-is by the
// skiplist/SSTable layers. Tombstone-to-absent translation happens at the
// engine's Get boundary.
type entry struct {
	Key   []byte
	Value []byte
}

// MutableMemTable is the engine's live write target: an ordered key->value
// map guarded by its own reader-writer lock, with a running byte-size
// accumulator. It preserves key order (via SkipList) so Freeze can hand its
// contents to SST construction without re-sorting.
type MutableMemTable struct {
	id   uint64
	mu   sync.RWMutex
	list *SkipList
	size int64
}

// NewMutableMemTable creates an empty mutable memtable with the given id.
func NewMutableMemTable(id uint64) *MutableMemTable {
	return &MutableMemTable{id: id, list: NewSkipList()}
}

// ID returns the memtable's stable identifier.
func (mt *MutableMemTable) ID() uint64 { return mt.id }

// Get returns the value for key, or ok=false if absent. A zero-length value
// for an ok=true result is a tombstone, not an error.
func (mt *MutableMemTable) Get(key []byte) (value []byte, ok bool) {
	mt.mu.RLock()
	defer mt.mu.RUnlock()

	v, found := mt.list.Search(key)
	if !found {
		return nil, false
	}
	return v.(entry).Value, true
}

// Put inserts or updates key with value. A zero-length value records a
// tombstone. Size is adjusted by len(vNew)-len(vOld) on update, or
// len(key)+len(vNew) on insert.
func (mt *MutableMemTable) Put(key, value []byte) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if old, found := mt.list.Search(key); found {
		mt.size += int64(len(value) - len(old.(entry).Value))
	} else {
		mt.size += int64(len(key) + len(value))
	}
	mt.list.Insert(key, entry{Key: key, Value: value})
}

// SizeBytes returns the current byte-size accumulator.
func (mt *MutableMemTable) SizeBytes() int64 {
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return mt.size
}

// Freeze takes a shared snapshot of the table's contents and returns it as a
// read-only ImmutableMemTable with the same id. The mutable table itself is
// left untouched; callers discard it in favor of a fresh one.
func (mt *MutableMemTable) Freeze() *ImmutableMemTable {
	mt.mu.RLock()
	defer mt.mu.RUnlock()

	entries := make([]entry, 0, mt.list.Size())
	mt.list.Each(func(key []byte, value interface{}) {
		entries = append(entries, value.(entry))
	})
	return &ImmutableMemTable{id: mt.id, entries: entries, size: mt.size}
}

// ImmutableMemTable is a read-only, already-sorted snapshot of a frozen
// mutable memtable, awaiting flush to an SSTable.
type ImmutableMemTable struct {
	id      uint64
	entries []entry
	size    int64
}

// ID returns the memtable's stable identifier, preserved across freezing.
func (mt *ImmutableMemTable) ID() uint64 { return mt.id }

// SizeBytes returns the byte size captured at freeze time.
func (mt *ImmutableMemTable) SizeBytes() int64 { return mt.size }

// Get returns the value for key, or ok=false if absent. No locking is
// required: the table is immutable once constructed.
func (mt *ImmutableMemTable) Get(key []byte) (value []byte, ok bool) {
	lo, hi := 0, len(mt.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		switch bytes.Compare(mt.entries[mid].Key, key) {
		case 0:
			return mt.entries[mid].Value, true
		case -1:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return nil, false
}

// Entries returns the table's entries in key order. The caller must not
// mutate the returned slice or its element byte slices.
func (mt *ImmutableMemTable) Entries() []entry {
	return mt.entries
}
