package lsm

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// sparseIndexEntry maps a sampled key to its record index within the
// offsets array.
type sparseIndexEntry struct {
	key   []byte
	index uint64
}

// sparseIndex is an ordered map from a sampled subset of keys to their
// record indices, bounding a point lookup to a short contiguous run of
// records.
type sparseIndex struct {
	entries []sparseIndexEntry
}

// buildSparseIndex samples entries in key order: the first key is always
// sampled at index 0; a later key is sampled once the payload offset has
// advanced more than stride bytes past the last sampled key. The distance
// is measured from the last sampled key, not from the payload start, so
// sampling density stays one key per stride across the whole table.
func buildSparseIndex(entries []entry, offs *offsets, stride int64) *sparseIndex {
	si := &sparseIndex{}
	if len(entries) == 0 {
		return si
	}

	si.entries = append(si.entries, sparseIndexEntry{key: entries[0].Key, index: 0})
	lastSampledOffset := offs.keyOffsets[0]

	for i := 1; i < len(entries); i++ {
		if int64(offs.keyOffsets[i]-lastSampledOffset) > stride {
			si.entries = append(si.entries, sparseIndexEntry{key: entries[i].Key, index: uint64(i)})
			lastSampledOffset = offs.keyOffsets[i]
		}
	}
	return si
}

// lookup returns the record-index range [startIndex, endIndex) that must be
// scanned to find key. startIndex is the index of the greatest sampled key
// <= key, or 0 if none. hasEnd is false when no sampled key exceeds key, in
// which case the scan runs to the end of the payload region.
func (si *sparseIndex) lookup(key []byte) (startIndex, endIndex uint64, hasEnd bool) {
	idx := sort.Search(len(si.entries), func(i int) bool {
		return bytes.Compare(si.entries[i].key, key) > 0
	})

	if idx > 0 {
		startIndex = si.entries[idx-1].index
	}
	if idx < len(si.entries) {
		endIndex = si.entries[idx].index
		hasEnd = true
	}
	return startIndex, endIndex, hasEnd
}

// encode serializes the sparse index as a concatenation of
// [key_length: uint64][key_bytes][index: uint64] entries.
func (si *sparseIndex) encode() []byte {
	size := 0
	for _, e := range si.entries {
		size += offsetWidth + len(e.key) + offsetWidth
	}
	buf := make([]byte, 0, size)
	var width [offsetWidth]byte
	for _, e := range si.entries {
		binary.LittleEndian.PutUint64(width[:], uint64(len(e.key)))
		buf = append(buf, width[:]...)
		buf = append(buf, e.key...)
		binary.LittleEndian.PutUint64(width[:], e.index)
		buf = append(buf, width[:]...)
	}
	return buf
}

// decodeSparseIndex consumes entries until raw is exhausted.
func decodeSparseIndex(raw []byte) (*sparseIndex, error) {
	si := &sparseIndex{}
	pos := 0
	for pos < len(raw) {
		if pos+offsetWidth > len(raw) {
			return nil, ErrInvalidSparseIndex
		}
		keyLen := int(binary.LittleEndian.Uint64(raw[pos:]))
		pos += offsetWidth

		if keyLen < 0 || pos+keyLen > len(raw) {
			return nil, ErrInvalidSparseIndex
		}
		key := append([]byte(nil), raw[pos:pos+keyLen]...)
		pos += keyLen

		if pos+offsetWidth > len(raw) {
			return nil, ErrInvalidSparseIndex
		}
		index := binary.LittleEndian.Uint64(raw[pos:])
		pos += offsetWidth

		si.entries = append(si.entries, sparseIndexEntry{key: key, index: index})
	}
	return si, nil
}
