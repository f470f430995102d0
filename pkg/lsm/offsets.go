package lsm

import "encoding/binary"

// offsetWidth is the fixed width, in bytes, of one little-endian uint64
// field in the offsets region. All on-disk integers use little-endian
// 64-bit for portability across hosts.
const offsetWidth = 8

// offsetEntrySize is the width of one packed (key_offset, value_offset) pair.
const offsetEntrySize = 2 * offsetWidth

// offsets is the packed array of (key_offset, value_offset) pairs, one per
// record, in record (key-sorted) order. Offsets are relative to the start
// of the payload region.
type offsets struct {
	keyOffsets   []uint64
	valueOffsets []uint64
}

// buildOffsets walks entries in order (already key-sorted) and computes the
// offset of each record's key and value within the payload region.
func buildOffsets(entries []entry) *offsets {
	o := &offsets{
		keyOffsets:   make([]uint64, len(entries)),
		valueOffsets: make([]uint64, len(entries)),
	}
	var pos uint64
	for i, e := range entries {
		o.keyOffsets[i] = pos
		o.valueOffsets[i] = pos + uint64(len(e.Key))
		pos += uint64(len(e.Key) + len(e.Value))
	}
	return o
}

// numEntries returns the number of packed records.
func (o *offsets) numEntries() int { return len(o.keyOffsets) }

// at returns the (key_offset, value_offset) pair for record i.
func (o *offsets) at(i int) (keyOffset, valueOffset uint64) {
	return o.keyOffsets[i], o.valueOffsets[i]
}

// encode serializes the offsets array as a concatenation of fixed-width
// little-endian (key_offset, value_offset) pairs.
func (o *offsets) encode() []byte {
	buf := make([]byte, len(o.keyOffsets)*offsetEntrySize)
	for i := range o.keyOffsets {
		base := i * offsetEntrySize
		binary.LittleEndian.PutUint64(buf[base:], o.keyOffsets[i])
		binary.LittleEndian.PutUint64(buf[base+offsetWidth:], o.valueOffsets[i])
	}
	return buf
}

// decodeOffsets parses a raw offsets region. The region's length must be a
// multiple of offsetEntrySize.
func decodeOffsets(raw []byte) (*offsets, error) {
	if len(raw)%offsetEntrySize != 0 {
		return nil, ErrInvalidOffsets
	}
	n := len(raw) / offsetEntrySize
	o := &offsets{keyOffsets: make([]uint64, n), valueOffsets: make([]uint64, n)}
	for i := 0; i < n; i++ {
		base := i * offsetEntrySize
		o.keyOffsets[i] = binary.LittleEndian.Uint64(raw[base:])
		o.valueOffsets[i] = binary.LittleEndian.Uint64(raw[base+offsetWidth:])
	}
	return o, nil
}
