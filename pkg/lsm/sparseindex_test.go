package lsm

import (
	"fmt"
	"testing"
)

func TestSparseIndexAlwaysSamplesFirstKey(t *testing.T) {
	entries := []entry{{Key: []byte("a"), Value: []byte("1")}}
	offs := buildOffsets(entries)
	idx := buildSparseIndex(entries, offs, 4096)
	if len(idx.entries) != 1 || idx.entries[0].index != 0 {
		t.Fatalf("expected exactly one sampled entry at index 0, got %+v", idx.entries)
	}
}

// TestSparseIndexResetsStrideAccumulator guards against measuring the
// stride from the payload start instead of the last sampled key, which
// would sample every key once the payload passed the stride once.
func TestSparseIndexResetsStrideAccumulator(t *testing.T) {
	var entries []entry
	// Each entry contributes 99 bytes (9-byte key, 90-byte value); stride is
	// 250, so samples should land
	// roughly every 3 entries, not on every entry past the first stride.
	for i := 0; i < 20; i++ {
		entries = append(entries, entry{
			Key:   []byte(fmt.Sprintf("key%06d", i)),
			Value: make([]byte, 90),
		})
	}
	offs := buildOffsets(entries)
	idx := buildSparseIndex(entries, offs, 250)

	if len(idx.entries) >= len(entries) {
		t.Fatalf("sparse index sampled every key (%d of %d): stride accumulator not resetting", len(idx.entries), len(entries))
	}
	if len(idx.entries) < 2 {
		t.Fatalf("expected multiple samples across %d entries, got %d", len(entries), len(idx.entries))
	}
}

func TestSparseIndexLookupBounds(t *testing.T) {
	entries := []entry{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("m"), Value: []byte("2")},
		{Key: []byte("z"), Value: []byte("3")},
	}
	offs := buildOffsets(entries)
	// Force every key to be sampled by using a zero stride.
	idx := buildSparseIndex(entries, offs, 0)

	start, end, hasEnd := idx.lookup([]byte("m"))
	if start != 1 {
		t.Fatalf("lookup(m).start = %d, want 1", start)
	}
	if !hasEnd || end != 2 {
		t.Fatalf("lookup(m) = (end=%d, hasEnd=%v), want (2, true)", end, hasEnd)
	}

	start, _, _ = idx.lookup([]byte("zz"))
	if start != 2 {
		t.Fatalf("lookup(zz).start = %d, want 2 (last sampled key)", start)
	}

	start, _, hasEnd = idx.lookup([]byte(""))
	if start != 0 || !hasEnd {
		t.Fatalf("lookup('') = (start=%d, hasEnd=%v), want (0, true)", start, hasEnd)
	}
}

func TestSparseIndexEncodeDecodeRoundTrip(t *testing.T) {
	entries := []entry{
		{Key: []byte("alpha"), Value: []byte("1")},
		{Key: []byte("beta"), Value: []byte("2")},
	}
	offs := buildOffsets(entries)
	idx := buildSparseIndex(entries, offs, 0)

	decoded, err := decodeSparseIndex(idx.encode())
	if err != nil {
		t.Fatalf("decodeSparseIndex: %v", err)
	}
	if len(decoded.entries) != len(idx.entries) {
		t.Fatalf("decoded %d entries, want %d", len(decoded.entries), len(idx.entries))
	}
	for i, e := range idx.entries {
		if string(decoded.entries[i].key) != string(e.key) || decoded.entries[i].index != e.index {
			t.Fatalf("entry %d = %+v, want %+v", i, decoded.entries[i], e)
		}
	}
}
