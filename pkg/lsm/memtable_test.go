package lsm

import (
	"bytes"
	"fmt"
	"testing"
)

func TestMutableMemTablePutAndGet(t *testing.T) {
	mt := NewMutableMemTable(1)

	pairs := map[string]string{
		"apple":  "fruit",
		"banana": "fruit",
		"cherry": "fruit",
		"date":   "fruit",
	}
	for k, v := range pairs {
		mt.Put([]byte(k), []byte(v))
	}

	for k, v := range pairs {
		got, ok := mt.Get([]byte(k))
		if !ok {
			t.Fatalf("key %s not found", k)
		}
		if string(got) != v {
			t.Fatalf("key %s: got %q, want %q", k, got, v)
		}
	}

	if _, ok := mt.Get([]byte("fig")); ok {
		t.Fatal("nonexistent key should not be found")
	}
}

func TestMutableMemTableUpdateAdjustsSize(t *testing.T) {
	mt := NewMutableMemTable(1)
	key := []byte("update-test")

	mt.Put(key, []byte("value1"))
	sizeAfterInsert := mt.SizeBytes()
	if sizeAfterInsert != int64(len(key)+len("value1")) {
		t.Fatalf("size after insert = %d, want %d", sizeAfterInsert, len(key)+len("value1"))
	}

	mt.Put(key, []byte("a-longer-value2"))
	got, ok := mt.Get(key)
	if !ok || string(got) != "a-longer-value2" {
		t.Fatalf("Get after update = (%q, %v), want (a-longer-value2, true)", got, ok)
	}

	wantSize := sizeAfterInsert + int64(len("a-longer-value2")-len("value1"))
	if mt.SizeBytes() != wantSize {
		t.Fatalf("size after update = %d, want %d (update must adjust, not re-add)", mt.SizeBytes(), wantSize)
	}
}

func TestMutableMemTableTombstoneIsAZeroLengthValue(t *testing.T) {
	mt := NewMutableMemTable(1)
	key := []byte("gone")

	mt.Put(key, []byte("value"))
	mt.Put(key, []byte{}) // tombstone, not a deletion from the structure

	value, ok := mt.Get(key)
	if !ok {
		t.Fatal("a tombstoned key must still report ok=true; absence is a different thing from a tombstone")
	}
	if len(value) != 0 {
		t.Fatalf("tombstone value = %q, want zero-length", value)
	}
}

func TestMutableMemTableFreezePreservesContentsAndID(t *testing.T) {
	mt := NewMutableMemTable(42)
	keys := []string{"zebra", "apple", "mango", "banana", "cherry"}
	for i, k := range keys {
		mt.Put([]byte(k), []byte(fmt.Sprintf("v%d", i)))
	}

	frozen := mt.Freeze()
	if frozen.ID() != 42 {
		t.Fatalf("Freeze() ID = %d, want 42", frozen.ID())
	}
	if frozen.SizeBytes() != mt.SizeBytes() {
		t.Fatalf("frozen size = %d, want %d (captured at freeze time)", frozen.SizeBytes(), mt.SizeBytes())
	}

	for i, k := range keys {
		value, ok := frozen.Get([]byte(k))
		want := fmt.Sprintf("v%d", i)
		if !ok || string(value) != want {
			t.Fatalf("frozen.Get(%s) = (%q, %v), want (%s, true)", k, value, ok, want)
		}
	}

	// Mutating the original table after Freeze must not reach back into the
	// already-frozen snapshot.
	mt.Put([]byte("zebra"), []byte("mutated-after-freeze"))
	value, _ := frozen.Get([]byte("zebra"))
	if string(value) != "v0" {
		t.Fatalf("frozen snapshot changed after a post-freeze mutation: got %q, want v0", value)
	}
}

func TestImmutableMemTableEntriesAreSorted(t *testing.T) {
	mt := NewMutableMemTable(1)
	keys := []string{"zebra", "apple", "mango", "banana", "cherry"}
	for _, k := range keys {
		mt.Put([]byte(k), []byte("v"))
	}

	entries := mt.Freeze().Entries()
	if len(entries) != len(keys) {
		t.Fatalf("got %d entries, want %d", len(entries), len(keys))
	}
	for i := 1; i < len(entries); i++ {
		if bytes.Compare(entries[i-1].Key, entries[i].Key) >= 0 {
			t.Fatalf("entries not in sorted order: %s >= %s", entries[i-1].Key, entries[i].Key)
		}
	}
}

func TestImmutableMemTableGetMissingKey(t *testing.T) {
	mt := NewMutableMemTable(1)
	mt.Put([]byte("present"), []byte("value"))

	frozen := mt.Freeze()
	if _, ok := frozen.Get([]byte("absent")); ok {
		t.Fatal("absent key should not be found in a frozen table")
	}
}

func TestMutableMemTableEmpty(t *testing.T) {
	mt := NewMutableMemTable(1)

	if _, ok := mt.Get([]byte("any-key")); ok {
		t.Fatal("empty memtable should not find any key")
	}
	if mt.SizeBytes() != 0 {
		t.Fatalf("empty memtable size = %d, want 0", mt.SizeBytes())
	}

	frozen := mt.Freeze()
	if len(frozen.Entries()) != 0 {
		t.Fatalf("freezing an empty memtable should produce zero entries, got %d", len(frozen.Entries()))
	}
}

func TestMutableMemTableManyKeysSizeAccounting(t *testing.T) {
	mt := NewMutableMemTable(1)

	var want int64
	for i := 0; i < 200; i++ {
		key := []byte(fmt.Sprintf("key-%04d", i))
		value := []byte(fmt.Sprintf("value-%04d", i))
		mt.Put(key, value)
		want += int64(len(key) + len(value))
	}

	if mt.SizeBytes() != want {
		t.Fatalf("SizeBytes() = %d, want %d", mt.SizeBytes(), want)
	}
	if mt.Freeze().SizeBytes() != want {
		t.Fatalf("Freeze().SizeBytes() = %d, want %d", mt.Freeze().SizeBytes(), want)
	}
}
