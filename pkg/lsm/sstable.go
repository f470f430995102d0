package lsm

import (
	"bytes"
	"fmt"
	"path/filepath"
)

// SSTable is an on-disk sorted table identified by the id of the memtable
// that produced it. Layout:
//
//	[ payload: k0 v0 k1 v1 ... kN-1 vN-1 ]
//	[ offsets region ]
//	[ sparse-index region ]
//	[ footer: index_start, offsets_start, id ]
type SSTable struct {
	path    string
	id      uint64
	file    *lsmFile
	offsets *offsets
	index   *sparseIndex
	footer  footer
	bloom   *BloomFilter // best-effort; nil if no sidecar is available
}

func sstablePath(dir string, id uint64) string {
	return filepath.Join(dir, fmt.Sprintf("sstable-%d.sst", id))
}

// sstableOptions controls optional SST construction behavior.
type sstableOptions struct {
	indexStride        int64
	bloomFilterEnabled bool
}

// sstableFromMemtable constructs a new SST from a frozen memtable:
//  1. emit the payload by iterating entries in key order;
//  2. build the offsets array against that payload;
//  3. build the sparse index from the entries and the offsets;
//  4. serialize offsets, recording offsets_start;
//  5. serialize the sparse index, recording index_start;
//  6. serialize the footer;
//  7. write the whole file at <directory>/sstable-<id>.sst.
//
// The SST's id is the memtable's own id, not a freshly allocated one: the
// id sequence spans memtables and SSTs together.
func sstableFromMemtable(mt *ImmutableMemTable, dir string, opts sstableOptions) (*SSTable, error) {
	entries := mt.Entries()

	payload := make([]byte, 0, mt.SizeBytes())
	for _, e := range entries {
		payload = append(payload, e.Key...)
		payload = append(payload, e.Value...)
	}

	offs := buildOffsets(entries)
	idx := buildSparseIndex(entries, offs, opts.indexStride)

	offsetsBytes := offs.encode()
	indexBytes := idx.encode()

	offsetsStart := uint64(len(payload))
	indexStart := offsetsStart + uint64(len(offsetsBytes))
	f := footer{IndexStart: indexStart, OffsetsStart: offsetsStart, ID: mt.ID()}

	contents := make([]byte, 0, len(payload)+len(offsetsBytes)+len(indexBytes)+footerSize)
	contents = append(contents, payload...)
	contents = append(contents, offsetsBytes...)
	contents = append(contents, indexBytes...)
	contents = append(contents, f.encode()...)

	path := sstablePath(dir, mt.ID())
	if err := createFile(path, contents); err != nil {
		return nil, fmt.Errorf("lsm: write sstable %d: %w", mt.ID(), err)
	}

	file, err := openFile(path)
	if err != nil {
		return nil, fmt.Errorf("lsm: reopen sstable %d: %w", mt.ID(), err)
	}

	var bloom *BloomFilter
	if opts.bloomFilterEnabled {
		bloom = NewBloomFilter(maxInt(len(entries), 1), 3)
		for _, e := range entries {
			bloom.Add(e.Key)
		}
		// Sidecar persistence is best-effort.
		_ = saveBloomSidecar(path, bloom)
	}

	return &SSTable{path: path, id: mt.ID(), file: file, offsets: offs, index: idx, footer: f, bloom: bloom}, nil
}

// OpenSSTable reopens an SST from its file path. The footer's id is
// authoritative; the filename is advisory.
func OpenSSTable(path string) (*SSTable, error) {
	file, err := openFile(path)
	if err != nil {
		return nil, err
	}

	size := file.size()
	if size < footerSize {
		file.close()
		return nil, ErrInvalidFooter
	}

	footerBuf := make([]byte, footerSize)
	if err := file.read(footerBuf, size-footerSize, footerSize); err != nil {
		file.close()
		return nil, fmt.Errorf("lsm: read footer: %w", err)
	}
	f, err := decodeFooter(footerBuf)
	if err != nil {
		file.close()
		return nil, err
	}

	offsetsBuf := make([]byte, f.IndexStart-f.OffsetsStart)
	if err := file.read(offsetsBuf, int64(f.OffsetsStart), int64(len(offsetsBuf))); err != nil {
		file.close()
		return nil, fmt.Errorf("lsm: read offsets region: %w", err)
	}
	offs, err := decodeOffsets(offsetsBuf)
	if err != nil {
		file.close()
		return nil, err
	}

	indexBuf := make([]byte, (size-footerSize)-int64(f.IndexStart))
	if err := file.read(indexBuf, int64(f.IndexStart), int64(len(indexBuf))); err != nil {
		file.close()
		return nil, fmt.Errorf("lsm: read sparse index region: %w", err)
	}
	idx, err := decodeSparseIndex(indexBuf)
	if err != nil {
		file.close()
		return nil, err
	}

	bloom, _ := loadBloomSidecar(path)

	return &SSTable{path: path, id: f.ID, file: file, offsets: offs, index: idx, footer: f, bloom: bloom}, nil
}

// ID returns the SST's identifier, as recorded in its footer.
func (s *SSTable) ID() uint64 { return s.id }

// Path returns the SST's file path.
func (s *SSTable) Path() string { return s.path }

// NumEntries returns the number of records in the table.
func (s *SSTable) NumEntries() int { return s.offsets.numEntries() }

// Get performs a point lookup:
//  1. query the sparse index for (start_index, end_index);
//  2. determine the byte range to read;
//  3. read exactly that range;
//  4. walk records in the range, comparing keys;
//  5. return "absent" (ok=false) if no match. A zero-length value is
//     returned as-is; tombstone interpretation belongs to the engine.
func (s *SSTable) Get(key []byte) (value []byte, ok bool, err error) {
	if s.bloom != nil && !s.bloom.Contains(key) {
		return nil, false, nil
	}
	if s.offsets.numEntries() == 0 {
		return nil, false, nil
	}

	startIndex, endIndex, hasEnd := s.index.lookup(key)
	startKeyOffset, _ := s.offsets.at(int(startIndex))
	startByte := int64(startKeyOffset)

	var endByte int64
	if hasEnd {
		endKeyOffset, _ := s.offsets.at(int(endIndex))
		endByte = int64(endKeyOffset)
	} else {
		endByte = int64(s.footer.OffsetsStart)
		endIndex = uint64(s.offsets.numEntries())
	}

	buf := make([]byte, endByte-startByte)
	if err := s.file.read(buf, startByte, endByte-startByte); err != nil {
		return nil, false, fmt.Errorf("lsm: read block [%d,%d): %w", startByte, endByte, err)
	}

	for i := startIndex; i < endIndex; i++ {
		keyOffset, valueOffset := s.offsets.at(int(i))
		recKeyStart := int64(keyOffset) - startByte
		recValueStart := int64(valueOffset) - startByte

		var recValueEnd int64
		if int(i)+1 < s.offsets.numEntries() {
			nextKeyOffset, _ := s.offsets.at(int(i) + 1)
			recValueEnd = int64(nextKeyOffset) - startByte
		} else {
			recValueEnd = int64(s.footer.OffsetsStart) - startByte
		}

		recKey := buf[recKeyStart:recValueStart]
		cmp := bytes.Compare(recKey, key)
		if cmp == 0 {
			return buf[recValueStart:recValueEnd], true, nil
		}
		if cmp > 0 {
			return nil, false, nil
		}
	}
	return nil, false, nil
}

// Close releases the underlying file handle.
func (s *SSTable) Close() error {
	return s.file.close()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
