package lsm

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
)

// walRecordKind distinguishes a put from a remove in the log.
type walRecordKind uint8

const (
	walRecordPut walRecordKind = iota
	walRecordRemove
)

const walChecksumSize = 8

// walPath mirrors the SST naming convention: one segment per memtable
// generation, so truncation after a flush is "delete the whole file", never
// a partial in-file truncation.
func walPath(dir string, id uint64) string {
	return filepath.Join(dir, fmt.Sprintf("wal-%d.log", id))
}

// wal is an append-only, checksummed, compressed journal of writes against
// one memtable generation. The WAL, not the in-memory memtable, is the
// durability boundary for a put/remove.
type wal struct {
	mu     sync.Mutex
	f      *os.File
	w      *bufio.Writer
	enc    *zstd.Encoder
	policy WALSyncPolicy
	seq    uint64
}

// createWAL creates a new WAL segment for memtable id.
func createWAL(dir string, id uint64, policy WALSyncPolicy) (*wal, error) {
	f, err := os.OpenFile(walPath(dir, id), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("lsm: create wal segment %d: %w", id, err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("lsm: create wal encoder: %w", err)
	}
	return &wal{f: f, w: bufio.NewWriter(f), enc: enc, policy: policy}, nil
}

// Append compresses the length-prefixed key and value
// ([key_len][key][value_len][value]), checksums the compressed payload with
// blake2b-256 (truncated to 8 bytes), and appends
// (seq, kind, checksum, compressed_len, compressed_bytes) to the segment.
func (w *wal) Append(kind walRecordKind, key, value []byte) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	raw := make([]byte, 0, len(key)+len(value)+2*offsetWidth)
	var width [offsetWidth]byte
	binary.LittleEndian.PutUint64(width[:], uint64(len(key)))
	raw = append(raw, width[:]...)
	raw = append(raw, key...)
	binary.LittleEndian.PutUint64(width[:], uint64(len(value)))
	raw = append(raw, width[:]...)
	raw = append(raw, value...)

	compressed := w.enc.EncodeAll(raw, nil)
	sum := blake2b.Sum256(compressed)

	w.seq++
	seq := w.seq

	var header [offsetWidth + 1 + walChecksumSize + offsetWidth]byte
	binary.LittleEndian.PutUint64(header[0:], seq)
	header[offsetWidth] = byte(kind)
	copy(header[offsetWidth+1:offsetWidth+1+walChecksumSize], sum[:walChecksumSize])
	binary.LittleEndian.PutUint64(header[offsetWidth+1+walChecksumSize:], uint64(len(compressed)))

	if _, err := w.w.Write(header[:]); err != nil {
		return 0, fmt.Errorf("lsm: wal append header: %w", err)
	}
	if _, err := w.w.Write(compressed); err != nil {
		return 0, fmt.Errorf("lsm: wal append payload: %w", err)
	}

	if w.policy == WALSyncAlways {
		if err := w.flushAndSync(); err != nil {
			return 0, err
		}
	} else if err := w.w.Flush(); err != nil {
		return 0, fmt.Errorf("lsm: wal flush buffer: %w", err)
	}

	return seq, nil
}

func (w *wal) flushAndSync() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("lsm: wal flush buffer: %w", err)
	}
	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("lsm: wal fsync: %w", err)
	}
	return nil
}

// Sync forces a flush+fsync regardless of policy; used on an interval timer
// under WALSyncInterval.
func (w *wal) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushAndSync()
}

// Close flushes and closes the underlying file.
func (w *wal) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("lsm: wal close flush: %w", err)
	}
	return w.f.Close()
}

// Truncate removes the segment file entirely. Called once the memtable
// generation it covers has been durably flushed to an SST.
func (w *wal) Truncate() error {
	w.Close()
	if err := os.Remove(w.f.Name()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("lsm: wal truncate: %w", err)
	}
	return nil
}

// replayWAL reads a segment from the start, verifying each checksum and
// invoking apply in log order. A checksum mismatch on the final record is
// treated as a torn write from a crash mid-append and silently ends replay
// without error; a mismatch on a non-final record is a Format error.
func replayWAL(path string, apply func(kind walRecordKind, key, value []byte)) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("lsm: open wal for replay: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return fmt.Errorf("lsm: create wal decoder: %w", err)
	}
	defer dec.Close()

	r := bufio.NewReader(f)
	headerSize := offsetWidth + 1 + walChecksumSize + offsetWidth

	for {
		header := make([]byte, headerSize)
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil // torn or clean end of segment
			}
			return fmt.Errorf("lsm: read wal header: %w", err)
		}

		kind := walRecordKind(header[offsetWidth])
		wantSum := header[offsetWidth+1 : offsetWidth+1+walChecksumSize]
		compressedLen := binary.LittleEndian.Uint64(header[offsetWidth+1+walChecksumSize:])

		compressed := make([]byte, compressedLen)
		if _, err := io.ReadFull(r, compressed); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil // torn final record: tolerate, stop replay here
			}
			return fmt.Errorf("lsm: read wal payload: %w", err)
		}

		gotSum := blake2b.Sum256(compressed)
		if !checksumEqual(gotSum[:walChecksumSize], wantSum) {
			if isAtEOF(r) {
				return nil // torn final record
			}
			return fmt.Errorf("lsm: %w in %s", ErrWALChecksum, path)
		}

		raw, err := dec.DecodeAll(compressed, nil)
		if err != nil {
			return fmt.Errorf("lsm: decompress wal record: %w", err)
		}

		pos := 0
		keyLen := int(binary.LittleEndian.Uint64(raw[pos:]))
		pos += offsetWidth
		key := raw[pos : pos+keyLen]
		pos += keyLen
		valueLen := int(binary.LittleEndian.Uint64(raw[pos:]))
		pos += offsetWidth
		value := raw[pos : pos+valueLen]

		apply(kind, key, value)
	}
}

func checksumEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// isAtEOF reports whether r has no more buffered or underlying bytes.
func isAtEOF(r *bufio.Reader) bool {
	_, err := r.Peek(1)
	return err == io.EOF
}
