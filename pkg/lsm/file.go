package lsm

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// lsmFile is a positioned-read, atomic-write file abstraction. Reads use
// ReadAt, which is safe for concurrent callers without external locking.
type lsmFile struct {
	f        *os.File
	fileSize int64
}

// createFile atomically materializes a file at path with the given
// contents: write to a temp file in the same directory, fsync, then rename
// into place. A crash mid-write leaves the old path (if any) or no path at
// all, never a half-written one.
func createFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*"+filepath.Base(path))
	if err != nil {
		return fmt.Errorf("lsm: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("lsm: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("lsm: fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("lsm: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("lsm: rename into place: %w", err)
	}
	return nil
}

// openFile opens an existing file for positioned reads.
func openFile(path string) (*lsmFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lsm: open file: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("lsm: stat file: %w", err)
	}
	return &lsmFile{f: f, fileSize: stat.Size()}, nil
}

// size returns the total byte length of the file.
func (lf *lsmFile) size() int64 { return lf.fileSize }

// read fills buf[0:length] from [offset, offset+length).
func (lf *lsmFile) read(buf []byte, offset, length int64) error {
	if length > int64(len(buf)) {
		return fmt.Errorf("lsm: read buffer too small: need %d, have %d", length, len(buf))
	}
	n, err := lf.f.ReadAt(buf[:length], offset)
	if err != nil && err != io.EOF {
		return fmt.Errorf("lsm: read at offset %d: %w", offset, err)
	}
	if int64(n) != length {
		return fmt.Errorf("lsm: short read at offset %d: got %d, want %d", offset, n, length)
	}
	return nil
}

// close releases the underlying file handle.
func (lf *lsmFile) close() error {
	return lf.f.Close()
}

// readWholeFile reads a small file's entire contents, used for sidecar
// files that are never range-read.
func readWholeFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
