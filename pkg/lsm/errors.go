package lsm

import "errors"

var (
	// ErrClosed is returned when an operation is attempted on a closed engine.
	ErrClosed = errors.New("lsm: engine is closed")

	// ErrInvalidBloomFilter is returned when bloom filter sidecar data is invalid.
	ErrInvalidBloomFilter = errors.New("lsm: invalid bloom filter data")

	// ErrInvalidFooter is returned when a footer cannot be decoded to its fixed size.
	ErrInvalidFooter = errors.New("lsm: invalid sstable footer")

	// ErrInvalidOffsets is returned when the offsets region length is not a
	// multiple of one packed entry.
	ErrInvalidOffsets = errors.New("lsm: offsets region is not a multiple of the entry width")

	// ErrInvalidSparseIndex is returned when the sparse-index region is
	// truncated or malformed.
	ErrInvalidSparseIndex = errors.New("lsm: invalid sparse index region")

	// ErrWALChecksum is returned when a non-final WAL record fails its checksum.
	ErrWALChecksum = errors.New("lsm: wal record checksum mismatch")

	// ErrInvalidConfig is returned when a Config fails validation at Open.
	ErrInvalidConfig = errors.New("lsm: invalid configuration")
)
