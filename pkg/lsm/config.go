package lsm

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// WALSyncPolicy controls how aggressively the write-ahead log is fsync'd.
type WALSyncPolicy int

const (
	// WALSyncAlways fsyncs the WAL after every append. Slowest, most durable.
	WALSyncAlways WALSyncPolicy = iota
	// WALSyncInterval batches appends and fsyncs on a timer.
	WALSyncInterval
	// WALSyncNever never fsyncs explicitly; relies on the OS page cache.
	WALSyncNever
)

// Config holds LSM engine configuration. MemtableThreshold and Directory
// are the only required fields; the rest are optional knobs with defaults.
type Config struct {
	// MemtableThreshold is the byte size above which the mutable memtable is
	// frozen and a flush is triggered.
	MemtableThreshold int64 `validate:"required,gt=0"`

	// Directory is the root directory for SST and WAL files; created if missing.
	Directory string `validate:"required"`

	// IndexStride is the sparse-index sampling stride in bytes. Defaults to 4096.
	IndexStride int64 `validate:"omitempty,gt=0"`

	// WALSyncPolicy controls fsync frequency for the write-ahead log.
	WALSyncPolicy WALSyncPolicy `validate:"omitempty,oneof=0 1 2"`

	// WALSyncInterval is the fsync period used when WALSyncPolicy is WALSyncInterval.
	WALSyncInterval int64 `validate:"omitempty,gt=0"`

	// BloomFilterEnabled controls whether SST construction builds and persists
	// the sidecar bloom filter. Defaults to true.
	BloomFilterEnabled *bool
}

const (
	defaultIndexStride       = 4096
	defaultWALSyncIntervalMS = 100
)

var configValidator = validator.New()

// DefaultConfig returns a configuration with every optional field defaulted.
func DefaultConfig(directory string) *Config {
	return &Config{
		Directory:          directory,
		MemtableThreshold:  4 * 1024 * 1024,
		IndexStride:        defaultIndexStride,
		WALSyncPolicy:      WALSyncAlways,
		WALSyncInterval:    defaultWALSyncIntervalMS,
		BloomFilterEnabled: boolPtr(true),
	}
}

func boolPtr(b bool) *bool { return &b }

// normalize fills in zero-valued optional fields with their defaults and
// validates the result, returning ErrInvalidConfig on failure.
func (c *Config) normalize() (*Config, error) {
	normalized := *c
	if normalized.IndexStride == 0 {
		normalized.IndexStride = defaultIndexStride
	}
	if normalized.WALSyncInterval == 0 {
		normalized.WALSyncInterval = defaultWALSyncIntervalMS
	}
	if normalized.BloomFilterEnabled == nil {
		normalized.BloomFilterEnabled = boolPtr(true)
	}

	if err := configValidator.Struct(&normalized); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &normalized, nil
}
