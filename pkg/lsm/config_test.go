package lsm

import "testing"

func TestConfigDefaultsNormalize(t *testing.T) {
	cfg := &Config{MemtableThreshold: 1024, Directory: "/tmp/whatever"}
	normalized, err := cfg.normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if normalized.IndexStride != defaultIndexStride {
		t.Fatalf("IndexStride = %d, want %d", normalized.IndexStride, defaultIndexStride)
	}
	if normalized.BloomFilterEnabled == nil || !*normalized.BloomFilterEnabled {
		t.Fatal("BloomFilterEnabled should default to true")
	}
}

func TestConfigRejectsNonPositiveThreshold(t *testing.T) {
	cfg := &Config{MemtableThreshold: 0, Directory: "/tmp/whatever"}
	if _, err := cfg.normalize(); err == nil {
		t.Fatal("expected error for zero threshold")
	}
}

func TestConfigRejectsEmptyDirectory(t *testing.T) {
	cfg := &Config{MemtableThreshold: 1024, Directory: ""}
	if _, err := cfg.normalize(); err == nil {
		t.Fatal("expected error for empty directory")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig("/tmp/whatever")
	if _, err := cfg.normalize(); err != nil {
		t.Fatalf("DefaultConfig should normalize cleanly: %v", err)
	}
}
