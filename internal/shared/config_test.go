package shared

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	c := Load()
	if c.OSRMMinInterval != 200*time.Millisecond {
		t.Fatalf("interval: %v", c.OSRMMinInterval)
	}
	if c.DefaultLimit != 100 || c.MatrixCache != "memory" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoad_ClampsIntervalAndCache(t *testing.T) {
	t.Setenv("OSRM_MIN_INTERVAL_MS", "50")
	t.Setenv("MATRIX_CACHE", "memcached")
	t.Setenv("SELECT_DEFAULT_LIMIT", "50")
	t.Setenv("SELECT_MAX_LIMIT", "10")

	c := Load()
	if c.OSRMMinInterval != 200*time.Millisecond {
		t.Fatalf("expected floor 200ms, got %v", c.OSRMMinInterval)
	}
	if c.MatrixCache != "memory" {
		t.Fatalf("expected memory fallback, got %s", c.MatrixCache)
	}
	if c.MaxLimit != 50 {
		t.Fatalf("max limit should be raised to default, got %d", c.MaxLimit)
	}
}
