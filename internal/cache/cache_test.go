package cache

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lhnows1/textvec/pkg/config"
	"github.com/lhnows1/textvec/pkg/metrics"
)

// TestKeys checks that cache keys separate models and sequences, including
// sequences whose concatenated bytes coincide.
func TestKeys(t *testing.T) {
	if KeyInt64s("a", []int64{1, 2}) == KeyInt64s("b", []int64{1, 2}) {
		t.Error("different models share a key")
	}
	if KeyInt64s("a", []int64{1, 2}) == KeyInt64s("a", []int64{2, 1}) {
		t.Error("different sequences share a key")
	}
	if KeyStrings("a", []string{"ab", "c"}) == KeyStrings("a", []string{"a", "bc"}) {
		t.Error("string boundaries are not separated")
	}
	if KeyInt64s("a", []int64{1}) != KeyInt64s("a", []int64{1}) {
		t.Error("key is not deterministic")
	}
}

// TestHitMissCounters checks that hits and misses reach both the local Stats
// counters and the Prometheus collectors.
func TestHitMissCounters(t *testing.T) {
	m := &metrics.Metrics{
		CacheHitsTotal:   prometheus.NewCounter(prometheus.CounterOpts{Name: "test_cache_hits_total"}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{Name: "test_cache_misses_total"}),
	}
	c := New(nil, config.RedisConfig{}, m)

	c.hit()
	c.hit()
	c.miss()

	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("Stats() = (%d, %d), want (2, 1)", hits, misses)
	}
	if got := testutil.ToFloat64(m.CacheHitsTotal); got != 2 {
		t.Errorf("cache hits counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheMissesTotal); got != 1 {
		t.Errorf("cache misses counter = %v, want 1", got)
	}
}

// TestCountersWithoutMetrics: a cache built without collectors still counts.
func TestCountersWithoutMetrics(t *testing.T) {
	c := New(nil, config.RedisConfig{}, nil)
	c.hit()
	c.miss()
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Errorf("Stats() = (%d, %d), want (1, 1)", hits, misses)
	}
}
