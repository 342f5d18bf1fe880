package database

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func describePool(t *testing.T, c *PoolStatsCollector) []string {
	t.Helper()

	ch := make(chan *prometheus.Desc, 32)
	c.Describe(ch)
	close(ch)

	var descs []string
	for d := range ch {
		descs = append(descs, d.String())
	}
	return descs
}

func TestPoolStatsCollector_DescribesEveryStat(t *testing.T) {
	// Describe never touches the pool, so nil is fine here.
	c := NewPoolStatsCollector(nil, "roamio-api")
	require.NotNil(t, c)

	descs := describePool(t, c)
	assert.Len(t, descs, 12)

	for _, name := range []string{
		"db_pool_acquired_connections",
		"db_pool_idle_connections",
		"db_pool_total_connections",
		"db_pool_max_connections",
		"db_pool_constructing_connections",
		"db_pool_acquire_count_total",
		"db_pool_acquire_duration_seconds_total",
		"db_pool_canceled_acquire_count_total",
		"db_pool_empty_acquire_count_total",
		"db_pool_new_connections_total",
		"db_pool_max_lifetime_destroy_total",
		"db_pool_max_idle_destroy_total",
	} {
		found := false
		for _, d := range descs {
			if strings.Contains(d, name) {
				found = true
				break
			}
		}
		assert.True(t, found, "missing descriptor %q", name)
	}
}

func TestPoolStatsCollector_IsACollector(t *testing.T) {
	var _ prometheus.Collector = NewPoolStatsCollector(nil, "roamio-api")
}

func TestPoolStatsCollector_CarriesServiceLabel(t *testing.T) {
	c := NewPoolStatsCollector(nil, "roamio-api")
	for _, d := range describePool(t, c) {
		assert.Contains(t, d, "service", "every stat should be labelled by service")
	}
}
