package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndSnapshot(t *testing.T) {
	m := New()
	m.RecordRowCacheHit()
	m.RecordRowCacheMiss()
	m.RecordRowCacheMiss()
	m.RecordRowCacheAdd()
	m.RecordMemtableHit()
	m.RecordLookupFound()
	m.RecordLookupNotFound()
	m.RecordLookupCorrupt()
	m.RecordMergeFailure()

	s := m.Snapshot()
	assert.Equal(t, uint64(1), s.RowCacheHit)
	assert.Equal(t, uint64(2), s.RowCacheMiss)
	assert.Equal(t, uint64(1), s.RowCacheAdd)
	assert.Equal(t, uint64(1), s.MemtableHit)
	assert.Equal(t, uint64(1), s.LookupFound)
	assert.Equal(t, uint64(1), s.LookupNotFound)
	assert.Equal(t, uint64(1), s.LookupCorrupt)
	assert.Equal(t, uint64(1), s.MergeFailures)
	assert.GreaterOrEqual(t, s.UptimeSeconds, 0.0)
}

func TestNilMetricsIsValid(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRowCacheHit()
		m.RecordMergeFailure()
	})
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestWriteToExposition(t *testing.T) {
	m := New()
	m.RecordLookupFound()
	m.RecordLookupFound()

	var sb strings.Builder
	n, err := m.WriteTo(&sb)
	require.NoError(t, err)
	assert.Equal(t, int64(sb.Len()), n)

	out := sb.String()
	assert.Contains(t, out, "# TYPE quarry_lookup_found_total counter")
	assert.Contains(t, out, "quarry_lookup_found_total 2")
	assert.Contains(t, out, "# TYPE quarry_uptime_seconds gauge")
}
