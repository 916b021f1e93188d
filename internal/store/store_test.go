package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorehub/ingest-hub/pkg/schema"
)

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRecordThenGetReturnsSnapshotPlusMeta(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := New(clockAt(now))

	parsed := schema.Snapshot{"period": "2", "home_score": "45"}
	s.Record(schema.Basketball, parsed, "tcp:1.2.3.4:9000")

	got := s.Get(schema.Basketball, "tcp:1.2.3.4:9000")
	assert.Equal(t, "2", got["period"])
	assert.Equal(t, "45", got["home_score"])

	meta, ok := got["_meta"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "tcp:1.2.3.4:9000", meta["source"])
}

func TestRecordOrderingForFixedSource(t *testing.T) {
	s := New(nil)
	s.Record(schema.Basketball, schema.Snapshot{"period": "1"}, "src")
	s.Record(schema.Basketball, schema.Snapshot{"period": "2"}, "src")

	got := s.Get(schema.Basketball, "src")
	assert.Equal(t, "2", got["period"])
}

func TestRecordEnrichesBaseballWithInningState(t *testing.T) {
	s := New(nil)
	s.Record(schema.Baseball, schema.Snapshot{"outs": "0"}, "serial:/dev/ttyUSB0")

	got := s.Get(schema.Baseball, "serial:/dev/ttyUSB0")
	assert.Equal(t, "TOP", got["half"])
	assert.Equal(t, 1, got["inning"])
	assert.Equal(t, "TOP 1st", got["inning_display"])
}

func TestGetWithNoSourceReturnsLatestAcrossSources(t *testing.T) {
	s := New(nil)
	s.Record(schema.Football, schema.Snapshot{"quarter": "1"}, "a")
	s.Record(schema.Football, schema.Snapshot{"quarter": "2"}, "b")

	got := s.Get(schema.Football, "")
	assert.Equal(t, "2", got["quarter"])
}

func TestGetUnknownReturnsEmptyNonNilSnapshot(t *testing.T) {
	s := New(nil)
	got := s.Get(schema.Hockey, "nobody")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPurgeStaleRemovesOldSourcesOnly(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	current := base
	s := New(func() time.Time { return current })

	s.Record(schema.Soccer, schema.Snapshot{"period": "1"}, "stale")
	current = base.Add(30 * time.Minute)
	s.Record(schema.Soccer, schema.Snapshot{"period": "1"}, "fresh")

	current = base.Add(StaleTTL + time.Minute)
	removed := s.PurgeStale(StaleTTL)

	assert.Equal(t, []string{"stale"}, removed)
	assert.Empty(t, s.Get(schema.Soccer, "stale"))
	assert.NotEmpty(t, s.Get(schema.Soccer, "fresh"))
}

func TestSnapshotSourcesUsesNameLookup(t *testing.T) {
	s := New(nil)
	s.Record(schema.Wrestling, schema.Snapshot{"period": "1"}, "tcp:host:1")

	sources := s.SnapshotSources(func(id string) string {
		if id == "tcp:host:1" {
			return "Home Gym"
		}
		return id
	})

	require.Len(t, sources, 1)
	assert.Equal(t, "tcp:host:1", sources[0].Source)
	assert.Equal(t, "Home Gym", sources[0].Name)
	assert.Equal(t, []string{"Wrestling"}, sources[0].Sports)
}
