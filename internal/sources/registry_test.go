package sources

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorehub/ingest-hub/pkg/schema"
)

func newTestRegistry(t *testing.T) (*Registry, *[]string, *[]string) {
	t.Helper()
	var started, stopped []string
	path := filepath.Join(t.TempDir(), "data_sources.json")
	r := New(path,
		func(s schema.ConfiguredSource) { started = append(started, s.ID) },
		func(id string) { stopped = append(stopped, id) },
	)
	return r, &started, &stopped
}

func TestAddTwiceYieldsDisambiguatedIDs(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	first, err := r.Add("Court A", "10.0.0.5", 9000, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "tcp:10.0.0.5:9000", first.ID)

	second, err := r.Add("Court A backup", "10.0.0.5", 9000, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "tcp:10.0.0.5:9000:2", second.ID)

	third, err := r.Add("Court A tertiary", "10.0.0.5", 9000, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "tcp:10.0.0.5:9000:3", third.ID)
}

func TestAddStartsWorkerWhenEnabled(t *testing.T) {
	r, started, _ := newTestRegistry(t)

	entry, err := r.Add("Court A", "10.0.0.5", 9000, true, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{entry.ID}, *started)
}

func TestAddRejectsMissingHostOrPort(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	_, err := r.Add("", "", 9000, false, nil)
	require.Error(t, err)
	assert.True(t, IsBadRequest(err))

	_, err = r.Add("", "host", 0, false, nil)
	require.Error(t, err)
	assert.True(t, IsBadRequest(err))
}

func TestPatchReaddressConflictMutatesNothing(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	a, err := r.Add("Court A", "10.0.0.5", 9000, false, nil)
	require.NoError(t, err)
	b, err := r.Add("Court B", "10.0.0.6", 9001, false, nil)
	require.NoError(t, err)

	// Re-address b to a's exact host:port, which collides with a's id.
	host := a.Host
	port := a.Port
	_, err = r.Patch(b.ID, PatchRequest{Host: &host, Port: &port})
	require.ErrorIs(t, err, ErrConflict)

	list := r.List()
	require.Len(t, list, 2)
	for _, s := range list {
		if s.ID == b.ID {
			assert.Equal(t, "10.0.0.6", s.Host)
			assert.Equal(t, 9001, s.Port)
		}
	}
}

func TestPatchTogglesEnabledStartsAndStops(t *testing.T) {
	r, started, stopped := newTestRegistry(t)

	entry, err := r.Add("Court A", "10.0.0.5", 9000, false, nil)
	require.NoError(t, err)

	on := true
	_, err = r.Patch(entry.ID, PatchRequest{Enabled: &on})
	require.NoError(t, err)
	assert.Contains(t, *started, entry.ID)

	off := false
	_, err = r.Patch(entry.ID, PatchRequest{Enabled: &off})
	require.NoError(t, err)
	assert.Contains(t, *stopped, entry.ID)
}

func TestPatchUnknownIDReturnsNotFound(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	_, err := r.Patch("nope", PatchRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteStopsWorkerAndRemoves(t *testing.T) {
	r, _, stopped := newTestRegistry(t)

	entry, err := r.Add("Court A", "10.0.0.5", 9000, true, nil)
	require.NoError(t, err)

	require.NoError(t, r.Delete(entry.ID))
	assert.Contains(t, *stopped, entry.ID)
	assert.Empty(t, r.List())

	assert.ErrorIs(t, r.Delete(entry.ID), ErrNotFound)
}

func TestApplyOverrideTruncatesLacrosseToGymnastics(t *testing.T) {
	snap := schema.Snapshot{"game_clock": "10:00", "period": "2"}
	sport, out := ApplyOverride(schema.Lacrosse, snap, schema.Gymnastics)
	assert.Equal(t, schema.Gymnastics, sport)
	assert.Equal(t, schema.Snapshot{"game_clock": "10:00"}, out)
}

func TestApplyOverridePassesThroughOtherPairs(t *testing.T) {
	snap := schema.Snapshot{"period": "2"}
	sport, out := ApplyOverride(schema.Basketball, snap, schema.Track)
	assert.Equal(t, schema.Track, sport)
	assert.Equal(t, snap, out)
}

func TestApplyOverrideNoneIsNoop(t *testing.T) {
	snap := schema.Snapshot{"period": "2"}
	sport, out := ApplyOverride(schema.Basketball, snap, "")
	assert.Equal(t, schema.Basketball, sport)
	assert.Equal(t, snap, out)
}
