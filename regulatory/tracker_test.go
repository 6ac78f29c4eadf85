package regulatory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	entries []FeedEntry
	err     error
}

func (s *stubFetcher) Source() string      { return "GDPR" }
func (s *stubFetcher) TrackerName() string { return "gdpr_live_tracker" }
func (s *stubFetcher) Fetch(ctx context.Context) ([]FeedEntry, error) {
	return s.entries, s.err
}

type memoryStore struct {
	snapshot *Snapshot
	loadErr  error
	saveErr  error
}

func (m *memoryStore) Load() (*Snapshot, error) {
	return m.snapshot, m.loadErr
}

func (m *memoryStore) Save(snapshot Snapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snapshot = &snapshot
	return nil
}

func TestDetectChanges_InitialRunStoresSnapshot(t *testing.T) {
	fetcher := &stubFetcher{entries: []FeedEntry{{Title: "First guidance"}}}
	store := &memoryStore{}
	tracker := NewTracker(fetcher, store)

	delta := tracker.DetectChanges(context.Background())

	assert.True(t, delta.Changed)
	assert.Equal(t, "GDPR", delta.Source)
	assert.Equal(t, "gdpr_live_tracker", delta.TrackerName)
	require.Len(t, delta.NewEntries, 1)
	assert.Equal(t, "Initial GDPR dataset stored.", delta.Message)

	require.NotNil(t, store.snapshot)
	assert.NotEmpty(t, store.snapshot.Hash)
	assert.Len(t, store.snapshot.Entries, 1)
}

func TestDetectChanges_UnchangedFeedReportsNoUpdates(t *testing.T) {
	fetcher := &stubFetcher{entries: []FeedEntry{{Title: "First guidance"}}}
	store := &memoryStore{}
	tracker := NewTracker(fetcher, store)

	tracker.DetectChanges(context.Background())
	delta := tracker.DetectChanges(context.Background())

	assert.False(t, delta.Changed)
	assert.Empty(t, delta.NewEntries)
	assert.Equal(t, "No new GDPR regulatory updates.", delta.Message)
}

func TestDetectChanges_NewEntriesDetected(t *testing.T) {
	fetcher := &stubFetcher{entries: []FeedEntry{{Title: "First guidance"}}}
	store := &memoryStore{}
	tracker := NewTracker(fetcher, store)

	tracker.DetectChanges(context.Background())

	fetcher.entries = []FeedEntry{
		{Title: "Second guidance"},
		{Title: "First guidance"},
	}
	delta := tracker.DetectChanges(context.Background())

	assert.True(t, delta.Changed)
	require.Len(t, delta.NewEntries, 1)
	assert.Equal(t, "Second guidance", delta.NewEntries[0].Title)
	assert.Equal(t, "1 new GDPR updates detected.", delta.Message)

	// Snapshot advances so the same entries don't fire again.
	delta = tracker.DetectChanges(context.Background())
	assert.False(t, delta.Changed)
}

func TestDetectChanges_FetchFailureNeverFaults(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	store := &memoryStore{}
	tracker := NewTracker(fetcher, store)

	delta := tracker.DetectChanges(context.Background())

	assert.False(t, delta.Changed)
	assert.Empty(t, delta.NewEntries)
	assert.Equal(t, "No GDPR feed data available.", delta.Message)
	assert.Nil(t, store.snapshot)
}

func TestDetectChanges_EmptyFeedTreatedAsUnavailable(t *testing.T) {
	fetcher := &stubFetcher{entries: nil}
	tracker := NewTracker(fetcher, &memoryStore{})

	delta := tracker.DetectChanges(context.Background())

	assert.False(t, delta.Changed)
	assert.Equal(t, "No GDPR feed data available.", delta.Message)
}

func TestDetectChanges_StoreFailureDegradesToInitialDelta(t *testing.T) {
	fetcher := &stubFetcher{entries: []FeedEntry{{Title: "First guidance"}}}
	store := &memoryStore{loadErr: errors.New("disk error"), saveErr: errors.New("disk error")}
	tracker := NewTracker(fetcher, store)

	delta := tracker.DetectChanges(context.Background())

	// Load failure is treated as no prior snapshot; save failure is logged
	// and swallowed. The run itself still gets the entries.
	assert.True(t, delta.Changed)
	assert.Len(t, delta.NewEntries, 1)
}

func TestFileSnapshotStore_RoundTrip(t *testing.T) {
	path := t.TempDir() + "/gdpr_snapshot.json"
	store, err := NewFileSnapshotStore(path)
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	snapshot := Snapshot{Hash: "abc", Entries: []FeedEntry{{Title: "x"}}}
	require.NoError(t, store.Save(snapshot))

	loaded, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "abc", loaded.Hash)
	require.Len(t, loaded.Entries, 1)
	assert.Equal(t, "x", loaded.Entries[0].Title)
}

func TestDefaultRegulations_Catalog(t *testing.T) {
	regulations := DefaultRegulations()

	require.Contains(t, regulations, "GDPR")
	require.Contains(t, regulations, "HIPAA")
	assert.Contains(t, regulations["GDPR"].RequiredClauses, "Breach Notification")
	assert.Contains(t, regulations["HIPAA"].RequiredClauses, "PHI Protection")
}

func TestLoadRegulations_SeedsDefaultsOnFirstUse(t *testing.T) {
	path := t.TempDir() + "/regulations.json"

	regulations, err := LoadRegulations(path)
	require.NoError(t, err)
	assert.Contains(t, regulations, "GDPR")

	// Second load reads the seeded file.
	regulations, err = LoadRegulations(path)
	require.NoError(t, err)
	assert.Contains(t, regulations, "HIPAA")
}
