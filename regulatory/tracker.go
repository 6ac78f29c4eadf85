package regulatory

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// FeedEntry is one regulatory news item.
type FeedEntry struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Link      string `json:"link"`
	Published string `json:"published"`
}

// FeedDelta is the outcome of one change-detection pass over a feed.
type FeedDelta struct {
	Source      string      `json:"source"`      // regulation name, e.g. "GDPR"
	TrackerName string      `json:"tracker"`     // e.g. "gdpr_live_tracker"
	Changed     bool        `json:"has_new_updates"`
	NewEntries  []FeedEntry `json:"new_entries"`
	Message     string      `json:"message"`
}

// Fetcher retrieves the current state of one regulatory feed.
type Fetcher interface {
	Source() string
	TrackerName() string
	Fetch(ctx context.Context) ([]FeedEntry, error)
}

// Snapshot is the persisted state of the last feed observation.
type Snapshot struct {
	Timestamp time.Time   `json:"timestamp"`
	Hash      string      `json:"hash"`
	Entries   []FeedEntry `json:"updates"`
}

// SnapshotStore persists feed snapshots between runs. It is injected rather
// than accessed as a module-level singleton so tests can substitute doubles.
// The store assumes single-writer, single-run-at-a-time usage; concurrent
// runs against the same snapshot are unsupported.
type SnapshotStore interface {
	Load() (*Snapshot, error)
	Save(snapshot Snapshot) error
}

// Tracker detects changes in one regulatory feed against its stored snapshot.
type Tracker struct {
	fetcher Fetcher
	store   SnapshotStore
	now     func() time.Time
}

// NewTracker creates a new feed tracker
func NewTracker(fetcher Fetcher, store SnapshotStore) *Tracker {
	return &Tracker{fetcher: fetcher, store: store, now: time.Now}
}

// DetectChanges fetches the feed, compares it with the stored snapshot, and
// reports any new entries. It never fails the run: fetch or store faults
// degrade to a no-update delta.
func (t *Tracker) DetectChanges(ctx context.Context) FeedDelta {
	delta := FeedDelta{
		Source:      t.fetcher.Source(),
		TrackerName: t.fetcher.TrackerName(),
		NewEntries:  []FeedEntry{},
	}

	entries, err := t.fetcher.Fetch(ctx)
	if err != nil || len(entries) == 0 {
		if err != nil {
			log.Printf("Warning: %s fetch failed: %v", t.fetcher.TrackerName(), err)
		}
		delta.Message = fmt.Sprintf("No %s feed data available.", t.fetcher.Source())
		return delta
	}

	latestHash, err := hashEntries(entries)
	if err != nil {
		delta.Message = fmt.Sprintf("Failed to hash %s feed data.", t.fetcher.Source())
		return delta
	}

	previous, err := t.store.Load()
	if err != nil {
		log.Printf("Warning: %s snapshot load failed: %v", t.fetcher.TrackerName(), err)
	}

	if previous == nil {
		t.save(entries, latestHash)
		delta.Changed = true
		delta.NewEntries = entries
		delta.Message = fmt.Sprintf("Initial %s dataset stored.", t.fetcher.Source())
		return delta
	}

	if previous.Hash == latestHash {
		delta.Message = fmt.Sprintf("No new %s regulatory updates.", t.fetcher.Source())
		return delta
	}

	known := make(map[string]bool, len(previous.Entries))
	for _, entry := range previous.Entries {
		known[entry.Title] = true
	}

	for _, entry := range entries {
		if !known[entry.Title] {
			delta.NewEntries = append(delta.NewEntries, entry)
		}
	}

	t.save(entries, latestHash)

	delta.Changed = len(delta.NewEntries) > 0
	delta.Message = fmt.Sprintf("%d new %s updates detected.", len(delta.NewEntries), t.fetcher.Source())
	return delta
}

func (t *Tracker) save(entries []FeedEntry, hash string) {
	err := t.store.Save(Snapshot{
		Timestamp: t.now().UTC(),
		Hash:      hash,
		Entries:   entries,
	})
	if err != nil {
		log.Printf("Warning: %s snapshot save failed: %v", t.fetcher.TrackerName(), err)
	}
}

func hashEntries(entries []FeedEntry) (string, error) {
	payload, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(payload)
	return hex.EncodeToString(sum[:]), nil
}

// FileSnapshotStore persists snapshots as a JSON file on disk.
type FileSnapshotStore struct {
	path string
}

// NewFileSnapshotStore creates a file-backed snapshot store
func NewFileSnapshotStore(path string) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileSnapshotStore{path: path}, nil
}

// Load reads the stored snapshot; a missing file yields nil, nil.
func (s *FileSnapshotStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	snapshot := &Snapshot{}
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return snapshot, nil
}

// Save overwrites the stored snapshot.
func (s *FileSnapshotStore) Save(snapshot Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
