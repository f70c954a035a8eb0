package collector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Snapshot is the unit of persistence for a collector run: fetch
// timestamp, the run's reference data, and every successfully fetched
// entity in input order. Snapshots are never edited in place.
type Snapshot struct {
	FetchedAt     time.Time       `json:"fetched_at"`
	ReferenceData ReferenceSet    `json:"reference_data"`
	Projects      []*EntityRecord `json:"projects"`
}

const (
	snapshotPrefix = "snapshot-"
	snapshotSuffix = ".json"
	snapshotDate   = "2006-01-02"
)

// SnapshotPath returns the date-named path a snapshot for t lands at.
// Two runs on the same calendar day target the same file.
func SnapshotPath(dir string, t time.Time) string {
	return filepath.Join(dir, snapshotPrefix+t.UTC().Format(snapshotDate)+snapshotSuffix)
}

// Write persists the snapshot to its date-named path, replacing any
// earlier snapshot from the same day. The write goes through a temp
// file so a crash never leaves a truncated snapshot behind.
func (s *Snapshot) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir %s: %w", dir, err)
	}
	path := SnapshotPath(dir, s.FetchedAt)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("finalize snapshot %s: %w", path, err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &s, nil
}

// LatestSnapshot returns the path of the newest snapshot in dir.
// "Newest" is the lexicographic max of the date-named files, not
// anything read from file contents.
func LatestSnapshot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read snapshot dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no snapshots in %s", dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}
