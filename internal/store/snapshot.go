package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"InvestArena/internal/model"
)

// Snapshot is a point-in-time dump of the whole game, written periodically
// next to the database.
type Snapshot struct {
	TakenAt time.Time     `json:"taken_at"`
	Game    *model.Game   `json:"game"`
	Teams   []*model.Team `json:"teams"`
}

// ReadSnapshot reads a snapshot file. Returns nil if the file doesn't exist.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// WriteSnapshot writes the snapshot atomically via a temp file and rename.
func WriteSnapshot(path string, snap *Snapshot) error {
	snap.TakenAt = time.Now()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
