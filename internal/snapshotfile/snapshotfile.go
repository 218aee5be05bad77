// Package snapshotfile reads and writes collected snapshots as JSON so a
// scan can be replayed offline.
package snapshotfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// Load reads a snapshot written by Save (or produced by hand).
func Load(path string) (*models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.ConfigurationError{Field: "snapshot", Err: err}
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &models.ConfigurationError{Field: "snapshot", Err: fmt.Errorf("parse %s: %w", path, err)}
	}
	if snap.AccountID == "" {
		return nil, &models.ConfigurationError{Field: "snapshot", Err: fmt.Errorf("%s: account_id is required", path)}
	}
	// Key ages are measured against collected_at.
	if snap.CollectedAt.IsZero() {
		return nil, &models.ConfigurationError{Field: "snapshot", Err: fmt.Errorf("%s: collected_at is required", path)}
	}
	return &snap, nil
}

// Save writes snap as indented JSON, creating parent directories.
func Save(path string, snap *models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// Source replays a snapshot file. It satisfies engine.SnapshotSource.
type Source struct {
	Path string
}

// Collect loads the file.
func (s Source) Collect(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(s.Path)
}

// Recorder wraps a source and saves every snapshot it returns.
type Recorder struct {
	Source interface {
		Collect(ctx context.Context) (*models.Snapshot, error)
	}
	Path string
}

// Collect delegates to the wrapped source and saves the result. A save
// failure fails the collection.
func (r Recorder) Collect(ctx context.Context) (*models.Snapshot, error) {
	snap, err := r.Source.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if err := Save(r.Path, snap); err != nil {
		return nil, &models.ConfigurationError{Field: "save-snapshot", Err: err}
	}
	return snap, nil
}
