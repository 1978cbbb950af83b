// Package baseline persists accepted snapshots, one file per target.
package baseline

import (
	"fmt"
	"os"
	"path/filepath"

	"apiguard/internal/canonjson"
	"apiguard/internal/errors"
	"apiguard/internal/snapshot"
)

// Path returns the baseline file path for a target.
func Path(baselineDir, target string) string {
	return filepath.Join(baselineDir, target+".json")
}

// Load reads the stored baseline for a target. A missing file fails with
// BASELINE_MISSING; it is never treated as an empty snapshot.
func Load(baselineDir, target string) (*snapshot.Snapshot, error) {
	path := Path(baselineDir, target)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.BaselineMissing,
			fmt.Sprintf("no baseline for target %s at %s", target, path), err)
	}
	if err != nil {
		return nil, errors.New(errors.InternalError,
			fmt.Sprintf("failed to read baseline for target %s", target), err)
	}

	value, err := canonjson.Decode(data)
	if err != nil {
		return nil, err
	}
	snap, ok := snapshot.FromValue(value)
	if !ok {
		return nil, errors.New(errors.SerializationError,
			fmt.Sprintf("baseline file for target %s has unexpected shape", target), nil)
	}
	return snap, nil
}

// Save writes the canonically-encoded snapshot to the target's baseline file,
// creating the directory if needed. The write goes to a temp file first and
// is renamed into place, so a concurrent reader only ever observes the old or
// the new complete content.
func Save(snap *snapshot.Snapshot, baselineDir string) error {
	if err := os.MkdirAll(baselineDir, 0755); err != nil {
		return errors.New(errors.InternalError, "failed to create baseline directory", err)
	}

	data, err := canonjson.Encode(snap.ToValue())
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(baselineDir, "."+snap.Target+"-*.tmp")
	if err != nil {
		return errors.New(errors.InternalError, "failed to create temp baseline file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.New(errors.InternalError, "failed to write baseline", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.New(errors.InternalError, "failed to close baseline file", err)
	}

	if err := os.Rename(tmpPath, Path(baselineDir, snap.Target)); err != nil {
		_ = os.Remove(tmpPath)
		return errors.New(errors.InternalError, "failed to replace baseline file", err)
	}
	return nil
}

// Exists reports whether a baseline file is present for the target.
func Exists(baselineDir, target string) bool {
	_, err := os.Stat(Path(baselineDir, target))
	return err == nil
}
