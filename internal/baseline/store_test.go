package baseline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"apiguard/internal/errors"
	"apiguard/internal/snapshot"
)

func sampleSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Target:    "Core",
		CreatedAt: "2026-08-28T12:00:00Z",
		Symbols: map[string]string{
			"s:Core3fooyyF": "func foo()",
			"s:Core3barSiF": "func bar() -> Int",
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	snap := sampleSnapshot()

	if err := Save(snap, dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(dir, "Core")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Target != "Core" || loaded.CreatedAt != snap.CreatedAt {
		t.Errorf("metadata not preserved: %+v", loaded)
	}
	if len(loaded.Symbols) != 2 || loaded.Symbols["s:Core3fooyyF"] != "func foo()" {
		t.Errorf("symbols not preserved: %v", loaded.Symbols)
	}
}

func TestLoadMissingBaseline(t *testing.T) {
	_, err := Load(t.TempDir(), "Core")
	if err == nil {
		t.Fatal("expected error for missing baseline")
	}
	if !errors.IsCode(err, errors.BaselineMissing) {
		t.Errorf("error should carry BASELINE_MISSING, got %v", err)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "baselines")

	if err := Save(sampleSnapshot(), dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !Exists(dir, "Core") {
		t.Error("baseline file should exist")
	}
}

func TestSaveOverwrites(t *testing.T) {
	dir := t.TempDir()

	first := sampleSnapshot()
	if err := Save(first, dir); err != nil {
		t.Fatal(err)
	}

	second := sampleSnapshot()
	second.Symbols["s:Core3newyyF"] = "func new()"
	if err := Save(second, dir); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(dir, "Core")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Symbols) != 3 {
		t.Errorf("overwrite lost symbols: %v", loaded.Symbols)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := Save(sampleSnapshot(), dir); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one baseline file, got %d", len(entries))
	}
}

func TestSavedBytesAreCanonical(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	// Same pairs, different insertion order.
	a := &snapshot.Snapshot{Target: "Core", CreatedAt: "2026-08-28T12:00:00Z",
		Symbols: map[string]string{}}
	for _, id := range []string{"s:a", "s:b", "s:c"} {
		a.Symbols[id] = "sig " + id
	}
	b := &snapshot.Snapshot{Target: "Core", CreatedAt: "2026-08-28T12:00:00Z",
		Symbols: map[string]string{}}
	for _, id := range []string{"s:c", "s:a", "s:b"} {
		b.Symbols[id] = "sig " + id
	}

	if err := Save(a, dirA); err != nil {
		t.Fatal(err)
	}
	if err := Save(b, dirB); err != nil {
		t.Fatal(err)
	}

	da, _ := os.ReadFile(Path(dirA, "Core"))
	db, _ := os.ReadFile(Path(dirB, "Core"))
	if !bytes.Equal(da, db) {
		t.Errorf("baseline bytes depend on insertion order:\n%s\n%s", da, db)
	}

	// Keys sorted: createdAt < symbols < target.
	text := string(da)
	if !(strings.Index(text, `"createdAt"`) < strings.Index(text, `"symbols"`) &&
		strings.Index(text, `"symbols"`) < strings.Index(text, `"target"`)) {
		t.Errorf("object keys not sorted: %s", text)
	}
}
