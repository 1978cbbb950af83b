// Package apidiff computes the set difference between two API snapshots.
package apidiff

import (
	"sort"

	"apiguard/internal/snapshot"
)

// Diff lists the symbol identifiers that were added, removed, or changed
// between two snapshots of the same target. All three slices are sorted.
type Diff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Changed []string `json:"changed"`
}

// Empty reports whether the diff contains no differences.
func (d *Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Compute diffs two snapshots. Callers must supply snapshots for the same
// target; the engine does not validate target names. Input ordering is
// irrelevant and the result is deterministic.
func Compute(old, new *snapshot.Snapshot) *Diff {
	d := &Diff{
		Added:   []string{},
		Removed: []string{},
		Changed: []string{},
	}

	for id, newSig := range new.Symbols {
		oldSig, ok := old.Symbols[id]
		if !ok {
			d.Added = append(d.Added, id)
		} else if oldSig != newSig {
			d.Changed = append(d.Changed, id)
		}
	}
	for id := range old.Symbols {
		if _, ok := new.Symbols[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)
	return d
}
