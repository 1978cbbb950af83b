// Package policy decides whether an API diff constitutes a failure.
package policy

import (
	"fmt"
	"strings"

	"apiguard/internal/apidiff"
)

// Mode selects the decision policy.
type Mode string

const (
	// ModeSemver fails on removals and signature changes; additions are
	// non-breaking unless explicitly forbidden.
	ModeSemver Mode = "semver"
	// ModeStrict fails on any difference, additions included. Suited to a
	// frozen API surface where even additive change must be communicated.
	ModeStrict Mode = "strict"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSemver, ModeStrict:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown policy mode %q (want semver or strict)", s)
	}
}

// Decision is the outcome of evaluating one diff.
type Decision struct {
	Target string        `json:"target"`
	Mode   Mode          `json:"mode"`
	Passed bool          `json:"passed"`
	Report string        `json:"report"`
	Diff   *apidiff.Diff `json:"diff"`
}

// Evaluate applies the policy to a diff. The decision always carries a
// report enumerating counts, and identifiers for removed/changed symbols,
// so passing runs stay auditable.
func Evaluate(target string, diff *apidiff.Diff, mode Mode, failOnAdditions bool) *Decision {
	var failed bool
	switch mode {
	case ModeStrict:
		failed = !diff.Empty()
	default: // semver
		failed = len(diff.Removed) > 0 || len(diff.Changed) > 0 ||
			(failOnAdditions && len(diff.Added) > 0)
	}

	return &Decision{
		Target: target,
		Mode:   mode,
		Passed: !failed,
		Report: renderReport(target, diff, mode, failed),
		Diff:   diff,
	}
}

func renderReport(target string, diff *apidiff.Diff, mode Mode, failed bool) string {
	var b strings.Builder

	verdict := "PASS"
	if failed {
		verdict = "FAIL"
	}
	fmt.Fprintf(&b, "%s: %s (mode=%s, +%d -%d ~%d)\n",
		target, verdict, mode, len(diff.Added), len(diff.Removed), len(diff.Changed))

	for _, id := range diff.Removed {
		fmt.Fprintf(&b, "  removed: %s\n", id)
	}
	for _, id := range diff.Changed {
		fmt.Fprintf(&b, "  changed: %s\n", id)
	}
	if len(diff.Added) > 0 {
		fmt.Fprintf(&b, "  added: %d symbol(s)\n", len(diff.Added))
	}

	return strings.TrimRight(b.String(), "\n")
}
