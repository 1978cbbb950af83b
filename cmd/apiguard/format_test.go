package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"apiguard/internal/apidiff"
	"apiguard/internal/engine"
	"apiguard/internal/history"
	"apiguard/internal/policy"
)

func sampleRunResult() *engine.RunResult {
	diff := &apidiff.Diff{Added: []string{}, Removed: []string{"s:gone"}, Changed: []string{}}
	decision := policy.Evaluate("Core", diff, policy.ModeSemver, false)
	return &engine.RunResult{
		Results: []engine.TargetResult{{Target: "Core", Decision: decision}},
		Failed:  true,
	}
}

func TestFormatResponseJSON(t *testing.T) {
	out, err := FormatResponse(sampleRunResult(), FormatJSON)
	if err != nil {
		t.Fatalf("FormatResponse failed: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed["failed"] != true {
		t.Errorf("failed flag missing: %v", parsed)
	}
}

func TestFormatResponseYAML(t *testing.T) {
	out, err := FormatResponse(sampleRunResult(), FormatYAML)
	if err != nil {
		t.Fatalf("FormatResponse failed: %v", err)
	}
	if !strings.Contains(out, "failed: true") {
		t.Errorf("yaml output missing failed flag:\n%s", out)
	}
}

func TestFormatResponseHuman(t *testing.T) {
	out, err := FormatResponse(sampleRunResult(), FormatHuman)
	if err != nil {
		t.Fatalf("FormatResponse failed: %v", err)
	}
	if !strings.Contains(out, "removed: s:gone") {
		t.Errorf("human output missing removed symbol:\n%s", out)
	}
	if !strings.Contains(out, "Result: FAIL") {
		t.Errorf("human output missing verdict:\n%s", out)
	}
}

func TestFormatResponseUnknownFormat(t *testing.T) {
	if _, err := FormatResponse(sampleRunResult(), "xml"); err == nil {
		t.Error("unknown format should be rejected")
	}
}

func TestFormatHistoryHuman(t *testing.T) {
	runs := []history.Run{
		{Target: "Core", Operation: "check", Outcome: "fail", Added: 1, Removed: 2,
			Changed: 0, SymbolCount: 12,
			CreatedAt: time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)},
	}

	out, err := FormatResponse(runs, FormatHuman)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "check") || !strings.Contains(out, "+1 -2 ~0") {
		t.Errorf("history output missing run detail:\n%s", out)
	}

	empty, err := FormatResponse([]history.Run{}, FormatHuman)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(empty, "No recorded runs") {
		t.Errorf("empty history output: %s", empty)
	}
}
