package policy

import (
	"strings"
	"testing"

	"apiguard/internal/apidiff"
	"apiguard/internal/snapshot"
)

func diffOf(oldSyms, newSyms map[string]string) *apidiff.Diff {
	old := &snapshot.Snapshot{Target: "S1", Symbols: oldSyms}
	new := &snapshot.Snapshot{Target: "S1", Symbols: newSyms}
	return apidiff.Compute(old, new)
}

func TestEvaluateAdditions(t *testing.T) {
	d := diffOf(
		map[string]string{"S1:foo": "func foo()"},
		map[string]string{"S1:foo": "func foo()", "S1:bar": "func bar()"},
	)

	tests := []struct {
		name            string
		mode            Mode
		failOnAdditions bool
		wantPass        bool
	}{
		{"semver allows additions", ModeSemver, false, true},
		{"semver with fail-on-additions", ModeSemver, true, false},
		{"strict forbids additions", ModeStrict, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := Evaluate("S1", d, tc.mode, tc.failOnAdditions)
			if decision.Passed != tc.wantPass {
				t.Errorf("Passed = %v, want %v", decision.Passed, tc.wantPass)
			}
		})
	}
}

func TestEvaluateChangedAlwaysFails(t *testing.T) {
	d := diffOf(
		map[string]string{"S1:foo": "func foo()"},
		map[string]string{"S1:foo": "func foo(x: Int)"},
	)

	for _, mode := range []Mode{ModeSemver, ModeStrict} {
		for _, foa := range []bool{false, true} {
			if Evaluate("S1", d, mode, foa).Passed {
				t.Errorf("changed signature should fail (mode=%s foa=%v)", mode, foa)
			}
		}
	}
}

func TestEvaluateRemovedAlwaysFails(t *testing.T) {
	d := diffOf(map[string]string{"S1:foo": "func foo()"}, map[string]string{})

	for _, mode := range []Mode{ModeSemver, ModeStrict} {
		if Evaluate("S1", d, mode, false).Passed {
			t.Errorf("removal should fail in mode %s", mode)
		}
	}
}

func TestEvaluateIdenticalPasses(t *testing.T) {
	syms := map[string]string{"S1:foo": "func foo()"}
	d := diffOf(syms, syms)

	for _, mode := range []Mode{ModeSemver, ModeStrict} {
		for _, foa := range []bool{false, true} {
			if !Evaluate("S1", d, mode, foa).Passed {
				t.Errorf("identical snapshots should pass (mode=%s foa=%v)", mode, foa)
			}
		}
	}
}

func TestReportAlwaysPresent(t *testing.T) {
	d := diffOf(map[string]string{"S1:foo": "func foo()"}, map[string]string{"S1:foo": "func foo()"})
	decision := Evaluate("S1", d, ModeSemver, false)

	if decision.Report == "" {
		t.Error("passing decisions must still carry a report")
	}
	if !strings.Contains(decision.Report, "PASS") {
		t.Errorf("report should state the verdict: %s", decision.Report)
	}
}

func TestReportEnumeratesRemovedAndChanged(t *testing.T) {
	d := diffOf(
		map[string]string{"S1:gone": "func gone()", "S1:mut": "func mut()"},
		map[string]string{"S1:mut": "func mut(x: Int)"},
	)
	decision := Evaluate("S1", d, ModeSemver, false)

	if !strings.Contains(decision.Report, "removed: S1:gone") {
		t.Errorf("report missing removed identifier:\n%s", decision.Report)
	}
	if !strings.Contains(decision.Report, "changed: S1:mut") {
		t.Errorf("report missing changed identifier:\n%s", decision.Report)
	}
	if !strings.Contains(decision.Report, "FAIL") {
		t.Errorf("report should state the verdict:\n%s", decision.Report)
	}
}

func TestParseMode(t *testing.T) {
	if _, err := ParseMode("semver"); err != nil {
		t.Errorf("semver should parse: %v", err)
	}
	if _, err := ParseMode("strict"); err != nil {
		t.Errorf("strict should parse: %v", err)
	}
	if _, err := ParseMode("loose"); err == nil {
		t.Error("unknown mode should be rejected")
	}
}
