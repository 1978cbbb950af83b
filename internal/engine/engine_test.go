package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"apiguard/internal/baseline"
	"apiguard/internal/config"
	"apiguard/internal/errors"
	"apiguard/internal/export"
	"apiguard/internal/history"
	"apiguard/internal/logging"
	"apiguard/internal/policy"
)

// exportDoc builds a minimal export document with the given public symbols.
func exportDoc(symbols map[string]string) string {
	type frag struct {
		Kind     string `json:"kind"`
		Spelling string `json:"spelling"`
	}
	var records []map[string]interface{}
	for id, sig := range symbols {
		records = append(records, map[string]interface{}{
			"identifier":           map[string]string{"precise": id},
			"names":                map[string]string{"title": id},
			"kind":                 map[string]string{"identifier": "swift.func"},
			"accessLevel":          "public",
			"declarationFragments": []frag{{Kind: "text", Spelling: sig}},
		})
	}
	data, _ := json.Marshal(map[string]interface{}{"symbols": records})
	return string(data)
}

type fixture struct {
	engine  *Engine
	runner  *export.MockRunner
	history *history.Store
	root    string

	// docs maps target name to the export document the mock toolchain writes.
	docs map[string]string
}

func newFixture(t *testing.T, targets ...string) *fixture {
	t.Helper()

	root := t.TempDir()
	logger := logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.ErrorLevel})

	cfg := config.DefaultConfig()
	for _, name := range targets {
		cfg.Targets = append(cfg.Targets, config.TargetConfig{
			Name: name, Collector: config.CollectorToolchain,
		})
	}

	f := &fixture{root: root, docs: make(map[string]string)}

	f.runner = export.NewMockRunner()
	f.runner.SetCommand("swift", "", "", nil)
	f.runner.OnRun = func(name string, args []string) {
		var target, outDir string
		for i, arg := range args {
			switch arg {
			case "-module-name":
				target = args[i+1]
			case "-output-dir":
				outDir = args[i+1]
			}
		}
		doc, ok := f.docs[target]
		if !ok {
			return // simulate a toolchain that produced nothing
		}
		if err := os.WriteFile(filepath.Join(outDir, target+".symbols.json"), []byte(doc), 0644); err != nil {
			t.Fatal(err)
		}
	}

	hist, err := history.Open(root, logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = hist.Close() })
	f.history = hist

	f.engine = NewEngine(root, cfg, f.runner, hist, logger)
	return f
}

func TestUpdateThenCheckPasses(t *testing.T) {
	f := newFixture(t, "Core")
	f.docs["Core"] = exportDoc(map[string]string{"s:foo": "func foo()"})
	ctx := context.Background()

	path, err := f.engine.UpdateBaseline(ctx, "Core")
	if err != nil {
		t.Fatalf("UpdateBaseline failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("baseline file not written: %v", err)
	}

	decision, err := f.engine.CheckTarget(ctx, "Core", policy.ModeSemver, false)
	if err != nil {
		t.Fatalf("CheckTarget failed: %v", err)
	}
	if !decision.Passed {
		t.Errorf("unchanged surface should pass: %s", decision.Report)
	}
}

func TestCheckDetectsBreakingChange(t *testing.T) {
	f := newFixture(t, "Core")
	f.docs["Core"] = exportDoc(map[string]string{"s:foo": "func foo()"})
	ctx := context.Background()

	if _, err := f.engine.UpdateBaseline(ctx, "Core"); err != nil {
		t.Fatal(err)
	}

	// Signature changes after the baseline was taken.
	f.docs["Core"] = exportDoc(map[string]string{"s:foo": "func foo(x: Int)"})

	decision, err := f.engine.CheckTarget(ctx, "Core", policy.ModeSemver, false)
	if err != nil {
		t.Fatal(err)
	}
	if decision.Passed {
		t.Error("signature change should fail")
	}
	if len(decision.Diff.Changed) != 1 || decision.Diff.Changed[0] != "s:foo" {
		t.Errorf("Changed = %v", decision.Diff.Changed)
	}
}

func TestCheckMissingBaseline(t *testing.T) {
	f := newFixture(t, "Core")
	f.docs["Core"] = exportDoc(map[string]string{"s:foo": "func foo()"})

	_, err := f.engine.CheckTarget(context.Background(), "Core", policy.ModeSemver, false)
	if err == nil {
		t.Fatal("expected error without a baseline")
	}
	if !errors.IsCode(err, errors.BaselineMissing) {
		t.Errorf("error should carry BASELINE_MISSING, got %v", err)
	}
}

func TestUnknownTarget(t *testing.T) {
	f := newFixture(t, "Core")

	_, _, err := f.engine.ProduceSnapshot(context.Background(), "Nope")
	if err == nil {
		t.Fatal("expected error for unconfigured target")
	}
	if !errors.IsCode(err, errors.ConfigInvalid) {
		t.Errorf("error should carry CONFIG_INVALID, got %v", err)
	}
}

func TestExportFailureSurfaces(t *testing.T) {
	f := newFixture(t, "Core")
	// No document registered: the mock toolchain writes nothing.

	_, _, err := f.engine.ProduceSnapshot(context.Background(), "Core")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.IsCode(err, errors.ExportUnavailable) {
		t.Errorf("error should carry EXPORT_UNAVAILABLE, got %v", err)
	}
}

func TestIdempotentUpdateSymbolsStable(t *testing.T) {
	f := newFixture(t, "Core")
	f.docs["Core"] = exportDoc(map[string]string{"s:b": "func b()", "s:a": "func a()"})
	ctx := context.Background()

	path, err := f.engine.UpdateBaseline(ctx, "Core")
	if err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.engine.UpdateBaseline(ctx, "Core"); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// The timestamp may differ between the two updates; the symbols object
	// must be byte-identical.
	if symbolsSection(t, first) != symbolsSection(t, second) {
		t.Errorf("symbols section changed between idempotent updates:\n%s\n%s", first, second)
	}
}

func symbolsSection(t *testing.T, data []byte) string {
	t.Helper()
	text := string(data)
	idx := strings.Index(text, `"symbols":`)
	if idx < 0 {
		t.Fatalf("no symbols section in %s", text)
	}
	return text[idx:]
}

func TestMultiTargetIsolation(t *testing.T) {
	f := newFixture(t, "Good", "Bad")
	f.docs["Good"] = exportDoc(map[string]string{"s:g": "func g()"})
	// "Bad" has no document: its export fails.
	ctx := context.Background()

	result := f.engine.Update(ctx, nil)
	if !result.Failed {
		t.Error("run with a failing target should be failed overall")
	}
	if len(result.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(result.Results))
	}

	// Good succeeded despite Bad failing.
	if !baseline.Exists(f.engine.BaselineDir(), "Good") {
		t.Error("Good's baseline should have been written")
	}
	if result.Results[1].Err == nil {
		t.Error("Bad's failure should be recorded")
	}
}

func TestCheckAllTargetsAggregation(t *testing.T) {
	f := newFixture(t, "A", "B")
	f.docs["A"] = exportDoc(map[string]string{"s:a": "func a()"})
	f.docs["B"] = exportDoc(map[string]string{"s:b": "func b()"})
	ctx := context.Background()

	if r := f.engine.Update(ctx, nil); r.Failed {
		t.Fatal("update should succeed")
	}

	// B loses its symbol.
	f.docs["B"] = exportDoc(map[string]string{})

	result := f.engine.Check(ctx, nil, policy.ModeSemver, false)
	if !result.Failed {
		t.Error("run should fail when one target fails")
	}
	if !result.Results[0].Decision.Passed {
		t.Error("A should pass")
	}
	if result.Results[1].Decision.Passed {
		t.Error("B should fail")
	}
}

func TestCancellationBetweenTargets(t *testing.T) {
	f := newFixture(t, "A", "B")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := f.engine.Check(ctx, nil, policy.ModeSemver, false)
	if !result.Failed {
		t.Error("cancelled run should be failed")
	}
	if len(result.Results) != 1 {
		t.Errorf("cancelled run should stop at the first target, got %d results", len(result.Results))
	}
}

func TestHistoryRecorded(t *testing.T) {
	f := newFixture(t, "Core")
	f.docs["Core"] = exportDoc(map[string]string{"s:foo": "func foo()"})
	ctx := context.Background()

	if _, err := f.engine.UpdateBaseline(ctx, "Core"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.engine.CheckTarget(ctx, "Core", policy.ModeSemver, false); err != nil {
		t.Fatal(err)
	}

	runs, err := f.history.Recent("Core", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}

	ops := map[string]bool{}
	for _, run := range runs {
		ops[run.Operation] = true
		if run.SnapshotSHA == "" {
			t.Errorf("%s run should carry a snapshot hash", run.Operation)
		}
	}
	if !ops["update"] || !ops["check"] {
		t.Errorf("expected update and check runs, got %+v", runs)
	}
}
