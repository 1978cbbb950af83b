// Package engine wires the per-target pipeline: collect a raw export,
// normalize it, then persist or compare against the stored baseline.
package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"apiguard/internal/apidiff"
	"apiguard/internal/baseline"
	"apiguard/internal/canonjson"
	"apiguard/internal/config"
	"apiguard/internal/errors"
	"apiguard/internal/export"
	"apiguard/internal/history"
	"apiguard/internal/logging"
	"apiguard/internal/policy"
	"apiguard/internal/snapshot"
)

// Engine runs the snapshot/diff pipeline for configured targets.
type Engine struct {
	repoRoot   string
	cfg        *config.Config
	runner     export.ExecRunner
	history    *history.Store // nil when history is disabled
	logger     *logging.Logger
	normalizer *snapshot.Normalizer
}

// NewEngine creates an engine. hist may be nil to disable run recording.
func NewEngine(repoRoot string, cfg *config.Config, runner export.ExecRunner, hist *history.Store, logger *logging.Logger) *Engine {
	return &Engine{
		repoRoot:   repoRoot,
		cfg:        cfg,
		runner:     runner,
		history:    hist,
		logger:     logger,
		normalizer: snapshot.NewNormalizer(logger),
	}
}

// BaselineDir resolves the configured baseline directory against the repo root.
func (e *Engine) BaselineDir() string {
	if filepath.IsAbs(e.cfg.BaselineDir) {
		return e.cfg.BaselineDir
	}
	return filepath.Join(e.repoRoot, e.cfg.BaselineDir)
}

func (e *Engine) collectorFor(target config.TargetConfig) export.Collector {
	if target.Collector == config.CollectorSCIP {
		indexPath := target.IndexPath
		if !filepath.IsAbs(indexPath) {
			indexPath = filepath.Join(e.repoRoot, indexPath)
		}
		return export.NewSCIPCollector(indexPath, e.logger)
	}
	return export.NewToolchainCollector(target.Command, target.Args, e.runner, e.logger)
}

// ProduceSnapshot collects the raw export for a target and normalizes it.
func (e *Engine) ProduceSnapshot(ctx context.Context, target string) (*snapshot.Snapshot, *export.RawExport, error) {
	targetCfg, ok := e.cfg.Target(target)
	if !ok {
		return nil, nil, errors.New(errors.ConfigInvalid,
			fmt.Sprintf("target %s is not configured", target), nil)
	}

	raw, err := e.collectorFor(targetCfg).Collect(ctx, target)
	if err != nil {
		return nil, nil, err
	}

	snap := e.normalizer.Normalize(raw, target)
	e.logger.Debug("Snapshot produced", map[string]interface{}{
		"target":  target,
		"symbols": len(snap.Symbols),
	})
	return snap, raw, nil
}

// UpdateBaseline produces a fresh snapshot and stores it as the new baseline,
// replacing any prior file for the target.
func (e *Engine) UpdateBaseline(ctx context.Context, target string) (string, error) {
	snap, raw, err := e.ProduceSnapshot(ctx, target)
	if err != nil {
		e.recordRun(history.Run{Target: target, Operation: "update", Outcome: "error"})
		return "", err
	}

	if err := baseline.Save(snap, e.BaselineDir()); err != nil {
		e.recordRun(history.Run{Target: target, Operation: "update", Outcome: "error"})
		return "", err
	}

	canonical, _ := canonjson.Encode(snap.ToValue())
	e.recordRun(history.Run{
		Target:      target,
		Operation:   "update",
		Outcome:     "pass",
		SymbolCount: len(snap.Symbols),
		SnapshotSHA: history.SnapshotSHA(canonical),
		RawExport:   raw.Document,
	})

	path := baseline.Path(e.BaselineDir(), target)
	e.logger.Info("Baseline updated", map[string]interface{}{
		"target": target,
		"path":   path,
	})
	return path, nil
}

// CheckTarget produces a fresh snapshot, diffs it against the stored
// baseline, and evaluates the result. A missing baseline fails with
// BASELINE_MISSING rather than comparing against an empty surface.
func (e *Engine) CheckTarget(ctx context.Context, target string, mode policy.Mode, failOnAdditions bool) (*policy.Decision, error) {
	snap, raw, err := e.ProduceSnapshot(ctx, target)
	if err != nil {
		e.recordRun(history.Run{Target: target, Operation: "check", Outcome: "error", Mode: string(mode)})
		return nil, err
	}

	base, err := baseline.Load(e.BaselineDir(), target)
	if err != nil {
		e.recordRun(history.Run{Target: target, Operation: "check", Outcome: "error", Mode: string(mode)})
		return nil, err
	}

	diff := apidiff.Compute(base, snap)
	decision := policy.Evaluate(target, diff, mode, failOnAdditions)

	outcome := "pass"
	if !decision.Passed {
		outcome = "fail"
	}
	canonical, _ := canonjson.Encode(snap.ToValue())
	e.recordRun(history.Run{
		Target:      target,
		Operation:   "check",
		Outcome:     outcome,
		Mode:        string(mode),
		Added:       len(diff.Added),
		Removed:     len(diff.Removed),
		Changed:     len(diff.Changed),
		SymbolCount: len(snap.Symbols),
		SnapshotSHA: history.SnapshotSHA(canonical),
		RawExport:   raw.Document,
	})

	return decision, nil
}

// TargetResult is one target's outcome within a multi-target run.
type TargetResult struct {
	Target   string           `json:"target"`
	Decision *policy.Decision `json:"decision,omitempty"`
	Err      error            `json:"-" yaml:"-"`
	Error    string           `json:"error,omitempty"`
}

// RunResult aggregates per-target outcomes.
type RunResult struct {
	Results []TargetResult `json:"results"`
	Failed  bool           `json:"failed"`
}

// Check runs the check pipeline for the given targets, or for all configured
// targets when none are named. Targets are processed sequentially; one
// target's failure never aborts the others, but any failure marks the run
// failed. Cancellation is honored between targets.
func (e *Engine) Check(ctx context.Context, targets []string, mode policy.Mode, failOnAdditions bool) *RunResult {
	result := &RunResult{}

	for _, target := range e.resolveTargets(targets) {
		if err := ctx.Err(); err != nil {
			result.Results = append(result.Results, TargetResult{
				Target: target, Err: err, Error: err.Error(),
			})
			result.Failed = true
			break
		}

		decision, err := e.CheckTarget(ctx, target, mode, failOnAdditions)
		tr := TargetResult{Target: target, Decision: decision, Err: err}
		if err != nil {
			tr.Error = err.Error()
			result.Failed = true
		} else if !decision.Passed {
			result.Failed = true
		}
		result.Results = append(result.Results, tr)
	}

	return result
}

// Update runs the update pipeline for the given targets, or all configured
// targets when none are named.
func (e *Engine) Update(ctx context.Context, targets []string) *RunResult {
	result := &RunResult{}

	for _, target := range e.resolveTargets(targets) {
		if err := ctx.Err(); err != nil {
			result.Results = append(result.Results, TargetResult{
				Target: target, Err: err, Error: err.Error(),
			})
			result.Failed = true
			break
		}

		_, err := e.UpdateBaseline(ctx, target)
		tr := TargetResult{Target: target, Err: err}
		if err != nil {
			tr.Error = err.Error()
			result.Failed = true
		}
		result.Results = append(result.Results, tr)
	}

	return result
}

func (e *Engine) resolveTargets(targets []string) []string {
	if len(targets) > 0 {
		return targets
	}
	names := make([]string, 0, len(e.cfg.Targets))
	for _, t := range e.cfg.Targets {
		names = append(names, t.Name)
	}
	return names
}

// recordRun writes a history row. History failures are logged, never fatal.
func (e *Engine) recordRun(run history.Run) {
	if e.history == nil {
		return
	}
	if err := e.history.Record(run); err != nil {
		e.logger.Warn("Failed to record run history", map[string]interface{}{
			"target": run.Target,
			"error":  err.Error(),
		})
	}
}
