package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"apiguard/internal/engine"
	"apiguard/internal/history"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(resp)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *engine.RunResult:
		return formatRunResultHuman(v), nil
	case []history.Run:
		return formatHistoryHuman(v), nil
	default:
		// For unknown types, fall back to JSON.
		data, err := json.MarshalIndent(resp, "", "  ")
		return string(data), err
	}
}

func formatRunResultHuman(result *engine.RunResult) string {
	var b strings.Builder

	for _, tr := range result.Results {
		if tr.Err != nil {
			fmt.Fprintf(&b, "%s: ERROR %v\n", tr.Target, tr.Err)
			continue
		}
		if tr.Decision != nil {
			b.WriteString(tr.Decision.Report)
			b.WriteByte('\n')
			continue
		}
		fmt.Fprintf(&b, "%s: baseline updated\n", tr.Target)
	}

	if result.Failed {
		b.WriteString("\nResult: FAIL")
	} else {
		b.WriteString("\nResult: PASS")
	}
	return b.String()
}

func formatHistoryHuman(runs []history.Run) string {
	if len(runs) == 0 {
		return "No recorded runs."
	}

	var b strings.Builder
	for _, run := range runs {
		fmt.Fprintf(&b, "%s  %-6s %-5s", run.CreatedAt.Format("2006-01-02 15:04:05"), run.Operation, run.Outcome)
		if run.Operation == "check" {
			fmt.Fprintf(&b, "  +%d -%d ~%d", run.Added, run.Removed, run.Changed)
		}
		fmt.Fprintf(&b, "  (%d symbols)\n", run.SymbolCount)
	}
	return strings.TrimRight(b.String(), "\n")
}
