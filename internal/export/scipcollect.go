package export

import (
	"context"
	"fmt"
	"os"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"apiguard/internal/errors"
	"apiguard/internal/logging"
)

// SCIPCollector produces a raw export from a pre-built SCIP index instead of
// invoking the toolchain. Repositories that already emit SCIP for code
// intelligence can reuse the same index for API guarding.
type SCIPCollector struct {
	IndexPath string
	Logger    *logging.Logger
}

// NewSCIPCollector creates a collector reading the given index file.
func NewSCIPCollector(indexPath string, logger *logging.Logger) *SCIPCollector {
	return &SCIPCollector{IndexPath: indexPath, Logger: logger}
}

// Collect loads the index and converts its symbols into export records.
// The target name is informational here; one index describes one target.
func (c *SCIPCollector) Collect(ctx context.Context, target string) (*RawExport, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.New(errors.ExportUnavailable, "collection cancelled", err)
	}

	data, err := os.ReadFile(c.IndexPath)
	if err != nil {
		return nil, errors.New(errors.ExportUnavailable,
			fmt.Sprintf("SCIP index not readable at %s", c.IndexPath), err)
	}

	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, errors.New(errors.MalformedExport,
			fmt.Sprintf("failed to parse SCIP index at %s", c.IndexPath), err)
	}

	export := &RawExport{}
	for _, doc := range index.Documents {
		for _, sym := range doc.Symbols {
			if sym.Symbol == "" || strings.HasPrefix(sym.Symbol, "local ") {
				continue
			}
			export.Symbols = append(export.Symbols, convertSCIPSymbol(sym))
		}
	}

	c.Logger.Debug("Loaded SCIP index", map[string]interface{}{
		"target":  target,
		"path":    c.IndexPath,
		"symbols": len(export.Symbols),
	})

	return export, nil
}

// convertSCIPSymbol maps one SCIP SymbolInformation into a SymbolRecord.
// SCIP carries no explicit access level, so visibility falls back to the
// exported-name convention of the indexed language.
func convertSCIPSymbol(sym *scippb.SymbolInformation) SymbolRecord {
	name := sym.DisplayName
	if name == "" {
		name = nameFromSymbolID(sym.Symbol)
	}

	record := SymbolRecord{
		ID:     sym.Symbol,
		Name:   name,
		Kind:   strings.ToLower(sym.Kind.String()),
		Access: accessFromName(name),
	}

	if sig := sym.SignatureDocumentation; sig != nil && sig.Text != "" {
		record.Fragments = []Fragment{{Kind: "signature", Spelling: sig.Text}}
	}

	return record
}

// nameFromSymbolID extracts a display name from a SCIP symbol identifier.
func nameFromSymbolID(symbolID string) string {
	name := symbolID
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.TrimSuffix(name, ".")
	name = strings.TrimSuffix(name, "()")
	// A trailing "#" marks a type descriptor; an interior "#" separates a
	// type from one of its members.
	if trimmed, ok := strings.CutSuffix(name, "#"); ok {
		name = trimmed
	} else if idx := strings.LastIndex(name, "#"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.TrimSuffix(name, "`")
	return name
}

// accessFromName applies the exported-identifier convention: an uppercase
// first letter marks the symbol externally visible.
func accessFromName(name string) string {
	if name == "" {
		return ""
	}
	first := rune(name[0])
	if first >= 'A' && first <= 'Z' {
		return "public"
	}
	return ""
}
