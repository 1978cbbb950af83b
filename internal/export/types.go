// Package export models the raw API export boundary: the toolchain-produced
// document describing every symbol in a target, and the collectors that
// produce it.
package export

import (
	"encoding/json"

	"apiguard/internal/errors"
)

// Fragment is one declaration-text piece of a symbol. Only the spelling is
// ever consumed downstream; the kind tag is kept for diagnostics.
type Fragment struct {
	Kind     string `json:"kind"`
	Spelling string `json:"spelling"`
}

// SymbolRecord is the flattened form of one symbol in a raw export.
type SymbolRecord struct {
	// ID is the toolchain's precise, stable identifier, unique within a target.
	ID string
	// Name is the human-readable display name.
	Name string
	// Kind is the toolchain kind identifier (e.g. "swift.func").
	Kind string
	// DisplayKind is the optional human-readable kind.
	DisplayKind string
	// Access is the declared access level; empty means not externally visible.
	Access string
	// Fragments are the ordered declaration-text fragments, possibly empty.
	Fragments []Fragment
}

// RawExport is the parsed export document for one target.
type RawExport struct {
	Symbols []SymbolRecord

	// Document holds the source bytes when the export came from a textual
	// document; used only for audit archiving.
	Document []byte
}

// rawDocument mirrors the toolchain's JSON shape. The toolchain nests
// identifier, names, and kind in sub-objects; everything beyond what the
// normalizer needs is ignored.
type rawDocument struct {
	Symbols []rawSymbol `json:"symbols"`
}

type rawSymbol struct {
	Identifier struct {
		Precise string `json:"precise"`
	} `json:"identifier"`
	Names struct {
		Title string `json:"title"`
	} `json:"names"`
	Kind struct {
		Identifier  string `json:"identifier"`
		DisplayName string `json:"displayName"`
	} `json:"kind"`
	AccessLevel          string     `json:"accessLevel"`
	DeclarationFragments []Fragment `json:"declarationFragments"`
}

// Parse decodes a raw export document. A document that does not decode, or
// whose symbol records lack a precise identifier, fails with MALFORMED_EXPORT.
func Parse(data []byte) (*RawExport, error) {
	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(errors.MalformedExport, "export document is not valid JSON", err)
	}

	export := &RawExport{
		Symbols:  make([]SymbolRecord, 0, len(doc.Symbols)),
		Document: data,
	}
	for i, sym := range doc.Symbols {
		if sym.Identifier.Precise == "" {
			return nil, errors.New(errors.MalformedExport,
				"symbol record without precise identifier", nil).
				WithDetails(map[string]interface{}{"index": i})
		}
		export.Symbols = append(export.Symbols, SymbolRecord{
			ID:          sym.Identifier.Precise,
			Name:        sym.Names.Title,
			Kind:        sym.Kind.Identifier,
			DisplayKind: sym.Kind.DisplayName,
			Access:      sym.AccessLevel,
			Fragments:   sym.DeclarationFragments,
		})
	}
	return export, nil
}
