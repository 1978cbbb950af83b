// Package snapshot normalizes raw API exports into comparable snapshots.
package snapshot

import (
	"strings"
	"time"

	"apiguard/internal/export"
	"apiguard/internal/logging"
)

// Snapshot is the normalized, point-in-time record of a target's externally
// visible symbols. CreatedAt is informational only and never compared.
type Snapshot struct {
	Target    string            `json:"target"`
	CreatedAt string            `json:"createdAt"`
	Symbols   map[string]string `json:"symbols"`
}

// Access levels that count as externally visible. Anything else, including
// an absent level, is implementation detail and excluded from comparison.
var visibleLevels = map[string]bool{
	"public": true,
	"open":   true,
}

// Normalizer builds snapshots from raw exports.
type Normalizer struct {
	logger *logging.Logger
	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewNormalizer creates a normalizer.
func NewNormalizer(logger *logging.Logger) *Normalizer {
	return &Normalizer{
		logger: logger,
		now:    time.Now,
	}
}

// Normalize filters a raw export down to the externally visible surface and
// derives one stable signature per symbol.
func (n *Normalizer) Normalize(raw *export.RawExport, target string) *Snapshot {
	snap := &Snapshot{
		Target:    target,
		CreatedAt: n.now().UTC().Format(time.RFC3339),
		Symbols:   make(map[string]string),
	}

	for _, sym := range raw.Symbols {
		if !visibleLevels[sym.Access] {
			continue
		}
		if _, dup := snap.Symbols[sym.ID]; dup {
			// Well-formed exports never repeat an identifier; the later
			// occurrence wins, flagged as a data-quality signal.
			n.logger.Warn("Duplicate symbol identifier in export", map[string]interface{}{
				"target": target,
				"id":     sym.ID,
			})
		}
		snap.Symbols[sym.ID] = Signature(sym)
	}

	return snap
}

// Signature derives the normalized signature for one symbol: the declaration
// fragments concatenated in order with whitespace runs collapsed, or
// "<kind> <name>" when no fragments exist.
func Signature(sym export.SymbolRecord) string {
	if len(sym.Fragments) == 0 {
		return sym.Kind + " " + sym.Name
	}

	var b strings.Builder
	for _, frag := range sym.Fragments {
		b.WriteString(frag.Spelling)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ToValue converts the snapshot into the canonical encoder's value universe.
func (s *Snapshot) ToValue() map[string]interface{} {
	symbols := make(map[string]interface{}, len(s.Symbols))
	for id, sig := range s.Symbols {
		symbols[id] = sig
	}
	return map[string]interface{}{
		"target":    s.Target,
		"createdAt": s.CreatedAt,
		"symbols":   symbols,
	}
}

// FromValue reconstructs a snapshot from a decoded canonical value.
// Unexpected shapes yield ok=false.
func FromValue(value interface{}) (*Snapshot, bool) {
	m, ok := value.(map[string]interface{})
	if !ok {
		return nil, false
	}
	target, ok := m["target"].(string)
	if !ok {
		return nil, false
	}
	createdAt, ok := m["createdAt"].(string)
	if !ok {
		return nil, false
	}
	rawSymbols, ok := m["symbols"].(map[string]interface{})
	if !ok {
		return nil, false
	}

	symbols := make(map[string]string, len(rawSymbols))
	for id, v := range rawSymbols {
		sig, ok := v.(string)
		if !ok {
			return nil, false
		}
		symbols[id] = sig
	}

	return &Snapshot{Target: target, CreatedAt: createdAt, Symbols: symbols}, true
}
