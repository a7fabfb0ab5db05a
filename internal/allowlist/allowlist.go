// Package allowlist implements the Allow-List Filter (spec §4.B): it
// drops spans whose surface text, Unicode-normalized and case-folded,
// matches a policy's allow-list.
package allowlist

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/CoReason-AI/coreason-aegis/internal/aegistype"
)

var foldCaser = cases.Fold()

// Normalize applies NFC normalization followed by Unicode case-folding,
// the exact transform spec §4.B and §4.D both require before any
// allow-list membership check or Vault lookup.
func Normalize(s string) string {
	return foldCaser.String(norm.NFC.String(s))
}

// Filter holds a one-shot-constructed, normalized allow-list set.
type Filter struct {
	normalized map[string]struct{}
}

// New builds a Filter from a policy's raw allow-list. Construction is
// the only place normalization happens; membership checks after that
// are plain map lookups.
func New(allowList []string) *Filter {
	set := make(map[string]struct{}, len(allowList))
	for _, term := range allowList {
		set[Normalize(term)] = struct{}{}
	}
	return &Filter{normalized: set}
}

// Apply returns spans whose surface text (looked up in text via the
// span's own bounds) is not a member of the allow-list.
func (f *Filter) Apply(text string, spans []aegistype.Span) []aegistype.Span {
	if len(f.normalized) == 0 {
		return spans
	}
	kept := spans[:0:0]
	for _, span := range spans {
		surface := text[span.Start:span.End]
		if _, blocked := f.normalized[Normalize(surface)]; blocked {
			continue
		}
		kept = append(kept, span)
	}
	return kept
}
