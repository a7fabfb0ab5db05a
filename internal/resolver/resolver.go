// Package resolver implements the Span Resolver (spec §4.C): it turns a
// raw, possibly overlapping set of spans into a non-overlapping, ordered
// sequence, applying the confidence threshold and the documented
// deterministic tie-break order.
package resolver

import (
	"sort"

	"github.com/CoReason-AI/coreason-aegis/internal/aegiserr"
	"github.com/CoReason-AI/coreason-aegis/internal/aegistype"
)

// entityPriority is the tie-break order spec §4.C names explicitly.
// Lower index wins. Anything not listed sorts after every named type,
// broken alphabetically.
var entityPriority = map[string]int{
	"SECRET_KEY":    0,
	"US_SSN":        1,
	"MRN":           2,
	"CREDIT_CARD":   3,
	"EMAIL_ADDRESS": 4,
	"PHONE_NUMBER":  5,
	"IP_ADDRESS":    6,
	"PERSON":        7,
	"DATE_TIME":     8,
	"URL":           9,
}

func priorityOf(entityType string) int {
	if p, ok := entityPriority[entityType]; ok {
		return p
	}
	return len(entityPriority)
}

// Resolve applies the three rules of spec §4.C in order: drop below
// threshold, resolve overlaps by confidence/length/priority/start/id,
// then sort ascending by start.
//
// A zero-length span is an invariant violation and fails closed.
func Resolve(spans []aegistype.Span, confidenceThreshold float64) ([]aegistype.Span, error) {
	candidates := make([]aegistype.Span, 0, len(spans))
	for _, s := range spans {
		if s.Start >= s.End {
			return nil, aegiserr.New(aegiserr.KindInternalInvariantViolation, "zero-length or inverted span")
		}
		if s.Confidence < confidenceThreshold {
			continue
		}
		candidates = append(candidates, s)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return higherPriority(candidates[i], candidates[j])
	})

	var resolved []aegistype.Span
	for _, candidate := range candidates {
		overlapsKept := false
		for _, kept := range resolved {
			if candidate.Overlaps(kept) {
				overlapsKept = true
				break
			}
		}
		if !overlapsKept {
			resolved = append(resolved, candidate)
		}
	}

	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].Start < resolved[j].Start
	})

	return resolved, nil
}

// higherPriority reports whether a should be considered before b when
// greedily accepting non-overlapping spans: higher confidence first,
// ties broken by longer span, then higher-priority entity type (named
// types in entityPriority order, unlisted types alphabetically among
// themselves), then earlier start, then lexicographic recognizer id.
func higherPriority(a, b aegistype.Span) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Len() != b.Len() {
		return a.Len() > b.Len()
	}
	pa, pb := priorityOf(a.EntityType), priorityOf(b.EntityType)
	if pa != pb {
		return pa < pb
	}
	if pa == len(entityPriority) && a.EntityType != b.EntityType {
		return a.EntityType < b.EntityType
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.RecognizerID < b.RecognizerID
}
