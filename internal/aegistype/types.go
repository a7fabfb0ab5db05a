// Package aegistype holds the shared data model of the privacy filter:
// spans, policies, token assignments, and the handles returned to callers.
package aegistype

import "time"

// Span is a half-open character range over the input text recognized as
// belonging to a sensitive category, together with its confidence and the
// recognizer that emitted it.
//
// Invariant: 0 <= Start < End <= len(text).
type Span struct {
	Start        int
	End          int
	EntityType   string
	Confidence   float64
	RecognizerID string
}

// Len returns the span's character length.
func (s Span) Len() int {
	return s.End - s.Start
}

// Overlaps reports whether s and other share at least one character.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// RedactionMode selects how a resolved span is rewritten.
type RedactionMode string

const (
	// ModeMask replaces a span with a generic type-only placeholder.
	ModeMask RedactionMode = "MASK"
	// ModeReplace replaces a span with a type + per-session ordinal token.
	ModeReplace RedactionMode = "REPLACE"
	// ModeSynthetic replaces a span with a plausible surrogate value.
	ModeSynthetic RedactionMode = "SYNTHETIC"
	// ModeHash replaces a span with a truncated SHA-256 hex digest.
	ModeHash RedactionMode = "HASH"
)

// Valid reports whether m is one of the four known redaction modes.
func (m RedactionMode) Valid() bool {
	switch m {
	case ModeMask, ModeReplace, ModeSynthetic, ModeHash:
		return true
	default:
		return false
	}
}

// AegisPolicy is the immutable configuration passed to a sanitize call.
// Struct tags drive validator.v10 struct validation in policyvalidate.
type AegisPolicy struct {
	AllowList       []string      `json:"allow_list" validate:"omitempty,dive,min=1"`
	EntityTypes     []string      `json:"entity_types" validate:"omitempty,dive,min=1"`
	Mode            RedactionMode `json:"mode" validate:"required,oneof=MASK REPLACE SYNTHETIC HASH"`
	ConfidenceScore float64       `json:"confidence_score" validate:"gte=0,lte=1"`
	Language        string        `json:"language" validate:"omitempty,len=2"`
}

// DefaultPolicy returns the policy spec §3 specifies as default.
func DefaultPolicy() AegisPolicy {
	return AegisPolicy{
		AllowList:       nil,
		EntityTypes:     nil, // empty = "all known"
		Mode:            ModeReplace,
		ConfidenceScore: 0.85,
		Language:        "en",
	}
}

// TokenAssignment is a per (session_id, entity_type, normalized_surface)
// record. Within one session, one surface maps to exactly one token.
type TokenAssignment struct {
	Token      string
	Surface    string
	EntityType string
	Ordinal    int
}

// MappingHandle is the opaque value returned to network callers. It
// contains no sensitive values, only enough to request a later reveal.
type MappingHandle struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
