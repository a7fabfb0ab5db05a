// Package tokenizer implements the Tokenizer (spec §4.D): it produces a
// replacement string for a resolved span under one of the four
// redaction modes. It is deliberately stateless — the Sanitize Pipeline
// owns the Vault's reverse-map consultation and per-(session,
// entity_type) ordinal bookkeeping; this package only knows how to
// shape a token once a decision ("reuse token X" or "mint ordinal N")
// has been made.
package tokenizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/CoReason-AI/coreason-aegis/internal/allowlist"
	"github.com/CoReason-AI/coreason-aegis/internal/aegistype"
)

// NormalizeSurface NFC-normalizes and case-folds a surface string and
// trims trailing whitespace, the exact transform spec §4.D requires
// before any Vault lookup or mapping write.
func NormalizeSurface(surface string) string {
	trimmed := trimTrailingSpace(surface)
	return allowlist.Normalize(trimmed)
}

func trimTrailingSpace(s string) string {
	end := len(s)
	for end > 0 && isSpace(s[end-1]) {
		end--
	}
	return s[:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// Mask renders the MASK-mode token: identical for every surface of a
// given entity type.
func Mask(entityType string) string {
	return fmt.Sprintf("[%s]", tokenPrefix(entityType))
}

// Replace renders the REPLACE-mode token for the given 0-based ordinal
// within (session, entity_type).
func Replace(entityType string, ordinal int) string {
	return fmt.Sprintf("[%s_%s]", tokenPrefix(entityType), encodeOrdinal(ordinal))
}

// Hash renders the HASH-mode token: a 16-hex-char prefix of
// SHA-256(normalized_surface). Not reversible by design.
func Hash(normalizedSurface string) string {
	sum := sha256.Sum256([]byte(normalizedSurface))
	return hex.EncodeToString(sum[:])[:16]
}

// Mint produces the replacement text for a span under policy's mode.
// ordinal is only consulted for REPLACE; sessionID and surface are only
// consulted for SYNTHETIC, which seeds its surrogate generator from
// them per spec §4.D.
func Mint(mode aegistype.RedactionMode, sessionID, entityType, surface, normalizedSurface string, ordinal int) string {
	switch mode {
	case aegistype.ModeMask:
		return Mask(entityType)
	case aegistype.ModeReplace:
		return Replace(entityType, ordinal)
	case aegistype.ModeSynthetic:
		return Synthesize(sessionID, entityType, normalizedSurface, surface)
	case aegistype.ModeHash:
		return Hash(normalizedSurface)
	default:
		return Mask(entityType)
	}
}
