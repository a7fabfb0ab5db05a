// Package reveal implements the Reveal Pipeline (spec §4.G): it scans
// model output for tokens, gates revelation on caller authorization, and
// substitutes Vault-held surface values back in for authorized callers.
package reveal

import (
	"context"
	"regexp"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/CoReason-AI/coreason-aegis/internal/aegiserr"
	"github.com/CoReason-AI/coreason-aegis/internal/vault"
)

// tokenPattern matches the exact bracketed token grammar the Tokenizer
// produces for MASK and REPLACE modes: a type prefix optionally followed
// by an underscore-separated ordinal or sub-label.
var tokenPattern = regexp.MustCompile(`\[[A-Z][A-Z0-9_]*(?:_[A-Z]+)?\]`)

// Pipeline scans text for tokens and resolves them against the Vault.
type Pipeline struct {
	vault  *vault.Vault
	logger *zap.Logger

	// missCount observes how often an authorized reveal found no
	// mapping (expired or unknown token), per spec §4.G's silent
	// non-reveal design choice.
	missCount atomic.Uint64
}

// New builds a reveal Pipeline.
func New(v *vault.Vault, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{vault: v, logger: logger}
}

// MissCount returns the number of authorized lookups that found no
// Vault mapping since process start, for observability.
func (p *Pipeline) MissCount() uint64 {
	return p.missCount.Load()
}

// Reveal substitutes every token in text with its Vault-held surface
// value, if authorized is true and the token is still mapped. Unlike
// Sanitize, Reveal never fails closed on a Vault miss: spec §7 requires
// desanitize failures to leave tokens in place and return the text
// unchanged, never a partial or uncertain reveal.
func (p *Pipeline) Reveal(ctx context.Context, text, sessionID string, authorized bool) (string, error) {
	if !authorized {
		return text, nil
	}

	var sb strings.Builder
	cursor := 0
	for _, loc := range tokenPattern.FindAllStringIndex(text, -1) {
		if err := ctx.Err(); err != nil {
			return text, aegiserr.Wrap(aegiserr.KindTimeout, "reveal cancelled", err)
		}

		start, end := loc[0], loc[1]
		token := text[start:end]

		sb.WriteString(text[cursor:start])

		surface, found, err := p.vault.LookupForward(sessionID, token)
		switch {
		case err != nil:
			// A Vault crypto failure here is the only case that should
			// propagate: anything else (miss, expiry) falls through to
			// "leave the token in place".
			if aegiserr.Is(err, aegiserr.KindVaultCryptoFailure) {
				return text, err
			}
			sb.WriteString(token)
		case found:
			sb.WriteString(surface)
		default:
			p.missCount.Add(1)
			sb.WriteString(token)
		}

		cursor = end
	}
	sb.WriteString(text[cursor:])

	return sb.String(), nil
}
