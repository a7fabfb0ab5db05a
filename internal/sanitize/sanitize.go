// Package sanitize implements the Sanitize Pipeline (spec §4.F): it
// orchestrates the Recognizer Registry, Allow-List Filter, Span
// Resolver, Tokenizer, and Vault into the single outbound operation
// that turns raw text into sanitized text plus a mapping handle.
package sanitize

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/CoReason-AI/coreason-aegis/internal/aegiserr"
	"github.com/CoReason-AI/coreason-aegis/internal/aegistype"
	"github.com/CoReason-AI/coreason-aegis/internal/allowlist"
	"github.com/CoReason-AI/coreason-aegis/internal/policyvalidate"
	"github.com/CoReason-AI/coreason-aegis/internal/recognizer"
	"github.com/CoReason-AI/coreason-aegis/internal/resolver"
	"github.com/CoReason-AI/coreason-aegis/internal/tokenizer"
	"github.com/CoReason-AI/coreason-aegis/internal/vault"
)

// secretKeyEntityType is checked explicitly so the pipeline can emit a
// credential-exposure warning independent of the aliasing table in the
// tokenizer package.
const secretKeyEntityType = "SECRET_KEY"

// Pipeline wires the components a sanitize call touches. It holds no
// per-request state; every field is safe for concurrent use across
// sessions.
type Pipeline struct {
	registry *recognizer.Registry
	vault    *vault.Vault
	logger   *zap.Logger
	timeout  time.Duration
}

// New builds a Pipeline. timeout is the wall-clock budget spec §5
// mandates per sanitize call.
func New(registry *recognizer.Registry, v *vault.Vault, logger *zap.Logger, timeout time.Duration) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{registry: registry, vault: v, logger: logger, timeout: timeout}
}

// Sanitize runs the pipeline under the configured wall-clock budget. Any
// error is a Failure Gate event: the returned text is always empty on
// error, never the original or a partially sanitized text.
func (p *Pipeline) Sanitize(ctx context.Context, text, sessionID string, policy *aegistype.AegisPolicy) (string, *aegistype.MappingHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type outcome struct {
		text   string
		handle *aegistype.MappingHandle
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		t, h, err := p.run(ctx, text, sessionID, policy)
		done <- outcome{t, h, err}
	}()

	select {
	case o := <-done:
		return o.text, o.handle, o.err
	case <-ctx.Done():
		return "", nil, aegiserr.New(aegiserr.KindTimeout, "sanitize exceeded wall-clock budget")
	}
}

func (p *Pipeline) run(ctx context.Context, text, sessionID string, policy *aegistype.AegisPolicy) (string, *aegistype.MappingHandle, error) {
	var requested aegistype.AegisPolicy
	if policy != nil {
		requested = *policy
	} else {
		requested = aegistype.DefaultPolicy()
	}

	merged, err := policyvalidate.Validate(requested, p.registry.KnownEntityTypes())
	if err != nil {
		return "", nil, err
	}

	// Boundary case: empty input performs no Vault write at all.
	if text == "" {
		return "", &aegistype.MappingHandle{SessionID: sessionID}, nil
	}

	// Snapshot touches the session (creating it and sliding its TTL
	// forward if needed) and hands back copies of its current
	// reverse-lookup and ordinal state. Everything below resolves tokens
	// against these copies in memory; nothing is written to the Vault
	// until the single CommitMapping call at the end, so a sanitize call
	// cancelled or failed before that point leaves the Vault untouched
	// (spec §5).
	handle, reverse, ordinals, err := p.vault.Snapshot(sessionID)
	if err != nil {
		return "", nil, err
	}

	spans, err := p.analyze(text, merged)
	if err != nil {
		return "", nil, err
	}

	filter := allowlist.New(merged.AllowList)
	spans = filter.Apply(text, spans)

	resolved, err := resolver.Resolve(spans, merged.ConfidenceScore)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	cursor := 0
	var pending []vault.MappingEntry
	mintedOrdinals := make(map[string]int)
	for _, span := range resolved {
		if span.EntityType == secretKeyEntityType {
			p.logger.Warn("credential-shaped span reached tokenization",
				zap.String("session_id", sessionID),
				zap.String("entity_type", span.EntityType))
		}

		b.WriteString(text[cursor:span.Start])

		token, entry, err := p.resolveToken(sessionID, merged.Mode, span, text, reverse, ordinals, mintedOrdinals)
		if err != nil {
			return "", nil, err
		}
		if entry != nil {
			pending = append(pending, *entry)
		}
		b.WriteString(token)

		cursor = span.End
	}
	b.WriteString(text[cursor:])

	if err := ctx.Err(); err != nil {
		return "", nil, aegiserr.New(aegiserr.KindTimeout, "sanitize cancelled before commit")
	}

	if err := p.vault.CommitMapping(sessionID, pending, mintedOrdinals); err != nil {
		return "", nil, err
	}

	return b.String(), handle, nil
}

// analyze invokes the Recognizer Registry, converting a recognizer
// panic into a RecognizerFailure instead of letting it escape the
// pipeline's goroutine, so an unexpected NER crash trips the Failure
// Gate like any other recognizer error rather than taking the process
// down.
func (p *Pipeline) analyze(text string, policy aegistype.AegisPolicy) (spans []aegistype.Span, err error) {
	defer func() {
		if r := recover(); r != nil {
			spans = nil
			err = aegiserr.New(aegiserr.KindRecognizerFailure, "recognizer panicked")
		}
	}()
	spans = p.registry.Analyze(text, policy.Language, policy.EntityTypes)
	return spans, nil
}

// resolveToken resolves the replacement text for one span, reusing an
// existing token when this exact (entity_type, normalized_surface) has
// already been seen in the session, and minting a new one otherwise. It
// only mutates the in-memory reverse/mintedOrdinals maps threaded through
// the whole span set for this call; nothing reaches the Vault until
// run's single CommitMapping call. The returned *vault.MappingEntry is
// nil when the mode needs no Vault entry at all (HASH, MASK).
func (p *Pipeline) resolveToken(
	sessionID string,
	mode aegistype.RedactionMode,
	span aegistype.Span,
	text string,
	reverse map[string]string,
	ordinals map[string]int,
	mintedOrdinals map[string]int,
) (string, *vault.MappingEntry, error) {
	surface := text[span.Start:span.End]
	normalized := tokenizer.NormalizeSurface(surface)

	switch mode {
	case aegistype.ModeHash:
		// Irreversible by design: no Vault write, no reuse lookup needed
		// since the digest is a pure function of the normalized surface.
		return tokenizer.Hash(normalized), nil, nil

	case aegistype.ModeMask:
		// A MASK token is shared by every surface of its entity type, so
		// recording a forward (token -> surface) mapping would collide
		// across distinct surfaces and trip the bijection invariant.
		// Nothing about MASK's output depends on session state, so no
		// Vault write is needed at all.
		return tokenizer.Mask(span.EntityType), nil, nil

	case aegistype.ModeSynthetic:
		// The surrogate is a deterministic function of session, entity
		// type, and surface, so it never needs to be looked up for reuse.
		// It is also never reveal-able (reveal.go's token pattern can't
		// match unbracketed surrogate text), so the entry is recorded
		// non-reversible: no forward mapping, matching the contract
		// Record documents for SYNTHETIC and HASH tokens.
		token := tokenizer.Synthesize(sessionID, span.EntityType, normalized, surface)
		entry := vault.MappingEntry{
			EntityType:        span.EntityType,
			Surface:           surface,
			NormalizedSurface: normalized,
			Token:             token,
			Reversible:        false,
		}
		return token, &entry, nil

	case aegistype.ModeReplace:
		key := vault.ReverseKey(span.EntityType, normalized)
		if existing, found := reverse[key]; found {
			return existing, nil, nil
		}

		ordinal := ordinals[span.EntityType]
		ordinals[span.EntityType] = ordinal + 1
		mintedOrdinals[span.EntityType] = ordinals[span.EntityType]

		token := tokenizer.Replace(span.EntityType, ordinal)
		reverse[key] = token

		entry := vault.MappingEntry{
			EntityType:        span.EntityType,
			Surface:           surface,
			NormalizedSurface: normalized,
			Token:             token,
			Reversible:        true,
		}
		return token, &entry, nil

	default:
		return "", nil, aegiserr.New(aegiserr.KindPolicyInvalid, "unknown redaction mode: "+string(mode))
	}
}

// Purge removes a session's Vault mapping immediately, independent of
// TTL, exposing spec §6's library-surface purge operation.
func (p *Pipeline) Purge(sessionID string) bool {
	return p.vault.Purge(sessionID)
}
