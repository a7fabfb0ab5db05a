// Package recognizer implements the Recognizer Registry (spec §4.A): an
// ordered collection of entity recognizers, each declaring the entity
// types it can emit and a detect operation. The registry is built once
// at process start and shared, read-only, across all sessions.
package recognizer

import "github.com/CoReason-AI/coreason-aegis/internal/aegistype"

// Recognizer is the capability the registry composes over. A caller may
// supply a model-backed implementation without the core depending on any
// particular NER library.
type Recognizer interface {
	// Name identifies the recognizer for health reporting and for the
	// Span.RecognizerID field.
	Name() string
	// EntityTypes lists the entity labels this recognizer can emit.
	EntityTypes() []string
	// DetectSpans scans text for this recognizer's entity types.
	DetectSpans(text, language string) []aegistype.Span
}

// Registry holds an ordered collection of recognizers and exposes the
// union of their detections, filtered by a policy's entity type set.
type Registry struct {
	recognizers []Recognizer
}

// NewRegistry builds a registry from a fixed slice of recognizers. It is
// intended to be constructed once at startup and never mutated after.
func NewRegistry(recognizers ...Recognizer) *Registry {
	r := &Registry{recognizers: make([]Recognizer, len(recognizers))}
	copy(r.recognizers, recognizers)
	return r
}

// Names returns the registered recognizers' names, for health reporting.
func (r *Registry) Names() []string {
	names := make([]string, len(r.recognizers))
	for i, rec := range r.recognizers {
		names[i] = rec.Name()
	}
	return names
}

// KnownEntityTypes returns the union of entity types every registered
// recognizer can emit, for the Policy Validator's unknown-type check.
func (r *Registry) KnownEntityTypes() map[string]struct{} {
	known := make(map[string]struct{})
	for _, rec := range r.recognizers {
		for _, et := range rec.EntityTypes() {
			known[et] = struct{}{}
		}
	}
	return known
}

// Analyze invokes every recognizer enabled by entityTypes (empty means
// "all known") and returns the union of their spans. No deduplication or
// overlap resolution happens here; that is the Span Resolver's job.
func (r *Registry) Analyze(text, language string, entityTypes []string) []aegistype.Span {
	enabled := toSet(entityTypes)
	var spans []aegistype.Span
	for _, rec := range r.recognizers {
		if !recognizerEnabled(rec, enabled) {
			continue
		}
		spans = append(spans, rec.DetectSpans(text, language)...)
	}
	return spans
}

func recognizerEnabled(rec Recognizer, enabled map[string]struct{}) bool {
	if len(enabled) == 0 {
		return true
	}
	for _, et := range rec.EntityTypes() {
		if _, ok := enabled[et]; ok {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
