package allowlist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CoReason-AI/coreason-aegis/internal/aegistype"
)

func TestNormalize_CaseFolds(t *testing.T) {
	assert.Equal(t, Normalize("Tylenol"), Normalize("TYLENOL"))
	assert.Equal(t, Normalize("Tylenol"), Normalize("tylenol"))
}

func TestFilter_Apply_DropsAllowListedSpan(t *testing.T) {
	text := "Give Tylenol to John Doe."
	spans := []aegistype.Span{
		{Start: 5, End: 12, EntityType: "DRUG"},
		{Start: 16, End: 24, EntityType: "PERSON"},
	}
	f := New([]string{"Tylenol"})

	kept := f.Apply(text, spans)
	assert.Len(t, kept, 1)
	assert.Equal(t, "PERSON", kept[0].EntityType)
}

func TestFilter_Apply_IsCaseInsensitive(t *testing.T) {
	text := "give TYLENOL now"
	spans := []aegistype.Span{{Start: 5, End: 12, EntityType: "DRUG"}}
	f := New([]string{"tylenol"})

	assert.Empty(t, f.Apply(text, spans))
}

func TestFilter_Apply_EmptyAllowListReturnsSpansUnchanged(t *testing.T) {
	text := "John Doe"
	spans := []aegistype.Span{{Start: 0, End: 8, EntityType: "PERSON"}}
	f := New(nil)

	assert.Equal(t, spans, f.Apply(text, spans))
}

func TestFilter_Apply_NoMatchKeepsSpan(t *testing.T) {
	text := "John Doe"
	spans := []aegistype.Span{{Start: 0, End: 8, EntityType: "PERSON"}}
	f := New([]string{"Tylenol"})

	assert.Equal(t, spans, f.Apply(text, spans))
}
