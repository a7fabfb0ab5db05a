package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSynthesize_DeterministicWithinSessionAndSurface(t *testing.T) {
	a := Synthesize("session-1", "PERSON", "john doe", "John Doe")
	b := Synthesize("session-1", "PERSON", "john doe", "John Doe")
	assert.Equal(t, a, b)
}

func TestSynthesize_DiffersAcrossSessions(t *testing.T) {
	a := Synthesize("session-1", "PERSON", "john doe", "John Doe")
	b := Synthesize("session-2", "PERSON", "john doe", "John Doe")
	assert.NotEqual(t, a, b)
}

func TestSynthesize_DiffersAcrossDistinctSurfacesSameSession(t *testing.T) {
	a := Synthesize("session-1", "PERSON", "john doe", "John Doe")
	b := Synthesize("session-1", "PERSON", "jane doe", "Jane Doe")
	assert.NotEqual(t, a, b)
}

func TestSynthesize_EmailHasAtSign(t *testing.T) {
	v := Synthesize("session-1", "EMAIL_ADDRESS", "john@example.com", "john@example.com")
	assert.Contains(t, v, "@")
}

func TestSynthesize_GeneSequenceMatchesSurfaceLength(t *testing.T) {
	surface := "ATCGATCGATCGATCG"
	v := Synthesize("session-1", "GENE_SEQUENCE", surface, surface)
	assert.Len(t, v, len(surface))
	for _, b := range v {
		assert.Contains(t, geneBases, string(b))
	}
}

func TestSynthesize_GeneSequenceHasMinimumLengthForShortSurface(t *testing.T) {
	v := Synthesize("session-1", "GENE_SEQUENCE", "atcg", "ATCG")
	assert.GreaterOrEqual(t, len(v), 10)
}

func TestSynthesize_ChemicalCASMatchesRegistryShape(t *testing.T) {
	v := Synthesize("session-1", "CHEMICAL_CAS", "50-00-0", "50-00-0")
	assert.Regexp(t, `^\d{1,5}-\d{2}-\d$`, v)
}

func TestSynthesize_SecretKeyHasSKPrefix(t *testing.T) {
	v := Synthesize("session-1", "SECRET_KEY", "sk-abc", "sk-abc")
	assert.Regexp(t, `^sk-[A-Za-z0-9]{24}$`, v)
}

func TestSynthesize_UnknownEntityTypeFallsBackToWordPool(t *testing.T) {
	v := Synthesize("session-1", "SOME_UNKNOWN_TYPE", "x", "x")
	assert.NotEmpty(t, v)
}
