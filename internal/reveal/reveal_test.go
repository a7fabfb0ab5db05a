package reveal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/CoReason-AI/coreason-aegis/internal/vault"
)

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.New([]byte("test-root-key-not-for-production"), 10, 5*time.Minute, zaptest.NewLogger(t))
	require.NoError(t, err)
	return v
}

func TestReveal_AuthorizedRoundTrip(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.Record("s1", "PERSON", "John Doe", "john doe", "[PATIENT_A]", true))

	p := New(v, zaptest.NewLogger(t))
	text, err := p.Reveal(context.Background(), "Patient [PATIENT_A] has a rash.", "s1", true)
	require.NoError(t, err)
	assert.Equal(t, "Patient John Doe has a rash.", text)
}

func TestReveal_UnauthorizedLeavesTokensInPlace(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.Record("s1", "PERSON", "John Doe", "john doe", "[PATIENT_A]", true))

	p := New(v, zaptest.NewLogger(t))
	text, err := p.Reveal(context.Background(), "Patient [PATIENT_A] has a rash.", "s1", false)
	require.NoError(t, err)
	assert.Equal(t, "Patient [PATIENT_A] has a rash.", text)
	assert.NotContains(t, text, "John Doe")
}

func TestReveal_UnauthorizedContainsNoSurfaceValue(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.Record("s1", "SECRET_KEY", "sk-1234567890abcdefghij", "sk-1234567890abcdefghij", "[SECRET_KEY_A]", true))

	p := New(v, zaptest.NewLogger(t))
	text, err := p.Reveal(context.Background(), "Key: [SECRET_KEY_A]", "s1", false)
	require.NoError(t, err)
	assert.NotContains(t, text, "sk-1234567890abcdefghij")
}

func TestReveal_MissingMappingLeavesTokenInPlace(t *testing.T) {
	v := newTestVault(t)
	_, err := v.BeginOrTouch("s9")
	require.NoError(t, err)

	p := New(v, zaptest.NewLogger(t))
	text, err := p.Reveal(context.Background(), "[PATIENT_A]", "s9", true)
	require.NoError(t, err)
	assert.Equal(t, "[PATIENT_A]", text)
	assert.Equal(t, uint64(1), p.MissCount())
}

func TestReveal_UnknownSessionLeavesTokenInPlace(t *testing.T) {
	v := newTestVault(t)

	p := New(v, zaptest.NewLogger(t))
	text, err := p.Reveal(context.Background(), "[PATIENT_A]", "never-created", true)
	require.NoError(t, err)
	assert.Equal(t, "[PATIENT_A]", text)
}

func TestReveal_MultipleTokensInOneText(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, v.Record("s1", "PERSON", "John Doe", "john doe", "[PATIENT_A]", true))
	require.NoError(t, v.Record("s1", "DATE_TIME", "12/01/1980", "12/01/1980", "[DATE_B]", true))

	p := New(v, zaptest.NewLogger(t))
	text, err := p.Reveal(context.Background(), "Patient [PATIENT_A] (DOB: [DATE_B]) has a rash.", "s1", true)
	require.NoError(t, err)
	assert.Equal(t, "Patient John Doe (DOB: 12/01/1980) has a rash.", text)
}

func TestReveal_NoTokensIsIdentity(t *testing.T) {
	v := newTestVault(t)
	p := New(v, zaptest.NewLogger(t))

	text, err := p.Reveal(context.Background(), "nothing to see here", "s1", true)
	require.NoError(t, err)
	assert.Equal(t, "nothing to see here", text)
}
