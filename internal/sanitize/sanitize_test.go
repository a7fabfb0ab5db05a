package sanitize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/CoReason-AI/coreason-aegis/internal/aegiserr"
	"github.com/CoReason-AI/coreason-aegis/internal/aegistype"
	"github.com/CoReason-AI/coreason-aegis/internal/recognizer"
	"github.com/CoReason-AI/coreason-aegis/internal/vault"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	reg := recognizer.NewRegistry(append(recognizer.BuiltinRecognizers(), recognizer.CustomRecognizers()...)...)
	v, err := vault.New([]byte("test-root-key-not-for-production"), 100, 5*time.Minute, zaptest.NewLogger(t))
	require.NoError(t, err)
	return New(reg, v, zaptest.NewLogger(t), 10*time.Second)
}

func TestSanitize_BasicReplace(t *testing.T) {
	p := newTestPipeline(t)

	text, handle, err := p.Sanitize(context.Background(), "Patient John Doe has a rash.", "s1", nil)
	require.NoError(t, err)
	assert.Contains(t, text, "[PATIENT_A]")
	assert.NotContains(t, text, "John Doe")
	assert.Equal(t, "s1", handle.SessionID)
}

func TestSanitize_ConsistencyAcrossCalls(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	first, _, err := p.Sanitize(ctx, "John Doe was seen today.", "s1", nil)
	require.NoError(t, err)
	assert.Contains(t, first, "[PATIENT_A]")

	second, _, err := p.Sanitize(ctx, "John Doe returned.", "s1", nil)
	require.NoError(t, err)
	assert.Equal(t, "[PATIENT_A] returned.", second)
}

func TestSanitize_SecondDistinctPersonGetsNextOrdinal(t *testing.T) {
	p := newTestPipeline(t)
	ctx := context.Background()

	_, _, err := p.Sanitize(ctx, "John Doe was seen today.", "s1", nil)
	require.NoError(t, err)

	text, _, err := p.Sanitize(ctx, "Jane Smith met John Doe.", "s1", nil)
	require.NoError(t, err)
	assert.Contains(t, text, "[PATIENT_B]")
	assert.Contains(t, text, "[PATIENT_A]")
}

func TestSanitize_AllowListPreservesTerm(t *testing.T) {
	p := newTestPipeline(t)

	policy := aegistype.DefaultPolicy()
	policy.AllowList = []string{"Tylenol"}

	text, _, err := p.Sanitize(context.Background(), "Give Tylenol to John Doe.", "s1", &policy)
	require.NoError(t, err)
	assert.Contains(t, text, "Tylenol")
	assert.NotContains(t, text, "John Doe")
}

func TestSanitize_SecretKeyTokenizedAndNeverRevealedWithoutAuthorization(t *testing.T) {
	p := newTestPipeline(t)

	text, _, err := p.Sanitize(context.Background(), "Here is the API Key: sk-1234567890abcdefghij", "s1", nil)
	require.NoError(t, err)
	assert.Contains(t, text, "[SECRET_KEY_A]")
	assert.NotContains(t, text, "sk-1234567890abcdefghij")
}

func TestSanitize_SecretKeyExposureLogsWarningWithoutPayload(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	reg := recognizer.NewRegistry(append(recognizer.BuiltinRecognizers(), recognizer.CustomRecognizers()...)...)
	v, err := vault.New([]byte("test-root-key-not-for-production"), 100, 5*time.Minute, zap.New(core))
	require.NoError(t, err)
	p := New(reg, v, zap.New(core), 10*time.Second)

	_, _, err = p.Sanitize(context.Background(), "Key: sk-1234567890abcdefghij", "s1", nil)
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "credential-shaped span reached tokenization", entries[0].Message)
	for _, field := range entries[0].Context {
		assert.NotContains(t, field.String, "sk-1234567890abcdefghij")
	}
}

func TestSanitize_EmptyInputIsIdentityWithNoVaultWrite(t *testing.T) {
	p := newTestPipeline(t)

	text, handle, err := p.Sanitize(context.Background(), "", "s1", nil)
	require.NoError(t, err)
	assert.Equal(t, "", text)
	assert.Equal(t, "s1", handle.SessionID)
}

func TestSanitize_FailClosed_RejectsInvalidPolicy(t *testing.T) {
	p := newTestPipeline(t)

	policy := aegistype.AegisPolicy{Mode: "NOT_A_MODE"}
	text, handle, err := p.Sanitize(context.Background(), "John Doe", "s9", &policy)
	require.Error(t, err)
	assert.Empty(t, text)
	assert.Nil(t, handle)
	assert.True(t, aegiserr.Is(err, aegiserr.KindPolicyInvalid))
}

func TestSanitize_DistinctEntityTypesGetIndependentPrefixes(t *testing.T) {
	p := newTestPipeline(t)

	text, _, err := p.Sanitize(context.Background(), "Contact jane@example.com about the visit.", "s1", nil)
	require.NoError(t, err)
	assert.Contains(t, text, "[EMAIL_A]")
}

func TestSanitize_SyntheticModeHandlesMultipleSameTypeEntitiesInOneCall(t *testing.T) {
	p := newTestPipeline(t)

	policy := aegistype.DefaultPolicy()
	policy.Mode = aegistype.ModeSynthetic

	text, _, err := p.Sanitize(context.Background(),
		"John Doe met Jane Smith, Robert Brown, and Susan Clark today.", "s1", &policy)
	require.NoError(t, err)
	assert.NotContains(t, text, "John Doe")
	assert.NotContains(t, text, "Jane Smith")
	assert.NotContains(t, text, "Robert Brown")
	assert.NotContains(t, text, "Susan Clark")
}

func TestSanitize_NoResidualPII(t *testing.T) {
	p := newTestPipeline(t)

	text, _, err := p.Sanitize(context.Background(), "Patient John Doe, email jane@example.com.", "s1", nil)
	require.NoError(t, err)
	assert.NotContains(t, text, "John Doe")
	assert.NotContains(t, text, "jane@example.com")
}

type panicRecognizer struct{}

func (panicRecognizer) Name() string           { return "panic-recognizer" }
func (panicRecognizer) EntityTypes() []string   { return []string{"PERSON"} }
func (panicRecognizer) DetectSpans(_, _ string) []aegistype.Span {
	panic("boom")
}

func TestSanitize_RecognizerPanicFailsClosed(t *testing.T) {
	reg := recognizer.NewRegistry(panicRecognizer{})
	v, err := vault.New([]byte("test-root-key-not-for-production"), 100, 5*time.Minute, zaptest.NewLogger(t))
	require.NoError(t, err)
	p := New(reg, v, zaptest.NewLogger(t), 10*time.Second)

	text, handle, err := p.Sanitize(context.Background(), "John Doe", "s9", nil)
	require.Error(t, err)
	assert.Empty(t, text)
	assert.Nil(t, handle)
	assert.True(t, aegiserr.Is(err, aegiserr.KindRecognizerFailure))
}

func TestSanitize_TimeoutTripsFailureGate(t *testing.T) {
	reg := recognizer.NewRegistry(recognizer.BuiltinRecognizers()...)
	v, err := vault.New([]byte("test-root-key-not-for-production"), 100, 5*time.Minute, zaptest.NewLogger(t))
	require.NoError(t, err)
	p := New(reg, v, zaptest.NewLogger(t), 1*time.Nanosecond)

	_, _, err = p.Sanitize(context.Background(), "John Doe", "s1", nil)
	require.Error(t, err)
	assert.True(t, aegiserr.Is(err, aegiserr.KindTimeout))
}
