package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/CoReason-AI/coreason-aegis/internal/config"
)

func newTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Vault: config.VaultConfig{
			TTLSeconds:  300,
			MaxSessions: 100,
			RootKey:     []byte("test-root-key-not-for-production"),
		},
		Engine: config.EngineConfig{
			ModelName:       "rule-based-v1",
			Language:        "en",
			SanitizeTimeout: 10 * time.Second,
		},
		LogLevel: "info",
	}
}

func TestEngine_New_InitializesRecognizers(t *testing.T) {
	e, err := New(newTestConfig(), zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	defer e.Close(context.Background())

	assert.NotEmpty(t, e.Registry.Names())
}

func TestEngine_SanitizeThenDesanitizeRoundTrips(t *testing.T) {
	e, err := New(newTestConfig(), zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	defer e.Close(context.Background())

	text, _, err := e.Sanitize(context.Background(), "Patient John Doe.", "s1", nil)
	require.NoError(t, err)
	assert.Contains(t, text, "[PATIENT_A]")

	revealed, err := e.Desanitize(context.Background(), text, "s1", true)
	require.NoError(t, err)
	assert.Equal(t, "Patient John Doe.", revealed)
}

func TestEngine_Health_ReportsOK(t *testing.T) {
	e, err := New(newTestConfig(), zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	defer e.Close(context.Background())

	status := e.Health(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "rule-based-v1", status.Model)
}

func TestEngine_SignAndVerifyHandle_RoundTrips(t *testing.T) {
	e, err := New(newTestConfig(), zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	defer e.Close(context.Background())

	handle, err := e.Vault.BeginOrTouch("s1")
	require.NoError(t, err)

	signed, err := e.SignHandle(handle)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	verified, err := e.VerifyHandle(signed)
	require.NoError(t, err)
	assert.Equal(t, handle.SessionID, verified.SessionID)
}

func TestEngine_VerifyHandle_RejectsTamperedToken(t *testing.T) {
	e, err := New(newTestConfig(), zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	defer e.Close(context.Background())

	handle, err := e.Vault.BeginOrTouch("s1")
	require.NoError(t, err)

	signed, err := e.SignHandle(handle)
	require.NoError(t, err)

	tampered := signed[:len(signed)-1] + "x"
	_, err = e.VerifyHandle(tampered)
	require.Error(t, err)
}

func TestEngine_Purge_RemovesSession(t *testing.T) {
	e, err := New(newTestConfig(), zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	defer e.Close(context.Background())

	_, _, err = e.Sanitize(context.Background(), "Patient John Doe.", "s1", nil)
	require.NoError(t, err)

	assert.True(t, e.Purge("s1"))
	assert.False(t, e.Purge("s1"))
}
