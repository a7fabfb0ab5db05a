// Package engine is the top-level wiring point: it constructs every
// component (Recognizer Registry, Vault, Sanitize/Reveal pipelines) from
// a Config and exposes the library surface spec §6 defines, independent
// of any transport.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CoReason-AI/coreason-aegis/internal/aegiserr"
	"github.com/CoReason-AI/coreason-aegis/internal/aegistype"
	"github.com/CoReason-AI/coreason-aegis/internal/config"
	"github.com/CoReason-AI/coreason-aegis/internal/recognizer"
	"github.com/CoReason-AI/coreason-aegis/internal/reveal"
	"github.com/CoReason-AI/coreason-aegis/internal/sanitize"
	"github.com/CoReason-AI/coreason-aegis/internal/vault"
)

const sweepInterval = 60 * time.Second

// Engine holds every initialized dependency, following the same
// centralized-wiring pattern the control-plane's Dependencies struct
// uses: one phased constructor, one Close.
type Engine struct {
	Config *config.Config
	Logger *zap.Logger

	Registry *recognizer.Registry
	Vault    *vault.Vault

	sanitizer *sanitize.Pipeline
	revealer  *reveal.Pipeline

	stopSweeper func()
}

// New wires every component from cfg. EntityAnalyzer is an optional
// model-backed recognizer (spec §9's capability seam); pass nil to run
// with only the built-in and custom rule-based recognizers.
func New(cfg *config.Config, logger *zap.Logger, entityAnalyzer recognizer.Recognizer) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	recognizers := append(recognizer.BuiltinRecognizers(), recognizer.CustomRecognizers()...)
	if entityAnalyzer != nil {
		recognizers = append(recognizers, entityAnalyzer)
	}
	registry := recognizer.NewRegistry(recognizers...)

	v, err := vault.New(cfg.Vault.RootKey, cfg.Vault.MaxSessions, time.Duration(cfg.Vault.TTLSeconds)*time.Second, logger)
	if err != nil {
		return nil, fmt.Errorf("vault init: %w", err)
	}
	stop := v.StartSweeper(sweepInterval)

	e := &Engine{
		Config:      cfg,
		Logger:      logger,
		Registry:    registry,
		Vault:       v,
		sanitizer:   sanitize.New(registry, v, logger, cfg.Engine.SanitizeTimeout),
		revealer:    reveal.New(v, logger),
		stopSweeper: stop,
	}

	logger.Info("engine initialized",
		zap.Strings("recognizers", registry.Names()),
		zap.String("model_name", cfg.Engine.ModelName))

	return e, nil
}

// Sanitize exposes spec §6's sanitize operation.
func (e *Engine) Sanitize(ctx context.Context, text, sessionID string, policy *aegistype.AegisPolicy) (string, *aegistype.MappingHandle, error) {
	return e.sanitizer.Sanitize(ctx, text, sessionID, policy)
}

// Desanitize exposes spec §6's desanitize operation.
func (e *Engine) Desanitize(ctx context.Context, text, sessionID string, authorized bool) (string, error) {
	return e.revealer.Reveal(ctx, text, sessionID, authorized)
}

// Purge exposes spec §6's purge operation.
func (e *Engine) Purge(sessionID string) bool {
	return e.sanitizer.Purge(sessionID)
}

// HealthStatus is the shape spec §6's health operation returns.
type HealthStatus struct {
	Status string `json:"status"`
	Engine string `json:"engine"`
	Model  string `json:"model"`
}

// Health reports the set of registered recognizers and the configured
// model name. Status is "degraded" when no recognizer at all is
// registered, which should be structurally impossible given New always
// installs the built-ins, but is checked anyway since health is a
// boundary-facing signal.
func (e *Engine) Health(_ context.Context) HealthStatus {
	status := "ok"
	if len(e.Registry.Names()) == 0 {
		status = "degraded"
	}
	return HealthStatus{
		Status: status,
		Engine: "coreason-aegis",
		Model:  e.Config.Engine.ModelName,
	}
}

// handleClaims is the JWT payload signed over a MappingHandle so network
// callers can hold a tamper-evident reference without the Vault trusting
// client-supplied session metadata outright. This is signature
// verification for integrity, not an authentication mechanism — user
// authentication is explicitly out of scope (spec §1).
type handleClaims struct {
	jwt.RegisteredClaims
	ExpiresAtUnix int64 `json:"exp_at"`
}

// SignHandle produces a tamper-evident token for a MappingHandle.
func (e *Engine) SignHandle(handle *aegistype.MappingHandle) (string, error) {
	claims := handleClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   handle.SessionID,
			IssuedAt:  jwt.NewNumericDate(handle.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(handle.ExpiresAt),
		},
		ExpiresAtUnix: handle.ExpiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(e.Config.Vault.RootKey)
	if err != nil {
		return "", aegiserr.Wrap(aegiserr.KindInternalInvariantViolation, "handle signing failed", err)
	}
	return signed, nil
}

// VerifyHandle validates a token produced by SignHandle and reconstructs
// the MappingHandle it attests to.
func (e *Engine) VerifyHandle(signed string) (*aegistype.MappingHandle, error) {
	var claims handleClaims
	parsed, err := jwt.ParseWithClaims(signed, &claims, func(*jwt.Token) (interface{}, error) {
		return e.Config.Vault.RootKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, aegiserr.New(aegiserr.KindPolicyInvalid, "invalid mapping handle")
	}
	return &aegistype.MappingHandle{
		SessionID: claims.Subject,
		CreatedAt: claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Close stops background work. It does not clear the Vault: callers
// that want sessions purged on shutdown should call Purge explicitly.
func (e *Engine) Close(_ context.Context) error {
	if e.stopSweeper != nil {
		e.stopSweeper()
	}
	e.Logger.Info("engine shut down")
	_ = e.Logger.Sync()
	return nil
}
