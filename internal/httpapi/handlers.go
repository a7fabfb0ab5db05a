package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/CoReason-AI/coreason-aegis/internal/aegiserr"
	"github.com/CoReason-AI/coreason-aegis/internal/aegistype"
	"github.com/CoReason-AI/coreason-aegis/internal/engine"
	"github.com/CoReason-AI/coreason-aegis/internal/telemetry"
)

// sanitizeRequest is the request body for POST /sanitize.
type sanitizeRequest struct {
	Text      string                 `json:"text"`
	SessionID string                 `json:"session_id"`
	Policy    *aegistype.AegisPolicy `json:"policy,omitempty"`
}

// mapView is the in-process mapping shape spec §6 says network callers
// do NOT receive; it is only ever populated for in-process callers of
// the engine directly (see engine.Sanitize), never serialized here.
type mapView struct {
	SessionID string `json:"session_id"`
	CreatedAt string `json:"created_at"`
	ExpiresAt string `json:"expires_at"`
}

type sanitizeResponse struct {
	Text string  `json:"text"`
	Map  mapView `json:"map"`
}

func sanitizeHandler(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := telemetry.FromContext(r.Context(), e.Logger)

		var req sanitizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
		if req.SessionID == "" {
			writeBadRequest(w, "session_id is required")
			return
		}

		text, handle, err := e.Sanitize(r.Context(), req.Text, req.SessionID, req.Policy)
		if err != nil {
			handleGateError(w, logger, "sanitize", err)
			return
		}

		writeOK(w, sanitizeResponse{
			Text: text,
			Map: mapView{
				SessionID: handle.SessionID,
				CreatedAt: handle.CreatedAt.Format(timeFormat),
				ExpiresAt: handle.ExpiresAt.Format(timeFormat),
			},
		})
	}
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

type desanitizeRequest struct {
	Text       string `json:"text"`
	SessionID  string `json:"session_id"`
	Authorized bool   `json:"authorized"`
}

type desanitizeResponse struct {
	Text string `json:"text"`
}

func desanitizeHandler(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := telemetry.FromContext(r.Context(), e.Logger)

		var req desanitizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
		if req.SessionID == "" {
			writeBadRequest(w, "session_id is required")
			return
		}

		text, err := e.Desanitize(r.Context(), req.Text, req.SessionID, req.Authorized)
		if err != nil {
			// Per spec §7, desanitize failures must leave tokens in
			// place and return the text unchanged, not block the
			// response — only a genuine Vault crypto failure is a 500.
			if aegiserr.Is(err, aegiserr.KindVaultCryptoFailure) {
				logger.Error("desanitize vault corruption", zap.Error(err))
				writeInternalServerError(w, "vault corruption")
				return
			}
			logger.Warn("desanitize returned degraded result", zap.Error(err))
		}

		writeOK(w, desanitizeResponse{Text: text})
	}
}

type purgeRequest struct {
	SessionID string `json:"session_id"`
}

type purgeResponse struct {
	Purged bool `json:"purged"`
}

func purgeHandler(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req purgeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
		if req.SessionID == "" {
			writeBadRequest(w, "session_id is required")
			return
		}
		writeOK(w, purgeResponse{Purged: e.Purge(req.SessionID)})
	}
}

func healthHandler(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := e.Health(r.Context())
		if status.Status != "ok" {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeOK(w, status)
	}
}

// handleGateError translates a Failure Gate event into the opaque
// external failure signal spec §4.I requires: the client never learns
// which internal component failed, only that sanitization failed and
// traffic was blocked.
func handleGateError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	if aegiserr.Is(err, aegiserr.KindPolicyInvalid) {
		writeBadRequest(w, err.Error())
		return
	}
	logger.Error(op+" failed closed", zap.Error(err))
	writeInternalServerError(w, "sanitization failed, traffic blocked")
}
