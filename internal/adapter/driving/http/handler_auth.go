package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fdagency/portal/internal/application"
	"github.com/fdagency/portal/internal/domain/model"
	"github.com/fdagency/portal/internal/domain/port/driven"
)

// Login verifies the submitted credentials against the record system and,
// on success, sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing username or password")
		return
	}

	value, err := h.sessions.Issue(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmptyCredential):
			writeError(w, http.StatusBadRequest, "Missing username or password")
		case errors.Is(err, application.ErrAuthenticationFailed):
			h.logger.Info("login rejected", "class", model.ErrorClassAuthenticationFailed, "request_id", requestIDFrom(r.Context()))
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, driven.ErrUpstreamUnreachable), errors.Is(err, driven.ErrUpstreamTimeout):
			h.writeUpstreamError(w, r, "/api/inventory", err)
		default:
			if r.Context().Err() != nil {
				return
			}
			h.logger.Error("login failed", "error", err, "request_id", requestIDFrom(r.Context()))
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	maxAge := h.sessions.TTL()
	if !h.sessions.ServerSide() {
		maxAge = 0
	}
	setSessionCookie(w, value, h.secureCookies, maxAge)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// Logout clears the session cookie and forgets any server-side session.
// It always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Revoke(r.Context(), sessionCookie(r)); err != nil {
		h.logger.Warn("failed to revoke session", "error", err, "request_id", requestIDFrom(r.Context()))
	}

	clearSessionCookie(w, h.secureCookies)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// Health reports process liveness. With ?deep=1 it also pings the record system.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	deep := r.URL.Query().Get("deep") == "1"
	writeJSON(w, http.StatusOK, toHealthResponse(h.health.Check(r.Context(), deep)))
}
