// File: internal/handlers/auth_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kailassh/refine-chat/internal/metrics"
	"github.com/kailassh/refine-chat/internal/middleware"
	"github.com/kailassh/refine-chat/internal/services"
	"github.com/kailassh/refine-chat/internal/services/auth"
	"github.com/kailassh/refine-chat/internal/services/identity"
)

// AuthHandler exposes the login flow over JSON.
type AuthHandler struct {
	Session       *auth.Session
	Metrics       metrics.Recorder
	Logger        services.Logger
	SecureCookies bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(session *auth.Session, recorder metrics.Recorder, logger services.Logger, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		Session:       session,
		Metrics:       recorder,
		Logger:        logger,
		SecureCookies: secureCookies,
	}
}

// SendOtp mails a login code to the submitted address and opens the
// verification step.
func (h *AuthHandler) SendOtp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, "Email is required.", http.StatusBadRequest)
		return
	}

	if err := h.Session.SendOtp(r.Context(), req.Email); err != nil {
		h.writeAuthError(w, err)
		return
	}

	h.Metrics.RecordOtpSent()
	writeJSON(w, http.StatusOK, h.Session.State())
}

// VerifyOtp checks the submitted code and, on success, sets the session
// cookie.
func (h *AuthHandler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		writeError(w, "Code is required.", http.StatusBadRequest)
		return
	}

	if err := h.Session.VerifyOtp(r.Context(), req.Code); err != nil {
		h.writeAuthError(w, err)
		return
	}

	h.Metrics.RecordSignIn()
	h.setSessionCookie(w, h.Session.Token())
	writeJSON(w, http.StatusOK, h.Session.State())
}

// ResendOtp requests a fresh code for the pending address. Inside the
// resend window this is a quiet no-op.
func (h *AuthHandler) ResendOtp(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.ResendOtp(r.Context()); err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Session.State())
}

// Back abandons the verification step and returns to the email form.
func (h *AuthHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.Session.GoBackToEmail()
	writeJSON(w, http.StatusOK, h.Session.State())
}

// SignOut ends the session and clears the cookie. Local state is gone even
// when the provider call fails.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	err := h.Session.SignOut(r.Context())
	h.clearSessionCookie(w)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Session.State())
}

// State reports the login state machine as the client should render it.
func (h *AuthHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Session.State())
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := string(identity.CodeOf(err))
	message := "Authentication failed."

	if errors.Is(err, auth.ErrMissingPendingEmail) {
		status = http.StatusConflict
		code = auth.CodeMissingPendingEmail
		message = "Request a code before verifying."
	} else if authErr, ok := identity.AsAuthError(err); ok {
		message = authErr.Message
		switch authErr.Type {
		case identity.ErrTypeRateLimit:
			status = http.StatusTooManyRequests
		case identity.ErrTypeSignupsDisabled, identity.ErrTypeEmailNotConfirmed:
			status = http.StatusForbidden
		case identity.ErrTypeInvalidCredentials, identity.ErrTypeInvalidToken, identity.ErrTypeTokenExpired:
			status = http.StatusUnauthorized
		case identity.ErrTypeUserNotFound:
			status = http.StatusNotFound
		case identity.ErrTypeSendOtp:
			status = http.StatusBadGateway
		}
	}

	h.Logger.Warn("auth request failed", "code", code, "error", err)
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}
