package auth

import (
	"errors"
	"net/http"
	"time"

	sessiondomain "family-ledger/internal/domain/session"
	"family-ledger/internal/identity"
	"family-ledger/internal/transport/httpserver/handler/common"
	"family-ledger/internal/transport/httpserver/middleware"
	"family-ledger/pkg/logger"
)

const DeviceIDHeader = "X-Device-ID"

type Handlers struct {
	Sessions *sessiondomain.Guard
	log      logger.Logger
}

func New(sessions *sessiondomain.Guard, log logger.Logger) *Handlers {
	return &Handlers{Sessions: sessions, log: log}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccountID   string `json:"account_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

type sessionResponse struct {
	Active      bool      `json:"active"`
	DeviceID    string    `json:"device_id"`
	LastUpdated time.Time `json:"last_updated"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}
	deviceID := r.Header.Get(DeviceIDHeader)

	ident, err := h.Sessions.Login(r.Context(), identity.Credentials{Email: req.Email, Password: req.Password}, deviceID)
	if err != nil {
		switch {
		case errors.Is(err, sessiondomain.ErrDeviceRequired):
			common.WriteError(w, http.StatusBadRequest, "device_required", "X-Device-ID header is required")
		case errors.Is(err, identity.ErrAuthFailed):
			h.log.BusinessError("auth.login: authentication failed", err, "device_id", deviceID)
			common.WriteError(w, http.StatusUnauthorized, "auth_failed", "invalid email or password")
		case errors.Is(err, sessiondomain.ErrSessionConflict):
			common.WriteError(w, http.StatusConflict, "session_conflict", "this account is signed in on another device; sign out there first")
		case errors.Is(err, identity.ErrUnavailable):
			h.log.InternalError("auth.login: identity provider unavailable", err, "device_id", deviceID)
			common.WriteError(w, http.StatusServiceUnavailable, "identity_unavailable", "identity provider unavailable")
		default:
			h.log.InternalError("auth.login: login failed", err, "device_id", deviceID)
			common.InternalError(w)
		}
		return
	}

	common.WriteJSON(w, http.StatusOK, loginResponse{
		AccountID:   ident.AccountID,
		Email:       ident.Email,
		AccessToken: ident.AccessToken,
	})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	if err := h.Sessions.Logout(r.Context(), userID); err != nil {
		if errors.Is(err, sessiondomain.ErrUnreachable) {
			common.WriteError(w, http.StatusBadGateway, "identity_unreachable", "signed out locally; identity provider unreachable")
			return
		}
		h.log.InternalError("auth.logout: logout failed", err, "user_id", userID)
		common.InternalError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.Unauthorized(w)
		return
	}

	sess, err := h.Sessions.Status(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sessiondomain.ErrSessionNotFound) {
			common.WriteError(w, http.StatusNotFound, "session_not_found", "session not found")
			return
		}
		h.log.InternalError("auth.session: status failed", err, "user_id", userID)
		common.InternalError(w)
		return
	}

	common.WriteJSON(w, http.StatusOK, sessionResponse{
		Active:      sess.Active,
		DeviceID:    sess.DeviceID,
		LastUpdated: sess.LastUpdated,
	})
}
