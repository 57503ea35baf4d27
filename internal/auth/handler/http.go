// Package handler exposes the authentication endpoints: login, logout, refresh.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"cloudpad-admin/backend/internal/auth/service"
	"cloudpad-admin/backend/internal/server/middleware"
)

// Handler serves /auth routes. Construct with NewHandler and mount via Routes.
type Handler struct {
	auth *service.AuthService
	log  *slog.Logger
}

// NewHandler returns an auth HTTP handler backed by the given service.
func NewHandler(auth *service.AuthService, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{auth: auth, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	Tokens    tokenPairResponse `json:"tokens"`
}

// Login handles POST /auth/login. Bad credentials return 400 with a uniform
// message regardless of cause.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "invalid credentials")
			return
		}
		h.internalError(w, r, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		ID:        res.Identity.ID,
		Email:     res.Identity.Email,
		FirstName: res.Identity.FirstName,
		LastName:  res.Identity.LastName,
		Tokens: tokenPairResponse{
			AccessToken:  res.Tokens.AccessToken,
			RefreshToken: res.Tokens.RefreshToken,
		},
	})
}

// Logout handles GET /auth/logout. Requires a valid access token; idempotent.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	if err := h.auth.Logout(r.Context(), accountID); err != nil {
		h.internalError(w, r, "logout", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Refresh handles GET /auth/refresh. The refresh guard has already verified
// the token signature and attached the identity plus the raw token; the
// service checks it against the stored session hash and rotates. All denial
// causes surface as a single 403.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	accountID, okID := middleware.GetAccountID(r.Context())
	token, okToken := middleware.GetRefreshToken(r.Context())
	if !okID || !okToken {
		writeError(w, http.StatusForbidden, "access denied")
		return
	}
	pair, err := h.auth.Refresh(r.Context(), accountID, token)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			writeError(w, http.StatusForbidden, "access denied")
			return
		}
		h.internalError(w, r, "refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	// Internal detail is logged, never returned to the client.
	h.log.Error("auth: "+op+" failed", "error", err, "request_id", middleware.GetRequestID(r.Context()))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
