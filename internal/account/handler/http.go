// Package handler exposes the admin account endpoints under /admin.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"cloudpad-admin/backend/internal/account/domain"
	"cloudpad-admin/backend/internal/account/service"
	auditdomain "cloudpad-admin/backend/internal/audit/domain"
	authservice "cloudpad-admin/backend/internal/auth/service"
	"cloudpad-admin/backend/internal/server/middleware"
)

// AuditReader reads back persisted audit events for one account.
type AuditReader interface {
	ListByAccount(ctx context.Context, accountID string, limit, offset int32) ([]*auditdomain.AuditLog, error)
}

// Handler serves /admin routes. Registration delegates to the auth service
// because it issues a token pair; everything else goes through the account
// service.
type Handler struct {
	accounts *service.Service
	auth     *authservice.AuthService
	audits   AuditReader
	log      *slog.Logger
}

// NewHandler returns an account HTTP handler. audits may be nil; the
// audit-log endpoint then returns an empty list.
func NewHandler(accounts *service.Service, auth *authservice.AuthService, audits AuditReader, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{accounts: accounts, auth: auth, audits: audits, log: log}
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type updateRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
}

// Register handles POST /admin/register. Public; the new account gets the
// base role and an immediate session.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pair, err := h.auth.Register(r.Context(), authservice.RegisterParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, authservice.ErrDuplicateAccount):
			writeError(w, http.StatusBadRequest, "email already in use")
		case errors.Is(err, authservice.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.internalError(w, r, "register", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// List handles GET /admin/all-admins. Restricted to super-admins at the
// route level.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		h.internalError(w, r, "list", err)
		return
	}
	summaries := make([]domain.Summary, 0, len(accounts))
	for _, acct := range accounts {
		summaries = append(summaries, acct.Summary())
	}
	writeJSON(w, http.StatusOK, summaries)
}

// Create handles POST /admin/create-admin. The new account gets the base
// role and no session; the created admin logs in on their own.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	acct, err := h.accounts.Create(r.Context(), service.CreateParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "email already in use")
		case errors.Is(err, domain.ErrInvalidAccount):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.internalError(w, r, "create", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, acct.Summary())
}

// Get handles GET /admin/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	acct, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		h.internalError(w, r, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, acct.Summary())
}

// Update handles PATCH /admin/{id}. Absent fields are left unchanged.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	acct, err := h.accounts.Update(r.Context(), id, service.UpdateParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			writeError(w, http.StatusNotFound, "account not found")
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "email already in use")
		case errors.Is(err, domain.ErrInvalidAccount):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.internalError(w, r, "update", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, acct.Summary())
}

type auditEntryResponse struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Resource  string `json:"resource"`
	IP        string `json:"ip"`
	Metadata  string `json:"metadata,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// AuditLogs handles GET /admin/{id}/audit-logs. Restricted to super-admins
// at the route level. Supports limit and offset query parameters; limit
// defaults to 50 and is capped at 200.
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.accounts.Get(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		h.internalError(w, r, "audit-logs", err)
		return
	}

	limit := queryInt32(r, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := queryInt32(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries := []*auditdomain.AuditLog{}
	if h.audits != nil {
		var err error
		entries, err = h.audits.ListByAccount(r.Context(), id, limit, offset)
		if err != nil {
			h.internalError(w, r, "audit-logs", err)
			return
		}
	}
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			ID:        e.ID,
			Action:    e.Action,
			Resource:  e.Resource,
			IP:        e.IP,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func queryInt32(r *http.Request, key string, def int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return def
	}
	return int32(n)
}

// Delete handles DELETE /admin/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.accounts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		h.internalError(w, r, "delete", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.Error("admin: "+op+" failed", "error", err, "request_id", middleware.GetRequestID(r.Context()))
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
