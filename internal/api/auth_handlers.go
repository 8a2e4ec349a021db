package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nmarks/driftpad/internal/apperr"
	"github.com/nmarks/driftpad/internal/auth"
	"github.com/nmarks/driftpad/internal/models"
	"github.com/nmarks/driftpad/internal/session"
)

const minPasswordLen = 8

// Signup handles POST /api/auth/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusBadRequest, errorBody("valid email is required"))
		return
	}
	if len(req.Password) < minPasswordLen {
		writeJSON(w, http.StatusBadRequest, errorBody("password must be at least 8 characters"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("hash password failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	user, err := h.db.CreateUser(r.Context(), req.Email, hash)
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("email already registered"))
		} else {
			slog.Error("create user failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	h.issueTokens(w, r, user, http.StatusCreated)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid credentials"))
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid credentials"))
		return
	}

	h.issueTokens(w, r, user, http.StatusOK)
}

// Refresh handles POST /api/auth/refresh. The presented refresh token is
// rotated: the old session is deleted before the new pair is issued.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("refreshToken is required"))
		return
	}

	data, err := h.sessions.Get(r.Context(), req.RefreshToken)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid refresh token"))
		return
	}
	if err := h.sessions.Delete(r.Context(), req.RefreshToken); err != nil {
		slog.Warn("delete rotated session failed", slog.String("error", err.Error()))
	}

	user, err := h.db.GetUserByID(r.Context(), data.UserID)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid refresh token"))
		return
	}

	h.issueTokens(w, r, user, http.StatusOK)
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RefreshToken != "" {
		if err := h.sessions.Delete(r.Context(), req.RefreshToken); err != nil {
			slog.Warn("delete session failed", slog.String("error", err.Error()))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) issueTokens(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	access, err := h.issuer.IssueToken(user.ID, user.Email)
	if err != nil {
		slog.Error("issue token failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	refresh := uuid.NewString()
	data := session.Data{UserID: user.ID, Email: user.Email, CreatedAt: time.Now().UTC()}
	if err := h.sessions.Save(r.Context(), refresh, data, h.refreshTTL); err != nil {
		slog.Error("save session failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	writeJSON(w, status, TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         UserSummary{ID: user.ID, Email: user.Email},
	})
}
