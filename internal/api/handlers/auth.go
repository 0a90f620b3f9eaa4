// Package handlers implements the HTTP endpoints of the finance assistant
// API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pfalabs/finance-assistant/internal/api/middleware"
	"github.com/pfalabs/finance-assistant/internal/auth"
	"github.com/pfalabs/finance-assistant/internal/domain"
	infra "github.com/pfalabs/finance-assistant/internal/infra/bigquery"
)

const minPasswordLen = 6

// AuthHandler handles registration and login.
type AuthHandler struct {
	users infra.UserRepository
	svc   *auth.Service
	log   zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(users infra.UserRepository, svc *auth.Service, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{users: users, svc: svc, log: log}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		middleware.WriteError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}
	if len(req.Password) < minPasswordLen {
		middleware.WriteError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	ctx := r.Context()

	if existing, err := h.users.FindUserByUsername(ctx, req.Username); err != nil {
		h.log.Error().Err(err).Msg("Failed to check username")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to register")
		return
	} else if existing != nil {
		middleware.WriteError(w, http.StatusConflict, "Username already taken")
		return
	}
	if existing, err := h.users.FindUserByEmail(ctx, req.Email); err != nil {
		h.log.Error().Err(err).Msg("Failed to check email")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to register")
		return
	} else if existing != nil {
		middleware.WriteError(w, http.StatusConflict, "Email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to hash password")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	user := &domain.User{
		UserID:       uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedTS:    time.Now(),
	}
	if err := h.users.InsertUser(ctx, infra.UserRowFromDomain(user)); err != nil {
		h.log.Error().Err(err).Msg("Failed to insert user")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	token, err := h.svc.IssueToken(user.UserID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to issue token")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	row, err := h.users.FindUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to look up user")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}
	if row == nil || !auth.CheckPassword(row.PasswordHash, req.Password) {
		middleware.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.svc.IssueToken(row.UserID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to issue token")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, authResponse{Token: token, User: row.ToDomain()})
}
