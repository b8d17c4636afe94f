package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidhive/backend/internal/apperr"
	"github.com/vidhive/backend/internal/auth"
	"github.com/vidhive/backend/internal/logging"
	"github.com/vidhive/backend/internal/models"
	"github.com/vidhive/backend/internal/repositories"
	"github.com/vidhive/backend/internal/respond"
)

// AuthHandler implements the account endpoints.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
	NowFunc  func() time.Time
	NewID    func() string
}

// Register handles POST /api/v1/users/register.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	email := req.Email
	username := strings.ToLower(req.Username)

	if _, err := h.Users.FindByEmail(ctx, email); err == nil {
		logger.Warn("register existing account", "email", email)
		respond.Error(ctx, w, apperr.Conflict("account already exists"))
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		respond.Error(ctx, w, apperr.Internal("look up account", err))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respond.Error(ctx, w, apperr.Internal("hash password", err))
		return
	}

	now := h.now()
	user := models.User{
		ID:        h.newID(),
		Username:  username,
		Email:     email,
		Password:  string(hashed),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respond.Error(ctx, w, apperr.Conflict("account already exists"))
			return
		}
		respond.Error(ctx, w, apperr.Internal("create account", err))
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		respond.Error(ctx, w, apperr.Internal("issue session", err))
		return
	}

	logger.Info("account registered", slog.String("user_id", user.ID))
	respond.OK(ctx, w, http.StatusCreated, "account created", authResponse{User: user, Tokens: tokens})
}

// Login handles POST /api/v1/users/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}
	email := req.Email

	user, err := h.Users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			respond.Error(ctx, w, apperr.Internal("look up account", err))
			return
		}
		logger.Warn("login unknown account", "email", email)
		respond.Error(ctx, w, apperr.Unauthenticated("invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "user_id", user.ID)
		respond.Error(ctx, w, apperr.Unauthenticated("invalid credentials"))
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		respond.Error(ctx, w, apperr.Internal("issue session", err))
		return
	}

	respond.OK(ctx, w, http.StatusOK, "logged in", authResponse{User: user, Tokens: tokens})
}

// Refresh exchanges a refresh token for a new session.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			respond.Error(ctx, w, apperr.Wrap(apperr.KindUnauthenticated, "unable to refresh session", err))
			return
		}
		respond.Error(ctx, w, apperr.Internal("refresh session", err))
		return
	}

	respond.OK(ctx, w, http.StatusOK, "session refreshed", authResponse{Tokens: tokens})
}

type registerRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *registerRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *loginRequest) normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type authResponse struct {
	User   models.User          `json:"user"`
	Tokens models.SessionTokens `json:"tokens"`
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func (h AuthHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}
