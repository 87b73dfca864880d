// Package handler provides the HTTP handlers for the auth feature.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/transport/http/dto"
	"auth_backend/internal/feature/auth/usecase"
	jwtmw "auth_backend/internal/platform/jwt"
)

// AuthUsecase defines the auth operations consumed by the HTTP layer.
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type AuthUsecase interface {
	// Register creates a new account and emails an activation link.
	Register(ctx context.Context, email, password string) error
	// Verify consumes an email verification token and returns a session token.
	Verify(ctx context.Context, token string) (string, error)
	// Login authenticates a user and returns a session token.
	Login(ctx context.Context, email, password string) (string, error)
	// CurrentUser returns the account behind an authenticated user ID.
	CurrentUser(ctx context.Context, id uint) (*entity.User, error)
}

// AuthHandler handles HTTP requests for auth operations.
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler creates a new instance of AuthHandler.
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles the registration endpoint.
//   - 422 on malformed input
//   - 409 with a stable code when the email is taken
//   - 201 with no body on success; no session token is issued here
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorRes{Error: "invalid request"})
		return
	}
	if err := h.auth.Register(c.Request.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, usecase.ErrEmailAlreadyRegistered) {
			slog.Warn("register conflict", "email", req.Email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusConflict, dto.ErrorRes{Error: "email_already_registered"})
			return
		}
		slog.Error("register failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal error"})
		return
	}
	slog.Info("user registered", "email", req.Email, "remote_addr", c.ClientIP())
	c.Status(http.StatusCreated)
}

// Verify handles the email verification endpoint.
//   - 422 on malformed input
//   - 404 with the same code for unknown and already-used tokens
//   - 200 with a session token on success
func (h *AuthHandler) Verify(c *gin.Context) {
	var req dto.VerifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("verify validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorRes{Error: "invalid request"})
		return
	}
	token, err := h.auth.Verify(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, usecase.ErrTokenNotFound) {
			slog.Warn("verify failed", "email", req.Email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusNotFound, dto.ErrorRes{Error: "token_not_found"})
			return
		}
		slog.Error("verify failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal error"})
		return
	}
	slog.Info("email verified", "email", req.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.TokenRes{Token: token})
}

// Login handles the login endpoint.
//   - 422 on malformed input
//   - 401 with the same code for unknown email and wrong password
//   - 200 with a session token on success
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorRes{Error: "invalid request"})
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			slog.Warn("login failed", "email", req.Email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, dto.ErrorRes{Error: "invalid_credentials"})
			return
		}
		slog.Error("login failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal error"})
		return
	}
	slog.Info("user login successful", "email", req.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.TokenRes{Token: token})
}

// Me returns the account of the authenticated caller.
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := c.Get(jwtmw.ContextUserID)
	userID, cast := id.(uint)
	if !ok || !cast {
		c.JSON(http.StatusUnauthorized, dto.ErrorRes{Error: "unauthorized"})
		return
	}
	user, err := h.auth.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		slog.Error("current user lookup failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal error"})
		return
	}
	c.JSON(http.StatusOK, dto.MeRes{ID: user.ID, Email: user.Email})
}
