// Package handler exposes the auth module over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pcbuild_backend/internal/auth/repository"
	"pcbuild_backend/internal/auth/service"
	"pcbuild_backend/internal/auth/transport"
	"pcbuild_backend/platform/apperr"
	"pcbuild_backend/platform/httpkit"
	"pcbuild_backend/platform/validator"
)

// Handler handles HTTP requests for authentication.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new auth handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Register creates a new account.
// POST /api/v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login exchanges credentials for a token pair.
// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req transport.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh rotates a refresh token.
// POST /api/v1/auth/refresh
func (h *Handler) Refresh(c *gin.Context) {
	var req transport.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes a refresh token.
// POST /api/v1/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	var req transport.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}

	if err := h.svc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated account.
// GET /api/v1/auth/me
func (h *Handler) Me(c *gin.Context) {
	userID, ok := httpkit.GetUserID(c)
	if !ok {
		httpkit.RespondError(c, apperr.Unauthorized("authentication required"))
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), userID)
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func toUserResponse(user repository.User) transport.UserResponse {
	return transport.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Roles:     user.Roles,
		CreatedAt: user.CreatedAt,
	}
}
