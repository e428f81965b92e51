// Package handler exposes the chat module over HTTP.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pcbuild_backend/internal/chat/service"
	"pcbuild_backend/internal/chat/transport"
	"pcbuild_backend/platform/apperr"
	"pcbuild_backend/platform/httpkit"
	"pcbuild_backend/platform/validator"
)

// Handler handles HTTP requests for chat sessions and estimates.
type Handler struct {
	svc *service.ChatService
	val *validator.Validator
}

// New creates a new chat handler.
func New(svc *service.ChatService, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// CreateSession starts a new estimate conversation.
// POST /api/v1/chat/sessions
func (h *Handler) CreateSession(c *gin.Context) {
	// An empty body is allowed; the service falls back to a default title.
	var req transport.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.RespondValidation(c, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}

	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	session, err := h.svc.CreateSession(c.Request.Context(), userID, req.Title)
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, transport.ToSessionResponse(session))
}

// ListSessions lists the caller's sessions.
// GET /api/v1/chat/sessions
func (h *Handler) ListSessions(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	sessions, err := h.svc.ListSessions(c.Request.Context(), userID)
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}

	out := make([]transport.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, transport.ToSessionResponse(session))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// DeleteSession removes a session and its history.
// DELETE /api/v1/chat/sessions/:id
func (h *Handler) DeleteSession(c *gin.Context) {
	userID, sessionID, ok := mustSession(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteSession(c.Request.Context(), userID, sessionID); err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMessages returns a session's conversation history.
// GET /api/v1/chat/sessions/:id/messages
func (h *Handler) ListMessages(c *gin.Context) {
	userID, sessionID, ok := mustSession(c)
	if !ok {
		return
	}

	messages, err := h.svc.ListMessages(c.Request.Context(), userID, sessionID)
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}

	out := make([]transport.MessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, transport.ToMessageResponse(message))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// SubmitMessage runs one user turn through the estimate pipeline.
// POST /api/v1/chat/sessions/:id/messages
func (h *Handler) SubmitMessage(c *gin.Context) {
	var req transport.SubmitMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}

	userID, sessionID, ok := mustSession(c)
	if !ok {
		return
	}

	result, err := h.svc.SubmitUserTurn(c.Request.Context(), userID, sessionID, req.Message)
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetLatestEstimate returns the session's most recent estimate.
// GET /api/v1/chat/sessions/:id/estimate
func (h *Handler) GetLatestEstimate(c *gin.Context) {
	userID, sessionID, ok := mustSession(c)
	if !ok {
		return
	}

	estimate, err := h.svc.GetLatestEstimate(c.Request.Context(), userID, sessionID)
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transport.ToEstimateResponse(estimate))
}

// GetEstimateQR renders a QR code PNG for the estimate share link.
// GET /api/v1/chat/sessions/:id/estimate/qr
func (h *Handler) GetEstimateQR(c *gin.Context) {
	userID, sessionID, ok := mustSession(c)
	if !ok {
		return
	}

	png, err := h.svc.EstimateShareQR(c.Request.Context(), userID, sessionID)
	if err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ShareEstimate emails the latest estimate to a recipient.
// POST /api/v1/chat/sessions/:id/estimate/share
func (h *Handler) ShareEstimate(c *gin.Context) {
	var req transport.ShareEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.RespondValidation(c, err)
		return
	}

	userID, sessionID, ok := mustSession(c)
	if !ok {
		return
	}

	if err := h.svc.ShareEstimateByEmail(c.Request.Context(), userID, sessionID, req.Email); err != nil {
		httpkit.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

func mustUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := httpkit.GetUserID(c)
	if !ok {
		httpkit.RespondError(c, apperr.Unauthorized("authentication required"))
		return uuid.Nil, false
	}
	return userID, true
}

func mustSession(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := mustUserID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.RespondError(c, apperr.BadRequest("invalid session id"))
		return uuid.Nil, uuid.Nil, false
	}
	return userID, sessionID, true
}
