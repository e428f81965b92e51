package repository

import (
	"context"

	"github.com/google/uuid"

	"pcbuild_backend/internal/chat/domain"
)

// Message roles stored in chat_messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatSession is one estimate conversation owned by a user.
type ChatSession struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Title     string    `db:"title"`
	CreatedAt string    `db:"created_at"`
	UpdatedAt string    `db:"updated_at"`
}

// ChatMessage is one turn message. EstimateID is set on assistant messages
// that produced a persisted estimate.
type ChatMessage struct {
	ID         uuid.UUID  `db:"id"`
	SessionID  uuid.UUID  `db:"session_id"`
	Role       string     `db:"role"`
	Content    string     `db:"content"`
	EstimateID *uuid.UUID `db:"estimate_id"`
	CreatedAt  string     `db:"created_at"`
}

// Estimate is a persisted validated estimate with its components.
type Estimate struct {
	ID          uuid.UUID `db:"id"`
	SessionID   uuid.UUID `db:"session_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	TotalPrice  int64     `db:"total_price"`
	Notes       string    `db:"notes"`
	CreatedAt   string    `db:"created_at"`
	Components  []domain.EstimateComponent
}

// SaveConversationTurnParams persists a turn that produced no estimate.
type SaveConversationTurnParams struct {
	SessionID      uuid.UUID
	UserInput      string
	AssistantReply string
}

// SaveEstimateTurnParams persists a turn together with its validated
// estimate and components.
type SaveEstimateTurnParams struct {
	SessionID      uuid.UUID
	UserInput      string
	AssistantReply string
	Estimate       domain.EstimateResult
}

// ChatRepository is the persistence boundary of the chat module.
type ChatRepository interface {
	CreateSession(ctx context.Context, userID uuid.UUID, title string) (ChatSession, error)
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (ChatSession, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]ChatSession, error)
	DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error

	ListMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]ChatMessage, error)
	SaveConversationTurn(ctx context.Context, params SaveConversationTurnParams) (ChatMessage, error)
	SaveEstimateTurn(ctx context.Context, params SaveEstimateTurnParams) (uuid.UUID, error)

	GetLatestEstimate(ctx context.Context, sessionID uuid.UUID) (Estimate, error)
	GetEstimateByID(ctx context.Context, estimateID uuid.UUID) (Estimate, error)
}
