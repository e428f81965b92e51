// Package repository persists chat sessions, messages, and validated
// estimates.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pcbuild_backend/internal/chat/domain"
	"pcbuild_backend/platform/apperr"
)

const (
	sessionNotFoundMessage  = "chat session not found"
	estimateNotFoundMessage = "estimate not found"
)

// Repo implements ChatRepository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new chat repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements ChatRepository.
var _ ChatRepository = (*Repo)(nil)

// CreateSession creates a chat session for a user.
func (r *Repo) CreateSession(ctx context.Context, userID uuid.UUID, title string) (ChatSession, error) {
	query := `
		INSERT INTO chat_sessions (user_id, title)
		VALUES ($1, $2)
		RETURNING id, user_id, title, created_at, updated_at`

	var session ChatSession
	var createdAt, updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query, userID, title).Scan(
		&session.ID, &session.UserID, &session.Title, &createdAt, &updatedAt,
	); err != nil {
		return ChatSession{}, fmt.Errorf("create chat session: %w", err)
	}

	session.CreatedAt = createdAt.Format(time.RFC3339)
	session.UpdatedAt = updatedAt.Format(time.RFC3339)
	return session, nil
}

// GetSession retrieves a session owned by the given user.
func (r *Repo) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (ChatSession, error) {
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM chat_sessions
		WHERE id = $1 AND user_id = $2`

	var session ChatSession
	var createdAt, updatedAt time.Time
	if err := r.pool.QueryRow(ctx, query, sessionID, userID).Scan(
		&session.ID, &session.UserID, &session.Title, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ChatSession{}, apperr.NotFound(sessionNotFoundMessage)
		}
		return ChatSession{}, fmt.Errorf("get chat session: %w", err)
	}

	session.CreatedAt = createdAt.Format(time.RFC3339)
	session.UpdatedAt = updatedAt.Format(time.RFC3339)
	return session, nil
}

// ListSessions lists a user's sessions, most recently active first.
func (r *Repo) ListSessions(ctx context.Context, userID uuid.UUID) ([]ChatSession, error) {
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]ChatSession, 0)
	for rows.Next() {
		var session ChatSession
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&session.ID, &session.UserID, &session.Title, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan chat session: %w", err)
		}
		session.CreatedAt = createdAt.Format(time.RFC3339)
		session.UpdatedAt = updatedAt.Format(time.RFC3339)
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// DeleteSession deletes a session and, via cascade, its messages and
// estimates.
func (r *Repo) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	query := `DELETE FROM chat_sessions WHERE id = $1 AND user_id = $2`
	result, err := r.pool.Exec(ctx, query, sessionID, userID)
	if err != nil {
		return fmt.Errorf("delete chat session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(sessionNotFoundMessage)
	}
	return nil
}

// ListMessages returns the most recent messages of a session in
// chronological order. A limit of 0 returns all messages.
func (r *Repo) ListMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]ChatMessage, error) {
	query := `
		SELECT id, session_id, role, content, estimate_id, created_at
		FROM (
			SELECT id, session_id, role, content, estimate_id, created_at
			FROM chat_messages
			WHERE session_id = $1
			ORDER BY created_at DESC
			LIMIT CASE WHEN $2 > 0 THEN $2 ELSE NULL END
		) recent
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]ChatMessage, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

// SaveConversationTurn stores the user message and the assistant reply of a
// turn that produced no estimate. Both inserts and the session touch run in
// one transaction.
func (r *Repo) SaveConversationTurn(ctx context.Context, params SaveConversationTurnParams) (ChatMessage, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("begin conversation turn: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertMessage(ctx, tx, params.SessionID, RoleUser, params.UserInput, nil); err != nil {
		return ChatMessage{}, err
	}

	assistant, err := insertMessageReturning(ctx, tx, params.SessionID, RoleAssistant, params.AssistantReply, nil)
	if err != nil {
		return ChatMessage{}, err
	}

	if err := touchSession(ctx, tx, params.SessionID); err != nil {
		return ChatMessage{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ChatMessage{}, fmt.Errorf("commit conversation turn: %w", err)
	}
	return assistant, nil
}

// SaveEstimateTurn stores the user message, the validated estimate with its
// components, and the assistant reply referencing the estimate. Everything
// commits or nothing does.
func (r *Repo) SaveEstimateTurn(ctx context.Context, params SaveEstimateTurnParams) (uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin estimate turn: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertMessage(ctx, tx, params.SessionID, RoleUser, params.UserInput, nil); err != nil {
		return uuid.Nil, err
	}

	estimate := params.Estimate
	estimateQuery := `
		INSERT INTO estimates (session_id, title, description, total_price, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var estimateID uuid.UUID
	if err := tx.QueryRow(ctx, estimateQuery,
		params.SessionID, estimate.Title, estimate.Description, estimate.TotalPrice, estimate.Notes,
	).Scan(&estimateID); err != nil {
		return uuid.Nil, fmt.Errorf("insert estimate: %w", err)
	}

	componentQuery := `
		INSERT INTO estimate_components (
			estimate_id, position, category, proposed_name, name, price,
			description, image, confidence
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for position, component := range estimate.Components {
		if _, err := tx.Exec(ctx, componentQuery,
			estimateID, position, string(component.Category), component.ProposedName,
			component.Name, component.Price, component.Description, component.Image,
			string(component.Confidence),
		); err != nil {
			return uuid.Nil, fmt.Errorf("insert estimate component: %w", err)
		}
	}

	if err := insertMessage(ctx, tx, params.SessionID, RoleAssistant, params.AssistantReply, &estimateID); err != nil {
		return uuid.Nil, err
	}

	if err := touchSession(ctx, tx, params.SessionID); err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit estimate turn: %w", err)
	}
	return estimateID, nil
}

// GetLatestEstimate returns the most recent estimate of a session with its
// components.
func (r *Repo) GetLatestEstimate(ctx context.Context, sessionID uuid.UUID) (Estimate, error) {
	query := `
		SELECT id, session_id, title, description, total_price, notes, created_at
		FROM estimates
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	return r.getEstimate(ctx, query, sessionID)
}

// GetEstimateByID returns one estimate with its components.
func (r *Repo) GetEstimateByID(ctx context.Context, estimateID uuid.UUID) (Estimate, error) {
	query := `
		SELECT id, session_id, title, description, total_price, notes, created_at
		FROM estimates
		WHERE id = $1`

	return r.getEstimate(ctx, query, estimateID)
}

func (r *Repo) getEstimate(ctx context.Context, query string, arg any) (Estimate, error) {
	var estimate Estimate
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&estimate.ID, &estimate.SessionID, &estimate.Title, &estimate.Description,
		&estimate.TotalPrice, &estimate.Notes, &createdAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Estimate{}, apperr.NotFound(estimateNotFoundMessage)
		}
		return Estimate{}, fmt.Errorf("get estimate: %w", err)
	}
	estimate.CreatedAt = createdAt.Format(time.RFC3339)

	componentsQuery := `
		SELECT category, proposed_name, name, price, description, image, confidence
		FROM estimate_components
		WHERE estimate_id = $1
		ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, componentsQuery, estimate.ID)
	if err != nil {
		return Estimate{}, fmt.Errorf("list estimate components: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var component domain.EstimateComponent
		var category, confidence string
		if err := rows.Scan(
			&category, &component.ProposedName, &component.Name, &component.Price,
			&component.Description, &component.Image, &confidence,
		); err != nil {
			return Estimate{}, fmt.Errorf("scan estimate component: %w", err)
		}
		component.Category = domain.Category(category)
		component.Confidence = domain.MatchConfidence(confidence)
		estimate.Components = append(estimate.Components, component)
	}
	return estimate, rows.Err()
}

// Result converts a stored estimate back into the domain shape.
func (e Estimate) Result() domain.EstimateResult {
	return domain.EstimateResult{
		Title:       e.Title,
		Description: e.Description,
		Components:  e.Components,
		TotalPrice:  e.TotalPrice,
		Notes:       e.Notes,
	}
}

func insertMessage(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, role, content string, estimateID *uuid.UUID) error {
	query := `
		INSERT INTO chat_messages (session_id, role, content, estimate_id)
		VALUES ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, query, sessionID, role, content, estimateID); err != nil {
		return fmt.Errorf("insert %s message: %w", role, err)
	}
	return nil
}

func insertMessageReturning(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, role, content string, estimateID *uuid.UUID) (ChatMessage, error) {
	query := `
		INSERT INTO chat_messages (session_id, role, content, estimate_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, session_id, role, content, estimate_id, created_at`

	var message ChatMessage
	var createdAt time.Time
	if err := tx.QueryRow(ctx, query, sessionID, role, content, estimateID).Scan(
		&message.ID, &message.SessionID, &message.Role, &message.Content,
		&message.EstimateID, &createdAt,
	); err != nil {
		return ChatMessage{}, fmt.Errorf("insert %s message: %w", role, err)
	}
	message.CreatedAt = createdAt.Format(time.RFC3339)
	return message, nil
}

func touchSession(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `UPDATE chat_sessions SET updated_at = now() WHERE id = $1`, sessionID); err != nil {
		return fmt.Errorf("touch chat session: %w", err)
	}
	return nil
}

func scanMessage(rows pgx.Rows) (ChatMessage, error) {
	var message ChatMessage
	var createdAt time.Time
	if err := rows.Scan(
		&message.ID, &message.SessionID, &message.Role, &message.Content,
		&message.EstimateID, &createdAt,
	); err != nil {
		return ChatMessage{}, fmt.Errorf("scan chat message: %w", err)
	}
	message.CreatedAt = createdAt.Format(time.RFC3339)
	return message, nil
}
