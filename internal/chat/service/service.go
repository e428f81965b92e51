// Package service orchestrates the estimate pipeline: intent
// classification, candidate retrieval, the language-model turn, parsing,
// validation, and transactional persistence.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"pcbuild_backend/internal/chat/domain"
	"pcbuild_backend/internal/chat/rag"
	"pcbuild_backend/internal/chat/repository"
	"pcbuild_backend/internal/events"
	"pcbuild_backend/platform/apperr"
	"pcbuild_backend/platform/logger"
)

const (
	historyLimit = 20

	// Shown when the language-model call fails after retries. The user
	// never sees a transport error.
	turnFailureMessage = "죄송합니다, 지금은 견적을 생성할 수 없습니다. 잠시 후 다시 시도해주세요."
)

// Adviser runs one language-model turn and returns the raw reply text.
type Adviser interface {
	Advise(ctx context.Context, sessionID uuid.UUID, prompt string) (string, error)
}

// CandidateRetriever fans out retrieval over the canonical category set.
type CandidateRetriever interface {
	RetrieveAll(ctx context.Context, userInput string) map[domain.Category]rag.RetrievedCategory
}

// PoolCache caches the per-session candidate pool between turns.
// *rag.PoolCache satisfies this; a nil cache disables reuse.
type PoolCache interface {
	Save(ctx context.Context, sessionID uuid.UUID, pool rag.Context) error
	Load(ctx context.Context, sessionID uuid.UUID) (rag.Context, bool)
}

// EmailSender delivers an estimate summary to a recipient address.
type EmailSender interface {
	SendEstimate(ctx context.Context, to string, estimate domain.EstimateResult) error
}

// TurnKind tags a turn outcome.
type TurnKind string

const (
	// TurnEstimate means the turn produced a validated estimate.
	TurnEstimate TurnKind = "estimate"
	// TurnConversation means the turn produced a plain message.
	TurnConversation TurnKind = "conversation"
)

// TurnResult is what one user turn returns to the transport layer.
type TurnResult struct {
	Kind       TurnKind               `json:"kind"`
	Message    string                 `json:"message,omitempty"`
	Estimate   *domain.EstimateResult `json:"estimate,omitempty"`
	EstimateID *uuid.UUID             `json:"estimateId,omitempty"`
	Intent     Intent                 `json:"intent"`
}

// ChatService implements the estimate pipeline over its collaborators.
type ChatService struct {
	repo      repository.ChatRepository
	retriever CandidateRetriever
	advisor   Adviser
	poolCache PoolCache
	email     EmailSender
	bus       events.Bus
	log       *logger.Logger
	shareBase string
}

// Config wires a ChatService.
type Config struct {
	Repo      repository.ChatRepository
	Retriever CandidateRetriever
	Advisor   Adviser
	PoolCache PoolCache
	Email     EmailSender
	Bus       events.Bus
	Logger    *logger.Logger
	// ShareBaseURL is the public URL prefix for estimate share links.
	ShareBaseURL string
}

// New creates the chat service.
func New(cfg Config) *ChatService {
	return &ChatService{
		repo:      cfg.Repo,
		retriever: cfg.Retriever,
		advisor:   cfg.Advisor,
		poolCache: cfg.PoolCache,
		email:     cfg.Email,
		bus:       cfg.Bus,
		log:       cfg.Logger,
		shareBase: strings.TrimRight(cfg.ShareBaseURL, "/"),
	}
}

// CreateSession starts a new chat session for a user.
func (s *ChatService) CreateSession(ctx context.Context, userID uuid.UUID, title string) (repository.ChatSession, error) {
	if strings.TrimSpace(title) == "" {
		title = "새 견적 상담"
	}
	return s.repo.CreateSession(ctx, userID, title)
}

// ListSessions lists a user's sessions.
func (s *ChatService) ListSessions(ctx context.Context, userID uuid.UUID) ([]repository.ChatSession, error) {
	return s.repo.ListSessions(ctx, userID)
}

// DeleteSession removes a session the user owns.
func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	return s.repo.DeleteSession(ctx, userID, sessionID)
}

// ListMessages returns a session's messages after an ownership check.
func (s *ChatService) ListMessages(ctx context.Context, userID, sessionID uuid.UUID) ([]repository.ChatMessage, error) {
	if _, err := s.repo.GetSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, sessionID, 0)
}

// SubmitUserTurn runs the full pipeline for one user message:
// classify, retrieve, build context, call the model, parse, validate,
// persist, respond. Every failure downstream of classification degrades to
// a conversational outcome; the caller never sees a pipeline error other
// than session-level authorization and persistence failures.
func (s *ChatService) SubmitUserTurn(ctx context.Context, userID, sessionID uuid.UUID, userText string) (TurnResult, error) {
	if strings.TrimSpace(userText) == "" {
		return TurnResult{}, apperr.BadRequest("message text is required")
	}
	if _, err := s.repo.GetSession(ctx, userID, sessionID); err != nil {
		return TurnResult{}, err
	}

	intent := ClassifyIntent(userText, s.hasPriorEstimate(ctx, sessionID))
	log := s.log.WithContext(ctx)
	log.Info("classified user turn", "session_id", sessionID, "intent", intent)

	if intent == IntentConversation {
		return s.runConversationTurn(ctx, sessionID, userText, intent)
	}
	return s.runEstimateTurn(ctx, userID, sessionID, userText, intent)
}

// GetLatestEstimate returns the most recent estimate of a session.
func (s *ChatService) GetLatestEstimate(ctx context.Context, userID, sessionID uuid.UUID) (repository.Estimate, error) {
	if _, err := s.repo.GetSession(ctx, userID, sessionID); err != nil {
		return repository.Estimate{}, err
	}
	return s.repo.GetLatestEstimate(ctx, sessionID)
}

// EstimateShareQR renders a QR code PNG pointing at the share link of the
// session's latest estimate.
func (s *ChatService) EstimateShareQR(ctx context.Context, userID, sessionID uuid.UUID) ([]byte, error) {
	estimate, err := s.GetLatestEstimate(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	shareURL := fmt.Sprintf("%s/estimates/%s", s.shareBase, estimate.ID)
	png, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode share qr: %w", err)
	}
	return png, nil
}

// ShareEstimateByEmail emails the session's latest estimate to a recipient.
func (s *ChatService) ShareEstimateByEmail(ctx context.Context, userID, sessionID uuid.UUID, recipient string) error {
	if s.email == nil {
		return apperr.Unavailable("estimate sharing by email is not configured")
	}
	estimate, err := s.GetLatestEstimate(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	return s.email.SendEstimate(ctx, recipient, estimate.Result())
}

// =============================================================================
// Pipeline stages
// =============================================================================

func (s *ChatService) runConversationTurn(ctx context.Context, sessionID uuid.UUID, userText string, intent Intent) (TurnResult, error) {
	prompt := s.assemblePrompt(ctx, sessionID, rag.Context{}, "", userText)

	reply, err := s.advisor.Advise(ctx, sessionID, prompt)
	if err != nil {
		s.log.Error("conversation turn failed", "session_id", sessionID, "error", err)
		reply = turnFailureMessage
	}

	if _, err := s.repo.SaveConversationTurn(ctx, repository.SaveConversationTurnParams{
		SessionID:      sessionID,
		UserInput:      userText,
		AssistantReply: reply,
	}); err != nil {
		return TurnResult{}, err
	}

	return TurnResult{Kind: TurnConversation, Message: reply, Intent: intent}, nil
}

func (s *ChatService) runEstimateTurn(ctx context.Context, userID, sessionID uuid.UUID, userText string, intent Intent) (TurnResult, error) {
	pool := s.retrievePool(ctx, sessionID, userText, intent)

	priorSummary := ""
	if intent == IntentReconfigure {
		if prior, err := s.repo.GetLatestEstimate(ctx, sessionID); err == nil {
			priorSummary = summarizeEstimate(prior.Result())
		}
	}

	prompt := s.assemblePrompt(ctx, sessionID, pool, priorSummary, userText)

	rawReply, err := s.advisor.Advise(ctx, sessionID, prompt)
	if err != nil {
		s.log.Error("language model turn failed", "session_id", sessionID, "error", err)
		return s.failTurn(ctx, sessionID, userText, intent)
	}

	parsed := rag.Parse(rawReply)
	if parsed.Kind == rag.ReplyConversation {
		if _, err := s.repo.SaveConversationTurn(ctx, repository.SaveConversationTurnParams{
			SessionID:      sessionID,
			UserInput:      userText,
			AssistantReply: parsed.Message,
		}); err != nil {
			return TurnResult{}, err
		}
		return TurnResult{Kind: TurnConversation, Message: parsed.Message, Intent: intent}, nil
	}

	validated := rag.Validate(parsed.Estimate, pool)

	if validated.IsEmpty() || validated.IsAllDefaults() {
		// Nothing real survived validation; keep the turn but never
		// persist an empty estimate.
		reply := rawReply
		if validated.IsEmpty() {
			reply = turnFailureMessage
		}
		if _, err := s.repo.SaveConversationTurn(ctx, repository.SaveConversationTurnParams{
			SessionID:      sessionID,
			UserInput:      userText,
			AssistantReply: reply,
		}); err != nil {
			return TurnResult{}, err
		}
		return TurnResult{Kind: TurnConversation, Message: reply, Intent: intent}, nil
	}

	estimateID, err := s.repo.SaveEstimateTurn(ctx, repository.SaveEstimateTurnParams{
		SessionID:      sessionID,
		UserInput:      userText,
		AssistantReply: rawReply,
		Estimate:       validated,
	})
	if err != nil {
		return TurnResult{}, err
	}

	s.cachePool(ctx, sessionID, pool)
	s.publishEstimateCreated(ctx, userID, sessionID, estimateID, userText, validated, pool)

	return TurnResult{
		Kind:       TurnEstimate,
		Estimate:   &validated,
		EstimateID: &estimateID,
		Intent:     intent,
	}, nil
}

// retrievePool reuses the cached pool on a reconfiguration turn and falls
// back to fresh retrieval. New builds always re-retrieve; catalog prices
// move and freshness wins over latency.
func (s *ChatService) retrievePool(ctx context.Context, sessionID uuid.UUID, userText string, intent Intent) rag.Context {
	if intent == IntentReconfigure && s.poolCache != nil {
		if cached, ok := s.poolCache.Load(ctx, sessionID); ok {
			cached.Prompt = rag.RenderPrompt(cached)
			return cached
		}
	}
	return rag.BuildContext(s.retriever.RetrieveAll(ctx, userText))
}

func (s *ChatService) cachePool(ctx context.Context, sessionID uuid.UUID, pool rag.Context) {
	if s.poolCache == nil {
		return
	}
	if err := s.poolCache.Save(ctx, sessionID, pool); err != nil {
		s.log.Warn("failed to cache candidate pool", "session_id", sessionID, "error", err)
	}
}

func (s *ChatService) failTurn(ctx context.Context, sessionID uuid.UUID, userText string, intent Intent) (TurnResult, error) {
	if _, err := s.repo.SaveConversationTurn(ctx, repository.SaveConversationTurnParams{
		SessionID:      sessionID,
		UserInput:      userText,
		AssistantReply: turnFailureMessage,
	}); err != nil {
		return TurnResult{}, err
	}
	return TurnResult{Kind: TurnConversation, Message: turnFailureMessage, Intent: intent}, nil
}

func (s *ChatService) hasPriorEstimate(ctx context.Context, sessionID uuid.UUID) bool {
	if s.poolCache != nil {
		if _, ok := s.poolCache.Load(ctx, sessionID); ok {
			return true
		}
	}
	_, err := s.repo.GetLatestEstimate(ctx, sessionID)
	return err == nil
}

func (s *ChatService) publishEstimateCreated(ctx context.Context, userID, sessionID, estimateID uuid.UUID, userText string, estimate domain.EstimateResult, pool rag.Context) {
	if s.bus == nil {
		return
	}
	missing := make([]string, 0, len(pool.Missing))
	for _, category := range pool.Missing {
		missing = append(missing, string(category))
	}
	s.bus.Publish(ctx, events.EstimateCreated{
		BaseEvent:         events.NewBaseEvent(),
		SessionID:         sessionID,
		UserID:            userID,
		EstimateID:        estimateID,
		UserInput:         userText,
		ComponentCount:    len(estimate.Components),
		TotalPrice:        estimate.TotalPrice,
		MissingCategories: missing,
	})
}

// assemblePrompt stitches the grounding context, recent conversation, the
// prior estimate summary on a reconfiguration, and the new user message.
func (s *ChatService) assemblePrompt(ctx context.Context, sessionID uuid.UUID, pool rag.Context, priorSummary, userText string) string {
	var builder strings.Builder

	if pool.Prompt != "" {
		builder.WriteString(pool.Prompt)
		builder.WriteString("\n\n")
	}

	history, err := s.repo.ListMessages(ctx, sessionID, historyLimit)
	if err != nil {
		s.log.Warn("failed to load chat history", "session_id", sessionID, "error", err)
	}
	if len(history) > 0 {
		builder.WriteString("CONVERSATION SO FAR:\n")
		for _, message := range history {
			fmt.Fprintf(&builder, "%s: %s\n", message.Role, message.Content)
		}
		builder.WriteString("\n")
	}

	if priorSummary != "" {
		builder.WriteString("CURRENT ESTIMATE (adjust only what the user asks to change):\n")
		builder.WriteString(priorSummary)
		builder.WriteString("\n")
	}

	builder.WriteString("USER MESSAGE:\n")
	builder.WriteString(userText)
	return builder.String()
}

func summarizeEstimate(estimate domain.EstimateResult) string {
	var builder strings.Builder
	for _, component := range estimate.Components {
		fmt.Fprintf(&builder, "- %s: %s (%d원)\n", component.Category, component.Name, component.Price)
	}
	fmt.Fprintf(&builder, "total: %d원\n", estimate.TotalPrice)
	return builder.String()
}
