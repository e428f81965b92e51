// Package chat provides the estimate conversation bounded context module.
package chat

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"pcbuild_backend/internal/chat/agent"
	"pcbuild_backend/internal/chat/handler"
	"pcbuild_backend/internal/chat/rag"
	"pcbuild_backend/internal/chat/repository"
	"pcbuild_backend/internal/chat/service"
	"pcbuild_backend/internal/events"
	apphttp "pcbuild_backend/internal/http"
	"pcbuild_backend/platform/ai/embeddings"
	"pcbuild_backend/platform/config"
	"pcbuild_backend/platform/logger"
	"pcbuild_backend/platform/qdrant"
	"pcbuild_backend/platform/validator"
)

// ModuleConfig combines the config interfaces the chat module needs.
type ModuleConfig interface {
	config.QdrantConfig
	config.EmbeddingConfig
	config.AssistantConfig
	config.AppConfig
}

// Module is the chat bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.ChatService
	repo    repository.ChatRepository
}

// NewModule creates and initializes the chat module. The redis client and
// email sender may be nil; pool caching and estimate sharing degrade
// gracefully without them.
func NewModule(
	pool *pgxpool.Pool,
	redisClient *redis.Client,
	emailSender service.EmailSender,
	bus events.Bus,
	val *validator.Validator,
	cfg ModuleConfig,
	log *logger.Logger,
) (*Module, error) {
	if !cfg.IsQdrantEnabled() || !cfg.IsEmbeddingEnabled() {
		return nil, fmt.Errorf("chat module requires qdrant and embedding configuration")
	}
	if !cfg.IsAssistantEnabled() {
		return nil, fmt.Errorf("chat module requires assistant configuration")
	}

	repo := repository.New(pool)

	searcher := qdrant.NewClient(qdrant.Config{
		BaseURL:    cfg.GetQdrantURL(),
		APIKey:     cfg.GetQdrantAPIKey(),
		Collection: cfg.GetQdrantCollection(),
	})
	embedder := embeddings.NewClient(embeddings.Config{
		BaseURL: cfg.GetEmbeddingAPIURL(),
		APIKey:  cfg.GetEmbeddingAPIKey(),
	})
	retriever := rag.NewRetriever(embedder, searcher, log)

	advisor, err := agent.NewBuildAdvisorFromConfig(
		cfg.GetAssistantAPIKey(), cfg.GetAssistantBaseURL(), cfg.GetAssistantModel(), log)
	if err != nil {
		return nil, fmt.Errorf("initialize build advisor: %w", err)
	}

	var poolCache service.PoolCache
	if redisClient != nil {
		poolCache = rag.NewPoolCache(redisClient)
	}

	svc := service.New(service.Config{
		Repo:         repo,
		Retriever:    retriever,
		Advisor:      advisor,
		PoolCache:    poolCache,
		Email:        emailSender,
		Bus:          bus,
		Logger:       log,
		ShareBaseURL: cfg.GetAppBaseURL(),
	})

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "chat"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.ChatService {
	return m.service
}

// RegisterRoutes mounts chat routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	sessions := ctx.Protected.Group("/chat/sessions")
	sessions.POST("", m.handler.CreateSession)
	sessions.GET("", m.handler.ListSessions)
	sessions.DELETE("/:id", m.handler.DeleteSession)
	sessions.GET("/:id/messages", m.handler.ListMessages)
	sessions.POST("/:id/messages", m.handler.SubmitMessage)
	sessions.GET("/:id/estimate", m.handler.GetLatestEstimate)
	sessions.GET("/:id/estimate/qr", m.handler.GetEstimateQR)
	sessions.POST("/:id/estimate/share", m.handler.ShareEstimate)
}
