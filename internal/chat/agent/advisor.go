// Package agent hosts the build advisor, the language-model side of the
// estimate pipeline. It owns prompt assembly and the model call; parsing
// and validation of the reply live in the rag package.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/google/uuid"

	"pcbuild_backend/platform/ai/moonshot"
	"pcbuild_backend/platform/logger"
)

const (
	adviseTimeout  = 60 * time.Second
	adviseAttempts = 2
)

// BuildAdvisor runs the PC build recommendation agent. Each invocation uses
// a fresh session; conversation memory is carried in the prompt, not in the
// agent session state.
type BuildAdvisor struct {
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service
	appName        string
	log            *logger.Logger
}

// NewBuildAdvisor builds the advisor agent backed by a Kimi chat model.
func NewBuildAdvisor(chatModel model.LLM, log *logger.Logger) (*BuildAdvisor, error) {
	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "BuildAdvisor",
		Model:       chatModel,
		Description: "Recommends PC builds from a grounded product catalog.",
		Instruction: advisorInstruction,
	})
	if err != nil {
		return nil, fmt.Errorf("create advisor agent: %w", err)
	}

	appName := "pc_build_advisor"
	sessionService := session.InMemoryService()
	adkRunner, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("create advisor runner: %w", err)
	}

	return &BuildAdvisor{
		agent:          adkAgent,
		runner:         adkRunner,
		sessionService: sessionService,
		appName:        appName,
		log:            log,
	}, nil
}

// NewBuildAdvisorFromConfig wires the advisor with a Moonshot-hosted model.
func NewBuildAdvisorFromConfig(apiKey, baseURL, modelName string, log *logger.Logger) (*BuildAdvisor, error) {
	kimi := moonshot.NewModel(moonshot.Config{APIKey: apiKey, BaseURL: baseURL, Model: modelName})
	return NewBuildAdvisor(kimi, log)
}

// Advise sends an assembled prompt to the model and returns the raw reply
// text. Retries once on failure; each attempt runs under its own timeout.
// The chat session ID only labels the agent session for tracing.
func (a *BuildAdvisor) Advise(ctx context.Context, chatSessionID uuid.UUID, prompt string) (string, error) {
	if a.runner == nil || a.sessionService == nil {
		return "", fmt.Errorf("build advisor is not initialized")
	}

	var lastErr error
	for attempt := 1; attempt <= adviseAttempts; attempt++ {
		reply, err := a.runOnce(ctx, chatSessionID, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		a.log.Warn("advisor attempt failed",
			"session_id", chatSessionID,
			"attempt", attempt,
			"error", err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("advise after %d attempts: %w", adviseAttempts, lastErr)
}

func (a *BuildAdvisor) runOnce(ctx context.Context, chatSessionID uuid.UUID, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, adviseTimeout)
	defer cancel()

	userID := "chat-" + chatSessionID.String()
	sessionID := uuid.New().String()

	if _, err := a.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   a.appName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		return "", fmt.Errorf("create agent session: %w", err)
	}

	userMessage := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}

	var output strings.Builder
	for event, err := range a.runner.Run(ctx, userID, sessionID, userMessage, agent.RunConfig{StreamingMode: agent.StreamingModeNone}) {
		if err != nil {
			return "", err
		}
		if event.Content != nil {
			for _, part := range event.Content.Parts {
				output.WriteString(part.Text)
			}
		}
	}

	reply := strings.TrimSpace(output.String())
	if reply == "" {
		return "", fmt.Errorf("advisor returned an empty reply")
	}
	return reply, nil
}

const advisorInstruction = `당신은 PC 조립 견적 전문가입니다. You are a PC build advisor.

You will receive a catalog of real products grouped by category, the
conversation so far, and the user's latest message.

PROTOCOL:
1. When the user wants a build estimate, recommend one product per relevant
   category using ONLY products from the provided catalog.
2. When the user wants to adjust a previous estimate, change only what they
   asked to change and keep the rest.
3. When the user is just chatting or asking a question, answer briefly in
   their language and do not produce an estimate.
4. Follow the reply format rules included with the catalog exactly.`
