// Package transport defines the chat module's request and response shapes.
package transport

import (
	"github.com/google/uuid"

	"pcbuild_backend/internal/chat/domain"
	"pcbuild_backend/internal/chat/repository"
)

type CreateSessionRequest struct {
	Title string `json:"title" validate:"max=100"`
}

type SubmitMessageRequest struct {
	Message string `json:"message" validate:"required,min=1,max=2000"`
}

type ShareEstimateRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type SessionResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt"`
}

type MessageResponse struct {
	ID         uuid.UUID  `json:"id"`
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	EstimateID *uuid.UUID `json:"estimateId,omitempty"`
	CreatedAt  string     `json:"createdAt"`
}

type EstimateResponse struct {
	ID          uuid.UUID           `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Components  []ComponentResponse `json:"components"`
	TotalPrice  int64               `json:"totalPrice"`
	Notes       string              `json:"notes,omitempty"`
	CreatedAt   string              `json:"createdAt"`
}

type ComponentResponse struct {
	Category    string `json:"category"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Confidence  string `json:"confidence,omitempty"`
}

// ToSessionResponse maps a stored session.
func ToSessionResponse(session repository.ChatSession) SessionResponse {
	return SessionResponse{
		ID:        session.ID,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
}

// ToMessageResponse maps a stored message.
func ToMessageResponse(message repository.ChatMessage) MessageResponse {
	return MessageResponse{
		ID:         message.ID,
		Role:       message.Role,
		Content:    message.Content,
		EstimateID: message.EstimateID,
		CreatedAt:  message.CreatedAt,
	}
}

// ToEstimateResponse maps a stored estimate with its components.
func ToEstimateResponse(estimate repository.Estimate) EstimateResponse {
	return EstimateResponse{
		ID:          estimate.ID,
		Title:       estimate.Title,
		Description: estimate.Description,
		Components:  toComponentResponses(estimate.Components),
		TotalPrice:  estimate.TotalPrice,
		Notes:       estimate.Notes,
		CreatedAt:   estimate.CreatedAt,
	}
}

func toComponentResponses(components []domain.EstimateComponent) []ComponentResponse {
	out := make([]ComponentResponse, 0, len(components))
	for _, component := range components {
		out = append(out, ComponentResponse{
			Category:    string(component.Category),
			Name:        component.Name,
			Price:       component.Price,
			Description: component.Description,
			Image:       component.Image,
			Confidence:  string(component.Confidence),
		})
	}
	return out
}
