package models

import (
	"time"

	"github.com/google/uuid"
)

type GenerationLog struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	EstimatedCost    float64   `json:"estimated_cost"`
	Success          bool      `json:"success"`
	ErrorMessage     *string   `json:"error_message"`
	CreatedAt        time.Time `json:"created_at"`
}

type UsageStats struct {
	TotalRequests           int     `json:"total_requests"`
	TotalTokens             int     `json:"total_tokens"`
	TotalCost               float64 `json:"total_cost"`
	SuccessRate             float64 `json:"success_rate"`
	AverageTokensPerRequest float64 `json:"average_tokens_per_request"`
}
