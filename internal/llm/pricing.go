package llm

import (
	"math"
	"strings"
	"unicode/utf8"

	"blogtwin-backend/internal/models"
)

// Pricing is USD per 1K tokens.
type Pricing struct {
	PromptPer1K     float64
	CompletionPer1K float64
}

func DefaultPricing() Pricing {
	return Pricing{PromptPer1K: 0.03, CompletionPer1K: 0.06}
}

func (p Pricing) Cost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)/1000*p.PromptPer1K + float64(completionTokens)/1000*p.CompletionPer1K
}

func (p Pricing) Usage(promptTokens, completionTokens, totalTokens int) models.TokenUsage {
	if totalTokens == 0 {
		totalTokens = promptTokens + completionTokens
	}
	return models.TokenUsage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      totalTokens,
		EstimatedCostUSD: p.Cost(promptTokens, completionTokens),
	}
}

// TokenEstimator approximates token counts from text length when the
// provider reports none.
type TokenEstimator struct {
	CharsPerToken int
}

func (e TokenEstimator) Estimate(text string) int {
	cpt := e.CharsPerToken
	if cpt <= 0 {
		cpt = 4
	}
	return int(math.Ceil(float64(utf8.RuneCountInString(text)) / float64(cpt)))
}

func (e TokenEstimator) EstimateUsage(p Pricing, messages []Message, completion string) models.TokenUsage {
	parts := make([]string, len(messages))
	for i, m := range messages {
		parts[i] = m.Content
	}
	usage := p.Usage(e.Estimate(strings.Join(parts, " ")), e.Estimate(completion), 0)
	usage.Estimated = true
	return usage
}
