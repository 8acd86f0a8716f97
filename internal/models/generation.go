package models

import (
	"fmt"
	"time"
)

type Tone string

const (
	ToneFormal       Tone = "formal"
	ToneCasual       Tone = "casual"
	ToneProfessional Tone = "professional"
	ToneFriendly     Tone = "friendly"
)

func (t Tone) Valid() bool {
	switch t {
	case ToneFormal, ToneCasual, ToneProfessional, ToneFriendly:
		return true
	}
	return false
}

type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

func (l Length) Valid() bool {
	switch l {
	case LengthShort, LengthMedium, LengthLong:
		return true
	}
	return false
}

// GenerationRequest describes one post to generate. It is built once per
// UI action and not mutated afterwards.
type GenerationRequest struct {
	Topic              string   `json:"topic"`
	Category           string   `json:"category,omitempty"`
	Keywords           []string `json:"keywords,omitempty"`
	Tone               Tone     `json:"tone"`
	Length             Length   `json:"length"`
	StyleProfilePrompt string   `json:"style_profile_prompt,omitempty"`
	UseStyle           bool     `json:"use_style"`
	Streaming          bool     `json:"streaming"`
}

// Normalize fills defaults and rejects values outside the enums.
func (r GenerationRequest) Normalize() (GenerationRequest, error) {
	if r.Topic == "" {
		return r, fmt.Errorf("topic is required")
	}
	if r.Tone == "" {
		r.Tone = ToneFriendly
	}
	if !r.Tone.Valid() {
		return r, fmt.Errorf("unsupported tone %q", r.Tone)
	}
	if r.Length == "" {
		r.Length = LengthMedium
	}
	if !r.Length.Valid() {
		return r, fmt.Errorf("unsupported length %q", r.Length)
	}
	return r, nil
}

type TokenUsage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	Estimated        bool    `json:"estimated"`
}

type GenerationResult struct {
	Title                string     `json:"title"`
	Content              string     `json:"content"`
	Tags                 []string   `json:"tags"`
	Category             string     `json:"category,omitempty"`
	WordCount            int        `json:"word_count"`
	EstimatedReadMinutes int        `json:"estimated_read_minutes"`
	TokenUsage           TokenUsage `json:"token_usage"`
	GeneratedAt          time.Time  `json:"generated_at"`
}

type TitleSuggestion struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

type SEOSuggestion struct {
	MetaTitle       string   `json:"metaTitle"`
	MetaDescription string   `json:"metaDescription"`
	Keywords        []string `json:"keywords"`
	Suggestions     []string `json:"suggestions"`
}

type ImageAnalysis struct {
	Description string   `json:"description"`
	Objects     []string `json:"objects"`
	Mood        string   `json:"mood"`
}

// Progress stages pushed to the client while a post is being generated.
const (
	StagePreparing         = "preparing"
	StageGeneratingContent = "generating_content"
	StageGeneratingTags    = "generating_tags"
	StageComplete          = "complete"
	StageFailed            = "failed"
)

type GenerationProgress struct {
	Stage       string `json:"stage"`
	Percentage  int    `json:"percentage"`
	Message     string `json:"message"`
	CurrentText string `json:"current_text,omitempty"`
}

type PolishResult struct {
	OriginalText string   `json:"originalText"`
	PolishedText string   `json:"polishedText"`
	Changes      []string `json:"changes"`
}

type SpellCorrection struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Reason    string `json:"reason"`
}

type SpellCheckResult struct {
	HasErrors     bool              `json:"hasErrors"`
	Corrections   []SpellCorrection `json:"corrections"`
	CorrectedText string            `json:"correctedText"`
}

type ParagraphSuggestions struct {
	Suggestions []string `json:"suggestions"`
	Reasoning   string   `json:"reasoning"`
}
