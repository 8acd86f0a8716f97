package llm

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"blogtwin-backend/internal/cache"
	"blogtwin-backend/internal/models"
	"blogtwin-backend/internal/prompts"
)

const (
	textCacheTTL         = time.Hour
	textCachePrefix      = "llm_text_"
	imageAnalysisTokens  = 1000
	imagePostTokens      = 2500
	categoryPostTokens   = 3000
	usageLogWriteTimeout = 5 * time.Second
)

var (
	imageObjectKeywords = []string{"사람", "동물", "건물", "자동차", "나무", "꽃", "음식"}

	// Checked in order, first match wins.
	imageMoodKeywords = []struct {
		mood     string
		keywords []string
	}{
		{"happy", []string{"밝은", "행복", "즐거운", "화사한"}},
		{"calm", []string{"평화로운", "고요한", "차분한", "여유로운"}},
		{"dramatic", []string{"극적인", "강렬한", "인상적인"}},
		{"cozy", []string{"아늑한", "따뜻한", "편안한"}},
	}
)

// UsageLogger records one row per provider call. Failures are logged only.
type UsageLogger interface {
	LogGeneration(ctx context.Context, entry models.GenerationLog) error
}

type Config struct {
	Pricing       Pricing
	CharsPerToken int
	// Lang is the output language for the composite post prompts.
	Lang string
}

// Client is the generation entry point. Non-streaming text calls are
// cache-aside; streaming calls always reach the provider.
type Client struct {
	provider  Provider
	cache     *cache.Store
	pricing   Pricing
	estimator TokenEstimator
	usage     UsageLogger
	lang      string
}

func NewClient(provider Provider, store *cache.Store, cfg Config, usage UsageLogger) *Client {
	if cfg.Pricing == (Pricing{}) {
		cfg.Pricing = DefaultPricing()
	}
	return &Client{
		provider:  provider,
		cache:     store,
		pricing:   cfg.Pricing,
		estimator: TokenEstimator{CharsPerToken: cfg.CharsPerToken},
		usage:     usage,
		lang:      cfg.Lang,
	}
}

func (c *Client) Pricing() Pricing { return c.pricing }

func (c *Client) GenerateText(ctx context.Context, messages []Message, opts Options) (*Completion, error) {
	req := Request{
		Messages:    messages,
		Temperature: opts.temperature(),
		MaxTokens:   opts.maxTokens(),
	}

	if opts.Streaming {
		return c.stream(ctx, req, opts.OnChunk)
	}

	fetch := func(ctx context.Context) (*Completion, error) {
		return c.complete(ctx, req)
	}
	if c.cache == nil {
		return fetch(ctx)
	}
	return cache.GetOrFetch(ctx, c.cache, c.cacheKey(req), fetch, cache.WithTTL(textCacheTTL), cache.Persist())
}

func (c *Client) complete(ctx context.Context, req Request) (*Completion, error) {
	resp, err := c.provider.Complete(ctx, req)
	if err != nil {
		err = classify(c.provider, err)
		c.logUsage(ctx, c.provider.Name(), models.TokenUsage{}, err)
		return nil, err
	}

	usage := c.usageFor(req.Messages, resp)
	c.logUsage(ctx, resp.Model, usage, nil)
	return &Completion{Content: resp.Content, Usage: usage}, nil
}

func (c *Client) stream(ctx context.Context, req Request, onChunk func(string)) (*Completion, error) {
	resp, err := c.provider.Stream(ctx, req, onChunk)
	if err != nil {
		err = classify(c.provider, err)
		c.logUsage(ctx, c.provider.Name(), models.TokenUsage{}, err)
		return nil, err
	}

	usage := c.usageFor(req.Messages, resp)
	c.logUsage(ctx, resp.Model+"-stream", usage, nil)
	return &Completion{Content: resp.Content, Usage: usage}, nil
}

func (c *Client) usageFor(messages []Message, resp *Response) models.TokenUsage {
	if !resp.HasUsage {
		return c.estimator.EstimateUsage(c.pricing, messages, resp.Content)
	}
	return c.pricing.Usage(resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens)
}

func (c *Client) cacheKey(req Request) string {
	data, _ := json.Marshal(struct {
		Provider string  `json:"provider"`
		Request  Request `json:"request"`
	}{c.provider.Name(), req})
	sum := blake2b.Sum256(data)
	return textCachePrefix + hex.EncodeToString(sum[:])
}

// AnalyzeImage runs one vision call. Objects and mood come from plain
// keyword matching on the description.
func (c *Client) AnalyzeImage(ctx context.Context, imageURL, prompt string) (*models.ImageAnalysis, error) {
	if prompt == "" {
		prompt = prompts.ImageDescription(c.lang)
	}

	resp, err := c.provider.DescribeImage(ctx, imageURL, prompt, imageAnalysisTokens)
	if err != nil {
		err = classify(c.provider, err)
		c.logUsage(ctx, c.provider.Name()+"-vision", models.TokenUsage{}, err)
		return nil, err
	}

	usage := c.usageFor([]Message{User(prompt)}, resp)
	c.logUsage(ctx, resp.Model, usage, nil)

	return &models.ImageAnalysis{
		Description: resp.Content,
		Objects:     extractObjects(resp.Content),
		Mood:        extractMood(resp.Content),
	}, nil
}

// GeneratePostFromImage describes the image first, then writes a post from
// the description.
func (c *Client) GeneratePostFromImage(ctx context.Context, imageURL, styleText string) (*PostResult, error) {
	analysis, err := c.AnalyzeImage(ctx, imageURL, prompts.ImageAnalysis(c.lang))
	if err != nil {
		return nil, err
	}

	messages := []Message{
		System(prompts.System(styleText, c.lang)),
		User(prompts.ImagePost([]string{analysis.Description}, "", c.lang)),
	}
	return c.generatePost(ctx, messages, Options{MaxTokens: imagePostTokens})
}

func (c *Client) GeneratePostByCategory(ctx context.Context, category, topic, styleText string, opts Options) (*PostResult, error) {
	messages := []Message{
		System(prompts.System(styleText, c.lang)),
		User(prompts.SimpleCategoryPost(category, topic, c.lang)),
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = categoryPostTokens
	}
	return c.generatePost(ctx, messages, opts)
}

func (c *Client) generatePost(ctx context.Context, messages []Message, opts Options) (*PostResult, error) {
	completion, err := c.GenerateText(ctx, messages, opts)
	if err != nil {
		return nil, err
	}
	title, content, tags, err := ParsePost(completion.Content)
	if err != nil {
		return nil, err
	}
	return &PostResult{Title: title, Content: content, Tags: tags, Usage: completion.Usage}, nil
}

func (c *Client) logUsage(ctx context.Context, model string, usage models.TokenUsage, callErr error) {
	log.Printf("llm: model=%s prompt_tokens=%d completion_tokens=%d cost=$%.4f estimated=%t err=%v",
		model, usage.PromptTokens, usage.CompletionTokens, usage.EstimatedCostUSD, usage.Estimated, callErr)

	if c.usage == nil {
		return
	}
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return
	}

	entry := models.GenerationLog{
		UserID:           userID,
		Model:            model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		EstimatedCost:    usage.EstimatedCostUSD,
		Success:          callErr == nil,
		CreatedAt:        time.Now().UTC(),
	}
	if callErr != nil {
		msg := callErr.Error()
		entry.ErrorMessage = &msg
	}

	go func() {
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), usageLogWriteTimeout)
		defer cancel()
		if err := c.usage.LogGeneration(writeCtx, entry); err != nil {
			log.Printf("llm: failed to write generation log for user %s: %v", userID, err)
		}
	}()
}

func extractObjects(description string) []string {
	objects := []string{}
	for _, k := range imageObjectKeywords {
		if strings.Contains(description, k) {
			objects = append(objects, k)
		}
	}
	return objects
}

func extractMood(description string) string {
	for _, m := range imageMoodKeywords {
		for _, k := range m.keywords {
			if strings.Contains(description, k) {
				return m.mood
			}
		}
	}
	return "neutral"
}
