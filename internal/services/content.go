package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"blogtwin-backend/internal/llm"
	"blogtwin-backend/internal/models"
	"blogtwin-backend/internal/prompts"
	"blogtwin-backend/internal/queue"
	"blogtwin-backend/internal/textproc"
)

var maxTokensByLength = map[models.Length]int{
	models.LengthShort:  1500,
	models.LengthMedium: 2500,
	models.LengthLong:   4000,
}

// Interactive requests jump ahead of background ones in the throttler.
const (
	PriorityBackground  = 0
	PriorityInteractive = 5
)

// ContentService turns UI actions into generation calls. Every provider call
// goes through the shared throttler.
type ContentService struct {
	llm      *llm.Client
	queue    *queue.Throttler
	styles   *StyleService
	notifier Notifier
	lang     string
	now      func() time.Time
}

func NewContentService(client *llm.Client, throttler *queue.Throttler, styles *StyleService, notifier Notifier, lang string) *ContentService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ContentService{
		llm:      client,
		queue:    throttler,
		styles:   styles,
		notifier: notifier,
		lang:     lang,
		now:      time.Now,
	}
}

// GeneratePost writes one post for req. When the request asks for the user's
// style and carries no prompt, the stored profile is used; a missing or
// unreadable profile falls back to the unstyled prompt.
func (s *ContentService) GeneratePost(ctx context.Context, userID uuid.UUID, req models.GenerationRequest) (*models.GenerationResult, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, &ValidationError{Errors: []string{err.Error()}}
	}

	ctx = llm.WithUserID(ctx, userID)
	requestID := uuid.New()
	s.progress(ctx, userID, requestID, models.StagePreparing, 10, "Preparing prompt", "")

	styleText := req.StyleProfilePrompt
	if styleText == "" && req.UseStyle && s.styles != nil {
		styleText, err = s.styles.PromptFor(ctx, userID)
		if err != nil {
			log.Printf("content: style profile unavailable for user %s, generating without it: %v", userID, err)
			styleText = ""
		}
	}

	messages := []llm.Message{
		llm.System(prompts.System(styleText, s.lang)),
		llm.User(prompts.CategoryPost(prompts.CategoryPostVars{
			Topic:                  req.Topic,
			Category:               req.Category,
			Keywords:               req.Keywords,
			Tone:                   string(req.Tone),
			Length:                 string(req.Length),
			AdditionalInstructions: prompts.CategoryGuide(req.Category),
		}, s.lang)),
	}

	opts := llm.Options{MaxTokens: maxTokensByLength[req.Length], Streaming: req.Streaming}
	if req.Streaming {
		var sb strings.Builder
		opts.OnChunk = func(chunk string) {
			sb.WriteString(chunk)
			s.progress(ctx, userID, requestID, models.StageGeneratingContent, 50, "Writing", sb.String())
		}
	}

	s.progress(ctx, userID, requestID, models.StageGeneratingContent, 30, "Generating content", "")
	completion, err := s.generate(ctx, PriorityInteractive, messages, opts)
	if err != nil {
		s.progress(ctx, userID, requestID, models.StageFailed, 100, err.Error(), "")
		return nil, err
	}

	title, content, tags, err := llm.ParsePost(completion.Content)
	if err != nil {
		s.progress(ctx, userID, requestID, models.StageFailed, 100, err.Error(), "")
		return nil, err
	}
	s.progress(ctx, userID, requestID, models.StageGeneratingTags, 90, "Finishing up", "")

	if tags == nil {
		tags = []string{}
	}
	result := &models.GenerationResult{
		Title:                title,
		Content:              content,
		Tags:                 tags,
		Category:             req.Category,
		WordCount:            textproc.ComputeStats(content).WordCount,
		EstimatedReadMinutes: textproc.EstimateReadingMinutes(content),
		TokenUsage:           completion.Usage,
		GeneratedAt:          s.now().UTC(),
	}

	s.progress(ctx, userID, requestID, models.StageComplete, 100, "Done", "")
	return result, nil
}

// GenerateFromImages describes each image in turn, then writes one post from
// all the descriptions.
func (s *ContentService) GenerateFromImages(ctx context.Context, userID uuid.UUID, imageURLs []string, extra string, useStyle bool) (*models.GenerationResult, error) {
	if len(imageURLs) == 0 {
		return nil, &ValidationError{Errors: []string{"at least one image is required"}}
	}
	ctx = llm.WithUserID(ctx, userID)

	descriptions := make([]string, 0, len(imageURLs))
	for _, url := range imageURLs {
		analysis, err := throttled(ctx, s.queue, PriorityInteractive, func(ctx context.Context) (*models.ImageAnalysis, error) {
			return s.llm.AnalyzeImage(ctx, url, prompts.ImageAnalysis(s.lang))
		})
		if err != nil {
			return nil, fmt.Errorf("analyze image: %w", err)
		}
		descriptions = append(descriptions, analysis.Description)
	}

	styleText := ""
	if useStyle && s.styles != nil {
		if text, err := s.styles.PromptFor(ctx, userID); err == nil {
			styleText = text
		}
	}

	messages := []llm.Message{
		llm.System(prompts.System(styleText, s.lang)),
		llm.User(prompts.ImagePost(descriptions, extra, s.lang)),
	}
	completion, err := s.generate(ctx, PriorityInteractive, messages, llm.Options{MaxTokens: maxTokensByLength[models.LengthMedium]})
	if err != nil {
		return nil, err
	}
	title, content, tags, err := llm.ParsePost(completion.Content)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}

	return &models.GenerationResult{
		Title:                title,
		Content:              content,
		Tags:                 tags,
		WordCount:            textproc.ComputeStats(content).WordCount,
		EstimatedReadMinutes: textproc.EstimateReadingMinutes(content),
		TokenUsage:           completion.Usage,
		GeneratedAt:          s.now().UTC(),
	}, nil
}

func (s *ContentService) ImproveTitles(ctx context.Context, userID uuid.UUID, title, content string) ([]models.TitleSuggestion, error) {
	out, err := generateJSON[struct {
		Titles []models.TitleSuggestion `json:"titles"`
	}](llm.WithUserID(ctx, userID), s, []llm.Message{
		llm.User(prompts.TitleImprovement(title, content, s.lang)),
	}, llm.Options{MaxTokens: 500}, "titles")
	if err != nil {
		return nil, err
	}
	return out.Titles, nil
}

func (s *ContentService) GenerateHashtags(ctx context.Context, userID uuid.UUID, title, content string, count int) ([]string, error) {
	out, err := generateJSON[struct {
		Tags []string `json:"tags"`
	}](llm.WithUserID(ctx, userID), s, []llm.Message{
		llm.User(prompts.Hashtags(title, content, count, s.lang)),
	}, llm.Options{MaxTokens: 200}, "tags")
	if err != nil {
		return nil, err
	}
	return out.Tags, nil
}

func (s *ContentService) ExpandContent(ctx context.Context, userID uuid.UUID, content, sectionName string) (string, error) {
	return s.generatePlain(llm.WithUserID(ctx, userID), prompts.ContentExpansion(content, sectionName, s.lang), llm.Options{MaxTokens: 500})
}

func (s *ContentService) AdjustTone(ctx context.Context, userID uuid.UUID, content string, tone models.Tone) (string, error) {
	if !tone.Valid() {
		return "", &ValidationError{Errors: []string{fmt.Sprintf("unsupported tone %q", tone)}}
	}
	return s.generatePlain(llm.WithUserID(ctx, userID), prompts.ToneAdjustment(content, string(tone), s.lang), llm.Options{MaxTokens: 3000})
}

func (s *ContentService) Summarize(ctx context.Context, userID uuid.UUID, content string, maxLength int) (string, error) {
	return s.generatePlain(llm.WithUserID(ctx, userID), prompts.Summary(content, maxLength, s.lang), llm.Options{MaxTokens: 200})
}

func (s *ContentService) Introduction(ctx context.Context, userID uuid.UUID, topic, style string) (string, error) {
	return s.generatePlain(llm.WithUserID(ctx, userID), prompts.Introduction(topic, style, s.lang), llm.Options{MaxTokens: 400})
}

func (s *ContentService) Conclusion(ctx context.Context, userID uuid.UUID, content, style string) (string, error) {
	return s.generatePlain(llm.WithUserID(ctx, userID), prompts.Conclusion(content, style, s.lang), llm.Options{MaxTokens: 300})
}

func (s *ContentService) OptimizeSEO(ctx context.Context, userID uuid.UUID, title, content string) (*models.SEOSuggestion, error) {
	out, err := generateJSON[models.SEOSuggestion](llm.WithUserID(ctx, userID), s, []llm.Message{
		llm.User(prompts.SEO(title, content, s.lang)),
	}, llm.Options{MaxTokens: 800}, "metaTitle", "metaDescription", "keywords")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Polish rewrites text for flow while keeping its meaning.
func (s *ContentService) Polish(ctx context.Context, userID uuid.UUID, text, style string) (*models.PolishResult, error) {
	out, err := generateJSON[models.PolishResult](llm.WithUserID(ctx, userID), s, []llm.Message{
		llm.System(prompts.Polish(style, s.lang)),
		llm.User(text),
	}, llm.Options{Temperature: llm.Float(0.3), MaxTokens: 1000}, "polishedText")
	if err != nil {
		return nil, err
	}
	out.OriginalText = text
	if out.Changes == nil {
		out.Changes = []string{}
	}
	return &out, nil
}

func (s *ContentService) SpellCheck(ctx context.Context, userID uuid.UUID, text string) (*models.SpellCheckResult, error) {
	out, err := generateJSON[models.SpellCheckResult](llm.WithUserID(ctx, userID), s, []llm.Message{
		llm.System(prompts.SpellCheck(s.lang)),
		llm.User(text),
	}, llm.Options{Temperature: llm.Float(0.1), MaxTokens: 1500}, "hasErrors", "correctedText")
	if err != nil {
		return nil, err
	}
	if out.Corrections == nil {
		out.Corrections = []models.SpellCorrection{}
	}
	return &out, nil
}

func (s *ContentService) SuggestNextParagraph(ctx context.Context, userID uuid.UUID, topic, content string) (*models.ParagraphSuggestions, error) {
	out, err := generateJSON[models.ParagraphSuggestions](llm.WithUserID(ctx, userID), s, []llm.Message{
		llm.System(prompts.NextParagraphSystem(s.lang)),
		llm.User(prompts.NextParagraph(topic, content)),
	}, llm.Options{Temperature: llm.Float(0.7), MaxTokens: 800}, "suggestions")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// throttled retries fn on rate limits. Every attempt is its own queue item,
// so retries share the throttler's interval and per-minute cap.
func throttled[T any](ctx context.Context, q *queue.Throttler, priority int, fn func(ctx context.Context) (T, error)) (T, error) {
	return llm.RetryWithBackoff(ctx, llm.DefaultMaxRetries, func(ctx context.Context) (T, error) {
		return queue.Do(ctx, q, priority, fn)
	})
}

func (s *ContentService) generate(ctx context.Context, priority int, messages []llm.Message, opts llm.Options) (*llm.Completion, error) {
	return throttled(ctx, s.queue, priority, func(ctx context.Context) (*llm.Completion, error) {
		return s.llm.GenerateText(ctx, messages, opts)
	})
}

func (s *ContentService) generatePlain(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	completion, err := s.generate(ctx, PriorityInteractive, []llm.Message{llm.User(prompt)}, opts)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(completion.Content), nil
}

func generateJSON[T any](ctx context.Context, s *ContentService, messages []llm.Message, opts llm.Options, required ...string) (T, error) {
	var zero T
	completion, err := s.generate(ctx, PriorityInteractive, messages, opts)
	if err != nil {
		return zero, err
	}
	return llm.DecodeJSON[T](completion.Content, required...)
}

func (s *ContentService) progress(ctx context.Context, userID, requestID uuid.UUID, stage string, pct int, message, text string) {
	s.notifier.Notify(ctx, userID, progressMessage(requestID, stage, pct, message, text))
}
