package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider talks to the chat completions endpoint with the official SDK.
type OpenAIProvider struct {
	client      openai.Client
	textModel   string
	visionModel string
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	TextModel   string
	VisionModel string
}

func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing")
	}
	if cfg.TextModel == "" {
		return nil, errors.New("openai text model is required")
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.TextModel
	}

	// Retries are owned by RetryWithBackoff and the request queue.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIProvider{
		client:      openai.NewClient(opts...),
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
	}, nil
}

func (o *OpenAIProvider) Name() string { return "openai" }

func (o *OpenAIProvider) params(model string, req Request) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
	}
}

func (o *OpenAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := o.client.Chat.Completions.New(ctx, o.params(o.textModel, req))
	if err != nil {
		return nil, err
	}
	return toResponse(o.textModel, resp)
}

func (o *OpenAIProvider) Stream(ctx context.Context, req Request, onChunk func(string)) (*Response, error) {
	stream := o.client.Chat.Completions.NewStreaming(ctx, o.params(o.textModel, req))
	defer stream.Close()

	var content []byte
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		content = append(content, delta...)
		if onChunk != nil {
			onChunk(delta)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}

	// The stream carries no usage payload.
	return &Response{Model: o.textModel, Content: string(content)}, nil
}

func (o *OpenAIProvider) DescribeImage(ctx context.Context, imageURL, prompt string, maxTokens int) (*Response, error) {
	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(prompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: imageURL}),
	}
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(o.visionModel),
		Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
		MaxTokens: openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return nil, err
	}
	return toResponse(o.visionModel, resp)
}

func toResponse(model string, resp *openai.ChatCompletion) (*Response, error) {
	if len(resp.Choices) == 0 {
		return nil, malformed("openai: empty choices")
	}
	return &Response{
		Model:            model,
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
		HasUsage:         resp.Usage.TotalTokens > 0,
	}, nil
}

// Classify follows the API's error body: quota and invalid-request types win
// over the HTTP status because quota errors are also sent as 429.
func (o *OpenAIProvider) Classify(err error) *Error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return nil
	}
	switch {
	case apiErr.Type == "insufficient_quota" || apiErr.Code == "insufficient_quota":
		return newError(KindQuotaExceeded, ErrQuotaExceeded.Message, err)
	case apiErr.Type == "invalid_request_error":
		return newError(KindInvalidRequest, ErrInvalidRequest.Message, err)
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return newError(KindRateLimited, ErrRateLimited.Message, err)
	}
	msg := apiErr.Message
	if msg == "" {
		msg = err.Error()
	}
	return newError(KindProvider, fmt.Sprintf("openai API error: %s", msg), err)
}
