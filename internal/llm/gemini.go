package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const maxImageBytes = 20 << 20

// GeminiProvider serves the same contract through Gemini. Chat history maps
// onto a chat session and the system message onto SystemInstruction.
type GeminiProvider struct {
	client      *genai.Client
	textModel   string
	visionModel string
	httpClient  *http.Client
}

type GeminiConfig struct {
	APIKey      string
	TextModel   string
	VisionModel string
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if cfg.TextModel == "" {
		cfg.TextModel = "gemini-1.5-pro"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.TextModel
	}
	return &GeminiProvider{
		client:      client,
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (g *GeminiProvider) Close() {
	g.client.Close()
}

func (g *GeminiProvider) Name() string { return "gemini" }

func (g *GeminiProvider) session(modelName string, req Request) (*genai.ChatSession, []genai.Part) {
	model := g.client.GenerativeModel(modelName)
	model.SetTemperature(float32(req.Temperature))
	model.SetMaxOutputTokens(int32(req.MaxTokens))

	var system []string
	var history []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}

	cs := model.StartChat()
	var last []genai.Part
	if n := len(history); n > 0 {
		last = history[n-1].Parts
		cs.History = history[:n-1]
	}
	return cs, last
}

func (g *GeminiProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	cs, last := g.session(g.textModel, req)
	if len(last) == 0 {
		return nil, newError(KindInvalidRequest, "no user message to send", nil)
	}
	resp, err := cs.SendMessage(ctx, last...)
	if err != nil {
		return nil, err
	}
	return geminiResponse(g.textModel, resp), nil
}

func (g *GeminiProvider) Stream(ctx context.Context, req Request, onChunk func(string)) (*Response, error) {
	cs, last := g.session(g.textModel, req)
	if len(last) == 0 {
		return nil, newError(KindInvalidRequest, "no user message to send", nil)
	}

	iter := cs.SendMessageStream(ctx, last...)
	var b strings.Builder
	var final *genai.GenerateContentResponse
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		final = resp
		if delta := extractText(resp); delta != "" {
			b.WriteString(delta)
			if onChunk != nil {
				onChunk(delta)
			}
		}
	}

	out := &Response{Model: g.textModel, Content: b.String()}
	if final != nil && final.UsageMetadata != nil {
		fillGeminiUsage(out, final.UsageMetadata)
	}
	return out, nil
}

func (g *GeminiProvider) DescribeImage(ctx context.Context, imageURL, prompt string, maxTokens int) (*Response, error) {
	mimeType, data, err := g.loadImage(ctx, imageURL)
	if err != nil {
		return nil, newError(KindInvalidRequest, fmt.Sprintf("could not load image: %v", err), err)
	}

	model := g.client.GenerativeModel(g.visionModel)
	model.SetMaxOutputTokens(int32(maxTokens))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt), genai.Blob{MIMEType: mimeType, Data: data})
	if err != nil {
		return nil, err
	}
	return geminiResponse(g.visionModel, resp), nil
}

// loadImage accepts data: URLs and http(s) URLs.
func (g *GeminiProvider) loadImage(ctx context.Context, imageURL string) (string, []byte, error) {
	if strings.HasPrefix(imageURL, "data:") {
		meta, payload, ok := strings.Cut(strings.TrimPrefix(imageURL, "data:"), ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return "", nil, errors.New("unsupported data URL")
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("failed to decode data URL: %w", err)
		}
		return strings.TrimSuffix(meta, ";base64"), data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("image fetch returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", nil, err
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return mimeType, data, nil
}

func geminiResponse(model string, resp *genai.GenerateContentResponse) *Response {
	out := &Response{Model: model, Content: extractText(resp)}
	if resp.UsageMetadata != nil {
		fillGeminiUsage(out, resp.UsageMetadata)
	}
	return out
}

func fillGeminiUsage(out *Response, u *genai.UsageMetadata) {
	out.PromptTokens = int(u.PromptTokenCount)
	out.CompletionTokens = int(u.CandidatesTokenCount)
	out.TotalTokens = int(u.TotalTokenCount)
	out.HasUsage = u.TotalTokenCount > 0
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

// Classify reads the gRPC status carried by Gemini API errors.
func (g *GeminiProvider) Classify(err error) *Error {
	st, ok := status.FromError(err)
	if !ok {
		return nil
	}
	msg := st.Message()
	switch st.Code() {
	case codes.ResourceExhausted:
		if strings.Contains(strings.ToLower(msg), "quota") {
			return newError(KindQuotaExceeded, ErrQuotaExceeded.Message, err)
		}
		return newError(KindRateLimited, ErrRateLimited.Message, err)
	case codes.InvalidArgument, codes.FailedPrecondition:
		return newError(KindInvalidRequest, ErrInvalidRequest.Message, err)
	case codes.DeadlineExceeded:
		return newError(KindTimeout, ErrTimeout.Message, err)
	}
	return newError(KindProvider, fmt.Sprintf("gemini API error: %s", msg), err)
}
