package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"blogtwin-backend/internal/cache"
	"blogtwin-backend/internal/llm"
	"blogtwin-backend/internal/models"
	"blogtwin-backend/internal/queue"
	"blogtwin-backend/internal/repository"
)

// scriptedProvider answers every call with reply(req).
type scriptedProvider struct {
	mu       sync.Mutex
	requests []llm.Request
	images   []string
	reply    func(req llm.Request) (string, error)
	vision   string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	content, err := p.reply(req)
	if err != nil {
		return nil, err
	}
	return &llm.Response{
		Model:            "scripted-model",
		Content:          content,
		PromptTokens:     120,
		CompletionTokens: 80,
		TotalTokens:      200,
		HasUsage:         true,
	}, nil
}

func (p *scriptedProvider) Stream(ctx context.Context, req llm.Request, onChunk func(string)) (*llm.Response, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	content, err := p.reply(req)
	if err != nil {
		return nil, err
	}
	half := len(content) / 2
	onChunk(content[:half])
	onChunk(content[half:])
	return &llm.Response{Model: "scripted-model", Content: content}, nil
}

func (p *scriptedProvider) DescribeImage(ctx context.Context, imageURL, prompt string, maxTokens int) (*llm.Response, error) {
	p.mu.Lock()
	p.images = append(p.images, imageURL)
	p.mu.Unlock()
	return &llm.Response{Model: "scripted-vision", Content: p.vision + " " + imageURL}, nil
}

func (p *scriptedProvider) Classify(err error) *llm.Error { return nil }

func (p *scriptedProvider) lastRequest() llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

func (p *scriptedProvider) userPrompt(req llm.Request) string {
	for _, m := range req.Messages {
		if m.Role == llm.RoleUser {
			return m.Content
		}
	}
	return ""
}

func (p *scriptedProvider) systemPrompt(req llm.Request) string {
	for _, m := range req.Messages {
		if m.Role == llm.RoleSystem {
			return m.Content
		}
	}
	return ""
}

func fixedReply(content string) func(llm.Request) (string, error) {
	return func(llm.Request) (string, error) { return content, nil }
}

func newTestClient(p llm.Provider) (*llm.Client, *queue.Throttler) {
	client := llm.NewClient(p, cache.New(nil, time.Minute), llm.Config{Lang: "ko"}, nil)
	throttler := queue.NewThrottler(queue.Config{
		MinInterval:  time.Millisecond,
		MaxPerMinute: 1000,
		CallTimeout:  5 * time.Second,
	})
	return client, throttler
}

type memProfileStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.StyleProfile
	reads    int
	failGet  error
}

func newMemProfileStore() *memProfileStore {
	return &memProfileStore{profiles: make(map[uuid.UUID]*models.StyleProfile)}
}

func (m *memProfileStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.StyleProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.failGet != nil {
		return nil, m.failGet
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfileStore) Upsert(ctx context.Context, p *models.StyleProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []models.WSMessage
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) stages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.messages {
		if ev, ok := m.Payload.(models.ProgressEvent); ok {
			out = append(out, ev.Progress.Stage)
		}
	}
	return out
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("여행 ", n))
}
