package llm

import (
	"context"

	"github.com/google/uuid"

	"blogtwin-backend/internal/models"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message      { return Message{Role: RoleUser, Content: content} }
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
)

// Options tune a text generation call. A nil Temperature means 0.7 and a
// zero MaxTokens means 2000.
type Options struct {
	Temperature *float64
	MaxTokens   int
	Streaming   bool
	// OnChunk receives each streamed delta. Ignored unless Streaming is set.
	OnChunk func(chunk string)
}

func Float(v float64) *float64 { return &v }

func (o Options) temperature() float64 {
	if o.Temperature == nil {
		return defaultTemperature
	}
	return *o.Temperature
}

func (o Options) maxTokens() int {
	if o.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return o.MaxTokens
}

// Request is what a Provider sends upstream.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Response is a provider reply. HasUsage is false when the provider did not
// report token counts.
type Response struct {
	Model            string
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	HasUsage         bool
}

// Provider is one LLM backend speaking chat completions.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
	Stream(ctx context.Context, req Request, onChunk func(string)) (*Response, error)
	DescribeImage(ctx context.Context, imageURL, prompt string, maxTokens int) (*Response, error)
	// Classify maps a provider-specific failure onto an *Error.
	Classify(err error) *Error
}

type Completion struct {
	Content string            `json:"content"`
	Usage   models.TokenUsage `json:"usage"`
}

type PostResult struct {
	Title   string            `json:"title"`
	Content string            `json:"content"`
	Tags    []string          `json:"tags,omitempty"`
	Usage   models.TokenUsage `json:"usage"`
}

type userKey struct{}

// WithUserID tags ctx so generation logs are attributed to the user.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userKey{}).(uuid.UUID)
	return id, ok
}
