package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements Provider for the OpenAI chat API.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	apiKey  string
	baseURL string
}

// OpenAIOption configures the OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithOpenAIModel sets the default model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.model = model
	}
}

// WithOpenAIAPIKey sets the API key.
func WithOpenAIAPIKey(apiKey string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.apiKey = apiKey
	}
}

// WithOpenAIBaseURL sets a custom base URL (for Azure OpenAI or proxies).
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.baseURL = url
	}
}

// NewOpenAI creates a new OpenAI provider. The API key falls back to
// the OPENAI_API_KEY environment variable.
func NewOpenAI(opts ...OpenAIOption) *OpenAIProvider {
	p := &OpenAIProvider{model: "gpt-4o-mini"}
	for _, opt := range opts {
		opt(p)
	}

	var ropts []option.RequestOption
	if p.apiKey != "" {
		ropts = append(ropts, option.WithAPIKey(p.apiKey))
	}
	if p.baseURL != "" {
		ropts = append(ropts, option.WithBaseURL(p.baseURL))
	}
	p.client = openai.NewClient(ropts...)

	return p
}

// Generate implements Provider.
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

// Ensure OpenAIProvider implements Provider.
var _ Provider = (*OpenAIProvider)(nil)
