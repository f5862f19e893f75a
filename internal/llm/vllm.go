package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// VLLMProvider implements Provider for a vLLM-style HTTP completion
// endpoint that accepts a raw prompt and returns generated text.
type VLLMProvider struct {
	baseURL string
	client  *http.Client
}

// NewVLLM creates a new VLLMProvider.
func NewVLLM(baseURL string, timeout time.Duration) *VLLMProvider {
	if baseURL == "" {
		baseURL = "http://localhost:8000/generate"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &VLLMProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type vllmRequest struct {
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type vllmResponse struct {
	Text string `json:"text"`
}

// Generate sends the prompt to the endpoint and returns the raw text.
// The system instruction is prepended since the endpoint takes a
// single prompt string.
func (p *VLLMProvider) Generate(ctx context.Context, req Request) (string, error) {
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + req.Prompt
	}

	body, err := json.Marshal(vllmRequest{
		Prompt:      prompt,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal vllm request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("vllm api call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vllm api returned status: %d", resp.StatusCode)
	}

	var vResp vllmResponse
	if err := json.NewDecoder(resp.Body).Decode(&vResp); err != nil {
		return "", fmt.Errorf("failed to decode vllm response: %w", err)
	}

	return vResp.Text, nil
}

// Ensure VLLMProvider implements Provider.
var _ Provider = (*VLLMProvider)(nil)
