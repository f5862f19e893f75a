// Package insight turns computed metrics into a structured narrative
// via the text-completion collaborator.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/salescope/salescope/configs"
	"github.com/salescope/salescope/internal/llm"
	"github.com/salescope/salescope/internal/model"
)

// Context carries everything the synthesizer grounds its narrative on.
type Context struct {
	Stats       any
	Anomalies   []model.AnomalyPoint
	PDFPassages []string
}

// Synthesizer builds the analysis prompt and decodes the structured
// response.
type Synthesizer struct {
	provider    llm.Provider
	model       string
	timeout     time.Duration
	temperature float64
	maxTokens   int
}

// NewSynthesizer creates a synthesizer on top of the given provider.
func NewSynthesizer(provider llm.Provider, cfg configs.LLMConfig) *Synthesizer {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Synthesizer{
		provider:    provider,
		model:       cfg.Model,
		timeout:     timeout,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Run builds the prompt, calls the collaborator and decodes the
// response. A malformed narrative is a hard error; no partial insight
// is ever returned.
func (s *Synthesizer) Run(ctx context.Context, ic Context) (*model.Insight, error) {
	prompt, err := buildPrompt(ic)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		Model:       s.model,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCollaborator, err)
	}

	return parseInsight(raw)
}

// buildPrompt serializes the metrics deterministically into the
// analysis template.
func buildPrompt(ic Context) (string, error) {
	statsJSON, err := json.MarshalIndent(ic.Stats, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize stats: %w", err)
	}

	anomalies := ic.Anomalies
	if anomalies == nil {
		anomalies = []model.AnomalyPoint{}
	}
	anomalyJSON, err := json.MarshalIndent(anomalies, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize anomalies: %w", err)
	}

	prompt := fmt.Sprintf(analysisPromptFormat, statsJSON, anomalyJSON)
	if len(ic.PDFPassages) > 0 {
		prompt += "\n\n" + pdfContextHeader + "\n" + strings.Join(ic.PDFPassages, "\n")
	}
	return prompt, nil
}

// parseInsight decodes the collaborator response, tolerating a fenced
// code block around the JSON but nothing else.
func parseInsight(raw string) (*model.Insight, error) {
	text := stripFences(strings.TrimSpace(raw))

	var decoded struct {
		Summary    *string   `json:"summary"`
		Highlights *[]string `json:"highlights"`
		Risks      *[]string `json:"risks"`
		Actions    *[]string `json:"actions"`
	}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, fmt.Errorf("%w: response is not valid JSON: %v", model.ErrCollaborator, err)
	}
	if decoded.Summary == nil || decoded.Highlights == nil || decoded.Risks == nil || decoded.Actions == nil {
		return nil, fmt.Errorf("%w: response is missing required insight fields", model.ErrCollaborator)
	}

	return &model.Insight{
		Summary:    *decoded.Summary,
		Highlights: *decoded.Highlights,
		Risks:      *decoded.Risks,
		Actions:    *decoded.Actions,
	}, nil
}

// stripFences unwraps a ```json ... ``` fenced block.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
