package insight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/salescope/salescope/configs"
	"github.com/salescope/salescope/internal/llm"
	"github.com/salescope/salescope/internal/model"
)

const validInsightJSON = `{
  "summary": "Sales grew steadily.",
  "highlights": ["EMEA up 12%"],
  "risks": ["APAC flat"],
  "actions": ["Review APAC pricing"]
}`

func TestSynthesizerRun(t *testing.T) {
	provider := &llm.MockProvider{Response: validInsightJSON}
	synth := NewSynthesizer(provider, configs.LLMConfig{TimeoutSeconds: 10})

	insight, err := synth.Run(context.Background(), Context{
		Stats: map[string]any{"total_sales": 1500.0},
	})
	if err != nil {
		t.Fatalf("Expected run to succeed, got %v", err)
	}

	if insight.Summary != "Sales grew steadily." {
		t.Errorf("Expected summary 'Sales grew steadily.', got '%s'", insight.Summary)
	}
	if len(insight.Highlights) != 1 || insight.Highlights[0] != "EMEA up 12%" {
		t.Errorf("Expected one highlight, got %v", insight.Highlights)
	}
	if len(insight.Risks) != 1 {
		t.Errorf("Expected one risk, got %v", insight.Risks)
	}
	if len(insight.Actions) != 1 {
		t.Errorf("Expected one action, got %v", insight.Actions)
	}
}

func TestSynthesizerRunFencedResponse(t *testing.T) {
	provider := &llm.MockProvider{
		Response: "```json\n" + validInsightJSON + "\n```",
	}
	synth := NewSynthesizer(provider, configs.LLMConfig{TimeoutSeconds: 10})

	insight, err := synth.Run(context.Background(), Context{Stats: map[string]any{}})
	if err != nil {
		t.Fatalf("Expected fenced JSON to be accepted, got %v", err)
	}

	if insight.Summary != "Sales grew steadily." {
		t.Errorf("Expected summary 'Sales grew steadily.', got '%s'", insight.Summary)
	}
}

func TestSynthesizerRunMalformedResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"Not JSON", "Sales look great overall!"},
		{"Missing keys", `{"summary": "ok", "highlights": []}`},
		{"Wrong types", `{"summary": 1, "highlights": [], "risks": [], "actions": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &llm.MockProvider{Response: tt.response}
			synth := NewSynthesizer(provider, configs.LLMConfig{TimeoutSeconds: 10})

			_, err := synth.Run(context.Background(), Context{Stats: map[string]any{}})
			if err == nil {
				t.Fatal("Expected malformed response to be rejected")
			}
			if !errors.Is(err, model.ErrCollaborator) {
				t.Errorf("Expected ErrCollaborator, got %v", err)
			}
		})
	}
}

func TestSynthesizerRunProviderFailure(t *testing.T) {
	provider := &llm.MockProvider{Err: errors.New("backend down")}
	synth := NewSynthesizer(provider, configs.LLMConfig{TimeoutSeconds: 10})

	_, err := synth.Run(context.Background(), Context{Stats: map[string]any{}})
	if err == nil {
		t.Fatal("Expected provider failure to surface")
	}
	if !errors.Is(err, model.ErrCollaborator) {
		t.Errorf("Expected ErrCollaborator, got %v", err)
	}
}

func TestBuildPromptSections(t *testing.T) {
	var captured llm.Request
	provider := &llm.MockProvider{
		GenerateFunc: func(ctx context.Context, req llm.Request) (string, error) {
			captured = req
			return validInsightJSON, nil
		},
	}
	synth := NewSynthesizer(provider, configs.LLMConfig{TimeoutSeconds: 10})

	_, err := synth.Run(context.Background(), Context{
		Stats:       map[string]any{"total_sales": 1500.0},
		PDFPassages: []string{"Q1 revenue exceeded plan."},
	})
	if err != nil {
		t.Fatalf("Expected run to succeed, got %v", err)
	}

	if !strings.Contains(captured.Prompt, "SALES METRICS:") {
		t.Error("Expected prompt to contain the metrics section")
	}
	if !strings.Contains(captured.Prompt, "DETECTED ANOMALIES:") {
		t.Error("Expected prompt to contain the anomalies section")
	}
	if !strings.Contains(captured.Prompt, "PDF CONTEXT:") {
		t.Error("Expected prompt to contain the PDF section")
	}
	if !strings.Contains(captured.Prompt, "Q1 revenue exceeded plan.") {
		t.Error("Expected prompt to contain the PDF passage")
	}
}

func TestBuildPromptOmitsEmptyPDFSection(t *testing.T) {
	prompt, err := buildPrompt(Context{Stats: map[string]any{}})
	if err != nil {
		t.Fatalf("Expected prompt build to succeed, got %v", err)
	}

	if strings.Contains(prompt, pdfContextHeader) {
		t.Error("Expected no PDF section without passages")
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain text", `{"a": 1}`, `{"a": 1}`},
		{"Json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"Bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripFences(tt.input)
			if got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}
