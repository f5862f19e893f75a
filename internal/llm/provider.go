// Package llm abstracts text-completion providers behind a single
// interface so the analysis pipeline stays provider-agnostic.
package llm

import "context"

// Request is a single text-completion request.
type Request struct {
	System      string
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Provider generates a text completion for a request.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}
