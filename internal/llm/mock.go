package llm

import "context"

// defaultMockResponse is a deterministic insight payload so the whole
// pipeline can run without a live model.
const defaultMockResponse = `{
  "summary": "Sales are stable across the selected period with no sustained decline.",
  "highlights": ["Top products hold a steady share of total revenue.", "Weekly order volume tracks the seasonal baseline."],
  "risks": ["Revenue is concentrated in a small number of regions."],
  "actions": ["Review pricing for low-velocity products.", "Investigate flagged outlier days before the next planning cycle."]
}`

// MockProvider is a testing implementation of Provider.
type MockProvider struct {
	Response     string
	Err          error
	GenerateFunc func(ctx context.Context, req Request) (string, error)
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return defaultMockResponse, nil
}

// Ensure MockProvider implements Provider.
var _ Provider = (*MockProvider)(nil)
