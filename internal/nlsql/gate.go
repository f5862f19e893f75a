// Package nlsql turns natural-language questions into guarded SELECT
// queries against the fact table.
package nlsql

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/salescope/salescope/configs"
	"github.com/salescope/salescope/internal/llm"
	"github.com/salescope/salescope/internal/model"
	"github.com/salescope/salescope/internal/storage"
)

// allowedKeywords is the lexical allow-list for generated SQL. It is
// deliberately conservative: well-formed but unlisted constructs get
// rejected, because a false rejection is cheaper than a false accept.
var allowedKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "group": true,
	"by": true, "order": true, "limit": true, "asc": true,
	"desc": true, "and": true, "or": true, "sum": true,
	"avg": true, "count": true,
}

// allowedColumns admits the fact table's column names in addition to
// the keyword allow-list.
var allowedColumns = func() map[string]bool {
	m := make(map[string]bool, len(model.CanonicalColumns))
	for _, c := range model.CanonicalColumns {
		m[c] = true
	}
	return m
}()

var (
	selectPattern  = regexp.MustCompile(`(?is)^\s*select\s+.+`)
	tokenPattern   = regexp.MustCompile(`[a-z_]+`)
	denySubstrings = []string{"drop", "delete", "update", "insert"}
)

// systemInstruction pins the collaborator to read-only single-table SQL.
const systemInstruction = "Act as a senior data analyst. Produce only a DuckDB-compatible SELECT query. " +
	"DROP/INSERT/UPDATE are forbidden. Single table: fact_sales."

// Gate generates SQL from a question and validates it before running
// it against the store.
type Gate struct {
	store       storage.Store
	provider    llm.Provider
	model       string
	timeout     time.Duration
	temperature float64
	maxTokens   int
}

// NewGate creates a gate that executes validated queries on the store.
func NewGate(store storage.Store, provider llm.Provider, cfg configs.LLMConfig) *Gate {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gate{
		store:       store,
		provider:    provider,
		model:       cfg.Model,
		timeout:     timeout,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Query asks the collaborator for SQL answering the question,
// validates it, bounds it with a row limit and executes it.
func (g *Gate) Query(ctx context.Context, question string, limit int) (*model.NLQueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.provider.Generate(ctx, llm.Request{
		System:      systemInstruction,
		Prompt:      "User question: " + question + "\nReturn only SQL (no explanations).",
		Model:       g.model,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCollaborator, err)
	}

	sqlText := strings.TrimSpace(raw)
	if err := ValidateSQL(sqlText); err != nil {
		return nil, err
	}

	limited := AppendLimit(sqlText, limit)
	rows, err := g.store.Query(ctx, limited)
	if err != nil {
		return nil, fmt.Errorf("failed to execute generated sql: %w", err)
	}

	return &model.NLQueryResult{SQL: limited, Rows: rows}, nil
}

// ValidateSQL rejects anything that is not a plain SELECT over
// fact_sales built from allow-listed keywords and known columns.
func ValidateSQL(sqlText string) error {
	if !selectPattern.MatchString(sqlText) {
		return fmt.Errorf("%w: only SELECT statements are allowed", model.ErrUnsafeSQL)
	}

	lowered := strings.ToLower(sqlText)
	if !strings.Contains(lowered, model.FactTable) {
		return fmt.Errorf("%w: query must target %s", model.ErrUnsafeSQL, model.FactTable)
	}
	for _, deny := range denySubstrings {
		if strings.Contains(lowered, deny) {
			return fmt.Errorf("%w: forbidden keyword %q", model.ErrUnsafeSQL, deny)
		}
	}
	for _, token := range tokenPattern.FindAllString(lowered, -1) {
		if allowedKeywords[token] || allowedColumns[token] || token == model.FactTable {
			continue
		}
		return fmt.Errorf("%w: unexpected token %q", model.ErrUnsafeSQL, token)
	}

	return nil
}

// AppendLimit bounds the result set when the query does not already
// carry a limit clause.
func AppendLimit(sqlText string, limit int) string {
	if limit <= 0 {
		limit = 100
	}
	if strings.Contains(strings.ToLower(sqlText), "limit") {
		return sqlText
	}
	return fmt.Sprintf("%s LIMIT %d", strings.TrimRight(sqlText, ";"), limit)
}
