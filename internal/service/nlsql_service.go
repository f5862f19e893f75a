package service

import (
	"context"

	"github.com/salescope/salescope/internal/model"
	"github.com/salescope/salescope/internal/nlsql"
)

// defaultQueryLimit bounds NL-to-SQL results when the caller leaves
// the limit unset.
const defaultQueryLimit = 10

// NLSQLService answers natural-language questions through the SQL gate.
type NLSQLService struct {
	gate *nlsql.Gate
}

// NewNLSQLService creates the NL-to-SQL service.
func NewNLSQLService(gate *nlsql.Gate) *NLSQLService {
	return &NLSQLService{gate: gate}
}

// Query generates, validates and executes SQL for the question.
func (s *NLSQLService) Query(ctx context.Context, question string, limit int) (*model.NLQueryResult, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	return s.gate.Query(ctx, question, limit)
}
