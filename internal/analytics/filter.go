// Package analytics computes KPIs, trends, breakdowns and anomalies
// over the fact store.
package analytics

import (
	"strings"

	"github.com/salescope/salescope/internal/model"
)

// dateLayout is the wire format for date parameters.
const dateLayout = "2006-01-02"

// CompileFilter translates a structured filter into an AND-connected
// predicate plus its positional parameter list. Clause order is fixed:
// date lower bound, date upper bound, region, category. The leading
// trivially-true clause keeps an all-absent filter valid, and the
// parameter list always aligns with the placeholders left to right.
func CompileFilter(f model.Filter) (string, []any) {
	clauses := []string{"1=1"}
	args := make([]any, 0, 4)

	if f.StartDate != nil {
		clauses = append(clauses, "date >= CAST(? AS DATE)")
		args = append(args, f.StartDate.Format(dateLayout))
	}
	if f.EndDate != nil {
		clauses = append(clauses, "date <= CAST(? AS DATE)")
		args = append(args, f.EndDate.Format(dateLayout))
	}
	if f.Region != "" {
		clauses = append(clauses, "region = ?")
		args = append(args, f.Region)
	}
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}

	return strings.Join(clauses, " AND "), args
}
