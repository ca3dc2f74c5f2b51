package storage

import (
	"strings"
	"time"

	"ledger/internal/core"
)

// DateFormat is the canonical storage form for transaction dates. RFC3339 in
// UTC keeps TEXT comparisons consistent with chronological order.
const DateFormat = time.RFC3339

// FormatDate renders a date in the canonical storage form.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateFormat)
}

// BuildListQuery turns a normalized filter into a parameterized SELECT over
// the transactions table. Every present filter field contributes one
// AND-joined condition; results are always ordered by date descending. All
// user-supplied values are bound parameters, never interpolated.
func BuildListQuery(f core.Filter) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT id, type, amount_cents, category, date, description FROM transactions")

	conditions, params := filterConditions(f, true)
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}
	b.WriteString(" ORDER BY date DESC")

	return b.String(), params
}

// BuildSummaryQuery builds the income/expense aggregation over the same
// filter. Only the date-range constraints apply: summary deliberately ignores
// type and category, matching the list/summary contract asymmetry.
func BuildSummaryQuery(f core.Filter) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT" +
		" COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0) AS total_income," +
		" COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0) AS total_expense" +
		" FROM transactions")

	conditions, params := filterConditions(f, false)
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}

	return b.String(), params
}

func filterConditions(f core.Filter, includeTypeAndCategory bool) ([]string, []any) {
	var conditions []string
	var params []any

	if includeTypeAndCategory && f.Type != nil {
		conditions = append(conditions, "type = ?")
		params = append(params, string(*f.Type))
	}
	if f.From != nil {
		conditions = append(conditions, "date >= ?")
		params = append(params, FormatDate(*f.From))
	}
	if f.To != nil {
		conditions = append(conditions, "date <= ?")
		params = append(params, FormatDate(*f.To))
	}
	if includeTypeAndCategory && f.Category != nil {
		conditions = append(conditions, "category = ?")
		params = append(params, *f.Category)
	}

	return conditions, params
}
