package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const monthlyIssuances = `-- name: MonthlyIssuances :many
SELECT EXTRACT(MONTH FROM issuance_date)::int AS month,
       COUNT(*) AS issued,
       COALESCE(SUM(body), 0)::numeric AS total
FROM credits
WHERE EXTRACT(YEAR FROM issuance_date) = $1
GROUP BY 1
ORDER BY 1
`

type MonthlyTotalRow struct {
	Month int32
	Count int64
	Total pgtype.Numeric
}

func (q *Queries) MonthlyIssuances(ctx context.Context, year int32) ([]MonthlyTotalRow, error) {
	return q.monthlyTotals(ctx, monthlyIssuances, year)
}

const monthlyPayments = `-- name: MonthlyPayments :many
SELECT EXTRACT(MONTH FROM payment_date)::int AS month,
       COUNT(*) AS paid,
       COALESCE(SUM(sum), 0)::numeric AS total
FROM payments
WHERE EXTRACT(YEAR FROM payment_date) = $1
GROUP BY 1
ORDER BY 1
`

func (q *Queries) MonthlyPayments(ctx context.Context, year int32) ([]MonthlyTotalRow, error) {
	return q.monthlyTotals(ctx, monthlyPayments, year)
}

const monthlyTargets = `-- name: MonthlyTargets :many
SELECT EXTRACT(MONTH FROM t.period)::int AS month,
       COUNT(*) AS targets,
       COALESCE(SUM(t.sum), 0)::numeric AS total
FROM plan_targets t
JOIN dictionary d ON d.id = t.category_id
WHERE EXTRACT(YEAR FROM t.period) = $1 AND d.name = $2
GROUP BY 1
ORDER BY 1
`

type MonthlyTargetsParams struct {
	Year         int32
	CategoryName string
}

// MonthlyTargets sums plan targets per month for the named category.
func (q *Queries) MonthlyTargets(ctx context.Context, arg MonthlyTargetsParams) ([]MonthlyTotalRow, error) {
	return q.monthlyTotals(ctx, monthlyTargets, arg.Year, arg.CategoryName)
}

func (q *Queries) monthlyTotals(ctx context.Context, query string, args ...interface{}) ([]MonthlyTotalRow, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MonthlyTotalRow
	for rows.Next() {
		var i MonthlyTotalRow
		if err := rows.Scan(&i.Month, &i.Count, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
