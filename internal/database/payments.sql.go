package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getPayment = `-- name: GetPayment :one
SELECT id, credit_id, payment_date, type_id, sum, plan_id FROM payments
WHERE id = $1
`

func (q *Queries) GetPayment(ctx context.Context, id int32) (Payment, error) {
	row := q.db.QueryRow(ctx, getPayment, id)
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.CreditID,
		&i.PaymentDate,
		&i.TypeID,
		&i.Sum,
		&i.PlanID,
	)
	return i, err
}

const insertPayment = `-- name: InsertPayment :exec
INSERT INTO payments (id, credit_id, payment_date, type_id, sum, plan_id)
VALUES ($1, $2, $3, $4, $5, $6)
`

type InsertPaymentParams struct {
	ID          int32
	CreditID    int32
	PaymentDate pgtype.Date
	TypeID      int32
	Sum         pgtype.Numeric
	PlanID      pgtype.Int4
}

func (q *Queries) InsertPayment(ctx context.Context, arg InsertPaymentParams) error {
	_, err := q.db.Exec(ctx, insertPayment,
		arg.ID,
		arg.CreditID,
		arg.PaymentDate,
		arg.TypeID,
		arg.Sum,
		arg.PlanID,
	)
	return err
}

const updatePayment = `-- name: UpdatePayment :exec
UPDATE payments SET
    credit_id = $2,
    payment_date = $3,
    type_id = $4,
    sum = $5,
    plan_id = $6
WHERE id = $1
`

type UpdatePaymentParams struct {
	ID          int32
	CreditID    int32
	PaymentDate pgtype.Date
	TypeID      int32
	Sum         pgtype.Numeric
	PlanID      pgtype.Int4
}

func (q *Queries) UpdatePayment(ctx context.Context, arg UpdatePaymentParams) error {
	_, err := q.db.Exec(ctx, updatePayment,
		arg.ID,
		arg.CreditID,
		arg.PaymentDate,
		arg.TypeID,
		arg.Sum,
		arg.PlanID,
	)
	return err
}

const listPaymentTotalsByUser = `-- name: ListPaymentTotalsByUser :many
SELECT p.credit_id, d.name AS type_name, SUM(p.sum)::numeric AS total
FROM payments p
JOIN credits c ON c.id = p.credit_id
JOIN dictionary d ON d.id = p.type_id
WHERE c.user_id = $1
GROUP BY p.credit_id, d.name
ORDER BY p.credit_id, d.name
`

type ListPaymentTotalsByUserRow struct {
	CreditID int32
	TypeName string
	Total    pgtype.Numeric
}

// ListPaymentTotalsByUser returns the payment sum per credit and payment type
// for every credit owned by the user.
func (q *Queries) ListPaymentTotalsByUser(ctx context.Context, userID int32) ([]ListPaymentTotalsByUserRow, error) {
	rows, err := q.db.Query(ctx, listPaymentTotalsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListPaymentTotalsByUserRow
	for rows.Next() {
		var i ListPaymentTotalsByUserRow
		if err := rows.Scan(&i.CreditID, &i.TypeName, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
