package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getCredit = `-- name: GetCredit :one
SELECT id, user_id, issuance_date, return_date, actual_return_date, body, percent FROM credits
WHERE id = $1
`

func (q *Queries) GetCredit(ctx context.Context, id int32) (Credit, error) {
	row := q.db.QueryRow(ctx, getCredit, id)
	var i Credit
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.IssuanceDate,
		&i.ReturnDate,
		&i.ActualReturnDate,
		&i.Body,
		&i.Percent,
	)
	return i, err
}

const insertCredit = `-- name: InsertCredit :exec
INSERT INTO credits (id, user_id, issuance_date, return_date, actual_return_date, body, percent)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type InsertCreditParams struct {
	ID               int32
	UserID           int32
	IssuanceDate     pgtype.Date
	ReturnDate       pgtype.Date
	ActualReturnDate pgtype.Date
	Body             int32
	Percent          pgtype.Numeric
}

func (q *Queries) InsertCredit(ctx context.Context, arg InsertCreditParams) error {
	_, err := q.db.Exec(ctx, insertCredit,
		arg.ID,
		arg.UserID,
		arg.IssuanceDate,
		arg.ReturnDate,
		arg.ActualReturnDate,
		arg.Body,
		arg.Percent,
	)
	return err
}

const updateCredit = `-- name: UpdateCredit :exec
UPDATE credits SET
    user_id = $2,
    issuance_date = $3,
    return_date = $4,
    actual_return_date = $5,
    body = $6,
    percent = $7
WHERE id = $1
`

type UpdateCreditParams struct {
	ID               int32
	UserID           int32
	IssuanceDate     pgtype.Date
	ReturnDate       pgtype.Date
	ActualReturnDate pgtype.Date
	Body             int32
	Percent          pgtype.Numeric
}

func (q *Queries) UpdateCredit(ctx context.Context, arg UpdateCreditParams) error {
	_, err := q.db.Exec(ctx, updateCredit,
		arg.ID,
		arg.UserID,
		arg.IssuanceDate,
		arg.ReturnDate,
		arg.ActualReturnDate,
		arg.Body,
		arg.Percent,
	)
	return err
}

const listCreditsByUser = `-- name: ListCreditsByUser :many
SELECT id, user_id, issuance_date, return_date, actual_return_date, body, percent FROM credits
WHERE user_id = $1
ORDER BY issuance_date, id
`

func (q *Queries) ListCreditsByUser(ctx context.Context, userID int32) ([]Credit, error) {
	rows, err := q.db.Query(ctx, listCreditsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Credit
	for rows.Next() {
		var i Credit
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.IssuanceDate,
			&i.ReturnDate,
			&i.ActualReturnDate,
			&i.Body,
			&i.Percent,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
