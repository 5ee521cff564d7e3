package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getUserByLogin = `-- name: GetUserByLogin :one
SELECT id, login, registration_date FROM users
WHERE login = $1
`

func (q *Queries) GetUserByLogin(ctx context.Context, login string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByLogin, login)
	var i User
	err := row.Scan(&i.ID, &i.Login, &i.RegistrationDate)
	return i, err
}

const insertUser = `-- name: InsertUser :exec
INSERT INTO users (id, login, registration_date)
VALUES ($1, $2, $3)
`

type InsertUserParams struct {
	ID               int32
	Login            string
	RegistrationDate pgtype.Date
}

func (q *Queries) InsertUser(ctx context.Context, arg InsertUserParams) error {
	_, err := q.db.Exec(ctx, insertUser, arg.ID, arg.Login, arg.RegistrationDate)
	return err
}

const updateUser = `-- name: UpdateUser :exec
UPDATE users SET registration_date = $2
WHERE login = $1
`

type UpdateUserParams struct {
	Login            string
	RegistrationDate pgtype.Date
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) error {
	_, err := q.db.Exec(ctx, updateUser, arg.Login, arg.RegistrationDate)
	return err
}
