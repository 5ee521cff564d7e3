package database

import (
	"context"
)

const getDictionaryEntry = `-- name: GetDictionaryEntry :one
SELECT id, name FROM dictionary
WHERE id = $1
`

func (q *Queries) GetDictionaryEntry(ctx context.Context, id int32) (Dictionary, error) {
	row := q.db.QueryRow(ctx, getDictionaryEntry, id)
	var i Dictionary
	err := row.Scan(&i.ID, &i.Name)
	return i, err
}

const insertDictionaryEntry = `-- name: InsertDictionaryEntry :exec
INSERT INTO dictionary (id, name)
VALUES ($1, $2)
`

type InsertDictionaryEntryParams struct {
	ID   int32
	Name string
}

func (q *Queries) InsertDictionaryEntry(ctx context.Context, arg InsertDictionaryEntryParams) error {
	_, err := q.db.Exec(ctx, insertDictionaryEntry, arg.ID, arg.Name)
	return err
}

const updateDictionaryEntry = `-- name: UpdateDictionaryEntry :exec
UPDATE dictionary SET name = $2
WHERE id = $1
`

type UpdateDictionaryEntryParams struct {
	ID   int32
	Name string
}

func (q *Queries) UpdateDictionaryEntry(ctx context.Context, arg UpdateDictionaryEntryParams) error {
	_, err := q.db.Exec(ctx, updateDictionaryEntry, arg.ID, arg.Name)
	return err
}
