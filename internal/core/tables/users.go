package tables

import (
	"context"

	"github.com/JonMunkholm/creditdesk/internal/core"
	db "github.com/JonMunkholm/creditdesk/internal/database"
	"github.com/JonMunkholm/creditdesk/internal/models"
)

func init() {
	registerUsers()
}

// Users are matched by login. A row whose login is already taken by a
// different id fails instead of renumbering the stored user.
func registerUsers() {
	core.Register(core.EntityDefinition{
		Info: core.EntityInfo{
			Key:        "users",
			Label:      "Users",
			NaturalKey: "login",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "id", Type: core.FieldInteger, Required: true},
			{Name: "login", Type: core.FieldText, Required: true, Normalizer: NormalizeLogin},
			{Name: "registration_date", Type: core.FieldDate, Required: true},
		},
		Build: func(row core.Row) (core.Record, error) {
			return validated(models.User{
				ID:               row.Int32("id"),
				Login:            row.Text("login"),
				RegistrationDate: row.Date("registration_date"),
			})
		},
		Lookup: func(ctx context.Context, dbtx core.DBTX, rec core.Record) (core.Record, bool, error) {
			u, err := db.New(dbtx).GetUserByLogin(ctx, rec.(models.User).Login)
			return lookupResult(userFromDB(u), err)
		},
		Insert: func(ctx context.Context, dbtx core.DBTX, rec core.Record) error {
			u := rec.(models.User)
			return db.New(dbtx).InsertUser(ctx, db.InsertUserParams{
				ID:               u.ID,
				Login:            u.Login,
				RegistrationDate: core.PgDate(u.RegistrationDate),
			})
		},
		Update: updateUser,
		Equal:  equalAs[models.User],
	})
}

func updateUser(ctx context.Context, dbtx core.DBTX, existing, rec core.Record) error {
	old, u := existing.(models.User), rec.(models.User)
	if old.ID != u.ID {
		return core.RowErrorf("login %q belongs to user %d", u.Login, old.ID)
	}
	return db.New(dbtx).UpdateUser(ctx, db.UpdateUserParams{
		Login:            u.Login,
		RegistrationDate: core.PgDate(u.RegistrationDate),
	})
}

func userFromDB(u db.User) models.User {
	return models.User{
		ID:               u.ID,
		Login:            u.Login,
		RegistrationDate: u.RegistrationDate.Time,
	}
}
