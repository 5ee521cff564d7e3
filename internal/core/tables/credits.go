package tables

import (
	"context"

	"github.com/JonMunkholm/creditdesk/internal/core"
	db "github.com/JonMunkholm/creditdesk/internal/database"
	"github.com/JonMunkholm/creditdesk/internal/models"
)

func init() {
	registerCredits()
}

func registerCredits() {
	core.Register(core.EntityDefinition{
		Info: core.EntityInfo{
			Key:        "credits",
			Label:      "Credits",
			NaturalKey: "id",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "id", Type: core.FieldInteger, Required: true},
			{Name: "user_id", Type: core.FieldInteger, Required: true},
			{Name: "issuance_date", Type: core.FieldDate, Required: true},
			{Name: "return_date", Type: core.FieldDate, Required: true},
			{Name: "actual_return_date", Type: core.FieldDate, Required: true, AllowEmpty: true},
			{Name: "body", Type: core.FieldInteger, Required: true},
			{Name: "percent", Type: core.FieldNumeric, Required: true},
		},
		Build: func(row core.Row) (core.Record, error) {
			return validated(models.Credit{
				ID:               row.Int32("id"),
				UserID:           row.Int32("user_id"),
				IssuanceDate:     row.Date("issuance_date"),
				ReturnDate:       row.Date("return_date"),
				ActualReturnDate: row.OptDate("actual_return_date"),
				Body:             row.Int32("body"),
				Percent:          row.Decimal("percent"),
			})
		},
		Lookup: func(ctx context.Context, dbtx core.DBTX, rec core.Record) (core.Record, bool, error) {
			c, err := db.New(dbtx).GetCredit(ctx, rec.(models.Credit).ID)
			return lookupResult(creditFromDB(c), err)
		},
		Insert: func(ctx context.Context, dbtx core.DBTX, rec core.Record) error {
			c := rec.(models.Credit)
			return db.New(dbtx).InsertCredit(ctx, db.InsertCreditParams{
				ID:               c.ID,
				UserID:           c.UserID,
				IssuanceDate:     core.PgDate(c.IssuanceDate),
				ReturnDate:       core.PgDate(c.ReturnDate),
				ActualReturnDate: core.PgDatePtr(c.ActualReturnDate),
				Body:             c.Body,
				Percent:          core.PgNumeric(c.Percent),
			})
		},
		Update: func(ctx context.Context, dbtx core.DBTX, _, rec core.Record) error {
			c := rec.(models.Credit)
			return db.New(dbtx).UpdateCredit(ctx, db.UpdateCreditParams{
				ID:               c.ID,
				UserID:           c.UserID,
				IssuanceDate:     core.PgDate(c.IssuanceDate),
				ReturnDate:       core.PgDate(c.ReturnDate),
				ActualReturnDate: core.PgDatePtr(c.ActualReturnDate),
				Body:             c.Body,
				Percent:          core.PgNumeric(c.Percent),
			})
		},
		Equal: equalAs[models.Credit],
	})
}

func creditFromDB(c db.Credit) models.Credit {
	return models.Credit{
		ID:               c.ID,
		UserID:           c.UserID,
		IssuanceDate:     c.IssuanceDate.Time,
		ReturnDate:       c.ReturnDate.Time,
		ActualReturnDate: core.DatePtrFromPg(c.ActualReturnDate),
		Body:             c.Body,
		Percent:          core.DecimalFromPg(c.Percent),
	}
}
