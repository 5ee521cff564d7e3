package tables

import (
	"context"

	"github.com/JonMunkholm/creditdesk/internal/core"
	db "github.com/JonMunkholm/creditdesk/internal/database"
	"github.com/JonMunkholm/creditdesk/internal/models"
)

func init() {
	registerPayments()
}

func registerPayments() {
	core.Register(core.EntityDefinition{
		Info: core.EntityInfo{
			Key:        "payments",
			Label:      "Payments",
			NaturalKey: "id",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "id", Type: core.FieldInteger, Required: true},
			{Name: "credit_id", Type: core.FieldInteger, Required: true},
			{Name: "payment_date", Type: core.FieldDate, Required: true},
			{Name: "type_id", Type: core.FieldInteger, Required: true},
			{Name: "sum", Type: core.FieldNumeric, Required: true},
			{Name: "plan_id", Type: core.FieldInteger, AllowEmpty: true},
		},
		Build: func(row core.Row) (core.Record, error) {
			return validated(models.Payment{
				ID:          row.Int32("id"),
				CreditID:    row.Int32("credit_id"),
				PaymentDate: row.Date("payment_date"),
				TypeID:      row.Int32("type_id"),
				Sum:         row.Decimal("sum"),
				PlanID:      row.OptInt32("plan_id"),
			})
		},
		Lookup: func(ctx context.Context, dbtx core.DBTX, rec core.Record) (core.Record, bool, error) {
			p, err := db.New(dbtx).GetPayment(ctx, rec.(models.Payment).ID)
			return lookupResult(models.Payment{
				ID:          p.ID,
				CreditID:    p.CreditID,
				PaymentDate: p.PaymentDate.Time,
				TypeID:      p.TypeID,
				Sum:         core.DecimalFromPg(p.Sum),
				PlanID:      core.Int32PtrFromPg(p.PlanID),
			}, err)
		},
		Insert: func(ctx context.Context, dbtx core.DBTX, rec core.Record) error {
			p := rec.(models.Payment)
			return db.New(dbtx).InsertPayment(ctx, db.InsertPaymentParams{
				ID:          p.ID,
				CreditID:    p.CreditID,
				PaymentDate: core.PgDate(p.PaymentDate),
				TypeID:      p.TypeID,
				Sum:         core.PgNumeric(p.Sum),
				PlanID:      core.PgInt4Ptr(p.PlanID),
			})
		},
		Update: func(ctx context.Context, dbtx core.DBTX, _, rec core.Record) error {
			p := rec.(models.Payment)
			return db.New(dbtx).UpdatePayment(ctx, db.UpdatePaymentParams{
				ID:          p.ID,
				CreditID:    p.CreditID,
				PaymentDate: core.PgDate(p.PaymentDate),
				TypeID:      p.TypeID,
				Sum:         core.PgNumeric(p.Sum),
				PlanID:      core.PgInt4Ptr(p.PlanID),
			})
		},
		Equal: equalAs[models.Payment],
	})
}
