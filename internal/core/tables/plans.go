package tables

import (
	"context"

	"github.com/JonMunkholm/creditdesk/internal/core"
	db "github.com/JonMunkholm/creditdesk/internal/database"
	"github.com/JonMunkholm/creditdesk/internal/models"
)

func init() {
	registerPlans()
}

func registerPlans() {
	core.Register(core.EntityDefinition{
		Info: core.EntityInfo{
			Key:        "plans",
			Label:      "Payment plans",
			NaturalKey: "id",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "id", Type: core.FieldInteger, Required: true},
			{Name: "name", Type: core.FieldText, Required: true},
			{Name: "price", Type: core.FieldNumeric, Required: true},
			{Name: "credits", Type: core.FieldInteger, Required: true},
		},
		Build: func(row core.Row) (core.Record, error) {
			return validated(models.PaymentPlan{
				ID:      row.Int32("id"),
				Name:    row.Text("name"),
				Price:   row.Decimal("price"),
				Credits: row.Int32("credits"),
			})
		},
		Lookup: func(ctx context.Context, dbtx core.DBTX, rec core.Record) (core.Record, bool, error) {
			p, err := db.New(dbtx).GetPlan(ctx, rec.(models.PaymentPlan).ID)
			return lookupResult(models.PaymentPlan{
				ID:      p.ID,
				Name:    p.Name,
				Price:   core.DecimalFromPg(p.Price),
				Credits: p.Credits,
			}, err)
		},
		Insert: func(ctx context.Context, dbtx core.DBTX, rec core.Record) error {
			p := rec.(models.PaymentPlan)
			return db.New(dbtx).InsertPlan(ctx, db.InsertPlanParams{
				ID:      p.ID,
				Name:    p.Name,
				Price:   core.PgNumeric(p.Price),
				Credits: p.Credits,
			})
		},
		Update: func(ctx context.Context, dbtx core.DBTX, _, rec core.Record) error {
			p := rec.(models.PaymentPlan)
			return db.New(dbtx).UpdatePlan(ctx, db.UpdatePlanParams{
				ID:      p.ID,
				Name:    p.Name,
				Price:   core.PgNumeric(p.Price),
				Credits: p.Credits,
			})
		},
		Equal: equalAs[models.PaymentPlan],
	})
}
