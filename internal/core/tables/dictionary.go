package tables

import (
	"context"

	"github.com/JonMunkholm/creditdesk/internal/core"
	db "github.com/JonMunkholm/creditdesk/internal/database"
	"github.com/JonMunkholm/creditdesk/internal/models"
)

func init() {
	registerDictionary()
}

func registerDictionary() {
	core.Register(core.EntityDefinition{
		Info: core.EntityInfo{
			Key:        "dictionary",
			Label:      "Dictionary",
			NaturalKey: "id",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "id", Type: core.FieldInteger, Required: true},
			{Name: "name", Type: core.FieldText, Required: true, Normalizer: NormalizeDictionaryName},
		},
		Build: func(row core.Row) (core.Record, error) {
			return validated(models.DictionaryEntry{
				ID:   row.Int32("id"),
				Name: row.Text("name"),
			})
		},
		Lookup: func(ctx context.Context, dbtx core.DBTX, rec core.Record) (core.Record, bool, error) {
			d, err := db.New(dbtx).GetDictionaryEntry(ctx, rec.(models.DictionaryEntry).ID)
			return lookupResult(models.DictionaryEntry{ID: d.ID, Name: d.Name}, err)
		},
		Insert: func(ctx context.Context, dbtx core.DBTX, rec core.Record) error {
			d := rec.(models.DictionaryEntry)
			return db.New(dbtx).InsertDictionaryEntry(ctx, db.InsertDictionaryEntryParams{ID: d.ID, Name: d.Name})
		},
		Update: func(ctx context.Context, dbtx core.DBTX, _, rec core.Record) error {
			d := rec.(models.DictionaryEntry)
			return db.New(dbtx).UpdateDictionaryEntry(ctx, db.UpdateDictionaryEntryParams{ID: d.ID, Name: d.Name})
		},
		Equal: equalAs[models.DictionaryEntry],
	})
}
