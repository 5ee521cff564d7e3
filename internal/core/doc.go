// Package core loads CSV files into the creditdesk tables and answers the
// bookkeeping queries built on them. It has no HTTP or CLI dependencies and
// is used by both cmd/loader and cmd/server.
//
// # Entity Registry
//
// Each loadable entity is registered at init time using [Register]. An
// [EntityDefinition] declares the CSV columns and binds the database queries:
//
//	core.Register(core.EntityDefinition{
//	    Info: core.EntityInfo{Key: "plans", Label: "Payment plans", NaturalKey: "id"},
//	    FieldSpecs: []core.FieldSpec{
//	        {Name: "id", Type: core.FieldInteger, Required: true},
//	        {Name: "price", Type: core.FieldNumeric, Required: true},
//	    },
//	    Build:  buildPlan,
//	    Lookup: lookupPlan,
//	    Insert: insertPlan,
//	    Update: updatePlan,
//	})
//
// [LoadOrder] lists the entities parents first. [All] returns them in that
// order.
//
// # Load Runs
//
// [Loader.Run] reads the header, checks it against the field specs, then for
// every record: coerces the cells ([CoerceRow]), builds and validates the
// record, looks it up by natural key and inserts, updates or skips it.
//
//   - Row problems (bad values, wrong column count, constraint violations)
//     are collected in [LoadResult.FailedRows] and the run continues.
//   - Fatal problems (missing file, header mismatch, lost connection, commit
//     failure) stop the run.
//
// In [CommitFile] mode the run is one transaction and every row gets a
// savepoint, so a fatal error leaves the table untouched. In [CommitRow] mode
// each row commits on its own.
//
// Only one run per entity may be active in a process ([EntityLeases]); across
// processes the run transaction holds a PostgreSQL advisory lock on the table.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB007: Database errors (duplicates, constraints, connections)
//   - VAL001-VAL008: Validation errors (formats, missing columns)
//   - FILE001-FILE005: File errors (size, encoding, format)
//   - LOAD001-LOAD003: Load errors (lease held, header mismatch, plan exists)
//   - UPL002-UPL005, RPT001-RPT002: Uploads and reports
//   - REQ001: Malformed request parameters
package core
