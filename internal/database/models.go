package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Credit struct {
	ID               int32
	UserID           int32
	IssuanceDate     pgtype.Date
	ReturnDate       pgtype.Date
	ActualReturnDate pgtype.Date
	Body             int32
	Percent          pgtype.Numeric
}

type Dictionary struct {
	ID   int32
	Name string
}

type ImportRun struct {
	ID         pgtype.UUID
	Entity     string
	FileName   string
	TotalRows  int32
	Inserted   int32
	Updated    int32
	Unchanged  int32
	Skipped    int32
	Failed     int32
	Error      pgtype.Text
	StartedAt  pgtype.Timestamptz
	FinishedAt pgtype.Timestamptz
}

type Payment struct {
	ID          int32
	CreditID    int32
	PaymentDate pgtype.Date
	TypeID      int32
	Sum         pgtype.Numeric
	PlanID      pgtype.Int4
}

type Plan struct {
	ID      int32
	Name    string
	Price   pgtype.Numeric
	Credits int32
}

type PlanTarget struct {
	ID         int32
	Period     pgtype.Date
	Sum        int32
	CategoryID int32
}

type User struct {
	ID               int32
	Login            string
	RegistrationDate pgtype.Date
}
