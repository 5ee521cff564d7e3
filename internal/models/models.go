// Package models defines the validated records stored by creditdesk.
//
// Records are produced by the CSV loader after type coercion and are
// validated with struct tags before they reach the database. Field names in
// validation errors use the `csv` tag so they match the column headers an
// operator sees in the source file.
package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DictionaryEntry is a lookup value (payment type, plan category).
type DictionaryEntry struct {
	ID   int32  `csv:"id" json:"id" validate:"gt=0"`
	Name string `csv:"name" json:"name" validate:"required,max=255"`
}

func (d DictionaryEntry) NaturalKey() string { return strconv.Itoa(int(d.ID)) }

// Equal reports whether both entries hold the same values.
func (d DictionaryEntry) Equal(o DictionaryEntry) bool {
	return d == o
}

// User is an account holder. Login is unique.
type User struct {
	ID               int32     `csv:"id" json:"id" validate:"gt=0"`
	Login            string    `csv:"login" json:"login" validate:"required,max=255"`
	RegistrationDate time.Time `csv:"registration_date" json:"registration_date" validate:"required"`
}

func (u User) NaturalKey() string { return u.Login }

func (u User) Equal(o User) bool {
	return u.ID == o.ID && u.Login == o.Login && u.RegistrationDate.Equal(o.RegistrationDate)
}

// PaymentPlan is a named tier with a price and a credit allotment.
type PaymentPlan struct {
	ID      int32           `csv:"id" json:"id" validate:"gt=0"`
	Name    string          `csv:"name" json:"name" validate:"required,max=255"`
	Price   decimal.Decimal `csv:"price" json:"price" validate:"gte=0"`
	Credits int32           `csv:"credits" json:"credits" validate:"gte=0"`
}

func (p PaymentPlan) NaturalKey() string { return strconv.Itoa(int(p.ID)) }

func (p PaymentPlan) Equal(o PaymentPlan) bool {
	return p.ID == o.ID && p.Name == o.Name && p.Price.Equal(o.Price) && p.Credits == o.Credits
}

// Credit is a loan issued to a user. A credit is closed once
// ActualReturnDate is set.
type Credit struct {
	ID               int32           `csv:"id" json:"id" validate:"gt=0"`
	UserID           int32           `csv:"user_id" json:"user_id" validate:"gt=0"`
	IssuanceDate     time.Time       `csv:"issuance_date" json:"issuance_date" validate:"required"`
	ReturnDate       time.Time       `csv:"return_date" json:"return_date" validate:"required,gtefield=IssuanceDate"`
	ActualReturnDate *time.Time      `csv:"actual_return_date" json:"actual_return_date,omitempty" validate:"omitempty,gtefield=IssuanceDate"`
	Body             int32           `csv:"body" json:"body" validate:"gte=0"`
	Percent          decimal.Decimal `csv:"percent" json:"percent" validate:"gte=0"`
}

func (c Credit) NaturalKey() string { return strconv.Itoa(int(c.ID)) }

// Closed reports whether the credit has been returned.
func (c Credit) Closed() bool { return c.ActualReturnDate != nil }

func (c Credit) Equal(o Credit) bool {
	return c.ID == o.ID &&
		c.UserID == o.UserID &&
		c.IssuanceDate.Equal(o.IssuanceDate) &&
		c.ReturnDate.Equal(o.ReturnDate) &&
		equalDatePtr(c.ActualReturnDate, o.ActualReturnDate) &&
		c.Body == o.Body &&
		c.Percent.Equal(o.Percent)
}

// Payment is money received against a credit, typed by a dictionary entry
// (for example "body" or "percent") and optionally attributed to a plan.
type Payment struct {
	ID          int32           `csv:"id" json:"id" validate:"gt=0"`
	CreditID    int32           `csv:"credit_id" json:"credit_id" validate:"gt=0"`
	PaymentDate time.Time       `csv:"payment_date" json:"payment_date" validate:"required"`
	TypeID      int32           `csv:"type_id" json:"type_id" validate:"gt=0"`
	Sum         decimal.Decimal `csv:"sum" json:"sum" validate:"gte=0"`
	PlanID      *int32          `csv:"plan_id" json:"plan_id,omitempty" validate:"omitempty,gt=0"`
}

func (p Payment) NaturalKey() string { return strconv.Itoa(int(p.ID)) }

func (p Payment) Equal(o Payment) bool {
	return p.ID == o.ID &&
		p.CreditID == o.CreditID &&
		p.PaymentDate.Equal(o.PaymentDate) &&
		p.TypeID == o.TypeID &&
		p.Sum.Equal(o.Sum) &&
		equalInt32Ptr(p.PlanID, o.PlanID)
}

// PlanTarget is the planned amount for one category in one month.
type PlanTarget struct {
	Period     time.Time `csv:"period" json:"period" validate:"required,firstofmonth"`
	Sum        int32     `csv:"sum" json:"sum" validate:"gte=0"`
	CategoryID int32     `csv:"category_id" json:"category_id" validate:"gt=0"`
}

func equalDatePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalInt32Ptr(a, b *int32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
