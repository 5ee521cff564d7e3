package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	db "github.com/JonMunkholm/creditdesk/internal/database"
)

var hundred = decimal.NewFromInt(100)

// UserCredits describes every credit of a user. It fails with
// ErrUserCreditsNotFound when the user has no credits.
func (s *Service) UserCredits(ctx context.Context, userID int32) ([]CreditSummary, error) {
	credits, err := s.queries.ListCreditsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list credits of user %d: %w", userID, err)
	}
	if len(credits) == 0 {
		return nil, fmt.Errorf("user %d: %w", userID, ErrUserCreditsNotFound)
	}

	totals, err := s.queries.ListPaymentTotalsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("payment totals of user %d: %w", userID, err)
	}
	byCredit := make(map[int32]map[string]decimal.Decimal)
	for _, t := range totals {
		if byCredit[t.CreditID] == nil {
			byCredit[t.CreditID] = make(map[string]decimal.Decimal)
		}
		byCredit[t.CreditID][t.TypeName] = DecimalFromPg(t.Total)
	}

	today := truncateDay(s.now())
	out := make([]CreditSummary, len(credits))
	for i, c := range credits {
		out[i] = s.summarize(c, byCredit[c.ID], today)
	}
	return out, nil
}

func (s *Service) summarize(c db.Credit, paid map[string]decimal.Decimal, today time.Time) CreditSummary {
	sum := CreditSummary{
		ID:           c.ID,
		IssuanceDate: NewDate(c.IssuanceDate.Time),
		Body:         c.Body,
		Percent:      DecimalFromPg(c.Percent),
	}

	if c.ActualReturnDate.Valid {
		sum.Closed = true
		returned := NewDate(c.ActualReturnDate.Time)
		sum.ActualReturnDate = &returned
		total := decimal.Zero
		for _, v := range paid {
			total = total.Add(v)
		}
		sum.TotalPayments = &total
		return sum
	}

	due := NewDate(c.ReturnDate.Time)
	sum.ReturnDate = &due
	overdue := max(0, int(today.Sub(due.Time).Hours()/24))
	sum.OverdueDays = &overdue
	body := paid[s.report.BodyPaymentType]
	percent := paid[s.report.PercentPaymentType]
	sum.BodyPayments = &body
	sum.PercentPayments = &percent
	return sum
}

// MinReportYear is the earliest year YearPerformance accepts.
const MinReportYear = 2000

// YearPerformance compares each month's issuances and payments with the
// plan targets of the issuance and collection categories. Years before
// MinReportYear or after next year fail with ErrInvalidYear.
func (s *Service) YearPerformance(ctx context.Context, year int) (*YearPerformance, error) {
	if maxYear := s.now().Year() + 1; year < MinReportYear || year > maxYear {
		return nil, fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidYear, year, MinReportYear, maxYear)
	}
	y := int32(year)

	issued, err := s.queries.MonthlyIssuances(ctx, y)
	if err != nil {
		return nil, fmt.Errorf("monthly issuances: %w", err)
	}
	paid, err := s.queries.MonthlyPayments(ctx, y)
	if err != nil {
		return nil, fmt.Errorf("monthly payments: %w", err)
	}
	issuePlan, err := s.queries.MonthlyTargets(ctx, db.MonthlyTargetsParams{Year: y, CategoryName: s.report.IssuanceCategory})
	if err != nil {
		return nil, fmt.Errorf("issuance targets: %w", err)
	}
	payPlan, err := s.queries.MonthlyTargets(ctx, db.MonthlyTargetsParams{Year: y, CategoryName: s.report.CollectionCategory})
	if err != nil {
		return nil, fmt.Errorf("collection targets: %w", err)
	}

	return buildPerformance(year, byMonth(issued), byMonth(paid), byMonth(issuePlan), byMonth(payPlan)), nil
}

type monthTotal struct {
	count int64
	sum   decimal.Decimal
}

func byMonth(rows []db.MonthlyTotalRow) [13]monthTotal {
	var out [13]monthTotal
	for _, r := range rows {
		if r.Month >= 1 && r.Month <= 12 {
			out[r.Month] = monthTotal{count: r.Count, sum: DecimalFromPg(r.Total)}
		}
	}
	return out
}

func buildPerformance(year int, issued, paid, issuePlan, payPlan [13]monthTotal) *YearPerformance {
	perf := &YearPerformance{Year: year, Months: make([]MonthPerformance, 0, 12)}
	total := &perf.Total

	for m := 1; m <= 12; m++ {
		mp := MonthPerformance{
			Month:               m,
			Issuances:           issued[m].count,
			IssuancePlan:        issuePlan[m].sum,
			IssuedSum:           issued[m].sum,
			IssuancePlanPercent: percentOf(issued[m].sum, issuePlan[m].sum),
			Payments:            paid[m].count,
			PaymentPlan:         payPlan[m].sum,
			PaidSum:             paid[m].sum,
			PaymentPlanPercent:  percentOf(paid[m].sum, payPlan[m].sum),
		}
		perf.Months = append(perf.Months, mp)

		total.Issuances += mp.Issuances
		total.IssuancePlan = total.IssuancePlan.Add(mp.IssuancePlan)
		total.IssuedSum = total.IssuedSum.Add(mp.IssuedSum)
		total.Payments += mp.Payments
		total.PaymentPlan = total.PaymentPlan.Add(mp.PaymentPlan)
		total.PaidSum = total.PaidSum.Add(mp.PaidSum)
	}

	for i := range perf.Months {
		mp := &perf.Months[i]
		mp.IssuanceYearShare = percentOf(mp.IssuedSum, total.IssuedSum)
		mp.PaymentYearShare = percentOf(mp.PaidSum, total.PaidSum)
	}
	total.IssuancePlanPercent = percentOf(total.IssuedSum, total.IssuancePlan)
	total.PaymentPlanPercent = percentOf(total.PaidSum, total.PaymentPlan)
	total.IssuanceYearShare = percentOf(total.IssuedSum, total.IssuedSum)
	total.PaymentYearShare = percentOf(total.PaidSum, total.PaidSum)
	return perf
}

// percentOf returns part/whole*100 rounded to two places, or zero when whole is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}
