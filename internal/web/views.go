package web

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/creditdesk/internal/core"
)

// htmlWriter stops writing after the first error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) printf(format string, args ...any) {
	if h.err != nil {
		return
	}
	_, h.err = fmt.Fprintf(h.w, format, args...)
}

// text writes s HTML-escaped.
func (h *htmlWriter) text(s string) {
	h.printf("%s", templ.EscapeString(s))
}

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}` +
	`table{border-collapse:collapse}th,td{border:1px solid #d1d5db;padding:.35rem .6rem;text-align:right}` +
	`th{background:#f3f4f6}tfoot td{font-weight:600}` +
	`.alert{border:1px solid #fca5a5;background:#fef2f2;padding:1rem;max-width:40rem}` +
	`.alert .code{color:#6b7280;font-size:.85em}`

// Page wraps body in a minimal HTML document.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`)
		h.text(title)
		h.printf(`</title><style>%s</style></head><body>`, pageStyle)
		if h.err != nil {
			return h.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		h.printf(`</body></html>`)
		return h.err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.printf(`<div class="alert" role="alert"><p><strong>`)
		h.text(message)
		h.printf(`</strong></p>`)
		if action != "" {
			h.printf(`<p>`)
			h.text(action)
			h.printf(`</p>`)
		}
		if code != "" {
			h.printf(`<p class="code">Code: `)
			h.text(code)
			h.printf(`</p>`)
		}
		h.printf(`</div>`)
		return h.err
	})
}

// PerformanceTable renders the monthly plan performance with a totals row.
func PerformanceTable(p *core.YearPerformance) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.printf(`<h1>Plan performance %d</h1><table><thead><tr>`, p.Year)
		for _, col := range performanceColumns {
			h.printf(`<th>`)
			h.text(col)
			h.printf(`</th>`)
		}
		h.printf(`</tr></thead><tbody>`)
		for _, m := range p.Months {
			performanceRow(h, time.Month(m.Month).String(), m)
		}
		h.printf(`</tbody><tfoot>`)
		performanceRow(h, "Total", p.Total)
		h.printf(`</tfoot></table>`)
		return h.err
	})
}

var performanceColumns = []string{
	"Month",
	"Issuances", "Issuance plan", "Issued", "Issuance plan %", "Issuance year share %",
	"Payments", "Payment plan", "Paid", "Payment plan %", "Payment year share %",
}

func performanceRow(h *htmlWriter, label string, m core.MonthPerformance) {
	h.printf(`<tr><td>`)
	h.text(label)
	h.printf(`</td><td>%d</td>`, m.Issuances)
	money(h, m.IssuancePlan, m.IssuedSum, m.IssuancePlanPercent, m.IssuanceYearShare)
	h.printf(`<td>%d</td>`, m.Payments)
	money(h, m.PaymentPlan, m.PaidSum, m.PaymentPlanPercent, m.PaymentYearShare)
	h.printf(`</tr>`)
}

func money(h *htmlWriter, values ...decimal.Decimal) {
	for _, v := range values {
		h.printf(`<td>%s</td>`, v.StringFixed(2))
	}
}
