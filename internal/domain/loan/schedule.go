package loan

import (
	"fmt"
	"time"
)

// MaxTerms caps the number of installments a single loan may carry.
const MaxTerms = 600

// BuildSchedule splits principal into terms equal installments. The division
// remainder always lands on the final installment so the amounts sum to
// principal exactly.
//
// Installment i is due i months after processedAt. A due date whose day does
// not exist in the target month is clamped to that month's last day
// (Jan 31 + 1 month = Feb 28/29); it never overflows into the following month.
func BuildSchedule(principal int64, terms int, currencyCode string, processedAt time.Time) ([]ScheduledRepayment, error) {
	if terms <= 0 {
		return nil, fmt.Errorf("%w: terms must be >= 1, got %d", ErrInvalidArgument, terms)
	}
	if terms > MaxTerms {
		return nil, fmt.Errorf("%w: terms must be <= %d, got %d", ErrInvalidArgument, MaxTerms, terms)
	}
	if principal < 0 {
		return nil, fmt.Errorf("%w: amount must be >= 0, got %d", ErrInvalidArgument, principal)
	}

	base := principal / int64(terms)
	remainder := principal % int64(terms)
	origin := DateOf(processedAt)

	out := make([]ScheduledRepayment, 0, terms)
	for i := 1; i <= terms; i++ {
		amt := base
		if i == terms {
			amt += remainder
		}
		out = append(out, ScheduledRepayment{
			Seq:               i,
			Amount:            amt,
			OutstandingAmount: amt,
			CurrencyCode:      currencyCode,
			DueDate:           AddMonths(origin, i),
			Status:            StatusFor(amt, amt),
		})
	}
	return out, nil
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths moves a date n months forward, clamping to the last day of the
// target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}
