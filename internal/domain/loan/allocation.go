package loan

import (
	"cmp"
	"slices"
)

// Allocation is the portion of a payment applied to one installment.
type Allocation struct {
	Installment *ScheduledRepayment
	Applied     int64
}

// SortByDue orders installments earliest obligation first, ties by id.
func SortByDue(items []*ScheduledRepayment) {
	slices.SortStableFunc(items, func(a, b *ScheduledRepayment) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		if c := cmp.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})
}

// Allocate applies amount greedily over installments in due-date order,
// mutating their outstanding balance and status. It returns one allocation
// per installment touched and whatever could not be applied.
func Allocate(installments []*ScheduledRepayment, amount int64) ([]Allocation, int64) {
	items := slices.Clone(installments)
	SortByDue(items)

	remaining := amount
	var out []Allocation
	for _, s := range items {
		if remaining <= 0 {
			break
		}
		if s.OutstandingAmount <= 0 {
			continue
		}
		applied := min(s.OutstandingAmount, remaining)
		s.OutstandingAmount -= applied
		s.Status = StatusFor(s.Amount, s.OutstandingAmount)
		remaining -= applied
		out = append(out, Allocation{Installment: s, Applied: applied})
	}
	return out, remaining
}

// Outstanding sums installment balances.
func Outstanding(installments []ScheduledRepayment) int64 {
	var total int64
	for _, s := range installments {
		total += s.OutstandingAmount
	}
	return total
}
