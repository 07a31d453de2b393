package repayment

import (
	"time"

	loanuc "loan-ledger/internal/usecase/loan"
)

type RepayInput struct {
	LoanID       string
	Amount       int64
	CurrencyCode string
	// Zero means now.
	ReceivedAt time.Time
}

type RepaymentDTO struct {
	PaymentID string `json:"payment_id"`
	LoanID    string `json:"loan_id"`
	Amount    int64  `json:"amount"`
	Applied   int64  `json:"applied_amount"`
	// Excess beyond the loan's outstanding balance; dropped, never stored.
	Unapplied    int64               `json:"unapplied_amount"`
	CurrencyCode string              `json:"currency_code"`
	ReceivedAt   time.Time           `json:"received_at"`
	Allocations  []loanuc.ReceiptDTO `json:"allocations"`
	Loan         *loanuc.LoanDTO     `json:"loan"`
}
