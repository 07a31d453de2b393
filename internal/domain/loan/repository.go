package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// Row-locked read; only meaningful inside a transaction.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]Loan, error)
	Save(ctx context.Context, l *Loan) error
}

type ScheduleRepository interface {
	CreateBatch(ctx context.Context, items []ScheduledRepayment) error
	ListByLoan(ctx context.Context, loanNumericID uint64) ([]ScheduledRepayment, error)
	// Installments not yet repaid, locked, ordered by due_date then id.
	ListUnpaidForUpdate(ctx context.Context, loanNumericID uint64) ([]ScheduledRepayment, error)
	Save(ctx context.Context, s *ScheduledRepayment) error
	SumOutstanding(ctx context.Context, loanNumericID uint64) (int64, error)
}

type ReceiptRepository interface {
	CreateBatch(ctx context.Context, items []ReceivedRepayment) error
	ListByLoan(ctx context.Context, loanNumericID uint64) ([]ReceivedRepayment, error)
}
