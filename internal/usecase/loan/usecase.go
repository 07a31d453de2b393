package loan

import (
	"context"
	"errors"
	"fmt"

	domain "loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/uow"
	"loan-ledger/pkg/id"
	"loan-ledger/pkg/money"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Usecase struct {
	repos uow.Repos
	uow   uow.UnitOfWork
	log   *zap.Logger
}

// NewUsecase: repos serve reads, the UoW wraps origination.
func NewUsecase(r uow.Repos, tx uow.UnitOfWork, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repos: r, uow: tx, log: log}
}

// Create originates a loan and its installment schedule in one transaction.
func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	if !id.IsID32(in.OwnerID) {
		return nil, fmt.Errorf("%w: owner_id must be 32-char lowercase hex", domain.ErrInvalidArgument)
	}
	currency, err := money.NormalizeCode(in.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	if in.ProcessedAt.IsZero() {
		return nil, fmt.Errorf("%w: processed_at is required", domain.ErrInvalidArgument)
	}
	processedAt := domain.DateOf(in.ProcessedAt)

	items, err := domain.BuildSchedule(in.Amount, in.Terms, currency, processedAt)
	if err != nil {
		return nil, err
	}

	l := &domain.Loan{
		LoanID:            id.NewID32(),
		OwnerID:           in.OwnerID,
		Amount:            in.Amount,
		CurrencyCode:      currency,
		Terms:             in.Terms,
		OutstandingAmount: in.Amount,
		ProcessedAt:       processedAt,
		Status:            domain.LoanStatusFor(in.Amount),
	}

	if u.uow == nil {
		return nil, fmt.Errorf("%w: no unit of work configured", domain.ErrTransactionFailure)
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		for i := range items {
			items[i].LoanID = l.ID
		}
		return r.Schedules.CreateBatch(ctx, items)
	})
	if err != nil {
		u.log.Error("create loan failed", zap.String("owner_id", in.OwnerID), zap.Error(err))
		return nil, domain.WrapTxError(err)
	}
	l.ScheduledRepayments = items

	u.log.Info("loan created",
		zap.String("loan_id", l.LoanID),
		zap.String("owner_id", l.OwnerID),
		zap.Int64("amount", l.Amount),
		zap.String("currency", l.CurrencyCode),
		zap.Int("terms", l.Terms),
	)
	return ToLoanDTO(l), nil
}

// Get returns the loan with its schedule and received repayments.
func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.repos.Loans.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if l.ScheduledRepayments, err = u.repos.Schedules.ListByLoan(ctx, l.ID); err != nil {
		return nil, err
	}
	if l.ReceivedRepayments, err = u.repos.Receipts.ListByLoan(ctx, l.ID); err != nil {
		return nil, err
	}
	return ToLoanDTO(l), nil
}

// ListByOwner returns the owner's loans, newest first, without schedules.
func (u *Usecase) ListByOwner(ctx context.Context, ownerID string) ([]LoanDTO, error) {
	if !id.IsID32(ownerID) {
		return nil, fmt.Errorf("%w: owner_id must be 32-char lowercase hex", domain.ErrInvalidArgument)
	}
	loans, err := u.repos.Loans.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]LoanDTO, 0, len(loans))
	for i := range loans {
		out = append(out, *ToLoanDTO(&loans[i]))
	}
	return out, nil
}
