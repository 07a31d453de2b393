package repayment

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/uow"
	loanuc "loan-ledger/internal/usecase/loan"
	"loan-ledger/pkg/id"
	"loan-ledger/pkg/money"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Locker serialises work on one key across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

func LockKey(loanID string) string { return "lock:loan:" + loanID }

type Usecase struct {
	repos  uow.Repos
	uow    uow.UnitOfWork
	locker Locker
	log    *zap.Logger
	now    func() time.Time
}

// NewUsecase: locker may be nil, in which case only the row lock taken by
// WithinLoanTx serialises concurrent repayments.
func NewUsecase(r uow.Repos, tx uow.UnitOfWork, locker Locker, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repos: r, uow: tx, locker: locker, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Repay applies amount to the loan's unpaid installments, earliest due first,
// writing one received repayment per installment touched. The loan
// outstanding amount is recomputed from the installments in the same
// transaction.
func (u *Usecase) Repay(ctx context.Context, in RepayInput) (*RepaymentDTO, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be > 0, got %d", domain.ErrInvalidArgument, in.Amount)
	}
	currency, err := money.NormalizeCode(in.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	if in.LoanID == "" {
		return nil, fmt.Errorf("%w: loan_id is required", domain.ErrInvalidArgument)
	}
	if u.uow == nil {
		return nil, fmt.Errorf("%w: no unit of work configured", domain.ErrTransactionFailure)
	}
	receivedAt := in.ReceivedAt.UTC()
	if in.ReceivedAt.IsZero() {
		receivedAt = u.now()
	}

	var out *RepaymentDTO
	apply := func(ctx context.Context) error {
		return u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domain.Loan) error {
			if l.CurrencyCode != currency {
				return fmt.Errorf("%w: loan is %s, payment is %s", domain.ErrCurrencyMismatch, l.CurrencyCode, currency)
			}
			if l.Status == domain.StatusRepaid {
				return domain.ErrAlreadyRepaid
			}

			rows, err := r.Schedules.ListUnpaidForUpdate(ctx, l.ID)
			if err != nil {
				return err
			}
			unpaid := make([]*domain.ScheduledRepayment, len(rows))
			for i := range rows {
				unpaid[i] = &rows[i]
			}
			allocs, rest := domain.Allocate(unpaid, in.Amount)

			paymentID := id.NewID32()
			receipts := make([]domain.ReceivedRepayment, 0, len(allocs))
			for _, a := range allocs {
				if err := r.Schedules.Save(ctx, a.Installment); err != nil {
					return err
				}
				receipts = append(receipts, domain.ReceivedRepayment{
					ReceiptID:            id.NewID32(),
					PaymentID:            paymentID,
					LoanID:               l.ID,
					ScheduledRepaymentID: a.Installment.ID,
					Amount:               a.Applied,
					CurrencyCode:         currency,
					ReceivedAt:           receivedAt,
				})
			}
			if err := r.Receipts.CreateBatch(ctx, receipts); err != nil {
				return err
			}

			total, err := r.Schedules.SumOutstanding(ctx, l.ID)
			if err != nil {
				return err
			}
			l.OutstandingAmount = total
			l.Status = domain.LoanStatusFor(total)
			if err := r.Loans.Save(ctx, l); err != nil {
				return err
			}
			if l.ScheduledRepayments, err = r.Schedules.ListByLoan(ctx, l.ID); err != nil {
				return err
			}

			out = &RepaymentDTO{
				PaymentID:    paymentID,
				LoanID:       l.LoanID,
				Amount:       in.Amount,
				Applied:      in.Amount - rest,
				Unapplied:    rest,
				CurrencyCode: currency,
				ReceivedAt:   receivedAt,
				Loan:         loanuc.ToLoanDTO(l),
			}
			seq := make(map[uint64]int, len(allocs))
			for _, a := range allocs {
				seq[a.Installment.ID] = a.Installment.Seq
			}
			for _, rc := range receipts {
				dto := loanuc.ToReceiptDTO(rc)
				dto.InstallmentNo = seq[rc.ScheduledRepaymentID]
				out.Allocations = append(out.Allocations, dto)
			}
			return nil
		})
	}

	if u.locker != nil {
		err = u.locker.WithLock(ctx, LockKey(in.LoanID), apply)
	} else {
		err = apply(ctx)
	}
	if err != nil {
		err = domain.WrapTxError(err)
		if errors.Is(err, domain.ErrTransactionFailure) {
			u.log.Error("repayment failed", zap.String("loan_id", in.LoanID), zap.Int64("amount", in.Amount), zap.Error(err))
		} else {
			u.log.Info("repayment rejected", zap.String("loan_id", in.LoanID), zap.Int64("amount", in.Amount), zap.Error(err))
		}
		return nil, err
	}

	fields := []zap.Field{
		zap.String("loan_id", out.LoanID),
		zap.String("payment_id", out.PaymentID),
		zap.Int64("applied", out.Applied),
		zap.Int("allocations", len(out.Allocations)),
		zap.Int64("outstanding", out.Loan.OutstandingAmount),
	}
	if out.Unapplied > 0 {
		u.log.Warn("repayment exceeded outstanding balance", append(fields, zap.Int64("unapplied", out.Unapplied))...)
	} else {
		u.log.Info("repayment applied", fields...)
	}
	return out, nil
}

// List returns every received repayment of a loan, oldest first.
func (u *Usecase) List(ctx context.Context, loanID string) ([]loanuc.ReceiptDTO, error) {
	l, err := u.repos.Loans.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	items, err := u.repos.Schedules.ListByLoan(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	receipts, err := u.repos.Receipts.ListByLoan(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	seq := make(map[uint64]int, len(items))
	for _, s := range items {
		seq[s.ID] = s.Seq
	}
	out := make([]loanuc.ReceiptDTO, 0, len(receipts))
	for _, rc := range receipts {
		dto := loanuc.ToReceiptDTO(rc)
		dto.InstallmentNo = seq[rc.ScheduledRepaymentID]
		out = append(out, dto)
	}
	return out, nil
}
