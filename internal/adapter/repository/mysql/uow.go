package mysql

import (
	"context"
	"errors"

	"loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/uow"

	drv "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	errDeadlock        = 1213
	errLockWaitTimeout = 1205
)

type GormUoW struct {
	db         *gorm.DB
	maxRetries int
	log        *zap.Logger
}

func NewGormUoW(db *gorm.DB, opts ...Option) *GormUoW {
	u := &GormUoW{db: db, log: zap.NewNop()}
	for _, o := range opts {
		o(u)
	}
	return u
}

type Option func(*GormUoW)

// WithRetries retries the whole transaction on deadlock or lock wait timeout.
func WithRetries(n int) Option { return func(u *GormUoW) { u.maxRetries = n } }

func WithLogger(l *zap.Logger) Option { return func(u *GormUoW) { u.log = l } }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Loans:     &LoanRepository{db: tx},
		Schedules: &ScheduleRepository{db: tx},
		Receipts:  &ReceiptRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.run(ctx, func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.run(ctx, func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the loan row up-front to prevent races
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return loan.ErrNotFound
			}
			return err
		}
		return fn(r, l)
	})
}

func (u *GormUoW) run(ctx context.Context, body func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = u.db.WithContext(ctx).Transaction(body)
		if err == nil || !IsRetryable(err) || attempt >= u.maxRetries {
			return err
		}
		u.log.Warn("retrying transaction", zap.Int("attempt", attempt+1), zap.Error(err))
	}
}

// IsRetryable reports MySQL deadlock and lock-wait-timeout errors.
func IsRetryable(err error) bool {
	var me *drv.MySQLError
	if errors.As(err, &me) {
		return me.Number == errDeadlock || me.Number == errLockWaitTimeout
	}
	return false
}
