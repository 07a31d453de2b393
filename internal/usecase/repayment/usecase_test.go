package repayment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"loan-ledger/internal/adapter/repository/mysql"
	domain "loan-ledger/internal/domain/loan"
	"loan-ledger/internal/domain/uow"
	"loan-ledger/internal/testutil/loanmock"
	"loan-ledger/internal/testutil/receiptmock"
	"loan-ledger/internal/testutil/schedulemock"
	"loan-ledger/internal/testutil/uowmock"
	loanuc "loan-ledger/internal/usecase/loan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var owner = strings.Repeat("b", 32)

type ledger struct {
	db    *gorm.DB
	loans *loanuc.Usecase
	repay *Usecase
}

func openLedger(t *testing.T, locker Locker) *ledger {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Loan{}, &domain.ScheduledRepayment{}, &domain.ReceivedRepayment{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repos := uow.Repos{
		Loans:     mysql.NewLoanRepository(db),
		Schedules: mysql.NewScheduleRepository(db),
		Receipts:  mysql.NewReceiptRepository(db),
	}
	tx := mysql.NewGormUoW(db)
	return &ledger{
		db:    db,
		loans: loanuc.NewUsecase(repos, tx, nil),
		repay: NewUsecase(repos, tx, locker, nil),
	}
}

func (l *ledger) originate(t *testing.T, amount int64, terms int) *loanuc.LoanDTO {
	t.Helper()
	dto, err := l.loans.Create(context.Background(), loanuc.CreateLoanInput{
		OwnerID:      owner,
		Amount:       amount,
		CurrencyCode: "VND",
		Terms:        terms,
		ProcessedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return dto
}

func (l *ledger) pay(t *testing.T, loanID string, amount int64) (*RepaymentDTO, error) {
	t.Helper()
	return l.repay.Repay(context.Background(), RepayInput{
		LoanID:       loanID,
		Amount:       amount,
		CurrencyCode: "VND",
		ReceivedAt:   time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
	})
}

// assertConsistent checks loan and installment invariants against the store.
func assertConsistent(t *testing.T, l *ledger, loanID string) *loanuc.LoanDTO {
	t.Helper()
	got, err := l.loans.Get(context.Background(), loanID)
	require.NoError(t, err)

	var sum, received int64
	for _, s := range got.Schedule {
		sum += s.OutstandingAmount
		require.GreaterOrEqual(t, s.OutstandingAmount, int64(0))
		require.LessOrEqual(t, s.OutstandingAmount, s.Amount)
		require.Equal(t, string(domain.StatusFor(s.Amount, s.OutstandingAmount)), s.Status)
	}
	for _, r := range got.Receipts {
		received += r.Amount
	}
	require.Equal(t, sum, got.OutstandingAmount)
	require.Equal(t, got.Amount-received, got.OutstandingAmount)
	require.Equal(t, string(domain.LoanStatusFor(got.OutstandingAmount)), got.Status)
	return got
}

func TestRepay_ExactThenOverpayment(t *testing.T) {
	l := openLedger(t, nil)

	// 100000 over three terms
	created := l.originate(t, 100000, 3)
	require.Equal(t, int64(100000), created.OutstandingAmount)

	// exactly the first installment
	res, err := l.pay(t, created.LoanID, 33333)
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, int64(33333), res.Applied)
	assert.Zero(t, res.Unapplied)
	assert.Equal(t, 1, res.Allocations[0].InstallmentNo)
	assert.Equal(t, int64(66667), res.Loan.OutstandingAmount)
	assert.Equal(t, string(domain.StatusDue), res.Loan.Status)
	assert.Equal(t, string(domain.InstallmentRepaid), res.Loan.Schedule[0].Status)

	got := assertConsistent(t, l, created.LoanID)
	assert.Equal(t, int64(66667), got.OutstandingAmount)

	// overpayment settles the rest, excess unapplied
	res, err = l.pay(t, created.LoanID, 70000)
	require.NoError(t, err)
	require.Len(t, res.Allocations, 2)
	assert.Equal(t, int64(33333), res.Allocations[0].Amount)
	assert.Equal(t, int64(33334), res.Allocations[1].Amount)
	assert.Equal(t, res.PaymentID, res.Allocations[0].PaymentID)
	assert.Equal(t, res.PaymentID, res.Allocations[1].PaymentID)
	assert.Equal(t, int64(67667), res.Applied)
	assert.Equal(t, int64(2333), res.Unapplied)
	assert.Zero(t, res.Loan.OutstandingAmount)
	assert.Equal(t, string(domain.StatusRepaid), res.Loan.Status)

	got = assertConsistent(t, l, created.LoanID)
	assert.Len(t, got.Receipts, 3)

	// a repaid loan rejects further repayments and stays unchanged
	_, err = l.pay(t, created.LoanID, 10)
	assert.ErrorIs(t, err, domain.ErrAlreadyRepaid)
	got = assertConsistent(t, l, created.LoanID)
	assert.Len(t, got.Receipts, 3)
}

func TestRepay_ExactInstallmentSkipsPartial(t *testing.T) {
	l := openLedger(t, nil)
	created := l.originate(t, 300, 3)

	res, err := l.pay(t, created.LoanID, 100)
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, string(domain.InstallmentRepaid), res.Loan.Schedule[0].Status)
	assert.Equal(t, string(domain.InstallmentDue), res.Loan.Schedule[1].Status)

	got := assertConsistent(t, l, created.LoanID)
	require.Len(t, got.Receipts, 1)
}

func TestRepay_PartialPaymentsAcrossInstallments(t *testing.T) {
	l := openLedger(t, nil)
	created := l.originate(t, 1000, 4)

	for _, amount := range []int64{60, 250, 190, 499} {
		_, err := l.pay(t, created.LoanID, amount)
		require.NoError(t, err)
		assertConsistent(t, l, created.LoanID)
	}

	got := assertConsistent(t, l, created.LoanID)
	assert.Equal(t, int64(1), got.OutstandingAmount)
	assert.Equal(t, string(domain.InstallmentPartial), got.Schedule[3].Status)

	res, err := l.pay(t, created.LoanID, 1)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRepaid), res.Loan.Status)
}

func TestRepay_ValidationHasNoSideEffects(t *testing.T) {
	l := openLedger(t, nil)
	created := l.originate(t, 300, 3)

	_, err := l.pay(t, created.LoanID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = l.pay(t, created.LoanID, -10)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = l.repay.Repay(context.Background(), RepayInput{LoanID: created.LoanID, Amount: 100, CurrencyCode: "USD"})
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)

	_, err = l.repay.Repay(context.Background(), RepayInput{LoanID: created.LoanID, Amount: 100, CurrencyCode: "NOPE"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = l.pay(t, "ffffffffffffffffffffffffffffffff", 100)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got := assertConsistent(t, l, created.LoanID)
	assert.Equal(t, int64(300), got.OutstandingAmount)
	assert.Empty(t, got.Receipts)
}

func TestRepay_StoreFailureRollsBackEverything(t *testing.T) {
	l := openLedger(t, nil)
	created := l.originate(t, 300, 3)

	require.NoError(t, l.db.Callback().Create().Before("gorm:create").Register("test:fail_receipts", func(tx *gorm.DB) {
		if tx.Statement.Table == "received_repayments" {
			_ = tx.AddError(errors.New("store unavailable"))
		}
	}))

	_, err := l.pay(t, created.LoanID, 150)
	require.ErrorIs(t, err, domain.ErrTransactionFailure)

	require.NoError(t, l.db.Callback().Create().Remove("test:fail_receipts"))

	got := assertConsistent(t, l, created.LoanID)
	assert.Equal(t, int64(300), got.OutstandingAmount)
	for _, s := range got.Schedule {
		assert.Equal(t, s.Amount, s.OutstandingAmount)
		assert.Equal(t, string(domain.InstallmentDue), s.Status)
	}
	assert.Empty(t, got.Receipts)
}

func TestRepay_ConcurrentPaymentsDoNotLoseUpdates(t *testing.T) {
	lk := &keyLocker{}
	l := openLedger(t, lk)
	created := l.originate(t, 10000, 5)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.repay.Repay(context.Background(), RepayInput{LoanID: created.LoanID, Amount: 700, CurrencyCode: "VND"})
			if err != nil && !errors.Is(err, domain.ErrAlreadyRepaid) {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent repay: %v", err)
	}

	got := assertConsistent(t, l, created.LoanID)
	assert.Zero(t, got.OutstandingAmount)
	assert.Equal(t, string(domain.StatusRepaid), got.Status)
	assert.Equal(t, []string{LockKey(created.LoanID)}, lk.keys())
}

func TestRepay_ZeroPrincipalLoanRejectsPayment(t *testing.T) {
	l := openLedger(t, nil)
	created := l.originate(t, 0, 2)
	assert.Equal(t, string(domain.StatusRepaid), created.Status)

	_, err := l.pay(t, created.LoanID, 1)
	assert.ErrorIs(t, err, domain.ErrAlreadyRepaid)
}

func TestList_ReturnsReceiptsInOrder(t *testing.T) {
	l := openLedger(t, nil)
	created := l.originate(t, 300, 3)

	_, err := l.pay(t, created.LoanID, 150)
	require.NoError(t, err)
	_, err = l.pay(t, created.LoanID, 100)
	require.NoError(t, err)

	got, err := l.repay.List(context.Background(), created.LoanID)
	require.NoError(t, err)
	require.Len(t, got, 4)
	seqs := make([]int, len(got))
	amounts := make([]int64, len(got))
	for i, r := range got {
		seqs[i] = r.InstallmentNo
		amounts[i] = r.Amount
	}
	assert.Equal(t, []int{1, 2, 2, 3}, seqs)
	assert.Equal(t, []int64{100, 50, 50, 50}, amounts)
	assert.Equal(t, got[0].PaymentID, got[1].PaymentID)
	assert.NotEqual(t, got[1].PaymentID, got[2].PaymentID)

	_, err = l.repay.List(context.Background(), "ffffffffffffffffffffffffffffffff")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ----- mock-driven paths -----

func TestRepay_NilUoW(t *testing.T) {
	uc := NewUsecase(uow.Repos{}, nil, nil, nil)
	_, err := uc.Repay(context.Background(), RepayInput{LoanID: "x", Amount: 1, CurrencyCode: "USD"})
	assert.ErrorIs(t, err, domain.ErrTransactionFailure)
}

func TestRepay_DefaultsReceivedAtToNow(t *testing.T) {
	fixed := time.Date(2024, 5, 5, 5, 5, 5, 0, time.UTC)
	var saved []domain.ReceivedRepayment
	repos := uow.Repos{
		Loans: &loanmock.Repo{
			GetByLoanIDForUpdateFn: func(context.Context, string) (*domain.Loan, error) {
				return &domain.Loan{ID: 1, LoanID: "LN", CurrencyCode: "USD", Amount: 100, OutstandingAmount: 100, Status: domain.StatusDue}, nil
			},
		},
		Schedules: &schedulemock.Repo{
			ListUnpaidForUpdateFn: func(context.Context, uint64) ([]domain.ScheduledRepayment, error) {
				return []domain.ScheduledRepayment{{ID: 3, Seq: 1, Amount: 100, OutstandingAmount: 100, CurrencyCode: "USD", Status: domain.InstallmentDue}}, nil
			},
			SumOutstandingFn: func(context.Context, uint64) (int64, error) { return 40, nil },
			ListByLoanFn: func(context.Context, uint64) ([]domain.ScheduledRepayment, error) {
				return []domain.ScheduledRepayment{{ID: 3, Seq: 1, Amount: 100, OutstandingAmount: 40, CurrencyCode: "USD", Status: domain.InstallmentPartial}}, nil
			},
		},
		Receipts: &receiptmock.Repo{
			CreateBatchFn: func(_ context.Context, items []domain.ReceivedRepayment) error {
				saved = items
				return nil
			},
		},
	}
	uc := NewUsecase(repos, uowmock.Passthrough(repos), nil, nil)
	uc.now = func() time.Time { return fixed }

	res, err := uc.Repay(context.Background(), RepayInput{LoanID: "LN", Amount: 60, CurrencyCode: "usd"})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.True(t, saved[0].ReceivedAt.Equal(fixed))
	assert.Equal(t, uint64(3), saved[0].ScheduledRepaymentID)
	assert.Equal(t, int64(60), saved[0].Amount)
	assert.Equal(t, int64(40), res.Loan.OutstandingAmount)
	assert.Equal(t, "0.60", res.Allocations[0].AmountDisplay)
}

func TestRepay_LockerErrorSurfaces(t *testing.T) {
	repos := uow.Repos{Loans: &loanmock.Repo{}}
	uc := NewUsecase(repos, uowmock.Passthrough(repos), lockerFunc(func(ctx context.Context, key string, fn func(context.Context) error) error {
		return errors.New("redis: connection refused")
	}), nil)

	_, err := uc.Repay(context.Background(), RepayInput{LoanID: "LN", Amount: 1, CurrencyCode: "USD"})
	assert.ErrorIs(t, err, domain.ErrTransactionFailure)
}

// ----- test doubles -----

type lockerFunc func(ctx context.Context, key string, fn func(context.Context) error) error

func (f lockerFunc) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	return f(ctx, key, fn)
}

// keyLocker is an in-process Locker recording the distinct keys it saw.
type keyLocker struct {
	mu   sync.Mutex
	seen map[string]struct{}
	hold sync.Mutex
}

func (k *keyLocker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	k.mu.Lock()
	if k.seen == nil {
		k.seen = map[string]struct{}{}
	}
	k.seen[key] = struct{}{}
	k.mu.Unlock()

	k.hold.Lock()
	defer k.hold.Unlock()
	return fn(ctx)
}

func (k *keyLocker) keys() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]string, 0, len(k.seen))
	for key := range k.seen {
		out = append(out, key)
	}
	return out
}
