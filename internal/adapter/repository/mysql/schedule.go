package mysql

import (
	"context"

	loanDomain "loan-ledger/internal/domain/loan"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScheduleRepository struct{ db *gorm.DB }

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository { return &ScheduleRepository{db: db} }

func (r *ScheduleRepository) CreateBatch(ctx context.Context, items []loanDomain.ScheduledRepayment) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *ScheduleRepository) ListByLoan(ctx context.Context, loanNumericID uint64) ([]loanDomain.ScheduledRepayment, error) {
	var out []loanDomain.ScheduledRepayment
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanNumericID).
		Order("due_date ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *ScheduleRepository) ListUnpaidForUpdate(ctx context.Context, loanNumericID uint64) ([]loanDomain.ScheduledRepayment, error) {
	var out []loanDomain.ScheduledRepayment
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ? AND status <> ?", loanNumericID, loanDomain.InstallmentRepaid).
		Order("due_date ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *ScheduleRepository) Save(ctx context.Context, s *loanDomain.ScheduledRepayment) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *ScheduleRepository) SumOutstanding(ctx context.Context, loanNumericID uint64) (int64, error) {
	var total int64
	res := r.db.WithContext(ctx).
		Model(&loanDomain.ScheduledRepayment{}).
		Where("loan_id = ?", loanNumericID).
		Select("COALESCE(SUM(outstanding_amount), 0)").
		Scan(&total)
	return total, res.Error
}
