package mysql

import (
	"context"

	loanDomain "loan-ledger/internal/domain/loan"

	"gorm.io/gorm"
)

// ReceiptRepository stores received repayments. Rows are never updated.
type ReceiptRepository struct{ db *gorm.DB }

func NewReceiptRepository(db *gorm.DB) *ReceiptRepository { return &ReceiptRepository{db: db} }

func (r *ReceiptRepository) CreateBatch(ctx context.Context, items []loanDomain.ReceivedRepayment) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *ReceiptRepository) ListByLoan(ctx context.Context, loanNumericID uint64) ([]loanDomain.ReceivedRepayment, error) {
	var out []loanDomain.ReceivedRepayment
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanNumericID).
		Order("received_at ASC, id ASC").
		Find(&out)
	return out, res.Error
}
