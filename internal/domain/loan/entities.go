package loan

import (
	"time"
)

type Status string

const (
	StatusDue    Status = "due"
	StatusRepaid Status = "repaid"
)

type InstallmentStatus string

const (
	InstallmentDue     InstallmentStatus = "due"
	InstallmentPartial InstallmentStatus = "partial"
	InstallmentRepaid  InstallmentStatus = "repaid"
)

// Table: loans
type Loan struct {
	ID                uint64    `gorm:"primaryKey;column:id" json:"-"`
	LoanID            string    `gorm:"column:loan_id;size:32;not null;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	OwnerID           string    `gorm:"column:owner_id;size:32;not null;index:idx_loans_owner" json:"owner_id"`
	Amount            int64     `gorm:"column:amount;not null" json:"amount"`
	CurrencyCode      string    `gorm:"column:currency_code;size:3;not null" json:"currency_code"`
	Terms             int       `gorm:"column:terms;not null" json:"terms"`
	OutstandingAmount int64     `gorm:"column:outstanding_amount;not null" json:"outstanding_amount"`
	ProcessedAt       time.Time `gorm:"column:processed_at;type:date;not null" json:"processed_at"`
	Status            Status    `gorm:"column:status;size:16;not null;default:'due'" json:"status"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Loaded explicitly by the repositories, never written through the loan row.
	ScheduledRepayments []ScheduledRepayment `gorm:"-" json:"scheduled_repayments,omitempty"`
	ReceivedRepayments  []ReceivedRepayment  `gorm:"-" json:"received_repayments,omitempty"`
}

func (Loan) TableName() string { return "loans" }

// Table: scheduled_repayments
type ScheduledRepayment struct {
	ID                uint64            `gorm:"primaryKey;column:id" json:"-"`
	LoanID            uint64            `gorm:"column:loan_id;not null;index:idx_sched_loan_due,priority:1" json:"-"`
	Seq               int               `gorm:"column:seq;not null" json:"seq"`
	Amount            int64             `gorm:"column:amount;not null" json:"amount"`
	OutstandingAmount int64             `gorm:"column:outstanding_amount;not null" json:"outstanding_amount"`
	CurrencyCode      string            `gorm:"column:currency_code;size:3;not null" json:"currency_code"`
	DueDate           time.Time         `gorm:"column:due_date;type:date;not null;index:idx_sched_loan_due,priority:2" json:"due_date"`
	Status            InstallmentStatus `gorm:"column:status;size:16;not null;default:'due'" json:"status"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ScheduledRepayment) TableName() string { return "scheduled_repayments" }

// Table: received_repayments (append-only)
type ReceivedRepayment struct {
	ID        uint64 `gorm:"primaryKey;column:id" json:"-"`
	ReceiptID string `gorm:"column:receipt_id;size:32;not null;uniqueIndex:ux_received_receipt_id" json:"receipt_id"`
	// Shared by every record split from one incoming payment.
	PaymentID            string    `gorm:"column:payment_id;size:32;not null;index" json:"payment_id"`
	LoanID               uint64    `gorm:"column:loan_id;not null;index" json:"-"`
	ScheduledRepaymentID uint64    `gorm:"column:scheduled_repayment_id;not null;index" json:"-"`
	Amount               int64     `gorm:"column:amount;not null" json:"amount"`
	CurrencyCode         string    `gorm:"column:currency_code;size:3;not null" json:"currency_code"`
	ReceivedAt           time.Time `gorm:"column:received_at;not null" json:"received_at"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ReceivedRepayment) TableName() string { return "received_repayments" }

// StatusFor derives the installment status from its balances.
func StatusFor(amount, outstanding int64) InstallmentStatus {
	switch {
	case outstanding == 0:
		return InstallmentRepaid
	case outstanding < amount:
		return InstallmentPartial
	default:
		return InstallmentDue
	}
}

// LoanStatusFor derives the loan status from its outstanding amount.
func LoanStatusFor(outstanding int64) Status {
	if outstanding == 0 {
		return StatusRepaid
	}
	return StatusDue
}
