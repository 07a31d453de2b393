package loan

import (
	"time"

	domain "loan-ledger/internal/domain/loan"
	"loan-ledger/pkg/money"
)

const dateLayout = "2006-01-02"

type CreateLoanInput struct {
	OwnerID      string
	Amount       int64
	CurrencyCode string
	Terms        int
	ProcessedAt  time.Time
}

type InstallmentDTO struct {
	Seq                int    `json:"seq"`
	Amount             int64  `json:"amount"`
	OutstandingAmount  int64  `json:"outstanding_amount"`
	OutstandingDisplay string `json:"outstanding_display"`
	CurrencyCode       string `json:"currency_code"`
	DueDate            string `json:"due_date"`
	Status             string `json:"status"`
}

type ReceiptDTO struct {
	ReceiptID     string    `json:"receipt_id"`
	PaymentID     string    `json:"payment_id"`
	InstallmentNo int       `json:"installment_seq,omitempty"`
	Amount        int64     `json:"amount"`
	AmountDisplay string    `json:"amount_display"`
	CurrencyCode  string    `json:"currency_code"`
	ReceivedAt    time.Time `json:"received_at"`
}

type LoanDTO struct {
	LoanID             string           `json:"loan_id"`
	OwnerID            string           `json:"owner_id"`
	Amount             int64            `json:"amount"`
	AmountDisplay      string           `json:"amount_display"`
	CurrencyCode       string           `json:"currency_code"`
	Terms              int              `json:"terms"`
	OutstandingAmount  int64            `json:"outstanding_amount"`
	OutstandingDisplay string           `json:"outstanding_display"`
	ProcessedAt        string           `json:"processed_at"`
	Status             string           `json:"status"`
	CreatedAt          time.Time        `json:"created_at"`
	Schedule           []InstallmentDTO `json:"scheduled_repayments,omitempty"`
	Receipts           []ReceiptDTO     `json:"received_repayments,omitempty"`
}

func ToLoanDTO(l *domain.Loan) *LoanDTO {
	dto := &LoanDTO{
		LoanID:             l.LoanID,
		OwnerID:            l.OwnerID,
		Amount:             l.Amount,
		AmountDisplay:      money.Format(l.Amount, l.CurrencyCode),
		CurrencyCode:       l.CurrencyCode,
		Terms:              l.Terms,
		OutstandingAmount:  l.OutstandingAmount,
		OutstandingDisplay: money.Format(l.OutstandingAmount, l.CurrencyCode),
		ProcessedAt:        l.ProcessedAt.UTC().Format(dateLayout),
		Status:             string(l.Status),
		CreatedAt:          l.CreatedAt,
	}
	seqByID := make(map[uint64]int, len(l.ScheduledRepayments))
	for _, s := range l.ScheduledRepayments {
		seqByID[s.ID] = s.Seq
		dto.Schedule = append(dto.Schedule, InstallmentDTO{
			Seq:                s.Seq,
			Amount:             s.Amount,
			OutstandingAmount:  s.OutstandingAmount,
			OutstandingDisplay: money.Format(s.OutstandingAmount, s.CurrencyCode),
			CurrencyCode:       s.CurrencyCode,
			DueDate:            s.DueDate.UTC().Format(dateLayout),
			Status:             string(s.Status),
		})
	}
	for _, r := range l.ReceivedRepayments {
		rd := ToReceiptDTO(r)
		rd.InstallmentNo = seqByID[r.ScheduledRepaymentID]
		dto.Receipts = append(dto.Receipts, rd)
	}
	return dto
}

func ToReceiptDTO(r domain.ReceivedRepayment) ReceiptDTO {
	return ReceiptDTO{
		ReceiptID:     r.ReceiptID,
		PaymentID:     r.PaymentID,
		Amount:        r.Amount,
		AmountDisplay: money.Format(r.Amount, r.CurrencyCode),
		CurrencyCode:  r.CurrencyCode,
		ReceivedAt:    r.ReceivedAt.UTC(),
	}
}
