package http

import (
	"net/http"
	"time"

	"loan-ledger/internal/usecase/loan"
	"loan-ledger/pkg/id"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	OwnerID      string `json:"owner_id"      validate:"required,hex32"`
	Amount       *int64 `json:"amount"        validate:"required,gte=0"`
	CurrencyCode string `json:"currency_code" validate:"required,currency"`
	Terms        int    `json:"terms"         validate:"gt=0,lte=600"`
	// Accept canonical date `YYYY-MM-DD` (aligns with schema DATE)
	ProcessedAt string `json:"processed_at" validate:"required,datetime=2006-01-02"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	processedAt, _ := time.Parse(dateLayout, req.ProcessedAt)

	dto, err := h.uc.Create(c.Request().Context(), loan.CreateLoanInput{
		OwnerID:      req.OwnerID,
		Amount:       *req.Amount,
		CurrencyCode: req.CurrencyCode,
		Terms:        req.Terms,
		ProcessedAt:  processedAt,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	dto, err := h.uc.Get(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListOwnerLoans(c echo.Context) error {
	ownerID := c.Param("owner_id")
	if !id.IsID32(ownerID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "owner_id must be 32-char lowercase hex"})
	}
	out, err := h.uc.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
