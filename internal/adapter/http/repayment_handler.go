package http

import (
	"net/http"

	"loan-ledger/internal/usecase/repayment"

	"github.com/labstack/echo/v4"
)

type RepaymentHandler struct{ uc *repayment.Usecase }

func NewRepaymentHandler(uc *repayment.Usecase) *RepaymentHandler {
	return &RepaymentHandler{uc: uc}
}

type repayReq struct {
	Amount       int64  `json:"amount"        validate:"gt=0"`
	CurrencyCode string `json:"currency_code" validate:"required,currency"`
	// Optional; defaults to the time the request is processed.
	ReceivedAt string `json:"received_at" validate:"omitempty,timestamp"`
}

func (h *RepaymentHandler) Repay(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	var req repayReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	in := repayment.RepayInput{LoanID: loanID, Amount: req.Amount, CurrencyCode: req.CurrencyCode}
	if req.ReceivedAt != "" {
		in.ReceivedAt, _ = parseTimestamp(req.ReceivedAt)
	}
	dto, err := h.uc.Repay(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *RepaymentHandler) ListRepayments(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	out, err := h.uc.List(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
