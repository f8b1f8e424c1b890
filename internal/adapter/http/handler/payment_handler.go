package handler

import (
	"snack-checkout/internal/adapter/http/dto"
	"snack-checkout/internal/core/ports"
	"snack-checkout/pkg/apperror"
	"snack-checkout/pkg/response"

	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payment-related endpoints.
type PaymentHandler struct {
	checkoutSvc ports.CheckoutService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(checkoutSvc ports.CheckoutService) *PaymentHandler {
	return &PaymentHandler{checkoutSvc: checkoutSvc}
}

// InitiatePayment handles POST /api/v1/payments.
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req dto.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if dto.FailedOnMSISDN(err) {
			response.Error(c, apperror.ErrInvalidPhoneNumber(req.PhoneNumber))
			return
		}
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.checkoutSvc.InitiateCharge(c.Request.Context(), ports.ChargeInitiation{
		PhoneNumber:      req.PhoneNumber,
		Amount:           req.Amount,
		AccountReference: req.AccountReference,
		Description:      req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromInitiation(result))
}

// GetAttempt handles GET /api/v1/payments/:reference.
func (h *PaymentHandler) GetAttempt(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		response.Error(c, apperror.Validation("reference is required"))
		return
	}

	attempt, err := h.checkoutSvc.GetAttempt(c.Request.Context(), reference)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromAttempt(attempt))
}
