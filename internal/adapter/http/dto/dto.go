package dto

import (
	"time"

	"snack-checkout/internal/core/domain"
)

// InitiatePaymentRequest is the request body for starting an STK push.
type InitiatePaymentRequest struct {
	PhoneNumber      string `json:"phoneNumber" binding:"required,msisdn"`
	Amount           int64  `json:"amount" binding:"required,gt=0"`
	AccountReference string `json:"accountReference,omitempty" binding:"omitempty,max=100"`
	Description      string `json:"description,omitempty" binding:"omitempty,max=100"`
}

// InitiatePaymentResponse is the response body for an accepted STK push.
type InitiatePaymentResponse struct {
	MerchantRequestID string `json:"merchantRequestId"`
	CheckoutRequestID string `json:"checkoutRequestId"`
	ResponseCode      string `json:"responseCode"`
	CustomerMessage   string `json:"customerMessage"`
}

// AttemptResponse is the response body for a payment attempt lookup.
type AttemptResponse struct {
	ID                string  `json:"id"`
	AccountReference  string  `json:"accountReference"`
	PhoneNumber       string  `json:"phoneNumber"`
	Amount            int64   `json:"amount"`
	CheckoutRequestID string  `json:"checkoutRequestId"`
	Status            string  `json:"status"`
	ResultCode        *int    `json:"resultCode,omitempty"`
	ResultDesc        *string `json:"resultDesc,omitempty"`
	ReceiptNumber     *string `json:"receiptNumber,omitempty"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
}

// CallbackAck is the body every gateway callback receives.
type CallbackAck struct {
	Result string `json:"result"`
}

// HealthResponse reports service and dependency status.
type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// FromInitiation maps a gateway acceptance onto the outbound DTO.
func FromInitiation(resp *domain.STKPushResponse) InitiatePaymentResponse {
	return InitiatePaymentResponse{
		MerchantRequestID: resp.MerchantRequestID,
		CheckoutRequestID: resp.CheckoutRequestID,
		ResponseCode:      resp.ResponseCode,
		CustomerMessage:   resp.CustomerMessage,
	}
}

// FromAttempt maps a stored payment attempt onto the outbound DTO.
func FromAttempt(a *domain.PaymentAttempt) AttemptResponse {
	return AttemptResponse{
		ID:                a.ID.String(),
		AccountReference:  a.AccountReference,
		PhoneNumber:       a.PhoneNumber,
		Amount:            a.Amount,
		CheckoutRequestID: a.CheckoutRequestID,
		Status:            string(a.Status),
		ResultCode:        a.ResultCode,
		ResultDesc:        a.ResultDesc,
		ReceiptNumber:     a.ReceiptNumber,
		CreatedAt:         a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
