package domain

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus is the lifecycle state of a persisted payment attempt.
type AttemptStatus string

const (
	// AttemptStatusAccepted: the gateway accepted the push; the payer has
	// been prompted but the receipt callback has not arrived yet.
	AttemptStatusAccepted AttemptStatus = "ACCEPTED"
	// AttemptStatusCompleted: the callback reported a successful payment.
	AttemptStatusCompleted AttemptStatus = "COMPLETED"
	// AttemptStatusFailed: the callback reported failure or cancellation.
	AttemptStatusFailed AttemptStatus = "FAILED"
)

// PaymentAttempt records one accepted charge initiation so the asynchronous
// receipt callback can be joined back to it via CheckoutRequestID.
type PaymentAttempt struct {
	ID                uuid.UUID     `json:"id"`
	AccountReference  string        `json:"account_reference"`
	PhoneNumber       string        `json:"phone_number"` // normalized 254XXXXXXXXX
	Amount            int64         `json:"amount"`       // whole KES
	MerchantRequestID string        `json:"merchant_request_id"`
	CheckoutRequestID string        `json:"checkout_request_id"`
	Status            AttemptStatus `json:"status"`
	ResultCode        *int          `json:"result_code,omitempty"`
	ResultDesc        *string       `json:"result_desc,omitempty"`
	ReceiptNumber     *string       `json:"receipt_number,omitempty"`
	CallbackPayload   []byte        `json:"-"` // raw receipt JSON, for operators
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// IsFinal returns true once the receipt callback has resolved the attempt.
// Applying a callback to a final attempt is a no-op; the gateway may redeliver.
func (a *PaymentAttempt) IsFinal() bool {
	return a.Status == AttemptStatusCompleted || a.Status == AttemptStatusFailed
}

// ApplyCallback transitions the attempt per the receipt outcome. Returns
// false when the attempt was already final and nothing changed.
func (a *PaymentAttempt) ApplyCallback(cb *STKCallback, payload []byte) bool {
	if a.IsFinal() {
		return false
	}

	code := cb.ResultCode
	desc := cb.ResultDesc
	a.ResultCode = &code
	a.ResultDesc = &desc
	a.CallbackPayload = payload
	a.UpdatedAt = time.Now().UTC()

	if cb.Succeeded() {
		a.Status = AttemptStatusCompleted
		if receipt := cb.ReceiptNumber(); receipt != "" {
			a.ReceiptNumber = &receipt
		}
	} else {
		a.Status = AttemptStatusFailed
	}
	return true
}
