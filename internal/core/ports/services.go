package ports

import (
	"context"

	"snack-checkout/internal/core/domain"
)

//go:generate mockgen -source=services.go -destination=mocks/services_mock.go -package=mocks

// CheckoutService orchestrates one charge-request lifecycle and the
// decoupled receipt callback flow.
type CheckoutService interface {
	// InitiateCharge runs authenticate -> build -> submit for one
	// (phone, amount) pair and returns the gateway's synchronous
	// acknowledgment. Failures map to the apperror taxonomy; attempts are
	// stateless and independent, so a failure never affects later calls.
	InitiateCharge(ctx context.Context, req ChargeInitiation) (*domain.STKPushResponse, error)

	// HandleCallback processes an asynchronous receipt payload. It never
	// fails in a way the gateway should see: the returned error is for
	// logging only and the HTTP layer acknowledges regardless.
	HandleCallback(ctx context.Context, payload []byte) error

	// GetAttempt looks up a persisted attempt by its account reference.
	GetAttempt(ctx context.Context, accountReference string) (*domain.PaymentAttempt, error)
}

// ChargeInitiation holds validated input for one charge attempt.
type ChargeInitiation struct {
	PhoneNumber      string // any of 0XXXXXXXXX, +254XXXXXXXXX, 254XXXXXXXXX
	Amount           int64  // whole KES, positive
	AccountReference string // optional; generated when empty
	Description      string // optional; defaulted when empty
}
