package ports

import (
	"context"

	"snack-checkout/internal/core/domain"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories_mock.go -package=mocks

// AttemptRepository persists accepted charge attempts so that the
// asynchronous receipt callback can be joined back to its originating order
// via CheckoutRequestID.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *domain.PaymentAttempt) error

	// GetByCheckoutRequestID returns nil, nil when no attempt matches.
	GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.PaymentAttempt, error)

	// GetByAccountReference returns nil, nil when no attempt matches.
	GetByAccountReference(ctx context.Context, accountReference string) (*domain.PaymentAttempt, error)

	Update(ctx context.Context, attempt *domain.PaymentAttempt) error
}
