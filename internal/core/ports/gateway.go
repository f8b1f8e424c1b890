package ports

import (
	"context"
	"time"

	"snack-checkout/internal/core/domain"
)

//go:generate mockgen -source=gateway.go -destination=mocks/gateway_mock.go -package=mocks

// Gateway is the outbound port to the mobile-money provider. One charge
// attempt is Authenticate, BuildChargeRequest, Submit, in that order, with no
// automatic retry at any step.
type Gateway interface {
	// Authenticate exchanges the static credentials for a bearer token.
	Authenticate(ctx context.Context) (domain.AccessToken, error)

	// BuildChargeRequest normalizes and validates the payer phone, then
	// derives the timestamp/password pair and assembles the wire body.
	// The pair is taken at call time; callers must submit promptly and
	// never reuse the returned value.
	BuildChargeRequest(phoneNumber string, amount int64, accountRef, description string) (*domain.ChargeRequest, error)

	// Submit POSTs the charge request under the given bearer token and
	// classifies the outcome: transport/non-2xx failures, gateway declines
	// embedded in a 2xx body, and genuine acceptances.
	Submit(ctx context.Context, token string, req *domain.ChargeRequest) (*domain.STKPushResponse, error)
}

// TokenCache is a shared, time-boxed store for gateway bearer tokens. Purely
// a performance optimization: a miss or a store error falls back to a fresh
// Authenticate call with no behavior change.
type TokenCache interface {
	// Get returns the cached token, or "" when absent or expired.
	Get(ctx context.Context) (string, error)
	// Set stores a token for ttl.
	Set(ctx context.Context, token string, ttl time.Duration) error
}
