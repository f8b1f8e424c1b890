package integration

import (
	"context"
	"sync"

	"snack-checkout/internal/core/domain"
)

// --- In-Memory Attempt Repo ---

type inMemoryAttemptRepo struct {
	mu       sync.RWMutex
	attempts []*domain.PaymentAttempt
}

func newInMemoryAttemptRepo() *inMemoryAttemptRepo {
	return &inMemoryAttemptRepo{}
}

func (r *inMemoryAttemptRepo) Create(ctx context.Context, a *domain.PaymentAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.attempts = append(r.attempts, &cp)
	return nil
}

func (r *inMemoryAttemptRepo) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.PaymentAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.attempts {
		if a.CheckoutRequestID == checkoutRequestID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAttemptRepo) GetByAccountReference(ctx context.Context, accountReference string) (*domain.PaymentAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.attempts {
		if a.AccountReference == accountReference {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAttemptRepo) Update(ctx context.Context, in *domain.PaymentAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.attempts {
		if a.ID == in.ID {
			cp := *in
			r.attempts[i] = &cp
			return nil
		}
	}
	return nil
}
