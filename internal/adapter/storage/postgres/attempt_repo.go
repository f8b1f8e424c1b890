package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snack-checkout/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// AttemptRepo implements ports.AttemptRepository.
type AttemptRepo struct {
	pool Pool
}

// NewAttemptRepo creates a new AttemptRepo.
func NewAttemptRepo(pool Pool) *AttemptRepo {
	return &AttemptRepo{pool: pool}
}

// Create inserts an accepted payment attempt.
func (r *AttemptRepo) Create(ctx context.Context, a *domain.PaymentAttempt) error {
	query := `INSERT INTO payment_attempts
		(id, account_reference, phone_number, amount, merchant_request_id, checkout_request_id,
		 status, result_code, result_desc, receipt_number, callback_payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.AccountReference, a.PhoneNumber, a.Amount,
		a.MerchantRequestID, a.CheckoutRequestID, string(a.Status),
		a.ResultCode, a.ResultDesc, a.ReceiptNumber, a.CallbackPayload,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment attempt: %w", err)
	}
	return nil
}

// GetByCheckoutRequestID fetches an attempt by the gateway's checkout
// request ID. Returns nil, nil when no attempt matches.
func (r *AttemptRepo) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.PaymentAttempt, error) {
	return r.getOne(ctx, "checkout_request_id", checkoutRequestID)
}

// GetByAccountReference fetches an attempt by its order reference.
// Returns nil, nil when no attempt matches.
func (r *AttemptRepo) GetByAccountReference(ctx context.Context, accountReference string) (*domain.PaymentAttempt, error) {
	return r.getOne(ctx, "account_reference", accountReference)
}

func (r *AttemptRepo) getOne(ctx context.Context, column, value string) (*domain.PaymentAttempt, error) {
	query := fmt.Sprintf(`SELECT id, account_reference, phone_number, amount,
		merchant_request_id, checkout_request_id, status,
		result_code, result_desc, receipt_number, callback_payload,
		created_at, updated_at
		FROM payment_attempts WHERE %s = $1`, column)

	a := &domain.PaymentAttempt{}
	var status string
	err := r.pool.QueryRow(ctx, query, value).Scan(
		&a.ID, &a.AccountReference, &a.PhoneNumber, &a.Amount,
		&a.MerchantRequestID, &a.CheckoutRequestID, &status,
		&a.ResultCode, &a.ResultDesc, &a.ReceiptNumber, &a.CallbackPayload,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment attempt by %s: %w", column, err)
	}
	a.Status = domain.AttemptStatus(status)
	return a, nil
}

// Update writes the callback outcome onto an existing attempt.
func (r *AttemptRepo) Update(ctx context.Context, a *domain.PaymentAttempt) error {
	a.UpdatedAt = time.Now().UTC()
	query := `UPDATE payment_attempts
		SET status = $1, result_code = $2, result_desc = $3,
		    receipt_number = $4, callback_payload = $5, updated_at = $6
		WHERE id = $7`

	_, err := r.pool.Exec(ctx, query,
		string(a.Status), a.ResultCode, a.ResultDesc,
		a.ReceiptNumber, a.CallbackPayload, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update payment attempt: %w", err)
	}
	return nil
}
