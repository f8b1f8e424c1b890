package service

import (
	"context"
	"fmt"
	"time"

	"snack-checkout/internal/core/domain"
	"snack-checkout/internal/core/ports"
	"snack-checkout/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultTransactionDesc = "Order Payment"

// CheckoutServiceImpl implements ports.CheckoutService.
type CheckoutServiceImpl struct {
	gateway  ports.Gateway
	attempts ports.AttemptRepository
	log      zerolog.Logger
}

// NewCheckoutService creates a new CheckoutServiceImpl.
func NewCheckoutService(gateway ports.Gateway, attempts ports.AttemptRepository, log zerolog.Logger) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		gateway:  gateway,
		attempts: attempts,
		log:      log,
	}
}

// InitiateCharge runs one authenticate -> build -> submit chain. No step is
// retried; every failure surfaces to the caller with the taxonomy code the
// HTTP layer maps. Attempts are independent: nothing here is shared between
// concurrent checkouts.
func (s *CheckoutServiceImpl) InitiateCharge(ctx context.Context, req ports.ChargeInitiation) (*domain.STKPushResponse, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	accountRef := req.AccountReference
	if accountRef == "" {
		accountRef = uuid.New().String()
	}
	description := req.Description
	if description == "" {
		description = defaultTransactionDesc
	}

	token, err := s.gateway.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	charge, err := s.gateway.BuildChargeRequest(req.PhoneNumber, req.Amount, accountRef, description)
	if err != nil {
		return nil, err
	}

	resp, err := s.gateway.Submit(ctx, token.Value, charge)
	if err != nil {
		return nil, err
	}

	// The push is already on its way to the payer's device; a persistence
	// failure here must not turn an accepted charge into a reported error.
	now := time.Now().UTC()
	attempt := &domain.PaymentAttempt{
		ID:                uuid.New(),
		AccountReference:  accountRef,
		PhoneNumber:       charge.PhoneNumber,
		Amount:            req.Amount,
		MerchantRequestID: resp.MerchantRequestID,
		CheckoutRequestID: resp.CheckoutRequestID,
		Status:            domain.AttemptStatusAccepted,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		s.log.Error().Err(err).
			Str("checkout_request_id", resp.CheckoutRequestID).
			Str("account_reference", accountRef).
			Msg("failed to persist accepted attempt; callback will not correlate")
	} else {
		s.log.Info().
			Str("checkout_request_id", resp.CheckoutRequestID).
			Str("account_reference", accountRef).
			Int64("amount", req.Amount).
			Msg("charge attempt accepted")
	}

	return resp, nil
}

// HandleCallback joins an asynchronous receipt back to its attempt via
// CheckoutRequestID and records the outcome. Every return path is safe to
// acknowledge: the returned error is diagnostic only.
func (s *CheckoutServiceImpl) HandleCallback(ctx context.Context, payload []byte) error {
	cb, err := domain.ParseSTKCallback(payload)
	if err != nil {
		s.log.Warn().Err(err).Msg("unparseable callback payload, acknowledging anyway")
		return fmt.Errorf("parsing callback: %w", err)
	}
	if cb.CheckoutRequestID == "" {
		s.log.Warn().Msg("callback without CheckoutRequestID, acknowledging anyway")
		return fmt.Errorf("callback missing CheckoutRequestID")
	}

	attempt, err := s.attempts.GetByCheckoutRequestID(ctx, cb.CheckoutRequestID)
	if err != nil {
		s.log.Error().Err(err).Str("checkout_request_id", cb.CheckoutRequestID).Msg("callback attempt lookup failed")
		return fmt.Errorf("looking up attempt: %w", err)
	}
	if attempt == nil {
		s.log.Warn().Str("checkout_request_id", cb.CheckoutRequestID).Msg("callback for unknown attempt")
		return fmt.Errorf("no attempt for CheckoutRequestID %s", cb.CheckoutRequestID)
	}

	// Redeliveries of a final receipt are a no-op.
	if !attempt.ApplyCallback(cb, payload) {
		s.log.Debug().Str("checkout_request_id", cb.CheckoutRequestID).Msg("callback for already-final attempt")
		return nil
	}

	if err := s.attempts.Update(ctx, attempt); err != nil {
		s.log.Error().Err(err).Str("checkout_request_id", cb.CheckoutRequestID).Msg("failed to record callback outcome")
		return fmt.Errorf("updating attempt: %w", err)
	}

	event := s.log.Info().
		Str("checkout_request_id", cb.CheckoutRequestID).
		Str("status", string(attempt.Status)).
		Int("result_code", cb.ResultCode)
	if attempt.ReceiptNumber != nil {
		event = event.Str("receipt", *attempt.ReceiptNumber)
	}
	event.Msg("payment receipt recorded")

	return nil
}

// GetAttempt looks up a persisted attempt by account reference.
func (s *CheckoutServiceImpl) GetAttempt(ctx context.Context, accountReference string) (*domain.PaymentAttempt, error) {
	attempt, err := s.attempts.GetByAccountReference(ctx, accountReference)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if attempt == nil {
		return nil, apperror.ErrAttemptNotFound()
	}
	return attempt, nil
}
