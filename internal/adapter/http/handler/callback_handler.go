package handler

import (
	"io"
	"net/http"

	"snack-checkout/internal/adapter/http/dto"
	"snack-checkout/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CallbackHandler receives STK push result callbacks from the gateway.
type CallbackHandler struct {
	checkoutSvc ports.CheckoutService
	log         zerolog.Logger
}

// NewCallbackHandler creates a new CallbackHandler.
func NewCallbackHandler(checkoutSvc ports.CheckoutService, log zerolog.Logger) *CallbackHandler {
	return &CallbackHandler{checkoutSvc: checkoutSvc, log: log}
}

// Receive handles POST /api/v1/payments/callback.
//
// The gateway treats anything but a 200 as delivery failure and keeps
// retrying, so this endpoint acknowledges unconditionally. Processing
// problems are logged, never surfaced to the caller.
func (h *CallbackHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to read callback body")
		c.JSON(http.StatusOK, dto.CallbackAck{Result: "ok"})
		return
	}

	if err := h.checkoutSvc.HandleCallback(c.Request.Context(), body); err != nil {
		h.log.Warn().Err(err).Msg("callback not processed")
	}

	c.JSON(http.StatusOK, dto.CallbackAck{Result: "ok"})
}
