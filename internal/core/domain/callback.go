package domain

import "encoding/json"

// STKCallbackEnvelope is the outer wrapper of the asynchronous receipt the
// gateway POSTs to the callback URL.
type STKCallbackEnvelope struct {
	Body struct {
		StkCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

// STKCallback is the final outcome of a previously accepted push request.
// CheckoutRequestID joins it back to the originating attempt.
type STKCallback struct {
	MerchantRequestID string           `json:"MerchantRequestID"`
	CheckoutRequestID string           `json:"CheckoutRequestID"`
	ResultCode        int              `json:"ResultCode"`
	ResultDesc        string           `json:"ResultDesc"`
	CallbackMetadata  CallbackMetadata `json:"CallbackMetadata"`
}

// CallbackMetadata holds the name/value items present on successful payments.
type CallbackMetadata struct {
	Item []CallbackItem `json:"Item"`
}

// CallbackItem is a single metadata entry. Value is a string for receipt
// numbers and phone numbers, a number for amounts and dates.
type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// Succeeded reports whether the payer completed the payment.
func (c STKCallback) Succeeded() bool {
	return c.ResultCode == 0
}

// ReceiptNumber returns the MpesaReceiptNumber metadata item, or "" when
// absent (failed or cancelled payments carry no metadata).
func (c STKCallback) ReceiptNumber() string {
	for _, item := range c.CallbackMetadata.Item {
		if item.Name == "MpesaReceiptNumber" {
			if s, ok := item.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// ParseSTKCallback decodes a raw callback payload. A decode failure is not an
// error the gateway should ever see; callers log it and acknowledge anyway.
func ParseSTKCallback(payload []byte) (*STKCallback, error) {
	var env STKCallbackEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	return &env.Body.StkCallback, nil
}
