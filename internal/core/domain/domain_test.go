package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMSISDN(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"local zero prefix", "0712345678", "254712345678"},
		{"plus prefix", "+254712345678", "254712345678"},
		{"already normalized", "254712345678", "254712345678"},
		{"plus then zero", "+0712345678", "254712345678"},
		{"no recognized prefix passes through", "712345678", "712345678"},
		{"longer 254 number untouched", "2547123456789", "2547123456789"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeMSISDN(tt.input))
		})
	}
}

func TestValidateMSISDN(t *testing.T) {
	assert.True(t, ValidateMSISDN("254712345678"))
	assert.False(t, ValidateMSISDN("712345678"), "missing country code")
	assert.False(t, ValidateMSISDN("25471234567"), "too short")
	assert.False(t, ValidateMSISDN("2547123456789"), "too long")
	assert.False(t, ValidateMSISDN("254712a45678"), "non-digit")
	assert.False(t, ValidateMSISDN("+254712345678"), "validation runs after normalization")
}

func TestSTKPushResponse_Accepted(t *testing.T) {
	assert.True(t, STKPushResponse{ResponseCode: "0"}.Accepted())
	assert.False(t, STKPushResponse{ResponseCode: "1"}.Accepted())
	assert.False(t, STKPushResponse{}.Accepted())
}

func TestParseSTKCallback_Success(t *testing.T) {
	payload := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-1",
				"CheckoutRequestID": "ws_CO_191220191020363925",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 250.0},
						{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
						{"Name": "TransactionDate", "Value": 20191219102115},
						{"Name": "PhoneNumber", "Value": 254712345678}
					]
				}
			}
		}
	}`)

	cb, err := ParseSTKCallback(payload)
	require.NoError(t, err)

	assert.Equal(t, "ws_CO_191220191020363925", cb.CheckoutRequestID)
	assert.True(t, cb.Succeeded())
	assert.Equal(t, "NLJ7RT61SV", cb.ReceiptNumber())
}

func TestParseSTKCallback_FailureHasNoReceipt(t *testing.T) {
	payload := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "29115-34620561-2",
				"CheckoutRequestID": "ws_CO_cancelled",
				"ResultCode": 1032,
				"ResultDesc": "Request cancelled by user"
			}
		}
	}`)

	cb, err := ParseSTKCallback(payload)
	require.NoError(t, err)

	assert.False(t, cb.Succeeded())
	assert.Equal(t, "", cb.ReceiptNumber())
}

func TestParseSTKCallback_Malformed(t *testing.T) {
	_, err := ParseSTKCallback([]byte(`{not json`))
	assert.Error(t, err)
}

func TestPaymentAttempt_ApplyCallback_Success(t *testing.T) {
	a := &PaymentAttempt{
		ID:                uuid.New(),
		CheckoutRequestID: "ws_CO_1",
		Status:            AttemptStatusAccepted,
	}
	cb := &STKCallback{
		CheckoutRequestID: "ws_CO_1",
		ResultCode:        0,
		ResultDesc:        "Success",
		CallbackMetadata: CallbackMetadata{Item: []CallbackItem{
			{Name: "MpesaReceiptNumber", Value: "NLJ7RT61SV"},
		}},
	}

	changed := a.ApplyCallback(cb, []byte(`{}`))

	assert.True(t, changed)
	assert.Equal(t, AttemptStatusCompleted, a.Status)
	require.NotNil(t, a.ReceiptNumber)
	assert.Equal(t, "NLJ7RT61SV", *a.ReceiptNumber)
	require.NotNil(t, a.ResultCode)
	assert.Equal(t, 0, *a.ResultCode)
}

func TestPaymentAttempt_ApplyCallback_Failure(t *testing.T) {
	a := &PaymentAttempt{Status: AttemptStatusAccepted}
	cb := &STKCallback{ResultCode: 1032, ResultDesc: "Request cancelled by user"}

	assert.True(t, a.ApplyCallback(cb, nil))
	assert.Equal(t, AttemptStatusFailed, a.Status)
	assert.Nil(t, a.ReceiptNumber)
}

func TestPaymentAttempt_ApplyCallback_IdempotentOnFinal(t *testing.T) {
	receipt := "NLJ7RT61SV"
	a := &PaymentAttempt{Status: AttemptStatusCompleted, ReceiptNumber: &receipt}

	// Gateway redelivery of a failure callback must not flip a final state.
	changed := a.ApplyCallback(&STKCallback{ResultCode: 1032}, nil)

	assert.False(t, changed)
	assert.Equal(t, AttemptStatusCompleted, a.Status)
	assert.Equal(t, &receipt, a.ReceiptNumber)
}
