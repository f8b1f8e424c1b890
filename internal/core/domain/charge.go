package domain

// TransactionTypePayBill is the fixed Daraja transaction type for
// customer-initiated pay-bill charges.
const TransactionTypePayBill = "CustomerPayBillOnline"

// ChargeRequest is the JSON body for a Daraja STK push. Field names follow
// the gateway's wire format exactly. A ChargeRequest is single-use: the
// Password is only valid for the Timestamp it was derived with, so the pair
// is generated together and the value is discarded after submission.
type ChargeRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResponse is the gateway's synchronous acknowledgment of a push
// submission. A 2xx HTTP status only means the request was accepted for
// processing; ResponseCode carries the actual accept/decline outcome.
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// Accepted reports whether the gateway accepted the push for delivery to the
// payer's device. It does not mean the payment completed.
func (r STKPushResponse) Accepted() bool {
	return r.ResponseCode == "0"
}

// GatewayErrorBody is the JSON error shape Daraja returns on non-2xx
// responses.
type GatewayErrorBody struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}
