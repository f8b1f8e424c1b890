package integration

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"snack-checkout/config"
	"snack-checkout/internal/adapter/gateway/daraja"
	httpHandler "snack-checkout/internal/adapter/http/handler"
	redisStorage "snack-checkout/internal/adapter/storage/redis"
	"snack-checkout/internal/core/ports"
	"snack-checkout/internal/service"
	"snack-checkout/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDaraja is a stand-in for the M-Pesa sandbox: it serves the OAuth
// token endpoint and the STK push endpoint, records what it receives,
// and can be flipped into failure modes per test.
type fakeDaraja struct {
	server *httptest.Server

	tokenCalls int64
	stkCalls   int64

	failAuth    bool
	declineCode string // when set, STK responses carry this embedded code
	lastSTKBody map[string]any
}

func newFakeDaraja() *fakeDaraja {
	f := &fakeDaraja{}
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.tokenCalls, 1)
		if f.failAuth {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"errorMessage":"Invalid Credentials"}`)
			return
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Basic ") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-access-token","expires_in":"3599"}`)
	})

	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.stkCalls, 1)
		if r.Header.Get("Authorization") != "Bearer test-access-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var parsed map[string]any
		_ = json.Unmarshal(body, &parsed)
		f.lastSTKBody = parsed

		w.Header().Set("Content-Type", "application/json")
		if f.declineCode != "" {
			fmt.Fprintf(w, `{"MerchantRequestID":"29115-34620561-1",
				"CheckoutRequestID":"ws_CO_declined",
				"ResponseCode":%q,
				"ResponseDescription":"Declined",
				"errorMessage":"Insufficient funds"}`, f.declineCode)
			return
		}
		fmt.Fprint(w, `{"MerchantRequestID":"29115-34620561-1",
			"CheckoutRequestID":"ws_CO_191220191020363925",
			"ResponseCode":"0",
			"ResponseDescription":"Success. Request accepted for processing",
			"CustomerMessage":"Success. Request accepted for processing"}`)
	})

	f.server = httptest.NewServer(mux)
	return f
}

// testApp builds the full application stack: real HTTP layer, handlers,
// checkout service and Daraja client, backed by miniredis and an
// in-memory attempt repo, talking to a fake gateway.
type testApp struct {
	server  *httptest.Server
	redis   *miniredis.Miniredis
	gateway *fakeDaraja
	cfg     config.MpesaConfig
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	fake := newFakeDaraja()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	mpesaCfg := config.MpesaConfig{
		BaseURL:         fake.server.URL,
		ConsumerKey:     "test-consumer-key",
		ConsumerSecret:  "test-consumer-secret",
		ShortCode:       "174379",
		Passkey:         "test-passkey",
		CallbackBaseURL: "https://checkout.example.com",
		Timeout:         5 * time.Second,
	}

	log := logger.New("debug", false)
	tokenCache := redisStorage.NewTokenCache(rdb)
	gateway := daraja.New(mpesaCfg, tokenCache, log)

	attemptRepo := newInMemoryAttemptRepo()
	checkoutSvc := service.NewCheckoutService(gateway, attemptRepo, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		CheckoutSvc:    checkoutSvc,
		HealthCheckers: []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
		Logger:         log,
	})

	return &testApp{
		server:  httptest.NewServer(router),
		redis:   mr,
		gateway: fake,
		cfg:     mpesaCfg,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
	a.gateway.server.Close()
}

func (a *testApp) initiate(t *testing.T, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(a.server.URL+"/api/v1/payments", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp, parsed
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_InitiatePayment_HappyPath(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, body := app.initiate(t, `{"phoneNumber":"0712345678","amount":250,"accountReference":"ORDER-001"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, "ws_CO_191220191020363925", data["checkoutRequestId"])
	assert.Equal(t, "0", data["responseCode"])

	// The wire request carried the normalized MSISDN in both party fields.
	stk := app.gateway.lastSTKBody
	require.NotNil(t, stk)
	assert.Equal(t, "254712345678", stk["PartyA"])
	assert.Equal(t, "254712345678", stk["PhoneNumber"])
	assert.Equal(t, "174379", stk["BusinessShortCode"])
	assert.Equal(t, "CustomerPayBillOnline", stk["TransactionType"])
	assert.Equal(t, app.cfg.CallbackURL(), stk["CallBackURL"])

	// Password is base64(shortCode + passkey + timestamp) for the
	// same timestamp sent in the request.
	decoded, err := base64.StdEncoding.DecodeString(stk["Password"].(string))
	require.NoError(t, err)
	assert.Equal(t, "174379"+"test-passkey"+stk["Timestamp"].(string), string(decoded))
}

func TestIntegration_InitiatePayment_TokenReused(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	for i := 0; i < 3; i++ {
		resp, _ := app.initiate(t, `{"phoneNumber":"0712345678","amount":100}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	// One token exchange serves all submissions while cached.
	assert.Equal(t, int64(1), atomic.LoadInt64(&app.gateway.tokenCalls))
	assert.Equal(t, int64(3), atomic.LoadInt64(&app.gateway.stkCalls))
}

func TestIntegration_InitiatePayment_AuthFailureStopsPipeline(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	app.gateway.failAuth = true

	resp, body := app.initiate(t, `{"phoneNumber":"0712345678","amount":250}`)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "GW_001", body["error_code"])
	// The STK endpoint must never be reached without a token.
	assert.Equal(t, int64(0), atomic.LoadInt64(&app.gateway.stkCalls))
}

func TestIntegration_InitiatePayment_EmbeddedDecline(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	app.gateway.declineCode = "1"

	resp, body := app.initiate(t, `{"phoneNumber":"0712345678","amount":250}`)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "GW_003", body["error_code"])
	assert.Contains(t, body["message"], "Insufficient funds")
}

func TestIntegration_InitiatePayment_InvalidPhone(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, body := app.initiate(t, `{"phoneNumber":"712","amount":250}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "PAY_010", body["error_code"])
	assert.Equal(t, int64(0), atomic.LoadInt64(&app.gateway.tokenCalls))
}

func TestIntegration_CallbackCompletesAttempt(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, _ := app.initiate(t, `{"phoneNumber":"0712345678","amount":250,"accountReference":"ORDER-77"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	callback := `{"Body":{"stkCallback":{
		"MerchantRequestID":"29115-34620561-1",
		"CheckoutRequestID":"ws_CO_191220191020363925",
		"ResultCode":0,
		"ResultDesc":"The service request is processed successfully.",
		"CallbackMetadata":{"Item":[
			{"Name":"Amount","Value":250.0},
			{"Name":"MpesaReceiptNumber","Value":"NLJ7RT61SV"},
			{"Name":"PhoneNumber","Value":254712345678}
		]}}}}`

	cbResp, err := http.Post(app.server.URL+"/api/v1/payments/callback", "application/json", strings.NewReader(callback))
	require.NoError(t, err)
	defer cbResp.Body.Close()
	assert.Equal(t, http.StatusOK, cbResp.StatusCode)

	// The attempt is now COMPLETED with the receipt recorded.
	stResp, err := http.Get(app.server.URL + "/api/v1/payments/ORDER-77")
	require.NoError(t, err)
	defer stResp.Body.Close()
	require.Equal(t, http.StatusOK, stResp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(stResp.Body).Decode(&body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "COMPLETED", data["status"])
	assert.Equal(t, "NLJ7RT61SV", data["receiptNumber"])
}

func TestIntegration_CallbackFailureMarksAttemptFailed(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, _ := app.initiate(t, `{"phoneNumber":"0712345678","amount":250,"accountReference":"ORDER-88"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	callback := `{"Body":{"stkCallback":{
		"MerchantRequestID":"29115-34620561-1",
		"CheckoutRequestID":"ws_CO_191220191020363925",
		"ResultCode":1032,
		"ResultDesc":"Request cancelled by user"}}}`

	cbResp, err := http.Post(app.server.URL+"/api/v1/payments/callback", "application/json", strings.NewReader(callback))
	require.NoError(t, err)
	defer cbResp.Body.Close()
	assert.Equal(t, http.StatusOK, cbResp.StatusCode)

	stResp, err := http.Get(app.server.URL + "/api/v1/payments/ORDER-88")
	require.NoError(t, err)
	defer stResp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(stResp.Body).Decode(&body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "FAILED", data["status"])
	assert.Equal(t, "Request cancelled by user", data["resultDesc"])
}

func TestIntegration_UnknownCallbackStillAcknowledged(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	callback := `{"Body":{"stkCallback":{
		"MerchantRequestID":"m-x","CheckoutRequestID":"ws_CO_never_seen",
		"ResultCode":0,"ResultDesc":"ok"}}}`

	cbResp, err := http.Post(app.server.URL+"/api/v1/payments/callback", "application/json", strings.NewReader(callback))
	require.NoError(t, err)
	defer cbResp.Body.Close()

	assert.Equal(t, http.StatusOK, cbResp.StatusCode)

	raw, _ := io.ReadAll(cbResp.Body)
	assert.JSONEq(t, `{"result":"ok"}`, string(raw))
}

func TestIntegration_CallbackRedeliveryIsIdempotent(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, _ := app.initiate(t, `{"phoneNumber":"0712345678","amount":250,"accountReference":"ORDER-99"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	success := `{"Body":{"stkCallback":{
		"MerchantRequestID":"29115-34620561-1",
		"CheckoutRequestID":"ws_CO_191220191020363925",
		"ResultCode":0,
		"ResultDesc":"The service request is processed successfully.",
		"CallbackMetadata":{"Item":[{"Name":"MpesaReceiptNumber","Value":"NLJ7RT61SV"}]}}}}`
	failure := `{"Body":{"stkCallback":{
		"MerchantRequestID":"29115-34620561-1",
		"CheckoutRequestID":"ws_CO_191220191020363925",
		"ResultCode":1032,
		"ResultDesc":"Request cancelled by user"}}}`

	for _, payload := range []string{success, failure} {
		cbResp, err := http.Post(app.server.URL+"/api/v1/payments/callback", "application/json", strings.NewReader(payload))
		require.NoError(t, err)
		cbResp.Body.Close()
		assert.Equal(t, http.StatusOK, cbResp.StatusCode)
	}

	// The contradictory redelivery did not overwrite the final state.
	stResp, err := http.Get(app.server.URL + "/api/v1/payments/ORDER-99")
	require.NoError(t, err)
	defer stResp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(stResp.Body).Decode(&body))
	data := body["data"].(map[string]any)
	assert.Equal(t, "COMPLETED", data["status"])
	assert.Equal(t, "NLJ7RT61SV", data["receiptNumber"])
}

func TestIntegration_GetAttempt_NotFound(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/api/v1/payments/NOPE")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "PAY_012", body["error_code"])
}
