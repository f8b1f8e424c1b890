package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"snack-checkout/config"
	"snack-checkout/internal/core/domain"
	"snack-checkout/internal/core/ports"
	"snack-checkout/pkg/apperror"

	"github.com/rs/zerolog"
)

const (
	tokenPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"

	// timestampLayout is Daraja's YYYYMMDDHHmmss format, local time.
	timestampLayout = "20060102150405"

	// tokenTTLMargin is shaved off the gateway-reported expiry before
	// caching, so a cached token is never served moments before it dies.
	tokenTTLMargin = 30 * time.Second

	defaultTokenLifetime = 3600 * time.Second
)

// Client implements ports.Gateway against the Safaricom Daraja API.
// Each charge attempt is an independent authenticate/build/submit chain; the
// only shared state is the optional token cache, refreshed under a mutex.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	shortCode      string
	passkey        string
	callbackURL    string

	httpClient *http.Client
	tokenCache ports.TokenCache // nil disables caching
	refreshMu  sync.Mutex
	log        zerolog.Logger
	now        func() time.Time
}

// New creates a Daraja client. tokenCache may be nil, in which case every
// attempt fetches a fresh token.
func New(cfg config.MpesaConfig, tokenCache ports.TokenCache, log zerolog.Logger) *Client {
	return &Client{
		baseURL:        cfg.BaseURL,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		shortCode:      cfg.ShortCode,
		passkey:        cfg.Passkey,
		callbackURL:    cfg.CallbackURL(),
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		tokenCache:     tokenCache,
		log:            log,
		now:            time.Now,
	}
}

// tokenResponse is the token endpoint's JSON body. Daraja sends expires_in
// as a string of seconds.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// Authenticate returns a bearer token, serving from the cache when one is
// still live. A cache failure degrades to a fresh fetch; an HTTP failure is
// never retried here.
func (c *Client) Authenticate(ctx context.Context) (domain.AccessToken, error) {
	if c.tokenCache != nil {
		cached, err := c.tokenCache.Get(ctx)
		if err != nil {
			c.log.Warn().Err(err).Msg("token cache read failed, fetching fresh token")
		} else if cached != "" {
			return domain.AccessToken{Value: cached}, nil
		}
	}

	// Single-writer refresh: concurrent attempts that all miss the cache
	// queue up here and the laggards get the token the first one stored.
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.tokenCache != nil {
		if cached, err := c.tokenCache.Get(ctx); err == nil && cached != "" {
			return domain.AccessToken{Value: cached}, nil
		}
	}

	token, err := c.fetchToken(ctx)
	if err != nil {
		return domain.AccessToken{}, err
	}

	if c.tokenCache != nil && token.TTL > 0 {
		if err := c.tokenCache.Set(ctx, token.Value, token.TTL); err != nil {
			c.log.Warn().Err(err).Msg("token cache write failed")
		}
	}

	return token, nil
}

func (c *Client) fetchToken(ctx context.Context) (domain.AccessToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tokenPath, nil)
	if err != nil {
		return domain.AccessToken{}, apperror.ErrAuthentication(err)
	}

	basic := base64.StdEncoding.EncodeToString([]byte(c.consumerKey + ":" + c.consumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.AccessToken{}, apperror.ErrAuthentication(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.AccessToken{}, apperror.ErrAuthentication(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.AccessToken{}, apperror.ErrAuthentication(fmt.Errorf("token endpoint status %d: %s", resp.StatusCode, body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return domain.AccessToken{}, apperror.ErrAuthentication(fmt.Errorf("decoding token response: %w", err))
	}
	if tr.AccessToken == "" {
		return domain.AccessToken{}, apperror.ErrAuthentication(fmt.Errorf("token endpoint returned no access_token: %s", body))
	}

	lifetime := defaultTokenLifetime
	if secs, err := strconv.Atoi(tr.ExpiresIn); err == nil && secs > 0 {
		lifetime = time.Duration(secs) * time.Second
	}
	ttl := lifetime - tokenTTLMargin
	if ttl < 0 {
		ttl = 0
	}

	return domain.AccessToken{Value: tr.AccessToken, TTL: ttl}, nil
}

// DerivePassword computes base64(shortCode + passkey + timestamp), the
// per-request password Daraja expects alongside that exact timestamp.
func DerivePassword(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}

// BuildChargeRequest normalizes the payer phone, validates it, and assembles
// a single-use charge body. The timestamp and password are taken together at
// call time; the pair must go to Submit as-is and never be recombined with
// values from another instant.
func (c *Client) BuildChargeRequest(phoneNumber string, amount int64, accountRef, description string) (*domain.ChargeRequest, error) {
	normalized := domain.NormalizeMSISDN(phoneNumber)
	if !domain.ValidateMSISDN(normalized) {
		return nil, apperror.ErrInvalidPhoneNumber(phoneNumber)
	}
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	timestamp := c.now().Format(timestampLayout)

	return &domain.ChargeRequest{
		BusinessShortCode: c.shortCode,
		Password:          DerivePassword(c.shortCode, c.passkey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   domain.TransactionTypePayBill,
		Amount:            amount,
		PartyA:            normalized,
		// The business being paid appears as both PartyB and the
		// short code on this charge type.
		PartyB:           c.shortCode,
		PhoneNumber:      normalized,
		CallBackURL:      c.callbackURL,
		AccountReference: accountRef,
		TransactionDesc:  description,
	}, nil
}

// submitResponse merges the acceptance shape with the error fields Daraja
// sometimes embeds in a 2xx body.
type submitResponse struct {
	domain.STKPushResponse
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// Submit POSTs the charge request under the bearer token. Transport and
// non-2xx failures become SubmissionError; a 2xx body whose embedded response
// code is not "0" becomes GatewayRejected with the gateway's own code and
// message. Only a genuine acceptance returns the gateway body to the caller.
func (c *Client) Submit(ctx context.Context, token string, charge *domain.ChargeRequest) (*domain.STKPushResponse, error) {
	payload, err := json.Marshal(charge)
	if err != nil {
		return nil, apperror.ErrSubmission(fmt.Errorf("encoding charge request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+stkPushPath, bytes.NewReader(payload))
	if err != nil {
		return nil, apperror.ErrSubmission(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.ErrSubmission(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.ErrSubmission(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperror.ErrSubmission(fmt.Errorf("stk push status %d: %s", resp.StatusCode, body))
	}

	var sr submitResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, apperror.ErrSubmission(fmt.Errorf("decoding stk push response: %w", err))
	}

	if !sr.Accepted() {
		code := sr.ResponseCode
		if code == "" {
			code = sr.ErrorCode
		}
		message := sr.ErrorMessage
		if message == "" {
			message = sr.ResponseDescription
		}
		return nil, apperror.ErrGatewayRejected(code, message)
	}

	c.log.Info().
		Str("merchant_request_id", sr.MerchantRequestID).
		Str("checkout_request_id", sr.CheckoutRequestID).
		Msg("stk push accepted")

	out := sr.STKPushResponse
	return &out, nil
}
