package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrProviderUnavailable is returned when the provider call fails or the
// circuit breaker is open. Checkout treats it as a full-rollback failure.
var ErrProviderUnavailable = errors.New("payment provider unavailable")

// Intent is the provider's record of an amount to be collected, created
// before the payer completes payment. Amount is in minor units (paise).
type Intent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// RemotePayment is the provider's view of a captured payment.
type RemotePayment struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
}

// Client talks to a Razorpay-style orders/payments API with key-id/key-secret
// basic auth. All calls go through a circuit breaker so a degraded provider
// fails fast instead of stacking up held database locks.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(baseURL, keyID, keySecret string, timeout time.Duration) *Client {
	settings := gobreaker.Settings{
		Name: "payment-provider",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 30 * time.Second,
	}
	return &Client{
		baseURL:    baseURL,
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

type createIntentRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

// CreateIntent creates a remote payment intent for the given amount in minor
// units, tagged with the receipt identifier.
func (c *Client) CreateIntent(ctx context.Context, amountMinor int64, currency, receipt string) (*Intent, error) {
	body, err := json.Marshal(createIntentRequest{
		Amount:         amountMinor,
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal intent request: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, "/v1/orders", body)
	if err != nil {
		return nil, err
	}

	var intent Intent
	if err := json.Unmarshal(data, &intent); err != nil {
		return nil, fmt.Errorf("decode intent response: %w", err)
	}
	return &intent, nil
}

// FetchPayment retrieves a remote payment by its provider id.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*RemotePayment, error) {
	data, err := c.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, err
	}

	var p RemotePayment
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}
	return &p, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("build provider request: %w", err)
		}
		req.SetBasicAuth(c.keyID, c.keySecret)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("provider request: %w", err)
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read provider response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, payload)
		}
		return payload, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return data, nil
}
