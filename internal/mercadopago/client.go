package mercadopago

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

const DefaultBaseURL = "https://api.mercadopago.com"

// ErrNotFound covers the processor's eventual-consistency lag: a payment
// referenced by a fresh notification may not be fetchable yet.
var ErrNotFound = errors.New("mercadopago: resource not found")

type Payment struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Order  struct {
		ID int64 `json:"id"`
	} `json:"order"`
}

type MerchantOrderPayment struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type MerchantOrder struct {
	ID                int64                  `json:"id"`
	OrderStatus       string                 `json:"order_status"`
	ExternalReference string                 `json:"external_reference"`
	PaidAmount        float64                `json:"paid_amount"`
	TotalAmount       float64                `json:"total_amount"`
	Payments          []MerchantOrderPayment `json:"payments"`
}

type PreferenceItem struct {
	Title      string  `json:"title"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	CurrencyID string  `json:"currency_id"`
}

type PreferenceBackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type PreferenceRequest struct {
	Items             []PreferenceItem   `json:"items"`
	ExternalReference string             `json:"external_reference"`
	BackURLs          PreferenceBackURLs `json:"back_urls"`
	AutoReturn        string             `json:"auto_return"`
	NotificationURL   string             `json:"notification_url"`
}

type PreferenceResponse struct {
	ID              string `json:"id"`
	InitPoint       string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	settings := gobreaker.Settings{
		Name:    "mercadopago",
		Timeout: 30 * time.Second,
		// A not-yet-visible payment is normal processor lag, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/payments/%s", id), nil)
	if err != nil {
		return nil, err
	}

	var payment Payment
	if e2 := json.Unmarshal(body, &payment); e2 != nil {
		return nil, fmt.Errorf("unmarshal payment: %w", e2)
	}
	return &payment, nil
}

func (c *Client) GetMerchantOrder(ctx context.Context, id string) (*MerchantOrder, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/merchant_orders/%s", id), nil)
	if err != nil {
		return nil, err
	}

	var order MerchantOrder
	if e2 := json.Unmarshal(body, &order); e2 != nil {
		return nil, fmt.Errorf("unmarshal merchant order: %w", e2)
	}
	return &order, nil
}

func (c *Client) CreatePreference(ctx context.Context, req *PreferenceRequest) (*PreferenceResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal preference: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/checkout/preferences", payload)
	if err != nil {
		return nil, err
	}

	var pref PreferenceResponse
	if e2 := json.Unmarshal(body, &pref); e2 != nil {
		return nil, fmt.Errorf("unmarshal preference: %w", e2)
	}
	return &pref, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("mercadopago %s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("mercadopago %s %s: status %d", method, path, resp.StatusCode)
		}
		return body, nil
	})
}
