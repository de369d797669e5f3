// Package payments is a thin client for the hosted payment processor:
// intent creation, refunds and webhook signature verification. Only the
// calls the lifecycle services need are implemented.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Client struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	httpc         *http.Client
	now           func() time.Time
}

func NewClient(baseURL, apiKey, webhookSecret string) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		httpc:         &http.Client{Timeout: 15 * time.Second},
		now:           time.Now,
	}
}

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
}

type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// EnsureCustomer creates a customer record for the given email and
// returns its id. The provider deduplicates on its side; we just keep
// the returned reference.
func (c *Client) EnsureCustomer(ctx context.Context, email, name string) (string, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("name", name)

	var out struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/v1/customers", form, "", &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// CreateIntent creates a payment intent for amountCents. The
// idempotency key guards against double charges on retried requests.
func (c *Client) CreateIntent(ctx context.Context, customerID string, amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)
	if customerID != "" {
		form.Set("customer", customerID)
	}
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}

	var out Intent
	if err := c.post(ctx, "/v1/payment_intents", form, uuid.NewString(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefundIntent refunds amountCents against the intent; amountCents <= 0
// means a full refund.
func (c *Client) RefundIntent(ctx context.Context, intentID string, amountCents int64, reason string) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", intentID)
	if amountCents > 0 {
		form.Set("amount", strconv.FormatInt(amountCents, 10))
	}
	if reason != "" {
		form.Set("reason", reason)
	}

	var out Refund
	if err := c.post(ctx, "/v1/refunds", form, uuid.NewString(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, idempotencyKey string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("payments: %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("payments: %s: read body: %w", path, err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("payments: %s: %s (status %d)", path, apiErr.Error.Message, resp.StatusCode)
		}
		return fmt.Errorf("payments: %s: status %d", path, resp.StatusCode)
	}

	return json.Unmarshal(body, out)
}
