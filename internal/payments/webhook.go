package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrSignatureExpired = errors.New("webhook signature timestamp too old")
)

// signatureTolerance bounds replay of captured webhook payloads.
const signatureTolerance = 5 * time.Minute

// Event is the subset of the provider's webhook payload the service
// acts on. Unrecognized types are acknowledged and ignored upstream.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                 string `json:"id"`
			Status             string `json:"status"`
			LastPaymentError   string `json:"last_payment_error,omitempty"`
			CancellationReason string `json:"cancellation_reason,omitempty"`
		} `json:"object"`
	} `json:"data"`
}

const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

func ParseEvent(payload []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("parse webhook event: %w", err)
	}
	return &ev, nil
}

// VerifySignature checks the provider's "t=<unix>,v1=<hex hmac>" header
// against the shared webhook secret. It fails closed: any malformed or
// stale header is rejected before the payload is looked at.
func (c *Client) VerifySignature(payload []byte, header string) error {
	var ts int64
	var sigs []string

	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			ts = parsed
		case "v1":
			sigs = append(sigs, v)
		}
	}

	if ts == 0 || len(sigs) == 0 {
		return ErrInvalidSignature
	}

	age := c.now().Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return ErrSignatureExpired
	}

	expected := computeSignature(c.webhookSecret, ts, payload)
	for _, sig := range sigs {
		raw, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(raw, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

func computeSignature(secret string, ts int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}
