package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Stripe webhook verification errors.
var (
	ErrInvalidSignature = fmt.Errorf("stripe: invalid webhook signature")
	ErrStaleTimestamp   = fmt.Errorf("stripe: webhook timestamp outside tolerance")
)

// Maximum age of a webhook delivery before it is rejected as a possible replay.
const signatureTolerance = 5 * time.Minute

const defaultStripeBaseURL = "https://api.stripe.com/v1"

// StripeService handles Stripe API interactions and webhook verification.
type StripeService interface {
	CreateCustomer(ctx context.Context, email, name string) (*StripeCustomer, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*StripeSubscription, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*StripeSubscription, error)
	ConstructEvent(payload []byte, sigHeader string) (*StripeEvent, error)
}

type stripeService struct {
	apiKey        string
	webhookSecret string
	baseURL       string
	http          *http.Client
	now           func() time.Time
}

type StripeCustomer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type StripeSubscription struct {
	ID               string `json:"id"`
	Customer         string `json:"customer"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

// StripeEvent is the envelope of a webhook delivery. Data.Object carries the
// event-specific payload and is decoded by the handler per event type.
type StripeEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// NewStripeService creates a new Stripe service instance. An empty baseURL
// falls back to the public Stripe API.
func NewStripeService(apiKey, webhookSecret, baseURL string) StripeService {
	if baseURL == "" {
		baseURL = defaultStripeBaseURL
	}
	return &stripeService{
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		http:          &http.Client{Timeout: 15 * time.Second},
		now:           time.Now,
	}
}

// CreateCustomer creates a customer via the Stripe API.
func (s *stripeService) CreateCustomer(ctx context.Context, email, name string) (*StripeCustomer, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("name", name)

	body, err := s.makeRequest(ctx, http.MethodPost, "/customers", form)
	if err != nil {
		return nil, err
	}

	customer := &StripeCustomer{}
	if err := json.Unmarshal(body, customer); err != nil {
		return nil, fmt.Errorf("stripe: parse customer response: %v", err)
	}
	return customer, nil
}

// CancelSubscription cancels a subscription via the Stripe API.
func (s *stripeService) CancelSubscription(ctx context.Context, subscriptionID string) (*StripeSubscription, error) {
	body, err := s.makeRequest(ctx, http.MethodDelete, "/subscriptions/"+subscriptionID, nil)
	if err != nil {
		return nil, err
	}

	sub := &StripeSubscription{}
	if err := json.Unmarshal(body, sub); err != nil {
		return nil, fmt.Errorf("stripe: parse subscription response: %v", err)
	}
	return sub, nil
}

// GetSubscription fetches a subscription via the Stripe API.
func (s *stripeService) GetSubscription(ctx context.Context, subscriptionID string) (*StripeSubscription, error) {
	body, err := s.makeRequest(ctx, http.MethodGet, "/subscriptions/"+subscriptionID, nil)
	if err != nil {
		return nil, err
	}

	sub := &StripeSubscription{}
	if err := json.Unmarshal(body, sub); err != nil {
		return nil, fmt.Errorf("stripe: parse subscription response: %v", err)
	}
	return sub, nil
}

// ConstructEvent verifies the Stripe-Signature header against the raw request
// body and returns the parsed event. The header carries a timestamp and one
// or more v1 signatures: t=<unix>,v1=<hex hmac of "<unix>.<body>">.
func (s *stripeService) ConstructEvent(payload []byte, sigHeader string) (*StripeEvent, error) {
	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	eventTime := time.Unix(timestamp, 0)
	if s.now().Sub(eventTime) > signatureTolerance {
		return nil, ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	matched := false
	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, ErrInvalidSignature
	}

	event := &StripeEvent{}
	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("stripe: parse event payload: %v", err)
	}
	return event, nil
}

func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, ErrInvalidSignature
	}

	var timestamp int64
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, ErrInvalidSignature
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return 0, nil, ErrInvalidSignature
	}
	return timestamp, signatures, nil
}

func (s *stripeService) makeRequest(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(s.apiKey, "")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("stripe: API error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
