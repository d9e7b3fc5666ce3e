package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testWebhookSecret = "whsec_test_secret"

func signPayload(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestStripeService(now time.Time) *stripeService {
	svc := NewStripeService("sk_test_key", testWebhookSecret, "").(*stripeService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestNewStripeService_BaseURL(t *testing.T) {
	assert.Equal(t, defaultStripeBaseURL, NewStripeService("sk", "whsec", "").(*stripeService).baseURL)
	assert.Equal(t, "http://127.0.0.1:12111/v1", NewStripeService("sk", "whsec", "http://127.0.0.1:12111/v1/").(*stripeService).baseURL)
}

// API calls must go to the configured endpoint, not the public Stripe host.
func TestGetSubscription_UsesConfiguredBaseURL(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"id":"sub_1","customer":"cus_1","status":"active","current_period_end":1756684800}`)
	}))
	defer server.Close()

	svc := NewStripeService("sk_test_key", testWebhookSecret, server.URL)
	sub, err := svc.GetSubscription(context.Background(), "sub_1")

	assert.NoError(t, err)
	assert.Equal(t, "/subscriptions/sub_1", gotPath)
	assert.Equal(t, "active", sub.Status)
}

func TestConstructEvent_ValidSignature(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_123","type":"checkout.session.completed","created":1700000000,"data":{"object":{}}}`)
	ts := now.Unix()
	header := fmt.Sprintf("t=%d,v1=%s", ts, signPayload(testWebhookSecret, ts, payload))

	svc := newTestStripeService(now)
	event, err := svc.ConstructEvent(payload, header)
	assert.NoError(t, err)
	assert.Equal(t, "evt_123", event.ID)
	assert.Equal(t, "checkout.session.completed", event.Type)
}

func TestConstructEvent_MultipleSignatures(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_456","type":"customer.subscription.updated"}`)
	ts := now.Unix()
	header := fmt.Sprintf("t=%d,v1=%s,v1=%s", ts,
		signPayload("whsec_old_secret", ts, payload),
		signPayload(testWebhookSecret, ts, payload))

	svc := newTestStripeService(now)
	event, err := svc.ConstructEvent(payload, header)
	assert.NoError(t, err)
	assert.Equal(t, "evt_456", event.ID)
}

func TestConstructEvent_WrongSecret(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_789"}`)
	ts := now.Unix()
	header := fmt.Sprintf("t=%d,v1=%s", ts, signPayload("whsec_wrong", ts, payload))

	svc := newTestStripeService(now)
	_, err := svc.ConstructEvent(payload, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestConstructEvent_TamperedPayload(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_789","amount":100}`)
	ts := now.Unix()
	header := fmt.Sprintf("t=%d,v1=%s", ts, signPayload(testWebhookSecret, ts, payload))

	svc := newTestStripeService(now)
	tampered := []byte(`{"id":"evt_789","amount":9999}`)
	_, err := svc.ConstructEvent(tampered, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestConstructEvent_StaleTimestamp(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_old"}`)
	ts := now.Add(-10 * time.Minute).Unix()
	header := fmt.Sprintf("t=%d,v1=%s", ts, signPayload(testWebhookSecret, ts, payload))

	svc := newTestStripeService(now)
	_, err := svc.ConstructEvent(payload, header)
	assert.ErrorIs(t, err, ErrStaleTimestamp)
}

func TestConstructEvent_MalformedHeader(t *testing.T) {
	svc := newTestStripeService(time.Now())

	for _, header := range []string{"", "t=abc,v1=def", "v1=deadbeef", "t=1700000000"} {
		_, err := svc.ConstructEvent([]byte(`{}`), header)
		assert.ErrorIs(t, err, ErrInvalidSignature, "header %q", header)
	}
}
