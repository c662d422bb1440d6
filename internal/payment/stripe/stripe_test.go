package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func signBody(secret string, ts int64, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(fmt.Sprintf("%d.%s", ts, body)))
	return hex.EncodeToString(h.Sum(nil))
}

func TestVerifyAndParseWebhook(t *testing.T) {
	secret := "whsec_test_secret"
	now := time.Unix(1700000000, 0)
	body := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {
			"object": "checkout.session",
			"id": "cs_test_1",
			"payment_intent": "pi_test_1",
			"currency": "usd",
			"amount_total": 1850,
			"payment_status": "paid",
			"metadata": {"txn_ref": "PF20260831000001"}
		}}
	}`)
	cfg := &Config{SecretKey: "sk_test", WebhookSecret: secret, SuccessURL: "https://x/s", CancelURL: "https://x/c"}

	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), signBody(secret, now.Unix(), body))
	result, err := VerifyAndParseWebhook(cfg, map[string]string{"Stripe-Signature": header}, body, now)
	if err != nil {
		t.Fatalf("VerifyAndParseWebhook() error = %v", err)
	}
	if result.TxnRef != "PF20260831000001" {
		t.Errorf("TxnRef = %q", result.TxnRef)
	}
	if result.Status != "success" {
		t.Errorf("Status = %q, want success", result.Status)
	}
	if result.Amount != "18.50" {
		t.Errorf("Amount = %q, want 18.50", result.Amount)
	}
	if result.ProviderRef != "cs_test_1" {
		t.Errorf("ProviderRef = %q", result.ProviderRef)
	}
	if result.PaymentIntentID != "pi_test_1" {
		t.Errorf("PaymentIntentID = %q", result.PaymentIntentID)
	}
}

func TestVerifyAndParseWebhookRejects(t *testing.T) {
	secret := "whsec_test_secret"
	now := time.Unix(1700000000, 0)
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"object":"payment_intent","id":"pi_1","currency":"usd","amount_received":500}}}`)
	cfg := &Config{SecretKey: "sk_test", WebhookSecret: secret, SuccessURL: "https://x/s", CancelURL: "https://x/c"}

	tests := []struct {
		name   string
		header string
		at     time.Time
	}{
		{
			name:   "missing signature header",
			header: "",
			at:     now,
		},
		{
			name:   "tampered signature",
			header: fmt.Sprintf("t=%d,v1=%s", now.Unix(), strings.Repeat("ab", 32)),
			at:     now,
		},
		{
			name:   "timestamp outside tolerance",
			header: fmt.Sprintf("t=%d,v1=%s", now.Unix(), signBody(secret, now.Unix(), body)),
			at:     now.Add(10 * time.Minute),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Stripe-Signature"] = tt.header
			}
			_, err := VerifyAndParseWebhook(cfg, headers, body, tt.at)
			if !errors.Is(err, ErrSignatureInvalid) {
				t.Fatalf("error = %v, want ErrSignatureInvalid", err)
			}
		})
	}
}

func TestToMinorAmount(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     int64
		wantErr  bool
	}{
		{amount: "18.50", currency: "USD", want: 1850},
		{amount: "1200", currency: "JPY", want: 1200},
		{amount: "0.99", currency: "cny", want: 99},
		{amount: "0", currency: "USD", wantErr: true},
		{amount: "abc", currency: "USD", wantErr: true},
	}
	for _, tt := range tests {
		got, err := toMinorAmount(tt.amount, tt.currency)
		if tt.wantErr {
			if err == nil {
				t.Errorf("toMinorAmount(%q, %q) expected error", tt.amount, tt.currency)
			}
			continue
		}
		if err != nil {
			t.Errorf("toMinorAmount(%q, %q) error = %v", tt.amount, tt.currency, err)
			continue
		}
		if got != tt.want {
			t.Errorf("toMinorAmount(%q, %q) = %d, want %d", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestMapCheckoutSessionStatus(t *testing.T) {
	if got := mapCheckoutSessionStatus("paid", "complete"); got != "success" {
		t.Errorf("paid/complete = %q", got)
	}
	if got := mapCheckoutSessionStatus("unpaid", "expired"); got != "expired" {
		t.Errorf("unpaid/expired = %q", got)
	}
	if got := mapCheckoutSessionStatus("unpaid", "open"); got != "pending" {
		t.Errorf("unpaid/open = %q", got)
	}
}
