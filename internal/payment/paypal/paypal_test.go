package paypal

import "testing"

func TestValidateConfig(t *testing.T) {
	cfg := &Config{
		ClientID:     " cid ",
		ClientSecret: "secret",
		BaseURL:      "https://api-m.sandbox.paypal.com/",
		ReturnURL:    "https://shop.example.com/pay/return",
		CancelURL:    "https://shop.example.com/pay/cancel",
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("ValidateConfig should pass, got: %v", err)
	}
	if cfg.ClientID != "cid" {
		t.Fatalf("client id not normalized, got: %s", cfg.ClientID)
	}
	if cfg.BaseURL != "https://api-m.sandbox.paypal.com" {
		t.Fatalf("base url not normalized, got: %s", cfg.BaseURL)
	}

	if err := ValidateConfig(&Config{ClientID: "cid"}); err == nil {
		t.Fatalf("incomplete config should be rejected")
	}
}

func TestToPaymentStatus(t *testing.T) {
	status, ok := ToPaymentStatus("PAYMENT.CAPTURE.COMPLETED", "")
	if !ok || status != "success" {
		t.Fatalf("expected success for completed event, got %s %v", status, ok)
	}
	status, ok = ToPaymentStatus("", "DECLINED")
	if !ok || status != "failed" {
		t.Fatalf("expected failed for declined resource, got %s %v", status, ok)
	}
	status, ok = ToPaymentStatus("UNKNOWN", "UNKNOWN")
	if ok || status != "" {
		t.Fatalf("expected unsupported mapping, got %s %v", status, ok)
	}
}

func TestWebhookEventHelpers(t *testing.T) {
	body := []byte(`{
		"id": "WH-1",
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"create_time": "2026-08-31T12:00:00Z",
		"resource": {
			"invoice_id": "PF20260831000002",
			"supplementary_data": {"related_ids": {"order_id": "ORDER-123"}},
			"amount": {"value": "26.00", "currency_code": "CNY"},
			"create_time": "2026-08-31T12:00:01Z",
			"status": "COMPLETED"
		}
	}`)
	event, err := ParseWebhookEvent(body)
	if err != nil {
		t.Fatalf("ParseWebhookEvent error: %v", err)
	}
	if got := event.TxnRef(); got != "PF20260831000002" {
		t.Fatalf("unexpected txn ref: %s", got)
	}
	if got := event.RelatedOrderID(); got != "ORDER-123" {
		t.Fatalf("unexpected order id: %s", got)
	}
	value, currency := event.CaptureAmount()
	if value != "26.00" || currency != "CNY" {
		t.Fatalf("unexpected amount info: %s %s", value, currency)
	}
	if event.PaidAt() == nil {
		t.Fatalf("PaidAt should parse time")
	}
	if status := event.ResourceStatus(); status != "COMPLETED" {
		t.Fatalf("unexpected resource status: %s", status)
	}
}

func TestParseWebhookEventRejectsInvalid(t *testing.T) {
	if _, err := ParseWebhookEvent(nil); err == nil {
		t.Fatalf("empty body should be rejected")
	}
	if _, err := ParseWebhookEvent([]byte(`{"id":"WH-1"}`)); err == nil {
		t.Fatalf("missing event_type should be rejected")
	}
}
