package cardgate

import (
	"errors"
	"net/url"
	"testing"
)

func TestSign(t *testing.T) {
	params := map[string]string{
		"pid":          "1001",
		"out_trade_no": "PF20260831000003",
		"money":        "32.50",
		"name":         "table 6",
		"empty":        "",
		"sign":         "should-be-skipped",
		"sign_type":    "MD5",
	}
	got := Sign(params, "testkey")
	// md5("money=32.50&name=table 6&out_trade_no=PF20260831000003&pid=1001testkey")
	want := "74ab1a8e0b200a252ac5c46dd4c0be2c"
	if got != want {
		t.Fatalf("Sign() = %s, want %s", got, want)
	}
}

func TestVerifyCallback(t *testing.T) {
	cfg := &Config{GatewayURL: "https://gate.example.com", MerchantID: "1001", SignKey: "testkey", NotifyURL: "https://shop/notify"}

	form := url.Values{}
	form.Set("pid", "1001")
	form.Set("out_trade_no", "PF20260831000003")
	form.Set("trade_no", "GW123")
	form.Set("trade_status", "TRADE_SUCCESS")
	form.Set("money", "32.50")

	params := map[string]string{}
	for key := range form {
		params[key] = form.Get(key)
	}
	form.Set("sign", Sign(params, cfg.SignKey))
	form.Set("sign_type", "MD5")

	if err := VerifyCallback(cfg, form); err != nil {
		t.Fatalf("VerifyCallback should pass, got: %v", err)
	}

	form.Set("money", "0.01")
	if err := VerifyCallback(cfg, form); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("tampered amount should fail verification, got: %v", err)
	}

	form.Del("sign")
	if err := VerifyCallback(cfg, form); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("missing sign should fail verification, got: %v", err)
	}
}

func TestParseNotification(t *testing.T) {
	form := url.Values{}
	form.Set("out_trade_no", " PF20260831000003 ")
	form.Set("trade_no", "GW123")
	form.Set("trade_status", "TRADE_SUCCESS")
	form.Set("money", "32.50")

	n := ParseNotification(form)
	if n.TxnRef != "PF20260831000003" {
		t.Fatalf("unexpected txn ref: %q", n.TxnRef)
	}
	if n.TradeNo != "GW123" || n.TradeStatus != "TRADE_SUCCESS" || n.Amount != "32.50" {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(nil); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("nil config should be rejected")
	}
	if err := ValidateConfig(&Config{GatewayURL: "https://gate", MerchantID: "1001"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("missing sign_key should be rejected")
	}
	cfg := &Config{GatewayURL: "https://gate", MerchantID: "1001", SignKey: "k", NotifyURL: "https://shop/notify"}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("complete config should pass, got: %v", err)
	}
}
