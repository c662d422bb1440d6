package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("stripe config invalid")
	ErrRequestFailed    = errors.New("stripe request failed")
	ErrResponseInvalid  = errors.New("stripe response invalid")
	ErrSignatureInvalid = errors.New("stripe signature invalid")
)

const (
	defaultAPIBaseURL        = "https://api.stripe.com"
	defaultWebhookToleranceS = 300
	defaultTimeout           = 12 * time.Second
)

// Stripe 按最小货币单位计价，这些币种没有小数位。
var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {},
	"KRW": {}, "MGA": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {},
	"VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

// Config Stripe Checkout 配置
type Config struct {
	SecretKey               string
	WebhookSecret           string
	SuccessURL              string
	CancelURL               string
	APIBaseURL              string
	WebhookToleranceSeconds int
}

// CreateInput 创建 Checkout Session 的输入
type CreateInput struct {
	TxnRef      string // 本系统支付流水号
	Amount      string // 金额（主货币单位字符串）
	Currency    string
	Description string
}

// CreateResult Checkout Session 创建结果
type CreateResult struct {
	SessionID       string
	PaymentIntentID string
	URL             string
	Status          string
	Raw             map[string]interface{}
}

// QueryResult 支付状态查询结果
type QueryResult struct {
	SessionID       string
	PaymentIntentID string
	Status          string
	Amount          string
	Currency        string
	PaidAt          *time.Time
	Raw             map[string]interface{}
}

// WebhookResult webhook 解析结果
type WebhookResult struct {
	EventID         string
	EventType       string
	TxnRef          string
	ProviderRef     string
	SessionID       string
	PaymentIntentID string
	Status          string
	Amount          string
	Currency        string
	PaidAt          *time.Time
	Raw             map[string]interface{}
}

// ValidateConfig 校验 Stripe 配置完整性
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	cfg.normalize()
	if cfg.SecretKey == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	if cfg.SuccessURL == "" {
		return fmt.Errorf("%w: success_url is required", ErrConfigInvalid)
	}
	if cfg.CancelURL == "" {
		return fmt.Errorf("%w: cancel_url is required", ErrConfigInvalid)
	}
	return nil
}

// CreateCheckoutSession 创建托管收银台会话，流水号写入 metadata 以便回查。
func CreateCheckoutSession(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.TxnRef) == "" {
		return nil, fmt.Errorf("%w: txn_ref is required", ErrConfigInvalid)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrConfigInvalid)
	}
	minorAmount, err := toMinorAmount(input.Amount, currency)
	if err != nil {
		return nil, err
	}
	subject := strings.TrimSpace(input.Description)
	if subject == "" {
		subject = input.TxnRef
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", cfg.SuccessURL)
	form.Set("cancel_url", cfg.CancelURL)
	form.Set("client_reference_id", input.TxnRef)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(minorAmount, 10))
	form.Set("line_items[0][price_data][product_data][name]", subject)
	form.Set("metadata[txn_ref]", input.TxnRef)
	form.Set("payment_intent_data[metadata][txn_ref]", input.TxnRef)
	form.Add("payment_method_types[]", "card")

	respBody, statusCode, err := doRequest(ctx, cfg, http.MethodPost, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: create checkout session status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	result := &CreateResult{
		SessionID:       readString(raw, "id"),
		URL:             readString(raw, "url"),
		Status:          readString(raw, "status"),
		PaymentIntentID: readPaymentIntentID(raw),
		Raw:             raw,
	}
	if result.SessionID == "" || result.URL == "" {
		return nil, fmt.Errorf("%w: missing session id or url", ErrResponseInvalid)
	}
	return result, nil
}

// QueryPayment 按 provider_ref 查询支付状态，兼容会话号与意图号。
func QueryPayment(ctx context.Context, cfg *Config, providerRef string) (*QueryResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	providerRef = strings.TrimSpace(providerRef)
	if providerRef == "" {
		return nil, fmt.Errorf("%w: provider_ref is required", ErrConfigInvalid)
	}
	if strings.HasPrefix(providerRef, "pi_") {
		return queryPaymentIntent(ctx, cfg, providerRef)
	}
	return queryCheckoutSession(ctx, cfg, providerRef)
}

// VerifyAndParseWebhook 校验签名与时间窗后解析 webhook 事件。
func VerifyAndParseWebhook(cfg *Config, headers map[string]string, body []byte, now time.Time) (*WebhookResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	cfg.normalize()
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrResponseInvalid)
	}
	if now.IsZero() {
		now = time.Now()
	}

	signatureHeader := headerValue(headers, "Stripe-Signature")
	if signatureHeader == "" {
		return nil, fmt.Errorf("%w: Stripe-Signature is required", ErrSignatureInvalid)
	}
	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, err
	}
	if delta := math.Abs(float64(now.Unix() - timestamp)); delta > float64(cfg.WebhookToleranceSeconds) {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
	}
	expected := computeSignature(cfg.WebhookSecret, timestamp, body)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(strings.ToLower(sig)), []byte(expected)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}

	eventRaw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	eventType := readString(eventRaw, "type")
	if eventType == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrResponseInvalid)
	}
	dataRaw := readMap(eventRaw, "data")
	objectRaw := readMap(dataRaw, "object")
	if objectRaw == nil {
		return nil, fmt.Errorf("%w: missing event object", ErrResponseInvalid)
	}

	result := &WebhookResult{
		EventID:   readString(eventRaw, "id"),
		EventType: eventType,
		Raw:       eventRaw,
	}
	fillWebhookResult(result, eventType, objectRaw)
	return result, nil
}

func fillWebhookResult(result *WebhookResult, eventType string, objectRaw map[string]interface{}) {
	metadata := readMap(objectRaw, "metadata")
	result.TxnRef = readString(metadata, "txn_ref")
	if result.TxnRef == "" {
		result.TxnRef = readString(objectRaw, "client_reference_id")
	}
	result.Currency = strings.ToUpper(readString(objectRaw, "currency"))

	switch readString(objectRaw, "object") {
	case "checkout.session":
		result.SessionID = readString(objectRaw, "id")
		result.PaymentIntentID = readPaymentIntentID(objectRaw)
		result.ProviderRef = result.SessionID
		if minor := readInt64(objectRaw, "amount_total"); minor > 0 && result.Currency != "" {
			result.Amount = fromMinorAmount(minor, result.Currency)
		}
		if status, ok := mapEventTypeStatus(eventType); ok {
			result.Status = status
		} else {
			result.Status = mapCheckoutSessionStatus(readString(objectRaw, "payment_status"), readString(objectRaw, "status"))
		}
	case "payment_intent":
		result.PaymentIntentID = readString(objectRaw, "id")
		result.ProviderRef = result.PaymentIntentID
		minor := readInt64(objectRaw, "amount_received")
		if minor <= 0 {
			minor = readInt64(objectRaw, "amount")
		}
		if minor > 0 && result.Currency != "" {
			result.Amount = fromMinorAmount(minor, result.Currency)
		}
		if status, ok := mapEventTypeStatus(eventType); ok {
			result.Status = status
		} else {
			result.Status = mapPaymentIntentStatus(readString(objectRaw, "status"))
		}
	default:
		result.ProviderRef = readString(objectRaw, "id")
		if status, ok := mapEventTypeStatus(eventType); ok {
			result.Status = status
		}
	}
	if created := readInt64(objectRaw, "created"); created > 0 {
		paidAt := time.Unix(created, 0)
		result.PaidAt = &paidAt
	}
}

func queryCheckoutSession(ctx context.Context, cfg *Config, sessionID string) (*QueryResult, error) {
	path := fmt.Sprintf("/v1/checkout/sessions/%s", url.PathEscape(sessionID))
	respBody, statusCode, err := doRequest(ctx, cfg, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: query checkout session status %d", ErrResponseInvalid, statusCode)
	}
	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	result := &QueryResult{
		SessionID:       readString(raw, "id"),
		PaymentIntentID: readPaymentIntentID(raw),
		Currency:        strings.ToUpper(readString(raw, "currency")),
		Status:          mapCheckoutSessionStatus(readString(raw, "payment_status"), readString(raw, "status")),
		Raw:             raw,
	}
	if minor := readInt64(raw, "amount_total"); minor > 0 && result.Currency != "" {
		result.Amount = fromMinorAmount(minor, result.Currency)
	}
	if created := readInt64(raw, "created"); created > 0 {
		paidAt := time.Unix(created, 0)
		result.PaidAt = &paidAt
	}
	if result.SessionID == "" {
		return nil, fmt.Errorf("%w: missing checkout session id", ErrResponseInvalid)
	}
	return result, nil
}

func queryPaymentIntent(ctx context.Context, cfg *Config, paymentIntentID string) (*QueryResult, error) {
	path := fmt.Sprintf("/v1/payment_intents/%s", url.PathEscape(paymentIntentID))
	respBody, statusCode, err := doRequest(ctx, cfg, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: query payment intent status %d", ErrResponseInvalid, statusCode)
	}
	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	result := &QueryResult{
		PaymentIntentID: readString(raw, "id"),
		Currency:        strings.ToUpper(readString(raw, "currency")),
		Status:          mapPaymentIntentStatus(readString(raw, "status")),
		Raw:             raw,
	}
	minor := readInt64(raw, "amount_received")
	if minor <= 0 {
		minor = readInt64(raw, "amount")
	}
	if minor > 0 && result.Currency != "" {
		result.Amount = fromMinorAmount(minor, result.Currency)
	}
	if created := readInt64(raw, "created"); created > 0 {
		paidAt := time.Unix(created, 0)
		result.PaidAt = &paidAt
	}
	if result.PaymentIntentID == "" {
		return nil, fmt.Errorf("%w: missing payment intent id", ErrResponseInvalid)
	}
	return result, nil
}

func mapEventTypeStatus(eventType string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded", "payment_intent.succeeded":
		return "success", true
	case "checkout.session.expired":
		return "expired", true
	case "checkout.session.async_payment_failed", "payment_intent.payment_failed", "payment_intent.canceled":
		return "failed", true
	case "payment_intent.processing":
		return "pending", true
	default:
		return "", false
	}
}

func mapCheckoutSessionStatus(paymentStatus, sessionStatus string) string {
	paymentStatus = strings.ToLower(paymentStatus)
	sessionStatus = strings.ToLower(sessionStatus)
	if paymentStatus == "paid" {
		return "success"
	}
	if sessionStatus == "expired" {
		return "expired"
	}
	if sessionStatus == "complete" && paymentStatus == "no_payment_required" {
		return "success"
	}
	return "pending"
}

func mapPaymentIntentStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "succeeded":
		return "success"
	case "canceled", "requires_payment_method":
		return "failed"
	default:
		return "pending"
	}
}

func (c *Config) normalize() {
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.SuccessURL = strings.TrimSpace(c.SuccessURL)
	c.CancelURL = strings.TrimSpace(c.CancelURL)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.WebhookToleranceSeconds <= 0 {
		c.WebhookToleranceSeconds = defaultWebhookToleranceS
	}
}

func toMinorAmount(amount, currency string) (int64, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("%w: amount is invalid", ErrConfigInvalid)
	}
	if parsed.LessThanOrEqual(decimal.Zero) {
		return 0, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	return parsed.Shift(int32(currencyScale(currency))).Round(0).IntPart(), nil
}

func fromMinorAmount(minor int64, currency string) string {
	scale := currencyScale(currency)
	return decimal.NewFromInt(minor).Shift(int32(-scale)).StringFixed(int32(scale))
}

func currencyScale(currency string) int {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return 0
	}
	return 2
}

func doRequest(ctx context.Context, cfg *Config, method, path string, form url.Values) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, cfg.APIBaseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := (&http.Client{Timeout: defaultTimeout}).Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	return body, resp.StatusCode, nil
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return raw, nil
}

func readPaymentIntentID(raw map[string]interface{}) string {
	value, ok := raw["payment_intent"]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case map[string]interface{}:
		return readString(typed, "id")
	default:
		return ""
	}
}

func computeSignature(secret string, timestamp int64, body []byte) string {
	payload := strconv.FormatInt(timestamp, 10) + "." + string(body)
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(payload))
	return strings.ToLower(hex.EncodeToString(h.Sum(nil)))
}

func parseSignatureHeader(signatureHeader string) (int64, []string, error) {
	timestamp := int64(0)
	signatures := make([]string, 0)
	for _, part := range strings.Split(signatureHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.TrimSpace(kv[0]) {
		case "t":
			parsed, err := strconv.ParseInt(strings.TrimSpace(kv[1]), 10, 64)
			if err != nil || parsed <= 0 {
				return 0, nil, fmt.Errorf("%w: invalid timestamp", ErrSignatureInvalid)
			}
			timestamp = parsed
		case "v1":
			if value := strings.TrimSpace(kv[1]); value != "" {
				signatures = append(signatures, strings.ToLower(value))
			}
		}
	}
	if timestamp <= 0 {
		return 0, nil, fmt.Errorf("%w: timestamp is missing", ErrSignatureInvalid)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: v1 signature is missing", ErrSignatureInvalid)
	}
	return timestamp, signatures, nil
}

func headerValue(headers map[string]string, key string) string {
	for h, value := range headers {
		if strings.EqualFold(strings.TrimSpace(h), key) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func readString(raw map[string]interface{}, key string) string {
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	default:
		return ""
	}
}

func readMap(raw map[string]interface{}, key string) map[string]interface{} {
	if raw == nil {
		return nil
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return nil
	}
	mapped, _ := value.(map[string]interface{})
	return mapped
}

func readInt64(raw map[string]interface{}, key string) int64 {
	value, ok := raw[key]
	if !ok || value == nil {
		return 0
	}
	switch typed := value.(type) {
	case int64:
		return typed
	case int:
		return int64(typed)
	case float64:
		return int64(typed)
	case json.Number:
		parsed, err := typed.Int64()
		if err != nil {
			return 0
		}
		return parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
