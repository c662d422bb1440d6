package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrConfigInvalid       = errors.New("paypal config invalid")
	ErrAuthFailed          = errors.New("paypal auth failed")
	ErrRequestFailed       = errors.New("paypal request failed")
	ErrResponseInvalid     = errors.New("paypal response invalid")
	ErrWebhookVerifyFailed = errors.New("paypal webhook verify failed")
)

const (
	defaultSandboxBaseURL = "https://api-m.sandbox.paypal.com"
	defaultTimeout        = 12 * time.Second
)

// Config PayPal 渠道配置
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	WebhookID    string
	ReturnURL    string
	CancelURL    string
}

// CreateInput 创建 PayPal 订单输入
type CreateInput struct {
	TxnRef      string // 本系统支付流水号，写入 invoice_id
	Amount      string
	Currency    string
	Description string
}

// CreateResult 创建 PayPal 订单返回
type CreateResult struct {
	OrderID     string
	ApprovalURL string
	Status      string
	Raw         map[string]interface{}
}

// CaptureResult 捕获订单返回
type CaptureResult struct {
	OrderID   string
	CaptureID string
	Status    string
	Amount    string
	Currency  string
	PaidAt    *time.Time
	Raw       map[string]interface{}
}

// WebhookEvent PayPal Webhook 事件
type WebhookEvent struct {
	ID         string
	EventType  string
	CreateTime string
	Resource   map[string]interface{}
	Raw        map[string]interface{}
}

// ValidateConfig 校验配置完整性
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	cfg.normalize()
	if cfg.ClientID == "" {
		return fmt.Errorf("%w: client_id is required", ErrConfigInvalid)
	}
	if cfg.ClientSecret == "" {
		return fmt.Errorf("%w: client_secret is required", ErrConfigInvalid)
	}
	if cfg.ReturnURL == "" {
		return fmt.Errorf("%w: return_url is required", ErrConfigInvalid)
	}
	if cfg.CancelURL == "" {
		return fmt.Errorf("%w: cancel_url is required", ErrConfigInvalid)
	}
	for _, raw := range []string{cfg.BaseURL, cfg.ReturnURL, cfg.CancelURL} {
		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("%w: %s is not a valid url", ErrConfigInvalid, raw)
		}
	}
	return nil
}

// CreateOrder 创建待批准的 PayPal 订单，流水号写入 invoice_id 以便回查。
func CreateOrder(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.TxnRef) == "" || strings.TrimSpace(input.Amount) == "" || strings.TrimSpace(input.Currency) == "" {
		return nil, fmt.Errorf("%w: order input is invalid", ErrConfigInvalid)
	}

	token, err := getAccessToken(ctx, cfg)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"invoice_id": input.TxnRef,
				"custom_id":  input.TxnRef,
				"amount": map[string]string{
					"currency_code": strings.ToUpper(strings.TrimSpace(input.Currency)),
					"value":         strings.TrimSpace(input.Amount),
				},
				"description": strings.TrimSpace(input.Description),
			},
		},
		"application_context": map[string]string{
			"return_url":          cfg.ReturnURL,
			"cancel_url":          cfg.CancelURL,
			"user_action":         "PAY_NOW",
			"shipping_preference": "NO_SHIPPING",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request failed", ErrRequestFailed)
	}

	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodPost, "/v2/checkout/orders", token, body)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: create order status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	result := &CreateResult{
		OrderID:     readString(raw, "id"),
		Status:      readString(raw, "status"),
		ApprovalURL: extractLinkByRel(raw, "approve"),
		Raw:         raw,
	}
	if result.OrderID == "" || result.ApprovalURL == "" {
		return nil, fmt.Errorf("%w: missing order id or approve url", ErrResponseInvalid)
	}
	return result, nil
}

// CaptureOrder 捕获已批准的 PayPal 订单
func CaptureOrder(ctx context.Context, cfg *Config, orderID string) (*CaptureResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is empty", ErrConfigInvalid)
	}

	token, err := getAccessToken(ctx, cfg)
	if err != nil {
		return nil, err
	}

	endpoint := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodPost, endpoint, token, []byte("{}"))
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: capture status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	result := &CaptureResult{
		OrderID: readString(raw, "id"),
		Status:  readString(raw, "status"),
		Raw:     raw,
	}
	captures := readArray(raw, "purchase_units", "0", "payments", "captures")
	if len(captures) > 0 {
		if captureMap, ok := captures[0].(map[string]interface{}); ok {
			result.CaptureID = readString(captureMap, "id")
			if status := readString(captureMap, "status"); status != "" {
				result.Status = status
			}
			result.Amount = readString(captureMap, "amount", "value")
			result.Currency = readString(captureMap, "amount", "currency_code")
			if rawTime := readString(captureMap, "create_time"); rawTime != "" {
				if parsed, err := time.Parse(time.RFC3339, rawTime); err == nil {
					result.PaidAt = &parsed
				}
			}
		}
	}
	if result.OrderID == "" {
		result.OrderID = orderID
	}
	if result.Status == "" {
		return nil, fmt.Errorf("%w: missing capture status", ErrResponseInvalid)
	}
	return result, nil
}

// QueryOrder 查询 PayPal 订单状态
func QueryOrder(ctx context.Context, cfg *Config, orderID string) (*CaptureResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is empty", ErrConfigInvalid)
	}

	token, err := getAccessToken(ctx, cfg)
	if err != nil {
		return nil, err
	}
	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(orderID), token, nil)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: query order status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	result := &CaptureResult{
		OrderID:  readString(raw, "id"),
		Status:   readString(raw, "status"),
		Amount:   readString(raw, "purchase_units", "0", "amount", "value"),
		Currency: readString(raw, "purchase_units", "0", "amount", "currency_code"),
		Raw:      raw,
	}
	if result.OrderID == "" {
		return nil, fmt.Errorf("%w: missing order id", ErrResponseInvalid)
	}
	return result, nil
}

// VerifyWebhookSignature 调用官方校验接口验证 Webhook 签名
func VerifyWebhookSignature(ctx context.Context, cfg *Config, headers http.Header, event map[string]interface{}) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	cfg.normalize()
	if cfg.WebhookID == "" {
		return fmt.Errorf("%w: webhook_id is required", ErrConfigInvalid)
	}
	token, err := getAccessToken(ctx, cfg)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"transmission_id":   strings.TrimSpace(headers.Get("Paypal-Transmission-Id")),
		"transmission_time": strings.TrimSpace(headers.Get("Paypal-Transmission-Time")),
		"cert_url":          strings.TrimSpace(headers.Get("Paypal-Cert-Url")),
		"auth_algo":         strings.TrimSpace(headers.Get("Paypal-Auth-Algo")),
		"transmission_sig":  strings.TrimSpace(headers.Get("Paypal-Transmission-Sig")),
		"webhook_id":        cfg.WebhookID,
		"webhook_event":     event,
	}
	for _, key := range []string{"transmission_id", "transmission_time", "cert_url", "auth_algo", "transmission_sig"} {
		if readString(payload, key) == "" {
			return fmt.Errorf("%w: missing %s", ErrWebhookVerifyFailed, key)
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal verify payload failed", ErrWebhookVerifyFailed)
	}
	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodPost, "/v1/notifications/verify-webhook-signature", token, body)
	if err != nil {
		return err
	}
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("%w: verify status %d", ErrWebhookVerifyFailed, statusCode)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("%w: decode verify response failed", ErrWebhookVerifyFailed)
	}
	if strings.ToUpper(readString(resp, "verification_status")) != "SUCCESS" {
		return fmt.Errorf("%w: verify result is not success", ErrWebhookVerifyFailed)
	}
	return nil
}

// ParseWebhookEvent 解析 Webhook 事件体
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: webhook body is empty", ErrResponseInvalid)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: webhook body invalid", ErrResponseInvalid)
	}
	event := &WebhookEvent{
		ID:         readString(raw, "id"),
		EventType:  readString(raw, "event_type"),
		CreateTime: readString(raw, "create_time"),
		Raw:        raw,
	}
	if resource, ok := raw["resource"].(map[string]interface{}); ok {
		event.Resource = resource
	} else {
		event.Resource = map[string]interface{}{}
	}
	if event.EventType == "" {
		return nil, fmt.Errorf("%w: event_type is missing", ErrResponseInvalid)
	}
	return event, nil
}

// TxnRef 提取事件携带的本系统支付流水号
func (e *WebhookEvent) TxnRef() string {
	if e == nil {
		return ""
	}
	if val := readString(e.Resource, "invoice_id"); val != "" {
		return val
	}
	if val := readString(e.Resource, "custom_id"); val != "" {
		return val
	}
	return readString(e.Resource, "purchase_units", "0", "invoice_id")
}

// RelatedOrderID 提取关联的 PayPal 订单号
func (e *WebhookEvent) RelatedOrderID() string {
	if e == nil {
		return ""
	}
	if val := readString(e.Resource, "supplementary_data", "related_ids", "order_id"); val != "" {
		return val
	}
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(e.EventType)), "CHECKOUT.ORDER") {
		if val := readString(e.Resource, "id"); val != "" {
			return val
		}
	}
	return readString(e.Resource, "order_id")
}

// CaptureAmount 提取捕获金额和币种
func (e *WebhookEvent) CaptureAmount() (string, string) {
	if e == nil {
		return "", ""
	}
	return readString(e.Resource, "amount", "value"), readString(e.Resource, "amount", "currency_code")
}

// PaidAt 提取支付时间
func (e *WebhookEvent) PaidAt() *time.Time {
	if e == nil {
		return nil
	}
	candidates := []string{
		readString(e.Resource, "create_time"),
		readString(e.Resource, "update_time"),
		e.CreateTime,
	}
	for _, raw := range candidates {
		if raw == "" {
			continue
		}
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			return &parsed
		}
	}
	return nil
}

// ResourceStatus 提取资源状态
func (e *WebhookEvent) ResourceStatus() string {
	if e == nil {
		return ""
	}
	return readString(e.Resource, "status")
}

// ToPaymentStatus 映射 PayPal 事件到支付状态
func ToPaymentStatus(eventType, resourceStatus string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(eventType)) {
	case "PAYMENT.CAPTURE.COMPLETED", "CHECKOUT.ORDER.COMPLETED":
		return "success", true
	case "PAYMENT.CAPTURE.DENIED", "PAYMENT.CAPTURE.DECLINED", "PAYMENT.CAPTURE.FAILED", "CHECKOUT.ORDER.DENIED":
		return "failed", true
	case "PAYMENT.CAPTURE.PENDING", "CHECKOUT.ORDER.APPROVED":
		return "pending", true
	}
	switch strings.ToUpper(strings.TrimSpace(resourceStatus)) {
	case "COMPLETED":
		return "success", true
	case "DENIED", "DECLINED", "FAILED", "VOIDED":
		return "failed", true
	case "PENDING", "APPROVED", "CREATED", "SAVED":
		return "pending", true
	}
	return "", false
}

func (c *Config) normalize() {
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.ClientSecret = strings.TrimSpace(c.ClientSecret)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultSandboxBaseURL
	}
	c.WebhookID = strings.TrimSpace(c.WebhookID)
	c.ReturnURL = strings.TrimSpace(c.ReturnURL)
	c.CancelURL = strings.TrimSpace(c.CancelURL)
}

func getAccessToken(ctx context.Context, cfg *Config) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	values := url.Values{}
	values.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(values.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: build token request failed", ErrAuthFailed)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(cfg.ClientID, cfg.ClientSecret)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request token failed", ErrAuthFailed)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read token response failed", ErrAuthFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: token status %d", ErrAuthFailed, resp.StatusCode)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode token response failed", ErrAuthFailed)
	}
	token := readString(parsed, "access_token")
	if token == "" {
		return "", fmt.Errorf("%w: access_token is empty", ErrAuthFailed)
	}
	return token, nil
}

func doJSONRequest(ctx context.Context, cfg *Config, method, endpoint, token string, body []byte) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, cfg.BaseURL+endpoint, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: http request failed", ErrRequestFailed)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	return respBody, resp.StatusCode, nil
}

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultTimeout)
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return raw, nil
}

func extractLinkByRel(raw map[string]interface{}, rel string) string {
	links, ok := raw["links"].([]interface{})
	if !ok {
		return ""
	}
	rel = strings.ToLower(strings.TrimSpace(rel))
	for _, item := range links {
		linkMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if strings.ToLower(readString(linkMap, "rel")) != rel {
			continue
		}
		if href := readString(linkMap, "href"); href != "" {
			return href
		}
	}
	return ""
}

func readString(raw map[string]interface{}, path ...string) string {
	var current interface{} = raw
	for _, seg := range path {
		if idx, err := strconv.Atoi(seg); err == nil {
			arr, ok := current.([]interface{})
			if !ok || idx < 0 || idx >= len(arr) {
				return ""
			}
			current = arr[idx]
			continue
		}
		next, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		current = next[seg]
	}
	if current == nil {
		return ""
	}
	if str, ok := current.(string); ok {
		return strings.TrimSpace(str)
	}
	return strings.TrimSpace(fmt.Sprintf("%v", current))
}

func readArray(raw map[string]interface{}, path ...string) []interface{} {
	var current interface{} = raw
	for _, seg := range path {
		if idx, err := strconv.Atoi(seg); err == nil {
			arr, ok := current.([]interface{})
			if !ok || idx < 0 || idx >= len(arr) {
				return nil
			}
			current = arr[idx]
			continue
		}
		next, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = next[seg]
	}
	arr, _ := current.([]interface{})
	return arr
}
