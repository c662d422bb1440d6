package cardgate

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

var (
	ErrConfigInvalid    = errors.New("cardgate config invalid")
	ErrRequestFailed    = errors.New("cardgate request failed")
	ErrResponseInvalid  = errors.New("cardgate response invalid")
	ErrSignatureInvalid = errors.New("cardgate signature invalid")
)

// Config 银行卡聚合网关配置
type Config struct {
	GatewayURL string // 网关地址
	MerchantID string // 商户号
	SignKey    string // 签名密钥
	APIPath    string // 接口路径
	NotifyURL  string // 异步通知地址
	ReturnURL  string // 同步跳转地址
}

// CreateInput 下单输入
type CreateInput struct {
	TxnRef   string // 本系统支付流水号
	Amount   string // 金额（两位小数字符串）
	Subject  string // 订单标题
	ClientIP string // 客户端IP
}

// CreateResult 下单结果
type CreateResult struct {
	PayURL  string
	QRCode  string
	TradeNo string
	Raw     map[string]interface{}
}

// Notification 回调通知内容
type Notification struct {
	TxnRef      string // out_trade_no
	TradeNo     string // 网关流水号
	TradeStatus string
	Amount      string
	Raw         map[string]string
}

// ValidateConfig 校验网关配置完整性
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.GatewayURL) == "" {
		return fmt.Errorf("%w: gateway_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.MerchantID) == "" {
		return fmt.Errorf("%w: merchant_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.SignKey) == "" {
		return fmt.Errorf("%w: sign_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.NotifyURL) == "" {
		return fmt.Errorf("%w: notify_url is required", ErrConfigInvalid)
	}
	return nil
}

// CreatePayment 向网关下单
func CreatePayment(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if input.TxnRef == "" || input.Amount == "" {
		return nil, ErrConfigInvalid
	}
	if input.Subject == "" {
		input.Subject = input.TxnRef
	}

	params := map[string]string{
		"pid":          cfg.MerchantID,
		"out_trade_no": input.TxnRef,
		"notify_url":   cfg.NotifyURL,
		"return_url":   cfg.ReturnURL,
		"name":         input.Subject,
		"money":        input.Amount,
		"clientip":     input.ClientIP,
	}
	params["sign"] = Sign(params, cfg.SignKey)
	params["sign_type"] = "MD5"

	endpoint := buildEndpoint(cfg.GatewayURL, cfg.APIPath)
	respBytes, err := postForm(ctx, endpoint, params)
	if err != nil {
		return nil, ErrRequestFailed
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)
	var resp struct {
		Code    int    `json:"code"`
		Msg     string `json:"msg"`
		TradeNo string `json:"trade_no"`
		PayURL  string `json:"payurl"`
		QRCode  string `json:"qrcode"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, ErrResponseInvalid
	}
	if resp.Code != 1 {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Msg)
	}
	return &CreateResult{
		PayURL:  strings.TrimSpace(resp.PayURL),
		QRCode:  strings.TrimSpace(resp.QRCode),
		TradeNo: strings.TrimSpace(resp.TradeNo),
		Raw:     raw,
	}, nil
}

// VerifyCallback 验证回调签名，失败即拒绝
func VerifyCallback(cfg *Config, form url.Values) error {
	if cfg == nil || strings.TrimSpace(cfg.SignKey) == "" {
		return ErrConfigInvalid
	}
	sign := strings.TrimSpace(form.Get("sign"))
	if sign == "" {
		return ErrSignatureInvalid
	}
	params := make(map[string]string, len(form))
	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		params[key] = values[0]
	}
	expected := Sign(params, cfg.SignKey)
	if !strings.EqualFold(expected, sign) {
		return ErrSignatureInvalid
	}
	return nil
}

// ParseNotification 提取回调通知字段（须先通过 VerifyCallback）
func ParseNotification(form url.Values) *Notification {
	raw := make(map[string]string, len(form))
	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		raw[key] = values[0]
	}
	return &Notification{
		TxnRef:      strings.TrimSpace(form.Get("out_trade_no")),
		TradeNo:     strings.TrimSpace(form.Get("trade_no")),
		TradeStatus: strings.TrimSpace(form.Get("trade_status")),
		Amount:      strings.TrimSpace(form.Get("money")),
		Raw:         raw,
	}
}

// Sign 计算 MD5 签名：参数按键名升序拼接后附加密钥
func Sign(params map[string]string, key string) string {
	content := buildSignContent(params)
	sum := md5.Sum([]byte(content + key))
	return strings.ToLower(hex.EncodeToString(sum[:]))
}

func buildSignContent(params map[string]string) string {
	var keys []string
	for k, v := range params {
		if v == "" {
			continue
		}
		if k == "sign" || k == "sign_type" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, params[k]))
	}
	return strings.Join(pairs, "&")
}

func buildEndpoint(gatewayURL, apiPath string) string {
	base := strings.TrimRight(strings.TrimSpace(gatewayURL), "/")
	path := strings.TrimSpace(apiPath)
	if path == "" {
		path = "/mapi.php"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func postForm(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	values := url.Values{}
	for k, v := range params {
		if v == "" {
			continue
		}
		values.Set(k, v)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ErrRequestFailed
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return body, nil
}
