package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/prepflow/internal/config"
	"github.com/prepflow/internal/models"
)

// CreateIntentInput 发起支付的输入，Payment 行已以 initiated 状态落库
type CreateIntentInput struct {
	Payment  *models.Payment
	Subject  string
	ClientIP string
}

// IntentArtifact 网关下单产物（跳转链接、二维码或柜台提示）
type IntentArtifact struct {
	PayURL      string
	QRCode      string
	ProviderRef string
	Extra       models.JSON
}

// RawNotification 网关异步通知的原始载荷
type RawNotification struct {
	Headers map[string]string
	Body    []byte
	Form    url.Values
}

// GatewayNotification 验签通过后的通知内容
// Amount 为空表示网关未上报金额，由账本跳过金额比对。
type GatewayNotification struct {
	TxnRef      string
	ProviderRef string
	Status      string
	Amount      string
	Currency    string
	PaidAt      *time.Time
	Payload     models.JSON
}

// PaymentAdapter 支付网关适配器：下单、验签、状态回查
type PaymentAdapter interface {
	Provider() string
	Enabled() bool
	CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentArtifact, error)
	VerifyNotification(ctx context.Context, raw RawNotification) (*GatewayNotification, error)
	QueryStatus(ctx context.Context, payment *models.Payment) (string, error)
}

// AdapterRegistry 按 provider 标签分发适配器
type AdapterRegistry struct {
	adapters map[string]PaymentAdapter
}

// NewAdapterRegistry 构建全部网关适配器
func NewAdapterRegistry(cfg *config.PaymentConfig) *AdapterRegistry {
	r := &AdapterRegistry{adapters: map[string]PaymentAdapter{}}
	if cfg == nil {
		return r
	}
	r.register(NewCashAdapter(cfg.CashEnabled))
	r.register(NewCardGateAdapter(&cfg.CardGate))
	r.register(NewWechatAdapter(&cfg.Wechat))
	r.register(NewStripeAdapter(&cfg.Stripe))
	r.register(NewPaypalAdapter(&cfg.Paypal))
	return r
}

func (r *AdapterRegistry) register(adapter PaymentAdapter) {
	if adapter == nil {
		return
	}
	r.adapters[adapter.Provider()] = adapter
}

// Get 按 provider 标签取适配器，未启用的渠道拒绝
func (r *AdapterRegistry) Get(provider string) (PaymentAdapter, error) {
	if r == nil {
		return nil, ErrProviderNotSupported
	}
	adapter, ok := r.adapters[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return nil, ErrProviderNotSupported
	}
	if !adapter.Enabled() {
		return nil, ErrProviderDisabled
	}
	return adapter, nil
}

// EnabledProviders 列出已启用的 provider 标签
func (r *AdapterRegistry) EnabledProviders() []string {
	if r == nil {
		return nil
	}
	providers := make([]string, 0, len(r.adapters))
	for tag, adapter := range r.adapters {
		if adapter.Enabled() {
			providers = append(providers, tag)
		}
	}
	return providers
}
