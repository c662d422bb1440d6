package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prepflow/internal/config"
	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/payment/stripe"
)

// StripeAdapter Stripe Checkout 渠道适配器
type StripeAdapter struct {
	cfg *config.StripeConfig
}

// NewStripeAdapter 创建 Stripe 适配器
func NewStripeAdapter(cfg *config.StripeConfig) *StripeAdapter {
	return &StripeAdapter{cfg: cfg}
}

// Provider 渠道标签
func (a *StripeAdapter) Provider() string {
	return constants.PaymentProviderStripe
}

// Enabled 是否启用
func (a *StripeAdapter) Enabled() bool {
	return a != nil && a.cfg != nil && a.cfg.Enabled
}

func (a *StripeAdapter) gatewayConfig() *stripe.Config {
	return &stripe.Config{
		SecretKey:     a.cfg.SecretKey,
		WebhookSecret: a.cfg.WebhookSecret,
		SuccessURL:    a.cfg.SuccessURL,
		CancelURL:     a.cfg.CancelURL,
	}
}

// CreateIntent 创建托管收银台会话
func (a *StripeAdapter) CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentArtifact, error) {
	if input.Payment == nil {
		return nil, ErrPaymentInvalid
	}
	result, err := stripe.CreateCheckoutSession(ctx, a.gatewayConfig(), stripe.CreateInput{
		TxnRef:      input.Payment.TxnRef,
		Amount:      input.Payment.Amount.Decimal.StringFixed(2),
		Currency:    input.Payment.Currency,
		Description: input.Subject,
	})
	if err != nil {
		if errors.Is(err, stripe.ErrRequestFailed) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return nil, err
	}
	return &IntentArtifact{
		PayURL:      result.URL,
		ProviderRef: result.SessionID,
		Extra:       models.JSON(result.Raw),
	}, nil
}

// VerifyNotification 校验 webhook 签名并解析事件
func (a *StripeAdapter) VerifyNotification(_ context.Context, raw RawNotification) (*GatewayNotification, error) {
	result, err := stripe.VerifyAndParseWebhook(a.gatewayConfig(), raw.Headers, raw.Body, time.Now())
	if err != nil {
		if errors.Is(err, stripe.ErrSignatureInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrPaymentSignatureInvalid, err)
		}
		return nil, err
	}
	return &GatewayNotification{
		TxnRef:      result.TxnRef,
		ProviderRef: result.ProviderRef,
		Status:      mapStripeStatus(result.Status),
		Amount:      result.Amount,
		Currency:    result.Currency,
		PaidAt:      result.PaidAt,
		Payload:     models.JSON(result.Raw),
	}, nil
}

// QueryStatus 按 provider_ref 回查会话或支付意图状态
func (a *StripeAdapter) QueryStatus(ctx context.Context, payment *models.Payment) (string, error) {
	if payment == nil || payment.ProviderRef == "" {
		return "", ErrPaymentInvalid
	}
	result, err := stripe.QueryPayment(ctx, a.gatewayConfig(), payment.ProviderRef)
	if err != nil {
		if errors.Is(err, stripe.ErrRequestFailed) || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return "", err
	}
	return mapStripeStatus(result.Status), nil
}

func mapStripeStatus(status string) string {
	switch status {
	case "success":
		return constants.PaymentStatusSuccess
	case "failed", "expired":
		return constants.PaymentStatusFailed
	default:
		return constants.PaymentStatusInitiated
	}
}
