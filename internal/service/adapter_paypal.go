package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prepflow/internal/config"
	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/payment/paypal"
)

// PaypalAdapter PayPal 国际钱包渠道适配器
type PaypalAdapter struct {
	cfg *config.PaypalConfig
}

// NewPaypalAdapter 创建 PayPal 适配器
func NewPaypalAdapter(cfg *config.PaypalConfig) *PaypalAdapter {
	return &PaypalAdapter{cfg: cfg}
}

// Provider 渠道标签
func (a *PaypalAdapter) Provider() string {
	return constants.PaymentProviderPaypal
}

// Enabled 是否启用
func (a *PaypalAdapter) Enabled() bool {
	return a != nil && a.cfg != nil && a.cfg.Enabled
}

func (a *PaypalAdapter) gatewayConfig() *paypal.Config {
	return &paypal.Config{
		ClientID:     a.cfg.ClientID,
		ClientSecret: a.cfg.ClientSecret,
		BaseURL:      a.cfg.BaseURL,
		WebhookID:    a.cfg.WebhookID,
		ReturnURL:    a.cfg.ReturnURL,
		CancelURL:    a.cfg.CancelURL,
	}
}

// CreateIntent 创建 PayPal 订单并返回批准链接
func (a *PaypalAdapter) CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentArtifact, error) {
	if input.Payment == nil {
		return nil, ErrPaymentInvalid
	}
	result, err := paypal.CreateOrder(ctx, a.gatewayConfig(), paypal.CreateInput{
		TxnRef:      input.Payment.TxnRef,
		Amount:      input.Payment.Amount.Decimal.StringFixed(2),
		Currency:    input.Payment.Currency,
		Description: input.Subject,
	})
	if err != nil {
		if errors.Is(err, paypal.ErrRequestFailed) || errors.Is(err, paypal.ErrAuthFailed) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return nil, err
	}
	return &IntentArtifact{
		PayURL:      result.ApprovalURL,
		ProviderRef: result.OrderID,
		Extra:       models.JSON(result.Raw),
	}, nil
}

// VerifyNotification 调用官方验签接口后解析事件
func (a *PaypalAdapter) VerifyNotification(ctx context.Context, raw RawNotification) (*GatewayNotification, error) {
	event, err := paypal.ParseWebhookEvent(raw.Body)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	for key, value := range raw.Headers {
		header.Set(key, value)
	}
	var eventBody map[string]interface{}
	if err := json.Unmarshal(raw.Body, &eventBody); err != nil {
		return nil, ErrPaymentInvalid
	}
	if err := paypal.VerifyWebhookSignature(ctx, a.gatewayConfig(), header, eventBody); err != nil {
		if errors.Is(err, paypal.ErrWebhookVerifyFailed) {
			return nil, fmt.Errorf("%w: %v", ErrPaymentSignatureInvalid, err)
		}
		return nil, err
	}

	status, ok := paypal.ToPaymentStatus(event.EventType, event.ResourceStatus())
	if !ok {
		status = constants.PaymentStatusInitiated
	}
	amount, currency := event.CaptureAmount()
	return &GatewayNotification{
		TxnRef:      event.TxnRef(),
		ProviderRef: event.RelatedOrderID(),
		Status:      mapPaypalStatus(status),
		Amount:      amount,
		Currency:    currency,
		PaidAt:      event.PaidAt(),
		Payload:     models.JSON(event.Raw),
	}, nil
}

// QueryStatus 按 PayPal 订单号回查状态
func (a *PaypalAdapter) QueryStatus(ctx context.Context, payment *models.Payment) (string, error) {
	if payment == nil || payment.ProviderRef == "" {
		return "", ErrPaymentInvalid
	}
	result, err := paypal.QueryOrder(ctx, a.gatewayConfig(), payment.ProviderRef)
	if err != nil {
		if errors.Is(err, paypal.ErrRequestFailed) || errors.Is(err, paypal.ErrAuthFailed) || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return "", err
	}
	status, ok := paypal.ToPaymentStatus("", result.Status)
	if !ok {
		return constants.PaymentStatusInitiated, nil
	}
	return mapPaypalStatus(status), nil
}

func mapPaypalStatus(status string) string {
	switch status {
	case "success":
		return constants.PaymentStatusSuccess
	case "failed":
		return constants.PaymentStatusFailed
	default:
		return constants.PaymentStatusInitiated
	}
}
