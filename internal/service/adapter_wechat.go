package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prepflow/internal/config"
	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/payment/wechatpay"
)

// WechatAdapter 微信支付扫码渠道适配器
type WechatAdapter struct {
	cfg *config.WechatConfig
}

// NewWechatAdapter 创建微信支付适配器
func NewWechatAdapter(cfg *config.WechatConfig) *WechatAdapter {
	return &WechatAdapter{cfg: cfg}
}

// Provider 渠道标签
func (a *WechatAdapter) Provider() string {
	return constants.PaymentProviderWechat
}

// Enabled 是否启用
func (a *WechatAdapter) Enabled() bool {
	return a != nil && a.cfg != nil && a.cfg.Enabled
}

func (a *WechatAdapter) gatewayConfig() *wechatpay.Config {
	return &wechatpay.Config{
		AppID:              a.cfg.AppID,
		MerchantID:         a.cfg.MerchantID,
		MerchantSerialNo:   a.cfg.MerchantSerialNo,
		MerchantPrivateKey: a.cfg.MerchantPrivateKey,
		APIV3Key:           a.cfg.APIv3Key,
		NotifyURL:          a.cfg.NotifyURL,
	}
}

// CreateIntent 创建 Native 扫码支付单
func (a *WechatAdapter) CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentArtifact, error) {
	if input.Payment == nil {
		return nil, ErrPaymentInvalid
	}
	result, err := wechatpay.CreateNative(ctx, a.gatewayConfig(), wechatpay.CreateInput{
		TxnRef:      input.Payment.TxnRef,
		Amount:      input.Payment.Amount.Decimal.StringFixed(2),
		Description: input.Subject,
		ClientIP:    input.ClientIP,
	})
	if err != nil {
		if errors.Is(err, wechatpay.ErrRequestFailed) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return nil, err
	}
	return &IntentArtifact{
		QRCode:      result.QRCode,
		ProviderRef: result.PrepayID,
		Extra:       models.JSON(result.Raw),
	}, nil
}

// VerifyNotification 验签解密回调，验签失败即拒绝
func (a *WechatAdapter) VerifyNotification(ctx context.Context, raw RawNotification) (*GatewayNotification, error) {
	result, err := wechatpay.VerifyAndDecodeWebhook(ctx, a.gatewayConfig(), raw.Headers, raw.Body)
	if err != nil {
		if errors.Is(err, wechatpay.ErrSignatureInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrPaymentSignatureInvalid, err)
		}
		return nil, err
	}
	return &GatewayNotification{
		TxnRef:      result.TxnRef,
		ProviderRef: result.TransactionID,
		Status:      result.Status,
		Amount:      result.Amount,
		Currency:    result.Currency,
		PaidAt:      result.PaidAt,
		Payload:     models.JSON(result.Raw),
	}, nil
}

// QueryStatus 按商户流水号回查支付状态
func (a *WechatAdapter) QueryStatus(ctx context.Context, payment *models.Payment) (string, error) {
	if payment == nil {
		return "", ErrPaymentInvalid
	}
	result, err := wechatpay.QueryOrderByTxnRef(ctx, a.gatewayConfig(), payment.TxnRef)
	if err != nil {
		if errors.Is(err, wechatpay.ErrRequestFailed) || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return "", err
	}
	return result.Status, nil
}
