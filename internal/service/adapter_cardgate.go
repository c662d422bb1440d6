package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/prepflow/internal/config"
	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/payment/cardgate"
)

// CardGateAdapter 银行卡聚合网关适配器
type CardGateAdapter struct {
	cfg *config.CardGateConfig
}

// NewCardGateAdapter 创建银行卡网关适配器
func NewCardGateAdapter(cfg *config.CardGateConfig) *CardGateAdapter {
	return &CardGateAdapter{cfg: cfg}
}

// Provider 渠道标签
func (a *CardGateAdapter) Provider() string {
	return constants.PaymentProviderCardGate
}

// Enabled 是否启用
func (a *CardGateAdapter) Enabled() bool {
	return a != nil && a.cfg != nil && a.cfg.Enabled
}

func (a *CardGateAdapter) gatewayConfig() *cardgate.Config {
	return &cardgate.Config{
		GatewayURL: a.cfg.GatewayURL,
		MerchantID: a.cfg.MerchantID,
		SignKey:    a.cfg.SignKey,
		NotifyURL:  a.cfg.NotifyURL,
		ReturnURL:  a.cfg.ReturnURL,
	}
}

// CreateIntent 向网关下单，返回跳转链接或二维码
func (a *CardGateAdapter) CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentArtifact, error) {
	if input.Payment == nil {
		return nil, ErrPaymentInvalid
	}
	result, err := cardgate.CreatePayment(ctx, a.gatewayConfig(), cardgate.CreateInput{
		TxnRef:   input.Payment.TxnRef,
		Amount:   input.Payment.Amount.Decimal.StringFixed(2),
		Subject:  input.Subject,
		ClientIP: input.ClientIP,
	})
	if err != nil {
		if errors.Is(err, cardgate.ErrRequestFailed) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return nil, err
	}
	return &IntentArtifact{
		PayURL:      result.PayURL,
		QRCode:      result.QRCode,
		ProviderRef: result.TradeNo,
		Extra:       models.JSON(result.Raw),
	}, nil
}

// VerifyNotification 验签后提取通知内容，签名不过即拒绝
func (a *CardGateAdapter) VerifyNotification(_ context.Context, raw RawNotification) (*GatewayNotification, error) {
	if raw.Form == nil {
		return nil, ErrPaymentSignatureInvalid
	}
	if err := cardgate.VerifyCallback(a.gatewayConfig(), raw.Form); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentSignatureInvalid, err)
	}
	n := cardgate.ParseNotification(raw.Form)
	status := constants.PaymentStatusFailed
	if n.TradeStatus == constants.CardGateTradeStatusSuccess {
		status = constants.PaymentStatusSuccess
	}
	payload := models.JSON{}
	for key, value := range n.Raw {
		payload[key] = value
	}
	return &GatewayNotification{
		TxnRef:      n.TxnRef,
		ProviderRef: n.TradeNo,
		Status:      status,
		Amount:      n.Amount,
		Payload:     payload,
	}, nil
}

// QueryStatus 聚合网关无状态回查接口
func (a *CardGateAdapter) QueryStatus(_ context.Context, _ *models.Payment) (string, error) {
	return "", ErrProviderNotSupported
}
