package service

import (
	"context"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"
)

// CashAdapter 柜台现金渠道，没有外部网关，结算由收银员直接确认。
type CashAdapter struct {
	enabled bool
}

// NewCashAdapter 创建现金适配器
func NewCashAdapter(enabled bool) *CashAdapter {
	return &CashAdapter{enabled: enabled}
}

// Provider 渠道标签
func (a *CashAdapter) Provider() string {
	return constants.PaymentProviderCash
}

// Enabled 是否启用
func (a *CashAdapter) Enabled() bool {
	return a != nil && a.enabled
}

// CreateIntent 现金渠道无网关产物，仅提示柜台收款
func (a *CashAdapter) CreateIntent(_ context.Context, input CreateIntentInput) (*IntentArtifact, error) {
	if input.Payment == nil {
		return nil, ErrPaymentInvalid
	}
	return &IntentArtifact{
		Extra: models.JSON{"interaction_mode": constants.PaymentInteractionCounter},
	}, nil
}

// VerifyNotification 现金渠道不接收异步通知
func (a *CashAdapter) VerifyNotification(_ context.Context, _ RawNotification) (*GatewayNotification, error) {
	return nil, ErrProviderNotSupported
}

// QueryStatus 现金渠道无状态回查
func (a *CashAdapter) QueryStatus(_ context.Context, _ *models.Payment) (string, error) {
	return "", ErrProviderNotSupported
}
