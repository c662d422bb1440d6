package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment 支付记录
type Payment struct {
	ID              uint           `gorm:"primarykey" json:"id"`                           // 主键
	OrderID         *uint          `gorm:"index" json:"order_id,omitempty"`                // 订单ID（待结算单在首次成功回调时才落单）
	UserID          uint           `gorm:"index;not null" json:"user_id"`                  // 顾客ID
	Provider        string         `gorm:"index;not null" json:"provider"`                 // 支付提供方
	InteractionMode string         `gorm:"not null" json:"interaction_mode"`               // 交互方式（qr/redirect/counter）
	Amount          Money          `gorm:"type:decimal(20,2);not null" json:"amount"`      // 支付金额
	Currency        string         `gorm:"not null" json:"currency"`                       // 币种
	Status          string         `gorm:"index;not null" json:"status"`                   // 支付状态
	TxnRef          string         `gorm:"uniqueIndex;not null" json:"txn_ref"`            // 本系统支付流水号（回调据此定位）
	ProviderRef     string         `gorm:"index" json:"provider_ref"`                      // 第三方流水号
	FailReason      string         `gorm:"type:varchar(40)" json:"fail_reason,omitempty"`  // 失败原因
	PendingPayload  JSON           `gorm:"type:json" json:"-"`                             // 冻结的待结算单（商品与加料定价快照）
	ProviderPayload JSON           `gorm:"type:json" json:"provider_payload"`              // 第三方回调数据
	PayURL          string         `gorm:"type:text" json:"pay_url"`                       // 跳转链接
	QRCode          string         `gorm:"type:text" json:"qr_code"`                       // 二维码内容/地址
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	PaidAt          *time.Time     `gorm:"index" json:"paid_at"`                           // 支付时间
	ExpiredAt       *time.Time     `gorm:"index" json:"expired_at"`                        // 过期时间
	CallbackAt      *time.Time     `gorm:"index" json:"callback_at"`                       // 回调时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
