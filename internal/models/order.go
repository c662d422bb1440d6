package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                       // 主键
	OrderNo         string         `gorm:"uniqueIndex;not null" json:"order_no"`                       // 订单编号
	UserID          uint           `gorm:"index;not null" json:"user_id"`                              // 顾客ID
	Status          string         `gorm:"index;not null" json:"status"`                               // 订单状态
	Currency        string         `gorm:"not null" json:"currency"`                                   // 币种
	SubtotalAmount  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal_amount"` // 菜品小计
	AddonAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"addon_amount"`  // 加料小计
	DeliveryFee     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fee"`  // 配送费
	TotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`  // 应付金额
	PaymentProvider string         `gorm:"type:varchar(20)" json:"payment_provider"`                   // 支付提供方
	TableNo         string         `gorm:"type:varchar(20)" json:"table_no,omitempty"`                 // 桌号
	Remark          string         `gorm:"type:varchar(500)" json:"remark,omitempty"`                  // 顾客备注
	StationHint     string         `gorm:"type:varchar(40)" json:"station_hint,omitempty"`             // 分派工位偏好
	AssignedStaffID *uint          `gorm:"index" json:"assigned_staff_id,omitempty"`                   // 负责员工ID
	CourierID       *uint          `gorm:"index" json:"courier_id,omitempty"`                          // 配送员ID
	ClientIP        string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`                // 下单客户端IP
	PaidAt          *time.Time     `gorm:"index" json:"paid_at"`                                       // 支付时间
	AssignedAt      *time.Time     `json:"assigned_at"`                                                // 分派时间
	CanceledAt      *time.Time     `gorm:"index" json:"canceled_at"`                                   // 取消时间
	CompletedAt     *time.Time     `gorm:"index" json:"completed_at"`                                  // 完成时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                    // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                             // 软删除时间

	// 关联
	Items []OrderItem   `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
	Tasks []StationTask `gorm:"foreignKey:OrderID" json:"tasks,omitempty"` // 工位任务
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
