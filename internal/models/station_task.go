package models

import (
	"time"

	"gorm.io/gorm"
)

// StationTask 工位任务表
type StationTask struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                // 主键
	OrderID      uint           `gorm:"index;not null" json:"order_id"`                      // 订单ID
	OrderItemID  *uint          `gorm:"index" json:"order_item_id,omitempty"`                // 订单项ID
	StationCode  string         `gorm:"type:varchar(40);index;not null" json:"station_code"` // 工位编码
	StationLabel string         `gorm:"not null" json:"station_label"`                       // 工位名称快照（建单时固化）
	ProductName  string         `gorm:"not null" json:"product_name"`                        // 菜品名称快照
	FoodType     string         `gorm:"type:varchar(20);not null" json:"food_type"`          // 菜品类型快照
	Quantity     int            `gorm:"not null" json:"quantity"`                            // 数量
	AddonsNote   string         `gorm:"type:varchar(500)" json:"addons_note,omitempty"`      // 加料说明
	Priority     int            `gorm:"index;not null;default:0" json:"priority"`            // 排序优先级（越小越靠前）
	PrepSeconds  int            `gorm:"not null;default:0" json:"prep_seconds"`              // 预估制作时长（秒）
	Status       string         `gorm:"index;not null" json:"status"`                        // 任务状态
	AckedBy      *uint          `gorm:"index" json:"acked_by,omitempty"`                     // 确认员工ID
	CompletedBy  *uint          `gorm:"index" json:"completed_by,omitempty"`                 // 完成员工ID
	AckedAt      *time.Time     `json:"acked_at"`                                            // 确认时间
	StartedAt    *time.Time     `json:"started_at"`                                          // 开始时间
	CompletedAt  *time.Time     `gorm:"index" json:"completed_at"`                           // 完成时间
	CanceledAt   *time.Time     `json:"canceled_at"`                                         // 取消时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                             // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间
}

// TableName 指定表名
func (StationTask) TableName() string {
	return "station_tasks"
}
