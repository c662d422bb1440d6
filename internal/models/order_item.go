package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// OrderItemAddon 订单项加料快照
type OrderItemAddon struct {
	AddonID     uint   `json:"addon_id"`
	Name        string `json:"name"`
	PriceAmount Money  `json:"price_amount"`
}

// AddonList 加料快照数组类型
type AddonList []OrderItemAddon

// Value 实现 driver.Valuer 接口
func (l AddonList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner 接口
func (l *AddonList) Scan(value interface{}) error {
	if value == nil {
		*l = AddonList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return nil
		}
	}
	return json.Unmarshal(bytes, l)
}

// OrderItem 订单项表
type OrderItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                     // 主键
	OrderID     uint           `gorm:"index;not null" json:"order_id"`                           // 订单ID
	ProductID   uint           `gorm:"index;not null" json:"product_id"`                         // 菜品ID
	Name        string         `gorm:"not null" json:"name"`                                     // 菜品名称快照
	FoodType    string         `gorm:"type:varchar(20);not null" json:"food_type"`               // 菜品类型快照
	StationCode string         `gorm:"type:varchar(40)" json:"station_code"`                     // 指定工位快照
	UnitPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`  // 单价快照
	Quantity    int            `gorm:"not null" json:"quantity"`                                 // 数量
	Addons      AddonList      `gorm:"type:json" json:"addons"`                                  // 加料快照
	AddonPrice  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"addon_price"` // 单份加料合计
	TotalPrice  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"` // 小计
	PrepSeconds int            `gorm:"not null;default:0" json:"prep_seconds"`                   // 预估制作时长快照（秒）
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                  // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
