package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductAddon 菜品加料表
type ProductAddon struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // 主键
	ProductID   uint           `gorm:"index;not null" json:"product_id"`                          // 菜品ID
	Name        string         `gorm:"not null" json:"name"`                                      // 加料名称
	PriceAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"` // 加料单价
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`                       // 是否可选
	SortOrder   int            `gorm:"default:0" json:"sort_order"`                               // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (ProductAddon) TableName() string {
	return "product_addons"
}
