package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 菜品表
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // 主键
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`                          // 唯一标识
	Name        string         `gorm:"not null" json:"name"`                                      // 菜品名称
	Description string         `gorm:"type:text" json:"description"`                              // 菜品描述
	FoodType    string         `gorm:"type:varchar(20);index;not null" json:"food_type"`          // 菜品类型（grilled/fried/drink/packaged/combo）
	StationCode string         `gorm:"type:varchar(40);index" json:"station_code"`                // 指定工位编码（为空时按菜品类型路由）
	PriceAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"` // 单价
	PrepSeconds int            `gorm:"not null;default:0" json:"prep_seconds"`                    // 预估制作时长（秒）
	Images      StringArray    `gorm:"type:json" json:"images"`                                   // 图片数组
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`                       // 是否在售
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`                         // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	// 关联
	Addons []ProductAddon `gorm:"foreignKey:ProductID" json:"addons,omitempty"` // 可选加料
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
