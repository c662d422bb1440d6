package models

import (
	"time"

	"gorm.io/gorm"
)

// CartItem 购物车项
type CartItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`           // 主键
	UserID    uint           `gorm:"index;not null" json:"user_id"`  // 顾客ID
	ProductID uint           `gorm:"index;not null" json:"product_id"` // 菜品ID
	Quantity  int            `gorm:"not null" json:"quantity"`       // 数量
	AddonIDs  UintArray      `gorm:"type:json" json:"addon_ids"`     // 选中的加料ID
	Remark    string         `gorm:"type:varchar(200)" json:"remark,omitempty"` // 单品备注
	CreatedAt time.Time      `gorm:"index" json:"created_at"`        // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`        // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                 // 软删除时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联菜品
}

// TableName 指定表名
func (CartItem) TableName() string {
	return "cart_items"
}
