package models

import (
	"time"

	"gorm.io/gorm"
)

// KitchenStation 厨房工位表
type KitchenStation struct {
	ID            uint           `gorm:"primarykey" json:"id"`                     // 主键
	Code          string         `gorm:"uniqueIndex;not null" json:"code"`         // 工位编码
	Name          string         `gorm:"not null" json:"name"`                     // 工位名称
	StationType   string         `gorm:"type:varchar(20)" json:"station_type"`     // 工位类型（hot/cold/drink/pack）
	IsPacking     bool           `gorm:"default:false" json:"is_packing"`          // 是否打包工位
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`      // 是否启用
	AutoCreated   bool           `gorm:"default:false" json:"auto_created"`        // 是否由路由自动建档
	BatchCapacity *int           `json:"batch_capacity,omitempty"`                 // 单批容量（空为不限）
	SortOrder     int            `gorm:"default:0;index" json:"sort_order"`        // 排序权重
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                               // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                           // 软删除时间
}

// TableName 指定表名
func (KitchenStation) TableName() string {
	return "kitchen_stations"
}
