package models

import (
	"time"
)

// AuditLog 审计日志表
type AuditLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`                        // 主键
	ActorID    uint      `gorm:"index" json:"actor_id"`                       // 操作者ID（系统操作为 0）
	ActorType  string    `gorm:"type:varchar(20);not null" json:"actor_type"` // 操作者类型（customer/staff/admin/system/gateway）
	Action     string    `gorm:"index;not null" json:"action"`                // 动作
	Resource   string    `gorm:"index;not null" json:"resource"`              // 资源类型
	ResourceID uint      `gorm:"index" json:"resource_id"`                    // 资源ID
	Detail     JSON      `gorm:"type:json" json:"detail"`                     // 详情
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                     // 创建时间
}

// TableName 指定表名
func (AuditLog) TableName() string {
	return "audit_logs"
}
