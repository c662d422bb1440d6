package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（顾客与员工共用，按角色区分）
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`                 // 主键
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`    // 邮箱
	PasswordHash string         `gorm:"not null" json:"-"`                    // 密码哈希（不返回给前端）
	DisplayName  string         `gorm:"default:''" json:"display_name"`       // 昵称
	Role         string         `gorm:"index;default:'customer'" json:"role"` // 角色（customer/staff/admin）
	Status       string         `gorm:"default:'active'" json:"status"`       // 账号状态
	LastLoginAt  *time.Time     `json:"last_login_at"`                        // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`              // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`              // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                       // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsStaffRole 是否具备员工身份
func (u *User) IsStaffRole() bool {
	return u.Role == "staff" || u.Role == "admin"
}
