package models

import (
	"time"

	"gorm.io/gorm"
)

// StaffShift 员工排班表
type StaffShift struct {
	ID          uint           `gorm:"primarykey" json:"id"`                             // 主键
	StaffID     uint           `gorm:"index;not null" json:"staff_id"`                   // 员工ID
	StationCode string         `gorm:"type:varchar(40);index" json:"station_code"`       // 排班工位编码
	ShiftDate   string         `gorm:"type:varchar(10);index;not null" json:"shift_date"` // 班次日期（YYYY-MM-DD）
	StartClock  string         `gorm:"type:varchar(5);not null" json:"start_clock"`      // 开始时刻（HH:MM）
	EndClock    string         `gorm:"type:varchar(5);not null" json:"end_clock"`        // 结束时刻（HH:MM）
	Status      string         `gorm:"index;not null;default:'scheduled'" json:"status"` // 班次状态
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                          // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                       // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                   // 软删除时间
}

// TableName 指定表名
func (StaffShift) TableName() string {
	return "staff_shifts"
}

// Covers 判断班次是否覆盖给定时刻
func (s *StaffShift) Covers(t time.Time) bool {
	if s.ShiftDate != t.Format("2006-01-02") {
		return false
	}
	clock := t.Format("15:04")
	return s.StartClock <= clock && clock <= s.EndClock
}
