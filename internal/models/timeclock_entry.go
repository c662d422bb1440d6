package models

import (
	"time"

	"gorm.io/gorm"
)

// TimeClockEntry 员工打卡记录表
type TimeClockEntry struct {
	ID             uint           `gorm:"primarykey" json:"id"`                       // 主键
	StaffID        uint           `gorm:"index;not null" json:"staff_id"`             // 员工ID
	ShiftID        *uint          `gorm:"index" json:"shift_id,omitempty"`            // 关联班次ID
	StationCode    string         `gorm:"type:varchar(40);index" json:"station_code"` // 值守工位编码
	Status         string         `gorm:"index;not null" json:"status"`               // 打卡状态（on_duty/on_break/off_duty）
	CheckedInAt    time.Time      `gorm:"index;not null" json:"checked_in_at"`        // 上岗时间
	BreakStartedAt *time.Time     `json:"break_started_at"`                           // 休息开始时间
	CheckedOutAt   *time.Time     `gorm:"index" json:"checked_out_at"`                // 下岗时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                    // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                             // 软删除时间
}

// TableName 指定表名
func (TimeClockEntry) TableName() string {
	return "timeclock_entries"
}

// IsOpen 是否为未结束的打卡记录
func (e *TimeClockEntry) IsOpen() bool {
	return e.Status != "off_duty"
}
