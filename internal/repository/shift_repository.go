package repository

import (
	"errors"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"

	"gorm.io/gorm"
)

// ShiftRepository 排班数据访问接口
type ShiftRepository interface {
	Create(shift *models.StaffShift) error
	Update(shift *models.StaffShift) error
	GetByID(id uint) (*models.StaffShift, error)
	ListScheduledCovering(shiftDate, clock string) ([]models.StaffShift, error)
	GetScheduledByStaffCovering(staffID uint, shiftDate, clock string) (*models.StaffShift, error)
	List(filter ShiftListFilter) ([]models.StaffShift, int64, error)
	MarkMissedBefore(shiftDate string) (int64, error)
	WithTx(tx *gorm.DB) *GormShiftRepository
}

// GormShiftRepository GORM 实现
type GormShiftRepository struct {
	db *gorm.DB
}

// NewShiftRepository 创建排班仓库
func NewShiftRepository(db *gorm.DB) *GormShiftRepository {
	return &GormShiftRepository{db: db}
}

// WithTx 绑定事务
func (r *GormShiftRepository) WithTx(tx *gorm.DB) *GormShiftRepository {
	if tx == nil {
		return r
	}
	return &GormShiftRepository{db: tx}
}

// Create 创建班次
func (r *GormShiftRepository) Create(shift *models.StaffShift) error {
	return r.db.Create(shift).Error
}

// Update 更新班次
func (r *GormShiftRepository) Update(shift *models.StaffShift) error {
	return r.db.Save(shift).Error
}

// GetByID 根据 ID 获取班次
func (r *GormShiftRepository) GetByID(id uint) (*models.StaffShift, error) {
	var shift models.StaffShift
	if err := r.db.First(&shift, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shift, nil
}

// ListScheduledCovering 获取覆盖给定时刻的当日排班
func (r *GormShiftRepository) ListScheduledCovering(shiftDate, clock string) ([]models.StaffShift, error) {
	var shifts []models.StaffShift
	if err := r.db.Where("shift_date = ? AND status = ? AND start_clock <= ? AND end_clock >= ?",
		shiftDate, constants.ShiftStatusScheduled, clock, clock,
	).Order("start_clock asc, id asc").Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}

// GetScheduledByStaffCovering 获取员工覆盖给定时刻的当日排班
func (r *GormShiftRepository) GetScheduledByStaffCovering(staffID uint, shiftDate, clock string) (*models.StaffShift, error) {
	var shift models.StaffShift
	result := r.db.Where("staff_id = ? AND shift_date = ? AND status = ? AND start_clock <= ? AND end_clock >= ?",
		staffID, shiftDate, constants.ShiftStatusScheduled, clock, clock,
	).Order("id asc").Limit(1).Find(&shift)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &shift, nil
}

// List 排班列表查询
func (r *GormShiftRepository) List(filter ShiftListFilter) ([]models.StaffShift, int64, error) {
	query := r.db.Model(&models.StaffShift{})

	if filter.StaffID != 0 {
		query = query.Where("staff_id = ?", filter.StaffID)
	}
	if filter.ShiftDate != "" {
		query = query.Where("shift_date = ?", filter.ShiftDate)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var shifts []models.StaffShift
	if err := query.Order("shift_date desc, start_clock asc").Find(&shifts).Error; err != nil {
		return nil, 0, err
	}
	return shifts, total, nil
}

// MarkMissedBefore 将指定日期之前仍为 scheduled 的班次标记为 missed
func (r *GormShiftRepository) MarkMissedBefore(shiftDate string) (int64, error) {
	result := r.db.Model(&models.StaffShift{}).
		Where("shift_date < ? AND status = ?", shiftDate, constants.ShiftStatusScheduled).
		Update("status", constants.ShiftStatusMissed)
	return result.RowsAffected, result.Error
}
