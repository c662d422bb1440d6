package repository

import (
	"errors"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"

	"gorm.io/gorm"
)

// TimeClockRepository 打卡数据访问接口
type TimeClockRepository interface {
	Create(entry *models.TimeClockEntry) error
	Update(entry *models.TimeClockEntry) error
	GetByID(id uint) (*models.TimeClockEntry, error)
	GetOpenByStaff(staffID uint) (*models.TimeClockEntry, error)
	GetLongestWaitingOnDuty(stationCode string) (*models.TimeClockEntry, error)
	CountOnDutyAtStationExcluding(stationCode string, excludeStaffID uint) (int64, error)
	ListOpen() ([]models.TimeClockEntry, error)
	WithTx(tx *gorm.DB) *GormTimeClockRepository
}

// GormTimeClockRepository GORM 实现
type GormTimeClockRepository struct {
	db *gorm.DB
}

// NewTimeClockRepository 创建打卡仓库
func NewTimeClockRepository(db *gorm.DB) *GormTimeClockRepository {
	return &GormTimeClockRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTimeClockRepository) WithTx(tx *gorm.DB) *GormTimeClockRepository {
	if tx == nil {
		return r
	}
	return &GormTimeClockRepository{db: tx}
}

// Create 创建打卡记录
func (r *GormTimeClockRepository) Create(entry *models.TimeClockEntry) error {
	return r.db.Create(entry).Error
}

// Update 更新打卡记录
func (r *GormTimeClockRepository) Update(entry *models.TimeClockEntry) error {
	return r.db.Save(entry).Error
}

// GetByID 根据 ID 获取打卡记录
func (r *GormTimeClockRepository) GetByID(id uint) (*models.TimeClockEntry, error) {
	var entry models.TimeClockEntry
	if err := r.db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// GetOpenByStaff 获取员工未结束的打卡记录
func (r *GormTimeClockRepository) GetOpenByStaff(staffID uint) (*models.TimeClockEntry, error) {
	var entry models.TimeClockEntry
	result := r.db.Where("staff_id = ? AND checked_out_at IS NULL", staffID).
		Order("id desc").Limit(1).Find(&entry)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &entry, nil
}

// GetLongestWaitingOnDuty 获取等待最久的在岗打卡记录。
// stationCode 非空时仅在该工位内选取。
func (r *GormTimeClockRepository) GetLongestWaitingOnDuty(stationCode string) (*models.TimeClockEntry, error) {
	query := r.db.Where("status = ? AND checked_out_at IS NULL", constants.TimeClockStatusOnDuty)
	if stationCode != "" {
		query = query.Where("station_code = ?", stationCode)
	}
	var entry models.TimeClockEntry
	result := query.Order("checked_in_at asc, id asc").Limit(1).Find(&entry)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &entry, nil
}

// CountOnDutyAtStationExcluding 统计工位上除指定员工外的在岗人数
func (r *GormTimeClockRepository) CountOnDutyAtStationExcluding(stationCode string, excludeStaffID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.TimeClockEntry{}).
		Where("station_code = ? AND status = ? AND checked_out_at IS NULL AND staff_id <> ?",
			stationCode, constants.TimeClockStatusOnDuty, excludeStaffID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListOpen 获取全部未结束的打卡记录
func (r *GormTimeClockRepository) ListOpen() ([]models.TimeClockEntry, error) {
	var entries []models.TimeClockEntry
	if err := r.db.Where("checked_out_at IS NULL").
		Order("checked_in_at asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
