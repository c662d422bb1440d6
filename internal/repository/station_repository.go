package repository

import (
	"errors"
	"strings"

	"github.com/prepflow/internal/models"

	"gorm.io/gorm"
)

// StationRepository 厨房工位数据访问接口
type StationRepository interface {
	GetByCode(code string) (*models.KitchenStation, error)
	ListActive() ([]models.KitchenStation, error)
	Create(station *models.KitchenStation) error
	Update(station *models.KitchenStation) error
	WithTx(tx *gorm.DB) *GormStationRepository
}

// GormStationRepository GORM 实现
type GormStationRepository struct {
	db *gorm.DB
}

// NewStationRepository 创建工位仓库
func NewStationRepository(db *gorm.DB) *GormStationRepository {
	return &GormStationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStationRepository) WithTx(tx *gorm.DB) *GormStationRepository {
	if tx == nil {
		return r
	}
	return &GormStationRepository{db: tx}
}

// GetByCode 根据编码获取工位
func (r *GormStationRepository) GetByCode(code string) (*models.KitchenStation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var station models.KitchenStation
	if err := r.db.Where("code = ?", code).First(&station).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &station, nil
}

// ListActive 获取启用的工位列表
func (r *GormStationRepository) ListActive() ([]models.KitchenStation, error) {
	var stations []models.KitchenStation
	if err := r.db.Where("is_active = ?", true).
		Order("sort_order asc, id asc").Find(&stations).Error; err != nil {
		return nil, err
	}
	return stations, nil
}

// Create 创建工位
func (r *GormStationRepository) Create(station *models.KitchenStation) error {
	return r.db.Create(station).Error
}

// Update 更新工位
func (r *GormStationRepository) Update(station *models.KitchenStation) error {
	return r.db.Save(station).Error
}
