package repository

import (
	"errors"

	"github.com/prepflow/internal/models"

	"gorm.io/gorm"
)

// CartRepository 购物车数据访问接口
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	GetByID(id uint) (*models.CartItem, error)
	Create(item *models.CartItem) error
	Update(item *models.CartItem) error
	Delete(id uint) error
	ClearByUser(userID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByUser 获取用户购物车
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Product").Preload("Product.Addons").
		Where("user_id = ?", userID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID 根据 ID 获取购物车项
func (r *GormCartRepository) GetByID(id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Create 创建购物车项
func (r *GormCartRepository) Create(item *models.CartItem) error {
	return r.db.Create(item).Error
}

// Update 更新购物车项
func (r *GormCartRepository) Update(item *models.CartItem) error {
	return r.db.Save(item).Error
}

// Delete 删除购物车项
func (r *GormCartRepository) Delete(id uint) error {
	return r.db.Delete(&models.CartItem{}, id).Error
}

// ClearByUser 清空用户购物车
func (r *GormCartRepository) ClearByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
