package repository

import (
	"errors"
	"strings"

	"github.com/prepflow/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 菜品数据访问接口
type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	GetByIDs(ids []uint) ([]models.Product, error)
	GetAddonsByIDs(ids []uint) ([]models.ProductAddon, error)
	List(filter ProductListFilter) ([]models.Product, int64, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	WithTx(tx *gorm.DB) *GormProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建菜品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// GetByID 根据 ID 获取菜品（含加料）
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.Preload("Addons").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetByIDs 批量获取菜品（含加料）
func (r *GormProductRepository) GetByIDs(ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := r.db.Preload("Addons").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// GetAddonsByIDs 批量获取加料
func (r *GormProductRepository) GetAddonsByIDs(ids []uint) ([]models.ProductAddon, error) {
	if len(ids) == 0 {
		return []models.ProductAddon{}, nil
	}
	var addons []models.ProductAddon
	if err := r.db.Where("id IN ?", ids).Find(&addons).Error; err != nil {
		return nil, err
	}
	return addons, nil
}

// List 查询菜品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})

	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.FoodType != "" {
		query = query.Where("food_type = ?", filter.FoodType)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if filter.WithAddons {
		query = query.Preload("Addons")
	}

	var products []models.Product
	if err := query.Order("sort_order asc, id asc").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Create 创建菜品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update 更新菜品
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}
