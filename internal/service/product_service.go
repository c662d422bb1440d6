package service

import (
	"context"
	"strings"
	"time"

	"github.com/prepflow/internal/cache"
	"github.com/prepflow/internal/logger"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"

	"github.com/shopspring/decimal"
)

const menuCacheKey = "menu:active"
const menuCacheTTL = 60 * time.Second

// ProductService 菜单服务
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService 创建菜单服务
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// Menu 顾客菜单：在售菜品带加料，短缓存减轻点单高峰压力
func (s *ProductService) Menu(ctx context.Context) ([]models.Product, error) {
	var cached []models.Product
	if found, err := cache.GetJSON(ctx, menuCacheKey, &cached); err == nil && found {
		return cached, nil
	}
	products, _, err := s.productRepo.List(repository.ProductListFilter{
		OnlyActive: true,
		WithAddons: true,
	})
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, menuCacheKey, products, menuCacheTTL); err != nil {
		logger.Debugw("menu_cache_set_failed", "error", err)
	}
	return products, nil
}

// GetByID 获取菜品详情
func (s *ProductService) GetByID(productID uint) (*models.Product, error) {
	if productID == 0 {
		return nil, ErrInvalidInput
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotAvailable
	}
	return product, nil
}

// List 管理端菜品列表
func (s *ProductService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// SaveProductInput 菜品创建与更新参数
type SaveProductInput struct {
	Slug        string
	Name        string
	Description string
	FoodType    string
	StationCode string
	Price       decimal.Decimal
	PrepSeconds int
	Images      []string
	IsActive    bool
	SortOrder   int
}

// Create 创建菜品
func (s *ProductService) Create(input SaveProductInput) (*models.Product, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Slug) == "" {
		return nil, ErrInvalidInput
	}
	product := &models.Product{
		Slug:        strings.TrimSpace(input.Slug),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		FoodType:    input.FoodType,
		StationCode: strings.TrimSpace(input.StationCode),
		PriceAmount: models.NewMoneyFromDecimal(input.Price.Round(2)),
		PrepSeconds: input.PrepSeconds,
		Images:      models.StringArray(input.Images),
		IsActive:    input.IsActive,
		SortOrder:   input.SortOrder,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	s.invalidateMenuCache()
	logger.Infow("product_created", "product_id", product.ID, "slug", product.Slug)
	return product, nil
}

// Update 更新菜品
func (s *ProductService) Update(productID uint, input SaveProductInput) (*models.Product, error) {
	product, err := s.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) != "" {
		product.Name = strings.TrimSpace(input.Name)
	}
	product.Description = input.Description
	if input.FoodType != "" {
		product.FoodType = input.FoodType
	}
	product.StationCode = strings.TrimSpace(input.StationCode)
	if !input.Price.IsZero() {
		product.PriceAmount = models.NewMoneyFromDecimal(input.Price.Round(2))
	}
	product.PrepSeconds = input.PrepSeconds
	if input.Images != nil {
		product.Images = models.StringArray(input.Images)
	}
	product.IsActive = input.IsActive
	product.SortOrder = input.SortOrder
	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	s.invalidateMenuCache()
	return product, nil
}

// SetActive 上下架菜品
func (s *ProductService) SetActive(productID uint, active bool) error {
	product, err := s.GetByID(productID)
	if err != nil {
		return err
	}
	product.IsActive = active
	if err := s.productRepo.Update(product); err != nil {
		return err
	}
	s.invalidateMenuCache()
	logger.Infow("product_active_changed", "product_id", productID, "active", active)
	return nil
}

func (s *ProductService) invalidateMenuCache() {
	if err := cache.Del(context.Background(), menuCacheKey); err != nil {
		logger.Debugw("menu_cache_del_failed", "error", err)
	}
}
