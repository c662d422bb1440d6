package admin

import (
	"strconv"

	handlershared "github.com/prepflow/internal/http/handlers/shared"
	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/repository"
	"github.com/prepflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SaveProductRequest 菜品创建与更新请求
type SaveProductRequest struct {
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	FoodType    string          `json:"food_type"`
	StationCode string          `json:"station_code"`
	Price       decimal.Decimal `json:"price"`
	PrepSeconds int             `json:"prep_seconds"`
	Images      []string        `json:"images"`
	IsActive    bool            `json:"is_active"`
	SortOrder   int             `json:"sort_order"`
}

// SetProductActiveRequest 上下架请求
type SetProductActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func (r SaveProductRequest) toInput() service.SaveProductInput {
	return service.SaveProductInput{
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		FoodType:    r.FoodType,
		StationCode: r.StationCode,
		Price:       r.Price,
		PrepSeconds: r.PrepSeconds,
		Images:      r.Images,
		IsActive:    r.IsActive,
		SortOrder:   r.SortOrder,
	}
}

// ListProducts 管理端菜品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	products, total, err := h.ProductService.List(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		FoodType:   c.Query("food_type"),
		Search:     c.Query("search"),
		WithAddons: true,
	})
	if err != nil {
		respondAdminError(c, err)
		return
	}
	response.SuccessWithPage(c, products, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// CreateProduct 创建菜品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	product, err := h.ProductService.Create(req.toInput())
	if err != nil {
		respondAdminError(c, err)
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新菜品
func (h *Handler) UpdateProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}
	var req SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	product, svcErr := h.ProductService.Update(uint(productID), req.toInput())
	if svcErr != nil {
		respondAdminError(c, svcErr)
		return
	}
	response.Success(c, product)
}

// SetProductActive 上下架菜品
func (h *Handler) SetProductActive(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}
	var req SetProductActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.ProductService.SetActive(uint(productID), *req.IsActive); err != nil {
		respondAdminError(c, err)
		return
	}
	response.Success(c, nil)
}
