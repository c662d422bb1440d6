package public

import (
	"strconv"

	"github.com/prepflow/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetMenu 在售菜单
func (h *Handler) GetMenu(c *gin.Context) {
	products, err := h.ProductService.Menu(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "menu load failed", err)
		return
	}
	response.Success(c, products)
}

// GetProduct 菜品详情
func (h *Handler) GetProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}
	product, svcErr := h.ProductService.GetByID(uint(productID))
	if svcErr != nil {
		respondError(c, response.CodeNotFound, "product not found", nil)
		return
	}
	response.Success(c, product)
}

// GetPaymentProviders 当前可用的支付方式
func (h *Handler) GetPaymentProviders(c *gin.Context) {
	response.Success(c, gin.H{
		"providers": h.PaymentService.EnabledProviders(),
	})
}
