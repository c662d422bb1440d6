package public

import (
	"strconv"

	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/service"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加购请求
type AddCartItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	AddonIDs  []uint `json:"addon_ids"`
	Remark    string `json:"remark"`
}

// UpdateCartItemRequest 改数量请求，数量为 0 表示移除
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart 购物车列表
func (h *Handler) GetCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	items, err := h.CartService.ListByUser(userID)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, items)
}

// AddCartItem 加购，同菜品同加料组合自动合并
func (h *Handler) AddCartItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	item, err := h.CartService.AddItem(service.AddItemInput{
		UserID:    userID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		AddonIDs:  req.AddonIDs,
		Remark:    req.Remark,
	})
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, item)
}

// UpdateCartItem 修改购物车行数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || itemID == 0 {
		respondError(c, response.CodeBadRequest, "invalid cart item id", nil)
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	item, svcErr := h.CartService.UpdateQuantity(userID, uint(itemID), *req.Quantity)
	if svcErr != nil {
		respondCartError(c, svcErr)
		return
	}
	response.Success(c, item)
}

// RemoveCartItem 删除购物车行
func (h *Handler) RemoveCartItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || itemID == 0 {
		respondError(c, response.CodeBadRequest, "invalid cart item id", nil)
		return
	}
	if err := h.CartService.RemoveItem(userID, uint(itemID)); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, nil)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(userID); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, nil)
}
