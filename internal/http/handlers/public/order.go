package public

import (
	"strconv"
	"strings"

	"github.com/prepflow/internal/constants"
	handlershared "github.com/prepflow/internal/http/handlers/shared"
	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"
	"github.com/prepflow/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutLineRequest 结账单行
type CheckoutLineRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	AddonIDs  []uint `json:"addon_ids"`
}

// CheckoutRequest 结账请求。from_cart 为真时以购物车内容为准。
type CheckoutRequest struct {
	Provider    string                `json:"provider" binding:"required"`
	Currency    string                `json:"currency"`
	TableNo     string                `json:"table_no"`
	Remark      string                `json:"remark"`
	StationHint string                `json:"station_hint"`
	DeliveryFee models.Money          `json:"delivery_fee"`
	FromCart    bool                  `json:"from_cart"`
	Lines       []CheckoutLineRequest `json:"lines"`
}

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// Checkout 结账。现金单直接落单并派发，在线支付先冻结待结算单等回调。
func (h *Handler) Checkout(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if !req.FromCart && len(req.Lines) == 0 {
		respondError(c, response.CodeBadRequest, "no order lines", nil)
		return
	}

	lines := make([]service.CheckoutLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, service.CheckoutLineInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			AddonIDs:  line.AddonIDs,
		})
	}

	result, err := h.PaymentService.Checkout(service.CheckoutInput{
		UserID:      userID,
		Provider:    strings.ToLower(strings.TrimSpace(req.Provider)),
		Currency:    req.Currency,
		TableNo:     strings.TrimSpace(req.TableNo),
		Remark:      req.Remark,
		StationHint: strings.TrimSpace(req.StationHint),
		DeliveryFee: req.DeliveryFee,
		ClientIP:    c.ClientIP(),
		Lines:       lines,
	}, req.FromCart)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, result)
}

// ListOrders 我的订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListByUser(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   c.Query("status"),
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetOrder 订单详情，带工位进度与支付流水
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	order, svcErr := h.OrderService.GetForUser(uint(orderID), userID)
	if svcErr != nil {
		respondOrderError(c, svcErr)
		return
	}
	progress, progressErr := h.StationTaskService.OrderProgressByID(order.ID)
	if progressErr != nil {
		requestLog(c).Warnw("order_progress_load_failed", "order_id", order.ID, "error", progressErr)
	}
	payments, paymentsErr := h.OrderService.ListPayments(order.ID)
	if paymentsErr != nil {
		requestLog(c).Warnw("order_payments_load_failed", "order_id", order.ID, "error", paymentsErr)
	}
	response.Success(c, gin.H{
		"order":    order,
		"progress": progress,
		"payments": payments,
	})
}

// CancelOrder 顾客取消订单，仅限未开始备餐的状态
func (h *Handler) CancelOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	var req CancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, svcErr := h.OrderService.Cancel(service.CancelInput{
		OrderID:   uint(orderID),
		ActorID:   userID,
		ActorType: constants.ActorTypeCustomer,
		Reason:    req.Reason,
	})
	if svcErr != nil {
		respondOrderError(c, svcErr)
		return
	}
	response.Success(c, order)
}
