package admin

import (
	"strconv"
	"time"

	"github.com/prepflow/internal/constants"
	handlershared "github.com/prepflow/internal/http/handlers/shared"
	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/repository"
	"github.com/prepflow/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminCancelOrderRequest 管理端取消订单请求
type AdminCancelOrderRequest struct {
	Reason string `json:"reason"`
}

// ListOrders 管理端订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		OrderNo:  c.Query("order_no"),
	}
	if userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64); err == nil && userID > 0 {
		filter.UserID = uint(userID)
	}
	if staffID, err := strconv.ParseUint(c.Query("assigned_staff_id"), 10, 64); err == nil && staffID > 0 {
		filter.AssignedStaffID = uint(staffID)
	}
	if from, err := time.Parse("2006-01-02", c.Query("created_from")); err == nil {
		filter.CreatedFrom = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("created_to")); err == nil {
		filter.CreatedTo = &to
	}

	orders, total, err := h.OrderService.ListAdmin(filter)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetOrder 管理端订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	order, svcErr := h.OrderService.GetByID(uint(orderID))
	if svcErr != nil {
		respondAdminError(c, svcErr)
		return
	}
	payments, paymentsErr := h.OrderService.ListPayments(order.ID)
	if paymentsErr != nil {
		requestLog(c).Warnw("order_payments_load_failed", "order_id", order.ID, "error", paymentsErr)
	}
	tasks, tasksErr := h.StationTaskService.ListByOrder(order.ID)
	if tasksErr != nil {
		requestLog(c).Warnw("order_tasks_load_failed", "order_id", order.ID, "error", tasksErr)
	}
	response.Success(c, gin.H{
		"order":    order,
		"payments": payments,
		"tasks":    tasks,
	})
}

// CancelOrder 管理端取消订单，备餐中也可强制取消
func (h *Handler) CancelOrder(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	var req AdminCancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, svcErr := h.OrderService.Cancel(service.CancelInput{
		OrderID:   uint(orderID),
		ActorID:   adminID,
		ActorType: constants.ActorTypeAdmin,
		Reason:    req.Reason,
	})
	if svcErr != nil {
		respondAdminError(c, svcErr)
		return
	}
	response.Success(c, order)
}
