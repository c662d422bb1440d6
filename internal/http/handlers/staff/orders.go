package staff

import (
	"strconv"

	handlershared "github.com/prepflow/internal/http/handlers/shared"
	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListOrders 厨房侧订单列表，默认看自己名下的单
func (h *Handler) ListOrders(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
	}
	if c.Query("scope") == "mine" {
		filter.AssignedStaffID = staffID
	}

	orders, total, err := h.OrderService.ListAdmin(filter)
	if err != nil {
		respondStaffError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetOrder 订单详情，带工位任务与出餐进度
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	order, svcErr := h.OrderService.GetByID(uint(orderID))
	if svcErr != nil {
		respondStaffError(c, svcErr)
		return
	}
	tasks, tasksErr := h.StationTaskService.ListByOrder(order.ID)
	if tasksErr != nil {
		requestLog(c).Warnw("order_tasks_load_failed", "order_id", order.ID, "error", tasksErr)
	}
	progress, progressErr := h.StationTaskService.OrderProgressByID(order.ID)
	if progressErr != nil {
		requestLog(c).Warnw("order_progress_load_failed", "order_id", order.ID, "error", progressErr)
	}
	response.Success(c, gin.H{
		"order":    order,
		"tasks":    tasks,
		"progress": progress,
	})
}

// PackingReadiness 打包位就绪状态，全部工位任务收口后才可出餐
func (h *Handler) PackingReadiness(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	ready, svcErr := h.StationTaskService.PackingReady(uint(orderID))
	if svcErr != nil {
		respondStaffError(c, svcErr)
		return
	}
	response.Success(c, gin.H{"order_id": uint(orderID), "ready": ready})
}

// CompleteOrder 出餐完成，只有打包就绪的备餐单可以收口
func (h *Handler) CompleteOrder(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	order, svcErr := h.OrderService.Complete(uint(orderID), staffID)
	if svcErr != nil {
		respondStaffError(c, svcErr)
		return
	}
	response.Success(c, order)
}

// ConfirmCashPayment 柜台确认现金收款
func (h *Handler) ConfirmCashPayment(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	paymentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || paymentID == 0 {
		respondError(c, response.CodeBadRequest, "invalid payment id", nil)
		return
	}
	payment, svcErr := h.PaymentService.ConfirmCashPayment(uint(paymentID), staffID)
	if svcErr != nil {
		respondStaffError(c, svcErr)
		return
	}
	response.Success(c, payment)
}
