package admin

import (
	"strconv"
	"time"

	handlershared "github.com/prepflow/internal/http/handlers/shared"
	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/repository"

	"github.com/gin-gonic/gin"
)

// RefundPaymentRequest 退款请求
type RefundPaymentRequest struct {
	Reason string `json:"reason"`
}

// ListPayments 管理端支付流水列表
func (h *Handler) ListPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.PaymentListFilter{
		Page:     page,
		PageSize: pageSize,
		Provider: c.Query("provider"),
		Status:   c.Query("status"),
	}
	if userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64); err == nil && userID > 0 {
		filter.UserID = uint(userID)
	}
	if orderID, err := strconv.ParseUint(c.Query("order_id"), 10, 64); err == nil && orderID > 0 {
		filter.OrderID = uint(orderID)
	}
	if from, err := time.Parse("2006-01-02", c.Query("created_from")); err == nil {
		filter.CreatedFrom = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("created_to")); err == nil {
		filter.CreatedTo = &to
	}

	payments, total, err := h.PaymentService.List(filter)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	response.SuccessWithPage(c, payments, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetPayment 支付流水详情
func (h *Handler) GetPayment(c *gin.Context) {
	paymentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || paymentID == 0 {
		respondError(c, response.CodeBadRequest, "invalid payment id", nil)
		return
	}
	payment, svcErr := h.PaymentService.GetByID(uint(paymentID))
	if svcErr != nil {
		respondAdminError(c, svcErr)
		return
	}
	response.Success(c, payment)
}

// RefundPayment 标记退款，订单同步转入 refunded
func (h *Handler) RefundPayment(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	paymentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || paymentID == 0 {
		respondError(c, response.CodeBadRequest, "invalid payment id", nil)
		return
	}
	var req RefundPaymentRequest
	_ = c.ShouldBindJSON(&req)

	payment, svcErr := h.PaymentService.Refund(uint(paymentID), adminID, req.Reason)
	if svcErr != nil {
		respondAdminError(c, svcErr)
		return
	}
	response.Success(c, payment)
}
