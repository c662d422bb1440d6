package public

import (
	"strconv"

	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/service"

	"github.com/gin-gonic/gin"
)

// GetPayment 支付流水状态查询，前端据此轮询支付结果
func (h *Handler) GetPayment(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	paymentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || paymentID == 0 {
		respondError(c, response.CodeBadRequest, "invalid payment id", nil)
		return
	}
	payment, svcErr := h.PaymentService.GetByID(uint(paymentID))
	if svcErr != nil {
		respondPaymentQueryError(c, svcErr)
		return
	}
	if payment.UserID != userID {
		respondPaymentQueryError(c, service.ErrPaymentNotFound)
		return
	}
	response.Success(c, payment)
}
