package public

import (
	"net/http"
	"strings"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/service"

	"github.com/gin-gonic/gin"
)

// CardGateCallback 银行卡网关表单回调。
// 网关要求纯文本应答，success 之外的任何应答都会触发重试。
func (h *Handler) CardGateCallback(c *gin.Context) {
	log := requestLog(c)
	if err := c.Request.ParseForm(); err != nil {
		log.Warnw("cardgate_callback_form_invalid", "client_ip", c.ClientIP(), "error", err)
		c.String(http.StatusOK, constants.CardGateCallbackFail)
		return
	}
	form := c.Request.PostForm
	if len(form) == 0 {
		form = c.Request.Form
	}
	log.Infow("cardgate_callback_received",
		"client_ip", c.ClientIP(),
		"txn_ref", strings.TrimSpace(form.Get("out_trade_no")),
		"trade_status", strings.TrimSpace(form.Get("trade_status")),
	)

	payment, err := h.PaymentService.HandleNotification(c.Request.Context(),
		constants.PaymentProviderCardGate, service.RawNotification{Form: form})
	if err != nil {
		log.Warnw("cardgate_callback_handle_failed",
			"txn_ref", strings.TrimSpace(form.Get("out_trade_no")),
			"error", err,
		)
		c.String(http.StatusOK, constants.CardGateCallbackFail)
		return
	}
	log.Infow("cardgate_callback_processed", "payment_id", payment.ID, "status", payment.Status)
	c.String(http.StatusOK, constants.CardGateCallbackSuccess)
}
