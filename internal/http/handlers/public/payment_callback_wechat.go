package public

import (
	"io"
	"net/http"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/service"

	"github.com/gin-gonic/gin"
)

// WechatCallback 微信支付异步通知。
// 应答协议固定：处理成功回 SUCCESS，其余一律 FAIL 等待网关重试。
func (h *Handler) WechatCallback(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("wechat_callback_body_read_failed", "error", err)
		respondWechatCallback(c, false)
		return
	}
	log.Infow("wechat_callback_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
	)

	headers := make(map[string]string)
	for key, values := range c.Request.Header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
	}

	payment, svcErr := h.PaymentService.HandleNotification(c.Request.Context(),
		constants.PaymentProviderWechat, service.RawNotification{
			Headers: headers,
			Body:    body,
		})
	if svcErr != nil {
		log.Warnw("wechat_callback_handle_failed", "error", svcErr)
		respondWechatCallback(c, false)
		return
	}
	log.Infow("wechat_callback_processed", "payment_id", payment.ID, "status", payment.Status)
	respondWechatCallback(c, true)
}

func respondWechatCallback(c *gin.Context, success bool) {
	if success {
		c.JSON(http.StatusOK, gin.H{
			"code":    "SUCCESS",
			"message": "成功",
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    "FAIL",
		"message": "失败",
	})
}
