package public

import (
	"io"
	"strings"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/service"

	"github.com/gin-gonic/gin"
)

// StripeWebhook Stripe webhook 回调
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("stripe_webhook_body_read_failed", "error", err)
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	log.Infow("stripe_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
		"stripe_signature", strings.TrimSpace(c.GetHeader("Stripe-Signature")) != "",
	)

	payment, svcErr := h.PaymentService.HandleNotification(c.Request.Context(),
		constants.PaymentProviderStripe, service.RawNotification{
			Headers: collectWebhookHeaders(c),
			Body:    body,
		})
	if svcErr != nil {
		log.Warnw("stripe_webhook_handle_failed", "error", svcErr)
		respondError(c, response.CodeBadRequest, "webhook rejected", nil)
		return
	}
	log.Infow("stripe_webhook_processed", "payment_id", payment.ID, "status", payment.Status)
	response.Success(c, gin.H{
		"accepted":   true,
		"payment_id": payment.ID,
		"status":     payment.Status,
	})
}

// PaypalWebhook PayPal webhook 回调
func (h *Handler) PaypalWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("paypal_webhook_body_read_failed", "error", err)
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	log.Infow("paypal_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
		"paypal_transmission_id", strings.TrimSpace(c.GetHeader("Paypal-Transmission-Id")),
	)

	payment, svcErr := h.PaymentService.HandleNotification(c.Request.Context(),
		constants.PaymentProviderPaypal, service.RawNotification{
			Headers: collectWebhookHeaders(c),
			Body:    body,
		})
	if svcErr != nil {
		log.Warnw("paypal_webhook_handle_failed", "error", svcErr)
		respondError(c, response.CodeBadRequest, "webhook rejected", nil)
		return
	}
	log.Infow("paypal_webhook_processed", "payment_id", payment.ID, "status", payment.Status)
	response.Success(c, gin.H{
		"accepted":   true,
		"payment_id": payment.ID,
		"status":     payment.Status,
	})
}

func collectWebhookHeaders(c *gin.Context) map[string]string {
	headers := make(map[string]string)
	for key, values := range c.Request.Header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
	}
	return headers
}
