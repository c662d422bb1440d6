package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/queue"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HandleNotification 处理网关异步通知。验签失败直接拒绝，
// 金额不一致的通知只会把流水推向 failed，绝不标记成功。
// 同一流水的重复成功通知幂等返回。
func (s *PaymentService) HandleNotification(ctx context.Context, provider string, raw RawNotification) (*models.Payment, error) {
	adapter, err := s.adapters.Get(provider)
	if err != nil {
		return nil, err
	}
	notif, err := adapter.VerifyNotification(ctx, raw)
	if err != nil {
		paymentLogger("provider", provider).Warnw("payment_callback_verify_failed", "error", err)
		return nil, err
	}

	payment, err := s.paymentRepo.GetByTxnRef(notif.TxnRef)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		paymentLogger("provider", provider, "txn_ref", notif.TxnRef).
			Warnw("payment_callback_unknown_txn")
		return nil, ErrPaymentNotFound
	}
	if payment.Provider != provider {
		paymentLogger("txn_ref", payment.TxnRef, "expected", payment.Provider, "got", provider).
			Warnw("payment_callback_provider_mismatch")
		return nil, ErrPaymentInvalid
	}

	// 已成功的不再回退状态，重复通知直接确认
	if payment.Status == constants.PaymentStatusSuccess {
		paymentLogger("txn_ref", payment.TxnRef).Debugw("payment_callback_duplicate")
		return payment, nil
	}
	if payment.Status == constants.PaymentStatusRefunded {
		paymentLogger("txn_ref", payment.TxnRef).Warnw("payment_callback_after_refund")
		return payment, nil
	}

	if err := s.verifyNotificationAmount(payment, notif); err != nil {
		s.markPaymentFailed(payment, constants.PaymentFailReasonAmountMismatch)
		return nil, err
	}

	switch notif.Status {
	case constants.PaymentStatusSuccess:
		return s.applyPaymentSuccess(payment, notif)
	case constants.PaymentStatusFailed:
		s.markPaymentFailed(payment, constants.PaymentFailReasonGatewayDeclined)
		return payment, nil
	default:
		paymentLogger("txn_ref", payment.TxnRef, "status", notif.Status).
			Debugw("payment_callback_nonfinal")
		return payment, nil
	}
}

// verifyNotificationAmount 核对通知金额与币种，网关未报金额时跳过核对
func (s *PaymentService) verifyNotificationAmount(payment *models.Payment, notif *GatewayNotification) error {
	if notif.Currency != "" && !strings.EqualFold(notif.Currency, payment.Currency) {
		paymentLogger("txn_ref", payment.TxnRef, "expected", payment.Currency, "got", notif.Currency).
			Warnw("payment_currency_mismatch")
		return ErrPaymentCurrencyMismatch
	}
	if notif.Amount == "" {
		return nil
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(notif.Amount))
	if err != nil {
		return ErrPaymentAmountMismatch
	}
	if !amount.Equal(payment.Amount.Decimal) {
		paymentLogger("txn_ref", payment.TxnRef,
			"expected", payment.Amount.Decimal.StringFixed(2), "got", amount.StringFixed(2)).
			Warnw("payment_amount_mismatch")
		return ErrPaymentAmountMismatch
	}
	return nil
}

// applyPaymentSuccess 落成功：条件更新抢占 initiated，赢家在同事务内
// 物化订单（延迟建单渠道）、推进订单状态并派入后厨。输家幂等返回。
func (s *PaymentService) applyPaymentSuccess(payment *models.Payment, notif *GatewayNotification) (*models.Payment, error) {
	var dispatch *DispatchResult
	var order *models.Order
	raceLost := false
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		paymentRepo := s.paymentRepo.WithTx(tx)
		now := time.Now()
		paidAt := now
		if notif.PaidAt != nil {
			paidAt = *notif.PaidAt
		}
		updates := map[string]interface{}{
			"paid_at":     paidAt,
			"callback_at": now,
			"updated_at":  now,
		}
		if notif.ProviderRef != "" {
			updates["provider_ref"] = notif.ProviderRef
		}
		if len(notif.Payload) > 0 {
			updates["provider_payload"] = notif.Payload
		}
		won, err := paymentRepo.MarkSuccess(payment.ID, updates)
		if err != nil {
			return ErrPaymentUpdateFailed
		}
		if !won {
			paymentLogger("txn_ref", payment.TxnRef).Debugw("payment_success_race_lost")
			raceLost = true
			return nil
		}
		payment.Status = constants.PaymentStatusSuccess
		payment.PaidAt = &paidAt
		payment.CallbackAt = &now
		if notif.ProviderRef != "" {
			payment.ProviderRef = notif.ProviderRef
		}

		if payment.OrderID == nil {
			payload, err := DecodePendingOrderPayload(payment.PendingPayload)
			if err != nil {
				return err
			}
			created, err := materializePendingOrder(tx, s.orderRepo, payload, payment.Provider, paidAt)
			if err != nil {
				return err
			}
			payment.OrderID = &created.ID
			if err := paymentRepo.Update(payment); err != nil {
				return ErrPaymentUpdateFailed
			}
			order = created
		} else {
			existing, err := s.orderRepo.WithTx(tx).GetByID(*payment.OrderID)
			if err != nil {
				return ErrOrderFetchFailed
			}
			if existing == nil {
				paymentLogger("txn_ref", payment.TxnRef, "order_id", *payment.OrderID).
					Warnw("payment_success_order_missing")
				return nil
			}
			order = existing
			if order.Status == constants.OrderStatusPending || order.Status == constants.OrderStatusConfirmed {
				if err := s.orderRepo.WithTx(tx).UpdateStatus(order.ID, constants.OrderStatusPaid, map[string]interface{}{
					"paid_at":    paidAt,
					"updated_at": now,
				}); err != nil {
					return ErrOrderUpdateFailed
				}
				order.Status = constants.OrderStatusPaid
				order.PaidAt = &paidAt
			}
		}

		if err := s.auditService.Record(tx, AuditEntry{
			ActorType:  constants.ActorTypeGateway,
			Action:     constants.AuditActionPaymentSuccess,
			Resource:   "payment",
			ResourceID: payment.ID,
			Detail: models.JSON{
				"txn_ref":      payment.TxnRef,
				"provider":     payment.Provider,
				"provider_ref": payment.ProviderRef,
			},
		}); err != nil {
			return err
		}

		result, err := s.fulfillmentService.Dispatch(tx, order, 0, constants.ActorTypeSystem)
		if err != nil {
			return err
		}
		dispatch = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	// 抢占失败说明并发赢家已做过副作用，这里幂等返回落库后的状态
	if raceLost {
		current, err := s.paymentRepo.GetByID(payment.ID)
		if err != nil || current == nil {
			return payment, nil
		}
		return current, nil
	}

	if err := s.cartRepo.ClearByUser(payment.UserID); err != nil {
		paymentLogger("user_id", payment.UserID).Warnw("cart_clear_failed", "error", err)
	}
	s.notificationSvc.NotifyPaymentUpdated(payment)
	s.notifyDispatched(order, dispatch)
	paymentLogger("payment_id", payment.ID, "txn_ref", payment.TxnRef, "provider", payment.Provider).
		Infow("payment_callback_processed", "status", payment.Status)
	return payment, nil
}

// markPaymentFailed 将未完结流水标记失败并记录原因
func (s *PaymentService) markPaymentFailed(payment *models.Payment, reason string) {
	if payment == nil || payment.Status != constants.PaymentStatusInitiated {
		return
	}
	now := time.Now()
	payment.Status = constants.PaymentStatusFailed
	payment.FailReason = reason
	payment.UpdatedAt = now
	if err := s.paymentRepo.Update(payment); err != nil {
		paymentLogger("txn_ref", payment.TxnRef).Warnw("payment_fail_persist_failed", "error", err)
		return
	}
	if err := s.auditService.Record(nil, AuditEntry{
		ActorType:  constants.ActorTypeGateway,
		Action:     constants.AuditActionPaymentFailed,
		Resource:   "payment",
		ResourceID: payment.ID,
		Detail:     models.JSON{"txn_ref": payment.TxnRef, "reason": reason},
	}); err != nil {
		paymentLogger("txn_ref", payment.TxnRef).Warnw("payment_audit_failed", "error", err)
	}
	s.notificationSvc.NotifyPaymentUpdated(payment)
	paymentLogger("txn_ref", payment.TxnRef).Infow("payment_marked_failed", "reason", reason)
}

// ConfirmCashPayment 柜台收银确认现金已收。条件更新抢占保证只确认一次。
func (s *PaymentService) ConfirmCashPayment(paymentID, staffID uint) (*models.Payment, error) {
	payment, err := s.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Provider != constants.PaymentProviderCash {
		return nil, ErrPaymentInvalid
	}
	if payment.Status == constants.PaymentStatusSuccess {
		return payment, nil
	}
	if payment.Status != constants.PaymentStatusInitiated {
		return nil, ErrPaymentStatusInvalid
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		won, err := s.paymentRepo.WithTx(tx).MarkSuccess(payment.ID, map[string]interface{}{
			"paid_at":    now,
			"updated_at": now,
		})
		if err != nil {
			return ErrPaymentUpdateFailed
		}
		if !won {
			return nil
		}
		payment.Status = constants.PaymentStatusSuccess
		payment.PaidAt = &now

		if payment.OrderID != nil {
			order, err := s.orderRepo.WithTx(tx).GetByID(*payment.OrderID)
			if err != nil {
				return ErrOrderFetchFailed
			}
			if order != nil && order.PaidAt == nil {
				if err := s.orderRepo.WithTx(tx).UpdateStatus(order.ID, order.Status, map[string]interface{}{
					"paid_at":    now,
					"updated_at": now,
				}); err != nil {
					return ErrOrderUpdateFailed
				}
			}
		}

		return s.auditService.Record(tx, AuditEntry{
			ActorID:    staffID,
			ActorType:  constants.ActorTypeStaff,
			Action:     constants.AuditActionPaymentSuccess,
			Resource:   "payment",
			ResourceID: payment.ID,
			Detail:     models.JSON{"txn_ref": payment.TxnRef, "provider": payment.Provider},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notificationSvc.NotifyPaymentUpdated(payment)
	paymentLogger("payment_id", payment.ID, "txn_ref", payment.TxnRef).
		Infow("cash_payment_confirmed", "staff_id", staffID)
	return payment, nil
}

// Refund 管理员退款。仅允许从 success 或 failed 转入 refunded，
// 关联订单一并转入 refunded。实际打款走线下，这里只做账面状态。
func (s *PaymentService) Refund(paymentID, adminID uint, reason string) (*models.Payment, error) {
	payment, err := s.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != constants.PaymentStatusSuccess && payment.Status != constants.PaymentStatusFailed {
		return nil, ErrPaymentStatusInvalid
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		payment.Status = constants.PaymentStatusRefunded
		payment.UpdatedAt = now
		if err := s.paymentRepo.WithTx(tx).Update(payment); err != nil {
			return ErrPaymentUpdateFailed
		}

		if payment.OrderID != nil {
			if err := s.orderRepo.WithTx(tx).UpdateStatus(*payment.OrderID, constants.OrderStatusRefunded, map[string]interface{}{
				"updated_at": now,
			}); err != nil {
				return ErrOrderUpdateFailed
			}
		}

		return s.auditService.Record(tx, AuditEntry{
			ActorID:    adminID,
			ActorType:  constants.ActorTypeAdmin,
			Action:     constants.AuditActionPaymentRefunded,
			Resource:   "payment",
			ResourceID: payment.ID,
			Detail:     models.JSON{"txn_ref": payment.TxnRef, "reason": reason},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notificationSvc.NotifyPaymentUpdated(payment)
	paymentLogger("payment_id", payment.ID, "txn_ref", payment.TxnRef).
		Infow("payment_refunded", "admin_id", adminID, "reason", reason)
	return payment, nil
}

// SyncPaymentStatus 主动回查网关收敛状态，由队列消费侧调用。
// 网关不可用返回错误交给队列重试，渠道不支持回查则静默跳过。
func (s *PaymentService) SyncPaymentStatus(ctx context.Context, paymentID uint) error {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return err
	}
	if payment == nil || payment.Status != constants.PaymentStatusInitiated {
		return nil
	}
	adapter, err := s.adapters.Get(payment.Provider)
	if err != nil {
		return nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	status, err := adapter.QueryStatus(queryCtx, payment)
	if err != nil {
		if errors.Is(err, ErrProviderNotSupported) || errors.Is(err, ErrPaymentInvalid) {
			return nil
		}
		return err
	}

	switch status {
	case constants.PaymentStatusSuccess:
		_, err := s.applyPaymentSuccess(payment, &GatewayNotification{
			TxnRef: payment.TxnRef,
			Status: constants.PaymentStatusSuccess,
		})
		return err
	case constants.PaymentStatusFailed:
		s.markPaymentFailed(payment, constants.PaymentFailReasonGatewayDeclined)
		return nil
	default:
		if payment.ExpiredAt != nil && payment.ExpiredAt.Before(time.Now()) {
			s.markPaymentFailed(payment, constants.PaymentFailReasonExpired)
		}
		return nil
	}
}

// SweepStuckPayments 将长时间停留在 initiated 的在线流水重新入队对账
func (s *PaymentService) SweepStuckPayments(olderThan time.Duration, limit int) (int, error) {
	providers := []string{
		constants.PaymentProviderWechat,
		constants.PaymentProviderStripe,
		constants.PaymentProviderPaypal,
	}
	payments, err := s.paymentRepo.ListStuckInitiated(time.Now().Add(-olderThan), providers, limit)
	if err != nil {
		return 0, err
	}
	for _, payment := range payments {
		if err := s.queueClient.EnqueuePaymentStatusSync(
			queue.PaymentStatusSyncPayload{PaymentID: payment.ID}, 0); err != nil {
			paymentLogger("payment_id", payment.ID).Warnw("payment_sync_enqueue_failed", "error", err)
		}
	}
	return len(payments), nil
}
