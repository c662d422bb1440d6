package service

import (
	"context"

	"github.com/prepflow/internal/cache"
	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/logger"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/queue"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// NotificationService 实时通知服务。
// 通知是尽力而为的：入队或投递失败只记日志，不影响业务事务。
type NotificationService struct {
	queueClient *queue.Client
}

// NewNotificationService 创建实时通知服务
func NewNotificationService(queueClient *queue.Client) *NotificationService {
	return &NotificationService{queueClient: queueClient}
}

func notifyLogger(kv ...interface{}) *zap.SugaredLogger {
	return logger.SW(kv...)
}

func (s *NotificationService) enqueue(payload queue.NotificationDispatchPayload) {
	if s == nil || s.queueClient == nil {
		return
	}
	if err := s.queueClient.EnqueueNotificationDispatch(payload, asynq.MaxRetry(5)); err != nil {
		notifyLogger("event", payload.Event).Warnw("notification_enqueue_failed", "error", err)
	}
}

// NotifyOrderAssigned 通知被指派的员工有新订单
func (s *NotificationService) NotifyOrderAssigned(staffID uint, order *models.Order) {
	if staffID == 0 || order == nil {
		return
	}
	s.enqueue(queue.NotificationDispatchPayload{
		Event:   constants.NotificationEventOrderAssigned,
		StaffID: staffID,
		Data: map[string]interface{}{
			"order_id": order.ID,
			"order_no": order.OrderNo,
			"table_no": order.TableNo,
		},
	})
}

// NotifyTasksCreated 通知相关工位有新任务
func (s *NotificationService) NotifyTasksCreated(stationCodes []string, order *models.Order) {
	if len(stationCodes) == 0 || order == nil {
		return
	}
	s.enqueue(queue.NotificationDispatchPayload{
		Event:        constants.NotificationEventTasksCreated,
		StationCodes: stationCodes,
		Data: map[string]interface{}{
			"order_id": order.ID,
			"order_no": order.OrderNo,
		},
	})
}

// NotifyTaskUpdated 通知任务所在工位状态变更
func (s *NotificationService) NotifyTaskUpdated(task *models.StationTask) {
	if task == nil {
		return
	}
	s.enqueue(queue.NotificationDispatchPayload{
		Event:        constants.NotificationEventTaskUpdated,
		StationCodes: []string{task.StationCode},
		Data: map[string]interface{}{
			"task_id":  task.ID,
			"order_id": task.OrderID,
			"status":   task.Status,
		},
	})
}

// NotifyPaymentUpdated 通知支付状态变更，顾客与员工频道都要收到
func (s *NotificationService) NotifyPaymentUpdated(payment *models.Payment) {
	if payment == nil {
		return
	}
	s.enqueue(paymentUpdatedPayload(payment))
}

func paymentUpdatedPayload(payment *models.Payment) queue.NotificationDispatchPayload {
	data := map[string]interface{}{
		"payment_id": payment.ID,
		"txn_ref":    payment.TxnRef,
		"status":     payment.Status,
	}
	if payment.OrderID != nil {
		data["order_id"] = *payment.OrderID
	}
	return queue.NotificationDispatchPayload{
		Event:      constants.NotificationEventPaymentUpdated,
		CustomerID: payment.UserID,
		Broadcast:  true,
		Data:       data,
	}
}

// NotifyOrderCanceled 广播订单取消，顾客与全体员工都能收到
func (s *NotificationService) NotifyOrderCanceled(order *models.Order) {
	if order == nil {
		return
	}
	s.enqueue(queue.NotificationDispatchPayload{
		Event:      constants.NotificationEventOrderCanceled,
		CustomerID: order.UserID,
		Broadcast:  true,
		Data: map[string]interface{}{
			"order_id": order.ID,
			"order_no": order.OrderNo,
		},
	})
}

// dispatchChannels 展开通知载荷对应的实时频道集合
func dispatchChannels(payload queue.NotificationDispatchPayload) []string {
	channels := make([]string, 0, len(payload.StationCodes)+3)
	if payload.StaffID != 0 {
		channels = append(channels, cache.StaffChannel(payload.StaffID))
	}
	if payload.CustomerID != 0 {
		channels = append(channels, cache.CustomerChannel(payload.CustomerID))
	}
	for _, code := range payload.StationCodes {
		if code == "" {
			continue
		}
		channels = append(channels, cache.StationChannel(code))
	}
	if payload.Broadcast {
		channels = append(channels, constants.ChannelStaffAll)
	}
	return channels
}

// Dispatch 将通知事件投递到对应的实时频道，由队列消费侧调用
func (s *NotificationService) Dispatch(ctx context.Context, payload queue.NotificationDispatchPayload) error {
	msg := cache.RealtimeMessage{Event: payload.Event, Data: payload.Data}
	for _, channel := range dispatchChannels(payload) {
		if err := cache.PublishRealtime(ctx, channel, msg); err != nil {
			notifyLogger("event", payload.Event, "channel", channel).Warnw("notification_publish_failed", "error", err)
		}
	}
	return nil
}
