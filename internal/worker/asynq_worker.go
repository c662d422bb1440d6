package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prepflow/internal/logger"
	"github.com/prepflow/internal/provider"
	"github.com/prepflow/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPaymentStatusSync, c.handlePaymentStatusSync)
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
	mux.HandleFunc(queue.TaskShiftMissedSweep, c.handleShiftMissedSweep)
}

func (c *Consumer) handlePaymentStatusSync(ctx context.Context, task *asynq.Task) error {
	var payload queue.PaymentStatusSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payment_sync_unmarshal_failed", "error", err)
		return err
	}
	if payload.PaymentID == 0 {
		logger.Debugw("worker_payment_sync_skip_invalid_payload")
		return nil
	}
	if err := c.PaymentService.SyncPaymentStatus(ctx, payload.PaymentID); err != nil {
		logger.Warnw("worker_payment_sync_failed", "payment_id", payload.PaymentID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleNotificationDispatch(ctx context.Context, task *asynq.Task) error {
	var payload queue.NotificationDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_unmarshal_failed", "error", err)
		return err
	}
	if payload.Event == "" {
		logger.Debugw("worker_notification_skip_empty_event")
		return nil
	}
	return c.NotificationService.Dispatch(ctx, payload)
}

func (c *Consumer) handleShiftMissedSweep(_ context.Context, task *asynq.Task) error {
	var payload queue.ShiftMissedSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_shift_sweep_unmarshal_failed", "error", err)
		return err
	}
	before := payload.Before
	if before == "" {
		before = time.Now().Format("2006-01-02")
	}
	if _, err := c.ShiftService.MarkMissedBefore(before); err != nil {
		logger.Warnw("worker_shift_sweep_failed", "before", before, "error", err)
		return err
	}
	return nil
}
