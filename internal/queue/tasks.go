package queue

import (
	"encoding/json"

	"github.com/prepflow/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPaymentStatusSync 支付状态对账任务
	TaskPaymentStatusSync = constants.TaskPaymentStatusSync
	// TaskNotificationDispatch 实时通知分发任务
	TaskNotificationDispatch = constants.TaskNotificationDispatch
	// TaskShiftMissedSweep 过期排班清理任务
	TaskShiftMissedSweep = constants.TaskShiftMissedSweep
)

// PaymentStatusSyncPayload 支付对账任务载荷
type PaymentStatusSyncPayload struct {
	PaymentID uint `json:"payment_id"`
}

// NotificationDispatchPayload 通知分发任务载荷
type NotificationDispatchPayload struct {
	Event        string                 `json:"event"`
	StaffID      uint                   `json:"staff_id,omitempty"`
	CustomerID   uint                   `json:"customer_id,omitempty"`
	StationCodes []string               `json:"station_codes,omitempty"`
	Broadcast    bool                   `json:"broadcast,omitempty"`
	Data         map[string]interface{} `json:"data,omitempty"`
}

// ShiftMissedSweepPayload 过期排班清理载荷
type ShiftMissedSweepPayload struct {
	Before string `json:"before"` // YYYY-MM-DD，早于该日期的 scheduled 班次记为 missed
}

// NewPaymentStatusSyncTask 创建支付对账任务
func NewPaymentStatusSyncTask(payload PaymentStatusSyncPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentStatusSync, body), nil
}

// NewNotificationDispatchTask 创建通知分发任务
func NewNotificationDispatchTask(payload NotificationDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}

// NewShiftMissedSweepTask 创建过期排班清理任务
func NewShiftMissedSweepTask(payload ShiftMissedSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskShiftMissedSweep, body), nil
}
