package constants

// 订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPaid      = "paid"
	OrderStatusPreparing = "preparing"
	OrderStatusCompleted = "completed"
	OrderStatusCanceled  = "canceled"
	OrderStatusRefunded  = "refunded"
)

// 支付状态常量
const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusSuccess   = "success"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// 支付提供方常量
const (
	PaymentProviderCash     = "cash"
	PaymentProviderCardGate = "cardgate"
	PaymentProviderWechat   = "wechat"
	PaymentProviderStripe   = "stripe"
	PaymentProviderPaypal   = "paypal"
)

// 支付失败原因常量
const (
	PaymentFailReasonAmountMismatch   = "amount_mismatch"
	PaymentFailReasonGatewayDeclined  = "gateway_declined"
	PaymentFailReasonExpired          = "expired"
	PaymentFailReasonOrderUnavailable = "order_unavailable"
)

// 支付交互方式常量
const (
	PaymentInteractionQR       = "qr"
	PaymentInteractionRedirect = "redirect"
	PaymentInteractionCounter  = "counter"
)

// CardGate 回调常量
const (
	CardGateTradeStatusSuccess = "TRADE_SUCCESS"
	CardGateCallbackSuccess    = "success"
	CardGateCallbackFail       = "fail"
)

// 用户角色常量
const (
	UserRoleCustomer = "customer"
	UserRoleStaff    = "staff"
	UserRoleAdmin    = "admin"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 菜品类型常量
const (
	FoodTypeGrilled  = "grilled"
	FoodTypeFried    = "fried"
	FoodTypeDrink    = "drink"
	FoodTypePackaged = "packaged"
	FoodTypeCombo    = "combo"
)

// 工位编码常量
const (
	StationCodeGrill  = "grill"
	StationCodeFryer  = "fryer"
	StationCodeDrinks = "drinks"
	StationCodePack   = "pack"
)

// 工位任务状态常量
const (
	TaskStatusPending      = "pending"
	TaskStatusAcknowledged = "acknowledged"
	TaskStatusInProgress   = "in_progress"
	TaskStatusCompleted    = "completed"
	TaskStatusCanceled     = "canceled"
	TaskStatusRerouted     = "rerouted"
)

// 打卡状态常量
const (
	TimeClockStatusOnDuty  = "on_duty"
	TimeClockStatusOnBreak = "on_break"
	TimeClockStatusOffDuty = "off_duty"
)

// 排班状态常量
const (
	ShiftStatusScheduled = "scheduled"
	ShiftStatusCompleted = "completed"
	ShiftStatusMissed    = "missed"
)

// 审计操作者类型常量
const (
	ActorTypeCustomer = "customer"
	ActorTypeStaff    = "staff"
	ActorTypeAdmin    = "admin"
	ActorTypeSystem   = "system"
	ActorTypeGateway  = "gateway"
)

// 审计动作常量
const (
	AuditActionOrderCreated    = "order_created"
	AuditActionOrderCanceled   = "order_canceled"
	AuditActionOrderDispatched = "order_dispatched"
	AuditActionPaymentCreated  = "payment_created"
	AuditActionPaymentSuccess  = "payment_success"
	AuditActionPaymentFailed   = "payment_failed"
	AuditActionPaymentRefunded = "payment_refunded"
	AuditActionTaskTransition  = "task_transition"
	AuditActionStaffCheckIn    = "staff_check_in"
	AuditActionStaffCheckOut   = "staff_check_out"
	AuditActionStaffBreak      = "staff_break"
)

// 队列常量
const (
	QueueDefault             = "default"
	TaskPaymentStatusSync    = "payment:status_sync"
	TaskNotificationDispatch = "notification:dispatch"
	TaskShiftMissedSweep     = "shift:missed_sweep"
)

// 实时通知事件常量
const (
	NotificationEventOrderAssigned  = "order_assigned"
	NotificationEventTasksCreated   = "tasks_created"
	NotificationEventTaskUpdated    = "task_updated"
	NotificationEventPaymentUpdated = "payment_updated"
	NotificationEventOrderCanceled  = "order_canceled"
)

// 实时通知频道前缀常量
const (
	ChannelStaffPrefix    = "staff:"
	ChannelStationPrefix  = "station:"
	ChannelCustomerPrefix = "customer:"
	ChannelStaffAll       = "staff:all"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "pf"
)

// 币种常量
const (
	SiteCurrencyDefault = "CNY"
)
