package service

import "errors"

// 校验与资源错误
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidOrderItem    = errors.New("invalid order item")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderFetchFailed    = errors.New("order fetch failed")
	ErrOrderUpdateFailed   = errors.New("order update failed")
	ErrOrderCreateFailed   = errors.New("order create failed")
	ErrProductNotAvailable = errors.New("product not available")
	ErrAddonNotAvailable   = errors.New("addon not available")
	ErrCartEmpty           = errors.New("cart is empty")
	ErrStationNotFound     = errors.New("station not found")
	ErrTaskNotFound        = errors.New("station task not found")
	ErrShiftNotFound       = errors.New("shift not found")
	ErrStaffNotFound       = errors.New("staff not found")
)

// 授权错误
var (
	ErrPermissionDenied = errors.New("permission denied")
)

// 冲突错误：当前状态不允许该操作
var (
	ErrOrderStatusInvalid     = errors.New("order status invalid")
	ErrPaymentStatusInvalid   = errors.New("payment status invalid")
	ErrPaymentAlreadyFinal    = errors.New("payment already finalized")
	ErrTaskTransitionInvalid  = errors.New("task transition invalid")
	ErrAlreadyClockedIn       = errors.New("staff already clocked in")
	ErrNoOpenTimeClock        = errors.New("no open timeclock entry")
	ErrTimeClockStatusInvalid = errors.New("timeclock status invalid")
	ErrUnfinishedStationWork  = errors.New("unfinished station work without backup")
)

// 支付与网关错误
var (
	ErrPaymentInvalid          = errors.New("payment invalid")
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentCreateFailed     = errors.New("payment create failed")
	ErrPaymentUpdateFailed     = errors.New("payment update failed")
	ErrPaymentAmountMismatch   = errors.New("payment amount mismatch")
	ErrPaymentCurrencyMismatch = errors.New("payment currency mismatch")
	ErrPaymentSignatureInvalid = errors.New("payment signature invalid")
	ErrProviderNotSupported    = errors.New("payment provider not supported")
	ErrProviderDisabled        = errors.New("payment provider disabled")
	ErrGatewayUnavailable      = errors.New("payment gateway unavailable")
)
