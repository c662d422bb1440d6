package staff

import (
	"errors"

	handlershared "github.com/prepflow/internal/http/handlers/shared"
	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getStaffID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "user_id")
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

var staffErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid request"},
	{target: service.ErrStaffNotFound, code: response.CodeNotFound, msg: "staff not found"},
	{target: service.ErrStationNotFound, code: response.CodeNotFound, msg: "station not found"},
	{target: service.ErrTaskNotFound, code: response.CodeNotFound, msg: "station task not found"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, msg: "payment not found"},
	{target: service.ErrTaskTransitionInvalid, code: response.CodeBadRequest, msg: "task transition not allowed"},
	{target: service.ErrAlreadyClockedIn, code: response.CodeBadRequest, msg: "already clocked in"},
	{target: service.ErrNoOpenTimeClock, code: response.CodeBadRequest, msg: "no open timeclock entry"},
	{target: service.ErrTimeClockStatusInvalid, code: response.CodeBadRequest, msg: "timeclock status does not allow this action"},
	{target: service.ErrUnfinishedStationWork, code: response.CodeBadRequest, msg: "station has unfinished work and no backup on duty"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, msg: "order status does not allow this action"},
	{target: service.ErrPaymentStatusInvalid, code: response.CodeBadRequest, msg: "payment status does not allow this action"},
	{target: service.ErrPaymentInvalid, code: response.CodeBadRequest, msg: "payment invalid"},
	{target: service.ErrPermissionDenied, code: response.CodeForbidden, msg: "permission denied"},
}

func respondStaffError(c *gin.Context, err error) {
	for _, rule := range staffErrorRules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, response.CodeInternal, "operation failed", err)
}
