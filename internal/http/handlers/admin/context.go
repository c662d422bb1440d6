package admin

import (
	"errors"

	handlershared "github.com/prepflow/internal/http/handlers/shared"
	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getAdminID(c *gin.Context) (uint, bool) {
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

var adminErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid request"},
	{target: service.ErrWeakPassword, code: response.CodeBadRequest, msg: "password too weak"},
	{target: service.ErrEmailExists, code: response.CodeBadRequest, msg: "email already registered"},
	{target: service.ErrStaffNotFound, code: response.CodeNotFound, msg: "staff not found"},
	{target: service.ErrShiftNotFound, code: response.CodeNotFound, msg: "shift not found"},
	{target: service.ErrStationNotFound, code: response.CodeNotFound, msg: "station not found"},
	{target: service.ErrProductNotAvailable, code: response.CodeNotFound, msg: "product not found"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, msg: "payment not found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, msg: "order status does not allow this action"},
	{target: service.ErrPaymentStatusInvalid, code: response.CodeBadRequest, msg: "payment status does not allow this action"},
	{target: service.ErrPaymentInvalid, code: response.CodeBadRequest, msg: "payment invalid"},
}

func respondAdminError(c *gin.Context, err error) {
	for _, rule := range adminErrorRules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, response.CodeInternal, "operation failed", err)
}
