package public

import (
	"errors"

	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var authErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid email"},
	{target: service.ErrWeakPassword, code: response.CodeBadRequest, msg: "password too weak"},
	{target: service.ErrEmailExists, code: response.CodeBadRequest, msg: "email already registered"},
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, msg: "invalid credentials"},
	{target: service.ErrAccountDisabled, code: response.CodeForbidden, msg: "account disabled"},
	{target: service.ErrTooManyAttempts, code: response.CodeTooManyRequests, msg: "too many login attempts"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid cart item"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrAddonNotAvailable, code: response.CodeBadRequest, msg: "addon not available"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid checkout request"},
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, msg: "invalid order item"},
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrAddonNotAvailable, code: response.CodeBadRequest, msg: "addon not available"},
	{target: service.ErrProviderNotSupported, code: response.CodeBadRequest, msg: "payment provider not supported"},
	{target: service.ErrProviderDisabled, code: response.CodeBadRequest, msg: "payment provider disabled"},
	{target: service.ErrGatewayUnavailable, code: response.CodeInternal, msg: "payment gateway unavailable"},
}

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid request"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, msg: "order status does not allow this action"},
	{target: service.ErrPermissionDenied, code: response.CodeForbidden, msg: "permission denied"},
}

var paymentQueryErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, msg: "invalid request"},
	{target: service.ErrPaymentNotFound, code: response.CodeNotFound, msg: "payment not found"},
}

func respondAuthError(c *gin.Context, err error) {
	respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "authentication failed")
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "cart operation failed")
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "checkout failed")
}

func respondOrderError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "order operation failed")
}

func respondPaymentQueryError(c *gin.Context, err error) {
	respondWithMappedError(c, err, paymentQueryErrorRules, response.CodeInternal, "payment query failed")
}
