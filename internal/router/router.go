package router

import (
	"fmt"
	"strings"

	"github.com/prepflow/internal/cache"
	"github.com/prepflow/internal/config"
	"github.com/prepflow/internal/constants"
	adminhandlers "github.com/prepflow/internal/http/handlers/admin"
	publichandlers "github.com/prepflow/internal/http/handlers/public"
	staffhandlers "github.com/prepflow/internal/http/handlers/staff"
	"github.com/prepflow/internal/logger"
	"github.com/prepflow/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按顾客/员工/管理端分组）
	publicHandler := publichandlers.New(c)
	staffHandler := staffhandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	authRequired := JWTAuthMiddleware(c.AuthService, c.UserRepo)
	staffOnly := RequireRoles(constants.UserRoleStaff, constants.UserRoleAdmin)
	adminOnly := RequireRoles(constants.UserRoleAdmin)

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/menu", publicHandler.GetMenu)
			public.GET("/products/:id", publicHandler.GetProduct)
			public.GET("/payment-providers", publicHandler.GetPaymentProviders)
		}

		// 认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// 网关异步通知（无鉴权，验签在适配器内完成）
		apiV1.POST("/payments/callback/cardgate", publicHandler.CardGateCallback)
		apiV1.GET("/payments/callback/cardgate", publicHandler.CardGateCallback)
		apiV1.POST("/payments/callback/wechat", publicHandler.WechatCallback)
		apiV1.POST("/payments/webhook/stripe", publicHandler.StripeWebhook)
		apiV1.POST("/payments/webhook/paypal", publicHandler.PaypalWebhook)

		// 顾客接口（需鉴权）
		user := apiV1.Group("")
		user.Use(authRequired)
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.PUT("/me/password", publicHandler.ChangePassword)
			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/items", publicHandler.AddCartItem)
			user.PUT("/cart/items/:id", publicHandler.UpdateCartItem)
			user.DELETE("/cart/items/:id", publicHandler.RemoveCartItem)
			user.DELETE("/cart", publicHandler.ClearCart)
			user.POST("/checkout", publicHandler.Checkout)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)
			user.GET("/payments/:id", publicHandler.GetPayment)
		}

		// 员工接口（厨房看板、打卡与柜台收款）
		staff := apiV1.Group("/staff")
		staff.Use(authRequired, staffOnly)
		{
			staff.POST("/timeclock/check-in", staffHandler.CheckIn)
			staff.POST("/timeclock/check-out", staffHandler.CheckOut)
			staff.POST("/timeclock/break/start", staffHandler.StartBreak)
			staff.POST("/timeclock/break/end", staffHandler.EndBreak)
			staff.GET("/timeclock/current", staffHandler.CurrentTimeClock)
			staff.GET("/timeclock/on-duty", staffHandler.ListOnDuty)
			staff.GET("/stations", staffHandler.ListStations)
			staff.GET("/stations/load", staffHandler.StationLoad)
			staff.GET("/tasks", staffHandler.ListTasks)
			staff.POST("/tasks/:id/transition", staffHandler.TransitionTask)
			staff.GET("/orders", staffHandler.ListOrders)
			staff.GET("/orders/:id", staffHandler.GetOrder)
			staff.GET("/orders/:id/packing-ready", staffHandler.PackingReadiness)
			staff.POST("/orders/:id/complete", staffHandler.CompleteOrder)
			staff.POST("/payments/:id/confirm-cash", staffHandler.ConfirmCashPayment)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(authRequired, adminOnly)
		{
			admin.GET("/products", adminHandler.ListProducts)
			admin.POST("/products", adminHandler.CreateProduct)
			admin.PUT("/products/:id", adminHandler.UpdateProduct)
			admin.PATCH("/products/:id/active", adminHandler.SetProductActive)

			admin.GET("/stations", adminHandler.ListStations)
			admin.PUT("/stations/:code", adminHandler.UpdateStation)
			admin.GET("/stations/load", adminHandler.StationLoad)

			admin.POST("/shifts", adminHandler.ScheduleShift)
			admin.GET("/shifts", adminHandler.ListShifts)

			admin.POST("/staff", adminHandler.CreateStaff)
			admin.GET("/staff", adminHandler.ListStaff)
			admin.PATCH("/users/:id/status", adminHandler.SetUserStatus)

			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.POST("/orders/:id/cancel", adminHandler.CancelOrder)

			admin.GET("/payments", adminHandler.ListPayments)
			admin.GET("/payments/:id", adminHandler.GetPayment)
			admin.POST("/payments/:id/refund", adminHandler.RefundPayment)

			admin.GET("/audit-logs", adminHandler.ListAuditLogs)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
