package provider

import (
	"github.com/prepflow/internal/cache"
	"github.com/prepflow/internal/config"
	"github.com/prepflow/internal/logger"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/queue"
	"github.com/prepflow/internal/repository"
	"github.com/prepflow/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo      repository.UserRepository
	ProductRepo   repository.ProductRepository
	CartRepo      repository.CartRepository
	OrderRepo     repository.OrderRepository
	PaymentRepo   repository.PaymentRepository
	StationRepo   repository.StationRepository
	TaskRepo      repository.StationTaskRepository
	ShiftRepo     repository.ShiftRepository
	TimeClockRepo repository.TimeClockRepository
	AuditLogRepo  repository.AuditLogRepository

	// Services
	AuthService         *service.AuthService
	ProductService      *service.ProductService
	CartService         *service.CartService
	OrderService        *service.OrderService
	PaymentService      *service.PaymentService
	FulfillmentService  *service.FulfillmentService
	AssignmentService   *service.AssignmentService
	StationTaskService  *service.StationTaskService
	TimeClockService    *service.TimeClockService
	ShiftService        *service.ShiftService
	AuditService        *service.AuditService
	NotificationService *service.NotificationService
	AdapterRegistry     *service.AdapterRegistry
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.StationRepo = repository.NewStationRepository(db)
	c.TaskRepo = repository.NewStationTaskRepository(db)
	c.ShiftRepo = repository.NewShiftRepository(db)
	c.TimeClockRepo = repository.NewTimeClockRepository(db)
	c.AuditLogRepo = repository.NewAuditLogRepository(db)
}

func (c *Container) initServices() {
	c.AdapterRegistry = service.NewAdapterRegistry(&c.Config.Payment)
	c.AuditService = service.NewAuditService(c.AuditLogRepo)
	c.NotificationService = service.NewNotificationService(c.QueueClient)

	c.AuthService = service.NewAuthService(c.Config, c.UserRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)

	c.AssignmentService = service.NewAssignmentService(c.UserRepo, c.ShiftRepo, c.TimeClockRepo)
	c.StationTaskService = service.NewStationTaskService(c.TaskRepo, c.StationRepo, c.AuditService, c.NotificationService)
	c.FulfillmentService = service.NewFulfillmentService(c.OrderRepo, c.AssignmentService, c.StationTaskService, c.AuditService)
	c.TimeClockService = service.NewTimeClockService(c.TimeClockRepo, c.TaskRepo, c.StationRepo, c.ShiftRepo, c.UserRepo, c.AuditService)
	c.ShiftService = service.NewShiftService(c.ShiftRepo, c.UserRepo)

	c.OrderService = service.NewOrderService(
		c.OrderRepo, c.PaymentRepo, c.TaskRepo,
		c.AuditService, c.NotificationService)
	c.PaymentService = service.NewPaymentService(
		c.PaymentRepo, c.OrderRepo, c.CartRepo, c.ProductRepo,
		c.AdapterRegistry, c.FulfillmentService, c.AuditService,
		c.NotificationService, c.QueueClient, &c.Config.Order)
}
