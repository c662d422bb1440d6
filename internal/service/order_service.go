package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/logger"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService 订单服务，负责订单查询与生命周期收尾
type OrderService struct {
	orderRepo       repository.OrderRepository
	paymentRepo     repository.PaymentRepository
	taskRepo        repository.StationTaskRepository
	auditService    *AuditService
	notificationSvc *NotificationService
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	taskRepo repository.StationTaskRepository,
	auditService *AuditService,
	notificationSvc *NotificationService,
) *OrderService {
	return &OrderService{
		orderRepo:       orderRepo,
		paymentRepo:     paymentRepo,
		taskRepo:        taskRepo,
		auditService:    auditService,
		notificationSvc: notificationSvc,
	}
}

func orderLogger(kv ...interface{}) *zap.SugaredLogger {
	return logger.SW(kv...)
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("PF%s%s", now, randNumeric(6))
}

func generateTxnRef() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("PY%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}

// GetForUser 获取用户自己的订单详情
func (s *OrderService) GetForUser(orderID, userID uint) (*models.Order, error) {
	if orderID == 0 || userID == 0 {
		return nil, ErrInvalidInput
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByID 管理端获取订单详情
func (s *OrderService) GetByID(orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrInvalidInput
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListByUser 用户订单列表
func (s *OrderService) ListByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.orderRepo.ListByUser(filter)
}

// ListAdmin 管理端订单列表
func (s *OrderService) ListAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// ListPayments 获取订单下的支付记录
func (s *OrderService) ListPayments(orderID uint) ([]models.Payment, error) {
	if orderID == 0 {
		return nil, ErrInvalidInput
	}
	return s.paymentRepo.ListByOrderID(orderID)
}

// cancelableStatuses 各角色允许取消的订单状态
var (
	customerCancelable = []string{constants.OrderStatusPending, constants.OrderStatusConfirmed}
	adminCancelable    = []string{
		constants.OrderStatusPending,
		constants.OrderStatusConfirmed,
		constants.OrderStatusPaid,
		constants.OrderStatusPreparing,
	}
)

func statusIn(status string, allowed []string) bool {
	for _, candidate := range allowed {
		if candidate == status {
			return true
		}
	}
	return false
}

// CancelInput 取消订单参数
type CancelInput struct {
	OrderID   uint
	ActorID   uint
	ActorType string
	Reason    string
}

// Cancel 取消订单。顾客只能在进入后厨前取消，管理员可以取消未完结订单。
// 取消时一并作废订单下未完结的工位任务。
func (s *OrderService) Cancel(input CancelInput) (*models.Order, error) {
	if input.OrderID == 0 {
		return nil, ErrInvalidInput
	}
	allowed := customerCancelable
	if input.ActorType == constants.ActorTypeAdmin || input.ActorType == constants.ActorTypeSystem {
		allowed = adminCancelable
	}

	var canceled *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByID(input.OrderID)
		if err != nil {
			return ErrOrderFetchFailed
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if input.ActorType == constants.ActorTypeCustomer && order.UserID != input.ActorID {
			return ErrOrderNotFound
		}
		if !statusIn(order.Status, allowed) {
			return ErrOrderStatusInvalid
		}

		now := time.Now()
		if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusCanceled, map[string]interface{}{
			"canceled_at": now,
			"updated_at":  now,
		}); err != nil {
			return ErrOrderUpdateFailed
		}
		order.Status = constants.OrderStatusCanceled
		order.CanceledAt = &now

		if err := s.cancelOpenTasks(tx, order.ID, now); err != nil {
			return err
		}

		canceled = order
		return s.auditService.Record(tx, AuditEntry{
			ActorID:    input.ActorID,
			ActorType:  actorTypeOrDefault(input.ActorType, constants.ActorTypeSystem),
			Action:     constants.AuditActionOrderCanceled,
			Resource:   "order",
			ResourceID: order.ID,
			Detail:     models.JSON{"reason": input.Reason},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notificationSvc.NotifyOrderCanceled(canceled)
	orderLogger("order_id", canceled.ID, "order_no", canceled.OrderNo).
		Infow("order_canceled", "reason", input.Reason)
	return canceled, nil
}

func (s *OrderService) cancelOpenTasks(tx *gorm.DB, orderID uint, now time.Time) error {
	taskRepo := s.taskRepo.WithTx(tx)
	tasks, err := taskRepo.ListByOrder(orderID)
	if err != nil {
		return err
	}
	for index := range tasks {
		task := &tasks[index]
		if !statusIn(task.Status, []string{
			constants.TaskStatusPending,
			constants.TaskStatusAcknowledged,
			constants.TaskStatusInProgress,
		}) {
			continue
		}
		task.Status = constants.TaskStatusCanceled
		task.CanceledAt = &now
		task.UpdatedAt = now
		if err := taskRepo.Update(task); err != nil {
			return err
		}
	}
	return nil
}

// Complete 完成订单。仅允许从 preparing 收尾，且要求全部工位任务已完结。
// 就绪检查与收尾更新放在同一事务，避免检查后有任务重新开工。
func (s *OrderService) Complete(orderID, staffID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrInvalidInput
	}
	var completed *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByID(orderID)
		if err != nil {
			return ErrOrderFetchFailed
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status != constants.OrderStatusPreparing {
			return ErrOrderStatusInvalid
		}
		open, err := s.taskRepo.WithTx(tx).CountOpenByOrder(orderID)
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrOrderStatusInvalid
		}

		now := time.Now()
		if err := orderRepo.UpdateStatus(orderID, constants.OrderStatusCompleted, map[string]interface{}{
			"completed_at": now,
			"updated_at":   now,
		}); err != nil {
			return ErrOrderUpdateFailed
		}
		order.Status = constants.OrderStatusCompleted
		order.CompletedAt = &now
		completed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	orderLogger("order_id", orderID, "order_no", completed.OrderNo).
		Infow("order_completed", "staff_id", staffID)
	return completed, nil
}
