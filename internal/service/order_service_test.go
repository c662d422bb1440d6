package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.KitchenStation{},
		&models.StationTask{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	auditSvc := NewAuditService(repository.NewAuditLogRepository(db))
	notificationSvc := NewNotificationService(nil)
	orderSvc := NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewStationTaskRepository(db),
		auditSvc,
		notificationSvc,
	)
	return orderSvc, db
}

func seedLifecycleOrder(t *testing.T, db *gorm.DB, userID uint, status string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:   fmt.Sprintf("PF%d", time.Now().UnixNano()),
		UserID:    userID,
		Status:    status,
		Currency:  constants.SiteCurrencyDefault,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func seedOrderTask(t *testing.T, db *gorm.DB, orderID uint, status string) *models.StationTask {
	t.Helper()
	task := &models.StationTask{
		OrderID:      orderID,
		StationCode:  constants.StationCodeGrill,
		StationLabel: "烤台",
		ProductName:  "炭烤牛肉堡",
		FoodType:     constants.FoodTypeGrilled,
		Quantity:     1,
		Status:       status,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("create task failed: %v", err)
	}
	return task
}

func TestCustomerCancelPendingOrder(t *testing.T) {
	orderSvc, db := setupOrderServiceTest(t)
	order := seedLifecycleOrder(t, db, 1, constants.OrderStatusPending)
	open := seedOrderTask(t, db, order.ID, constants.TaskStatusInProgress)
	done := seedOrderTask(t, db, order.ID, constants.TaskStatusCompleted)

	canceled, err := orderSvc.Cancel(CancelInput{
		OrderID: order.ID, ActorID: 1, ActorType: constants.ActorTypeCustomer, Reason: "changed my mind",
	})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if canceled.Status != constants.OrderStatusCanceled || canceled.CanceledAt == nil {
		t.Fatalf("unexpected canceled order: %+v", canceled)
	}

	var stored models.StationTask
	if err := db.First(&stored, open.ID).Error; err != nil {
		t.Fatalf("load task failed: %v", err)
	}
	if stored.Status != constants.TaskStatusCanceled {
		t.Fatalf("expected open task canceled, got %s", stored.Status)
	}
	stored = models.StationTask{}
	if err := db.First(&stored, done.ID).Error; err != nil {
		t.Fatalf("load task failed: %v", err)
	}
	if stored.Status != constants.TaskStatusCompleted {
		t.Fatalf("expected completed task untouched, got %s", stored.Status)
	}
}

func TestCustomerCancelRestrictions(t *testing.T) {
	orderSvc, db := setupOrderServiceTest(t)
	order := seedLifecycleOrder(t, db, 1, constants.OrderStatusPreparing)

	// 进入后厨后顾客不可取消
	_, err := orderSvc.Cancel(CancelInput{
		OrderID: order.ID, ActorID: 1, ActorType: constants.ActorTypeCustomer,
	})
	if !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected status invalid for customer, got %v", err)
	}

	// 他人订单不可见
	pending := seedLifecycleOrder(t, db, 2, constants.OrderStatusPending)
	_, err = orderSvc.Cancel(CancelInput{
		OrderID: pending.ID, ActorID: 1, ActorType: constants.ActorTypeCustomer,
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found for foreign order, got %v", err)
	}

	// 管理员可以取消制作中的订单
	canceled, err := orderSvc.Cancel(CancelInput{
		OrderID: order.ID, ActorID: 9, ActorType: constants.ActorTypeAdmin, Reason: "kitchen issue",
	})
	if err != nil {
		t.Fatalf("admin cancel failed: %v", err)
	}
	if canceled.Status != constants.OrderStatusCanceled {
		t.Fatalf("expected canceled, got %s", canceled.Status)
	}
}

func TestCompleteRequiresPackingReady(t *testing.T) {
	orderSvc, db := setupOrderServiceTest(t)
	order := seedLifecycleOrder(t, db, 1, constants.OrderStatusPreparing)
	task := seedOrderTask(t, db, order.ID, constants.TaskStatusPending)

	if _, err := orderSvc.Complete(order.ID, 5); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected status invalid with open tasks, got %v", err)
	}

	now := time.Now()
	if err := db.Model(&models.StationTask{}).Where("id = ?", task.ID).Updates(map[string]interface{}{
		"status":       constants.TaskStatusCompleted,
		"completed_at": now,
	}).Error; err != nil {
		t.Fatalf("complete task failed: %v", err)
	}

	completed, err := orderSvc.Complete(order.ID, 5)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != constants.OrderStatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("unexpected completed order: %+v", completed)
	}

	// 已完结订单不可重复收尾
	if _, err := orderSvc.Complete(order.ID, 5); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected status invalid on repeat, got %v", err)
	}
}
