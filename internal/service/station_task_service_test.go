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

func setupStationTaskServiceTest(t *testing.T) (*StationTaskService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:station_task_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.OrderItem{},
		&models.KitchenStation{},
		&models.StationTask{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	auditSvc := NewAuditService(repository.NewAuditLogRepository(db))
	notificationSvc := NewNotificationService(nil)
	taskSvc := NewStationTaskService(
		repository.NewStationTaskRepository(db),
		repository.NewStationRepository(db),
		auditSvc,
		notificationSvc,
	)
	return taskSvc, db
}

func seedTaskOrder(t *testing.T, db *gorm.DB, items []models.OrderItem) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:   fmt.Sprintf("PF%d", time.Now().UnixNano()),
		UserID:    1,
		Status:    constants.OrderStatusPaid,
		Currency:  constants.SiteCurrencyDefault,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := repository.NewOrderRepository(db).Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	order.Items = items
	return order
}

func TestGenerateTasksRoutesItems(t *testing.T) {
	taskSvc, db := setupStationTaskServiceTest(t)
	order := seedTaskOrder(t, db, []models.OrderItem{
		{Name: "炭烤牛肉堡", FoodType: constants.FoodTypeGrilled, StationCode: constants.StationCodeGrill, Quantity: 1},
		{Name: "脆皮炸鸡", FoodType: constants.FoodTypeFried, Quantity: 2},
		{Name: "神秘菜品", FoodType: "unknown", Quantity: 1},
	})

	tasks, stationCodes, err := taskSvc.GenerateTasks(db, order)
	if err != nil {
		t.Fatalf("generate tasks failed: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	if tasks[0].StationCode != constants.StationCodeGrill {
		t.Fatalf("expected explicit station grill, got %s", tasks[0].StationCode)
	}
	if tasks[1].StationCode != constants.StationCodeFryer {
		t.Fatalf("expected fried item routed to fryer, got %s", tasks[1].StationCode)
	}
	if tasks[2].StationCode != constants.StationCodePack {
		t.Fatalf("expected unknown food type routed to pack, got %s", tasks[2].StationCode)
	}
	if len(stationCodes) != 3 {
		t.Fatalf("expected 3 distinct stations, got %v", stationCodes)
	}
	for index, task := range tasks {
		if task.Priority != index {
			t.Fatalf("expected priority to follow item order, got %d at %d", task.Priority, index)
		}
		if task.Status != constants.TaskStatusPending {
			t.Fatalf("expected pending task, got %s", task.Status)
		}
	}

	var pack models.KitchenStation
	if err := db.Where("code = ?", constants.StationCodePack).First(&pack).Error; err != nil {
		t.Fatalf("load pack station failed: %v", err)
	}
	if !pack.AutoCreated || !pack.IsPacking {
		t.Fatalf("expected auto created packing station, got %+v", pack)
	}
	var grill models.KitchenStation
	if err := db.Where("code = ?", constants.StationCodeGrill).First(&grill).Error; err != nil {
		t.Fatalf("load grill station failed: %v", err)
	}
	if grill.StationType != "hot" {
		t.Fatalf("expected hot station type, got %s", grill.StationType)
	}
}

func TestGenerateTasksIdempotent(t *testing.T) {
	taskSvc, db := setupStationTaskServiceTest(t)
	order := seedTaskOrder(t, db, []models.OrderItem{
		{Name: "薯条", FoodType: constants.FoodTypeFried, Quantity: 1},
	})

	if _, _, err := taskSvc.GenerateTasks(db, order); err != nil {
		t.Fatalf("first generate failed: %v", err)
	}
	tasks, stationCodes, err := taskSvc.GenerateTasks(db, order)
	if err != nil {
		t.Fatalf("second generate failed: %v", err)
	}
	if tasks != nil || stationCodes != nil {
		t.Fatalf("expected no new tasks on repeat, got %d", len(tasks))
	}

	var count int64
	if err := db.Model(&models.StationTask{}).Where("order_id = ?", order.ID).Count(&count).Error; err != nil {
		t.Fatalf("count tasks failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 task, got %d", count)
	}
}

func TestTaskTransitionLifecycle(t *testing.T) {
	taskSvc, db := setupStationTaskServiceTest(t)
	order := seedTaskOrder(t, db, []models.OrderItem{
		{Name: "手打柠檬茶", FoodType: constants.FoodTypeDrink, Quantity: 1},
	})
	tasks, _, err := taskSvc.GenerateTasks(db, order)
	if err != nil {
		t.Fatalf("generate tasks failed: %v", err)
	}

	staffID := uint(7)
	task, err := taskSvc.Transition(TaskTransitionInput{
		TaskID: tasks[0].ID, Target: constants.TaskStatusAcknowledged, ActorID: staffID,
	})
	if err != nil {
		t.Fatalf("acknowledge failed: %v", err)
	}
	if task.AckedAt == nil || task.AckedBy == nil || *task.AckedBy != staffID {
		t.Fatalf("expected ack fields set, got %+v", task)
	}

	task, err = taskSvc.Transition(TaskTransitionInput{
		TaskID: tasks[0].ID, Target: constants.TaskStatusInProgress, ActorID: staffID,
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if task.StartedAt == nil {
		t.Fatal("expected started_at set")
	}

	task, err = taskSvc.Transition(TaskTransitionInput{
		TaskID: tasks[0].ID, Target: constants.TaskStatusCompleted, ActorID: staffID,
	})
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if task.CompletedAt == nil || task.CompletedBy == nil || *task.CompletedBy != staffID {
		t.Fatalf("expected completion fields set, got %+v", task)
	}
}

func TestTaskTransitionSkipForwardBackfillsStart(t *testing.T) {
	taskSvc, db := setupStationTaskServiceTest(t)
	order := seedTaskOrder(t, db, []models.OrderItem{
		{Name: "小食拼盒", FoodType: constants.FoodTypePackaged, Quantity: 1},
	})
	tasks, _, err := taskSvc.GenerateTasks(db, order)
	if err != nil {
		t.Fatalf("generate tasks failed: %v", err)
	}

	task, err := taskSvc.Transition(TaskTransitionInput{
		TaskID: tasks[0].ID, Target: constants.TaskStatusCompleted, ActorID: 3,
	})
	if err != nil {
		t.Fatalf("skip-forward complete failed: %v", err)
	}
	if task.StartedAt == nil || task.CompletedAt == nil {
		t.Fatalf("expected started_at backfilled on direct completion, got %+v", task)
	}
}

func TestTaskTransitionRejectsInvalid(t *testing.T) {
	taskSvc, db := setupStationTaskServiceTest(t)
	order := seedTaskOrder(t, db, []models.OrderItem{
		{Name: "薯条", FoodType: constants.FoodTypeFried, Quantity: 1},
	})
	tasks, _, err := taskSvc.GenerateTasks(db, order)
	if err != nil {
		t.Fatalf("generate tasks failed: %v", err)
	}
	if _, err := taskSvc.Transition(TaskTransitionInput{
		TaskID: tasks[0].ID, Target: constants.TaskStatusCompleted, ActorID: 3,
	}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	_, err = taskSvc.Transition(TaskTransitionInput{
		TaskID: tasks[0].ID, Target: constants.TaskStatusInProgress, ActorID: 3,
	})
	if !errors.Is(err, ErrTaskTransitionInvalid) {
		t.Fatalf("expected completed task to reject rework, got %v", err)
	}

	_, err = taskSvc.Transition(TaskTransitionInput{TaskID: tasks[0].ID, Target: "plated"})
	if !errors.Is(err, ErrTaskTransitionInvalid) {
		t.Fatalf("expected transition invalid for unknown target, got %v", err)
	}
}

func TestCompletedTaskStillCancelable(t *testing.T) {
	taskSvc, db := setupStationTaskServiceTest(t)
	order := seedTaskOrder(t, db, []models.OrderItem{
		{Name: "脆皮炸鸡", FoodType: constants.FoodTypeFried, Quantity: 1},
	})
	tasks, _, err := taskSvc.GenerateTasks(db, order)
	if err != nil {
		t.Fatalf("generate tasks failed: %v", err)
	}
	if _, err := taskSvc.Transition(TaskTransitionInput{
		TaskID: tasks[0].ID, Target: constants.TaskStatusCompleted, ActorID: 3,
	}); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	// 整单作废时已出餐的任务也要能收回
	task, err := taskSvc.Transition(TaskTransitionInput{
		TaskID: tasks[0].ID, Target: constants.TaskStatusCanceled, ActorID: 3,
	})
	if err != nil {
		t.Fatalf("cancel completed task failed: %v", err)
	}
	if task.Status != constants.TaskStatusCanceled || task.CanceledAt == nil {
		t.Fatalf("expected canceled task, got %+v", task)
	}
	if task.CompletedAt == nil {
		t.Fatal("expected completion timestamp preserved")
	}

	_, err = taskSvc.Transition(TaskTransitionInput{
		TaskID: tasks[0].ID, Target: constants.TaskStatusInProgress, ActorID: 3,
	})
	if !errors.Is(err, ErrTaskTransitionInvalid) {
		t.Fatalf("expected canceled task to be terminal, got %v", err)
	}
}

func TestOrderProgressAndPackingReady(t *testing.T) {
	taskSvc, db := setupStationTaskServiceTest(t)
	order := seedTaskOrder(t, db, []models.OrderItem{
		{Name: "炭烤牛肉堡", FoodType: constants.FoodTypeGrilled, Quantity: 1},
		{Name: "手打柠檬茶", FoodType: constants.FoodTypeDrink, Quantity: 1},
	})
	tasks, _, err := taskSvc.GenerateTasks(db, order)
	if err != nil {
		t.Fatalf("generate tasks failed: %v", err)
	}

	progress, err := taskSvc.OrderProgressByID(order.ID)
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if progress.Total != 2 || progress.Open != 2 || progress.Ready {
		t.Fatalf("unexpected initial progress: %+v", progress)
	}

	if _, err := taskSvc.Transition(TaskTransitionInput{
		TaskID: tasks[0].ID, Target: constants.TaskStatusCompleted, ActorID: 5,
	}); err != nil {
		t.Fatalf("complete first task failed: %v", err)
	}
	ready, err := taskSvc.PackingReady(order.ID)
	if err != nil {
		t.Fatalf("packing ready failed: %v", err)
	}
	if ready {
		t.Fatal("expected not ready with one open task")
	}

	if _, err := taskSvc.Transition(TaskTransitionInput{
		TaskID: tasks[1].ID, Target: constants.TaskStatusCanceled, ActorID: 5,
	}); err != nil {
		t.Fatalf("cancel second task failed: %v", err)
	}
	ready, err = taskSvc.PackingReady(order.ID)
	if err != nil {
		t.Fatalf("packing ready failed: %v", err)
	}
	if !ready {
		t.Fatal("expected ready once all tasks are settled")
	}
}
