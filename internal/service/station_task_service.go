package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/logger"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"

	"gorm.io/gorm"
)

// StationTaskService 工位任务服务，负责任务路由、状态流转与看板查询
type StationTaskService struct {
	taskRepo            repository.StationTaskRepository
	stationRepo         repository.StationRepository
	auditService        *AuditService
	notificationService *NotificationService
}

// NewStationTaskService 创建工位任务服务
func NewStationTaskService(
	taskRepo repository.StationTaskRepository,
	stationRepo repository.StationRepository,
	auditService *AuditService,
	notificationService *NotificationService,
) *StationTaskService {
	return &StationTaskService{
		taskRepo:            taskRepo,
		stationRepo:         stationRepo,
		auditService:        auditService,
		notificationService: notificationService,
	}
}

// foodTypeStations 菜品类型到工位的兜底路由表
var foodTypeStations = map[string]string{
	constants.FoodTypeGrilled:  constants.StationCodeGrill,
	constants.FoodTypeFried:    constants.StationCodeFryer,
	constants.FoodTypeDrink:    constants.StationCodeDrinks,
	constants.FoodTypePackaged: constants.StationCodePack,
	constants.FoodTypeCombo:    constants.StationCodePack,
}

// resolveStationCode 菜品指定工位优先，否则按类型路由，未知类型进打包位
func resolveStationCode(item *models.OrderItem) string {
	if code := strings.TrimSpace(item.StationCode); code != "" {
		return code
	}
	if code, ok := foodTypeStations[item.FoodType]; ok {
		return code
	}
	return constants.StationCodePack
}

// ensureStation 获取工位，不存在时自动建档
func ensureStation(stationRepo repository.StationRepository, code string) (*models.KitchenStation, error) {
	station, err := stationRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if station != nil {
		return station, nil
	}
	station = &models.KitchenStation{
		Code:        code,
		Name:        code,
		StationType: stationTypeForCode(code),
		IsPacking:   code == constants.StationCodePack,
		IsActive:    true,
		AutoCreated: true,
	}
	if err := stationRepo.Create(station); err != nil {
		return nil, err
	}
	logger.Infow("station_auto_created", "code", code)
	return station, nil
}

func stationTypeForCode(code string) string {
	switch code {
	case constants.StationCodeDrinks:
		return "drink"
	case constants.StationCodePack:
		return "pack"
	default:
		return "hot"
	}
}

// GenerateTasks 为订单生成工位任务，在派单事务内调用。
// 订单已有任务时直接跳过，保证重复派单不产生重复任务。
func (s *StationTaskService) GenerateTasks(tx *gorm.DB, order *models.Order) ([]models.StationTask, []string, error) {
	if order == nil || order.ID == 0 {
		return nil, nil, ErrInvalidInput
	}
	taskRepo := s.taskRepo.WithTx(tx)
	stationRepo := s.stationRepo.WithTx(tx)

	existing, err := taskRepo.CountByOrder(order.ID)
	if err != nil {
		return nil, nil, err
	}
	if existing > 0 {
		logger.Debugw("station_tasks_already_exist", "order_id", order.ID, "count", existing)
		return nil, nil, nil
	}

	now := time.Now()
	tasks := make([]models.StationTask, 0, len(order.Items))
	stationSet := make(map[string]struct{})
	stationCodes := make([]string, 0, 4)
	for index := range order.Items {
		item := &order.Items[index]
		code := resolveStationCode(item)
		station, err := ensureStation(stationRepo, code)
		if err != nil {
			return nil, nil, err
		}
		itemID := item.ID
		task := models.StationTask{
			OrderID:      order.ID,
			StationCode:  station.Code,
			StationLabel: station.Name,
			ProductName:  item.Name,
			FoodType:     item.FoodType,
			Quantity:     item.Quantity,
			AddonsNote:   buildAddonsNote(item.Addons),
			Priority:     index,
			PrepSeconds:  item.PrepSeconds,
			Status:       constants.TaskStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if itemID != 0 {
			task.OrderItemID = &itemID
		}
		tasks = append(tasks, task)
		if _, ok := stationSet[station.Code]; !ok {
			stationSet[station.Code] = struct{}{}
			stationCodes = append(stationCodes, station.Code)
		}
	}
	if err := taskRepo.CreateBatch(tasks); err != nil {
		return nil, nil, err
	}
	return tasks, stationCodes, nil
}

// buildAddonsNote 加料名汇总成一行看板备注
func buildAddonsNote(addons models.AddonList) string {
	if len(addons) == 0 {
		return ""
	}
	parts := make([]string, 0, len(addons))
	for _, addon := range addons {
		parts = append(parts, addon.Name)
	}
	return strings.Join(parts, ", ")
}

// taskTransitions 各状态允许进入的目标状态。
// 看板允许跳步完成；已完成的任务仍可被取消，canceled 与 rerouted 不再流转。
var taskTransitions = map[string][]string{
	constants.TaskStatusPending: {
		constants.TaskStatusAcknowledged,
		constants.TaskStatusInProgress,
		constants.TaskStatusCompleted,
		constants.TaskStatusCanceled,
		constants.TaskStatusRerouted,
	},
	constants.TaskStatusAcknowledged: {
		constants.TaskStatusInProgress,
		constants.TaskStatusCompleted,
		constants.TaskStatusCanceled,
		constants.TaskStatusRerouted,
	},
	constants.TaskStatusInProgress: {
		constants.TaskStatusCompleted,
		constants.TaskStatusCanceled,
		constants.TaskStatusRerouted,
	},
	constants.TaskStatusCompleted: {
		constants.TaskStatusCanceled,
	},
}

func transitionAllowed(from, to string) bool {
	for _, candidate := range taskTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// TaskTransitionInput 任务状态流转参数
type TaskTransitionInput struct {
	TaskID    uint
	Target    string
	ActorID   uint
	ActorType string
}

// Transition 推进任务状态并记录审计，非法流转直接拒绝
func (s *StationTaskService) Transition(input TaskTransitionInput) (*models.StationTask, error) {
	if input.TaskID == 0 || input.Target == "" {
		return nil, ErrInvalidInput
	}
	var updated *models.StationTask
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		taskRepo := s.taskRepo.WithTx(tx)
		task, err := taskRepo.GetByID(input.TaskID)
		if err != nil {
			return err
		}
		if task == nil {
			return ErrTaskNotFound
		}
		if !transitionAllowed(task.Status, input.Target) {
			return fmt.Errorf("%w: %s -> %s", ErrTaskTransitionInvalid, task.Status, input.Target)
		}

		from := task.Status
		now := time.Now()
		task.Status = input.Target
		task.UpdatedAt = now
		switch input.Target {
		case constants.TaskStatusAcknowledged:
			task.AckedAt = &now
			if input.ActorID != 0 {
				task.AckedBy = &input.ActorID
			}
		case constants.TaskStatusInProgress:
			task.StartedAt = &now
		case constants.TaskStatusCompleted:
			task.CompletedAt = &now
			if task.StartedAt == nil {
				task.StartedAt = &now
			}
			if input.ActorID != 0 {
				task.CompletedBy = &input.ActorID
			}
		case constants.TaskStatusCanceled, constants.TaskStatusRerouted:
			task.CanceledAt = &now
		}
		if err := taskRepo.Update(task); err != nil {
			return err
		}

		if err := s.auditService.Record(tx, AuditEntry{
			ActorID:    input.ActorID,
			ActorType:  actorTypeOrDefault(input.ActorType, constants.ActorTypeStaff),
			Action:     constants.AuditActionTaskTransition,
			Resource:   "station_task",
			ResourceID: task.ID,
			Detail:     models.JSON{"from": from, "to": input.Target, "order_id": task.OrderID},
		}); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notificationService.NotifyTaskUpdated(updated)
	logger.Infow("station_task_transitioned",
		"task_id", updated.ID, "order_id", updated.OrderID, "status", updated.Status)
	return updated, nil
}

func actorTypeOrDefault(actorType, fallback string) string {
	if actorType != "" {
		return actorType
	}
	return fallback
}

// OrderProgress 订单任务进度
type OrderProgress struct {
	Total int64 `json:"total"`
	Open  int64 `json:"open"`
	Ready bool  `json:"ready"`
}

// OrderProgressByID 汇总订单任务进度，全部任务完结即打包就绪
func (s *StationTaskService) OrderProgressByID(orderID uint) (*OrderProgress, error) {
	if orderID == 0 {
		return nil, ErrInvalidInput
	}
	total, err := s.taskRepo.CountByOrder(orderID)
	if err != nil {
		return nil, err
	}
	open, err := s.taskRepo.CountOpenByOrder(orderID)
	if err != nil {
		return nil, err
	}
	return &OrderProgress{Total: total, Open: open, Ready: open == 0}, nil
}

// PackingReady 判断订单是否打包就绪
func (s *StationTaskService) PackingReady(orderID uint) (bool, error) {
	progress, err := s.OrderProgressByID(orderID)
	if err != nil {
		return false, err
	}
	return progress.Ready, nil
}

// ListByOrder 获取订单任务列表
func (s *StationTaskService) ListByOrder(orderID uint) ([]models.StationTask, error) {
	if orderID == 0 {
		return nil, ErrInvalidInput
	}
	return s.taskRepo.ListByOrder(orderID)
}

// List 看板任务列表查询
func (s *StationTaskService) List(filter repository.TaskListFilter) ([]models.StationTask, int64, error) {
	return s.taskRepo.List(filter)
}

// StationLoad 按工位聚合未完结任务量
func (s *StationTaskService) StationLoad() ([]repository.StationLoadRow, error) {
	return s.taskRepo.StationLoad()
}

// ListStations 获取启用的工位列表
func (s *StationTaskService) ListStations() ([]models.KitchenStation, error) {
	return s.stationRepo.ListActive()
}
