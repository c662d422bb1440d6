package service

import (
	"time"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/logger"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"

	"gorm.io/gorm"
)

// FulfillmentService 履约编排服务，将已支付订单推入厨房流水线
type FulfillmentService struct {
	orderRepo          repository.OrderRepository
	assignmentService  *AssignmentService
	stationTaskService *StationTaskService
	auditService       *AuditService
}

// NewFulfillmentService 创建履约编排服务
func NewFulfillmentService(
	orderRepo repository.OrderRepository,
	assignmentService *AssignmentService,
	stationTaskService *StationTaskService,
	auditService *AuditService,
) *FulfillmentService {
	return &FulfillmentService{
		orderRepo:          orderRepo,
		assignmentService:  assignmentService,
		stationTaskService: stationTaskService,
		auditService:       auditService,
	}
}

// DispatchResult 派单结果，供事务提交后发送通知
type DispatchResult struct {
	Dispatched      bool
	AssignedStaffID *uint
	Tasks           []models.StationTask
	StationCodes    []string
}

// Dispatch 在给定事务内完成派单：订单转入 preparing、选出负责员工、
// 生成工位任务并落审计。仅作用于 paid/confirmed 订单，其余状态原样跳过。
// 已指派过员工的订单不会重新指派。
func (s *FulfillmentService) Dispatch(tx *gorm.DB, order *models.Order, actorID uint, actorType string) (*DispatchResult, error) {
	if order == nil || order.ID == 0 {
		return nil, ErrInvalidInput
	}
	if order.Status != constants.OrderStatusPaid && order.Status != constants.OrderStatusConfirmed {
		logger.Debugw("dispatch_skipped", "order_id", order.ID, "status", order.Status)
		return &DispatchResult{}, nil
	}

	now := time.Now()
	result := &DispatchResult{Dispatched: true}
	updates := map[string]interface{}{"updated_at": now}

	if order.AssignedStaffID == nil {
		staff, err := s.assignmentService.Resolve(tx, order.StationHint, now)
		if err != nil {
			return nil, err
		}
		if staff != nil {
			order.AssignedStaffID = &staff.ID
			order.AssignedAt = &now
			updates["assigned_staff_id"] = staff.ID
			updates["assigned_at"] = now
		}
	}
	result.AssignedStaffID = order.AssignedStaffID

	if err := s.orderRepo.WithTx(tx).UpdateStatus(order.ID, constants.OrderStatusPreparing, updates); err != nil {
		return nil, ErrOrderUpdateFailed
	}
	order.Status = constants.OrderStatusPreparing

	tasks, stationCodes, err := s.stationTaskService.GenerateTasks(tx, order)
	if err != nil {
		return nil, err
	}
	result.Tasks = tasks
	result.StationCodes = stationCodes

	detail := models.JSON{"station_codes": stationCodes, "task_count": len(tasks)}
	if order.AssignedStaffID != nil {
		detail["assigned_staff_id"] = *order.AssignedStaffID
	}
	if err := s.auditService.Record(tx, AuditEntry{
		ActorID:    actorID,
		ActorType:  actorTypeOrDefault(actorType, constants.ActorTypeSystem),
		Action:     constants.AuditActionOrderDispatched,
		Resource:   "order",
		ResourceID: order.ID,
		Detail:     detail,
	}); err != nil {
		return nil, err
	}

	logger.Infow("order_dispatched",
		"order_id", order.ID, "order_no", order.OrderNo,
		"task_count", len(tasks), "stations", stationCodes)
	return result, nil
}
