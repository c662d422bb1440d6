package service

import (
	"strings"
	"time"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/logger"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"
)

// ShiftService 排班服务
type ShiftService struct {
	shiftRepo repository.ShiftRepository
	userRepo  repository.UserRepository
}

// NewShiftService 创建排班服务
func NewShiftService(shiftRepo repository.ShiftRepository, userRepo repository.UserRepository) *ShiftService {
	return &ShiftService{shiftRepo: shiftRepo, userRepo: userRepo}
}

// ScheduleShiftInput 排班参数
type ScheduleShiftInput struct {
	StaffID     uint
	StationCode string
	ShiftDate   string
	StartClock  string
	EndClock    string
}

// Schedule 新建排班。日期用 YYYY-MM-DD、时刻用 HH:MM，开始须早于结束。
func (s *ShiftService) Schedule(input ScheduleShiftInput) (*models.StaffShift, error) {
	if input.StaffID == 0 {
		return nil, ErrInvalidInput
	}
	if _, err := time.Parse("2006-01-02", input.ShiftDate); err != nil {
		return nil, ErrInvalidInput
	}
	if _, err := time.Parse("15:04", input.StartClock); err != nil {
		return nil, ErrInvalidInput
	}
	if _, err := time.Parse("15:04", input.EndClock); err != nil {
		return nil, ErrInvalidInput
	}
	if input.StartClock >= input.EndClock {
		return nil, ErrInvalidInput
	}
	staff, err := s.userRepo.GetActiveStaff(input.StaffID)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, ErrStaffNotFound
	}

	shift := &models.StaffShift{
		StaffID:     input.StaffID,
		StationCode: strings.TrimSpace(input.StationCode),
		ShiftDate:   input.ShiftDate,
		StartClock:  input.StartClock,
		EndClock:    input.EndClock,
		Status:      constants.ShiftStatusScheduled,
	}
	if err := s.shiftRepo.Create(shift); err != nil {
		return nil, err
	}
	logger.Infow("shift_scheduled",
		"shift_id", shift.ID, "staff_id", shift.StaffID, "shift_date", shift.ShiftDate)
	return shift, nil
}

// List 排班列表查询
func (s *ShiftService) List(filter repository.ShiftListFilter) ([]models.StaffShift, int64, error) {
	return s.shiftRepo.List(filter)
}

// MarkMissedBefore 将指定日期之前未履约的排班批量标记为 missed，
// 由队列消费侧每日清理调用。
func (s *ShiftService) MarkMissedBefore(shiftDate string) (int64, error) {
	if _, err := time.Parse("2006-01-02", shiftDate); err != nil {
		return 0, ErrInvalidInput
	}
	affected, err := s.shiftRepo.MarkMissedBefore(shiftDate)
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		logger.Infow("shifts_marked_missed", "before", shiftDate, "count", affected)
	}
	return affected, nil
}
