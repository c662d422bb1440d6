package service

import (
	"strings"
	"time"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/logger"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"

	"gorm.io/gorm"
)

// TimeClockService 员工打卡服务
type TimeClockService struct {
	timeClockRepo repository.TimeClockRepository
	taskRepo      repository.StationTaskRepository
	stationRepo   repository.StationRepository
	shiftRepo     repository.ShiftRepository
	userRepo      repository.UserRepository
	auditService  *AuditService
}

// NewTimeClockService 创建打卡服务
func NewTimeClockService(
	timeClockRepo repository.TimeClockRepository,
	taskRepo repository.StationTaskRepository,
	stationRepo repository.StationRepository,
	shiftRepo repository.ShiftRepository,
	userRepo repository.UserRepository,
	auditService *AuditService,
) *TimeClockService {
	return &TimeClockService{
		timeClockRepo: timeClockRepo,
		taskRepo:      taskRepo,
		stationRepo:   stationRepo,
		shiftRepo:     shiftRepo,
		userRepo:      userRepo,
		auditService:  auditService,
	}
}

// CheckIn 员工上岗打卡。同一员工同时只允许一条未结束记录，
// 值守未建档的工位时自动建档，当前时刻有排班则挂到班次上。
func (s *TimeClockService) CheckIn(staffID uint, stationCode string) (*models.TimeClockEntry, error) {
	if staffID == 0 {
		return nil, ErrInvalidInput
	}
	staff, err := s.userRepo.GetActiveStaff(staffID)
	if err != nil {
		return nil, err
	}
	if staff == nil {
		return nil, ErrStaffNotFound
	}
	stationCode = strings.TrimSpace(stationCode)

	var entry *models.TimeClockEntry
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		timeClockRepo := s.timeClockRepo.WithTx(tx)
		open, err := timeClockRepo.GetOpenByStaff(staffID)
		if err != nil {
			return err
		}
		if open != nil {
			return ErrAlreadyClockedIn
		}
		if stationCode != "" {
			if _, err := ensureStation(s.stationRepo.WithTx(tx), stationCode); err != nil {
				return err
			}
		}

		now := time.Now()
		entry = &models.TimeClockEntry{
			StaffID:     staffID,
			StationCode: stationCode,
			Status:      constants.TimeClockStatusOnDuty,
			CheckedInAt: now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		shift, err := s.shiftRepo.WithTx(tx).GetScheduledByStaffCovering(
			staffID, now.Format("2006-01-02"), now.Format("15:04"))
		if err != nil {
			return err
		}
		if shift != nil {
			entry.ShiftID = &shift.ID
		}
		if err := timeClockRepo.Create(entry); err != nil {
			return err
		}

		return s.auditService.Record(tx, AuditEntry{
			ActorID:    staffID,
			ActorType:  constants.ActorTypeStaff,
			Action:     constants.AuditActionStaffCheckIn,
			Resource:   "timeclock_entry",
			ResourceID: entry.ID,
			Detail:     models.JSON{"station_code": stationCode},
		})
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("staff_checked_in", "staff_id", staffID, "station_code", stationCode)
	return entry, nil
}

// CheckOut 员工下岗打卡。值守工位还有未完结任务且无人接替时拒绝。
func (s *TimeClockService) CheckOut(staffID uint) (*models.TimeClockEntry, error) {
	return s.closeOrPause(staffID, constants.TimeClockStatusOffDuty)
}

// StartBreak 员工开始休息，接替校验与下岗一致
func (s *TimeClockService) StartBreak(staffID uint) (*models.TimeClockEntry, error) {
	return s.closeOrPause(staffID, constants.TimeClockStatusOnBreak)
}

func (s *TimeClockService) closeOrPause(staffID uint, target string) (*models.TimeClockEntry, error) {
	if staffID == 0 {
		return nil, ErrInvalidInput
	}
	var entry *models.TimeClockEntry
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		timeClockRepo := s.timeClockRepo.WithTx(tx)
		open, err := timeClockRepo.GetOpenByStaff(staffID)
		if err != nil {
			return err
		}
		if open == nil {
			return ErrNoOpenTimeClock
		}
		if open.Status != constants.TimeClockStatusOnDuty {
			return ErrTimeClockStatusInvalid
		}
		if err := s.ensureStationCovered(tx, open); err != nil {
			return err
		}

		now := time.Now()
		open.Status = target
		open.UpdatedAt = now
		action := constants.AuditActionStaffBreak
		if target == constants.TimeClockStatusOffDuty {
			open.CheckedOutAt = &now
			action = constants.AuditActionStaffCheckOut
			if open.ShiftID != nil {
				if err := s.completeShift(tx, *open.ShiftID); err != nil {
					return err
				}
			}
		} else {
			open.BreakStartedAt = &now
		}
		if err := timeClockRepo.Update(open); err != nil {
			return err
		}

		entry = open
		return s.auditService.Record(tx, AuditEntry{
			ActorID:    staffID,
			ActorType:  constants.ActorTypeStaff,
			Action:     action,
			Resource:   "timeclock_entry",
			ResourceID: open.ID,
			Detail:     models.JSON{"station_code": open.StationCode, "status": target},
		})
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("staff_timeclock_updated", "staff_id", staffID, "status", target)
	return entry, nil
}

// ensureStationCovered 离岗守卫：工位还有未完结任务时必须有其他在岗员工接替
func (s *TimeClockService) ensureStationCovered(tx *gorm.DB, entry *models.TimeClockEntry) error {
	if entry.StationCode == "" {
		return nil
	}
	openTasks, err := s.taskRepo.WithTx(tx).CountOpenByStation(entry.StationCode)
	if err != nil {
		return err
	}
	if openTasks == 0 {
		return nil
	}
	backups, err := s.timeClockRepo.WithTx(tx).CountOnDutyAtStationExcluding(entry.StationCode, entry.StaffID)
	if err != nil {
		return err
	}
	if backups == 0 {
		return ErrUnfinishedStationWork
	}
	return nil
}

func (s *TimeClockService) completeShift(tx *gorm.DB, shiftID uint) error {
	shiftRepo := s.shiftRepo.WithTx(tx)
	shift, err := shiftRepo.GetByID(shiftID)
	if err != nil || shift == nil {
		return err
	}
	if shift.Status != constants.ShiftStatusScheduled {
		return nil
	}
	shift.Status = constants.ShiftStatusCompleted
	return shiftRepo.Update(shift)
}

// EndBreak 员工结束休息，无条件恢复在岗
func (s *TimeClockService) EndBreak(staffID uint) (*models.TimeClockEntry, error) {
	if staffID == 0 {
		return nil, ErrInvalidInput
	}
	var entry *models.TimeClockEntry
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		timeClockRepo := s.timeClockRepo.WithTx(tx)
		open, err := timeClockRepo.GetOpenByStaff(staffID)
		if err != nil {
			return err
		}
		if open == nil {
			return ErrNoOpenTimeClock
		}
		if open.Status != constants.TimeClockStatusOnBreak {
			return ErrTimeClockStatusInvalid
		}

		open.Status = constants.TimeClockStatusOnDuty
		open.BreakStartedAt = nil
		open.UpdatedAt = time.Now()
		if err := timeClockRepo.Update(open); err != nil {
			return err
		}

		entry = open
		return s.auditService.Record(tx, AuditEntry{
			ActorID:    staffID,
			ActorType:  constants.ActorTypeStaff,
			Action:     constants.AuditActionStaffBreak,
			Resource:   "timeclock_entry",
			ResourceID: open.ID,
			Detail:     models.JSON{"station_code": open.StationCode, "status": open.Status},
		})
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("staff_break_ended", "staff_id", staffID)
	return entry, nil
}

// CurrentEntry 获取员工当前未结束的打卡记录
func (s *TimeClockService) CurrentEntry(staffID uint) (*models.TimeClockEntry, error) {
	if staffID == 0 {
		return nil, ErrInvalidInput
	}
	return s.timeClockRepo.GetOpenByStaff(staffID)
}

// ListOnDuty 获取全部未结束的打卡记录
func (s *TimeClockService) ListOnDuty() ([]models.TimeClockEntry, error) {
	return s.timeClockRepo.ListOpen()
}
