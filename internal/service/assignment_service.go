package service

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"

	"gorm.io/gorm"
)

// AssignmentService 订单指派服务，按在岗、排班、兜底三级选人
type AssignmentService struct {
	userRepo      repository.UserRepository
	shiftRepo     repository.ShiftRepository
	timeClockRepo repository.TimeClockRepository
}

// NewAssignmentService 创建订单指派服务
func NewAssignmentService(
	userRepo repository.UserRepository,
	shiftRepo repository.ShiftRepository,
	timeClockRepo repository.TimeClockRepository,
) *AssignmentService {
	return &AssignmentService{
		userRepo:      userRepo,
		shiftRepo:     shiftRepo,
		timeClockRepo: timeClockRepo,
	}
}

// Resolve 为订单选出负责员工。依次尝试三级：
// 在岗等待最久的员工（优先工位提示内选取）、覆盖当前时刻的排班、全体有效员工随机兜底。
// 每级选出的候选都要复核角色与账号状态，三级都落空时返回 nil。
// 选人不加锁，并发下岗等竞态只会导致指派到刚离岗的员工，属于可接受的误差。
func (s *AssignmentService) Resolve(tx *gorm.DB, stationHint string, now time.Time) (*models.User, error) {
	userRepo := s.userRepo.WithTx(tx)

	staff, err := s.resolveOnDuty(tx, userRepo, stationHint)
	if err != nil || staff != nil {
		return staff, err
	}

	staff, err = s.resolveScheduled(tx, userRepo, stationHint, now)
	if err != nil || staff != nil {
		return staff, err
	}

	return s.resolveFallback(userRepo)
}

func (s *AssignmentService) resolveOnDuty(tx *gorm.DB, userRepo repository.UserRepository, stationHint string) (*models.User, error) {
	timeClockRepo := s.timeClockRepo.WithTx(tx)
	codes := []string{""}
	if stationHint != "" {
		codes = []string{stationHint, ""}
	}
	for _, code := range codes {
		entry, err := timeClockRepo.GetLongestWaitingOnDuty(code)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}
		staff, err := userRepo.GetActiveStaff(entry.StaffID)
		if err != nil {
			return nil, err
		}
		if staff != nil {
			return staff, nil
		}
	}
	return nil, nil
}

func (s *AssignmentService) resolveScheduled(tx *gorm.DB, userRepo repository.UserRepository, stationHint string, now time.Time) (*models.User, error) {
	shifts, err := s.shiftRepo.WithTx(tx).ListScheduledCovering(now.Format("2006-01-02"), now.Format("15:04"))
	if err != nil {
		return nil, err
	}
	ordered := make([]models.StaffShift, 0, len(shifts))
	if stationHint != "" {
		for _, shift := range shifts {
			if shift.StationCode == stationHint {
				ordered = append(ordered, shift)
			}
		}
	}
	for _, shift := range shifts {
		if stationHint != "" && shift.StationCode == stationHint {
			continue
		}
		ordered = append(ordered, shift)
	}
	for _, shift := range ordered {
		staff, err := userRepo.GetActiveStaff(shift.StaffID)
		if err != nil {
			return nil, err
		}
		if staff != nil {
			return staff, nil
		}
	}
	return nil, nil
}

func (s *AssignmentService) resolveFallback(userRepo repository.UserRepository) (*models.User, error) {
	candidates, err := userRepo.ListActiveStaff()
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	index, err := rand.Int(rand.Reader, big.NewInt(int64(len(candidates))))
	if err != nil {
		return &candidates[0], nil
	}
	return &candidates[index.Int64()], nil
}
