package service

import (
	"strings"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/logger"
	"github.com/prepflow/internal/models"
)

// CreateStaffInput 管理端创建员工账号参数
type CreateStaffInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        string
}

// CreateStaff 创建员工或管理员账号
func (s *AuthService) CreateStaff(input CreateStaffInput) (*models.User, error) {
	role := strings.ToLower(strings.TrimSpace(input.Role))
	if role != constants.UserRoleStaff && role != constants.UserRoleAdmin {
		return nil, ErrInvalidInput
	}
	normalized, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}
	exist, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrEmailExists
	}
	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        normalized,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Role:         role,
		Status:       constants.UserStatusActive,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	logger.Infow("staff_created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// SetUserStatus 启用或停用账号
func (s *AuthService) SetUserStatus(userID uint, status string) (*models.User, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != constants.UserStatusActive && status != constants.UserStatusDisabled {
		return nil, ErrInvalidInput
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrStaffNotFound
	}
	user.Status = status
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	logger.Infow("user_status_changed", "user_id", userID, "status", status)
	return user, nil
}

// GetProfile 获取账号资料
func (s *AuthService) GetProfile(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrStaffNotFound
	}
	return user, nil
}

// ListStaff 在职员工列表
func (s *AuthService) ListStaff() ([]models.User, error) {
	return s.userRepo.ListActiveStaff()
}
