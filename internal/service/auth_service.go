package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/prepflow/internal/cache"
	"github.com/prepflow/internal/config"
	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/logger"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// 认证错误
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already registered")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrWeakPassword       = errors.New("password too weak")
)

// AuthService 认证服务。顾客与员工共用账号体系，按角色区分权限。
type AuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
}

// NewAuthService 创建认证服务
func NewAuthService(cfg *config.Config, userRepo repository.UserRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo}
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// JWTClaims JWT 声明
type JWTClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(user *models.User) (string, time.Time, error) {
	expireHours := s.cfg.JWT.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	expiresAt := time.Now().Add(time.Duration(expireHours) * time.Hour)
	claims := JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &JWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if parsed, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return parsed, nil
	}
	return nil, ErrInvalidCredentials
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidInput
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register 顾客注册
func (s *AuthService) Register(email, password, displayName string) (*models.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	exist, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrEmailExists
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        normalized,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(displayName),
		Role:         constants.UserRoleCustomer,
		Status:       constants.UserStatusActive,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	logger.Infow("user_registered", "user_id", user.ID)
	return user, nil
}

// Login 登录。连续失败超过限流阈值后暂时拒绝尝试。
func (s *AuthService) Login(email, password, clientIP string) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if blocked, err := s.loginAttemptsBlocked(normalized); err == nil && blocked {
		return nil, "", time.Time{}, ErrTooManyAttempts
	}

	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		s.recordLoginFailure(normalized)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if user.Status != constants.UserStatusActive {
		return nil, "", time.Time{}, ErrAccountDisabled
	}
	if err := s.VerifyPassword(user.PasswordHash, password); err != nil {
		s.recordLoginFailure(normalized)
		logger.Warnw("login_failed", "email", normalized, "client_ip", clientIP)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, "", time.Time{}, err
	}
	s.clearLoginFailures(normalized)
	logger.Infow("user_logged_in", "user_id", user.ID, "role", user.Role)
	return user, token, expiresAt, nil
}

// ChangePassword 修改密码
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrStaffNotFound
	}
	if err := s.VerifyPassword(user.PasswordHash, oldPassword); err != nil {
		return ErrInvalidCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.userRepo.Update(user)
}

// loginAttemptRecord 登录失败计数
type loginAttemptRecord struct {
	Count int `json:"count"`
}

func loginAttemptKey(email string) string {
	return fmt.Sprintf("login_attempts:%s", email)
}

func (s *AuthService) rateLimit() config.LoginRateLimitConfig {
	return s.cfg.Security.LoginRateLimit
}

func (s *AuthService) loginAttemptsBlocked(email string) (bool, error) {
	limit := s.rateLimit()
	if limit.MaxAttempts <= 0 {
		return false, nil
	}
	var record loginAttemptRecord
	found, err := cache.GetJSON(context.Background(), loginAttemptKey(email), &record)
	if err != nil || !found {
		return false, err
	}
	return record.Count >= limit.MaxAttempts, nil
}

func (s *AuthService) recordLoginFailure(email string) {
	limit := s.rateLimit()
	if limit.MaxAttempts <= 0 {
		return
	}
	window := time.Duration(limit.WindowSeconds) * time.Second
	if window <= 0 {
		window = 5 * time.Minute
	}
	ctx := context.Background()
	var record loginAttemptRecord
	_, _ = cache.GetJSON(ctx, loginAttemptKey(email), &record)
	record.Count++
	if record.Count >= limit.MaxAttempts && limit.BlockSeconds > 0 {
		window = time.Duration(limit.BlockSeconds) * time.Second
	}
	_ = cache.SetJSON(ctx, loginAttemptKey(email), record, window)
}

func (s *AuthService) clearLoginFailures(email string) {
	_ = cache.Del(context.Background(), loginAttemptKey(email))
}
