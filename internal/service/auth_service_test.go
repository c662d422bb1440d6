package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prepflow/internal/config"
	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{
		JWT: config.JWTConfig{
			SecretKey:   "auth-service-test-secret-key-0123456789",
			ExpireHours: 24,
		},
	}
	return NewAuthService(cfg, repository.NewUserRepository(db)), db
}

func TestRegisterAndLogin(t *testing.T) {
	authSvc, _ := setupAuthServiceTest(t)

	user, err := authSvc.Register("Diner@Example.com", "super-secret", "老顾客")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "diner@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}
	if user.Role != constants.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", user.Role)
	}

	if _, err := authSvc.Register("diner@example.com", "super-secret", ""); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected email exists, got %v", err)
	}
	if _, err := authSvc.Register("short@example.com", "short", ""); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
	if _, err := authSvc.Register("not-an-email", "super-secret", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid email, got %v", err)
	}

	logged, token, expiresAt, err := authSvc.Login("diner@example.com", "super-secret", "127.0.0.1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if logged.LastLoginAt == nil {
		t.Fatal("expected last_login_at recorded")
	}
	if !expiresAt.After(time.Now()) {
		t.Fatal("expected future token expiry")
	}
	claims, err := authSvc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != constants.UserRoleCustomer {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, _, _, err := authSvc.Login("diner@example.com", "wrong-password", "127.0.0.1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, _, _, err := authSvc.Login("nobody@example.com", "super-secret", "127.0.0.1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	authSvc, _ := setupAuthServiceTest(t)
	user, err := authSvc.Register("blocked@example.com", "super-secret", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := authSvc.SetUserStatus(user.ID, constants.UserStatusDisabled); err != nil {
		t.Fatalf("disable account failed: %v", err)
	}
	if _, _, _, err := authSvc.Login("blocked@example.com", "super-secret", "127.0.0.1"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected account disabled, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	authSvc, _ := setupAuthServiceTest(t)
	user, err := authSvc.Register("change@example.com", "old-password", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := authSvc.ChangePassword(user.ID, "wrong-password", "new-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if err := authSvc.ChangePassword(user.ID, "old-password", "tiny"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
	if err := authSvc.ChangePassword(user.ID, "old-password", "new-password"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, _, _, err := authSvc.Login("change@example.com", "new-password", "127.0.0.1"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, _, _, err := authSvc.Login("change@example.com", "old-password", "127.0.0.1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
}

func TestCreateStaff(t *testing.T) {
	authSvc, _ := setupAuthServiceTest(t)

	staff, err := authSvc.CreateStaff(CreateStaffInput{
		Email:       "grill@prepflow.local",
		Password:    "staff-password",
		DisplayName: "烤台小李",
		Role:        constants.UserRoleStaff,
	})
	if err != nil {
		t.Fatalf("create staff failed: %v", err)
	}
	if staff.Role != constants.UserRoleStaff || staff.Status != constants.UserStatusActive {
		t.Fatalf("unexpected staff account: %+v", staff)
	}

	if _, err := authSvc.CreateStaff(CreateStaffInput{
		Email: "x@prepflow.local", Password: "staff-password", Role: constants.UserRoleCustomer,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for customer role, got %v", err)
	}
	if _, err := authSvc.CreateStaff(CreateStaffInput{
		Email: "grill@prepflow.local", Password: "staff-password", Role: constants.UserRoleAdmin,
	}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected email exists, got %v", err)
	}

	listed, err := authSvc.ListStaff()
	if err != nil {
		t.Fatalf("list staff failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != staff.ID {
		t.Fatalf("unexpected staff list: %+v", listed)
	}
}

func TestSetUserStatus(t *testing.T) {
	authSvc, _ := setupAuthServiceTest(t)
	user, err := authSvc.Register("status@example.com", "super-secret", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := authSvc.SetUserStatus(user.ID, "frozen"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown status, got %v", err)
	}
	if _, err := authSvc.SetUserStatus(9999, constants.UserStatusDisabled); !errors.Is(err, ErrStaffNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	updated, err := authSvc.SetUserStatus(user.ID, constants.UserStatusDisabled)
	if err != nil {
		t.Fatalf("set status failed: %v", err)
	}
	if updated.Status != constants.UserStatusDisabled {
		t.Fatalf("expected disabled, got %s", updated.Status)
	}
	profile, err := authSvc.GetProfile(user.ID)
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if profile.Status != constants.UserStatusDisabled {
		t.Fatalf("expected disabled profile, got %s", profile.Status)
	}
}
