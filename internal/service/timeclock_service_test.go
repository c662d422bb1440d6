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

func setupTimeClockServiceTest(t *testing.T) (*TimeClockService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:timeclock_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.KitchenStation{},
		&models.StationTask{},
		&models.StaffShift{},
		&models.TimeClockEntry{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	auditSvc := NewAuditService(repository.NewAuditLogRepository(db))
	timeClockSvc := NewTimeClockService(
		repository.NewTimeClockRepository(db),
		repository.NewStationTaskRepository(db),
		repository.NewStationRepository(db),
		repository.NewShiftRepository(db),
		repository.NewUserRepository(db),
		auditSvc,
	)
	return timeClockSvc, db
}

func seedStaffUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("staff_%d@prepflow.local", id),
		PasswordHash: "hash",
		DisplayName:  fmt.Sprintf("员工%d", id),
		Role:         constants.UserRoleStaff,
		Status:       constants.UserStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create staff failed: %v", err)
	}
	return &user
}

func TestCheckInCreatesEntry(t *testing.T) {
	timeClockSvc, db := setupTimeClockServiceTest(t)
	staff := seedStaffUser(t, db, 1)

	entry, err := timeClockSvc.CheckIn(staff.ID, constants.StationCodeGrill)
	if err != nil {
		t.Fatalf("check in failed: %v", err)
	}
	if entry.Status != constants.TimeClockStatusOnDuty || entry.StationCode != constants.StationCodeGrill {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.ShiftID != nil {
		t.Fatal("expected no shift link without schedule")
	}

	var station models.KitchenStation
	if err := db.Where("code = ?", constants.StationCodeGrill).First(&station).Error; err != nil {
		t.Fatalf("expected station auto-created: %v", err)
	}

	if _, err := timeClockSvc.CheckIn(staff.ID, constants.StationCodeFryer); !errors.Is(err, ErrAlreadyClockedIn) {
		t.Fatalf("expected already clocked in, got %v", err)
	}
	if _, err := timeClockSvc.CheckIn(999, ""); !errors.Is(err, ErrStaffNotFound) {
		t.Fatalf("expected staff not found, got %v", err)
	}
}

func TestCheckInLinksCoveringShift(t *testing.T) {
	timeClockSvc, db := setupTimeClockServiceTest(t)
	staff := seedStaffUser(t, db, 2)
	shift := models.StaffShift{
		StaffID:     staff.ID,
		StationCode: constants.StationCodeGrill,
		ShiftDate:   time.Now().Format("2006-01-02"),
		StartClock:  "00:00",
		EndClock:    "23:59",
		Status:      constants.ShiftStatusScheduled,
	}
	if err := db.Create(&shift).Error; err != nil {
		t.Fatalf("create shift failed: %v", err)
	}

	entry, err := timeClockSvc.CheckIn(staff.ID, constants.StationCodeGrill)
	if err != nil {
		t.Fatalf("check in failed: %v", err)
	}
	if entry.ShiftID == nil || *entry.ShiftID != shift.ID {
		t.Fatalf("expected shift linked, got %+v", entry.ShiftID)
	}

	closed, err := timeClockSvc.CheckOut(staff.ID)
	if err != nil {
		t.Fatalf("check out failed: %v", err)
	}
	if closed.Status != constants.TimeClockStatusOffDuty || closed.CheckedOutAt == nil {
		t.Fatalf("unexpected closed entry: %+v", closed)
	}

	var stored models.StaffShift
	if err := db.First(&stored, shift.ID).Error; err != nil {
		t.Fatalf("load shift failed: %v", err)
	}
	if stored.Status != constants.ShiftStatusCompleted {
		t.Fatalf("expected shift completed on check out, got %s", stored.Status)
	}
}

func TestCheckOutBlockedByOpenStationWork(t *testing.T) {
	timeClockSvc, db := setupTimeClockServiceTest(t)
	staff := seedStaffUser(t, db, 3)
	if _, err := timeClockSvc.CheckIn(staff.ID, constants.StationCodeFryer); err != nil {
		t.Fatalf("check in failed: %v", err)
	}
	task := models.StationTask{
		OrderID:      1,
		StationCode:  constants.StationCodeFryer,
		StationLabel: "炸台",
		ProductName:  "脆皮炸鸡",
		FoodType:     constants.FoodTypeFried,
		Quantity:     1,
		Status:       constants.TaskStatusInProgress,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("create task failed: %v", err)
	}

	if _, err := timeClockSvc.CheckOut(staff.ID); !errors.Is(err, ErrUnfinishedStationWork) {
		t.Fatalf("expected unfinished station work, got %v", err)
	}
	if _, err := timeClockSvc.StartBreak(staff.ID); !errors.Is(err, ErrUnfinishedStationWork) {
		t.Fatalf("expected break blocked too, got %v", err)
	}

	// 有人接替后允许离岗
	backup := seedStaffUser(t, db, 4)
	if _, err := timeClockSvc.CheckIn(backup.ID, constants.StationCodeFryer); err != nil {
		t.Fatalf("backup check in failed: %v", err)
	}
	closed, err := timeClockSvc.CheckOut(staff.ID)
	if err != nil {
		t.Fatalf("check out with backup failed: %v", err)
	}
	if closed.CheckedOutAt == nil {
		t.Fatal("expected checked_out_at set")
	}
}

func TestBreakFlow(t *testing.T) {
	timeClockSvc, db := setupTimeClockServiceTest(t)
	staff := seedStaffUser(t, db, 5)
	if _, err := timeClockSvc.CheckIn(staff.ID, ""); err != nil {
		t.Fatalf("check in failed: %v", err)
	}

	entry, err := timeClockSvc.StartBreak(staff.ID)
	if err != nil {
		t.Fatalf("start break failed: %v", err)
	}
	if entry.Status != constants.TimeClockStatusOnBreak || entry.BreakStartedAt == nil {
		t.Fatalf("unexpected break entry: %+v", entry)
	}
	if _, err := timeClockSvc.StartBreak(staff.ID); !errors.Is(err, ErrTimeClockStatusInvalid) {
		t.Fatalf("expected status invalid on double break, got %v", err)
	}

	entry, err = timeClockSvc.EndBreak(staff.ID)
	if err != nil {
		t.Fatalf("end break failed: %v", err)
	}
	if entry.Status != constants.TimeClockStatusOnDuty || entry.BreakStartedAt != nil {
		t.Fatalf("expected back on duty, got %+v", entry)
	}
	if _, err := timeClockSvc.EndBreak(staff.ID); !errors.Is(err, ErrTimeClockStatusInvalid) {
		t.Fatalf("expected status invalid when not on break, got %v", err)
	}

	if _, err := timeClockSvc.CheckOut(staff.ID); err != nil {
		t.Fatalf("check out failed: %v", err)
	}
	current, err := timeClockSvc.CurrentEntry(staff.ID)
	if err != nil {
		t.Fatalf("current entry failed: %v", err)
	}
	if current != nil {
		t.Fatalf("expected no open entry after check out, got %+v", current)
	}
	if _, err := timeClockSvc.StartBreak(staff.ID); !errors.Is(err, ErrNoOpenTimeClock) {
		t.Fatalf("expected no open timeclock, got %v", err)
	}
}

func TestListOnDuty(t *testing.T) {
	timeClockSvc, db := setupTimeClockServiceTest(t)
	first := seedStaffUser(t, db, 6)
	second := seedStaffUser(t, db, 7)
	if _, err := timeClockSvc.CheckIn(first.ID, constants.StationCodeGrill); err != nil {
		t.Fatalf("check in failed: %v", err)
	}
	if _, err := timeClockSvc.CheckIn(second.ID, constants.StationCodeDrinks); err != nil {
		t.Fatalf("check in failed: %v", err)
	}
	if _, err := timeClockSvc.CheckOut(second.ID); err != nil {
		t.Fatalf("check out failed: %v", err)
	}

	entries, err := timeClockSvc.ListOnDuty()
	if err != nil {
		t.Fatalf("list on duty failed: %v", err)
	}
	if len(entries) != 1 || entries[0].StaffID != first.ID {
		t.Fatalf("expected only first staff open, got %+v", entries)
	}
}
