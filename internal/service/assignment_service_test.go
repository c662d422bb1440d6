package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAssignmentServiceTest(t *testing.T) (*AssignmentService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:assignment_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.StaffShift{},
		&models.TimeClockEntry{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	svc := NewAssignmentService(
		repository.NewUserRepository(db),
		repository.NewShiftRepository(db),
		repository.NewTimeClockRepository(db),
	)
	return svc, db
}

func seedOnDutyEntry(t *testing.T, db *gorm.DB, staffID uint, stationCode string, checkedInAt time.Time) {
	t.Helper()
	entry := models.TimeClockEntry{
		StaffID:     staffID,
		StationCode: stationCode,
		Status:      constants.TimeClockStatusOnDuty,
		CheckedInAt: checkedInAt,
		CreatedAt:   checkedInAt,
		UpdatedAt:   checkedInAt,
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("create timeclock entry failed: %v", err)
	}
}

func TestResolvePrefersOnDutyAtHintedStation(t *testing.T) {
	svc, db := setupAssignmentServiceTest(t)
	grillStaff := seedStaffUser(t, db, 1)
	fryerStaff := seedStaffUser(t, db, 2)
	now := time.Now()
	seedOnDutyEntry(t, db, grillStaff.ID, constants.StationCodeGrill, now.Add(-2*time.Hour))
	seedOnDutyEntry(t, db, fryerStaff.ID, constants.StationCodeFryer, now.Add(-10*time.Minute))

	staff, err := svc.Resolve(db, constants.StationCodeFryer, now)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if staff == nil || staff.ID != fryerStaff.ID {
		t.Fatalf("expected hinted station staff, got %+v", staff)
	}

	// 无工位提示时选等待最久的在岗员工
	staff, err = svc.Resolve(db, "", now)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if staff == nil || staff.ID != grillStaff.ID {
		t.Fatalf("expected longest waiting staff, got %+v", staff)
	}
}

func TestResolveFallsBackToSchedule(t *testing.T) {
	svc, db := setupAssignmentServiceTest(t)
	scheduled := seedStaffUser(t, db, 3)
	other := seedStaffUser(t, db, 4)
	now := time.Now()
	shifts := []models.StaffShift{
		{StaffID: other.ID, StationCode: constants.StationCodeGrill, ShiftDate: now.Format("2006-01-02"),
			StartClock: "00:00", EndClock: "23:59", Status: constants.ShiftStatusScheduled},
		{StaffID: scheduled.ID, StationCode: constants.StationCodeDrinks, ShiftDate: now.Format("2006-01-02"),
			StartClock: "00:00", EndClock: "23:59", Status: constants.ShiftStatusScheduled},
	}
	if err := db.Create(&shifts).Error; err != nil {
		t.Fatalf("create shifts failed: %v", err)
	}

	staff, err := svc.Resolve(db, constants.StationCodeDrinks, now)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if staff == nil || staff.ID != scheduled.ID {
		t.Fatalf("expected staff scheduled at hinted station, got %+v", staff)
	}
}

func TestResolveRandomFallback(t *testing.T) {
	svc, db := setupAssignmentServiceTest(t)
	only := seedStaffUser(t, db, 5)

	staff, err := svc.Resolve(db, "", time.Now())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if staff == nil || staff.ID != only.ID {
		t.Fatalf("expected fallback to the only active staff, got %+v", staff)
	}
}

func TestResolveSkipsDisabledStaff(t *testing.T) {
	svc, db := setupAssignmentServiceTest(t)
	disabled := seedStaffUser(t, db, 6)
	if err := db.Model(&models.User{}).Where("id = ?", disabled.ID).
		Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable staff failed: %v", err)
	}
	seedOnDutyEntry(t, db, disabled.ID, constants.StationCodeGrill, time.Now().Add(-time.Hour))

	staff, err := svc.Resolve(db, "", time.Now())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if staff != nil {
		t.Fatalf("expected no candidate when the only staff is disabled, got %+v", staff)
	}
}
