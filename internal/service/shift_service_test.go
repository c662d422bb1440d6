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

func setupShiftServiceTest(t *testing.T) (*ShiftService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:shift_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.StaffShift{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	svc := NewShiftService(repository.NewShiftRepository(db), repository.NewUserRepository(db))
	return svc, db
}

func TestScheduleShift(t *testing.T) {
	shiftSvc, db := setupShiftServiceTest(t)
	staff := seedStaffUser(t, db, 1)

	shift, err := shiftSvc.Schedule(ScheduleShiftInput{
		StaffID:     staff.ID,
		StationCode: constants.StationCodeGrill,
		ShiftDate:   "2026-09-01",
		StartClock:  "10:00",
		EndClock:    "22:00",
	})
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if shift.Status != constants.ShiftStatusScheduled {
		t.Fatalf("expected scheduled shift, got %s", shift.Status)
	}

	cases := []ScheduleShiftInput{
		{StaffID: staff.ID, ShiftDate: "09/01/2026", StartClock: "10:00", EndClock: "22:00"},
		{StaffID: staff.ID, ShiftDate: "2026-09-01", StartClock: "25:00", EndClock: "26:00"},
		{StaffID: staff.ID, ShiftDate: "2026-09-01", StartClock: "22:00", EndClock: "10:00"},
	}
	for _, input := range cases {
		if _, err := shiftSvc.Schedule(input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected invalid input for %+v, got %v", input, err)
		}
	}

	if _, err := shiftSvc.Schedule(ScheduleShiftInput{
		StaffID: 9999, ShiftDate: "2026-09-01", StartClock: "10:00", EndClock: "22:00",
	}); !errors.Is(err, ErrStaffNotFound) {
		t.Fatalf("expected staff not found, got %v", err)
	}
}

func TestMarkMissedBefore(t *testing.T) {
	shiftSvc, db := setupShiftServiceTest(t)
	staff := seedStaffUser(t, db, 2)
	shifts := []models.StaffShift{
		{StaffID: staff.ID, ShiftDate: "2026-08-01", StartClock: "10:00", EndClock: "22:00", Status: constants.ShiftStatusScheduled},
		{StaffID: staff.ID, ShiftDate: "2026-08-02", StartClock: "10:00", EndClock: "22:00", Status: constants.ShiftStatusCompleted},
		{StaffID: staff.ID, ShiftDate: "2026-08-31", StartClock: "10:00", EndClock: "22:00", Status: constants.ShiftStatusScheduled},
	}
	if err := db.Create(&shifts).Error; err != nil {
		t.Fatalf("create shifts failed: %v", err)
	}

	affected, err := shiftSvc.MarkMissedBefore("2026-08-31")
	if err != nil {
		t.Fatalf("mark missed failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 shift marked missed, got %d", affected)
	}

	var stored models.StaffShift
	if err := db.First(&stored, shifts[0].ID).Error; err != nil {
		t.Fatalf("load shift failed: %v", err)
	}
	if stored.Status != constants.ShiftStatusMissed {
		t.Fatalf("expected missed, got %s", stored.Status)
	}
	stored = models.StaffShift{}
	if err := db.First(&stored, shifts[1].ID).Error; err != nil {
		t.Fatalf("load shift failed: %v", err)
	}
	if stored.Status != constants.ShiftStatusCompleted {
		t.Fatalf("expected completed shift untouched, got %s", stored.Status)
	}
	stored = models.StaffShift{}
	if err := db.First(&stored, shifts[2].ID).Error; err != nil {
		t.Fatalf("load shift failed: %v", err)
	}
	if stored.Status != constants.ShiftStatusScheduled {
		t.Fatalf("expected same-day shift untouched, got %s", stored.Status)
	}

	if _, err := shiftSvc.MarkMissedBefore("bad-date"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
