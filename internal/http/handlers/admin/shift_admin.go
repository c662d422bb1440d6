package admin

import (
	"strconv"

	handlershared "github.com/prepflow/internal/http/handlers/shared"
	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/repository"
	"github.com/prepflow/internal/service"

	"github.com/gin-gonic/gin"
)

// ScheduleShiftRequest 排班请求
type ScheduleShiftRequest struct {
	StaffID     uint   `json:"staff_id" binding:"required"`
	StationCode string `json:"station_code"`
	ShiftDate   string `json:"shift_date" binding:"required"`
	StartClock  string `json:"start_clock" binding:"required"`
	EndClock    string `json:"end_clock" binding:"required"`
}

// ScheduleShift 新建排班
func (h *Handler) ScheduleShift(c *gin.Context) {
	var req ScheduleShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	shift, err := h.ShiftService.Schedule(service.ScheduleShiftInput{
		StaffID:     req.StaffID,
		StationCode: req.StationCode,
		ShiftDate:   req.ShiftDate,
		StartClock:  req.StartClock,
		EndClock:    req.EndClock,
	})
	if err != nil {
		respondAdminError(c, err)
		return
	}
	response.Success(c, shift)
}

// ListShifts 排班列表
func (h *Handler) ListShifts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.ShiftListFilter{
		Page:      page,
		PageSize:  pageSize,
		ShiftDate: c.Query("shift_date"),
		Status:    c.Query("status"),
	}
	if staffID, err := strconv.ParseUint(c.Query("staff_id"), 10, 64); err == nil && staffID > 0 {
		filter.StaffID = uint(staffID)
	}

	shifts, total, err := h.ShiftService.List(filter)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	response.SuccessWithPage(c, shifts, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}
