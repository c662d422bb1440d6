package staff

import (
	"strings"

	"github.com/prepflow/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CheckInRequest 打卡上班请求
type CheckInRequest struct {
	StationCode string `json:"station_code"`
}

// CheckIn 打卡上班，可选绑定工位并关联当日排班
func (h *Handler) CheckIn(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	var req CheckInRequest
	_ = c.ShouldBindJSON(&req)

	entry, err := h.TimeClockService.CheckIn(staffID, strings.TrimSpace(req.StationCode))
	if err != nil {
		respondStaffError(c, err)
		return
	}
	response.Success(c, entry)
}

// CheckOut 打卡下班。工位还有未完成任务且无人接手时会被拒绝。
func (h *Handler) CheckOut(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	entry, err := h.TimeClockService.CheckOut(staffID)
	if err != nil {
		respondStaffError(c, err)
		return
	}
	response.Success(c, entry)
}

// StartBreak 开始休息，拦截条件与下班一致
func (h *Handler) StartBreak(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	entry, err := h.TimeClockService.StartBreak(staffID)
	if err != nil {
		respondStaffError(c, err)
		return
	}
	response.Success(c, entry)
}

// EndBreak 结束休息，恢复在岗
func (h *Handler) EndBreak(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	entry, err := h.TimeClockService.EndBreak(staffID)
	if err != nil {
		respondStaffError(c, err)
		return
	}
	response.Success(c, entry)
}

// CurrentTimeClock 当前打卡状态
func (h *Handler) CurrentTimeClock(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	entry, err := h.TimeClockService.CurrentEntry(staffID)
	if err != nil {
		respondStaffError(c, err)
		return
	}
	response.Success(c, entry)
}

// ListOnDuty 当前在岗员工
func (h *Handler) ListOnDuty(c *gin.Context) {
	entries, err := h.TimeClockService.ListOnDuty()
	if err != nil {
		respondStaffError(c, err)
		return
	}
	response.Success(c, entries)
}
