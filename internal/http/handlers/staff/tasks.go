package staff

import (
	"strconv"
	"strings"

	"github.com/prepflow/internal/constants"
	handlershared "github.com/prepflow/internal/http/handlers/shared"
	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/repository"
	"github.com/prepflow/internal/service"

	"github.com/gin-gonic/gin"
)

// TaskTransitionRequest 任务状态流转请求
type TaskTransitionRequest struct {
	Target string `json:"target" binding:"required"`
}

// ListTasks 厨房看板任务列表，可按工位与状态过滤
func (h *Handler) ListTasks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.TaskListFilter{
		Page:        page,
		PageSize:    pageSize,
		StationCode: strings.TrimSpace(c.Query("station_code")),
	}
	if orderID, err := strconv.ParseUint(c.Query("order_id"), 10, 64); err == nil && orderID > 0 {
		filter.OrderID = uint(orderID)
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		filter.Statuses = strings.Split(status, ",")
	}

	tasks, total, err := h.StationTaskService.List(filter)
	if err != nil {
		respondStaffError(c, err)
		return
	}
	response.SuccessWithPage(c, tasks, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// TransitionTask 流转工位任务状态（认领/开做/完成/取消/改派）
func (h *Handler) TransitionTask(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || taskID == 0 {
		respondError(c, response.CodeBadRequest, "invalid task id", nil)
		return
	}
	var req TaskTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	task, svcErr := h.StationTaskService.Transition(service.TaskTransitionInput{
		TaskID:    uint(taskID),
		Target:    strings.ToLower(strings.TrimSpace(req.Target)),
		ActorID:   staffID,
		ActorType: constants.ActorTypeStaff,
	})
	if svcErr != nil {
		respondStaffError(c, svcErr)
		return
	}
	response.Success(c, task)
}

// ListStations 工位列表
func (h *Handler) ListStations(c *gin.Context) {
	stations, err := h.StationTaskService.ListStations()
	if err != nil {
		respondStaffError(c, err)
		return
	}
	response.Success(c, stations)
}

// StationLoad 各工位未完成任务压力
func (h *Handler) StationLoad(c *gin.Context) {
	load, err := h.StationTaskService.StationLoad()
	if err != nil {
		respondStaffError(c, err)
		return
	}
	response.Success(c, load)
}
