package admin

import (
	"strconv"
	"time"

	handlershared "github.com/prepflow/internal/http/handlers/shared"
	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs 审计日志列表
func (h *Handler) ListAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.AuditLogListFilter{
		Page:     page,
		PageSize: pageSize,
		Action:   c.Query("action"),
		Resource: c.Query("resource"),
	}
	if actorID, err := strconv.ParseUint(c.Query("actor_id"), 10, 64); err == nil && actorID > 0 {
		filter.ActorID = uint(actorID)
	}
	if resourceID, err := strconv.ParseUint(c.Query("resource_id"), 10, 64); err == nil && resourceID > 0 {
		filter.ResourceID = uint(resourceID)
	}
	if from, err := time.Parse("2006-01-02", c.Query("created_from")); err == nil {
		filter.CreatedFrom = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("created_to")); err == nil {
		filter.CreatedTo = &to
	}

	logs, total, err := h.AuditService.List(filter)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	response.SuccessWithPage(c, logs, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}
