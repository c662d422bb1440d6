package admin

import (
	"strings"

	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateStationRequest 工位更新请求
type UpdateStationRequest struct {
	Name          string `json:"name"`
	StationType   string `json:"station_type"`
	IsActive      *bool  `json:"is_active"`
	BatchCapacity *int   `json:"batch_capacity"`
	SortOrder     *int   `json:"sort_order"`
}

// ListStations 工位列表
func (h *Handler) ListStations(c *gin.Context) {
	stations, err := h.StationTaskService.ListStations()
	if err != nil {
		respondAdminError(c, err)
		return
	}
	response.Success(c, stations)
}

// UpdateStation 更新工位属性
func (h *Handler) UpdateStation(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, response.CodeBadRequest, "invalid station code", nil)
		return
	}
	var req UpdateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	station, err := h.StationRepo.GetByCode(code)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	if station == nil {
		respondAdminError(c, service.ErrStationNotFound)
		return
	}
	if strings.TrimSpace(req.Name) != "" {
		station.Name = strings.TrimSpace(req.Name)
	}
	if strings.TrimSpace(req.StationType) != "" {
		station.StationType = strings.TrimSpace(req.StationType)
	}
	if req.IsActive != nil {
		station.IsActive = *req.IsActive
	}
	if req.BatchCapacity != nil {
		station.BatchCapacity = req.BatchCapacity
	}
	if req.SortOrder != nil {
		station.SortOrder = *req.SortOrder
	}
	if err := h.StationRepo.Update(station); err != nil {
		respondAdminError(c, err)
		return
	}
	requestLog(c).Infow("station_updated", "station_code", station.Code)
	response.Success(c, station)
}

// StationLoad 各工位未完成任务压力
func (h *Handler) StationLoad(c *gin.Context) {
	load, err := h.StationTaskService.StationLoad()
	if err != nil {
		respondAdminError(c, err)
		return
	}
	response.Success(c, load)
}
