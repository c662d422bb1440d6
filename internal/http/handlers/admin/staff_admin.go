package admin

import (
	"strconv"

	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateStaffRequest 创建员工账号请求
type CreateStaffRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role" binding:"required"`
}

// SetUserStatusRequest 启停账号请求
type SetUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateStaff 创建员工或管理员账号
func (h *Handler) CreateStaff(c *gin.Context) {
	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	user, err := h.AuthService.CreateStaff(service.CreateStaffInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	})
	if err != nil {
		respondAdminError(c, err)
		return
	}
	response.Success(c, user)
}

// ListStaff 在职员工列表
func (h *Handler) ListStaff(c *gin.Context) {
	users, err := h.AuthService.ListStaff()
	if err != nil {
		respondAdminError(c, err)
		return
	}
	response.Success(c, users)
}

// SetUserStatus 启用或停用账号
func (h *Handler) SetUserStatus(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		respondError(c, response.CodeBadRequest, "invalid user id", nil)
		return
	}
	var req SetUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	user, svcErr := h.AuthService.SetUserStatus(uint(userID), req.Status)
	if svcErr != nil {
		respondAdminError(c, svcErr)
		return
	}
	response.Success(c, user)
}
