package public

import (
	"time"

	"github.com/prepflow/internal/http/response"
	"github.com/prepflow/internal/models"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// AuthResponse 登录响应
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register 顾客注册
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	user, err := h.AuthService.Register(req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	response.Success(c, user)
}

// Login 登录，签发 JWT
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	user, token, expiresAt, err := h.AuthService.Login(req.Email, req.Password, c.ClientIP())
	if err != nil {
		respondAuthError(c, err)
		return
	}
	response.Success(c, AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

// GetCurrentUser 当前账号资料
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.AuthService.GetProfile(userID)
	if err != nil {
		respondError(c, response.CodeNotFound, "user not found", err)
		return
	}
	response.Success(c, user)
}

// ChangePassword 修改密码
func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.AuthService.ChangePassword(userID, req.OldPassword, req.NewPassword); err != nil {
		respondAuthError(c, err)
		return
	}
	response.SuccessWithMsg(c, "password changed", nil)
}
