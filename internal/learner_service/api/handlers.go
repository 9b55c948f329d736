package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartlearn/internal/learner_service/service"
)

// Handler 封装了学习者账户相关 endpoint 的处理函数。
type Handler struct {
	service *service.Service
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s *service.Service) *Handler {
	return &Handler{service: s}
}

// RegisterRequest 定义了注册请求的 JSON 结构。
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register 处理注册请求。
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	learner, err := h.service.Register(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"learnerId": learner.ID})
}

// LoginRequest 定义了登录请求的 JSON 结构。
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login 处理登录请求。
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Me 返回当前登录学习者的基本信息。
func (h *Handler) Me(c *gin.Context) {
	learnerID, ok := LearnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	learner, err := h.service.GetLearner(learnerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "learner not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"learnerId": learner.ID,
		"name":      learner.Name,
		"email":     learner.Email,
	})
}

// RegisterRoutes 在给定的分组上挂载账户路由。
func (h *Handler) RegisterRoutes(apiV1 *gin.RouterGroup, jwtSecret string) {
	auth := apiV1.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/me", AuthMiddleware(jwtSecret), h.Me)
	}
}
