package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leadrail/lead-api/internal/handler"
	"github.com/leadrail/lead-api/internal/middleware"
	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/service/auth"
)

type Handler struct {
	service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/login", h.Login)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(middleware.BindErrorMessage(err)))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}
