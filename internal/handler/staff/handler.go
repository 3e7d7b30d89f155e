package staff

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/leadrail/lead-api/internal/handler"
	"github.com/leadrail/lead-api/internal/middleware"
	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/service/staff"
)

type Handler struct {
	service staff.StaffService
	auth    *middleware.AuthMiddleware
}

func NewHandler(service staff.StaffService, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	adminOnly := h.auth.RequireRole(model.RoleAdmin)

	staff := r.Group("/staff")
	{
		staff.POST("", adminOnly, h.RegisterStaff)
		staff.GET("", adminOnly, h.ListStaff)
		staff.GET("/agents", h.ListAgents)
		staff.GET("/:id", h.GetStaff)
		staff.PUT("/:id", adminOnly, h.UpdateStaff)
		staff.DELETE("/:id", adminOnly, h.DeleteStaff)
	}
	r.PUT("/password", h.ChangePassword)
}

func (h *Handler) RegisterStaff(c *gin.Context) {
	var req model.RegisterStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(middleware.BindErrorMessage(err)))
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(user))
}

func (h *Handler) ListStaff(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(users))
}

// ListAgents returns Agents. A Sub-Admin gets their own team; the Admin
// may pass supervisor_id to scope, or omit it for all Agents.
func (h *Handler) ListAgents(c *gin.Context) {
	role, _ := middleware.CurrentRole(c)
	actorID, _ := middleware.CurrentUserID(c)

	var supervisorID *uuid.UUID
	switch role {
	case model.RoleSubAdmin:
		supervisorID = &actorID
	case model.RoleAdmin:
		if raw := c.Query("supervisor_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid supervisor id"))
				return
			}
			supervisorID = &id
		}
	default:
		c.JSON(http.StatusForbidden, handler.NewErrorResponse("insufficient role"))
		return
	}

	agents, err := h.service.ListAgents(c.Request.Context(), supervisorID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(agents))
}

func (h *Handler) GetStaff(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid staff id"))
		return
	}

	user, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(user))
}

func (h *Handler) UpdateStaff(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid staff id"))
		return
	}

	var req model.UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(middleware.BindErrorMessage(err)))
		return
	}

	user, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(user))
}

func (h *Handler) DeleteStaff(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid staff id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ChangePassword(c *gin.Context) {
	actorID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(middleware.BindErrorMessage(err)))
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), actorID, &req); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
