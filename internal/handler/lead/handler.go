package lead

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/leadrail/lead-api/internal/handler"
	"github.com/leadrail/lead-api/internal/middleware"
	"github.com/leadrail/lead-api/internal/model"
	"github.com/leadrail/lead-api/internal/service/lead"
)

type Handler struct {
	service lead.LeadService
}

func NewHandler(service lead.LeadService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	leads := r.Group("/leads")
	{
		leads.POST("", h.CreateLead)
		leads.GET("", h.ListLeads)
		leads.GET("/open", h.ListOpenLeads)
		leads.GET("/:id", h.GetLead)
		leads.PUT("/:id", h.UpdateLead)
		leads.PUT("/:id/assign", h.AssignLead)
		leads.PUT("/:id/status", h.UpdateStatus)
		leads.PUT("/:id/priority", h.UpdatePriority)
		leads.PUT("/:id/followup", h.SetFollowUp)
		leads.POST("/import", h.BulkImport)
		leads.DELETE("", h.DeleteLeads)
	}
}

func (h *Handler) CreateLead(c *gin.Context) {
	actorID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	var req model.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(middleware.BindErrorMessage(err)))
		return
	}

	created, err := h.service.Create(c.Request.Context(), actorID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

// ListLeads returns the role-scoped page of leads. An Admin sees every
// lead, a Sub-Admin the leads they created or hold, an Agent only the
// leads assigned to them.
func (h *Handler) ListLeads(c *gin.Context) {
	actorID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}
	role, _ := middleware.CurrentRole(c)

	var filters model.LeadFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(middleware.BindErrorMessage(err)))
		return
	}

	page, err := h.service.List(c.Request.Context(), role, actorID, &filters)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(page))
}

// ListOpenLeads is ListLeads restricted to leads still in the open status.
func (h *Handler) ListOpenLeads(c *gin.Context) {
	actorID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}
	role, _ := middleware.CurrentRole(c)

	var filters model.LeadFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(middleware.BindErrorMessage(err)))
		return
	}

	page, err := h.service.ListOpen(c.Request.Context(), role, actorID, &filters)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(page))
}

func (h *Handler) GetLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid lead id"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) UpdateLead(c *gin.Context) {
	actorID, id, ok := h.actorAndLead(c)
	if !ok {
		return
	}

	var req model.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(middleware.BindErrorMessage(err)))
		return
	}

	updated, err := h.service.UpdateDetails(c.Request.Context(), actorID, id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) AssignLead(c *gin.Context) {
	actorID, id, ok := h.actorAndLead(c)
	if !ok {
		return
	}

	var req model.AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(middleware.BindErrorMessage(err)))
		return
	}

	if err := h.service.Assign(c.Request.Context(), actorID, id, &req); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	actorID, id, ok := h.actorAndLead(c)
	if !ok {
		return
	}

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(middleware.BindErrorMessage(err)))
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), actorID, id, model.LeadStatus(req.Status)); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) UpdatePriority(c *gin.Context) {
	_, id, ok := h.actorAndLead(c)
	if !ok {
		return
	}

	var req model.UpdatePriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(middleware.BindErrorMessage(err)))
		return
	}

	if err := h.service.UpdatePriority(c.Request.Context(), id, model.LeadPriority(req.Priority)); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) SetFollowUp(c *gin.Context) {
	actorID, id, ok := h.actorAndLead(c)
	if !ok {
		return
	}

	var req model.SetFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(middleware.BindErrorMessage(err)))
		return
	}

	if err := h.service.SetFollowUp(c.Request.Context(), actorID, id, req.NextFollowUp); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) BulkImport(c *gin.Context) {
	actorID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	var req model.BulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(middleware.BindErrorMessage(err)))
		return
	}

	report, err := h.service.BulkImport(c.Request.Context(), actorID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(report))
}

func (h *Handler) DeleteLeads(c *gin.Context) {
	var req model.DeleteLeadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(middleware.BindErrorMessage(err)))
		return
	}

	deleted, err := h.service.Delete(c.Request.Context(), req.LeadIDs)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"deleted": deleted}))
}

// actorAndLead extracts the authenticated actor and the lead id path param.
func (h *Handler) actorAndLead(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	actorID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid lead id"))
		return uuid.Nil, uuid.Nil, false
	}
	return actorID, id, true
}
