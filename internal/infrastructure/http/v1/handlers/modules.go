package handlers

import (
	"github.com/gin-gonic/gin"

	"sealedger/internal/domain"
	"sealedger/internal/domain/modules"
	"sealedger/internal/infrastructure/http/v1/dto"
)

// ModuleHandler handles cultivation module requests.
type ModuleHandler struct {
	*BaseHandler
	service *modules.Service
}

// NewModuleHandler creates a new module handler.
func NewModuleHandler(base *BaseHandler, service *modules.Service) *ModuleHandler {
	return &ModuleHandler{BaseHandler: base, service: service}
}

// Register mounts the module routes on g.
func (h *ModuleHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.GET("/:id/status", h.Status)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/free", h.Free)
	g.POST("/assign", h.Assign)
	g.POST("/reassign-site", h.ReassignSite)
}

// List handles GET /modules with optional siteId or farmerId.
func (h *ModuleHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		items []*modules.Module
		err   error
	)
	switch {
	case c.Query("farmerId") != "":
		items, err = h.service.ListByFarmer(ctx, c.Query("farmerId"))
	case c.Query("siteId") != "":
		items, err = h.service.ListBySite(ctx, c.Query("siteId"))
	default:
		var result domain.ListResult[*modules.Module]
		result, err = h.service.CatalogService.List(ctx, domain.ListFilter{
			Limit:  h.ParseIntQuery(c, "limit", 0),
			Offset: h.ParseIntQuery(c, "offset", 0),
		})
		if err == nil {
			h.OK(c, result)
			return
		}
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// Create handles POST /modules.
func (h *ModuleHandler) Create(c *gin.Context) {
	var in modules.CreateInput
	if !h.BindJSON(c, &in) {
		return
	}
	m, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m)
}

// Get handles GET /modules/:id.
func (h *ModuleHandler) Get(c *gin.Context) {
	m, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// Status handles GET /modules/:id/status.
func (h *ModuleHandler) Status(c *gin.Context) {
	st, err := h.service.CurrentStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"id": c.Param("id"), "status": st})
}

// Delete handles DELETE /modules/:id.
func (h *ModuleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Free handles POST /modules/:id/free.
func (h *ModuleHandler) Free(c *gin.Context) {
	var req dto.FreeModuleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.Free(c.Request.Context(), c.Param("id"), req.Date, req.Notes); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "module freed")
}

// Assign handles POST /modules/assign.
func (h *ModuleHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.AssignToFarmer(c.Request.Context(), req.IDs, req.FarmerID); err != nil {
		h.Error(c, err)
		return
	}
	h.Count(c, len(req.IDs))
}

// ReassignSite handles POST /modules/reassign-site.
func (h *ModuleHandler) ReassignSite(c *gin.Context) {
	var req dto.AssignRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.ReassignSite(c.Request.Context(), req.IDs, req.SiteID); err != nil {
		h.Error(c, err)
		return
	}
	h.Count(c, len(req.IDs))
}
