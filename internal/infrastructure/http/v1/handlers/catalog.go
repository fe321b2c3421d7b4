package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"sealedger/internal/core/entity"
	"sealedger/internal/domain"
	"sealedger/internal/domain/catalogs/seaweedtype"
	"sealedger/internal/infrastructure/http/v1/dto"
)

// CatalogService is the CRUD surface shared by reference data services.
type CatalogService[T entity.Assignable] interface {
	Create(ctx context.Context, item T) (T, error)
	Get(ctx context.Context, id string) (T, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
	Update(ctx context.Context, item T) error
	Delete(ctx context.Context, id string) error
}

// SiteReassigner moves records to another site.
type SiteReassigner interface {
	ReassignSite(ctx context.Context, ids []string, siteID string) error
}

// CatalogHandler exposes CRUD endpoints for one catalog.
type CatalogHandler[T entity.Assignable] struct {
	*BaseHandler
	service CatalogService[T]
	newItem func() T

	bySite     func(ctx context.Context, siteID string) ([]T, error)
	reassigner SiteReassigner
}

// CatalogOption customizes a CatalogHandler.
type CatalogOption[T entity.Assignable] func(*CatalogHandler[T])

// WithSiteListing serves ?siteId= from fn.
func WithSiteListing[T entity.Assignable](fn func(ctx context.Context, siteID string) ([]T, error)) CatalogOption[T] {
	return func(h *CatalogHandler[T]) { h.bySite = fn }
}

// WithSiteReassign adds POST /reassign-site.
func WithSiteReassign[T entity.Assignable](r SiteReassigner) CatalogOption[T] {
	return func(h *CatalogHandler[T]) { h.reassigner = r }
}

// NewCatalogHandler creates a catalog handler. newItem returns an empty
// entity to bind request bodies into.
func NewCatalogHandler[T entity.Assignable](
	base *BaseHandler,
	service CatalogService[T],
	newItem func() T,
	opts ...CatalogOption[T],
) *CatalogHandler[T] {
	h := &CatalogHandler[T]{BaseHandler: base, service: service, newItem: newItem}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the catalog routes on g.
func (h *CatalogHandler[T]) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	if h.reassigner != nil {
		g.POST("/reassign-site", h.ReassignSite)
	}
}

// List handles GET /.
func (h *CatalogHandler[T]) List(c *gin.Context) {
	if siteID := c.Query("siteId"); siteID != "" && h.bySite != nil {
		items, err := h.bySite(c.Request.Context(), siteID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.NewListResponse(items))
		return
	}

	filter := domain.ListFilter{
		IDs:    c.QueryArray("id"),
		Limit:  h.ParseIntQuery(c, "limit", 0),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	if result.Items == nil {
		result.Items = []T{}
	}
	h.OK(c, result)
}

// Create handles POST /.
func (h *CatalogHandler[T]) Create(c *gin.Context) {
	item := h.newItem()
	if !h.BindJSON(c, item) {
		return
	}
	created, err := h.service.Create(c.Request.Context(), item)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, created)
}

// Get handles GET /:id.
func (h *CatalogHandler[T]) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// Update handles PUT /:id. The path id wins over the body.
func (h *CatalogHandler[T]) Update(c *gin.Context) {
	item := h.newItem()
	if !h.BindJSON(c, item) {
		return
	}
	item.SetID(c.Param("id"))
	if err := h.service.Update(c.Request.Context(), item); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// Delete handles DELETE /:id.
func (h *CatalogHandler[T]) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ReassignSite handles POST /reassign-site.
func (h *CatalogHandler[T]) ReassignSite(c *gin.Context) {
	var req dto.AssignRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.reassigner.ReassignSite(c.Request.Context(), req.IDs, req.SiteID); err != nil {
		h.Error(c, err)
		return
	}
	h.Count(c, len(req.IDs))
}

// SeaweedTypeHandler adds price history to the seaweed type catalog.
type SeaweedTypeHandler struct {
	*CatalogHandler[*seaweedtype.SeaweedType]
	service *seaweedtype.Service
}

// NewSeaweedTypeHandler creates a seaweed type handler.
func NewSeaweedTypeHandler(base *BaseHandler, service *seaweedtype.Service) *SeaweedTypeHandler {
	return &SeaweedTypeHandler{
		CatalogHandler: NewCatalogHandler[*seaweedtype.SeaweedType](base, service,
			func() *seaweedtype.SeaweedType { return &seaweedtype.SeaweedType{} }),
		service: service,
	}
}

// Register mounts the catalog routes plus POST /:id/prices.
func (h *SeaweedTypeHandler) Register(g *gin.RouterGroup) {
	h.CatalogHandler.Register(g)
	g.POST("/:id/prices", h.UpdatePrices)
}

// UpdatePrices handles POST /:id/prices.
func (h *SeaweedTypeHandler) UpdatePrices(c *gin.Context) {
	var p seaweedtype.PricePoint
	if !h.BindJSON(c, &p) {
		return
	}
	t, err := h.service.UpdatePrices(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}
