package handlers

import (
	"github.com/gin-gonic/gin"

	"sealedger/internal/core/entity"
	"sealedger/internal/domain/registers"
	"sealedger/internal/domain/registers/pressed"
	"sealedger/internal/domain/registers/stock"
	"sealedger/internal/infrastructure/http/v1/dto"
)

// ledgerReads serves movement and balance queries for one ledger.
type ledgerReads struct {
	*BaseHandler
	ledger *registers.Ledger
}

// Movements handles GET /movements.
func (h ledgerReads) Movements(c *gin.Context) {
	from, ok := h.DateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := h.DateQuery(c, "to")
	if !ok {
		return
	}
	items, err := h.ledger.Movements(c.Request.Context(), registers.MovementFilter{
		SiteID:        c.Query("siteId"),
		SeaweedTypeID: c.Query("seaweedTypeId"),
		RelatedID:     c.Query("relatedId"),
		Type:          entity.MovementType(c.Query("type")),
		From:          from,
		To:            to,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// Balances handles GET /balances.
func (h ledgerReads) Balances(c *gin.Context) {
	asOf, ok := h.DateQuery(c, "asOf")
	if !ok {
		return
	}
	items, err := h.ledger.Balances(c.Request.Context(), registers.BalanceFilter{
		SiteID:        c.Query("siteId"),
		SeaweedTypeID: c.Query("seaweedTypeId"),
		AsOf:          asOf,
		ExcludeZero:   h.BoolQuery(c, "nonZero"),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// StockHandler handles the site stock register.
type StockHandler struct {
	ledgerReads
	service *stock.Service
}

// NewStockHandler creates a new site stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{
		ledgerReads: ledgerReads{BaseHandler: base, ledger: service.Ledger},
		service:     service,
	}
}

// Register mounts the site stock routes on g.
func (h *StockHandler) Register(g *gin.RouterGroup) {
	g.GET("/movements", h.Movements)
	g.GET("/balances", h.Balances)
	g.POST("/initial", h.AddInitialStock)
	g.POST("/adjustments", h.AddAdjustment)
}

// AddInitialStock handles POST /initial.
func (h *StockHandler) AddInitialStock(c *gin.Context) {
	var in stock.EntryInput
	if !h.BindJSON(c, &in) {
		return
	}
	m, err := h.service.AddInitialStock(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m)
}

// AddAdjustment handles POST /adjustments.
func (h *StockHandler) AddAdjustment(c *gin.Context) {
	var in stock.EntryInput
	if !h.BindJSON(c, &in) {
		return
	}
	m, err := h.service.AddAdjustment(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m)
}

// WarehouseHandler handles the pressed stock register.
type WarehouseHandler struct {
	ledgerReads
	service *pressed.Service
}

// NewWarehouseHandler creates a new pressed stock handler.
func NewWarehouseHandler(base *BaseHandler, service *pressed.Service) *WarehouseHandler {
	return &WarehouseHandler{
		ledgerReads: ledgerReads{BaseHandler: base, ledger: service.Ledger},
		service:     service,
	}
}

// Register mounts the warehouse routes on g.
func (h *WarehouseHandler) Register(g *gin.RouterGroup) {
	g.GET("/movements", h.Movements)
	g.GET("/balances", h.Balances)
	g.GET("/balances/:seaweedTypeId", h.Balance)
	g.POST("/initial", h.AddInitialStock)
	g.POST("/adjustments", h.AddAdjustment)
}

// Balance handles GET /balances/:seaweedTypeId.
func (h *WarehouseHandler) Balance(c *gin.Context) {
	b, err := h.service.Balance(c.Request.Context(), c.Param("seaweedTypeId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// AddInitialStock handles POST /initial.
func (h *WarehouseHandler) AddInitialStock(c *gin.Context) {
	var in pressed.EntryInput
	if !h.BindJSON(c, &in) {
		return
	}
	m, err := h.service.AddInitialStock(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m)
}

// AddAdjustment handles POST /adjustments.
func (h *WarehouseHandler) AddAdjustment(c *gin.Context) {
	var in pressed.EntryInput
	if !h.BindJSON(c, &in) {
		return
	}
	m, err := h.service.AddAdjustment(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m)
}
