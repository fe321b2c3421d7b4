package handlers

import (
	"github.com/gin-gonic/gin"

	"sealedger/internal/domain/cultivation"
	"sealedger/internal/domain/cutting"
	"sealedger/internal/infrastructure/http/v1/dto"
)

// PlantRequest plants a cycle for a farmer.
type PlantRequest struct {
	cultivation.PlantInput
	FarmerID string `json:"farmerId"`
}

// PlantFromCuttingsRequest records a cutting operation and plants from it.
type PlantFromCuttingsRequest struct {
	Operation     cutting.Operation      `json:"operation"`
	Planting      cultivation.PlantInput `json:"planting"`
	BeneficiaryID string                 `json:"beneficiaryId"`
}

// CultivationHandler handles cultivation cycle requests.
type CultivationHandler struct {
	*BaseHandler
	service *cultivation.Service
}

// NewCultivationHandler creates a new cultivation handler.
func NewCultivationHandler(base *BaseHandler, service *cultivation.Service) *CultivationHandler {
	return &CultivationHandler{BaseHandler: base, service: service}
}

// Register mounts the cycle routes on g.
func (h *CultivationHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Plant)
	g.POST("/from-cuttings", h.PlantFromCuttings)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/harvest", h.Harvest)
	g.POST("/:id/drying", h.StartDrying)
	g.POST("/:id/drying/complete", h.CompleteDrying)
	g.POST("/:id/bagging/complete", h.CompleteBagging)
	g.POST("/:id/transfer-to-stock", h.TransferToStock)
	g.POST("/:id/export", h.Export)
	g.POST("/transfer-to-stock", h.TransferBaggedToStock)
	g.POST("/export", h.ExportBatch)
	g.POST("/mark-paid", h.MarkPaid)
}

// List handles GET /cycles.
func (h *CultivationHandler) List(c *gin.Context) {
	from, ok := h.DateQuery(c, "harvestFrom")
	if !ok {
		return
	}
	to, ok := h.DateQuery(c, "harvestTo")
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), cultivation.Filter{
		ModuleID:      c.Query("moduleId"),
		FarmerID:      c.Query("farmerId"),
		SeaweedTypeID: c.Query("seaweedTypeId"),
		SiteID:        c.Query("siteId"),
		Status:        cultivation.Status(c.Query("status")),
		HarvestFrom:   from,
		HarvestTo:     to,
		UnpaidOnly:    h.BoolQuery(c, "unpaid"),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// Plant handles POST /cycles.
func (h *CultivationHandler) Plant(c *gin.Context) {
	var req PlantRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cycle, err := h.service.Plant(c.Request.Context(), req.PlantInput, req.FarmerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, cycle)
}

// PlantFromCuttings handles POST /cycles/from-cuttings.
func (h *CultivationHandler) PlantFromCuttings(c *gin.Context) {
	var req PlantFromCuttingsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	op, cycle, err := h.service.PlantFromCuttings(c.Request.Context(), req.Operation, req.Planting, req.BeneficiaryID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, gin.H{"operation": op, "cycle": cycle})
}

// Get handles GET /cycles/:id.
func (h *CultivationHandler) Get(c *gin.Context) {
	cycle, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cycle)
}

// Update handles PUT /cycles/:id.
func (h *CultivationHandler) Update(c *gin.Context) {
	var in cultivation.Cycle
	if !h.BindJSON(c, &in) {
		return
	}
	in.ID = c.Param("id")
	cycle, err := h.service.Update(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cycle)
}

// Delete handles DELETE /cycles/:id.
func (h *CultivationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Harvest handles POST /cycles/:id/harvest.
func (h *CultivationHandler) Harvest(c *gin.Context) {
	var in cultivation.HarvestInput
	if !h.BindJSON(c, &in) {
		return
	}
	cycle, err := h.service.Harvest(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cycle)
}

// StartDrying handles POST /cycles/:id/drying.
func (h *CultivationHandler) StartDrying(c *gin.Context) {
	var req dto.DateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cycle, err := h.service.StartDrying(c.Request.Context(), c.Param("id"), req.Date)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cycle)
}

// CompleteDrying handles POST /cycles/:id/drying/complete.
func (h *CultivationHandler) CompleteDrying(c *gin.Context) {
	var in cultivation.DryingInput
	if !h.BindJSON(c, &in) {
		return
	}
	cycle, err := h.service.CompleteDrying(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cycle)
}

// CompleteBagging handles POST /cycles/:id/bagging/complete.
func (h *CultivationHandler) CompleteBagging(c *gin.Context) {
	var in cultivation.BaggingInput
	if !h.BindJSON(c, &in) {
		return
	}
	cycle, err := h.service.CompleteBagging(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cycle)
}

// TransferToStock handles POST /cycles/:id/transfer-to-stock.
func (h *CultivationHandler) TransferToStock(c *gin.Context) {
	var req dto.DateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cycle, err := h.service.TransferToStock(c.Request.Context(), c.Param("id"), req.Date)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cycle)
}

// TransferBaggedToStock handles POST /cycles/transfer-to-stock.
// Cycles that are not bagged are skipped.
func (h *CultivationHandler) TransferBaggedToStock(c *gin.Context) {
	var req dto.DatedIDsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	n, err := h.service.TransferBaggedToStock(c.Request.Context(), req.IDs, req.Date)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Count(c, n)
}

// Export handles POST /cycles/:id/export.
func (h *CultivationHandler) Export(c *gin.Context) {
	var req dto.DateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cycle, err := h.service.Export(c.Request.Context(), c.Param("id"), req.Date)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cycle)
}

// ExportBatch handles POST /cycles/export.
func (h *CultivationHandler) ExportBatch(c *gin.Context) {
	var req dto.DatedIDsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	n, err := h.service.ExportBatch(c.Request.Context(), req.IDs, req.Date)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Count(c, n)
}

// MarkPaid handles POST /cycles/mark-paid.
func (h *CultivationHandler) MarkPaid(c *gin.Context) {
	var req dto.MarkPaidRequest
	if !h.BindJSON(c, &req) {
		return
	}
	n, err := h.service.MarkPaid(c.Request.Context(), req.IDs, req.PaymentRunID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Count(c, n)
}

// CuttingHandler handles cutting operation requests.
type CuttingHandler struct {
	*BaseHandler
	service *cutting.Service
}

// NewCuttingHandler creates a new cutting handler.
func NewCuttingHandler(base *BaseHandler, service *cutting.Service) *CuttingHandler {
	return &CuttingHandler{BaseHandler: base, service: service}
}

// Register mounts the cutting routes on g.
func (h *CuttingHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Add)
	g.GET("/latest", h.Latest)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/mark-paid", h.MarkPaid)
}

// List handles GET /cuttings.
func (h *CuttingHandler) List(c *gin.Context) {
	from, ok := h.DateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := h.DateQuery(c, "to")
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), cutting.Filter{
		SiteID:        c.Query("siteId"),
		SeaweedTypeID: c.Query("seaweedTypeId"),
		ModuleID:      c.Query("moduleId"),
		From:          from,
		To:            to,
		UnpaidOnly:    h.BoolQuery(c, "unpaid"),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// Latest handles GET /cuttings/latest?moduleId=&date=.
func (h *CuttingHandler) Latest(c *gin.Context) {
	date, ok := h.DateQuery(c, "date")
	if !ok {
		return
	}
	op, err := h.service.LatestForModule(c.Request.Context(), c.Query("moduleId"), date)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, op)
}

// Add handles POST /cuttings.
func (h *CuttingHandler) Add(c *gin.Context) {
	var op cutting.Operation
	if !h.BindJSON(c, &op) {
		return
	}
	added, err := h.service.Add(c.Request.Context(), op)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, added)
}

// Get handles GET /cuttings/:id.
func (h *CuttingHandler) Get(c *gin.Context) {
	op, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, op)
}

// Update handles PUT /cuttings/:id.
func (h *CuttingHandler) Update(c *gin.Context) {
	var op cutting.Operation
	if !h.BindJSON(c, &op) {
		return
	}
	op.ID = c.Param("id")
	updated, err := h.service.Update(c.Request.Context(), op)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}

// Delete handles DELETE /cuttings/:id.
func (h *CuttingHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// MarkPaid handles POST /cuttings/mark-paid.
func (h *CuttingHandler) MarkPaid(c *gin.Context) {
	var req dto.MarkPaidRequest
	if !h.BindJSON(c, &req) {
		return
	}
	n, err := h.service.MarkPaid(c.Request.Context(), req.IDs, req.Date)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Count(c, n)
}
