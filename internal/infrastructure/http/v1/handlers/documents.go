package handlers

import (
	"github.com/gin-gonic/gin"

	"sealedger/internal/core/types"
	"sealedger/internal/domain/documents/delivery"
	"sealedger/internal/domain/documents/export"
	"sealedger/internal/domain/documents/pressing"
	"sealedger/internal/domain/documents/transfer"
	"sealedger/internal/infrastructure/http/v1/dto"
)

// dateRange reads dateFrom and dateTo; ok is false after an error response.
func (h *BaseHandler) dateRange(c *gin.Context) (from, to types.Date, ok bool) {
	if from, ok = h.DateQuery(c, "dateFrom"); !ok {
		return
	}
	to, ok = h.DateQuery(c, "dateTo")
	return
}

// --- Deliveries ---

// DeliveryHandler handles dry seaweed delivery requests.
type DeliveryHandler struct {
	*BaseHandler
	service *delivery.Service
}

// NewDeliveryHandler creates a new delivery handler.
func NewDeliveryHandler(base *BaseHandler, service *delivery.Service) *DeliveryHandler {
	return &DeliveryHandler{BaseHandler: base, service: service}
}

// Register mounts the delivery routes on g.
func (h *DeliveryHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Add)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
	g.POST("/mark-paid", h.MarkPaid)
}

// List handles GET /deliveries.
func (h *DeliveryHandler) List(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), delivery.ListFilter{
		FarmerID:      c.Query("farmerId"),
		SiteID:        c.Query("siteId"),
		SeaweedTypeID: c.Query("seaweedTypeId"),
		DateFrom:      from,
		DateTo:        to,
		UnpaidOnly:    h.BoolQuery(c, "unpaid"),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// Add handles POST /deliveries.
func (h *DeliveryHandler) Add(c *gin.Context) {
	var d delivery.Delivery
	if !h.BindJSON(c, &d) {
		return
	}
	added, err := h.service.Add(c.Request.Context(), d)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, added)
}

// Get handles GET /deliveries/:id.
func (h *DeliveryHandler) Get(c *gin.Context) {
	d, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// Delete handles DELETE /deliveries/:id.
func (h *DeliveryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// MarkPaid handles POST /deliveries/mark-paid.
func (h *DeliveryHandler) MarkPaid(c *gin.Context) {
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

// --- Pressing slips ---

// PressingHandler handles pressing slip requests.
type PressingHandler struct {
	*BaseHandler
	service *pressing.Service
}

// NewPressingHandler creates a new pressing handler.
func NewPressingHandler(base *BaseHandler, service *pressing.Service) *PressingHandler {
	return &PressingHandler{BaseHandler: base, service: service}
}

// Register mounts the pressing routes on g.
func (h *PressingHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Add)
	g.POST("/returns", h.ReturnToSite)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// List handles GET /pressing-slips.
func (h *PressingHandler) List(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), pressing.ListFilter{
		SeaweedTypeID: c.Query("seaweedTypeId"),
		ExportDocID:   c.Query("exportDocId"),
		DateFrom:      from,
		DateTo:        to,
		Unexported:    h.BoolQuery(c, "unexported"),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// Add handles POST /pressing-slips.
func (h *PressingHandler) Add(c *gin.Context) {
	var slip pressing.Slip
	if !h.BindJSON(c, &slip) {
		return
	}
	added, err := h.service.Add(c.Request.Context(), slip)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, added)
}

// Get handles GET /pressing-slips/:id.
func (h *PressingHandler) Get(c *gin.Context) {
	slip, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, slip)
}

// Update handles PUT /pressing-slips/:id.
func (h *PressingHandler) Update(c *gin.Context) {
	var slip pressing.Slip
	if !h.BindJSON(c, &slip) {
		return
	}
	slip.ID = c.Param("id")
	updated, err := h.service.Update(c.Request.Context(), slip)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}

// Delete handles DELETE /pressing-slips/:id.
func (h *PressingHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ReturnToSite handles POST /pressing-slips/returns.
func (h *PressingHandler) ReturnToSite(c *gin.Context) {
	var in pressing.ReturnInput
	if !h.BindJSON(c, &in) {
		return
	}
	movements, err := h.service.RecordReturnToSite(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewListResponse(movements))
}

// --- Export documents ---

// ExportDocumentRequest creates an export document.
type ExportDocumentRequest struct {
	export.Document
	SourceSiteID string `json:"sourceSiteId"`
}

// ExportHandler handles export document requests.
type ExportHandler struct {
	*BaseHandler
	service *export.Service
}

// NewExportHandler creates a new export document handler.
func NewExportHandler(base *BaseHandler, service *export.Service) *ExportHandler {
	return &ExportHandler{BaseHandler: base, service: service}
}

// Register mounts the export document routes on g.
func (h *ExportHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Add)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// List handles GET /export-documents.
func (h *ExportHandler) List(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), export.ListFilter{
		SeaweedTypeID: c.Query("seaweedTypeId"),
		DateFrom:      from,
		DateTo:        to,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// Add handles POST /export-documents.
func (h *ExportHandler) Add(c *gin.Context) {
	var req ExportDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.Add(c.Request.Context(), req.Document, req.SourceSiteID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Get handles GET /export-documents/:id.
func (h *ExportHandler) Get(c *gin.Context) {
	doc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Update handles PUT /export-documents/:id.
func (h *ExportHandler) Update(c *gin.Context) {
	var doc export.Document
	if !h.BindJSON(c, &doc) {
		return
	}
	doc.ID = c.Param("id")
	updated, err := h.service.Update(c.Request.Context(), doc)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}

// Delete handles DELETE /export-documents/:id.
func (h *ExportHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// --- Transfers ---

// CompleteTransferRequest records what arrived at the destination.
type CompleteTransferRequest struct {
	ReceivedWeightKg types.Quantity `json:"receivedWeightKg"`
	ReceivedBags     int            `json:"receivedBags"`
	CompletionDate   types.Date     `json:"completionDate"`
}

// TransferHandler handles stock transfer requests.
type TransferHandler struct {
	*BaseHandler
	service *transfer.Service
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(base *BaseHandler, service *transfer.Service) *TransferHandler {
	return &TransferHandler{BaseHandler: base, service: service}
}

// Register mounts the transfer routes on g.
func (h *TransferHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Add)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.POST("/:id/in-transit", h.MarkInTransit)
	g.POST("/:id/complete", h.Complete)
	g.POST("/:id/cancel", h.Cancel)
}

// List handles GET /transfers.
func (h *TransferHandler) List(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), transfer.ListFilter{
		SiteID:        c.Query("siteId"),
		SeaweedTypeID: c.Query("seaweedTypeId"),
		Status:        transfer.Status(c.Query("status")),
		DateFrom:      from,
		DateTo:        to,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// Add handles POST /transfers.
func (h *TransferHandler) Add(c *gin.Context) {
	var t transfer.Transfer
	if !h.BindJSON(c, &t) {
		return
	}
	added, err := h.service.Add(c.Request.Context(), t)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, added)
}

// Get handles GET /transfers/:id.
func (h *TransferHandler) Get(c *gin.Context) {
	t, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Update handles PUT /transfers/:id.
func (h *TransferHandler) Update(c *gin.Context) {
	var t transfer.Transfer
	if !h.BindJSON(c, &t) {
		return
	}
	t.ID = c.Param("id")
	updated, err := h.service.Update(c.Request.Context(), t)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}

// MarkInTransit handles POST /transfers/:id/in-transit.
func (h *TransferHandler) MarkInTransit(c *gin.Context) {
	t, err := h.service.MarkInTransit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Complete handles POST /transfers/:id/complete.
func (h *TransferHandler) Complete(c *gin.Context) {
	var req CompleteTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Complete(c.Request.Context(), c.Param("id"), transfer.CompleteInput{
		ReceivedWeightKg: req.ReceivedWeightKg,
		ReceivedBags:     req.ReceivedBags,
		CompletionDate:   req.CompletionDate,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Cancel handles POST /transfers/:id/cancel.
func (h *TransferHandler) Cancel(c *gin.Context) {
	var req dto.CancelRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.service.Cancel(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}
